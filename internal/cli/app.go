// Package cli is the command line storefront.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/shopzone/internal/infra/config"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/repo/catalog"
	"github.com/mkrupp/shopzone/internal/repo/kv"
	"github.com/mkrupp/shopzone/internal/svc/cartsvc"
	"github.com/mkrupp/shopzone/internal/svc/sessionsvc"
	"github.com/mkrupp/shopzone/internal/svc/storefront"
)

// Config holds the configuration of the storefront CLI.
type Config struct {
	config.EnvConfig

	Log        logging.LoggerConfig `envPrefix:"LOG_"`
	Storage    kv.Config            `envPrefix:"STORAGE_"`
	Catalog    catalog.Config       `envPrefix:"CATALOG_"`
	Session    sessionsvc.Config    `envPrefix:"SESSION_"`
	Storefront storefront.Config    `envPrefix:"STOREFRONT_"`
}

// App wires the storefront services for one CLI invocation.
type App struct {
	Catalog     *catalog.Catalog
	Bridge      *storefront.Bridge
	Preferences *storefront.Preferences

	storage kv.Storage
}

// Open opens the configured storage and builds an App on it.
func Open(ctx context.Context, cfg Config) (*App, error) {
	storage, err := kv.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	app, err := NewApp(ctx, cfg, storage)
	if err != nil {
		return nil, errors.Join(err, storage.Close())
	}

	return app, nil
}

// NewApp builds an App on storage. Closing the App closes storage.
func NewApp(ctx context.Context, cfg Config, storage kv.Storage) (*App, error) {
	products, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	provider, err := sessionsvc.NewAuthProvider(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("new auth provider: %w", err)
	}

	sessions := sessionsvc.NewStore(ctx, provider, storage, cfg.Session)
	cart := cartsvc.NewEngine(ctx, products, storage)

	return &App{
		Catalog:     products,
		Bridge:      storefront.NewBridge(sessions, cart, cfg.Storefront),
		Preferences: storefront.NewPreferences(storage),
		storage:     storage,
	}, nil
}

func (app *App) Close() error {
	if err := app.storage.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}

	return nil
}
