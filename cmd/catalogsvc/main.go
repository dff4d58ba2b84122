package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/shopzone/internal/infra/config"
	"github.com/mkrupp/shopzone/internal/infra/logging"
	"github.com/mkrupp/shopzone/internal/infra/transport/http"
	"github.com/mkrupp/shopzone/internal/repo/blob"
	"github.com/mkrupp/shopzone/internal/repo/catalog"
	"github.com/mkrupp/shopzone/internal/svc/authsvc/authclient"
	"github.com/mkrupp/shopzone/internal/svc/catalogsvc"
)

const (
	appName = "shopzone"
	svcName = "catalogsvc"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig                `envPrefix:"LOG_"`
	Catalog catalog.Config                      `envPrefix:"CATALOG_"`
	Image   catalogsvc.ImageConfig              `envPrefix:"IMAGE_"`
	Blob    blob.FileSystemBlobRepositoryConfig `envPrefix:"BLOB_"`
	Auth    authclient.HTTPClientConfig         `envPrefix:"AUTH_"`
	HTTP    catalogsvc.HTTPTransportConfig      `envPrefix:"HTTP_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.catalogsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	products, err := catalog.Open(ctx, cfg.Catalog)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	imageSvc, err := catalogsvc.NewImageService(
		ctx,
		blob.FileSystemBlobRepositoryFactory(cfg.Blob),
		products,
		cfg.Image,
	)
	if err != nil {
		return fmt.Errorf("new image service: %w", err)
	}

	authClient := authclient.NewHTTPClient(cfg.Auth, nil)

	httpTransport := catalogsvc.NewHTTPTransport(products, imageSvc, authClient, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
