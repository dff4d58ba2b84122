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
	"github.com/mkrupp/shopzone/internal/repo/user"
	"github.com/mkrupp/shopzone/internal/svc/authsvc"
)

const (
	appName = "shopzone"
	svcName = "authsvc"
)

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig        `envPrefix:"LOG_"`
	Auth authsvc.AuthConfig          `envPrefix:"AUTH_"`
	HTTP authsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	User user.Config                 `envPrefix:"USER_"`
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
	log := logging.GetLogger("cmd.authsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	authSvc, err := authsvc.NewAuthService(ctx, user.Factory(cfg.User), cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}
	defer authSvc.Close()

	httpTransport := authsvc.NewHTTPTransport(authSvc, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
