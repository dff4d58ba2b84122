package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/mkrupp/shopzone/internal/cli"
	"github.com/mkrupp/shopzone/internal/infra/config"
	"github.com/mkrupp/shopzone/internal/infra/logging"
)

const (
	appName = "shopzone"
	svcName = "cli"
)

func main() {
	var (
		cfg cli.Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cli.Config, args []string) (err error) {
	app, err := cli.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storefront: %w", err)
	}

	defer func() {
		if closeErr := app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	cmd := cli.NewRootCommand(app)
	cmd.SetArgs(args)

	return cmd.ExecuteContext(ctx) //nolint:wrapcheck
}
