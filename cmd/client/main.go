package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/amestris-client/internal/client"
	"github.com/MKhiriev/amestris-client/internal/config"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	os.Exit(run())
}

func run() int {
	info := models.NewAppBuildInfo(buildVersion, buildDate, buildCommit)

	cfg, args, err := config.GetClientConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting configs: %v\n", err)
		return 2
	}

	log := logger.NewClientLogger("amestris-client", cfg.App.Verbose)
	log.Info().
		Str("version", info.BuildVersion()).
		Str("date", info.BuildDate()).
		Str("commit", info.BuildCommit()).
		Msg("starting amestris client")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()
	ctx = log.WithContext(ctx)

	app, err := client.NewApp(ctx, cfg, info, os.Stdout, os.Stderr, log)
	if err != nil {
		log.Error().Err(err).Msg("init client app error")
		fmt.Fprintf(os.Stderr, "init client app: %v\n", err)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close client app")
		}
	}()

	if err = app.Run(ctx, args); err != nil {
		log.Error().Err(err).Msg("client run error")
		app.Report(err)
		return 1
	}
	return 0
}
