// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"
	"io"

	"github.com/MKhiriev/amestris-client/internal/adapter"
	"github.com/MKhiriev/amestris-client/internal/config"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/metrics"
	"github.com/MKhiriev/amestris-client/internal/notify"
	"github.com/MKhiriev/amestris-client/internal/realtime"
	"github.com/MKhiriev/amestris-client/internal/service"
	"github.com/MKhiriev/amestris-client/internal/store"
	"github.com/MKhiriev/amestris-client/models"
)

// App is the command-line application.
type App struct {
	cfg  *config.ClientConfig
	info models.AppBuildInfo

	storages *store.ClientStorages
	api      *adapter.API
	services *service.ClientServices
	bridge   *realtime.Bridge
	metrics  *metrics.Metrics

	out    io.Writer
	notify notify.Notifier
	logger *logger.Logger
}

// NewApp opens the local storage and wires every client component. Command
// output goes to out; notifications go to errOut and the log.
func NewApp(ctx context.Context, cfg *config.ClientConfig, info models.AppBuildInfo, out, errOut io.Writer, log *logger.Logger) (*App, error) {
	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create client storages: %w", err)
	}

	m := metrics.New()
	c, err := adapter.NewClient(cfg.Adapter, storages.Tokens, log,
		adapter.WithRecorder(m),
		adapter.WithUserAgent(info.UserAgent()),
	)
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("create request client: %w", err)
	}

	notifier := notify.Multi(notify.NewWriterNotifier(errOut), notify.NewLogNotifier(log))
	api := adapter.NewAPI(c)

	log.Debug().Str("base_url", c.BaseURL()).Str("user_agent", info.UserAgent()).Msg("client app created")

	return &App{
		cfg:      cfg,
		info:     info,
		storages: storages,
		api:      api,
		services: service.NewClientServices(c, api, storages.Tokens, notifier, log),
		bridge:   realtime.NewBridge(c.HTTP(), c, cfg.Realtime, notifier, log, realtime.WithObserver(m)),
		metrics:  m,
		out:      out,
		notify:   notifier,
		logger:   log,
	}, nil
}

// Run executes one command. The session is restored from storage first.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given\n%s", ErrUsage, usage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, args[0], usage)
	}

	session := a.services.Session
	session.Init(ctx)
	a.logger.Debug().Str("command", args[0]).Stringer("session", session.State()).Msg("running command")

	err := cmd(a, ctx, args[1:])
	if session.HandleAuthError(ctx, err) {
		a.logger.Info().Msg("session ended by the server")
	}
	// let a background logout finish before the process exits
	session.Wait()
	return err
}

// Close releases the local storage.
func (a *App) Close() error {
	return a.storages.Close()
}
