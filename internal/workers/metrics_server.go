// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/utils"
	"github.com/MKhiriev/amestris-client/models"
)

const shutdownTimeout = 5 * time.Second

// MetricsServer serves the client's metrics, a liveness probe and build
// information over HTTP.
type MetricsServer struct {
	address string
	server  *http.Server
	logger  *logger.Logger
}

// NewMetricsServer builds the endpoint on address. metrics is mounted at
// /metrics.
func NewMetricsServer(address string, metrics http.Handler, info models.AppBuildInfo, log *logger.Logger) *MetricsServer {
	m := &MetricsServer{
		address: address,
		logger:  log.GetChildLogger("metrics_server"),
	}
	m.server = &http.Server{
		Addr:              address,
		Handler:           m.routes(metrics, info),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return m
}

// Handler returns the router.
func (m *MetricsServer) Handler() http.Handler {
	return m.server.Handler
}

func (m *MetricsServer) routes(metrics http.Handler, info models.AppBuildInfo) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(m.withLogging)

	router.Method(http.MethodGet, "/metrics", metrics)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = utils.WriteJSON(w, map[string]string{
			"version": info.BuildVersion(),
			"date":    info.BuildDate(),
			"commit":  info.BuildCommit(),
		}, http.StatusOK)
	})

	return router
}

func (m *MetricsServer) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(lw, r)

		m.logger.Debug().
			Str("uri", r.RequestURI).
			Str("method", r.Method).
			Int("status", lw.status).
			Dur("duration", time.Since(start)).
			Int("size", lw.size).
			Send()
	})
}

// Run listens until ctx is done, then shuts the server down gracefully.
func (m *MetricsServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", m.address)
	if err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	m.logger.Info().Str("address", listener.Addr().String()).Msg("metrics server listening")

	served := make(chan error, 1)
	go func() {
		served <- m.server.Serve(listener)
	}()

	select {
	case err = <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err = m.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	m.logger.Info().Msg("metrics server stopped")
	return nil
}
