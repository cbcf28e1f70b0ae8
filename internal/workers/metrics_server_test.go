// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/metrics"
	"github.com/MKhiriev/amestris-client/models"
)

func TestMetricsServer_Routes(t *testing.T) {
	m := metrics.New()
	m.ObserveRefresh("success")
	srv := NewMetricsServer("127.0.0.1:0", m.Handler(), models.NewAppBuildInfo("v1.2.0", "2026-10-01", "abc123"), logger.Nop())

	tests := []struct {
		name         string
		method       string
		path         string
		wantStatus   int
		wantContains string
	}{
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK, wantContains: `amestris_client_token_refresh_total{outcome="success"} 1`},
		{name: "healthz", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK, wantContains: "ok"},
		{name: "version", method: http.MethodGet, path: "/version", wantStatus: http.StatusOK, wantContains: `"commit":"abc123"`},
		{name: "unknown path", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, path: "/metrics", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantContains)
		})
	}
}

func TestMetricsServer_RunAndShutdown(t *testing.T) {
	// reserve a free port
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := l.Addr().String()
	require.NoError(t, l.Close())

	srv := NewMetricsServer(address, metrics.New().Handler(), models.NewAppBuildInfo("", "", ""), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + address + "/healthz")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_ListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	srv := NewMetricsServer(l.Addr().String(), metrics.New().Handler(), models.NewAppBuildInfo("", "", ""), logger.Nop())

	err = srv.Run(context.Background())

	assert.ErrorContains(t, err, "metrics server")
}
