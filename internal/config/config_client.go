// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"time"
)

// ClientApp holds process-wide client settings.
type ClientApp struct {
	// Verbose enables debug logging.
	Verbose bool
}

// ClientAdapter holds network settings used by the client transport layer.
type ClientAdapter struct {
	// BaseURL is the REST and push endpoint base, e.g. http://localhost:8080.
	BaseURL string
	// RequestTimeout is the default timeout for outbound client requests.
	RequestTimeout time.Duration
	// RefreshTimeout bounds a silent token refresh.
	RefreshTimeout time.Duration
}

// ClientDB contains local database connection settings for the client.
type ClientDB struct {
	// DSN is the sqlite connection string used for durable token storage.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
}

// ClientRealtime contains the server-push connection settings.
type ClientRealtime struct {
	// Path is the event-stream endpoint path.
	Path string
	// RetryDelay is the initial reconnection delay.
	RetryDelay time.Duration
}

// ClientMetrics contains the metrics endpoint settings.
type ClientMetrics struct {
	// Address is the listen address; empty disables the endpoint.
	Address string
}

// ClientConfig is the top-level client configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App      ClientApp
	Adapter  ClientAdapter
	Storage  ClientStorage
	Realtime ClientRealtime
	Metrics  ClientMetrics
}

// GetClientConfig builds and validates the client config view from the merged
// structured configuration and returns the positional arguments left after
// flag parsing.
func GetClientConfig(args []string) (*ClientConfig, []string, error) {
	cfg, rest, err := GetStructuredConfig(args)
	if err != nil {
		return nil, nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := NewClientConfig(cfg)
	return clientCfg, rest, clientCfg.validate()
}

// NewClientConfig maps the fields of cfg relevant to the client runtime.
func NewClientConfig(cfg *StructuredConfig) *ClientConfig {
	return &ClientConfig{
		App: ClientApp{
			Verbose: cfg.App.Verbose,
		},
		Adapter: ClientAdapter{
			BaseURL:        cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			RefreshTimeout: cfg.Adapter.RefreshTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Realtime: ClientRealtime{
			Path:       cfg.Realtime.Path,
			RetryDelay: cfg.Realtime.RetryDelay,
		},
		Metrics: ClientMetrics{
			Address: cfg.Metrics.Address,
		},
	}
}
