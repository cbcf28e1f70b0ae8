// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the amestris
// client. It is populated by merging values from environment variables (and
// an optional .env file), command-line flags, an optional JSON file and
// finally the built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds process-wide settings such as verbosity.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the durable token storage.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the backend address and request timeouts.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Realtime holds settings for the server-push connection.
	Realtime Realtime `envPrefix:"REALTIME_"`

	// Metrics holds settings for the optional metrics endpoint.
	Metrics Metrics `envPrefix:"METRICS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// Verbose enables debug logging and logging of hello/ping events.
	// Env: APP_VERBOSE
	Verbose bool `env:"VERBOSE"`
}

// Storage groups the configuration for the client storage backends.
type Storage struct {
	// DB holds the durable sqlite database settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the durable sqlite database.
type DB struct {
	// DSN is the sqlite database file path
	// (e.g. "amestris-client.db" or "file:/var/lib/amestris/client.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Adapter holds settings for the REST backend.
type Adapter struct {
	// HTTPAddress is the base URL of the REST and push endpoints
	// (e.g. "http://localhost:8080").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the default timeout for one request including its
	// refresh-retry (e.g. "15s"). Zero disables the timeout.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RefreshTimeout bounds a silent token refresh.
	// Env: ADAPTER_REFRESH_TIMEOUT
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT"`
}

// Realtime holds settings for the server-push connection.
type Realtime struct {
	// Path is the event-stream endpoint relative to the adapter address.
	// Env: REALTIME_PATH
	Path string `env:"PATH"`

	// RetryDelay is the reconnection delay used until the server sends its own
	// "retry:" field.
	// Env: REALTIME_RETRY_DELAY
	RetryDelay time.Duration `env:"RETRY_DELAY"`
}

// Metrics holds settings for the prometheus endpoint served by long-running
// commands.
type Metrics struct {
	// Address is the listen address, e.g. "127.0.0.1:9100". Empty disables it.
	// Env: METRICS_ADDRESS
	Address string `env:"ADDRESS"`
}

// Defaults applied to every field left empty by all other sources.
const (
	DefaultHTTPAddress    = "http://localhost:8080"
	DefaultRequestTimeout = 15 * time.Second
	DefaultRefreshTimeout = 10 * time.Second
	DefaultDSN            = "amestris-client.db"
	DefaultRealtimePath   = "/api/realtime/sse"
	DefaultRetryDelay     = 3 * time.Second
)

// defaultConfig returns the configuration used to fill the gaps after every
// other source has been merged.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{DB: DB{DSN: DefaultDSN}},
		Adapter: Adapter{
			HTTPAddress:    DefaultHTTPAddress,
			RequestTimeout: DefaultRequestTimeout,
			RefreshTimeout: DefaultRefreshTimeout,
		},
		Realtime: Realtime{
			Path:       DefaultRealtimePath,
			RetryDelay: DefaultRetryDelay,
		},
	}
}

// GetStructuredConfig loads, merges, and validates the configuration from all
// available sources. For each field the first source that sets it wins, in
// this order:
//  1. Environment variables (including a .env file in the working directory)
//  2. Command-line flags parsed from args
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// It returns the merged config and the positional arguments left after flag
// parsing (the command to run).
func GetStructuredConfig(args []string) (*StructuredConfig, []string, error) {
	b := newConfigBuilder().
		withDotEnv().
		withEnv().
		withFlags(args).
		withJSON().
		withDefaults()

	cfg, err := b.build()
	return cfg, b.rest, err
}
