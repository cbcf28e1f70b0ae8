// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"flag"
	"fmt"
	"io"
	"time"
)

// ParseFlags parses the global client flags from args and returns the
// resulting partial config together with the remaining positional arguments.
//
// Flags:
//
//	-a base URL of the backend, e.g. http://localhost:8080
//	-d sqlite database path for durable token storage
//	-c/-config json file path with configs
//	-request-timeout default request timeout (e.g., "15s")
//	-refresh-timeout silent refresh timeout (e.g., "10s")
//	-realtime-path event-stream endpoint path
//	-retry-delay realtime reconnection delay (e.g., "3s")
//	-metrics-address listen address of the metrics endpoint
//	-v verbose logging
func ParseFlags(args []string) (*StructuredConfig, []string, error) {
	var baseURL string
	var databaseDSN string
	var jsonConfigPath string
	var requestTimeout time.Duration
	var refreshTimeout time.Duration
	var realtimePath string
	var retryDelay time.Duration
	var metricsAddress string
	var verbose bool

	fs := flag.NewFlagSet("amestris-client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&baseURL, "a", "", "Backend base URL")
	fs.StringVar(&databaseDSN, "d", "", "SQLite database path")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 15s)")
	fs.DurationVar(&refreshTimeout, "refresh-timeout", 0, "Refresh timeout (e.g., 10s)")
	fs.StringVar(&realtimePath, "realtime-path", "", "Event-stream endpoint path")
	fs.DurationVar(&retryDelay, "retry-delay", 0, "Realtime reconnection delay (e.g., 3s)")
	fs.StringVar(&metricsAddress, "metrics-address", "", "Metrics endpoint listen address")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			Verbose: verbose,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Adapter: Adapter{
			HTTPAddress:    baseURL,
			RequestTimeout: requestTimeout,
			RefreshTimeout: refreshTimeout,
		},
		Realtime: Realtime{
			Path:       realtimePath,
			RetryDelay: retryDelay,
		},
		Metrics: Metrics{
			Address: metricsAddress,
		},
		JSONFilePath: jsonConfigPath,
	}, fs.Args(), nil
}
