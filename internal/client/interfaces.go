// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run executes the command named by args[0] and blocks until it is done
	// or ctx is canceled.
	Run(ctx context.Context, args []string) error

	// Close releases resources held by the application.
	Close() error
}
