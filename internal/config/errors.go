// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid client adapter settings
	// (for example, missing base URL or negative timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid client storage settings
	// (for example, empty DSN or an in-memory DSN for durable storage).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidRealtimeConfigs indicates invalid realtime settings
	// (for example, empty endpoint path or non-positive retry delay).
	ErrInvalidRealtimeConfigs = errors.New("invalid realtime configuration")
)
