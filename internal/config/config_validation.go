// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants that do not depend on the runtime view.
func (cfg *StructuredConfig) validate() error {
	if cfg.Adapter.RequestTimeout < 0 || cfg.Adapter.RefreshTimeout < 0 {
		return ErrInvalidAdapterConfigs
	}
	if cfg.Realtime.RetryDelay < 0 {
		return ErrInvalidRealtimeConfigs
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.BaseURL == "" || cfg.Adapter.RequestTimeout < 0 {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Realtime.Path == "" || cfg.Realtime.RetryDelay <= 0 {
		return ErrInvalidRealtimeConfigs
	}

	return nil
}
