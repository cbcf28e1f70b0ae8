// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "errors"

var (
	// ErrUsage is returned for a missing or unknown command or bad
	// command arguments.
	ErrUsage = errors.New("usage error")

	// ErrUnknownResource is returned by list for an unsupported resource.
	ErrUnknownResource = errors.New("unknown resource")
)
