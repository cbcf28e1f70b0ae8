// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter is the transport layer between the amestris client and the
// REST backend.
//
// [Client] performs one authenticated request: it attaches the bearer token
// from the [TokenStore], bounds the call with a timeout, and on a 401 performs
// exactly one silent refresh followed by one retry. Concurrent 401s share a
// single in-flight refresh.
//
// Failures are classified so callers can use [errors.Is]: [ErrTimeout] for an
// expired timer, [ErrNetwork] for transport failures, and [*HTTPError] for
// non-2xx responses, which unwraps to a status sentinel such as
// [ErrUnauthorized] or [ErrConflict].
//
// The typed APIs ([AuthAPI], [MaterialsAPI], ...) wrap [Client.Do] for each
// backend resource.
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/amestris-client/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// TokenStore is the subset of the session token store used by [Client].
type TokenStore interface {
	// AccessToken returns the current access token or an error when none is
	// stored.
	AccessToken(ctx context.Context) (string, error)

	// GetAll returns the full token triplet.
	GetAll(ctx context.Context) (models.TokenSet, error)

	// SetAll replaces the token triplet.
	SetAll(ctx context.Context, set models.TokenSet) error
}

// Recorder receives request and refresh observations, e.g. for metrics.
type Recorder interface {
	// ObserveRequest records one round trip. status is 0 when no response
	// was received.
	ObserveRequest(method string, status int, elapsed time.Duration)

	// ObserveRefresh records the outcome of one silent refresh attempt.
	ObserveRefresh(outcome string)
}

// Refresh outcomes reported to [Recorder.ObserveRefresh].
const (
	RefreshSucceeded  = "success"
	RefreshFailed     = "failure"
	RefreshNoToken    = "no_refresh_token"
	RefreshIncomplete = "incomplete"
)

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, int, time.Duration) {}
func (nopRecorder) ObserveRefresh(string)                     {}
