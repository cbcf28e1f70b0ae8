// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/amestris-client/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthAPI is the backend authentication surface used by [Session].
// *adapter.AuthAPI implements it.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error)
	Register(ctx context.Context, reg models.Registration) (models.AuthResponse, error)
	// Me validates token without triggering a refresh.
	Me(ctx context.Context, token string) (models.User, error)
	Logout(ctx context.Context, token, sessionID string) error
}

// SessionTokens is the token store as seen by [Session]. *store.TokenStore
// implements it.
type SessionTokens interface {
	AccessToken(ctx context.Context) (string, error)
	GetAll(ctx context.Context) (models.TokenSet, error)
	SetAll(ctx context.Context, set models.TokenSet) error
	Set(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// TokenRefresher refreshes the stored access token ahead of its expiry.
// *adapter.Client implements it.
type TokenRefresher interface {
	EnsureFresh(ctx context.Context) (string, error)
}

// TransmutationLister loads a page of transmutations. *adapter.TransmutationsAPI
// implements it.
type TransmutationLister interface {
	List(ctx context.Context, q models.TransmutationQuery) (models.List[models.Transmutation], error)
}

// RoleHolder reports the role of the current user. *Session implements it.
type RoleHolder interface {
	HasRole(roles ...models.Role) bool
}
