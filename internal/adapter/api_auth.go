// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MKhiriev/amestris-client/models"
)

// authTimeout bounds login and registration.
const authTimeout = 15 * time.Second

// AuthAPI wraps the /api/auth endpoints.
type AuthAPI struct {
	client *Client
}

// NewAuthAPI returns an [AuthAPI] over c.
func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{client: c}
}

// Login posts creds to /api/auth/login.
func (a *AuthAPI) Login(ctx context.Context, creds models.Credentials) (models.AuthResponse, error) {
	return a.authenticate(ctx, "/api/auth/login", creds)
}

// Register posts reg to /api/auth/register.
func (a *AuthAPI) Register(ctx context.Context, reg models.Registration) (models.AuthResponse, error) {
	return a.authenticate(ctx, "/api/auth/register", reg)
}

func (a *AuthAPI) authenticate(ctx context.Context, path string, body any) (models.AuthResponse, error) {
	res, err := a.client.Do(ctx, Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    body,
		Timeout: authTimeout,
	})
	if err != nil {
		return models.AuthResponse{}, err
	}

	var out models.AuthResponse
	if err = res.Decode(&out); err != nil {
		return models.AuthResponse{}, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Me returns the user owning token. The token is sent as an explicit
// override, so a 401 is final.
func (a *AuthAPI) Me(ctx context.Context, token string) (models.User, error) {
	res, err := a.client.Do(ctx, Request{Path: "/api/auth/me", Token: token})
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	if err = res.Decode(&user); err != nil {
		return models.User{}, fmt.Errorf("/api/auth/me: %w", err)
	}
	return user, nil
}

// Logout revokes sessionID, authenticating with token.
func (a *AuthAPI) Logout(ctx context.Context, token, sessionID string) error {
	_, err := a.client.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/api/auth/logout",
		Body:   models.LogoutRequest{SessionID: sessionID},
		Token:  token,
	})
	return err
}
