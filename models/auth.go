// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Credentials is the body of POST /api/auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the body of POST /api/auth/register.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// AuthResponse is returned by login and registration.
//
// Token is the legacy single access token; newer backends additionally send
// the full Access/Refresh/SessionID triplet.
type AuthResponse struct {
	Token     string `json:"token"`
	Access    string `json:"access,omitempty"`
	Refresh   string `json:"refresh,omitempty"`
	SessionID string `json:"jti,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	User      User   `json:"user"`
}

// TokenSet returns the structured triplet carried by the response.
func (r AuthResponse) TokenSet() TokenSet {
	return TokenSet{Access: r.Access, Refresh: r.Refresh, SessionID: r.SessionID}
}

// RefreshRequest is the body of POST /api/auth/refresh.
type RefreshRequest struct {
	Refresh   string `json:"refresh"`
	SessionID string `json:"jti"`
}

// RefreshResponse is returned by a successful refresh.
type RefreshResponse struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	SessionID string `json:"jti"`
	Exp       int64  `json:"exp,omitempty"`
}

// TokenSet converts the response into a [TokenSet].
func (r RefreshResponse) TokenSet() TokenSet {
	return TokenSet{Access: r.Access, Refresh: r.Refresh, SessionID: r.SessionID}
}

// LogoutRequest is the body of POST /api/auth/logout.
type LogoutRequest struct {
	SessionID string `json:"jti"`
}

// ErrorResponse is the JSON error envelope written by the backend.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
