// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// TokenSet is the credential triplet issued by the backend on login,
// registration and refresh.
//
// Either all three fields are set and belong to the same login session, or
// there is no session at all. The only exception is the legacy form created by
// storing a bare access token, where Refresh and SessionID are empty.
type TokenSet struct {
	// Access is the short-lived bearer token sent with every request.
	Access string `json:"access"`

	// Refresh is exchanged for a new TokenSet when Access is rejected.
	Refresh string `json:"refresh"`

	// SessionID correlates Refresh with a login session on the server and is
	// used to revoke it on logout. The backend calls it "jti".
	SessionID string `json:"jti"`
}

// Complete reports whether all three credentials are present.
func (t TokenSet) Complete() bool {
	return t.Access != "" && t.Refresh != "" && t.SessionID != ""
}

// CanRefresh reports whether the set carries a refresh token.
func (t TokenSet) CanRefresh() bool {
	return t.Refresh != ""
}
