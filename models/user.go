// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "strings"

// Role is the authorization level of an authenticated user.
type Role string

const (
	// RoleSupervisor may manage alchemists, materials and missions.
	RoleSupervisor Role = "SUPERVISOR"
	// RoleAlchemist is the default role for registered users.
	RoleAlchemist Role = "ALCHEMIST"
)

// ParseRole normalises s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleSupervisor, RoleAlchemist:
		return r, true
	default:
		return "", false
	}
}

// User is the authenticated account as returned by the "whoami" endpoint and
// embedded in login/registration responses.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// HasRole reports whether the user holds one of roles. Comparison is
// case-insensitive.
func (u User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if strings.EqualFold(string(u.Role), string(r)) {
			return true
		}
	}
	return false
}
