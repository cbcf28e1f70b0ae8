// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by AccessTokenExpiry for tokens without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// GenerateJWTToken creates a signed HMAC-SHA256 JWT token with the given parameters.
//
// The token includes the following standard claims:
//   - Issuer    (iss): identifies the service that issued the token
//   - Subject   (sub): the user ID encoded as a string
//   - IssuedAt  (iat): the current time
//   - ExpiresAt (exp): the current time plus tokenDuration
//   - ID        (jti): sessionID, when not empty
//
// A negative tokenDuration yields an already expired token.
//
// Example usage:
//
//	token, err := utils.GenerateJWTToken("amestris", 42, "s1", time.Hour, "secret")
func GenerateJWTToken(issuer string, userID int64, sessionID string, tokenDuration time.Duration, signKey string) (string, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" {
		return "", errors.New("invalid params for generating JWT Token")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(signKey))
	if err != nil {
		return "", fmt.Errorf("error occurred during singing JWT token: %w", err)
	}

	return tokenString, nil
}

// ValidateAndParseJWTToken verifies the signature, issuer and expiry of
// tokenString and returns the user id from its subject claim.
func ValidateAndParseJWTToken(tokenString, tokenSignKey, tokenIssuer string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("error occurred validating and parsing token: %w", err)
	}

	userIDStr, err := token.Claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("error occurred during getting subject from token: %w", err)
	}
	if userIDStr == "" {
		return 0, errors.New("empty subject error")
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error occurred during converting subject to user id: %w", err)
	}

	return userID, nil
}

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Split(strings.TrimSpace(authorizationHeader), " ")
	if len(parts) != 2 || parts[1] == "" || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}

// AccessTokenExpiry reads the exp claim of tokenString without verifying its
// signature. The client cannot verify tokens; it only uses the expiry to
// decide whether to refresh ahead of use.
//
// Returns ErrNoExpiry when the token carries no exp claim.
func AccessTokenExpiry(tokenString string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}

	return exp.Time, nil
}
