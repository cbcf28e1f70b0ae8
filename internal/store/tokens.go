// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/models"
)

// Storage slots of the session token material.
const (
	// authKey holds the structured triplet as JSON in the durable scope.
	authKey = "auth"
	// legacyTokenKey holds a bare access token in both scopes.
	legacyTokenKey = "token"
)

// TokenStore is the single source of truth for the session token set.
//
// The structured triplet in the durable "auth" slot is canonical. The bare
// "token" slots of the durable and session scopes are written as mirrors of
// the access token and read only as a fallback by [TokenStore.AccessToken].
//
// TODO: drop the legacy "token" slots once every persisted session carries a
// triplet, i.e. when the backend no longer issues bare "token" responses.
//
// A TokenStore has no locking of its own: concurrent writers race and the last
// one wins. Refreshes are de-duplicated upstream.
type TokenStore struct {
	durable KeyValueStorage
	session KeyValueStorage
	logger  *logger.Logger
}

// NewTokenStore builds a TokenStore over a durable and a session scope.
func NewTokenStore(durable, session KeyValueStorage, logger *logger.Logger) *TokenStore {
	return &TokenStore{
		durable: durable,
		session: session,
		logger:  logger,
	}
}

// AccessToken returns the current access token. It prefers the structured
// triplet and falls back to the session then the durable legacy slot.
// Returns [ErrTokenNotFound] when no slot holds a token.
func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	set, err := s.GetAll(ctx)
	switch {
	case err == nil && set.Access != "":
		return set.Access, nil
	case err != nil && !errors.Is(err, ErrTokenNotFound):
		return "", err
	}

	for _, scope := range []KeyValueStorage{s.session, s.durable} {
		token, err := scope.Get(ctx, legacyTokenKey)
		if err != nil {
			if errors.Is(err, ErrKeyNotFound) {
				continue
			}
			return "", fmt.Errorf("read legacy token: %w", err)
		}
		if token != "" {
			return token, nil
		}
	}

	return "", ErrTokenNotFound
}

// GetAll returns the structured triplet, or [ErrTokenNotFound] when it is
// absent or cannot be parsed.
func (s *TokenStore) GetAll(ctx context.Context) (models.TokenSet, error) {
	raw, err := s.durable.Get(ctx, authKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return models.TokenSet{}, ErrTokenNotFound
		}
		return models.TokenSet{}, fmt.Errorf("read token set: %w", err)
	}

	var set models.TokenSet
	if err = json.Unmarshal([]byte(raw), &set); err != nil {
		s.logger.Warn().Err(err).Str("func", "*TokenStore.GetAll").Msg("stored token set is not parseable")
		return models.TokenSet{}, ErrTokenNotFound
	}

	return set, nil
}

// SetAll persists set as the structured triplet and mirrors its access token
// into both legacy slots.
func (s *TokenStore) SetAll(ctx context.Context, set models.TokenSet) error {
	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode token set: %w", err)
	}

	if err = s.durable.Set(ctx, authKey, string(payload)); err != nil {
		return fmt.Errorf("write token set: %w", err)
	}
	if err = s.durable.Set(ctx, legacyTokenKey, set.Access); err != nil {
		return fmt.Errorf("write legacy token: %w", err)
	}
	if err = s.session.Set(ctx, legacyTokenKey, set.Access); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}

	return nil
}

// Set stores a bare access token as a triplet with empty refresh and session
// id.
func (s *TokenStore) Set(ctx context.Context, access string) error {
	return s.SetAll(ctx, models.TokenSet{Access: access})
}

// Clear removes all persisted token material. Every slot is attempted even
// when an earlier one fails.
func (s *TokenStore) Clear(ctx context.Context) error {
	return errors.Join(
		s.durable.Delete(ctx, authKey),
		s.durable.Delete(ctx, legacyTokenKey),
		s.session.Delete(ctx, legacyTokenKey),
	)
}
