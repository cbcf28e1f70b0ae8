// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/amestris-client/internal/config"
	"github.com/MKhiriev/amestris-client/internal/logger"
)

// ClientStorages groups the client-side storage scopes and the token store
// built on top of them. It is created once at startup and passed by reference.
type ClientStorages struct {
	// Durable is the sqlite-backed scope that survives restarts.
	Durable KeyValueStorage

	// Session is the in-memory scope that lives for one process.
	Session KeyValueStorage

	// Tokens is the session token store over Durable and Session.
	Tokens *TokenStore

	db *DB
}

// NewClientStorages initialises the client storage layer:
//  1. Opens an SQLite connection to cfg.DB.DSN, creating the file if needed.
//  2. Runs pending schema migrations via [DB.Migrate].
//  3. Wires the durable and session scopes into a [TokenStore].
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	durable := NewSQLiteKeyValueRepository(db, logger)
	session := NewMemoryKeyValueStorage()

	return &ClientStorages{
		Durable: durable,
		Session: session,
		Tokens:  NewTokenStore(durable, session, logger),
		db:      db,
	}, nil
}

// Close releases the sqlite connection.
func (s *ClientStorages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
