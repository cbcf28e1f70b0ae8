// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/amestris-client/internal/logger"
)

const kvTable = "client_kv"

// sqliteKeyValueRepository is the durable [KeyValueStorage]. Values live in
// the client_kv table created by the goose migrations and survive restarts.
type sqliteKeyValueRepository struct {
	db      *DB
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// NewSQLiteKeyValueRepository constructs the durable [KeyValueStorage] backed
// by db.
func NewSQLiteKeyValueRepository(db *DB, logger *logger.Logger) KeyValueStorage {
	logger.Debug().Msg("creating key/value repository")
	return &sqliteKeyValueRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger,
	}
}

// Get returns the value stored under key or [ErrKeyNotFound].
func (r *sqliteKeyValueRepository) Get(ctx context.Context, key string) (string, error) {
	query, args, err := r.builder.
		Select("value").
		From(kvTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var value string
	if err = r.db.QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrKeyNotFound
		}
		r.logger.Err(err).Str("func", "*sqliteKeyValueRepository.Get").Str("key", key).Msg("error reading value")
		return "", fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return value, nil
}

// Set upserts value under key.
func (r *sqliteKeyValueRepository) Set(ctx context.Context, key, value string) error {
	query, args, err := r.builder.
		Insert(kvTable).
		Columns("key", "value", "updated_at").
		Values(key, value, sq.Expr("CURRENT_TIMESTAMP")).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = r.db.withRetry(ctx, func() error {
		_, execErr := r.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		r.logger.Err(err).Str("func", "*sqliteKeyValueRepository.Set").Str("key", key).Msg("error writing value")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// Delete removes key. Removing an absent key succeeds.
func (r *sqliteKeyValueRepository) Delete(ctx context.Context, key string) error {
	query, args, err := r.builder.
		Delete(kvTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = r.db.withRetry(ctx, func() error {
		_, execErr := r.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		r.logger.Err(err).Str("func", "*sqliteKeyValueRepository.Delete").Str("key", key).Msg("error deleting value")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}
