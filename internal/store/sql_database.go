// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/migrations"
)

// DB is the durable sqlite connection of the client.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// retryDelays are the waits between attempts of a retryable write.
var retryDelays = []time.Duration{20 * time.Millisecond, 100 * time.Millisecond, 250 * time.Millisecond}

// withRetry runs op and repeats it while it fails with an error the
// classifier marks [Retryable], up to len(retryDelays) more times.
func (db *DB) withRetry(ctx context.Context, op func() error) error {
	err := op()
	for _, delay := range retryDelays {
		if err == nil || db.errorClassificator == nil || db.errorClassificator.Classify(err) != Retryable {
			return err
		}
		db.logger.Debug().Err(err).Dur("delay", delay).Msg("retrying database write")

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		err = op()
	}
	return err
}

// Migrate applies the embedded goose migrations.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB)
}
