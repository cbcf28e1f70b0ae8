// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/MKhiriev/amestris-client/internal/app"
	"github.com/MKhiriev/amestris-client/internal/logger"
	"github.com/MKhiriev/amestris-client/internal/notify"
	"github.com/MKhiriev/amestris-client/models"
)

// feedPageSize is the size of the first page loaded by TransmutationFeed.
const feedPageSize = 20

// TransmutationFeed is the locally held list of transmutations, newest first,
// kept up to date with server-pushed changes. It is safe for concurrent use.
//
// Upsert and Remove are idempotent, so an event that races with the local
// echo of the same change leaves a single record.
type TransmutationFeed struct {
	api      TransmutationLister
	audience RoleHolder
	notifier notify.Notifier
	logger   *logger.Logger

	mu    sync.RWMutex
	items []models.Transmutation
}

// NewTransmutationFeed builds an empty feed. Supervisors among audience are
// notified of pushed changes through notifier.
func NewTransmutationFeed(api TransmutationLister, audience RoleHolder, notifier notify.Notifier, log *logger.Logger) *TransmutationFeed {
	return &TransmutationFeed{
		api:      api,
		audience: audience,
		notifier: notifier,
		logger:   log.GetChildLogger("transmutation_feed"),
	}
}

// Load replaces the feed with the first page of transmutations matching q.
// The page size defaults to 20.
func (f *TransmutationFeed) Load(ctx context.Context, q models.TransmutationQuery) error {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = feedPageSize
	}

	page, err := f.api.List(ctx, q)
	if err != nil {
		return fmt.Errorf("load transmutations: %w", err)
	}

	f.mu.Lock()
	f.items = slices.Clone(page.Items)
	f.mu.Unlock()

	f.logger.Debug().Int("count", len(page.Items)).Int("total", page.Total).Msg("transmutations loaded")
	return nil
}

// Items returns a snapshot of the feed.
func (f *TransmutationFeed) Items() []models.Transmutation {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.Transmutation, len(f.items))
	for i, t := range f.items {
		out[i] = cloneTransmutation(t)
	}
	return out
}

// Insert prepends t unless a record with its id is already present.
func (f *TransmutationFeed) Insert(t models.Transmutation) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.index(t.ID) >= 0 {
		return
	}
	f.items = slices.Insert(f.items, 0, cloneTransmutation(t))
}

// Upsert applies a created or updated transmutation pushed by the server.
//
// raw is the event's JSON payload. When a record with its id exists, the
// fields present in raw are merged onto it and the others are kept; a new id
// is prepended. Payloads without a positive id are ignored. It reports whether
// the feed changed.
func (f *TransmutationFeed) Upsert(raw json.RawMessage) (bool, error) {
	var head struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return false, fmt.Errorf("decode transmutation payload: %w", err)
	}
	if head.ID <= 0 {
		return false, nil
	}

	f.mu.Lock()
	i := f.index(head.ID)
	var merged models.Transmutation
	if i >= 0 {
		merged = cloneTransmutation(f.items[i])
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		f.mu.Unlock()
		return false, fmt.Errorf("decode transmutation payload: %w", err)
	}
	if i >= 0 {
		f.items[i] = merged
	} else {
		f.items = slices.Insert(f.items, 0, merged)
	}
	f.mu.Unlock()

	if f.audience.HasRole(models.RoleSupervisor) {
		if i >= 0 {
			f.notifier.Info(fmt.Sprintf(app.MsgTransmutationUpdated, head.ID, merged.Title))
		} else {
			f.notifier.Info(fmt.Sprintf(app.MsgTransmutationCreated, head.ID, merged.Title))
		}
	}

	return true, nil
}

// Remove drops the record with id. Non-positive ids are ignored. It reports
// whether a record was removed.
func (f *TransmutationFeed) Remove(id int64) bool {
	if id <= 0 {
		return false
	}

	f.mu.Lock()
	i := f.index(id)
	if i >= 0 {
		f.items = slices.Delete(f.items, i, i+1)
	}
	f.mu.Unlock()

	if i >= 0 && f.audience.HasRole(models.RoleSupervisor) {
		f.notifier.Info(fmt.Sprintf(app.MsgTransmutationDeleted, id))
	}

	return i >= 0
}

// index returns the position of id in the feed or -1. Callers hold f.mu.
func (f *TransmutationFeed) index(id int64) int {
	return slices.IndexFunc(f.items, func(t models.Transmutation) bool { return t.ID == id })
}

// cloneTransmutation copies t including its pointer fields, so decoding onto
// the copy leaves t untouched.
func cloneTransmutation(t models.Transmutation) models.Transmutation {
	if t.MissionID != nil {
		id := *t.MissionID
		t.MissionID = &id
	}
	if t.Result != nil {
		result := *t.Result
		t.Result = &result
	}
	return t
}
