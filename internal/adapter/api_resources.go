// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MKhiriev/amestris-client/models"
)

const (
	alchemistsPath     = "/api/alchemists"
	materialsPath      = "/api/materials"
	missionsPath       = "/api/missions"
	transmutationsPath = "/api/transmutations"
	auditsPath         = "/api/audits"
)

// API groups the typed endpoints of the backend.
type API struct {
	Auth           *AuthAPI
	Alchemists     *AlchemistsAPI
	Materials      *MaterialsAPI
	Missions       *MissionsAPI
	Transmutations *TransmutationsAPI
	Audits         *AuditsAPI
}

// NewAPI builds every typed API over c.
func NewAPI(c *Client) *API {
	return &API{
		Auth:           NewAuthAPI(c),
		Alchemists:     &AlchemistsAPI{client: c},
		Materials:      &MaterialsAPI{client: c},
		Missions:       &MissionsAPI{client: c},
		Transmutations: &TransmutationsAPI{client: c},
		Audits:         &AuditsAPI{client: c},
	}
}

func itemPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

func doJSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T

	res, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if err = res.Decode(&out); err != nil {
		return out, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return out, nil
}

func list[T any](ctx context.Context, c *Client, path string, query url.Values) (models.List[T], error) {
	return doJSON[models.List[T]](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	return doJSON[T](ctx, c, Request{Method: http.MethodGet, Path: path})
}

func create[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return doJSON[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

func update[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return doJSON[T](ctx, c, Request{Method: http.MethodPut, Path: path, Body: body})
}

func remove(ctx context.Context, c *Client, path string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
	return err
}

// AlchemistsAPI wraps /api/alchemists. Mutations require the SUPERVISOR role.
type AlchemistsAPI struct {
	client *Client
}

func (a *AlchemistsAPI) List(ctx context.Context) (models.List[models.Alchemist], error) {
	return list[models.Alchemist](ctx, a.client, alchemistsPath, nil)
}

func (a *AlchemistsAPI) Get(ctx context.Context, id int64) (models.Alchemist, error) {
	return get[models.Alchemist](ctx, a.client, itemPath(alchemistsPath, id))
}

func (a *AlchemistsAPI) Create(ctx context.Context, in models.AlchemistInput) (models.Alchemist, error) {
	return create[models.Alchemist](ctx, a.client, alchemistsPath, in)
}

func (a *AlchemistsAPI) Update(ctx context.Context, id int64, in models.AlchemistInput) (models.Alchemist, error) {
	return update[models.Alchemist](ctx, a.client, itemPath(alchemistsPath, id), in)
}

func (a *AlchemistsAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, a.client, itemPath(alchemistsPath, id))
}

// MaterialsAPI wraps /api/materials.
type MaterialsAPI struct {
	client *Client
}

func (m *MaterialsAPI) List(ctx context.Context) (models.List[models.Material], error) {
	return list[models.Material](ctx, m.client, materialsPath, nil)
}

func (m *MaterialsAPI) Create(ctx context.Context, in models.MaterialInput) (models.Material, error) {
	return create[models.Material](ctx, m.client, materialsPath, in)
}

func (m *MaterialsAPI) Update(ctx context.Context, id int64, in models.MaterialInput) (models.Material, error) {
	return update[models.Material](ctx, m.client, itemPath(materialsPath, id), in)
}

func (m *MaterialsAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, m.client, itemPath(materialsPath, id))
}

// MissionsAPI wraps /api/missions.
type MissionsAPI struct {
	client *Client
}

func (m *MissionsAPI) List(ctx context.Context) (models.List[models.Mission], error) {
	return list[models.Mission](ctx, m.client, missionsPath, nil)
}

func (m *MissionsAPI) Get(ctx context.Context, id int64) (models.Mission, error) {
	return get[models.Mission](ctx, m.client, itemPath(missionsPath, id))
}

func (m *MissionsAPI) Create(ctx context.Context, in models.MissionInput) (models.Mission, error) {
	return create[models.Mission](ctx, m.client, missionsPath, in)
}

func (m *MissionsAPI) Update(ctx context.Context, id int64, in models.MissionInput) (models.Mission, error) {
	return update[models.Mission](ctx, m.client, itemPath(missionsPath, id), in)
}

func (m *MissionsAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, m.client, itemPath(missionsPath, id))
}

// TransmutationsAPI wraps /api/transmutations.
type TransmutationsAPI struct {
	client *Client
}

// List returns one page of transmutations. Zero fields of q are not sent.
func (t *TransmutationsAPI) List(ctx context.Context, q models.TransmutationQuery) (models.List[models.Transmutation], error) {
	params := map[string]any{"q": q.Q}
	if q.Page > 0 {
		params["page"] = q.Page
	}
	if q.PageSize > 0 {
		params["pageSize"] = q.PageSize
	}
	return list[models.Transmutation](ctx, t.client, transmutationsPath, Query(params))
}

func (t *TransmutationsAPI) Create(ctx context.Context, in models.TransmutationInput) (models.Transmutation, error) {
	return create[models.Transmutation](ctx, t.client, transmutationsPath, in)
}

func (t *TransmutationsAPI) Update(ctx context.Context, id int64, in models.TransmutationInput) (models.Transmutation, error) {
	return update[models.Transmutation](ctx, t.client, itemPath(transmutationsPath, id), in)
}

func (t *TransmutationsAPI) Delete(ctx context.Context, id int64) error {
	return remove(ctx, t.client, itemPath(transmutationsPath, id))
}

// AuditsAPI wraps /api/audits.
type AuditsAPI struct {
	client *Client
}

func (a *AuditsAPI) List(ctx context.Context) (models.List[models.Audit], error) {
	return list[models.Audit](ctx, a.client, auditsPath, nil)
}
