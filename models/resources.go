// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// Alchemist is a state alchemist managed by supervisors.
type Alchemist struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Rank      string    `json:"rank,omitempty"`
	Specialty string    `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// AlchemistInput is the create/update payload for an alchemist.
type AlchemistInput struct {
	Name      string `json:"name"`
	Rank      string `json:"rank,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

// Material is an inventory item consumed by transmutations.
type Material struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	Unit      string    `json:"unit"`
	Rarity    *string   `json:"rarity,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// MaterialInput is the create/update payload for a material.
type MaterialInput struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Rarity   *string `json:"rarity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	MissionPending    MissionStatus = "PENDING"
	MissionApproved   MissionStatus = "APPROVED"
	MissionInProgress MissionStatus = "IN_PROGRESS"
	MissionCompleted  MissionStatus = "COMPLETED"
	MissionRejected   MissionStatus = "REJECTED"
)

// Mission is a task optionally assigned to an alchemist.
type Mission struct {
	ID                  int64         `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description,omitempty"`
	Status              MissionStatus `json:"status"`
	AssignedAlchemistID *int64        `json:"assignedAlchemistId,omitempty"`
	AssignedAlchemist   *Alchemist    `json:"assignedAlchemist,omitempty"`
	ScheduledAt         *time.Time    `json:"scheduledAt,omitempty"`
	CompletedAt         *time.Time    `json:"completedAt,omitempty"`
	CreatedAt           time.Time     `json:"createdAt,omitzero"`
	UpdatedAt           time.Time     `json:"updatedAt,omitzero"`
}

// MissionInput is the create/update payload for a mission.
type MissionInput struct {
	Title               string        `json:"title"`
	AssignedAlchemistID *int64        `json:"assignedAlchemistId,omitempty"`
	Status              MissionStatus `json:"status,omitempty"`
	Description         *string       `json:"description,omitempty"`
}

// Transmutation records materials used for a mission.
type Transmutation struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	MaterialID   int64     `json:"materialId"`
	MaterialName string    `json:"materialName,omitempty"`
	MissionID    *int64    `json:"missionId,omitempty"`
	MissionTitle string    `json:"missionTitle,omitempty"`
	QuantityUsed float64   `json:"quantityUsed"`
	Result       *string   `json:"result,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
}

// TransmutationInput is the create/update payload for a transmutation.
type TransmutationInput struct {
	Title        string  `json:"title"`
	MaterialID   int64   `json:"materialId"`
	MissionID    *int64  `json:"missionId,omitempty"`
	QuantityUsed float64 `json:"quantityUsed"`
	Result       *string `json:"result,omitempty"`
}

// Audit is one entry of the backend audit log.
type Audit struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  int64           `json:"entityId"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitzero"`
}
