// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// GenerationStatus is the lifecycle of a tracked generation.
type GenerationStatus string

const (
	StatusPending   GenerationStatus = "pending"
	StatusCompleted GenerationStatus = "completed"
	StatusFailed    GenerationStatus = "failed"
)

// GenerationMode tells local renders apart from remote workflow calls.
type GenerationMode string

const (
	ModeLocal  GenerationMode = "local"
	ModeRemote GenerationMode = "remote"
)

// ActiveGeneration is a tracked in-flight generation request.
type ActiveGeneration struct {
	ID        string           `json:"id"`
	Owner     string           `json:"-"`
	Mode      GenerationMode   `json:"mode"`
	ChildName string           `json:"child_name"`
	Theme     ThemeSnapshot    `json:"theme"`
	Progress  int              `json:"progress"`
	Status    GenerationStatus `json:"status"`
	Error     string           `json:"error,omitempty"`
	HistoryID string           `json:"history_id,omitempty"`
	StartedAt time.Time        `json:"started_at"`
	ElapsedMS int64            `json:"elapsed_ms"`
}

// Touch refreshes ElapsedMS relative to now.
func (g *ActiveGeneration) Touch(now time.Time) {
	g.ElapsedMS = now.Sub(g.StartedAt).Milliseconds()
}

// ProgressEvent is pushed to clients as a generation advances.
type ProgressEvent struct {
	GenerationID string           `json:"generation_id"`
	Mode         GenerationMode   `json:"mode"`
	State        string           `json:"state,omitempty"`
	Status       GenerationStatus `json:"status,omitempty"`
	Progress     int              `json:"progress"`
	Message      string           `json:"message,omitempty"`
	HistoryID    string           `json:"history_id,omitempty"`
}

// Draft is the persisted generate-form state of one client.
type Draft struct {
	ChildName string    `json:"child_name"`
	ThemeID   string    `json:"theme_id"`
	Photo     string    `json:"photo,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
