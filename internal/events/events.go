// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package events announces finished dataset artifacts to downstream
// consumers (training jobs, dashboards) over NATS.
package events

import (
	"context"
	"time"
)

// ArtifactEvent announces that the artifacts of one dataset are ready.
type ArtifactEvent struct {
	RunID     string    `json:"run_id"`
	Dataset   string    `json:"dataset"`
	Auxiliary bool      `json:"auxiliary"`
	Status    string    `json:"status"`
	Rows      int       `json:"rows"`
	Artifacts []string  `json:"artifacts"`
	Manifest  string    `json:"manifest"`
	Params    string    `json:"params"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher delivers artifact events.
type Publisher interface {
	PublishArtifacts(ctx context.Context, event *ArtifactEvent) error
	Close() error
}
