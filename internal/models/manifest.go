// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package models

import "time"

// FeatureManifest is the authoritative description of the processed tables:
// the identifier column, the ordered feature columns and the target.
// RatedColumn flags rows whose target is a real rating rather than the
// "no votes yet" sentinel; it is never a model input.
type FeatureManifest struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	IDColumn    string    `json:"id_column"`
	Target      string    `json:"target"`
	RatedColumn string    `json:"rated_column"`
	Features    []string  `json:"features"`
}

// Header returns the CSV header of a processed table.
func (m *FeatureManifest) Header() []string {
	header := make([]string, 0, len(m.Features)+3)
	header = append(header, m.IDColumn)
	header = append(header, m.Features...)
	header = append(header, m.Target)
	if m.RatedColumn != "" {
		header = append(header, m.RatedColumn)
	}
	return header
}
