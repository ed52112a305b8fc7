// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package models

import (
	"sort"
	"time"
)

// DropReason names why a record left a stage without being an error.
type DropReason string

// Drop reasons counted in stage reports.
const (
	DropDuplicateID   DropReason = "duplicate_id"
	DropCapped        DropReason = "capped"
	DropBelowMinVotes DropReason = "below_min_votes"
	DropPageFailed    DropReason = "page_failed"
)

// DropMissing is the reason for a record lacking a required column.
func DropMissing(column string) DropReason { return DropReason("missing:" + column) }

// DropUnparseable is the reason for a required column with a malformed value.
func DropUnparseable(column string) DropReason { return DropReason("unparseable:" + column) }

// DropOutlier is the reason for an IQR outlier on column.
func DropOutlier(column string) DropReason { return DropReason("outlier:" + column) }

// DropFiltered is the reason for a record rejected by a dataset filter.
func DropFiltered(rule string) DropReason { return DropReason("filtered:" + rule) }

// Pipeline stages.
const (
	StageCollect  = "collect"
	StageClean    = "clean"
	StageEngineer = "engineer"
	StageSplit    = "split"
	StageEncode   = "encode"
)

// StageReport summarizes the record flow of one stage.
type StageReport struct {
	Stage      string         `json:"stage"`
	RowsIn     int            `json:"rows_in"`
	RowsOut    int            `json:"rows_out"`
	Dropped    map[string]int `json:"dropped,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// NewStageReport starts a report for stage with rowsIn input records.
func NewStageReport(stage string, rowsIn int) StageReport {
	return StageReport{Stage: stage, RowsIn: rowsIn}
}

// Drop counts n records dropped for reason.
func (r *StageReport) Drop(reason DropReason, n int) {
	if n <= 0 {
		return
	}
	if r.Dropped == nil {
		r.Dropped = make(map[string]int)
	}
	r.Dropped[string(reason)] += n
}

// DroppedTotal returns the number of dropped records across all reasons.
func (r *StageReport) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Reasons returns the drop reasons in stable order.
func (r *StageReport) Reasons() []string {
	reasons := make([]string, 0, len(r.Dropped))
	for reason := range r.Dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}

// Finish records the output size and elapsed time.
func (r *StageReport) Finish(rowsOut int, elapsed time.Duration) {
	r.RowsOut = rowsOut
	r.DurationMS = elapsed.Milliseconds()
}

// Dataset outcomes.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded" // finished with failed pages
	StatusFailed   = "failed"
)

// FetchStats summarizes catalog traffic for one dataset.
type FetchStats struct {
	PagesRequested int   `json:"pages_requested"`
	PagesFetched   int   `json:"pages_fetched"`
	FailedPages    []int `json:"failed_pages,omitempty"`
	Attempts       int   `json:"attempts"`
	CacheHits      int   `json:"cache_hits"`
}

// DatasetSummary is the per-dataset section of a run summary.
type DatasetSummary struct {
	Name       string             `json:"name"`
	Auxiliary  bool               `json:"auxiliary"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Fetch      FetchStats         `json:"fetch"`
	Collection *CollectionSummary `json:"collection,omitempty"`
	Stages     []StageReport      `json:"stages"`
	Artifacts  []string           `json:"artifacts"`
}

// RunSummary is written once per run next to the artifacts.
type RunSummary struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Reference  time.Time        `json:"reference_time"`
	Datasets   []DatasetSummary `json:"datasets"`
}

// Failed reports whether any dataset failed.
func (s *RunSummary) Failed() bool {
	for _, ds := range s.Datasets {
		if ds.Status == StatusFailed {
			return true
		}
	}
	return false
}
