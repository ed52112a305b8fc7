// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package metrics defines the Prometheus collectors for catalog fetches,
// page caching, per-stage record flow and run outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Catalog Fetch Metrics
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_catalog_requests_total",
			Help: "Catalog API requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: "success", "retry", "failed"
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelcast_catalog_request_duration_seconds",
			Help:    "Duration of single catalog API attempts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CatalogThrottleWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelcast_catalog_throttle_wait_seconds",
			Help:    "Time spent waiting on the request interval and shared budget",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2},
		},
	)

	// Page Cache Metrics
	PageCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_page_cache_hits_total",
			Help: "Fetched pages served from the page cache",
		},
		[]string{"backend"},
	)

	PageCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_page_cache_misses_total",
			Help: "Page lookups that fell through to the catalog",
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelcast_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Stage Metrics
	StageRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_stage_records_total",
			Help: "Records entering and leaving each pipeline stage",
		},
		[]string{"dataset", "stage", "direction"}, // direction: "in", "out"
	)

	StageDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_stage_drops_total",
			Help: "Records dropped by stage and reason",
		},
		[]string{"dataset", "stage", "reason"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelcast_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"dataset", "stage"},
	)

	// Run Metrics
	DatasetRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelcast_dataset_runs_total",
			Help: "Dataset pipeline runs by outcome",
		},
		[]string{"dataset", "outcome"}, // outcome: "success", "degraded", "failed"
	)

	RunLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelcast_run_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last fully successful run",
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reelcast_run_duration_seconds",
			Help:    "Duration of whole pipeline runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
	)
)

// RecordCatalogAttempt records one catalog API attempt.
func RecordCatalogAttempt(endpoint, outcome string, duration time.Duration) {
	CatalogRequests.WithLabelValues(endpoint, outcome).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordThrottleWait records time spent blocked before a request.
func RecordThrottleWait(wait time.Duration) {
	CatalogThrottleWait.Observe(wait.Seconds())
}

// RecordPageCache records a page cache lookup.
func RecordPageCache(backend string, hit bool) {
	if hit {
		PageCacheHits.WithLabelValues(backend).Inc()
		return
	}
	PageCacheMisses.WithLabelValues(backend).Inc()
}

// RecordStage records the record flow and duration of one stage.
func RecordStage(dataset, stage string, in, out int, dropped map[string]int, duration time.Duration) {
	StageRecords.WithLabelValues(dataset, stage, "in").Add(float64(in))
	StageRecords.WithLabelValues(dataset, stage, "out").Add(float64(out))
	for reason, n := range dropped {
		StageDrops.WithLabelValues(dataset, stage, reason).Add(float64(n))
	}
	StageDuration.WithLabelValues(dataset, stage).Observe(duration.Seconds())
}

// RecordDatasetRun records the outcome of one dataset's pipeline.
func RecordDatasetRun(dataset, outcome string) {
	DatasetRuns.WithLabelValues(dataset, outcome).Inc()
}

// RecordRun records a whole run; the success timestamp only moves when no
// dataset failed.
func RecordRun(duration time.Duration, failed bool) {
	RunDuration.Observe(duration.Seconds())
	if !failed {
		RunLastSuccess.Set(float64(time.Now().Unix()))
	}
}
