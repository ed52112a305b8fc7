// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package pipeline sequences collection, cleaning, feature engineering,
// splitting and encoding for every configured dataset and writes the run's
// artifacts.
//
// The primary dataset runs first: it is the only dataset that is split, and
// the encoder fits on its train partition. Auxiliary datasets then run in
// parallel (bounded by pipeline.parallelism) and are transformed with the
// primary's parameters. When the primary fails, parameters persisted by an
// earlier run are used; without them auxiliary datasets fail with
// ErrNoFitParameters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/reelcast/internal/catalog"
	"github.com/tomtom215/reelcast/internal/collect"
	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/events"
	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/metrics"
	"github.com/tomtom215/reelcast/internal/models"
	"github.com/tomtom215/reelcast/internal/preprocess"
)

// ErrNoFitParameters is returned for a dataset that must be transformed
// while neither the current run nor an earlier one produced parameters.
var ErrNoFitParameters = errors.New("no fit parameters available")

// ErrNoCollector is returned when a collecting mode runs without a fetcher.
var ErrNoCollector = errors.New("collection requires a catalog fetcher")

// Mode selects which stages a run executes.
type Mode string

// Run modes.
const (
	// ModeRun collects every dataset and processes it.
	ModeRun Mode = "run"
	// ModeCollect only collects and persists raw collections.
	ModeCollect Mode = "collect"
	// ModeTransform re-processes raw collections persisted earlier.
	ModeTransform Mode = "transform"
)

// Sink receives processed tables and run history.
type Sink interface {
	LoadTable(ctx context.Context, table, csvPath string) (int64, error)
	RecordRun(ctx context.Context, summary *models.RunSummary) error
}

// Runner executes pipeline runs. A Runner may be reused for consecutive
// runs but not for concurrent ones.
type Runner struct {
	cfg       *config.Config
	layout    Layout
	collector *collect.Collector
	sink      Sink
	publisher events.Publisher
	now       func() time.Time
	newRunID  func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink loads every processed table and the run summary into sink.
func WithSink(sink Sink) Option {
	return func(r *Runner) { r.sink = sink }
}

// WithPublisher announces finished datasets through p.
func WithPublisher(p events.Publisher) Option {
	return func(r *Runner) { r.publisher = p }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner. fetcher may be nil when only ModeTransform is
// used.
func NewRunner(cfg *config.Config, fetcher catalog.Fetcher, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		layout:   NewLayout(cfg.Pipeline.OutputDir),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	if fetcher != nil {
		r.collector = collect.NewCollector(fetcher)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Layout returns the artifact layout of the runner.
func (r *Runner) Layout() Layout { return r.layout }

// runState is shared by the datasets of one run and read-only while
// datasets execute.
type runState struct {
	mode      Mode
	reference time.Time
	manifest  *models.FeatureManifest
	params    *models.FitParameters
}

// Run executes one pipeline run and returns its summary. Dataset failures
// are reported in the summary, not as an error; the error is non-nil only
// when the run itself could not be carried out or ctx was cancelled.
func (r *Runner) Run(ctx context.Context, mode Mode) (*models.RunSummary, error) {
	if mode != ModeTransform && r.collector == nil {
		return nil, ErrNoCollector
	}

	started := r.now()
	runID := r.newRunID()
	ctx = logging.ContextWithCorrelationID(ctx, runID[:8])
	log := logging.Ctx(ctx)

	reference, err := r.cfg.ReferenceTime(started)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.layout.Root(), 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	state := &runState{
		mode:      mode,
		reference: reference,
		manifest:  preprocess.NewManifest(runID, started),
	}
	summary := &models.RunSummary{
		RunID:     runID,
		StartedAt: started.UTC(),
		Reference: reference.UTC(),
	}

	log.Info().
		Str("run_id", runID).
		Str("mode", string(mode)).
		Time("reference_time", reference).
		Int("datasets", len(r.cfg.Datasets)).
		Msg("Pipeline run started")

	primary, _ := r.cfg.Dataset(r.cfg.Pipeline.PrimaryDataset)
	primarySummary, params := r.runPrimary(ctx, primary, state)
	summary.Datasets = append(summary.Datasets, primarySummary)
	state.params = params

	if mode != ModeCollect && state.params == nil {
		state.params = r.persistedParams(ctx)
	}

	auxiliaries := make([]config.DatasetConfig, 0, len(r.cfg.Datasets))
	for _, ds := range r.cfg.Datasets {
		if ds.Name != primary.Name {
			auxiliaries = append(auxiliaries, ds)
		}
	}
	results := make([]models.DatasetSummary, len(auxiliaries))

	// Datasets fail independently, so workers never return an error.
	var g errgroup.Group
	g.SetLimit(r.cfg.Pipeline.Parallelism)
	for i, ds := range auxiliaries {
		g.Go(func() error {
			results[i] = r.runAuxiliary(ctx, ds, state)
			return nil
		})
	}
	_ = g.Wait()
	summary.Datasets = append(summary.Datasets, results...)

	if mode != ModeCollect {
		if err := writeJSON(r.layout.Manifest(), state.manifest); err != nil {
			return summary, err
		}
	}

	summary.FinishedAt = r.now().UTC()
	if err := writeJSON(r.layout.Summary(), summary); err != nil {
		return summary, err
	}
	if r.sink != nil {
		if err := r.sink.RecordRun(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("Failed to record run in warehouse")
		}
	}

	elapsed := summary.FinishedAt.Sub(summary.StartedAt)
	metrics.RecordRun(elapsed, summary.Failed())

	event := log.Info()
	if summary.Failed() {
		event = log.Warn()
	}
	event.
		Str("run_id", runID).
		Dur("duration", elapsed).
		Bool("failed", summary.Failed()).
		Msg("Pipeline run finished")

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) persistedParams(ctx context.Context) *models.FitParameters {
	log := logging.Ctx(ctx)
	params, err := LoadParams(r.layout.Params())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("Persisted fit parameters unusable")
		}
		return nil
	}
	log.Info().
		Str("fitted_on", params.FittedOn).
		Time("fitted_at", params.FittedAt).
		Msg("Using persisted fit parameters")
	return params
}
