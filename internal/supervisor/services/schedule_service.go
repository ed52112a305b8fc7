// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelcast/internal/models"
)

// ErrLastRunFailed is reported by RunStatus.Health after a run in which a
// dataset failed.
var ErrLastRunFailed = errors.New("last pipeline run failed")

// RunFunc executes one pipeline run.
type RunFunc func(ctx context.Context) (*models.RunSummary, error)

// ScheduleConfig holds configuration for the schedule service.
type ScheduleConfig struct {
	// Interval between the starts of consecutive runs. Default: 24h
	Interval time.Duration

	// RunOnStartup triggers a run as soon as the service starts.
	RunOnStartup bool

	// RunTimeout bounds a single run; zero means no bound.
	RunTimeout time.Duration
}

// RunStatus records the outcome of the most recent run. It is safe for
// concurrent use.
type RunStatus struct {
	mu       sync.RWMutex
	summary  *models.RunSummary
	err      error
	finished time.Time
	runs     int
}

// NewRunStatus creates an empty RunStatus.
func NewRunStatus() *RunStatus {
	return &RunStatus{}
}

func (s *RunStatus) record(summary *models.RunSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.err = err
	s.finished = time.Now()
	s.runs++
}

// Last returns the summary of the most recent run, nil before the first.
func (s *RunStatus) Last() (*models.RunSummary, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary, s.finished
}

// Runs returns the number of completed runs.
func (s *RunStatus) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

// Health returns nil until a run has failed. Degraded datasets count as
// healthy.
func (s *RunStatus) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return s.err
	}
	if s.summary != nil && s.summary.Failed() {
		return fmt.Errorf("%w: run %s", ErrLastRunFailed, s.summary.RunID)
	}
	return nil
}

// ScheduleService runs the pipeline periodically under supervision.
type ScheduleService struct {
	run    RunFunc
	config ScheduleConfig
	status *RunStatus
	logger zerolog.Logger
	name   string
}

// NewScheduleService creates a new schedule service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScheduleService(run RunFunc, cfg ScheduleConfig, status *RunStatus, logger zerolog.Logger) *ScheduleService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if status == nil {
		status = NewRunStatus()
	}
	return &ScheduleService{
		run:    run,
		config: cfg,
		status: status,
		logger: logger.With().Str("service", "schedule").Logger(),
		name:   "pipeline-schedule",
	}
}

// Serve implements suture.Service.
func (s *ScheduleService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Msg("pipeline schedule starting")

	if s.config.RunOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("pipeline schedule shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *ScheduleService) runOnce(ctx context.Context) {
	runCtx := ctx
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := s.run(runCtx)
	if ctx.Err() != nil {
		// shutdown; an interrupted run is not a failure of the schedule
		return
	}
	s.status.record(summary, err)

	switch {
	case err != nil:
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("scheduled run failed")
	case summary != nil && summary.Failed():
		s.logger.Warn().Str("run_id", summary.RunID).Dur("duration", time.Since(start)).Msg("scheduled run finished with failed datasets")
	default:
		s.logger.Info().Dur("duration", time.Since(start)).Msg("scheduled run complete")
	}
}

// String returns the service name for logging.
func (s *ScheduleService) String() string {
	return s.name
}
