// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/reelcast/internal/collect"
	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/events"
	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/metrics"
	"github.com/tomtom215/reelcast/internal/models"
	"github.com/tomtom215/reelcast/internal/preprocess"
)

type table struct {
	role    preprocess.Role
	records []models.EncodedRecord
}

// runPrimary processes the primary dataset and returns the parameters
// fitted on its train partition, or nil when it did not get that far.
func (r *Runner) runPrimary(ctx context.Context, ds config.DatasetConfig, state *runState) (models.DatasetSummary, *models.FitParameters) {
	ctx = logging.ContextWithDataset(ctx, ds.Name)
	sum := newDatasetSummary(ds)

	coll, err := r.acquire(ctx, ds, state, &sum)
	if err != nil {
		return r.fail(ctx, sum, err), nil
	}
	if state.mode == ModeCollect {
		return r.finish(ctx, sum, state), nil
	}

	engineered, err := r.prepare(ctx, ds, coll, state, &sum)
	if err != nil {
		return r.fail(ctx, sum, err), nil
	}

	splitStarted := time.Now()
	policy := preprocess.PolicyFromConfig(r.cfg.Split)
	train, test, err := preprocess.Split(engineered, policy)
	splitReport := models.NewStageReport(models.StageSplit, len(engineered))
	if err != nil {
		splitReport.Finish(0, time.Since(splitStarted))
		r.recordStage(ctx, ds.Name, &sum, splitReport)
		return r.fail(ctx, sum, err), nil
	}
	splitReport.Finish(len(train)+len(test), time.Since(splitStarted))
	r.recordStage(ctx, ds.Name, &sum, splitReport)
	logging.Ctx(ctx).Info().
		Str("policy", policy.String()).
		Int("train", len(train)).
		Int("test", len(test)).
		Int("last_train_year", train[len(train)-1].ReleaseYear).
		Int("first_test_year", test[0].ReleaseYear).
		Msg("Temporal split")

	encodeStarted := time.Now()
	encoder := preprocess.NewEncoder(r.cfg.Pipeline.PrimaryDataset)
	trainEncoded, params, err := encoder.FitTransform(preprocess.Partition{
		Dataset: ds.Name,
		Role:    preprocess.RoleTrain,
		Records: train,
	})
	if err != nil {
		return r.fail(ctx, sum, err), nil
	}
	testEncoded, err := preprocess.Transform(test, params)
	if err != nil {
		return r.fail(ctx, sum, err), nil
	}
	fullEncoded, err := preprocess.Transform(engineered, params)
	if err != nil {
		return r.fail(ctx, sum, err), nil
	}
	encodeReport := models.NewStageReport(models.StageEncode, len(engineered))
	encodeReport.Finish(len(fullEncoded), time.Since(encodeStarted))
	r.recordStage(ctx, ds.Name, &sum, encodeReport)

	if err := writeJSON(r.layout.Params(), params); err != nil {
		return r.fail(ctx, sum, err), nil
	}
	sum.Artifacts = append(sum.Artifacts, r.layout.Rel(r.layout.Params()))

	err = r.writeTables(ctx, ds, state, &sum,
		table{preprocess.RoleFull, fullEncoded},
		table{preprocess.RoleTrain, trainEncoded},
		table{preprocess.RoleTest, testEncoded},
	)
	if err != nil {
		return r.fail(ctx, sum, err), params
	}
	return r.finish(ctx, sum, state), params
}

// runAuxiliary processes an evaluation-only dataset: never split, never
// fitted on, transformed with the run's parameters.
func (r *Runner) runAuxiliary(ctx context.Context, ds config.DatasetConfig, state *runState) models.DatasetSummary {
	ctx = logging.ContextWithDataset(ctx, ds.Name)
	sum := newDatasetSummary(ds)

	coll, err := r.acquire(ctx, ds, state, &sum)
	if err != nil {
		return r.fail(ctx, sum, err)
	}
	if state.mode == ModeCollect {
		return r.finish(ctx, sum, state)
	}

	engineered, err := r.prepare(ctx, ds, coll, state, &sum)
	if err != nil {
		return r.fail(ctx, sum, err)
	}
	if state.params == nil {
		return r.fail(ctx, sum, fmt.Errorf("transform %s: %w", ds.Name, ErrNoFitParameters))
	}

	encodeStarted := time.Now()
	encoded, err := preprocess.Transform(engineered, state.params)
	if err != nil {
		return r.fail(ctx, sum, err)
	}
	report := models.NewStageReport(models.StageEncode, len(engineered))
	report.Finish(len(encoded), time.Since(encodeStarted))
	r.recordStage(ctx, ds.Name, &sum, report)

	if err := r.writeTables(ctx, ds, state, &sum, table{preprocess.RoleFull, encoded}); err != nil {
		return r.fail(ctx, sum, err)
	}
	return r.finish(ctx, sum, state)
}

// acquire returns the raw collection of ds: freshly collected and persisted,
// or loaded from a previous run in transform mode.
func (r *Runner) acquire(ctx context.Context, ds config.DatasetConfig, state *runState, sum *models.DatasetSummary) (*models.RawCollection, error) {
	rawPath := r.layout.Raw(ds.Name)

	if state.mode == ModeTransform {
		coll, err := preprocess.LoadCollection(rawPath)
		if err != nil {
			return nil, fmt.Errorf("load raw collection of %s: %w", ds.Name, err)
		}
		summary := coll.Summary()
		sum.Collection = &summary
		return coll, nil
	}

	res, err := r.collector.Collect(ctx, ds, state.reference)
	if err != nil {
		return nil, err
	}
	sum.Fetch = res.Fetch
	summary := res.Collection.Summary()
	sum.Collection = &summary
	r.recordStage(ctx, ds.Name, sum, res.Report)

	if err := collect.WriteCollection(rawPath, res.Collection); err != nil {
		return nil, err
	}
	sum.Artifacts = append(sum.Artifacts, r.layout.Rel(rawPath))

	if res.Collection.Partial {
		return nil, fmt.Errorf("collection of %s cancelled after %d pages: %w", ds.Name, len(res.Collection.Pages), ctx.Err())
	}
	if len(res.Collection.FailedPages) > 0 {
		sum.Status = models.StatusDegraded
	}
	return res.Collection, nil
}

// prepare cleans and engineers coll, writing both intermediate tables.
func (r *Runner) prepare(ctx context.Context, ds config.DatasetConfig, coll *models.RawCollection, state *runState, sum *models.DatasetSummary) ([]models.EngineeredRecord, error) {
	cleaner := preprocess.NewCleaner(r.cfg.Cleaning, r.cfg.RequiredColumnsFor(ds))
	cleaned, report, err := cleaner.Clean(coll)
	r.recordStage(ctx, ds.Name, sum, report)
	if err != nil {
		return nil, err
	}
	if err := preprocess.WriteCleanedCSV(r.layout.Cleaned(ds.Name), cleaned); err != nil {
		return nil, err
	}
	sum.Artifacts = append(sum.Artifacts, r.layout.Rel(r.layout.Cleaned(ds.Name)))

	engineered, report := preprocess.NewEngineer(state.reference).EngineerAll(cleaned)
	r.recordStage(ctx, ds.Name, sum, report)
	if err := preprocess.WriteEngineeredCSV(r.layout.Engineered(ds.Name), engineered); err != nil {
		return nil, err
	}
	sum.Artifacts = append(sum.Artifacts, r.layout.Rel(r.layout.Engineered(ds.Name)))
	return engineered, nil
}

func (r *Runner) writeTables(ctx context.Context, ds config.DatasetConfig, state *runState, sum *models.DatasetSummary, tables ...table) error {
	for _, t := range tables {
		path := r.layout.Table(ds.Name, t.role)
		if err := preprocess.WriteEncodedCSV(path, state.manifest, t.records); err != nil {
			return err
		}
		sum.Artifacts = append(sum.Artifacts, r.layout.Rel(path))

		if r.sink == nil {
			continue
		}
		name := tableName(ds.Name, t.role)
		if _, err := r.sink.LoadTable(ctx, name, path); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("table", name).Msg("Failed to load table into warehouse")
		}
	}
	return nil
}

func (r *Runner) recordStage(ctx context.Context, dataset string, sum *models.DatasetSummary, report models.StageReport) {
	sum.Stages = append(sum.Stages, report)
	metrics.RecordStage(dataset, report.Stage, report.RowsIn, report.RowsOut, report.Dropped,
		time.Duration(report.DurationMS)*time.Millisecond)

	event := logging.Ctx(ctx).Info().
		Str("stage", report.Stage).
		Int("rows_in", report.RowsIn).
		Int("rows_out", report.RowsOut)
	for _, reason := range report.Reasons() {
		event = event.Int("dropped_"+reason, report.Dropped[reason])
	}
	event.Msg("Stage complete")
}

func (r *Runner) fail(ctx context.Context, sum models.DatasetSummary, err error) models.DatasetSummary {
	sum.Status = models.StatusFailed
	sum.Error = err.Error()
	logging.Ctx(ctx).Error().Err(err).Bool("auxiliary", sum.Auxiliary).Msg("Dataset failed")
	metrics.RecordDatasetRun(sum.Name, sum.Status)
	return sum
}

func (r *Runner) finish(ctx context.Context, sum models.DatasetSummary, state *runState) models.DatasetSummary {
	if sum.Status == "" {
		sum.Status = models.StatusSuccess
	}
	metrics.RecordDatasetRun(sum.Name, sum.Status)

	rows := 0
	if n := len(sum.Stages); n > 0 {
		rows = sum.Stages[n-1].RowsOut
	}
	logging.Ctx(ctx).Info().Str("status", sum.Status).Int("rows", rows).Msg("Dataset finished")

	if r.publisher != nil {
		event := &events.ArtifactEvent{
			RunID:     state.manifest.RunID,
			Dataset:   sum.Name,
			Auxiliary: sum.Auxiliary,
			Status:    sum.Status,
			Rows:      rows,
			Artifacts: sum.Artifacts,
			CreatedAt: r.now().UTC(),
		}
		if state.mode != ModeCollect {
			event.Manifest = r.layout.Rel(r.layout.Manifest())
			event.Params = r.layout.Rel(r.layout.Params())
		}
		if err := r.publisher.PublishArtifacts(ctx, event); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish artifact event")
		}
	}
	return sum
}

func newDatasetSummary(ds config.DatasetConfig) models.DatasetSummary {
	return models.DatasetSummary{
		Name:      ds.Name,
		Auxiliary: ds.Auxiliary,
		Stages:    []models.StageReport{},
		Artifacts: []string{},
	}
}
