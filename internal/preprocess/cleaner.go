// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"fmt"
	"time"

	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/models"
)

// Cleaner enforces required columns and removes duplicates and IQR
// outliers. It is deterministic: identical input yields identical output
// and report.
type Cleaner struct {
	required          []string
	outlierColumns    []string
	outlierMultiplier float64
	outlierMinRecords int
}

// NewCleaner creates a Cleaner for one dataset. required is the dataset's
// effective required column list.
func NewCleaner(cfg config.CleaningConfig, required []string) *Cleaner {
	return &Cleaner{
		required:          required,
		outlierColumns:    cfg.OutlierColumns,
		outlierMultiplier: cfg.OutlierMultiplier,
		outlierMinRecords: cfg.OutlierMinRecords,
	}
}

// Clean runs (a) duplicate removal keeping the first record, (b) required
// column checks and (c) IQR outlier removal, in that order.
//
// Dropped records are counted per reason. The only errors are a nil
// collection (ErrMalformedCollection) and an emptied dataset
// (ErrEmptyPartition); the report is returned in both cases when available.
func (c *Cleaner) Clean(coll *models.RawCollection) ([]models.CleanedRecord, models.StageReport, error) {
	if coll == nil {
		return nil, models.NewStageReport(models.StageClean, 0), fmt.Errorf("%w: nil collection", ErrMalformedCollection)
	}
	started := time.Now()
	report := models.NewStageReport(models.StageClean, len(coll.Movies))

	seen := make(map[int64]struct{}, len(coll.Movies))
	records := make([]models.CleanedRecord, 0, len(coll.Movies))
	for _, raw := range coll.Movies {
		if _, dup := seen[raw.ID]; dup {
			report.Drop(models.DropDuplicateID, 1)
			continue
		}
		seen[raw.ID] = struct{}{}

		rec, reason, ok := c.checkRequired(raw)
		if !ok {
			report.Drop(reason, 1)
			continue
		}
		records = append(records, rec)
	}

	for _, column := range c.outlierColumns {
		records = c.removeOutliers(records, column, &report)
	}

	report.Finish(len(records), time.Since(started))
	if len(records) == 0 {
		return nil, report, fmt.Errorf("clean %s: %w: all %d records dropped", coll.Dataset, ErrEmptyPartition, report.RowsIn)
	}
	return records, report, nil
}

// checkRequired validates raw against the required columns and parses its
// release date. A malformed release_date is a drop when the column is
// required and treated as absent otherwise.
func (c *Cleaner) checkRequired(raw models.RawMovieRecord) (models.CleanedRecord, models.DropReason, bool) {
	for _, column := range c.required {
		if !raw.HasColumn(column) {
			return models.CleanedRecord{}, models.DropMissing(column), false
		}
	}

	rec := models.CleanedRecord{RawMovieRecord: raw}
	released, ok, err := raw.ParseReleaseDate()
	switch {
	case err != nil && c.requires("release_date"):
		return models.CleanedRecord{}, models.DropUnparseable("release_date"), false
	case ok:
		rec.Released = &released
	}
	return rec, "", true
}

func (c *Cleaner) requires(column string) bool {
	for _, r := range c.required {
		if r == column {
			return true
		}
	}
	return false
}

// removeOutliers drops records whose column value falls outside the IQR
// fences. Records without a value are kept, and the rule is skipped when
// fewer than outlierMinRecords records carry a value.
func (c *Cleaner) removeOutliers(records []models.CleanedRecord, column string, report *models.StageReport) []models.CleanedRecord {
	values := make([]float64, 0, len(records))
	for i := range records {
		if v, ok := outlierValue(&records[i], column); ok {
			values = append(values, v)
		}
	}
	if len(values) < c.outlierMinRecords {
		return records
	}

	lower, upper := IQRBounds(values, c.outlierMultiplier)
	out := records[:0]
	for i := range records {
		if v, ok := outlierValue(&records[i], column); ok && (v < lower || v > upper) {
			report.Drop(models.DropOutlier(column), 1)
			continue
		}
		out = append(out, records[i])
	}
	return out
}

func outlierValue(r *models.CleanedRecord, column string) (float64, bool) {
	switch column {
	case "popularity":
		if r.Popularity == nil {
			return 0, false
		}
		return *r.Popularity, true
	case "vote_count":
		if r.VoteCount == nil {
			return 0, false
		}
		return float64(*r.VoteCount), true
	default:
		return 0, false
	}
}
