// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package collect

import (
	"time"

	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/models"
)

// IsRatedUpcoming reports whether r has votes and a release date after
// reference. Records without a parseable release date are never upcoming.
func IsRatedUpcoming(r *models.RawMovieRecord, reference time.Time) bool {
	if r.VoteAverageOrZero() <= 0 || r.VoteCountOrZero() <= 0 {
		return false
	}
	released, ok, err := r.ParseReleaseDate()
	if !ok || err != nil {
		return false
	}
	return released.After(reference)
}

func applyFilter(records []models.RawMovieRecord, filter string, reference time.Time, report *models.StageReport) []models.RawMovieRecord {
	if filter == config.FilterNone {
		return records
	}
	keepRated := filter == config.FilterRatedUpcoming

	out := records[:0]
	for i := range records {
		if IsRatedUpcoming(&records[i], reference) != keepRated {
			report.Drop(models.DropFiltered(filter), 1)
			continue
		}
		out = append(out, records[i])
	}
	return out
}
