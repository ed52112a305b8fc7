// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"errors"
	"testing"

	"github.com/tomtom215/reelcast/internal/models"
)

func TestCleaner_PopularityOutliers(t *testing.T) {
	popularity := []float64{95, 5, 8, 10, 10, 20, 30, 40, 40, 45}
	movies := make([]models.RawMovieRecord, len(popularity))
	for i, p := range popularity {
		movies[i] = rawMovie(int64(i+1), 2020, p, 7, 100)
	}

	cfg := testCleaning()
	cfg.OutlierColumns = []string{"popularity"}
	cleaned, report, err := NewCleaner(cfg, cfg.RequiredColumns).Clean(&models.RawCollection{Dataset: "popular", Movies: movies})
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	kept := make(map[float64]bool)
	for _, r := range cleaned {
		kept[*r.Popularity] = true
	}
	if kept[95] {
		t.Error("95.0 should be dropped as an outlier")
	}
	if !kept[5] {
		t.Error("5.0 should be retained")
	}
	if len(cleaned) != 9 || report.Dropped["outlier:popularity"] != 1 {
		t.Errorf("kept %d, report %+v", len(cleaned), report)
	}
	if report.RowsIn != 10 || report.RowsOut != 9 {
		t.Errorf("RowsIn = %d, RowsOut = %d", report.RowsIn, report.RowsOut)
	}
}

func TestCleaner_DuplicatesAndRequiredColumns(t *testing.T) {
	noDate := rawMovie(3, 2020, 10, 7, 10)
	noDate.ReleaseDate = strPtr("")
	badDate := rawMovie(4, 2020, 10, 7, 10)
	badDate.ReleaseDate = strPtr("2020-13-45")
	noVotes := rawMovie(5, 2020, 10, 7, 10)
	noVotes.VoteCount = nil
	first := rawMovie(1, 2020, 10, 7, 10)
	first.Title = "first"
	second := rawMovie(1, 2021, 11, 6, 12)
	second.Title = "second"

	movies := []models.RawMovieRecord{first, rawMovie(2, 2019, 12, 6, 20), second, noDate, badDate, noVotes}
	cfg := testCleaning()
	cfg.OutlierColumns = nil

	cleaned, report, err := NewCleaner(cfg, cfg.RequiredColumns).Clean(&models.RawCollection{Movies: movies})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]int{
		"duplicate_id":             1,
		"missing:release_date":     1,
		"unparseable:release_date": 1,
		"missing:vote_count":       1,
	}
	for reason, n := range want {
		if report.Dropped[reason] != n {
			t.Errorf("dropped[%s] = %d, want %d", reason, report.Dropped[reason], n)
		}
	}
	if report.DroppedTotal()+report.RowsOut != report.RowsIn {
		t.Errorf("report does not balance: %+v", report)
	}

	seen := make(map[int64]bool)
	for _, r := range cleaned {
		if seen[r.ID] {
			t.Errorf("duplicate id %d in cleaned output", r.ID)
		}
		seen[r.ID] = true
		for _, col := range cfg.RequiredColumns {
			if !r.HasColumn(col) {
				t.Errorf("record %d violates required column %s", r.ID, col)
			}
		}
		if r.Released == nil {
			t.Errorf("record %d lacks a parsed release date", r.ID)
		}
	}
	if cleaned[0].Title != "first" {
		t.Errorf("first-seen duplicate not kept: %q", cleaned[0].Title)
	}
}

func TestCleaner_OptionalReleaseDate(t *testing.T) {
	unreleased := models.RawMovieRecord{ID: 9, Title: "Soon", ReleaseDate: strPtr("not a date")}
	cleaned, _, err := NewCleaner(testCleaning(), []string{"id", "title"}).Clean(&models.RawCollection{Movies: []models.RawMovieRecord{unreleased}})
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 1 || cleaned[0].Released != nil {
		t.Errorf("malformed optional date should be treated as absent: %+v", cleaned)
	}
	if cleaned[0].VoteAverageOrZero() != 0 {
		t.Error("vote_average sentinel must be kept")
	}
}

func TestCleaner_OutlierRuleNeedsEnoughValues(t *testing.T) {
	movies := []models.RawMovieRecord{
		rawMovie(1, 2020, 1, 7, 10),
		rawMovie(2, 2020, 2, 7, 10),
		rawMovie(3, 2020, 10000, 7, 10),
	}
	cleaned, report, err := NewCleaner(testCleaning(), []string{"id"}).Clean(&models.RawCollection{Movies: movies})
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 3 || report.DroppedTotal() != 0 {
		t.Errorf("outlier rule applied to %d values: %+v", len(movies), report)
	}
}

func TestCleaner_RecordsWithoutValueAreNotOutliers(t *testing.T) {
	var movies []models.RawMovieRecord
	for i, p := range []float64{10, 11, 12, 13, 14} {
		movies = append(movies, rawMovie(int64(i+1), 2020, p, 7, 10))
	}
	missing := rawMovie(6, 2020, 0, 7, 10)
	missing.Popularity = nil
	movies = append(movies, missing)

	cleaned, _, err := NewCleaner(testCleaning(), []string{"id"}).Clean(&models.RawCollection{Movies: movies})
	if err != nil {
		t.Fatal(err)
	}
	if len(cleaned) != 6 {
		t.Errorf("kept %d records, want 6", len(cleaned))
	}
}

func TestCleaner_Errors(t *testing.T) {
	c := NewCleaner(testCleaning(), testCleaning().RequiredColumns)

	if _, _, err := c.Clean(nil); !errors.Is(err, ErrMalformedCollection) {
		t.Errorf("nil collection: got %v", err)
	}

	allMissing := []models.RawMovieRecord{{ID: 1}, {ID: 2}}
	_, report, err := c.Clean(&models.RawCollection{Dataset: "x", Movies: allMissing})
	if !errors.Is(err, ErrEmptyPartition) {
		t.Fatalf("expected ErrEmptyPartition, got %v", err)
	}
	if report.Dropped["missing:title"] != 2 {
		t.Errorf("drops must still be reported: %+v", report)
	}
}
