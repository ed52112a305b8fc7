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

func yearsOf(records []models.EngineeredRecord) []int {
	years := make([]int, len(records))
	for i, r := range records {
		years[i] = r.ReleaseYear
	}
	return years
}

func TestSplit_TemporalOrdering(t *testing.T) {
	var raws []models.RawMovieRecord
	for i, year := range []int{2021, 2015, 2019, 2019, 2023, 2010, 2019, 2022, 2017, 2020} {
		raws = append(raws, rawMovie(int64(100-i), year, 10, 7, 10))
	}
	records := engineered(raws...)

	tests := []struct {
		name      string
		policy    CutoffPolicy
		wantTrain int
		wantTest  int
	}{
		{"fraction", CutoffPolicy{TestFraction: 0.2}, 8, 2},
		{"fraction rounds up", CutoffPolicy{TestFraction: 0.25}, 7, 3},
		{"year threshold", CutoffPolicy{TestFraction: 0.2, YearThreshold: 2019}, 6, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train, test, err := Split(records, tt.policy)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(train) != tt.wantTrain || len(test) != tt.wantTest {
				t.Fatalf("sizes %d/%d, want %d/%d", len(train), len(test), tt.wantTrain, tt.wantTest)
			}
			for _, r1 := range train {
				for _, r2 := range test {
					if r1.ReleaseYear > r2.ReleaseYear {
						t.Fatalf("train year %d after test year %d", r1.ReleaseYear, r2.ReleaseYear)
					}
				}
			}
			if tt.policy.YearThreshold > 0 {
				for _, r := range test {
					if r.ReleaseYear <= tt.policy.YearThreshold {
						t.Errorf("test holds year %d", r.ReleaseYear)
					}
				}
			}
		})
	}

	if yearsOf(records)[0] != 2021 {
		t.Error("Split must not reorder its input")
	}
}

func TestSplit_TiesBrokenByID(t *testing.T) {
	records := engineered(rawMovie(30, 2020, 1, 7, 1), rawMovie(10, 2020, 1, 7, 1), rawMovie(20, 2020, 1, 7, 1))
	train, test, err := Split(records, CutoffPolicy{TestFraction: 0.3})
	if err != nil {
		t.Fatal(err)
	}
	if train[0].ID != 10 || train[1].ID != 20 || test[0].ID != 30 {
		t.Errorf("train %v, test %v", train, test)
	}
}

func TestSplit_EmptyPartition(t *testing.T) {
	records := engineered(rawMovie(1, 2018, 1, 7, 1), rawMovie(2, 2019, 1, 7, 1))
	tests := []CutoffPolicy{
		{YearThreshold: 2030},
		{YearThreshold: 2000},
	}
	for _, policy := range tests {
		if _, _, err := Split(records, policy); !errors.Is(err, ErrEmptyPartition) {
			t.Errorf("%s: expected ErrEmptyPartition, got %v", policy, err)
		}
	}
	if _, _, err := Split(records[:1], CutoffPolicy{TestFraction: 0.2}); !errors.Is(err, ErrEmptyPartition) {
		t.Errorf("single record: got %v", err)
	}
}
