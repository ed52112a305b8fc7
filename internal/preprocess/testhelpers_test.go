// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"time"

	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/models"
)

var reference = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func int64Ptr(i int64) *int64     { return &i }

func testCleaning() config.CleaningConfig {
	return config.CleaningConfig{
		RequiredColumns:   []string{"id", "title", "release_date", "vote_average", "vote_count", "popularity"},
		OutlierColumns:    []string{"popularity", "vote_count"},
		OutlierMultiplier: 1.5,
		OutlierMinRecords: 4,
	}
}

// rawMovie builds a complete record; year controls release_date.
func rawMovie(id int64, year int, popularity float64, voteAvg float64, votes int64) models.RawMovieRecord {
	return models.RawMovieRecord{
		ID:               id,
		Title:            "Movie Title",
		ReleaseDate:      strPtr(time.Date(year, 5, 10, 0, 0, 0, 0, time.UTC).Format(models.ReleaseDateLayout)),
		GenreIDs:         []int{18, 35},
		OriginalLanguage: "en",
		Popularity:       floatPtr(popularity),
		VoteAverage:      floatPtr(voteAvg),
		VoteCount:        int64Ptr(votes),
		Overview:         strPtr("A story."),
		PosterPath:       strPtr("/p.jpg"),
	}
}

func engineered(records ...models.RawMovieRecord) []models.EngineeredRecord {
	cleaner := NewCleaner(config.CleaningConfig{OutlierMultiplier: 1.5, OutlierMinRecords: 4}, []string{"id"})
	cleaned, _, err := cleaner.Clean(&models.RawCollection{Dataset: "t", Movies: records})
	if err != nil {
		panic(err)
	}
	out, _ := NewEngineer(reference).EngineerAll(cleaned)
	return out
}
