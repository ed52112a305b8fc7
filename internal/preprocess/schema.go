// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"time"

	"github.com/tomtom215/reelcast/internal/models"
)

// Output column naming.
const (
	IDColumn      = "id"
	TargetColumn  = "vote_average"
	RatedColumn   = "is_rated"
	scaledSuffix  = "_scaled"
	encodedSuffix = "_encoded"
)

type binaryFeature struct {
	name  string
	value func(*models.EngineeredRecord) bool
}

// numericFeature values are standardized. ok is false when the value is
// missing and must be imputed.
type numericFeature struct {
	name  string
	value func(*models.EngineeredRecord) (v float64, ok bool)
}

type categoricalFeature struct {
	name  string
	value func(*models.EngineeredRecord) string
}

// binnedFeature values are cut into quantile bins fitted on the train
// partition, then label-encoded. Missing values encode as missing.
type binnedFeature struct {
	name   string
	value  func(*models.EngineeredRecord) (v float64, ok bool)
	labels []string
}

func always(f func(*models.EngineeredRecord) float64) func(*models.EngineeredRecord) (float64, bool) {
	return func(r *models.EngineeredRecord) (float64, bool) { return f(r), true }
}

func optional(f func(*models.EngineeredRecord) *float64) func(*models.EngineeredRecord) (float64, bool) {
	return func(r *models.EngineeredRecord) (float64, bool) {
		if p := f(r); p != nil {
			return *p, true
		}
		return 0, false
	}
}

var binaryFeatures = func() []binaryFeature {
	features := []binaryFeature{
		{"has_release_date", func(r *models.EngineeredRecord) bool { return r.HasReleaseDate }},
		{"is_spring_release", func(r *models.EngineeredRecord) bool { return r.IsSpringRelease }},
		{"is_summer_release", func(r *models.EngineeredRecord) bool { return r.IsSummerRelease }},
		{"is_holiday_release", func(r *models.EngineeredRecord) bool { return r.IsHolidayRelease }},
	}
	for i, g := range models.GenreVocabulary {
		idx := i
		features = append(features, binaryFeature{
			name:  "is_" + g.Name,
			value: func(r *models.EngineeredRecord) bool { return r.Genres[idx] },
		})
	}
	return append(features,
		binaryFeature{"is_english", func(r *models.EngineeredRecord) bool { return r.IsEnglish }},
		binaryFeature{"is_korean", func(r *models.EngineeredRecord) bool { return r.IsKorean }},
		binaryFeature{"is_non_english", func(r *models.EngineeredRecord) bool { return r.IsNonEnglish }},
		binaryFeature{"has_overview", func(r *models.EngineeredRecord) bool { return r.HasOverview }},
		binaryFeature{"has_poster", func(r *models.EngineeredRecord) bool { return r.HasPoster }},
		binaryFeature{"has_backdrop", func(r *models.EngineeredRecord) bool { return r.HasBackdrop }},
		binaryFeature{"is_adult", func(r *models.EngineeredRecord) bool { return r.IsAdult }},
	)
}()

var numericFeatures = []numericFeature{
	{"popularity", optional(func(r *models.EngineeredRecord) *float64 { return r.Popularity })},
	{"vote_count", optional(func(r *models.EngineeredRecord) *float64 { return r.VoteCount })},
	{"release_year", always(func(r *models.EngineeredRecord) float64 { return float64(r.ReleaseYear) })},
	{"release_month", always(func(r *models.EngineeredRecord) float64 { return float64(r.ReleaseMonth) })},
	{"release_quarter", always(func(r *models.EngineeredRecord) float64 { return float64(r.ReleaseQuarter) })},
	{"movie_age", always(func(r *models.EngineeredRecord) float64 { return float64(r.MovieAge) })},
	{"genre_count", always(func(r *models.EngineeredRecord) float64 { return float64(r.GenreCount) })},
	{"log_popularity", always(func(r *models.EngineeredRecord) float64 { return r.LogPopularity })},
	{"log_vote_count", always(func(r *models.EngineeredRecord) float64 { return r.LogVoteCount })},
	{"vote_efficiency", always(func(r *models.EngineeredRecord) float64 { return r.VoteEfficiency })},
	{"title_length", always(func(r *models.EngineeredRecord) float64 { return float64(r.TitleLength) })},
	{"title_word_count", always(func(r *models.EngineeredRecord) float64 { return float64(r.TitleWordCount) })},
	{"overview_length", always(func(r *models.EngineeredRecord) float64 { return float64(r.OverviewLength) })},
}

var categoricalFeatures = []categoricalFeature{
	{"primary_genre", func(r *models.EngineeredRecord) string { return r.PrimaryGenre }},
	{"original_language", func(r *models.EngineeredRecord) string { return r.OriginalLanguage }},
}

var binnedFeatures = []binnedFeature{
	{"popularity_tier", optional(func(r *models.EngineeredRecord) *float64 { return r.Popularity }), models.PopularityTiers},
}

func featureWidth() int {
	return len(binaryFeatures) + len(numericFeatures) + len(categoricalFeatures) + len(binnedFeatures)
}

// FeatureNames returns the ordered output feature columns: binary flags,
// then standardized numerics, then label-encoded categoricals and tiers.
func FeatureNames() []string {
	names := make([]string, 0, featureWidth())
	for _, f := range binaryFeatures {
		names = append(names, f.name)
	}
	for _, f := range numericFeatures {
		names = append(names, f.name+scaledSuffix)
	}
	for _, f := range categoricalFeatures {
		names = append(names, f.name+encodedSuffix)
	}
	for _, f := range binnedFeatures {
		names = append(names, f.name+encodedSuffix)
	}
	return names
}

// NewManifest describes the processed tables of a run.
func NewManifest(runID string, createdAt time.Time) *models.FeatureManifest {
	return &models.FeatureManifest{
		RunID:       runID,
		CreatedAt:   createdAt.UTC(),
		IDColumn:    IDColumn,
		Target:      TargetColumn,
		RatedColumn: RatedColumn,
		Features:    FeatureNames(),
	}
}
