// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package models

// EngineeredRecord is a cleaned record plus every derived feature.
// Popularity and VoteCount stay nullable so the encoder can impute them;
// all other derived fields are always defined.
type EngineeredRecord struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`

	// Target and its ambiguity flag: vote_average 0 with IsRated false
	// means "no votes yet", not "rated zero".
	VoteAverage float64 `json:"vote_average"`
	IsRated     bool    `json:"is_rated"`

	Popularity *float64 `json:"popularity,omitempty"`
	VoteCount  *float64 `json:"vote_count,omitempty"`

	// Temporal
	HasReleaseDate   bool `json:"has_release_date"`
	ReleaseYear      int  `json:"release_year"`
	ReleaseMonth     int  `json:"release_month"`
	ReleaseQuarter   int  `json:"release_quarter"`
	MovieAge         int  `json:"movie_age"` // years before the reference time; negative when unreleased
	IsSpringRelease  bool `json:"is_spring_release"`
	IsSummerRelease  bool `json:"is_summer_release"`
	IsHolidayRelease bool `json:"is_holiday_release"`

	// Categorical
	Genres           [NumGenres]bool `json:"genres"`
	PrimaryGenre     string          `json:"primary_genre"`
	GenreCount       int             `json:"genre_count"`
	OriginalLanguage string          `json:"original_language"` // "" when absent; encoded as "missing"
	IsEnglish        bool            `json:"is_english"`
	IsKorean         bool            `json:"is_korean"`
	IsNonEnglish     bool            `json:"is_non_english"`

	// Popularity
	LogPopularity  float64 `json:"log_popularity"`
	LogVoteCount   float64 `json:"log_vote_count"`
	VoteEfficiency float64 `json:"vote_efficiency"`

	// Content
	TitleLength    int  `json:"title_length"`
	TitleWordCount int  `json:"title_word_count"`
	OverviewLength int  `json:"overview_length"`
	HasOverview    bool `json:"has_overview"`
	HasPoster      bool `json:"has_poster"`
	HasBackdrop    bool `json:"has_backdrop"`
	IsAdult        bool `json:"is_adult"`
}

// ReleaseYearKey is the temporal ordering key used by the splitter.
func (r EngineeredRecord) ReleaseYearKey() int { return r.ReleaseYear }

// RecordID is the tie-break key used by the splitter.
func (r EngineeredRecord) RecordID() int64 { return r.ID }

// EncodedRecord is a fully numeric row ready for model training. Features
// follow the order of the run's FeatureManifest.
type EncodedRecord struct {
	ID       int64
	Features []float64
	Target   float64
	IsRated  bool

	// Params is the parameter set that produced this row.
	Params *FitParameters
}
