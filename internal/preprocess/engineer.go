// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package preprocess

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/reelcast/internal/models"
)

// Engineer derives features from cleaned records. It is pure per record;
// the only input besides the record is the run's reference time.
type Engineer struct {
	reference time.Time
}

// NewEngineer creates an Engineer that computes movie_age against reference.
func NewEngineer(reference time.Time) *Engineer {
	return &Engineer{reference: reference}
}

// EngineerAll engineers every record. The stage never drops records.
func (e *Engineer) EngineerAll(records []models.CleanedRecord) ([]models.EngineeredRecord, models.StageReport) {
	started := time.Now()
	report := models.NewStageReport(models.StageEngineer, len(records))
	out := make([]models.EngineeredRecord, len(records))
	for i := range records {
		out[i] = e.Engineer(&records[i])
	}
	report.Finish(len(out), time.Since(started))
	return out, report
}

// Engineer derives the features of one record. Undefined inputs map to
// documented defaults: a missing release date falls back to the reference
// date with HasReleaseDate false, missing popularity and vote counts give
// zero logs, and absent text gives zero lengths.
func (e *Engineer) Engineer(r *models.CleanedRecord) models.EngineeredRecord {
	out := models.EngineeredRecord{
		ID:               r.ID,
		Title:            r.Title,
		VoteAverage:      r.VoteAverageOrZero(),
		IsRated:          r.IsRated(),
		OriginalLanguage: r.OriginalLanguage,
		IsAdult:          r.Adult,
	}

	released := e.reference
	if r.Released != nil {
		released = *r.Released
		out.HasReleaseDate = true
	}
	out.ReleaseYear = released.Year()
	out.ReleaseMonth = int(released.Month())
	out.ReleaseQuarter = (out.ReleaseMonth-1)/3 + 1
	out.MovieAge = e.reference.Year() - out.ReleaseYear
	if out.HasReleaseDate {
		out.IsSpringRelease = out.ReleaseMonth >= 3 && out.ReleaseMonth <= 5
		out.IsSummerRelease = out.ReleaseMonth >= 6 && out.ReleaseMonth <= 8
		out.IsHolidayRelease = out.ReleaseMonth >= 11
	}

	out.PrimaryGenre = models.UnknownGenre
	if len(r.GenreIDs) > 0 {
		out.PrimaryGenre = models.GenreLabel(r.GenreIDs[0])
	}
	for _, id := range r.GenreIDs {
		if idx, ok := models.GenreIndex(id); ok {
			out.Genres[idx] = true
		}
	}
	out.GenreCount = len(r.GenreIDs)

	out.IsEnglish = r.OriginalLanguage == "en"
	out.IsKorean = r.OriginalLanguage == "ko"
	out.IsNonEnglish = r.OriginalLanguage != "" && r.OriginalLanguage != "en"

	if r.Popularity != nil {
		p := *r.Popularity
		out.Popularity = &p
		out.LogPopularity = math.Log1p(math.Max(p, 0))
	}
	if r.VoteCount != nil {
		vc := float64(*r.VoteCount)
		out.VoteCount = &vc
		out.LogVoteCount = math.Log1p(math.Max(vc, 0))
	}
	out.VoteEfficiency = out.VoteAverage / math.Max(float64(r.VoteCountOrZero()), 1)

	out.TitleLength = utf8.RuneCountInString(r.Title)
	out.TitleWordCount = len(strings.Fields(r.Title))
	if r.HasColumn("overview") {
		out.OverviewLength = utf8.RuneCountInString(*r.Overview)
		out.HasOverview = true
	}
	out.HasPoster = r.HasColumn("poster_path")
	out.HasBackdrop = r.HasColumn("backdrop_path")

	return out
}
