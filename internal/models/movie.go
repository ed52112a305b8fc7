// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package models

import (
	"strings"
	"time"
)

// ReleaseDateLayout is the catalog's release_date format.
const ReleaseDateLayout = "2006-01-02"

// RawMovieRecord is one movie exactly as returned by the catalog API.
// Optional attributes are pointers so absence survives the round trip
// through the raw collection artifact.
type RawMovieRecord struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	ReleaseDate      *string  `json:"release_date,omitempty"`
	GenreIDs         []int    `json:"genre_ids"`
	OriginalLanguage string   `json:"original_language"`
	Popularity       *float64 `json:"popularity,omitempty"`
	VoteAverage      *float64 `json:"vote_average,omitempty"` // 0 means no votes yet
	VoteCount        *int64   `json:"vote_count,omitempty"`
	Overview         *string  `json:"overview,omitempty"`
	PosterPath       *string  `json:"poster_path,omitempty"`
	BackdropPath     *string  `json:"backdrop_path,omitempty"`
	Adult            bool     `json:"adult"`
}

// HasColumn reports whether the named column carries a usable value.
// Blank strings count as missing; the catalog sends "" for unknown dates.
func (r *RawMovieRecord) HasColumn(column string) bool {
	switch column {
	case "id":
		return r.ID > 0
	case "title":
		return strings.TrimSpace(r.Title) != ""
	case "release_date":
		return nonBlank(r.ReleaseDate)
	case "genre_ids":
		return len(r.GenreIDs) > 0
	case "original_language":
		return r.OriginalLanguage != ""
	case "popularity":
		return r.Popularity != nil
	case "vote_average":
		return r.VoteAverage != nil
	case "vote_count":
		return r.VoteCount != nil
	case "overview":
		return nonBlank(r.Overview)
	case "poster_path":
		return nonBlank(r.PosterPath)
	case "backdrop_path":
		return nonBlank(r.BackdropPath)
	case "adult":
		return true
	default:
		return false
	}
}

// ParseReleaseDate parses release_date. ok is false when the value is absent;
// err is set when it is present but malformed.
func (r *RawMovieRecord) ParseReleaseDate() (t time.Time, ok bool, err error) {
	if !nonBlank(r.ReleaseDate) {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(ReleaseDateLayout, strings.TrimSpace(*r.ReleaseDate))
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// VoteAverageOrZero returns vote_average with absence mapped to the 0 sentinel.
func (r *RawMovieRecord) VoteAverageOrZero() float64 {
	if r.VoteAverage == nil {
		return 0
	}
	return *r.VoteAverage
}

// VoteCountOrZero returns vote_count with absence mapped to 0.
func (r *RawMovieRecord) VoteCountOrZero() int64 {
	if r.VoteCount == nil {
		return 0
	}
	return *r.VoteCount
}

// IsRated reports whether the movie has received any votes.
func (r *RawMovieRecord) IsRated() bool {
	return r.VoteCountOrZero() > 0 && r.VoteAverageOrZero() > 0
}

// CleanedRecord is a raw record that passed the required-column and outlier
// checks. Released is nil only when release_date was not required and absent.
type CleanedRecord struct {
	RawMovieRecord
	Released *time.Time `json:"-"`
}

func nonBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
