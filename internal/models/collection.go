// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package models

import "time"

// RawCollection is the persisted raw artifact of one dataset.
type RawCollection struct {
	Dataset     string           `json:"dataset"`
	DataType    string           `json:"data_type"` // "train" for the primary dataset, "test" otherwise
	Endpoint    string           `json:"endpoint"`
	Pages       []int            `json:"pages"`
	FailedPages []int            `json:"failed_pages,omitempty"`
	Partial     bool             `json:"partial"` // cancelled before the page range was exhausted
	Count       int              `json:"count"`
	CrawledDate time.Time        `json:"crawled_date"`
	Movies      []RawMovieRecord `json:"movies"`
}

// CollectionSummary describes the collected movies for operators.
type CollectionSummary struct {
	TotalMovies   int     `json:"total_movies"`
	RatedMovies   int     `json:"rated_movies"`
	AverageRating float64 `json:"average_rating"` // over rated movies only
	EarliestDate  string  `json:"earliest_release_date,omitempty"`
	LatestDate    string  `json:"latest_release_date,omitempty"`
}

// Summary computes the collection summary.
func (c *RawCollection) Summary() CollectionSummary {
	s := CollectionSummary{TotalMovies: len(c.Movies)}
	var ratingSum float64
	var earliest, latest time.Time
	for i := range c.Movies {
		m := &c.Movies[i]
		if m.IsRated() {
			s.RatedMovies++
			ratingSum += m.VoteAverageOrZero()
		}
		t, ok, err := m.ParseReleaseDate()
		if !ok || err != nil {
			continue
		}
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
		if latest.IsZero() || t.After(latest) {
			latest = t
		}
	}
	if s.RatedMovies > 0 {
		s.AverageRating = ratingSum / float64(s.RatedMovies)
	}
	if !earliest.IsZero() {
		s.EarliestDate = earliest.Format(ReleaseDateLayout)
		s.LatestDate = latest.Format(ReleaseDateLayout)
	}
	return s
}
