// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package collect drives the catalog fetcher across the page range of a
// named dataset and produces its raw collection.
package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/reelcast/internal/catalog"
	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/models"
)

// ErrFirstPageFailed is returned when the first page of a dataset cannot be
// fetched. It wraps the underlying *catalog.FetchError.
var ErrFirstPageFailed = errors.New("first page failed")

// Data types recorded in the raw collection document.
const (
	DataTypeTrain = "train"
	DataTypeTest  = "test"
)

// Result is the outcome of collecting one dataset.
type Result struct {
	Collection *models.RawCollection
	Report     models.StageReport
	Fetch      models.FetchStats
}

// Collector fetches datasets page by page. Pages of one dataset are fetched
// strictly in order; parallelism across datasets is bounded by the Fetcher's
// shared throttle.
type Collector struct {
	fetcher catalog.Fetcher
	now     func() time.Time
}

// NewCollector creates a Collector on top of fetcher.
func NewCollector(fetcher catalog.Fetcher) *Collector {
	return &Collector{fetcher: fetcher, now: time.Now}
}

// Collect fetches ds.StartPage..ds.EndPage, deduplicates by id (first seen
// wins), applies the dataset filter, vote floor and record cap.
//
// Only a failure of the first page fails the dataset. Later failures are
// logged and listed in FailedPages. When ctx is cancelled the in-flight page
// is discarded and the pages collected so far are returned as a partial
// collection without error; callers check ctx themselves.
func (c *Collector) Collect(ctx context.Context, ds config.DatasetConfig, reference time.Time) (*Result, error) {
	ctx = logging.ContextWithDataset(ctx, ds.Name)
	log := logging.Ctx(ctx)
	started := c.now()

	coll := &models.RawCollection{
		Dataset:  ds.Name,
		DataType: DataTypeTrain,
		Endpoint: ds.Endpoint,
		Pages:    []int{},
		Movies:   []models.RawMovieRecord{},
	}
	if ds.Auxiliary {
		coll.DataType = DataTypeTest
	}

	var stats models.FetchStats
	var fetched []models.RawMovieRecord

	for page := ds.StartPage; page <= ds.EndPage; page++ {
		if ctx.Err() != nil {
			coll.Partial = true
			break
		}
		stats.PagesRequested++

		p, err := c.fetcher.FetchPage(ctx, ds.Endpoint, page)
		if err != nil {
			if ctx.Err() != nil {
				coll.Partial = true
				break
			}
			var fe *catalog.FetchError
			if errors.As(err, &fe) {
				stats.Attempts += fe.Attempts
			}
			if page == ds.StartPage {
				return nil, fmt.Errorf("collect %s: %w: %w", ds.Name, ErrFirstPageFailed, err)
			}
			log.Warn().Err(err).Int("page", page).Msg("Page failed, continuing without it")
			stats.FailedPages = append(stats.FailedPages, page)
			continue
		}

		stats.PagesFetched++
		stats.Attempts += p.Attempts
		if p.FromCache {
			stats.CacheHits++
		}
		coll.Pages = append(coll.Pages, page)
		fetched = append(fetched, p.Results...)

		log.Debug().Int("page", page).Int("records", len(p.Results)).Bool("cached", p.FromCache).Msg("Page collected")

		if p.TotalPages > 0 && page >= p.TotalPages {
			break
		}
	}

	report := models.NewStageReport(models.StageCollect, len(fetched))
	report.Drop(models.DropPageFailed, len(stats.FailedPages))

	movies := dedupe(fetched, &report)
	movies = applyFilter(movies, ds.Filter, reference, &report)
	movies = applyMinVotes(movies, ds.MinVoteCount, &report)
	if ds.MaxRecords > 0 && len(movies) > ds.MaxRecords {
		report.Drop(models.DropCapped, len(movies)-ds.MaxRecords)
		movies = movies[:ds.MaxRecords]
	}

	coll.Movies = movies
	coll.Count = len(movies)
	coll.FailedPages = stats.FailedPages
	coll.CrawledDate = c.now().UTC()
	report.Finish(len(movies), c.now().Sub(started))

	summary := coll.Summary()
	event := log.Info()
	if coll.Partial {
		event = log.Warn().Bool("partial", true)
	}
	event.
		Int("pages", len(coll.Pages)).
		Int("rated", summary.RatedMovies).
		Float64("average_rating", summary.AverageRating).
		Str("earliest_release", summary.EarliestDate).
		Str("latest_release", summary.LatestDate).
		Ints("failed_pages", stats.FailedPages).
		Int("rows_in", report.RowsIn).
		Int("rows_out", report.RowsOut).
		Interface("dropped", report.Dropped).
		Msg("Dataset collected")

	return &Result{Collection: coll, Report: report, Fetch: stats}, nil
}

func dedupe(records []models.RawMovieRecord, report *models.StageReport) []models.RawMovieRecord {
	seen := make(map[int64]struct{}, len(records))
	out := make([]models.RawMovieRecord, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			report.Drop(models.DropDuplicateID, 1)
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func applyMinVotes(records []models.RawMovieRecord, minVotes int, report *models.StageReport) []models.RawMovieRecord {
	if minVotes <= 0 {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if r.VoteCountOrZero() < int64(minVotes) {
			report.Drop(models.DropBelowMinVotes, 1)
			continue
		}
		out = append(out, r)
	}
	return out
}
