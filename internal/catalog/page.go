// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package catalog fetches paginated movie listings from the catalog API
// under a strict request interval, with bounded retries, an optional circuit
// breaker and an optional page cache.
package catalog

import (
	"context"

	"github.com/tomtom215/reelcast/internal/models"
)

// Page is one page of a catalog listing endpoint.
type Page struct {
	Page         int                     `json:"page"`
	TotalPages   int                     `json:"total_pages"`
	TotalResults int                     `json:"total_results"`
	Results      []models.RawMovieRecord `json:"results"`

	// Attempts is the number of HTTP attempts spent; 0 for cache hits.
	Attempts  int  `json:"-"`
	FromCache bool `json:"-"`
}

// Fetcher retrieves one page of an endpoint.
//
// Implementations return either a complete page or an error; on failure the
// error is a *FetchError unless ctx was cancelled, in which case ctx.Err()
// is returned.
type Fetcher interface {
	FetchPage(ctx context.Context, endpoint string, page int) (*Page, error)
}
