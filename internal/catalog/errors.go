// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package catalog

import (
	"errors"
	"fmt"
)

// Failure classes wrapped by FetchError.
var (
	ErrRateLimited      = errors.New("rate limited by catalog (HTTP 429)")
	ErrServerError      = errors.New("catalog server error")
	ErrUnexpectedStatus = errors.New("unexpected catalog response status")
	ErrMalformedPage    = errors.New("malformed catalog page")
	ErrCircuitOpen      = errors.New("catalog circuit breaker is open")
)

// FetchError reports a page that could not be retrieved. It is only
// returned once the retry ceiling is exhausted or the failure is permanent;
// a FetchError never accompanies partial data.
type FetchError struct {
	Endpoint   string
	Page       int
	Attempts   int
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s page %d failed after %d attempt(s) (status %d): %v",
			e.Endpoint, e.Page, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s page %d failed after %d attempt(s): %v", e.Endpoint, e.Page, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether the underlying failure was transient (rate
// limiting, server errors, network errors). A retryable FetchError means the
// retry ceiling was reached.
func (e *FetchError) Retryable() bool {
	return !errors.Is(e.Err, ErrUnexpectedStatus) &&
		!errors.Is(e.Err, ErrMalformedPage) &&
		!errors.Is(e.Err, ErrCircuitOpen)
}
