// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package catalog

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelcast/internal/config"
	"github.com/tomtom215/reelcast/internal/logging"
	"github.com/tomtom215/reelcast/internal/metrics"
)

// BreakerFetcher wraps a Fetcher with a circuit breaker so that a catalog
// outage fails remaining pages fast instead of spending the full retry
// ceiling on each of them.
type BreakerFetcher struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[*Page]
	name string
}

// NewBreakerFetcher wraps next. The circuit opens once at least
// cfg.BreakerMinRequests pages were attempted and the failure ratio reaches
// cfg.BreakerFailureRatio; it half-opens after cfg.BreakerTimeout.
func NewBreakerFetcher(next Fetcher, cfg *config.CatalogConfig) *BreakerFetcher {
	name := "catalog-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	minRequests := cfg.BreakerMinRequests
	ratio := cfg.BreakerFailureRatio

	cb := gobreaker.NewCircuitBreaker[*Page](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= ratio {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening catalog circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, stateToString(from), stateToString(to)).Inc()
		},
		// Cancellation says nothing about the health of the catalog.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})

	return &BreakerFetcher{next: next, cb: cb, name: name}
}

// FetchPage implements Fetcher.
func (b *BreakerFetcher) FetchPage(ctx context.Context, endpoint string, page int) (*Page, error) {
	p, err := b.cb.Execute(func() (*Page, error) {
		return b.next.FetchPage(ctx, endpoint, page)
	})
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		return p, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, &FetchError{Endpoint: endpoint, Page: page, Err: ErrCircuitOpen}
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	return nil, err
}

// State returns the current breaker state name.
func (b *BreakerFetcher) State() string {
	return stateToString(b.cb.State())
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
