// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/reelcast/internal/metrics"
)

// Throttle serializes catalog requests process-wide. A request may start only
// once the previous one has returned and the configured interval has passed
// since that return. An optional token bucket caps the overall rate shared by
// every dataset of a run.
//
// One Throttle must be shared by every client that talks to the same API.
type Throttle struct {
	interval time.Duration
	limiter  *rate.Limiter
	slot     chan struct{}

	mu   sync.Mutex
	last time.Time // when the previous request returned
	now  func() time.Time
}

// NewThrottle creates a throttle. requestsPerSecond <= 0 disables the shared
// budget and leaves only the interval gate.
func NewThrottle(interval time.Duration, requestsPerSecond float64) *Throttle {
	t := &Throttle{
		interval: interval,
		slot:     make(chan struct{}, 1),
		now:      time.Now,
	}
	if requestsPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return t
}

// Acquire blocks until a request may start. The returned release func must
// be called exactly once, when the request has returned.
func (t *Throttle) Acquire(ctx context.Context) (release func(), err error) {
	start := t.now()

	select {
	case t.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := t.waitInterval(ctx); err != nil {
		<-t.slot
		return nil, err
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			<-t.slot
			return nil, err
		}
	}
	metrics.RecordThrottleWait(t.now().Sub(start))

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			t.last = t.now()
			t.mu.Unlock()
			<-t.slot
		})
	}, nil
}

func (t *Throttle) waitInterval(ctx context.Context) error {
	t.mu.Lock()
	last := t.last
	t.mu.Unlock()

	if last.IsZero() || t.interval <= 0 {
		return nil
	}
	wait := last.Add(t.interval).Sub(t.now())
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastReturn returns when the most recent request returned.
func (t *Throttle) LastReturn() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
