// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

// Package pagecache stores raw catalog page bodies so that re-runs within the
// TTL window do not spend the request budget again.
package pagecache

import (
	"context"
	"fmt"
	"time"
)

// Backend names.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Store is a TTL-bounded byte cache keyed by page identity.
type Store interface {
	// Get returns the cached body and true, or false on a miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores body under key for the store's TTL.
	Set(ctx context.Context, key string, body []byte) error

	// Backend names the implementation for metrics and logs.
	Backend() string

	// Close releases resources held by the store.
	Close() error
}

// Purger is implemented by stores that evict expired pages on demand.
// Badger expires entries itself and does not implement it.
type Purger interface {
	Purge() int
	Stats() Stats
}

// PurgeExpired evicts the expired pages of s when s supports it. ok is
// false for a nil store or one that expires entries itself.
func PurgeExpired(s Store) (removed int, stats Stats, ok bool) {
	p, ok := s.(Purger)
	if !ok {
		return 0, Stats{}, false
	}
	return p.Purge(), p.Stats(), true
}

// Key builds the cache key of one catalog page. Locale parameters are part
// of the key because they change the response body.
func Key(endpoint, language, region string, page int) string {
	return fmt.Sprintf("page:%s:%s:%s:%d", endpoint, language, region, page)
}

// Open creates the store selected by backend. It returns (nil, nil) for
// BackendNone so callers can treat a nil Store as "caching disabled".
func Open(backend, path string, ttl time.Duration) (Store, error) {
	switch backend {
	case BackendNone, "":
		return nil, nil
	case BackendMemory:
		return NewMemoryStore(ttl), nil
	case BackendBadger:
		store, err := OpenBadgerStore(path, ttl)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown page cache backend %q", backend)
	}
}
