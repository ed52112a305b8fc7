// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package pagecache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	body      []byte
	expiresAt time.Time
}

// Stats tracks cache performance.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// MemoryStore is a thread-safe in-process Store. Expired entries are
// evicted lazily on access and by Purge.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	stats   Stats
	now     func() time.Time
}

// NewMemoryStore creates an empty store whose entries live for ttl.
// A zero ttl keeps entries for the life of the process.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		m.record(func(s *Stats) { s.Misses++ })
		return nil, false, nil
	}
	if m.expired(e) {
		m.mu.Lock()
		delete(m.entries, key)
		m.stats.Misses++
		m.stats.Evictions++
		m.mu.Unlock()
		return nil, false, nil
	}

	m.record(func(s *Stats) { s.Hits++ })
	out := make([]byte, len(e.body))
	copy(out, e.body)
	return out, true, nil
}

// Set implements Store. The body is copied.
func (m *MemoryStore) Set(_ context.Context, key string, body []byte) error {
	stored := make([]byte, len(body))
	copy(stored, body)

	e := entry{body: stored}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Purge removes every expired entry and returns how many were removed.
func (m *MemoryStore) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, key)
			removed++
		}
	}
	m.stats.Evictions += int64(removed)
	return removed
}

// Stats returns a snapshot of the cache statistics.
func (m *MemoryStore) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.stats
	s.Keys = len(m.entries)
	return s
}

// Backend implements Store.
func (m *MemoryStore) Backend() string { return BackendMemory }

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) expired(e entry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}

func (m *MemoryStore) record(update func(*Stats)) {
	m.mu.Lock()
	update(&m.stats)
	m.mu.Unlock()
}
