// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package main

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/reelcast/internal/pagecache"
)

func TestApp_PurgeCache(t *testing.T) {
	store := pagecache.NewMemoryStore(time.Millisecond)
	if err := store.Set(context.Background(), pagecache.Key("popular", "en-US", "", 1), []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)

	a := &app{cache: store}
	if removed := a.purgeCache(); removed != 1 {
		t.Errorf("purgeCache() removed %d, want 1", removed)
	}
	if keys := store.Stats().Keys; keys != 0 {
		t.Errorf("Keys = %d after purge", keys)
	}

	if removed := (&app{}).purgeCache(); removed != 0 {
		t.Errorf("purgeCache() without a cache removed %d", removed)
	}
}
