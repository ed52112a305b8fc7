// Reelcast - Movie Rating Feature Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelcast

package pagecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore persists page bodies in BadgerDB using native entry TTLs, so a
// cache survives process restarts between scheduled runs.
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	ownsDB bool
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
func OpenBadgerStore(path string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger page cache: %w", err)
	}
	return &BadgerStore{db: db, ttl: ttl, ownsDB: true}, nil
}

// NewBadgerStoreFromDB wraps an already open database. Close leaves db open.
func NewBadgerStoreFromDB(db *badger.DB, ttl time.Duration) *BadgerStore {
	return &BadgerStore{db: db, ttl: ttl}
}

// Get implements Store.
func (b *BadgerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var body []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached page %s: %w", key, err)
	}
	return body, true, nil
}

// Set implements Store.
func (b *BadgerStore) Set(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), body)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Backend implements Store.
func (b *BadgerStore) Backend() string { return BackendBadger }

// Close implements Store.
func (b *BadgerStore) Close() error {
	if !b.ownsDB {
		return nil
	}
	return b.db.Close()
}
