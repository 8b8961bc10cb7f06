// Upnext - Playback Queue Coordinator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/upnext

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces every key this process writes.
const keyPrefix = "kv:"

// DefaultGCDiscardRatio is the value log discard ratio used by RunGC.
const DefaultGCDiscardRatio = 0.5

// BadgerKV implements KV on top of BadgerDB for durable local storage.
type BadgerKV struct {
	db       *badger.DB
	ownsDB   bool
	inMemory bool
}

// OpenBadgerKV opens (or creates) a BadgerDB at path. An empty path opens an
// in-memory database.
func OpenBadgerKV(path string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerKV{db: db, ownsDB: true, inMemory: path == ""}, nil
}

// NewBadgerKV wraps an already-open database. Close will not close db.
func NewBadgerKV(db *badger.DB) *BadgerKV {
	return &BadgerKV{db: db, inMemory: db.Opts().InMemory}
}

// Get returns the value stored under key.
func (b *BadgerKV) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}

		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set stores value without expiry.
func (b *BadgerKV) Set(ctx context.Context, key string, value []byte) error {
	return b.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value; badger drops it after ttl.
func (b *BadgerKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(keyPrefix+key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

// Delete removes key.
func (b *BadgerKV) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(keyPrefix + key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
		return nil
	})
}

// Close closes the database if this store opened it.
func (b *BadgerKV) Close() error {
	if b.ownsDB {
		return b.db.Close()
	}
	return nil
}

// RunGC rewrites value log files until badger reports nothing left to
// reclaim. In-memory databases have no value log and return immediately.
func (b *BadgerKV) RunGC(ctx context.Context) error {
	if b.inMemory {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.db.RunValueLogGC(DefaultGCDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}
