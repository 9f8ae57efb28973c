// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache memoizes variant verdicts for one inference run, optionally
// persisting them so later runs over the same corpus skip the analyzer.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/lintinfer/services/autoconfig/storage/badger"
)

const keyPrefix = "verdict/"

// DefaultTTL is how long persisted verdicts stay valid.
const DefaultTTL = 30 * 24 * time.Hour

// Stats counts memo lookups.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Verdicts is a verdict memo.
//
// Description:
//
//	Lookups consult the in-memory map, then the backing store if one is
//	attached. A store failure is logged once and the memo continues in
//	memory only; verdicts can always be recomputed.
//
// Thread Safety: Safe for concurrent use.
type Verdicts struct {
	mu  sync.RWMutex
	mem map[string]bool

	db       *badger.DB
	ownsDB   bool
	ttl      time.Duration
	degraded atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory creates a memo that lives only as long as the value.
func NewMemory() *Verdicts {
	return &Verdicts{mem: make(map[string]bool)}
}

// NewWithDB creates a memo backed by db. The caller keeps ownership of db.
func NewWithDB(db *badger.DB, ttl time.Duration) *Verdicts {
	v := NewMemory()
	v.db = db
	v.ttl = ttl
	return v
}

// Open creates a memo persisted under dir.
//
// If the store cannot be opened, for example because another run holds
// its lock, Open logs a warning and returns a memory-only memo.
func Open(dir string, ttl time.Duration) *Verdicts {
	db, err := badger.OpenDB(badger.DefaultConfig(dir))
	if err != nil {
		slog.Warn("verdict cache unavailable, continuing without persistence",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)
		return NewMemory()
	}
	v := NewWithDB(db, ttl)
	v.ownsDB = true
	return v
}

// Persistent reports whether verdicts are written to a store.
func (v *Verdicts) Persistent() bool {
	return v.db != nil && !v.degraded.Load()
}

// Lookup implements registry.VerdictStore.
func (v *Verdicts) Lookup(key string) (bool, bool) {
	v.mu.RLock()
	passing, ok := v.mem[key]
	v.mu.RUnlock()
	if ok {
		v.hits.Add(1)
		return passing, true
	}

	if v.Persistent() {
		value, found, err := v.db.Get(context.Background(), []byte(keyPrefix+key))
		if err != nil {
			v.degrade(err)
		} else if found && len(value) == 1 {
			passing = value[0] == 1
			v.mu.Lock()
			v.mem[key] = passing
			v.mu.Unlock()
			v.hits.Add(1)
			return passing, true
		}
	}

	v.misses.Add(1)
	return false, false
}

// Store implements registry.VerdictStore.
func (v *Verdicts) Store(key string, passing bool) {
	v.mu.Lock()
	v.mem[key] = passing
	v.mu.Unlock()

	if !v.Persistent() {
		return
	}
	value := []byte{0}
	if passing {
		value[0] = 1
	}
	if err := v.db.Put(context.Background(), []byte(keyPrefix+key), value, v.ttl); err != nil {
		v.degrade(err)
	}
}

// Stats returns lookup counters and the number of in-memory entries.
func (v *Verdicts) Stats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Stats{Hits: v.hits.Load(), Misses: v.misses.Load(), Entries: len(v.mem)}
}

// Clear drops every verdict, persisted ones included.
func (v *Verdicts) Clear() error {
	v.mu.Lock()
	v.mem = make(map[string]bool)
	v.mu.Unlock()

	if v.db == nil {
		return nil
	}
	return v.db.DropPrefix([]byte(keyPrefix))
}

// Close closes the backing store if Open created it.
func (v *Verdicts) Close() error {
	if v.db == nil || !v.ownsDB {
		return nil
	}
	return v.db.Close()
}

func (v *Verdicts) degrade(err error) {
	if v.degraded.CompareAndSwap(false, true) {
		slog.Warn("verdict cache failed, continuing in memory", slog.String("error", err.Error()))
	}
}
