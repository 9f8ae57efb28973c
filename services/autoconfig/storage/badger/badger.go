// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger opens and manages the BadgerDB store that keeps variant
// verdicts between inference runs.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrPathRequired indicates a persistent store without a directory.
var ErrPathRequired = errors.New("path is required for persistent database")

// Config holds configuration for a verdict store.
type Config struct {
	// Path is the directory for database files. Ignored when InMemory.
	Path string

	// InMemory keeps everything in RAM. Used by tests and --no-cache runs
	// that still want cross-run semantics within one process.
	InMemory bool

	// SyncWrites fsyncs every commit. Verdicts are recomputable, so the
	// default is off.
	SyncWrites bool

	// Logger receives BadgerDB's own messages. Nil silences them.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum discardable fraction before GC rewrites
	// a value log file.
	GCDiscardRatio float64
}

// DefaultConfig returns the configuration for an on-disk store at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns configuration for an in-memory store.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func options(cfg Config) (badger.Options, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return opts, ErrPathRequired
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return opts, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	return opts, nil
}

// =============================================================================
// GC RUNNER
// =============================================================================

// GCRunner runs periodic value log garbage collection.
//
// Thread Safety: Start and Stop are safe to call more than once.
type GCRunner struct {
	db        *badger.DB
	interval  time.Duration
	ratio     float64
	logger    *slog.Logger
	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewGCRunner creates a runner. It does nothing until Start.
func NewGCRunner(db *badger.DB, interval time.Duration, ratio float64, logger *slog.Logger) (*GCRunner, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, errors.New("ratio must be between 0 and 1 exclusive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GCRunner{
		db:       db,
		interval: interval,
		ratio:    ratio,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins periodic collection in a goroutine.
func (r *GCRunner) Start() {
	r.startOnce.Do(func() { go r.run() })
}

// Stop halts collection and waits for the goroutine to exit.
func (r *GCRunner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		started := true
		r.startOnce.Do(func() { started = false })
		if started {
			<-r.doneCh
		}
	})
}

func (r *GCRunner) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.collect()
		}
	}
}

func (r *GCRunner) collect() {
	// ErrNoRewrite means nothing was worth collecting
	err := r.db.RunValueLogGC(r.ratio)
	switch {
	case err == nil:
		r.logger.Debug("verdict store value log GC completed")
	case !errors.Is(err, badger.ErrNoRewrite):
		r.logger.Warn("verdict store value log GC failed", slog.String("error", err.Error()))
	}
}

// =============================================================================
// DB
// =============================================================================

// DB is an open store with its GC lifecycle.
//
// Thread Safety: Safe for concurrent use.
type DB struct {
	*badger.DB
	gc        *GCRunner
	path      string
	inMemory  bool
	closeOnce sync.Once
	closeErr  error
}

// OpenDB opens the store described by cfg and starts GC when configured.
//
// Outputs:
//
//	*DB - The open store. Caller must Close it.
//	error - ErrPathRequired, or a wrapped BadgerDB open failure (for
//	        example when another process holds the directory lock)
func OpenDB(cfg Config) (*DB, error) {
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	wrapped := &DB{DB: db, path: cfg.Path, inMemory: cfg.InMemory}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := NewGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		wrapped.gc = runner
		runner.Start()
	}
	return wrapped, nil
}

// Close stops GC and closes the database. Later calls return the first
// result.
func (d *DB) Close() error {
	d.closeOnce.Do(func() {
		if d.gc != nil {
			d.gc.Stop()
		}
		d.closeErr = d.DB.Close()
	})
	return d.closeErr
}

// Path returns the database directory, or "" in memory.
func (d *DB) Path() string { return d.path }

// InMemory reports whether the store is in memory.
func (d *DB) InMemory() bool { return d.inMemory }

// WithTxn runs fn in a read-write transaction and commits if it returns nil.
func (d *DB) WithTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if d.DB.IsClosed() {
		return badger.ErrDBClosed
	}

	txn := d.DB.NewTransaction(true)
	defer txn.Discard()

	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// WithReadTxn runs fn in a read-only transaction.
func (d *DB) WithReadTxn(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}
	if d.DB.IsClosed() {
		return badger.ErrDBClosed
	}

	txn := d.DB.NewTransaction(false)
	defer txn.Discard()

	return fn(txn)
}

// Get returns the value stored at key, or found=false.
func (d *DB) Get(ctx context.Context, key []byte) (value []byte, found bool, err error) {
	err = d.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		found = err == nil
		return err
	})
	return value, found, err
}

// Put stores value at key. A positive ttl expires the entry.
func (d *DB) Put(ctx context.Context, key, value []byte, ttl time.Duration) error {
	return d.WithTxn(ctx, func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Count returns the number of live keys with the given prefix.
func (d *DB) Count(ctx context.Context, prefix []byte) (int, error) {
	n := 0
	err := d.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// DropPrefix deletes every key with the given prefix.
func (d *DB) DropPrefix(prefix []byte) error {
	return d.DB.DropPrefix(prefix)
}
