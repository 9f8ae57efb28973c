// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB_InMemory(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	assert.True(t, db.InMemory())
	assert.Equal(t, "", db.Path())

	require.NoError(t, db.Put(ctx, []byte("verdict/a"), []byte{1}, 0))
	require.NoError(t, db.Put(ctx, []byte("verdict/b"), []byte{0}, time.Hour))
	require.NoError(t, db.Put(ctx, []byte("other/c"), []byte{1}, 0))

	value, found, err := db.Get(ctx, []byte("verdict/a"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte{1}, value)

	_, found, err = db.Get(ctx, []byte("verdict/missing"))
	require.NoError(t, err)
	assert.False(t, found)

	n, err := db.Count(ctx, []byte("verdict/"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, db.DropPrefix([]byte("verdict/")))
	n, err = db.Count(ctx, []byte("verdict/"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOpenDB_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := OpenDB(DefaultConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, dir, db.Path())
	require.NoError(t, db.Put(ctx, []byte("k"), []byte("v"), 0))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "close is idempotent")

	reopened, err := OpenDB(DefaultConfig(dir))
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), value)
}

func TestOpenDB_PathRequired(t *testing.T) {
	_, err := OpenDB(Config{})
	assert.True(t, errors.Is(err, ErrPathRequired))
}

func TestWithTxn_RollsBackOnError(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	boom := errors.New("boom")
	err = db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, found, err := db.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestWithTxn_CancelledContext(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = db.WithTxn(ctx, func(*badger.Txn) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	err = db.WithReadTxn(ctx, func(*badger.Txn) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGCRunner(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	_, err = NewGCRunner(nil, time.Second, 0.5, nil)
	assert.Error(t, err)
	_, err = NewGCRunner(db.DB, 0, 0.5, nil)
	assert.Error(t, err)
	_, err = NewGCRunner(db.DB, time.Second, 1.5, nil)
	assert.Error(t, err)

	runner, err := NewGCRunner(db.DB, 10*time.Millisecond, 0.5, nil)
	require.NoError(t, err)
	runner.Start()
	runner.Start()
	time.Sleep(30 * time.Millisecond)
	runner.Stop()
	runner.Stop()

	idle, err := NewGCRunner(db.DB, time.Second, 0.5, nil)
	require.NoError(t, err)
	idle.Stop()
}

func TestDB_ClosedReturnsError(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, _, err = db.Get(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, badger.ErrDBClosed)
	err = db.Put(context.Background(), []byte("k"), []byte("v"), 0)
	assert.ErrorIs(t, err, badger.ErrDBClosed)
}
