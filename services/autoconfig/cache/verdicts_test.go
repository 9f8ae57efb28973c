// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lintinfer/services/autoconfig/registry"
	"github.com/AleutianAI/lintinfer/services/autoconfig/storage/badger"
)

var _ registry.VerdictStore = (*Verdicts)(nil)

func TestVerdicts_Memory(t *testing.T) {
	v := NewMemory()
	assert.False(t, v.Persistent())

	_, ok := v.Lookup("k")
	assert.False(t, ok)

	v.Store("k", true)
	v.Store("f", false)
	passing, ok := v.Lookup("k")
	assert.True(t, ok)
	assert.True(t, passing)
	passing, ok = v.Lookup("f")
	assert.True(t, ok)
	assert.False(t, passing)

	assert.Equal(t, Stats{Hits: 2, Misses: 1, Entries: 2}, v.Stats())

	require.NoError(t, v.Clear())
	_, ok = v.Lookup("k")
	assert.False(t, ok)
	assert.NoError(t, v.Close())
}

func TestVerdicts_PersistAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	first := Open(dir, DefaultTTL)
	require.True(t, first.Persistent())
	first.Store("run/quotes[]", true)
	first.Store("run/semi[]", false)
	require.NoError(t, first.Close())

	second := Open(dir, DefaultTTL)
	defer second.Close()
	passing, ok := second.Lookup("run/quotes[]")
	assert.True(t, ok)
	assert.True(t, passing)
	passing, ok = second.Lookup("run/semi[]")
	assert.True(t, ok)
	assert.False(t, passing)

	require.NoError(t, second.Clear())
	_, ok = second.Lookup("run/quotes[]")
	assert.False(t, ok)
}

func TestVerdicts_LockedStoreFallsBackToMemory(t *testing.T) {
	dir := t.TempDir()
	holder := Open(dir, DefaultTTL)
	defer holder.Close()
	require.True(t, holder.Persistent())

	second := Open(dir, DefaultTTL)
	defer second.Close()
	assert.False(t, second.Persistent())
	second.Store("k", true)
	_, ok := second.Lookup("k")
	assert.True(t, ok)
}

func TestVerdicts_ClosedStoreDegrades(t *testing.T) {
	db, err := badger.OpenDB(badger.InMemoryConfig())
	require.NoError(t, err)

	v := NewWithDB(db, 0)
	v.Store("a", true)
	require.NoError(t, db.Close())

	v.Store("b", true)
	assert.False(t, v.Persistent())
	passing, ok := v.Lookup("b")
	assert.True(t, ok)
	assert.True(t, passing)
	assert.NoError(t, v.Close(), "caller owns the db")
}

func TestVerdicts_Concurrent(t *testing.T) {
	db, err := badger.OpenDB(badger.InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()
	v := NewWithDB(db, 0)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%8))
			v.Store(key, i%2 == 0)
			v.Lookup(key)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, v.Stats().Entries)
}
