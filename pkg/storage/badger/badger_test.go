// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory_SetGetDelete(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.SetMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))

	v, err := db.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, db.DeleteMany(ctx, "a", "missing"))
	_, err = db.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	v, err = db.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
	assert.True(t, db.InMemory())
	assert.Empty(t, db.Path())
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, db.SetMany(ctx, map[string][]byte{"token": []byte("abc")}))
	require.NoError(t, db.Close())

	db2, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer db2.Close()

	v, err := db2.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)
	assert.Equal(t, dir, db2.Path())
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestWithTxn_CancelledContext(t *testing.T) {
	db, err := OpenInMemory()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, db.SetMany(ctx, map[string][]byte{"a": nil}))
	_, err = db.Get(ctx, "a")
	assert.Error(t, err)
}

func TestGCRunner_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 10 * time.Millisecond

	db, err := Open(cfg)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	db.gc.Stop()
	require.NoError(t, db.Close())
}
