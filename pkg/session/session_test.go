// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilneora/storefront/pkg/storage/badger"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// ---- DecodeRole ----

func TestDecodeRole(t *testing.T) {
	admin := signedToken(t, jwt.MapClaims{"role": "admin", "sub": "u1"})
	role, err := DecodeRole(admin)
	require.NoError(t, err)
	assert.Equal(t, "admin", role)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"missing role", signedToken(t, jwt.MapClaims{"sub": "u1"})},
		{"non-string role", signedToken(t, jwt.MapClaims{"role": 7})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRole(tt.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

// ---- Store ----

func TestStore_LoginLogoutCurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend(), nil)

	_, ok, err := store.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	token := signedToken(t, jwt.MapClaims{"role": "user"})
	sess, err := store.Login(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: token, Role: "user"}, sess)

	got, ok, err := store.Current(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Logout(ctx))
	_, ok, err = store.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Logout(ctx))
}

func TestStore_LoginMalformedPersistsNothing(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend, nil)

	_, err := store.Login(ctx, signedToken(t, jwt.MapClaims{"sub": "u1"}))
	require.ErrorIs(t, err, ErrMalformedToken)

	_, err = backend.Get(ctx, KeyToken)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = backend.Get(ctx, KeyRole)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_BadgerBackendSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	token := signedToken(t, jwt.MapClaims{"role": "admin"})

	db, err := badger.Open(badger.DefaultConfig(dir))
	require.NoError(t, err)
	_, err = NewStore(NewBadgerBackend(db), nil).Login(ctx, token)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = badger.Open(badger.DefaultConfig(dir))
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(NewBadgerBackend(db), nil)
	sess, ok, err := store.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, sess.Role)

	require.NoError(t, store.Logout(ctx))
	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}
