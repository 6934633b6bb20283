// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session holds the client's authentication state: the bearer token
// returned by login and the role decoded from it.
//
// The Store is the only read/write surface for that state. It is injected
// into the route guard and the front ends; nothing else touches the
// backend directly. The Store makes no network calls.
//
// # Trust
//
// The token payload is decoded without verifying its signature or expiry.
// The role derived from it drives what the client shows, not what the
// server permits: the remote service re-checks the bearer token on every
// mutating call. The persisted role is a convenience cache; access
// decisions re-derive it from the token at the moment of use.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
)

// Persisted keys. Token and role are stored as separate entries.
const (
	KeyToken = "token"
	KeyRole  = "role"
)

// RoleAdmin is the role that unlocks the dashboard.
const RoleAdmin = "admin"

var (
	// ErrMalformedToken is returned when a token cannot be decoded or its
	// payload carries no string "role" claim.
	ErrMalformedToken = errors.New("malformed token")

	// ErrNotFound is returned by a Backend for a missing key.
	ErrNotFound = errors.New("session key not found")
)

// Session is the present token and role pair.
type Session struct {
	Token string
	Role  string
}

// Backend stores string values by key.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// DecodeRole extracts the "role" claim from a JWT without verifying it.
//
// # Inputs
//
//   - token: A compact JWT (header.payload.signature).
//
// # Outputs
//
//   - string: The role claim.
//   - error: Wraps ErrMalformedToken if the token does not parse or has no
//     string role.
func DecodeRole(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrMalformedToken)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("%w: missing role claim", ErrMalformedToken)
	}
	return role, nil
}

// Store is the session read/write surface.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore creates a Store over backend. A nil logger uses slog.Default().
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger}
}

// Login decodes the role from token and persists both.
//
// # Outputs
//
//   - Session: The stored pair.
//   - error: ErrMalformedToken (nothing is persisted), or a backend error.
func (s *Store) Login(ctx context.Context, token string) (Session, error) {
	role, err := DecodeRole(token)
	if err != nil {
		s.logger.Warn("rejecting login token", "error", err)
		return Session{}, err
	}
	if err := s.backend.Set(ctx, map[string]string{KeyToken: token, KeyRole: role}); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}
	s.logger.Info("session stored", "role", role)
	return Session{Token: token, Role: role}, nil
}

// Logout clears both entries. Logging out with no session is not an error.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.backend.Delete(ctx, KeyToken, KeyRole); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("session cleared")
	return nil
}

// Current returns the stored pair.
//
// # Outputs
//
//   - Session: The stored token and cached role.
//   - bool: false when no token is stored.
//   - error: Backend failures only. A missing role entry is not an error.
func (s *Store) Current(ctx context.Context) (Session, bool, error) {
	token, err := s.backend.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) || (err == nil && token == "") {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("read session token: %w", err)
	}
	role, err := s.backend.Get(ctx, KeyRole)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Session{}, false, fmt.Errorf("read session role: %w", err)
	}
	return Session{Token: token, Role: role}, true, nil
}

// Token returns the stored token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	sess, ok, err := s.Current(ctx)
	if err != nil || !ok {
		return "", err
	}
	return sess.Token, nil
}
