// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routeguard decides whether a navigation target may be shown for
// the current session.
//
// The guard gates what the client displays. It is not a security boundary:
// the remote service re-validates the bearer token on every mutating call.
package routeguard

import (
	"context"
	"fmt"

	"github.com/ilneora/storefront/pkg/session"
)

// Route is a navigation target and its access requirements.
type Route struct {
	Name string
	Path string

	// AdminOnly requires a token whose decoded role is admin.
	AdminOnly bool

	// RequireLogin requires any valid token. Implied by AdminOnly.
	RequireLogin bool
}

func (r Route) needsSession() bool {
	return r.AdminOnly || r.RequireLogin
}

// Known routes.
var (
	Home      = Route{Name: "home", Path: "/"}
	Login     = Route{Name: "login", Path: "/login"}
	Dashboard = Route{Name: "dashboard", Path: "/dashboard", AdminOnly: true}
)

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

// String returns "allow", "redirect-to-login" or "redirect-to-home".
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-to-login"
	case RedirectHome:
		return "redirect-to-home"
	default:
		return "unknown"
	}
}

// Verdict is a decision plus the reason for a redirect.
type Verdict struct {
	Decision Decision

	// Cause is set when the session could not be read or its token could
	// not be decoded. A malformed token wraps session.ErrMalformedToken.
	Cause error
}

// Target returns the route the verdict sends the user to, given the
// requested one.
func (v Verdict) Target(requested Route) Route {
	switch v.Decision {
	case RedirectLogin:
		return Login
	case RedirectHome:
		return Home
	default:
		return requested
	}
}

// SessionReader is the part of session.Store the guard needs.
type SessionReader interface {
	Current(ctx context.Context) (session.Session, bool, error)
}

// Guard evaluates routes against a session store.
type Guard struct {
	sessions SessionReader
}

// New creates a Guard reading from sessions.
func New(sessions SessionReader) *Guard {
	return &Guard{sessions: sessions}
}

// Decide evaluates route for the current session.
//
// # Description
//
// The role is decoded from the stored token on every call; the cached
// role is ignored. Rules, in order:
//
//   - Route needs no session: Allow.
//   - No token, unreadable session, or malformed token: RedirectLogin.
//   - AdminOnly and decoded role is not admin: RedirectHome.
//   - Otherwise: Allow.
//
// A malformed token never grants access.
func (g *Guard) Decide(ctx context.Context, route Route) Verdict {
	if !route.needsSession() {
		return Verdict{Decision: Allow}
	}

	sess, ok, err := g.sessions.Current(ctx)
	if err != nil {
		return Verdict{Decision: RedirectLogin, Cause: fmt.Errorf("read session: %w", err)}
	}
	if !ok {
		return Verdict{Decision: RedirectLogin}
	}

	role, err := session.DecodeRole(sess.Token)
	if err != nil {
		return Verdict{Decision: RedirectLogin, Cause: err}
	}
	if route.AdminOnly && role != session.RoleAdmin {
		return Verdict{Decision: RedirectHome}
	}
	return Verdict{Decision: Allow}
}

// Link is a navigation entry.
type Link struct {
	Label string
	Route Route

	// Logout marks the entry that ends the session instead of navigating.
	Logout bool
}

// Links returns the navigation entries for the current session.
//
// Home is always present. Dashboard appears only when the token decodes to
// the admin role. Logout appears when a valid session exists, Login
// otherwise.
func (g *Guard) Links(ctx context.Context) []Link {
	links := []Link{{Label: "Home", Route: Home}}

	sess, ok, err := g.sessions.Current(ctx)
	if err != nil || !ok {
		return append(links, Link{Label: "Login", Route: Login})
	}
	role, err := session.DecodeRole(sess.Token)
	if err != nil {
		return append(links, Link{Label: "Login", Route: Login})
	}
	if role == session.RoleAdmin {
		links = append(links, Link{Label: "Dashboard", Route: Dashboard})
	}
	return append(links, Link{Label: "Logout", Route: Home, Logout: true})
}

// LandingFor is where a user lands after logging in with role.
func LandingFor(role string) Route {
	if role == session.RoleAdmin {
		return Dashboard
	}
	return Home
}
