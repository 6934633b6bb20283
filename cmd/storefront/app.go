// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilneora/storefront/cmd/storefront/config"
	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/logging"
	"github.com/ilneora/storefront/pkg/routeguard"
	"github.com/ilneora/storefront/pkg/session"
	"github.com/ilneora/storefront/pkg/storage/badger"
)

var (
	errLoginRequired = errors.New("you are not logged in; run `storefront login` first")
	errAdminRequired = errors.New("this command requires an admin account")
)

// app is the per-invocation wiring shared by every command.
//
// The session database is opened lazily: BadgerDB holds a directory lock,
// and `serve` never needs it.
type app struct {
	cfg    config.StorefrontConfig
	logger *logging.Logger

	db    *badger.DB
	store *session.Store
}

func newApp(cfg config.StorefrontConfig, logger *logging.Logger) *app {
	return &app{cfg: cfg, logger: logger}
}

// sessions opens the session store on first use.
func (a *app) sessions() (*session.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	bcfg := badger.DefaultConfig(a.cfg.Session.Path)
	bcfg.Logger = a.logger.Slog()
	db, err := badger.Open(bcfg)
	if err != nil {
		return nil, fmt.Errorf("open session store at %s: %w", a.cfg.Session.Path, err)
	}
	a.db = db
	a.store = session.NewStore(session.NewBadgerBackend(db), a.logger.Slog())
	return a.store, nil
}

func (a *app) guard() (*routeguard.Guard, error) {
	store, err := a.sessions()
	if err != nil {
		return nil, err
	}
	return routeguard.New(store), nil
}

// client builds an API client. Authenticated clients draw the bearer token
// from the session store on every request.
func (a *app) client(authenticated bool) (*apiclient.Client, error) {
	opts := []apiclient.Option{
		apiclient.WithTimeout(a.cfg.API.Timeout),
		apiclient.WithRateLimit(a.cfg.API.RequestsPerSecond),
		apiclient.WithLogger(a.logger.Slog()),
	}
	if authenticated {
		store, err := a.sessions()
		if err != nil {
			return nil, err
		}
		opts = append(opts, apiclient.WithTokenSource(store))
	}
	return apiclient.New(a.cfg.API.BaseURL, opts...), nil
}

// requireRoute evaluates route and turns a redirect into an error.
func (a *app) requireRoute(ctx context.Context, route routeguard.Route) error {
	g, err := a.guard()
	if err != nil {
		return err
	}
	v := g.Decide(ctx, route)
	switch v.Decision {
	case routeguard.Allow:
		return nil
	case routeguard.RedirectHome:
		return errAdminRequired
	default:
		if v.Cause != nil {
			a.logger.Warn("session rejected", "error", v.Cause)
		}
		return errLoginRequired
	}
}

// adminReconciler checks for admin access, then returns a reconciler with
// both collections loaded.
func (a *app) adminReconciler(ctx context.Context) (*catalog.Reconciler, error) {
	if err := a.requireRoute(ctx, routeguard.Dashboard); err != nil {
		return nil, err
	}
	client, err := a.client(true)
	if err != nil {
		return nil, err
	}
	rec := catalog.NewReconciler(client, catalog.WithLogger(a.logger.Slog()))
	if err := rec.Load(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (a *app) Close() error {
	var err error
	if a.db != nil {
		err = a.db.Close()
		a.db = nil
		a.store = nil
	}
	if cerr := a.logger.Close(); err == nil {
		err = cerr
	}
	return err
}
