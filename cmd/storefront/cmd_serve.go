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
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ilneora/storefront/cmd/storefront/config"
	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/telemetry"
	"github.com/ilneora/storefront/pkg/ux"
	"github.com/ilneora/storefront/services/storefront"
)

const shutdownTimeout = 10 * time.Second

// runServe starts the gateway and reloads the catalog client whenever the
// config file changes.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := current.cfg
	logger := current.logger

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceName = "storefront-gateway"
	tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	shutdownTelemetry, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}()

	client, err := current.client(false)
	if err != nil {
		return err
	}
	gateway := storefront.NewServer(client, logger.Slog())

	addr := cfg.Serve.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           gateway.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	active := cfg.API

	logger.Info("gateway listening", "addr", addr, "catalog", active.BaseURL)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		return config.Watch(gctx, path, func(next config.StorefrontConfig) {
			if next.API == active {
				return
			}
			gateway.SetSource(apiclient.New(next.API.BaseURL,
				apiclient.WithTimeout(next.API.Timeout),
				apiclient.WithRateLimit(next.API.RequestsPerSecond),
				apiclient.WithLogger(logger.Slog()),
			))
			active = next.API
			logger.Info("catalog client reloaded", "catalog", next.API.BaseURL)
		}, logger.Slog())
	})

	ux.Success(cmd.OutOrStdout(), "Storefront gateway on "+addr)
	return g.Wait()
}
