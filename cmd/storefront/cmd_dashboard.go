// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ilneora/storefront/cmd/storefront/internal/dashboard"
	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/routeguard"
	"github.com/ilneora/storefront/pkg/ux"
)

// runDashboard opens the admin TUI. Without a terminal it prints the
// overview and the full listing instead.
func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if err := current.requireRoute(ctx, routeguard.Dashboard); err != nil {
		return err
	}
	client, err := current.client(true)
	if err != nil {
		return err
	}
	g, err := current.guard()
	if err != nil {
		return err
	}
	rec := catalog.NewReconciler(client, catalog.WithLogger(current.logger.Slog()))

	if !ux.IsInteractive() {
		out := cmd.OutOrStdout()
		if err := rec.Load(ctx); err != nil {
			return mutationError(err)
		}
		fmt.Fprintln(out, ux.StatsPanel(rec.Stats()))
		ux.Listing(out, catalog.LoadedListing(rec.Items(), catalog.Filter{}))
		for _, c := range rec.Categories() {
			fmt.Fprintln(out, ux.CategoryLine(c))
		}
		return nil
	}

	model := dashboard.New(ctx, rec, g.Links(ctx))
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
