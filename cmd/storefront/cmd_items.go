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
	"io"
	"log/slog"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/ux"
	"github.com/ilneora/storefront/pkg/validation"
)

// runItemsList prints the public storefront listing. On a connection
// failure an interactive user is offered a retry.
func runItemsList(cmd *cobra.Command, _ []string) error {
	client, err := current.client(false)
	if err != nil {
		return err
	}
	filter := catalog.Filter{Category: filterCategory, Search: filterSearch}
	source := spinningLister{lister: client, w: cmd.ErrOrStderr()}
	listing := fetchListing(cmd.Context(), source, filter, confirmRetry, current.logger.Slog())
	ux.Listing(cmd.OutOrStdout(), listing)
	if listing.Err != nil {
		return errors.New(apiclient.UserMessage(listing.Err))
	}
	return nil
}

type itemLister interface {
	ListItems(ctx context.Context) ([]catalog.Item, error)
}

// spinningLister shows a spinner while the listing loads.
type spinningLister struct {
	lister itemLister
	w      io.Writer
}

func (s spinningLister) ListItems(ctx context.Context) ([]catalog.Item, error) {
	var items []catalog.Item
	err := ux.WithSpinner(s.w, "Loading items...", func() error {
		var err error
		items, err = s.lister.ListItems(ctx)
		return err
	})
	return items, err
}

// fetchListing loads items into a Listing. retry is consulted after each
// connection failure; nil means never retry.
func fetchListing(ctx context.Context, source itemLister, filter catalog.Filter, retry func(error) bool, logger *slog.Logger) catalog.Listing {
	for {
		items, err := source.ListItems(ctx)
		if err == nil {
			return catalog.LoadedListing(catalog.NormalizeItems(items), filter)
		}
		logger.Warn("listing fetch failed", "error", err)
		kind, ok := apiclient.KindOf(err)
		if !ok || kind != apiclient.KindConnection || retry == nil || !retry(err) {
			return catalog.FailedListing(filter, err)
		}
	}
}

func confirmRetry(err error) bool {
	if !ux.IsInteractive() {
		return false
	}
	again := true
	confirm := huh.NewConfirm().
		Title(apiclient.UserMessage(err)).
		Affirmative("Retry").
		Negative("Give up").
		Value(&again)
	if err := confirm.Run(); err != nil {
		return false
	}
	return again
}

// draftFromFlags starts from base and overlays the flags the user set.
func draftFromFlags(cmd *cobra.Command, base catalog.ItemDraft) (catalog.ItemDraft, error) {
	flags := cmd.Flags()
	if flags.Changed("name") {
		base.Name = itemName
	}
	if flags.Changed("description") {
		base.Description = itemDescription
	}
	if flags.Changed("category") {
		base.Category = itemCategory
	}
	if flags.Changed("price") {
		p, err := catalog.ParsePrice(itemPrice)
		if err != nil {
			return base, fmt.Errorf("--price: %w", err)
		}
		base.Price = p
	}
	return base, nil
}

func runItemsCreate(cmd *cobra.Command, _ []string) error {
	draft, err := draftFromFlags(cmd, catalog.ItemDraft{})
	if err != nil {
		return err
	}
	rec, err := current.adminReconciler(cmd.Context())
	if err != nil {
		return err
	}
	item, err := rec.CreateItem(cmd.Context(), draft)
	if err != nil {
		return mutationError(err)
	}
	out := cmd.OutOrStdout()
	ux.Success(out, "Created item")
	fmt.Fprintln(out, ux.ItemLine(item))
	return nil
}

func runItemsUpdate(cmd *cobra.Command, args []string) error {
	id, err := validation.SanitizeID(args[0])
	if err != nil {
		return err
	}
	rec, err := current.adminReconciler(cmd.Context())
	if err != nil {
		return err
	}
	existing, ok := findItem(rec.Items(), id)
	if !ok {
		return fmt.Errorf("item %s: %w", id, catalog.ErrNotFound)
	}
	draft, err := draftFromFlags(cmd, catalog.DraftFrom(existing))
	if err != nil {
		return err
	}
	item, err := rec.UpdateItem(cmd.Context(), id, draft)
	if err != nil {
		return mutationError(err)
	}
	out := cmd.OutOrStdout()
	ux.Success(out, "Updated item")
	fmt.Fprintln(out, ux.ItemLine(item))
	return nil
}

func runItemsDelete(cmd *cobra.Command, args []string) error {
	id, err := validation.SanitizeID(args[0])
	if err != nil {
		return err
	}
	rec, err := current.adminReconciler(cmd.Context())
	if err != nil {
		return err
	}
	if err := rec.DeleteItem(cmd.Context(), id); err != nil {
		return mutationError(err)
	}
	ux.Success(cmd.OutOrStdout(), "Deleted item "+id)
	return nil
}

func findItem(items []catalog.Item, id string) (catalog.Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return catalog.Item{}, false
}

// mutationError maps remote failures to the user-facing message and keeps
// local validation errors as they are.
func mutationError(err error) error {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		current.logger.Warn("mutation failed", "operation", apiErr.Operation, "error", apiErr.FullError())
		return errors.New(apiErr.Message)
	}
	return err
}
