// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/routeguard"
)

func withMode(t *testing.T, m OutputMode) {
	t.Helper()
	prev := Mode()
	SetMode(m)
	t.Cleanup(func() { SetMode(prev) })
}

// ---- Messages ----

func TestMessages_MachineMode(t *testing.T) {
	withMode(t, ModeMachine)
	var buf bytes.Buffer

	Title(&buf, "ignored")
	Success(&buf, "saved")
	Warning(&buf, "careful")
	Error(&buf, "broken")
	Muted(&buf, "ignored too")

	assert.Equal(t, "OK: saved\nWARN: careful\nERROR: broken\n", buf.String())
}

func TestMessages_PlainMode(t *testing.T) {
	withMode(t, ModePlain)
	var buf bytes.Buffer
	Success(&buf, "saved")
	assert.Equal(t, "✓ saved\n", buf.String())
}

// ---- Catalog rendering ----

func TestItemLine_Machine(t *testing.T) {
	withMode(t, ModeMachine)
	it := catalog.Item{ID: "x", Name: "Hammer", Price: catalog.MustPrice("12.5"), Category: catalog.CategoryNamed("Tools")}
	assert.Equal(t, "x\tHammer\t12.50\tTools\t", ItemLine(it))
}

func TestItemLine_PlainShowsUncategorized(t *testing.T) {
	withMode(t, ModePlain)
	line := ItemLine(catalog.Item{Name: "Box"})
	assert.Contains(t, line, "Box")
	assert.Contains(t, line, "$0.00")
	assert.Contains(t, line, "uncategorized")
}

func TestListing_States(t *testing.T) {
	withMode(t, ModePlain)
	items := []catalog.Item{{ID: "1", Name: "Hammer", Category: catalog.CategoryNamed("Tools")}}

	var buf bytes.Buffer
	Listing(&buf, catalog.PendingListing(catalog.Filter{}))
	assert.Contains(t, buf.String(), "Loading")

	buf.Reset()
	Listing(&buf, catalog.FailedListing(catalog.Filter{}, errors.New("offline")))
	assert.Contains(t, buf.String(), "could not load items: offline")

	buf.Reset()
	Listing(&buf, catalog.FailedListing(catalog.Filter{}, &apiclient.APIError{
		Kind:      apiclient.KindConnection,
		Operation: "list_items",
		Message:   "connection error, please try again later",
	}))
	assert.Equal(t, "✗ could not load items: connection error, please try again later\n", buf.String())

	buf.Reset()
	Listing(&buf, catalog.LoadedListing(items, catalog.Filter{Search: "zzz"}))
	assert.Contains(t, buf.String(), "No items match")

	buf.Reset()
	Listing(&buf, catalog.LoadedListing(items, catalog.Filter{Category: "Tools"}))
	assert.Contains(t, buf.String(), "All  [Tools]")
	assert.Contains(t, buf.String(), "Hammer")
}

func TestNavBar_Plain(t *testing.T) {
	withMode(t, ModePlain)
	links := []routeguard.Link{{Label: "Home"}, {Label: "Dashboard"}, {Label: "Logout"}}
	assert.Equal(t, "Home | Dashboard | Logout", NavBar(links))
}

func TestStatsPanel_Plain(t *testing.T) {
	withMode(t, ModePlain)
	assert.Equal(t, "Items: 3   Categories: 2", StatsPanel(catalog.Stats{Items: 3, Categories: 2}))
}
