// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []Item {
	return []Item{
		{ID: "1", Name: "Claw Hammer", Description: "Steel head", Price: MustPrice("12.5"), Category: CategoryNamed("Tools")},
		{ID: "2", Name: "Desk Lamp", Description: "LED, warm light", Price: MustPrice("30"), Category: CategoryNamed("Home")},
		{ID: "3", Name: "Screwdriver", Description: "Flat head", Category: CategoryNamed("Tools")},
		{ID: "4", Name: "Mystery Box", Description: "Surprise"},
	}
}

// ---- Derive ----

func TestDerive(t *testing.T) {
	items := sampleItems()

	tests := []struct {
		name    string
		filter  Filter
		wantIDs []string
	}{
		{"no filter", Filter{}, []string{"1", "2", "3", "4"}},
		{"category only", Filter{Category: "Tools"}, []string{"1", "3"}},
		{"search in name is case-insensitive", Filter{Search: "LAMP"}, []string{"2"}},
		{"search in description", Filter{Search: "head"}, []string{"1", "3"}},
		{"category and search", Filter{Category: "Tools", Search: "steel"}, []string{"1"}},
		{"no match", Filter{Category: "Home", Search: "hammer"}, []string{}},
		{"unknown category", Filter{Category: "Garden"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Derive(items, tt.filter)
			ids := make([]string, 0, len(v.Items))
			for _, it := range v.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, []string{"Tools", "Home"}, v.Categories)
		})
	}
}

func TestDerive_EmptyCollection(t *testing.T) {
	v := Derive(nil, Filter{Search: "x"})
	assert.NotNil(t, v.Items)
	assert.Empty(t, v.Items)
	assert.Empty(t, v.Categories)
}

func TestCategoryNames_FollowsItems(t *testing.T) {
	items := sampleItems()
	items[1].Category = CategoryRef{}
	assert.Equal(t, []string{"Tools"}, CategoryNames(items))
}

// ---- Listing ----

func TestListing_Display(t *testing.T) {
	f := Filter{Search: "nothing matches this"}
	assert.Equal(t, DisplayLoading, PendingListing(f).Display())
	assert.Equal(t, DisplayFailed, FailedListing(f, errors.New("boom")).Display())
	assert.Equal(t, DisplayEmpty, LoadedListing(sampleItems(), f).Display())
	assert.Equal(t, DisplayResults, LoadedListing(sampleItems(), Filter{}).Display())
	assert.Equal(t, "empty", DisplayEmpty.String())
}

// ---- Model ----

func TestPrice_String(t *testing.T) {
	assert.Equal(t, "12.50", MustPrice("12.5").String())
	assert.Equal(t, "0.00", Price{}.String())
	assert.Equal(t, "3.00", MustPrice("3").String())
}

func TestPrice_Equal(t *testing.T) {
	assert.True(t, MustPrice("12.5").Equal(MustPrice("12.50")))
	assert.False(t, MustPrice("12.5").Equal(MustPrice("12.51")))
	assert.True(t, Price{}.Equal(Price{}))

	// Both render "0.00", but only the set zero is sent as a number.
	assert.Equal(t, Price{}.String(), MustPrice("0").String())
	assert.False(t, Price{}.Equal(MustPrice("0")))
}

func TestItem_UnmarshalJSON_CategoryShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want CategoryRef
	}{
		{"string", `{"_id":"a","name":"Saw","category":"Tools"}`, CategoryNamed("Tools")},
		{"object", `{"_id":"a","name":"Saw","category":{"_id":"c1","name":"Tools"}}`, CategoryRef{ID: "c1", Name: "Tools"}},
		{"null", `{"_id":"a","name":"Saw","category":null}`, CategoryRef{}},
		{"missing", `{"_id":"a","name":"Saw"}`, CategoryRef{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var it Item
			require.NoError(t, it.UnmarshalJSON([]byte(tt.body)))
			assert.Equal(t, "a", it.ID)
			assert.Equal(t, tt.want, it.Category)
		})
	}
}

func TestItem_UnmarshalJSON_Prices(t *testing.T) {
	var it Item
	require.NoError(t, it.UnmarshalJSON([]byte(`{"id":"b","name":"Pen","price":"4.2"}`)))
	assert.Equal(t, "b", it.ID)
	assert.Equal(t, "4.20", it.Price.String())

	require.NoError(t, it.UnmarshalJSON([]byte(`{"id":"b","name":"Pen","price":7}`)))
	assert.Equal(t, "7.00", it.Price.String())

	require.NoError(t, it.UnmarshalJSON([]byte(`{"id":"b","name":"Pen","price":"n/a"}`)))
	assert.False(t, it.Price.Valid())
	assert.Equal(t, "0.00", it.Price.String())
}

func TestItemDraft_MarshalJSON_EmptyCategoryIsNull(t *testing.T) {
	b, err := ItemDraft{Name: "Saw", Price: MustPrice("5")}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Saw","description":"","price":"5","category":null}`, string(b))
}

func TestDraftFrom(t *testing.T) {
	it := sampleItems()[0]
	d := DraftFrom(it)
	assert.Equal(t, "Tools", d.Category)
	assert.NoError(t, d.Validate())
}
