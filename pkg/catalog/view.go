// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import "strings"

// =============================================================================
// Derived view
// =============================================================================

// Filter is the browsing state of a storefront listing.
//
// An empty Category means "all categories"; an empty Search means "no text
// filter".
type Filter struct {
	Category string
	Search   string
}

// View is the derived storefront listing.
type View struct {
	// Categories are the distinct category names present among all items
	// (not just the filtered ones), in first-seen order.
	Categories []string

	// Items are the items that pass the filter, in collection order.
	Items []Item
}

// Derive computes the storefront view for a collection and filter.
//
// # Description
//
// Category names are recomputed from the item collection on every call, so
// a category that no item references anymore drops out of the list without
// any separate bookkeeping. Items without a category never contribute a
// name.
//
// An item passes the filter when both hold:
//
//   - the filter category is empty, or equals the item's category name;
//   - the search term is empty, or occurs case-insensitively in the item's
//     name or description.
//
// # Inputs
//
//   - items: The authoritative item collection. Not modified.
//   - f: The current filter state.
//
// # Outputs
//
//   - View: Never nil slices; an empty result is an empty slice.
//
// # Examples
//
//	v := catalog.Derive(items, catalog.Filter{Category: "Tools", Search: "ham"})
//	for _, it := range v.Items {
//	    fmt.Println(it.Name, it.Price)
//	}
func Derive(items []Item, f Filter) View {
	v := View{
		Categories: CategoryNames(items),
		Items:      make([]Item, 0, len(items)),
	}
	needle := strings.ToLower(f.Search)
	for _, it := range items {
		if f.Category != "" && it.Category.Name != f.Category {
			continue
		}
		if needle != "" && !matchesSearch(it, needle) {
			continue
		}
		v.Items = append(v.Items, it)
	}
	return v
}

// CategoryNames returns the distinct non-empty category names referenced by
// items, in first-seen order.
func CategoryNames(items []Item) []string {
	seen := make(map[string]struct{}, len(items))
	names := make([]string, 0)
	for _, it := range items {
		name := it.Category.Name
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func matchesSearch(it Item, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(it.Name), lowerNeedle) ||
		strings.Contains(strings.ToLower(it.Description), lowerNeedle)
}

// =============================================================================
// Display state
// =============================================================================

// LoadState tracks the fetch behind a listing.
type LoadState int

const (
	// LoadPending means the fetch has not completed yet.
	LoadPending LoadState = iota

	// LoadFailed means the fetch returned an error.
	LoadFailed

	// LoadDone means the fetch completed and the view is current.
	LoadDone
)

// Display is what a front end should show for a listing. Exactly one applies.
type Display int

const (
	DisplayLoading Display = iota
	DisplayFailed
	DisplayEmpty
	DisplayResults
)

// String returns the display name used in logs and the gateway response.
func (d Display) String() string {
	switch d {
	case DisplayLoading:
		return "loading"
	case DisplayFailed:
		return "failed"
	case DisplayEmpty:
		return "empty"
	case DisplayResults:
		return "results"
	default:
		return "unknown"
	}
}

// Listing couples a derived view with the state of the fetch behind it.
type Listing struct {
	State  LoadState
	Err    error
	Filter Filter
	View   View
}

// PendingListing is the listing shown before the first fetch completes.
func PendingListing(f Filter) Listing {
	return Listing{State: LoadPending, Filter: f}
}

// FailedListing is the listing shown when the fetch failed.
func FailedListing(f Filter, err error) Listing {
	return Listing{State: LoadFailed, Err: err, Filter: f}
}

// LoadedListing derives the view for a completed fetch.
func LoadedListing(items []Item, f Filter) Listing {
	return Listing{State: LoadDone, Filter: f, View: Derive(items, f)}
}

// Display classifies the listing. "No results" is only reported for a
// completed fetch, never while loading or after a failure.
func (l Listing) Display() Display {
	switch l.State {
	case LoadPending:
		return DisplayLoading
	case LoadFailed:
		return DisplayFailed
	}
	if len(l.View.Items) == 0 {
		return DisplayEmpty
	}
	return DisplayResults
}

// Stats summarises the collections for the dashboard.
type Stats struct {
	Items      int
	Categories int
}

// StatsOf counts the collections.
func StatsOf(items []Item, categories []Category) Stats {
	return Stats{Items: len(items), Categories: len(categories)}
}
