// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/routeguard"
)

// FormatPrice renders a price as currency, "$12.50".
func FormatPrice(p catalog.Price) string {
	return "$" + p.String()
}

// CategoryBadge renders an item's category, or "uncategorized".
func CategoryBadge(ref catalog.CategoryRef) string {
	name := ref.Name
	if ref.Absent() {
		name = "uncategorized"
	}
	if Mode() != ModeRich {
		return name
	}
	return Styles.Badge.Render(name)
}

// ItemLine renders one item on a single line.
func ItemLine(it catalog.Item) string {
	if Mode() == ModeMachine {
		return strings.Join([]string{it.ID, it.Name, it.Price.String(), it.Category.Name, it.Description}, "\t")
	}
	line := fmt.Sprintf("%s %s  %s  %s",
		IconBullet.Render(),
		style(Styles.Bold, it.Name),
		style(Styles.Price, FormatPrice(it.Price)),
		CategoryBadge(it.Category),
	)
	if it.Description != "" {
		line += "\n    " + style(Styles.Muted, it.Description)
	}
	if Mode() == ModeRich && it.ID != "" {
		line += "  " + Styles.Muted.Render("#"+it.ID)
	}
	return line
}

// Listing prints a storefront listing in whichever of its display states
// applies.
func Listing(w io.Writer, l catalog.Listing) {
	switch l.Display() {
	case catalog.DisplayLoading:
		Muted(w, "Loading items...")
	case catalog.DisplayFailed:
		msg := "could not load items"
		if l.Err != nil {
			msg += ": " + apiclient.UserMessage(l.Err)
		}
		Error(w, msg)
	case catalog.DisplayEmpty:
		if Mode() != ModeMachine {
			Warning(w, "No items match the current filter.")
		}
	case catalog.DisplayResults:
		if Mode() != ModeMachine && len(l.View.Categories) > 0 {
			fmt.Fprintln(w, CategoryBar(l.View.Categories, l.Filter.Category))
		}
		for _, it := range l.View.Items {
			fmt.Fprintln(w, ItemLine(it))
		}
	}
}

// CategoryBar renders the filter bar with "All" and each category, the
// selected one highlighted.
func CategoryBar(names []string, selected string) string {
	entries := make([]string, 0, len(names)+1)
	render := func(label string, active bool) string {
		if Mode() != ModeRich {
			if active {
				return "[" + label + "]"
			}
			return label
		}
		if active {
			return Styles.Highlight.Render("[" + label + "]")
		}
		return Styles.Subtitle.Render(label)
	}
	entries = append(entries, render("All", selected == ""))
	for _, n := range names {
		entries = append(entries, render(n, n == selected))
	}
	return strings.Join(entries, "  ")
}

// CategoryLine renders one category record.
func CategoryLine(c catalog.Category) string {
	if Mode() == ModeMachine {
		return c.ID + "\t" + c.Name
	}
	return fmt.Sprintf("%s %s  %s", IconBullet.Render(), style(Styles.Bold, c.Name), style(Styles.Muted, "#"+c.ID))
}

// NavBar renders navigation links.
func NavBar(links []routeguard.Link) string {
	parts := make([]string, len(links))
	for i, l := range links {
		parts[i] = l.Label
		if Mode() == ModeRich {
			parts[i] = Styles.Subtitle.Render(l.Label)
		}
	}
	sep := " | "
	if Mode() == ModeRich {
		sep = Styles.Muted.Render(" │ ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, sep))
}

// StatsPanel renders the dashboard counters.
func StatsPanel(s catalog.Stats) string {
	text := fmt.Sprintf("Items: %d   Categories: %d", s.Items, s.Categories)
	if Mode() != ModeRich {
		return text
	}
	return Styles.Box.Render(Styles.Title.Render("Overview") + "\n" + text)
}
