// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/ilneora/storefront/pkg/catalog"
)

// formValues is bound to the open form. It lives behind a pointer so the
// fields survive the model being copied by the event loop.
type formValues struct {
	name        string
	description string
	price       string
	category    string
}

// draft converts item form input.
func (v *formValues) draft() (catalog.ItemDraft, error) {
	d := catalog.ItemDraft{
		Name:        strings.TrimSpace(v.name),
		Description: v.description,
		Category:    v.category,
	}
	if strings.TrimSpace(v.price) != "" {
		p, err := catalog.ParsePrice(v.price)
		if err != nil {
			return d, err
		}
		d.Price = p
	}
	return d, nil
}

// openForm shows the create form (id empty) or the edit form for id on the
// current tab.
func (m Model) openForm(id string) (tea.Model, tea.Cmd) {
	v := &formValues{}
	m.editing = id

	if m.tab == TabCategories {
		for _, c := range m.catalog.Categories() {
			if c.ID == id {
				v.name = c.Name
			}
		}
		title := "New category"
		if id != "" {
			title = "Rename category"
		}
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title(title).Value(&v.name).Validate(required("name")),
		))
	} else {
		for _, it := range m.catalog.Items() {
			if it.ID == id {
				d := catalog.DraftFrom(it)
				v.name, v.description, v.category = d.Name, d.Description, d.Category
				if d.Price.Valid() {
					v.price = d.Price.String()
				}
			}
		}
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.name).Validate(required("name")),
			huh.NewText().Title("Description").Value(&v.description).Lines(3),
			huh.NewInput().Title("Price").Placeholder("0.00").Value(&v.price).Validate(validPrice),
			huh.NewSelect[string]().Title("Category").Options(m.categoryOptions(v.category)...).Value(&v.category),
		))
	}

	m.values = v
	m.mode = modeForm
	m.err = nil
	return m, m.form.Init()
}

// categoryOptions lists the known categories plus "none". A current value
// that is not a known category is kept selectable.
func (m Model) categoryOptions(current string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("(none)", "")}
	seen := map[string]bool{"": true}
	for _, c := range m.catalog.Categories() {
		if !seen[c.Name] {
			seen[c.Name] = true
			opts = append(opts, huh.NewOption(c.Name, c.Name))
		}
	}
	if !seen[current] {
		opts = append(opts, huh.NewOption(current, current))
	}
	return opts
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && (key.String() == "esc" || key.String() == "ctrl+c") {
		m.closeForm()
		m.status = "Cancelled"
		return m, nil
	}

	next, cmd := m.form.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		submit, err := m.submission()
		m.closeForm()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.busy = true
		return m, tea.Batch(m.spinner.Tick, submit)
	case huh.StateAborted:
		m.closeForm()
		m.status = "Cancelled"
		return m, nil
	}
	return m, cmd
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.form = nil
}

// submission turns the completed form into the matching reconciler call.
func (m Model) submission() (tea.Cmd, error) {
	v, id := m.values, m.editing

	if m.tab == TabCategories {
		name := strings.TrimSpace(v.name)
		if id != "" {
			return m.run("Renamed category to "+name, func(ctx context.Context) error {
				_, err := m.catalog.RenameCategory(ctx, id, name)
				return err
			}), nil
		}
		ctx, cat := m.ctx, m.catalog
		return func() tea.Msg {
			_, created, err := cat.CreateCategory(ctx, name)
			if err == nil && !created {
				return mutatedMsg{status: fmt.Sprintf("Category %q already exists", name)}
			}
			return mutatedMsg{status: "Created category " + name, err: err}
		}, nil
	}

	draft, err := v.draft()
	if err != nil {
		return nil, err
	}
	if id != "" {
		return m.run("Updated "+draft.Name, func(ctx context.Context) error {
			_, err := m.catalog.UpdateItem(ctx, id, draft)
			return err
		}), nil
	}
	return m.run("Created "+draft.Name, func(ctx context.Context) error {
		_, err := m.catalog.CreateItem(ctx, draft)
		return err
	}), nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validPrice(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	p, err := catalog.ParsePrice(s)
	if err != nil {
		return errors.New("not a number")
	}
	if p.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}
