// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dashboard is the interactive admin dashboard.
//
// It shows items and categories in two tabs and runs every mutation
// through a catalog reconciler, so the tables always reflect the
// reconciled collections, including category rename and delete cascades.
//
// # Thread Safety
//
// The model is driven by the bubbletea event loop. Remote calls run as
// tea.Cmds; their results come back as messages.
package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/ilneora/storefront/pkg/apiclient"
	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/routeguard"
	"github.com/ilneora/storefront/pkg/ux"
)

// Catalog is the reconciled view of the remote collections.
type Catalog interface {
	Load(ctx context.Context) error
	Items() []catalog.Item
	Categories() []catalog.Category
	Stats() catalog.Stats

	CreateItem(ctx context.Context, draft catalog.ItemDraft) (catalog.Item, error)
	UpdateItem(ctx context.Context, id string, draft catalog.ItemDraft) (catalog.Item, error)
	DeleteItem(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, name string) (catalog.Category, bool, error)
	RenameCategory(ctx context.Context, id, newName string) (catalog.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// =============================================================================
// Tabs and modes
// =============================================================================

// Tab selects the collection on screen.
type Tab int

const (
	TabItems Tab = iota
	TabCategories
)

func (t Tab) String() string {
	if t == TabCategories {
		return "Categories"
	}
	return "Items"
}

type mode int

const (
	modeBrowse mode = iota
	modeConfirmDelete
	modeForm
)

// =============================================================================
// Messages
// =============================================================================

// loadedMsg reports the end of a reload.
type loadedMsg struct{ err error }

// mutatedMsg reports the end of a create, update or delete.
type mutatedMsg struct {
	status string
	err    error
}

// =============================================================================
// Model
// =============================================================================

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx     context.Context
	catalog Catalog
	links   []routeguard.Link

	tab    Tab
	table  table.Model
	rowIDs []string

	spinner spinner.Model
	busy    bool

	mode    mode
	form    *huh.Form
	values  *formValues
	editing string

	status string
	err    error

	width  int
	height int
}

// New creates a dashboard over cat. links is the navigation shown in the
// header. ctx bounds every remote call the dashboard makes.
func New(ctx context.Context, cat Catalog, links []routeguard.Link) Model {
	t := table.New(
		table.WithColumns(itemColumns(80)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	t.SetStyles(styles)

	return Model{
		ctx:     ctx,
		catalog: cat,
		links:   links,
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		busy:    true,
		width:   80,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.reload())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := m.height - 10; h > 3 {
			m.table.SetHeight(h)
		}
		m.refreshTable()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.status = "Loaded"
		}
		m.refreshTable()
		return m, nil

	case mutatedMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		m.refreshTable()
		return m, nil
	}

	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		if key, ok := msg.(tea.KeyMsg); ok {
			return m.handleConfirm(key)
		}
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "shift+tab":
			m.tab = 1 - m.tab
			m.status = ""
			m.refreshTable()
			m.table.SetCursor(0)
			return m, nil
		case "r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Reloading"
			return m, tea.Batch(m.spinner.Tick, m.reload())
		case "d", "delete":
			if m.busy || m.selectedID() == "" {
				return m, nil
			}
			m.mode = modeConfirmDelete
			return m, nil
		case "n":
			if m.busy {
				return m, nil
			}
			return m.openForm("")
		case "e", "enter":
			if m.busy || m.selectedID() == "" {
				return m, nil
			}
			return m.openForm(m.selectedID())
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleConfirm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	switch key.String() {
	case "y", "Y":
		id := m.selectedID()
		m.busy = true
		m.err = nil
		if m.tab == TabCategories {
			return m, tea.Batch(m.spinner.Tick, m.run("Deleted category", func(ctx context.Context) error {
				return m.catalog.DeleteCategory(ctx, id)
			}))
		}
		return m, tea.Batch(m.spinner.Tick, m.run("Deleted item", func(ctx context.Context) error {
			return m.catalog.DeleteItem(ctx, id)
		}))
	}
	m.status = "Delete cancelled"
	return m, nil
}

// =============================================================================
// Commands
// =============================================================================

func (m Model) reload() tea.Cmd {
	ctx, cat := m.ctx, m.catalog
	return func() tea.Msg {
		return loadedMsg{err: cat.Load(ctx)}
	}
}

// run executes fn off the event loop and reports status on success.
func (m Model) run(status string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return mutatedMsg{status: status, err: fn(ctx)}
	}
}

// =============================================================================
// Table
// =============================================================================

func itemColumns(width int) []table.Column {
	desc := width - 20 - 10 - 16 - 8
	if desc < 12 {
		desc = 12
	}
	return []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Price", Width: 10},
		{Title: "Category", Width: 16},
		{Title: "Description", Width: desc},
	}
}

func categoryColumns() []table.Column {
	return []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Items", Width: 8},
		{Title: "ID", Width: 26},
	}
}

// refreshTable rebuilds the rows from the catalog for the current tab.
func (m *Model) refreshTable() {
	var cols []table.Column
	var rows []table.Row
	var ids []string

	items := m.catalog.Items()
	if m.tab == TabCategories {
		cols = categoryColumns()
		counts := make(map[string]int)
		for _, it := range items {
			counts[it.Category.Name]++
		}
		for _, c := range m.catalog.Categories() {
			rows = append(rows, table.Row{c.Name, fmt.Sprint(counts[c.Name]), c.ID})
			ids = append(ids, c.ID)
		}
	} else {
		cols = itemColumns(m.width)
		for _, it := range items {
			category := it.Category.Name
			if it.Category.Absent() {
				category = "-"
			}
			rows = append(rows, table.Row{it.Name, ux.FormatPrice(it.Price), category, it.Description})
			ids = append(ids, it.ID)
		}
	}

	// Rows must match the column count at every step. Emptying the rows
	// moves the table cursor to -1, so it is restored afterwards.
	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.rowIDs = ids
	if len(rows) > 0 {
		m.table.SetCursor(min(max(cursor, 0), len(rows)-1))
	}
}

func (m Model) selectedID() string {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rowIDs) {
		return ""
	}
	return m.rowIDs[c]
}

// =============================================================================
// View
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(ux.NavBar(m.links))
	b.WriteString("\n")
	b.WriteString(ux.StatsPanel(m.catalog.Stats()))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	if m.mode == modeForm && m.form != nil {
		b.WriteString(m.form.View())
		b.WriteString("\n")
		b.WriteString(ux.Styles.Muted.Render("esc cancel"))
		return b.String()
	}

	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(ux.Styles.Muted.Render("tab switch • n new • e edit • d delete • r reload • q quit"))
	return b.String()
}

func (m Model) renderTabs() string {
	var parts []string
	for _, t := range []Tab{TabItems, TabCategories} {
		label := " " + t.String() + " "
		if t == m.tab {
			parts = append(parts, ux.Styles.Highlight.Render("["+label+"]"))
		} else {
			parts = append(parts, ux.Styles.Muted.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) renderStatus() string {
	switch {
	case m.mode == modeConfirmDelete:
		what := "item"
		if m.tab == TabCategories {
			what = "category"
		}
		return ux.Styles.Warning.Render(fmt.Sprintf("Delete this %s? (y/n)", what))
	case m.busy:
		return m.spinner.View() + " Working..."
	case m.err != nil:
		return ux.Styles.Error.Render(errorText(m.err))
	default:
		return ux.Styles.Muted.Render(m.status)
	}
}

// errorText prefers the service's user-facing message.
func errorText(err error) string {
	return apiclient.UserMessage(err)
}
