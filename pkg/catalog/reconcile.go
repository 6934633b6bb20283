// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when a mutation names an ID that is not in the
// local collection.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Remote port
// -----------------------------------------------------------------------------

// Remote is the remote catalog service as seen by the reconciler.
//
// Implementations must return a non-nil error for every failed call; the
// reconciler relies on that to leave local state untouched.
type Remote interface {
	ListItems(ctx context.Context) ([]Item, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateItem(ctx context.Context, draft ItemDraft) (Item, error)
	UpdateItem(ctx context.Context, id string, draft ItemDraft) (Item, error)
	DeleteItem(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, draft CategoryDraft) (Category, error)
	UpdateCategory(ctx context.Context, id string, draft CategoryDraft) (Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// -----------------------------------------------------------------------------
// Reconciler
// -----------------------------------------------------------------------------

// Reconciler owns the local item and category collections and applies the
// effect of each mutation after the remote service accepts it.
//
// # Rules
//
//   - Remote first. Local collections change only after the remote call
//     succeeds; on failure they are left exactly as they were.
//   - Category overlay. After creating or updating an item, the locally
//     stored category is the one that was submitted, not whatever shape the
//     server echoed back.
//   - Cascades. Renaming a category rewrites the category of every item that
//     held the old name; deleting one clears it. Both run after the write
//     succeeds and before the method returns.
//
// # Thread Safety
//
// Load and the mutations are serialised, so at most one is in flight.
// Accessors never wait on a remote call and return copies.
type Reconciler struct {
	remote Remote
	logger *slog.Logger

	// op serialises Load and mutations for their whole duration. mu guards
	// the collections and is only held while they are read or swapped.
	op sync.Mutex

	mu         sync.RWMutex
	items      []Item
	categories []Category
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger sets the logger used for mutation outcomes.
func WithLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCollections seeds the local collections, e.g. from an earlier fetch.
func WithCollections(items []Item, categories []Category) ReconcilerOption {
	return func(r *Reconciler) {
		r.items = slices.Clone(items)
		r.categories = slices.Clone(categories)
	}
}

// NewReconciler creates a reconciler with empty collections.
//
// # Inputs
//
//   - remote: The remote catalog service. Must not be nil.
//   - opts: Optional logger and seed collections.
//
// # Outputs
//
//   - *Reconciler: Ready for Load or direct mutations.
func NewReconciler(remote Remote, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		remote: remote,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.items == nil {
		r.items = []Item{}
	}
	if r.categories == nil {
		r.categories = []Category{}
	}
	return r
}

// Items returns a copy of the local item collection.
func (r *Reconciler) Items() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items)
}

// Categories returns a copy of the local category collection.
func (r *Reconciler) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.categories)
}

// Stats counts the local collections.
func (r *Reconciler) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return StatsOf(r.items, r.categories)
}

// Load fetches both collections from the remote service.
//
// # Description
//
// Items and categories are fetched concurrently. Item category references
// are normalised to names. Both collections are replaced only if both
// fetches succeed.
//
// # Outputs
//
//   - error: The first fetch error; local state is unchanged in that case.
func (r *Reconciler) Load(ctx context.Context) error {
	r.op.Lock()
	defer r.op.Unlock()

	var items []Item
	var categories []Category

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = r.remote.ListItems(gctx)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = r.remote.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("catalog load failed", "error", err)
		return err
	}

	categories = slices.Clone(categories)
	if categories == nil {
		categories = []Category{}
	}
	r.swap(NormalizeItems(items), categories)
	r.logger.Debug("catalog loaded", "items", len(items), "categories", len(categories))
	return nil
}

// swap replaces both collections. Callers hold op, so the collections they
// derived the new values from are still current.
func (r *Reconciler) swap(items []Item, categories []Category) {
	r.mu.Lock()
	r.items, r.categories = items, categories
	r.mu.Unlock()
}

// NormalizeItems returns a copy of items with every category reference
// reduced to its name.
func NormalizeItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Category = it.Category.Normalized()
		out[i] = it
	}
	return out
}

// -----------------------------------------------------------------------------
// Item mutations
// -----------------------------------------------------------------------------

// CreateItem creates an item remotely and appends it locally.
//
// # Description
//
// The appended item is the server's record with its category replaced by
// draft.Category. The server may return the category as an object where a
// name is expected, so its representation is not trusted for this field.
//
// # Outputs
//
//   - Item: The item as stored locally.
//   - error: ErrInvalidDraft, or the remote error. Local state is unchanged
//     on error.
func (r *Reconciler) CreateItem(ctx context.Context, draft ItemDraft) (Item, error) {
	if err := draft.Validate(); err != nil {
		return Item{}, err
	}

	r.op.Lock()
	defer r.op.Unlock()

	created, err := r.remote.CreateItem(ctx, draft)
	if err != nil {
		r.logger.Error("create item failed", "name", draft.Name, "error", err)
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	created.Category = CategoryNamed(draft.Category)
	r.swap(append(slices.Clone(r.items), created), r.categories)

	r.logger.Info("item created", "id", created.ID, "category", draft.Category)
	return created, nil
}

// UpdateItem updates an item remotely and replaces it locally by ID.
//
// The same category overlay as CreateItem applies: the locally stored
// category is draft.Category.
func (r *Reconciler) UpdateItem(ctx context.Context, id string, draft ItemDraft) (Item, error) {
	if err := draft.Validate(); err != nil {
		return Item{}, err
	}

	r.op.Lock()
	defer r.op.Unlock()

	updated, err := r.remote.UpdateItem(ctx, id, draft)
	if err != nil {
		r.logger.Error("update item failed", "id", id, "error", err)
		return Item{}, fmt.Errorf("update item %s: %w", id, err)
	}
	if updated.ID == "" {
		updated.ID = id
	}
	updated.Category = CategoryNamed(draft.Category)

	next := slices.Clone(r.items)
	for i := range next {
		if next[i].ID == id {
			next[i] = updated
		}
	}
	r.swap(next, r.categories)

	r.logger.Info("item updated", "id", id)
	return updated, nil
}

// DeleteItem deletes an item remotely and removes it locally. No cascade.
func (r *Reconciler) DeleteItem(ctx context.Context, id string) error {
	r.op.Lock()
	defer r.op.Unlock()

	if err := r.remote.DeleteItem(ctx, id); err != nil {
		r.logger.Error("delete item failed", "id", id, "error", err)
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	r.swap(slices.DeleteFunc(slices.Clone(r.items), func(it Item) bool {
		return it.ID == id
	}), r.categories)

	r.logger.Info("item deleted", "id", id)
	return nil
}

// -----------------------------------------------------------------------------
// Category mutations
// -----------------------------------------------------------------------------

// CreateCategory creates a category unless one with the same name is loaded.
//
// # Description
//
// A duplicate name is not an error: no request is sent, nothing changes,
// and created is false.
//
// # Outputs
//
//   - Category: The server's record (zero when skipped).
//   - bool: true if a request was sent and succeeded.
//   - error: ErrInvalidDraft, or the remote error.
func (r *Reconciler) CreateCategory(ctx context.Context, name string) (Category, bool, error) {
	draft := CategoryDraft{Name: name}
	if err := draft.Validate(); err != nil {
		return Category{}, false, err
	}

	r.op.Lock()
	defer r.op.Unlock()

	if slices.ContainsFunc(r.categories, func(c Category) bool { return c.Name == name }) {
		r.logger.Debug("category exists, skipping create", "name", name)
		return Category{}, false, nil
	}

	created, err := r.remote.CreateCategory(ctx, draft)
	if err != nil {
		r.logger.Error("create category failed", "name", name, "error", err)
		return Category{}, false, fmt.Errorf("create category: %w", err)
	}
	r.swap(r.items, append(slices.Clone(r.categories), created))

	r.logger.Info("category created", "id", created.ID, "name", created.Name)
	return created, true, nil
}

// RenameCategory renames a category and cascades the new name to items.
//
// # Description
//
// The old name is captured before the request, since the request only
// carries the new one. On success the category record is replaced with the
// server's record, then every item whose category equals the old name is
// given the new name. The new name is the one the server echoed, or
// newName when the echo carries none.
//
// # Outputs
//
//   - Category: The category as stored locally.
//   - error: ErrNotFound if id is not loaded, ErrInvalidDraft, or the remote
//     error. Local state is unchanged on error.
func (r *Reconciler) RenameCategory(ctx context.Context, id, newName string) (Category, error) {
	draft := CategoryDraft{Name: newName}
	if err := draft.Validate(); err != nil {
		return Category{}, err
	}

	r.op.Lock()
	defer r.op.Unlock()

	idx := slices.IndexFunc(r.categories, func(c Category) bool { return c.ID == id })
	if idx < 0 {
		return Category{}, fmt.Errorf("rename category %s: %w", id, ErrNotFound)
	}
	oldName := r.categories[idx].Name

	updated, err := r.remote.UpdateCategory(ctx, id, draft)
	if err != nil {
		r.logger.Error("rename category failed", "id", id, "error", err)
		return Category{}, fmt.Errorf("rename category %s: %w", id, err)
	}
	if updated.ID == "" {
		updated.ID = id
	}
	if updated.Name == "" {
		updated.Name = newName
	}

	categories := slices.Clone(r.categories)
	categories[idx] = updated
	r.swap(recategorize(r.items, oldName, CategoryNamed(updated.Name)), categories)

	r.logger.Info("category renamed", "id", id, "from", oldName, "to", updated.Name)
	return updated, nil
}

// DeleteCategory deletes a category and clears it from items.
//
// Every item whose category equals the deleted category's name ends up with
// no category.
func (r *Reconciler) DeleteCategory(ctx context.Context, id string) error {
	r.op.Lock()
	defer r.op.Unlock()

	idx := slices.IndexFunc(r.categories, func(c Category) bool { return c.ID == id })
	if idx < 0 {
		return fmt.Errorf("delete category %s: %w", id, ErrNotFound)
	}
	name := r.categories[idx].Name

	if err := r.remote.DeleteCategory(ctx, id); err != nil {
		r.logger.Error("delete category failed", "id", id, "error", err)
		return fmt.Errorf("delete category %s: %w", id, err)
	}

	r.swap(recategorize(r.items, name, CategoryRef{}), slices.Delete(slices.Clone(r.categories), idx, idx+1))

	r.logger.Info("category deleted", "id", id, "name", name)
	return nil
}

// recategorize returns a copy of items where every item whose category name
// equals from is given to.
func recategorize(items []Item, from string, to CategoryRef) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		if it.Category.Name == from {
			it.Category = to
		}
		out[i] = it
	}
	return out
}
