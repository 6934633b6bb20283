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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- Fake remote ----

type fakeRemote struct {
	mu    sync.Mutex
	calls []string
	err   error

	items      []Item
	categories []Category

	createdItem     Item
	updatedItem     Item
	createdCategory Category
	updatedCategory Category
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) ListItems(ctx context.Context) ([]Item, error) {
	if err := f.record("ListItems"); err != nil {
		return nil, err
	}
	return f.items, nil
}

func (f *fakeRemote) ListCategories(ctx context.Context) ([]Category, error) {
	if err := f.record("ListCategories"); err != nil {
		return nil, err
	}
	return f.categories, nil
}

func (f *fakeRemote) CreateItem(ctx context.Context, draft ItemDraft) (Item, error) {
	if err := f.record("CreateItem"); err != nil {
		return Item{}, err
	}
	return f.createdItem, nil
}

func (f *fakeRemote) UpdateItem(ctx context.Context, id string, draft ItemDraft) (Item, error) {
	if err := f.record("UpdateItem"); err != nil {
		return Item{}, err
	}
	return f.updatedItem, nil
}

func (f *fakeRemote) DeleteItem(ctx context.Context, id string) error {
	return f.record("DeleteItem")
}

func (f *fakeRemote) CreateCategory(ctx context.Context, draft CategoryDraft) (Category, error) {
	if err := f.record("CreateCategory"); err != nil {
		return Category{}, err
	}
	return f.createdCategory, nil
}

func (f *fakeRemote) UpdateCategory(ctx context.Context, id string, draft CategoryDraft) (Category, error) {
	if err := f.record("UpdateCategory"); err != nil {
		return Category{}, err
	}
	return f.updatedCategory, nil
}

func (f *fakeRemote) DeleteCategory(ctx context.Context, id string) error {
	return f.record("DeleteCategory")
}

var errRemote = errors.New("remote unavailable")

// ---- Load ----

func TestReconciler_Load_NormalizesCategories(t *testing.T) {
	remote := &fakeRemote{
		items: []Item{
			{ID: "i1", Name: "Lamp", Category: CategoryRef{ID: "c1", Name: "Home"}},
			{ID: "i2", Name: "Pen", Category: CategoryNamed("Office")},
			{ID: "i3", Name: "Rock"},
		},
		categories: []Category{{ID: "c1", Name: "Home"}, {ID: "c2", Name: "Office"}},
	}
	r := NewReconciler(remote)

	require.NoError(t, r.Load(context.Background()))

	items := r.Items()
	require.Len(t, items, 3)
	assert.Equal(t, CategoryNamed("Home"), items[0].Category)
	assert.Equal(t, CategoryNamed("Office"), items[1].Category)
	assert.True(t, items[2].Category.Absent())
	assert.Equal(t, Stats{Items: 3, Categories: 2}, r.Stats())
}

func TestReconciler_Load_FailureKeepsState(t *testing.T) {
	seed := []Item{{ID: "i1", Name: "Lamp"}}
	remote := &fakeRemote{err: errRemote}
	r := NewReconciler(remote, WithCollections(seed, nil))

	err := r.Load(context.Background())
	require.ErrorIs(t, err, errRemote)
	assert.Equal(t, seed, r.Items())
	assert.Empty(t, r.Categories())
}

// ---- Item mutations ----

func TestReconciler_CreateItem_OverlaysSubmittedCategory(t *testing.T) {
	remote := &fakeRemote{
		createdItem: Item{
			ID:       "x",
			Name:     "Hammer",
			Price:    MustPrice("12.5"),
			Category: CategoryRef{ID: "c9", Name: "Hardware"},
		},
	}
	r := NewReconciler(remote)

	got, err := r.CreateItem(context.Background(), ItemDraft{
		Name:     "Hammer",
		Price:    MustPrice("12.5"),
		Category: "Tools",
	})
	require.NoError(t, err)

	assert.Equal(t, "x", got.ID)
	assert.Equal(t, CategoryNamed("Tools"), got.Category)
	items := r.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Tools", items[0].Category.Name)
	assert.Equal(t, "12.50", items[0].Price.String())
}

func TestReconciler_CreateItem_InvalidDraftMakesNoCall(t *testing.T) {
	tests := []struct {
		name  string
		draft ItemDraft
	}{
		{"empty name", ItemDraft{Price: MustPrice("1")}},
		{"blank name", ItemDraft{Name: "   ", Price: MustPrice("1")}},
		{"negative price", ItemDraft{Name: "Saw", Price: MustPrice("-0.01")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			r := NewReconciler(remote)

			_, err := r.CreateItem(context.Background(), tt.draft)
			require.ErrorIs(t, err, ErrInvalidDraft)
			assert.Equal(t, 0, remote.callCount())
			assert.Empty(t, r.Items())
		})
	}
}

func TestReconciler_UpdateItem_ReplacesByID(t *testing.T) {
	seed := []Item{
		{ID: "a", Name: "Saw", Category: CategoryNamed("Tools")},
		{ID: "b", Name: "Lamp", Category: CategoryNamed("Home")},
	}
	remote := &fakeRemote{
		updatedItem: Item{ID: "a", Name: "Big Saw", Category: CategoryRef{ID: "c2", Name: "Garden"}},
	}
	r := NewReconciler(remote, WithCollections(seed, nil))

	_, err := r.UpdateItem(context.Background(), "a", ItemDraft{Name: "Big Saw", Category: "Garden"})
	require.NoError(t, err)

	items := r.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Big Saw", items[0].Name)
	assert.Equal(t, CategoryNamed("Garden"), items[0].Category)
	assert.Equal(t, seed[1], items[1])
}

func TestReconciler_UpdateItem_FailureLeavesStateIdentical(t *testing.T) {
	seed := []Item{{ID: "a", Name: "Saw", Price: MustPrice("9"), Category: CategoryNamed("Tools")}}
	cats := []Category{{ID: "c1", Name: "Tools"}}
	remote := &fakeRemote{err: errRemote}
	r := NewReconciler(remote, WithCollections(seed, cats))

	_, err := r.UpdateItem(context.Background(), "a", ItemDraft{Name: "Other", Category: "Garden"})
	require.ErrorIs(t, err, errRemote)
	assert.Equal(t, seed, r.Items())
	assert.Equal(t, cats, r.Categories())
}

func TestReconciler_DeleteItem(t *testing.T) {
	seed := []Item{{ID: "a", Name: "Saw"}, {ID: "b", Name: "Lamp"}}

	t.Run("success removes item", func(t *testing.T) {
		r := NewReconciler(&fakeRemote{}, WithCollections(seed, nil))
		require.NoError(t, r.DeleteItem(context.Background(), "a"))
		assert.Equal(t, []Item{{ID: "b", Name: "Lamp"}}, r.Items())
	})

	t.Run("failure keeps item", func(t *testing.T) {
		r := NewReconciler(&fakeRemote{err: errRemote}, WithCollections(seed, nil))
		require.Error(t, r.DeleteItem(context.Background(), "a"))
		assert.Equal(t, seed, r.Items())
	})
}

// ---- Category mutations ----

func TestReconciler_CreateCategory_DuplicateIsNoOp(t *testing.T) {
	cats := []Category{{ID: "c1", Name: "Tools"}}
	remote := &fakeRemote{}
	r := NewReconciler(remote, WithCollections(nil, cats))

	got, created, err := r.CreateCategory(context.Background(), "Tools")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, Category{}, got)
	assert.Equal(t, 0, remote.callCount())
	assert.Equal(t, cats, r.Categories())
}

func TestReconciler_CreateCategory_Appends(t *testing.T) {
	remote := &fakeRemote{createdCategory: Category{ID: "c2", Name: "Garden"}}
	r := NewReconciler(remote, WithCollections(nil, []Category{{ID: "c1", Name: "Tools"}}))

	got, created, err := r.CreateCategory(context.Background(), "Garden")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "c2", got.ID)
	assert.Len(t, r.Categories(), 2)
}

func TestReconciler_RenameCategory_CascadesToItems(t *testing.T) {
	seed := []Item{
		{ID: "i1", Name: "Novel", Category: CategoryNamed("Books")},
		{ID: "i2", Name: "Atlas", Category: CategoryNamed("Books")},
		{ID: "i3", Name: "Hammer", Category: CategoryNamed("Tools")},
	}
	cats := []Category{{ID: "c1", Name: "Books"}, {ID: "c2", Name: "Tools"}}
	remote := &fakeRemote{updatedCategory: Category{ID: "c1", Name: "Media"}}
	r := NewReconciler(remote, WithCollections(seed, cats))

	got, err := r.RenameCategory(context.Background(), "c1", "Media")
	require.NoError(t, err)
	assert.Equal(t, "Media", got.Name)

	items := r.Items()
	assert.Equal(t, "Media", items[0].Category.Name)
	assert.Equal(t, "Media", items[1].Category.Name)
	assert.Equal(t, "Tools", items[2].Category.Name)
	assert.Equal(t, []Category{{ID: "c1", Name: "Media"}, {ID: "c2", Name: "Tools"}}, r.Categories())
	assert.Equal(t, []string{"Media", "Tools"}, Derive(items, Filter{}).Categories)
}

func TestReconciler_RenameCategory_EmptyEchoUsesRequestedName(t *testing.T) {
	seed := []Item{{ID: "i1", Category: CategoryNamed("Books")}}
	cats := []Category{{ID: "c1", Name: "Books"}}
	r := NewReconciler(&fakeRemote{}, WithCollections(seed, cats))

	_, err := r.RenameCategory(context.Background(), "c1", "Media")
	require.NoError(t, err)
	assert.Equal(t, "Media", r.Items()[0].Category.Name)
	assert.Equal(t, Category{ID: "c1", Name: "Media"}, r.Categories()[0])
}

func TestReconciler_RenameCategory_Failures(t *testing.T) {
	seed := []Item{{ID: "i1", Category: CategoryNamed("Books")}}
	cats := []Category{{ID: "c1", Name: "Books"}}

	t.Run("remote error", func(t *testing.T) {
		r := NewReconciler(&fakeRemote{err: errRemote}, WithCollections(seed, cats))
		_, err := r.RenameCategory(context.Background(), "c1", "Media")
		require.ErrorIs(t, err, errRemote)
		assert.Equal(t, seed, r.Items())
		assert.Equal(t, cats, r.Categories())
	})

	t.Run("unknown id", func(t *testing.T) {
		remote := &fakeRemote{}
		r := NewReconciler(remote, WithCollections(seed, cats))
		_, err := r.RenameCategory(context.Background(), "nope", "Media")
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 0, remote.callCount())
	})

	t.Run("blank name", func(t *testing.T) {
		remote := &fakeRemote{}
		r := NewReconciler(remote, WithCollections(seed, cats))
		_, err := r.RenameCategory(context.Background(), "c1", "")
		require.ErrorIs(t, err, ErrInvalidDraft)
		assert.Equal(t, 0, remote.callCount())
	})
}

func TestReconciler_DeleteCategory_ClearsItems(t *testing.T) {
	seed := []Item{
		{ID: "i1", Name: "Hammer", Category: CategoryNamed("Tools")},
		{ID: "i2", Name: "Lamp", Category: CategoryNamed("Home")},
	}
	cats := []Category{{ID: "t", Name: "Tools"}, {ID: "h", Name: "Home"}}
	r := NewReconciler(&fakeRemote{}, WithCollections(seed, cats))

	require.NoError(t, r.DeleteCategory(context.Background(), "t"))

	items := r.Items()
	assert.True(t, items[0].Category.Absent())
	assert.Equal(t, "Home", items[1].Category.Name)
	assert.Equal(t, []Category{{ID: "h", Name: "Home"}}, r.Categories())
	assert.Equal(t, []string{"Home"}, Derive(items, Filter{}).Categories)
}

func TestReconciler_DeleteCategory_FailureKeepsState(t *testing.T) {
	seed := []Item{{ID: "i1", Category: CategoryNamed("Tools")}}
	cats := []Category{{ID: "t", Name: "Tools"}}
	r := NewReconciler(&fakeRemote{err: errRemote}, WithCollections(seed, cats))

	require.ErrorIs(t, r.DeleteCategory(context.Background(), "t"), errRemote)
	assert.Equal(t, seed, r.Items())
	assert.Equal(t, cats, r.Categories())
}

func TestReconciler_AccessorsReturnCopies(t *testing.T) {
	r := NewReconciler(&fakeRemote{}, WithCollections([]Item{{ID: "a", Name: "Saw"}}, nil))
	items := r.Items()
	items[0].Name = "changed"
	assert.Equal(t, "Saw", r.Items()[0].Name)
}

// blockingRemote parks DeleteItem until release is closed.
type blockingRemote struct {
	fakeRemote
	entered chan struct{}
	release chan struct{}
}

func (b *blockingRemote) DeleteItem(ctx context.Context, id string) error {
	close(b.entered)
	<-b.release
	return b.fakeRemote.DeleteItem(ctx, id)
}

func TestReconciler_AccessorsDoNotWaitOnRemote(t *testing.T) {
	remote := &blockingRemote{entered: make(chan struct{}), release: make(chan struct{})}
	r := NewReconciler(remote, WithCollections([]Item{{ID: "a", Name: "Saw"}, {ID: "b", Name: "Drill"}}, nil))

	done := make(chan error, 1)
	go func() { done <- r.DeleteItem(context.Background(), "a") }()
	<-remote.entered

	// The delete is in flight; reads see the pre-mutation state.
	assert.Len(t, r.Items(), 2)
	assert.Equal(t, 2, r.Stats().Items)

	close(remote.release)
	require.NoError(t, <-done)
	assert.Len(t, r.Items(), 1)
}
