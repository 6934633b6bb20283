// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog holds the client-side model of the remote catalog: items,
// categories, the derived storefront view, and the reconciler that keeps the
// local collections consistent with the remote store after each mutation.
//
// # Data Flow
//
//	Remote Catalog Service
//	   │  (Load)
//	   ▼
//	Reconciler ── Items()/Categories() (copies) ──► Derive ──► View
//	   ▲
//	   │  CreateItem / UpdateItem / DeleteItem
//	   │  CreateCategory / RenameCategory / DeleteCategory
//	 front end (CLI, dashboard, gateway)
//
// Every mutation calls the remote service first. Local collections are only
// touched after the remote call succeeds, so a failed call leaves them exactly
// as they were.
//
// # Category References
//
// The remote service is inconsistent about the shape of an item's category:
// it may be a plain string, an object with an id and a name, or null. All
// three are decoded into CategoryRef, and everything downstream (filtering,
// cascades, rendering) works on the category name.
package catalog

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// Price
// =============================================================================

// Price is a non-negative decimal amount.
//
// The remote service sends prices as JSON numbers, numeric strings, or not at
// all. Price decodes all of them leniently: anything that does not parse as a
// decimal leaves the Price unset, and an unset Price renders as "0.00".
type Price struct {
	amount decimal.Decimal
	valid  bool
}

// NewPrice wraps a decimal amount.
func NewPrice(d decimal.Decimal) Price {
	return Price{amount: d, valid: true}
}

// ParsePrice parses a user- or server-supplied price string.
//
// # Inputs
//
//   - s: Decimal text such as "12.5". Surrounding whitespace is ignored.
//
// # Outputs
//
//   - Price: The parsed price.
//   - error: Non-nil if s is not a decimal number.
func ParsePrice(s string) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Price{}, err
	}
	return NewPrice(d), nil
}

// MustPrice is ParsePrice for literals known to be valid. It panics otherwise.
func MustPrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Valid reports whether the price held a parseable amount.
func (p Price) Valid() bool {
	return p.valid
}

// Decimal returns the amount, or zero for an unset price.
func (p Price) Decimal() decimal.Decimal {
	if !p.valid {
		return decimal.Zero
	}
	return p.amount
}

// IsNegative reports whether a set price is below zero.
func (p Price) IsNegative() bool {
	return p.valid && p.amount.IsNegative()
}

// String renders the price with exactly two decimals.
func (p Price) String() string {
	return p.Decimal().StringFixed(2)
}

// Equal compares two prices by value. An unset price only equals another
// unset price, not a set zero: the two encode differently.
func (p Price) Equal(other Price) bool {
	return p.valid == other.valid && p.Decimal().Equal(other.Decimal())
}

// MarshalJSON encodes a set price as a decimal string and an unset one as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.amount.String())
}

// UnmarshalJSON accepts numbers, numeric strings and null. Unparseable input
// yields an unset price rather than an error.
func (p *Price) UnmarshalJSON(data []byte) error {
	*p = Price{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return nil
	}
	*p = NewPrice(d)
	return nil
}

// =============================================================================
// Category reference
// =============================================================================

// CategoryRef is an item's pointer to a category.
//
// The zero value is the absent reference. A reference decoded from a plain
// string carries only a Name; one decoded from an object may carry both.
type CategoryRef struct {
	ID   string
	Name string
}

// CategoryNamed returns a reference holding only a name. An empty name gives
// the absent reference.
func CategoryNamed(name string) CategoryRef {
	return CategoryRef{Name: name}
}

// Absent reports whether the reference names no category.
func (r CategoryRef) Absent() bool {
	return r.Name == ""
}

// String returns the category name.
func (r CategoryRef) String() string {
	return r.Name
}

// Normalized drops the ID so that only the name is kept for display.
func (r CategoryRef) Normalized() CategoryRef {
	return CategoryRef{Name: r.Name}
}

// MarshalJSON encodes the reference by name, or null when absent.
func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if r.Absent() {
		return []byte("null"), nil
	}
	return json.Marshal(r.Name)
}

// UnmarshalJSON accepts a string, an object with "name" and "_id"/"id", or null.
func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	*r = CategoryRef{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.Name)
	case '{':
		var obj struct {
			MongoID string `json:"_id"`
			ID      string `json:"id"`
			Name    string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.ID = firstNonEmpty(obj.MongoID, obj.ID)
		r.Name = obj.Name
		return nil
	default:
		// Numbers, booleans and arrays carry no usable name.
		return nil
	}
}

// =============================================================================
// Item and Category
// =============================================================================

// Item is a catalog product record.
type Item struct {
	ID          string
	Name        string
	Description string
	Price       Price
	Category    CategoryRef
}

// itemWire is the JSON shape exchanged with the remote service.
type itemWire struct {
	MongoID     string      `json:"_id,omitempty"`
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       Price       `json:"price"`
	Category    CategoryRef `json:"category"`
}

// MarshalJSON encodes the item with its identifier under "_id".
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemWire{
		MongoID:     i.ID,
		Name:        i.Name,
		Description: i.Description,
		Price:       i.Price,
		Category:    i.Category,
	})
}

// UnmarshalJSON decodes an item, taking its identifier from "_id" or "id".
func (i *Item) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*i = Item{
		ID:          firstNonEmpty(w.MongoID, w.ID),
		Name:        w.Name,
		Description: w.Description,
		Price:       w.Price,
		Category:    w.Category,
	}
	return nil
}

// Category is a named grouping of items.
type Category struct {
	ID   string
	Name string
}

type categoryWire struct {
	MongoID string `json:"_id,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
}

// MarshalJSON encodes the category with its identifier under "_id".
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(categoryWire{MongoID: c.ID, Name: c.Name})
}

// UnmarshalJSON decodes a category, taking its identifier from "_id" or "id".
func (c *Category) UnmarshalJSON(data []byte) error {
	var w categoryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Category{ID: firstNonEmpty(w.MongoID, w.ID), Name: w.Name}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
