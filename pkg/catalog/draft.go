// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ErrInvalidDraft is returned when a draft fails local validation. No remote
// call is made for an invalid draft.
var ErrInvalidDraft = errors.New("invalid draft")

// draftValidate is shared by all drafts. Initialized in init() so that Price
// fields validate as numbers and "notblank" is available.
var draftValidate *validator.Validate

func init() {
	draftValidate = validator.New()
	draftValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	draftValidate.RegisterCustomTypeFunc(priceValue, Price{})
	_ = draftValidate.RegisterValidation("notblank", validators.NotBlank)
}

// priceValue exposes a Price to the validator as a float so numeric tags apply.
func priceValue(v reflect.Value) any {
	p, ok := v.Interface().(Price)
	if !ok {
		return nil
	}
	return p.Decimal().InexactFloat64()
}

// ItemDraft is the request body for creating or updating an item.
//
// # Fields
//
//   - Name: Required, non-blank.
//   - Description: Free text.
//   - Price: Must not be negative. An unset price is sent as null.
//   - Category: Category name. Empty means no category.
type ItemDraft struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description"`
	Price       Price  `json:"price" validate:"gte=0"`
	Category    string `json:"category"`
}

// DraftFrom builds the draft that would re-submit an existing item unchanged.
func DraftFrom(item Item) ItemDraft {
	return ItemDraft{
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		Category:    item.Category.Name,
	}
}

// MarshalJSON sends an empty category as null.
func (d ItemDraft) MarshalJSON() ([]byte, error) {
	type wire struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       Price   `json:"price"`
		Category    *string `json:"category"`
	}
	w := wire{Name: d.Name, Description: d.Description, Price: d.Price}
	if d.Category != "" {
		w.Category = &d.Category
	}
	return json.Marshal(w)
}

// Validate checks the draft against its field rules.
//
// # Outputs
//
//   - error: nil when valid; otherwise wraps ErrInvalidDraft and names the
//     offending fields.
func (d ItemDraft) Validate() error {
	return validateDraft(d)
}

// CategoryDraft is the request body for creating or renaming a category.
type CategoryDraft struct {
	Name string `json:"name" validate:"required,notblank"`
}

// Validate checks the draft against its field rules.
func (d CategoryDraft) Validate() error {
	return validateDraft(d)
}

func validateDraft(d any) error {
	err := draftValidate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(fields, ", "))
}
