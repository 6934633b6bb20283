// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilneora/storefront/pkg/catalog"
	"github.com/ilneora/storefront/pkg/ux"
	"github.com/ilneora/storefront/pkg/validation"
)

func runCategoriesList(cmd *cobra.Command, _ []string) error {
	rec, err := current.adminReconciler(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	categories := rec.Categories()
	if len(categories) == 0 {
		ux.Muted(out, "No categories")
		return nil
	}
	for _, c := range categories {
		fmt.Fprintln(out, ux.CategoryLine(c))
	}
	return nil
}

func runCategoriesCreate(cmd *cobra.Command, args []string) error {
	rec, err := current.adminReconciler(cmd.Context())
	if err != nil {
		return err
	}
	created, sent, err := rec.CreateCategory(cmd.Context(), args[0])
	if err != nil {
		return mutationError(err)
	}
	out := cmd.OutOrStdout()
	if !sent {
		ux.Warning(out, fmt.Sprintf("Category %q already exists", args[0]))
		return nil
	}
	ux.Success(out, "Created category")
	fmt.Fprintln(out, ux.CategoryLine(created))
	return nil
}

func runCategoriesRename(cmd *cobra.Command, args []string) error {
	id, err := validation.SanitizeID(args[0])
	if err != nil {
		return err
	}
	rec, err := current.adminReconciler(cmd.Context())
	if err != nil {
		return err
	}
	renamed, err := rec.RenameCategory(cmd.Context(), id, args[1])
	if err != nil {
		return mutationError(err)
	}
	moved := countInCategory(rec.Items(), renamed.Name)
	out := cmd.OutOrStdout()
	ux.Success(out, fmt.Sprintf("Renamed category to %s", renamed.Name))
	ux.Muted(out, fmt.Sprintf("%d item(s) now in %s", moved, renamed.Name))
	return nil
}

func runCategoriesDelete(cmd *cobra.Command, args []string) error {
	id, err := validation.SanitizeID(args[0])
	if err != nil {
		return err
	}
	rec, err := current.adminReconciler(cmd.Context())
	if err != nil {
		return err
	}
	if err := rec.DeleteCategory(cmd.Context(), id); err != nil {
		return mutationError(err)
	}
	ux.Success(cmd.OutOrStdout(), "Deleted category "+id)
	return nil
}

func countInCategory(items []catalog.Item, name string) int {
	n := 0
	for _, it := range items {
		if it.Category.Name == name {
			n++
		}
	}
	return n
}
