// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	outputMode string
	logLevel   string

	loginUsername string

	filterCategory string
	filterSearch   string

	itemName        string
	itemDescription string
	itemPrice       string
	itemCategory    string

	serveAddr string

	// current is set by the root PersistentPreRunE.
	current *app

	rootCmd = &cobra.Command{
		Use:   "storefront",
		Short: "Browse and administer the catalog",
		Long: `storefront is a client for the catalog service: browse items by
category, log in, and (as an admin) manage items and categories.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  setup,
		PersistentPostRunE: teardown,
	}

	// --- Auth ---
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Prompts for username and password on a terminal. Without a
terminal, the password is read from the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session and available navigation",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}

	// --- Items ---
	itemsCmd = &cobra.Command{
		Use:     "items",
		Short:   "List and manage catalog items",
		Aliases: []string{"item"},
	}
	itemsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List items, optionally filtered by category and search text",
		Args:  cobra.NoArgs,
		RunE:  runItemsList,
	}
	itemsCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an item (admin)",
		Args:  cobra.NoArgs,
		RunE:  runItemsCreate,
	}
	itemsUpdateCmd = &cobra.Command{
		Use:   "update ID",
		Short: "Update an item (admin); unspecified fields keep their values",
		Args:  cobra.ExactArgs(1),
		RunE:  runItemsUpdate,
	}
	itemsDeleteCmd = &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item (admin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runItemsDelete,
	}

	// --- Categories ---
	categoriesCmd = &cobra.Command{
		Use:     "categories",
		Short:   "List and manage categories",
		Aliases: []string{"category", "cat"},
	}
	categoriesListCmd = &cobra.Command{
		Use:   "list",
		Short: "List categories (admin)",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesList,
	}
	categoriesCreateCmd = &cobra.Command{
		Use:   "create NAME",
		Short: "Create a category unless one with that name exists (admin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCategoriesCreate,
	}
	categoriesRenameCmd = &cobra.Command{
		Use:   "rename ID NEW_NAME",
		Short: "Rename a category and move its items to the new name (admin)",
		Args:  cobra.ExactArgs(2),
		RunE:  runCategoriesRename,
	}
	categoriesDeleteCmd = &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a category and uncategorize its items (admin)",
		Args:  cobra.ExactArgs(1),
		RunE:  runCategoriesDelete,
	}

	// --- Front ends ---
	dashboardCmd = &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive admin dashboard",
		Args:  cobra.NoArgs,
		RunE:  runDashboard,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront HTTP gateway",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default ~/.storefront/storefront.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputMode, "output", "",
		"Output mode: rich, plain or machine (default: machine when not a terminal)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")

	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd, itemsCreateCmd, itemsUpdateCmd, itemsDeleteCmd)
	itemsListCmd.Flags().StringVarP(&filterCategory, "category", "c", "", "Only items in this category")
	itemsListCmd.Flags().StringVarP(&filterSearch, "search", "s", "", "Case-insensitive text in name or description")
	for _, c := range []*cobra.Command{itemsCreateCmd, itemsUpdateCmd} {
		c.Flags().StringVar(&itemName, "name", "", "Item name")
		c.Flags().StringVar(&itemDescription, "description", "", "Item description")
		c.Flags().StringVar(&itemPrice, "price", "", "Price, e.g. 12.50")
		c.Flags().StringVar(&itemCategory, "category", "", "Category name (empty for none)")
	}
	_ = itemsCreateCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.AddCommand(categoriesListCmd, categoriesCreateCmd, categoriesRenameCmd, categoriesDeleteCmd)

	rootCmd.AddCommand(dashboardCmd, serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}
