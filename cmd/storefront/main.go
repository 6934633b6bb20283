// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/ilneora/storefront/cmd/storefront/config"
	"github.com/ilneora/storefront/pkg/logging"
	"github.com/ilneora/storefront/pkg/ux"
)

func main() {
	// Wipe locked buffers (passwords) if we are interrupted mid-login.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	// PersistentPostRunE is skipped when RunE fails.
	_ = teardown(nil, nil)
	if err != nil {
		ux.Error(os.Stderr, err.Error())
		memguard.Purge()
		os.Exit(1)
	}
}

// setup loads config, picks the output mode and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	ux.InitMode(outputMode)

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	levelName := cfg.Logging.Level
	if logLevel != "" {
		levelName = logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "storefront",
		JSON:    cfg.Logging.JSON,
	})
	logger.Debug("config loaded", "path", path, "command", cmd.CommandPath())

	current = newApp(cfg, logger)
	return nil
}

func teardown(*cobra.Command, []string) error {
	if current == nil {
		return nil
	}
	err := current.Close()
	current = nil
	return err
}
