// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the file is read.
const (
	EnvAPIURL      = "STOREFRONT_API_URL"
	EnvSessionPath = "STOREFRONT_SESSION_PATH"
	EnvLogLevel    = "STOREFRONT_LOG_LEVEL"
)

var validate = validator.New()

// LoadFrom reads the config at path, creating it with defaults on first run.
//
// # Description
//
// A .env file in the working directory is loaded first (variables already
// set in the environment win). Fields missing from the file keep their
// defaults. STOREFRONT_* variables override the file. The result is
// validated.
//
// # Outputs
//
//   - StorefrontConfig: The effective config.
//   - error: Read, parse or validation failure.
func LoadFrom(path string) (StorefrontConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return StorefrontConfig{}, fmt.Errorf("load .env: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, " First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return StorefrontConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return StorefrontConfig{}, fmt.Errorf("failed to read the config file %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return StorefrontConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, applies env overrides and validates.
func Parse(data []byte) (StorefrontConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return StorefrontConfig{}, fmt.Errorf("parse yaml: %w", err)
	}
	applyEnv(&cfg)
	if err := validate.Struct(cfg); err != nil {
		return StorefrontConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *StorefrontConfig) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvSessionPath); v != "" {
		cfg.Session.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
