// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"time"
)

type StorefrontConfig struct {
	// API: the remote catalog service
	API APIConfig `yaml:"api"`

	// Session: where the login token is kept between runs
	Session SessionConfig `yaml:"session"`

	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Serve: the storefront gateway started by `storefront serve`
	Serve ServeConfig `yaml:"serve"`
}

type APIConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"gte=0"` // 0 = unlimited
}

type SessionConfig struct {
	Path string `yaml:"path" validate:"required"` // BadgerDB directory
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"` // empty = stderr only
	JSON  bool   `yaml:"json"`
}

type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"omitempty,oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"omitempty,oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint,omitempty"`
}

type ServeConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// Dir is the storefront home, ~/.storefront.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

// DefaultPath is the config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "storefront.yaml")
}

func DefaultConfig() StorefrontConfig {
	return StorefrontConfig{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 15 * time.Second,
		},
		Session: SessionConfig{
			Path: filepath.Join(Dir(), "session"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
		},
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}
