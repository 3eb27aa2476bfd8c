// Copyright © 2025 Stagesync contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config.go
// Summary: Server configuration loaded from YAML with sane defaults.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the server settings.
type Config struct {
	// Listen is the host:port the websocket gateway binds to.
	Listen string `yaml:"listen"`
	// AssetDir is served under /assets/ for model downloads. Empty disables
	// asset serving.
	AssetDir string `yaml:"asset_dir"`
	// CatalogPath is the SQLite project catalog location. Empty disables the
	// catalog boundary entirely.
	CatalogPath string `yaml:"catalog_path"`
	// Verbose switches the logger to development output.
	Verbose bool `yaml:"verbose"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Listen:      ":8155",
		CatalogPath: "stagesync.db",
	}
}

// Load reads the config file at path, layered over the defaults. A missing
// file is not an error: the defaults are returned, so a bare binary runs
// without any setup.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Listen == "" {
		cfg.Listen = Default().Listen
	}
	return cfg, nil
}
