// Copyright 2024 The Bifrost Authors
// This file is part of the bifrost library.
//
// The bifrost library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package config loads Bifrost's optional TOML config file, layered under
// CLI flags and environment variables (spec.md §6).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full set of values a TOML file may set. RPCURL, LogLevel,
// Workers and SkipResolving have env-var or flag overrides applied by the
// CLI layer on top of this; CacheDir is set only here.
type Config struct {
	RPCURL        string `toml:"rpc_url"`
	CacheDir      string `toml:"cache_dir"`
	LogLevel      string `toml:"log_level"`
	Workers       int    `toml:"workers"`
	SkipResolving bool   `toml:"skip_resolving"`
}

// Default returns the built-in defaults, used when no config file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		RPCURL:   "",
		CacheDir: filepath.Join(home, ".bifrost", "cache"),
		LogLevel: "info",
		Workers:  4,
	}
}

// Load reads a TOML config file at path, merging its values on top of
// Default(). A missing file is not an error — Default() alone is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv layers RPC_URL and SKIP_RESOLVING environment variables on top
// of cfg, per spec.md §6.
func (c Config) ApplyEnv() Config {
	if v := os.Getenv("RPC_URL"); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv("SKIP_RESOLVING"); v == "1" || v == "true" {
		c.SkipResolving = true
	}
	if v := os.Getenv("BIFROST_LOG"); v != "" {
		c.LogLevel = v
	}
	return c
}
