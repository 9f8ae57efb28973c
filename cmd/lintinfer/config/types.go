// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the lintinfer application configuration: which files
// to sample, which analyzer to trust, where verdicts are cached and where
// the result is written.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/lintinfer/services/autoconfig/cache"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lint"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/telemetry"
)

// Analyzer kinds.
const (
	AnalyzerBuiltin = "builtin"
	AnalyzerESLint  = "eslint"
)

// Config is the full application configuration.
type Config struct {
	Patterns   []string `yaml:"patterns" validate:"dive,required"`
	SourceType string   `yaml:"source_type" validate:"omitempty,oneof=module commonjs script"`
	Env        []string `yaml:"env" validate:"dive,oneof=browser node es2022"`
	Framework  string   `yaml:"framework" validate:"omitempty,oneof=none react vue"`
	TypeScript bool     `yaml:"typescript"`

	Workers  int `yaml:"workers" validate:"gte=0,lte=512"`
	MaxFiles int `yaml:"max_files" validate:"gte=0"`

	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Cache    CacheConfig    `yaml:"cache"`
	Output   OutputConfig   `yaml:"output"`
	Rules    RulesConfig    `yaml:"rules"`

	// Baseline overrides the error-level recommendations of the rule set.
	Baseline map[string]bool `yaml:"baseline,omitempty"`

	Logging   LoggingConfig    `yaml:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// AnalyzerConfig selects the pass/fail oracle.
type AnalyzerConfig struct {
	Kind    string        `yaml:"kind" validate:"oneof=builtin eslint"`
	Command string        `yaml:"command" validate:"required_if=Kind eslint"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// CacheConfig controls the persistent verdict cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir defaults to lintinfer/ under the user cache directory.
	Dir string        `yaml:"dir,omitempty"`
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
}

// OutputConfig controls where the configuration is written.
type OutputConfig struct {
	// Path is a file, or "-" for stdout. Empty means the default file
	// name for Format in the working directory.
	Path   string    `yaml:"path,omitempty"`
	Format string    `yaml:"format" validate:"omitempty,oneof=yaml yml json"`
	GCS    GCSConfig `yaml:"gcs,omitempty"`
}

// GCSConfig uploads the configuration to Cloud Storage when Bucket is set.
type GCSConfig struct {
	Bucket      string `yaml:"bucket,omitempty"`
	Object      string `yaml:"object,omitempty" validate:"required_with=Bucket"`
	Credentials string `yaml:"credentials,omitempty"`
}

// RulesConfig narrows the rule set.
type RulesConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Patterns:   []string{"."},
		SourceType: string(lintconfig.SourceModule),
		Env:        []string{string(lintconfig.EnvBrowser)},
		Framework:  "none",
		Analyzer: AnalyzerConfig{
			Kind:    AnalyzerBuiltin,
			Command: "eslint",
			Timeout: lint.DefaultESLintTimeout,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     cache.DefaultTTL,
		},
		Output: OutputConfig{
			Format: "yaml",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// CacheDir returns the verdict cache directory, or "" when caching is
// disabled or no directory can be determined.
func (c Config) CacheDir() string {
	if !c.Cache.Enabled {
		return ""
	}
	if c.Cache.Dir != "" {
		return expandHome(c.Cache.Dir)
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "lintinfer", "verdicts")
}

// Answers converts the project axes to builder answers.
func (c Config) Answers() lintconfig.Answers {
	a := lintconfig.Answers{
		Patterns:   append([]string(nil), c.Patterns...),
		SourceType: lintconfig.SourceType(c.SourceType),
		TypeScript: c.TypeScript,
		Format:     c.Output.Format,
	}
	for _, e := range c.Env {
		a.Env = append(a.Env, lintconfig.Environment(e))
	}
	if c.Framework != "none" {
		a.Framework = lintconfig.Framework(c.Framework)
	}
	return a
}

func expandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[0] == '~' && path[1] == '/') {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
