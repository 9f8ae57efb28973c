// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".lintinfer.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LINTINFER_"

// ErrInvalidConfig wraps validation and decoding failures.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Load reads the configuration at path, applies environment overrides and
// validates the result.
//
// A missing file yields the defaults unless required is set, in which
// case it is an error. Unknown keys are rejected.
func Load(path string, required bool, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !required:
	case err != nil:
		return Config{}, fmt.Errorf("failed to read the config file %s: %w", path, err)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if err := ApplyEnv(&cfg, lookupEnv); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from LINTINFER_* variables.
func ApplyEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookupEnv(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("PATTERNS"); ok {
		cfg.Patterns = splitList(v)
	}
	if v, ok := get("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %sWORKERS: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Workers = n
	}
	if v, ok := get("ANALYZER"); ok {
		cfg.Analyzer.Kind = v
	}
	if v, ok := get("ESLINT_COMMAND"); ok {
		cfg.Analyzer.Command = v
	}
	if v, ok := get("ESLINT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sESLINT_TIMEOUT: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Analyzer.Timeout = d
	}
	if v, ok := get("CACHE_DIR"); ok {
		cfg.Cache.Dir = v
	}
	if v, ok := get("NO_CACHE"); ok {
		noCache, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sNO_CACHE: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Cache.Enabled = !noCache
	}
	if v, ok := get("FORMAT"); ok {
		cfg.Output.Format = v
	}
	if v, ok := get("OUTPUT_FILE"); ok {
		cfg.Output.Path = v
	}
	if v, ok := get("GCS_CREDENTIALS"); ok {
		cfg.Output.GCS.Credentials = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := get("LOG_DIR"); ok {
		cfg.Logging.Dir = v
	}
	if v, ok := get("TRACE_EXPORTER"); ok {
		cfg.Telemetry.TraceExporter = v
	}
	if v, ok := get("METRIC_EXPORTER"); ok {
		cfg.Telemetry.MetricExporter = v
	}
	if v, ok := get("METRICS_ADDR"); ok {
		cfg.Telemetry.MetricsAddr = v
	}
	return nil
}

// Validate checks struct tags and cross-field rules.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for _, id := range cfg.Rules.Include {
		for _, ex := range cfg.Rules.Exclude {
			if id == ex {
				return fmt.Errorf("%w: rule %q is both included and excluded", ErrInvalidConfig, id)
			}
		}
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create the config directory %w", err)
		}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
}
