// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sink serializes synthesized configurations and writes them to a
// local file, a writer, or a Cloud Storage object.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

// ErrUnknownFormat indicates an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is a serialization format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" and "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath picks JSON for .json files and YAML otherwise.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// DefaultFileName returns the conventional file name for f.
func DefaultFileName(f Format) string {
	if f == FormatJSON {
		return ".eslintrc.json"
	}
	return ".eslintrc.yml"
}

// Encode serializes doc.
func Encode(doc lintconfig.Document, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encoding yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Sink persists an encoded configuration.
type Sink interface {
	// Write stores data and returns a human-readable location.
	Write(ctx context.Context, data []byte) (string, error)
}

// FileSink writes to a local file, replacing it atomically.
type FileSink struct {
	Path string
}

// Write implements Sink.
func (s FileSink) Write(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", s.Path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", s.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", s.Path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", s.Path, err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return "", fmt.Errorf("writing %s: %w", s.Path, err)
	}
	return s.Path, nil
}

// WriterSink writes to an io.Writer such as stdout.
type WriterSink struct {
	W    io.Writer
	Name string
}

// Write implements Sink.
func (s WriterSink) Write(_ context.Context, data []byte) (string, error) {
	if _, err := s.W.Write(data); err != nil {
		return "", fmt.Errorf("writing output: %w", err)
	}
	if s.Name == "" {
		return "stdout", nil
	}
	return s.Name, nil
}
