// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

func sampleDoc() lintconfig.Document {
	cfg := lintconfig.Build(lintconfig.Answers{Env: []lintconfig.Environment{lintconfig.EnvNode}})
	cfg = cfg.WithRules(map[string]lintconfig.RuleEntry{
		"quotes": {Severity: lintconfig.SeverityError, Options: []any{"double", map[string]any{"avoidEscape": true}}},
		"semi":   {Severity: lintconfig.SeverityOff},
	})
	return cfg.Document()
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	_, err = ParseFormat("toml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))

	assert.Equal(t, FormatJSON, FormatFromPath("out/.eslintrc.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath(".eslintrc.yml"))
	assert.Equal(t, ".eslintrc.json", DefaultFileName(FormatJSON))
}

func TestEncode_JSON(t *testing.T) {
	data, err := Encode(sampleDoc(), FormatJSON)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	rules := decoded["rules"].(map[string]any)
	assert.Equal(t, []any{"error", "double", map[string]any{"avoidEscape": true}}, rules["quotes"])
	assert.Equal(t, []any{"off"}, rules["semi"])
	assert.Equal(t, map[string]any{"es2022": true, "node": true}, decoded["env"])
}

func TestEncode_YAML(t *testing.T) {
	data, err := Encode(sampleDoc(), FormatYAML)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	rules := decoded["rules"].(map[string]any)
	assert.Equal(t, []any{"error", "double", map[string]any{"avoidEscape": true}}, rules["quotes"])
	parser := decoded["parserOptions"].(map[string]any)
	assert.Equal(t, "module", parser["sourceType"])

	_, err = Encode(sampleDoc(), Format("ini"))
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".eslintrc.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	loc, err := FileSink{Path: path}.Write(context.Background(), []byte("new\n"))
	require.NoError(t, err)
	assert.Equal(t, path, loc)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	loc, err := WriterSink{W: &buf}.Write(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "stdout", loc)
	assert.Equal(t, "x", buf.String())
}

type memoryObject struct {
	bytes.Buffer
	closed bool
}

func (m *memoryObject) Close() error {
	m.closed = true
	return nil
}

func TestGCSSink_Write(t *testing.T) {
	obj := &memoryObject{}
	s := &GCSSink{Bucket: "configs", Object: "team/.eslintrc.json"}
	s.newWriter = func(context.Context) io.WriteCloser { return obj }

	loc, err := s.Write(context.Background(), []byte("{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "gs://configs/team/.eslintrc.json", loc)
	assert.Equal(t, "{}\n", obj.String())
	assert.True(t, obj.closed)
	assert.NoError(t, s.Close())
	assert.Equal(t, "application/json", contentType(s.Object))
}

func TestNewGCSSink_Validation(t *testing.T) {
	_, err := NewGCSSink(context.Background(), "", "o", "")
	assert.Error(t, err)

	_, err = NewGCSSink(context.Background(), "b", "o", filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, ErrCredentialsNotFound))
}
