// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/lintinfer/cmd/lintinfer/config"
	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/interview"
)

type testApp struct {
	*app
	stdout, stderr *bytes.Buffer
}

func newTestApp(t *testing.T, env map[string]string) *testApp {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var stdout, stderr bytes.Buffer
	return &testApp{
		app: &app{
			stdin:  strings.NewReader(""),
			stdout: &stdout,
			stderr: &stderr,
			lookupEnv: func(key string) (string, bool) {
				v, ok := env[key]
				return v, ok
			},
		},
		stdout: &stdout,
		stderr: &stderr,
	}
}

func (ta *testApp) run(args ...string) error {
	cmd := newRootCmd(ta.app)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestVersion(t *testing.T) {
	ta := newTestApp(t, nil)
	require.NoError(t, ta.run("version", "--config", "/does/not/exist.yaml"))
	assert.Equal(t, "lintinfer dev\n", ta.stdout.String())
}

func TestCatalog_Machine(t *testing.T) {
	ta := newTestApp(t, nil)
	require.NoError(t, ta.run("catalog", "quotes", "no-debugger", "--output-mode", "machine", "--variants"))

	out := ta.stdout.String()
	assert.Contains(t, out, "quotes")
	assert.Contains(t, out, "no-debugger")
	assert.Contains(t, out, `["double"]`)
	assert.NotContains(t, out, "semi\t")
}

func TestCatalog_UnknownRule(t *testing.T) {
	ta := newTestApp(t, nil)
	err := ta.run("catalog", "no-such-rule", "--output-mode", "machine")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-rule")
}

func TestInfer_WritesJSON(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/a.js": "const a = \"x\";\nconst b = \"y\";\n",
	})
	out := filepath.Join(t.TempDir(), "out", ".eslintrc.json")

	ta := newTestApp(t, nil)
	err := ta.run("infer", filepath.Join(dir, "src"),
		"--rule", "quotes",
		"--no-cache",
		"--output-mode", "machine",
		"-o", out,
		"--explain",
	)
	require.NoError(t, err, ta.stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	rules, ok := doc["rules"].(map[string]any)
	require.True(t, ok, "rules missing: %s", data)
	assert.Equal(t, []any{"error", "double"}, rules["quotes"])

	stderr := ta.stderr.String()
	assert.Contains(t, stderr, "Enabled 1 out of 1 rules based on 1 files.")
	assert.Contains(t, stderr, "OK: wrote "+out)
	assert.Contains(t, stderr, "quotes")
}

func TestInfer_Stdout(t *testing.T) {
	dir := writeProject(t, map[string]string{"a.js": "let x = 'a';\n"})

	ta := newTestApp(t, map[string]string{"LINTINFER_NO_CACHE": "1"})
	require.NoError(t, ta.run("infer", dir, "--rule", "quotes", "--output-mode", "machine", "-o", "-"))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(ta.stdout.Bytes(), &doc), ta.stdout.String())
	rules := doc["rules"].(map[string]any)
	assert.Equal(t, []any{"error", "single"}, rules["quotes"])
	assert.NotContains(t, ta.stderr.String(), "OK: wrote")
}

func TestInfer_NoFiles(t *testing.T) {
	dir := writeProject(t, map[string]string{"README.md": "# nothing here\n"})

	ta := newTestApp(t, nil)
	err := ta.run("infer", dir, "--no-cache", "--output-mode", "machine", "-o", "-")
	require.ErrorIs(t, err, corpus.ErrNoFilesParsed)
	assert.Contains(t, ta.stderr.String(), "ERROR: no files parsed")
	assert.Empty(t, ta.stdout.String())
}

func TestInfer_InvalidFlag(t *testing.T) {
	ta := newTestApp(t, nil)
	err := ta.run("infer", ".", "--framework", "svelte", "--output-mode", "machine")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestApplyInferFlags(t *testing.T) {
	cmd := newInferCmd(&app{})
	require.NoError(t, cmd.ParseFlags([]string{"--workers", "3", "-o", "conf.json", "--no-cache", "--env", "node"}))

	var flags inferFlags
	flags.workers, _ = cmd.Flags().GetInt("workers")
	flags.output, _ = cmd.Flags().GetString("output")
	flags.noCache, _ = cmd.Flags().GetBool("no-cache")
	flags.env, _ = cmd.Flags().GetStringSlice("env")

	cfg := applyInferFlags(config.Default(), cmd, flags, []string{"lib"})
	assert.Equal(t, []string{"lib"}, cfg.Patterns)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "conf.json", cfg.Output.Path)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"node"}, cfg.Env)
	assert.Equal(t, config.Default().Framework, cfg.Framework)

	cmd.Flags().Visit(func(f *pflag.Flag) {
		assert.Contains(t, []string{"workers", "output", "no-cache", "env"}, f.Name)
	})
}

func TestInit_Scripted(t *testing.T) {
	dir := writeProject(t, map[string]string{"index.js": "var x = \"a\"\n"})
	configPath := filepath.Join(t.TempDir(), ".lintinfer.yaml")
	out := filepath.Join(t.TempDir(), ".eslintrc.yml")

	ta := newTestApp(t, nil)
	prompter := &interview.ScriptedPrompter{Answers: interview.Answers{
		interview.KeyPatterns: dir,
		interview.KeyModules:  "commonjs",
		interview.KeyEnv:      []string{"node"},
	}}
	ta.prompter = prompter

	err := ta.run("init", "--config", configPath, "--save", "-o", out, "--output-mode", "machine")
	require.Error(t, err, "--config must exist when passed explicitly")

	require.NoError(t, config.Save(configPath, config.Default()))
	ta = newTestApp(t, map[string]string{"LINTINFER_NO_CACHE": "true"})
	ta.prompter = prompter
	prompter.Asked = nil
	require.NoError(t, ta.run("init", "--config", configPath, "--save", "-o", out, "--output-mode", "machine"), ta.stderr.String())

	assert.NotContains(t, prompter.Asked, interview.KeyFramework, "framework is only asked for browser code")

	saved, err := config.Load(configPath, true, func(string) (string, bool) { return "", false })
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, saved.Patterns)
	assert.Equal(t, "commonjs", saved.SourceType)
	assert.Equal(t, []string{"node"}, saved.Env)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "commonjs: true")
	assert.Contains(t, ta.stderr.String(), "OK: saved "+configPath)
}

func TestInit_NoRun(t *testing.T) {
	ta := newTestApp(t, nil)
	ta.prompter = &interview.ScriptedPrompter{}
	require.NoError(t, ta.run("init", "--no-run", "--output-mode", "machine"))
	assert.Empty(t, ta.stdout.String())
}

func TestWatchRoots(t *testing.T) {
	dir := writeProject(t, map[string]string{"src/a.js": ""})
	file := filepath.Join(dir, "src", "a.js")

	roots := watchRoots([]string{
		filepath.Join(dir, "src") + "/**/*.js",
		file,
		filepath.Join(dir, "src"),
		"*.ts",
	})
	assert.Equal(t, []string{filepath.Join(dir, "src"), "."}, roots)
}

func TestNewSourceWatcher_SkipsVendorDirs(t *testing.T) {
	dir := writeProject(t, map[string]string{"src/a.js": "", "node_modules/x/index.js": ""})
	w, err := newSourceWatcher([]string{dir}, defaultDebounce)
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.NotContains(t, w.watcher.WatchList(), filepath.Join(dir, "node_modules"))
	assert.Contains(t, w.watcher.WatchList(), filepath.Join(dir, "src"))
}
