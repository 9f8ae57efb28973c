// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

// ESLintName is the Name of the subprocess analyzer.
const ESLintName = "eslint"

// DefaultESLintTimeout bounds one ESLint invocation.
const DefaultESLintTimeout = 60 * time.Second

// ESLintRunner analyzes a corpus by invoking the ESLint CLI.
//
// Description:
//
//	Every call runs ESLint once over all corpus paths with config lookup
//	disabled, so only the rules passed on the command line apply. ESLint
//	exits non-zero when it finds problems; the call only fails when no
//	JSON was written to stdout.
//
// Thread Safety: Safe for concurrent use.
type ESLintRunner struct {
	command    string
	timeout    time.Duration
	workingDir string
}

// ESLintOption configures an ESLintRunner.
type ESLintOption func(*ESLintRunner)

// WithCommand sets the ESLint executable. Default: "eslint".
func WithCommand(command string) ESLintOption {
	return func(r *ESLintRunner) {
		if command != "" {
			r.command = command
		}
	}
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(timeout time.Duration) ESLintOption {
	return func(r *ESLintRunner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithWorkingDir sets the directory ESLint runs in.
func WithWorkingDir(dir string) ESLintOption {
	return func(r *ESLintRunner) {
		r.workingDir = dir
	}
}

// NewESLintRunner creates a runner.
func NewESLintRunner(opts ...ESLintOption) *ESLintRunner {
	r := &ESLintRunner{
		command: "eslint",
		timeout: DefaultESLintTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns "eslint".
func (r *ESLintRunner) Name() string { return ESLintName }

// Available reports whether the ESLint executable is on PATH.
func (r *ESLintRunner) Available() error {
	if _, err := exec.LookPath(r.command); err != nil {
		return NewAnalyzerError(ESLintName, "", fmt.Errorf("%w: %s", ErrLinterNotInstalled, r.command))
	}
	return nil
}

// Analyze runs ESLint with the enabled rules of cfg over every entry of c.
//
// Outputs:
//
//	Report - Diagnostics keyed by corpus entry path
//	error - *AnalyzerError wrapping ErrLinterNotInstalled, ErrLinterTimeout,
//	        ErrLinterFailed or ErrParseOutput; or the context error
//
// Thread Safety: Safe for concurrent use.
func (r *ESLintRunner) Analyze(ctx context.Context, c *corpus.Corpus, cfg lintconfig.Config) (Report, error) {
	if c == nil {
		return Report{}, fmt.Errorf("%w: corpus must not be nil", ErrInvalidInput)
	}

	ctx, span := startAnalyzeSpan(ctx, ESLintName, cfg)
	defer span.End()
	start := time.Now()

	args, err := eslintArgs(cfg, c.Paths())
	if err != nil {
		recordAnalyzeMetrics(ctx, ESLintName, time.Since(start), 0, false)
		return Report{}, err
	}

	out, err := r.execute(ctx, args)
	if err != nil {
		recordAnalyzeMetrics(ctx, ESLintName, time.Since(start), 0, false)
		return Report{}, err
	}

	report, err := parseESLintOutput(out, r.pathIndex(c), cfg)
	if err != nil {
		recordAnalyzeMetrics(ctx, ESLintName, time.Since(start), 0, false)
		return Report{}, NewAnalyzerError(ESLintName, "", err)
	}

	setAnalyzeSpanResult(span, report.Count())
	recordAnalyzeMetrics(ctx, ESLintName, time.Since(start), report.Count(), true)
	return report, nil
}

// eslintArgs builds the command line for cfg.
func eslintArgs(cfg lintconfig.Config, paths []string) ([]string, error) {
	sourceType := string(cfg.SourceType)
	if sourceType == "" {
		sourceType = string(lintconfig.SourceModule)
	}
	ecmaVersion := cfg.ECMAVersion
	if ecmaVersion == "" {
		ecmaVersion = lintconfig.DefaultECMAVersion
	}

	args := []string{
		"--no-config-lookup",
		"--format", "json",
		"--parser-options", "sourceType:" + sourceType,
		"--parser-options", "ecmaVersion:" + ecmaVersion,
	}
	for _, id := range cfg.RuleIDs() {
		entry := cfg.Rules[id]
		if !entry.Severity.Enabled() {
			continue
		}
		encoded, err := json.Marshal(map[string][]any{id: entry.Value()})
		if err != nil {
			return nil, NewAnalyzerError(ESLintName, id, fmt.Errorf("%w: %v", ErrInvalidOptions, err))
		}
		args = append(args, "--rule", string(encoded))
	}
	args = append(args, "--")
	return append(args, paths...), nil
}

func (r *ESLintRunner) execute(ctx context.Context, args []string) ([]byte, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, r.command, args...)
	if r.workingDir != "" {
		cmd.Dir = r.workingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, NewAnalyzerError(ESLintName, "", ErrLinterTimeout).WithOutput(stderr.String())
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, NewAnalyzerError(ESLintName, "", fmt.Errorf("%w: %s", ErrLinterNotInstalled, r.command))
	}

	// ESLint exits 1 when it finds problems; only a missing report is fatal
	if err != nil && stdout.Len() == 0 {
		return nil, NewAnalyzerError(ESLintName, "", ErrLinterFailed).WithOutput(stderr.String())
	}
	return stdout.Bytes(), nil
}

// pathIndex maps the absolute paths ESLint reports back to entry paths.
func (r *ESLintRunner) pathIndex(c *corpus.Corpus) map[string]string {
	index := make(map[string]string, c.Len())
	for _, p := range c.Paths() {
		index[p] = p
		abs := p
		if !filepath.IsAbs(abs) {
			if r.workingDir != "" {
				abs = filepath.Join(r.workingDir, p)
			} else if a, err := filepath.Abs(p); err == nil {
				abs = a
			}
		}
		index[filepath.Clean(abs)] = p
	}
	return index
}
