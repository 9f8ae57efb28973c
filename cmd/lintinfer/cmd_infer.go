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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintinfer/cmd/lintinfer/config"
	"github.com/AleutianAI/lintinfer/pkg/ux"
	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/infer"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lint"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/registry"
	"github.com/AleutianAI/lintinfer/services/autoconfig/sink"
	"github.com/AleutianAI/lintinfer/services/autoconfig/telemetry"
)

// inferFlags are the command-line overrides of the infer command.
type inferFlags struct {
	analyzer    string
	eslint      string
	workers     int
	output      string
	format      string
	noCache     bool
	explain     bool
	watch       bool
	metricsAddr string
	include     []string
	exclude     []string
	maxFiles    int
	sourceType  string
	env         []string
	framework   string
	typescript  bool
}

func newInferCmd(a *app) *cobra.Command {
	var flags inferFlags
	cmd := &cobra.Command{
		Use:   "infer [patterns...]",
		Short: "Infer a configuration from the files matched by patterns",
		Long: `Infer loads the matched JavaScript and TypeScript files, evaluates every
option combination of every rule against them, and writes the configuration
whose rules produce no diagnostics on the code as it is.

Patterns are directories, globs, or dir/**/glob patterns. Without patterns,
the patterns from the config file are used.`,
		Example: `  lintinfer infer src
  lintinfer infer 'src/**/*.ts' --typescript --format json -o .eslintrc.json
  lintinfer infer --analyzer eslint --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := applyInferFlags(a.cfg, cmd, flags, args)
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return runInfer(cmd.Context(), a, cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.analyzer, "analyzer", "", "analyzer: builtin or eslint")
	f.StringVar(&flags.eslint, "eslint", "", "ESLint executable for --analyzer eslint")
	f.IntVarP(&flags.workers, "workers", "w", 0, "concurrent evaluations (0 = number of CPUs)")
	f.StringVarP(&flags.output, "output", "o", "", `output file, or "-" for stdout`)
	f.StringVarP(&flags.format, "format", "f", "", "output format: yaml or json")
	f.BoolVar(&flags.noCache, "no-cache", false, "do not read or write the persistent verdict cache")
	f.BoolVar(&flags.explain, "explain", false, "print why each rule got its configuration")
	f.BoolVar(&flags.watch, "watch", false, "re-run when source files change")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")
	f.StringSliceVar(&flags.include, "rule", nil, "only infer these rules (repeatable)")
	f.StringSliceVar(&flags.exclude, "exclude-rule", nil, "skip these rules (repeatable)")
	f.IntVar(&flags.maxFiles, "max-files", 0, "sample at most this many files (0 = all)")
	f.StringVar(&flags.sourceType, "source-type", "", "module, commonjs or script")
	f.StringSliceVar(&flags.env, "env", nil, "environments: browser, node")
	f.StringVar(&flags.framework, "framework", "", "none, react or vue")
	f.BoolVar(&flags.typescript, "typescript", false, "sample TypeScript sources with type-checked parsing")
	return cmd
}

// applyInferFlags layers explicitly set flags over the loaded config.
func applyInferFlags(cfg config.Config, cmd *cobra.Command, flags inferFlags, args []string) config.Config {
	changed := cmd.Flags().Changed
	if len(args) > 0 {
		cfg.Patterns = args
	}
	if changed("analyzer") {
		cfg.Analyzer.Kind = flags.analyzer
	}
	if changed("eslint") {
		cfg.Analyzer.Command = flags.eslint
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}
	if changed("output") {
		cfg.Output.Path = flags.output
		cfg.Output.GCS = config.GCSConfig{}
		if !changed("format") && hasConfigExt(flags.output) {
			cfg.Output.Format = string(sink.FormatFromPath(flags.output))
		}
	}
	if changed("format") {
		cfg.Output.Format = flags.format
	}
	if flags.noCache {
		cfg.Cache.Enabled = false
	}
	if changed("metrics-addr") {
		cfg.Telemetry.MetricsAddr = flags.metricsAddr
		if flags.metricsAddr != "" {
			cfg.Telemetry.MetricExporter = telemetry.ExporterPrometheus
		}
	}
	if changed("rule") {
		cfg.Rules.Include = flags.include
	}
	if changed("exclude-rule") {
		cfg.Rules.Exclude = flags.exclude
	}
	if changed("max-files") {
		cfg.MaxFiles = flags.maxFiles
	}
	if changed("source-type") {
		cfg.SourceType = flags.sourceType
	}
	if changed("env") {
		cfg.Env = flags.env
	}
	if changed("framework") {
		cfg.Framework = flags.framework
	}
	if changed("typescript") {
		cfg.TypeScript = flags.typescript
	}
	return cfg
}

func hasConfigExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yml", ".yaml":
		return true
	}
	return false
}

func runInfer(ctx context.Context, a *app, cfg config.Config, flags inferFlags) error {
	cfg.Telemetry.ServiceVersion = version
	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	analyzer, err := buildAnalyzer(a, cfg)
	if err != nil {
		return err
	}

	format, err := sink.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	out, closeSink, err := buildSink(ctx, a, cfg, format)
	if err != nil {
		return err
	}
	defer closeSink()

	opts := infer.Options{
		Patterns:          cfg.Patterns,
		Base:              lintconfig.Build(cfg.Answers()),
		Include:           cfg.Rules.Include,
		Exclude:           cfg.Rules.Exclude,
		BaselineOverrides: cfg.Baseline,
		Analyzer:          analyzer,
		Workers:           cfg.Workers,
		CacheDir:          cfg.CacheDir(),
		CacheTTL:          cfg.Cache.TTL,
		MaxFiles:          cfg.MaxFiles,
		Out:               a.stderr,
	}

	once := func(ctx context.Context) error {
		reporter := ux.NewReporter(a.stderr, a.mode)
		opts.Reporter = reporter
		result, err := infer.Run(ctx, opts)
		reporter.Close()
		if err != nil {
			if errors.Is(err, corpus.ErrNoFilesParsed) {
				a.printer.Error(fmt.Sprintf("no files parsed for %s", strings.Join(cfg.Patterns, ", ")))
			}
			return err
		}

		data, err := sink.Encode(result.Config.Document(), format)
		if err != nil {
			return err
		}
		location, err := writeConfig(ctx, a, out, data)
		if err != nil {
			return err
		}
		if _, toStdout := out.(sink.WriterSink); !toStdout {
			a.printer.Success("wrote " + location)
		}
		if len(result.Skipped) > 0 {
			lines := make([]string, len(result.Skipped))
			for i, s := range result.Skipped {
				lines[i] = s.String()
			}
			a.printer.WarningBox("Rules not inferred", strings.Join(lines, "\n"))
		}
		if flags.explain {
			fmt.Fprintln(a.stderr, explainTable(result, a.mode))
		}
		return nil
	}

	if !flags.watch {
		return once(ctx)
	}

	w, err := newSourceWatcher(cfg.Patterns, defaultDebounce)
	if err != nil {
		return err
	}
	a.printer.Muted("watching for changes, press Ctrl-C to stop")
	return w.Run(ctx, once, func(err error) {
		a.printer.Error(err.Error())
	})
}

func buildAnalyzer(a *app, cfg config.Config) (lint.Analyzer, error) {
	switch cfg.Analyzer.Kind {
	case config.AnalyzerESLint:
		runner := lint.NewESLintRunner(
			lint.WithCommand(cfg.Analyzer.Command),
			lint.WithTimeout(cfg.Analyzer.Timeout),
		)
		if err := ux.WithSpinner(a.stderr, a.mode, "checking "+cfg.Analyzer.Command, runner.Available); err != nil {
			return nil, err
		}
		return runner, nil
	default:
		return nil, nil
	}
}

// writeConfig writes data to out, under a spinner for remote sinks.
func writeConfig(ctx context.Context, a *app, out sink.Sink, data []byte) (string, error) {
	gcs, remote := out.(*sink.GCSSink)
	if !remote {
		return out.Write(ctx, data)
	}
	var location string
	err := ux.WithSpinner(a.stderr, a.mode, "uploading to "+gcs.Location(), func() error {
		var err error
		location, err = out.Write(ctx, data)
		return err
	})
	return location, err
}

func buildSink(ctx context.Context, a *app, cfg config.Config, format sink.Format) (sink.Sink, func(), error) {
	if gcs := cfg.Output.GCS; gcs.Bucket != "" {
		s, err := sink.NewGCSSink(ctx, gcs.Bucket, gcs.Object, gcs.Credentials)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}

	switch path := cfg.Output.Path; path {
	case "-":
		return sink.WriterSink{W: a.stdout}, func() {}, nil
	case "":
		return sink.FileSink{Path: sink.DefaultFileName(format)}, func() {}, nil
	default:
		return sink.FileSink{Path: path}, func() {}, nil
	}
}

// explainTable lists each rule with its chosen entry, the tier that chose
// it and how many of its variants survived.
func explainTable(result *infer.Result, mode ux.Mode) string {
	forced := make(map[string]bool, len(result.Forced))
	for _, id := range result.Forced {
		forced[id] = true
	}

	ids := make([]string, 0, len(result.Config.Rules))
	for id := range result.Config.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tbl := ux.NewTable(mode)
	tbl.Title("Resolution")
	tbl.Header("Rule", "Entry", "Chosen by", "Passing")
	for _, id := range ids {
		entry, _ := json.Marshal(result.Config.Rules[id].Value())
		chosenBy := "baseline"
		passing := "-"
		if choice, ok := result.Resolution.Rules[id]; ok {
			chosenBy = choice.Tier.String()
			counts := result.Registry.Counts(id)
			total := 0
			for _, n := range counts {
				total += n
			}
			passing = fmt.Sprintf("%d/%d", counts[registry.Passing], total)
		} else if !forced[id] {
			chosenBy = "base"
		}
		tbl.Row(id, string(entry), chosenBy, passing)
	}
	tbl.AlignRight(4)
	tbl.Footer("", "", "files", len(result.Files))
	return tbl.String()
}
