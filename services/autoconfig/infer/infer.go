// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package infer runs one lint configuration inference end to end.
//
// A run loads a corpus, enumerates the variant catalog, eliminates every
// variant that produces a diagnostic on the corpus, resolves one entry per
// rule and synthesizes the final configuration.
package infer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/lintinfer/services/autoconfig/cache"
	"github.com/AleutianAI/lintinfer/services/autoconfig/catalog"
	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lint"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/registry"
	"github.com/AleutianAI/lintinfer/services/autoconfig/resolve"
	"github.com/AleutianAI/lintinfer/services/autoconfig/rules"
	"github.com/AleutianAI/lintinfer/services/autoconfig/synth"
	"github.com/AleutianAI/lintinfer/services/autoconfig/telemetry"
)

// ErrNoRules indicates that include/exclude filters removed every rule.
var ErrNoRules = errors.New("no rules selected")

// Phases of a run that report progress.
const (
	PhaseParse    = "parsing"
	PhaseEvaluate = "evaluating"
)

// Reporter receives progress for each phase of a run.
//
// Start is called once per phase before any Advance for it. Advance deltas
// for a phase sum to its total when the phase completes.
type Reporter interface {
	Start(phase string, total int)
	Advance(delta float64)
	Finish(phase string)
}

// Options configures a run.
type Options struct {
	// Patterns select the corpus files. Empty means the working directory.
	Patterns []string

	// Base supplies every non-rule axis of the configuration.
	Base lintconfig.Config

	// Rules is the rule set to infer. Nil means rules.Builtin().
	Rules *rules.Set

	// Include keeps only the named rules when non-empty.
	Include []string

	// Exclude removes the named rules.
	Exclude []string

	// BaselineOverrides replace entries of the rule set's recommendations.
	BaselineOverrides map[string]bool

	// Analyzer decides pass or fail. Nil means the in-process engine over
	// Rules.
	Analyzer lint.Analyzer

	// Workers bounds concurrent evaluations. Zero means runtime.NumCPU().
	Workers int

	// Verdicts is an externally owned verdict memo. When nil, the run
	// creates its own: persisted under CacheDir if set, memory-only
	// otherwise.
	Verdicts registry.VerdictStore

	// CacheDir enables a persistent verdict memo.
	CacheDir string

	// CacheTTL bounds the age of persisted verdicts. Zero means
	// cache.DefaultTTL.
	CacheTTL time.Duration

	// MaxFiles caps the corpus size. Zero means unlimited.
	MaxFiles int

	// Reporter receives progress. Optional.
	Reporter Reporter

	// Out receives the summary line. Optional.
	Out io.Writer
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string
	Config     lintconfig.Config
	Summary    synth.Summary
	Resolution resolve.Resolution
	Registry   *registry.Registry
	Skipped    []catalog.Skipped
	Forced     []string
	Files      []string
	Stats      registry.Stats
	Duration   time.Duration
}

// Run executes one inference.
//
// Description:
//
//	The only fatal outcomes are a corpus without usable entries
//	(corpus.ErrNoFilesParsed), an empty rule selection (ErrNoRules) and
//	cancellation. Analyzer failures on individual variants eliminate
//	those variants and never abort the run.
//
// Inputs:
//
//	ctx - Context for cancellation, checked between variants
//	opts - Run options
//
// Outputs:
//
//	*Result - The synthesized configuration and run details
//	error - Non-nil if no configuration was produced
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := slog.Default().With(slog.String("run_id", runID))

	ctx, span := telemetry.StartSpan(ctx, "lintinfer.infer", "infer.Run",
		trace.WithAttributes(attribute.String("run_id", runID)),
	)
	defer span.End()

	set := selectRules(opts)
	if set.Len() == 0 {
		telemetry.RecordError(span, ErrNoRules)
		return nil, ErrNoRules
	}
	baseline := lintconfig.Baseline(set.Recommended()).Merge(opts.BaselineOverrides)

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	logger.Info("loading corpus", slog.Any("patterns", patterns))
	c, err := loadCorpus(ctx, patterns, opts)
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, corpus.ErrNoFilesParsed) {
			logger.Error("no files parsed", slog.Any("patterns", patterns))
		}
		return nil, err
	}
	defer c.Close()

	cat, skipped := catalog.FromSet(set)
	for _, s := range skipped {
		logger.Warn("rule skipped", slog.String("rule", s.Rule), slog.String("reason", s.Err.Error()))
	}

	verdicts, closeVerdicts := openVerdicts(opts)
	defer closeVerdicts()

	reg := registry.New(
		registry.WithWorkers(opts.Workers),
		registry.WithVerdicts(verdicts),
	)
	reg.Populate(cat)

	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = lint.NewEngine(set)
	}

	logger.Info("evaluating variants",
		slog.Int("files", c.Len()),
		slog.Int("rules", len(cat.Rules())),
		slog.Int("variants", cat.Len()),
		slog.String("analyzer", analyzer.Name()),
	)

	var onProgress registry.ProgressFunc
	if opts.Reporter != nil {
		opts.Reporter.Start(PhaseEvaluate, reg.Len())
		onProgress = opts.Reporter.Advance
	}
	stats, err := reg.Evaluate(ctx, c, analyzer, opts.Base, onProgress)
	if opts.Reporter != nil {
		opts.Reporter.Finish(PhaseEvaluate)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("evaluating variants: %w", err)
	}

	res := resolve.Resolve(reg, baseline)
	out := synth.Synthesizer{Out: opts.Out}.Synthesize(opts.Base, res, baseline, set.Len(), c.Len())

	result := &Result{
		RunID:      runID,
		Config:     out.Config,
		Summary:    out.Summary,
		Resolution: res,
		Registry:   reg,
		Skipped:    skipped,
		Forced:     out.Forced,
		Files:      c.Paths(),
		Stats:      stats,
		Duration:   time.Since(start),
	}

	logger.Info("inference complete",
		slog.Int("rules_enabled", out.Summary.RulesEnabled),
		slog.Int("failing_rules", len(res.Failing)),
		slog.Int("cached", stats.Cached),
		slog.Duration("duration", result.Duration),
	)
	telemetry.SetSpanOK(span)
	return result, nil
}

func selectRules(opts Options) *rules.Set {
	set := opts.Rules
	if set == nil {
		set = rules.Builtin()
	}
	if len(opts.Include) == 0 && len(opts.Exclude) == 0 {
		return set
	}
	include := make(map[string]bool, len(opts.Include))
	for _, id := range opts.Include {
		include[id] = true
	}
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, id := range opts.Exclude {
		exclude[id] = true
	}
	return set.Filter(func(r *rules.Rule) bool {
		if exclude[r.ID] {
			return false
		}
		return len(include) == 0 || include[r.ID]
	})
}

func loadCorpus(ctx context.Context, patterns []string, opts Options) (*corpus.Corpus, error) {
	var loadOpts []corpus.Option
	if opts.MaxFiles > 0 {
		loadOpts = append(loadOpts, corpus.WithMaxFiles(opts.MaxFiles))
	}

	var onFile corpus.FileProgressFunc
	if r := opts.Reporter; r != nil {
		started, last := false, 0
		onFile = func(done, total int) {
			if !started {
				r.Start(PhaseParse, total)
				started = true
			}
			if done > last {
				r.Advance(float64(done - last))
				last = done
			}
		}
		defer func() {
			if started {
				r.Finish(PhaseParse)
			}
		}()
	}
	return corpus.Load(ctx, patterns, opts.Base, onFile, loadOpts...)
}

func openVerdicts(opts Options) (registry.VerdictStore, func()) {
	if opts.Verdicts != nil {
		return opts.Verdicts, func() {}
	}
	var v *cache.Verdicts
	if opts.CacheDir != "" {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = cache.DefaultTTL
		}
		v = cache.Open(opts.CacheDir, ttl)
	} else {
		v = cache.NewMemory()
	}
	return v, func() {
		if err := v.Close(); err != nil {
			slog.Warn("closing verdict cache", slog.String("error", err.Error()))
		}
	}
}
