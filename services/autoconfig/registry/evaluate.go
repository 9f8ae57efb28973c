// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lint"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

// ErrInvalidInput indicates a nil corpus or analyzer.
var ErrInvalidInput = errors.New("invalid input")

// ProgressFunc receives a fractional progress increment.
type ProgressFunc func(delta float64)

// Stats summarizes one Evaluate call.
type Stats struct {
	// Evaluated is the number of variants given a status by this call.
	Evaluated int

	Passing int
	Failing int

	// Cached counts variants resolved from the verdict memo.
	Cached int

	// Errors counts analyzer failures recorded as Failing.
	Errors int

	Duration time.Duration
}

// Evaluate gives every Untested variant a status.
//
// Description:
//
//	For each variant, the analyzer runs base with only that rule enabled
//	at error severity and the variant's options over the whole corpus. A
//	clean report marks the variant Passing; any diagnostic or analyzer
//	error marks it Failing. Variants run concurrently on a pool of
//	Workers() goroutines. Each completed variant reports a progress
//	increment of 1; calls to onProgress are serialized but arrive in
//	completion order, not catalog order.
//
//	Cancelling ctx stops new variants from starting. Variants already
//	running finish and publish their status; the analyzer does not see
//	the cancellation. Unstarted variants stay Untested, so a later call
//	resumes where this one stopped.
//
// Inputs:
//
//	ctx - Checked before each variant starts
//	c - The corpus. Must contain at least one entry.
//	analyzer - Runs one-rule configurations
//	base - Base configuration; its rules are replaced per variant
//	onProgress - Optional progress callback
//
// Outputs:
//
//	Stats - Counts for the variants evaluated by this call
//	error - ErrInvalidInput, corpus.ErrNoFilesParsed, or ctx.Err() when
//	        cancelled. Analyzer failures are never returned.
//
// Thread Safety: Safe to call concurrently with query methods. Concurrent
// Evaluate calls never evaluate a variant twice but may waste work.
func (r *Registry) Evaluate(ctx context.Context, c *corpus.Corpus, analyzer lint.Analyzer, base lintconfig.Config, onProgress ProgressFunc) (Stats, error) {
	if c == nil || analyzer == nil {
		return Stats{}, fmt.Errorf("%w: corpus and analyzer are required", ErrInvalidInput)
	}
	if c.Len() == 0 {
		return Stats{}, corpus.ErrNoFilesParsed
	}

	ctx, span := startEvaluateSpan(ctx, analyzer.Name(), c.Len(), r.workers)
	defer span.End()
	start := time.Now()

	var pending []*cell
	for _, rule := range r.order {
		for _, cl := range r.cells[rule] {
			if cl.load() == Untested {
				pending = append(pending, cl)
			}
		}
	}

	slog.Debug("evaluating variants",
		slog.Int("variants", len(pending)),
		slog.Int("files", c.Len()),
		slog.Int("workers", r.workers),
		slog.String("analyzer", analyzer.Name()),
	)

	var (
		evaluated, passing, failing, cached, failed atomic.Int64
		progressMu                                  sync.Mutex
	)
	report := func() {
		if onProgress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		onProgress(1)
	}

	prefix := verdictPrefix(c, analyzer, base)
	runCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(r.workers)

	for _, cl := range pending {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			status, fromCache, analyzerErr := r.evaluateOne(runCtx, c, analyzer, base, prefix, cl)
			if !cl.publish(status) {
				return nil
			}

			evaluated.Add(1)
			if status == Passing {
				passing.Add(1)
			} else {
				failing.Add(1)
			}
			if fromCache {
				cached.Add(1)
			}
			if analyzerErr {
				failed.Add(1)
			}
			recordVariantMetrics(runCtx, analyzer.Name(), status, fromCache)
			report()
			return nil
		})
	}
	_ = g.Wait()

	stats := Stats{
		Evaluated: int(evaluated.Load()),
		Passing:   int(passing.Load()),
		Failing:   int(failing.Load()),
		Cached:    int(cached.Load()),
		Errors:    int(failed.Load()),
		Duration:  time.Since(start),
	}
	setEvaluateSpanResult(span, stats)
	recordEvaluateMetrics(runCtx, analyzer.Name(), stats.Duration)

	if err := ctx.Err(); err != nil {
		slog.Info("evaluation aborted",
			slog.Int("evaluated", stats.Evaluated),
			slog.Int("remaining", len(pending)-stats.Evaluated),
		)
		return stats, err
	}
	return stats, nil
}

// evaluateOne returns the status of one variant, whether it came from the
// verdict memo, and whether the analyzer failed.
func (r *Registry) evaluateOne(ctx context.Context, c *corpus.Corpus, analyzer lint.Analyzer, base lintconfig.Config, prefix string, cl *cell) (Status, bool, bool) {
	v := cl.variant
	key := prefix + v.ID()

	if r.verdicts != nil {
		if ok, found := r.verdicts.Lookup(key); found {
			return statusOf(ok), true, false
		}
	}

	cfg := base.WithOnly(v.Rule, lintconfig.RuleEntry{Severity: lintconfig.SeverityError, Options: v.Options})
	report, err := analyzeRecovered(ctx, analyzer, c, cfg)
	if err != nil {
		slog.Debug("variant failed to analyze",
			slog.String("variant", v.ID()),
			slog.String("error", err.Error()),
		)
		// configuration conflicts are deterministic, so the verdict is cached
		// unless the analyzer merely timed out
		if r.verdicts != nil && !errors.Is(err, lint.ErrLinterTimeout) {
			r.verdicts.Store(key, false)
		}
		return Failing, false, true
	}

	ok := report.Clean()
	if r.verdicts != nil {
		r.verdicts.Store(key, ok)
	}
	return statusOf(ok), false, false
}

// analyzeRecovered runs the analyzer and turns a panic into an error, so
// a misbehaving analyzer eliminates the variant instead of the run.
func analyzeRecovered(ctx context.Context, analyzer lint.Analyzer, c *corpus.Corpus, cfg lintconfig.Config) (report lint.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer %s panicked: %v", analyzer.Name(), r)
		}
	}()
	return analyzer.Analyze(ctx, c, cfg)
}

func statusOf(passing bool) Status {
	if passing {
		return Passing
	}
	return Failing
}

// verdictPrefix identifies everything a verdict depends on besides the
// variant: corpus content, analyzer and the base configuration.
func verdictPrefix(c *corpus.Corpus, analyzer lint.Analyzer, base lintconfig.Config) string {
	doc, err := json.Marshal(base.WithRules(nil).Document())
	if err != nil {
		doc = []byte(fmt.Sprintf("%+v", base))
	}
	h := sha256.New()
	h.Write([]byte(c.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(analyzer.Name()))
	h.Write([]byte{0})
	h.Write(doc)
	return hex.EncodeToString(h.Sum(nil))[:32] + "/"
}
