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
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

// Package-level tracer and meter for analyzer operations.
var (
	tracer = otel.Tracer("lintinfer.lint")
	meter  = otel.Meter("lintinfer.lint")
)

// Metrics for analyzer operations.
var (
	analyzeLatency     metric.Float64Histogram
	analyzeTotal       metric.Int64Counter
	analyzeFailures    metric.Int64Counter
	diagnosticsPerCall metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analyzeLatency, err = meter.Float64Histogram(
			"lint_analyze_duration_seconds",
			metric.WithDescription("Duration of analyzer invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analyzeTotal, err = meter.Int64Counter(
			"lint_analyze_total",
			metric.WithDescription("Total number of analyzer invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analyzeFailures, err = meter.Int64Counter(
			"lint_analyze_failures_total",
			metric.WithDescription("Total number of failed analyzer invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diagnosticsPerCall, err = meter.Int64Histogram(
			"lint_diagnostics_per_call",
			metric.WithDescription("Number of diagnostics reported per invocation"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startAnalyzeSpan creates a span for one analyzer invocation.
func startAnalyzeSpan(ctx context.Context, analyzer string, cfg lintconfig.Config) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Analyzer.Analyze",
		trace.WithAttributes(
			attribute.String("lint.analyzer", analyzer),
			attribute.StringSlice("lint.rules", cfg.RuleIDs()),
		),
	)
}

// setAnalyzeSpanResult sets the result attributes on an analyze span.
func setAnalyzeSpanResult(span trace.Span, diagnostics int) {
	span.SetAttributes(attribute.Int("lint.diagnostic_count", diagnostics))
}

// recordAnalyzeMetrics records metrics for one analyzer invocation.
func recordAnalyzeMetrics(ctx context.Context, analyzer string, duration time.Duration, diagnostics int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("analyzer", analyzer),
		attribute.Bool("success", success),
	)

	analyzeLatency.Record(ctx, duration.Seconds(), attrs)
	analyzeTotal.Add(ctx, 1, attrs)
	if !success {
		analyzeFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("analyzer", analyzer)))
		return
	}
	diagnosticsPerCall.Record(ctx, int64(diagnostics), attrs)
}
