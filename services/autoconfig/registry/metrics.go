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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("lintinfer.registry")
	meter  = otel.Meter("lintinfer.registry")
)

var (
	evaluateLatency metric.Float64Histogram
	variantsTotal   metric.Int64Counter
	cacheHits       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		evaluateLatency, err = meter.Float64Histogram(
			"registry_evaluate_duration_seconds",
			metric.WithDescription("Duration of registry evaluations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		variantsTotal, err = meter.Int64Counter(
			"registry_variants_evaluated_total",
			metric.WithDescription("Total number of variants given a status"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheHits, err = meter.Int64Counter(
			"registry_verdict_cache_hits_total",
			metric.WithDescription("Variants resolved from the verdict memo"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startEvaluateSpan(ctx context.Context, analyzer string, files, workers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Registry.Evaluate",
		trace.WithAttributes(
			attribute.String("registry.analyzer", analyzer),
			attribute.Int("registry.files", files),
			attribute.Int("registry.workers", workers),
		),
	)
}

func setEvaluateSpanResult(span trace.Span, stats Stats) {
	span.SetAttributes(
		attribute.Int("registry.evaluated", stats.Evaluated),
		attribute.Int("registry.passing", stats.Passing),
		attribute.Int("registry.failing", stats.Failing),
		attribute.Int("registry.cached", stats.Cached),
		attribute.Int("registry.errors", stats.Errors),
	)
}

func recordVariantMetrics(ctx context.Context, analyzer string, status Status, cached bool) {
	if err := initMetrics(); err != nil {
		return
	}
	variantsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("analyzer", analyzer),
		attribute.String("status", status.String()),
	))
	if cached {
		cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("analyzer", analyzer)))
	}
}

func recordEvaluateMetrics(ctx context.Context, analyzer string, duration time.Duration) {
	if err := initMetrics(); err != nil {
		return
	}
	evaluateLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("analyzer", analyzer)))
}
