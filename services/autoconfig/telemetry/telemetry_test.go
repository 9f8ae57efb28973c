// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceName != "lintinfer" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "lintinfer")
	}
	if cfg.TraceExporter != ExporterNone || cfg.MetricExporter != ExporterNone {
		t.Errorf("exporters = %q/%q, want none/none", cfg.TraceExporter, cfg.MetricExporter)
	}
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	if !errors.Is(err, ErrNilContext) {
		t.Errorf("Init(nil) error = %v, want %v", err, ErrNilContext)
	}
}

func TestInit_None(t *testing.T) {
	shutdown, err := Init(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceExporter = "zipkin"
	if _, err := Init(context.Background(), cfg); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("trace exporter error = %v, want %v", err, ErrUnknownExporter)
	}

	cfg = DefaultConfig()
	cfg.MetricExporter = "statsd"
	if _, err := Init(context.Background(), cfg); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("metric exporter error = %v, want %v", err, ErrUnknownExporter)
	}
}

func TestInit_PrometheusServesMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MetricExporter = ExporterPrometheus

	shutdown, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("lintinfer.test").Int64Counter("telemetry_test_total")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 3)

	handler := MetricsHandler()
	if handler == nil {
		t.Fatal("MetricsHandler() = nil")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "telemetry_test") {
		t.Errorf("metrics body missing counter:\n%s", body)
	}

	stop, err := ServeMetrics("127.0.0.1:0")
	if err != nil {
		t.Fatalf("ServeMetrics() error = %v", err)
	}
	if err := stop(context.Background()); err != nil {
		t.Errorf("stop() error = %v", err)
	}
}

func TestRecordErrorAndTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	ctx, span := StartSpan(context.Background(), "lintinfer.test", "Test.Span")
	if TraceID(ctx) == "" {
		t.Error("TraceID() is empty inside a span")
	}
	RecordError(span, errors.New("boom"))
	RecordError(nil, errors.New("ignored"))
	RecordError(span, nil)
	SetSpanOK(nil)
	span.End()

	if TraceID(context.Background()) != "" {
		t.Error("TraceID() without a span should be empty")
	}
}
