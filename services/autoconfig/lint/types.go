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
	"fmt"
	"sort"

	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

// =============================================================================
// ANALYZER CONTRACT
// =============================================================================

// Analyzer runs a lint configuration over a corpus.
//
// Description:
//
//	An Analyzer reports the diagnostics a configuration produces on every
//	entry of a corpus. Implementations must not mutate the corpus and must
//	be safe for concurrent calls with different configurations.
//
// Inputs:
//
//	ctx - Context for cancellation and timeouts
//	c - The corpus to analyze
//	cfg - The configuration; only rules with an enabled severity run
//
// Outputs:
//
//	Report - Diagnostics per entry path
//	error - Non-nil when the configuration could not be applied
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, c *corpus.Corpus, cfg lintconfig.Config) (Report, error)
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Diagnostic is one reported violation.
type Diagnostic struct {
	Path     string              `json:"path"`
	Rule     string              `json:"rule"`
	Line     int                 `json:"line"`
	Column   int                 `json:"column"`
	Message  string              `json:"message"`
	Severity lintconfig.Severity `json:"severity"`
}

// String formats the diagnostic as path:line:col: message (rule).
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s (%s)", d.Path, d.Line, d.Column, d.Message, d.Rule)
}

// Report maps entry paths to their diagnostics.
type Report struct {
	ByEntry map[string][]Diagnostic
}

// NewReport creates an empty report.
func NewReport() Report {
	return Report{ByEntry: make(map[string][]Diagnostic)}
}

// Add appends diagnostics for one entry.
func (r *Report) Add(path string, diags ...Diagnostic) {
	if len(diags) == 0 {
		return
	}
	if r.ByEntry == nil {
		r.ByEntry = make(map[string][]Diagnostic)
	}
	r.ByEntry[path] = append(r.ByEntry[path], diags...)
}

// Count returns the total number of diagnostics.
func (r Report) Count() int {
	n := 0
	for _, diags := range r.ByEntry {
		n += len(diags)
	}
	return n
}

// Clean reports whether no entry has a diagnostic.
func (r Report) Clean() bool {
	return r.Count() == 0
}

// All returns every diagnostic ordered by path, line and column.
func (r Report) All() []Diagnostic {
	out := make([]Diagnostic, 0, r.Count())
	for _, diags := range r.ByEntry {
		out = append(out, diags...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Column < out[j].Column
	})
	return out
}
