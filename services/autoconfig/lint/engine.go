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
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/rules"
)

// EngineName is the Name of the in-process analyzer.
const EngineName = "builtin"

// =============================================================================
// ENGINE
// =============================================================================

// Engine is the in-process analyzer over a rule set.
//
// Description:
//
//	Compiles the enabled rules of a configuration once per call and runs
//	them over every corpus entry. A rule that panics on an unexpected tree
//	shape fails the call with an error instead of crashing the process.
//
// Thread Safety: Safe for concurrent use.
type Engine struct {
	rules *rules.Set
}

// NewEngine creates an engine over set. A nil set means rules.Builtin().
func NewEngine(set *rules.Set) *Engine {
	if set == nil {
		set = rules.Builtin()
	}
	return &Engine{rules: set}
}

// Name returns "builtin".
func (e *Engine) Name() string { return EngineName }

// Rules returns the engine's rule set.
func (e *Engine) Rules() *rules.Set { return e.rules }

type compiledRule struct {
	id       string
	severity lintconfig.Severity
	check    rules.CheckFunc
}

// Analyze runs cfg over every entry of c.
//
// Outputs:
//
//	Report - Diagnostics per entry
//	error - *AnalyzerError wrapping ErrUnknownRule, ErrInvalidOptions,
//	        a tree access failure, or a recovered rule panic
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Analyze(ctx context.Context, c *corpus.Corpus, cfg lintconfig.Config) (Report, error) {
	if c == nil {
		return Report{}, fmt.Errorf("%w: corpus must not be nil", ErrInvalidInput)
	}

	ctx, span := startAnalyzeSpan(ctx, EngineName, cfg)
	defer span.End()
	start := time.Now()

	compiled, err := e.compile(cfg)
	if err != nil {
		recordAnalyzeMetrics(ctx, EngineName, time.Since(start), 0, false)
		return Report{}, err
	}

	report := NewReport()
	for _, entry := range c.Entries() {
		path := entry.Path()
		err := entry.Inspect(ctx, func(root *sitter.Node, content []byte) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("rule panicked on %s: %v", path, r)
				}
			}()
			src := rules.Source{Path: path, Root: root, Content: content}
			for _, rule := range compiled {
				for _, f := range rule.check(src) {
					report.Add(path, Diagnostic{
						Path:     path,
						Rule:     rule.id,
						Line:     f.Line,
						Column:   f.Column,
						Message:  f.Message,
						Severity: rule.severity,
					})
				}
			}
			return nil
		})
		if err != nil {
			recordAnalyzeMetrics(ctx, EngineName, time.Since(start), 0, false)
			return Report{}, NewAnalyzerError(EngineName, ruleList(compiled), err)
		}
	}

	setAnalyzeSpanResult(span, report.Count())
	recordAnalyzeMetrics(ctx, EngineName, time.Since(start), report.Count(), true)
	return report, nil
}

func (e *Engine) compile(cfg lintconfig.Config) ([]compiledRule, error) {
	var compiled []compiledRule
	for _, id := range cfg.RuleIDs() {
		entry := cfg.Rules[id]
		if !entry.Severity.Enabled() {
			continue
		}
		rule, ok := e.rules.Get(id)
		if !ok {
			return nil, NewAnalyzerError(EngineName, id, fmt.Errorf("%w: %s", ErrUnknownRule, id))
		}
		check, err := rule.Compile(entry.Options)
		if err != nil {
			return nil, NewAnalyzerError(EngineName, id, fmt.Errorf("%w: %v", ErrInvalidOptions, err))
		}
		compiled = append(compiled, compiledRule{id: id, severity: entry.Severity, check: check})
	}
	return compiled, nil
}

func ruleList(compiled []compiledRule) string {
	if len(compiled) == 1 {
		return compiled[0].id
	}
	return ""
}
