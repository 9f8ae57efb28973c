// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolve

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lintinfer/services/autoconfig/catalog"
	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lint"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/registry"
	"github.com/AleutianAI/lintinfer/services/autoconfig/rules"
)

// scriptedAnalyzer passes exactly the listed variant IDs.
type scriptedAnalyzer map[string]bool

func (s scriptedAnalyzer) Name() string { return "scripted" }

func (s scriptedAnalyzer) Analyze(_ context.Context, c *corpus.Corpus, cfg lintconfig.Config) (lint.Report, error) {
	report := lint.NewReport()
	for _, id := range cfg.RuleIDs() {
		key := catalog.Variant{Rule: id, Options: cfg.Rules[id].Options}.ID()
		if !s[key] {
			report.Add("a.js", lint.Diagnostic{Path: "a.js", Rule: id, Line: 1, Column: 1})
		}
	}
	return report, nil
}

var doubleQuoted = []corpus.File{{Path: "a.js", Content: []byte("const a = \"x\";\nconst b = \"y\";\n")}}

func evaluated(t *testing.T, list []*rules.Rule, files []corpus.File, analyzer lint.Analyzer) *registry.Registry {
	t.Helper()
	cat, skipped := catalog.Build(list)
	require.Empty(t, skipped)

	c, err := corpus.FromFiles(context.Background(), files, lintconfig.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	reg := registry.New(registry.WithWorkers(4))
	reg.Populate(cat)
	_, err = reg.Evaluate(context.Background(), c, analyzer, lintconfig.Build(lintconfig.Answers{}), nil)
	require.NoError(t, err)
	return reg
}

// quoteRule is a quote-style rule with a reduced option schema.
func quoteRule() *rules.Rule {
	r := rules.Quotes()
	r.Schema = []rules.OptionSchema{
		rules.Enum("single", "double"),
		rules.Object(rules.Property{Name: "avoidEscape", Kind: rules.KindBoolean, Values: []any{true}}),
	}
	return r
}

func styleRule(id string) *rules.Rule {
	return &rules.Rule{ID: id, Schema: []rules.OptionSchema{
		rules.Enum("a", "b"),
		rules.Enum("x", "y"),
	}}
}

func TestResolve_QuoteScenario(t *testing.T) {
	reg := evaluated(t, []*rules.Rule{quoteRule()}, doubleQuoted, lint.NewEngine(nil))

	assert.Equal(t, registry.Failing, reg.Status(catalog.Variant{Rule: "quotes", Index: 1}), `["single"] fails`)
	assert.Equal(t, registry.Passing, reg.Status(catalog.Variant{Rule: "quotes", Index: 2}), `["double"] passes`)
	assert.Equal(t, registry.Passing, reg.Status(catalog.Variant{Rule: "quotes", Index: 4}), `["double",{avoidEscape}] passes`)

	res := Resolve(reg, nil)
	choice, ok := res.Rules["quotes"]
	require.True(t, ok)
	assert.Equal(t, TierTwoOption, choice.Tier)
	assert.Equal(t, []any{"double"}, choice.Entry.Options)
	assert.Equal(t, lintconfig.SeverityError, choice.Entry.Severity)
	assert.Equal(t, 3, choice.Survivors)
	assert.Empty(t, res.Failing)
}

func TestResolve_QuoteScenarioUniqueSurvivor(t *testing.T) {
	reg := evaluated(t, []*rules.Rule{quoteRule()}, doubleQuoted, scriptedAnalyzer{
		`quotes["double",{"avoidEscape":true}]`: true,
	})

	choice := Resolve(reg, nil).Rules["quotes"]
	assert.Equal(t, TierUniqueSurvivor, choice.Tier)
	assert.Equal(t, []any{"double", map[string]any{"avoidEscape": true}}, choice.Entry.Options)
}

func TestResolve_Ladder(t *testing.T) {
	tests := []struct {
		name    string
		passing []string
		tier    Tier
		options []any
	}{
		{"sweet spot beats three options", []string{`r["b"]`, `r["a","y"]`, `r["b","x"]`}, TierTwoOption, []any{"b"}},
		{"two options beat default", []string{`r[]`, `r["a"]`}, TierTwoOption, []any{"a"}},
		{"three options beat default", []string{`r[]`, `r["a","x"]`}, TierThreeOption, []any{"a", "x"}},
		{"first in catalog order", []string{`r["b"]`, `r["a"]`}, TierTwoOption, []any{"a"}},
		{"unique default", []string{`r[]`}, TierUniqueSurvivor, nil},
		{"unique three options", []string{`r["b","y"]`}, TierUniqueSurvivor, []any{"b", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := scriptedAnalyzer{}
			for _, id := range tt.passing {
				analyzer[id] = true
			}
			reg := evaluated(t, []*rules.Rule{styleRule("r")}, doubleQuoted, analyzer)

			choice := Resolve(reg, nil).Rules["r"]
			assert.Equal(t, tt.tier, choice.Tier, choice.Tier.String())
			assert.Equal(t, tt.options, choice.Entry.Options)
			assert.Equal(t, lintconfig.SeverityError, choice.Entry.Severity)
			require.NotNil(t, choice.Variant)
			assert.Equal(t, "r", choice.Variant.Rule)
		})
	}
}

func TestResolve_Fallback(t *testing.T) {
	list := []*rules.Rule{styleRule("important"), styleRule("optional"), styleRule("fine")}
	reg := evaluated(t, list, doubleQuoted, scriptedAnalyzer{`fine["a"]`: true})

	res := Resolve(reg, lintconfig.Baseline{"important": true, "optional": false})
	assert.Equal(t, []string{"important", "optional"}, res.Failing)

	important := res.Rules["important"]
	assert.Equal(t, TierFallback, important.Tier)
	assert.Equal(t, lintconfig.SeverityError, important.Entry.Severity)
	assert.Empty(t, important.Entry.Options)
	assert.Nil(t, important.Variant)

	assert.Equal(t, lintconfig.SeverityOff, res.Rules["optional"].Entry.Severity)
	assert.Equal(t, TierUniqueSurvivor, res.Rules["fine"].Tier)

	assert.Equal(t, []string{"fine", "important", "optional"}, res.RuleIDs())
	assert.Equal(t, 2, res.Enabled())
	entries := res.Entries()
	assert.Equal(t, []any{"a"}, entries["fine"].Options)
}

func TestResolve_RecommendedAllFail(t *testing.T) {
	files := []corpus.File{{Path: "a.js", Content: []byte("function f() {\n  debugger;\n}\n")}}
	reg := evaluated(t, []*rules.Rule{rules.NoDebugger()}, files, lint.NewEngine(nil))

	res := Resolve(reg, rules.Builtin().Recommended())
	choice := res.Rules["no-debugger"]
	assert.Equal(t, TierFallback, choice.Tier)
	assert.Equal(t, lintconfig.SeverityError, choice.Entry.Severity)
	assert.Empty(t, choice.Entry.Options)
}

func TestResolve_AtMostOneEntryAndIdempotent(t *testing.T) {
	files := []corpus.File{{Path: "a.js", Content: []byte(
		"import x from \"y\";\n\nexport function f(a) {\n  if (a === null) {\n    return [1, 2];\n  }\n  return x;\n}\n",
	)}}

	run := func() Resolution {
		cat, _ := catalog.FromSet(rules.Builtin())
		c, err := corpus.FromFiles(context.Background(), files, lintconfig.Config{}, nil)
		require.NoError(t, err)
		defer c.Close()

		reg := registry.New(registry.WithWorkers(8))
		reg.Populate(cat)
		_, err = reg.Evaluate(context.Background(), c, lint.NewEngine(nil), lintconfig.Build(lintconfig.Answers{}), nil)
		require.NoError(t, err)
		return Resolve(reg, rules.Builtin().Recommended())
	}

	first, second := run(), run()
	assert.Empty(t, cmp.Diff(first, second))

	cat, _ := catalog.FromSet(rules.Builtin())
	assert.Len(t, first.Rules, len(cat.Rules()), "one entry per cataloged rule")
	for id, choice := range first.Rules {
		assert.Equal(t, id, choice.Rule)
	}

	assert.Equal(t, []any{"double"}, first.Rules["quotes"].Entry.Options)
	assert.Equal(t, []any{2}, first.Rules["indent"].Entry.Options)
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "fallback", TierFallback.String())
	assert.Equal(t, "two-option", TierTwoOption.String())
	assert.Equal(t, "unique-survivor", TierUniqueSurvivor.String())
	assert.Equal(t, "unknown", Tier(0).String())
}
