// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package interview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

func TestPredicate_Match(t *testing.T) {
	answers := Answers{
		"env":   []string{"browser", "node"},
		"mod":   "module",
		"ts":    true,
		"empty": []string{},
	}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"contains", Predicate{Key: "env", Contains: "browser"}, true},
		{"not contains", Predicate{Key: "env", Contains: "deno"}, false},
		{"negated contains", Predicate{Key: "env", Contains: "deno", Negate: true}, true},
		{"equals string", Predicate{Key: "mod", Equals: "module"}, true},
		{"equals bool", Predicate{Key: "ts", Equals: "true"}, true},
		{"unanswered", Predicate{Key: "missing", Equals: ""}, false},
		{"unanswered negated", Predicate{Key: "missing", Contains: "x", Negate: true}, true},
		{"contains on string", Predicate{Key: "mod", Contains: "module"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Match(answers))
		})
	}
}

func TestDefaultFlow_SkipsFrameworkWithoutBrowser(t *testing.T) {
	prompter := &ScriptedPrompter{Answers: Answers{
		KeyPatterns:  "src, lib",
		KeyModules:   "commonjs",
		KeyEnv:       []string{"node"},
		KeyFramework: "react",
	}}

	answers, err := DefaultFlow().Run(prompter)
	require.NoError(t, err)

	assert.Equal(t, []string{KeyPatterns, KeyModules, KeyEnv, KeyTypeScript, KeyFormat}, prompter.Asked)
	assert.NotContains(t, answers, KeyFramework)
	assert.Equal(t, "yaml", answers.String(KeyFormat))
	assert.False(t, answers.Bool(KeyTypeScript))

	cfg := ToConfigAnswers(answers)
	assert.Equal(t, []string{"src", "lib"}, cfg.Patterns)
	assert.Equal(t, lintconfig.SourceCommonJS, cfg.SourceType)
	assert.Equal(t, []lintconfig.Environment{lintconfig.EnvNode}, cfg.Env)
	assert.Equal(t, lintconfig.FrameworkNone, cfg.Framework)
}

func TestDefaultFlow_BrowserAsksFramework(t *testing.T) {
	prompter := &ScriptedPrompter{Answers: Answers{
		KeyFramework:  "vue",
		KeyTypeScript: true,
		KeyFormat:     "json",
	}}

	answers, err := DefaultFlow().Run(prompter)
	require.NoError(t, err)
	assert.Contains(t, prompter.Asked, KeyFramework)

	cfg := ToConfigAnswers(answers)
	assert.Equal(t, []string{"."}, cfg.Patterns)
	assert.Equal(t, lintconfig.FrameworkVue, cfg.Framework)
	assert.True(t, cfg.TypeScript)
	assert.Equal(t, "json", cfg.Format)

	built := lintconfig.Build(cfg)
	assert.True(t, built.HasEnv(lintconfig.EnvBrowser))
	assert.Equal(t, lintconfig.FrameworkVue, built.Framework)
}

func TestFlow_InvalidAnswers(t *testing.T) {
	tests := []struct {
		name    string
		answers Answers
	}{
		{"unknown option", Answers{KeyModules: "amd"}},
		{"wrong type", Answers{KeyTypeScript: "yes"}},
		{"empty required", Answers{KeyPatterns: "  "}},
		{"unknown env", Answers{KeyEnv: []string{"deno"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultFlow().Run(&ScriptedPrompter{Answers: tt.answers})
			assert.True(t, errors.Is(err, ErrInvalidAnswer), "%v", err)
		})
	}
}

type abortingPrompter struct{}

func (abortingPrompter) Ask(Question) (any, error) { return nil, ErrAborted }

func TestFlow_Aborted(t *testing.T) {
	_, err := DefaultFlow().Run(abortingPrompter{})
	assert.ErrorIs(t, err, ErrAborted)
}

func TestHuhPrompter_UnknownKind(t *testing.T) {
	_, err := HuhPrompter{Accessible: true}.Ask(Question{Key: "x", Kind: Kind(42)})
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}
