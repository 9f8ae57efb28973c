// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lintconfig

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for configuration handling.
var (
	// ErrInvalidSeverity indicates a value that is not off/warn/error or 0/1/2.
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrInvalidRuleEntry indicates a malformed [severity, ...options] value.
	ErrInvalidRuleEntry = errors.New("invalid rule entry")
)

// =============================================================================
// AXES
// =============================================================================

// SourceType is the module kind of the analyzed sources.
type SourceType string

const (
	SourceModule   SourceType = "module"
	SourceCommonJS SourceType = "commonjs"
	SourceScript   SourceType = "script"
)

// Framework names a UI framework whose conventions affect analysis.
type Framework string

const (
	FrameworkNone  Framework = ""
	FrameworkReact Framework = "react"
	FrameworkVue   Framework = "vue"
)

// Environment names a set of predefined globals.
type Environment string

const (
	EnvBrowser Environment = "browser"
	EnvNode    Environment = "node"
	EnvES2022  Environment = "es2022"
)

// DefaultECMAVersion is the language version used when none is given.
const DefaultECMAVersion = "latest"

// =============================================================================
// RULE ENTRY
// =============================================================================

// RuleEntry is one rule's configuration: severity plus positional options.
type RuleEntry struct {
	Severity Severity
	Options  []any
}

// Value returns the serialized [severity, ...options] form.
func (e RuleEntry) Value() []any {
	out := make([]any, 0, len(e.Options)+1)
	out = append(out, e.Severity.String())
	out = append(out, e.Options...)
	return out
}

// ParseRuleEntry decodes a rule entry in any of the shapes ESLint accepts:
// a bare severity, or a list whose head is the severity.
func ParseRuleEntry(v any) (RuleEntry, error) {
	list, ok := v.([]any)
	if !ok {
		sev, err := ParseSeverity(v)
		if err != nil {
			return RuleEntry{}, err
		}
		return RuleEntry{Severity: sev}, nil
	}
	if len(list) == 0 {
		return RuleEntry{}, fmt.Errorf("%w: empty list", ErrInvalidRuleEntry)
	}
	sev, err := ParseSeverity(list[0])
	if err != nil {
		return RuleEntry{}, err
	}
	entry := RuleEntry{Severity: sev}
	if len(list) > 1 {
		entry.Options = append([]any(nil), list[1:]...)
	}
	return entry, nil
}

// =============================================================================
// CONFIG
// =============================================================================

// Config is a complete lint configuration.
//
// Description:
//
//	Each recognized axis has its own typed field. Values are built by
//	Build and transformed by methods that return copies; a Config is never
//	mutated after construction, so one value may be shared across
//	concurrent analyzer invocations.
//
// Thread Safety: Immutable by convention; safe to share.
type Config struct {
	SourceType  SourceType
	ECMAVersion string
	Env         []Environment
	Framework   Framework
	TypeChecked bool
	Extends     []string
	Rules       map[string]RuleEntry
}

// WithOnly returns a copy of c whose rule map contains exactly one rule.
func (c Config) WithOnly(rule string, entry RuleEntry) Config {
	out := c.clone()
	out.Rules = map[string]RuleEntry{rule: entry}
	return out
}

// WithRules returns a copy of c with the given rule map.
func (c Config) WithRules(rules map[string]RuleEntry) Config {
	out := c.clone()
	out.Rules = make(map[string]RuleEntry, len(rules))
	for k, v := range rules {
		out.Rules[k] = v
	}
	return out
}

// HasEnv reports whether env is enabled.
func (c Config) HasEnv(env Environment) bool {
	for _, e := range c.Env {
		if e == env {
			return true
		}
	}
	return false
}

// RuleIDs returns the configured rule IDs in sorted order.
func (c Config) RuleIDs() []string {
	ids := make([]string, 0, len(c.Rules))
	for id := range c.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c Config) clone() Config {
	out := c
	out.Env = append([]Environment(nil), c.Env...)
	out.Extends = append([]string(nil), c.Extends...)
	if c.Rules != nil {
		out.Rules = make(map[string]RuleEntry, len(c.Rules))
		for k, v := range c.Rules {
			out.Rules[k] = v
		}
	}
	return out
}

// =============================================================================
// DOCUMENT
// =============================================================================

// ParserOptions is the parserOptions block of a serialized configuration.
type ParserOptions struct {
	ECMAVersion  string          `json:"ecmaVersion" yaml:"ecmaVersion"`
	SourceType   string          `json:"sourceType" yaml:"sourceType"`
	ECMAFeatures map[string]bool `json:"ecmaFeatures,omitempty" yaml:"ecmaFeatures,omitempty"`
	Project      string          `json:"project,omitempty" yaml:"project,omitempty"`
}

// Document is the serializable shape of a Config, laid out as an
// .eslintrc file.
type Document struct {
	Env           map[string]bool  `json:"env" yaml:"env"`
	Extends       []string         `json:"extends,omitempty" yaml:"extends,omitempty"`
	Parser        string           `json:"parser,omitempty" yaml:"parser,omitempty"`
	ParserOptions ParserOptions    `json:"parserOptions" yaml:"parserOptions"`
	Plugins       []string         `json:"plugins,omitempty" yaml:"plugins,omitempty"`
	Rules         map[string][]any `json:"rules" yaml:"rules"`
}

// Document renders c in its serialized form.
func (c Config) Document() Document {
	doc := Document{
		Env:     make(map[string]bool, len(c.Env)),
		Extends: append([]string(nil), c.Extends...),
		Rules:   make(map[string][]any, len(c.Rules)),
		ParserOptions: ParserOptions{
			ECMAVersion: c.ECMAVersion,
			SourceType:  string(c.SourceType),
		},
	}
	if doc.ParserOptions.ECMAVersion == "" {
		doc.ParserOptions.ECMAVersion = DefaultECMAVersion
	}
	for _, e := range c.Env {
		doc.Env[string(e)] = true
	}
	// commonjs is a module system, not a parser source type.
	if c.SourceType == SourceCommonJS {
		doc.ParserOptions.SourceType = string(SourceScript)
		doc.Env["commonjs"] = true
	}
	if c.Framework == FrameworkReact {
		doc.ParserOptions.ECMAFeatures = map[string]bool{"jsx": true}
		doc.Plugins = append(doc.Plugins, "react")
	}
	if c.Framework == FrameworkVue {
		doc.Plugins = append(doc.Plugins, "vue")
	}
	if c.TypeChecked {
		doc.Parser = "@typescript-eslint/parser"
		doc.ParserOptions.Project = "./tsconfig.json"
		doc.Plugins = append(doc.Plugins, "@typescript-eslint")
	}
	for id, entry := range c.Rules {
		doc.Rules[id] = entry.Value()
	}
	return doc
}

// =============================================================================
// BUILDER
// =============================================================================

// Answers are the user's choices for each configuration axis.
type Answers struct {
	Patterns    []string
	SourceType  SourceType
	Env         []Environment
	Framework   Framework
	TypeScript  bool
	Format      string
	Extends     []string
	RuleOptions map[string]RuleEntry
}

// Build assembles a Config from answers.
//
// Description:
//
//	Pure function: the result depends only on a. Missing axes fall back to
//	module source type, the latest ECMAScript version and the es2022
//	environment. A framework is only kept when the browser environment is
//	selected. Environments are deduplicated and sorted.
//
// Inputs:
//
//	a - The collected answers
//
// Outputs:
//
//	Config - The assembled configuration
func Build(a Answers) Config {
	sourceType := a.SourceType
	if sourceType == "" {
		sourceType = SourceModule
	}

	seen := make(map[Environment]bool, len(a.Env)+1)
	env := make([]Environment, 0, len(a.Env)+1)
	for _, e := range append([]Environment{EnvES2022}, a.Env...) {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		env = append(env, e)
	}
	sort.Slice(env, func(i, j int) bool { return env[i] < env[j] })

	framework := a.Framework
	if !seen[EnvBrowser] {
		framework = FrameworkNone
	}

	rules := make(map[string]RuleEntry, len(a.RuleOptions))
	for id, entry := range a.RuleOptions {
		rules[id] = RuleEntry{
			Severity: entry.Severity,
			Options:  append([]any(nil), entry.Options...),
		}
	}

	return Config{
		SourceType:  sourceType,
		ECMAVersion: DefaultECMAVersion,
		Env:         env,
		Framework:   framework,
		TypeChecked: a.TypeScript,
		Extends:     append([]string(nil), a.Extends...),
		Rules:       rules,
	}
}

// =============================================================================
// BASELINE
// =============================================================================

// Baseline maps rule IDs to whether they are recommended at error severity.
type Baseline map[string]bool

// IsError reports whether rule is part of the error-level baseline.
func (b Baseline) IsError(rule string) bool {
	return b[rule]
}

// Merge returns a new baseline where overrides replace entries of b.
func (b Baseline) Merge(overrides map[string]bool) Baseline {
	out := make(Baseline, len(b)+len(overrides))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Recommended returns the IDs of error-level baseline rules, sorted.
func (b Baseline) Recommended() []string {
	ids := make([]string, 0, len(b))
	for id, isErr := range b {
		if isErr {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
