// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package interview collects the user's intent as a fixed sequence of typed
// questions. Whether a question is asked depends only on the answers
// collected before it.
package interview

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

var (
	// ErrAborted indicates the user cancelled the interview.
	ErrAborted = errors.New("interview aborted")

	// ErrInvalidAnswer indicates an answer of the wrong type or value.
	ErrInvalidAnswer = errors.New("invalid answer")
)

// Kind is the answer type of a question.
type Kind int

const (
	// Input is free text; answers are strings.
	Input Kind = iota

	// Select picks one option; answers are strings.
	Select

	// MultiSelect picks any options; answers are []string.
	MultiSelect

	// Confirm is yes or no; answers are bools.
	Confirm
)

// Option is one choice of a Select or MultiSelect question.
type Option struct {
	Label string
	Value string
}

// Predicate tests an earlier answer.
//
// Equals matches a string answer, or a bool answer formatted as "true" or
// "false". Contains matches a []string answer holding the value. A
// question whose key was not answered never matches, before Negate.
type Predicate struct {
	Key      string
	Equals   string
	Contains string
	Negate   bool
}

// Match evaluates p against answers.
func (p Predicate) Match(answers Answers) bool {
	matched := false
	switch v := answers[p.Key].(type) {
	case string:
		matched = p.Contains == "" && v == p.Equals
	case bool:
		matched = p.Contains == "" && fmt.Sprint(v) == p.Equals
	case []string:
		matched = p.Contains != "" && slices.Contains(v, p.Contains)
	}
	if p.Negate {
		return !matched
	}
	return matched
}

// Question is one step of a flow.
type Question struct {
	Key         string
	Kind        Kind
	Title       string
	Description string
	Options     []Option

	// Default is the answer when the prompter supplies none. Its type must
	// match Kind.
	Default any

	// Required rejects an empty Input or MultiSelect answer.
	Required bool

	// Skip omits the question when any predicate matches.
	Skip []Predicate
}

// Skipped reports whether q is omitted given the answers so far.
func (q Question) Skipped(answers Answers) bool {
	for _, p := range q.Skip {
		if p.Match(answers) {
			return true
		}
	}
	return false
}

// check validates an answer's type, options and emptiness.
func (q Question) check(answer any) error {
	values := make([]string, len(q.Options))
	for i, o := range q.Options {
		values[i] = o.Value
	}

	switch q.Kind {
	case Input:
		s, ok := answer.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects text, got %T", ErrInvalidAnswer, q.Key, answer)
		}
		if q.Required && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidAnswer, q.Key)
		}
	case Select:
		s, ok := answer.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects one option, got %T", ErrInvalidAnswer, q.Key, answer)
		}
		if !slices.Contains(values, s) {
			return fmt.Errorf("%w: %s has no option %q", ErrInvalidAnswer, q.Key, s)
		}
	case MultiSelect:
		list, ok := answer.([]string)
		if !ok {
			return fmt.Errorf("%w: %s expects options, got %T", ErrInvalidAnswer, q.Key, answer)
		}
		for _, s := range list {
			if !slices.Contains(values, s) {
				return fmt.Errorf("%w: %s has no option %q", ErrInvalidAnswer, q.Key, s)
			}
		}
		if q.Required && len(list) == 0 {
			return fmt.Errorf("%w: %s needs at least one option", ErrInvalidAnswer, q.Key)
		}
	case Confirm:
		if _, ok := answer.(bool); !ok {
			return fmt.Errorf("%w: %s expects yes or no, got %T", ErrInvalidAnswer, q.Key, answer)
		}
	default:
		return fmt.Errorf("%w: %s has unknown kind %d", ErrInvalidAnswer, q.Key, q.Kind)
	}
	return nil
}

// Answers maps question keys to answers.
type Answers map[string]any

// String returns the string answer for key, or "".
func (a Answers) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Strings returns the []string answer for key, or nil.
func (a Answers) Strings(key string) []string {
	list, _ := a[key].([]string)
	return list
}

// Bool returns the bool answer for key, or false.
func (a Answers) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Prompter asks a single question and returns the answer.
//
// Returning nil means "use the default".
type Prompter interface {
	Ask(q Question) (any, error)
}

// Flow is an ordered question sequence.
type Flow struct {
	Questions []Question
}

// Run asks every question not skipped, in order.
//
// Description:
//
//	Skip predicates see only answers collected before the question.
//	Skipped questions leave no answer. A nil answer from the prompter
//	takes the question's default.
//
// Outputs:
//
//	Answers - Collected answers
//	error - ErrAborted, ErrInvalidAnswer, or the prompter's error
func (f Flow) Run(p Prompter) (Answers, error) {
	answers := make(Answers, len(f.Questions))
	for _, q := range f.Questions {
		if q.Skipped(answers) {
			continue
		}
		answer, err := p.Ask(q)
		if err != nil {
			return nil, err
		}
		if answer == nil {
			answer = q.Default
		}
		if answer == nil {
			continue
		}
		if err := q.check(answer); err != nil {
			return nil, err
		}
		answers[q.Key] = answer
	}
	return answers, nil
}

// =============================================================================
// DEFAULT FLOW
// =============================================================================

// Question keys of DefaultFlow.
const (
	KeyPatterns   = "patterns"
	KeyModules    = "modules"
	KeyEnv        = "env"
	KeyFramework  = "framework"
	KeyTypeScript = "typescript"
	KeyFormat     = "format"
)

// DefaultFlow asks for the files to sample, the module system, the target
// environments, a framework when the browser is targeted, TypeScript and
// the output format.
func DefaultFlow() Flow {
	return Flow{Questions: []Question{
		{
			Key:         KeyPatterns,
			Kind:        Input,
			Title:       "Which files should be sampled?",
			Description: "Directories or globs, separated by commas or spaces.",
			Default:     ".",
			Required:    true,
		},
		{
			Key:   KeyModules,
			Kind:  Select,
			Title: "What type of modules does the project use?",
			Options: []Option{
				{Label: "JavaScript modules (import/export)", Value: string(lintconfig.SourceModule)},
				{Label: "CommonJS (require/exports)", Value: string(lintconfig.SourceCommonJS)},
				{Label: "None of these", Value: string(lintconfig.SourceScript)},
			},
			Default: string(lintconfig.SourceModule),
		},
		{
			Key:   KeyEnv,
			Kind:  MultiSelect,
			Title: "Where does the code run?",
			Options: []Option{
				{Label: "Browser", Value: string(lintconfig.EnvBrowser)},
				{Label: "Node", Value: string(lintconfig.EnvNode)},
			},
			Default: []string{string(lintconfig.EnvBrowser)},
		},
		{
			Key:   KeyFramework,
			Kind:  Select,
			Title: "Which framework does the project use?",
			Options: []Option{
				{Label: "React", Value: string(lintconfig.FrameworkReact)},
				{Label: "Vue.js", Value: string(lintconfig.FrameworkVue)},
				{Label: "None of these", Value: "none"},
			},
			Default: "none",
			Skip:    []Predicate{{Key: KeyEnv, Contains: string(lintconfig.EnvBrowser), Negate: true}},
		},
		{
			Key:     KeyTypeScript,
			Kind:    Confirm,
			Title:   "Does the project use TypeScript?",
			Default: false,
		},
		{
			Key:   KeyFormat,
			Kind:  Select,
			Title: "What format should the configuration be written in?",
			Options: []Option{
				{Label: "YAML", Value: "yaml"},
				{Label: "JSON", Value: "json"},
			},
			Default: "yaml",
		},
	}}
}

// ToConfigAnswers converts DefaultFlow answers to builder input.
func ToConfigAnswers(a Answers) lintconfig.Answers {
	out := lintconfig.Answers{
		Patterns:   strings.FieldsFunc(a.String(KeyPatterns), func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }),
		SourceType: lintconfig.SourceType(a.String(KeyModules)),
		TypeScript: a.Bool(KeyTypeScript),
		Format:     a.String(KeyFormat),
	}
	for _, env := range a.Strings(KeyEnv) {
		out.Env = append(out.Env, lintconfig.Environment(env))
	}
	if fw := a.String(KeyFramework); fw != "" && fw != "none" {
		out.Framework = lintconfig.Framework(fw)
	}
	return out
}
