// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"errors"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrInvalidOptions indicates options a rule cannot be configured with.
var ErrInvalidOptions = errors.New("invalid rule options")

// =============================================================================
// OPTION SCHEMA
// =============================================================================

// Kind is the value kind of an option position or object property.
type Kind int

const (
	// KindEnum is a fixed set of scalar values listed in Values.
	KindEnum Kind = iota

	// KindObject is an object whose Properties each take a value.
	KindObject

	// KindBoolean is true or false. Values defaults to [true, false].
	KindBoolean

	// KindInteger is a number. Unbounded unless Values lists candidates.
	KindInteger

	// KindString is free text. Unbounded unless Values lists candidates.
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Property is one documented key of an object option.
type Property struct {
	Name   string
	Kind   Kind
	Values []any
}

// OptionSchema describes one positional option of a rule.
type OptionSchema struct {
	Kind       Kind
	Values     []any
	Properties []Property
}

// Enum is shorthand for an enum option schema.
func Enum(values ...any) OptionSchema {
	return OptionSchema{Kind: KindEnum, Values: values}
}

// Object is shorthand for an object option schema.
func Object(props ...Property) OptionSchema {
	return OptionSchema{Kind: KindObject, Properties: props}
}

// BoolProp is shorthand for a boolean object property.
func BoolProp(name string) Property {
	return Property{Name: name, Kind: KindBoolean}
}

// EnumProp is shorthand for an enum object property.
func EnumProp(name string, values ...any) Property {
	return Property{Name: name, Kind: KindEnum, Values: values}
}

// =============================================================================
// RULE
// =============================================================================

// Finding is one rule violation.
type Finding struct {
	// Line is 1-indexed.
	Line int

	// Column is 1-indexed.
	Column int

	Message string
}

// Source is what a rule check inspects.
//
// Root must only be walked by the goroutine running the check.
type Source struct {
	Path    string
	Root    *sitter.Node
	Content []byte
}

// CheckFunc inspects one source file and returns its violations.
type CheckFunc func(src Source) []Finding

// Rule is a detection rule with a declared option schema.
type Rule struct {
	ID          string
	Description string

	// Recommended marks the rule as part of the error-level baseline.
	Recommended bool

	// Schema lists positional options. Empty means severity only.
	Schema []OptionSchema

	// Compile validates options and returns the configured check.
	// Errors wrap ErrInvalidOptions.
	Compile func(options []any) (CheckFunc, error)
}

// =============================================================================
// SET
// =============================================================================

// Set is an ordered collection of rules keyed by ID.
//
// Thread Safety: Immutable after construction; safe to share.
type Set struct {
	byID  map[string]*Rule
	order []string
}

// NewSet creates a set. Later rules with a duplicate ID replace earlier ones.
// All returns rules sorted by ID.
func NewSet(rules ...*Rule) *Set {
	s := &Set{byID: make(map[string]*Rule, len(rules))}
	for _, r := range rules {
		if r == nil || r.ID == "" {
			continue
		}
		if _, exists := s.byID[r.ID]; !exists {
			s.order = append(s.order, r.ID)
		}
		s.byID[r.ID] = r
	}
	sort.Strings(s.order)
	return s
}

// Builtin returns the built-in rule set.
func Builtin() *Set {
	return NewSet(
		BraceStyle(),
		Camelcase(),
		CommaDangle(),
		Curly(),
		Eqeqeq(),
		Indent(),
		NoConsole(),
		NoDebugger(),
		NoEmpty(),
		NoVar(),
		Quotes(),
		Semi(),
	)
}

// Get returns the rule with the given ID.
func (s *Set) Get(id string) (*Rule, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// All returns the rules sorted by ID.
func (s *Set) All() []*Rule {
	out := make([]*Rule, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

// IDs returns rule IDs in sorted order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.order) }

// Recommended maps every rule ID to its Recommended flag.
func (s *Set) Recommended() map[string]bool {
	out := make(map[string]bool, len(s.byID))
	for id, r := range s.byID {
		out[id] = r.Recommended
	}
	return out
}

// Filter returns a set with only the rules keep accepts.
func (s *Set) Filter(keep func(*Rule) bool) *Set {
	var kept []*Rule
	for _, r := range s.All() {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return NewSet(kept...)
}
