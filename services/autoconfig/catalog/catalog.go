// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog enumerates the option variants tried for each rule.
//
// A variant is one way to configure a rule: severity only, severity plus the
// first positional option, or severity plus the first two. The catalog is a
// pure function of the rules' declared option schemas and its order is
// stable across runs; later stages break ties by catalog order.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/AleutianAI/lintinfer/services/autoconfig/rules"
)

// MaxVariantsPerRule bounds the variants of a single rule. A schema that
// expands beyond it is treated as unbounded.
const MaxVariantsPerRule = 256

// MaxSpecificity is the highest specificity the catalog enumerates.
const MaxSpecificity = 3

var (
	// ErrUnboundedSchema indicates a schema without a finite candidate set.
	ErrUnboundedSchema = errors.New("unbounded option schema")

	// ErrMalformedSchema indicates a schema that cannot be enumerated.
	ErrMalformedSchema = errors.New("malformed option schema")
)

// =============================================================================
// VARIANT
// =============================================================================

// Variant is one candidate configuration of a rule.
//
// Options must not be mutated; variants are shared by every stage of a run.
type Variant struct {
	Rule    string
	Options []any

	// Index is the position of the variant in its rule's catalog order.
	Index int
}

// Specificity is 1 plus the number of option values.
func (v Variant) Specificity() int {
	return len(v.Options) + 1
}

// Key returns the canonical JSON encoding of the options.
//
// Object keys are sorted by encoding/json, so equal options give equal keys.
func (v Variant) Key() string {
	if len(v.Options) == 0 {
		return "[]"
	}
	data, err := json.Marshal(v.Options)
	if err != nil {
		return fmt.Sprintf("%v", v.Options)
	}
	return string(data)
}

// ID returns "rule" + Key, unique across the catalog.
func (v Variant) ID() string {
	return v.Rule + v.Key()
}

// String formats the variant as rule[options].
func (v Variant) String() string {
	return v.ID()
}

// =============================================================================
// CATALOG
// =============================================================================

// Skipped records a rule left out of the catalog.
type Skipped struct {
	Rule string
	Err  error
}

// String formats the skip as "rule: reason".
func (s Skipped) String() string {
	return fmt.Sprintf("%s: %v", s.Rule, s.Err)
}

// Catalog maps rules to their ordered variants.
//
// Thread Safety: Immutable after Build; safe to share.
type Catalog struct {
	order    []string
	variants map[string][]Variant
}

// Build enumerates the variants of every rule.
//
// Description:
//
//	For each rule, in input order, the variants are: the severity-only
//	variant, then one variant per candidate of the first option, then
//	every first-option candidate crossed with every second-option
//	candidate. Options past the second position are never set. Object
//	options expand to every non-empty combination of their properties.
//	Rules whose schema cannot be enumerated are returned as Skipped and
//	are absent from the catalog.
//
// Inputs:
//
//	list - Rules to catalog. Nil entries are ignored; duplicate IDs keep
//	       the first occurrence.
//
// Outputs:
//
//	*Catalog - The catalog. Never nil.
//	[]Skipped - Rules left out, in input order.
//
// Thread Safety: Pure function; safe for concurrent use.
func Build(list []*rules.Rule) (*Catalog, []Skipped) {
	c := &Catalog{variants: make(map[string][]Variant, len(list))}
	var skipped []Skipped

	for _, r := range list {
		if r == nil || r.ID == "" {
			continue
		}
		if _, seen := c.variants[r.ID]; seen {
			continue
		}
		variants, err := Enumerate(r)
		if err != nil {
			skipped = append(skipped, Skipped{Rule: r.ID, Err: err})
			continue
		}
		c.order = append(c.order, r.ID)
		c.variants[r.ID] = variants
	}
	return c, skipped
}

// FromSet catalogs every rule of set.
func FromSet(set *rules.Set) (*Catalog, []Skipped) {
	return Build(set.All())
}

// Enumerate returns the variants of a single rule.
//
// Errors wrap ErrUnboundedSchema or ErrMalformedSchema.
func Enumerate(r *rules.Rule) ([]Variant, error) {
	var positions [][]any
	for i, schema := range r.Schema {
		if i >= MaxSpecificity-1 {
			break
		}
		values, err := candidates(schema)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		positions = append(positions, values)
	}

	total := 1
	if len(positions) > 0 {
		total += len(positions[0])
	}
	if len(positions) > 1 {
		total += len(positions[0]) * len(positions[1])
	}
	if total > MaxVariantsPerRule {
		return nil, fmt.Errorf("%w: %d variants exceeds %d", ErrUnboundedSchema, total, MaxVariantsPerRule)
	}

	variants := make([]Variant, 0, total)
	add := func(options ...any) {
		variants = append(variants, Variant{Rule: r.ID, Options: options, Index: len(variants)})
	}

	add()
	if len(positions) > 0 {
		for _, first := range positions[0] {
			add(first)
		}
	}
	if len(positions) > 1 {
		for _, first := range positions[0] {
			for _, second := range positions[1] {
				add(first, second)
			}
		}
	}
	return variants, nil
}

// Len returns the total number of variants.
func (c *Catalog) Len() int {
	n := 0
	for _, vs := range c.variants {
		n += len(vs)
	}
	return n
}

// Rules returns the cataloged rule IDs in catalog order.
func (c *Catalog) Rules() []string {
	return append([]string(nil), c.order...)
}

// Has reports whether rule is cataloged.
func (c *Catalog) Has(rule string) bool {
	_, ok := c.variants[rule]
	return ok
}

// Variants returns the variants of rule in catalog order.
func (c *Catalog) Variants(rule string) []Variant {
	return append([]Variant(nil), c.variants[rule]...)
}

// All returns every variant, rule by rule, in catalog order.
func (c *Catalog) All() []Variant {
	out := make([]Variant, 0, c.Len())
	for _, id := range c.order {
		out = append(out, c.variants[id]...)
	}
	return out
}

// =============================================================================
// SCHEMA EXPANSION
// =============================================================================

func candidates(schema rules.OptionSchema) ([]any, error) {
	switch schema.Kind {
	case rules.KindObject:
		return objectCandidates(schema.Properties)
	default:
		return scalarCandidates(schema.Kind, schema.Values)
	}
}

func scalarCandidates(kind rules.Kind, values []any) ([]any, error) {
	switch kind {
	case rules.KindEnum:
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: enum without values", ErrMalformedSchema)
		}
		return values, nil
	case rules.KindBoolean:
		if len(values) == 0 {
			return []any{true, false}, nil
		}
		return values, nil
	case rules.KindInteger, rules.KindString:
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: %s without candidate values", ErrUnboundedSchema, kind)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("%w: unsupported kind %s", ErrMalformedSchema, kind)
	}
}

// objectCandidates returns every non-empty combination of property values.
// Combinations with fewer properties come first; within a size, earlier
// properties and earlier values come first.
func objectCandidates(props []rules.Property) ([]any, error) {
	if len(props) == 0 {
		return nil, fmt.Errorf("%w: object without properties", ErrMalformedSchema)
	}

	choices := make([][]any, len(props))
	size := 1
	for i, p := range props {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: property %d has no name", ErrMalformedSchema, i)
		}
		values, err := scalarCandidates(p.Kind, p.Values)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Name, err)
		}
		choices[i] = values
		size *= len(values) + 1
		if size > MaxVariantsPerRule+1 {
			return nil, fmt.Errorf("%w: object expands beyond %d combinations", ErrUnboundedSchema, MaxVariantsPerRule)
		}
	}

	type combo struct {
		set    int
		values map[string]any
	}
	var combos []combo

	// odometer over (absent, v0, v1, ...) per property, first property fastest
	digits := make([]int, len(props))
	for {
		carry := 0
		for ; carry < len(digits); carry++ {
			digits[carry]++
			if digits[carry] <= len(choices[carry]) {
				break
			}
			digits[carry] = 0
		}
		if carry == len(digits) {
			break
		}
		values := make(map[string]any)
		for i, d := range digits {
			if d > 0 {
				values[props[i].Name] = choices[i][d-1]
			}
		}
		combos = append(combos, combo{set: len(values), values: values})
	}

	sort.SliceStable(combos, func(i, j int) bool { return combos[i].set < combos[j].set })

	out := make([]any, len(combos))
	for i, c := range combos {
		out[i] = c.values
	}
	return out, nil
}
