// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry evaluates catalog variants against a corpus and records
// which of them pass.
package registry

import (
	"runtime"
	"sync/atomic"

	"github.com/AleutianAI/lintinfer/services/autoconfig/catalog"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the evaluation outcome of a variant.
type Status int32

const (
	// Untested means the variant has not been evaluated.
	Untested Status = iota

	// Passing means the analyzer reported nothing on any corpus entry.
	Passing

	// Failing means at least one diagnostic, or an analyzer failure.
	Failing
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Untested:
		return "untested"
	case Passing:
		return "passing"
	case Failing:
		return "failing"
	default:
		return "unknown"
	}
}

// cell holds one variant and its status. The status moves from Untested
// exactly once.
type cell struct {
	variant catalog.Variant
	status  atomic.Int32
}

func (c *cell) load() Status {
	return Status(c.status.Load())
}

// publish sets the final status. It returns false if already set.
func (c *cell) publish(s Status) bool {
	return c.status.CompareAndSwap(int32(Untested), int32(s))
}

// =============================================================================
// REGISTRY
// =============================================================================

// VerdictStore memoizes variant outcomes across evaluations.
//
// Keys identify the corpus, analyzer, base configuration and variant, so a
// stored verdict is valid for any later evaluation with the same key.
type VerdictStore interface {
	Lookup(key string) (passing bool, ok bool)
	Store(key string, passing bool)
}

// Registry holds every cataloged variant and its status.
//
// Description:
//
//	Populate seeds the registry from a catalog; Evaluate assigns a status
//	to every untested variant. Query methods read the recorded statuses
//	and never trigger evaluation.
//
// Thread Safety: Query methods are safe for concurrent use. Populate must
// not run concurrently with Evaluate or queries.
type Registry struct {
	order    []string
	cells    map[string][]*cell
	workers  int
	verdicts VerdictStore
}

// Option configures a Registry.
type Option func(*Registry)

// WithWorkers bounds the number of concurrent variant evaluations.
// Values below 1 mean runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithVerdicts sets a verdict memo consulted before invoking the analyzer.
func WithVerdicts(store VerdictStore) Option {
	return func(r *Registry) {
		r.verdicts = store
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		cells:   make(map[string][]*cell),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Populate replaces the registry contents with every variant of c, all
// Untested.
func (r *Registry) Populate(c *catalog.Catalog) {
	r.order = c.Rules()
	r.cells = make(map[string][]*cell, len(r.order))
	for _, rule := range r.order {
		variants := c.Variants(rule)
		cells := make([]*cell, len(variants))
		for i, v := range variants {
			cells[i] = &cell{variant: v}
		}
		r.cells[rule] = cells
	}
}

// Workers returns the worker pool size.
func (r *Registry) Workers() int { return r.workers }

// Len returns the number of variants.
func (r *Registry) Len() int {
	n := 0
	for _, cells := range r.cells {
		n += len(cells)
	}
	return n
}

// Rules returns the rule IDs in catalog order.
func (r *Registry) Rules() []string {
	return append([]string(nil), r.order...)
}

// Variants returns every variant of rule in catalog order.
func (r *Registry) Variants(rule string) []catalog.Variant {
	cells := r.cells[rule]
	out := make([]catalog.Variant, len(cells))
	for i, c := range cells {
		out[i] = c.variant
	}
	return out
}

// Status returns the status of v, or Untested if v is not registered.
func (r *Registry) Status(v catalog.Variant) Status {
	cells := r.cells[v.Rule]
	if v.Index < 0 || v.Index >= len(cells) {
		return Untested
	}
	return cells[v.Index].load()
}

// Counts returns how many variants of rule have each status.
func (r *Registry) Counts(rule string) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, c := range r.cells[rule] {
		counts[c.load()]++
	}
	return counts
}

// FailingRules returns the rules with no Passing variant, in catalog order.
func (r *Registry) FailingRules() []string {
	var out []string
	for _, rule := range r.order {
		passing := false
		for _, c := range r.cells[rule] {
			if c.load() == Passing {
				passing = true
				break
			}
		}
		if !passing {
			out = append(out, rule)
		}
	}
	return out
}

// PruneFailingVariants returns a view holding only Passing variants. Rules
// without a Passing variant are absent from the view.
func (r *Registry) PruneFailingVariants() *View {
	v := &View{variants: make(map[string][]catalog.Variant)}
	for _, rule := range r.order {
		var passing []catalog.Variant
		for _, c := range r.cells[rule] {
			if c.load() == Passing {
				passing = append(passing, c.variant)
			}
		}
		if len(passing) == 0 {
			continue
		}
		v.order = append(v.order, rule)
		v.variants[rule] = passing
	}
	return v
}

// VariantsAtSpecificity returns, per rule, the Passing variants with the
// given specificity. Rules without one are absent.
func (r *Registry) VariantsAtSpecificity(level int) map[string][]catalog.Variant {
	return r.PruneFailingVariants().VariantsAtSpecificity(level)
}

// =============================================================================
// VIEW
// =============================================================================

// View is an immutable snapshot of the Passing variants of a registry.
type View struct {
	order    []string
	variants map[string][]catalog.Variant
}

// Rules returns the rules with at least one Passing variant.
func (v *View) Rules() []string {
	return append([]string(nil), v.order...)
}

// Has reports whether rule has a Passing variant.
func (v *View) Has(rule string) bool {
	_, ok := v.variants[rule]
	return ok
}

// Variants returns the Passing variants of rule in catalog order.
func (v *View) Variants(rule string) []catalog.Variant {
	return append([]catalog.Variant(nil), v.variants[rule]...)
}

// Len returns the number of Passing variants.
func (v *View) Len() int {
	n := 0
	for _, vs := range v.variants {
		n += len(vs)
	}
	return n
}

// VariantsAtSpecificity returns, per rule, the variants with the given
// specificity in catalog order.
func (v *View) VariantsAtSpecificity(level int) map[string][]catalog.Variant {
	out := make(map[string][]catalog.Variant)
	for _, rule := range v.order {
		for _, variant := range v.variants[rule] {
			if variant.Specificity() == level {
				out[rule] = append(out[rule], variant)
			}
		}
	}
	return out
}
