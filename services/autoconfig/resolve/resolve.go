// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resolve picks one winning variant per rule from an evaluated
// registry.
package resolve

import (
	"sort"

	"github.com/AleutianAI/lintinfer/services/autoconfig/catalog"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/registry"
)

// Tier identifies the step of the priority ladder that decided a rule.
// Higher tiers overwrite lower ones.
type Tier int

const (
	// TierFallback covers rules with no Passing variant.
	TierFallback Tier = iota + 1

	// TierDefault is a Passing severity-only variant.
	TierDefault

	// TierThreeOption is a Passing variant with two options.
	TierThreeOption

	// TierTwoOption is a Passing variant with one option. It outranks
	// TierThreeOption.
	TierTwoOption

	// TierUniqueSurvivor is the only Passing variant of its rule.
	TierUniqueSurvivor
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierFallback:
		return "fallback"
	case TierDefault:
		return "default"
	case TierThreeOption:
		return "three-option"
	case TierTwoOption:
		return "two-option"
	case TierUniqueSurvivor:
		return "unique-survivor"
	default:
		return "unknown"
	}
}

// Choice is the resolved configuration of one rule.
type Choice struct {
	Rule  string
	Entry lintconfig.RuleEntry
	Tier  Tier

	// Variant is the winning variant; nil for TierFallback.
	Variant *catalog.Variant

	// Survivors is the number of Passing variants of the rule.
	Survivors int
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	// Rules holds exactly one choice per resolved rule.
	Rules map[string]Choice

	// Failing lists rules with no Passing variant, in catalog order.
	Failing []string
}

// RuleIDs returns the resolved rule IDs sorted.
func (r Resolution) RuleIDs() []string {
	ids := make([]string, 0, len(r.Rules))
	for id := range r.Rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns the rule map of the resolution.
func (r Resolution) Entries() map[string]lintconfig.RuleEntry {
	out := make(map[string]lintconfig.RuleEntry, len(r.Rules))
	for id, c := range r.Rules {
		out[id] = c.Entry
	}
	return out
}

// Enabled returns the number of choices with an enabled severity.
func (r Resolution) Enabled() int {
	n := 0
	for _, c := range r.Rules {
		if c.Entry.Severity.Enabled() {
			n++
		}
	}
	return n
}

// Resolve applies the priority ladder to an evaluated registry.
//
// Description:
//
//	Tiers are applied from lowest to highest, each overwriting earlier
//	choices for the same rule:
//
//	  1. rules with no Passing variant get error if baseline marks them
//	     as error, else off, with no options
//	  2. the first Passing severity-only variant
//	  3. the first Passing two-option variant
//	  4. the first Passing one-option variant
//	  5. the Passing variant of rules that have exactly one
//
//	"First" is catalog order. The unique-survivor count spans every
//	specificity of the rule.
//
// Thread Safety: Pure over the registry's recorded statuses.
func Resolve(reg *registry.Registry, baseline lintconfig.Baseline) Resolution {
	res := Resolution{
		Rules:   make(map[string]Choice),
		Failing: reg.FailingRules(),
	}

	for _, rule := range res.Failing {
		severity := lintconfig.SeverityOff
		if baseline.IsError(rule) {
			severity = lintconfig.SeverityError
		}
		res.Rules[rule] = Choice{
			Rule:  rule,
			Entry: lintconfig.RuleEntry{Severity: severity},
			Tier:  TierFallback,
		}
	}

	pruned := reg.PruneFailingVariants()
	survivors := func(rule string) int { return len(pruned.Variants(rule)) }

	tiers := []struct {
		tier        Tier
		specificity int
	}{
		{TierDefault, 1},
		{TierThreeOption, 3},
		{TierTwoOption, 2},
	}
	for _, t := range tiers {
		for rule, variants := range pruned.VariantsAtSpecificity(t.specificity) {
			res.Rules[rule] = choose(variants[0], t.tier, survivors(rule))
		}
	}

	for _, rule := range pruned.Rules() {
		if variants := pruned.Variants(rule); len(variants) == 1 {
			res.Rules[rule] = choose(variants[0], TierUniqueSurvivor, 1)
		}
	}

	return res
}

func choose(v catalog.Variant, tier Tier, survivors int) Choice {
	var options []any
	if len(v.Options) > 0 {
		options = append([]any(nil), v.Options...)
	}
	return Choice{
		Rule:      v.Rule,
		Entry:     lintconfig.RuleEntry{Severity: lintconfig.SeverityError, Options: options},
		Tier:      tier,
		Variant:   &v,
		Survivors: survivors,
	}
}
