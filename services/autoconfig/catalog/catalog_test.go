// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lintinfer/services/autoconfig/rules"
)

func keys(vs []Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Key()
	}
	return out
}

func TestEnumerate_QuoteStyle(t *testing.T) {
	rule := &rules.Rule{
		ID: "quotes",
		Schema: []rules.OptionSchema{
			rules.Enum("single", "double"),
			rules.Object(rules.Property{Name: "avoidEscape", Kind: rules.KindBoolean, Values: []any{true}}),
		},
	}

	variants, err := Enumerate(rule)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`[]`,
		`["single"]`,
		`["double"]`,
		`["single",{"avoidEscape":true}]`,
		`["double",{"avoidEscape":true}]`,
	}, keys(variants))

	for i, v := range variants {
		assert.Equal(t, i, v.Index)
		assert.Equal(t, "quotes", v.Rule)
	}
	assert.Equal(t, 1, variants[0].Specificity())
	assert.Equal(t, 2, variants[2].Specificity())
	assert.Equal(t, 3, variants[4].Specificity())
	assert.Equal(t, `quotes["double"]`, variants[2].ID())
}

func TestEnumerate_ObjectCombinations(t *testing.T) {
	rule := &rules.Rule{
		ID: "r",
		Schema: []rules.OptionSchema{
			rules.Object(rules.BoolProp("a"), rules.BoolProp("b")),
		},
	}

	variants, err := Enumerate(rule)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`[]`,
		`[{"a":true}]`,
		`[{"a":false}]`,
		`[{"b":true}]`,
		`[{"b":false}]`,
		`[{"a":true,"b":true}]`,
		`[{"a":false,"b":true}]`,
		`[{"a":true,"b":false}]`,
		`[{"a":false,"b":false}]`,
	}, keys(variants))
}

func TestEnumerate_ThirdPositionIgnored(t *testing.T) {
	rule := &rules.Rule{
		ID: "r",
		Schema: []rules.OptionSchema{
			rules.Enum("x"),
			rules.Enum("y"),
			{Kind: rules.KindString},
		},
	}
	variants, err := Enumerate(rule)
	require.NoError(t, err)
	assert.Equal(t, []string{`[]`, `["x"]`, `["x","y"]`}, keys(variants))
}

func TestEnumerate_Errors(t *testing.T) {
	many := make([]any, 20)
	for i := range many {
		many[i] = i
	}

	tests := []struct {
		name   string
		schema []rules.OptionSchema
		want   error
	}{
		{"empty enum", []rules.OptionSchema{rules.Enum()}, ErrMalformedSchema},
		{"free string", []rules.OptionSchema{{Kind: rules.KindString}}, ErrUnboundedSchema},
		{"free integer", []rules.OptionSchema{{Kind: rules.KindInteger}}, ErrUnboundedSchema},
		{"object without properties", []rules.OptionSchema{rules.Object()}, ErrMalformedSchema},
		{"nested object", []rules.OptionSchema{rules.Object(rules.Property{Name: "x", Kind: rules.KindObject})}, ErrMalformedSchema},
		{"unnamed property", []rules.OptionSchema{rules.Object(rules.Property{Kind: rules.KindBoolean})}, ErrMalformedSchema},
		{"unknown kind", []rules.OptionSchema{{Kind: rules.Kind(99)}}, ErrMalformedSchema},
		{"too many", []rules.OptionSchema{rules.Enum(many...), rules.Enum(many...)}, ErrUnboundedSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Enumerate(&rules.Rule{ID: "r", Schema: tt.schema})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestBuild(t *testing.T) {
	list := []*rules.Rule{
		{ID: "b-rule"},
		nil,
		{ID: "broken", Schema: []rules.OptionSchema{{Kind: rules.KindString}}},
		{ID: "a-rule", Schema: []rules.OptionSchema{rules.Enum("x", "y")}},
		{ID: "b-rule", Schema: []rules.OptionSchema{rules.Enum("ignored")}},
	}

	c, skipped := Build(list)
	assert.Equal(t, []string{"b-rule", "a-rule"}, c.Rules())
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.Has("a-rule"))
	assert.False(t, c.Has("broken"))
	assert.Len(t, c.Variants("b-rule"), 1)

	require.Len(t, skipped, 1)
	assert.Equal(t, "broken", skipped[0].Rule)
	assert.Contains(t, skipped[0].String(), "broken: option 0")

	all := c.All()
	require.Len(t, all, 4)
	assert.Equal(t, "b-rule", all[0].Rule)
	assert.Equal(t, `a-rule["y"]`, all[3].ID())
}

func TestFromSet_Builtin(t *testing.T) {
	first, skipped := FromSet(rules.Builtin())
	assert.Empty(t, skipped)
	assert.Len(t, first.Rules(), 12)

	second, _ := FromSet(rules.Builtin())
	assert.Equal(t, keys(first.All()), keys(second.All()), "catalog order is stable")

	ids := make(map[string]bool)
	for _, v := range first.All() {
		assert.False(t, ids[v.ID()], "duplicate variant %s", v.ID())
		ids[v.ID()] = true
		assert.LessOrEqual(t, v.Specificity(), MaxSpecificity)

		rule, ok := rules.Builtin().Get(v.Rule)
		require.True(t, ok)
		_, err := rule.Compile(v.Options)
		assert.NoError(t, err, "variant %s must compile", v.ID())
	}

	assert.Equal(t, []string{`[]`}, keys(first.Variants("no-var")))
}
