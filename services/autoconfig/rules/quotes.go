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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Quotes enforces one quote character for string literals.
func Quotes() *Rule {
	return &Rule{
		ID:          "quotes",
		Description: "enforce the consistent use of either backticks, double, or single quotes",
		Schema: []OptionSchema{
			Enum("double", "single", "backtick"),
			Object(BoolProp("avoidEscape"), BoolProp("allowTemplateLiterals")),
		},
		Compile: compileQuotes,
	}
}

func compileQuotes(options []any) (CheckFunc, error) {
	style, err := enumOption(options, 0, "double", "double", "single", "backtick")
	if err != nil {
		return nil, err
	}
	obj, err := objectOption(options, 1, "avoidEscape", "allowTemplateLiterals")
	if err != nil {
		return nil, err
	}
	avoidEscape, err := boolProp(obj, "avoidEscape", false)
	if err != nil {
		return nil, err
	}
	allowTemplates, err := boolProp(obj, "allowTemplateLiterals", false)
	if err != nil {
		return nil, err
	}

	quote := map[string]byte{"double": '"', "single": '\'', "backtick": '`'}[style]
	message := "Strings must use " + map[string]string{
		"double":   "doublequote",
		"single":   "singlequote",
		"backtick": "backtick",
	}[style] + "."

	return func(src Source) []Finding {
		var findings []Finding
		walk(src.Root, func(n *sitter.Node) bool {
			switch n.Type() {
			case "string":
				raw := text(n, src.Content)
				if len(raw) < 2 || raw[0] == quote {
					return false
				}
				if isType(n.Parent(), "jsx_attribute") {
					return false
				}
				inner := raw[1 : len(raw)-1]
				if quote == '`' {
					if stringNeedsPlainQuotes(n) {
						return false
					}
					if avoidEscape && (strings.ContainsRune(inner, '`') || strings.Contains(inner, "${")) {
						return false
					}
				} else if avoidEscape && strings.IndexByte(inner, quote) >= 0 {
					return false
				}
				findings = append(findings, findingAt(n, message))
				return false

			case "template_string":
				if quote == '`' || allowTemplates {
					return true
				}
				raw := text(n, src.Content)
				if templateHasSubstitution(n) || strings.Contains(raw, "\n") {
					return true
				}
				if isType(n.Parent(), "call_expression") {
					return true
				}
				if avoidEscape && strings.IndexByte(raw[1:len(raw)-1], quote) >= 0 {
					return false
				}
				findings = append(findings, findingAt(n, message))
				return false
			}
			return true
		})
		return findings
	}, nil
}

// stringNeedsPlainQuotes reports positions where a template literal is not
// allowed: directives, module specifiers and property keys.
func stringNeedsPlainQuotes(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "expression_statement", "import_statement", "export_statement", "literal_type":
		return true
	case "pair", "pair_pattern":
		key := parent.ChildByFieldName("key")
		return key != nil && key.StartByte() == n.StartByte()
	}
	return false
}

func templateHasSubstitution(n *sitter.Node) bool {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if isType(n.Child(i), "template_substitution") {
			return true
		}
	}
	return false
}
