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

// Camelcase enforces camelCase names for declared identifiers.
func Camelcase() *Rule {
	return &Rule{
		ID:          "camelcase",
		Description: "enforce camelcase naming convention",
		Schema: []OptionSchema{
			Object(EnumProp("properties", "always", "never"), BoolProp("ignoreDestructuring")),
		},
		Compile: compileCamelcase,
	}
}

func compileCamelcase(options []any) (CheckFunc, error) {
	obj, err := objectOption(options, 0, "properties", "ignoreDestructuring")
	if err != nil {
		return nil, err
	}
	properties, err := enumProp(obj, "properties", "always", "always", "never")
	if err != nil {
		return nil, err
	}
	ignoreDestructuring, err := boolProp(obj, "ignoreDestructuring", false)
	if err != nil {
		return nil, err
	}

	return func(src Source) []Finding {
		var findings []Finding
		report := func(n *sitter.Node) {
			name := text(n, src.Content)
			if isUnderscored(name) {
				findings = append(findings, findingAt(n, "Identifier '"+name+"' is not in camel case."))
			}
		}

		walk(src.Root, func(n *sitter.Node) bool {
			switch n.Type() {
			case "variable_declarator":
				name := n.ChildByFieldName("name")
				switch {
				case isType(name, "identifier"):
					report(name)
				case isType(name, "object_pattern", "array_pattern") && !ignoreDestructuring:
					each(name, report, "shorthand_property_identifier_pattern", "identifier")
				}
			case "function_declaration", "generator_function_declaration", "class_declaration":
				if name := n.ChildByFieldName("name"); isType(name, "identifier") {
					report(name)
				}
			case "formal_parameters":
				count := int(n.NamedChildCount())
				for i := 0; i < count; i++ {
					param := n.NamedChild(i)
					if isType(param, "identifier") {
						report(param)
					}
					if isType(param, "assignment_pattern") {
						if left := param.ChildByFieldName("left"); isType(left, "identifier") {
							report(left)
						}
					}
				}
			case "pair":
				if properties == "always" {
					if key := n.ChildByFieldName("key"); isType(key, "property_identifier") {
						report(key)
					}
				}
			case "assignment_expression":
				if properties == "always" {
					left := n.ChildByFieldName("left")
					if isType(left, "member_expression") {
						if prop := left.ChildByFieldName("property"); isType(prop, "property_identifier") {
							report(prop)
						}
					}
				}
			}
			return true
		})
		return findings
	}, nil
}

// isUnderscored reports names with an inner underscore that are not
// CONSTANT_CASE. Leading and trailing underscores are ignored.
func isUnderscored(name string) bool {
	trimmed := strings.Trim(name, "_$")
	if !strings.Contains(trimmed, "_") {
		return false
	}
	return strings.ToUpper(trimmed) != trimmed
}
