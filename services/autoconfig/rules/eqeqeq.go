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
	sitter "github.com/smacker/go-tree-sitter"
)

// Eqeqeq requires strict equality operators.
func Eqeqeq() *Rule {
	return &Rule{
		ID:          "eqeqeq",
		Description: "require the use of === and !==",
		Schema: []OptionSchema{
			Enum("always", "smart"),
			Object(EnumProp("null", "always", "never", "ignore")),
		},
		Compile: compileEqeqeq,
	}
}

func compileEqeqeq(options []any) (CheckFunc, error) {
	mode, err := enumOption(options, 0, "always", "always", "smart")
	if err != nil {
		return nil, err
	}
	obj, err := objectOption(options, 1, "null")
	if err != nil {
		return nil, err
	}
	nullMode, err := enumProp(obj, "null", "always", "always", "never", "ignore")
	if err != nil {
		return nil, err
	}

	return func(src Source) []Finding {
		var findings []Finding
		each(src.Root, func(n *sitter.Node) {
			op := n.ChildByFieldName("operator")
			if op == nil {
				return
			}
			operator := text(op, src.Content)
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			withNull := isType(left, "null") || isType(right, "null")

			switch operator {
			case "==", "!=":
				if mode == "smart" && (withNull || isTypeof(left, src.Content) || isTypeof(right, src.Content) || (isLiteral(left) && isLiteral(right))) {
					return
				}
				if mode == "always" && withNull && nullMode != "always" {
					return
				}
				expected := "==="
				if operator == "!=" {
					expected = "!=="
				}
				findings = append(findings, findingAt(op, "Expected '"+expected+"' and instead saw '"+operator+"'."))
			case "===", "!==":
				if mode == "always" && withNull && nullMode == "never" {
					expected := "=="
					if operator == "!==" {
						expected = "!="
					}
					findings = append(findings, findingAt(op, "Expected '"+expected+"' and instead saw '"+operator+"'."))
				}
			}
		}, "binary_expression")
		return findings
	}, nil
}

func isTypeof(n *sitter.Node, content []byte) bool {
	if !isType(n, "unary_expression") {
		return false
	}
	op := n.ChildByFieldName("operator")
	return op != nil && text(op, content) == "typeof"
}

func isLiteral(n *sitter.Node) bool {
	return isType(n, "string", "number", "true", "false", "null", "template_string")
}
