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

var braceOwners = []string{
	"function_declaration", "function_expression", "function",
	"generator_function_declaration", "method_definition",
	"if_statement", "else_clause",
	"for_statement", "for_in_statement", "while_statement", "do_statement",
	"try_statement", "catch_clause", "finally_clause",
	"class_declaration", "class",
}

// BraceStyle enforces a brace placement style for blocks.
func BraceStyle() *Rule {
	return &Rule{
		ID:          "brace-style",
		Description: "enforce consistent brace style for blocks",
		Schema: []OptionSchema{
			Enum("1tbs", "stroustrup", "allman"),
			Object(BoolProp("allowSingleLine")),
		},
		Compile: compileBraceStyle,
	}
}

func compileBraceStyle(options []any) (CheckFunc, error) {
	style, err := enumOption(options, 0, "1tbs", "1tbs", "stroustrup", "allman")
	if err != nil {
		return nil, err
	}
	obj, err := objectOption(options, 1, "allowSingleLine")
	if err != nil {
		return nil, err
	}
	allowSingleLine, err := boolProp(obj, "allowSingleLine", false)
	if err != nil {
		return nil, err
	}

	return func(src Source) []Finding {
		var findings []Finding
		each(src.Root, func(block *sitter.Node) {
			if !isType(block.Parent(), braceOwners...) {
				return
			}
			if allowSingleLine && singleLine(block) {
				return
			}
			prev := block.PrevSibling()
			for prev != nil && prev.Type() == "comment" {
				prev = prev.PrevSibling()
			}
			if prev == nil {
				return
			}
			sameLine := startRow(block) == endRow(prev)
			if style == "allman" && sameLine {
				findings = append(findings, findingAt(block, "Opening curly brace appears on the same line as controlling statement."))
			}
			if style != "allman" && !sameLine {
				findings = append(findings, findingAt(block, "Opening curly brace does not appear on the same line as controlling statement."))
			}
		}, "statement_block", "class_body")

		// Closing braces followed by else / catch / finally.
		each(src.Root, func(clause *sitter.Node) {
			prev := clause.PrevSibling()
			for prev != nil && prev.Type() == "comment" {
				prev = prev.PrevSibling()
			}
			if !isType(prev, "statement_block") {
				return
			}
			if allowSingleLine && singleLine(prev) {
				return
			}
			sameLine := endRow(prev) == startRow(clause)
			if style == "1tbs" && !sameLine {
				findings = append(findings, findingAt(clause, "Closing curly brace does not appear on the same line as the subsequent block."))
			}
			if style != "1tbs" && sameLine {
				findings = append(findings, findingAt(clause, "Closing curly brace appears on the same line as the subsequent block."))
			}
		}, "else_clause", "catch_clause", "finally_clause")
		return findings
	}, nil
}
