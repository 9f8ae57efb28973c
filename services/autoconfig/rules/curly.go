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

// Curly enforces braces around control statement bodies.
func Curly() *Rule {
	return &Rule{
		ID:          "curly",
		Description: "enforce consistent brace style for all control statements",
		Schema: []OptionSchema{
			Enum("all", "multi", "multi-line"),
		},
		Compile: compileCurly,
	}
}

func compileCurly(options []any) (CheckFunc, error) {
	mode, err := enumOption(options, 0, "all", "all", "multi", "multi-line")
	if err != nil {
		return nil, err
	}

	return func(src Source) []Finding {
		var findings []Finding
		check := func(owner, body *sitter.Node, keyword string) {
			if body == nil {
				return
			}
			braced := body.Type() == "statement_block"
			switch mode {
			case "all":
				if !braced {
					findings = append(findings, findingAt(body, "Expected { after '"+keyword+"'."))
				}
			case "multi":
				if braced && body.NamedChildCount() == 1 && !isType(body.NamedChild(0), "lexical_declaration", "class_declaration", "function_declaration") {
					findings = append(findings, findingAt(body, "Unnecessary { after '"+keyword+"'."))
				}
			case "multi-line":
				if !braced && startRow(body) != startRow(owner) {
					findings = append(findings, findingAt(body, "Expected { after '"+keyword+"'."))
				}
			}
		}

		walk(src.Root, func(n *sitter.Node) bool {
			switch n.Type() {
			case "if_statement":
				check(n, n.ChildByFieldName("consequence"), "if")
			case "else_clause":
				if body := lastChild(n); body != nil && body.Type() != "if_statement" {
					check(n, body, "else")
				}
			case "for_statement", "for_in_statement":
				check(n, n.ChildByFieldName("body"), "for")
			case "while_statement":
				check(n, n.ChildByFieldName("body"), "while")
			case "do_statement":
				check(n, n.ChildByFieldName("body"), "do")
			}
			return true
		})
		return findings
	}, nil
}
