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

// semiStatements are statements terminated by a semicolon or by ASI.
var semiStatements = []string{
	"expression_statement",
	"lexical_declaration",
	"variable_declaration",
	"return_statement",
	"throw_statement",
	"break_statement",
	"continue_statement",
	"debugger_statement",
	"do_statement",
	"import_statement",
	"export_statement",
}

// Semi requires or disallows semicolons at the end of statements.
func Semi() *Rule {
	return &Rule{
		ID:          "semi",
		Description: "require or disallow semicolons instead of ASI",
		Schema: []OptionSchema{
			Enum("always", "never"),
			Object(BoolProp("omitLastInOneLineBlock")),
		},
		Compile: compileSemi,
	}
}

func compileSemi(options []any) (CheckFunc, error) {
	mode, err := enumOption(options, 0, "always", "always", "never")
	if err != nil {
		return nil, err
	}
	obj, err := objectOption(options, 1, "omitLastInOneLineBlock")
	if err != nil {
		return nil, err
	}
	omitLast, err := boolProp(obj, "omitLastInOneLineBlock", false)
	if err != nil {
		return nil, err
	}

	return func(src Source) []Finding {
		var findings []Finding
		each(src.Root, func(n *sitter.Node) {
			if !terminatedStatement(n) {
				return
			}
			last := lastChild(n)
			hasSemi := last != nil && last.Type() == ";"

			switch {
			case mode == "always" && !hasSemi:
				if omitLast && lastInOneLineBlock(n) {
					return
				}
				findings = append(findings, findingAfter(n, "Missing semicolon."))
			case mode == "always" && hasSemi && omitLast && lastInOneLineBlock(n):
				findings = append(findings, findingAt(last, "Extra semicolon."))
			case mode == "never" && hasSemi:
				if continuesNextStatement(n, src.Content) {
					return
				}
				findings = append(findings, findingAt(last, "Extra semicolon."))
			}
		}, semiStatements...)
		return findings
	}, nil
}

// terminatedStatement filters out statement nodes that never end with a
// semicolon of their own.
func terminatedStatement(n *sitter.Node) bool {
	parent := n.Parent()
	if isType(parent, "for_statement", "for_in_statement") {
		body := parent.ChildByFieldName("body")
		return body != nil && body.StartByte() == n.StartByte()
	}
	// export const x = 1; is checked through its declaration child.
	if n.Type() == "export_statement" && n.ChildByFieldName("declaration") != nil {
		return false
	}
	return true
}

func lastInOneLineBlock(n *sitter.Node) bool {
	parent := n.Parent()
	if !isType(parent, "statement_block", "class_body") || !singleLine(parent) {
		return false
	}
	next := n.NextSibling()
	for next != nil && next.Type() == "comment" {
		next = next.NextSibling()
	}
	return isType(next, "}")
}

// continuesNextStatement reports whether removing the semicolon would join
// n with the following statement.
func continuesNextStatement(n *sitter.Node, content []byte) bool {
	next := n.NextNamedSibling()
	for next != nil && next.Type() == "comment" {
		next = next.NextNamedSibling()
	}
	if next == nil {
		return false
	}
	start := next.StartByte()
	if int(start) >= len(content) {
		return false
	}
	switch content[start] {
	case '[', '(', '`', '+', '-', '/':
		return true
	}
	return false
}
