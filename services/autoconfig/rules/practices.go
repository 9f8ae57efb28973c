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
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

func noOptions(id string) func([]any) error {
	return func(options []any) error {
		if len(options) > 0 {
			return fmt.Errorf("%w: %s takes no options", ErrInvalidOptions, id)
		}
		return nil
	}
}

// nodeRule builds a severity-only rule that reports every node of the
// given types.
func nodeRule(id, description, message string, recommended bool, types ...string) *Rule {
	validate := noOptions(id)
	return &Rule{
		ID:          id,
		Description: description,
		Recommended: recommended,
		Compile: func(options []any) (CheckFunc, error) {
			if err := validate(options); err != nil {
				return nil, err
			}
			return func(src Source) []Finding {
				var findings []Finding
				each(src.Root, func(n *sitter.Node) {
					findings = append(findings, findingAt(n, message))
				}, types...)
				return findings
			}, nil
		},
	}
}

// NoVar disallows var declarations.
func NoVar() *Rule {
	return nodeRule("no-var", "require let or const instead of var",
		"Unexpected var, use let or const instead.", false, "variable_declaration")
}

// NoDebugger disallows debugger statements.
func NoDebugger() *Rule {
	return nodeRule("no-debugger", "disallow the use of debugger",
		"Unexpected 'debugger' statement.", true, "debugger_statement")
}

// NoConsole disallows calls on the console object.
func NoConsole() *Rule {
	validate := noOptions("no-console")
	return &Rule{
		ID:          "no-console",
		Description: "disallow the use of console",
		Compile: func(options []any) (CheckFunc, error) {
			if err := validate(options); err != nil {
				return nil, err
			}
			return func(src Source) []Finding {
				var findings []Finding
				each(src.Root, func(n *sitter.Node) {
					object := n.ChildByFieldName("object")
					if isType(object, "identifier") && text(object, src.Content) == "console" {
						findings = append(findings, findingAt(n, "Unexpected console statement."))
					}
				}, "member_expression")
				return findings
			}, nil
		},
	}
}

// NoEmpty disallows empty block statements.
func NoEmpty() *Rule {
	return &Rule{
		ID:          "no-empty",
		Description: "disallow empty block statements",
		Recommended: true,
		Schema: []OptionSchema{
			Object(BoolProp("allowEmptyCatch")),
		},
		Compile: compileNoEmpty,
	}
}

func compileNoEmpty(options []any) (CheckFunc, error) {
	obj, err := objectOption(options, 0, "allowEmptyCatch")
	if err != nil {
		return nil, err
	}
	allowEmptyCatch, err := boolProp(obj, "allowEmptyCatch", false)
	if err != nil {
		return nil, err
	}

	return func(src Source) []Finding {
		var findings []Finding
		each(src.Root, func(n *sitter.Node) {
			switch n.Type() {
			case "statement_block":
				if n.NamedChildCount() > 0 {
					// any statement, or a comment explaining the emptiness
					return
				}
				parent := n.Parent()
				if isType(parent, functionTypes...) {
					return
				}
				if allowEmptyCatch && isType(parent, "catch_clause") {
					return
				}
				findings = append(findings, findingAt(n, "Empty block statement."))
			case "switch_statement":
				body := n.ChildByFieldName("body")
				if body != nil && body.NamedChildCount() == 0 {
					findings = append(findings, findingAt(n, "Empty switch statement."))
				}
			}
		}, "statement_block", "switch_statement")
		return findings
	}, nil
}
