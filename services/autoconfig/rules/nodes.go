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

// walk visits n and its descendants depth-first in source order.
// Returning false from visit skips the node's children.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		walk(n.Child(i), visit)
	}
}

// each visits every node of the given types.
func each(root *sitter.Node, visit func(*sitter.Node), types ...string) {
	walk(root, func(n *sitter.Node) bool {
		if isType(n, types...) {
			visit(n)
		}
		return true
	})
}

func isType(n *sitter.Node, types ...string) bool {
	if n == nil {
		return false
	}
	t := n.Type()
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

func text(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(content)
}

func firstChild(n *sitter.Node) *sitter.Node {
	if n == nil || n.ChildCount() == 0 {
		return nil
	}
	return n.Child(0)
}

func lastChild(n *sitter.Node) *sitter.Node {
	if n == nil || n.ChildCount() == 0 {
		return nil
	}
	return n.Child(int(n.ChildCount()) - 1)
}

// lastNonComment returns the last child of n before index end that is not
// a comment.
func lastNonComment(n *sitter.Node, end int) *sitter.Node {
	for i := end - 1; i >= 0; i-- {
		c := n.Child(i)
		if c != nil && c.Type() != "comment" {
			return c
		}
	}
	return nil
}

func startRow(n *sitter.Node) uint32 { return n.StartPoint().Row }
func endRow(n *sitter.Node) uint32   { return n.EndPoint().Row }

func singleLine(n *sitter.Node) bool { return startRow(n) == endRow(n) }

// findingAt reports a violation at the start of n.
func findingAt(n *sitter.Node, message string) Finding {
	p := n.StartPoint()
	return Finding{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Message: message}
}

// findingAfter reports a violation just past the end of n.
func findingAfter(n *sitter.Node, message string) Finding {
	p := n.EndPoint()
	return Finding{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Message: message}
}

var functionTypes = []string{
	"function_declaration",
	"function_expression",
	"function",
	"generator_function_declaration",
	"generator_function",
	"arrow_function",
	"method_definition",
}
