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
	"bytes"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Indent enforces the indentation unit of each line.
//
// Only the unit is checked: tabs versus spaces, and for spaces that the
// leading whitespace is a multiple of the width. Nesting depth is not
// verified. Lines inside comments, template literals and multi-line
// strings are ignored.
func Indent() *Rule {
	return &Rule{
		ID:          "indent",
		Description: "enforce consistent indentation",
		Schema: []OptionSchema{
			Enum(4, 2, "tab"),
		},
		Compile: compileIndent,
	}
}

func compileIndent(options []any) (CheckFunc, error) {
	width := 4
	useTabs := false
	if v, ok := optionAt(options, 0); ok {
		if s, isString := v.(string); isString {
			if s != "tab" {
				return nil, fmt.Errorf("%w: indent must be \"tab\" or a positive integer, got %q", ErrInvalidOptions, s)
			}
			useTabs = true
		} else {
			n, isInt := intValue(v)
			if !isInt || n <= 0 {
				return nil, fmt.Errorf("%w: indent must be \"tab\" or a positive integer, got %v", ErrInvalidOptions, v)
			}
			width = n
		}
	}

	return func(src Source) []Finding {
		skip := verbatimRows(src.Root)
		var findings []Finding
		for i, line := range bytes.Split(src.Content, []byte("\n")) {
			if skip[uint32(i)] {
				continue
			}
			line = bytes.TrimSuffix(line, []byte("\r"))
			lead := line[:len(line)-len(bytes.TrimLeft(line, " \t"))]
			if len(lead) == len(line) || len(lead) == 0 {
				continue
			}
			f := Finding{Line: i + 1, Column: 1}
			switch {
			case useTabs && bytes.IndexByte(lead, ' ') >= 0:
				f.Message = "Expected indentation of tab characters but found spaces."
			case !useTabs && bytes.IndexByte(lead, '\t') >= 0:
				f.Message = fmt.Sprintf("Expected indentation of %d spaces but found tabs.", width)
			case !useTabs && len(lead)%width != 0:
				f.Message = fmt.Sprintf("Expected indentation in multiples of %d spaces but found %d.", width, len(lead))
			default:
				continue
			}
			findings = append(findings, f)
		}
		return findings
	}, nil
}

// verbatimRows returns the rows whose leading whitespace belongs to a
// comment, template literal or string rather than to indentation.
func verbatimRows(root *sitter.Node) map[uint32]bool {
	rows := make(map[uint32]bool)
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "comment", "template_string", "string", "jsx_text":
			for r := startRow(n) + 1; r <= endRow(n); r++ {
				rows[r] = true
			}
			return false
		}
		return true
	})
	return rows
}
