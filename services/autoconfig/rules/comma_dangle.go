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

// CommaDangle requires or disallows trailing commas in bracketed lists.
func CommaDangle() *Rule {
	return &Rule{
		ID:          "comma-dangle",
		Description: "require or disallow trailing commas",
		Schema: []OptionSchema{
			Enum("never", "always", "always-multiline", "only-multiline"),
		},
		Compile: compileCommaDangle,
	}
}

func compileCommaDangle(options []any) (CheckFunc, error) {
	mode, err := enumOption(options, 0, "never", "never", "always", "always-multiline", "only-multiline")
	if err != nil {
		return nil, err
	}

	return func(src Source) []Finding {
		var findings []Finding
		each(src.Root, func(n *sitter.Node) {
			last, comma, closing := trailingParts(n)
			if last == nil {
				return
			}
			multiline := endRow(last) != startRow(closing)
			trailing := comma != nil

			switch mode {
			case "never":
				if trailing {
					findings = append(findings, findingAt(comma, "Unexpected trailing comma."))
				}
			case "always":
				if !trailing {
					findings = append(findings, findingAfter(last, "Missing trailing comma."))
				}
			case "always-multiline":
				if multiline && !trailing {
					findings = append(findings, findingAfter(last, "Missing trailing comma."))
				}
				if !multiline && trailing {
					findings = append(findings, findingAt(comma, "Unexpected trailing comma."))
				}
			case "only-multiline":
				if !multiline && trailing {
					findings = append(findings, findingAt(comma, "Unexpected trailing comma."))
				}
			}
		}, "array", "object", "array_pattern", "object_pattern", "named_imports", "export_clause")
		return findings
	}, nil
}

// trailingParts returns the last element of a bracketed list, the trailing
// comma after it (nil if absent) and the closing bracket. last is nil for
// empty lists.
func trailingParts(n *sitter.Node) (last, comma, closing *sitter.Node) {
	count := int(n.ChildCount())
	if count < 2 {
		return nil, nil, nil
	}
	closing = n.Child(count - 1)

	idx := count - 1
	for idx--; idx > 0; idx-- {
		c := n.Child(idx)
		if c.Type() == "comment" {
			continue
		}
		if c.Type() == "," {
			if comma != nil {
				// a hole such as [a,,]
				return nil, nil, nil
			}
			comma = c
			continue
		}
		return c, comma, closing
	}
	return nil, nil, nil
}
