// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/lintinfer/pkg/ux"
	"github.com/AleutianAI/lintinfer/services/autoconfig/catalog"
	"github.com/AleutianAI/lintinfer/services/autoconfig/rules"
)

func newCatalogCmd(a *app) *cobra.Command {
	var showVariants bool
	cmd := &cobra.Command{
		Use:   "catalog [rules...]",
		Short: "List the rules and the variants inference would try",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := rules.Builtin()
			if len(args) > 0 {
				want := make(map[string]bool, len(args))
				for _, id := range args {
					if _, ok := set.Get(id); !ok {
						return fmt.Errorf("unknown rule %q", id)
					}
					want[id] = true
				}
				set = set.Filter(func(r *rules.Rule) bool { return want[r.ID] })
			}

			cat, skipped := catalog.FromSet(set)
			fmt.Fprintln(a.stdout, catalogTable(set, cat, a.mode))
			if showVariants {
				for _, id := range cat.Rules() {
					fmt.Fprintln(a.stdout, variantTable(id, cat.Variants(id), a.mode))
				}
			}
			if len(skipped) > 0 {
				lines := make([]string, len(skipped))
				for i, s := range skipped {
					lines[i] = s.String()
				}
				a.printer.WarningBox("Rules without variants", strings.Join(lines, "\n"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showVariants, "variants", false, "list every variant of each rule")
	return cmd
}

func catalogTable(set *rules.Set, cat *catalog.Catalog, mode ux.Mode) string {
	tbl := ux.NewTable(mode)
	tbl.Title("Rule catalog")
	tbl.Header("Rule", "Variants", "Recommended", "Description")
	for _, r := range set.All() {
		count := "-"
		if cat.Has(r.ID) {
			count = fmt.Sprint(len(cat.Variants(r.ID)))
		}
		recommended := ""
		if r.Recommended {
			recommended = "yes"
		}
		tbl.Row(r.ID, count, recommended, r.Description)
	}
	tbl.AlignRight(2)
	tbl.Footer("", cat.Len(), "", "")
	return tbl.String()
}

func variantTable(rule string, variants []catalog.Variant, mode ux.Mode) string {
	tbl := ux.NewTable(mode)
	tbl.Title(rule)
	tbl.Header("#", "Specificity", "Options")
	for _, v := range variants {
		tbl.Row(v.Index, v.Specificity(), v.Key())
	}
	return tbl.String()
}
