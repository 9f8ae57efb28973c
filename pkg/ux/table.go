// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Table builds a table once and renders it for a Mode.
//
// Machine mode writes its own TSV so cells holding JSON, such as option
// keys, appear unquoted.
type Table struct {
	writer table.Writer
	mode   Mode
	title  string
	lines  [][]any
}

// NewTable creates a table. ModeRich uses rounded box drawing, ModePlain
// light box drawing, and ModeMachine tab-separated values.
func NewTable(mode Mode) *Table {
	w := table.NewWriter()
	switch mode {
	case ModeRich:
		w.SetStyle(table.StyleRounded)
	default:
		w.SetStyle(table.StyleLight)
	}
	return &Table{writer: w, mode: mode}
}

// Title sets the caption printed above the table. Machine mode omits it.
func (t *Table) Title(title string) {
	t.title = title
}

// Header sets the column headers.
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
	t.lines = append(t.lines, row)
}

// Row appends a data row.
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
	t.lines = append(t.lines, row)
}

// Footer appends a footer row.
func (t *Table) Footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
	t.lines = append(t.lines, row)
}

// AlignRight right-aligns the given 1-based columns.
func (t *Table) AlignRight(columns ...int) {
	cfgs := make([]table.ColumnConfig, len(columns))
	for i, n := range columns {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight}
	}
	t.writer.SetColumnConfigs(cfgs)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return t.writer.Length()
}

// String renders the table.
func (t *Table) String() string {
	switch {
	case t.mode == ModeMachine:
		return t.tsv()
	case t.title == "":
		return t.writer.Render()
	case t.mode == ModeRich:
		return Styles.Title.Render(t.title) + "\n" + t.writer.Render()
	default:
		return t.title + "\n" + t.writer.Render()
	}
}

// tsv writes one line per header, row and footer with cells verbatim.
// Tabs and newlines inside a cell become spaces.
func (t *Table) tsv() string {
	clean := strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")
	var b strings.Builder
	for i, line := range t.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range line {
			if j > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(clean.Replace(fmt.Sprint(cell)))
		}
	}
	return b.String()
}
