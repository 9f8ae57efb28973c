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
	"bytes"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeRich, ParseMode("RICH"))
	assert.Equal(t, ModeMachine, ParseMode("quiet"))
	assert.Equal(t, ModePlain, ParseMode("plain"))
	assert.Equal(t, ModePlain, ParseMode("anything"))
}

func TestDetectMode(t *testing.T) {
	t.Setenv(EnvOutputMode, "")
	assert.Equal(t, ModePlain, DetectMode(&bytes.Buffer{}), "buffers are not terminals")
	assert.False(t, IsTerminal(&bytes.Buffer{}))

	t.Setenv(EnvOutputMode, "machine")
	assert.Equal(t, ModeMachine, DetectMode(&bytes.Buffer{}))
}

func TestPrinter_Machine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModeMachine)

	p.Title("lintinfer")
	p.Muted("details")
	p.Success("wrote .eslintrc.yml")
	p.Warning("rule skipped")
	p.Error("no files parsed")
	p.Info("Enabled 3 out of 12 rules based on 4 files.")

	assert.Equal(t, "OK: wrote .eslintrc.yml\n"+
		"WARN: rule skipped\n"+
		"ERROR: no files parsed\n"+
		"Enabled 3 out of 12 rules based on 4 files.\n", buf.String())
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ModePlain)

	p.Success("done")
	p.Box("Skipped rules", "indent: unbounded\nmax-len: unbounded")

	out := buf.String()
	assert.Contains(t, out, "✓ done\n")
	assert.Contains(t, out, "Skipped rules:\n  indent: unbounded\n  max-len: unbounded\n")
}

func TestLineReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf, time.Hour)

	r.Advance(1) // before Start: ignored
	r.Start("evaluating", 4)
	for i := 0; i < 4; i++ {
		r.Advance(1)
	}
	r.Finish("parsing") // not the running phase
	r.Finish("evaluating")
	r.Close()

	assert.Equal(t, "evaluating: 0/4 (0%)\nevaluating: 4/4 (100%)\n", buf.String())
}

func TestLineReporter_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	r := NewLineReporter(&buf, time.Hour)
	r.Start("parsing", 0)
	r.Finish("parsing")
	assert.Equal(t, "parsing: 0/0 (100%)\nparsing: 0/0 (100%)\n", buf.String())
}

func TestBarModel(t *testing.T) {
	var m tea.Model = newBarModel()

	m, _ = m.Update(startMsg{phase: "evaluating", total: 4})
	m, _ = m.Update(advanceMsg(1))
	m, _ = m.Update(advanceMsg(1))
	view := m.View()
	assert.Contains(t, view, "evaluating")
	assert.Contains(t, view, "2/4")

	m, _ = m.Update(finishMsg("evaluating"))
	view = m.View()
	assert.Contains(t, view, "evaluating 4/4")
	assert.Equal(t, 1, strings.Count(view, "\n"))

	_, cmd := m.Update(quitMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNewReporter(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &LineReporter{}, NewReporter(&buf, ModePlain))
	assert.IsType(t, NopReporter{}, NewReporter(&buf, ModeMachine))
}

func TestTable(t *testing.T) {
	tbl := NewTable(ModeMachine)
	tbl.Header("Rule", "Variants")
	tbl.Row("quotes", 13)
	tbl.Row("semi", 3)
	tbl.AlignRight(2)

	assert.Equal(t, 2, tbl.Len())
	out := tbl.String()
	assert.Contains(t, out, "quotes\t13")
	assert.Contains(t, out, "semi\t3")
	assert.NotContains(t, out, "│")

	rich := NewTable(ModePlain)
	rich.Title("Catalog")
	rich.Header("Rule")
	rich.Row("eqeqeq")
	out = rich.String()
	assert.Contains(t, out, "Catalog")
	assert.Contains(t, out, "eqeqeq")
}

func TestSpinner_Modes(t *testing.T) {
	var plain bytes.Buffer
	require.NoError(t, WithSpinner(&plain, ModePlain, "checking eslint", func() error { return nil }))
	assert.Equal(t, "checking eslint...\n", plain.String())

	var machine bytes.Buffer
	err := WithSpinner(&machine, ModeMachine, "uploading", func() error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, "ERROR: uploading failed\n", machine.String())
}

func TestSpinner_RichStops(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, ModeRich, "probing")
	s.Start()
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Stop()
	s.Stop()

	assert.Contains(t, buf.String(), "probing")
	assert.True(t, strings.HasSuffix(buf.String(), "\r\033[K"))
}

func TestTable_MachineCellsVerbatim(t *testing.T) {
	tbl := NewTable(ModeMachine)
	tbl.Title("quotes")
	tbl.Header("#", "Specificity", "Options")
	tbl.Row(3, 2, `["backtick"]`)
	tbl.Row(4, 3, "a\tb\nc")
	tbl.Footer("", "", 2)

	lines := strings.Split(tbl.String(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "#\tSpecificity\tOptions", lines[0])
	assert.Equal(t, "3\t2\t[\"backtick\"]", lines[1])
	assert.Equal(t, "4\t3\ta b c", lines[2])
	assert.Equal(t, "\t\t2", lines[3])
	assert.NotContains(t, tbl.String(), "quotes")
}

func TestTable_TitleWiderThanColumns(t *testing.T) {
	for _, mode := range []Mode{ModePlain, ModeRich} {
		tbl := NewTable(mode)
		tbl.Title("Rule catalog")
		tbl.Header("#")
		tbl.Row(1)
		out := tbl.String()
		first, _, _ := strings.Cut(out, "\n")
		assert.Contains(t, first, "Rule catalog", "mode %s", mode)
	}
}
