// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output for the lintinfer CLI: styled
// messages, progress reporting and tables.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),
}

// Icon is a status glyph.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
)

// Render returns the icon with its status color.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Printer writes human-facing messages in the style of its Mode.
//
// Configuration output never goes through a Printer; it is written by a
// sink so that stdout stays parseable.
type Printer struct {
	W    io.Writer
	Mode Mode
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{W: w, Mode: mode}
}

// Title prints a heading. Machine mode omits it.
func (p *Printer) Title(text string) {
	if p.Mode == ModeMachine {
		return
	}
	fmt.Fprintln(p.W, p.style(Styles.Title, text))
}

// Success prints a success line.
func (p *Printer) Success(text string) {
	p.status("OK", IconSuccess, Styles.Success, text)
}

// Warning prints a warning line.
func (p *Printer) Warning(text string) {
	p.status("WARN", IconWarning, Styles.Warning, text)
}

// Error prints an error line.
func (p *Printer) Error(text string) {
	p.status("ERROR", IconError, Styles.Error, text)
}

// Info prints an informational line.
func (p *Printer) Info(text string) {
	if p.Mode == ModeMachine {
		fmt.Fprintln(p.W, text)
		return
	}
	fmt.Fprintf(p.W, "%s %s\n", p.style(Styles.Muted, "│"), text)
}

// Muted prints secondary text. Machine mode omits it.
func (p *Printer) Muted(text string) {
	if p.Mode == ModeMachine {
		return
	}
	fmt.Fprintln(p.W, p.style(Styles.Muted, text))
}

// Box prints content in a rounded box under a title.
func (p *Printer) Box(title, content string) {
	if p.Mode != ModeRich {
		fmt.Fprintf(p.W, "%s:\n%s\n", title, indent(content))
		return
	}
	fmt.Fprintln(p.W, Styles.Box.Render(Styles.Title.Render(title)+"\n"+content))
}

// WarningBox prints content in a warning-colored box.
func (p *Printer) WarningBox(title, content string) {
	if p.Mode != ModeRich {
		fmt.Fprintf(p.W, "WARN %s:\n%s\n", title, indent(content))
		return
	}
	fmt.Fprintln(p.W, Styles.WarningBox.Render(Styles.Warning.Bold(true).Render(title)+"\n"+content))
}

func (p *Printer) status(tag string, icon Icon, style lipgloss.Style, text string) {
	switch p.Mode {
	case ModeMachine:
		fmt.Fprintf(p.W, "%s: %s\n", tag, text)
	case ModePlain:
		fmt.Fprintf(p.W, "%s %s\n", icon, text)
	default:
		fmt.Fprintf(p.W, "%s %s\n", icon.Render(), style.Render(text))
	}
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if p.Mode != ModeRich {
		return text
	}
	return s.Render(text)
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
