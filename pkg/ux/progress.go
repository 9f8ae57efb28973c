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
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"
)

// DefaultLineInterval is the minimum gap between plain progress lines.
const DefaultLineInterval = 2 * time.Second

// Reporter displays phase progress.
//
// Start begins a phase, Advance adds completed units to it, and Finish
// marks it complete. Close releases the display and must be called once
// the run ends.
type Reporter interface {
	Start(phase string, total int)
	Advance(delta float64)
	Finish(phase string)
	Close()
}

// NewReporter returns the reporter suited to mode: an animated bar for
// ModeRich, periodic lines for ModePlain and nothing for ModeMachine.
func NewReporter(w io.Writer, mode Mode) Reporter {
	switch mode {
	case ModeRich:
		return NewBarReporter(w)
	case ModePlain:
		return NewLineReporter(w, DefaultLineInterval)
	default:
		return NopReporter{}
	}
}

// =============================================================================
// NOP
// =============================================================================

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Start(string, int) {}
func (NopReporter) Advance(float64)   {}
func (NopReporter) Finish(string)     {}
func (NopReporter) Close()            {}

// =============================================================================
// LINES
// =============================================================================

// LineReporter prints "phase: done/total (pct%)" lines, at most one per
// interval while a phase runs and always one when it finishes.
//
// Thread Safety: Safe for concurrent use.
type LineReporter struct {
	w        io.Writer
	interval time.Duration

	mu    sync.Mutex
	phase string
	total int
	done  float64
	every *rate.Sometimes
}

// NewLineReporter creates a line reporter writing to w.
func NewLineReporter(w io.Writer, interval time.Duration) *LineReporter {
	return &LineReporter{w: w, interval: interval}
}

func (r *LineReporter) Start(phase string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase, r.total, r.done = phase, total, 0
	r.every = &rate.Sometimes{Interval: r.interval}
	r.every.Do(r.printLocked)
}

func (r *LineReporter) Advance(delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.every == nil {
		return
	}
	r.done += delta
	r.every.Do(r.printLocked)
}

func (r *LineReporter) Finish(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.every == nil || phase != r.phase {
		return
	}
	r.printLocked()
	r.every = nil
}

func (r *LineReporter) Close() {}

func (r *LineReporter) printLocked() {
	done := int(math.Round(r.done))
	fmt.Fprintf(r.w, "%s: %d/%d (%d%%)\n", r.phase, done, r.total, percent(done, r.total))
}

func percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return done * 100 / total
}

// =============================================================================
// BAR
// =============================================================================

type startMsg struct {
	phase string
	total int
}

type advanceMsg float64

type finishMsg string

type quitMsg struct{}

// barModel is the bubbletea model behind BarReporter.
type barModel struct {
	bar      progress.Model
	phase    string
	total    int
	done     float64
	finished []string
}

func newBarModel() barModel {
	return barModel{bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))}
}

func (m barModel) Init() tea.Cmd { return nil }

func (m barModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case startMsg:
		m.phase, m.total, m.done = msg.phase, msg.total, 0
	case advanceMsg:
		m.done += float64(msg)
	case finishMsg:
		if string(msg) == m.phase {
			m.finished = append(m.finished, fmt.Sprintf("%s %s %d/%d", IconSuccess.Render(), m.phase, m.total, m.total))
			m.phase = ""
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(60, max(10, msg.Width-30))
	case quitMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m barModel) View() string {
	var b strings.Builder
	for _, line := range m.finished {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if m.phase != "" {
		done := int(math.Round(m.done))
		ratio := 1.0
		if m.total > 0 {
			ratio = math.Min(1, m.done/float64(m.total))
		}
		fmt.Fprintf(&b, "%s %s %s\n", Styles.Highlight.Render(m.phase), m.bar.ViewAs(ratio), Styles.Muted.Render(fmt.Sprintf("%d/%d", done, m.total)))
	}
	return b.String()
}

// BarReporter renders an animated progress bar with bubbletea.
//
// Thread Safety: Safe for concurrent use.
type BarReporter struct {
	program *tea.Program
	done    chan struct{}
	close   sync.Once
}

// NewBarReporter starts a bar program writing to w.
func NewBarReporter(w io.Writer) *BarReporter {
	r := &BarReporter{
		program: tea.NewProgram(newBarModel(),
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}
	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()
	return r
}

func (r *BarReporter) Start(phase string, total int) {
	r.program.Send(startMsg{phase: phase, total: total})
}

func (r *BarReporter) Advance(delta float64) {
	r.program.Send(advanceMsg(delta))
}

func (r *BarReporter) Finish(phase string) {
	r.program.Send(finishMsg(phase))
}

// Close renders the final frame and waits for the program to exit.
func (r *BarReporter) Close() {
	r.close.Do(func() {
		r.program.Send(quitMsg{})
		<-r.done
	})
}
