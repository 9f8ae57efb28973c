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
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a message while a step of unknown length runs, such as
// probing the ESLint executable or uploading the result.
//
// Plain mode prints the message once; machine mode prints nothing until
// the outcome.
type Spinner struct {
	w       io.Writer
	mode    Mode
	message string

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a stopped spinner.
func NewSpinner(w io.Writer, mode Mode, message string) *Spinner {
	return &Spinner{w: w, mode: mode, message: message}
}

// Start begins the animation. Calling Start twice has no effect.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	switch s.mode {
	case ModeMachine:
		return
	case ModePlain:
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.animate(s.stop, s.done)
}

func (s *Spinner) animate(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		fmt.Fprintf(s.w, "\r%s %s", Styles.Highlight.Render(spinnerFrames[i%len(spinnerFrames)]), s.message)
		select {
		case <-stop:
			fmt.Fprint(s.w, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the animation and clears its line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.stop != nil {
		close(s.stop)
		<-s.done
		s.stop, s.done = nil, nil
	}
}

// WithSpinner runs fn under a spinner and prints an error line when fn
// fails. The error is returned unchanged.
func WithSpinner(w io.Writer, mode Mode, message string, fn func() error) error {
	s := NewSpinner(w, mode, message)
	s.Start()
	err := fn()
	s.Stop()
	if err != nil {
		NewPrinter(w, mode).Error(message + " failed")
	}
	return err
}
