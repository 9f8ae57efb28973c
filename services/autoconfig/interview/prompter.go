// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package interview

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
)

// HuhPrompter asks questions with interactive terminal forms.
type HuhPrompter struct {
	// Accessible switches to plain line prompts, for screen readers and
	// terminals without cursor control.
	Accessible bool

	// In and Out override the terminal. Nil means stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// Ask implements Prompter.
func (p HuhPrompter) Ask(q Question) (any, error) {
	field, read, err := p.field(q)
	if err != nil {
		return nil, err
	}

	form := huh.NewForm(huh.NewGroup(field)).WithAccessible(p.Accessible)
	if p.In != nil {
		form = form.WithInput(p.In)
	}
	if p.Out != nil {
		form = form.WithOutput(p.Out)
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("asking %s: %w", q.Key, err)
	}
	return read(), nil
}

func (p HuhPrompter) field(q Question) (huh.Field, func() any, error) {
	switch q.Kind {
	case Input:
		value, _ := q.Default.(string)
		field := huh.NewInput().
			Title(q.Title).
			Description(q.Description).
			Value(&value).
			Validate(func(s string) error {
				if q.Required && strings.TrimSpace(s) == "" {
					return errors.New("an answer is required")
				}
				return nil
			})
		return field, func() any { return value }, nil

	case Select:
		value, _ := q.Default.(string)
		field := huh.NewSelect[string]().
			Title(q.Title).
			Description(q.Description).
			Options(huhOptions(q.Options, []string{value})...).
			Value(&value)
		return field, func() any { return value }, nil

	case MultiSelect:
		defaults, _ := q.Default.([]string)
		value := append([]string(nil), defaults...)
		field := huh.NewMultiSelect[string]().
			Title(q.Title).
			Description(q.Description).
			Options(huhOptions(q.Options, defaults)...).
			Value(&value).
			Validate(func(s []string) error {
				if q.Required && len(s) == 0 {
					return errors.New("pick at least one option")
				}
				return nil
			})
		return field, func() any { return value }, nil

	case Confirm:
		value, _ := q.Default.(bool)
		field := huh.NewConfirm().
			Title(q.Title).
			Description(q.Description).
			Value(&value)
		return field, func() any { return value }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s has unknown kind %d", ErrInvalidAnswer, q.Key, q.Kind)
	}
}

func huhOptions(options []Option, selected []string) []huh.Option[string] {
	out := make([]huh.Option[string], len(options))
	for i, o := range options {
		out[i] = huh.NewOption(o.Label, o.Value).Selected(slices.Contains(selected, o.Value))
	}
	return out
}

// ScriptedPrompter answers from a fixed map and falls back to each
// question's default. It drives non-interactive runs and tests.
type ScriptedPrompter struct {
	Answers Answers

	// Asked records the keys of questions asked, in order.
	Asked []string
}

// Ask implements Prompter.
func (s *ScriptedPrompter) Ask(q Question) (any, error) {
	s.Asked = append(s.Asked, q.Key)
	if answer, ok := s.Answers[q.Key]; ok {
		return answer, nil
	}
	return nil, nil
}
