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
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// EnvOutputMode overrides mode detection.
const EnvOutputMode = "LINTINFER_OUTPUT"

// Mode controls the richness of CLI output.
type Mode string

const (
	// ModeRich enables colors, boxes and the animated progress bar.
	ModeRich Mode = "rich"

	// ModePlain prints uncolored text and periodic progress lines.
	ModePlain Mode = "plain"

	// ModeMachine prints tagged lines for scripts and no progress.
	ModeMachine Mode = "machine"
)

// ParseMode converts a string to a Mode. Unknown values are ModePlain.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rich", "full":
		return ModeRich
	case "machine", "quiet", "q":
		return ModeMachine
	default:
		return ModePlain
	}
}

// DetectMode picks the mode for w.
//
// The LINTINFER_OUTPUT environment variable wins when set. Otherwise a
// terminal gets ModeRich and anything else ModePlain.
func DetectMode(w io.Writer) Mode {
	if env := os.Getenv(EnvOutputMode); env != "" {
		return ParseMode(env)
	}
	if IsTerminal(w) {
		return ModeRich
	}
	return ModePlain
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsInteractive reports whether prompts can be shown on stdin.
func IsInteractive() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
