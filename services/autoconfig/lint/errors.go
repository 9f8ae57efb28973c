// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"errors"
	"fmt"
)

// Sentinel errors for the lint package.
var (
	// ErrLinterNotInstalled indicates the linter binary was not found in PATH.
	ErrLinterNotInstalled = errors.New("linter not installed")

	// ErrLinterTimeout indicates the linter exceeded its configured timeout.
	ErrLinterTimeout = errors.New("linter timeout")

	// ErrLinterFailed indicates the linter process failed to execute.
	ErrLinterFailed = errors.New("linter execution failed")

	// ErrParseOutput indicates failure to parse the linter's JSON output.
	ErrParseOutput = errors.New("failed to parse linter output")

	// ErrUnknownRule indicates a configured rule the analyzer does not know.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrInvalidOptions indicates options the rule rejects.
	ErrInvalidOptions = errors.New("invalid rule options")

	// ErrInvalidInput indicates invalid input to a lint function.
	ErrInvalidInput = errors.New("invalid input")
)

// AnalyzerError wraps a failure of one analyzer invocation with context.
//
// Thread Safety: Immutable after creation.
type AnalyzerError struct {
	// Analyzer is the analyzer name (e.g., "eslint").
	Analyzer string

	// Rule is the rule being analyzed, if one.
	Rule string

	// Err is the underlying error.
	Err error

	// Output contains any stderr output from a subprocess.
	Output string
}

// Error implements the error interface.
func (e *AnalyzerError) Error() string {
	subject := e.Analyzer
	if e.Rule != "" {
		subject = fmt.Sprintf("%s [%s]", e.Analyzer, e.Rule)
	}
	if e.Output != "" {
		return fmt.Sprintf("%s: %v: %s", subject, e.Err, e.Output)
	}
	return fmt.Sprintf("%s: %v", subject, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AnalyzerError) Unwrap() error {
	return e.Err
}

// NewAnalyzerError creates a new AnalyzerError.
func NewAnalyzerError(analyzer, rule string, err error) *AnalyzerError {
	return &AnalyzerError{
		Analyzer: analyzer,
		Rule:     rule,
		Err:      err,
	}
}

// WithOutput returns a copy of the error with the output field set.
func (e *AnalyzerError) WithOutput(output string) *AnalyzerError {
	return &AnalyzerError{
		Analyzer: e.Analyzer,
		Rule:     e.Rule,
		Err:      e.Err,
		Output:   output,
	}
}
