// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"errors"
	"fmt"
)

// Sentinel errors for parse failure conditions.
var (
	// ErrUnsupportedLanguage indicates that no parser handles the file type.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrInvalidContent indicates content that is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid content")

	// ErrFileTooLarge indicates content above the parser's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrParseFailed indicates tree-sitter produced no tree.
	ErrParseFailed = errors.New("parse failed")
)

// ParseError attaches a file path to a parse failure.
type ParseError struct {
	FilePath string
	Cause    error
}

// Error returns "path: cause".
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.FilePath, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WrapParseError wraps err with file context. ParseErrors are returned unchanged.
func WrapParseError(err error, filePath string) error {
	if err == nil {
		return nil
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &ParseError{FilePath: filePath, Cause: err}
}
