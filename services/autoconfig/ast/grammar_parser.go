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
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	// DefaultMaxFileSize is the maximum file size the parser will accept (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize is the size above which a warning is logged (1MB).
	WarnFileSize = 1024 * 1024
)

// GrammarParser parses one language family with tree-sitter grammars.
//
// Description:
//
//	A GrammarParser maps file extensions to tree-sitter grammars. The
//	TypeScript parser uses the TSX grammar for .tsx files and the plain
//	TypeScript grammar otherwise.
//
// Thread Safety: Safe for concurrent use. A new sitter.Parser is created
// per Parse call.
type GrammarParser struct {
	language    string
	extensions  []string
	grammarFor  func(ext string) *sitter.Language
	maxFileSize int64
}

// GrammarParserOption configures a GrammarParser.
type GrammarParserOption func(*GrammarParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
func WithMaxFileSize(bytes int64) GrammarParserOption {
	return func(p *GrammarParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// NewJavaScriptParser creates a parser for .js, .jsx, .mjs and .cjs files.
// JSX is part of the JavaScript grammar.
func NewJavaScriptParser(opts ...GrammarParserOption) *GrammarParser {
	return newGrammarParser("javascript",
		[]string{".js", ".jsx", ".mjs", ".cjs"},
		func(string) *sitter.Language { return javascript.GetLanguage() },
		opts...)
}

// NewTypeScriptParser creates a parser for .ts, .mts, .cts and .tsx files.
func NewTypeScriptParser(opts ...GrammarParserOption) *GrammarParser {
	return newGrammarParser("typescript",
		[]string{".ts", ".mts", ".cts", ".tsx"},
		func(ext string) *sitter.Language {
			if ext == ".tsx" {
				return tsx.GetLanguage()
			}
			return typescript.GetLanguage()
		},
		opts...)
}

func newGrammarParser(language string, extensions []string, grammarFor func(string) *sitter.Language, opts ...GrammarParserOption) *GrammarParser {
	p := &GrammarParser{
		language:    language,
		extensions:  extensions,
		grammarFor:  grammarFor,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse produces a syntax tree for content.
//
// Description:
//
//	Validates size and encoding, hashes the input, and parses it with the
//	grammar selected by the file extension. Syntax errors do not fail the
//	call; they set ParseResult.HasErrors.
//
// Inputs:
//
//	ctx - Context for cancellation
//	content - Source bytes
//	filePath - Path used for grammar selection and errors
//
// Outputs:
//
//	*ParseResult - Owned by the caller; must be closed
//	error - ErrFileTooLarge, ErrInvalidContent, ErrParseFailed or ctx error
//
// Thread Safety: Safe for concurrent use.
func (p *GrammarParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, p.language, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(ctx, p.language, time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(ctx, p.language, time.Since(start), false)
		return nil, WrapParseError(fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize), filePath)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(ctx, p.language, time.Since(start), false)
		return nil, WrapParseError(fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent), filePath)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.grammarFor(strings.ToLower(filepath.Ext(filePath))))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(ctx, p.language, time.Since(start), false)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("parse canceled: %w", ctxErr)
		}
		return nil, WrapParseError(fmt.Errorf("%w: %v", ErrParseFailed, err), filePath)
	}
	if tree == nil || tree.RootNode() == nil {
		recordParseMetrics(ctx, p.language, time.Since(start), false)
		return nil, WrapParseError(ErrParseFailed, filePath)
	}

	result := &ParseResult{
		FilePath:      filePath,
		Language:      p.language,
		Hash:          hex.EncodeToString(hash[:]),
		Tree:          tree,
		HasErrors:     tree.RootNode().HasError(),
		ParsedAtMilli: time.Now().UnixMilli(),
	}

	setParseSpanResult(span, result.HasErrors)
	recordParseMetrics(ctx, p.language, time.Since(start), true)

	return result, nil
}

// Language returns the canonical language name.
func (p *GrammarParser) Language() string {
	return p.language
}

// Extensions returns the handled file extensions.
func (p *GrammarParser) Extensions() []string {
	out := make([]string, len(p.extensions))
	copy(out, p.extensions)
	return out
}
