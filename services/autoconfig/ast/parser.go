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
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser defines the contract for language-specific syntax parsing.
//
// Description:
//
//	Parser implementations turn source bytes into a concrete syntax tree
//	that detection rules walk. Each implementation handles one language
//	family and reports which file extensions it accepts.
//
// Inputs:
//
//	ctx      - Context for cancellation.
//	content  - Raw source bytes. Must be valid UTF-8.
//	filePath - Path of the file, used for error reporting and grammar
//	           selection (.tsx uses the TSX grammar).
//
// Outputs:
//
//	*ParseResult - The tree and its metadata. Caller owns it and must Close it.
//	error        - Non-nil when no tree could be produced. Syntax errors are
//	               reported through ParseResult.HasErrors instead.
//
// Thread Safety:
//
//	Implementations are safe for concurrent use. A ParseResult is not: the
//	tree-sitter binding caches node wrappers in an unsynchronized map, so a
//	tree must only be walked by one goroutine at a time.
type Parser interface {
	Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error)

	// Language returns the canonical lowercase language name.
	Language() string

	// Extensions returns handled extensions including the leading dot.
	Extensions() []string
}

// ParseResult is a parsed source file.
type ParseResult struct {
	// FilePath is the path passed to Parse.
	FilePath string

	// Language is the parser's language name.
	Language string

	// Hash is the hex SHA-256 of the parsed content.
	Hash string

	// Tree is the concrete syntax tree. Released by Close.
	Tree *sitter.Tree

	// HasErrors is true when the tree contains ERROR or MISSING nodes.
	HasErrors bool

	// ParsedAtMilli is the Unix time in milliseconds when parsing finished.
	ParsedAtMilli int64

	closeOnce sync.Once
}

// Root returns the root node of the tree, or nil after Close.
func (r *ParseResult) Root() *sitter.Node {
	if r == nil || r.Tree == nil {
		return nil
	}
	return r.Tree.RootNode()
}

// Close releases the underlying tree. Safe to call more than once.
func (r *ParseResult) Close() {
	if r == nil {
		return
	}
	r.closeOnce.Do(func() {
		if r.Tree != nil {
			r.Tree.Close()
			r.Tree = nil
		}
	})
}

// =============================================================================
// REGISTRY
// =============================================================================

// ParserRegistry manages parser instances by language and file extension.
//
// Thread Safety:
//
//	ParserRegistry is fully thread-safe. Registration uses write locks,
//	lookups use read locks.
type ParserRegistry struct {
	mu sync.RWMutex

	byLanguage  map[string]Parser
	byExtension map[string]Parser
}

// NewParserRegistry creates a new empty ParserRegistry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		byLanguage:  make(map[string]Parser),
		byExtension: make(map[string]Parser),
	}
}

// DefaultRegistry returns a registry holding the JavaScript parser, plus the
// TypeScript parser when includeTypeScript is set.
func DefaultRegistry(includeTypeScript bool) *ParserRegistry {
	r := NewParserRegistry()
	r.Register(NewJavaScriptParser())
	if includeTypeScript {
		r.Register(NewTypeScriptParser())
	}
	return r
}

// Register adds a parser under its Language() name and all its Extensions().
// Existing registrations for the same language or extension are replaced.
func (r *ParserRegistry) Register(parser Parser) {
	if parser == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byLanguage[parser.Language()] = parser
	for _, ext := range parser.Extensions() {
		r.byExtension[ext] = parser
	}
}

// GetByLanguage returns the parser for the given language name.
func (r *ParserRegistry) GetByLanguage(language string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byLanguage[language]
	return parser, ok
}

// GetByExtension returns the parser for the given file extension.
func (r *ParserRegistry) GetByExtension(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, ok := r.byExtension[strings.ToLower(ext)]
	return parser, ok
}

// ForPath returns the parser for the extension of path.
func (r *ParserRegistry) ForPath(path string) (Parser, bool) {
	return r.GetByExtension(filepath.Ext(path))
}

// Extensions returns all registered extensions, sorted.
func (r *ParserRegistry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}
