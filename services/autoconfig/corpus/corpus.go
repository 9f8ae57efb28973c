// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/AleutianAI/lintinfer/services/autoconfig/ast"
)

// ErrNoFilesParsed is returned by Load when no file produced a usable entry.
// It is fatal to inference: no configuration can be derived from nothing.
var ErrNoFilesParsed = errors.New("no files parsed")

// ErrClosed is returned by Entry.Inspect after the corpus was closed.
var ErrClosed = errors.New("corpus closed")

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one parsed source file.
//
// Description:
//
//	Path, content, language and hash never change after load. Syntax trees
//	are borrowed through Inspect: the tree-sitter binding is not safe for
//	concurrent reads of one tree, so each concurrent reader gets its own
//	tree, parsed on demand from the same content and returned to the
//	entry's free list afterwards.
//
// Thread Safety: Safe for concurrent use.
type Entry struct {
	path     string
	language string
	content  []byte
	hash     string
	parser   ast.Parser

	mu     sync.Mutex
	free   []*ast.ParseResult
	all    []*ast.ParseResult
	closed bool
}

func newEntry(path string, content []byte, parser ast.Parser, first *ast.ParseResult) *Entry {
	return &Entry{
		path:     path,
		language: first.Language,
		content:  content,
		hash:     first.Hash,
		parser:   parser,
		free:     []*ast.ParseResult{first},
		all:      []*ast.ParseResult{first},
	}
}

// Path returns the file path as matched by the load patterns.
func (e *Entry) Path() string { return e.path }

// Language returns the parser language of the entry.
func (e *Entry) Language() string { return e.language }

// Hash returns the hex SHA-256 of the content.
func (e *Entry) Hash() string { return e.hash }

// Content returns a copy of the source bytes.
func (e *Entry) Content() []byte {
	out := make([]byte, len(e.content))
	copy(out, e.content)
	return out
}

// Inspect calls fn with a syntax tree root for this entry.
//
// Description:
//
//	The tree passed to fn is exclusively owned by the caller for the
//	duration of fn and must not be retained. content is the shared
//	immutable source and must not be modified.
//
// Inputs:
//
//	ctx - Context used if a fresh tree must be parsed
//	fn - Callback receiving the root node and source bytes
//
// Outputs:
//
//	error - ErrClosed, a parse error, or fn's error
//
// Thread Safety: Safe for concurrent use.
func (e *Entry) Inspect(ctx context.Context, fn func(root *sitter.Node, content []byte) error) error {
	tree, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	defer e.release(tree)
	return fn(tree.Root(), e.content)
}

func (e *Entry) acquire(ctx context.Context) (*ast.ParseResult, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if n := len(e.free); n > 0 {
		tree := e.free[n-1]
		e.free = e.free[:n-1]
		e.mu.Unlock()
		return tree, nil
	}
	e.mu.Unlock()

	tree, err := e.parser.Parse(ctx, e.content, e.path)
	if err != nil {
		return nil, fmt.Errorf("reparse %s: %w", e.path, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		tree.Close()
		return nil, ErrClosed
	}
	e.all = append(e.all, tree)
	return tree, nil
}

func (e *Entry) release(tree *ast.ParseResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.free = append(e.free, tree)
}

func (e *Entry) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, tree := range e.all {
		tree.Close()
	}
	e.all = nil
	e.free = nil
}

// =============================================================================
// CORPUS
// =============================================================================

// Corpus is the immutable set of sample files used as the evaluation oracle.
//
// Thread Safety: Safe for concurrent use. Close must not race with Inspect.
type Corpus struct {
	entries     []*Entry
	fingerprint string
}

// newCorpus builds a corpus from entries already sorted by path.
func newCorpus(entries []*Entry) *Corpus {
	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e.path))
		h.Write([]byte{0})
		h.Write([]byte(e.hash))
		h.Write([]byte{'\n'})
	}
	return &Corpus{
		entries:     entries,
		fingerprint: hex.EncodeToString(h.Sum(nil)),
	}
}

// Len returns the number of entries.
func (c *Corpus) Len() int { return len(c.entries) }

// Entries returns the entries in path order. The slice is a copy.
func (c *Corpus) Entries() []*Entry {
	out := make([]*Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Paths returns the entry paths in order.
func (c *Corpus) Paths() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.path
	}
	return out
}

// Fingerprint identifies the corpus content. Two corpora with the same
// paths and bytes have the same fingerprint.
func (c *Corpus) Fingerprint() string { return c.fingerprint }

// Close releases all syntax trees.
func (c *Corpus) Close() {
	for _, e := range c.entries {
		e.close()
	}
}
