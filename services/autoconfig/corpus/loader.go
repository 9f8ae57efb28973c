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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/AleutianAI/lintinfer/services/autoconfig/ast"
	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

// File is an in-memory source file.
type File struct {
	Path    string
	Content []byte
}

// FileProgressFunc is called after each candidate file is processed.
type FileProgressFunc func(done, total int)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{"node_modules", "vendor", "dist", "build", "coverage"}

type loadOptions struct {
	registry *ast.ParserRegistry
	maxFiles int
	skipDirs map[string]bool
}

// Option configures Load and FromFiles.
type Option func(*loadOptions)

// WithRegistry overrides the parser registry derived from the base config.
func WithRegistry(r *ast.ParserRegistry) Option {
	return func(o *loadOptions) {
		o.registry = r
	}
}

// WithMaxFiles caps the number of files sampled. Zero means no cap.
func WithMaxFiles(n int) Option {
	return func(o *loadOptions) {
		o.maxFiles = n
	}
}

// WithSkipDirs replaces DefaultSkipDirs.
func WithSkipDirs(names ...string) Option {
	return func(o *loadOptions) {
		o.skipDirs = toSet(names)
	}
}

func buildOptions(base lintconfig.Config, opts []Option) *loadOptions {
	o := &loadOptions{skipDirs: toSet(DefaultSkipDirs)}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = ast.DefaultRegistry(base.TypeChecked)
	}
	return o
}

// Load reads and parses the files matched by patterns.
//
// Description:
//
//	Expands patterns against the file system, keeps files with an
//	extension the parser registry handles, and parses each one. A file that
//	cannot be read, cannot be parsed or whose tree contains syntax errors
//	is skipped with a warning, since no rule variant could pass on it.
//	TypeScript sources are only sampled when base is type-checked.
//
// Inputs:
//
//	ctx - Context for cancellation
//	patterns - Directories, globs, or dir/**/glob patterns
//	base - Base configuration; selects the parser set
//	onFileProgress - Optional progress callback
//	opts - Loader options
//
// Outputs:
//
//	*Corpus - The loaded corpus; caller must Close it
//	error - ErrNoFilesParsed when no entry was produced, or ctx error
func Load(ctx context.Context, patterns []string, base lintconfig.Config, onFileProgress FileProgressFunc, opts ...Option) (*Corpus, error) {
	o := buildOptions(base, opts)

	paths, err := Expand(patterns, o.registry.Extensions(), o.skipDirs)
	if err != nil {
		return nil, err
	}
	if o.maxFiles > 0 && len(paths) > o.maxFiles {
		paths = paths[:o.maxFiles]
	}

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable file",
				slog.String("file", path),
				slog.String("error", err.Error()))
			continue
		}
		files = append(files, File{Path: path, Content: content})
	}

	total := len(paths)
	skipped := total - len(files)
	progress := func(done, _ int) {
		if onFileProgress != nil {
			onFileProgress(done+skipped, total)
		}
	}
	if onFileProgress != nil && skipped > 0 {
		onFileProgress(skipped, total)
	}

	c, err := parseFiles(ctx, files, o, progress)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", strings.Join(patterns, ", "), err)
	}
	return c, nil
}

// FromFiles builds a corpus from in-memory files.
//
// Files are parsed with the same rules as Load; files without a parser for
// their extension are ignored.
func FromFiles(ctx context.Context, files []File, base lintconfig.Config, onFileProgress FileProgressFunc, opts ...Option) (*Corpus, error) {
	o := buildOptions(base, opts)

	kept := make([]File, 0, len(files))
	for _, f := range files {
		if _, ok := o.registry.ForPath(f.Path); ok {
			kept = append(kept, f)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Path < kept[j].Path })
	if o.maxFiles > 0 && len(kept) > o.maxFiles {
		kept = kept[:o.maxFiles]
	}
	return parseFiles(ctx, kept, o, onFileProgress)
}

func parseFiles(ctx context.Context, files []File, o *loadOptions, onFileProgress FileProgressFunc) (*Corpus, error) {
	entries := make([]*Entry, 0, len(files))
	release := func() {
		for _, e := range entries {
			e.close()
		}
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			release()
			return nil, err
		}

		parser, ok := o.registry.ForPath(f.Path)
		if !ok {
			continue
		}

		result, err := parser.Parse(ctx, f.Content, f.Path)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				release()
				return nil, ctx.Err()
			}
			slog.Warn("skipping unparseable file",
				slog.String("file", f.Path),
				slog.String("error", err.Error()))
		case result.HasErrors:
			result.Close()
			slog.Warn("skipping file with syntax errors",
				slog.String("file", f.Path))
		default:
			content := make([]byte, len(f.Content))
			copy(content, f.Content)
			entries = append(entries, newEntry(f.Path, content, parser, result))
		}

		if onFileProgress != nil {
			onFileProgress(i+1, len(files))
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoFilesParsed
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	return newCorpus(entries), nil
}

// =============================================================================
// PATTERN EXPANSION
// =============================================================================

// Expand resolves patterns to a sorted, deduplicated list of file paths
// whose extension is in exts.
//
// Description:
//
//	Supported pattern forms:
//	  - a directory: walked recursively
//	  - a plain file path or a glob without "**"
//	  - a pattern containing "**": the directory before the first meta
//	    character is walked and paths relative to it are matched against
//	    the rest, so "src/**/lib/*.js" matches src/a/b/lib/x.js
//	Hidden directories and skipDirs are never descended into. A pattern
//	matching nothing contributes no files and is not an error.
func Expand(patterns []string, exts []string, skipDirs map[string]bool) ([]string, error) {
	extSet := toSet(exts)
	seen := make(map[string]bool)
	var out []string

	add := func(path string) {
		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return
		}
		clean := filepath.Clean(path)
		if seen[clean] {
			return
		}
		seen[clean] = true
		out = append(out, clean)
	}

	walk := func(root, glob string) error {
		return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
					return filepath.SkipDir
				}
				return nil
			}
			if glob != "" {
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return nil
				}
				if !doublestar.MatchUnvalidated(glob, filepath.ToSlash(rel)) {
					return nil
				}
			}
			add(path)
			return nil
		})
	}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}

		if strings.Contains(pattern, "**") {
			base, glob := doublestar.SplitPattern(filepath.ToSlash(filepath.Clean(pattern)))
			if !doublestar.ValidatePattern(glob) {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
			}
			root := filepath.FromSlash(base)
			if _, err := os.Stat(root); err != nil {
				continue
			}
			if err := walk(root, glob); err != nil {
				return nil, fmt.Errorf("walking %s: %w", root, err)
			}
			continue
		}

		if info, err := os.Stat(pattern); err == nil && info.IsDir() {
			if err := walk(pattern, ""); err != nil {
				return nil, fmt.Errorf("walking %s: %w", pattern, err)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				add(m)
			}
		}
	}

	sort.Strings(out)
	return out, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
