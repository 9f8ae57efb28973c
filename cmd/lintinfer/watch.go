// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/lintinfer/services/autoconfig/corpus"
)

// defaultDebounce coalesces bursts of saves into one re-run.
const defaultDebounce = 300 * time.Millisecond

var sourceExts = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
}

// sourceWatcher re-runs inference when source files under the watched
// roots change.
type sourceWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	skip     map[string]bool
}

func newSourceWatcher(patterns []string, debounce time.Duration) (*sourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &sourceWatcher{watcher: watcher, debounce: debounce, skip: make(map[string]bool)}
	for _, d := range corpus.DefaultSkipDirs {
		w.skip[d] = true
	}

	for _, root := range watchRoots(patterns) {
		if err := w.addRecursive(root); err != nil {
			watcher.Close()
			return nil, err
		}
	}
	return w, nil
}

// watchRoots maps patterns to the directories that contain their matches.
func watchRoots(patterns []string) []string {
	seen := make(map[string]bool)
	var roots []string
	for _, p := range patterns {
		root := p
		if i := strings.IndexAny(root, "*?[{"); i >= 0 {
			root = filepath.Dir(root[:i] + "x")
		} else if info, err := os.Stat(root); err == nil && !info.IsDir() {
			root = filepath.Dir(root)
		}
		root = filepath.Clean(root)
		if !seen[root] {
			seen[root] = true
			roots = append(roots, root)
		}
	}
	return roots
}

func (w *sourceWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watching %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *sourceWatcher) ignored(path string) bool {
	base := filepath.Base(path)
	return w.skip[base] || (strings.HasPrefix(base, ".") && base != "." && base != "..")
}

func (w *sourceWatcher) relevant(event fsnotify.Event) bool {
	if w.ignored(event.Name) {
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return sourceExts[strings.ToLower(filepath.Ext(event.Name))]
}

// Run calls run once, then again after every debounced batch of source
// changes, until ctx is done. Errors from run are passed to onErr and do
// not stop watching.
func (w *sourceWatcher) Run(ctx context.Context, run func(context.Context) error, onErr func(error)) error {
	defer w.watcher.Close()

	if err := run(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		onErr(err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !w.ignored(event.Name) {
					if err := w.addRecursive(event.Name); err != nil {
						slog.Warn("cannot watch new directory", slog.String("dir", event.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("source changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			if err := run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				onErr(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				slog.Warn("file watcher overflowed, some changes may be missed")
				continue
			}
			slog.Warn("file watcher error", slog.String("error", err.Error()))
		}
	}
}
