// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package synth turns a resolution into the final lint configuration.
package synth

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
	"github.com/AleutianAI/lintinfer/services/autoconfig/resolve"
)

// Summary reports what the synthesized configuration covers.
type Summary struct {
	RulesConsidered int `json:"rules_considered"`
	RulesEnabled    int `json:"rules_enabled"`
	FilesUsed       int `json:"files_used"`
}

// String returns the one-line summary shown to users.
func (s Summary) String() string {
	return fmt.Sprintf("Enabled %d out of %d rules based on %d files.", s.RulesEnabled, s.RulesConsidered, s.FilesUsed)
}

// Result is a synthesized configuration.
type Result struct {
	Config  lintconfig.Config
	Summary Summary

	// Forced lists baseline rules the resolution did not cover, which were
	// added at error severity. Sorted.
	Forced []string
}

// Synthesizer merges resolutions into configurations.
type Synthesizer struct {
	// Out receives the summary line. Nil discards it.
	Out io.Writer
}

// Synthesize builds the final configuration.
//
// Description:
//
//	The rule map of base is replaced by the resolution's choices. Error
//	baseline rules without a choice, such as rules skipped by the catalog,
//	are added at error severity with no options. Nothing is persisted;
//	the summary line is written to Out.
//
// Inputs:
//
//	base - Configuration providing every non-rule axis
//	res - The resolver output
//	baseline - Error-level baseline rules
//	considered - Number of rules the run considered; 0 means the number
//	             of resolved rules
//	files - Number of corpus files evaluated
//
// Outputs:
//
//	Result - The configuration and its summary
func (s Synthesizer) Synthesize(base lintconfig.Config, res resolve.Resolution, baseline lintconfig.Baseline, considered, files int) Result {
	entries := res.Entries()

	var forced []string
	for _, id := range baseline.Recommended() {
		if _, ok := entries[id]; ok {
			continue
		}
		entries[id] = lintconfig.RuleEntry{Severity: lintconfig.SeverityError}
		forced = append(forced, id)
	}

	enabled := 0
	for _, entry := range entries {
		if entry.Severity.Enabled() {
			enabled++
		}
	}
	if considered <= 0 {
		considered = len(res.Rules)
	}

	result := Result{
		Config: base.WithRules(entries),
		Summary: Summary{
			RulesConsidered: considered,
			RulesEnabled:    enabled,
			FilesUsed:       files,
		},
		Forced: forced,
	}

	slog.Info("configuration synthesized",
		slog.Int("rules_considered", considered),
		slog.Int("rules_enabled", enabled),
		slog.Int("files", files),
		slog.Int("forced", len(forced)),
	)
	if s.Out != nil {
		fmt.Fprintln(s.Out, result.Summary.String())
	}
	return result
}
