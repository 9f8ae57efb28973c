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
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/AleutianAI/lintinfer/services/autoconfig/lintconfig"
)

// eslintOutput represents the JSON output from ESLint.
type eslintOutput []eslintFile

type eslintFile struct {
	FilePath     string          `json:"filePath"`
	Messages     []eslintMessage `json:"messages"`
	ErrorCount   int             `json:"errorCount"`
	WarningCount int             `json:"warningCount"`
}

type eslintMessage struct {
	RuleID   *string `json:"ruleId"`
	Severity int     `json:"severity"` // 1 = warning, 2 = error
	Message  string  `json:"message"`
	Line     int     `json:"line"`
	Column   int     `json:"column"`
	Fatal    bool    `json:"fatal"`
}

// parseESLintOutput parses JSON output from ESLint into a Report.
//
// Description:
//
//	Messages without a rule id (fatal parse errors) are kept under the
//	empty rule so that the configuration is still reported as failing.
//	File paths are mapped through index; unknown paths are kept verbatim.
//
// Outputs:
//
//	Report - Diagnostics per entry
//	error - Wraps ErrParseOutput if the JSON is malformed
func parseESLintOutput(data []byte, index map[string]string, cfg lintconfig.Config) (Report, error) {
	report := NewReport()
	if len(bytes.TrimSpace(data)) == 0 {
		return report, nil
	}

	var output eslintOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrParseOutput, err)
	}

	for _, file := range output {
		path := file.FilePath
		if mapped, ok := index[filepath.Clean(path)]; ok {
			path = mapped
		}
		for _, msg := range file.Messages {
			rule := ""
			if msg.RuleID != nil {
				rule = *msg.RuleID
			}
			severity := mapESLintSeverity(msg.Severity)
			if entry, ok := cfg.Rules[rule]; ok && entry.Severity.Enabled() {
				severity = entry.Severity
			}
			report.Add(path, Diagnostic{
				Path:     path,
				Rule:     rule,
				Line:     msg.Line,
				Column:   msg.Column,
				Message:  msg.Message,
				Severity: severity,
			})
		}
	}
	return report, nil
}

// mapESLintSeverity maps ESLint numeric severity to a Severity.
func mapESLintSeverity(severity int) lintconfig.Severity {
	switch severity {
	case 2:
		return lintconfig.SeverityError
	case 1:
		return lintconfig.SeverityWarn
	default:
		return lintconfig.SeverityOff
	}
}
