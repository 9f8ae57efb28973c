// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lintconfig

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity is the activation level of a rule.
//
// The numeric values match the 0/1/2 codes used by ESLint configuration
// files; the canonical serialized form is the string name.
type Severity int

const (
	// SeverityOff disables the rule.
	SeverityOff Severity = iota

	// SeverityWarn reports violations without failing.
	SeverityWarn

	// SeverityError reports violations as errors.
	SeverityError
)

// String returns "off", "warn" or "error".
func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Enabled reports whether the rule is active at this severity.
func (s Severity) Enabled() bool {
	return s == SeverityWarn || s == SeverityError
}

// ParseSeverity converts a configuration value to a Severity.
//
// Description:
//
//	Accepts the string names ("off", "warn", "error", case-insensitive)
//	and the numeric codes 0, 1 and 2 in any of the numeric types produced
//	by the YAML and JSON decoders.
//
// Inputs:
//
//	v - The raw value
//
// Outputs:
//
//	Severity - The parsed severity
//	error - Non-nil when the value is not a recognized severity
func ParseSeverity(v any) (Severity, error) {
	switch val := v.(type) {
	case Severity:
		if val < SeverityOff || val > SeverityError {
			return SeverityOff, fmt.Errorf("%w: %d", ErrInvalidSeverity, int(val))
		}
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "off", "0":
			return SeverityOff, nil
		case "warn", "warning", "1":
			return SeverityWarn, nil
		case "error", "2":
			return SeverityError, nil
		}
		return SeverityOff, fmt.Errorf("%w: %q", ErrInvalidSeverity, val)
	case int:
		return ParseSeverity(Severity(val))
	case int64:
		return ParseSeverity(Severity(val))
	case float64:
		if val != float64(int(val)) {
			return SeverityOff, fmt.Errorf("%w: %v", ErrInvalidSeverity, val)
		}
		return ParseSeverity(Severity(int(val)))
	default:
		return SeverityOff, fmt.Errorf("%w: %T", ErrInvalidSeverity, v)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityOff || s > SeverityError {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeverity, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalJSON accepts both string and numeric severities.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
