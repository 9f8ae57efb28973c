// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"fmt"
)

// Options arrive from the catalog as Go values and from configuration files
// through the YAML or JSON decoders, so numbers may be int, int64 or float64
// and objects map[string]any.

func optionAt(options []any, i int) (any, bool) {
	if i < 0 || i >= len(options) || options[i] == nil {
		return nil, false
	}
	return options[i], true
}

// enumOption reads a string enum at position i.
func enumOption(options []any, i int, def string, allowed ...string) (string, error) {
	v, ok := optionAt(options, i)
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: option %d must be a string, got %T", ErrInvalidOptions, i, v)
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: option %d must be one of %v, got %q", ErrInvalidOptions, i, allowed, s)
}

// objectOption reads an object at position i. A missing option yields nil.
func objectOption(options []any, i int, known ...string) (map[string]any, error) {
	v, ok := optionAt(options, i)
	if !ok {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: option %d must be an object, got %T", ErrInvalidOptions, i, v)
	}
	for key := range obj {
		if !contains(known, key) {
			return nil, fmt.Errorf("%w: unknown property %q", ErrInvalidOptions, key)
		}
	}
	return obj, nil
}

func boolProp(obj map[string]any, name string, def bool) (bool, error) {
	v, ok := obj[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidOptions, name, v)
	}
	return b, nil
}

func enumProp(obj map[string]any, name, def string, allowed ...string) (string, error) {
	v, ok := obj[name]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok || !contains(allowed, s) {
		return "", fmt.Errorf("%w: %s must be one of %v, got %v", ErrInvalidOptions, name, allowed, v)
	}
	return s, nil
}

// intValue converts a decoded number to int.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
