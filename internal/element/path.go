// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package element

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPath is returned for empty paths or paths with empty segments.
var ErrMalformedPath = errors.New("malformed property path")

// SplitPath splits a dot-delimited property path into its segments.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedPath)
	}
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrMalformedPath, path)
		}
	}
	return segs, nil
}

// Get returns the value at path. The second result is false when any
// segment is missing or an intermediate value is not an object.
func Get(cfg map[string]any, path string) (any, bool) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, false
	}
	var cur any = cfg
	for _, seg := range segs {
		m, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set returns a copy of cfg with path set to v. cfg itself is never
// modified: only the maps along the path are copied, untouched branches are
// shared with the input. Missing intermediate objects are created and a
// non-object intermediate is replaced by an object. A nil v removes the key.
func Set(cfg Config, path string, v any) (Config, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	return Config(setIn(cfg, segs, v)), nil
}

func setIn(m map[string]any, segs []string, v any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, val := range m {
		out[k] = val
	}
	key := segs[0]
	if len(segs) == 1 {
		if v == nil {
			delete(out, key)
		} else {
			out[key] = v
		}
		return out
	}
	child, _ := asObject(out[key])
	out[key] = setIn(child, segs[1:], v)
	return out
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Config:
		return m, true
	}
	return nil, false
}
