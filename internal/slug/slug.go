// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives the public path segment of a website from its name.
package slug

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// MaxLength bounds generated slugs.
const MaxLength = 64

// Fallback is used when a name contains nothing sluggable.
const Fallback = "site"

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace      = regexp.MustCompile(`\s+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	valid           = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// ErrExhausted is returned by Unique when every candidate is taken.
var ErrExhausted = errors.New("no free slug")

// Generate lowercases s, drops everything but letters, digits and hyphens,
// and joins words with single hyphens: "Hello, World! 2026" becomes
// "hello-world-2026". The result is at most MaxLength bytes.
func Generate(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = nonAlphanumeric.ReplaceAllString(out, "")
	out = whitespace.ReplaceAllString(out, "-")
	out = multipleHyphens.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-")
	if len(out) > MaxLength {
		out = strings.TrimRight(out[:MaxLength], "-")
	}
	return out
}

// Valid reports whether s is a well-formed slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && valid.MatchString(s)
}

// Unique returns base, or base with a short random suffix, such that exists
// reports it free. An empty base becomes Fallback.
func Unique(ctx context.Context, base string, exists func(context.Context, string) (bool, error)) (string, error) {
	if base == "" {
		base = Fallback
	}
	candidate := base
	for range 5 {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		suffix := uuid.NewString()[:6]
		candidate = strings.TrimRight(base[:min(len(base), MaxLength-len(suffix)-1)], "-") + "-" + suffix
	}
	return "", fmt.Errorf("%w for %s", ErrExhausted, base)
}
