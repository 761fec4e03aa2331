// Package slug derives normalized, URL-safe identifiers from display names
// and resolves collisions against a persisted collection.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxPostLen caps post and category slugs.
	MaxPostLen = 100
	// MaxTagLen caps tag slugs.
	MaxTagLen = 50
)

var (
	invalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// Checker probes a collection for an existing slug. excludeID skips the
// record currently being updated; zero means no exclusion.
type Checker interface {
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
}

// Normalize turns free text into a slug: lowercase, strip anything outside
// [a-z0-9\s-], collapse whitespace to single hyphens, trim and collapse
// hyphens, then truncate to maxLen trimming any trailing hyphen. Empty or
// all-stripped input yields an empty string; callers must reject that
// upstream as a validation failure.
func Normalize(text string, maxLen int) string {
	s := strings.ToLower(text)
	s = invalidChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")

	if len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	return s
}

// Unique resolves a collision-free slug for name by probing the collection
// and appending -1, -2, ... until no conflict remains. The probe and the
// subsequent insert are separate store calls, so a concurrent writer can
// still win the same suffix; the store's unique index is the backstop and
// callers retry once on a duplicate-key loss.
func Unique(ctx context.Context, c Checker, name string, maxLen int, excludeID uint) (string, error) {
	base := Normalize(name, maxLen)
	candidate := base
	counter := 1

	for {
		exists, err := c.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
		counter++
	}
}
