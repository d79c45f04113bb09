package engine

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mcdev12/luckydraw/go/internal/models"
)

// isSpace matches the JavaScript \s class: Unicode White_Space plus the BOM,
// minus NEL (U+0085).
func isSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// NormalizeName trims raw and collapses internal whitespace runs to one space.
// It reports false when nothing is left. Case and Unicode form are preserved.
func NormalizeName(raw string) (string, bool) {
	fields := strings.FieldsFunc(raw, isSpace)
	if len(fields) == 0 {
		return "", false
	}
	return strings.Join(fields, " "), true
}

// SplitNames splits free-text input on commas and newlines and returns the
// normalized candidates in input order. Blank candidates are dropped.
func SplitNames(input string) []string {
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name, ok := NormalizeName(p); ok {
			names = append(names, name)
		}
	}
	return names
}

// ValidateState checks a state received from outside the process: every
// entry must already be a normalized name, neither list may hold duplicates,
// and only the current winner may sit in both lists.
func ValidateState(s models.DrawState) error {
	seen := make(map[string]struct{}, len(s.Names))
	for i, n := range s.Names {
		if !isNormalized(n) {
			return fmt.Errorf("%w: names[%d] %q is not normalized", models.ErrInvalidState, i, n)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate name %q", models.ErrInvalidState, n)
		}
		seen[n] = struct{}{}
	}
	won := make(map[string]struct{}, len(s.Winners))
	for i, w := range s.Winners {
		if !isNormalized(w) {
			return fmt.Errorf("%w: winners[%d] %q is not normalized", models.ErrInvalidState, i, w)
		}
		if _, dup := won[w]; dup {
			return fmt.Errorf("%w: duplicate winner %q", models.ErrInvalidState, w)
		}
		won[w] = struct{}{}
		if _, inPool := seen[w]; inPool && (s.CurrentWinner == nil || *s.CurrentWinner != w) {
			return fmt.Errorf("%w: %q is both in the pool and a winner", models.ErrInvalidState, w)
		}
	}
	if s.CurrentWinner != nil && !isNormalized(*s.CurrentWinner) {
		return fmt.Errorf("%w: currentWinner %q is not normalized", models.ErrInvalidState, *s.CurrentWinner)
	}
	return nil
}

func isNormalized(name string) bool {
	n, ok := NormalizeName(name)
	return ok && n == name
}
