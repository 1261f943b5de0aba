// Package normalize prepares user-typed text for case-insensitive matching.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// Text trims s and folds its case. Folding is Unicode-aware, so "TECH",
// "Tech" and "tech" compare equal.
func Text(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Contains reports whether term occurs in s ignoring case. An empty term
// matches everything.
func Contains(s, term string) bool {
	return strings.Contains(Text(s), Text(term))
}
