// Package textutil holds rune-aware string helpers. Lengths and caps used
// throughout the pipeline count Unicode code points, not bytes.
package textutil

import (
	"strings"
	"unicode/utf8"
)

// TruncationMarker is appended to renderings cut at a size ceiling.
const TruncationMarker = "\n... (truncated)"

// Len returns the number of code points in s.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Prefix returns the first n code points of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Ellipsize cuts s to n code points and appends "..." when it was longer.
func Ellipsize(s string, n int) string {
	if Len(s) <= n {
		return s
	}
	return Prefix(s, n) + "..."
}

// CapWithMarker cuts s to n code points and appends TruncationMarker when
// it was longer. The bool reports whether truncation happened.
func CapWithMarker(s string, n int) (string, bool) {
	if Len(s) <= n {
		return s, false
	}
	return Prefix(s, n) + TruncationMarker, true
}

// CollapseSpace trims s and folds every whitespace run into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
