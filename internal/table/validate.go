// Package table validates recognizer HTML tables and converts them into
// markdown, TSV and per-row sentences for retrieval.
package table

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/docchunk/internal/textutil"
)

// Validation ceilings.
const (
	minHTMLLength       = 20
	maxValidateRows     = 200
	minValidateRows     = 2
	maxValidateCells    = 1000
	maxRepeatedFraction = 0.7
	maxEmptyFraction    = 0.8
)

var (
	reTableTag = regexp.MustCompile(`(?i)<table[^>]*>`)
	reRow      = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	reCell     = regexp.MustCompile(`(?is)<t[dh][^>]*>(.*?)</t[dh]>`)
	reTag      = regexp.MustCompile(`<.*?>`)
)

// Validate reports whether html looks like a well-formed, reasonably sized
// table. When it does not, reason explains why.
func Validate(html string) (ok bool, reason string) {
	if textutil.Len(strings.TrimSpace(html)) < minHTMLLength {
		return false, "table html too short"
	}
	if !reTableTag.MatchString(html) {
		return false, "no <table> tag"
	}

	rows := reRow.FindAllStringIndex(html, -1)
	if len(rows) > maxValidateRows {
		return false, fmt.Sprintf("too many rows (%d)", len(rows))
	}
	if len(rows) < minValidateRows {
		return false, fmt.Sprintf("too few rows (%d)", len(rows))
	}

	cells := reCell.FindAllStringSubmatch(html, -1)
	if len(cells) > maxValidateCells {
		return false, fmt.Sprintf("too many cells (%d)", len(cells))
	}

	var contents []string
	for _, m := range cells {
		if strings.TrimSpace(m[1]) == "" {
			continue
		}
		contents = append(contents, stripTags(m[1]))
	}
	if len(contents) == 0 {
		return true, ""
	}

	counts := make(map[string]int, len(contents))
	top, topCount := "", 0
	for _, c := range contents {
		counts[c]++
		if counts[c] > topCount {
			top, topCount = c, counts[c]
		}
	}
	if float64(topCount)/float64(len(contents)) > maxRepeatedFraction {
		return false, fmt.Sprintf("malformed: %d/%d cells contain %q", topCount, len(contents), top)
	}

	empty := 0
	for _, c := range contents {
		if c == "" || c == "nan" {
			empty++
		}
	}
	if float64(empty)/float64(len(contents)) > maxEmptyFraction {
		return false, fmt.Sprintf("malformed: %d/%d cells are empty", empty, len(contents))
	}
	return true, ""
}

func stripTags(s string) string {
	return strings.TrimSpace(reTag.ReplaceAllString(s, ""))
}

// regexRows returns the inner html of every <tr>.
func regexRows(html string) []string {
	matches := reRow.FindAllStringSubmatch(html, -1)
	rows := make([]string, len(matches))
	for i, m := range matches {
		rows[i] = m[1]
	}
	return rows
}

// regexCells returns the tag-stripped text of every cell in a row, each
// capped at maxLen, with empty cells dropped.
func regexCells(row string, maxLen int) []string {
	var cells []string
	for _, m := range reCell.FindAllStringSubmatch(row, -1) {
		c := textutil.Prefix(stripTags(m[1]), maxLen)
		if c != "" {
			cells = append(cells, c)
		}
	}
	return cells
}
