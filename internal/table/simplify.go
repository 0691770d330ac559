package table

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docchunk/internal/textutil"
)

const (
	simplifyMaxRows   = 50
	simplifyScanRows  = 20
	simplifyCellChars = 80
	simplifyMaxCols   = 8
	simplifyMaxChars  = 1500
)

// Simplify renders html as a plain "Headers: ... / Row i: ..." listing. It
// is the last resort when Convert yields nothing and returns "" when even
// this is unusable.
func Simplify(html string) string {
	if textutil.Len(strings.TrimSpace(html)) < minHTMLLength {
		return ""
	}
	rows := regexRows(html)
	if len(rows) == 0 || len(rows) > simplifyMaxRows {
		return ""
	}

	var lines []string
	for i, row := range rows[:min(simplifyScanRows, len(rows))] {
		cells := regexCells(row, simplifyCellChars)
		if len(cells) == 0 || len(cells) > simplifyMaxCols {
			continue
		}
		if i == 0 {
			lines = append(lines, "Headers: "+strings.Join(cells, " | "))
		} else {
			lines = append(lines, fmt.Sprintf("Row %d: %s", i, strings.Join(cells, " | ")))
		}
	}
	if len(lines) < 2 {
		return ""
	}
	out, _ := textutil.CapWithMarker(strings.Join(lines, "\n"), simplifyMaxChars)
	return out
}
