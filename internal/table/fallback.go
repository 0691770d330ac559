package table

import (
	"strings"

	"github.com/dgallion1/docchunk/internal/textutil"
)

// Fallback ceilings. Stricter than the DOM path since the fallback only
// sees raw row/cell markup.
const (
	fallbackMaxRows       = 50
	fallbackMaxCols       = 10
	fallbackCellChars     = 100
	fallbackDataRowEnd    = 30
	fallbackMarkdownRows  = 20
	fallbackMarkdownCell  = 30
	fallbackSentenceValue = 80
	fallbackSentenceChars = 400
	fallbackMarkdownChars = 6000
	fallbackTSVChars      = 5000
)

// convertFallback reads rows and cells with tag-level regexes when the DOM
// path cannot produce a usable grid.
func convertFallback(html, context string, res Result) Result {
	rows := regexRows(html)
	if len(rows) > fallbackMaxRows {
		res.warn("too many rows (%d), skipping table", len(rows))
		return unusable(res)
	}

	var simple [][]string
	for _, r := range rows {
		cells := regexCells(r, fallbackCellChars)
		if len(cells) > 0 && len(cells) <= fallbackMaxCols {
			simple = append(simple, cells)
		}
	}
	if len(simple) < 2 {
		res.warn("insufficient table data, skipping")
		return unusable(res)
	}

	headers := simple[0]
	data := simple[1:min(fallbackDataRowEnd, len(simple))]
	if allBlank(headers) {
		res.warn("no valid headers found, skipping table")
		return unusable(res)
	}

	tsvLines := []string{strings.Join(headers, "\t")}
	for _, r := range data {
		cleaned := make([]string, len(r))
		for i, c := range r {
			c = strings.ReplaceAll(c, "\t", " ")
			cleaned[i] = strings.TrimSpace(strings.ReplaceAll(c, "\n", " "))
		}
		padded := padTo(cleaned, len(headers))
		tsvLines = append(tsvLines, strings.Join(padded, "\t"))

		var parts []string
		for i, col := range headers {
			val := strings.TrimSpace(padded[i])
			if val == "" {
				continue
			}
			parts = append(parts, col+": "+textutil.Prefix(val, fallbackSentenceValue))
		}
		if len(parts) > 0 {
			sent := textutil.Ellipsize(strings.Join(parts, sentencePairJoin), fallbackSentenceChars)
			res.RowSentences = append(res.RowSentences, withContext(context, sent))
		}
	}

	tsv, cut := textutil.CapWithMarker(strings.Join(tsvLines, "\n"), fallbackTSVChars)
	if cut {
		res.warn("tsv still too large, truncating to %d chars", fallbackTSVChars)
		res.Truncated = true
	}
	res.TSV = tsv
	res.Headers = headers

	if len(data) > 0 {
		shown := make([]string, len(headers))
		for i, h := range headers {
			shown[i] = textutil.Prefix(h, fallbackMarkdownCell)
		}
		var mdRows [][]string
		for _, r := range data[:min(fallbackMarkdownRows, len(data))] {
			cells := make([]string, len(r))
			for i, c := range r {
				cells[i] = textutil.Prefix(strings.TrimSpace(strings.ReplaceAll(c, "|", `\|`)), fallbackMarkdownCell)
			}
			mdRows = append(mdRows, padTo(cells, len(headers)))
		}
		md, cut := textutil.CapWithMarker(renderRawMarkdown(shown, mdRows), fallbackMarkdownChars)
		if cut {
			res.warn("markdown too large, truncating to %d chars", fallbackMarkdownChars)
			res.Truncated = true
		}
		res.Markdown = md
	}

	res.Path = PathFallback
	return res
}

// renderRawMarkdown renders a pipe table from cells that are already escaped.
func renderRawMarkdown(headers []string, rows [][]string) string {
	lines := []string{
		"| " + strings.Join(headers, " | ") + " |",
		"|" + strings.Repeat(" --- |", len(headers)),
	}
	for _, r := range rows {
		lines = append(lines, "| "+strings.Join(r, " | ")+" |")
	}
	return strings.Join(lines, "\n")
}

func padTo(cells []string, n int) []string {
	out := make([]string, n)
	copy(out, cells)
	return out
}

func allBlank(ss []string) bool {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}
