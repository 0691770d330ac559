package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docchunk/internal/textutil"
)

// Conversion ceilings for the DOM path.
const (
	maxGridRows      = 100
	maxGridCols      = 25
	maxCellChars     = 200
	maxHeaderChars   = 50
	maxRenderChars   = 8000
	maxRowSentences  = 50
	maxSentenceValue = 100
	maxSentenceChars = 500
	contextSeparator = " — "
	sentencePairJoin = ", "
)

// Path records which conversion strategy produced a Result.
type Path string

const (
	PathNone     Path = ""
	PathDOM      Path = "dom"
	PathFallback Path = "fallback"
)

// Result is the outcome of converting one table. Empty Markdown or TSV
// means that rendering is unavailable.
type Result struct {
	Markdown     string   `json:"markdown,omitempty"`
	TSV          string   `json:"tsv,omitempty"`
	Headers      []string `json:"headers"`
	RowSentences []string `json:"row_sentences"`
	Path         Path     `json:"path,omitempty"`
	Truncated    bool     `json:"truncated,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Usable reports whether any rendering was produced.
func (r Result) Usable() bool {
	return r.Markdown != "" || r.TSV != ""
}

// Options tunes Convert.
type Options struct {
	// Context is prefixed to every row sentence when set.
	Context string
	// Strict rejects tables that only the regex fallback can read.
	Strict bool
}

var errNoTable = errors.New("no table parsed")

// Convert validates html and renders it as markdown, TSV and row
// sentences. It never fails: problems are reported in Result.Warnings and
// an unusable table yields a Result with no renderings.
func Convert(html string, opts Options) Result {
	var res Result
	if ok, reason := Validate(html); !ok {
		res.warn("invalid or malformed table html: %s", reason)
		return unusable(res)
	}

	g, err := parseGrid(html)
	if err == nil {
		err = g.checkShape()
	}
	if err == nil {
		res.fromGrid(g, opts.Context)
		res.Path = PathDOM
		return res
	}

	res.warn("table parsing failed: %v; using strict fallback parser", err)
	if opts.Strict {
		res.warn("strict mode: fallback parsing disabled")
		return unusable(res)
	}
	return convertFallback(html, opts.Context, res)
}

func (g *grid) checkShape() error {
	if len(g.rows) > maxGridRows || g.width > maxGridCols {
		return fmt.Errorf("table too large: %d rows x %d columns", len(g.rows), g.width)
	}
	return nil
}

func (r *Result) fromGrid(g *grid, context string) {
	headers := make([]string, len(g.headers))
	for i, h := range g.headers {
		headers[i] = textutil.Prefix(h, maxHeaderChars)
	}
	rows := make([][]string, len(g.rows))
	for i, row := range g.rows {
		rows[i] = make([]string, len(row))
		for j, c := range row {
			rows[i][j] = textutil.Prefix(c, maxCellChars)
		}
	}
	r.Headers = headers

	md, cut := textutil.CapWithMarker(renderMarkdown(headers, rows, 0), maxRenderChars)
	if cut {
		r.warn("markdown too large, truncating to %d chars", maxRenderChars)
		r.Truncated = true
	}
	r.Markdown = md

	tsv, err := renderTSV(headers, rows)
	if err != nil {
		r.warn("tsv rendering failed: %v", err)
	}
	tsv, cut = textutil.CapWithMarker(tsv, maxRenderChars)
	if cut {
		r.warn("tsv too large, truncating to %d chars", maxRenderChars)
		r.Truncated = true
	}
	r.TSV = tsv

	// Sentences label values with the full column names; only the
	// headers list is cut.
	for i, row := range rows {
		if i >= maxRowSentences {
			break
		}
		var parts []string
		for j, col := range g.headers {
			val := strings.TrimSpace(row[j])
			if val == "" || val == "nan" {
				continue
			}
			parts = append(parts, col+": "+textutil.Ellipsize(val, maxSentenceValue))
		}
		if len(parts) == 0 {
			continue
		}
		sent := textutil.Ellipsize(strings.Join(parts, sentencePairJoin), maxSentenceChars)
		r.RowSentences = append(r.RowSentences, withContext(context, sent))
	}
}

// renderMarkdown renders a pipe table. limit caps the rendered data rows
// (0 means all).
func renderMarkdown(headers []string, rows [][]string, limit int) string {
	var b strings.Builder
	b.WriteString(markdownRow(headers))
	b.WriteString("\n|")
	for range headers {
		b.WriteString(" --- |")
	}
	for i, row := range rows {
		if limit > 0 && i >= limit {
			break
		}
		b.WriteString("\n")
		b.WriteString(markdownRow(row))
	}
	return b.String()
}

func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\n", " ")
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

func renderTSV(headers []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("write tsv header: %w", err)
	}
	// WriteAll flushes and reports any buffered write error.
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("write tsv rows: %w", err)
	}
	return buf.String(), nil
}

func withContext(context, sent string) string {
	if context == "" {
		return sent
	}
	return context + contextSeparator + sent
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func unusable(r Result) Result {
	r.Markdown, r.TSV = "", ""
	r.Headers, r.RowSentences = nil, nil
	r.Path = PathNone
	r.Truncated = false
	return r
}
