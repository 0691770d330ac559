package table

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/docchunk/internal/textutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fruitTable = `<table><tr><th>Name</th><th>Qty</th></tr><tr><td>Apple</td><td>3</td></tr><tr><td>Pear</td><td></td></tr></table>`

func buildTable(rows, cols int, cell func(r, c int) string) string {
	var b strings.Builder
	b.WriteString("<table>")
	for r := range rows {
		b.WriteString("<tr>")
		for c := range cols {
			b.WriteString("<td>" + cell(r, c) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"well formed", fruitTable, true},
		{"single row", "<table><tr><td>x</td></tr></table>", false},
		{"too short", "<table></table>", false},
		{"no table tag", "<div><tr><td>a</td></tr><tr><td>b</td></tr></div>", false},
		{"too many rows", buildTable(201, 1, func(r, _ int) string { return fmt.Sprint(r) }), false},
		{"too many cells", buildTable(101, 11, func(r, c int) string { return fmt.Sprintf("%d-%d", r, c) }), false},
		{"repeated garbage", buildTable(4, 3, func(_, _ int) string { return "Genus" }), false},
		{"mostly nan", buildTable(4, 3, func(r, c int) string {
			if r == 0 && c == 0 {
				return "id"
			}
			return "nan"
		}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := Validate(tt.html)
			if ok != tt.want {
				t.Errorf("expected %v, got %v (reason %q)", tt.want, ok, reason)
			}
			if !ok && reason == "" {
				t.Error("expected a rejection reason")
			}
		})
	}
}

func TestValidate_RowCeilingIgnoresContent(t *testing.T) {
	html := buildTable(250, 2, func(r, c int) string { return fmt.Sprintf("value %d %d", r, c) })
	ok, reason := Validate(html)
	assert.False(t, ok)
	assert.Contains(t, reason, "too many rows")
}

func TestConvert_HeaderRow(t *testing.T) {
	res := Convert(fruitTable, Options{})
	require.True(t, res.Usable())
	assert.Equal(t, PathDOM, res.Path)
	assert.Equal(t, []string{"Name", "Qty"}, res.Headers)
	assert.Equal(t, "| Name | Qty |\n| --- | --- |\n| Apple | 3 |\n| Pear |  |", res.Markdown)
	assert.Equal(t, "Name\tQty\nApple\t3\nPear\t\n", res.TSV)
	assert.Equal(t, []string{"Name: Apple, Qty: 3", "Name: Pear"}, res.RowSentences)
}

func TestConvert_ContextPrefix(t *testing.T) {
	res := Convert(fruitTable, Options{Context: "Fruit"})
	require.NotEmpty(t, res.RowSentences)
	assert.Equal(t, "Fruit — Name: Apple, Qty: 3", res.RowSentences[0])
}

func TestConvert_PositionalHeaders(t *testing.T) {
	res := Convert(`<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>`, Options{})
	assert.Equal(t, []string{"0", "1"}, res.Headers)
	assert.Equal(t, []string{"0: a, 1: b", "0: c, 1: d"}, res.RowSentences)
}

func TestConvert_Spans(t *testing.T) {
	html := `<table><thead><tr><th>Region</th><th colspan="2">Sales</th></tr></thead>` +
		`<tr><td rowspan="2">North</td><td>1</td><td>2</td></tr><tr><td>3</td><td>4</td></tr></table>`
	res := Convert(html, Options{})
	require.Equal(t, PathDOM, res.Path)
	assert.Equal(t, []string{"Region", "Sales", "Sales"}, res.Headers)
	assert.Equal(t, []string{
		"Region: North, Sales: 1, Sales: 2",
		"Region: North, Sales: 3, Sales: 4",
	}, res.RowSentences)
}

func TestConvert_TooWideIsUnusable(t *testing.T) {
	html := buildTable(2, 26, func(r, c int) string { return fmt.Sprintf("r%dc%d", r, c) })
	res := Convert(html, Options{})
	assert.False(t, res.Usable())
	assert.Empty(t, res.Headers)
	joined := strings.Join(res.Warnings, "\n")
	assert.Contains(t, joined, "table too large")
	assert.Contains(t, joined, "insufficient table data")
}

func TestConvert_FallbackOnBlankHeaders(t *testing.T) {
	html := `<table><tr><th></th><th></th></tr><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>`
	res := Convert(html, Options{})
	require.True(t, res.Usable())
	assert.Equal(t, PathFallback, res.Path)
	assert.Equal(t, []string{"a", "b"}, res.Headers)
	assert.Equal(t, "a\tb\nc\td", res.TSV)
	assert.Equal(t, "| a | b |\n| --- | --- |\n| c | d |", res.Markdown)
	assert.Equal(t, []string{"a: c, b: d"}, res.RowSentences)

	strict := Convert(html, Options{Strict: true})
	assert.False(t, strict.Usable())
}

func TestConvert_TruncatesLargeRenderings(t *testing.T) {
	html := buildTable(61, 3, func(r, c int) string {
		return fmt.Sprintf("r%02dc%d-%s", r, c, strings.Repeat("x", 40))
	})
	res := Convert(html, Options{})
	require.Equal(t, PathDOM, res.Path)
	assert.True(t, res.Truncated)
	assert.True(t, strings.HasSuffix(res.Markdown, textutil.TruncationMarker))
	assert.Equal(t, maxRenderChars+textutil.Len(textutil.TruncationMarker), textutil.Len(res.Markdown))
	assert.Len(t, res.RowSentences, maxRowSentences)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "markdown too large")
}

func TestConvert_LongValuesAreEllipsized(t *testing.T) {
	long := strings.Repeat("y", 150)
	html := `<table><tr><th>Key</th><th>Value</th></tr><tr><td>k</td><td>` + long + `</td></tr></table>`
	res := Convert(html, Options{})
	require.Len(t, res.RowSentences, 1)
	assert.Equal(t, "Key: k, Value: "+strings.Repeat("y", 100)+"...", res.RowSentences[0])
}

func TestConvert_LongHeadersKeptInSentences(t *testing.T) {
	header := "Quarterly revenue adjusted for seasonal variation in euros"
	html := `<table><tr><th>Region</th><th>` + header + `</th></tr>` +
		`<tr><td>North</td><td>12</td></tr><tr><td>South</td><td>9</td></tr></table>`
	res := Convert(html, Options{})
	require.Equal(t, PathDOM, res.Path)
	require.Len(t, res.Headers, 2)
	assert.Equal(t, textutil.Prefix(header, maxHeaderChars), res.Headers[1])
	assert.Equal(t, maxHeaderChars, textutil.Len(res.Headers[1]))
	assert.Equal(t, []string{
		"Region: North, " + header + ": 12",
		"Region: South, " + header + ": 9",
	}, res.RowSentences)
}

func TestRenderTSV(t *testing.T) {
	got, err := renderTSV([]string{"a", "b"}, [][]string{{"1", `say "hi"`}, {"x\ty", ""}})
	require.NoError(t, err)
	assert.Equal(t, "a\tb\n1\t\"say \"\"hi\"\"\"\n\"x\ty\"\t\n", got)
}

func TestConvert_InvalidTable(t *testing.T) {
	res := Convert("<table><tr><td>x</td></tr></table>", Options{})
	assert.False(t, res.Usable())
	assert.NotEmpty(t, res.Warnings)
}

func TestSimplify(t *testing.T) {
	got := Simplify(`<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`)
	assert.Equal(t, "Headers: A | B\nRow 1: 1 | 2", got)

	assert.Empty(t, Simplify("<table><tr><td>only</td></tr></table>"))
	assert.Empty(t, Simplify(buildTable(51, 1, func(r, _ int) string { return fmt.Sprint(r) })))
}

func TestSimplify_Truncates(t *testing.T) {
	html := buildTable(20, 8, func(r, c int) string { return fmt.Sprintf("%d-%d-%s", r, c, strings.Repeat("z", 20)) })
	got := Simplify(html)
	assert.True(t, strings.HasSuffix(got, textutil.TruncationMarker))
	assert.Equal(t, simplifyMaxChars+textutil.Len(textutil.TruncationMarker), textutil.Len(got))
}
