package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/docchunk/internal/textutil"
	"golang.org/x/net/html"
)

// Span attributes beyond these are treated as recognizer noise.
const (
	maxColspan = maxGridCols * 4
	maxRowspan = maxGridRows * 2
)

// grid is a table expanded into a rectangular matrix of cell text.
type grid struct {
	headers []string
	rows    [][]string
	width   int
}

type rawCell struct {
	text    string
	header  bool
	colspan int
	rowspan int
}

// parseGrid reads the first <table> in src. Rows under <thead>, or leading
// rows made only of <th> cells, become the header; otherwise columns are
// named by position.
func parseGrid(src string) (*grid, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, errNoTable
	}

	var rows [][]rawCell
	var inHead []bool
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Skip rows of nested tables.
		if !tr.Closest("table").IsSelection(table) {
			return
		}
		var cells []rawCell
		tr.ChildrenFiltered("td, th").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, rawCell{
				text:    textContent(td.Nodes[0]),
				header:  goquery.NodeName(td) == "th",
				colspan: spanAttr(td, "colspan", maxColspan),
				rowspan: spanAttr(td, "rowspan", maxRowspan),
			})
		})
		if len(cells) == 0 {
			return
		}
		rows = append(rows, cells)
		inHead = append(inHead, tr.Closest("thead").Length() > 0)
	})
	if len(rows) == 0 {
		return nil, errNoTable
	}

	headerCount := countHeaderRows(rows, inHead)
	lines := expandSpans(rows)

	g := &grid{}
	for _, l := range lines {
		g.width = max(g.width, len(l))
	}
	for i := range lines {
		for len(lines[i]) < g.width {
			lines[i] = append(lines[i], "")
		}
	}

	headers, err := buildHeaders(lines[:headerCount], g.width)
	if err != nil {
		return nil, err
	}
	g.headers = headers
	g.rows = lines[headerCount:]
	return g, nil
}

func countHeaderRows(rows [][]rawCell, inHead []bool) int {
	n := 0
	for _, h := range inHead {
		if h {
			n++
		}
	}
	if n > 0 {
		return n
	}
	for _, row := range rows {
		for _, c := range row {
			if !c.header {
				return n
			}
		}
		n++
	}
	// A table made only of <th> rows keeps its first row as header.
	return min(n, 1)
}

type carry struct {
	text string
	left int
}

// expandSpans copies colspan/rowspan cells into every slot they cover.
func expandSpans(rows [][]rawCell) [][]string {
	var carries []carry
	out := make([][]string, 0, len(rows))

	for _, row := range rows {
		var line []string
		col := 0
		fill := func() {
			for col < len(carries) && carries[col].left > 0 {
				line = append(line, carries[col].text)
				carries[col].left--
				col++
			}
		}
		for _, c := range row {
			fill()
			for range c.colspan {
				line = append(line, c.text)
				if c.rowspan > 1 {
					for len(carries) <= col {
						carries = append(carries, carry{})
					}
					carries[col] = carry{text: c.text, left: c.rowspan - 1}
				}
				col++
			}
		}
		for pendingFrom(carries, col) {
			if col < len(carries) && carries[col].left > 0 {
				line = append(line, carries[col].text)
				carries[col].left--
			} else {
				line = append(line, "")
			}
			col++
		}
		out = append(out, line)
	}
	return out
}

func pendingFrom(carries []carry, col int) bool {
	for i := col; i < len(carries); i++ {
		if carries[i].left > 0 {
			return true
		}
	}
	return false
}

func buildHeaders(headerRows [][]string, width int) ([]string, error) {
	headers := make([]string, width)
	if len(headerRows) == 0 {
		for j := range headers {
			headers[j] = strconv.Itoa(j)
		}
		return headers, nil
	}

	blank := 0
	for j := range headers {
		var parts []string
		for _, row := range headerRows {
			v := row[j]
			if v != "" && (len(parts) == 0 || parts[len(parts)-1] != v) {
				parts = append(parts, v)
			}
		}
		headers[j] = strings.Join(parts, " ")
		if headers[j] == "" {
			headers[j] = fmt.Sprintf("Unnamed: %d", j)
			blank++
		}
	}
	if blank == width {
		return nil, fmt.Errorf("no valid headers found")
	}
	return headers, nil
}

func spanAttr(s *goquery.Selection, name string, limit int) int {
	v, ok := s.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return min(n, limit)
}

// textContent returns the whitespace-collapsed text under n.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return textutil.CollapseSpace(buf.String())
}
