package transform

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/dgallion1/docchunk/internal/bbox"
	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/table"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// labelTypes maps recognizer labels to chunk types. Unknown labels are text.
var labelTypes = map[string]doctree.ChunkType{
	"title":   doctree.TypeTitle,
	"sec":     doctree.TypeSection,
	"sub_sec": doctree.TypeSubsection,
	"para":    doctree.TypeText,
	"tab":     doctree.TypeTable,
	"fig":     doctree.TypeFigure,
	"cap":     doctree.TypeCaption,
	"fnote":   doctree.TypeMarginalia,
	"header":  doctree.TypeHeader,
	"foot":    doctree.TypeMarginalia,
}

// TypeForLabel returns the chunk type for a recognizer label.
func TypeForLabel(label string) doctree.ChunkType {
	if t, ok := labelTypes[strings.ToLower(label)]; ok {
		return t
	}
	return doctree.TypeText
}

var markdownPrefix = map[string]string{
	"title":   "# ",
	"sec":     "## ",
	"sub_sec": "### ",
}

// Table gates.
const (
	minTableHTML      = 30
	maxTableHTML      = 50000
	maxTableText      = 3000
	minTableText      = 50
	maxRowBlockRows   = 3
	minRowSentences   = 3 // exclusive
	maxRowSentences   = 30
	maxRowBlockChars  = 800
	minRowBlockChars  = 20
	minRowBlockColons = 2
)

const rowSentencesLabel = "table_row_sentences"

type pageResult struct {
	chunks   []doctree.Chunk
	markdown []string
	diags    []doctree.Diagnostic
}

// pageMapper holds the state for mapping one page.
type pageMapper struct {
	t      *Transformer
	log    *slog.Logger
	page   int
	width  float64
	height float64
	res    pageResult
}

func (t *Transformer) mapPage(p doctree.Page) pageResult {
	m := &pageMapper{
		t:    t,
		log:  t.opts.Logger.With("doc_id", t.opts.DocID, "page", p.PageNumber),
		page: p.PageNumber,
	}
	if t.opts.PageDims != nil {
		w, h, err := t.opts.PageDims(p.PageNumber)
		if err != nil {
			m.log.Debug("page dimensions unavailable", "error", err)
		} else {
			m.width, m.height = w, h
		}
	}

	els := p.Elements
	for i := 0; i < len(els); i++ {
		el := &els[i]
		label := strings.ToLower(el.Label)
		if t.exclude[label] {
			continue
		}
		switch label {
		case "fig":
			var caption *doctree.PageElement
			if t.opts.FuseFigureAndCaption && i+1 < len(els) && strings.EqualFold(els[i+1].Label, "cap") {
				caption = &els[i+1]
				i++
			}
			m.figure(el, caption)
		case "tab":
			m.table(el)
		case "cap":
			m.caption(el)
		default:
			m.text(el, label)
		}
	}
	return m.res
}

func (m *pageMapper) box(el *doctree.PageElement) *doctree.Box {
	return bbox.Normalize(el.BBox, m.width, m.height)
}

func (m *pageMapper) chunkID(roStart, roEnd int, part string) string {
	return fmt.Sprintf("%s:%03d:%d-%d:%s", m.t.opts.DocID, m.page, roStart, roEnd, part)
}

func (m *pageMapper) emit(c doctree.Chunk) {
	m.res.chunks = append(m.res.chunks, c)
}

func (m *pageMapper) md(s string) {
	m.res.markdown = append(m.res.markdown, s+"\n\n")
}

func (m *pageMapper) diag(kind doctree.DiagnosticKind, ro int, chunkID, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	m.res.diags = append(m.res.diags, doctree.Diagnostic{
		Kind:         kind,
		Page:         m.page,
		ReadingOrder: ro,
		ChunkID:      chunkID,
		Message:      msg,
	})
	m.log.Warn(msg, "kind", kind, "reading_order", ro)
}

// figure emits one figure chunk, fused with its caption when one is given.
// The caption text is preferred as the display text.
func (m *pageMapper) figure(el, caption *doctree.PageElement) {
	ro, roEnd := el.ReadingOrder, el.ReadingOrder
	labels := []string{"fig"}
	text := strings.TrimSpace(el.Text)
	if caption != nil {
		labels = append(labels, "cap")
		roEnd = caption.ReadingOrder
		if capText := strings.TrimSpace(caption.Text); capText != "" {
			text = capText
		}
	}
	if text != "" {
		m.md(text)
	}
	m.emit(doctree.Chunk{
		ChunkID:   m.chunkID(ro, roEnd, "0"),
		ChunkType: doctree.TypeFigure,
		Text:      text,
		Grounding: []doctree.Grounding{{Page: m.page, Box: m.box(el)}},
		Metadata: doctree.ChunkMetadata{
			Labels:            labels,
			ReadingOrderRange: [2]int{ro, roEnd},
			FigurePath:        el.FigurePath,
		},
	})
}

func (m *pageMapper) table(el *doctree.PageElement) {
	ro := el.ReadingOrder
	html := el.Text
	trimmed := strings.TrimSpace(html)
	if textutil.Len(trimmed) < minTableHTML {
		if trimmed != "" {
			m.diag(doctree.DiagTableRejected, ro, "", "table html too short (%d chars)", textutil.Len(trimmed))
		}
		return
	}
	if textutil.Len(trimmed) > maxTableHTML {
		m.diag(doctree.DiagTableRejected, ro, "", "skipping extremely large table html (%d chars)", textutil.Len(trimmed))
		return
	}
	if ok, reason := table.Validate(trimmed); !ok {
		m.diag(doctree.DiagTableRejected, ro, "", "skipping malformed table: %s", reason)
		return
	}

	conv := table.Convert(trimmed, table.Options{Strict: m.t.opts.StrictMode})
	for _, w := range conv.Warnings {
		m.log.Debug("table conversion", "reading_order", ro, "warning", w)
	}
	if conv.Truncated {
		m.diag(doctree.DiagTableTruncated, ro, "", "table rendering truncated")
	}

	var text, format string
	switch {
	case conv.Markdown != "":
		text, format = conv.Markdown, "markdown"
	case conv.TSV != "":
		text, format = conv.TSV, "tsv"
	default:
		text, format = table.Simplify(trimmed), "simplified_html"
		if text == "" {
			m.diag(doctree.DiagTableRejected, ro, "", "all table conversion methods failed")
			return
		}
	}
	if n := textutil.Len(text); n > maxTableText {
		m.diag(doctree.DiagTableRejected, ro, "", "skipping oversized table (%d chars)", n)
		return
	}
	if len(conv.Headers) == 0 || textutil.Len(strings.TrimSpace(text)) < minTableText {
		m.diag(doctree.DiagTableRejected, ro, "", "table lacks meaningful content")
		return
	}

	tableID := m.chunkID(ro, ro, "0")
	box := m.box(el)
	m.emit(doctree.Chunk{
		ChunkID:   tableID,
		ChunkType: doctree.TypeTable,
		Text:      text,
		Grounding: []doctree.Grounding{{Page: m.page, Box: box}},
		Metadata: doctree.ChunkMetadata{
			Labels:            []string{"tab"},
			ReadingOrderRange: [2]int{ro, ro},
			TableFormat:       format,
			Headers:           conv.Headers,
			NRows:             doctree.Ptr(len(conv.RowSentences)),
		},
	})
	m.md(text)

	if m.t.opts.TableRowBlockSize != nil {
		m.rowBlocks(el, tableID, box, conv)
	}
}

// rowBlocks emits table_row chunks of at most three row sentences each.
// Only tables with more than three and at most thirty rows qualify, and
// each block must look like structured "header: value" data.
func (m *pageMapper) rowBlocks(el *doctree.PageElement, tableID string, box *doctree.Box, conv table.Result) {
	ro := el.ReadingOrder
	sents := conv.RowSentences
	n := len(sents)
	if n > maxRowSentences {
		m.diag(doctree.DiagRowBlockRejected, ro, tableID, "table has too many rows (%d), skipping row chunks", n)
		return
	}
	if n <= minRowSentences {
		return
	}

	size := max(1, min(*m.t.opts.TableRowBlockSize, maxRowBlockRows))
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		block := sents[start:end]
		text := strings.Join(block, "\n")
		id := m.chunkID(ro, ro, fmt.Sprintf("rows%d", start))

		if l := textutil.Len(text); l > maxRowBlockChars {
			m.diag(doctree.DiagRowBlockRejected, ro, id, "skipping oversized table_row block (%d chars)", l)
			continue
		}
		colons := strings.Count(text, ":")
		if textutil.Len(strings.TrimSpace(text)) < minRowBlockChars || colons < minRowBlockColons {
			m.diag(doctree.DiagRowBlockRejected, ro, id, "table_row block failed quality gate")
			continue
		}

		var rowBox *doctree.Box
		if box != nil {
			b := *box
			rowBox = &b
		}
		m.emit(doctree.Chunk{
			ChunkID:   id,
			ChunkType: doctree.TypeTableRow,
			Text:      text,
			Grounding: []doctree.Grounding{{Page: m.page, Box: rowBox}},
			Metadata: doctree.ChunkMetadata{
				Labels:             []string{"tab", rowSentencesLabel},
				ReadingOrderRange:  [2]int{ro, ro},
				ParentTableChunkID: tableID,
				RowIndexRange:      &[2]int{start, end - 1},
				Headers:            conv.Headers,
				QualityScore:       doctree.Ptr(float64(colons+1) / float64(len(block))),
			},
		})
	}
}

func (m *pageMapper) caption(el *doctree.PageElement) {
	text := strings.TrimSpace(el.Text)
	if text == "" {
		return
	}
	ro := el.ReadingOrder
	m.md("*" + text + "*")
	m.emit(doctree.Chunk{
		ChunkID:   m.chunkID(ro, ro, "0"),
		ChunkType: doctree.TypeCaption,
		Text:      text,
		Grounding: []doctree.Grounding{{Page: m.page, Box: m.box(el)}},
		Metadata: doctree.ChunkMetadata{
			Labels:            []string{"cap"},
			ReadingOrderRange: [2]int{ro, ro},
		},
	})
}

// text handles every text-bearing label. Paragraphs are split; each split
// part gets an estimated sub-box inside the paragraph's box.
func (m *pageMapper) text(el *doctree.PageElement, label string) {
	full := strings.TrimSpace(el.Text)
	if full == "" {
		return
	}
	ro := el.ReadingOrder
	parts := []string{full}
	if label == "para" {
		parts = chunker.SplitParagraph(full, m.t.opts.ParaMaxChars, 1)
	}
	split := len(parts) > 1
	box := m.box(el)

	for i, part := range parts {
		m.md(markdownPrefix[label] + part)

		partBox := box
		if split && box != nil {
			est, ok := bbox.EstimateSub(box, part, full, i)
			if !ok {
				m.diag(doctree.DiagBoxFallback, ro, "", "sub-box estimate unavailable for part %d, using paragraph box", i)
			}
			partBox = est
		}

		c := doctree.Chunk{
			ChunkID:   m.chunkID(ro, ro, fmt.Sprint(i)),
			ChunkType: TypeForLabel(label),
			Text:      part,
			Grounding: []doctree.Grounding{{Page: m.page, Box: partBox}},
			Metadata: doctree.ChunkMetadata{
				Labels:            []string{label},
				ReadingOrderRange: [2]int{ro, ro},
				QualityScore:      doctree.Ptr(math.Min(1, float64(textutil.Len(part))/100)),
			},
		}
		if split {
			c.Metadata.PartIndex = doctree.Ptr(i)
		}
		m.emit(c)
	}
}
