// Package report builds quality-control reports comparing recognizer
// elements with the chunks produced from them.
package report

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// Report thresholds.
const (
	ProblematicElementChars = 5000
	OversizedChunkChars     = 1500
	previewChars            = 200
	tablePreviewChars       = 500
)

// ElementIssue is a recognizer element long enough to be suspicious.
type ElementIssue struct {
	Page         int    `json:"page"`
	Label        string `json:"label"`
	TextLength   int    `json:"text_length"`
	ReadingOrder int    `json:"reading_order"`
	Preview      string `json:"text_preview"`
}

// TableElement is a tab element as recognized.
type TableElement struct {
	Page         int    `json:"page"`
	TextLength   int    `json:"text_length"`
	ReadingOrder int    `json:"reading_order"`
	Preview      string `json:"html_preview"`
}

// ElementStats summarizes recognizer output.
type ElementStats struct {
	TotalPages    int            `json:"total_pages"`
	TotalElements int            `json:"total_elements"`
	ByLabel       map[string]int `json:"elements_by_label"`
	ByPage        map[int]int    `json:"elements_by_page"`
	AvgTextLength float64        `json:"avg_text_length"`
	MaxTextLength int            `json:"max_text_length"`
	Problematic   []ElementIssue `json:"problematic_elements"`
	Tables        []TableElement `json:"table_elements"`
}

// AnalyzeElements counts recognizer elements by label and page and flags
// elements over ProblematicElementChars.
func AnalyzeElements(pages []doctree.Page) ElementStats {
	s := ElementStats{
		TotalPages:  len(pages),
		ByLabel:     make(map[string]int),
		ByPage:      make(map[int]int),
		Problematic: []ElementIssue{},
		Tables:      []TableElement{},
	}
	total := 0
	for _, p := range pages {
		s.ByPage[p.PageNumber] = len(p.Elements)
		s.TotalElements += len(p.Elements)
		for _, el := range p.Elements {
			label := strings.ToLower(el.Label)
			if label == "" {
				label = "unknown"
			}
			n := textutil.Len(el.Text)
			s.ByLabel[label]++
			total += n
			s.MaxTextLength = max(s.MaxTextLength, n)

			if n > ProblematicElementChars {
				s.Problematic = append(s.Problematic, ElementIssue{
					Page:         p.PageNumber,
					Label:        label,
					TextLength:   n,
					ReadingOrder: el.ReadingOrder,
					Preview:      textutil.Ellipsize(el.Text, previewChars),
				})
			}
			if label == "tab" {
				s.Tables = append(s.Tables, TableElement{
					Page:         p.PageNumber,
					TextLength:   n,
					ReadingOrder: el.ReadingOrder,
					Preview:      textutil.Ellipsize(el.Text, tablePreviewChars),
				})
			}
		}
	}
	if s.TotalElements > 0 {
		s.AvgTextLength = float64(total) / float64(s.TotalElements)
	}
	return s
}

// ChunkIssue is a chunk over OversizedChunkChars.
type ChunkIssue struct {
	ChunkID    string `json:"chunk_id"`
	ChunkType  string `json:"chunk_type"`
	Page       int    `json:"page"`
	TextLength int    `json:"text_length"`
	Preview    string `json:"text_preview"`
}

// ChunkStats summarizes a chunk corpus.
type ChunkStats struct {
	TotalChunks    int            `json:"total_chunks"`
	ByType         map[string]int `json:"chunks_by_type"`
	ByPage         map[int]int    `json:"chunks_by_page"`
	AvgTextLength  float64        `json:"avg_text_length"`
	MaxTextLength  int            `json:"max_text_length"`
	Oversized      []ChunkIssue   `json:"oversized_chunks"`
	TableChunks    int            `json:"table_chunks"`
	TableRowChunks int            `json:"table_row_chunks"`
}

var rePageInID = regexp.MustCompile(`:(\d{3}):`)

// pageFromID reads the zero-padded page out of a chunk id, or 0.
func pageFromID(id string) int {
	m := rePageInID.FindStringSubmatch(id)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// AnalyzeChunks counts chunks by type and page. Pages are read from chunk
// ids so corpora whose grounding was stripped still bucket correctly.
func AnalyzeChunks(doc *doctree.Document) ChunkStats {
	s := ChunkStats{
		TotalChunks: len(doc.Chunks),
		ByType:      make(map[string]int),
		ByPage:      make(map[int]int),
		Oversized:   []ChunkIssue{},
	}
	total := 0
	for _, c := range doc.Chunks {
		n := textutil.Len(c.Text)
		page := pageFromID(c.ChunkID)
		typ := string(c.ChunkType)
		s.ByType[typ]++
		s.ByPage[page]++
		total += n
		s.MaxTextLength = max(s.MaxTextLength, n)

		if n > OversizedChunkChars {
			s.Oversized = append(s.Oversized, ChunkIssue{
				ChunkID:    c.ChunkID,
				ChunkType:  typ,
				Page:       page,
				TextLength: n,
				Preview:    textutil.Ellipsize(c.Text, previewChars),
			})
		}
		switch c.ChunkType {
		case doctree.TypeTable:
			s.TableChunks++
		case doctree.TypeTableRow:
			s.TableRowChunks++
		}
	}
	if s.TotalChunks > 0 {
		s.AvgTextLength = float64(total) / float64(s.TotalChunks)
	}
	return s
}

// ElementToChunkRatio is chunks per recognizer element, or 0 without
// elements.
func ElementToChunkRatio(el ElementStats, ch ChunkStats) float64 {
	if el.TotalElements == 0 {
		return 0
	}
	return float64(ch.TotalChunks) / float64(el.TotalElements)
}
