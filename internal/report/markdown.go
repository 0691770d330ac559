package report

import (
	"fmt"
	"strings"
	"time"
)

// Report is a complete quality-control report for one document.
type Report struct {
	DocID     string       `json:"doc_id"`
	Generated time.Time    `json:"timestamp"`
	Elements  ElementStats `json:"original"`
	Chunks    ChunkStats   `json:"chunks"`
	Ratio     float64      `json:"element_to_chunk_ratio"`
	Outline   Outline      `json:"outline"`
}

// Passed reports whether the corpus has no oversized chunks.
func (r *Report) Passed() bool {
	return len(r.Chunks.Oversized) == 0
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Quality Control Report")
	line("**Document:** %s", r.DocID)
	line("**Generated:** %s", r.Generated.UTC().Format(time.RFC3339))
	line("")
	line("## Executive Summary")
	line("")
	if n := len(r.Chunks.Oversized); n == 0 {
		line("**No oversized chunks detected.** Quality is good.")
	} else {
		line("**Found %d oversized chunks.** May need optimization.", n)
	}
	line("")

	line("## Recognizer Elements")
	line("- Total elements: %d", r.Elements.TotalElements)
	line("- Total pages: %d", r.Elements.TotalPages)
	line("- Table elements: %d", r.Elements.ByLabel["tab"])
	line("- Average text length: %.1f chars", r.Elements.AvgTextLength)
	line("- Max text length: %d chars", r.Elements.MaxTextLength)
	line("")
	if len(r.Elements.Problematic) > 0 {
		line("### Problematic Elements (>%d chars)", ProblematicElementChars)
		for _, e := range r.Elements.Problematic {
			line("- Page %d, %s: %d chars", e.Page, e.Label, e.TextLength)
		}
		line("")
	}

	line("## Chunk Corpus")
	line("- Total chunks: %d", r.Chunks.TotalChunks)
	line("- Element to chunk ratio: %.2f", r.Ratio)
	line("- Oversized chunks: %d", len(r.Chunks.Oversized))
	line("- Table chunks: %d", r.Chunks.TableChunks)
	line("- Table row chunks: %d", r.Chunks.TableRowChunks)
	line("- Average text length: %.1f chars", r.Chunks.AvgTextLength)
	line("- Max text length: %d chars", r.Chunks.MaxTextLength)
	line("")
	if len(r.Chunks.Oversized) > 0 {
		line("### Oversized Chunks")
		for _, c := range r.Chunks.Oversized {
			line("- **%s** (%s): %d chars on page %d", c.ChunkID, c.ChunkType, c.TextLength, c.Page)
		}
		line("")
	}

	if len(r.Outline.Headings) > 0 {
		line("## Document Outline")
		line("")
		line("| Level | Headings |")
		line("| --- | --- |")
		for level := 1; level <= 6; level++ {
			if n := r.Outline.Counts[level]; n > 0 {
				line("| h%d | %d |", level, n)
			}
		}
		line("")
	}

	line("## Table Processing Analysis")
	line("Recognizer found %d table elements.", r.Elements.ByLabel["tab"])
	line("Transformed into %d table chunks and %d table row chunks.", r.Chunks.TableChunks, r.Chunks.TableRowChunks)
	line("")

	line("## Recommendations")
	line("")
	for _, rec := range r.Recommendations() {
		line("- %s", rec)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Recommendations derives tuning advice from the chunk statistics.
func (r *Report) Recommendations() []string {
	var recs []string
	if len(r.Chunks.Oversized) > 0 {
		recs = append(recs, "Still has oversized chunks: consider reducing table_row_block_size or filtering more aggressively.")
	} else {
		recs = append(recs, "No oversized chunks detected: the current configuration is working well.")
	}
	switch {
	case r.Ratio > 2.0:
		recs = append(recs, "High chunk multiplication: consider increasing para_max_chars to reduce fragmentation.")
	case r.Ratio < 0.5:
		recs = append(recs, "Low chunk count: granularity may be lost, consider reducing para_max_chars.")
	default:
		recs = append(recs, "Good chunk ratio: the transformation is working well.")
	}
	return recs
}
