// Package quality computes corpus statistics and repairs chunk boxes after
// a transform.
package quality

import (
	"fmt"

	"github.com/dgallion1/docchunk/internal/bbox"
	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// Chunks shorter or longer than these are counted as quality issues.
const (
	MinHealthyLength = 10
	MaxHealthyLength = 2000
)

// Validate fills doc.ExtractionMetadata with corpus statistics and repairs
// every grounding box in place: inverted edges are swapped and coordinates
// clamped to [0,1]. Chunks are never removed. Each repair is recorded as a
// diagnostic. Optimizer fields already present are preserved.
func Validate(doc *doctree.Document) {
	meta := &doc.ExtractionMetadata
	stats := chunker.Lengths(doc.Chunks)

	meta.ChunkCount = stats.Count
	meta.TotalTextLength = stats.Total
	meta.AvgChunkLength = stats.Avg
	meta.MaxChunkLength = stats.Max
	meta.MinChunkLength = stats.Min
	meta.ChunkTypes = make(map[string]int)
	meta.QualityIssues = 0
	meta.EstimatedTokens = 0

	for i := range doc.Chunks {
		c := &doc.Chunks[i]
		meta.ChunkTypes[string(c.ChunkType)]++
		meta.EstimatedTokens += chunker.EstimateTokens(c.Text)

		if n := textutil.Len(c.Text); n < MinHealthyLength || n > MaxHealthyLength {
			meta.QualityIssues++
		}

		for g := range c.Grounding {
			box := c.Grounding[g].Box
			before := derefBox(box)
			if bbox.Repair(box) {
				doc.Diagnostics = append(doc.Diagnostics, doctree.Diagnostic{
					Kind:    doctree.DiagBoxRepaired,
					Page:    c.Grounding[g].Page,
					ChunkID: c.ChunkID,
					Message: fmt.Sprintf("repaired box %+v to %+v", before, *box),
				})
			}
		}
	}
	meta.ValidationApplied = true
}

func derefBox(b *doctree.Box) doctree.Box {
	if b == nil {
		return doctree.Box{}
	}
	return *b
}
