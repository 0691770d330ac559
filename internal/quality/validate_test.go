package quality

import (
	"strings"
	"testing"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/stretchr/testify/assert"
)

func chunk(id string, typ doctree.ChunkType, text string, box *doctree.Box) doctree.Chunk {
	return doctree.Chunk{
		ChunkID:   id,
		ChunkType: typ,
		Text:      text,
		Grounding: []doctree.Grounding{{Page: 1, Box: box}},
		Metadata:  doctree.ChunkMetadata{Labels: []string{"para"}},
	}
}

func TestValidate_Statistics(t *testing.T) {
	doc := &doctree.Document{Chunks: []doctree.Chunk{
		chunk("a", doctree.TypeText, "short", nil),
		chunk("b", doctree.TypeText, strings.Repeat("x", 50), nil),
		chunk("c", doctree.TypeTable, strings.Repeat("y", 2001), nil),
		chunk("d", doctree.TypeTitle, "A proper title", nil),
	}}
	Validate(doc)

	m := doc.ExtractionMetadata
	assert.Equal(t, 4, m.ChunkCount)
	assert.Equal(t, 5+50+2001+14, m.TotalTextLength)
	assert.InDelta(t, float64(2070)/4, m.AvgChunkLength, 1e-9)
	assert.Equal(t, 2001, m.MaxChunkLength)
	assert.Equal(t, 5, m.MinChunkLength)
	assert.Equal(t, map[string]int{"text": 2, "table": 1, "title": 1}, m.ChunkTypes)
	assert.Equal(t, 2, m.QualityIssues)
	assert.True(t, m.ValidationApplied)
	assert.Positive(t, m.EstimatedTokens)
}

func TestValidate_RepairsBoxes(t *testing.T) {
	bad := &doctree.Box{L: 0.9, T: 0.8, R: 0.1, B: 1.3}
	good := &doctree.Box{L: 0.1, T: 0.1, R: 0.2, B: 0.2}
	doc := &doctree.Document{Chunks: []doctree.Chunk{
		chunk("bad", doctree.TypeText, "needs repair here", bad),
		chunk("good", doctree.TypeText, "already fine here", good),
	}}
	Validate(doc)

	assert.Equal(t, doctree.Box{L: 0.1, T: 0.8, R: 0.9, B: 1}, *doc.Chunks[0].Box())
	assert.Equal(t, doctree.Box{L: 0.1, T: 0.1, R: 0.2, B: 0.2}, *doc.Chunks[1].Box())
	assert.Len(t, doc.Chunks, 2)
	assert.True(t, doc.HasDiagnostic(doctree.DiagBoxRepaired))
	assert.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "bad", doc.Diagnostics[0].ChunkID)
}

func TestValidate_EmptyCorpus(t *testing.T) {
	doc := &doctree.Document{}
	Validate(doc)
	assert.True(t, doc.ExtractionMetadata.ValidationApplied)
	assert.Zero(t, doc.ExtractionMetadata.ChunkCount)
	assert.Empty(t, doc.ExtractionMetadata.ChunkTypes)
}

func TestValidate_KeepsOptimizerFields(t *testing.T) {
	doc := &doctree.Document{
		Chunks: []doctree.Chunk{chunk("a", doctree.TypeText, "some text here", nil)},
		ExtractionMetadata: doctree.ExtractionMetadata{
			OptimizationApplied: true,
			OriginalChunkCount:  3,
		},
	}
	Validate(doc)
	assert.True(t, doc.ExtractionMetadata.OptimizationApplied)
	assert.Equal(t, 3, doc.ExtractionMetadata.OriginalChunkCount)
}
