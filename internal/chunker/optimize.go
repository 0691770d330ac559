package chunker

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// OptimizeConfig controls the retrieval optimisation stage that follows
// the size-based pass.
type OptimizeConfig struct {
	Context        ContextConfig
	MaxChunkLength int  // Chunks longer than this are split again.
	Reclassify     bool // Re-derive text chunk types from position and content.
}

// DefaultOptimizeConfig returns the defaults used by the transform.
func DefaultOptimizeConfig() OptimizeConfig {
	return OptimizeConfig{
		Context:        DefaultContextConfig(),
		MaxChunkLength: 1200,
	}
}

// Optimize runs, in order, optional reclassification, spatial grouping and
// the long-chunk split.
func Optimize(chunks []doctree.Chunk, cfg OptimizeConfig) []doctree.Chunk {
	if cfg.Reclassify {
		chunks = Reclassify(chunks)
	}
	grouped := GroupContextual(chunks, cfg.Context)
	return SplitLong(grouped, cfg.MaxChunkLength)
}

var reCaptionLead = regexp.MustCompile(`^(figure|fig|table|tab)\s*\d+`)

// Classify derives a chunk type from the box position and text alone.
// Margin content is marginalia, short text near the top is a header, short
// text near the bottom is marginalia, "Figure 3"/"Table 2" leads are
// captions, and short all-caps or colon-bearing text is a header.
func Classify(text string, box *doctree.Box) doctree.ChunkType {
	n := textutil.Len(text)
	if box != nil {
		if box.R < 0.15 || box.L > 0.85 || box.B < 0.1 || box.T > 0.9 {
			return doctree.TypeMarginalia
		}
		if box.T < 0.15 && n < 100 {
			return doctree.TypeHeader
		}
		if box.T > 0.85 && n < 100 {
			return doctree.TypeMarginalia
		}
	}
	if reCaptionLead.MatchString(strings.ToLower(strings.TrimSpace(text))) {
		return doctree.TypeCaption
	}
	if n < 50 && (isUpper(text) || strings.Contains(text, ":")) {
		return doctree.TypeHeader
	}
	return doctree.TypeText
}

// Reclassify applies Classify to text chunks. Structural types coming from
// the recognizer's labels are kept.
func Reclassify(chunks []doctree.Chunk) []doctree.Chunk {
	out := doctree.CloneChunks(chunks)
	for i := range out {
		if out[i].ChunkType == doctree.TypeText {
			out[i].ChunkType = Classify(out[i].Text, out[i].Box())
		}
	}
	return out
}

// splitExempt types hold structured renderings that sentence splitting
// would destroy.
var splitExempt = map[doctree.ChunkType]bool{
	doctree.TypeTable:    true,
	doctree.TypeTableRow: true,
	doctree.TypeFigure:   true,
}

// SplitLong splits chunks whose text exceeds maxLen on sentence boundaries,
// without overlap. Parts keep the parent's box and get ids of the form
// "{id}_split_{n}".
func SplitLong(chunks []doctree.Chunk, maxLen int) []doctree.Chunk {
	if maxLen <= 0 {
		return doctree.CloneChunks(chunks)
	}
	out := make([]doctree.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if textutil.Len(c.Text) <= maxLen || splitExempt[c.ChunkType] {
			out = append(out, c.Clone())
			continue
		}
		parts := SplitParagraph(c.Text, maxLen, 0)
		if len(parts) < 2 {
			out = append(out, c.Clone())
			continue
		}
		for n, p := range parts {
			part := c.Clone()
			part.ChunkID = fmt.Sprintf("%s_split_%d", c.ChunkID, n)
			part.Text = p
			part.Metadata.PartIndex = doctree.Ptr(n)
			out = append(out, part)
		}
	}
	return out
}

// LengthStats summarises chunk text lengths.
type LengthStats struct {
	Count  int     `json:"count"`
	Avg    float64 `json:"avg_length"`
	Median float64 `json:"median_length"`
	Max    int     `json:"max_length"`
	Min    int     `json:"min_length"`
	Total  int     `json:"total_length"`
}

// Lengths computes LengthStats over chunk texts.
func Lengths(chunks []doctree.Chunk) LengthStats {
	var s LengthStats
	if len(chunks) == 0 {
		return s
	}
	lengths := make([]int, len(chunks))
	for i := range chunks {
		lengths[i] = textutil.Len(chunks[i].Text)
		s.Total += lengths[i]
	}
	slices.Sort(lengths)
	s.Count = len(lengths)
	s.Min = lengths[0]
	s.Max = lengths[len(lengths)-1]
	s.Avg = float64(s.Total) / float64(s.Count)
	mid := len(lengths) / 2
	if len(lengths)%2 == 1 {
		s.Median = float64(lengths[mid])
	} else {
		s.Median = float64(lengths[mid-1]+lengths[mid]) / 2
	}
	return s
}

// isUpper mirrors the usual "all cased letters are upper case and there is
// at least one" rule.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
