package chunker

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dgallion1/docchunk/internal/bbox"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// ContextConfig controls the spatial grouping pass.
type ContextConfig struct {
	MaxCombinedLength int     // Upper bound on the two texts' summed length.
	SameLineTolerance float64 // Max vertical-centre difference for "same line".
	NearDistance      float64 // Centre distance below which boxes are "close".
}

// DefaultContextConfig returns the defaults used by the transform.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		MaxCombinedLength: 800,
		SameLineTolerance: 0.01,
		NearDistance:      0.05,
	}
}

// spatialExcluded types never join through proximity.
var spatialExcluded = map[doctree.ChunkType]bool{
	doctree.TypeTable:  true,
	doctree.TypeFigure: true,
	"image":            true,
}

// ShouldGroup reports whether b can be joined onto a by proximity: same
// type and page, both boxed, small enough together, and either on the same
// line or with close centres.
func ShouldGroup(a, b *doctree.Chunk, cfg ContextConfig) bool {
	if textutil.Len(a.Text)+textutil.Len(b.Text) > cfg.MaxCombinedLength {
		return false
	}
	if a.ChunkType != b.ChunkType || spatialExcluded[a.ChunkType] {
		return false
	}
	if len(a.Grounding) == 0 || len(b.Grounding) == 0 || a.Page() != b.Page() {
		return false
	}
	ba, bb := a.Box(), b.Box()
	if ba == nil || bb == nil {
		return false
	}
	if bbox.SameLine(ba, bb, cfg.SameLineTolerance) {
		return true
	}
	return bbox.CenterDistance(ba, bb) < cfg.NearDistance
}

// MergePair joins b onto a. The result keeps a's id, type and page.
// Text is de-hyphenated when a ends with '-'; the box becomes the envelope
// of both; the reading-order range covers both and quality scores are
// averaged, counting a missing score as 0.5.
func MergePair(a, b doctree.Chunk) doctree.Chunk {
	out := a.Clone()
	t1, t2 := strings.TrimSpace(a.Text), strings.TrimSpace(b.Text)
	if strings.HasSuffix(t1, "-") {
		out.Text = strings.TrimSuffix(t1, "-") + t2
	} else {
		out.Text = t1 + " " + t2
	}

	if env := bbox.Envelope(a.Box(), b.Box()); env != nil {
		out.Grounding = []doctree.Grounding{{Page: a.Page(), Box: env}}
	}

	ra, rb := a.Metadata.ReadingOrderRange, b.Metadata.ReadingOrderRange
	out.Metadata.ReadingOrderRange = [2]int{min(ra[0], rb[0]), max(ra[1], rb[1])}
	out.Metadata.QualityScore = doctree.Ptr((a.Quality(0.5) + b.Quality(0.5)) / 2)
	out.Metadata.Labels = unionLabels(a.Metadata.Labels, b.Metadata.Labels)
	if a.Metadata.CombinedChunks > 0 || b.Metadata.CombinedChunks > 0 {
		out.Metadata.CombinedChunks = a.Combined() + b.Combined()
	}
	if a.Metadata.RowIndexRange != nil && b.Metadata.RowIndexRange != nil {
		ia, ib := *a.Metadata.RowIndexRange, *b.Metadata.RowIndexRange
		out.Metadata.RowIndexRange = &[2]int{min(ia[0], ib[0]), max(ia[1], ib[1])}
	}
	return out
}

// GroupContextual sorts chunks by (page, reading-order start) and joins
// neighbours with ShouldGroup, first fit from left to right. A merged chunk
// is immediately compared with the next candidate, so merges chain.
func GroupContextual(chunks []doctree.Chunk, cfg ContextConfig) []doctree.Chunk {
	sorted := doctree.CloneChunks(chunks)
	slices.SortStableFunc(sorted, func(a, b doctree.Chunk) int {
		if c := cmp.Compare(a.Page(), b.Page()); c != 0 {
			return c
		}
		return cmp.Compare(a.Metadata.ReadingOrderRange[0], b.Metadata.ReadingOrderRange[0])
	})

	out := make([]doctree.Chunk, 0, len(sorted))
	for i := 0; i < len(sorted); {
		cur := sorted[i]
		j := i + 1
		for j < len(sorted) && ShouldGroup(&cur, &sorted[j], cfg) {
			cur = MergePair(cur, sorted[j])
			j++
		}
		out = append(out, cur)
		i = j
	}
	return out
}
