// Package chunker splits long paragraphs and regroups chunks: a size-based
// pass that absorbs small neighbours and a spatial pass that joins chunks
// sitting next to each other on the page.
package chunker

import (
	"slices"
	"strings"

	"github.com/dgallion1/docchunk/internal/bbox"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// GroupConfig controls the size-based grouping pass.
type GroupConfig struct {
	MinChunkSize    int // Chunks shorter than this try to absorb followers.
	MaxCombinedSize int // Upper bound on a grouped chunk's text.
	MaxReadingGap   int // Largest reading-order gap bridged by a merge.
}

// DefaultGroupConfig returns the defaults used by the transform.
func DefaultGroupConfig() GroupConfig {
	return GroupConfig{
		MinChunkSize:    100,
		MaxCombinedSize: 1200,
		MaxReadingGap:   5,
	}
}

// nonGroupable types are never absorbed by the size-based pass.
var nonGroupable = map[doctree.ChunkType]bool{
	doctree.TypeTable:    true,
	doctree.TypeFigure:   true,
	doctree.TypeCaption:  true,
	doctree.TypeTableRow: true,
}

// GroupSmall merges runs of consecutive small chunks. A chunk shorter than
// MinChunkSize greedily absorbs following chunks that are themselves
// shorter than twice MinChunkSize, share its type and page, and sit within
// MaxReadingGap in reading order, while the joined text stays within
// MaxCombinedSize. The input is not modified and the pass is idempotent.
func GroupSmall(chunks []doctree.Chunk, cfg GroupConfig) []doctree.Chunk {
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = 100
	}
	if cfg.MaxCombinedSize <= 0 {
		cfg.MaxCombinedSize = 1200
	}
	if cfg.MaxReadingGap <= 0 {
		cfg.MaxReadingGap = 5
	}

	out := make([]doctree.Chunk, 0, len(chunks))
	for i := 0; i < len(chunks); {
		cur := chunks[i].Clone()
		if textutil.Len(cur.Text) >= cfg.MinChunkSize {
			out = append(out, cur)
			i++
			continue
		}

		combined := cur.Text
		box := cur.Box()
		roEnd := cur.Metadata.ReadingOrderRange[1]
		count := cur.Combined()
		labels := cur.Metadata.Labels

		j := i + 1
		for j < len(chunks) &&
			textutil.Len(combined) < cfg.MaxCombinedSize &&
			textutil.Len(chunks[j].Text) < 2*cfg.MinChunkSize {
			next := &chunks[j]
			joined := combined + " " + next.Text
			if !canMerge(&cur, next, roEnd, cfg.MaxReadingGap) || textutil.Len(joined) > cfg.MaxCombinedSize {
				break
			}
			combined = strings.TrimSpace(joined)
			if box != nil && next.Box() != nil {
				box = bbox.Envelope(box, next.Box())
			}
			roEnd = max(roEnd, next.Metadata.ReadingOrderRange[1])
			count += next.Combined()
			labels = unionLabels(labels, next.Metadata.Labels)
			j++
		}

		cur.Text = combined
		if box != nil {
			cur.Grounding = []doctree.Grounding{{Page: cur.Page(), Box: box}}
		}
		cur.Metadata.ReadingOrderRange[1] = max(roEnd, cur.Metadata.ReadingOrderRange[0])
		cur.Metadata.CombinedChunks = count
		cur.Metadata.Labels = labels
		out = append(out, cur)
		i = j
	}
	return out
}

// canMerge reports whether next may join the growing chunk cur whose
// reading order currently ends at roEnd.
func canMerge(cur, next *doctree.Chunk, roEnd, maxGap int) bool {
	if cur.ChunkType != next.ChunkType || nonGroupable[cur.ChunkType] {
		return false
	}
	if cur.Page() != next.Page() {
		return false
	}
	return next.Metadata.ReadingOrderRange[0]-roEnd <= maxGap
}

// unionLabels appends labels from b not already present in a.
func unionLabels(a, b []string) []string {
	out := slices.Clone(a)
	for _, l := range b {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out
}
