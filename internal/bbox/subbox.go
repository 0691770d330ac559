package bbox

import (
	"math"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/textutil"
)

// wordsPerPart is the assumed number of words preceding each part when
// locating a part inside its parent text.
const wordsPerPart = 20

// minSubHeight is the height forced on a degenerate estimated box.
const minSubHeight = 0.01

// EstimateSub estimates the region of one split part of a paragraph inside
// the paragraph's box.
//
// The estimate is a visual hint only. Recognizer output carries no
// per-character layout, so the vertical offset assumes roughly twenty words
// per preceding part and the height is proportional to the part's share of
// the full text. Horizontal edges are the parent's.
//
// ok is false when no estimate is possible and the parent box is returned.
func EstimateSub(parent *doctree.Box, part, full string, partIndex int) (box *doctree.Box, ok bool) {
	if parent == nil {
		return nil, false
	}
	fullLen := textutil.Len(full)
	if fullLen == 0 || partIndex < 0 {
		p := *parent
		return &p, false
	}

	words := strings.Fields(full)
	n := min(partIndex*wordsPerPart, len(words))
	consumed := 0
	for _, w := range words[:n] {
		consumed += textutil.Len(w)
	}
	relStart := float64(consumed) / float64(fullLen)
	relSize := float64(textutil.Len(part)) / float64(fullLen)

	height := parent.B - parent.T
	top := parent.T + relStart*height
	bottom := math.Min(parent.B, parent.T+(relStart+relSize)*height)
	if top >= bottom {
		bottom = top + minSubHeight
	}
	return &doctree.Box{
		L: parent.L,
		T: clamp01(top),
		R: parent.R,
		B: clamp01(bottom),
	}, true
}
