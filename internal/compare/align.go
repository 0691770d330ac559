package compare

import (
	"github.com/dgallion1/docchunk/internal/bbox"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/tidwall/rtree"
)

// DefaultIoU is the overlap AlignBoxes requires when none is given.
const DefaultIoU = 0.5

// Alignment reports how many live boxes have a matching ideal box.
type Alignment struct {
	LiveBoxes int     `json:"live_boxes"`
	Matched   int     `json:"matched"`
	Fraction  float64 `json:"fraction"`
	MeanIoU   float64 `json:"mean_iou"` // over matched boxes
}

// AlignBoxes matches each live box to the best-overlapping ideal box on the
// same page. A live box counts as matched when that IoU is at least
// threshold. Only normalized {l,t,r,b} boxes take part.
func AlignBoxes(live, ideal *Corpus, threshold float64) Alignment {
	if threshold <= 0 {
		threshold = DefaultIoU
	}

	trees := make(map[int]*rtree.RTreeG[int])
	for i, ch := range ideal.Chunks {
		if ch.Box == nil {
			continue
		}
		tr, ok := trees[ch.Page]
		if !ok {
			tr = &rtree.RTreeG[int]{}
			trees[ch.Page] = tr
		}
		lo, hi := rect(ch.Box)
		tr.Insert(lo, hi, i)
	}

	var a Alignment
	var iouSum float64
	for _, ch := range live.Chunks {
		if ch.Box == nil {
			continue
		}
		a.LiveBoxes++
		tr := trees[ch.Page]
		if tr == nil {
			continue
		}
		best := 0.0
		lo, hi := rect(ch.Box)
		tr.Search(lo, hi, func(_, _ [2]float64, idx int) bool {
			best = max(best, bbox.IoU(ch.Box, ideal.Chunks[idx].Box))
			return true
		})
		if best >= threshold {
			a.Matched++
			iouSum += best
		}
	}
	if a.LiveBoxes > 0 {
		a.Fraction = float64(a.Matched) / float64(a.LiveBoxes)
	}
	if a.Matched > 0 {
		a.MeanIoU = iouSum / float64(a.Matched)
	}
	return a
}

// rect orders a box's corners for the index; loaded boxes may be inverted.
func rect(b *doctree.Box) (lo, hi [2]float64) {
	return [2]float64{min(b.L, b.R), min(b.T, b.B)}, [2]float64{max(b.L, b.R), max(b.T, b.B)}
}
