// Package bbox converts recognizer pixel boxes into page-relative boxes and
// provides the geometry used by the chunk grouping passes.
package bbox

import (
	"math"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Normalize converts an absolute [x1,y1,x2,y2] pixel box into page-relative
// coordinates, clamped to [0,1] and rounded to 6 decimals. It returns nil
// when the box is malformed or either page dimension is unknown.
func Normalize(raw []float64, width, height float64) *doctree.Box {
	if len(raw) != 4 || width <= 0 || height <= 0 {
		return nil
	}
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}
	return &doctree.Box{
		L: round6(clamp01(raw[0] / width)),
		T: round6(clamp01(raw[1] / height)),
		R: round6(clamp01(raw[2] / width)),
		B: round6(clamp01(raw[3] / height)),
	}
}

// Envelope returns the smallest box enclosing a and b. Nil if either is nil.
func Envelope(a, b *doctree.Box) *doctree.Box {
	if a == nil || b == nil {
		return nil
	}
	return &doctree.Box{
		L: math.Min(a.L, b.L),
		T: math.Min(a.T, b.T),
		R: math.Max(a.R, b.R),
		B: math.Max(a.B, b.B),
	}
}

// Center returns the box centre.
func Center(b *doctree.Box) (x, y float64) {
	return (b.L + b.R) / 2, (b.T + b.B) / 2
}

// CenterDistance is the Euclidean distance between two box centres.
func CenterDistance(a, b *doctree.Box) float64 {
	ax, ay := Center(a)
	bx, by := Center(b)
	return math.Hypot(ax-bx, ay-by)
}

// SameLine reports whether the vertical centres differ by less than tol.
func SameLine(a, b *doctree.Box, tol float64) bool {
	_, ay := Center(a)
	_, by := Center(b)
	return math.Abs(ay-by) < tol
}

// Valid reports whether the box is ordered and inside the unit square.
func Valid(b *doctree.Box) bool {
	return b != nil &&
		b.L >= 0 && b.R <= 1 && b.T >= 0 && b.B <= 1 &&
		b.L <= b.R && b.T <= b.B
}

// Repair swaps inverted edges and clamps every coordinate to [0,1] in place.
// It reports whether anything changed.
func Repair(b *doctree.Box) bool {
	if b == nil {
		return false
	}
	before := *b
	if b.L > b.R {
		b.L, b.R = b.R, b.L
	}
	if b.T > b.B {
		b.T, b.B = b.B, b.T
	}
	b.L, b.T, b.R, b.B = clamp01(b.L), clamp01(b.T), clamp01(b.R), clamp01(b.B)
	return *b != before
}

// Area returns the box area.
func Area(b *doctree.Box) float64 {
	return math.Max(0, b.R-b.L) * math.Max(0, b.B-b.T)
}

// IoU returns intersection over union of two boxes.
func IoU(a, b *doctree.Box) float64 {
	if a == nil || b == nil {
		return 0
	}
	inter := Area(&doctree.Box{
		L: math.Max(a.L, b.L),
		T: math.Max(a.T, b.T),
		R: math.Min(a.R, b.R),
		B: math.Min(a.B, b.B),
	})
	union := Area(a) + Area(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
