package compare

import (
	"fmt"
	"math"
)

// SimilarityMetrics measures how closely a live corpus resembles an ideal
// one. Every component lies in [0,1].
type SimilarityMetrics struct {
	ChunkCountRatio  float64  `json:"chunk_count_ratio"`
	LengthSimilarity float64  `json:"length_similarity"`
	BBoxSimilarity   float64  `json:"bbox_similarity"`
	TypeOverlap      float64  `json:"type_overlap"`
	Overall          float64  `json:"overall_similarity"`
	Label            string   `json:"label"`
	Recommendations  []string `json:"recommendations"`
}

// Similarity compares corpus size, average length, box coverage and the
// set of chunk types.
func Similarity(live, ideal *Corpus) SimilarityMetrics {
	ln, in := len(live.Chunks), len(ideal.Chunks)
	var m SimilarityMetrics
	m.ChunkCountRatio = float64(min(ln, in)) / float64(max(ln, in, 1))

	la, ia := live.AvgLength(), ideal.AvgLength()
	m.LengthSimilarity = 1 - math.Abs(la-ia)/math.Max(math.Max(la, ia), 1)

	lc, ic := coverage(live), coverage(ideal)
	m.BBoxSimilarity = math.Min(lc, ic) / math.Max(math.Max(lc, ic), 0.1)

	lt, it := live.Types(), ideal.Types()
	union := len(lt)
	inter := 0
	for t := range it {
		if lt[t] {
			inter++
		} else {
			union++
		}
	}
	if union > 0 {
		m.TypeOverlap = float64(inter) / float64(union)
	}

	m.Overall = (m.ChunkCountRatio + m.LengthSimilarity + m.BBoxSimilarity + m.TypeOverlap) / 4
	m.Label = Label(m.Overall)

	if m.ChunkCountRatio < 0.8 {
		m.Recommendations = append(m.Recommendations, fmt.Sprintf("adjust chunk grouping (ratio %.3f)", m.ChunkCountRatio))
	}
	if m.LengthSimilarity < 0.8 {
		m.Recommendations = append(m.Recommendations, fmt.Sprintf("optimize chunk length (similarity %.3f)", m.LengthSimilarity))
	}
	if m.BBoxSimilarity < 0.9 {
		m.Recommendations = append(m.Recommendations, fmt.Sprintf("improve box generation (similarity %.3f)", m.BBoxSimilarity))
	}
	if m.TypeOverlap < 0.8 {
		m.Recommendations = append(m.Recommendations, fmt.Sprintf("align chunk types (overlap %.3f)", m.TypeOverlap))
	}
	return m
}

// coverage is the fraction of chunks carrying a box.
func coverage(c *Corpus) float64 {
	return float64(c.BoxCount()) / float64(max(1, len(c.Chunks)))
}
