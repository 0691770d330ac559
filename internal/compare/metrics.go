package compare

import (
	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
)

// Optimization summarizes what an optimisation pass did to a chunk list.
type Optimization struct {
	Original           chunker.LengthStats `json:"original"`
	Optimized          chunker.LengthStats `json:"optimized"`
	ChunkReduction     int                 `json:"chunk_reduction"`
	AvgLengthIncrease  float64             `json:"avg_length_increase"`
	ConsolidationRatio float64             `json:"consolidation_ratio"`
}

// OptimizationMetrics compares chunk lists before and after optimisation.
func OptimizationMetrics(before, after []doctree.Chunk) Optimization {
	o := Optimization{
		Original:  chunker.Lengths(before),
		Optimized: chunker.Lengths(after),
	}
	o.ChunkReduction = o.Original.Count - o.Optimized.Count
	o.AvgLengthIncrease = o.Optimized.Avg - o.Original.Avg
	o.ConsolidationRatio = 1
	if o.Original.Count > 0 {
		o.ConsolidationRatio = float64(o.Optimized.Count) / float64(o.Original.Count)
	}
	return o
}
