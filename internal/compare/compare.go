package compare

import (
	"fmt"
	"math"
	"slices"
)

// Score labels.
const (
	LabelExcellent = "excellent"
	LabelGood      = "good"
	LabelRegular   = "regular"
	LabelDeficient = "deficient"
)

// ChunkCountComparison compares corpus sizes.
type ChunkCountComparison struct {
	LiveChunks  int     `json:"live_chunks"`
	IdealChunks int     `json:"ideal_chunks"`
	Ratio       float64 `json:"ratio"` // ideal/live, two decimals
}

// FieldComparison compares the chunk field keys of two corpora.
type FieldComparison struct {
	LiveOnly      []string `json:"live_only"`
	IdealOnly     []string `json:"ideal_only"`
	Common        []string `json:"common_fields"`
	FieldCoverage float64  `json:"field_coverage"` // |common|/|ideal|, two decimals
}

// Report is the result of Compare.
type Report struct {
	ChunkCount      ChunkCountComparison `json:"chunk_count_comparison"`
	Fields          FieldComparison      `json:"field_comparison"`
	Recommendations []string             `json:"recommendations"`
	Score           float64              `json:"score"`
	Label           string               `json:"label"`
}

// Compare contrasts a live corpus with an ideal one.
func Compare(live, ideal *Corpus) Report {
	rep := Report{
		ChunkCount: ChunkCountComparison{
			LiveChunks:  live.Count(),
			IdealChunks: ideal.Count(),
			Ratio:       countRatio(live, ideal),
		},
		Fields: compareFields(live.Fields, ideal.Fields),
	}
	rep.Score = score(rep.ChunkCount.Ratio, rep.Fields.FieldCoverage, ideal)
	rep.Label = Label(rep.Score)

	if rep.ChunkCount.Ratio < 0.8 {
		rep.Recommendations = append(rep.Recommendations,
			fmt.Sprintf("improve chunk grouping: ideal/live ratio is %.2f", rep.ChunkCount.Ratio))
	}
	if ideal.BoxCount() > 0 {
		rep.Recommendations = append(rep.Recommendations, "ensure normalized bounding boxes are generated")
	}
	if rep.Fields.FieldCoverage < 0.9 {
		rep.Recommendations = append(rep.Recommendations,
			fmt.Sprintf("add fields missing from the ideal corpus: %v", rep.Fields.IdealOnly))
	}
	if ideal.AvgLength() > 200 {
		rep.Recommendations = append(rep.Recommendations, "optimize chunk length for retrieval")
	}
	if len(rep.Recommendations) == 0 {
		rep.Recommendations = append(rep.Recommendations, "live corpus is aligned with the ideal corpus")
	}
	return rep
}

// Score is the unweighted mean of field coverage, the ideal/live chunk
// count ratio capped at 1, and 1 if any ideal chunk carries a box (else 0).
func Score(live, ideal *Corpus) float64 {
	cov := compareFields(live.Fields, ideal.Fields).FieldCoverage
	return score(countRatio(live, ideal), cov, ideal)
}

func score(ratio, coverage float64, ideal *Corpus) float64 {
	boxes := 0.0
	if ideal.BoxCount() > 0 {
		boxes = 1
	}
	return (coverage + math.Min(1, ratio) + boxes) / 3
}

// Label names a score band.
func Label(score float64) string {
	switch {
	case score > 0.8:
		return LabelExcellent
	case score > 0.6:
		return LabelGood
	case score > 0.4:
		return LabelRegular
	default:
		return LabelDeficient
	}
}

func countRatio(live, ideal *Corpus) float64 {
	if live.Count() == 0 {
		return 0
	}
	return round2(float64(ideal.Count()) / float64(live.Count()))
}

func compareFields(live, ideal []string) FieldComparison {
	fc := FieldComparison{LiveOnly: []string{}, IdealOnly: []string{}, Common: []string{}}
	for _, f := range live {
		if slices.Contains(ideal, f) {
			fc.Common = append(fc.Common, f)
		} else {
			fc.LiveOnly = append(fc.LiveOnly, f)
		}
	}
	for _, f := range ideal {
		if !slices.Contains(live, f) {
			fc.IdealOnly = append(fc.IdealOnly, f)
		}
	}
	if len(ideal) > 0 {
		fc.FieldCoverage = round2(float64(len(fc.Common)) / float64(len(ideal)))
	}
	return fc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
