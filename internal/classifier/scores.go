package classifier

import "sort"

// ErrorKey is the synthetic label under which a failed prediction is shown.
const ErrorKey = "Error"

// LabelScore is one entry of a model output.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Scores maps every emotion label to its probability.
type Scores map[string]float64

// FromList converts a model output into Scores. Later duplicates win.
func FromList(list []LabelScore) Scores {
	s := make(Scores, len(list))
	for _, ls := range list {
		s[ls.Label] = ls.Score
	}
	return s
}

// Ranked returns the scores ordered by probability, highest first, with
// label as tie breaker so the order is deterministic for display.
func (s Scores) Ranked() []LabelScore {
	out := make([]LabelScore, 0, len(s))
	for label, score := range s {
		out = append(out, LabelScore{Label: label, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// TopK returns the k highest scoring labels. The sort is stable, so ties keep
// the order the model returned them in.
func TopK(list []LabelScore, k int) []string {
	sorted := make([]LabelScore, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if k > len(sorted) {
		k = len(sorted)
	}
	if k < 0 {
		k = 0
	}
	labels := make([]string, k)
	for i := range labels {
		labels[i] = sorted[i].Label
	}
	return labels
}
