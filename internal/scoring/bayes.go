package scoring

import "math"

// BayesianLowerBound estimates a lower confidence bound on the expected
// ordinal level of a rating distribution. Each level receives one pseudo
// observation, so sparse histograms are pulled toward the middle and their
// wide interval is penalised. An empty population scores 0.
func BayesianLowerBound(h Histogram, confidence float64) (float64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	z, err := ZScore(confidence)
	if err != nil {
		return 0, err
	}
	n := h.Total()
	if n == 0 {
		return 0, nil
	}

	denom := float64(n) + float64(len(h))
	var first, second float64
	for k, c := range h {
		level := float64(k + 1)
		p := (float64(c) + 1) / denom
		first += level * p
		second += level * level * p
	}
	variance := math.Max(second-first*first, 0)
	return first - z*math.Sqrt(variance/(denom+1)), nil
}
