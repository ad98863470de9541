package scoring

import "fmt"

// UpDownDiff is the raw difference between up and down votes.
func UpDownDiff(up, down int64) int64 {
	return up - down
}

// AverageRating is the share of up votes, 0 when there are no votes.
func AverageRating(up, down int64) float64 {
	if up == 0 && down == 0 {
		return 0
	}
	return float64(up) / (float64(up) + float64(down))
}

// AverageCountScore multiplies a mean rating by its rescaled vote count.
func AverageCountScore(voteAverage, scaledCount float64) float64 {
	return voteAverage * scaledCount
}

// WeightedSum returns Σ values[i]*weights[i]/100.
func WeightedSum(values, weights []float64) (float64, error) {
	if len(values) != len(weights) {
		return 0, fmt.Errorf("%w: %d values but %d weights", ErrInvalidInput, len(values), len(weights))
	}
	var total float64
	for i, v := range values {
		total += v * weights[i] / 100
	}
	return total, nil
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
