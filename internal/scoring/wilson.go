package scoring

import (
	"fmt"
	"math"
)

// WilsonLowerBound returns the lower end of the Wilson score interval for the
// share of up votes. With no votes the score is 0.
func WilsonLowerBound(up, down int64, confidence float64) (float64, error) {
	if up < 0 || down < 0 {
		return 0, fmt.Errorf("%w: negative vote count (up=%d, down=%d)", ErrInvalidInput, up, down)
	}
	z, err := ZScore(confidence)
	if err != nil {
		return 0, err
	}
	if up == 0 && down == 0 {
		return 0, nil
	}

	// Summed as floats: up+down may exceed MaxInt64.
	n := float64(up) + float64(down)
	phat := float64(up) / n
	z2 := z * z
	lower := (phat + z2/(2*n) - z*math.Sqrt((phat*(1-phat)+z2/(4*n))/n)) / (1 + z2/n)
	return math.Min(math.Max(lower, 0), 1), nil
}

// Score is a convenience wrapper for Votes.
func (v Votes) Score(confidence float64) (float64, error) {
	return WilsonLowerBound(v.Up, v.Down, confidence)
}
