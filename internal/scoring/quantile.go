package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence is the confidence level used when callers have no preference.
const DefaultConfidence = 0.95

// ZScore returns the two-sided standard normal quantile for the confidence level,
// e.g. 0.95 -> 1.959964.
func ZScore(confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("%w: confidence %v outside (0,1)", ErrInvalidInput, confidence)
	}
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2), nil
}
