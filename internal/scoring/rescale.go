package scoring

import (
	"fmt"
	"math"
)

// Rescale maps values linearly from their own [min,max] onto [targetMin,targetMax].
// When every value is identical the result is targetMin for each element.
// Ranges too wide to represent as a float64 span are rejected.
func Rescale(values []float64, targetMin, targetMax float64) ([]float64, error) {
	if targetMin >= targetMax {
		return nil, fmt.Errorf("%w: [%v,%v]", ErrInvalidRange, targetMin, targetMax)
	}
	srcMin, srcMax, err := bounds(values)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(values))
	if srcMax == srcMin {
		for i := range out {
			out[i] = targetMin
		}
		return out, nil
	}
	span, targetSpan := srcMax-srcMin, targetMax-targetMin
	if math.IsInf(span, 0) || math.IsInf(targetSpan, 0) {
		return nil, fmt.Errorf("%w: range overflows float64", ErrInvalidInput)
	}
	scale := targetSpan / span
	for i, x := range values {
		out[i] = targetMin + (x-srcMin)*scale
	}
	return out, nil
}

// Unrescale reverses Rescale given the original source range.
func Unrescale(values []float64, srcMin, srcMax, targetMin, targetMax float64) ([]float64, error) {
	if targetMin >= targetMax {
		return nil, fmt.Errorf("%w: [%v,%v]", ErrInvalidRange, targetMin, targetMax)
	}
	out := make([]float64, len(values))
	scale := (srcMax - srcMin) / (targetMax - targetMin)
	for i, y := range values {
		out[i] = srcMin + (y-targetMin)*scale
	}
	return out, nil
}

func bounds(values []float64) (float64, float64, error) {
	if len(values) == 0 {
		return 0, 0, fmt.Errorf("%w: empty sequence", ErrInvalidInput)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, x := range values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, 0, fmt.Errorf("%w: non-finite value at index %d", ErrInvalidInput, i)
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi, nil
}
