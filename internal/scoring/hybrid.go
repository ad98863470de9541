package scoring

import "fmt"

// HybridConfig weights the Bayesian score against the other score.
type HybridConfig struct {
	BayesWeight float64
	OtherWeight float64
	Confidence  float64
	// LevelScale multiplies the Bayesian bound before blending, e.g. 0.5 when
	// ten half-star levels should be expressed in stars. Zero means 1.
	LevelScale float64
}

// DefaultHybridConfig blends 60% Bayesian score with 40% other score.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{BayesWeight: 60, OtherWeight: 40, Confidence: DefaultConfidence}
}

// HybridItem carries the inputs of one hybrid score.
type HybridItem struct {
	Histogram Histogram
	Other     float64
}

// HybridScores blends each item's Bayesian lower bound with its other score.
func HybridScores(items []HybridItem, cfg HybridConfig) ([]float64, error) {
	return HybridScoresFunc(items,
		func(it HybridItem) Histogram { return it.Histogram },
		func(it HybridItem) float64 { return it.Other },
		cfg)
}

// HybridScoresFunc is HybridScores over arbitrary items using accessors.
func HybridScoresFunc[T any](items []T, histogram func(T) Histogram, other func(T) float64, cfg HybridConfig) ([]float64, error) {
	scale := cfg.LevelScale
	if scale == 0 {
		scale = 1
	}
	out := make([]float64, len(items))
	for i, it := range items {
		bar, err := BayesianLowerBound(histogram(it), cfg.Confidence)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = Blend(bar*scale, other(it), cfg.BayesWeight, cfg.OtherWeight)
	}
	return out, nil
}
