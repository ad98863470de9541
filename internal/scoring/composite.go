package scoring

import (
	"fmt"
	"time"
)

// Blend combines two scores with percentage weights. Weights are not required
// to sum to 100.
func Blend(scoreA, scoreB, weightA, weightB float64) float64 {
	return scoreA*weightA/100 + scoreB*weightB/100
}

// CountConfidenceWeightedRating pulls an item's mean rating r toward the
// population mean c in proportion to how few votes v it has relative to the
// prior strength m:
//
//	v/(v+m)*r + m/(v+m)*c
func CountConfidenceWeightedRating(r float64, v int64, m, c float64) (float64, error) {
	if m <= 0 {
		return 0, fmt.Errorf("%w: prior strength must be positive, got %v", ErrInvalidInput, m)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative vote count %d", ErrInvalidInput, v)
	}
	n := float64(v)
	return n/(n+m)*r + m/(n+m)*c, nil
}

// SegmentConfig describes one segment weighted average.
type SegmentConfig struct {
	Boundaries  []float64
	Weights     []float64
	Renormalize bool
}

// CourseConfig configures CourseWeightedRating.
type CourseConfig struct {
	Age            SegmentConfig
	Progress       SegmentConfig
	AgeWeight      float64
	ProgressWeight float64
}

// DefaultCourseConfig returns the 30/90/180 day and 10/45/75 progress layouts
// blended evenly.
func DefaultCourseConfig() CourseConfig {
	return CourseConfig{
		Age:            SegmentConfig{Boundaries: DefaultAgeBoundaries, Weights: DefaultAgeWeights},
		Progress:       SegmentConfig{Boundaries: DefaultProgressBoundaries, Weights: DefaultProgressWeights},
		AgeWeight:      50,
		ProgressWeight: 50,
	}
}

// CourseRating is the breakdown produced by CourseWeightedRating.
type CourseRating struct {
	AgeWeighted      float64
	ProgressWeighted float64
	Combined         float64
}

// CourseWeightedRating computes the age-based and progress-based segment
// averages of records and blends them.
func CourseWeightedRating(records []RatingRecord, reference time.Time, cfg CourseConfig) (CourseRating, error) {
	age, err := cfg.Age.average(ByAge(records, reference))
	if err != nil {
		return CourseRating{}, fmt.Errorf("age segments: %w", err)
	}
	progress, err := cfg.Progress.average(ByProgress(records))
	if err != nil {
		return CourseRating{}, fmt.Errorf("progress segments: %w", err)
	}
	return CourseRating{
		AgeWeighted:      age,
		ProgressWeighted: progress,
		Combined:         Blend(age, progress, cfg.AgeWeight, cfg.ProgressWeight),
	}, nil
}

func (c SegmentConfig) average(obs []Observation) (float64, error) {
	buckets, err := NewBuckets(c.Boundaries, c.Weights)
	if err != nil {
		return 0, err
	}
	if c.Renormalize {
		return SegmentWeightedAverageRenormalized(obs, buckets), nil
	}
	return SegmentWeightedAverage(obs, buckets), nil
}
