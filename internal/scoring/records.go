package scoring

import (
	"fmt"
	"time"
)

// RatingRecord is one observed rating event.
type RatingRecord struct {
	Value     float64
	Timestamp time.Time // zero when unknown
	Progress  *float64  // consumption/progress percentage, nil when unknown
}

// Votes holds pre-aggregated binary feedback for one item.
type Votes struct {
	Up   int64
	Down int64
}

// Histogram counts observations per ordinal level. Index k holds the count for
// level k+1, so the lowest level comes first.
type Histogram []int64

// Total returns the number of observations.
func (h Histogram) Total() int64 {
	var n int64
	for _, c := range h {
		n += c
	}
	return n
}

// Validate rejects empty histograms and negative counts.
func (h Histogram) Validate() error {
	if len(h) == 0 {
		return fmt.Errorf("%w: histogram has no levels", ErrInvalidInput)
	}
	for k, c := range h {
		if c < 0 {
			return fmt.Errorf("%w: negative count %d at level %d", ErrInvalidInput, c, k+1)
		}
	}
	return nil
}

// Mean returns the mean ordinal level, 0 for an empty population.
func (h Histogram) Mean() float64 {
	n := h.Total()
	if n == 0 {
		return 0
	}
	var sum float64
	for k, c := range h {
		sum += float64(k+1) * float64(c)
	}
	return sum / float64(n)
}
