package scoring

import (
	"fmt"
	"math"
	"time"
)

// Bucket is the half-open interval (Lower, Upper] with a percentage weight.
type Bucket struct {
	Lower  float64
	Upper  float64
	Weight float64
}

// Contains reports whether key falls inside the bucket.
func (b Bucket) Contains(key float64) bool {
	return key > b.Lower && key <= b.Upper
}

// Observation is a rating projected onto a single ordering key.
type Observation struct {
	Key   float64
	Value float64
}

// Default bucket layouts.
var (
	DefaultAgeBoundaries      = []float64{30, 90, 180}
	DefaultAgeWeights         = []float64{28, 26, 24, 22}
	DefaultProgressBoundaries = []float64{10, 45, 75}
	DefaultProgressWeights    = []float64{22, 24, 26, 28}
)

// NewBuckets turns n strictly increasing thresholds and n+1 weights into the
// bucket table (-inf,b0], (b0,b1], ..., (bn-1,+inf).
func NewBuckets(boundaries, weights []float64) ([]Bucket, error) {
	if len(weights) != len(boundaries)+1 {
		return nil, fmt.Errorf("%w: %d boundaries need %d weights, got %d",
			ErrInvalidInput, len(boundaries), len(boundaries)+1, len(weights))
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] <= boundaries[i-1] {
			return nil, fmt.Errorf("%w: boundaries must be strictly increasing", ErrInvalidInput)
		}
	}

	buckets := make([]Bucket, len(weights))
	lower := math.Inf(-1)
	for i, w := range weights {
		upper := math.Inf(1)
		if i < len(boundaries) {
			upper = boundaries[i]
		}
		buckets[i] = Bucket{Lower: lower, Upper: upper, Weight: w}
		lower = upper
	}
	return buckets, nil
}

// SegmentWeightedAverage sums bucketMean*weight/100 over all buckets. An empty
// bucket contributes 0. Weights are used as given.
func SegmentWeightedAverage(obs []Observation, buckets []Bucket) float64 {
	means, _ := bucketMeans(obs, buckets)
	var total float64
	for i, b := range buckets {
		total += means[i] * b.Weight / 100
	}
	return total
}

// SegmentWeightedAverageRenormalized drops empty buckets and spreads their
// weight over the remaining ones in proportion, keeping the original weight
// total. It returns 0 when every bucket is empty.
func SegmentWeightedAverageRenormalized(obs []Observation, buckets []Bucket) float64 {
	means, counts := bucketMeans(obs, buckets)
	var all, used float64
	for i, b := range buckets {
		all += b.Weight
		if counts[i] > 0 {
			used += b.Weight
		}
	}
	if used == 0 {
		return 0
	}
	var total float64
	for i, b := range buckets {
		if counts[i] == 0 {
			continue
		}
		total += means[i] * (b.Weight * all / used) / 100
	}
	return total
}

func bucketMeans(obs []Observation, buckets []Bucket) ([]float64, []int) {
	sums := make([]float64, len(buckets))
	counts := make([]int, len(buckets))
	for _, o := range obs {
		for i, b := range buckets {
			if b.Contains(o.Key) {
				sums[i] += o.Value
				counts[i]++
				break
			}
		}
	}
	for i := range sums {
		if counts[i] > 0 {
			sums[i] /= float64(counts[i])
		}
	}
	return sums, counts
}

// ByAge keys each record by whole days elapsed between its timestamp and
// reference. Records without a timestamp are skipped.
func ByAge(records []RatingRecord, reference time.Time) []Observation {
	obs := make([]Observation, 0, len(records))
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		days := math.Floor(reference.Sub(r.Timestamp).Hours() / 24)
		obs = append(obs, Observation{Key: days, Value: r.Value})
	}
	return obs
}

// ByProgress keys each record by its progress. Records without progress are skipped.
func ByProgress(records []RatingRecord) []Observation {
	obs := make([]Observation, 0, len(records))
	for _, r := range records {
		if r.Progress == nil {
			continue
		}
		obs = append(obs, Observation{Key: *r.Progress, Value: r.Value})
	}
	return obs
}
