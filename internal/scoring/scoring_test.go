package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-4

func TestZScore(t *testing.T) {
	z, err := ZScore(0.95)
	require.NoError(t, err)
	assert.InDelta(t, 1.959964, z, 1e-6)

	z, err = ZScore(0.80)
	require.NoError(t, err)
	assert.InDelta(t, 1.281552, z, 1e-6)

	for _, c := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
		_, err := ZScore(c)
		assert.ErrorIs(t, err, ErrInvalidInput, "confidence %v", c)
	}
}

func TestWilsonLowerBound(t *testing.T) {
	tests := []struct {
		name     string
		up, down int64
		want     float64
	}{
		{"no votes", 0, 0, 0},
		{"600 up 400 down", 600, 400, 0.5693},
		{"5500 up 4500 down", 5500, 4500, 0.5402},
		{"2 up 0 down", 2, 0, 0.3424},
		{"100 up 1 down", 100, 1, 0.9460},
		{"single up vote", 1, 0, 0.2065},
		{"only down votes", 0, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WilsonLowerBound(tt.up, tt.down, 0.95)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tolerance)
		})
	}
}

func TestWilsonLowerBound_SmallSampleDoesNotOutrank(t *testing.T) {
	small, err := WilsonLowerBound(2, 0, 0.95)
	require.NoError(t, err)
	large, err := WilsonLowerBound(100, 1, 0.95)
	require.NoError(t, err)
	assert.Less(t, small, large)
}

func TestWilsonLowerBound_UnitInterval(t *testing.T) {
	for up := int64(0); up <= 40; up += 3 {
		for down := int64(0); down <= 40; down += 4 {
			got, err := WilsonLowerBound(up, down, 0.95)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestWilsonLowerBound_InvalidInput(t *testing.T) {
	_, err := WilsonLowerBound(-1, 3, 0.95)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = WilsonLowerBound(1, -3, 0.95)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = WilsonLowerBound(1, 3, 1.2)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWilsonLowerBound_HugeCounts(t *testing.T) {
	got, err := WilsonLowerBound(math.MaxInt64, 1, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	got, err = WilsonLowerBound(math.MaxInt64, math.MaxInt64, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-9)

	assert.InDelta(t, 0.5, AverageRating(math.MaxInt64, math.MaxInt64), 1e-12)
}

func TestVotesScore(t *testing.T) {
	got, err := Votes{Up: 600, Down: 400}.Score(0.95)
	require.NoError(t, err)
	assert.InDelta(t, 0.5693, got, tolerance)
}

func TestBayesianLowerBound(t *testing.T) {
	tests := []struct {
		name string
		hist Histogram
		want float64
	}{
		{"all zero", Histogram{0, 0, 0, 0, 0}, 0},
		{"imdb top film", Histogram{34733, 4355, 4704, 6561, 13515, 26183, 87368, 273082, 600260, 1295351}, 9.14538},
		{"imdb second film", Histogram{37128, 5879, 6268, 8419, 16603, 30016, 78538, 199430, 402518, 837905}, 8.94001},
		{"single five star", Histogram{0, 0, 0, 0, 1}, 2.22902},
		{"ten five star", Histogram{0, 0, 0, 0, 10}, 3.72221},
		{"hundred five star", Histogram{0, 0, 0, 0, 100}, 4.80463},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BayesianLowerBound(tt.hist, 0.95)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tolerance)
		})
	}
}

func TestBayesianLowerBound_NonDecreasingInN(t *testing.T) {
	shape := Histogram{1, 0, 2, 3, 4}
	prev := math.Inf(-1)
	for _, factor := range []int64{1, 2, 5, 10, 100, 1000} {
		h := make(Histogram, len(shape))
		for i, c := range shape {
			h[i] = c * factor
		}
		got, err := BayesianLowerBound(h, 0.95)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev, "factor %d", factor)
		prev = got
	}
}

func TestBayesianLowerBound_PenalisesSpread(t *testing.T) {
	// All three histograms have mean level 3 and ten observations.
	narrow, err := BayesianLowerBound(Histogram{0, 0, 10, 0, 0}, 0.95)
	require.NoError(t, err)
	medium, err := BayesianLowerBound(Histogram{0, 5, 0, 5, 0}, 0.95)
	require.NoError(t, err)
	wide, err := BayesianLowerBound(Histogram{5, 0, 0, 0, 5}, 0.95)
	require.NoError(t, err)

	assert.Greater(t, narrow, medium)
	assert.Greater(t, medium, wide)
}

func TestBayesianLowerBound_OrderMatters(t *testing.T) {
	asc, err := BayesianLowerBound(Histogram{1, 2, 3, 10, 40}, 0.95)
	require.NoError(t, err)
	desc, err := BayesianLowerBound(Histogram{40, 10, 3, 2, 1}, 0.95)
	require.NoError(t, err)
	assert.Greater(t, asc, desc)
}

func TestBayesianLowerBound_InvalidInput(t *testing.T) {
	_, err := BayesianLowerBound(nil, 0.95)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = BayesianLowerBound(Histogram{1, -1, 2}, 0.95)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = BayesianLowerBound(Histogram{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBayesianLowerBound_SingleLevel(t *testing.T) {
	// One level means zero variance; the clamp keeps the radicand defined.
	got, err := BayesianLowerBound(Histogram{7}, 0.95)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got))
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestHistogram(t *testing.T) {
	h := Histogram{1, 0, 0, 0, 3}
	assert.Equal(t, int64(4), h.Total())
	assert.InDelta(t, 4.0, h.Mean(), 1e-12)
	assert.Zero(t, Histogram{0, 0}.Mean())
	assert.NoError(t, h.Validate())
}

func TestCountConfidenceWeightedRating(t *testing.T) {
	got, err := CountConfidenceWeightedRating(8, 1000, 500, 7)
	require.NoError(t, err)
	assert.InDelta(t, 7.6667, got, tolerance)

	got, err = CountConfidenceWeightedRating(8, 3000, 500, 7)
	require.NoError(t, err)
	assert.InDelta(t, 7.8571, got, tolerance)

	for _, r := range []float64{0, 1, 9.5} {
		got, err := CountConfidenceWeightedRating(r, 0, 2500, 5.6)
		require.NoError(t, err)
		assert.Equal(t, 5.6, got)
	}

	_, err = CountConfidenceWeightedRating(8, 10, 0, 7)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = CountConfidenceWeightedRating(8, -1, 10, 7)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBlend(t *testing.T) {
	assert.InDelta(t, 4.5, Blend(4, 5, 50, 50), 1e-12)
	assert.InDelta(t, 3.6, Blend(3, 4, 40, 60), 1e-12)
	// Weights are taken as given.
	assert.InDelta(t, 9, Blend(4, 5, 100, 100), 1e-12)
}

func TestNaiveScores(t *testing.T) {
	assert.Equal(t, int64(200), UpDownDiff(600, 400))
	assert.Equal(t, int64(1000), UpDownDiff(5500, 4500))
	assert.InDelta(t, 0.6, AverageRating(600, 400), 1e-12)
	assert.Zero(t, AverageRating(0, 0))
	assert.InDelta(t, 1.0, AverageRating(2, 0), 1e-12)
	assert.InDelta(t, 15.0, AverageCountScore(7.5, 2), 1e-12)
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.Zero(t, Mean(nil))
}

func TestWeightedSum(t *testing.T) {
	got, err := WeightedSum([]float64{5, 1, 4}, []float64{32, 26, 42})
	require.NoError(t, err)
	assert.InDelta(t, 5*0.32+1*0.26+4*0.42, got, 1e-12)

	_, err = WeightedSum([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCourseWeightedRating(t *testing.T) {
	ref := time.Date(2021, 2, 10, 0, 0, 0, 0, time.UTC)
	records := []RatingRecord{
		{Value: 5, Timestamp: ref.AddDate(0, 0, -10), Progress: ptr(5)},
		{Value: 3, Timestamp: ref.AddDate(0, 0, -60), Progress: ptr(50)},
		{Value: 4, Timestamp: ref.AddDate(0, 0, -400), Progress: ptr(90)},
		{Value: 2, Progress: ptr(20)},
	}

	got, err := CourseWeightedRating(records, ref, DefaultCourseConfig())
	require.NoError(t, err)
	assert.InDelta(t, 3.06, got.AgeWeighted, 1e-9)
	assert.InDelta(t, 3.48, got.ProgressWeighted, 1e-9)
	assert.InDelta(t, 3.27, got.Combined, 1e-9)

	cfg := DefaultCourseConfig()
	cfg.Age.Weights = []float64{50, 50}
	_, err = CourseWeightedRating(records, ref, cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func ptr(v float64) *float64 { return &v }
