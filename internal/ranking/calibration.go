package ranking

import (
	"fmt"
	"log"
	"slices"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/Clark-Hu/rating-rank/internal/scoring"
)

// WeightedWeights are the percentage weights of the weighted strategy.
type WeightedWeights struct {
	ReviewCount float64 `koanf:"review_count"`
	RatingCount float64 `koanf:"rating_count"`
	Average     float64 `koanf:"average"`
}

// HybridWeights are the percentage weights of the hybrid strategy.
type HybridWeights struct {
	Bayesian float64 `koanf:"bayesian"`
	Weighted float64 `koanf:"weighted"`
}

// SegmentWeights is one bucket layout: n increasing boundaries and n+1
// percentage weights.
type SegmentWeights struct {
	Boundaries []float64 `koanf:"boundaries"`
	Weights    []float64 `koanf:"weights"`
}

// CourseWeights configure the age and progress segment averages of a score
// card and their blend.
type CourseWeights struct {
	Age              float64        `koanf:"age"`
	Progress         float64        `koanf:"progress"`
	AgeSegments      SegmentWeights `koanf:"age_segments"`
	ProgressSegments SegmentWeights `koanf:"progress_segments"`
	Renormalize      bool           `koanf:"renormalize"`
}

// Config converts the weights for scoring.CourseWeightedRating.
func (c CourseWeights) Config() scoring.CourseConfig {
	return scoring.CourseConfig{
		Age: scoring.SegmentConfig{
			Boundaries:  c.AgeSegments.Boundaries,
			Weights:     c.AgeSegments.Weights,
			Renormalize: c.Renormalize,
		},
		Progress: scoring.SegmentConfig{
			Boundaries:  c.ProgressSegments.Boundaries,
			Weights:     c.ProgressSegments.Weights,
			Renormalize: c.Renormalize,
		},
		AgeWeight:      c.Age,
		ProgressWeight: c.Progress,
	}
}

// Weights holds every tunable ranking parameter.
type Weights struct {
	Confidence float64         `koanf:"confidence"`
	PriorVotes float64         `koanf:"prior_votes"`
	Weighted   WeightedWeights `koanf:"weighted"`
	Hybrid     HybridWeights   `koanf:"hybrid"`
	Course     CourseWeights   `koanf:"course"`
}

// CalibrationConfig is the layout of the calibration file.
type CalibrationConfig struct {
	Version string  `koanf:"version"`
	Weights Weights `koanf:"weights"`
}

// DefaultWeights returns the stock ranking weights.
//
//	weighted = review_count*0.32 + rating_count*0.26 + average*0.42
//	hybrid   = bar*0.60 + weighted*0.40
//	course   = age*0.50 + progress*0.50
//
// Age segments split at 30/90/180 days (28/26/24/22) and progress segments at
// 10/45/75 percent (22/24/26/28).
func DefaultWeights() *Weights {
	return &Weights{
		Confidence: scoring.DefaultConfidence,
		PriorVotes: 10,
		Weighted: WeightedWeights{
			ReviewCount: 32,
			RatingCount: 26,
			Average:     42,
		},
		Hybrid: HybridWeights{
			Bayesian: 60,
			Weighted: 40,
		},
		Course: CourseWeights{
			Age:      50,
			Progress: 50,
			AgeSegments: SegmentWeights{
				Boundaries: clone(scoring.DefaultAgeBoundaries),
				Weights:    clone(scoring.DefaultAgeWeights),
			},
			ProgressSegments: SegmentWeights{
				Boundaries: clone(scoring.DefaultProgressBoundaries),
				Weights:    clone(scoring.DefaultProgressWeights),
			},
		},
	}
}

// Validate rejects weights the scorers cannot use.
func (w *Weights) Validate() error {
	if w.Confidence <= 0 || w.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0,1), got %v", w.Confidence)
	}
	if w.PriorVotes <= 0 {
		return fmt.Errorf("prior_votes must be positive, got %v", w.PriorVotes)
	}
	if _, err := scoring.NewBuckets(w.Course.AgeSegments.Boundaries, w.Course.AgeSegments.Weights); err != nil {
		return fmt.Errorf("course.age_segments: %w", err)
	}
	if _, err := scoring.NewBuckets(w.Course.ProgressSegments.Boundaries, w.Course.ProgressSegments.Weights); err != nil {
		return fmt.Errorf("course.progress_segments: %w", err)
	}
	return nil
}

// LoadCalibration reads weights from a YAML calibration file and merges them
// over the defaults. An empty path returns the defaults. On error the
// defaults are returned alongside it.
func LoadCalibration(path string, logger *log.Logger) (*Weights, error) {
	if path == "" {
		return DefaultWeights(), nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		logf(logger, "ranking: failed to read calibration %s, using defaults: %v", path, err)
		return DefaultWeights(), fmt.Errorf("read calibration file: %w", err)
	}

	var cfg CalibrationConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		logf(logger, "ranking: failed to parse calibration %s, using defaults: %v", path, err)
		return DefaultWeights(), fmt.Errorf("parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &cfg.Weights, func(key string) bool {
		return k.Exists("weights." + key)
	})
	if err := merged.Validate(); err != nil {
		return DefaultWeights(), fmt.Errorf("invalid calibration file: %w", err)
	}
	logCalibrationOverrides(logger, defaults, merged)
	return merged, nil
}

// weightField addresses one scalar calibration key.
type weightField struct {
	key string
	ptr func(*Weights) *float64
}

var weightFields = []weightField{
	{"confidence", func(w *Weights) *float64 { return &w.Confidence }},
	{"prior_votes", func(w *Weights) *float64 { return &w.PriorVotes }},
	{"weighted.review_count", func(w *Weights) *float64 { return &w.Weighted.ReviewCount }},
	{"weighted.rating_count", func(w *Weights) *float64 { return &w.Weighted.RatingCount }},
	{"weighted.average", func(w *Weights) *float64 { return &w.Weighted.Average }},
	{"hybrid.bayesian", func(w *Weights) *float64 { return &w.Hybrid.Bayesian }},
	{"hybrid.weighted", func(w *Weights) *float64 { return &w.Hybrid.Weighted }},
	{"course.age", func(w *Weights) *float64 { return &w.Course.Age }},
	{"course.progress", func(w *Weights) *float64 { return &w.Course.Progress }},
}

// sliceField addresses one list calibration key.
type sliceField struct {
	key string
	ptr func(*Weights) *[]float64
}

var sliceFields = []sliceField{
	{"course.age_segments.boundaries", func(w *Weights) *[]float64 { return &w.Course.AgeSegments.Boundaries }},
	{"course.age_segments.weights", func(w *Weights) *[]float64 { return &w.Course.AgeSegments.Weights }},
	{"course.progress_segments.boundaries", func(w *Weights) *[]float64 { return &w.Course.ProgressSegments.Boundaries }},
	{"course.progress_segments.weights", func(w *Weights) *[]float64 { return &w.Course.ProgressSegments.Weights }},
}

const renormalizeKey = "course.renormalize"

// MergeCalibration applies override on top of base. isSet reports whether a
// key (e.g. "hybrid.weighted") was given explicitly, so explicit zeros win.
// With a nil isSet only non-zero fields of override apply.
func MergeCalibration(base, override *Weights, isSet func(key string) bool) *Weights {
	if base == nil {
		base = DefaultWeights()
	}
	result := *base
	for _, f := range sliceFields {
		*f.ptr(&result) = clone(*f.ptr(base))
	}
	if override == nil {
		return &result
	}

	applies := func(key string, nonZero bool) bool {
		if isSet == nil {
			return nonZero
		}
		return isSet(key)
	}
	for _, f := range weightFields {
		if v := *f.ptr(override); applies(f.key, v != 0) {
			*f.ptr(&result) = v
		}
	}
	for _, f := range sliceFields {
		if v := *f.ptr(override); applies(f.key, v != nil) {
			*f.ptr(&result) = clone(v)
		}
	}
	if applies(renormalizeKey, override.Course.Renormalize) {
		result.Course.Renormalize = override.Course.Renormalize
	}
	return &result
}

func logCalibrationOverrides(logger *log.Logger, defaults, loaded *Weights) {
	var overrides []string
	for _, f := range weightFields {
		if def, load := *f.ptr(defaults), *f.ptr(loaded); def != load {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", f.key, def, load))
		}
	}
	for _, f := range sliceFields {
		if def, load := *f.ptr(defaults), *f.ptr(loaded); !slices.Equal(def, load) {
			overrides = append(overrides, fmt.Sprintf("%s: %v -> %v", f.key, def, load))
		}
	}
	if defaults.Course.Renormalize != loaded.Course.Renormalize {
		overrides = append(overrides, fmt.Sprintf("%s: %t -> %t", renormalizeKey, defaults.Course.Renormalize, loaded.Course.Renormalize))
	}

	if len(overrides) > 0 {
		logf(logger, "ranking: loaded calibration with overrides %v", overrides)
		return
	}
	logf(logger, "ranking: loaded calibration (using all defaults)")
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}

func logf(logger *log.Logger, format string, args ...interface{}) {
	if logger != nil {
		logger.Printf(format, args...)
	}
}
