package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Clark-Hu/rating-rank/internal/dataset"
	"github.com/Clark-Hu/rating-rank/internal/scoring"
	"github.com/spf13/cobra"
)

type courseOptions struct {
	reference       string
	ageWeights      []float64
	progressWeights []float64
	ageShare        float64
	progressShare   float64
	renormalize     bool
}

func newCourseCommand(global *globalOptions) *cobra.Command {
	opts := &courseOptions{}
	cmd := &cobra.Command{
		Use:   "course <course_reviews.csv>",
		Short: "Score a course from its reviews by review age and progress",
		Long: `Computes the time-based and progress-based weighted averages of a course
review export (Rating, Timestamp and optional Progress columns) and blends them.

Reviews are bucketed into <=30, 30-90, 90-180 and >180 days before the reference
date, and into <=10, 10-45, 45-75 and >75 percent progress.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCourse(cmd, global, opts, args[0])
		},
	}

	def := scoring.DefaultCourseConfig()
	cmd.Flags().StringVar(&opts.reference, "reference", "", "Reference date (YYYY-MM-DD); defaults to the latest review")
	cmd.Flags().Float64SliceVar(&opts.ageWeights, "age-weights", def.Age.Weights, "Percent weights of the four age buckets, newest first")
	cmd.Flags().Float64SliceVar(&opts.progressWeights, "progress-weights", def.Progress.Weights, "Percent weights of the four progress buckets, lowest first")
	cmd.Flags().Float64Var(&opts.ageShare, "age-share", def.AgeWeight, "Percent of the age-based average in the blend")
	cmd.Flags().Float64Var(&opts.progressShare, "progress-share", def.ProgressWeight, "Percent of the progress-based average in the blend")
	cmd.Flags().BoolVar(&opts.renormalize, "renormalize", false, "Redistribute the weight of empty buckets")

	return cmd
}

type courseResult struct {
	Reviews          int     `json:"reviews" yaml:"reviews"`
	Mean             float64 `json:"mean" yaml:"mean"`
	Reference        string  `json:"reference" yaml:"reference"`
	AgeWeighted      float64 `json:"age_weighted" yaml:"age_weighted"`
	ProgressWeighted float64 `json:"progress_weighted" yaml:"progress_weighted"`
	Combined         float64 `json:"combined" yaml:"combined"`
}

func (r courseResult) cells() []string {
	return []string{strconv.Itoa(r.Reviews), f5(r.Mean), r.Reference, f5(r.AgeWeighted), f5(r.ProgressWeighted), f5(r.Combined)}
}

var courseHeader = []string{"REVIEWS", "MEAN", "REFERENCE", "AGE", "PROGRESS", "COMBINED"}

func runCourse(cmd *cobra.Command, global *globalOptions, opts *courseOptions, path string) error {
	rows, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}

	reviews, err := dataset.CourseReviews(rows)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(reviews) == 0 {
		return fmt.Errorf("%s: no reviews", path)
	}

	reference, err := courseReference(opts.reference, reviews)
	if err != nil {
		return err
	}
	global.logger(cmd).Printf("course: %d reviews, reference %s", len(reviews), reference.Format(time.DateOnly))

	cfg := scoring.CourseConfig{
		Age:            scoring.SegmentConfig{Boundaries: scoring.DefaultAgeBoundaries, Weights: opts.ageWeights, Renormalize: opts.renormalize},
		Progress:       scoring.SegmentConfig{Boundaries: scoring.DefaultProgressBoundaries, Weights: opts.progressWeights, Renormalize: opts.renormalize},
		AgeWeight:      opts.ageShare,
		ProgressWeight: opts.progressShare,
	}
	records := dataset.CourseRecords(reviews)
	rating, err := scoring.CourseWeightedRating(records, reference, cfg)
	if err != nil {
		return err
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Value
	}
	result := courseResult{
		Reviews:          len(reviews),
		Mean:             scoring.Mean(values),
		Reference:        reference.Format(time.DateOnly),
		AgeWeighted:      rating.AgeWeighted,
		ProgressWeighted: rating.ProgressWeighted,
		Combined:         rating.Combined,
	}
	return writeReport(cmd.OutOrStdout(), global.format, global.top, courseHeader, []courseResult{result})
}

func courseReference(flag string, reviews []dataset.CourseReview) (time.Time, error) {
	if flag != "" {
		for _, layout := range []string{time.DateOnly, time.DateTime, time.RFC3339} {
			if t, err := time.Parse(layout, flag); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("--reference: cannot parse %q as a date", flag)
	}
	var latest time.Time
	for _, r := range reviews {
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	if latest.IsZero() {
		return time.Time{}, fmt.Errorf("no review timestamps; pass --reference")
	}
	return latest, nil
}
