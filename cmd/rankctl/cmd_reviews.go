package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Clark-Hu/rating-rank/internal/dataset"
	"github.com/Clark-Hu/rating-rank/internal/scoring"
	"github.com/spf13/cobra"
)

func newReviewsCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reviews <votes.csv>",
		Short: "Rank reviews by helpful votes",
		Long: `Scores every row of an up/down vote export with the up-down difference, the
up share and the Wilson lower bound, and ranks the rows by Wilson lower bound.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReviews(cmd, global, args[0])
		},
	}
}

type reviewResult struct {
	Rank    int     `json:"rank" yaml:"rank"`
	ID      string  `json:"id" yaml:"id"`
	Up      int64   `json:"up" yaml:"up"`
	Down    int64   `json:"down" yaml:"down"`
	Diff    int64   `json:"score_pos_neg_diff" yaml:"score_pos_neg_diff"`
	Average float64 `json:"score_average_rating" yaml:"score_average_rating"`
	Wilson  float64 `json:"wilson_lower_bound" yaml:"wilson_lower_bound"`
}

func (r reviewResult) cells() []string {
	return []string{
		strconv.Itoa(r.Rank), r.ID, strconv.FormatInt(r.Up, 10), strconv.FormatInt(r.Down, 10),
		strconv.FormatInt(r.Diff, 10), f5(r.Average), f5(r.Wilson),
	}
}

var reviewsHeader = []string{"RANK", "ID", "UP", "DOWN", "DIFF", "AVERAGE", "WILSON"}

func runReviews(cmd *cobra.Command, global *globalOptions, path string) error {
	records, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}

	rows, err := dataset.Votes(records)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	results := make([]reviewResult, len(rows))
	for i, row := range rows {
		wilson, err := row.Votes.Score(global.confidence)
		if err != nil {
			return fmt.Errorf("review %s: %w", row.ID, err)
		}
		results[i] = reviewResult{
			ID:      row.ID,
			Up:      row.Votes.Up,
			Down:    row.Votes.Down,
			Diff:    scoring.UpDownDiff(row.Votes.Up, row.Votes.Down),
			Average: scoring.AverageRating(row.Votes.Up, row.Votes.Down),
			Wilson:  wilson,
		}
	}
	global.logger(cmd).Printf("reviews: %d rows", len(results))

	sort.SliceStable(results, func(i, j int) bool { return results[i].Wilson > results[j].Wilson })
	for i := range results {
		results[i].Rank = i + 1
	}
	return writeReport(cmd.OutOrStdout(), global.format, global.top, reviewsHeader, results)
}
