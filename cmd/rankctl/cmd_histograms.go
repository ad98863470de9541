package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Clark-Hu/rating-rank/internal/dataset"
	"github.com/Clark-Hu/rating-rank/internal/scoring"
	"github.com/spf13/cobra"
)

func newHistogramsCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "histograms <imdb_ratings.csv>",
		Short: "Rank rating distributions by Bayesian average rating",
		Long: `Computes the Bayesian average rating of every row of a ten-level rating
distribution export (columns one..ten, lowest level first) and ranks the rows.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistograms(cmd, global, args[0])
		},
	}
}

type histogramResult struct {
	Rank  int     `json:"rank" yaml:"rank"`
	Title string  `json:"title" yaml:"title"`
	Total int64   `json:"total" yaml:"total"`
	Mean  float64 `json:"mean" yaml:"mean"`
	BAR   float64 `json:"bar_score" yaml:"bar_score"`
}

func (r histogramResult) cells() []string {
	return []string{strconv.Itoa(r.Rank), r.Title, strconv.FormatInt(r.Total, 10), f5(r.Mean), f5(r.BAR)}
}

var histogramsHeader = []string{"RANK", "TITLE", "TOTAL", "MEAN", "BAR"}

func runHistograms(cmd *cobra.Command, global *globalOptions, path string) error {
	records, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}

	rows, err := dataset.Histograms(records)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	results := make([]histogramResult, len(rows))
	for i, row := range rows {
		bar, err := scoring.BayesianLowerBound(row.Histogram, global.confidence)
		if err != nil {
			return fmt.Errorf("%s: %w", row.Title, err)
		}
		results[i] = histogramResult{
			Title: row.Title,
			Total: row.Histogram.Total(),
			Mean:  row.Histogram.Mean(),
			BAR:   bar,
		}
	}
	global.logger(cmd).Printf("histograms: %d rows", len(results))

	sort.SliceStable(results, func(i, j int) bool { return results[i].BAR > results[j].BAR })
	for i := range results {
		results[i].Rank = i + 1
	}
	return writeReport(cmd.OutOrStdout(), global.format, global.top, histogramsHeader, results)
}
