package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Clark-Hu/rating-rank/internal/dataset"
	"github.com/Clark-Hu/rating-rank/internal/scoring"
	"github.com/spf13/cobra"
)

const (
	sortIMDB    = "imdb"
	sortCount   = "count"
	sortAverage = "average"
)

type moviesOptions struct {
	sortBy   string
	prior    float64
	minVotes int64
}

func newMoviesCommand(global *globalOptions) *cobra.Command {
	opts := &moviesOptions{}
	cmd := &cobra.Command{
		Use:   "movies <movies_metadata.csv>",
		Short: "Rank movies by vote average and vote count",
		Long: `Ranks a movie metadata export (title, vote_average, vote_count).

The count score multiplies vote_average by vote_count rescaled to 1..10. The
imdb score pulls vote_average toward the mean of all movies in proportion to
how few votes a movie has relative to --m.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMovies(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.sortBy, "sort", "s", sortIMDB, "Sort key: imdb, count or average")
	cmd.Flags().Float64Var(&opts.prior, "m", 2500, "Prior vote count of the imdb score")
	cmd.Flags().Int64Var(&opts.minVotes, "min-votes", 0, "Only print movies with at least this many votes")

	return cmd
}

type movieResult struct {
	Rank        int     `json:"rank" yaml:"rank"`
	Title       string  `json:"title" yaml:"title"`
	VoteAverage float64 `json:"vote_average" yaml:"vote_average"`
	VoteCount   int64   `json:"vote_count" yaml:"vote_count"`
	CountScore  float64 `json:"vote_count_score" yaml:"vote_count_score"`
	AvgCount    float64 `json:"average_count_score" yaml:"average_count_score"`
	Weighted    float64 `json:"weighted_rating" yaml:"weighted_rating"`
}

func (r movieResult) cells() []string {
	return []string{
		strconv.Itoa(r.Rank), r.Title, f5(r.VoteAverage), strconv.FormatInt(r.VoteCount, 10),
		f5(r.CountScore), f5(r.AvgCount), f5(r.Weighted),
	}
}

var moviesHeader = []string{"RANK", "TITLE", "AVERAGE", "VOTES", "COUNT_SCORE", "AVG_COUNT", "WEIGHTED"}

func runMovies(cmd *cobra.Command, global *globalOptions, opts *moviesOptions, path string) error {
	switch opts.sortBy {
	case sortIMDB, sortCount, sortAverage:
	default:
		return fmt.Errorf("unsupported sort %q: must be imdb, count or average", opts.sortBy)
	}

	records, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}

	movies, skipped, err := dataset.MovieMetadata(records)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger := global.logger(cmd)
	if skipped > 0 {
		logger.Printf("movies: skipped %d rows with malformed vote columns", skipped)
	}
	if len(movies) == 0 {
		return fmt.Errorf("%s: no movies", path)
	}

	results, err := scoreMovies(movies, opts.prior)
	if err != nil {
		return err
	}
	if opts.minVotes > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.VoteCount >= opts.minVotes {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	logger.Printf("movies: %d ranked by %s", len(results), opts.sortBy)

	sortMovies(results, opts.sortBy)
	return writeReport(cmd.OutOrStdout(), global.format, global.top, moviesHeader, results)
}

func scoreMovies(movies []dataset.MovieMeta, prior float64) ([]movieResult, error) {
	counts := make([]float64, len(movies))
	averages := make([]float64, len(movies))
	for i, m := range movies {
		counts[i] = float64(m.VoteCount)
		averages[i] = m.VoteAverage
	}
	scaled, err := scoring.Rescale(counts, 1, 10)
	if err != nil {
		return nil, fmt.Errorf("vote_count: %w", err)
	}
	globalMean := scoring.Mean(averages)

	out := make([]movieResult, len(movies))
	for i, m := range movies {
		weighted, err := scoring.CountConfidenceWeightedRating(m.VoteAverage, m.VoteCount, prior, globalMean)
		if err != nil {
			return nil, err
		}
		out[i] = movieResult{
			Title:       m.Title,
			VoteAverage: m.VoteAverage,
			VoteCount:   m.VoteCount,
			CountScore:  scaled[i],
			AvgCount:    scoring.AverageCountScore(m.VoteAverage, scaled[i]),
			Weighted:    weighted,
		}
	}
	return out, nil
}

func sortMovies(results []movieResult, by string) {
	key := func(r movieResult) float64 {
		switch by {
		case sortCount:
			return r.AvgCount
		case sortAverage:
			return r.VoteAverage
		default:
			return r.Weighted
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return key(results[i]) > key(results[j])
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}
