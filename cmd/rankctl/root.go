package main

import (
	"fmt"
	"io"
	"log"

	"github.com/Clark-Hu/rating-rank/internal/scoring"
	"github.com/spf13/cobra"
)

var version = "dev"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	format     string
	top        int
	confidence float64
	verbose    bool
}

func (o *globalOptions) validate() error {
	switch o.format {
	case formatTable, formatJSON, formatYAML:
	default:
		return fmt.Errorf("unsupported format %q: must be table, json or yaml", o.format)
	}
	if o.top < 0 {
		return fmt.Errorf("--top must not be negative, got %d", o.top)
	}
	if _, err := scoring.ZScore(o.confidence); err != nil {
		return fmt.Errorf("--confidence: %w", err)
	}
	return nil
}

// logger writes diagnostics to stderr. Without --verbose they are discarded.
func (o *globalOptions) logger(cmd *cobra.Command) *log.Logger {
	if !o.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "rankctl: ", log.LstdFlags)
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "rankctl",
		Short: "Rank rated items from CSV exports",
		Long: `rankctl scores and ranks items from CSV exports offline.

It applies the same scorers as the ratings API: segment weighted averages,
weighted sorting, Bayesian average ratings, count-confidence ratings and
Wilson lower bounds.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.validate()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.format, "format", "f", formatTable, "Output format: table, json or yaml")
	flags.IntVarP(&opts.top, "top", "n", 0, "Only print the first N rows (0 prints all)")
	flags.Float64Var(&opts.confidence, "confidence", scoring.DefaultConfidence, "Confidence level of the lower-bound scorers")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	cmd.AddCommand(newCourseCommand(opts))
	cmd.AddCommand(newProductsCommand(opts))
	cmd.AddCommand(newMoviesCommand(opts))
	cmd.AddCommand(newHistogramsCommand(opts))
	cmd.AddCommand(newReviewsCommand(opts))

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
