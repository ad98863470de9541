package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Clark-Hu/rating-rank/internal/dataset"
	"github.com/Clark-Hu/rating-rank/internal/scoring"
	"github.com/spf13/cobra"
)

const (
	sortWeighted = "weighted"
	sortBAR      = "bar"
	sortHybrid   = "hybrid"
)

type productsOptions struct {
	sortBy         string
	contains       string
	commentWeight  float64
	purchaseWeight float64
	ratingWeight   float64
	barWeight      float64
	weightedWeight float64
}

func newProductsCommand(global *globalOptions) *cobra.Command {
	opts := &productsOptions{}
	cmd := &cobra.Command{
		Use:   "products <product_sorting.csv>",
		Short: "Sort products by weighted, Bayesian or hybrid score",
		Long: `Ranks a product export (name, rating, purchase_count, comment_count and
1_point..5_point columns).

The weighted score rescales comment and purchase counts to 1..5 and blends them
with the rating. The Bayesian average rating (bar) is the lower bound of the
5-point histogram. The hybrid score blends bar with the weighted score.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProducts(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.sortBy, "sort", "s", sortHybrid, "Sort key: weighted, bar or hybrid")
	cmd.Flags().StringVar(&opts.contains, "contains", "", "Only rank products whose name contains this text")
	cmd.Flags().Float64Var(&opts.commentWeight, "comment-weight", 32, "Percent weight of the scaled comment count")
	cmd.Flags().Float64Var(&opts.purchaseWeight, "purchase-weight", 26, "Percent weight of the scaled purchase count")
	cmd.Flags().Float64Var(&opts.ratingWeight, "rating-weight", 42, "Percent weight of the rating")
	cmd.Flags().Float64Var(&opts.barWeight, "bar-weight", 60, "Percent weight of the Bayesian score in the hybrid")
	cmd.Flags().Float64Var(&opts.weightedWeight, "weighted-weight", 40, "Percent weight of the weighted score in the hybrid")

	return cmd
}

type productResult struct {
	Rank     int     `json:"rank" yaml:"rank"`
	Name     string  `json:"name" yaml:"name"`
	Rating   float64 `json:"rating" yaml:"rating"`
	Purchase int64   `json:"purchase_count" yaml:"purchase_count"`
	Comments int64   `json:"comment_count" yaml:"comment_count"`
	Weighted float64 `json:"weighted_sorting_score" yaml:"weighted_sorting_score"`
	BAR      float64 `json:"bar_score" yaml:"bar_score"`
	Hybrid   float64 `json:"hybrid_sorting_score" yaml:"hybrid_sorting_score"`
}

func (r productResult) cells() []string {
	return []string{
		strconv.Itoa(r.Rank), r.Name, f5(r.Rating),
		strconv.FormatInt(r.Purchase, 10), strconv.FormatInt(r.Comments, 10),
		f5(r.Weighted), f5(r.BAR), f5(r.Hybrid),
	}
}

var productsHeader = []string{"RANK", "NAME", "RATING", "PURCHASES", "COMMENTS", "WEIGHTED", "BAR", "HYBRID"}

func runProducts(cmd *cobra.Command, global *globalOptions, opts *productsOptions, path string) error {
	switch opts.sortBy {
	case sortWeighted, sortBAR, sortHybrid:
	default:
		return fmt.Errorf("unsupported sort %q: must be weighted, bar or hybrid", opts.sortBy)
	}

	records, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}

	products, err := dataset.Products(records)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(products) == 0 {
		return fmt.Errorf("%s: no products", path)
	}

	results, err := scoreProducts(products, global.confidence, opts)
	if err != nil {
		return err
	}
	if opts.contains != "" {
		kept := results[:0]
		for _, r := range results {
			if strings.Contains(r.Name, opts.contains) {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	global.logger(cmd).Printf("products: %d ranked by %s", len(results), opts.sortBy)

	sortProducts(results, opts.sortBy)
	return writeReport(cmd.OutOrStdout(), global.format, global.top, productsHeader, results)
}

// scoreProducts computes every score for the whole export. Counts are
// rescaled over all products before any name filter applies.
func scoreProducts(products []dataset.Product, confidence float64, opts *productsOptions) ([]productResult, error) {
	comments := make([]float64, len(products))
	purchases := make([]float64, len(products))
	for i, p := range products {
		comments[i] = float64(p.CommentCount)
		purchases[i] = float64(p.PurchaseCount)
	}
	commentScaled, err := scoring.Rescale(comments, 1, 5)
	if err != nil {
		return nil, fmt.Errorf("comment_count: %w", err)
	}
	purchaseScaled, err := scoring.Rescale(purchases, 1, 5)
	if err != nil {
		return nil, fmt.Errorf("purchase_count: %w", err)
	}

	needHistogram := opts.sortBy != sortWeighted
	weights := []float64{opts.commentWeight, opts.purchaseWeight, opts.ratingWeight}
	out := make([]productResult, len(products))
	for i, p := range products {
		weighted, err := scoring.WeightedSum([]float64{commentScaled[i], purchaseScaled[i], p.Rating}, weights)
		if err != nil {
			return nil, err
		}
		var bar float64
		if p.Histogram != nil {
			if bar, err = scoring.BayesianLowerBound(p.Histogram, confidence); err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name, err)
			}
		} else if needHistogram {
			return nil, fmt.Errorf("%s: no 1_point..5_point columns for --sort %s", p.Name, opts.sortBy)
		}
		out[i] = productResult{
			Name:     p.Name,
			Rating:   p.Rating,
			Purchase: p.PurchaseCount,
			Comments: p.CommentCount,
			Weighted: weighted,
			BAR:      bar,
			Hybrid:   scoring.Blend(bar, weighted, opts.barWeight, opts.weightedWeight),
		}
	}
	return out, nil
}

func sortProducts(results []productResult, by string) {
	key := func(r productResult) float64 {
		switch by {
		case sortWeighted:
			return r.Weighted
		case sortBAR:
			return r.BAR
		default:
			return r.Hybrid
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return key(results[i]) > key(results[j])
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}
