package ranking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/rating-rank/internal/domain"
	"github.com/Clark-Hu/rating-rank/internal/metrics"
	"github.com/Clark-Hu/rating-rank/internal/scoring"
)

// ErrUnknownStrategy reports a strategy name the service does not implement.
var ErrUnknownStrategy = errors.New("ranking: unknown strategy")

// StatsSource reads per-movie aggregates.
type StatsSource interface {
	Candidates(ctx context.Context, genre string, limit int) ([]domain.MovieStats, error)
	Movie(ctx context.Context, movieID string) (domain.MovieStats, error)
	GlobalMean(ctx context.Context) (float64, int64, error)
}

// RatingSource reads the individual ratings of a movie.
type RatingSource interface {
	Records(ctx context.Context, movieID string) ([]domain.Rating, error)
}

// ReviewSource reads the reviews of a movie with their vote tallies.
type ReviewSource interface {
	ListWithTallies(ctx context.Context, movieID string) ([]domain.ReviewWithVotes, error)
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Weights       *Weights
	Metrics       *metrics.Metrics
	Logger        *log.Logger
	Now           func() time.Time
	MaxCandidates int
}

// Service computes score cards and rankings.
type Service struct {
	stats         StatsSource
	ratings       RatingSource
	reviews       ReviewSource
	weights       *Weights
	metrics       *metrics.Metrics
	logger        *log.Logger
	now           func() time.Time
	maxCandidates int
}

// NewService wires a Service over its data sources.
func NewService(stats StatsSource, ratings RatingSource, reviews ReviewSource, opts Options) *Service {
	s := &Service{
		stats:         stats,
		ratings:       ratings,
		reviews:       reviews,
		weights:       opts.Weights,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		now:           opts.Now,
		maxCandidates: opts.MaxCandidates,
	}
	if s.weights == nil {
		s.weights = DefaultWeights()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxCandidates <= 0 {
		s.maxCandidates = 500
	}
	return s
}

// Weights returns the weights in use.
func (s *Service) Weights() Weights {
	return *s.weights
}

// ScoreCard lists every score of one movie.
type ScoreCard struct {
	Stats            domain.MovieStats
	BayesianStars    float64
	IMDBRating       float64
	AgeWeighted      float64
	ProgressWeighted float64
	CourseWeighted   float64
	GlobalMean       float64
	ComputedAt       time.Time
}

// ScoreCard loads a movie's aggregates and individual ratings concurrently and
// scores them.
func (s *Service) ScoreCard(ctx context.Context, movieID string) (ScoreCard, error) {
	start := time.Now()

	var (
		stats      domain.MovieStats
		records    []domain.Rating
		globalMean float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.stats.Movie(gctx, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.ratings.Records(gctx, movieID)
		return err
	})
	g.Go(func() error {
		var err error
		globalMean, _, err = s.stats.GlobalMean(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncErrors(metrics.KindScore)
		return ScoreCard{}, err
	}

	card, err := s.scoreCard(stats, records, globalMean)
	if err != nil {
		s.metrics.IncErrors(metrics.KindScore)
		return ScoreCard{}, err
	}
	s.metrics.ObserveRequest(metrics.KindScore, "card", time.Since(start))
	return card, nil
}

func (s *Service) scoreCard(stats domain.MovieStats, records []domain.Rating, globalMean float64) (ScoreCard, error) {
	w := s.weights
	bar, err := scoring.BayesianLowerBound(stats.Levels, w.Confidence)
	if err != nil {
		return ScoreCard{}, fmt.Errorf("bayesian score: %w", err)
	}
	imdb, err := scoring.CountConfidenceWeightedRating(stats.Average, stats.Count, w.PriorVotes, globalMean)
	if err != nil {
		return ScoreCard{}, fmt.Errorf("imdb score: %w", err)
	}

	now := s.now()
	course, err := scoring.CourseWeightedRating(ratingRecords(records), now, w.Course.Config())
	if err != nil {
		return ScoreCard{}, fmt.Errorf("course score: %w", err)
	}

	return ScoreCard{
		Stats:            stats,
		BayesianStars:    bar * starsPerLevel,
		IMDBRating:       imdb,
		AgeWeighted:      course.AgeWeighted,
		ProgressWeighted: course.ProgressWeighted,
		CourseWeighted:   course.Combined,
		GlobalMean:       globalMean,
		ComputedAt:       now,
	}, nil
}

// RankedMovie is one row of a movie ranking.
type RankedMovie struct {
	Rank  int
	Score float64
	Stats domain.MovieStats
}

// RankMovies scores the newest candidate movies (optionally of one genre) with
// strategy and returns the best limit of them. An empty strategy selects hybrid.
func (s *Service) RankMovies(ctx context.Context, strategy, genre string, limit int) ([]RankedMovie, error) {
	start := time.Now()
	strat, err := ParseMovieStrategy(strategy)
	if err != nil {
		return nil, err
	}

	candidates, err := s.stats.Candidates(ctx, strings.TrimSpace(genre), s.maxCandidates)
	if err != nil {
		s.metrics.IncErrors(metrics.KindMovies)
		return nil, err
	}

	var globalMean float64
	if strat == MovieIMDB {
		if globalMean, _, err = s.stats.GlobalMean(ctx); err != nil {
			s.metrics.IncErrors(metrics.KindMovies)
			return nil, err
		}
	}

	scores, err := s.movieScores(strat, candidates, globalMean)
	if err != nil {
		s.metrics.IncErrors(metrics.KindMovies)
		return nil, err
	}

	ranked := make([]RankedMovie, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedMovie{Score: scores[i], Stats: c}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Stats.Title != ranked[j].Stats.Title {
			return ranked[i].Stats.Title < ranked[j].Stats.Title
		}
		return ranked[i].Stats.MovieID < ranked[j].Stats.MovieID
	})

	ranked = ranked[:clamp(limit, len(ranked))]
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	s.metrics.ObserveRequest(metrics.KindMovies, string(strat), time.Since(start))
	return ranked, nil
}

func (s *Service) movieScores(strat MovieStrategy, items []domain.MovieStats, globalMean float64) ([]float64, error) {
	if len(items) == 0 {
		return []float64{}, nil
	}
	w := s.weights
	scores := make([]float64, len(items))

	switch strat {
	case MovieAverage:
		for i, it := range items {
			scores[i] = it.Average
		}
	case MovieCount:
		for i, it := range items {
			scores[i] = float64(it.Count)
		}
	case MovieIMDB:
		for i, it := range items {
			v, err := scoring.CountConfidenceWeightedRating(it.Average, it.Count, w.PriorVotes, globalMean)
			if err != nil {
				return nil, fmt.Errorf("movie %s: %w", it.MovieID, err)
			}
			scores[i] = v
		}
	case MovieBayesian:
		for i, it := range items {
			v, err := scoring.BayesianLowerBound(it.Levels, w.Confidence)
			if err != nil {
				return nil, fmt.Errorf("movie %s: %w", it.MovieID, err)
			}
			scores[i] = v * starsPerLevel
		}
	case MovieWeighted, MovieHybrid:
		weighted, err := s.weightedScores(items)
		if err != nil {
			return nil, err
		}
		if strat == MovieWeighted {
			return weighted, nil
		}
		cfg := scoring.HybridConfig{
			BayesWeight: w.Hybrid.Bayesian,
			OtherWeight: w.Hybrid.Weighted,
			Confidence:  w.Confidence,
			LevelScale:  starsPerLevel,
		}
		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}
		return scoring.HybridScoresFunc(idx,
			func(i int) scoring.Histogram { return items[i].Levels },
			func(i int) float64 { return weighted[i] },
			cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strat)
	}
	return scores, nil
}

// weightedScores rescales review and rating counts onto the star scale and
// combines them with the mean rating.
func (s *Service) weightedScores(items []domain.MovieStats) ([]float64, error) {
	reviewCounts := make([]float64, len(items))
	ratingCounts := make([]float64, len(items))
	for i, it := range items {
		reviewCounts[i] = float64(it.ReviewCount)
		ratingCounts[i] = float64(it.Count)
	}

	reviewScaled, err := s.rescale(reviewCounts)
	if err != nil {
		return nil, fmt.Errorf("rescale review counts: %w", err)
	}
	ratingScaled, err := s.rescale(ratingCounts)
	if err != nil {
		return nil, fmt.Errorf("rescale rating counts: %w", err)
	}

	w := s.weights.Weighted
	weights := []float64{w.ReviewCount, w.RatingCount, w.Average}
	out := make([]float64, len(items))
	for i, it := range items {
		v, err := scoring.WeightedSum([]float64{reviewScaled[i], ratingScaled[i], it.Average}, weights)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Service) rescale(values []float64) ([]float64, error) {
	out, err := scoring.Rescale(values, minStars, maxStars)
	if err != nil {
		return nil, err
	}
	if len(values) > 1 && allEqual(values) {
		s.metrics.IncDegenerate()
		logf(s.logger, "ranking: %d candidates share the value %v, rescaled to %v", len(values), values[0], minStars)
	}
	return out, nil
}

// RankedReview is one row of a review ranking.
type RankedReview struct {
	Rank   int
	Score  float64
	Review domain.ReviewWithVotes
}

// RankReviews orders a movie's reviews by strategy; an empty strategy selects
// wilson. Ties keep the oldest review first.
func (s *Service) RankReviews(ctx context.Context, movieID, strategy string) ([]RankedReview, error) {
	start := time.Now()
	strat, err := ParseReviewStrategy(strategy)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListWithTallies(ctx, movieID)
	if err != nil {
		s.metrics.IncErrors(metrics.KindReviews)
		return nil, err
	}

	ranked := make([]RankedReview, len(reviews))
	for i, r := range reviews {
		score, err := reviewScore(strat, r.Votes, s.weights.Confidence)
		if err != nil {
			s.metrics.IncErrors(metrics.KindReviews)
			return nil, fmt.Errorf("review %s: %w", r.ID, err)
		}
		ranked[i] = RankedReview{Score: score, Review: r}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	s.metrics.ObserveRequest(metrics.KindReviews, string(strat), time.Since(start))
	return ranked, nil
}

func reviewScore(strat ReviewStrategy, votes domain.VoteTally, confidence float64) (float64, error) {
	switch strat {
	case ReviewDiff:
		return float64(scoring.UpDownDiff(votes.Up, votes.Down)), nil
	case ReviewAverage:
		return scoring.AverageRating(votes.Up, votes.Down), nil
	case ReviewWilson:
		return scoring.WilsonLowerBound(votes.Up, votes.Down, confidence)
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, strat)
}

func ratingRecords(ratings []domain.Rating) []scoring.RatingRecord {
	out := make([]scoring.RatingRecord, len(ratings))
	for i, r := range ratings {
		out[i] = scoring.RatingRecord{
			Value:     float64(r.Value),
			Timestamp: r.UpdatedAt,
			Progress:  r.Progress,
		}
	}
	return out
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func clamp(limit, n int) int {
	if limit <= 0 || limit > n {
		return n
	}
	return limit
}
