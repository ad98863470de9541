package ranking

import (
	"fmt"
	"strings"
)

const (
	starsPerLevel = 0.5
	minStars      = 1.0
	maxStars      = 5.0
)

// MovieStrategy names a movie ranking strategy.
type MovieStrategy string

// Movie strategies.
const (
	MovieAverage  MovieStrategy = "average"
	MovieCount    MovieStrategy = "count"
	MovieWeighted MovieStrategy = "weighted"
	MovieIMDB     MovieStrategy = "imdb"
	MovieBayesian MovieStrategy = "bar"
	MovieHybrid   MovieStrategy = "hybrid"
)

// MovieStrategies lists every movie strategy.
var MovieStrategies = []MovieStrategy{MovieAverage, MovieCount, MovieWeighted, MovieIMDB, MovieBayesian, MovieHybrid}

// ParseMovieStrategy resolves a case-insensitive strategy name.
func ParseMovieStrategy(name string) (MovieStrategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return MovieHybrid, nil
	}
	for _, s := range MovieStrategies {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// ReviewStrategy names a review ranking strategy.
type ReviewStrategy string

// Review strategies.
const (
	ReviewWilson  ReviewStrategy = "wilson"
	ReviewDiff    ReviewStrategy = "diff"
	ReviewAverage ReviewStrategy = "average"
)

// ParseReviewStrategy resolves a case-insensitive strategy name.
func ParseReviewStrategy(name string) (ReviewStrategy, error) {
	switch ReviewStrategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", ReviewWilson:
		return ReviewWilson, nil
	case ReviewDiff:
		return ReviewDiff, nil
	case ReviewAverage:
		return ReviewAverage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
