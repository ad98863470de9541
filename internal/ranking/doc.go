// Package ranking orders movies and reviews by trust-adjusted scores.
//
// Movie strategies:
//
//	average   mean rating
//	count     number of ratings
//	weighted  32% review count, 26% rating count (both rescaled to [1,5]) and 42% mean rating
//	imdb      mean rating pulled toward the catalogue mean by a prior of PriorVotes votes
//	bar       Bayesian lower bound of the half-star histogram, in stars
//	hybrid    60% bar blended with 40% weighted
//
// Review strategies are wilson (lower bound of the helpful share), diff
// (helpful minus unhelpful) and average (helpful share).
//
// Weights come from DefaultWeights and may be overridden by a YAML
// calibration file; see LoadCalibration.
package ranking
