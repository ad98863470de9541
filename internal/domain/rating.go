package domain

import "time"

// RatingLevels is the number of ordinal levels a rating maps to: 0.5..5.0 in
// half-star steps.
const RatingLevels = 10

// Rating represents a single user's rating for a movie.
type Rating struct {
	MovieID   string
	RaterID   string
	Value     float32
	Progress  *float64 // percentage of the movie watched, when reported
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LevelOf maps a half-star rating to its ordinal level (0.5 -> 1, 5.0 -> 10).
func LevelOf(value float32) int {
	return int(value*2 + 0.5)
}

// ValidRating reports whether value is one of the half-star ratings 0.5..5.0.
func ValidRating(value float32) bool {
	level := LevelOf(value)
	return level >= 1 && level <= RatingLevels && float32(level)/2 == value
}

// RatingAggregate provides average and count for a movie's ratings.
type RatingAggregate struct {
	Average float32
	Count   int64
}
