package domain

import "time"

// Movie represents the canonical movie entity in the database/service.
type Movie struct {
	ID          string
	Title       string
	ReleaseDate time.Time
	ReleaseYear int
	Genre       string
	Distributor *string
	Budget      *int64
	MpaRating   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MovieStats summarises the feedback collected for one movie. It is the row
// shape the ranking layer scores.
type MovieStats struct {
	MovieID     string
	Title       string
	Genre       string
	Average     float64
	Count       int64
	Levels      []int64 // counts per half-star level, 0.5 stars first
	ReviewCount int64
}
