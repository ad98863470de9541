package domain

import "time"

// Review is a free-text review a user wrote for a movie.
type Review struct {
	ID        string
	MovieID   string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteTally counts helpful and unhelpful votes for a review.
type VoteTally struct {
	Up   int64
	Down int64
}

// ReviewWithVotes couples a review with its current vote tally.
type ReviewWithVotes struct {
	Review
	Votes VoteTally
}
