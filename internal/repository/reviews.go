package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/rating-rank/internal/domain"
)

// ErrConflict indicates a uniqueness violation, e.g. a second review by the same author.
var ErrConflict = errors.New("repository: conflict")

// ReviewsRepository persists reviews and their helpfulness votes.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

// ReviewCreateParams captures a new review.
type ReviewCreateParams struct {
	MovieID  string
	AuthorID string
	Body     string
}

// VoteParams captures a helpfulness vote. A voter has at most one vote per
// review; voting again replaces it.
type VoteParams struct {
	ReviewID string
	VoterID  string
	Helpful  bool
}

const reviewColumns = `id::text, movie_id::text, author_id, body, created_at, updated_at`

// Create inserts a review. A second review by the same author returns ErrConflict.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	query := fmt.Sprintf(`
        INSERT INTO reviews (movie_id, author_id, body)
        VALUES ($1::uuid,$2,$3)
        RETURNING %s
    `, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, params.MovieID, params.AuthorID, params.Body))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Review{}, ErrConflict
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Get fetches a review by id.
func (r *ReviewsRepository) Get(ctx context.Context, id string) (domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id::text = $1`, reviewColumns)
	review, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Review{}, ErrNotFound
		}
		return domain.Review{}, err
	}
	return review, nil
}

// Vote records or replaces a voter's vote and returns the review's new tally.
func (r *ReviewsRepository) Vote(ctx context.Context, params VoteParams) (domain.VoteTally, bool, error) {
	const upsert = `
        INSERT INTO review_votes (review_id, voter_id, helpful)
        SELECT id, $2, $3 FROM reviews WHERE id::text = $1
        ON CONFLICT (review_id, voter_id)
        DO UPDATE SET helpful = EXCLUDED.helpful, updated_at = now()
        RETURNING (xmax = 0) AS inserted
    `
	var inserted bool
	if err := r.pool.QueryRow(ctx, upsert, params.ReviewID, params.VoterID, params.Helpful).Scan(&inserted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VoteTally{}, false, ErrNotFound
		}
		return domain.VoteTally{}, false, fmt.Errorf("upsert vote: %w", err)
	}

	tally, err := r.Tally(ctx, params.ReviewID)
	if err != nil {
		return domain.VoteTally{}, false, err
	}
	return tally, inserted, nil
}

// Tally counts the helpful and unhelpful votes of a review.
func (r *ReviewsRepository) Tally(ctx context.Context, reviewID string) (domain.VoteTally, error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE helpful), COUNT(*) FILTER (WHERE NOT helpful)
        FROM review_votes
        WHERE review_id::text = $1
    `
	var tally domain.VoteTally
	if err := r.pool.QueryRow(ctx, query, reviewID).Scan(&tally.Up, &tally.Down); err != nil {
		return domain.VoteTally{}, fmt.Errorf("tally votes: %w", err)
	}
	return tally, nil
}

// ListWithTallies returns every review of a movie with its vote tally, oldest first.
func (r *ReviewsRepository) ListWithTallies(ctx context.Context, movieID string) ([]domain.ReviewWithVotes, error) {
	const query = `
        SELECT rv.id::text, rv.movie_id::text, rv.author_id, rv.body, rv.created_at, rv.updated_at,
               COUNT(v.review_id) FILTER (WHERE v.helpful),
               COUNT(v.review_id) FILTER (WHERE NOT v.helpful)
        FROM reviews rv
        LEFT JOIN review_votes v ON v.review_id = rv.id
        WHERE rv.movie_id = $1::uuid
        GROUP BY rv.id
        ORDER BY rv.created_at, rv.id
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ReviewWithVotes, 0)
	for rows.Next() {
		var item domain.ReviewWithVotes
		if err := rows.Scan(
			&item.ID, &item.MovieID, &item.AuthorID, &item.Body, &item.CreatedAt, &item.UpdatedAt,
			&item.Votes.Up, &item.Votes.Down,
		); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(&review.ID, &review.MovieID, &review.AuthorID, &review.Body, &review.CreatedAt, &review.UpdatedAt)
	return review, err
}
