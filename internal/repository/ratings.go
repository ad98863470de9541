package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/rating-rank/internal/domain"
)

// RatingsRepository provides helpers for movie ratings.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

// RatingUpsertParams captures the payload required to upsert a rating.
type RatingUpsertParams struct {
	MovieID  string
	RaterID  string
	Value    float32
	Progress *float64
}

// levelCountsSQL expands to a bigint[] of per-level rating counts for the movie
// id expression substituted at %s, lowest level first.
const levelCountsSQL = `ARRAY(
        SELECT COUNT(lr.rater_id)
        FROM generate_series(1, 10) AS lvl
        LEFT JOIN ratings lr ON lr.movie_id = %s AND ROUND(lr.rating::numeric * 2)::int = lvl
        GROUP BY lvl
        ORDER BY lvl
    )`

// Upsert inserts or updates a rating and indicates whether it was newly created.
func (r *RatingsRepository) Upsert(ctx context.Context, params RatingUpsertParams) (domain.Rating, bool, error) {
	const query = `
        INSERT INTO ratings (movie_id, rater_id, rating, progress)
        VALUES ($1::uuid,$2,$3,$4)
        ON CONFLICT (movie_id, rater_id)
        DO UPDATE SET rating = EXCLUDED.rating,
                      progress = COALESCE(EXCLUDED.progress, ratings.progress),
                      updated_at = now()
        RETURNING movie_id::text, rater_id, rating, progress, created_at, updated_at, (xmax = 0) AS inserted
    `

	var rating domain.Rating
	var inserted bool
	err := r.pool.QueryRow(ctx, query, params.MovieID, params.RaterID, params.Value, params.Progress).Scan(
		&rating.MovieID,
		&rating.RaterID,
		&rating.Value,
		&rating.Progress,
		&rating.CreatedAt,
		&rating.UpdatedAt,
		&inserted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, false, ErrNotFound
		}
		return domain.Rating{}, false, err
	}

	return rating, inserted, nil
}

// Aggregate returns the rating average and count for a movie.
func (r *RatingsRepository) Aggregate(ctx context.Context, movieID string) (domain.RatingAggregate, error) {
	const query = `
        SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float4 AS average,
               COUNT(*)::int8 AS count
        FROM ratings
        WHERE movie_id = $1::uuid
    `

	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx, query, movieID).Scan(&agg.Average, &agg.Count)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("aggregate ratings: %w", err)
	}
	return agg, nil
}

// Histogram returns the per-level rating counts for a movie (0.5 stars first).
func (r *RatingsRepository) Histogram(ctx context.Context, movieID string) ([]int64, error) {
	query := `SELECT ` + fmt.Sprintf(levelCountsSQL, "$1::uuid")

	var levels []int64
	if err := r.pool.QueryRow(ctx, query, movieID).Scan(&levels); err != nil {
		return nil, fmt.Errorf("rating histogram: %w", err)
	}
	return levels, nil
}

// Records returns every rating of a movie, most recently updated first.
func (r *RatingsRepository) Records(ctx context.Context, movieID string) ([]domain.Rating, error) {
	const query = `
        SELECT movie_id::text, rater_id, rating, progress, created_at, updated_at
        FROM ratings
        WHERE movie_id = $1::uuid
        ORDER BY updated_at DESC
    `
	rows, err := r.pool.Query(ctx, query, movieID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Rating, 0)
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(&rating.MovieID, &rating.RaterID, &rating.Value, &rating.Progress, &rating.CreatedAt, &rating.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rating)
	}
	return out, rows.Err()
}

// Get retrieves a rating for a specific rater/movie combination.
func (r *RatingsRepository) Get(ctx context.Context, movieID, raterID string) (domain.Rating, error) {
	const query = `
        SELECT movie_id::text, rater_id, rating, progress, created_at, updated_at
        FROM ratings
        WHERE movie_id = $1::uuid AND rater_id = $2
    `
	var rating domain.Rating
	err := r.pool.QueryRow(ctx, query, movieID, raterID).Scan(
		&rating.MovieID,
		&rating.RaterID,
		&rating.Value,
		&rating.Progress,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}
