package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/rating-rank/internal/domain"
)

// StatsRepository reads the per-movie aggregates that ranking scores.
type StatsRepository struct {
	pool *pgxpool.Pool
}

var statsQuery = `
    SELECT m.id::text, m.title, m.genre,
           COALESCE(st.avg, 0)::float8,
           COALESCE(st.cnt, 0)::int8,
           ` + fmt.Sprintf(levelCountsSQL, "m.id") + `,
           (SELECT COUNT(*) FROM reviews rv WHERE rv.movie_id = m.id)
    FROM movies m
    LEFT JOIN (
        SELECT movie_id, AVG(rating) AS avg, COUNT(*) AS cnt
        FROM ratings
        GROUP BY movie_id
    ) st ON st.movie_id = m.id
`

// Candidates returns the newest movies (optionally of one genre) with their
// rating aggregates. limit is clamped to [1, 5000].
func (r *StatsRepository) Candidates(ctx context.Context, genre string, limit int) ([]domain.MovieStats, error) {
	var p predicates
	p.addText("m.genre ILIKE %s", &genre)
	query := fmt.Sprintf("%s%s ORDER BY m.created_at DESC, m.id DESC LIMIT %d",
		statsQuery, p.where(), clampLimit(limit, 500, 5000))

	rows, err := r.pool.Query(ctx, query, p.args...)
	out, err := collect(rows, err, scanStats)
	if err != nil {
		return nil, fmt.Errorf("ranking candidates: %w", err)
	}
	return out, nil
}

// Movie returns the aggregates of one movie.
func (r *StatsRepository) Movie(ctx context.Context, movieID string) (domain.MovieStats, error) {
	stats, err := scanStats(r.pool.QueryRow(ctx, statsQuery+` WHERE m.id::text = $1`, movieID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MovieStats{}, ErrNotFound
		}
		return domain.MovieStats{}, fmt.Errorf("movie stats: %w", err)
	}
	return stats, nil
}

// GlobalMean returns the mean of the per-movie average ratings and the number
// of movies with at least one rating.
func (r *StatsRepository) GlobalMean(ctx context.Context) (float64, int64, error) {
	const query = `
        SELECT COALESCE(AVG(avg), 0)::float8, COUNT(*)::int8
        FROM (SELECT AVG(rating) AS avg FROM ratings GROUP BY movie_id) per_movie
    `
	var mean float64
	var rated int64
	if err := r.pool.QueryRow(ctx, query).Scan(&mean, &rated); err != nil {
		return 0, 0, fmt.Errorf("global mean: %w", err)
	}
	return mean, rated, nil
}

func scanStats(row pgx.Row) (domain.MovieStats, error) {
	var s domain.MovieStats
	err := row.Scan(&s.MovieID, &s.Title, &s.Genre, &s.Average, &s.Count, &s.Levels, &s.ReviewCount)
	return s, err
}
