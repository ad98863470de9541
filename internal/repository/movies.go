package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/rating-rank/internal/domain"
)

// MoviesRepository provides persistence helpers for movie entities.
type MoviesRepository struct {
	pool *pgxpool.Pool
}

const movieColumns = `
    id::text,
    title,
    release_date,
    release_year,
    genre,
    distributor,
    budget,
    mpa_rating,
    created_at,
    updated_at
`

// MovieCreateParams bundles the fields required to create a movie.
type MovieCreateParams struct {
	Title       string
	ReleaseDate time.Time
	Genre       string
	Distributor *string
	Budget      *int64
	MpaRating   *string
}

// MovieListFilters encapsulates search and pagination options.
type MovieListFilters struct {
	Query     *string
	Year      *int
	Genre     *string
	MpaRating *string
	Limit     int
	Cursor    *MovieCursor
}

// MovieCursor allows stable pagination by created_at/id.
type MovieCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// MovieListResult returns the paginated payload.
type MovieListResult struct {
	Items      []domain.Movie
	NextCursor *string
}

// Create inserts a new movie row and returns the stored entity.
func (r *MoviesRepository) Create(ctx context.Context, params MovieCreateParams) (domain.Movie, error) {
	query := fmt.Sprintf(`
        INSERT INTO movies (title, release_date, genre, distributor, budget, mpa_rating)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING %s
    `, movieColumns)

	row := r.pool.QueryRow(ctx, query, params.Title, params.ReleaseDate, params.Genre, params.Distributor, params.Budget, params.MpaRating)
	return scanMovie(row)
}

// FindByKeys fetches movies matching title with optional releaseDate/genre to disambiguate.
func (r *MoviesRepository) FindByKeys(ctx context.Context, title string, releaseDate *time.Time, genre *string) ([]domain.Movie, error) {
	var p predicates
	p.add("title = %s", title)
	if releaseDate != nil {
		p.add("release_date = %s", *releaseDate)
	}
	if genre != nil {
		p.add("genre = %s", *genre)
	}

	query := fmt.Sprintf(`SELECT %s FROM movies%s ORDER BY created_at DESC`, movieColumns, p.where())
	rows, err := r.pool.Query(ctx, query, p.args...)
	return collect(rows, err, scanMovie)
}

// GetByID fetches a movie by its identifier. Identifiers that are not UUIDs
// cannot exist and report ErrNotFound.
func (r *MoviesRepository) GetByID(ctx context.Context, id string) (domain.Movie, error) {
	query := fmt.Sprintf(`SELECT %s FROM movies WHERE id::text = $1`, movieColumns)
	movie, err := scanMovie(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Movie{}, ErrNotFound
	}
	return movie, err
}

// GetByTitle fetches the movie matching a title. Ambiguous results return ErrNotFound.
func (r *MoviesRepository) GetByTitle(ctx context.Context, title string) (domain.Movie, error) {
	movies, err := r.FindByKeys(ctx, title, nil, nil)
	if err != nil {
		return domain.Movie{}, err
	}
	if len(movies) != 1 {
		return domain.Movie{}, ErrNotFound
	}
	return movies[0], nil
}

// List returns movies that match the provided filters, newest first. A full
// page carries the cursor of its last movie.
func (r *MoviesRepository) List(ctx context.Context, filters MovieListFilters) (MovieListResult, error) {
	limit := clampLimit(filters.Limit, 20, 100)

	var p predicates
	if q, ok := trimmed(filters.Query); ok {
		p.add("(title ILIKE %[1]s OR distributor ILIKE %[1]s)", "%"+q+"%")
	}
	if filters.Year != nil {
		p.add("release_year = %s", *filters.Year)
	}
	p.addText("genre ILIKE %s", filters.Genre)
	p.addText("mpa_rating ILIKE %s", filters.MpaRating)
	if c := filters.Cursor; c != nil {
		p.add("(created_at, id::text) < (%s, %s)", c.CreatedAt, c.ID)
	}

	query := fmt.Sprintf(`SELECT %s FROM movies%s ORDER BY created_at DESC, id::text DESC LIMIT %d`,
		movieColumns, p.where(), limit)
	rows, err := r.pool.Query(ctx, query, p.args...)
	items, err := collect(rows, err, scanMovie)
	if err != nil {
		return MovieListResult{}, err
	}

	result := MovieListResult{Items: items}
	if len(items) == limit {
		last := items[len(items)-1]
		token, err := encodeCursor(MovieCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return MovieListResult{}, err
		}
		result.NextCursor = &token
	}
	return result, nil
}

func scanMovie(row pgx.Row) (domain.Movie, error) {
	var movie domain.Movie
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.ReleaseDate,
		&movie.ReleaseYear,
		&movie.Genre,
		&movie.Distributor,
		&movie.Budget,
		&movie.MpaRating,
		&movie.CreatedAt,
		&movie.UpdatedAt,
	)
	return movie, err
}

func encodeCursor(c MovieCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a MovieCursor.
func DecodeCursor(token string) (*MovieCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor MovieCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}
