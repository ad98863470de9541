package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Clark-Hu/rating-rank/internal/domain"
	"github.com/Clark-Hu/rating-rank/internal/repository"
)

type movieCreateRequest struct {
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	ReleaseDate string  `json:"releaseDate"`
	Distributor *string `json:"distributor"`
	Budget      *int64  `json:"budget"`
	MpaRating   *string `json:"mpaRating"`
}

type movieListResponse struct {
	Items      []movieResponse `json:"items"`
	NextCursor *string         `json:"nextCursor,omitempty"`
}

type movieResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"releaseDate"`
	Genre       string  `json:"genre"`
	Distributor *string `json:"distributor,omitempty"`
	Budget      *int64  `json:"budget,omitempty"`
	MpaRating   *string `json:"mpaRating,omitempty"`
}

type ratingRequest struct {
	Rating   float32  `json:"rating"`
	Progress *float64 `json:"progress"`
}

type ratingResponse struct {
	MovieTitle string   `json:"movieTitle"`
	RaterID    string   `json:"raterId"`
	Rating     float32  `json:"rating"`
	Progress   *float64 `json:"progress,omitempty"`
}

type ratingAggregateResponse struct {
	Average float32 `json:"average"`
	Count   int64   `json:"count"`
	Levels  []int64 `json:"levels"` // counts per half-star level, 0.5 first
}

type scoreResponse struct {
	MovieTitle       string    `json:"movieTitle"`
	Average          float64   `json:"average"`
	Count            int64     `json:"count"`
	Levels           []int64   `json:"levels"`
	ReviewCount      int64     `json:"reviewCount"`
	Bayesian         float64   `json:"bayesian"`
	IMDB             float64   `json:"imdb"`
	AgeWeighted      float64   `json:"ageWeighted"`
	ProgressWeighted float64   `json:"progressWeighted"`
	CourseWeighted   float64   `json:"courseWeighted"`
	GlobalMean       float64   `json:"globalMean"`
	ComputedAt       time.Time `json:"computedAt"`
}

func (s *Server) handleListMovies(w http.ResponseWriter, r *http.Request) {
	filters, err := buildMovieFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.repo.Movies.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("list movies error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list movies")
		return
	}

	items := make([]movieResponse, 0, len(result.Items))
	for _, movie := range result.Items {
		items = append(items, toMovieResponse(movie))
	}
	s.respondJSON(w, http.StatusOK, movieListResponse{Items: items, NextCursor: result.NextCursor})
}

func buildMovieFilters(query url.Values) (repository.MovieListFilters, error) {
	var filters repository.MovieListFilters

	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	if val := strings.TrimSpace(query.Get("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid year value")
		}
		filters.Year = &year
	}
	if val := strings.TrimSpace(query.Get("genre")); val != "" {
		filters.Genre = &val
	}
	if val := strings.TrimSpace(query.Get("mpaRating")); val != "" {
		filters.MpaRating = &val
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		cursor, err := repository.DecodeCursor(val)
		if err != nil {
			return filters, fmt.Errorf("invalid cursor")
		}
		filters.Cursor = cursor
	}
	return filters, nil
}

func (s *Server) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondUnauthorized(w)
		return
	}

	var req movieCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	releaseDate, err := time.Parse("2006-01-02", req.ReleaseDate)
	if err != nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "releaseDate must follow YYYY-MM-DD format")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Genre) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title and genre are required")
		return
	}
	if req.Budget != nil && *req.Budget < 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "budget must be non-negative")
		return
	}

	movie, err := s.repo.Movies.Create(r.Context(), repository.MovieCreateParams{
		Title:       strings.TrimSpace(req.Title),
		ReleaseDate: releaseDate,
		Genre:       strings.TrimSpace(req.Genre),
		Distributor: normalizeStringPtr(req.Distributor),
		Budget:      req.Budget,
		MpaRating:   normalizeStringPtr(req.MpaRating),
	})
	if err != nil {
		s.logger.Printf("create movie error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create movie")
		return
	}

	w.Header().Set("Location", "/movies/"+url.PathEscape(movie.Title))
	s.respondJSON(w, http.StatusCreated, toMovieResponse(movie))
}

// lookupMovie resolves the {title} path parameter, writing the error response
// itself when it fails.
func (s *Server) lookupMovie(w http.ResponseWriter, r *http.Request) (domain.Movie, bool) {
	title, err := decodeTitleParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return domain.Movie{}, false
	}

	movie, err := s.repo.Movies.GetByTitle(r.Context(), title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return domain.Movie{}, false
		}
		s.logger.Printf("fetch movie %q failed: %v", title, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movie")
		return domain.Movie{}, false
	}
	return movie, true
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	rater := raterID(r)
	if rater == "" {
		s.respondUnauthorized(w)
		return
	}

	movie, ok := s.lookupMovie(w, r)
	if !ok {
		return
	}

	var req ratingRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if !domain.ValidRating(req.Rating) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "rating must be one of {0.5, 1.0, ..., 5.0}")
		return
	}
	if req.Progress != nil && (*req.Progress < 0 || *req.Progress > 100) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "progress must be between 0 and 100")
		return
	}

	rating, inserted, err := s.repo.Ratings.Upsert(r.Context(), repository.RatingUpsertParams{
		MovieID:  movie.ID,
		RaterID:  rater,
		Value:    req.Rating,
		Progress: req.Progress,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.logger.Printf("upsert rating error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process rating")
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, ratingResponse{
		MovieTitle: movie.Title,
		RaterID:    rating.RaterID,
		Rating:     rating.Value,
		Progress:   rating.Progress,
	})
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.lookupMovie(w, r)
	if !ok {
		return
	}

	agg, err := s.repo.Ratings.Aggregate(r.Context(), movie.ID)
	if err != nil {
		s.logger.Printf("aggregate rating error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch rating")
		return
	}

	levels, err := s.repo.Ratings.Histogram(r.Context(), movie.ID)
	if err != nil {
		s.logger.Printf("rating histogram error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch rating")
		return
	}

	s.respondJSON(w, http.StatusOK, ratingAggregateResponse{
		Average: roundToOneDecimal(agg.Average),
		Count:   agg.Count,
		Levels:  levels,
	})
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	movie, ok := s.lookupMovie(w, r)
	if !ok {
		return
	}

	card, err := s.ranking.ScoreCard(r.Context(), movie.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.logger.Printf("score card for %s failed: %v", movie.ID, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute score")
		return
	}

	s.respondJSON(w, http.StatusOK, scoreResponse{
		MovieTitle:       movie.Title,
		Average:          roundTo(card.Stats.Average, 2),
		Count:            card.Stats.Count,
		Levels:           card.Stats.Levels,
		ReviewCount:      card.Stats.ReviewCount,
		Bayesian:         roundTo(card.BayesianStars, 4),
		IMDB:             roundTo(card.IMDBRating, 4),
		AgeWeighted:      roundTo(card.AgeWeighted, 4),
		ProgressWeighted: roundTo(card.ProgressWeighted, 4),
		CourseWeighted:   roundTo(card.CourseWeighted, 4),
		GlobalMean:       roundTo(card.GlobalMean, 4),
		ComputedAt:       card.ComputedAt.UTC(),
	})
}

func toMovieResponse(movie domain.Movie) movieResponse {
	return movieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		ReleaseDate: movie.ReleaseDate.Format("2006-01-02"),
		Genre:       movie.Genre,
		Distributor: movie.Distributor,
		Budget:      movie.Budget,
		MpaRating:   movie.MpaRating,
	}
}
