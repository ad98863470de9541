package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Clark-Hu/rating-rank/internal/ranking"
	"github.com/Clark-Hu/rating-rank/internal/repository"
)

const maxReviewLength = 10_000

type reviewCreateRequest struct {
	Body string `json:"body"`
}

type reviewResponse struct {
	ID         string    `json:"id"`
	MovieTitle string    `json:"movieTitle"`
	AuthorID   string    `json:"authorId"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type rankedReviewResponse struct {
	reviewResponse
	Rank      int     `json:"rank"`
	Score     float64 `json:"score"`
	Helpful   int64   `json:"helpful"`
	Unhelpful int64   `json:"unhelpful"`
}

type reviewListResponse struct {
	Sort  string                 `json:"sort"`
	Items []rankedReviewResponse `json:"items"`
}

type voteRequest struct {
	Helpful *bool `json:"helpful"`
}

type voteResponse struct {
	ReviewID string `json:"reviewId"`
	AuthorID string `json:"authorId"`
	VoterID  string `json:"voterId"`
	Helpful  bool   `json:"helpful"`
	Up       int64  `json:"up"`
	Down     int64  `json:"down"`
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	author := raterID(r)
	if author == "" {
		s.respondUnauthorized(w)
		return
	}

	movie, ok := s.lookupMovie(w, r)
	if !ok {
		return
	}

	var req reviewCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" || utf8.RuneCountInString(body) > maxReviewLength {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "body must contain 1 to 10000 characters")
		return
	}

	review, err := s.repo.Reviews.Create(r.Context(), repository.ReviewCreateParams{
		MovieID:  movie.ID,
		AuthorID: author,
		Body:     body,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.respondError(w, http.StatusConflict, "CONFLICT", "Author already reviewed this movie")
			return
		}
		s.logger.Printf("create review error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create review")
		return
	}

	s.respondJSON(w, http.StatusCreated, reviewResponse{
		ID:         review.ID,
		MovieTitle: movie.Title,
		AuthorID:   review.AuthorID,
		Body:       review.Body,
		CreatedAt:  review.CreatedAt.UTC(),
	})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	strategy, err := ranking.ParseReviewStrategy(r.URL.Query().Get("sort"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", "sort must be one of wilson, diff, average")
		return
	}

	movie, ok := s.lookupMovie(w, r)
	if !ok {
		return
	}

	ranked, err := s.ranking.RankReviews(r.Context(), movie.ID, string(strategy))
	if err != nil {
		s.logger.Printf("rank reviews for %s failed: %v", movie.ID, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reviews")
		return
	}

	items := make([]rankedReviewResponse, 0, len(ranked))
	for _, rr := range ranked {
		items = append(items, rankedReviewResponse{
			reviewResponse: reviewResponse{
				ID:         rr.Review.ID,
				MovieTitle: movie.Title,
				AuthorID:   rr.Review.AuthorID,
				Body:       rr.Review.Body,
				CreatedAt:  rr.Review.CreatedAt.UTC(),
			},
			Rank:      rr.Rank,
			Score:     roundTo(rr.Score, 4),
			Helpful:   rr.Review.Votes.Up,
			Unhelpful: rr.Review.Votes.Down,
		})
	}
	s.respondJSON(w, http.StatusOK, reviewListResponse{Sort: string(strategy), Items: items})
}

func (s *Server) handleVoteReview(w http.ResponseWriter, r *http.Request) {
	voter := raterID(r)
	if voter == "" {
		s.respondUnauthorized(w)
		return
	}

	reviewID, err := decodePathParam(r, "id")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	review, err := s.repo.Reviews.Get(r.Context(), reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.logger.Printf("fetch review %s failed: %v", reviewID, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load review")
		return
	}

	var req voteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Helpful == nil {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "helpful is required")
		return
	}

	tally, inserted, err := s.repo.Reviews.Vote(r.Context(), repository.VoteParams{
		ReviewID: review.ID,
		VoterID:  voter,
		Helpful:  *req.Helpful,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondNotFound(w)
			return
		}
		s.logger.Printf("vote on review %s failed: %v", reviewID, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record vote")
		return
	}

	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, voteResponse{
		ReviewID: review.ID,
		AuthorID: review.AuthorID,
		VoterID:  voter,
		Helpful:  *req.Helpful,
		Up:       tally.Up,
		Down:     tally.Down,
	})
}
