package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/rating-rank/internal/ranking"
)

const (
	defaultRankingLimit = 20
	maxRankingLimit     = 100
)

type rankingQuery struct {
	Strategy ranking.MovieStrategy
	Genre    string
	Limit    int
}

type rankedMovieResponse struct {
	Rank        int     `json:"rank"`
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	Score       float64 `json:"score"`
	Average     float64 `json:"average"`
	Count       int64   `json:"count"`
	ReviewCount int64   `json:"reviewCount"`
}

type movieRankingResponse struct {
	Strategy string                `json:"strategy"`
	Genre    string                `json:"genre,omitempty"`
	Items    []rankedMovieResponse `json:"items"`
}

func parseRankingQuery(query url.Values) (rankingQuery, error) {
	q := rankingQuery{Limit: defaultRankingLimit, Genre: strings.TrimSpace(query.Get("genre"))}

	strategy, err := ranking.ParseMovieStrategy(query.Get("strategy"))
	if err != nil {
		return q, fmt.Errorf("strategy must be one of average, count, weighted, imdb, bar, hybrid")
	}
	q.Strategy = strategy

	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil || limit <= 0 {
			return q, fmt.Errorf("invalid limit value")
		}
		if limit > maxRankingLimit {
			limit = maxRankingLimit
		}
		q.Limit = limit
	}
	return q, nil
}

func (s *Server) handleRankMovies(w http.ResponseWriter, r *http.Request) {
	q, err := parseRankingQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	ranked, err := s.ranking.RankMovies(r.Context(), string(q.Strategy), q.Genre, q.Limit)
	if err != nil {
		if errors.Is(err, ranking.ErrUnknownStrategy) {
			s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
			return
		}
		s.logger.Printf("rank movies (%s) failed: %v", q.Strategy, err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rank movies")
		return
	}

	items := make([]rankedMovieResponse, 0, len(ranked))
	for _, rm := range ranked {
		items = append(items, rankedMovieResponse{
			Rank:        rm.Rank,
			Title:       rm.Stats.Title,
			Genre:       rm.Stats.Genre,
			Score:       roundTo(rm.Score, 4),
			Average:     roundTo(rm.Stats.Average, 2),
			Count:       rm.Stats.Count,
			ReviewCount: rm.Stats.ReviewCount,
		})
	}
	s.respondJSON(w, http.StatusOK, movieRankingResponse{Strategy: string(q.Strategy), Genre: q.Genre, Items: items})
}
