package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Clark-Hu/rating-rank/internal/config"
	"github.com/Clark-Hu/rating-rank/internal/metrics"
	"github.com/Clark-Hu/rating-rank/internal/ranking"
	"github.com/Clark-Hu/rating-rank/internal/repository"
	"github.com/Clark-Hu/rating-rank/internal/store"
	"github.com/Clark-Hu/rating-rank/internal/store/pgtest"
)

func buildTestServer(tb testing.TB) *Server {
	tb.Helper()
	cfg := config.Config{
		Port:                 "0",
		AuthToken:            "secret",
		ReadTimeoutSecs:      15,
		WriteTimeoutSecs:     15,
		IdleTimeoutSecs:      60,
		RankingMaxCandidates: 100,
	}

	pool := pgtest.NewPool(tb, "ratings_test_handlers", 42000)
	logger := log.New(io.Discard, "", 0)
	repo := repository.NewWithPool(pool)

	reg := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		tb.Fatalf("register metrics: %v", err)
	}
	svc := ranking.NewService(repo.Stats, repo.Ratings, repo.Reviews, ranking.Options{
		Metrics:       m,
		Logger:        logger,
		MaxCandidates: cfg.RankingMaxCandidates,
	})

	srv := New(cfg, store.NewWithPool(pool, logger), repo, svc, reg, logger)
	// Replace chi router to avoid default middleware noise.
	srv.router = chi.NewRouter()
	srv.registerRoutes()
	return srv
}

func mustCreateMovie(tb testing.TB, srv *Server, title, genre string) {
	tb.Helper()
	_, err := srv.repo.Movies.Create(context.Background(), repository.MovieCreateParams{
		Title:       title,
		Genre:       genre,
		ReleaseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		tb.Fatalf("create movie %q: %v", title, err)
	}
}

// do sends a request through the router and decodes a JSON response into out.
func do(tb testing.TB, srv *Server, method, target, body string, headers map[string]string, out interface{}) int {
	tb.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			tb.Fatalf("%s %s: decode %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func rater(id string) map[string]string {
	return map[string]string{"X-Rater-Id": id}
}

func TestHandleCreateMovie_AuthValidation(t *testing.T) {
	srv := buildTestServer(t)

	body := `{"title":"Test","genre":"Action","releaseDate":"2024-01-01"}`
	req := httptest.NewRequest(http.MethodPost, "/movies", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	srv.handleCreateMovie(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHandleCreateMovie_InvalidPayload(t *testing.T) {
	srv := buildTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/movies", bytes.NewBufferString("invalid json"))
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	srv.handleCreateMovie(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (invalid json)", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/movies", bytes.NewBufferString(`{"title":"","genre":"","releaseDate":""}`))
	req2.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	srv.handleCreateMovie(rec2, req2)
	if rec2.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422 (missing fields)", rec2.Code)
	}
}

func TestHandleSubmitRating_Validation(t *testing.T) {
	srv := buildTestServer(t)
	mustCreateMovie(t, srv, "Test", "Action")

	tests := []struct {
		name    string
		body    string
		headers map[string]string
		want    int
	}{
		{"missing rater", `{"rating":4.0}`, nil, http.StatusUnauthorized},
		{"rating out of set", `{"rating":6.0}`, rater("user1"), http.StatusUnprocessableEntity},
		{"rating off grid", `{"rating":3.7}`, rater("user1"), http.StatusUnprocessableEntity},
		{"progress above 100", `{"rating":4.0,"progress":101}`, rater("user1"), http.StatusUnprocessableEntity},
		{"unknown field", `{"rating":4.0,"stars":4}`, rater("user1"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp errorResponse
			if code := do(t, srv, http.MethodPost, "/movies/Test/ratings", tt.body, tt.headers, &resp); code != tt.want {
				t.Fatalf("status = %d, want %d (%+v)", code, tt.want, resp)
			}
		})
	}
}

func TestHandleListMovies_InvalidYear(t *testing.T) {
	srv := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/movies?year=abc", nil)
	rec := httptest.NewRecorder()

	srv.handleListMovies(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGetRating_NotFound(t *testing.T) {
	srv := buildTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/movies/Nope/rating", nil)
	req = attachTitleParam(req, "Nope")
	rec := httptest.NewRecorder()

	srv.handleGetRating(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRatingsAndScoreFlow(t *testing.T) {
	srv := buildTestServer(t)

	var created movieResponse
	code := do(t, srv, http.MethodPost, "/movies", `{"title":"Arrival","genre":"Sci-Fi","releaseDate":"2016-11-11"}`,
		map[string]string{"Authorization": "Bearer secret"}, &created)
	if code != http.StatusCreated || created.Title != "Arrival" {
		t.Fatalf("create movie status=%d resp=%+v", code, created)
	}

	var rated ratingResponse
	if code := do(t, srv, http.MethodPost, "/movies/Arrival/ratings", `{"rating":4.5,"progress":90}`, rater("u1"), &rated); code != http.StatusCreated {
		t.Fatalf("first rating status = %d, want 201", code)
	}
	if rated.Progress == nil || *rated.Progress != 90 {
		t.Fatalf("progress not echoed: %+v", rated)
	}
	if code := do(t, srv, http.MethodPost, "/movies/Arrival/ratings", `{"rating":5.0}`, rater("u1"), nil); code != http.StatusOK {
		t.Fatalf("re-rating status = %d, want 200", code)
	}
	if code := do(t, srv, http.MethodPost, "/movies/Arrival/ratings", `{"rating":4.0,"progress":30}`, rater("u2"), nil); code != http.StatusCreated {
		t.Fatalf("second rater status = %d, want 201", code)
	}

	var agg ratingAggregateResponse
	if code := do(t, srv, http.MethodGet, "/movies/Arrival/rating", "", nil, &agg); code != http.StatusOK {
		t.Fatalf("aggregate status = %d", code)
	}
	if agg.Count != 2 || agg.Average != 4.5 {
		t.Fatalf("aggregate = %+v, want 4.5 over 2", agg)
	}
	if len(agg.Levels) != 10 || agg.Levels[9] != 1 || agg.Levels[7] != 1 {
		t.Fatalf("aggregate levels = %v, want one 5.0 and one 4.0", agg.Levels)
	}

	var score scoreResponse
	if code := do(t, srv, http.MethodGet, "/movies/Arrival/score", "", nil, &score); code != http.StatusOK {
		t.Fatalf("score status = %d", code)
	}
	if score.Count != 2 || len(score.Levels) != 10 || score.Levels[9] != 1 || score.Levels[7] != 1 {
		t.Fatalf("score stats = %+v", score)
	}
	if score.Bayesian <= 0 || score.Bayesian >= score.Average {
		t.Fatalf("bayesian %v should be positive and below the mean %v", score.Bayesian, score.Average)
	}
	// Both ratings are under 30 days old: 4.5 * 28%.
	if score.AgeWeighted != 1.26 {
		t.Fatalf("ageWeighted = %v, want 1.26", score.AgeWeighted)
	}
	if score.IMDB != 4.5 {
		t.Fatalf("imdb = %v, want 4.5 when the movie is the whole catalogue", score.IMDB)
	}

	if code := do(t, srv, http.MethodGet, "/movies/Missing/score", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing score status = %d, want 404", code)
	}
}

func TestReviewsFlow(t *testing.T) {
	srv := buildTestServer(t)
	mustCreateMovie(t, srv, "Heat", "Crime")

	var first, second reviewResponse
	if code := do(t, srv, http.MethodPost, "/movies/Heat/reviews", `{"body":"tight and tense"}`, rater("alice"), &first); code != http.StatusCreated {
		t.Fatalf("create review status = %d", code)
	}
	if code := do(t, srv, http.MethodPost, "/movies/Heat/reviews", `{"body":"overlong"}`, rater("bob"), &second); code != http.StatusCreated {
		t.Fatalf("create second review status = %d", code)
	}
	if code := do(t, srv, http.MethodPost, "/movies/Heat/reviews", `{"body":"again"}`, rater("alice"), nil); code != http.StatusConflict {
		t.Fatalf("duplicate review status = %d, want 409", code)
	}
	if code := do(t, srv, http.MethodPost, "/movies/Heat/reviews", `{"body":"   "}`, rater("carol"), nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("blank review status = %d, want 422", code)
	}

	// second gets 3 helpful votes, first gets 1 helpful and 1 unhelpful.
	for _, v := range []string{"v1", "v2", "v3"} {
		if code := do(t, srv, http.MethodPost, "/reviews/"+second.ID+"/votes", `{"helpful":true}`, rater(v), nil); code != http.StatusCreated {
			t.Fatalf("vote status = %d", code)
		}
	}
	do(t, srv, http.MethodPost, "/reviews/"+first.ID+"/votes", `{"helpful":true}`, rater("v1"), nil)
	var vote voteResponse
	if code := do(t, srv, http.MethodPost, "/reviews/"+first.ID+"/votes", `{"helpful":false}`, rater("v2"), &vote); code != http.StatusCreated {
		t.Fatalf("downvote status = %d", code)
	}
	if vote.Up != 1 || vote.Down != 1 {
		t.Fatalf("tally = %+v, want 1/1", vote)
	}
	if vote.ReviewID != first.ID || vote.AuthorID != first.AuthorID {
		t.Fatalf("vote = %+v, want review %s by %s", vote, first.ID, first.AuthorID)
	}

	if code := do(t, srv, http.MethodPost, "/reviews/"+first.ID+"/votes", `{}`, rater("v4"), nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("vote without helpful status = %d, want 422", code)
	}
	if code := do(t, srv, http.MethodPost, "/reviews/unknown/votes", `{"helpful":true}`, rater("v4"), nil); code != http.StatusNotFound {
		t.Fatalf("vote on unknown review status = %d, want 404", code)
	}
	// The review is resolved before the body is read.
	if code := do(t, srv, http.MethodPost, "/reviews/unknown/votes", `{"helpful":`, rater("v4"), nil); code != http.StatusNotFound {
		t.Fatalf("malformed vote on unknown review status = %d, want 404", code)
	}

	var list reviewListResponse
	if code := do(t, srv, http.MethodGet, "/movies/Heat/reviews", "", nil, &list); code != http.StatusOK {
		t.Fatalf("list reviews status = %d", code)
	}
	if list.Sort != "wilson" || len(list.Items) != 2 {
		t.Fatalf("list = %+v", list)
	}
	if list.Items[0].ID != second.ID || list.Items[0].Helpful != 3 || list.Items[0].Rank != 1 {
		t.Fatalf("top review = %+v, want %s", list.Items[0], second.ID)
	}

	var diff reviewListResponse
	do(t, srv, http.MethodGet, "/movies/Heat/reviews?sort=diff", "", nil, &diff)
	if diff.Items[0].Score != 3 || diff.Items[1].Score != 0 {
		t.Fatalf("diff scores = %v, %v", diff.Items[0].Score, diff.Items[1].Score)
	}

	if code := do(t, srv, http.MethodGet, "/movies/Heat/reviews?sort=karma", "", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown sort status = %d, want 400", code)
	}
}

func TestRankingsFlow(t *testing.T) {
	srv := buildTestServer(t)
	mustCreateMovie(t, srv, "Crowd Pleaser", "Drama")
	mustCreateMovie(t, srv, "One Hit", "Drama")
	mustCreateMovie(t, srv, "Laughs", "Comedy")

	for i, v := range []string{"a", "b", "c", "d", "e", "f"} {
		value := "4.0"
		if i%2 == 0 {
			value = "4.5"
		}
		do(t, srv, http.MethodPost, "/movies/Crowd%20Pleaser/ratings", `{"rating":`+value+`}`, rater(v), nil)
	}
	do(t, srv, http.MethodPost, "/movies/One%20Hit/ratings", `{"rating":5.0}`, rater("a"), nil)
	do(t, srv, http.MethodPost, "/movies/Laughs/ratings", `{"rating":2.0}`, rater("a"), nil)

	var avg movieRankingResponse
	if code := do(t, srv, http.MethodGet, "/rankings/movies?strategy=average", "", nil, &avg); code != http.StatusOK {
		t.Fatalf("average ranking status = %d", code)
	}
	if len(avg.Items) != 3 || avg.Items[0].Title != "One Hit" {
		t.Fatalf("average ranking = %+v", avg.Items)
	}

	var bar movieRankingResponse
	do(t, srv, http.MethodGet, "/rankings/movies?strategy=bar", "", nil, &bar)
	if bar.Items[0].Title != "Crowd Pleaser" {
		t.Fatalf("bar ranking should favour the well-supported movie, got %+v", bar.Items)
	}

	var drama movieRankingResponse
	do(t, srv, http.MethodGet, "/rankings/movies?genre=drama&limit=1", "", nil, &drama)
	if drama.Strategy != "hybrid" || len(drama.Items) != 1 || drama.Items[0].Genre != "Drama" {
		t.Fatalf("genre ranking = %+v", drama)
	}

	if code := do(t, srv, http.MethodGet, "/rankings/movies?strategy=nope", "", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown strategy status = %d, want 400", code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `ranking_requests_total{kind="movies",strategy="bar"} 1`) {
		t.Fatalf("metrics output missing ranking counter: %s", rec.Body.String())
	}
}

type stubHealth struct{ err error }

func (s stubHealth) HealthCheck(context.Context) error { return s.err }

func TestHandleHealthz(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	tests := []struct {
		name   string
		health HealthChecker
		want   int
	}{
		{"healthy", stubHealth{}, http.StatusOK},
		{"unreachable", stubHealth{err: errors.New("down")}, http.StatusServiceUnavailable},
		{"unconfigured", nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(config.Config{}, tt.health, nil, nil, nil, logger)
			rec := httptest.NewRecorder()
			srv.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func attachTitleParam(req *http.Request, title string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("title", title)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}
