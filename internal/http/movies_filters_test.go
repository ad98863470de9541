package httpserver

import (
	"net/url"
	"testing"

	"github.com/Clark-Hu/rating-rank/internal/config"
	"github.com/Clark-Hu/rating-rank/internal/ranking"
)

func TestBuildMovieFilters(t *testing.T) {
	values, _ := url.ParseQuery("q= Nolan &year=2010&genre=Action&mpaRating=PG-13&limit=150")

	filters, err := buildMovieFilters(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Query == nil || *filters.Query != "Nolan" {
		t.Fatalf("query not trimmed: %+v", filters.Query)
	}
	if filters.Year == nil || *filters.Year != 2010 {
		t.Fatalf("year parse failed: %+v", filters.Year)
	}
	if filters.Genre == nil || *filters.Genre != "Action" {
		t.Fatalf("genre parse failed: %+v", filters.Genre)
	}
	if filters.MpaRating == nil || *filters.MpaRating != "PG-13" {
		t.Fatalf("mpa rating parse failed")
	}
	if filters.Limit != 150 {
		t.Fatalf("limit not parsed: %d", filters.Limit)
	}
}

func TestBuildMovieFilters_Invalid(t *testing.T) {
	for _, raw := range []string{"year=abc", "limit=ten", "cursor=not-base64!"} {
		values, _ := url.ParseQuery(raw)
		if _, err := buildMovieFilters(values); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseRankingQuery(t *testing.T) {
	tests := []struct {
		raw      string
		strategy ranking.MovieStrategy
		genre    string
		limit    int
		wantErr  bool
	}{
		{raw: "", strategy: ranking.MovieHybrid, limit: defaultRankingLimit},
		{raw: "strategy=IMDB&genre=%20Drama%20&limit=5", strategy: ranking.MovieIMDB, genre: "Drama", limit: 5},
		{raw: "strategy=bar&limit=1000", strategy: ranking.MovieBayesian, limit: maxRankingLimit},
		{raw: "strategy=popularity", wantErr: true},
		{raw: "limit=0", wantErr: true},
		{raw: "limit=x", wantErr: true},
	}
	for _, tt := range tests {
		values, _ := url.ParseQuery(tt.raw)
		q, err := parseRankingQuery(values)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("parseRankingQuery(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseRankingQuery(%q) unexpected error: %v", tt.raw, err)
		}
		if q.Strategy != tt.strategy || q.Genre != tt.genre || q.Limit != tt.limit {
			t.Fatalf("parseRankingQuery(%q) = %+v", tt.raw, q)
		}
	}
}

func TestVerifyBearer(t *testing.T) {
	srv := &Server{cfg: config.Config{AuthToken: "secret"}}
	cases := []struct {
		header  string
		allowed bool
	}{
		{"Bearer secret", true},
		{"Bearer secret ", true},
		{"Bearer other", false},
		{"secret", false},
		{"", false},
	}
	for _, c := range cases {
		if srv.verifyBearer(c.header) != c.allowed {
			t.Fatalf("verifyBearer(%q) expected %v", c.header, c.allowed)
		}
	}

	empty := &Server{}
	if empty.verifyBearer("Bearer ") {
		t.Fatalf("empty token must never authenticate")
	}
}
