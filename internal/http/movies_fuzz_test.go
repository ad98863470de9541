package httpserver

import (
	"net/url"
	"testing"
)

func FuzzBuildMovieFilters(f *testing.F) {
	seeds := []string{
		"q=Inception&genre=Action&year=2010",
		"year=abc",
		"limit=200",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		_, _ = buildMovieFilters(values)
	})
}

func FuzzParseRankingQuery(f *testing.F) {
	for _, seed := range []string{"strategy=bar&limit=10", "genre=drama", "limit=-3", "strategy=%00"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		q, err := parseRankingQuery(values)
		if err != nil {
			return
		}
		if q.Limit < 1 || q.Limit > maxRankingLimit {
			t.Fatalf("limit %d escaped [1,%d]", q.Limit, maxRankingLimit)
		}
	})
}
