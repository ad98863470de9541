package metrics

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.ObserveRequest(KindMovies, "bar", 10*time.Millisecond)
	m.IncDegenerate()
	m.IncErrors(KindScore)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{MetricRankingRequests, MetricRankingDuration, MetricRankingDegenerate, MetricRankingErrors} {
		assert.True(t, names[want], "metric %s not gathered", want)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, New().Register(reg))
	assert.Error(t, New().Register(reg))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(KindMovies, "bar", time.Millisecond)
	m.ObserveRequest(KindMovies, "bar", time.Millisecond)
	m.ObserveRequest(KindReviews, "wilson", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(KindMovies, "bar")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(KindReviews, "wilson")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestCounters(t *testing.T) {
	m := New()
	m.IncDegenerate()
	m.IncDegenerate()
	m.IncErrors(KindScore)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.degenerate))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues(KindScore)))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(KindMovies, "average", time.Second)
		m.IncDegenerate()
		m.IncErrors(KindMovies)
	})
}

func TestRegisterPoolStats_NilStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolStats(reg, func() *pgxpool.Stat { return nil }))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 3)
	for _, f := range families {
		require.Len(t, f.GetMetric(), 1)
		assert.Zero(t, f.GetMetric()[0].GetGauge().GetValue(), f.GetName())
	}

	assert.Error(t, RegisterPoolStats(reg, func() *pgxpool.Stat { return nil }), "duplicate registration")
}
