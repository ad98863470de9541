package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Pool gauge names.
const (
	MetricDBConnsAcquired = "db_pool_acquired_conns"
	MetricDBConnsIdle     = "db_pool_idle_conns"
	MetricDBConnsTotal    = "db_pool_total_conns"
)

// RegisterPoolStats exposes connection pool gauges read from stats at scrape
// time. stats may return nil before the pool exists.
func RegisterPoolStats(reg prometheus.Registerer, stats func() *pgxpool.Stat) error {
	gauge := func(name, help string, read func(*pgxpool.Stat) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			st := stats()
			if st == nil {
				return 0
			}
			return float64(read(st))
		})
	}

	for _, c := range []prometheus.Collector{
		gauge(MetricDBConnsAcquired, "Connections currently checked out of the pool",
			func(s *pgxpool.Stat) int32 { return s.AcquiredConns() }),
		gauge(MetricDBConnsIdle, "Idle connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.IdleConns() }),
		gauge(MetricDBConnsTotal, "Total connections in the pool",
			func(s *pgxpool.Stat) int32 { return s.TotalConns() }),
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
