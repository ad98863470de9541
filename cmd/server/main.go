package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Clark-Hu/rating-rank/internal/config"
	httpserver "github.com/Clark-Hu/rating-rank/internal/http"
	"github.com/Clark-Hu/rating-rank/internal/metrics"
	"github.com/Clark-Hu/rating-rank/internal/ranking"
	"github.com/Clark-Hu/rating-rank/internal/repository"
	"github.com/Clark-Hu/rating-rank/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := log.New(os.Stdout, "[ratings-api] ", log.LstdFlags|log.Lshortfile)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer st.Close()

	if err := st.Migrate(dbCtx); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// A bad calibration file is logged and the defaults are used.
	weights, err := ranking.LoadCalibration(cfg.RankingConfigPath, logger)
	if err != nil {
		logger.Printf("ranking calibration: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		log.Fatalf("register metrics: %v", err)
	}
	if err := metrics.RegisterPoolStats(reg, st.Stats); err != nil {
		log.Fatalf("register pool metrics: %v", err)
	}

	repo := repository.New(st)
	svc := ranking.NewService(repo.Stats, repo.Ratings, repo.Reviews, ranking.Options{
		Weights:       weights,
		Metrics:       m,
		Logger:        logger,
		MaxCandidates: cfg.RankingMaxCandidates,
	})
	server := httpserver.New(cfg, st, repo, svc, reg, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			log.Printf("server error: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("graceful shutdown error: %v", err)
	}
}
