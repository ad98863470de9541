// Package config reads the server configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// MaxRankingCandidates bounds RANKING_MAX_CANDIDATES.
const MaxRankingCandidates = 5000

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port      string
	AuthToken string
	DBURL     string

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int

	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	// RankingConfigPath optionally points at a YAML calibration file.
	RankingConfigPath string
	// RankingMaxCandidates caps how many movies one ranking request scores.
	RankingMaxCandidates int
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		AuthToken:            os.Getenv("AUTH_TOKEN"),
		DBURL:                os.Getenv("DB_URL"),
		ReadTimeoutSecs:      getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:     getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:      getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:           getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:           getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:        getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:        getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:    getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:     getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
		RankingConfigPath:    strings.TrimSpace(os.Getenv("RANKING_CONFIG")),
		RankingMaxCandidates: getEnvInt("RANKING_MAX_CANDIDATES", 500),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.AuthToken == "" {
		return errors.New("AUTH_TOKEN is required")
	}
	if c.DBURL == "" {
		return errors.New("DB_URL is required")
	}
	for name, secs := range map[string]int{
		"SERVER_READ_TIMEOUT":  c.ReadTimeoutSecs,
		"SERVER_WRITE_TIMEOUT": c.WriteTimeoutSecs,
		"SERVER_IDLE_TIMEOUT":  c.IdleTimeoutSecs,
	} {
		if secs <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}
	if c.DBMinConns < 0 {
		return errors.New("DB_MIN_CONNS must be non-negative")
	}
	if c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.DBStatementCache < 0 {
		return errors.New("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if c.RankingMaxCandidates <= 0 || c.RankingMaxCandidates > MaxRankingCandidates {
		return fmt.Errorf("RANKING_MAX_CANDIDATES must be in [1,%d]", MaxRankingCandidates)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
