package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nutrihub/backend/internal/domain"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS api_usage_log (
	id               UUID PRIMARY KEY,
	search_query     TEXT        NOT NULL,
	api_used         TEXT        NOT NULL,
	results_count    INTEGER     NOT NULL DEFAULT 0,
	error_message    TEXT,
	search_timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_usage_log_ts ON api_usage_log (search_timestamp);
`

// PostgresStore is a UsageStore backed by Postgres. The table is
// append-only; aggregates are computed by query, never stored.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to Postgres and returns a usage store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing connection (used by tests).
func NewPostgresStoreWithDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the usage table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create usage schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Record appends one usage record.
func (s *PostgresStore) Record(ctx context.Context, rec domain.UsageRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	var errMsg sql.NullString
	if rec.ErrorMessage != "" {
		errMsg = sql.NullString{String: rec.ErrorMessage, Valid: true}
	}

	query := `
		INSERT INTO api_usage_log (id, search_query, api_used, results_count, error_message, search_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(), rec.Query, rec.Provider, rec.ResultCount, errMsg, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// Stats aggregates per-provider counters over the window. Day and month
// boundaries are computed in UTC and passed as parameters so the
// database's timezone setting cannot skew them.
func (s *PostgresStore) Stats(ctx context.Context, windowDays int) ([]domain.APIUsageStats, error) {
	if windowDays <= 0 {
		windowDays = 30
	}

	now := time.Now().UTC()
	windowStart := now.AddDate(0, 0, -windowDays)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	query := `
		SELECT api_used,
		       COUNT(*) FILTER (WHERE search_timestamp >= $2) AS requests_today,
		       COUNT(*) FILTER (WHERE search_timestamp >= $3) AS requests_this_month,
		       MAX(search_timestamp) AS last_request
		FROM api_usage_log
		WHERE search_timestamp >= $1
		GROUP BY api_used
		ORDER BY api_used
	`

	var stats []domain.APIUsageStats
	if err := s.db.SelectContext(ctx, &stats, query, windowStart, dayStart, monthStart); err != nil {
		return nil, fmt.Errorf("failed to aggregate usage stats: %w", err)
	}
	return stats, nil
}
