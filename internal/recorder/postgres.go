package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	applog "MarketBrief/internal/logger"

	_ "github.com/lib/pq"
	"github.com/ternarybob/arbor"
)

// PostgresRecorder persists run history to PostgreSQL.
type PostgresRecorder struct {
	*sqlStore
}

// NewPostgresRecorder connects to dsn and runs migrations.
func NewPostgresRecorder(dsn string, logger arbor.ILogger) (*PostgresRecorder, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{&sqlStore{db: db, name: "postgres", numbered: true, logger: logger}}
	if err := r.migrate(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Msg("Postgres recorder connected")
	return r, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          BIGSERIAL PRIMARY KEY,
		run_id      TEXT NOT NULL UNIQUE,
		source      TEXT,
		question    TEXT,
		tickers     TEXT,
		documents   INTEGER,
		narrative   TEXT,
		errors      TEXT,
		failed      BOOLEAN,
		fatal_kind  TEXT,
		started_at  BIGINT NOT NULL,
		finished_at BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

	`CREATE TABLE IF NOT EXISTS run_quotes (
		id             BIGSERIAL PRIMARY KEY,
		run_id         TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		identifier     TEXT NOT NULL,
		price          DOUBLE PRECISION,
		change         DOUBLE PRECISION,
		change_percent DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_quotes_run ON run_quotes(run_id)`,
}
