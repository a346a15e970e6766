package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	applog "MarketBrief/internal/logger"

	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	*sqlStore
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger arbor.ILogger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode lets the API read history while runs are being written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{&sqlStore{db: db, name: "sqlite", logger: logger}}
	if err := r.migrate(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("SQLite recorder opened")
	return r, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL UNIQUE,
		source      TEXT,
		question    TEXT,
		tickers     TEXT,
		documents   INTEGER,
		narrative   TEXT,
		errors      TEXT,
		failed      BOOLEAN,
		fatal_kind  TEXT,
		started_at  INTEGER NOT NULL,
		finished_at INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

	`CREATE TABLE IF NOT EXISTS run_quotes (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id         TEXT NOT NULL,
		identifier     TEXT NOT NULL,
		price          REAL,
		change         REAL,
		change_percent REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_quotes_run ON run_quotes(run_id)`,
}
