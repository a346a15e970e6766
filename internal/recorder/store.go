package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
)

// sqlStore implements Recorder over database/sql. Dialects differ only in
// placeholder style and DDL.
type sqlStore struct {
	db       *sql.DB
	name     string
	numbered bool // $1, $2 placeholders instead of ?
	mu       sync.Mutex
	logger   arbor.ILogger
}

// bind rewrites ? placeholders for numbered dialects.
func (s *sqlStore) bind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) migrate(stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			head := stmt
			if len(head) > 40 {
				head = head[:40]
			}
			return fmt.Errorf("exec %q: %w", head, err)
		}
	}
	return nil
}

func (s *sqlStore) RecordRun(ctx context.Context, rec *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tickers, err := json.Marshal(nonNil(rec.Tickers))
	if err != nil {
		return fmt.Errorf("encode tickers: %w", err)
	}
	errs, err := json.Marshal(nonNil(rec.Errors))
	if err != nil {
		return fmt.Errorf("encode errors: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.bind(`INSERT INTO runs
		(run_id, source, question, tickers, documents, narrative, errors, failed, fatal_kind, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`),
		rec.RunID, rec.Source, rec.Question, string(tickers), rec.Documents, rec.Narrative,
		string(errs), rec.Failed, rec.FatalKind, rec.StartedAt.UnixMilli(), rec.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, q := range rec.Quotes {
		_, err = tx.ExecContext(ctx, s.bind(`INSERT INTO run_quotes
			(run_id, identifier, price, change, change_percent)
			VALUES (?,?,?,?,?)`),
			rec.RunID, q.Identifier, q.Price, q.Change, q.ChangePercent,
		)
		if err != nil {
			return fmt.Errorf("insert quote %s: %w", q.Identifier, err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT
		run_id, source, question, tickers, documents, narrative, errors, failed, fatal_kind, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		var (
			rec             RunRecord
			tickers, errs   string
			started, finish int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Source, &rec.Question, &tickers, &rec.Documents,
			&rec.Narrative, &errs, &rec.Failed, &rec.FatalKind, &started, &finish); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(tickers), &rec.Tickers); err != nil {
			return nil, fmt.Errorf("decode tickers of %s: %w", rec.RunID, err)
		}
		if err := json.Unmarshal([]byte(errs), &rec.Errors); err != nil {
			return nil, fmt.Errorf("decode errors of %s: %w", rec.RunID, err)
		}
		rec.StartedAt = time.UnixMilli(started)
		rec.FinishedAt = time.UnixMilli(finish)
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		quotes, err := s.quotes(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Quotes = quotes
	}
	return runs, nil
}

func (s *sqlStore) quotes(ctx context.Context, runID string) ([]QuoteRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT identifier, price, change, change_percent
		FROM run_quotes WHERE run_id = ? ORDER BY id`), runID)
	if err != nil {
		return nil, fmt.Errorf("query quotes of %s: %w", runID, err)
	}
	defer rows.Close()

	var out []QuoteRecord
	for rows.Next() {
		var (
			q                  QuoteRecord
			price, change, pct sql.NullFloat64
		)
		if err := rows.Scan(&q.Identifier, &price, &change, &pct); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		q.Price, q.Change, q.ChangePercent = nullable(price), nullable(change), nullable(pct)
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	s.logger.Info().Str("driver", s.name).Msg("Closing run recorder")
	return s.db.Close()
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
