package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/estate-cli/internal/model"
)

// SQLiteStore implements QueryLog using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS query_log (
	id            TEXT PRIMARY KEY,
	query         TEXT NOT NULL,
	intent        TEXT NOT NULL,
	city          TEXT NOT NULL DEFAULT '',
	result        TEXT,
	error         TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd      REAL NOT NULL DEFAULT 0,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at);
CREATE INDEX IF NOT EXISTS idx_query_log_intent ON query_log(intent);
CREATE INDEX IF NOT EXISTS idx_query_log_city ON query_log(city);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordQuery(ctx context.Context, e model.QueryLogEntry) error {
	e = withDefaults(e)
	resultJSON, err := json.Marshal(e.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO query_log (id, query, intent, city, result, error, model, input_tokens, output_tokens, cost_usd, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Query, string(e.Intent), e.City, string(resultJSON), e.Error, e.Model,
		e.InputTokens, e.OutputTokens, e.CostUSD, e.LatencyMS, e.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert query")
}

func (s *SQLiteStore) ListQueries(ctx context.Context, filter QueryFilter) ([]model.QueryLogEntry, error) {
	query := `SELECT id, query, intent, city, result, error, model, input_tokens, output_tokens, cost_usd, latency_ms, created_at
		FROM query_log WHERE 1=1`
	var args []any

	if filter.Intent != "" {
		query += ` AND intent = ?`
		args = append(args, string(filter.Intent))
	}
	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list queries")
	}
	defer rows.Close()

	var out []model.QueryLogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list queries iterate")
}

// scannable is satisfied by *sql.Row, *sql.Rows and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanEntry(row scannable) (model.QueryLogEntry, error) {
	var (
		e          model.QueryLogEntry
		intent     string
		resultJSON sql.NullString
	)
	err := row.Scan(&e.ID, &e.Query, &intent, &e.City, &resultJSON, &e.Error, &e.Model,
		&e.InputTokens, &e.OutputTokens, &e.CostUSD, &e.LatencyMS, &e.CreatedAt)
	if err != nil {
		return e, eris.Wrap(err, "store: scan query")
	}
	e.Intent = model.ParseIntent(intent)
	if resultJSON.Valid && resultJSON.String != "" {
		if err := json.Unmarshal([]byte(resultJSON.String), &e.Result); err != nil {
			return e, eris.Wrap(err, "store: unmarshal result")
		}
	}
	return e, nil
}

// withDefaults assigns an id and timestamp to entries that lack them.
func withDefaults(e model.QueryLogEntry) model.QueryLogEntry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if e.Intent == "" {
		e.Intent = model.IntentGeneral
	}
	return e
}
