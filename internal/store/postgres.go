package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estate-cli/internal/db"
	"github.com/sells-group/estate-cli/internal/model"
)

// PostgresStore implements QueryLog using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := db.Open(ctx, connString, db.PoolConfig{})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS query_log (
	id            UUID PRIMARY KEY,
	query         TEXT NOT NULL,
	intent        TEXT NOT NULL,
	city          TEXT NOT NULL DEFAULT '',
	result        JSONB,
	error         TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	input_tokens  BIGINT NOT NULL DEFAULT 0,
	output_tokens BIGINT NOT NULL DEFAULT 0,
	cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	latency_ms    BIGINT NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_query_log_intent ON query_log(intent);
CREATE INDEX IF NOT EXISTS idx_query_log_city ON query_log(city);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordQuery(ctx context.Context, e model.QueryLogEntry) error {
	e = withDefaults(e)
	resultJSON, err := json.Marshal(e.Result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO query_log (id, query, intent, city, result, error, model, input_tokens, output_tokens, cost_usd, latency_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Query, string(e.Intent), e.City, resultJSON, e.Error, e.Model,
		e.InputTokens, e.OutputTokens, e.CostUSD, e.LatencyMS, e.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert query")
}

func (s *PostgresStore) ListQueries(ctx context.Context, filter QueryFilter) ([]model.QueryLogEntry, error) {
	query := `SELECT id::text, query, intent, city, result::text, error, model, input_tokens, output_tokens, cost_usd, latency_ms, created_at
		FROM query_log WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Intent != "" {
		query += ` AND intent = ` + arg(string(filter.Intent))
	}
	if filter.City != "" {
		query += ` AND city = ` + arg(filter.City)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ` + arg(filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ` + arg(filter.limit())

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list queries")
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
	return out, eris.Wrap(rows.Err(), "postgres: list queries iterate")
}
