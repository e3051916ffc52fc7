// Package store persists answered queries so they can be reviewed later.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estate-cli/internal/config"
	"github.com/sells-group/estate-cli/internal/model"
)

// QueryLog records answered queries.
type QueryLog interface {
	Migrate(ctx context.Context) error
	RecordQuery(ctx context.Context, e model.QueryLogEntry) error
	ListQueries(ctx context.Context, filter QueryFilter) ([]model.QueryLogEntry, error)
	Close() error
}

// QueryFilter narrows ListQueries. Zero values match everything.
type QueryFilter struct {
	Intent model.QueryIntent
	City   string
	Since  time.Time
	Limit  int
}

const defaultListLimit = 50

func (f QueryFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Open returns the query log selected by cfg.Driver, migrated and ready. It
// returns a nil QueryLog when the driver is "none" or empty.
func Open(ctx context.Context, cfg config.StoreConfig) (QueryLog, error) {
	var (
		ql  QueryLog
		err error
	)
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		ql, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		ql, err = NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := ql.Migrate(ctx); err != nil {
		_ = ql.Close()
		return nil, err
	}
	return ql, nil
}
