package main

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/estate-cli/internal/gateway"
	"github.com/sells-group/estate-cli/internal/pipeline"
	"github.com/sells-group/estate-cli/internal/records"
	"github.com/sells-group/estate-cli/internal/store"
)

// answerEnv holds everything the ask and serve commands need to answer
// queries.
type answerEnv struct {
	Records  *records.Store
	Cache    *records.CachedStore
	Gateway  *gateway.Gateway
	QueryLog store.QueryLog // nil when store.driver is none
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *answerEnv) Close() {
	if e.QueryLog != nil {
		_ = e.QueryLog.Close()
	}
}

// initAnswer validates config and builds the answer pipeline. Callers should
// defer env.Close().
func initAnswer(ctx context.Context) (*answerEnv, error) {
	if err := cfg.Validate("answer"); err != nil {
		return nil, err
	}
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	gw, err := gateway.FromConfig(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	ql, err := store.Open(ctx, cfg.Store)
	if err != nil {
		// The query log is optional; answering still works without it.
		zap.L().Warn("query log unavailable, continuing without it", zap.Error(err))
		ql = nil
	}

	rs := records.NewStore(cfg.Data.Dir)
	cache := records.NewCachedStore(rs, time.Duration(cfg.Data.CacheTTLSecs)*time.Second)

	env := &answerEnv{
		Records:  rs,
		Cache:    cache,
		Gateway:  gw,
		QueryLog: ql,
	}
	env.Pipeline = pipeline.New(cfg, cache, gw, ql)
	return env, nil
}

// titleCity normalizes a city argument, e.g. "new delhi" -> "New Delhi".
// Casers are stateful, so each call gets its own.
func titleCity(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// titleCities title-cases each non-blank city.
func titleCities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		if c = titleCity(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
