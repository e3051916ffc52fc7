package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/config"
	"github.com/sells-group/estate-cli/internal/cost"
	"github.com/sells-group/estate-cli/internal/gateway"
	"github.com/sells-group/estate-cli/internal/metrics"
	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/records"
)

// GatewayErrorDetails accompanies every gateway failure result.
const GatewayErrorDetails = "Please check your API key and network connection."

// Query outcomes reported to metrics.
const (
	outcomeOK           = "ok"
	outcomeGatewayError = "gateway_error"
	outcomeParseError   = "parse_error"
	outcomeError        = "error"
)

// Generator sends a prompt to a model. *gateway.Gateway satisfies it.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (gateway.Completion, error)
}

// QueryRecorder persists answered queries.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, e model.QueryLogEntry) error
}

// Pipeline answers property questions. It holds no per-query state, so one
// Pipeline may serve concurrent callers.
type Pipeline struct {
	loader      records.Loader
	gen         Generator
	queries     QueryRecorder
	costs       *cost.Calculator
	opts        AssembleOptions
	recencyDays int
	now         func() time.Time
}

// New creates a Pipeline. queries may be nil to skip the query log.
func New(cfg *config.Config, loader records.Loader, gen Generator, queries QueryRecorder) *Pipeline {
	return &Pipeline{
		loader:  loader,
		gen:     gen,
		queries: queries,
		costs:   cost.NewCalculator(cfg.Pricing),
		opts: AssembleOptions{
			MaxRecords:     cfg.Pipeline.MaxContextRecords,
			Seed:           cfg.Pipeline.SampleSeed,
			MaxBytes:       cfg.Pipeline.MaxContextBytes,
			MaxTrendMonths: cfg.Pipeline.MaxTrendMonths,
		},
		recencyDays: cfg.Data.RecencyDays,
		now:         time.Now,
	}
}

// Prepared is everything computed for a query before the model is called.
type Prepared struct {
	Intent  model.QueryIntent
	City    string
	Filters model.Filters
	Context string
	Prompt  string
}

// Prepare classifies query and builds its grounded prompt.
func (p *Pipeline) Prepare(ctx context.Context, query string) Prepared {
	intent := Classify(query)
	pr := Prepared{Intent: intent}
	pr.City, pr.Filters, pr.Context = p.buildContext(ctx, query)
	pr.Prompt = BuildPrompt(intent, query, pr.Context)
	return pr
}

func (p *Pipeline) buildContext(ctx context.Context, query string) (string, model.Filters, string) {
	city, ok := ExtractCity(query)
	if !ok {
		return "", model.Filters{}, NoCityMessage
	}

	recs, ok := p.loader.Load(ctx, city, p.recencyDays)
	if !ok || len(recs) == 0 {
		return city, model.Filters{City: city}, NoDataMessage(city)
	}

	filters := Extract(query, Vocabulary(recs))
	working := Narrow(recs, filters)
	return city, filters, Assemble(city, working, filters, p.opts)
}

// Answer runs query through the full pipeline. It always returns a result:
// failures come back as error results rather than Go errors.
func (p *Pipeline) Answer(ctx context.Context, query string) (res model.Result) {
	start := p.now()
	entry := model.QueryLogEntry{Query: query, Intent: model.IntentGeneral, CreatedAt: start.UTC()}
	outcome := outcomeError

	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: recovered panic",
				zap.String("query", query),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			res = model.Result{model.KeyError: fmt.Sprint(r)}
			outcome = outcomeError
		}
		p.finish(ctx, &entry, res, outcome, start)
	}()

	pr := p.Prepare(ctx, query)
	entry.Intent = pr.Intent
	entry.City = pr.City

	comp, err := p.gen.Generate(ctx, pr.Prompt)
	if err != nil {
		outcome = outcomeGatewayError
		return model.Result{
			model.KeyError:     gateway.DisplayName(p.gen.Name()) + " API error: " + err.Error(),
			model.KeyDetails:   GatewayErrorDetails,
			model.KeyQueryType: string(pr.Intent),
		}
	}

	entry.Model = comp.Model
	entry.InputTokens = comp.InputTokens
	entry.OutputTokens = comp.OutputTokens
	entry.CostUSD = p.costs.Log(comp.Model, string(pr.Intent), comp.InputTokens, comp.OutputTokens)
	metrics.ObserveTokens(p.gen.Name(), comp.Model, comp.InputTokens, comp.OutputTokens, entry.CostUSD)

	res = ParseResponse(comp.Text, pr.Intent, p.gen.Name())
	if res.IsError() {
		outcome = outcomeParseError
	} else {
		outcome = outcomeOK
	}
	return res
}

// Predict is the name the HTTP surface and older callers use for Answer.
func (p *Pipeline) Predict(ctx context.Context, query string) model.Result {
	return p.Answer(ctx, query)
}

func (p *Pipeline) finish(ctx context.Context, entry *model.QueryLogEntry, res model.Result, outcome string, start time.Time) {
	elapsed := p.now().Sub(start)
	intent := string(entry.Intent)

	metrics.QueriesTotal.WithLabelValues(intent, outcome).Inc()
	metrics.QueryDuration.WithLabelValues(intent).Observe(elapsed.Seconds())

	zap.L().Info("pipeline: answered query",
		zap.String("intent", intent),
		zap.String("city", entry.City),
		zap.String("outcome", outcome),
		zap.Duration("latency", elapsed),
	)

	if p.queries == nil {
		return
	}
	entry.Result = res
	entry.Error = res.Err()
	entry.LatencyMS = elapsed.Milliseconds()
	// The answer is already computed; log it even if the caller went away.
	if err := p.queries.RecordQuery(context.WithoutCancel(ctx), *entry); err != nil {
		zap.L().Warn("pipeline: record query", zap.Error(err))
	}
}
