// Package metrics holds the Prometheus collectors for estate-cli.
// Collectors are registered on the default registry via promauto and served
// by the /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "estate"

var (
	// QueriesTotal counts answered queries.
	//
	// Labels: intent, outcome ("ok", "gateway_error", "parse_error", "error").
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "queries_total",
			Help:      "Total queries answered by intent and outcome.",
		},
		[]string{"intent", "outcome"},
	)

	// QueryDuration measures end-to-end answer latency.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "query_duration_seconds",
			Help:      "End-to-end query latency in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"intent"},
	)

	// ParseStrategy counts which response-parsing strategy succeeded.
	//
	// Labels: strategy ("fenced", "brace_span", "fallback").
	ParseStrategy = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "parse_strategy_total",
			Help:      "Response parse strategies used.",
		},
		[]string{"strategy"},
	)

	// GatewayAttempts counts individual LLM calls.
	//
	// Labels: provider, outcome ("ok", "transient", "permanent").
	GatewayAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "attempts_total",
			Help:      "LLM call attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// GatewayDuration measures single LLM call latency.
	GatewayDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM API calls in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// TokensTotal counts tokens consumed.
	//
	// Labels: provider, direction ("input" or "output").
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "tokens_total",
			Help:      "Tokens consumed by LLM calls.",
		},
		[]string{"provider", "direction"},
	)

	// CostUSD accumulates estimated spend.
	CostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "cost_usd_total",
			Help:      "Estimated LLM spend in USD.",
		},
		[]string{"model"},
	)

	// ScrapedRecords counts records saved by the scrapers.
	ScrapedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "records_total",
			Help:      "Records saved by source and city.",
		},
		[]string{"source", "city"},
	)

	// ScrapeErrors counts failed source runs.
	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scrape",
			Name:      "errors_total",
			Help:      "Failed scraper runs by source.",
		},
		[]string{"source"},
	)

	// DataAgeHours reports the age of each city's consolidated table.
	DataAgeHours = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "data",
			Name:      "age_hours",
			Help:      "Hours since the city's data was last updated.",
		},
		[]string{"city"},
	)
)

// ObserveGateway records one LLM call.
func ObserveGateway(provider, outcome string, elapsed time.Duration) {
	GatewayAttempts.WithLabelValues(provider, outcome).Inc()
	GatewayDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveTokens records token usage and spend for one completion.
func ObserveTokens(provider, model string, input, output int64, costUSD float64) {
	TokensTotal.WithLabelValues(provider, "input").Add(float64(input))
	TokensTotal.WithLabelValues(provider, "output").Add(float64(output))
	if costUSD > 0 {
		CostUSD.WithLabelValues(model).Add(costUSD)
	}
}
