package model

import "time"

// Result keys shared by every answer shape.
const (
	KeyQueryType   = "query_type"
	KeyError       = "error"
	KeyRawResponse = "raw_response"
	KeyDetails     = "details"
)

// Result is the structured answer returned to callers. Intent-specific keys
// sit alongside query_type; failures carry error and optionally raw_response
// and details instead.
type Result map[string]any

// Intent returns the query_type tag, or "" when absent.
func (r Result) Intent() QueryIntent {
	s, _ := r[KeyQueryType].(string)
	return QueryIntent(s)
}

// IsError reports whether the result is a failure shape.
func (r Result) IsError() bool {
	_, ok := r[KeyError]
	return ok
}

// Err returns the error message, or "" for successful results.
func (r Result) Err() string {
	s, _ := r[KeyError].(string)
	return s
}

// String returns the value at key if it is a string.
func (r Result) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// QueryLogEntry is one answered query as persisted by the query log.
type QueryLogEntry struct {
	ID           string      `json:"id"`
	Query        string      `json:"query"`
	Intent       QueryIntent `json:"intent"`
	City         string      `json:"city,omitempty"`
	Result       Result      `json:"result"`
	Error        string      `json:"error,omitempty"`
	Model        string      `json:"model,omitempty"`
	InputTokens  int64       `json:"input_tokens"`
	OutputTokens int64       `json:"output_tokens"`
	CostUSD      float64     `json:"cost_usd"`
	LatencyMS    int64       `json:"latency_ms"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Data availability states reported by DataStatus.
const (
	DataAvailable = "available"
	DataMissing   = "no_data"
)

// DataStatus describes how fresh a city's consolidated table is.
type DataStatus struct {
	City        string  `json:"city"`
	Status      string  `json:"status"`
	LastUpdated string  `json:"last_updated,omitempty"`
	AgeHours    float64 `json:"age_hours,omitempty"`
	IsFresh     bool    `json:"is_fresh"`
	SizeKB      float64 `json:"size_kb,omitempty"`
	Message     string  `json:"message,omitempty"`
}
