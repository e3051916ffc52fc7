package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/scrape"
)

func TestFormatHistory(t *testing.T) {
	var buf bytes.Buffer
	formatHistory(&buf, []model.QueryLogEntry{
		{ID: "0b7e6a8e-62c4-4bde", Query: "price in Bandra", Intent: model.IntentPricePrediction, City: "Mumbai",
			LatencyMS: 1500, CostUSD: 0.0012, CreatedAt: time.Now()},
		{ID: "short", Query: "bad", Intent: model.IntentGeneral, Error: "Gemini API error: x", CreatedAt: time.Now()},
	})
	out := buf.String()
	assert.Contains(t, out, "0b7e6a8e ")
	assert.Contains(t, out, "price_prediction")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "$0.0012")
	assert.Contains(t, out, "[error] bad")
}

func TestComputeHistoryStats(t *testing.T) {
	s := computeHistoryStats([]model.QueryLogEntry{
		{Intent: model.IntentPricePrediction, CostUSD: 0.01, LatencyMS: 100},
		{Intent: model.IntentPricePrediction, CostUSD: 0.02, LatencyMS: 300, Error: "x"},
		{Intent: model.IntentRegulation, LatencyMS: 200},
	})
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 2, s.ByIntent[model.IntentPricePrediction])
	assert.InDelta(t, 0.03, s.CostUSD, 1e-9)
	assert.InDelta(t, 200, s.AvgLatencyMS, 1e-9)

	var buf bytes.Buffer
	formatHistoryStats(&buf, s)
	assert.Contains(t, buf.String(), "Total queries:")
	assert.Contains(t, buf.String(), "regulation:")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "12345678", truncateID("12345678-abcd"))
}

func TestFormatStatus(t *testing.T) {
	var buf bytes.Buffer
	formatStatus(&buf, []model.DataStatus{
		{City: "Mumbai", Status: model.DataAvailable, LastUpdated: "2024-06-01 10:00:00", AgeHours: 2.5, IsFresh: true, SizeKB: 12.3},
		{City: "Pune", Status: model.DataMissing},
	})
	out := buf.String()
	assert.Contains(t, out, "2024-06-01 10:00:00")
	assert.Contains(t, out, "12.3")
	assert.Contains(t, out, "no_data")
}

func TestFormatScrapeResults(t *testing.T) {
	var buf bytes.Buffer
	formatScrapeResults(&buf, []scrape.SourceResult{
		{City: "Delhi", Source: "delhi_govt", Records: 1500, File: "data/delhi/delhi_govt_20240601_120000.csv"},
		{City: "Delhi", Source: "magicbricks", Error: "scrape: blocked (cloudflare)"},
	})
	out := buf.String()
	assert.Contains(t, out, "1500")
	assert.Contains(t, out, "blocked (cloudflare)")
}
