// Package cost attributes LLM token usage to estimated USD spend.
package cost

import (
	"github.com/sells-group/estate-cli/internal/config"
	"go.uber.org/zap"
)

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64
	Output float64
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates map[string]ModelRate
}

// NewCalculator creates a Calculator from the pricing section of the config.
func NewCalculator(pricing config.PricingConfig) *Calculator {
	rates := make(map[string]ModelRate, len(pricing.Models))
	for _, m := range pricing.Models {
		rates[m.Model] = ModelRate{Input: m.Input, Output: m.Output}
	}
	return &Calculator{rates: rates}
}

// Rate returns the pricing for a model.
func (c *Calculator) Rate(model string) (ModelRate, bool) {
	if c == nil {
		return ModelRate{}, false
	}
	r, ok := c.rates[model]
	return r, ok
}

// Tokens computes the cost of one completion. Unknown models cost 0.
func (c *Calculator) Tokens(model string, input, output int64) float64 {
	rate, ok := c.Rate(model)
	if !ok {
		return 0
	}
	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	return inCost + outCost
}

// Log computes and logs the cost of one completion, returning it.
func (c *Calculator) Log(model, intent string, input, output int64) float64 {
	usd := c.Tokens(model, input, output)
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("intent", intent),
		zap.Int64("input_tokens", input),
		zap.Int64("output_tokens", output),
		zap.Float64("estimated_cost_usd", usd),
	)
	return usd
}
