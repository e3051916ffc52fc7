package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estate-cli/internal/model"
)

func TestParseResponse_FencedJSON(t *testing.T) {
	text := "```json\n{\"predicted_price_lakhs\": 85.5, \"predicted_price_range\": \"80-90 lakhs\", \"explanation\": \"x\"}\n```"

	res := ParseResponse(text, model.IntentPricePrediction, "gemini")

	require.False(t, res.IsError())
	assert.InDelta(t, 85.5, res["predicted_price_lakhs"], 1e-9)
	assert.Equal(t, "80-90 lakhs", res["predicted_price_range"])
	assert.Equal(t, model.IntentPricePrediction, res.Intent())
}

func TestParseResponse_GenericFence(t *testing.T) {
	res := ParseResponse("Here:\n```\n{\"answer\": \"yes\"}\n```\nthanks", model.IntentGeneral, "gemini")
	require.False(t, res.IsError())
	assert.Equal(t, "yes", res["answer"])
}

func TestParseResponse_BareObject(t *testing.T) {
	res := ParseResponse(`  {"market_direction": "stable", "expected_annual_growth_percent": 4, "analysis": "flat"}  `,
		model.IntentMarketTrend, "gemini")
	require.False(t, res.IsError())
	assert.Equal(t, "stable", res["market_direction"])
	assert.Equal(t, "market_trend", res[model.KeyQueryType])
}

func TestParseResponse_BraceSpanInProse(t *testing.T) {
	text := "Sure! Here is the analysis:\n{\"recommendation\": \"HSR\",\n \"reasoning\": \"closer\"}\nLet me know."

	res := ParseResponse(text, model.IntentComparison, "gemini")

	require.False(t, res.IsError())
	assert.Equal(t, "HSR", res["recommendation"])
}

func TestParseResponse_OverwritesQueryType(t *testing.T) {
	res := ParseResponse(`{"answer": "a", "query_type": "price_prediction"}`, model.IntentGeneral, "gemini")
	assert.Equal(t, "general", res[model.KeyQueryType])
}

func TestParseResponse_Failures(t *testing.T) {
	inputs := []string{
		"",
		"I cannot help with that.",
		`{"answer": "unterminated`,
		"[1, 2, 3]",
		"null",
		"```json\n```",
		"{ } } {",
		"```",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			var res model.Result
			assert.NotPanics(t, func() {
				res = ParseResponse(in, model.IntentRegulation, "gemini")
			})
			require.True(t, res.IsError())
			assert.Equal(t, "Failed to parse Gemini response", res.Err())
			assert.Equal(t, in, res[model.KeyRawResponse])
			assert.Equal(t, "regulation", res[model.KeyQueryType])
		})
	}
}

func TestParseResponse_ProviderName(t *testing.T) {
	res := ParseResponse("nope", model.IntentGeneral, "anthropic")
	assert.Equal(t, "Failed to parse Anthropic response", res.Err())
}

func TestParseResponse_EmptyObject(t *testing.T) {
	res := ParseResponse("{}", model.IntentGeneral, "gemini")
	require.False(t, res.IsError())
	assert.Equal(t, model.Result{model.KeyQueryType: "general"}, res)
}

func TestMissingKeys(t *testing.T) {
	res := model.Result{"market_direction": "stable", "analysis": "flat"}
	assert.Equal(t, []string{"expected_annual_growth_percent"}, missingKeys(res, model.IntentMarketTrend))
	assert.Empty(t, missingKeys(model.Result{"answer": "ok"}, model.IntentGeneral))
}
