package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/estate-cli/internal/model"
)

func TestBuildPrompt_EveryIntent(t *testing.T) {
	for _, intent := range model.Intents {
		t.Run(string(intent), func(t *testing.T) {
			p := BuildPrompt(intent, "my question", "CONTEXT-BLOCK")

			assert.Contains(t, p, "for Indian properties")
			assert.Contains(t, p, "CONTEXT-BLOCK")
			assert.Contains(t, p, "User query: my question")
			assert.Contains(t, p, "Respond with only a valid JSON object.")
			for _, key := range intent.RequiredKeys() {
				assert.Contains(t, p, `"`+key+`"`)
			}
			// Context precedes the query.
			assert.Less(t, strings.Index(p, "CONTEXT-BLOCK"), strings.Index(p, "User query:"))
		})
	}
}

func TestBuildPrompt_Sections(t *testing.T) {
	assert.Contains(t, BuildPrompt(model.IntentMarketTrend, "q", "c"), "Historical market data:\nc\n")
	assert.Contains(t, BuildPrompt(model.IntentRegulation, "q", "c"), "Context data:\nc\n")
	assert.Contains(t, BuildPrompt(model.IntentGeneral, "q", "c"), `"references"`)
	assert.Contains(t, BuildPrompt(model.IntentPricePrediction, "q", "c"),
		"Make sure the JSON is properly formatted with keys: predicted_price_lakhs, predicted_price_range, and explanation.")
}

func TestBuildPrompt_UnknownIntentIsGeneral(t *testing.T) {
	assert.Equal(t,
		BuildPrompt(model.IntentGeneral, "q", "c"),
		BuildPrompt(model.QueryIntent("weather"), "q", "c"))
}

func TestBuildPrompt_PercentInInputs(t *testing.T) {
	p := BuildPrompt(model.IntentGeneral, "is 5% growth good?", "rate 100%")
	assert.Contains(t, p, "is 5% growth good?")
	assert.Contains(t, p, "rate 100%")
}
