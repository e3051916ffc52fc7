// Package pipeline turns a free-text property question into a structured
// answer: classify, ground in the city's listing table, prompt the model and
// parse what comes back.
package pipeline

import (
	"strings"

	"github.com/sells-group/estate-cli/internal/model"
)

type intentRule struct {
	intent   model.QueryIntent
	keywords []string
}

// rules are checked in order; the first rule with a matching keyword wins.
var rules = []intentRule{
	{model.IntentPricePrediction, []string{"price", "cost", "worth", "value", "estimate", "how much"}},
	{model.IntentMarketTrend, []string{"trend", "growing", "appreciate", "future", "forecast", "predict", "market"}},
	{model.IntentComparison, []string{"compare", "versus", "vs", "better", "difference between", "which is"}},
	{model.IntentInvestmentAdvice, []string{"invest", "roi", "return", "profitable", "should i buy", "good time"}},
	{model.IntentRegulation, []string{"law", "legal", "registration", "tax", "stamp duty", "regulation", "rules"}},
}

// Classify assigns query to an intent by case-insensitive keyword match.
// Queries matching no rule are general.
func Classify(query string) model.QueryIntent {
	q := strings.ToLower(query)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.intent
			}
		}
	}
	return model.IntentGeneral
}
