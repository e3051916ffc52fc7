package model

// QueryIntent is the category a free-text query is classified into.
type QueryIntent string

const (
	IntentPricePrediction  QueryIntent = "price_prediction"
	IntentMarketTrend      QueryIntent = "market_trend"
	IntentComparison       QueryIntent = "comparison"
	IntentInvestmentAdvice QueryIntent = "investment_advice"
	IntentRegulation       QueryIntent = "regulation"
	IntentGeneral          QueryIntent = "general"
)

// Intents lists every intent in classification priority order.
var Intents = []QueryIntent{
	IntentPricePrediction,
	IntentMarketTrend,
	IntentComparison,
	IntentInvestmentAdvice,
	IntentRegulation,
	IntentGeneral,
}

func (i QueryIntent) String() string { return string(i) }

// Valid reports whether i is one of the six known intents.
func (i QueryIntent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

// ParseIntent converts s into a QueryIntent, falling back to general.
func ParseIntent(s string) QueryIntent {
	i := QueryIntent(s)
	if i.Valid() {
		return i
	}
	return IntentGeneral
}

// RequiredKeys returns the keys a well-formed answer for this intent carries.
func (i QueryIntent) RequiredKeys() []string {
	switch i {
	case IntentPricePrediction:
		return []string{"predicted_price_lakhs", "predicted_price_range", "explanation"}
	case IntentMarketTrend:
		return []string{"market_direction", "expected_annual_growth_percent", "analysis"}
	case IntentComparison:
		return []string{"comparison_table", "recommendation", "reasoning"}
	case IntentInvestmentAdvice:
		return []string{"investment_recommendation", "projected_annual_roi_percent", "investment_analysis"}
	case IntentRegulation:
		return []string{"legal_information", "practical_steps", "disclaimer"}
	default:
		return []string{"answer"}
	}
}

// Filters holds the structured entities pulled out of a query. Zero values
// mean the entity was not mentioned.
type Filters struct {
	City         string `json:"city,omitempty"`
	Locality     string `json:"locality,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	Bedrooms     int    `json:"bedrooms,omitempty"`
}
