package pipeline

import (
	"fmt"

	"github.com/sells-group/estate-cli/internal/model"
)

const pricePrompt = `You are a real estate price prediction expert for Indian properties.
Based on the following historical real estate data, I want you to:
1. Analyze the provided market data carefully
2. Estimate the price for the property described in the user query
3. Provide a detailed explanation for your estimate, including key factors that influenced your prediction
4. Format your response as a JSON with keys: "predicted_price_lakhs" (numerical value in lakhs INR), "predicted_price_range" (string), and "explanation" (string)

Historical market data:
%s

User query: %s

Respond with only a valid JSON object. Make sure the JSON is properly formatted with keys: predicted_price_lakhs, predicted_price_range, and explanation.
`

const trendPrompt = `You are a real estate market analyst expert for Indian properties.
Based on the following historical real estate data, I want you to:
1. Analyze the market trends carefully from the provided data
2. Identify whether the market is appreciating, depreciating, or stable
3. Provide insights on future market direction based on historical patterns
4. Format your response as a JSON with keys: "market_direction" (string: "appreciating", "depreciating", or "stable"), "expected_annual_growth_percent" (numerical value), and "analysis" (detailed explanation string)

Historical market data:
%s

User query: %s

Respond with only a valid JSON object.
`

const comparisonPrompt = `You are a real estate comparison expert for Indian properties.
Based on the following historical real estate data, I want you to:
1. Compare the properties or areas mentioned in the user query
2. Provide pros and cons of each option
3. Recommend the better option based on value for money, future prospects, and amenities
4. Format your response as a JSON with keys: "comparison_table" (string showing key metrics), "recommendation" (string), and "reasoning" (string)

Historical market data:
%s

User query: %s

Respond with only a valid JSON object.
`

const investmentPrompt = `You are a real estate investment advisor expert for Indian properties.
Based on the following historical real estate data, I want you to:
1. Analyze the investment potential of the property or area in question
2. Calculate expected ROI based on historical price trends
3. Provide investment recommendations (buy, wait, avoid)
4. Format your response as a JSON with keys: "investment_recommendation" (string), "projected_annual_roi_percent" (numerical value), and "investment_analysis" (string with detailed reasoning)

Historical market data:
%s

User query: %s

Respond with only a valid JSON object.
`

const regulationPrompt = `You are a real estate legal and regulatory expert for Indian properties.
Based on your knowledge and the following context data, I want you to:
1. Address the legal or regulatory question in the user query
2. Provide information on relevant laws, regulations, or procedures
3. Give practical steps or advice related to the query
4. Format your response as a JSON with keys: "legal_information" (string explaining the relevant laws/regulations), "practical_steps" (string with actionable advice), and "disclaimer" (a disclaimer stating this is not legal advice)

Context data:
%s

User query: %s

Respond with only a valid JSON object.
`

const generalPrompt = `You are a comprehensive real estate expert for Indian properties.
Based on the following real estate data and your knowledge, I want you to:
1. Answer the user's query about real estate
2. Provide factual information backed by the data where possible
3. Format your response as a JSON with keys: "answer" (detailed response to the query) and "references" (mention of specific data points that support your answer)

Context data:
%s

User query: %s

Respond with only a valid JSON object.
`

// BuildPrompt fills the template for intent with the assembled context and
// the user's query. Unknown intents get the general template.
func BuildPrompt(intent model.QueryIntent, query, context string) string {
	var tmpl string
	switch intent {
	case model.IntentPricePrediction:
		tmpl = pricePrompt
	case model.IntentMarketTrend:
		tmpl = trendPrompt
	case model.IntentComparison:
		tmpl = comparisonPrompt
	case model.IntentInvestmentAdvice:
		tmpl = investmentPrompt
	case model.IntentRegulation:
		tmpl = regulationPrompt
	case model.IntentGeneral:
		tmpl = generalPrompt
	default:
		tmpl = generalPrompt
	}
	return fmt.Sprintf(tmpl, context, query)
}
