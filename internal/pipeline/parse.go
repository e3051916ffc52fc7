package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/gateway"
	"github.com/sells-group/estate-cli/internal/metrics"
	"github.com/sells-group/estate-cli/internal/model"
)

// Parse strategy names, as reported to metrics.
const (
	StrategyFenced    = "fenced"
	StrategyBraceSpan = "brace_span"
	StrategyFallback  = "fallback"
)

type parseStrategy struct {
	name string
	fn   func(text string) (model.Result, bool)
}

// strategies are tried in order; the first success wins.
var strategies = []parseStrategy{
	{StrategyFenced, parseFenced},
	{StrategyBraceSpan, parseBraceSpan},
}

var braceSpan = regexp.MustCompile(`\{.*\}`)

// ParseResponse turns raw model text into a Result tagged with intent. It
// never fails: text that yields no JSON object comes back as an error result
// carrying the raw text.
func ParseResponse(text string, intent model.QueryIntent, provider string) model.Result {
	res, strategy := parse(text)
	metrics.ParseStrategy.WithLabelValues(strategy).Inc()
	if res == nil {
		return model.Result{
			model.KeyError:       "Failed to parse " + gateway.DisplayName(provider) + " response",
			model.KeyRawResponse: text,
			model.KeyQueryType:   string(intent),
		}
	}
	res[model.KeyQueryType] = string(intent)
	if missing := missingKeys(res, intent); len(missing) > 0 {
		zap.L().Debug("pipeline: answer lacks expected keys",
			zap.String("intent", string(intent)),
			zap.Strings("missing", missing),
		)
	}
	return res
}

func missingKeys(res model.Result, intent model.QueryIntent) []string {
	var missing []string
	for _, k := range intent.RequiredKeys() {
		if _, ok := res[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func parse(text string) (res model.Result, strategy string) {
	defer func() {
		if recover() != nil {
			res, strategy = nil, StrategyFallback
		}
	}()
	for _, s := range strategies {
		if r, ok := s.fn(text); ok {
			return r, s.name
		}
	}
	return nil, StrategyFallback
}

// parseFenced decodes the first ```json fence, else the first generic fence,
// else the whole trimmed text.
func parseFenced(text string) (model.Result, bool) {
	candidate := strings.TrimSpace(text)
	switch {
	case strings.Contains(text, "```json"):
		after := strings.SplitN(text, "```json", 2)[1]
		candidate = strings.TrimSpace(strings.SplitN(after, "```", 2)[0])
	case strings.Contains(text, "```"):
		parts := strings.SplitN(text, "```", 3)
		candidate = strings.TrimSpace(parts[1])
	}
	return decodeObject(candidate)
}

// parseBraceSpan decodes the widest {...} span after folding newlines.
func parseBraceSpan(text string) (model.Result, bool) {
	flat := strings.ReplaceAll(text, "\n", " ")
	span := braceSpan.FindString(flat)
	if span == "" {
		return nil, false
	}
	return decodeObject(span)
}

func decodeObject(s string) (model.Result, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return nil, false
	}
	return model.Result(out), true
}
