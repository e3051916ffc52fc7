// Package render formats answers for terminal output.
package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/sells-group/estate-cli/internal/model"
)

// Banner heads every formatted answer.
const Banner = "REAL ESTATE QUERY RESPONSE"

var rule = strings.Repeat("=", 50)

// field is one labeled value in a formatted answer. Inline fields print as
// "label: value"; block fields print the label on its own line.
type field struct {
	label    string
	key      string
	prefix   string
	suffix   string
	fallback string
	block    bool
}

var layouts = map[model.QueryIntent][]field{
	model.IntentPricePrediction: {
		{label: "🏠 Predicted Price", key: "predicted_price_lakhs", prefix: "₹", suffix: " lakhs", fallback: "N/A"},
		{label: "🔄 Price Range", key: "predicted_price_range", fallback: "N/A"},
		{label: "💡 Explanation", key: "explanation", fallback: "No explanation provided.", block: true},
	},
	model.IntentMarketTrend: {
		{label: "📈 Market Direction", key: "market_direction", fallback: "N/A"},
		{label: "🔄 Expected Annual Growth", key: "expected_annual_growth_percent", suffix: "%", fallback: "N/A"},
		{label: "💡 Analysis", key: "analysis", fallback: "No analysis provided.", block: true},
	},
	model.IntentComparison: {
		{label: "📊 Comparison", key: "comparison_table", fallback: "No comparison data available.", block: true},
		{label: "🏆 Recommendation", key: "recommendation", fallback: "N/A"},
		{label: "💡 Reasoning", key: "reasoning", fallback: "No reasoning provided.", block: true},
	},
	model.IntentInvestmentAdvice: {
		{label: "💰 Investment Recommendation", key: "investment_recommendation", fallback: "N/A"},
		{label: "📈 Projected Annual ROI", key: "projected_annual_roi_percent", suffix: "%", fallback: "N/A"},
		{label: "💡 Investment Analysis", key: "investment_analysis", fallback: "No analysis provided.", block: true},
	},
	model.IntentRegulation: {
		{label: "⚖️ Legal Information", key: "legal_information", fallback: "No legal information available.", block: true},
		{label: "📋 Practical Steps", key: "practical_steps", fallback: "No practical steps provided.", block: true},
		{label: "⚠️ Disclaimer", key: "disclaimer", fallback: "N/A", block: true},
	},
	model.IntentGeneral: {
		{label: "💡 Answer", key: "answer", fallback: "No answer provided.", block: true},
		{label: "📚 References", key: "references", block: true},
	},
}

// Styles controls how banner, labels and errors are decorated.
type Styles struct {
	Banner lipgloss.Style
	Rule   lipgloss.Style
	Label  lipgloss.Style
	Error  lipgloss.Style
}

// Plain applies no decoration.
func Plain() Styles {
	s := lipgloss.NewStyle()
	return Styles{Banner: s, Rule: s, Label: s, Error: s}
}

// Color decorates output for an ANSI terminal.
func Color() Styles {
	return Styles{
		Banner: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Rule:   lipgloss.NewStyle().Foreground(lipgloss.Color("#2a3850")),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3")),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935")),
	}
}

// FormatCLI renders res as plain text.
func FormatCLI(res model.Result) string {
	return Format(res, Plain())
}

// Styled renders res with terminal colors.
func Styled(res model.Result) string {
	return Format(res, Color())
}

// ForWriter renders res styled when w is a terminal and plain otherwise.
func ForWriter(w io.Writer, res model.Result) string {
	if f, ok := w.(*os.File); ok && IsTerminal(f) {
		return Styled(res)
	}
	return FormatCLI(res)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Format renders res with st. Results without a known query_type are shown
// as price predictions.
func Format(res model.Result, st Styles) string {
	if res.IsError() {
		return st.Error.Render("Error:") + " " + value(res[model.KeyError], "")
	}

	intent := res.Intent()
	fields, ok := layouts[intent]
	if !ok {
		fields = layouts[model.IntentPricePrediction]
	}

	var b strings.Builder
	b.WriteString("\n" + st.Rule.Render(rule) + "\n")
	b.WriteString(st.Banner.Render(Banner) + "\n")
	b.WriteString(st.Rule.Render(rule) + "\n\n")

	for i, f := range fields {
		text := value(res[f.key], f.fallback)
		if text == "" {
			continue
		}
		text = f.prefix + text + f.suffix

		if f.block {
			b.WriteString(st.Label.Render(f.label+":") + "\n" + text + "\n")
		} else {
			b.WriteString(st.Label.Render(f.label+":") + " " + text + "\n")
		}
		// Blank line after blocks and before the next block.
		if i+1 < len(fields) && (f.block || fields[i+1].block) {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + st.Rule.Render(rule))
	return b.String()
}

func value(v any, fallback string) string {
	switch t := v.(type) {
	case nil:
		return fallback
	case string:
		if t == "" {
			return fallback
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
