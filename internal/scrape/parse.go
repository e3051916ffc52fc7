package scrape

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberPattern = regexp.MustCompile(`(\d+\.?\d*)`)
	bhkPattern    = regexp.MustCompile(`(\d+)\s*bhk`)
	intPattern    = regexp.MustCompile(`(\d+)`)
)

// sqmToSqft converts square metres to square feet.
const sqmToSqft = 10.764

func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindStringSubmatch(strings.ReplaceAll(s, ",", ""))
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return v, err == nil
}

// PriceLakhs converts listing price text to lakhs of rupees. Crore values are
// scaled by 100; bare numbers above 10000 are treated as rupees, smaller ones
// as thousands. Unparseable text yields 0.
func PriceLakhs(text string) float64 {
	lower := strings.ToLower(text)
	v, ok := firstNumber(lower)
	if !ok {
		return 0
	}
	switch {
	case strings.Contains(lower, "cr"):
		return v * 100
	case strings.Contains(lower, "lac"), strings.Contains(lower, "lakh"):
		return v
	case v > 10000:
		return v / 100000
	default:
		return v / 100
	}
}

// AreaSqft converts area text to square feet, converting square metres.
func AreaSqft(text string) float64 {
	v, ok := firstNumber(text)
	if !ok {
		return 0
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "sq.m") || strings.Contains(lower, "sqm") {
		return v * sqmToSqft
	}
	return v
}

// Bedrooms reads "3 BHK" style text, falling back to the first integer and
// then to 1.
func Bedrooms(text string) int {
	lower := strings.ToLower(text)
	if m := bhkPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	if m := intPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 1
}

// PricePerSqft derives rupees per square foot, or 0 when either input is
// missing.
func PricePerSqft(lakhs, sqft float64) float64 {
	if lakhs <= 0 || sqft <= 0 {
		return 0
	}
	return math.Round(lakhs * 100000 / sqft)
}
