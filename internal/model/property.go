package model

import (
	"strings"
	"time"
)

// DateLayout is the on-disk format of transaction dates.
const DateLayout = "2006-01-02"

// Cities is the closed set of supported cities, in extraction order.
var Cities = []string{"Mumbai", "Bangalore", "Delhi"}

// Property types seen in listing tables.
const (
	PropertyFlat      = "Flat"
	PropertyApartment = "Apartment"
	PropertyVilla     = "Villa"
	PropertyPlot      = "Plot"
	PropertyRowHouse  = "Row House"
)

// Columns is the canonical column order for record tables.
var Columns = []string{
	"city",
	"locality",
	"property_type",
	"bedrooms",
	"area_sqft",
	"price_per_sqft",
	"price_total",
	"transaction_date",
	"source",
}

// PropertyRecord is one row of a city's listing table. PriceTotal is in lakhs.
type PropertyRecord struct {
	City            string    `json:"city"`
	Locality        string    `json:"locality"`
	PropertyType    string    `json:"property_type"`
	Bedrooms        int       `json:"bedrooms"`
	AreaSqft        float64   `json:"area_sqft"`
	PricePerSqft    float64   `json:"price_per_sqft"`
	PriceTotal      float64   `json:"price_total"`
	TransactionDate time.Time `json:"transaction_date"`
	Source          string    `json:"source"`
}

// Month returns the transaction month as YYYY-MM.
func (r PropertyRecord) Month() string {
	return r.TransactionDate.Format("2006-01")
}

// NormalizePropertyType folds Apartment into Flat and canonicalizes case for
// the known types. Unknown types are returned trimmed.
func NormalizePropertyType(t string) string {
	trimmed := strings.TrimSpace(t)
	switch strings.ToLower(trimmed) {
	case "flat", "apartment":
		return PropertyFlat
	case "villa":
		return PropertyVilla
	case "plot":
		return PropertyPlot
	case "row house":
		return PropertyRowHouse
	default:
		return trimmed
	}
}

// CanonicalCity maps a case-insensitive city name onto the supported set.
func CanonicalCity(name string) (string, bool) {
	for _, c := range Cities {
		if strings.EqualFold(strings.TrimSpace(name), c) {
			return c, true
		}
	}
	return "", false
}

// Localities returns the distinct localities of records in first-seen order.
func Localities(records []PropertyRecord) []string {
	seen := make(map[string]struct{}, 16)
	var out []string
	for _, r := range records {
		if r.Locality == "" {
			continue
		}
		if _, ok := seen[r.Locality]; ok {
			continue
		}
		seen[r.Locality] = struct{}{}
		out = append(out, r.Locality)
	}
	return out
}
