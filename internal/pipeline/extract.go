package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/estate-cli/internal/model"
)

var bhkPattern = regexp.MustCompile(`(\d+)\s*bhk`)

// typeKeywords are checked in order, so a BHK count means Flat even when a
// villa or plot is also named. Apartment rows are stored as Flat.
var typeKeywords = []struct {
	keywords []string
	ptype    string
}{
	{[]string{"flat", "bhk"}, model.PropertyFlat},
	{[]string{"villa"}, model.PropertyVilla},
	{[]string{"plot"}, model.PropertyPlot},
	{[]string{"apartment"}, model.PropertyFlat},
}

// ExtractCity returns the first supported city named in query.
func ExtractCity(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, c := range model.Cities {
		if strings.Contains(q, strings.ToLower(c)) {
			return c, true
		}
	}
	return "", false
}

// Extract pulls the city, locality, property type and bedroom count out of
// query. Localities are matched against vocabulary, typically the distinct
// localities of the city's table.
func Extract(query string, vocabulary []string) model.Filters {
	q := strings.ToLower(query)
	var f model.Filters

	f.City, _ = ExtractCity(query)

	for _, loc := range vocabulary {
		if loc != "" && strings.Contains(q, strings.ToLower(loc)) {
			f.Locality = loc
			break
		}
	}

types:
	for _, tk := range typeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(q, kw) {
				f.PropertyType = tk.ptype
				break types
			}
		}
	}

	if m := bhkPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Bedrooms = n
		}
	}
	return f
}

// Vocabulary returns the distinct localities of recs in first-seen order.
func Vocabulary(recs []model.PropertyRecord) []string {
	return model.Localities(recs)
}

// Narrow applies the locality, property type and bedroom filters in that
// order. A filter that would leave nothing is skipped, so a non-empty input
// never narrows to an empty result.
func Narrow(recs []model.PropertyRecord, f model.Filters) []model.PropertyRecord {
	out := recs
	if f.Locality != "" {
		out = keep(out, func(r model.PropertyRecord) bool { return r.Locality == f.Locality })
	}
	if f.PropertyType != "" {
		want := model.NormalizePropertyType(f.PropertyType)
		out = keep(out, func(r model.PropertyRecord) bool {
			return model.NormalizePropertyType(r.PropertyType) == want
		})
	}
	if f.Bedrooms > 0 {
		out = keep(out, func(r model.PropertyRecord) bool { return r.Bedrooms == f.Bedrooms })
	}
	return out
}

// keep returns the rows matching pred, or recs unchanged when none match.
func keep(recs []model.PropertyRecord, pred func(model.PropertyRecord) bool) []model.PropertyRecord {
	var out []model.PropertyRecord
	for _, r := range recs {
		if pred(r) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return recs
	}
	return out
}
