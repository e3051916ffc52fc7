package scrape

import (
	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/records"
)

// Plausible price per sq.ft bounds, in rupees.
const (
	minPricePerSqft = 1000
	maxPricePerSqft = 100000
)

// Clean drops exact duplicates and rows without a price or area. With more
// than ten rows left it also drops implausible price per sq.ft values.
func Clean(recs []model.PropertyRecord) []model.PropertyRecord {
	recs = records.Dedup(recs)

	out := make([]model.PropertyRecord, 0, len(recs))
	for _, r := range recs {
		if r.PriceTotal <= 0 || r.AreaSqft <= 0 {
			continue
		}
		out = append(out, r)
	}

	if len(out) <= 10 {
		return out
	}
	kept := out[:0]
	for _, r := range out {
		if r.PricePerSqft > minPricePerSqft && r.PricePerSqft < maxPricePerSqft {
			kept = append(kept, r)
		}
	}
	return kept
}
