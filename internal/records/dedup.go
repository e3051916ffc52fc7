package records

import (
	"fmt"

	"github.com/sells-group/estate-cli/internal/model"
)

func rowKey(r model.PropertyRecord) string {
	return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%d\x1f%v\x1f%v\x1f%v\x1f%s\x1f%s",
		r.City, r.Locality, r.PropertyType, r.Bedrooms,
		r.AreaSqft, r.PricePerSqft, r.PriceTotal,
		r.TransactionDate.Format(model.DateLayout), r.Source)
}

// listingKey identifies the same listing seen twice, possibly from
// different sources or scrapes.
func listingKey(r model.PropertyRecord) string {
	return fmt.Sprintf("%s\x1f%s\x1f%d\x1f%v\x1f%v",
		r.Locality, r.PropertyType, r.Bedrooms, r.AreaSqft, r.PriceTotal)
}

// Dedup removes exact duplicate rows. The first occurrence wins and order is
// preserved.
func Dedup(recs []model.PropertyRecord) []model.PropertyRecord {
	return dedupBy(recs, rowKey)
}

// Coalesce removes rows describing the same listing, keeping the first.
func Coalesce(recs []model.PropertyRecord) []model.PropertyRecord {
	return dedupBy(recs, listingKey)
}

func dedupBy(recs []model.PropertyRecord, key func(model.PropertyRecord) string) []model.PropertyRecord {
	seen := make(map[string]struct{}, len(recs))
	out := make([]model.PropertyRecord, 0, len(recs))
	for _, r := range recs {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
