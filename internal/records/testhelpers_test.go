package records

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/estate-cli/internal/model"
)

const csvHeader = "city,locality,property_type,bedrooms,area_sqft,price_per_sqft,price_total,transaction_date\n"

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setMtime(t *testing.T, path string, mt time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mt, mt))
}

func rec(locality, ptype string, bhk int, area, ppsf float64, date string) model.PropertyRecord {
	d, _ := time.Parse(model.DateLayout, date)
	return model.PropertyRecord{
		City:            "Bangalore",
		Locality:        locality,
		PropertyType:    ptype,
		Bedrooms:        bhk,
		AreaSqft:        area,
		PricePerSqft:    ppsf,
		PriceTotal:      area * ppsf / 100000,
		TransactionDate: d,
	}
}
