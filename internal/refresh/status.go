// Package refresh reports how fresh each city's data is and keeps it fresh by
// re-running the scrapers on a schedule or on demand.
package refresh

import (
	"math"
	"os"
	"time"

	"github.com/sells-group/estate-cli/internal/metrics"
	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/records"
)

// DefaultFreshHours is the age below which data counts as fresh.
const DefaultFreshHours = 24

const lastUpdatedLayout = "2006-01-02 15:04:05"

// Status reports the freshness of city's consolidated table under dataDir.
func Status(dataDir, city string, freshHours int) model.DataStatus {
	return statusAt(dataDir, city, freshHours, time.Now())
}

func statusAt(dataDir, city string, freshHours int, now time.Time) model.DataStatus {
	if freshHours <= 0 {
		freshHours = DefaultFreshHours
	}
	path := records.NewStore(dataDir).ConsolidatedPath(city)

	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return model.DataStatus{
			City:    city,
			Status:  model.DataMissing,
			Message: "No data available for " + city,
		}
	}

	age := now.Sub(fi.ModTime()).Hours()
	metrics.DataAgeHours.WithLabelValues(city).Set(age)

	return model.DataStatus{
		City:        city,
		Status:      model.DataAvailable,
		LastUpdated: fi.ModTime().Local().Format(lastUpdatedLayout),
		AgeHours:    math.Round(age*10) / 10,
		IsFresh:     age < float64(freshHours),
		SizeKB:      math.Round(float64(fi.Size())/1024*10) / 10,
	}
}

// Snapshot reports Status for every city, in order.
func Snapshot(dataDir string, cities []string, freshHours int) []model.DataStatus {
	now := time.Now()
	out := make([]model.DataStatus, 0, len(cities))
	for _, c := range cities {
		out = append(out, statusAt(dataDir, c, freshHours, now))
	}
	return out
}
