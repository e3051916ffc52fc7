// Package generate produces synthetic listing tables for demos and for the
// government-source placeholder scrapers.
package generate

import (
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/records"
)

// DefaultSeed makes generated tables reproducible.
const DefaultSeed uint64 = 42

// DefaultRecords is the table size written by All.
const DefaultRecords = 200

// CityParams describes a city's price and size distribution.
type CityParams struct {
	Localities []string
	PriceMean  float64 // per sq.ft
	PriceStd   float64
	AreaMean   float64 // sq.ft
	AreaStd    float64
}

// Params holds the distribution for each supported city.
var Params = map[string]CityParams{
	"Mumbai": {
		Localities: []string{"Andheri", "Bandra", "Worli", "Powai", "Juhu", "Malad", "Goregaon"},
		PriceMean:  30000, PriceStd: 8000,
		AreaMean: 1000, AreaStd: 300,
	},
	"Bangalore": {
		Localities: []string{"Koramangala", "HSR Layout", "Indiranagar", "Whitefield", "Electronic City", "Jayanagar"},
		PriceMean:  8000, PriceStd: 2000,
		AreaMean: 1200, AreaStd: 350,
	},
	"Delhi": {
		Localities: []string{"Vasant Kunj", "Dwarka", "Rohini", "Greater Kailash", "South Extension", "Mayur Vihar"},
		PriceMean:  15000, PriceStd: 4500,
		AreaMean: 1100, AreaStd: 320,
	},
}

type weighted[T any] struct {
	value  T
	weight float64
}

var propertyTypes = []weighted[string]{
	{model.PropertyApartment, 0.70},
	{model.PropertyVilla, 0.15},
	{model.PropertyPlot, 0.10},
	{model.PropertyRowHouse, 0.05},
}

var bedroomCounts = []weighted[int]{
	{1, 0.10}, {2, 0.30}, {3, 0.40}, {4, 0.15}, {5, 0.05},
}

func pick[T any](rng *rand.Rand, choices []weighted[T]) T {
	r := rng.Float64()
	acc := 0.0
	for _, c := range choices {
		acc += c.weight
		if r < acc {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}

// CityData generates n records for city. The same seed and now always yield
// the same table. Rows with a non-positive area are dropped, so fewer than n
// may be returned.
func CityData(city string, n int, seed uint64, now time.Time) ([]model.PropertyRecord, error) {
	canonical, ok := model.CanonicalCity(city)
	if !ok {
		return nil, eris.Errorf("generate: no parameters for city %q", city)
	}
	p := Params[canonical]
	rng := rand.New(rand.NewPCG(seed, seed))

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]model.PropertyRecord, 0, n)
	for i := 0; i < n; i++ {
		area := math.Round(p.AreaMean + rng.NormFloat64()*p.AreaStd)
		ppsf := math.Round(p.PriceMean + rng.NormFloat64()*p.PriceStd)
		rec := model.PropertyRecord{
			City:            canonical,
			Locality:        p.Localities[rng.IntN(len(p.Localities))],
			PropertyType:    pick(rng, propertyTypes),
			Bedrooms:        pick(rng, bedroomCounts),
			AreaSqft:        area,
			PricePerSqft:    ppsf,
			PriceTotal:      math.Round(area*ppsf/100000*100) / 100,
			TransactionDate: today.AddDate(0, 0, -(1 + rng.IntN(364))),
		}
		if rec.AreaSqft <= 0 {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Options controls All.
type Options struct {
	Cities  []string
	Records int
	Seed    uint64
	Force   bool
	Now     time.Time
}

// All writes a synthetic consolidated table for every city that lacks one
// (or every city when Force is set). It returns the paths written.
func All(s *records.Store, opts Options) ([]string, error) {
	if len(opts.Cities) == 0 {
		opts.Cities = model.Cities
	}
	if opts.Records <= 0 {
		opts.Records = DefaultRecords
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	w := records.NewWriter(s)
	var written []string
	for _, city := range opts.Cities {
		path := s.ConsolidatedPath(city)
		if _, err := os.Stat(path); err == nil && !opts.Force {
			zap.L().Info("generate: data exists, skipping", zap.String("city", city), zap.String("path", path))
			continue
		}

		recs, err := CityData(city, opts.Records, opts.Seed, opts.Now)
		if err != nil {
			return written, err
		}
		if _, err := w.WriteConsolidated(city, recs); err != nil {
			return written, eris.Wrapf(err, "generate: write %s", city)
		}
		zap.L().Info("generate: wrote synthetic data",
			zap.String("city", city),
			zap.String("path", path),
			zap.Int("records", len(recs)),
		)
		written = append(written, path)
	}
	return written, nil
}
