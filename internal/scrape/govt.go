package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estate-cli/internal/generate"
	"github.com/sells-group/estate-cli/internal/model"
)

// DefaultGovernmentRecords is the table size produced per city.
const DefaultGovernmentRecords = 1500

// govtTags names the registry each city's records are attributed to.
var govtTags = map[string]string{
	"Mumbai":    "maharera",
	"Delhi":     "delhi_govt",
	"Bangalore": "bangalore_govt",
}

// GovernmentSource stands in for the state registration registries, which
// publish no machine-readable feed. It emits synthetic records shaped like
// the registry data.
type GovernmentSource struct {
	records int
	seed    uint64
	now     func() time.Time
}

// NewGovernmentSource creates the source. n defaults to 1500 per city.
func NewGovernmentSource(n int, seed uint64) *GovernmentSource {
	if n <= 0 {
		n = DefaultGovernmentRecords
	}
	if seed == 0 {
		seed = generate.DefaultSeed
	}
	return &GovernmentSource{records: n, seed: seed, now: time.Now}
}

// Name returns "government".
func (g *GovernmentSource) Name() string { return "government" }

// GovernmentTag returns the source tag written on city's records.
func GovernmentTag(city string) (string, bool) {
	c, ok := model.CanonicalCity(city)
	if !ok {
		return "", false
	}
	tag, ok := govtTags[c]
	return tag, ok
}

// Scrape returns the city's registry records.
func (g *GovernmentSource) Scrape(ctx context.Context, city string) ([]model.PropertyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scrape: government")
	}
	tag, ok := GovernmentTag(city)
	if !ok {
		return nil, eris.Errorf("scrape: no government source for %s", strings.TrimSpace(city))
	}
	recs, err := generate.CityData(city, g.records, g.seed, g.now())
	if err != nil {
		return nil, eris.Wrap(err, "scrape: government")
	}
	for i := range recs {
		recs[i].Source = tag
	}
	return recs, nil
}
