package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/estate-cli/internal/config"
	"github.com/sells-group/estate-cli/internal/metrics"
	"github.com/sells-group/estate-cli/internal/model"
)

// Saver persists one source's records for a city.
type Saver interface {
	SavePartial(ctx context.Context, city, source string, recs []model.PropertyRecord) (string, error)
}

// SourceResult summarises one source run for one city.
type SourceResult struct {
	City    string `json:"city"`
	Source  string `json:"source"`
	Records int    `json:"records"`
	File    string `json:"file,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Runner scrapes every enabled source for a set of cities.
type Runner struct {
	sources     []Source
	saver       Saver
	concurrency int
}

// NewRunner creates a Runner. concurrency bounds how many sources run at
// once and defaults to 3.
func NewRunner(saver Saver, concurrency int, sources ...Source) *Runner {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &Runner{sources: sources, saver: saver, concurrency: concurrency}
}

// Sources returns the configured sources.
func (r *Runner) Sources() []Source { return r.sources }

// FromConfig builds a Runner with the sources enabled in cfg.
func FromConfig(cfg config.ScrapeConfig, saver Saver) (*Runner, error) {
	var sources []Source

	if cfg.EnableMagicbricks || cfg.EnableHousing {
		sites, err := LoadSites(cfg.SourcesFile)
		if err != nil {
			return nil, err
		}
		fetch := NewFetcher(OptionsFromConfig(cfg))
		for _, want := range []struct {
			name    string
			enabled bool
		}{
			{"magicbricks", cfg.EnableMagicbricks},
			{"housing_com", cfg.EnableHousing},
		} {
			if !want.enabled {
				continue
			}
			site, ok := Site(sites, want.name)
			if !ok {
				return nil, eris.Errorf("scrape: site %q missing from sources", want.name)
			}
			sources = append(sources, NewListingSite(site, fetch, cfg.MaxPagesPerSite))
		}
	}
	if cfg.EnableGovernment {
		sources = append(sources, NewGovernmentSource(cfg.GovernmentRecords, 0))
	}
	return NewRunner(saver, cfg.Concurrency, sources...), nil
}

// Run scrapes cities. A failing source is logged and recorded in its result;
// only context cancellation aborts the run.
func (r *Runner) Run(ctx context.Context, cities []string) ([]SourceResult, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "scrape.runner"))

	var (
		mu      sync.Mutex
		results []SourceResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, city := range cities {
		for _, src := range r.sources {
			g.Go(func() error {
				res := r.runOne(gctx, city, src)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
				return gctx.Err()
			})
		}
	}
	err := g.Wait()

	total := 0
	for _, res := range results {
		total += res.Records
	}
	log.Info("scrape: run complete",
		zap.Strings("cities", cities),
		zap.Int("sources", len(r.sources)),
		zap.Int("records", total),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		return results, eris.Wrap(err, "scrape: run")
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, city string, src Source) SourceResult {
	res := SourceResult{City: city, Source: src.Name()}
	log := zap.L().With(zap.String("city", city), zap.String("source", src.Name()))

	recs, err := src.Scrape(ctx, city)
	if err != nil {
		metrics.ScrapeErrors.WithLabelValues(src.Name()).Inc()
		log.Warn("scrape: source failed", zap.Error(err))
		res.Error = err.Error()
		return res
	}

	recs = Clean(recs)
	if len(recs) == 0 {
		log.Warn("scrape: no usable records")
		return res
	}

	// Registry records carry their own tag; name the partial after it.
	tag := src.Name()
	if recs[0].Source != "" {
		tag = recs[0].Source
	}
	res.Source = tag

	path, err := r.saver.SavePartial(ctx, city, tag, recs)
	if err != nil {
		metrics.ScrapeErrors.WithLabelValues(tag).Inc()
		log.Error("scrape: save failed", zap.Error(err))
		res.Error = err.Error()
		return res
	}
	metrics.ScrapedRecords.WithLabelValues(tag, city).Add(float64(len(recs)))
	res.Records = len(recs)
	res.File = path
	return res
}
