// Package scrape refreshes the per-city listing tables from listing sites
// and government feeds.
package scrape

import (
	"context"

	"github.com/sells-group/estate-cli/internal/model"
)

// Source produces fresh records for a city.
type Source interface {
	Name() string
	Scrape(ctx context.Context, city string) ([]model.PropertyRecord, error)
}

// PageFetcher downloads a page body.
type PageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
