package scrape

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/estate-cli/internal/model"
)

// ListingSite scrapes search-result pages of a commercial listing site.
type ListingSite struct {
	site     SiteConfig
	fetch    PageFetcher
	maxPages int
	now      func() time.Time

	card, price, area, locality, ptype, bhk selector
}

// NewListingSite creates a source for site. maxPages defaults to 3.
func NewListingSite(site SiteConfig, fetch PageFetcher, maxPages int) *ListingSite {
	if maxPages <= 0 {
		maxPages = 3
	}
	return &ListingSite{
		site:     site,
		fetch:    fetch,
		maxPages: maxPages,
		now:      time.Now,
		card:     parseSelector(site.Selectors.Card),
		price:    parseSelector(site.Selectors.Price),
		area:     parseSelector(site.Selectors.Area),
		locality: parseSelector(site.Selectors.Locality),
		ptype:    parseSelector(site.Selectors.Type),
		bhk:      parseSelector(site.Selectors.BHK),
	}
}

// Name returns the site name, used as the record source tag.
func (l *ListingSite) Name() string { return l.site.Name }

// Scrape walks result pages until one has no cards, a page fails, or
// maxPages is reached. Only a failure on the first page is an error.
func (l *ListingSite) Scrape(ctx context.Context, city string) ([]model.PropertyRecord, error) {
	log := zap.L().With(zap.String("source", l.site.Name), zap.String("city", city))
	var out []model.PropertyRecord

	for page := 1; page <= l.maxPages; page++ {
		url := l.site.PageURL(city, page)
		body, err := l.fetch.Get(ctx, url)
		if err != nil {
			if page == 1 {
				return nil, eris.Wrapf(err, "scrape: %s page 1", l.site.Name)
			}
			log.Warn("scrape: stopping at failed page", zap.Int("page", page), zap.Error(err))
			break
		}

		recs, err := l.ParsePage(body, city)
		if err != nil {
			log.Warn("scrape: parse page", zap.Int("page", page), zap.Error(err))
			break
		}
		if len(recs) == 0 {
			log.Info("scrape: no listing cards", zap.Int("page", page))
			break
		}
		log.Debug("scrape: page extracted", zap.Int("page", page), zap.Int("cards", len(recs)))
		out = append(out, recs...)
	}
	return out, nil
}

// ParsePage extracts one record per listing card in body.
func (l *ListingSite) ParsePage(body []byte, city string) ([]model.PropertyRecord, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}

	y, m, d := l.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	cards := selectAll(doc, l.card)
	out := make([]model.PropertyRecord, 0, len(cards))
	for _, c := range cards {
		lakhs := PriceLakhs(selectText(c, l.price))
		sqft := AreaSqft(selectText(c, l.area))
		locality := selectText(c, l.locality)
		if locality == "" {
			locality = "N/A"
		}
		out = append(out, model.PropertyRecord{
			City:            city,
			Locality:        locality,
			PropertyType:    l.propertyType(selectText(c, l.ptype)),
			Bedrooms:        Bedrooms(selectText(c, l.bhk)),
			AreaSqft:        sqft,
			PricePerSqft:    PricePerSqft(lakhs, sqft),
			PriceTotal:      lakhs,
			TransactionDate: today,
			Source:          l.site.Name,
		})
	}
	return out, nil
}

// propertyType maps free card text onto a known type.
func (l *ListingSite) propertyType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "apartment"), strings.Contains(lower, "flat"):
		return model.PropertyFlat
	case strings.Contains(lower, "villa"):
		return model.PropertyVilla
	case strings.Contains(lower, "plot"):
		return model.PropertyPlot
	case strings.Contains(lower, "house"):
		return model.PropertyRowHouse
	}
	if l.site.DefaultType != "" {
		return l.site.DefaultType
	}
	return model.PropertyFlat
}
