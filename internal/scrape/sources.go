package scrape

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed sources.yaml
var defaultSources []byte

// Selectors are the class selectors for one site's listing cards.
type Selectors struct {
	Card     string `yaml:"card"`
	Price    string `yaml:"price"`
	Area     string `yaml:"area"`
	Locality string `yaml:"locality"`
	Type     string `yaml:"type"`
	BHK      string `yaml:"bhk"`
}

// SiteConfig describes a listing site.
type SiteConfig struct {
	Name        string    `yaml:"name"`
	URL         string    `yaml:"url"`
	Selectors   Selectors `yaml:"selectors"`
	DefaultType string    `yaml:"default_type"`
}

// PageURL expands the URL template for city and page.
func (s SiteConfig) PageURL(city string, page int) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), " ", "-")
	return strings.NewReplacer("{city}", slug, "{page}", strconv.Itoa(page)).Replace(s.URL)
}

type sourcesFile struct {
	Sites []SiteConfig `yaml:"sites"`
}

// LoadSites reads site definitions from path, or the built-in definitions
// when path is empty.
func LoadSites(path string) ([]SiteConfig, error) {
	data := defaultSources
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "scrape: read sources file")
		}
		data = b
	}
	return parseSites(data)
}

func parseSites(data []byte) ([]SiteConfig, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "scrape: parse sources")
	}
	for i, s := range f.Sites {
		if s.Name == "" || s.URL == "" || s.Selectors.Card == "" {
			return nil, eris.Errorf("scrape: site %d needs name, url and card selector", i)
		}
	}
	return f.Sites, nil
}

// Site returns the named site from sites.
func Site(sites []SiteConfig, name string) (SiteConfig, bool) {
	for _, s := range sites {
		if s.Name == name {
			return s, true
		}
	}
	return SiteConfig{}, false
}
