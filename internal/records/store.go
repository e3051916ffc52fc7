// Package records reads and writes the per-city listing tables that ground
// every answer.
//
// Layout under the data directory:
//
//	<dir>/<city>.csv            consolidated table
//	<dir>/<city>/<source>_<ts>.csv   timestamped partial tables
//	<dir>/<city>/*.xlsx         operator-supplied sheets
package records

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/model"
)

// DefaultRecencyDays is the partial-table window used when none is given.
const DefaultRecencyDays = 30

// Loader is anything that can produce a city's records.
type Loader interface {
	Load(ctx context.Context, city string, recencyDays int) ([]model.PropertyRecord, bool)
}

// Store reads listing tables from a data directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// CityDir is the directory holding a city's partial tables.
func (s *Store) CityDir(city string) string {
	return filepath.Join(s.dir, strings.ToLower(city))
}

// ConsolidatedPath is the path of a city's consolidated table.
func (s *Store) ConsolidatedPath(city string) string {
	return filepath.Join(s.dir, strings.ToLower(city)+".csv")
}

// Load returns the recent records for city. Partial tables modified within
// recencyDays are preferred; with none that recent every partial is used, and
// with no partials at all the consolidated table is read. The second return
// is false when nothing could be read.
func (s *Store) Load(ctx context.Context, city string, recencyDays int) ([]model.PropertyRecord, bool) {
	if recencyDays <= 0 {
		recencyDays = DefaultRecencyDays
	}
	log := zap.L().With(zap.String("city", city))

	cityDir := s.CityDir(city)
	if _, err := os.Stat(cityDir); err != nil {
		log.Debug("records: no city directory, using consolidated table", zap.String("dir", cityDir))
		return s.LoadConsolidated(city)
	}

	files, err := partialFiles(cityDir)
	if err != nil {
		log.Warn("records: list partial tables", zap.Error(err))
		return s.LoadConsolidated(city)
	}

	cutoff := s.now().Add(-time.Duration(recencyDays) * 24 * time.Hour)
	recent := make([]string, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			recent = append(recent, f)
		}
	}
	if len(recent) == 0 {
		if len(files) > 0 {
			log.Info("records: no recent partial tables, using all", zap.Int("files", len(files)))
		}
		recent = files
	}
	if len(recent) == 0 {
		log.Warn("records: no partial tables found")
		return s.LoadConsolidated(city)
	}

	var combined []model.PropertyRecord
	loaded := 0
	for _, path := range recent {
		if ctx.Err() != nil {
			break
		}
		recs, err := readTable(path)
		if err != nil {
			log.Warn("records: skipping unreadable table", zap.String("file", path), zap.Error(err))
			continue
		}
		loaded++
		combined = append(combined, recs...)
	}
	if loaded == 0 {
		return s.LoadConsolidated(city)
	}

	return Dedup(combined), true
}

// LoadConsolidated reads the city's consolidated table.
func (s *Store) LoadConsolidated(city string) ([]model.PropertyRecord, bool) {
	path := s.ConsolidatedPath(city)
	if _, err := os.Stat(path); err != nil {
		zap.L().Warn("records: no data for city", zap.String("city", city), zap.String("path", path))
		return nil, false
	}
	recs, err := ReadCSVFile(path)
	if err != nil {
		zap.L().Error("records: read consolidated table", zap.String("city", city), zap.Error(err))
		return nil, false
	}
	return recs, true
}

func partialFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "records: read city dir")
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func readTable(path string) ([]model.PropertyRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path)
	}
	return ReadCSVFile(path)
}
