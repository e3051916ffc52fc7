package records

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/model"
)

// Writer persists scraped or generated records.
type Writer struct {
	store *Store
	now   func() time.Time

	mu sync.Mutex // serialises consolidated merges
}

// NewWriter creates a Writer for the store's data directory.
func NewWriter(s *Store) *Writer {
	return &Writer{store: s, now: time.Now}
}

// SavePartial writes recs as <city>/<source>_<YYYYmmdd_HHMMSS>.csv and merges
// them into the consolidated table. It returns the partial file path.
func (w *Writer) SavePartial(ctx context.Context, city, source string, recs []model.PropertyRecord) (string, error) {
	if len(recs) == 0 {
		return "", eris.Errorf("records: no %s records to save for %s", source, city)
	}
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "records: save partial")
	}

	name := fmt.Sprintf("%s_%s.csv", strings.ToLower(source), w.now().Format("20060102_150405"))
	path := filepath.Join(w.store.CityDir(city), name)
	if err := WriteCSVFile(path, recs); err != nil {
		return "", eris.Wrap(err, "records: write partial")
	}

	if err := w.Merge(city, recs); err != nil {
		return path, err
	}

	zap.L().Info("records: saved partial table",
		zap.String("city", city),
		zap.String("source", source),
		zap.String("file", path),
		zap.Int("records", len(recs)),
	)
	return path, nil
}

// Merge appends recs to the consolidated table, dropping rows that repeat an
// existing listing.
func (w *Writer) Merge(city string, recs []model.PropertyRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.store.ConsolidatedPath(city)
	var existing []model.PropertyRecord
	if _, err := os.Stat(path); err == nil {
		existing, err = ReadCSVFile(path)
		if err != nil {
			return eris.Wrap(err, "records: read consolidated table")
		}
	}

	combined := Coalesce(append(existing, recs...))
	if err := WriteCSVFile(path, combined); err != nil {
		return eris.Wrap(err, "records: write consolidated table")
	}
	return nil
}

// WriteConsolidated replaces a city's consolidated table.
func (w *Writer) WriteConsolidated(city string, recs []model.PropertyRecord) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	path := w.store.ConsolidatedPath(city)
	if err := WriteCSVFile(path, recs); err != nil {
		return "", err
	}
	return path, nil
}
