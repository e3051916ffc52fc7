package records

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/model"
)

const defaultDebounce = 500 * time.Millisecond

type cacheKey struct {
	city string
	days int
}

type cacheEntry struct {
	recs     []model.PropertyRecord
	ok       bool
	loadedAt time.Time
}

// CachedStore memoises Store loads per (city, days). Entries expire after the
// TTL and are dropped when the watcher sees the city's files change.
type CachedStore struct {
	store    *Store
	ttl      time.Duration
	debounce time.Duration
	now      func() time.Time

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry

	pendingMu sync.Mutex
	pending   map[string]time.Time
}

// NewCachedStore wraps s. A zero ttl disables expiry.
func NewCachedStore(s *Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store:    s,
		ttl:      ttl,
		debounce: defaultDebounce,
		now:      time.Now,
		entries:  make(map[cacheKey]cacheEntry),
		pending:  make(map[string]time.Time),
	}
}

// Store returns the wrapped store.
func (c *CachedStore) Store() *Store {
	return c.store
}

// Load returns cached records, loading through the store on a miss. The
// returned slice is shared and must not be modified.
func (c *CachedStore) Load(ctx context.Context, city string, recencyDays int) ([]model.PropertyRecord, bool) {
	key := cacheKey{city: strings.ToLower(city), days: recencyDays}

	c.mu.RLock()
	e, hit := c.entries[key]
	c.mu.RUnlock()
	if hit && (c.ttl <= 0 || c.now().Sub(e.loadedAt) < c.ttl) {
		return e.recs, e.ok
	}

	recs, ok := c.store.Load(ctx, city, recencyDays)
	if ctx.Err() != nil {
		return recs, ok
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{recs: recs, ok: ok, loadedAt: c.now()}
	c.mu.Unlock()
	return recs, ok
}

// Invalidate drops every cached entry for city.
func (c *CachedStore) Invalidate(city string) {
	city = strings.ToLower(city)
	c.mu.Lock()
	for k := range c.entries {
		if k.city == city {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// InvalidateAll empties the cache.
func (c *CachedStore) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]cacheEntry)
	c.mu.Unlock()
}

// Watch invalidates entries as files under the data directory change. It
// blocks until ctx is done.
func (c *CachedStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "records: create watcher")
	}
	defer w.Close() //nolint:errcheck

	dir := c.store.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "records: create data dir")
	}
	if err := w.Add(dir); err != nil {
		return eris.Wrap(err, "records: watch data dir")
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if e.IsDir() {
			_ = w.Add(filepath.Join(dir, e.Name()))
		}
	}

	log := zap.L().With(zap.String("component", "records.watch"), zap.String("dir", dir))
	log.Info("watching data directory")

	ticker := time.NewTicker(c.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			c.handleEvent(w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			c.flushSettled()
		}
	}
}

func (c *CachedStore) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.Add(ev.Name)
		}
	}

	city := c.cityForPath(ev.Name)
	if city == "" {
		return
	}

	// Drop now so new loads go to disk, and again once writes settle in case
	// a load raced a half-written file.
	c.Invalidate(city)
	c.pendingMu.Lock()
	c.pending[city] = c.now()
	c.pendingMu.Unlock()
}

func (c *CachedStore) flushSettled() {
	now := c.now()
	var settled []string

	c.pendingMu.Lock()
	for city, at := range c.pending {
		if now.Sub(at) >= c.debounce {
			settled = append(settled, city)
			delete(c.pending, city)
		}
	}
	c.pendingMu.Unlock()

	for _, city := range settled {
		c.Invalidate(city)
		zap.L().Debug("records: cache invalidated", zap.String("city", city))
	}
}

// cityForPath maps <dir>/<city>.csv and <dir>/<city>/... to the city key.
func (c *CachedStore) cityForPath(path string) string {
	rel, err := filepath.Rel(c.store.Dir(), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) == 1 {
		return strings.ToLower(strings.TrimSuffix(parts[0], filepath.Ext(parts[0])))
	}
	return strings.ToLower(parts[0])
}
