package refresh

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/estate-cli/internal/config"
	"github.com/sells-group/estate-cli/internal/scrape"
)

// Refresher re-collects data for cities. *scrape.Runner satisfies it.
type Refresher interface {
	Run(ctx context.Context, cities []string) ([]scrape.SourceResult, error)
}

// Scheduler runs refreshes periodically and on demand. At most one refresh
// runs at a time; cities requested while one is running are queued and
// refreshed together once it finishes.
type Scheduler struct {
	runner     Refresher
	cities     []string
	interval   time.Duration
	dataDir    string
	freshHours int

	// OnComplete, if set, is called with the cities of each finished refresh.
	OnComplete func(cities []string)

	ctx     context.Context
	mu      sync.Mutex
	stopped bool
	running bool
	pending []string
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler for the configured cities and frequency.
// Every refresh runs under ctx, and no new refresh starts once it is done.
func NewScheduler(ctx context.Context, runner Refresher, cfg config.ScrapeConfig, dataDir string) *Scheduler {
	hours := cfg.FrequencyHours
	if hours <= 0 {
		hours = DefaultFreshHours
	}
	return &Scheduler{
		runner:     runner,
		cities:     cfg.Cities,
		interval:   time.Duration(hours) * time.Hour,
		dataDir:    dataDir,
		freshHours: hours,
		ctx:        ctx,
	}
}

// Run starts the periodic refresh loop. It blocks until the scheduler's
// context is cancelled and then waits for any in-flight refresh to stop.
func (s *Scheduler) Run() {
	log := zap.L().With(zap.String("component", "refresh.scheduler"))
	log.Info("starting refresh scheduler",
		zap.Duration("interval", s.interval),
		zap.Strings("cities", s.cities),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			s.wg.Wait()
			log.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.Trigger(s.cities)
		}
	}
}

// Trigger starts a background refresh of cities and returns immediately. It
// reports false when a refresh was already running and the cities were
// queued behind it instead, or when the scheduler has stopped.
func (s *Scheduler) Trigger(cities []string) bool {
	if len(cities) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.ctx.Err() != nil {
		zap.L().Info("refresh: scheduler stopped, ignoring trigger", zap.Strings("cities", cities))
		return false
	}

	if s.running {
		for _, c := range cities {
			if !slices.Contains(s.pending, c) {
				s.pending = append(s.pending, c)
			}
		}
		zap.L().Info("refresh: queued behind running refresh", zap.Strings("cities", cities))
		return false
	}

	s.running = true
	s.wg.Add(1)
	go s.loop(s.ctx, slices.Clone(cities))
	return true
}

// Running reports whether a refresh is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until no refresh is running.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, cities []string) {
	defer s.wg.Done()
	for {
		s.refresh(ctx, cities)

		s.mu.Lock()
		if len(s.pending) == 0 || ctx.Err() != nil {
			s.running = false
			s.pending = nil
			s.mu.Unlock()
			return
		}
		cities, s.pending = s.pending, nil
		s.mu.Unlock()
	}
}

func (s *Scheduler) refresh(ctx context.Context, cities []string) {
	log := zap.L().With(zap.Strings("cities", cities))
	start := time.Now()

	results, err := s.runner.Run(ctx, cities)
	if err != nil {
		log.Error("refresh: run failed", zap.Error(err))
	}

	saved := 0
	for _, r := range results {
		saved += r.Records
	}
	for _, st := range Snapshot(s.dataDir, cities, s.freshHours) {
		log.Debug("refresh: data status",
			zap.String("city", st.City),
			zap.String("status", st.Status),
			zap.Float64("age_hours", st.AgeHours),
		)
	}
	log.Info("refresh: complete",
		zap.Int("records", saved),
		zap.Duration("elapsed", time.Since(start)),
	)

	if s.OnComplete != nil {
		s.OnComplete(cities)
	}
}
