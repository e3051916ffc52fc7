package main

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/estate-cli/internal/model"
	"github.com/sells-group/estate-cli/internal/scrape"
)

// --- answerer mock ---

type mockAnswerer struct {
	mock.Mock
}

func (m *mockAnswerer) Answer(ctx context.Context, query string) model.Result {
	args := m.Called(ctx, query)
	return args.Get(0).(model.Result)
}

// --- refreshTrigger fake ---

type fakeTrigger struct {
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeTrigger) Trigger(cities []string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cities)
	return true
}

// --- scrapeRunner mock ---

type mockScraper struct {
	mock.Mock
}

func (m *mockScraper) Run(ctx context.Context, cities []string) ([]scrape.SourceResult, error) {
	args := m.Called(ctx, cities)
	res, _ := args.Get(0).([]scrape.SourceResult)
	return res, args.Error(1)
}
