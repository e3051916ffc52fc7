package refresh

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/estate-cli/internal/scrape"
)

// --- Refresher mock ---

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Run(ctx context.Context, cities []string) ([]scrape.SourceResult, error) {
	args := m.Called(ctx, cities)
	res, _ := args.Get(0).([]scrape.SourceResult)
	return res, args.Error(1)
}

// blockingRefresher records each call and holds it until released.
type blockingRefresher struct {
	mu      sync.Mutex
	calls   [][]string
	started chan struct{}
	release chan struct{}
}

func newBlockingRefresher() *blockingRefresher {
	return &blockingRefresher{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (b *blockingRefresher) Run(ctx context.Context, cities []string) ([]scrape.SourceResult, error) {
	b.mu.Lock()
	b.calls = append(b.calls, cities)
	b.mu.Unlock()
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil, nil
}

func (b *blockingRefresher) Calls() [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]string(nil), b.calls...)
}
