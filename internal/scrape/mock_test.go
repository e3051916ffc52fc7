package scrape

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/estate-cli/internal/model"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Scrape(ctx context.Context, city string) ([]model.PropertyRecord, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PropertyRecord), args.Error(1)
}

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) SavePartial(ctx context.Context, city, source string, recs []model.PropertyRecord) (string, error) {
	args := m.Called(ctx, city, source, recs)
	return args.String(0), args.Error(1)
}
