package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/estate-cli/internal/gateway"
	"github.com/sells-group/estate-cli/internal/model"
)

// --- Generator mock ---

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Name() string { return "gemini" }

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (gateway.Completion, error) {
	args := m.Called(ctx, prompt)
	return args.Get(0).(gateway.Completion), args.Error(1)
}

// --- Loader mock ---

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, city string, recencyDays int) ([]model.PropertyRecord, bool) {
	args := m.Called(ctx, city, recencyDays)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]model.PropertyRecord), args.Bool(1)
}

// --- QueryRecorder mock ---

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordQuery(ctx context.Context, e model.QueryLogEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// --- Fixtures ---

func rec(locality, ptype string, bhk int, area, ppsf float64, date string) model.PropertyRecord {
	d, _ := time.Parse(model.DateLayout, date)
	return model.PropertyRecord{
		City:            "Bangalore",
		Locality:        locality,
		PropertyType:    ptype,
		Bedrooms:        bhk,
		AreaSqft:        area,
		PricePerSqft:    ppsf,
		PriceTotal:      area * ppsf / 100000,
		TransactionDate: d,
		Source:          "test",
	}
}

func bangaloreRecords() []model.PropertyRecord {
	return []model.PropertyRecord{
		rec("Koramangala", "Flat", 3, 1500, 12000, "2024-01-10"),
		rec("Koramangala", "Flat", 2, 1100, 11500, "2024-02-12"),
		rec("Koramangala", "Villa", 4, 2800, 15000, "2024-02-20"),
		rec("Whitefield", "Apartment", 3, 1450, 8000, "2024-01-05"),
		rec("Whitefield", "Plot", 0, 2400, 5000, "2024-03-01"),
		rec("HSR Layout", "Flat", 2, 1200, 9500, "2024-03-15"),
	}
}
