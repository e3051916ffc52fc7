package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernmentSource_TagsRecords(t *testing.T) {
	g := NewGovernmentSource(50, 0)
	g.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	for city, tag := range map[string]string{"Mumbai": "maharera", "delhi": "delhi_govt", "Bangalore": "bangalore_govt"} {
		recs, err := g.Scrape(context.Background(), city)
		require.NoError(t, err, city)
		require.NotEmpty(t, recs)
		for _, r := range recs {
			assert.Equal(t, tag, r.Source)
		}
	}
}

func TestGovernmentSource_UnknownCity(t *testing.T) {
	_, err := NewGovernmentSource(0, 0).Scrape(context.Background(), "Pune")
	assert.Error(t, err)

	_, ok := GovernmentTag("Pune")
	assert.False(t, ok)
}

func TestGovernmentSource_Defaults(t *testing.T) {
	g := NewGovernmentSource(0, 0)
	assert.Equal(t, DefaultGovernmentRecords, g.records)
	assert.Equal(t, "government", g.Name())
}

func TestGovernmentSource_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGovernmentSource(10, 0).Scrape(ctx, "Mumbai")
	assert.Error(t, err)
}
