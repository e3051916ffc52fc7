package records

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedStore_HitAndInvalidate(t *testing.T) {
	s, dir := newTestStore(t)
	path := writeFile(t, filepath.Join(dir, "mumbai.csv"), csvHeader+
		"Mumbai,Bandra,Flat,2,900,32000,288,2024-05-01\n")
	c := NewCachedStore(s, time.Hour)

	recs, ok := c.Load(context.Background(), "Mumbai", 30)
	require.True(t, ok)
	require.Len(t, recs, 1)

	// Changing the file is invisible until invalidation.
	writeFile(t, path, csvHeader+
		"Mumbai,Bandra,Flat,2,900,32000,288,2024-05-01\n"+
		"Mumbai,Juhu,Flat,3,1500,40000,600,2024-05-02\n")
	recs, _ = c.Load(context.Background(), "mumbai", 30)
	assert.Len(t, recs, 1)

	c.Invalidate("MUMBAI")
	recs, _ = c.Load(context.Background(), "Mumbai", 30)
	assert.Len(t, recs, 2)
}

func TestCachedStore_TTL(t *testing.T) {
	s, dir := newTestStore(t)
	path := writeFile(t, filepath.Join(dir, "delhi.csv"), csvHeader+
		"Delhi,Dwarka,Flat,3,1100,15000,165,2024-01-01\n")

	now := fixedNow()
	c := NewCachedStore(s, time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Load(context.Background(), "Delhi", 30)
	require.True(t, ok)

	writeFile(t, path, csvHeader)
	recs, _ := c.Load(context.Background(), "Delhi", 30)
	assert.Len(t, recs, 1)

	now = now.Add(2 * time.Minute)
	recs, ok = c.Load(context.Background(), "Delhi", 30)
	assert.True(t, ok)
	assert.Empty(t, recs)
}

func TestCachedStore_CachesAbsence(t *testing.T) {
	s, dir := newTestStore(t)
	c := NewCachedStore(s, 0)

	_, ok := c.Load(context.Background(), "Pune", 30)
	assert.False(t, ok)

	writeFile(t, filepath.Join(dir, "pune.csv"), csvHeader+
		"Pune,Baner,Flat,2,1000,9000,90,2024-01-01\n")
	c.InvalidateAll()
	_, ok = c.Load(context.Background(), "Pune", 30)
	assert.True(t, ok)
}

func TestCityForPath(t *testing.T) {
	c := NewCachedStore(NewStore("/data"), 0)

	assert.Equal(t, "mumbai", c.cityForPath("/data/mumbai.csv"))
	assert.Equal(t, "bangalore", c.cityForPath("/data/Bangalore/housing_20240101_000000.csv"))
	assert.Equal(t, "delhi", c.cityForPath("/data/delhi"))
	assert.Equal(t, "", c.cityForPath("/elsewhere/mumbai.csv"))
}

func TestCachedStore_WatchInvalidates(t *testing.T) {
	s, dir := newTestStore(t)
	path := writeFile(t, filepath.Join(dir, "bangalore.csv"), csvHeader+
		"Bangalore,Koramangala,Flat,2,1200,9000,108,2024-05-01\n")

	c := NewCachedStore(s, 0)
	c.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx) }()

	recs, _ := c.Load(ctx, "Bangalore", 30)
	require.Len(t, recs, 1)

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, WriteCSVFile(path, append(recs, rec("HSR Layout", "Flat", 2, 1100, 8200, "2024-05-03"))))

	assert.Eventually(t, func() bool {
		got, _ := c.Load(ctx, "Bangalore", 30)
		return len(got) == 2
	}, 3*time.Second, 25*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
