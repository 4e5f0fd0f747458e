package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/airportai/internal/core/domain"
	"github.com/custodia-labs/airportai/internal/core/ports/driven"
)

// steppingClock is a test clock advanced by hand.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var _ driven.Clock = (*steppingClock)(nil)

func TestVocabularyCache_GetCachesWithinTTL(t *testing.T) {
	data := newMockAirportData()
	clock := &steppingClock{now: refTime}
	c := NewVocabularyCache(data, time.Minute, clock, nil)
	ctx := context.Background()

	assert.Nil(t, c.Current())
	first, err := c.Get(ctx)
	require.NoError(t, err)
	second, err := c.Get(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int64(1), data.callCount("ListStands"))
	assert.Equal(t, 9, first.Len())

	clock.Advance(2 * time.Minute)
	third, err := c.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, int64(2), data.callCount("ListStands"))
}

func TestVocabularyCache_ExpiredGetReloadsOnce(t *testing.T) {
	data := newMockAirportData()
	clock := &steppingClock{now: refTime}
	c := NewVocabularyCache(data, time.Minute, clock, nil)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := c.Get(ctx)
			assert.NoError(t, err)
			assert.Equal(t, refTime.Add(2*time.Minute), snap.LoadedAt)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(2), data.callCount("ListTerminals"))
	assert.Equal(t, int64(2), data.callCount("ListStands"))
}

func TestVocabularyCache_ExplicitRefreshAlwaysReloads(t *testing.T) {
	data := newMockAirportData()
	c := NewVocabularyCache(data, time.Hour, &steppingClock{now: refTime}, nil)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Refresh(ctx))

	assert.Equal(t, int64(2), data.callCount("ListStands"))
}

func TestVocabularyCache_ServesStaleOnFailure(t *testing.T) {
	data := newMockAirportData()
	clock := &steppingClock{now: refTime}
	c := NewVocabularyCache(data, time.Minute, clock, nil)
	ctx := context.Background()

	loaded, err := c.Get(ctx)
	require.NoError(t, err)

	data.errs = map[string]error{"ListAirlines": errBoom}
	clock.Advance(time.Hour)
	got, err := c.Get(ctx)

	require.NoError(t, err)
	assert.Same(t, loaded, got)
}

func TestVocabularyCache_FailureWithoutSnapshot(t *testing.T) {
	data := newMockAirportData()
	data.errs = map[string]error{"ListPiers": errBoom}
	c := NewVocabularyCache(data, time.Minute, fixedClock(refTime), nil)

	_, err := c.Get(context.Background())

	require.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "list piers")
	assert.Nil(t, c.Current())
}

func TestVocabularyCache_NoDataPort(t *testing.T) {
	c := NewVocabularyCache(nil, 0, nil, nil)

	_, err := c.Get(context.Background())

	require.ErrorIs(t, err, domain.ErrPortUnavailable)
}

func TestVocabularyCache_RefreshRunsHooks(t *testing.T) {
	c := NewVocabularyCache(newMockAirportData(), time.Minute, fixedClock(refTime), nil)
	var calls atomic.Int32
	var seen *domain.VocabularySnapshot
	c.OnRefresh(func(_ context.Context, snap *domain.VocabularySnapshot) {
		calls.Add(1)
		seen = snap
	})

	require.NoError(t, c.Refresh(context.Background()))

	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, c.Current(), seen)
}

func TestVocabularyCache_ConcurrentReaders(t *testing.T) {
	clock := &steppingClock{now: refTime}
	c := NewVocabularyCache(newMockAirportData(), time.Millisecond, clock, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				clock.Advance(time.Second)
			}
			snap, err := c.Get(context.Background())
			assert.NoError(t, err)
			_, ok := snap.Lookup(domain.VocabStand, "A1")
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()
}

func TestBuildVocabulary(t *testing.T) {
	data := newMockAirportData()
	snap := domain.NewVocabularySnapshot(refTime,
		BuildVocabulary(data.terminals, data.piers, data.stands, data.aircraft, data.airlines))

	stand, ok := snap.Lookup(domain.VocabStand, "12a")
	require.True(t, ok)
	assert.Equal(t, "stand-12a", stand.ID)
	assert.Equal(t, "T2", stand.Attributes["terminal"])
	assert.Equal(t, "term-2", stand.Attributes["terminal_id"])
	assert.Equal(t, "B", stand.Attributes["pier"])
	assert.Equal(t, "occupied", stand.Attributes["status"])

	terminal, ok := snap.Lookup(domain.VocabTerminal, "S")
	require.True(t, ok)
	assert.Equal(t, "T2", terminal.PrimaryCode)

	terminal, ok = snap.Lookup(domain.VocabTerminal, "north terminal")
	require.True(t, ok)
	assert.Equal(t, "T1", terminal.PrimaryCode)

	airline, ok := snap.Lookup(domain.VocabAirline, "BAW")
	require.True(t, ok)
	assert.Equal(t, "BA", airline.PrimaryCode)

	aircraft, ok := snap.Lookup(domain.VocabAircraftType, "B738")
	require.True(t, ok)
	assert.Equal(t, "narrow_body", aircraft.Attributes["body_type"])

	pier, ok := snap.LookupByID(domain.VocabPier, "pier-b")
	require.True(t, ok)
	assert.Equal(t, "T2", pier.Attributes["terminal"])
}
