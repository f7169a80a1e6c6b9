package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelle/internal/backup"
	"sentinelle/internal/budget"
	"sentinelle/internal/config"
	"sentinelle/internal/external"
	"sentinelle/internal/locations"
	"sentinelle/internal/observability"
	"sentinelle/internal/risk"
	"sentinelle/internal/types"
)

// fakeWeatherClient counts upstream calls and serves a configurable bundle.
// A non-zero delay makes each fetch slow, widening the window in which a
// second caller could sneak in a duplicate fetch.
type fakeWeatherClient struct {
	mu      sync.Mutex
	calls   int
	err     error
	delay   time.Duration
	current types.WeatherObservation
}

func (f *fakeWeatherClient) Fetch(_ context.Context, loc locations.Location) (*external.ForecastBundle, error) {
	f.mu.Lock()
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	current := f.current
	current.Location = loc.Name
	current.Source = types.SourceLive

	daily := make([]types.WeatherObservation, 5)
	for i := range daily {
		daily[i] = current
		daily[i].Timestamp = current.Timestamp.AddDate(0, 0, i)
	}
	return &external.ForecastBundle{Current: current, Daily: daily}, nil
}

func (f *fakeWeatherClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memRecentStore struct {
	mu   sync.Mutex
	recs map[string]backup.Record
}

func (s *memRecentStore) Save(_ context.Context, rec backup.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Location] = rec
	return nil
}

func (s *memRecentStore) Latest(_ context.Context, location string) (*backup.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[location]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func calmObservation() types.WeatherObservation {
	return types.WeatherObservation{
		Timestamp:          time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		TemperatureMin:     24,
		TemperatureCurrent: 28,
		TemperatureMax:     31,
		WindSpeed:          15,
		Humidity:           75,
		PrecipProbability:  20,
		Pressure:           1013,
	}
}

func stormObservation() types.WeatherObservation {
	obs := calmObservation()
	obs.WindSpeed = 120
	obs.Precipitation = 60
	obs.PrecipProbability = 95
	obs.Pressure = 960
	return obs
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		IntervalNormal:   60 * time.Minute,
		IntervalModerate: 30 * time.Minute,
		IntervalHigh:     10 * time.Minute,
		IntervalCritical: 5 * time.Minute,
		CutModerate:      20,
		CutHigh:          45,
		CutCritical:      70,
	}
}

type testHarness struct {
	svc    *Service
	client *fakeWeatherClient
	clock  *clockwork.FakeClock
	budget *budget.DailyBudget
}

func newHarness(t *testing.T, quota int) *testHarness {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	client := &fakeWeatherClient{current: calmObservation()}
	dailyBudget := budget.New(quota, clock)
	store := backup.NewStore(&memRecentStore{recs: make(map[string]backup.Record)}, 24*time.Hour, clock, slog.Default())
	assessor := risk.NewAssessor(20, 45, 70)

	svc := New(client, store, dailyBudget, assessor, testCacheConfig(),
		clock, observability.NewMetricsForTesting(), slog.Default())

	return &testHarness{svc: svc, client: client, clock: clock, budget: dailyBudget}
}

func mustLocation(t *testing.T, name string) locations.Location {
	t.Helper()
	loc, ok := locations.Get(name)
	require.True(t, ok)
	return loc
}

func TestGet_ServesCachedWithinInterval(t *testing.T) {
	h := newHarness(t, 1000)
	loc := mustLocation(t, "Pointe-à-Pitre")

	first, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, types.SourceLive, first.Current.Source)
	assert.Equal(t, types.EntryActive, first.Status)
	assert.Equal(t, types.TierNormal, first.Tier)

	// Repeated reads inside the normal interval must not reach upstream.
	for i := 0; i < 10; i++ {
		h.clock.Advance(time.Minute)
		_, err := h.svc.Get(context.Background(), loc)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.client.callCount())
}

func TestGet_RefreshesAfterInterval(t *testing.T) {
	h := newHarness(t, 1000)
	loc := mustLocation(t, "Pointe-à-Pitre")

	_, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)

	h.clock.Advance(61 * time.Minute)
	_, err = h.svc.Get(context.Background(), loc)
	require.NoError(t, err)

	assert.Equal(t, 2, h.client.callCount())
}

func TestGet_CriticalConditionsShortenInterval(t *testing.T) {
	h := newHarness(t, 1000)
	h.client.current = stormObservation()
	loc := mustLocation(t, "Le Moule")

	snap, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	require.Equal(t, types.TierCritical, snap.Tier)

	// Calm conditions would still be cached at 30 minutes; critical entries
	// must already be stale.
	h.clock.Advance(6 * time.Minute)
	_, err = h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, 2, h.client.callCount())
}

func TestGet_BudgetExhaustedServesBackup(t *testing.T) {
	h := newHarness(t, 1)
	locA := mustLocation(t, "Pointe-à-Pitre")
	locB := mustLocation(t, "Basse-Terre")

	// First location consumes the whole quota.
	first, err := h.svc.Get(context.Background(), locA)
	require.NoError(t, err)
	assert.Equal(t, types.SourceLive, first.Current.Source)

	// Second location cannot fetch: it degrades but still answers.
	second, err := h.svc.Get(context.Background(), locB)
	require.NoError(t, err)
	assert.True(t, second.Current.Source.IsBackup())
	assert.Equal(t, types.EntryDegraded, second.Status)
	assert.Equal(t, 1, h.client.callCount())
}

func TestGet_BudgetNeverExceeded(t *testing.T) {
	quota := 5
	h := newHarness(t, quota)

	all := locations.All()
	for _, loc := range all {
		_, err := h.svc.Get(context.Background(), loc)
		require.NoError(t, err)
	}

	assert.Equal(t, quota, h.client.callCount(), "upstream calls must stop at the daily quota")
	assert.Equal(t, 0, h.budget.Remaining())
}

func TestGet_UpstreamFailureFallsBackAndRetriesSooner(t *testing.T) {
	h := newHarness(t, 1000)
	loc := mustLocation(t, "Deshaies")
	h.client.err = errors.New("upstream timeout")

	snap, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	assert.True(t, snap.Current.Source.IsBackup())
	assert.Equal(t, types.EntryRetryScheduled, snap.Status)

	// The retry window is the moderate interval, not the normal one.
	assert.Equal(t, h.clock.Now().Add(30*time.Minute), snap.NextRefreshAt)

	// Upstream recovers; after the shortened window the entry goes live again.
	h.client.err = nil
	h.clock.Advance(31 * time.Minute)

	recovered, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, types.SourceLive, recovered.Current.Source)
	assert.Equal(t, types.EntryActive, recovered.Status)
}

func TestGet_StaleDataKeptWhenBudgetExhausted(t *testing.T) {
	h := newHarness(t, 1)
	loc := mustLocation(t, "Sainte-Anne")

	first, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	require.Equal(t, types.SourceLive, first.Current.Source)

	// Interval elapses but the budget is gone: the stale live bundle is
	// still better than synthetic data.
	h.clock.Advance(2 * time.Hour)
	stale, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, types.SourceLive, stale.Current.Source)
	assert.Equal(t, types.EntryDegraded, stale.Status)
	assert.Equal(t, 1, h.client.callCount())
}

func TestGet_ConcurrentRequestsShareOneFetch(t *testing.T) {
	h := newHarness(t, 1000)
	h.client.delay = 50 * time.Millisecond
	loc := mustLocation(t, "Deshaies")

	const readers = 8
	snaps := make([]Snapshot, readers)
	errs := make([]error, readers)

	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i], errs[i] = h.svc.Get(context.Background(), loc)
		}(i)
	}
	wg.Wait()

	// Every reader observes the result of the single shared fetch.
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, types.SourceLive, snaps[i].Current.Source)
		assert.Equal(t, types.EntryActive, snaps[i].Status)
	}
	assert.Equal(t, 1, h.client.callCount(), "concurrent readers of one stale location must share a single upstream call")
	assert.Equal(t, 1, h.budget.Used(), "the shared fetch must consume exactly one budget unit")
}

func TestGetMany_PreservesOrder(t *testing.T) {
	h := newHarness(t, 1000)
	locs := []locations.Location{
		mustLocation(t, "Pointe-à-Pitre"),
		mustLocation(t, "Basse-Terre"),
		mustLocation(t, "Le Gosier"),
	}

	snaps, err := h.svc.GetMany(context.Background(), locs)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	for i, loc := range locs {
		assert.Equal(t, loc.Name, snaps[i].Current.Location)
	}
}

func TestGet_ForecastCarriesPerDayRisk(t *testing.T) {
	h := newHarness(t, 1000)
	h.client.current = stormObservation()
	loc := mustLocation(t, "Saint-Claude")

	snap, err := h.svc.Get(context.Background(), loc)
	require.NoError(t, err)
	require.Len(t, snap.Forecast, 5)

	for i, day := range snap.Forecast {
		assert.Equal(t, i, day.DayOffset)
		assert.Equal(t, types.TierCritical, day.Tier)
		assert.NotEmpty(t, day.RiskFactors)
		assert.NotEmpty(t, day.Date)
	}
}

func TestFreshness(t *testing.T) {
	h := newHarness(t, 1000)

	_, err := h.svc.Get(context.Background(), mustLocation(t, "Basse-Terre"))
	require.NoError(t, err)
	_, err = h.svc.Get(context.Background(), mustLocation(t, "Pointe-à-Pitre"))
	require.NoError(t, err)

	fresh := h.svc.Freshness()
	require.Len(t, fresh, 2)
	// Sorted by location name.
	assert.Equal(t, "Basse-Terre", fresh[0].Location)
	assert.Equal(t, "Pointe-à-Pitre", fresh[1].Location)
	for _, f := range fresh {
		assert.Equal(t, types.EntryActive, f.Status)
		assert.True(t, f.NextAllowedFetchAt.After(f.LastFetchedAt))
	}
}

func TestGet_ContextCancellation(t *testing.T) {
	h := newHarness(t, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.Get(ctx, mustLocation(t, "Goyave"))
	assert.ErrorIs(t, err, context.Canceled)
}
