package backup

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelle/internal/locations"
	"sentinelle/internal/types"
)

type fakeRecentStore struct {
	recs    map[string]Record
	saveErr error
	loadErr error
}

func newFakeRecentStore() *fakeRecentStore {
	return &fakeRecentStore{recs: make(map[string]Record)}
}

func (f *fakeRecentStore) Save(_ context.Context, rec Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.recs[rec.Location] = rec
	return nil
}

func (f *fakeRecentStore) Latest(_ context.Context, location string) (*Record, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	rec, ok := f.recs[location]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func testLocation(t *testing.T) locations.Location {
	t.Helper()
	loc, ok := locations.Get("Basse-Terre")
	require.True(t, ok)
	return loc
}

func newTestStore(t *testing.T, recent RecentStore) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	return NewStore(recent, 24*time.Hour, clock, slog.Default()), clock
}

func TestGet_RecentTier(t *testing.T) {
	recent := newFakeRecentStore()
	store, clock := newTestStore(t, recent)
	loc := testLocation(t)

	live := types.WeatherObservation{
		Location:           loc.Name,
		TemperatureCurrent: 30.5,
		WindSpeed:          42,
		Source:             types.SourceLive,
	}
	store.Save(context.Background(), live)
	clock.Advance(6 * time.Hour)

	obs := store.Get(context.Background(), loc)
	assert.Equal(t, types.SourceRecent, obs.Source)
	assert.Equal(t, 30.5, obs.TemperatureCurrent)
	assert.Equal(t, 42.0, obs.WindSpeed)
}

func TestGet_ExpiredRecentFallsToSynthetic(t *testing.T) {
	recent := newFakeRecentStore()
	store, clock := newTestStore(t, recent)
	loc := testLocation(t)

	store.Save(context.Background(), types.WeatherObservation{Location: loc.Name, Source: types.SourceLive})
	clock.Advance(25 * time.Hour)

	obs := store.Get(context.Background(), loc)
	assert.Equal(t, types.SourceSynthetic, obs.Source)
}

func TestGet_SyntheticVariesPerCall(t *testing.T) {
	store, _ := newTestStore(t, newFakeRecentStore())
	loc := testLocation(t)

	seen := make(map[float64]struct{})
	for i := 0; i < 20; i++ {
		obs := store.Get(context.Background(), loc)
		require.Equal(t, types.SourceSynthetic, obs.Source)

		// Stay within a plausible band around the commune climate profile.
		assert.InDelta(t, loc.Climate.TempC, obs.TemperatureCurrent, 3.01)
		assert.GreaterOrEqual(t, obs.WindSpeed, 0.0)
		assert.GreaterOrEqual(t, obs.Humidity, 40)
		assert.LessOrEqual(t, obs.Humidity, 100)

		seen[obs.TemperatureCurrent] = struct{}{}
	}

	// A frozen constant would collapse to one value; random draws must not.
	assert.Greater(t, len(seen), 1, "synthetic observations must vary per call")
}

func TestGet_LoadErrorFallsToSynthetic(t *testing.T) {
	recent := newFakeRecentStore()
	recent.loadErr = errors.New("db down")
	store, _ := newTestStore(t, recent)

	obs := store.Get(context.Background(), testLocation(t))
	assert.Equal(t, types.SourceSynthetic, obs.Source)
}

func TestEmergencyObservation(t *testing.T) {
	loc := testLocation(t)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	obs := emergencyObservation(loc, now)
	assert.Equal(t, types.SourceEmergency, obs.Source)
	assert.Equal(t, 28.0, obs.TemperatureCurrent)
	assert.Equal(t, 75, obs.Humidity)
	assert.Equal(t, 15.0, obs.WindSpeed)
	assert.Equal(t, 1013.0, obs.Pressure)
	assert.Equal(t, "Conditions tropicales normales", obs.Description)
}

func TestSave_PersistFailureIsSwallowed(t *testing.T) {
	recent := newFakeRecentStore()
	recent.saveErr = errors.New("db down")
	store, _ := newTestStore(t, recent)

	// Must not panic or surface the error.
	store.Save(context.Background(), types.WeatherObservation{Location: "Basse-Terre"})
}

func TestGetBundle_DerivesForecastDays(t *testing.T) {
	store, _ := newTestStore(t, newFakeRecentStore())
	loc := testLocation(t)

	current, daily := store.GetBundle(context.Background(), loc, 5)
	require.Len(t, daily, 5)

	assert.Equal(t, current.Timestamp, daily[0].Timestamp)
	for i, day := range daily {
		assert.Equal(t, current.Timestamp.AddDate(0, 0, i), day.Timestamp)
		assert.Equal(t, current.Source, day.Source)
	}
}
