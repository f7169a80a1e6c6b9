// Package backup provides degraded-mode weather data when the upstream
// provider cannot be reached. It serves from three provenance tiers in
// strict order: a recently persisted real observation, a synthetic
// observation drawn around the location's climate profile, and finally a
// static emergency observation. The chain is total: a caller always gets a
// usable observation.
package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"sentinelle/internal/locations"
	"sentinelle/internal/types"
)

// Record is one persisted real observation.
type Record struct {
	Location    string
	Observation types.WeatherObservation
	SavedAt     time.Time
}

// RecentStore persists and retrieves the latest real observation per
// location. Implementations live in internal/db (Postgres and in-memory).
type RecentStore interface {
	Save(ctx context.Context, rec Record) error
	Latest(ctx context.Context, location string) (*Record, error)
}

// Store resolves backup observations through the tier chain.
type Store struct {
	recent RecentStore
	window time.Duration
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewStore creates a backup store. window is how long a persisted real
// observation remains servable as the recent tier.
func NewStore(recent RecentStore, window time.Duration, clock clockwork.Clock, logger *slog.Logger) *Store {
	return &Store{
		recent: recent,
		window: window,
		clock:  clock,
		logger: logger,
	}
}

// Save persists a live observation for later recent-tier service. Failures
// are logged and swallowed: a persistence problem must never fail the live
// request that triggered it.
func (s *Store) Save(ctx context.Context, obs types.WeatherObservation) {
	rec := Record{
		Location:    obs.Location,
		Observation: obs,
		SavedAt:     s.clock.Now(),
	}
	if err := s.recent.Save(ctx, rec); err != nil {
		s.logger.Warn("failed to persist backup observation",
			slog.String("location", obs.Location),
			slog.String("error", err.Error()),
		)
	}
}

// Get returns the best available backup observation for the location,
// walking the tiers in order. The returned observation's Source field
// records which tier served it.
func (s *Store) Get(ctx context.Context, loc locations.Location) types.WeatherObservation {
	now := s.clock.Now()

	rec, err := s.recent.Latest(ctx, loc.Name)
	if err != nil {
		s.logger.Warn("backup lookup failed, falling through to synthetic",
			slog.String("location", loc.Name),
			slog.String("error", err.Error()),
		)
	}
	if rec != nil && now.Sub(rec.SavedAt) <= s.window {
		obs := rec.Observation
		obs.Source = types.SourceRecent
		return obs
	}

	if obs, ok := synthesize(loc, now); ok {
		return obs
	}

	return emergencyObservation(loc, now)
}

// GetBundle returns a backup current observation plus a derived daily
// outlook, mirroring the shape of a live fetch so callers can serve the
// forecast endpoints in degraded mode.
func (s *Store) GetBundle(ctx context.Context, loc locations.Location, days int) (types.WeatherObservation, []types.WeatherObservation) {
	current := s.Get(ctx, loc)

	daily := make([]types.WeatherObservation, 0, days)
	for i := 0; i < days; i++ {
		day := deriveDay(current, loc, i)
		daily = append(daily, day)
	}
	return current, daily
}

// emergencyObservation is the last-resort static tier: typical calm tropical
// conditions. It carries no hazard signal on purpose; serving an alarming
// invented value during a total outage would be worse than serving a calm one.
func emergencyObservation(loc locations.Location, now time.Time) types.WeatherObservation {
	return types.WeatherObservation{
		Location:           loc.Name,
		Timestamp:          now,
		TemperatureMin:     25,
		TemperatureCurrent: 28,
		TemperatureMax:     31,
		WindSpeed:          15,
		Humidity:           75,
		Precipitation:      0,
		PrecipProbability:  20,
		Pressure:           1013,
		Description:        "Conditions tropicales normales",
		Source:             types.SourceEmergency,
	}
}
