// Package cache implements the adaptive weather cache: the single path
// between request handlers and the upstream weather provider.
//
// Each monitored location has one cache entry whose refresh interval adapts
// to the assessed risk tier of its latest observation: calm conditions are
// refreshed hourly, critical conditions every few minutes. Every upstream
// attempt first consumes a unit of the shared daily budget, and every
// failure degrades through stale data and the backup chain rather than
// surfacing an error. A read never fails for lack of upstream data.
package cache

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"sentinelle/internal/backup"
	"sentinelle/internal/budget"
	"sentinelle/internal/config"
	"sentinelle/internal/external"
	"sentinelle/internal/locations"
	"sentinelle/internal/observability"
	"sentinelle/internal/risk"
	"sentinelle/internal/types"
)

// forecastDays is the outlook depth served to clients.
const forecastDays = 5

// getManyConcurrency bounds the parallel per-location resolution in GetMany.
const getManyConcurrency = 8

// Snapshot is the cache's answer for one location: current conditions, the
// daily outlook, and the entry's serving state.
type Snapshot struct {
	Current       types.WeatherObservation `json:"current"`
	Forecast      []types.ForecastDay      `json:"forecast"`
	Tier          types.RiskTier           `json:"risk_level"`
	Status        types.EntryStatus        `json:"status"`
	FetchedAt     time.Time                `json:"fetched_at"`
	NextRefreshAt time.Time                `json:"next_refresh_at"`
}

// entry is the per-location cache state. The entry mutex serializes all
// refresh work for the location: while one goroutine is fetching, every
// other reader for the same location blocks and then observes the result,
// so at most one upstream call per location is ever in flight.
type entry struct {
	mu          sync.Mutex
	bundle      *external.ForecastBundle
	tier        types.RiskTier
	status      types.EntryStatus
	lastFetched time.Time
	nextAllowed time.Time
}

// Service is the adaptive cache. Construct once per process via New.
type Service struct {
	mu      sync.Mutex
	entries map[string]*entry

	client   external.WeatherClient
	backup   *backup.Store
	budget   *budget.DailyBudget
	assessor *risk.Assessor
	cfg      config.CacheConfig
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates the adaptive cache service.
func New(
	client external.WeatherClient,
	backupStore *backup.Store,
	dailyBudget *budget.DailyBudget,
	assessor *risk.Assessor,
	cfg config.CacheConfig,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		entries:  make(map[string]*entry, locations.Count()),
		client:   client,
		backup:   backupStore,
		budget:   dailyBudget,
		assessor: assessor,
		cfg:      cfg,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Get returns the snapshot for the location, refreshing from upstream when
// the entry's adaptive window has elapsed. It only fails on context
// cancellation; upstream and budget problems degrade to stale or backup data.
func (s *Service) Get(ctx context.Context, loc locations.Location) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	e := s.entryFor(loc.Name)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.clock.Now()
	if e.bundle != nil && now.Before(e.nextAllowed) {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return s.snapshotLocked(e), nil
	}

	if !s.budget.TryConsume() {
		s.logger.Warn("daily upstream budget exhausted",
			slog.String("location", loc.Name),
		)
		s.degradeLocked(ctx, e, loc, now, types.EntryDegraded)
		return s.snapshotLocked(e), nil
	}
	s.metrics.BudgetRemaining.Set(float64(s.budget.Remaining()))

	bundle, err := s.client.Fetch(ctx, loc)
	if err != nil {
		s.metrics.UpstreamCalls.WithLabelValues("error").Inc()
		s.logger.Warn("upstream fetch failed",
			slog.String("location", loc.Name),
			slog.String("error", err.Error()),
		)
		s.degradeLocked(ctx, e, loc, now, types.EntryRetryScheduled)
		return s.snapshotLocked(e), nil
	}
	s.metrics.UpstreamCalls.WithLabelValues("success").Inc()
	s.metrics.CacheLookups.WithLabelValues("refresh").Inc()

	tier := s.assessor.Tier(bundle.Current)
	s.backup.Save(ctx, bundle.Current)

	e.bundle = bundle
	e.tier = tier
	e.status = types.EntryActive
	e.lastFetched = now
	e.nextAllowed = now.Add(s.interval(tier))

	s.logger.Info("weather refreshed",
		slog.String("location", loc.Name),
		slog.String("risk_level", string(tier)),
		slog.Time("next_refresh", e.nextAllowed),
	)
	return s.snapshotLocked(e), nil
}

// GetMany resolves snapshots for several locations concurrently, preserving
// input order. A context cancellation aborts the whole batch.
func (s *Service) GetMany(ctx context.Context, locs []locations.Location) ([]Snapshot, error) {
	snapshots := make([]Snapshot, len(locs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(getManyConcurrency)
	for i, loc := range locs {
		i, loc := i, loc
		g.Go(func() error {
			snap, err := s.Get(gctx, loc)
			if err != nil {
				return err
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Freshness reports the serving state of every known entry, sorted by
// location name. Locations never requested since startup are absent.
func (s *Service) Freshness() []types.LocationFreshness {
	s.mu.Lock()
	names := make([]string, 0, len(s.entries))
	refs := make(map[string]*entry, len(s.entries))
	for name, e := range s.entries {
		names = append(names, name)
		refs[name] = e
	}
	s.mu.Unlock()

	sort.Strings(names)
	out := make([]types.LocationFreshness, 0, len(names))
	for _, name := range names {
		e := refs[name]
		e.mu.Lock()
		out = append(out, types.LocationFreshness{
			Location:           name,
			Status:             e.status,
			Tier:               e.tier,
			LastFetchedAt:      e.lastFetched,
			NextAllowedFetchAt: e.nextAllowed,
		})
		e.mu.Unlock()
	}
	return out
}

// degradeLocked fills the entry from the best degraded source: stale cached
// data when present, otherwise the backup chain. The next fetch window is
// shortened to the moderate interval so recovery is retried well before a
// calm-tier window would elapse.
func (s *Service) degradeLocked(ctx context.Context, e *entry, loc locations.Location, now time.Time, status types.EntryStatus) {
	s.metrics.CacheLookups.WithLabelValues("fallback").Inc()

	if e.bundle == nil {
		current, daily := s.backup.GetBundle(ctx, loc, forecastDays)
		s.metrics.BackupServed.WithLabelValues(string(current.Source)).Inc()
		e.bundle = &external.ForecastBundle{Current: current, Daily: daily}
		e.tier = s.assessor.Tier(current)
		e.lastFetched = now
	}

	e.status = status

	retry := s.cfg.IntervalModerate
	if tierInterval := s.interval(e.tier); tierInterval < retry {
		retry = tierInterval
	}
	e.nextAllowed = now.Add(retry)
}

// snapshotLocked builds the caller-facing snapshot from the entry state.
// Callers must hold e.mu.
func (s *Service) snapshotLocked(e *entry) Snapshot {
	forecast := make([]types.ForecastDay, 0, len(e.bundle.Daily))
	for i, day := range e.bundle.Daily {
		forecast = append(forecast, types.ForecastDay{
			Date:        day.Timestamp.Format("2006-01-02"),
			DayOffset:   i,
			Observation: day,
			Tier:        s.assessor.Tier(day),
			RiskFactors: risk.RiskFactors(day),
		})
	}
	return Snapshot{
		Current:       e.bundle.Current,
		Forecast:      forecast,
		Tier:          e.tier,
		Status:        e.status,
		FetchedAt:     e.lastFetched,
		NextRefreshAt: e.nextAllowed,
	}
}

// interval maps a risk tier to its configured refresh interval.
func (s *Service) interval(tier types.RiskTier) time.Duration {
	switch tier {
	case types.TierCritical:
		return s.cfg.IntervalCritical
	case types.TierHigh:
		return s.cfg.IntervalHigh
	case types.TierModerate:
		return s.cfg.IntervalModerate
	default:
		return s.cfg.IntervalNormal
	}
}

func (s *Service) entryFor(name string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		e = &entry{status: types.EntryRetryScheduled, tier: types.TierNormal}
		s.entries[name] = e
	}
	return e
}
