// Package types defines the canonical domain model shared across the
// sentinelle service: weather observations, risk tiers, vigilance levels,
// damage predictions, and the application error type.
//
// Upstream providers return loosely shaped JSON; the ingestion boundary
// (internal/external) converts it into these structs immediately so that
// nothing provider-shaped travels deeper into the core.
package types

import "time"

// RiskTier is the internal, cache-cadence-only severity ordinal derived
// purely from raw weather fields. It is distinct from VigilanceLevel, which
// is issued by the external authority.
type RiskTier string

const (
	TierNormal   RiskTier = "normal"
	TierModerate RiskTier = "moderate"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

// tierRanks defines the ordering normal < moderate < high < critical.
var tierRanks = map[RiskTier]int{
	TierNormal:   0,
	TierModerate: 1,
	TierHigh:     2,
	TierCritical: 3,
}

// Rank returns the ordinal position of the tier. Unknown tiers rank as normal
// so a corrupted value can never loosen the refresh cadence below the floor.
func (t RiskTier) Rank() int {
	return tierRanks[t]
}

// Less reports whether t is strictly less severe than other.
func (t RiskTier) Less(other RiskTier) bool {
	return t.Rank() < other.Rank()
}

// MaxTier returns the more severe of the two tiers.
func MaxTier(a, b RiskTier) RiskTier {
	if a.Rank() >= b.Rank() {
		return a
	}
	return b
}

// SourceTier records the provenance of an observation, ordered by preference.
type SourceTier string

const (
	// SourceLive is a fresh upstream observation.
	SourceLive SourceTier = "live"
	// SourceRecent is a previously observed real value served from backup.
	SourceRecent SourceTier = "backup_recent"
	// SourceSynthetic is a generated plausible value for the location's
	// climate profile.
	SourceSynthetic SourceTier = "backup_synthetic"
	// SourceEmergency is the static last-resort observation.
	SourceEmergency SourceTier = "backup_emergency"
)

// IsBackup reports whether the observation was served from a degraded tier.
func (s SourceTier) IsBackup() bool {
	return s != SourceLive
}

// WeatherObservation is one location's conditions at a point in time.
// Immutable once created. Units: temperatures in Celsius, wind in km/h,
// precipitation in mm/h, pressure in hPa, humidity and probability in percent.
type WeatherObservation struct {
	Location           string     `json:"location"`
	Timestamp          time.Time  `json:"timestamp"`
	TemperatureMin     float64    `json:"temperature_min"`
	TemperatureCurrent float64    `json:"temperature_current"`
	TemperatureMax     float64    `json:"temperature_max"`
	WindSpeed          float64    `json:"wind_speed"`
	Humidity           int        `json:"humidity"`
	Precipitation      float64    `json:"precipitation"`
	PrecipProbability  int        `json:"precipitation_probability"`
	Pressure           float64    `json:"pressure"`
	Description        string     `json:"description"`
	Source             SourceTier `json:"source"`
}

// ForecastDay is a forecast observation for a date offset, enriched with the
// assessed risk tier and qualitative risk factor labels.
type ForecastDay struct {
	Date        string             `json:"date"` // YYYY-MM-DD
	DayOffset   int                `json:"day_offset"`
	Observation WeatherObservation `json:"weather"`
	Tier        RiskTier           `json:"risk_level"`
	RiskFactors []string           `json:"risk_factors"`
}

// EntryStatus tracks the serving state of a location's cache entry.
type EntryStatus string

const (
	// EntryActive means the entry holds live upstream data.
	EntryActive EntryStatus = "active"
	// EntryDegraded means the last response was served from a backup tier.
	EntryDegraded EntryStatus = "degraded"
	// EntryRetryScheduled means the last refresh failed and the next fetch
	// window was shortened to retry sooner.
	EntryRetryScheduled EntryStatus = "retry_scheduled"
)

// LocationFreshness summarizes one location's cache state for the status
// endpoint.
type LocationFreshness struct {
	Location           string      `json:"location"`
	Status             EntryStatus `json:"status"`
	Tier               RiskTier    `json:"risk_level"`
	LastFetchedAt      time.Time   `json:"last_fetched_at"`
	NextAllowedFetchAt time.Time   `json:"next_allowed_fetch_at"`
}

// BudgetStatus reports the shared daily upstream-call budget.
type BudgetStatus struct {
	Date            string  `json:"date"` // YYYY-MM-DD, local day
	Quota           int     `json:"quota"`
	Used            int     `json:"used"`
	Remaining       int     `json:"remaining"`
	UsagePercentage float64 `json:"usage_percentage"`
}
