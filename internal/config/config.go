// Package config defines the global configuration structure for the
// sentinelle service. Configuration is loaded once at process initialization
// and is immutable thereafter. It follows 12-Factor App principles by
// strictly separating code from configuration.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> Struct Defaults (Lowest)
//
// Any missing required value or invalid format causes the application to fail
// immediately on startup (fail fast).
package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration struct for the service. It is
// populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"sentinelle-api"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain configurations
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Upstream  UpstreamConfig
	Vigilance VigilanceConfig
	Cache     CacheConfig
	Backup    BackupConfig
	Prewarm   PrewarmConfig
}

// PrewarmConfig controls the background sweep that keeps the cache populated
// for every monitored commune.
type PrewarmConfig struct {
	Enabled  bool          `envconfig:"PREWARM_ENABLED" default:"false"`
	Interval time.Duration `envconfig:"PREWARM_INTERVAL" default:"10m"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string        `envconfig:"PORT" default:"8080"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s"`
	CorsAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds PostgreSQL connection and pool tuning parameters.
// URL may be empty in local mode, in which case backup records and budget
// usage live in memory only.
type DatabaseConfig struct {
	URL               string        `envconfig:"DATABASE_URL" validate:"omitempty,url"`
	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// RedisConfig holds the optional Redis connection used for the short-TTL
// vigilance bulletin cache. An empty address disables Redis; bulletins are
// then fetched directly on each request.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// UpstreamConfig holds the weather provider client settings, including the
// hard daily call quota shared across all locations.
type UpstreamConfig struct {
	BaseURL    string        `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/3.0"`
	APIKey     string        `envconfig:"OPENWEATHER_API_KEY"`
	Timeout    time.Duration `envconfig:"OPENWEATHER_TIMEOUT" default:"5s"`
	DailyQuota int           `envconfig:"OPENWEATHER_DAILY_QUOTA" default:"1000" validate:"min=1"`
}

// VigilanceConfig holds the official vigilance source settings and the
// reconciliation parameters applied by the vigilance adapter.
type VigilanceConfig struct {
	BaseURL  string        `envconfig:"VIGILANCE_BASE_URL" default:"https://public-api.meteofrance.fr/public"`
	Timeout  time.Duration `envconfig:"VIGILANCE_TIMEOUT" default:"10s"`
	CacheTTL time.Duration `envconfig:"VIGILANCE_CACHE_TTL" default:"30m"`
	// Region is the authority's domain code covering the monitored communes.
	Region string `envconfig:"VIGILANCE_REGION" default:"GUADELOUPE"`
	// GreenClampFactor dampens the numeric risk score when the official level
	// is green, so routine conditions cannot surface as alarming from model
	// noise alone. Must be strictly below 1.
	GreenClampFactor float64 `envconfig:"VIGILANCE_GREEN_CLAMP" default:"0.6" validate:"gt=0,lt=1"`
}

// CacheConfig holds the adaptive refresh interval table and the risk-tier
// cut points. Intervals must be monotonic (higher tier, shorter-or-equal
// interval) and cut points strictly ascending; Validate enforces both.
type CacheConfig struct {
	IntervalNormal   time.Duration `envconfig:"CACHE_INTERVAL_NORMAL" default:"60m"`
	IntervalModerate time.Duration `envconfig:"CACHE_INTERVAL_MODERATE" default:"30m"`
	IntervalHigh     time.Duration `envconfig:"CACHE_INTERVAL_HIGH" default:"10m"`
	IntervalCritical time.Duration `envconfig:"CACHE_INTERVAL_CRITICAL" default:"5m"`

	CutModerate float64 `envconfig:"RISK_CUT_MODERATE" default:"20"`
	CutHigh     float64 `envconfig:"RISK_CUT_HIGH" default:"45"`
	CutCritical float64 `envconfig:"RISK_CUT_CRITICAL" default:"70"`
}

// BackupConfig holds the degraded-data provider settings.
type BackupConfig struct {
	// ValidityWindow bounds how old a "recent" backup observation may be
	// before the store falls through to the synthetic tier.
	ValidityWindow time.Duration `envconfig:"BACKUP_VALIDITY_WINDOW" default:"24h"`
}

// Validate enforces cross-field constraints that envconfig/validator tags
// cannot express.
func (c *Config) Validate() error {
	ci := c.Cache
	if ci.IntervalModerate > ci.IntervalNormal ||
		ci.IntervalHigh > ci.IntervalModerate ||
		ci.IntervalCritical > ci.IntervalHigh {
		return fmt.Errorf("cache intervals must not increase with tier severity: %v/%v/%v/%v",
			ci.IntervalNormal, ci.IntervalModerate, ci.IntervalHigh, ci.IntervalCritical)
	}
	if ci.IntervalCritical <= 0 {
		return fmt.Errorf("critical cache interval must be positive, got %v", ci.IntervalCritical)
	}
	if !(ci.CutModerate < ci.CutHigh && ci.CutHigh < ci.CutCritical) {
		return fmt.Errorf("risk cut points must be strictly ascending: %v/%v/%v",
			ci.CutModerate, ci.CutHigh, ci.CutCritical)
	}
	if c.Backup.ValidityWindow <= 0 {
		return fmt.Errorf("backup validity window must be positive, got %v", c.Backup.ValidityWindow)
	}
	return nil
}
