// Package handlers contains the HTTP handler implementations for the
// sentinelle API:
//   - Weather retrieval through the adaptive cache (GET /v1/weather/{location})
//   - Backup data and freshness diagnostics (GET /v1/weather/backup/...)
//   - Cyclone damage prediction (GET /v1/ai/cyclone/predict/{location})
//   - Vigilance bulletins (GET /v1/vigilance/{region})
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"sentinelle/internal/cache"
	"sentinelle/internal/core"
	"sentinelle/internal/locations"
	"sentinelle/internal/types"
)

// WeatherCache is the service contract the weather handler depends on.
// Defined locally to avoid tight coupling per the handler injection pattern.
type WeatherCache interface {
	Get(ctx context.Context, loc locations.Location) (cache.Snapshot, error)
	GetMany(ctx context.Context, locs []locations.Location) ([]cache.Snapshot, error)
	Freshness() []types.LocationFreshness
}

// BackupProvider resolves degraded observations directly, bypassing the
// cache. Used by the explicit backup endpoints.
type BackupProvider interface {
	GetBundle(ctx context.Context, loc locations.Location, days int) (types.WeatherObservation, []types.WeatherObservation)
}

// BudgetReader reports the daily upstream budget state.
type BudgetReader interface {
	Status() types.BudgetStatus
}

// WeatherHandler maps HTTP requests to the adaptive cache and backup chain.
type WeatherHandler struct {
	cache  WeatherCache
	backup BackupProvider
	budget BudgetReader
	logger *slog.Logger
}

// NewWeatherHandler creates a WeatherHandler with the provided dependencies.
func NewWeatherHandler(c WeatherCache, b BackupProvider, budget BudgetReader, logger *slog.Logger) *WeatherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{
		cache:  c,
		backup: b,
		budget: budget,
		logger: logger,
	}
}

// RegisterRoutes mounts the weather endpoints onto the mux.
func (h *WeatherHandler) RegisterRoutes(r chi.Router) {
	r.Route("/weather", func(r chi.Router) {
		r.Get("/backup/status", h.HandleBackupStatus)
		r.Get("/backup/{location}", h.HandleGetBackup)
		r.Get("/{location}", h.HandleGetWeather)
	})
}

// resolveLocation extracts and validates the {location} URL parameter.
func resolveLocation(r *http.Request) (locations.Location, *types.AppError) {
	raw := chi.URLParam(r, "location")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	if raw == "" {
		return locations.Location{}, types.NewAppError(
			types.ErrCodeValidationMissingField,
			"location path parameter is required",
			nil,
		)
	}

	loc, ok := locations.Get(raw)
	if !ok {
		return locations.Location{}, types.NewAppError(
			types.ErrCodeNotFoundLocation,
			"unknown location: "+raw,
			nil,
		).WithDetails(map[string]any{"location": raw})
	}
	return loc, nil
}

// HandleGetWeather handles GET /v1/weather/{location}. The response is
// always a full snapshot; upstream problems surface only through the
// snapshot's status and source fields.
func (h *WeatherHandler) HandleGetWeather(w http.ResponseWriter, r *http.Request) {
	loc, appErr := resolveLocation(r)
	if appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	snap, err := h.cache.Get(r.Context(), loc)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: snap})
}

// backupResponse is the payload of the explicit backup endpoint.
type backupResponse struct {
	Current  types.WeatherObservation   `json:"current"`
	Forecast []types.WeatherObservation `json:"forecast"`
	Source   types.SourceTier           `json:"source"`
}

// HandleGetBackup handles GET /v1/weather/backup/{location}. It always
// resolves through the backup chain, regardless of cache state; the endpoint
// exists so operators can inspect what degraded mode would serve.
func (h *WeatherHandler) HandleGetBackup(w http.ResponseWriter, r *http.Request) {
	loc, appErr := resolveLocation(r)
	if appErr != nil {
		core.Error(w, r, appErr)
		return
	}

	current, daily := h.backup.GetBundle(r.Context(), loc, 5)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: backupResponse{
		Current:  current,
		Forecast: daily,
		Source:   current.Source,
	}})
}

// backupStatusResponse summarizes the degradation state of the whole service.
type backupStatusResponse struct {
	Budget    types.BudgetStatus        `json:"budget"`
	Locations []types.LocationFreshness `json:"locations"`
}

// HandleBackupStatus handles GET /v1/weather/backup/status.
func (h *WeatherHandler) HandleBackupStatus(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: backupStatusResponse{
		Budget:    h.budget.Status(),
		Locations: h.cache.Freshness(),
	}})
}
