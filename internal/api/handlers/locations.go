package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentinelle/internal/core"
	"sentinelle/internal/locations"
)

// LocationsHandler serves the static commune catalog.
type LocationsHandler struct{}

// NewLocationsHandler creates a LocationsHandler.
func NewLocationsHandler() *LocationsHandler {
	return &LocationsHandler{}
}

// RegisterRoutes mounts the catalog endpoint onto the mux.
func (h *LocationsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/locations", h.HandleList)
}

// communeEntry is the client-facing catalog row.
type communeEntry struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Population int     `json:"population"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// HandleList handles GET /v1/locations.
func (h *LocationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	all := locations.All()
	entries := make([]communeEntry, 0, len(all))
	for _, loc := range all {
		entries = append(entries, communeEntry{
			Name:       loc.Name,
			Type:       string(loc.Type),
			Population: loc.Population,
			Lat:        loc.Lat,
			Lon:        loc.Lon,
		})
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: entries})
}
