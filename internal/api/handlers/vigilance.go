package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sentinelle/internal/core"
	"sentinelle/internal/types"
)

// BulletinProvider is the service contract the vigilance handler depends on.
type BulletinProvider interface {
	Get(ctx context.Context, region string) types.VigilanceBulletin
}

// knownRegions lists the authority domain codes this deployment serves.
var knownRegions = map[string]string{
	"guadeloupe":       "GUADELOUPE",
	"martinique":       "MARTINIQUE",
	"saint-barthelemy": "SAINT-BARTHELEMY",
	"saint-martin":     "SAINT-MARTIN",
}

// VigilanceHandler maps HTTP requests to the vigilance bulletin provider.
type VigilanceHandler struct {
	provider BulletinProvider
	logger   *slog.Logger
}

// NewVigilanceHandler creates a VigilanceHandler with the given provider.
func NewVigilanceHandler(p BulletinProvider, logger *slog.Logger) *VigilanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VigilanceHandler{provider: p, logger: logger}
}

// RegisterRoutes mounts the vigilance endpoints onto the mux.
func (h *VigilanceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/vigilance/{region}", h.HandleGetBulletin)
}

// HandleGetBulletin handles GET /v1/vigilance/{region}. Source failures are
// served as the flagged green fallback bulletin with 200, never an error:
// clients polling vigilance must always receive an actionable level.
func (h *VigilanceHandler) HandleGetBulletin(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "region")
	domain, ok := knownRegions[strings.ToLower(raw)]
	if !ok {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeValidationUnknownRegion,
			"unknown vigilance region: "+raw,
			nil,
		).WithDetails(map[string]any{"region": raw}))
		return
	}

	bulletin := h.provider.Get(r.Context(), domain)
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: bulletin})
}
