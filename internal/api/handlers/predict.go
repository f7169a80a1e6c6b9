package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentinelle/internal/core"
	"sentinelle/internal/locations"
	"sentinelle/internal/predict"
	"sentinelle/internal/types"
)

// DamagePredictor is the service contract the prediction handler depends on.
type DamagePredictor interface {
	Predict(ctx context.Context, loc locations.Location, obs types.WeatherObservation) (*types.DamagePrediction, error)
	ModelInfo() predict.ModelInfo
}

// PredictHandler maps HTTP requests to the damage prediction pipeline.
// The observation fed to the model always comes through the cache, so a
// prediction request can never trigger an extra upstream call outside the
// adaptive budget.
type PredictHandler struct {
	predictor DamagePredictor
	cache     WeatherCache
	logger    *slog.Logger
}

// NewPredictHandler creates a PredictHandler with the provided dependencies.
func NewPredictHandler(p DamagePredictor, c WeatherCache, logger *slog.Logger) *PredictHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PredictHandler{
		predictor: p,
		cache:     c,
		logger:    logger,
	}
}

// RegisterRoutes mounts the prediction endpoints onto the mux.
func (h *PredictHandler) RegisterRoutes(r chi.Router) {
	r.Route("/ai/cyclone", func(r chi.Router) {
		r.Get("/model", h.HandleModelInfo)
		r.Get("/predict/{location}", h.HandlePredict)
	})
}

// HandlePredict handles GET /v1/ai/cyclone/predict/{location}. A model
// failure returns 503 model_unavailable; it is never papered over with a
// default prediction.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
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

	prediction, err := h.predictor.Predict(r.Context(), loc, snap.Current)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: prediction})
}

// HandleModelInfo handles GET /v1/ai/cyclone/model.
func (h *PredictHandler) HandleModelInfo(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: h.predictor.ModelInfo()})
}
