package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelle/internal/cache"
	"sentinelle/internal/core"
	"sentinelle/internal/locations"
	"sentinelle/internal/predict"
	"sentinelle/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeCache struct {
	snapshot  cache.Snapshot
	err       error
	freshness []types.LocationFreshness
	gotLoc    locations.Location
}

func (f *fakeCache) Get(_ context.Context, loc locations.Location) (cache.Snapshot, error) {
	f.gotLoc = loc
	if f.err != nil {
		return cache.Snapshot{}, f.err
	}
	snap := f.snapshot
	snap.Current.Location = loc.Name
	return snap, nil
}

func (f *fakeCache) GetMany(ctx context.Context, locs []locations.Location) ([]cache.Snapshot, error) {
	out := make([]cache.Snapshot, 0, len(locs))
	for _, loc := range locs {
		snap, err := f.Get(ctx, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (f *fakeCache) Freshness() []types.LocationFreshness { return f.freshness }

type fakeBackup struct {
	current types.WeatherObservation
}

func (f *fakeBackup) GetBundle(_ context.Context, loc locations.Location, days int) (types.WeatherObservation, []types.WeatherObservation) {
	current := f.current
	current.Location = loc.Name
	daily := make([]types.WeatherObservation, days)
	for i := range daily {
		daily[i] = current
	}
	return current, daily
}

type fakeBudget struct {
	status types.BudgetStatus
}

func (f *fakeBudget) Status() types.BudgetStatus { return f.status }

type fakePredictor struct {
	prediction *types.DamagePrediction
	err        error
	info       predict.ModelInfo
}

func (f *fakePredictor) Predict(_ context.Context, loc locations.Location, _ types.WeatherObservation) (*types.DamagePrediction, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.prediction
	p.Location = loc.Name
	return &p, nil
}

func (f *fakePredictor) ModelInfo() predict.ModelInfo { return f.info }

type fakeProvider struct {
	bulletin  types.VigilanceBulletin
	gotRegion string
}

func (f *fakeProvider) Get(_ context.Context, region string) types.VigilanceBulletin {
	f.gotRegion = region
	b := f.bulletin
	b.Region = region
	return b
}

func liveSnapshot() cache.Snapshot {
	return cache.Snapshot{
		Current: types.WeatherObservation{
			TemperatureCurrent: 29,
			WindSpeed:          18,
			Source:             types.SourceLive,
		},
		Tier:   types.TierNormal,
		Status: types.EntryActive,
	}
}

func mountWeather(h *WeatherHandler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) core.APIErrorResponse {
	t.Helper()
	var body core.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleGetWeather_KnownLocation(t *testing.T) {
	fc := &fakeCache{snapshot: liveSnapshot()}
	h := NewWeatherHandler(fc, &fakeBackup{}, &fakeBudget{}, testLogger)

	rec := doRequest(t, mountWeather(h), "/weather/Pointe-%C3%A0-Pitre")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pointe-à-Pitre", fc.gotLoc.Name)

	var body struct {
		Data cache.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Pointe-à-Pitre", body.Data.Current.Location)
	assert.Equal(t, types.SourceLive, body.Data.Current.Source)
}

func TestHandleGetWeather_NormalizedSpelling(t *testing.T) {
	fc := &fakeCache{snapshot: liveSnapshot()}
	h := NewWeatherHandler(fc, &fakeBackup{}, &fakeBudget{}, testLogger)

	// Accent-free lowercase slug resolves to the canonical commune.
	rec := doRequest(t, mountWeather(h), "/weather/pointe-a-pitre")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pointe-à-Pitre", fc.gotLoc.Name)
}

func TestHandleGetWeather_UnknownLocation(t *testing.T) {
	h := NewWeatherHandler(&fakeCache{snapshot: liveSnapshot()}, &fakeBackup{}, &fakeBudget{}, testLogger)

	rec := doRequest(t, mountWeather(h), "/weather/atlantis")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(types.ErrCodeNotFoundLocation), body.Error.Code)
	assert.Equal(t, "atlantis", body.Error.Details["location"])
}

func TestHandleGetWeather_CacheError(t *testing.T) {
	fc := &fakeCache{err: errors.New("entry corrupted")}
	h := NewWeatherHandler(fc, &fakeBackup{}, &fakeBudget{}, testLogger)

	rec := doRequest(t, mountWeather(h), "/weather/basse-terre")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleGetBackup(t *testing.T) {
	fb := &fakeBackup{current: types.WeatherObservation{
		TemperatureCurrent: 27.5,
		Source:             types.SourceSynthetic,
	}}
	h := NewWeatherHandler(&fakeCache{}, fb, &fakeBudget{}, testLogger)

	rec := doRequest(t, mountWeather(h), "/weather/backup/basse-terre")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data backupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, types.SourceSynthetic, body.Data.Source)
	assert.Equal(t, "Basse-Terre", body.Data.Current.Location)
	assert.Len(t, body.Data.Forecast, 5)
}

func TestHandleBackupStatus(t *testing.T) {
	fc := &fakeCache{freshness: []types.LocationFreshness{
		{Location: "Basse-Terre", Status: types.EntryActive, Tier: types.TierNormal},
	}}
	budget := &fakeBudget{status: types.BudgetStatus{
		Date:            "2026-08-31",
		Quota:           1000,
		Used:            412,
		Remaining:       588,
		UsagePercentage: 41.2,
	}}
	h := NewWeatherHandler(fc, &fakeBackup{}, budget, testLogger)

	rec := doRequest(t, mountWeather(h), "/weather/backup/status")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data backupStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 588, body.Data.Budget.Remaining)
	require.Len(t, body.Data.Locations, 1)
	assert.Equal(t, "Basse-Terre", body.Data.Locations[0].Location)
}

func mountPredict(p DamagePredictor, c WeatherCache) http.Handler {
	r := chi.NewRouter()
	NewPredictHandler(p, c, testLogger).RegisterRoutes(r)
	return r
}

func TestHandlePredict_Success(t *testing.T) {
	fp := &fakePredictor{prediction: &types.DamagePrediction{
		RiskLevel:  types.TierHigh,
		RiskScore:  58,
		Confidence: 85,
		Vigilance:  types.VigilanceOrange,
	}}
	rec := doRequest(t, mountPredict(fp, &fakeCache{snapshot: liveSnapshot()}),
		"/ai/cyclone/predict/le-moule")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data types.DamagePrediction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Le Moule", body.Data.Location)
	assert.Equal(t, types.TierHigh, body.Data.RiskLevel)
	assert.Equal(t, 58.0, body.Data.RiskScore)
}

func TestHandlePredict_UnknownLocation(t *testing.T) {
	rec := doRequest(t, mountPredict(&fakePredictor{}, &fakeCache{}),
		"/ai/cyclone/predict/narnia")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(types.ErrCodeNotFoundLocation), decodeError(t, rec).Error.Code)
}

func TestHandlePredict_ModelUnavailable(t *testing.T) {
	fp := &fakePredictor{err: types.NewAppError(types.ErrCodeModelUnavailable, "model not loaded", nil)}
	rec := doRequest(t, mountPredict(fp, &fakeCache{snapshot: liveSnapshot()}),
		"/ai/cyclone/predict/basse-terre")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, string(types.ErrCodeModelUnavailable), decodeError(t, rec).Error.Code)
}

func TestHandleModelInfo(t *testing.T) {
	fp := &fakePredictor{info: predict.ModelInfo{Name: "saffir-simpson-gradient", Ready: true}}
	rec := doRequest(t, mountPredict(fp, &fakeCache{}), "/ai/cyclone/model")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "saffir-simpson-gradient")
}

func mountVigilance(p BulletinProvider) http.Handler {
	r := chi.NewRouter()
	NewVigilanceHandler(p, testLogger).RegisterRoutes(r)
	return r
}

func TestHandleGetBulletin_KnownRegion(t *testing.T) {
	fp := &fakeProvider{bulletin: types.VigilanceBulletin{
		ColorLevel:   types.VigilanceYellow,
		NumericLevel: 2,
		IssuedAt:     time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
	}}
	rec := doRequest(t, mountVigilance(fp), "/vigilance/Guadeloupe")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GUADELOUPE", fp.gotRegion, "region is mapped to the authority domain code")

	var body struct {
		Data types.VigilanceBulletin `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, types.VigilanceYellow, body.Data.ColorLevel)
}

func TestHandleGetBulletin_UnknownRegion(t *testing.T) {
	rec := doRequest(t, mountVigilance(&fakeProvider{}), "/vigilance/hawaii")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(types.ErrCodeValidationUnknownRegion), body.Error.Code)
	assert.Equal(t, "hawaii", body.Error.Details["region"])
}

func TestHandleGetBulletin_FallbackServedAsOK(t *testing.T) {
	fp := &fakeProvider{bulletin: types.FallbackBulletin("", time.Now())}
	rec := doRequest(t, mountVigilance(fp), "/vigilance/guadeloupe")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data types.VigilanceBulletin `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.IsFallback)
	assert.Equal(t, types.VigilanceGreen, body.Data.ColorLevel)
}

func TestHandleList(t *testing.T) {
	r := chi.NewRouter()
	NewLocationsHandler().RegisterRoutes(r)

	rec := doRequest(t, r, "/locations")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []communeEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, locations.Count())

	names := make(map[string]bool, len(body.Data))
	for _, e := range body.Data {
		names[e.Name] = true
		assert.NotZero(t, e.Lat)
		assert.NotZero(t, e.Lon)
	}
	assert.True(t, names["Pointe-à-Pitre"])
	assert.True(t, names["Basse-Terre"])
}
