package external

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinelle/internal/types"
)

func TestProcessBulletin_OverallIsMaxPhenomenonLevel(t *testing.T) {
	payload := vigilancePayload{
		Domain:    "GUADELOUPE",
		Color:     "jaune",
		UpdatedAt: time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC),
		Phenomena: []struct {
			Code        string `json:"phenomenon"`
			Color       string `json:"color"`
			Description string `json:"description"`
		}{
			{Code: "WIND", Color: "orange", Description: "rafales attendues"},
			{Code: "RAIN", Color: "jaune"},
			{Code: "HEAT", Color: "vert"},
		},
	}

	b := processBulletin("GUADELOUPE", payload)

	assert.Equal(t, types.VigilanceOrange, b.ColorLevel)
	assert.Equal(t, 3, b.NumericLevel)
	// The green phenomenon is dropped; the others are kept with French names.
	require.Len(t, b.Risks, 2)
	assert.Equal(t, "Vent violent", b.Risks[0].Name)
	assert.Equal(t, types.VigilanceOrange, b.Risks[0].Level)
	assert.Equal(t, "rafales attendues", b.Risks[0].Description)
	assert.Equal(t, "Pluie-inondation", b.Risks[1].Name)
	assert.NotEmpty(t, b.Recommendations)
	assert.Equal(t, payload.UpdatedAt, b.IssuedAt)
	assert.False(t, b.IsFallback)
}

func TestProcessBulletin_HonorsProviderColorMax(t *testing.T) {
	// The document-level color can exceed every listed phenomenon.
	payload := vigilancePayload{Color: "rouge"}

	b := processBulletin("GUADELOUPE", payload)
	assert.Equal(t, types.VigilanceRed, b.ColorLevel)
	assert.Empty(t, b.Risks)
}

func TestProcessBulletin_UnknownPhenomenonCodeKept(t *testing.T) {
	payload := vigilancePayload{
		Color: "vert",
		Phenomena: []struct {
			Code        string `json:"phenomenon"`
			Color       string `json:"color"`
			Description string `json:"description"`
		}{
			{Code: "VOLCANO", Color: "jaune"},
		},
	}

	b := processBulletin("GUADELOUPE", payload)
	require.Len(t, b.Risks, 1)
	assert.Equal(t, "VOLCANO", b.Risks[0].Name)
	assert.Equal(t, types.VigilanceYellow, b.ColorLevel)
}

func TestBulletinScore(t *testing.T) {
	assert.Equal(t, 5.0, bulletinScore(types.VigilanceGreen, 0))
	assert.Equal(t, 39.0, bulletinScore(types.VigilanceYellow, 2))
	assert.Equal(t, 85.0, bulletinScore(types.VigilanceRed, 0))
	assert.Equal(t, 100.0, bulletinScore(types.VigilanceRed, 10), "score is clamped at 100")
}

func TestFetchBulletin_ParsesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GUADELOUPE", r.URL.Query().Get("domain"))
		fmt.Fprint(w, `{
			"domain": "GUADELOUPE",
			"color_max": "orange",
			"update_time": "2026-08-31T06:00:00Z",
			"phenomenons_items": [
				{"phenomenon": "HURRICANE", "color": "orange", "description": "onde tropicale"}
			]
		}`)
	}))
	defer srv.Close()

	client := NewMeteoVigilanceClient(newTestClient(), srv.URL)
	b, err := client.FetchBulletin(context.Background(), "GUADELOUPE")
	require.NoError(t, err)

	assert.Equal(t, types.VigilanceOrange, b.ColorLevel)
	require.Len(t, b.Risks, 1)
	assert.Equal(t, "Cyclone", b.Risks[0].Name)
}

func TestFetchBulletin_SourceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewMeteoVigilanceClient(newTestClient(), srv.URL)
	_, err := client.FetchBulletin(context.Background(), "GUADELOUPE")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeVigilanceSource, appErr.Code)
}

type stubVigilanceClient struct {
	bulletin *types.VigilanceBulletin
	err      error
	calls    int
}

func (s *stubVigilanceClient) FetchBulletin(_ context.Context, region string) (*types.VigilanceBulletin, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	b := *s.bulletin
	b.Region = region
	return &b, nil
}

func TestProviderGet_SourceFailureYieldsGreenFallback(t *testing.T) {
	stub := &stubVigilanceClient{err: errors.New("source down")}
	provider := NewVigilanceProvider(stub, nil, time.Minute)

	b := provider.Get(context.Background(), "GUADELOUPE")

	assert.True(t, b.IsFallback)
	assert.Equal(t, types.VigilanceGreen, b.ColorLevel)
	assert.Equal(t, "GUADELOUPE", b.Region)
	assert.Empty(t, b.Risks)
}

func TestProviderGet_PassesThroughWithoutCache(t *testing.T) {
	stub := &stubVigilanceClient{bulletin: &types.VigilanceBulletin{
		ColorLevel:   types.VigilanceOrange,
		NumericLevel: 3,
	}}
	provider := NewVigilanceProvider(stub, nil, time.Minute)

	first := provider.Get(context.Background(), "GUADELOUPE")
	second := provider.Get(context.Background(), "GUADELOUPE")

	assert.Equal(t, types.VigilanceOrange, first.ColorLevel)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, stub.calls, "nil cache means every call reaches the source")
}
