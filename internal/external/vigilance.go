package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"sentinelle/internal/types"
)

// VigilanceClient fetches the official vigilance bulletin for a region.
type VigilanceClient interface {
	FetchBulletin(ctx context.Context, region string) (*types.VigilanceBulletin, error)
}

// frenchColors maps the authority's color names to the internal ordinal.
var frenchColors = map[string]types.VigilanceLevel{
	"vert":   types.VigilanceGreen,
	"jaune":  types.VigilanceYellow,
	"orange": types.VigilanceOrange,
	"rouge":  types.VigilanceRed,
}

// riskNames translates the authority's phenomenon codes.
var riskNames = map[string]string{
	"WIND":         "Vent violent",
	"RAIN":         "Pluie-inondation",
	"THUNDERSTORM": "Orages",
	"HURRICANE":    "Cyclone",
	"HEAT":         "Canicule",
	"COASTAL":      "Phénomène côtier",
}

// MeteoVigilanceClient implements VigilanceClient against the public
// vigilance API. Requests go through the resilient BaseClient.
type MeteoVigilanceClient struct {
	base    *BaseClient
	baseURL string
}

// NewMeteoVigilanceClient creates a vigilance bulletin client.
func NewMeteoVigilanceClient(base *BaseClient, baseURL string) *MeteoVigilanceClient {
	return &MeteoVigilanceClient{base: base, baseURL: baseURL}
}

// vigilancePayload mirrors the authority's bulletin document.
type vigilancePayload struct {
	Domain    string    `json:"domain"`
	Color     string    `json:"color_max"`
	UpdatedAt time.Time `json:"update_time"`
	Phenomena []struct {
		Code        string `json:"phenomenon"`
		Color       string `json:"color"`
		Description string `json:"description"`
	} `json:"phenomenons_items"`
}

// FetchBulletin retrieves and processes the current bulletin for the region.
// It returns vigilance_source_unavailable on any transport or decode failure;
// the caller substitutes the green fallback bulletin.
func (c *MeteoVigilanceClient) FetchBulletin(ctx context.Context, region string) (*types.VigilanceBulletin, error) {
	reqURL := fmt.Sprintf("%s/DPVigilance/v1/cartevigilance/encours?domain=%s", c.baseURL, region)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build vigilance request", err)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeVigilanceSource, "vigilance source unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewAppError(
			types.ErrCodeVigilanceSource,
			fmt.Sprintf("vigilance source returned %d", resp.StatusCode),
			nil,
		)
	}

	var payload vigilancePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, types.NewAppError(types.ErrCodeVigilanceSource, "failed to decode vigilance bulletin", err)
	}

	return processBulletin(region, payload), nil
}

// processBulletin converts the provider document into the internal bulletin.
// The overall level is the maximum of the per-phenomenon levels; the
// provider's own color_max is honored when it is more severe (the document
// can carry region-wide phenomena not listed per item).
func processBulletin(region string, payload vigilancePayload) *types.VigilanceBulletin {
	overall := types.VigilanceGreen
	if lvl, ok := frenchColors[payload.Color]; ok {
		overall = lvl
	}

	var risks []types.VigilanceRisk
	for _, p := range payload.Phenomena {
		lvl, ok := frenchColors[p.Color]
		if !ok || lvl == types.VigilanceGreen {
			continue
		}
		name := riskNames[p.Code]
		if name == "" {
			name = p.Code
		}
		risks = append(risks, types.VigilanceRisk{
			Code:        p.Code,
			Name:        name,
			Level:       lvl,
			Description: p.Description,
		})
		if overall.Rank() < lvl.Rank() {
			overall = lvl
		}
	}

	issuedAt := payload.UpdatedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	return &types.VigilanceBulletin{
		Region:          region,
		ColorLevel:      overall,
		NumericLevel:    overall.Rank(),
		GlobalRiskScore: bulletinScore(overall, len(risks)),
		Risks:           risks,
		Recommendations: levelRecommendations(overall),
		IssuedAt:        issuedAt,
	}
}

// bulletinScore maps the ordinal level to the middle of its score band,
// nudged up by the number of concurrent active risks.
func bulletinScore(level types.VigilanceLevel, activeRisks int) float64 {
	base := map[types.VigilanceLevel]float64{
		types.VigilanceGreen:  5,
		types.VigilanceYellow: 35,
		types.VigilanceOrange: 60,
		types.VigilanceRed:    85,
	}[level]
	score := base + float64(activeRisks)*2
	if score > 100 {
		score = 100
	}
	return score
}

func levelRecommendations(level types.VigilanceLevel) []string {
	switch level {
	case types.VigilanceRed:
		return []string{
			"Restez chez vous et tenez-vous informé",
			"Suivez impérativement les consignes des autorités",
			"Évitez tout déplacement",
		}
	case types.VigilanceOrange:
		return []string{
			"Soyez très vigilant, évitez les activités exposées",
			"Tenez-vous informé de l'évolution de la situation",
		}
	case types.VigilanceYellow:
		return []string{
			"Soyez attentif si vous pratiquez des activités sensibles au risque météorologique",
		}
	default:
		return []string{"Pas de vigilance particulière"}
	}
}

// VigilanceProvider serves bulletins through a short-TTL cache and
// substitutes the safe green fallback when the source fails. The cache keeps
// the authority from being hammered on every prediction request; the TTL is
// short enough that an escalating situation is picked up within minutes.
type VigilanceProvider struct {
	client VigilanceClient
	cache  *redis.Client // nil disables caching
	ttl    time.Duration
	nowFn  func() time.Time
}

// NewVigilanceProvider creates a provider. cache may be nil, in which case
// every call goes to the source.
func NewVigilanceProvider(client VigilanceClient, cache *redis.Client, ttl time.Duration) *VigilanceProvider {
	return &VigilanceProvider{
		client: client,
		cache:  cache,
		ttl:    ttl,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the bulletin for the region. On source failure it returns the
// green fallback bulletin (IsFallback=true) and a nil error: vigilance
// unavailability is a documented degradation, never a fatal error.
func (p *VigilanceProvider) Get(ctx context.Context, region string) types.VigilanceBulletin {
	key := "vigilance:" + region

	if p.cache != nil {
		if raw, err := p.cache.Get(ctx, key).Bytes(); err == nil {
			var cached types.VigilanceBulletin
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached
			}
		}
	}

	bulletin, err := p.client.FetchBulletin(ctx, region)
	if err != nil {
		return types.FallbackBulletin(region, p.nowFn())
	}

	if p.cache != nil {
		if raw, err := json.Marshal(bulletin); err == nil {
			// Best effort; a cache write failure must not fail the request.
			p.cache.Set(ctx, key, raw, p.ttl)
		}
	}

	return *bulletin
}
