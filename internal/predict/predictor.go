package predict

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"sentinelle/internal/locations"
	"sentinelle/internal/observability"
	"sentinelle/internal/risk"
	"sentinelle/internal/types"
)

// BulletinSource supplies the current vigilance bulletin for a region.
// The external.VigilanceProvider satisfies this; its Get never fails, it
// degrades to the flagged fallback bulletin instead.
type BulletinSource interface {
	Get(ctx context.Context, region string) types.VigilanceBulletin
}

// Predictor runs the full damage prediction pipeline for one commune.
// It is stateless per request: nothing from a previous prediction influences
// the next one, so a changed bulletin or changed weather is always reflected
// immediately.
type Predictor struct {
	model      Model
	assessor   *risk.Assessor
	bulletins  BulletinSource
	region     string
	greenClamp float64
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewPredictor wires the prediction pipeline.
func NewPredictor(
	model Model,
	assessor *risk.Assessor,
	bulletins BulletinSource,
	region string,
	greenClamp float64,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Predictor {
	return &Predictor{
		model:      model,
		assessor:   assessor,
		bulletins:  bulletins,
		region:     region,
		greenClamp: greenClamp,
		metrics:    metrics,
		logger:     logger,
	}
}

// Predict produces the damage prediction for the location under the given
// observation. A model failure is returned as model_unavailable; it is never
// silently replaced with a default prediction.
func (p *Predictor) Predict(ctx context.Context, loc locations.Location, obs types.WeatherObservation) (*types.DamagePrediction, error) {
	features := BuildFeatures(obs, loc)

	base, err := p.model.EstimateDamage(features)
	if err != nil {
		p.logger.Error("damage model failed",
			slog.String("location", loc.Name),
			slog.String("error", err.Error()),
		)
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, types.NewAppError(types.ErrCodeModelUnavailable, "damage model unavailable", err)
	}

	score, factors := weatherScore(obs, loc)

	// Live conditions amplify the baseline estimates: an active system makes
	// every structural weakness worse.
	weatherFactor := score / 100
	damage := types.DamageEstimates{
		Infrastructure:   math.Min(100, base.Infrastructure*(1+weatherFactor*0.3)),
		Agriculture:      math.Min(100, base.Agriculture*(1+weatherFactor*0.2)),
		PopulationImpact: math.Min(50, base.PopulationImpact*(1+weatherFactor*0.4)),
	}

	finalScore := math.Max(score,
		damage.Infrastructure*0.4+damage.Agriculture*0.3+damage.PopulationImpact*0.3)
	level := p.assessor.TierForScore(finalScore)

	bulletin := p.bulletins.Get(ctx, p.region)
	level, finalScore = AdaptToVigilance(level, finalScore, bulletin, p.greenClamp)

	p.metrics.Predictions.WithLabelValues(string(level)).Inc()

	return &types.DamagePrediction{
		Location:          loc.Name,
		RiskLevel:         level,
		RiskScore:         round1(finalScore),
		Damage: types.DamageEstimates{
			Infrastructure:   round1(damage.Infrastructure),
			Agriculture:      round1(damage.Agriculture),
			PopulationImpact: round1(damage.PopulationImpact),
		},
		Confidence:        round1(confidence(obs)),
		Recommendations:   buildRecommendations(obs, loc, damage),
		RiskFactors:       factors,
		WeatherContext:    obs,
		Vigilance:         bulletin.ColorLevel,
		VigilanceDegraded: bulletin.IsFallback,
	}, nil
}

// ModelInfo exposes the loaded model description for diagnostics.
func (p *Predictor) ModelInfo() ModelInfo {
	return p.model.Info()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
