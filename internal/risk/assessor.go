// Package risk derives the cache-cadence risk tier from raw weather fields.
//
// The assessor is deliberately independent of the damage model: it exists
// only to decide how often a location's weather is refreshed, so it must be
// a cheap, deterministic, pure function of the observation. It holds the
// configured cut points and nothing else; there is no memoization and no
// per-location state.
package risk

import (
	"fmt"

	"sentinelle/internal/types"
)

// baselinePressure is the reference sea-level pressure (hPa) against which
// the anomaly contribution is computed.
const baselinePressure = 1013.0

// Assessor buckets a weighted 0-100 threat score into the four tiers using
// the configured cut points (score < CutModerate is normal, and so on).
type Assessor struct {
	cutModerate float64
	cutHigh     float64
	cutCritical float64
}

// NewAssessor creates an Assessor with the given ascending cut points.
// The config loader validates the ordering before this is reached.
func NewAssessor(cutModerate, cutHigh, cutCritical float64) *Assessor {
	return &Assessor{
		cutModerate: cutModerate,
		cutHigh:     cutHigh,
		cutCritical: cutCritical,
	}
}

// Score computes the weighted threat score for the observation.
// Contributions: wind speed (dominant), precipitation intensity and
// probability, pressure anomaly below the tropical baseline, and extreme
// temperature. The result is clamped to [0, 100].
func (a *Assessor) Score(obs types.WeatherObservation) float64 {
	score := 0.0

	switch {
	case obs.WindSpeed > 80:
		score += 40
	case obs.WindSpeed > 60:
		score += 30
	case obs.WindSpeed > 40:
		score += 20
	case obs.WindSpeed > 25:
		score += 10
	}

	switch {
	case obs.Precipitation > 50:
		score += 25
	case obs.Precipitation > 20:
		score += 15
	case obs.Precipitation > 10:
		score += 8
	}

	switch {
	case obs.PrecipProbability > 80:
		score += 15
	case obs.PrecipProbability > 60:
		score += 8
	}

	// Pressure anomaly: distance below the baseline signals an organized
	// system even before wind and rain pick up.
	if obs.Pressure > 0 {
		anomaly := baselinePressure - obs.Pressure
		switch {
		case anomaly > 30:
			score += 20
		case anomaly > 13:
			score += 10
		case anomaly > 5:
			score += 5
		}
	}

	if obs.TemperatureMax > 35 || obs.TemperatureMin < 15 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// Tier buckets the observation's score into a risk tier.
func (a *Assessor) Tier(obs types.WeatherObservation) types.RiskTier {
	return a.TierForScore(a.Score(obs))
}

// TierForScore buckets a precomputed 0-100 score. Shared with the damage
// predictor so both components use identical cut points.
func (a *Assessor) TierForScore(score float64) types.RiskTier {
	switch {
	case score >= a.cutCritical:
		return types.TierCritical
	case score >= a.cutHigh:
		return types.TierHigh
	case score >= a.cutModerate:
		return types.TierModerate
	default:
		return types.TierNormal
	}
}

// RiskFactors lists the qualitative hazard labels present in the
// observation, in severity order. Deterministic for identical inputs.
func RiskFactors(obs types.WeatherObservation) []string {
	var factors []string

	switch {
	case obs.WindSpeed > 60:
		factors = append(factors, fmt.Sprintf("Vents violents: %.0f km/h", obs.WindSpeed))
	case obs.WindSpeed > 40:
		factors = append(factors, fmt.Sprintf("Vents forts: %.0f km/h", obs.WindSpeed))
	}

	switch {
	case obs.Precipitation > 30:
		factors = append(factors, "Pluies diluviennes")
	case obs.Precipitation > 15:
		factors = append(factors, "Fortes pluies")
	}

	if obs.PrecipProbability > 80 {
		factors = append(factors, "Précipitations quasi-certaines")
	}

	if obs.Pressure > 0 && obs.Pressure < 1000 {
		factors = append(factors, fmt.Sprintf("Pression basse: %.0f hPa", obs.Pressure))
	}

	if obs.TemperatureMax > 35 {
		factors = append(factors, "Chaleur extrême")
	}

	return factors
}
