package types

// DamageEstimates holds the three independent damage percentages produced by
// the regression model. Infrastructure and agriculture range 0-100, population
// impact 0-50 (people are more mobile than buildings).
type DamageEstimates struct {
	Infrastructure   float64 `json:"infrastructure"`
	Agriculture      float64 `json:"agriculture"`
	PopulationImpact float64 `json:"population_impact"`
}

// DamagePrediction is the reconciled output of the damage model for one
// location. RiskLevel reuses the internal tier ordering after the vigilance
// adapter has applied the green ceiling / elevated floor. Constructed fresh
// per request, never persisted.
type DamagePrediction struct {
	Location          string             `json:"location"`
	RiskLevel         RiskTier           `json:"risk_level"`
	RiskScore         float64            `json:"risk_score"` // 0-100
	Damage            DamageEstimates    `json:"damage_predictions"`
	Confidence        float64            `json:"confidence"` // 0-100
	Recommendations   []string           `json:"recommendations"`
	RiskFactors       []string           `json:"weather_risk_factors"`
	WeatherContext    WeatherObservation `json:"weather_context"`
	Vigilance         VigilanceLevel     `json:"vigilance_level"`
	VigilanceDegraded bool               `json:"vigilance_degraded,omitempty"`
}
