package types

import "time"

// VigilanceLevel mirrors the external authority's ordinal severity scale for
// a region: green < yellow < orange < red. It is authoritative and read-only
// to this service.
type VigilanceLevel string

const (
	VigilanceGreen  VigilanceLevel = "green"
	VigilanceYellow VigilanceLevel = "yellow"
	VigilanceOrange VigilanceLevel = "orange"
	VigilanceRed    VigilanceLevel = "red"
)

var vigilanceRanks = map[VigilanceLevel]int{
	VigilanceGreen:  1,
	VigilanceYellow: 2,
	VigilanceOrange: 3,
	VigilanceRed:    4,
}

// Rank returns the numeric level 1-4 used by the authority's scale.
// Unknown values rank as green so a corrupted bulletin can only understate,
// never overstate, the official severity.
func (v VigilanceLevel) Rank() int {
	if r, ok := vigilanceRanks[v]; ok {
		return r
	}
	return vigilanceRanks[VigilanceGreen]
}

// FloorTier returns the minimum RiskTier implied by the vigilance level when
// it is elevated. Green implies no floor.
func (v VigilanceLevel) FloorTier() RiskTier {
	switch v {
	case VigilanceYellow:
		return TierModerate
	case VigilanceOrange:
		return TierHigh
	case VigilanceRed:
		return TierCritical
	default:
		return TierNormal
	}
}

// VigilanceRisk is one named hazard within a bulletin.
type VigilanceRisk struct {
	Code        string         `json:"code"` // WIND, RAIN, THUNDERSTORM, HURRICANE, HEAT, COASTAL
	Name        string         `json:"name"`
	Level       VigilanceLevel `json:"level"`
	Description string         `json:"description,omitempty"`
}

// VigilanceBulletin is the processed vigilance report for a region.
// IsFallback marks bulletins substituted locally after a source failure;
// such bulletins are always green with no active risks.
type VigilanceBulletin struct {
	Region          string          `json:"region"`
	ColorLevel      VigilanceLevel  `json:"color_level"`
	NumericLevel    int             `json:"numeric_level"`
	GlobalRiskScore float64         `json:"global_risk_score"`
	Risks           []VigilanceRisk `json:"risks"`
	Recommendations []string        `json:"recommendations"`
	IssuedAt        time.Time       `json:"issued_at"`
	IsFallback      bool            `json:"is_fallback"`
}

// FallbackBulletin returns the safe default bulletin used when the vigilance
// source is unavailable: green, minimal score, explicitly flagged degraded.
func FallbackBulletin(region string, now time.Time) VigilanceBulletin {
	return VigilanceBulletin{
		Region:          region,
		ColorLevel:      VigilanceGreen,
		NumericLevel:    VigilanceGreen.Rank(),
		GlobalRiskScore: 0,
		Recommendations: []string{"Pas de vigilance particulière"},
		IssuedAt:        now,
		IsFallback:      true,
	}
}
