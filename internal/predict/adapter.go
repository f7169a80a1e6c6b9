package predict

import "sentinelle/internal/types"

// AdaptToVigilance reconciles the model's own risk assessment with the
// official bulletin. It is a pure function recomputed on every call: the
// adapter holds no state, so a changed bulletin or changed weather always
// produces a freshly derived result.
//
// Two rules, applied in order:
//
//   - Green bulletin: the authority sees no regional threat, so the model's
//     qualitative level is capped at moderate and its score is dampened by
//     greenClamp (a configured factor strictly below 1). The dampened score
//     is still reported; a calm bulletin reduces, but never erases, a local
//     signal.
//
//   - Elevated bulletin (yellow/orange/red): the official level imposes a
//     minimum qualitative tier. The model's own level is never lowered; the
//     floor only raises it.
func AdaptToVigilance(level types.RiskTier, score float64, bulletin types.VigilanceBulletin, greenClamp float64) (types.RiskTier, float64) {
	if bulletin.ColorLevel == types.VigilanceGreen {
		score *= greenClamp
		if types.TierModerate.Less(level) {
			level = types.TierModerate
		}
		return level, score
	}

	level = types.MaxTier(level, bulletin.ColorLevel.FloorTier())
	return level, score
}
