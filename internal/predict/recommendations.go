package predict

import (
	"sentinelle/internal/locations"
	"sentinelle/internal/types"
)

// maxRecommendations caps the advisory list to the most urgent entries;
// the rules below are ordered most-severe-first so truncation keeps the
// critical ones.
const maxRecommendations = 8

// buildRecommendations assembles the French advisory list from the weather
// conditions, the commune profile, and the predicted damage levels.
func buildRecommendations(obs types.WeatherObservation, loc locations.Location, damage types.DamageEstimates) []string {
	var recs []string

	wind := obs.WindSpeed
	switch {
	case wind > 200:
		recs = append(recs,
			"ÉVACUATION IMMÉDIATE OBLIGATOIRE",
			"Fermeture totale des services et commerces",
			"Confinement en abri renforcé uniquement",
		)
	case wind > 150:
		recs = append(recs,
			"Évacuation préventive recommandée",
			"Éviter tout déplacement extérieur",
			"Sécuriser portes et fenêtres",
		)
	case wind > 88:
		recs = append(recs,
			"Préparer un plan d'évacuation",
			"Éviter les zones exposées au vent",
			"Vérifier les amarrages et fixations",
		)
	}

	switch {
	case obs.Pressure > 0 && obs.Pressure < 950:
		recs = append(recs, "Surveillance météo continue - système très actif")
	case obs.Pressure > 0 && obs.Pressure < 980:
		recs = append(recs, "Conditions météo dégradées - restez vigilants")
	}

	switch {
	case obs.TemperatureCurrent > 29 && obs.Humidity > 85:
		recs = append(recs,
			"Conditions favorables au renforcement cyclonique",
			"Préparer 72h d'autonomie (eau, nourriture, médicaments)",
		)
	case obs.TemperatureCurrent > 32:
		recs = append(recs,
			"Chaleur extrême - hydratation renforcée",
			"Éviter efforts physiques aux heures chaudes",
		)
	}

	switch {
	case obs.Precipitation > 50:
		recs = append(recs,
			"RISQUE INONDATION MAJEUR",
			"Évacuer les zones basses et cours d'eau",
		)
	case obs.Precipitation > 25:
		recs = append(recs,
			"Risque d'inondation - éviter déplacements",
			"Surveiller montée des eaux",
		)
	}

	switch loc.Type {
	case locations.TypeCoastal:
		if wind > 100 || damage.Infrastructure > 50 {
			recs = append(recs,
				"Risque submersion marine - évacuer le littoral",
				"Éloigner véhicules de la côte",
			)
		}
	case locations.TypeIsland:
		if damage.PopulationImpact > 20 || wind > 120 {
			recs = append(recs,
				"Coordination évacuation inter-îles urgente",
				"Stocks d'urgence pour isolement prolongé",
			)
		}
	case locations.TypeMountain:
		if obs.Precipitation > 30 {
			recs = append(recs,
				"Vigilance glissements de terrain",
				"Éviter routes de montagne",
			)
		}
	case locations.TypeUrban:
		if wind > 80 {
			recs = append(recs,
				"Attention chutes d'objets urbains",
				"Vérifier réseaux eau/électricité",
			)
		}
	}

	switch {
	case damage.Infrastructure > 80:
		recs = append(recs,
			"Infrastructure critique - évacuation massive",
			"Activation cellule de crise préfectorale",
		)
	case damage.Infrastructure > 50:
		recs = append(recs,
			"Renforcement préventif des structures",
			"Vérification installations électriques",
		)
	}

	if damage.Agriculture > 70 {
		recs = append(recs, "Protection urgente du bétail et des cultures")
	}
	if damage.PopulationImpact > 30 {
		recs = append(recs, "Renforcement des services de secours")
	}

	if len(recs) == 0 {
		recs = append(recs,
			"Suivre les consignes préfectorales",
			"Préparer un kit d'urgence",
		)
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
