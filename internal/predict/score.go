package predict

import (
	"fmt"

	"sentinelle/internal/locations"
	"sentinelle/internal/types"
)

// weatherScore computes the 0-100 meteorological threat score for the damage
// pipeline, together with the human-readable factor labels it is built from.
// Unlike the cache-cadence assessor, this score also weighs commune geography
// and synergistic conditions, because it feeds a per-commune impact estimate
// rather than a refresh interval.
func weatherScore(obs types.WeatherObservation, loc locations.Location) (float64, []string) {
	score := 0.0
	var factors []string

	wind := obs.WindSpeed
	switch {
	case wind > 200:
		score += 40
		factors = append(factors, fmt.Sprintf("Vents extrêmes: %.0f km/h", wind))
	case wind > 150:
		score += 30
		factors = append(factors, fmt.Sprintf("Vents d'ouragan: %.0f km/h", wind))
	case wind > 88:
		score += 20
		factors = append(factors, fmt.Sprintf("Tempête tropicale: %.0f km/h", wind))
	case wind > 62:
		score += 10
		factors = append(factors, fmt.Sprintf("Vents forts: %.0f km/h", wind))
	}

	pressure := obs.Pressure
	switch {
	case pressure > 0 && pressure < 950:
		score += 25
		factors = append(factors, fmt.Sprintf("Pression très basse: %.0f hPa", pressure))
	case pressure > 0 && pressure < 980:
		score += 15
		factors = append(factors, fmt.Sprintf("Pression basse: %.0f hPa", pressure))
	case pressure > 0 && pressure < 1000:
		score += 5
		factors = append(factors, fmt.Sprintf("Pression sous normale: %.0f hPa", pressure))
	}

	temp := obs.TemperatureCurrent
	humidity := obs.Humidity
	switch {
	case temp > 29 && humidity > 85:
		score += 15
		factors = append(factors, fmt.Sprintf("Conditions cyclogenèse: %.0f°C, %d%% humidité", temp, humidity))
	case temp > 27 && humidity > 80:
		score += 8
		factors = append(factors, fmt.Sprintf("Conditions favorables développement: %.0f°C", temp))
	case temp > 32:
		score += 5
		factors = append(factors, fmt.Sprintf("Chaleur extrême: %.0f°C", temp))
	}

	switch {
	case humidity > 90:
		score += 8
		factors = append(factors, fmt.Sprintf("Humidité très élevée: %d%%", humidity))
	case humidity > 85:
		score += 5
		factors = append(factors, fmt.Sprintf("Humidité élevée: %d%%", humidity))
	}

	precip := obs.Precipitation
	switch {
	case precip > 50:
		score += 15
		factors = append(factors, fmt.Sprintf("Pluies torrentielles: %.0f mm/h", precip))
	case precip > 25:
		score += 10
		factors = append(factors, fmt.Sprintf("Fortes pluies: %.0f mm/h", precip))
	case precip > 10:
		score += 5
		factors = append(factors, fmt.Sprintf("Pluies modérées: %.0f mm/h", precip))
	}

	switch loc.Type {
	case locations.TypeCoastal:
		score += 8
		factors = append(factors, "Zone côtière exposée")
	case locations.TypeIsland:
		score += 12
		factors = append(factors, "Île isolée - évacuation difficile")
	case locations.TypeUrban:
		score += 5
		factors = append(factors, "Zone urbaine dense")
	}

	if wind > 100 && pressure > 0 && pressure < 990 && precip > 20 {
		score += 10
		factors = append(factors, "Conditions synergiques critiques")
	}
	if temp > 28 && humidity > 85 && wind > 60 {
		score += 8
		factors = append(factors, "Renforcement cyclonique possible")
	}

	return clamp(score, 0, 100), factors
}

// confidence estimates prediction confidence from how close the wind speed
// sits to the historical calibration range. Backup-sourced observations are
// capped lower: the model is only as trustworthy as its input.
func confidence(obs types.WeatherObservation) float64 {
	wind := obs.WindSpeed

	var conf float64
	if wind >= 80 && wind <= 300 {
		conf = 70 + 25*(250-abs(wind-165))/165
		if conf > 95 {
			conf = 95
		}
	} else {
		conf = 60
	}

	if obs.Source.IsBackup() && conf > 60 {
		conf = 60
	}
	return conf
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
