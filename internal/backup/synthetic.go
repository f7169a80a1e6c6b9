package backup

import (
	"math/rand"
	"time"

	"sentinelle/internal/locations"
	"sentinelle/internal/types"
)

var syntheticDescriptions = []string{
	"ciel dégagé",
	"partiellement nuageux",
	"nuageux",
	"averses éparses",
	"légère pluie",
}

// synthesize draws a plausible observation around the location's climate
// baseline. Each call draws fresh randomness so repeated synthetic responses
// for the same location differ; a frozen constant here would masquerade as a
// stable reading and mislead the risk assessment downstream.
func synthesize(loc locations.Location, now time.Time) (types.WeatherObservation, bool) {
	c := loc.Climate
	if c == (locations.Climate{}) {
		return types.WeatherObservation{}, false
	}

	temp := c.TempC + jitter(3)
	wind := c.WindKmh + jitter(8)
	if wind < 0 {
		wind = 0
	}
	humidity := clampInt(c.Humidity+int(jitter(10)), 40, 100)
	pressure := c.PressureHPa + jitter(6)

	precip := 0.0
	pop := 10 + rand.Intn(30)
	if rand.Float64() < 0.3 {
		precip = rand.Float64() * 5
		pop = 40 + rand.Intn(40)
	}

	return types.WeatherObservation{
		Location:           loc.Name,
		Timestamp:          now,
		TemperatureMin:     temp - 2 - rand.Float64()*2,
		TemperatureCurrent: temp,
		TemperatureMax:     temp + 2 + rand.Float64()*2,
		WindSpeed:          wind,
		Humidity:           humidity,
		Precipitation:      precip,
		PrecipProbability:  pop,
		Pressure:           pressure,
		Description:        syntheticDescriptions[rand.Intn(len(syntheticDescriptions))],
		Source:             types.SourceSynthetic,
	}, true
}

// deriveDay produces a forecast-day observation from a backup current
// observation, drifting the values slightly per offset. Day zero is the
// current observation re-stamped.
func deriveDay(current types.WeatherObservation, loc locations.Location, offset int) types.WeatherObservation {
	day := current
	day.Timestamp = current.Timestamp.AddDate(0, 0, offset)
	if offset == 0 {
		return day
	}

	day.TemperatureMin += jitter(1.5)
	day.TemperatureCurrent += jitter(1.5)
	day.TemperatureMax += jitter(1.5)
	day.WindSpeed += jitter(5)
	if day.WindSpeed < 0 {
		day.WindSpeed = 0
	}
	day.Humidity = clampInt(day.Humidity+int(jitter(8)), 40, 100)
	day.PrecipProbability = clampInt(day.PrecipProbability+int(jitter(15)), 0, 100)
	return day
}

// jitter returns a uniform draw in [-amplitude, +amplitude].
func jitter(amplitude float64) float64 {
	return (rand.Float64()*2 - 1) * amplitude
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
