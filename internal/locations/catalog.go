// Package locations holds the static catalog of monitored Guadeloupe
// communes. The set is fixed and closed: the cache, backup, and prediction
// layers never create locations dynamically, so every per-location structure
// in the service is bounded by this catalog.
package locations

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Type classifies a commune's dominant geography, which drives both the
// vulnerability weights and the synthetic climate baseline.
type Type string

const (
	TypeUrban    Type = "urbaine"
	TypeCoastal  Type = "côtière"
	TypeMountain Type = "montagne"
	TypeRural    Type = "rurale"
	TypeIsland   Type = "insulaire"
)

// Vulnerability holds the 0-1 exposure weights used by the damage model.
type Vulnerability struct {
	Infrastructure float64
	Agriculture    float64
	Population     float64
}

// Climate is the seasonal baseline around which synthetic observations are
// drawn. Values are typical tropical conditions for the commune.
type Climate struct {
	TempC       float64
	Humidity    int
	WindKmh     float64
	PressureHPa float64
}

// Location is one monitored commune.
type Location struct {
	Name          string
	Type          Type
	Population    int
	Lat           float64
	Lon           float64
	CoastKm       float64 // distance to the coast
	Vulnerability Vulnerability
	Climate       Climate
}

// climate baselines by commune type; per-location entries below may override.
var typeClimates = map[Type]Climate{
	TypeUrban:    {TempC: 28, Humidity: 76, WindKmh: 16, PressureHPa: 1013},
	TypeCoastal:  {TempC: 29, Humidity: 78, WindKmh: 19, PressureHPa: 1012},
	TypeMountain: {TempC: 25, Humidity: 84, WindKmh: 12, PressureHPa: 1009},
	TypeRural:    {TempC: 27, Humidity: 80, WindKmh: 14, PressureHPa: 1012},
	TypeIsland:   {TempC: 28, Humidity: 77, WindKmh: 21, PressureHPa: 1012},
}

// catalog lists the 32 monitored communes. Population figures are INSEE
// orders of magnitude; vulnerability weights follow the regional risk atlas
// convention (urban centers weigh population, coastal communes weigh
// infrastructure, inland communes weigh agriculture).
var catalog = []Location{
	{Name: "Pointe-à-Pitre", Type: TypeUrban, Population: 15335, Lat: 16.2410, Lon: -61.5490, CoastKm: 0, Vulnerability: Vulnerability{0.9, 0.1, 1.0}},
	{Name: "Les Abymes", Type: TypeUrban, Population: 53491, Lat: 16.2705, Lon: -61.5074, CoastKm: 2, Vulnerability: Vulnerability{0.8, 0.3, 0.9}},
	{Name: "Baie-Mahault", Type: TypeUrban, Population: 31017, Lat: 16.2670, Lon: -61.5870, CoastKm: 1, Vulnerability: Vulnerability{0.8, 0.3, 0.8}},
	{Name: "Basse-Terre", Type: TypeUrban, Population: 10058, Lat: 16.0000, Lon: -61.7333, CoastKm: 0, Vulnerability: Vulnerability{0.8, 0.2, 0.8}},
	{Name: "Le Gosier", Type: TypeCoastal, Population: 26783, Lat: 16.2060, Lon: -61.4930, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.4, 0.7}},
	{Name: "Sainte-Anne", Type: TypeCoastal, Population: 25681, Lat: 16.2280, Lon: -61.3830, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.6, 0.7}},
	{Name: "Saint-François", Type: TypeCoastal, Population: 13694, Lat: 16.2500, Lon: -61.2667, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.5, 0.6}},
	{Name: "Le Moule", Type: TypeCoastal, Population: 22458, Lat: 16.3333, Lon: -61.3500, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.8, 0.6}},
	{Name: "Petit-Bourg", Type: TypeRural, Population: 24846, Lat: 16.1920, Lon: -61.5930, CoastKm: 1, Vulnerability: Vulnerability{0.6, 0.7, 0.6}},
	{Name: "Lamentin", Type: TypeRural, Population: 16806, Lat: 16.2700, Lon: -61.6310, CoastKm: 2, Vulnerability: Vulnerability{0.5, 0.7, 0.5}},
	{Name: "Capesterre-Belle-Eau", Type: TypeRural, Population: 18001, Lat: 16.0430, Lon: -61.5660, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.9, 0.6}},
	{Name: "Bouillante", Type: TypeCoastal, Population: 7166, Lat: 16.1333, Lon: -61.7667, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.5, 0.5}},
	{Name: "Deshaies", Type: TypeCoastal, Population: 4061, Lat: 16.3060, Lon: -61.7950, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.5, 0.5}},
	{Name: "Saint-Claude", Type: TypeMountain, Population: 10371, Lat: 16.0260, Lon: -61.6900, CoastKm: 5, Vulnerability: Vulnerability{0.5, 0.6, 0.5}},
	{Name: "Goyave", Type: TypeRural, Population: 7566, Lat: 16.1320, Lon: -61.5720, CoastKm: 1, Vulnerability: Vulnerability{0.5, 0.8, 0.5}},
	{Name: "Trois-Rivières", Type: TypeCoastal, Population: 8162, Lat: 15.9750, Lon: -61.6460, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.7, 0.5}},
	{Name: "Sainte-Rose", Type: TypeRural, Population: 18068, Lat: 16.3330, Lon: -61.6960, CoastKm: 1, Vulnerability: Vulnerability{0.5, 0.8, 0.5}},
	{Name: "Anse-Bertrand", Type: TypeRural, Population: 4176, Lat: 16.4720, Lon: -61.5070, CoastKm: 0, Vulnerability: Vulnerability{0.5, 0.7, 0.4}},
	{Name: "Port-Louis", Type: TypeCoastal, Population: 5437, Lat: 16.4180, Lon: -61.5300, CoastKm: 0, Vulnerability: Vulnerability{0.5, 0.6, 0.4}},
	{Name: "Morne-à-l'Eau", Type: TypeRural, Population: 16674, Lat: 16.3150, Lon: -61.4650, CoastKm: 2, Vulnerability: Vulnerability{0.5, 0.8, 0.5}},
	{Name: "Grand-Bourg", Type: TypeIsland, Population: 5166, Lat: 15.8830, Lon: -61.3170, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.6, 0.6}},
	{Name: "Capesterre-de-Marie-Galante", Type: TypeIsland, Population: 3273, Lat: 15.8900, Lon: -61.2250, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.7, 0.5}},
	{Name: "Saint-Louis-de-Marie-Galante", Type: TypeIsland, Population: 2491, Lat: 15.9560, Lon: -61.3190, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.6, 0.5}},
	{Name: "Vieux-Habitants", Type: TypeCoastal, Population: 7276, Lat: 16.0590, Lon: -61.7660, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.6, 0.5}},
	{Name: "Pointe-Noire", Type: TypeMountain, Population: 5916, Lat: 16.2330, Lon: -61.7830, CoastKm: 1, Vulnerability: Vulnerability{0.5, 0.6, 0.5}},
	{Name: "Baillif", Type: TypeCoastal, Population: 5342, Lat: 16.0200, Lon: -61.7470, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.5, 0.5}},
	{Name: "Vieux-Fort", Type: TypeCoastal, Population: 1819, Lat: 15.9450, Lon: -61.7000, CoastKm: 0, Vulnerability: Vulnerability{0.6, 0.4, 0.4}},
	{Name: "Terre-de-Bas", Type: TypeIsland, Population: 1038, Lat: 15.8510, Lon: -61.6440, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.4, 0.5}},
	{Name: "Terre-de-Haut", Type: TypeIsland, Population: 1537, Lat: 15.8650, Lon: -61.5830, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.3, 0.5}},
	{Name: "La Désirade", Type: TypeIsland, Population: 1420, Lat: 16.3180, Lon: -61.0480, CoastKm: 0, Vulnerability: Vulnerability{0.7, 0.4, 0.5}},
	{Name: "Saint-Barthélemy", Type: TypeIsland, Population: 10289, Lat: 17.9000, Lon: -62.8330, CoastKm: 0, Vulnerability: Vulnerability{0.8, 0.2, 0.6}},
	{Name: "Saint-Martin", Type: TypeIsland, Population: 32358, Lat: 18.0670, Lon: -63.0820, CoastKm: 0, Vulnerability: Vulnerability{0.8, 0.3, 0.7}},
}

var byKey map[string]*Location

func init() {
	byKey = make(map[string]*Location, len(catalog))
	for i := range catalog {
		loc := &catalog[i]
		if loc.Climate == (Climate{}) {
			loc.Climate = typeClimates[loc.Type]
		}
		byKey[Normalize(loc.Name)] = loc
	}
}

// All returns the full catalog in canonical order.
func All() []Location {
	out := make([]Location, len(catalog))
	copy(out, catalog)
	return out
}

// Count returns the number of monitored communes.
func Count() int {
	return len(catalog)
}

// Get looks up a commune by name. Lookup is accent- and case-insensitive and
// treats spaces and hyphens interchangeably ("pointe a pitre" matches
// "Pointe-à-Pitre").
func Get(name string) (Location, bool) {
	loc, ok := byKey[Normalize(name)]
	if !ok {
		return Location{}, false
	}
	return *loc, true
}

// Normalize folds a commune name to its lookup key: lowercase, accents
// stripped, spaces and apostrophes collapsed to hyphens.
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)
	folded = strings.NewReplacer(" ", "-", "'", "-", "’", "-").Replace(folded)
	for strings.Contains(folded, "--") {
		folded = strings.ReplaceAll(folded, "--", "-")
	}
	return strings.Trim(folded, "-")
}
