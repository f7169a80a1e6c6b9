package locations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_AccentAndCaseInsensitive(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pointe-à-Pitre", "Pointe-à-Pitre"},
		{"pointe-a-pitre", "Pointe-à-Pitre"},
		{"POINTE A PITRE", "Pointe-à-Pitre"},
		{"Morne-à-l'Eau", "Morne-à-l'Eau"},
		{"morne a l eau", "Morne-à-l'Eau"},
		{"saint-francois", "Saint-François"},
		{"basse-terre", "Basse-Terre"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, ok := Get(tt.input)
			require.True(t, ok, "expected %q to resolve", tt.input)
			assert.Equal(t, tt.want, loc.Name)
		})
	}
}

func TestGet_UnknownLocation(t *testing.T) {
	_, ok := Get("atlantis")
	assert.False(t, ok)
}

func TestCatalog_Complete(t *testing.T) {
	assert.Equal(t, 32, Count())

	for _, loc := range All() {
		assert.NotEmpty(t, loc.Name)
		assert.NotZero(t, loc.Population, "population missing for %s", loc.Name)
		assert.NotZero(t, loc.Lat, "latitude missing for %s", loc.Name)
		assert.NotZero(t, loc.Lon, "longitude missing for %s", loc.Name)

		// Every commune must carry a usable climate baseline for the
		// synthetic backup tier.
		assert.NotZero(t, loc.Climate.TempC, "climate missing for %s", loc.Name)
		assert.NotZero(t, loc.Climate.PressureHPa, "pressure baseline missing for %s", loc.Name)

		assert.Greater(t, loc.Vulnerability.Infrastructure, 0.0, "vulnerability missing for %s", loc.Name)
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0].Name = "mutated"

	fresh := All()
	assert.NotEqual(t, "mutated", fresh[0].Name)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Pointe-à-Pitre", "pointe-a-pitre"},
		{"LES ABYMES", "les-abymes"},
		{"Morne-à-l'Eau", "morne-a-l-eau"},
		{"  Capesterre  Belle  Eau  ", "capesterre-belle-eau"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.input), "input %q", tt.input)
	}
}
