package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type point struct {
	name     string
	lat, lon *float64
}

func (p point) Coordinates() (float64, float64, bool) {
	if p.lat == nil || p.lon == nil {
		return 0, 0, false
	}
	return *p.lat, *p.lon, true
}

func f(v float64) *float64 { return &v }

func TestHaversineMiles_KnownDistance(t *testing.T) {
	// New York City to Los Angeles.
	d := HaversineMiles(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 2445, d, 5)
}

func TestHaversineMiles_Symmetric(t *testing.T) {
	cases := [][4]float64{
		{51.5074, -0.1278, 48.8566, 2.3522},
		{-33.8688, 151.2093, 35.6762, 139.6503},
		{0, 0, 0, 180},
		{89.9, 10, -89.9, -170},
	}

	for _, c := range cases {
		ab := HaversineMiles(c[0], c[1], c[2], c[3])
		ba := HaversineMiles(c[2], c[3], c[0], c[1])
		assert.InDelta(t, ab, ba, 1e-9)
		assert.InDelta(t, 0, HaversineMiles(c[0], c[1], c[0], c[1]), 1e-9)
	}
}

func TestHaversineMiles_UsesStatuteMiles(t *testing.T) {
	// Half the circumference along the equator.
	d := HaversineMiles(0, 0, 0, 180)
	assert.InDelta(t, math.Pi*EarthRadiusMiles, d, 1e-6)
}

func TestFilterByDistance(t *testing.T) {
	items := []point{
		{name: "near", lat: f(40.73), lon: f(-73.99)},
		{name: "no-location"},
		{name: "far", lat: f(34.05), lon: f(-118.24)},
		{name: "lat-only", lat: f(40.71)},
		{name: "boston", lat: f(42.36), lon: f(-71.06)},
	}

	got := FilterByDistance(items, 40.7128, -74.0060, 25)
	assert.Equal(t, []string{"near"}, names(got))

	got = FilterByDistance(items, 40.7128, -74.0060, 250)
	assert.Equal(t, []string{"near", "boston"}, names(got))
}

func TestFilterByDistance_UnknownLocationNeverIncluded(t *testing.T) {
	items := []point{{name: "a"}, {name: "b", lon: f(1)}}

	for _, maxMiles := range []float64{0, 25, 1e6, math.MaxFloat64, math.Inf(1)} {
		assert.Empty(t, FilterByDistance(items, 0, 0, maxMiles))
	}
}

func names(items []point) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.name)
	}
	return out
}
