// Package geo implements great-circle distance and distance filtering.
package geo

import "math"

// EarthRadiusMiles is the mean Earth radius in statute miles.
const EarthRadiusMiles = 3959.0

// Locatable is anything that may carry stored coordinates.
type Locatable interface {
	Coordinates() (lat, lon float64, ok bool)
}

// HaversineMiles returns the great-circle distance between two points given
// in decimal degrees.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// FilterByDistance keeps the items within maxMiles of (lat, lon), preserving
// order. Items without coordinates are always dropped.
func FilterByDistance[T Locatable](items []T, lat, lon, maxMiles float64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		itemLat, itemLon, ok := item.Coordinates()
		if !ok {
			continue
		}
		if HaversineMiles(lat, lon, itemLat, itemLon) <= maxMiles {
			out = append(out, item)
		}
	}
	return out
}

func toRad(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
