package domain

import (
	"math"
	"math/rand/v2"
)

const (
	seedRecordsPerCity = 5
	seedMaxRainfall    = 300.0 // mm, exclusive
	seedJitter         = 0.05  // degrees, full width around the city centre
)

// SeedObservations generates a small set of plausible historical
// observations for every city, in city order. Flood height follows rainfall:
// above 200 mm gives 5-7, above 100 mm gives 2-4, anything else 0-1.
func SeedObservations(rng *rand.Rand) []FloodObservation {
	now := Now()
	out := make([]FloodObservation, 0, len(cities)*seedRecordsPerCity)
	for _, c := range cities {
		p := cityProfiles[c]
		for range seedRecordsPerCity {
			rainfall := rng.Float64() * seedMaxRainfall
			out = append(out, FloodObservation{
				City:          c,
				Latitude:      p.Lat + (rng.Float64()-0.5)*seedJitter,
				Longitude:     p.Lon + (rng.Float64()-0.5)*seedJitter,
				FloodHeight:   seedFloodHeight(rng, rainfall),
				Elevation:     p.Elevation,
				Precipitation: math.Round(rainfall*10) / 10,
				RecordedAt:    now,
			})
		}
	}
	return out
}

// SeedHeightRange returns the inclusive flood height band seeding draws from
// for the given rainfall in mm.
func SeedHeightRange(rainfall float64) (lo, hi int) {
	switch {
	case rainfall > 200:
		return 5, 7
	case rainfall > 100:
		return 2, 4
	default:
		return 0, 1
	}
}

func seedFloodHeight(rng *rand.Rand, rainfall float64) int {
	lo, hi := SeedHeightRange(rainfall)
	return lo + rng.IntN(hi-lo+1)
}
