package domain

import (
	"math"
	"time"
)

// RiskTrend is the direction reported for a city's flood levels.
type RiskTrend string

const (
	TrendIncreasing RiskTrend = "increasing"
	TrendDecreasing RiskTrend = "decreasing" // part of the contract, never derived
	TrendStable     RiskTrend = "stable"
)

// increasingAbove is the exclusive average flood level above which a city
// trends upward.
const increasingAbove = 5.0

// CityStatSummary is the per-city rollup served by the stats endpoint.
type CityStatSummary struct {
	City          City      `json:"city"`
	AvgFloodLevel float64   `json:"avgFloodLevel"`
	AvgRainfall   float64   `json:"avgRainfall"`
	RiskTrend     RiskTrend `json:"riskTrend"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// Aggregate computes one summary per monitored city, in declaration order,
// from a full snapshot of observations. Observations for cities outside the
// set are ignored. LastUpdated is the aggregation time, not a data time.
func Aggregate(observations []FloodObservation) []CityStatSummary {
	type totals struct {
		count  int
		flood  float64
		precip float64
	}

	byCity := make(map[City]*totals, len(cities))
	for _, c := range cities {
		byCity[c] = &totals{}
	}
	for _, o := range observations {
		t, ok := byCity[o.City]
		if !ok {
			continue
		}
		t.count++
		t.flood += float64(o.FloodHeight)
		t.precip += o.Precipitation
	}

	now := Now()
	out := make([]CityStatSummary, 0, len(cities))
	for _, c := range cities {
		t := byCity[c]
		var avgFlood, avgRain float64
		if t.count > 0 {
			avgFlood = t.flood / float64(t.count)
			avgRain = t.precip / float64(t.count)
		}
		// Trend uses the raw mean; only the reported averages are rounded.
		out = append(out, CityStatSummary{
			City:          c,
			AvgFloodLevel: roundTenth(avgFlood),
			AvgRainfall:   roundTenth(avgRain),
			RiskTrend:     trendFor(avgFlood),
			LastUpdated:   now,
		})
	}
	return out
}

func trendFor(meanFloodLevel float64) RiskTrend {
	if meanFloodLevel > increasingAbove {
		return TrendIncreasing
	}
	return TrendStable
}

// roundTenth rounds half away from zero to one decimal place.
func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
