package domain

import (
	"fmt"
	"strings"
)

// City is one of the fixed set of monitored cities.
type City string

const (
	QuezonCity City = "Quezon City"
	Manila     City = "Manila"
	Marikina   City = "Marikina"
	Pasig      City = "Pasig"
)

// cities is the declaration order used for stats output.
var cities = [...]City{QuezonCity, Manila, Marikina, Pasig}

// cityProfile holds the reference location used when seeding observations.
type cityProfile struct {
	Lat       float64
	Lon       float64
	Elevation float64 // meters
}

var cityProfiles = map[City]cityProfile{
	QuezonCity: {Lat: 14.6760, Lon: 121.0437, Elevation: 15},
	Manila:     {Lat: 14.5995, Lon: 120.9842, Elevation: 5},
	Marikina:   {Lat: 14.6507, Lon: 121.0984, Elevation: 8}, // river valley
	Pasig:      {Lat: 14.5763, Lon: 121.0851, Elevation: 10},
}

// Cities returns the monitored cities in declaration order.
func Cities() []City {
	out := make([]City, len(cities))
	copy(out, cities[:])
	return out
}

// Valid reports whether c is a member of the city set.
func (c City) Valid() bool {
	for _, known := range cities {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCity returns the City named s, or a *ValidationError wrapping
// ErrInvalidCity. Matching is exact.
func ParseCity(s string) (City, error) {
	c := City(s)
	if !c.Valid() {
		return "", &ValidationError{
			Field:   "city",
			Message: fmt.Sprintf("city must be one of: %s", cityList()),
			Err:     ErrInvalidCity,
		}
	}
	return c, nil
}

func cityList() string {
	names := make([]string, len(cities))
	for i, c := range cities {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
