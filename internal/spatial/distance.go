package spatial

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters

	// MetersPerDegree is the fixed equator approximation used to convert
	// between meter radii and the degree units the store predicates expect.
	MetersPerDegree = 111320.0
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// HaversinePoints is HaversineDistance over orb points (lon/lat order).
func HaversinePoints(a, b orb.Point) float64 {
	return HaversineDistance(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// MetersToDegrees converts a meter distance to degrees at the equator.
func MetersToDegrees(m float64) float64 {
	return m / MetersPerDegree
}

// DegreesToMeters converts a degree distance to meters at the equator.
func DegreesToMeters(d float64) float64 {
	return d * MetersPerDegree
}
