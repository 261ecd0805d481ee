// Package coordinates provides the spherical-earth geometry used to rank aircraft
// by distance from a query point.
package coordinates

import (
	"errors"
	"fmt"
	"math"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusKm is the mean Earth radius used by every distance in this module.
	EarthRadiusKm = 6371.0

	// MetersToFeet converts meters to feet
	MetersToFeet = 3.28084

	// MetersPerSecondToKnots converts m/s to knots
	MetersPerSecondToKnots = 1.94384

	// MetersPerSecondToFeetPerMinute converts m/s to ft/min
	MetersPerSecondToFeetPerMinute = 196.85
)

var (
	// ErrInvalidLatitude is returned for latitudes outside [-90, 90] or non-finite values.
	ErrInvalidLatitude = errors.New("latitude must be a finite number between -90 and 90")

	// ErrInvalidLongitude is returned for longitudes outside [-180, 180] or non-finite values.
	ErrInvalidLongitude = errors.New("longitude must be a finite number between -180 and 180")
)

// GeoPoint is a position on the Earth's surface in decimal degrees.
type GeoPoint struct {
	// Latitude in decimal degrees (-90 to +90), positive = North
	Latitude float64 `json:"lat"`

	// Longitude in decimal degrees (-180 to +180), positive = East
	Longitude float64 `json:"lon"`
}

// NewGeoPoint validates lat/lon and returns the point.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{Latitude: lat, Longitude: lon}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate reports whether the point lies within valid coordinate ranges.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) || p.Latitude < -90 || p.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// String formats the point as "lat,lon" with four decimals.
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.4f,%.4f", p.Latitude, p.Longitude)
}

// ToRadians returns latitude and longitude in radians.
func (p GeoPoint) ToRadians() (float64, float64) {
	return p.Latitude * DegreesToRadians, p.Longitude * DegreesToRadians
}

// DistanceKm calculates the great-circle distance between two points.
// Uses the Haversine formula on a sphere of radius EarthRadiusKm.
// The result is never rounded; see Round2 for presentation.
func DistanceKm(from, to GeoPoint) float64 {
	lat1Rad, lon1Rad := from.ToRadians()
	lat2Rad, lon2Rad := to.ToRadians()

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// Float error can push a past 1 for near-antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// Round2 rounds a distance to two decimal places for display.
func Round2(km float64) float64 {
	return math.Round(km*100) / 100
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to GeoPoint) float64 {
	lat1, lon1 := from.ToRadians()
	lat2, lon2 := to.ToRadians()

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	if bearing < 0 {
		bearing += 360
	}
	return bearing
}

// CompassPoint names the 8-wind compass direction for a bearing in degrees.
func CompassPoint(bearing float64) string {
	points := [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	return points[int(math.Round(b/45))%8]
}
