package coordinates

import "math"

// BoundingBox is a lat/lon rectangle that does not cross the antimeridian.
type BoundingBox struct {
	MinLatitude  float64 `json:"min_lat"`
	MinLongitude float64 `json:"min_lon"`
	MaxLatitude  float64 `json:"max_lat"`
	MaxLongitude float64 `json:"max_lon"`
}

// Contains reports whether p lies inside the box, edges included.
func (b BoundingBox) Contains(p GeoPoint) bool {
	return p.Latitude >= b.MinLatitude && p.Latitude <= b.MaxLatitude &&
		p.Longitude >= b.MinLongitude && p.Longitude <= b.MaxLongitude
}

// BoundingBoxAround returns the smallest axis-aligned box guaranteed to contain every
// point within radiusKm of center.
//
// The latitude half-width is exact (radiusKm / R). The longitude half-width is taken at the
// box's most poleward latitude, where meridians are closest together:
//
//	Δλ = 2·asin( sin(r/2R) / cos(φmax) )
//
// ok is false when no such box exists without crossing a pole or the antimeridian; callers
// must then search globally.
func BoundingBoxAround(center GeoPoint, radiusKm float64) (box BoundingBox, ok bool) {
	if radiusKm <= 0 || center.Validate() != nil {
		return BoundingBox{}, false
	}

	angular := radiusKm / EarthRadiusKm
	if angular >= math.Pi/2 {
		return BoundingBox{}, false
	}

	lat, lon := center.ToRadians()
	minLat := lat - angular
	maxLat := lat + angular
	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return BoundingBox{}, false
	}

	poleward := math.Max(math.Abs(minLat), math.Abs(maxLat))
	s := math.Sin(angular/2) / math.Cos(poleward)
	if s >= 1 {
		return BoundingBox{}, false
	}
	dLon := 2 * math.Asin(s)

	minLon := lon - dLon
	maxLon := lon + dLon
	if minLon < -math.Pi || maxLon > math.Pi {
		return BoundingBox{}, false
	}

	return BoundingBox{
		MinLatitude:  minLat * RadiansToDegrees,
		MinLongitude: minLon * RadiansToDegrees,
		MaxLatitude:  maxLat * RadiansToDegrees,
		MaxLongitude: maxLon * RadiansToDegrees,
	}, true
}
