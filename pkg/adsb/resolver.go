package adsb

import (
	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

// ResolveNearest returns the airborne flight closest to point.
//
// It is a single linear scan: records that do not normalize or report OnGround are
// skipped, and a candidate replaces the current best only when strictly closer, so
// equidistant records resolve to the one delivered first. That order is whatever the
// provider sent and carries no ranking meaning. The returned flight has
// DistanceKm set at full precision.
//
// An apperr.KindNotFound error is returned when no record qualifies.
func ResolveNearest(point coordinates.GeoPoint, states []RawState, provider ProviderTag) (Flight, error) {
	var (
		best  Flight
		found bool
	)
	for _, raw := range states {
		f, ok := Normalize(raw, provider)
		if !ok || f.OnGround {
			continue
		}
		f.DistanceKm = coordinates.DistanceKm(point, f.Position())
		if !found || f.DistanceKm < best.DistanceKm {
			best = f
			found = true
		}
	}
	if !found {
		return Flight{}, apperr.NotFound("no airborne aircraft found")
	}
	return best, nil
}
