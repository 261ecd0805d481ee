// Package nearest answers "which airborne aircraft is closest to this point",
// caching answers briefly and narrowing provider queries when the provider allows it.
package nearest

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/internal/cache"
	"github.com/unklstewy/whatdatplane/pkg/adsb"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

// DefaultTTL is how long a nearest-flight answer is reused. Positions move quickly.
const DefaultTTL = 30 * time.Second

// Options configures a Finder.
type Options struct {
	// TTL of cached answers; DefaultTTL when zero
	TTL time.Duration

	// PrefilterRadiiKm are the search radii tried, narrowest first, before a global
	// query. Empty disables the pre-filter.
	PrefilterRadiiKm []float64
}

// Result is a resolved nearest flight.
type Result struct {
	Flight   adsb.Flight
	CacheHit bool
}

// Finder resolves the nearest flight for a point against one live source.
type Finder struct {
	source adsb.LiveSource
	cache  *cache.Cache[adsb.Flight]
	ttl    time.Duration
	radii  []float64
}

// NewFinder creates a Finder. c may be shared with nothing else.
func NewFinder(source adsb.LiveSource, c *cache.Cache[adsb.Flight], opts Options) *Finder {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	radii := slices.Clone(opts.PrefilterRadiiKm)
	slices.Sort(radii)
	return &Finder{
		source: source,
		cache:  c,
		ttl:    ttl,
		radii:  radii,
	}
}

// Provider returns the live source's schema tag.
func (f *Finder) Provider() adsb.ProviderTag {
	return f.source.Provider()
}

// Find returns the nearest airborne flight to point. Provider failures surface as
// apperr.KindUpstream and an empty sky as apperr.KindNotFound; neither is cached.
func (f *Finder) Find(ctx context.Context, point coordinates.GeoPoint) (Result, error) {
	if err := point.Validate(); err != nil {
		return Result{}, apperr.Validation("%s", err.Error())
	}

	key := fmt.Sprintf("nearest:%s:%.4f:%.4f", f.source.Provider(), point.Latitude, point.Longitude)
	if flight, ok := f.cache.Get(key); ok {
		// The key is rounded, so the cached answer may have been resolved for a
		// neighbouring point.
		flight.DistanceKm = coordinates.DistanceKm(point, flight.Position())
		return Result{Flight: flight, CacheHit: true}, nil
	}

	flight, err := f.search(ctx, point)
	if err != nil {
		return Result{}, err
	}
	f.cache.Set(key, flight, f.ttl)
	return Result{Flight: flight}, nil
}

// search tries each pre-filter radius in turn. A box result is accepted only when it
// lies within the radius the box was built for: the box contains every point within
// that radius, so nothing outside it can be closer. Otherwise the search widens and
// finally falls back to the unfiltered snapshot.
func (f *Finder) search(ctx context.Context, point coordinates.GeoPoint) (adsb.Flight, error) {
	tag := f.source.Provider()

	if f.source.SupportsBoundingBox() {
		for _, radius := range f.radii {
			box, ok := coordinates.BoundingBoxAround(point, radius)
			if !ok {
				continue
			}

			states, err := f.source.FetchLiveStates(ctx, &box)
			if err != nil {
				return adsb.Flight{}, eris.Wrapf(err, "nearest: fetch within %.0f km", radius)
			}

			flight, err := adsb.ResolveNearest(point, states, tag)
			if err == nil && flight.DistanceKm <= radius {
				return flight, nil
			}
			if err != nil && !apperr.Is(err, apperr.KindNotFound) {
				return adsb.Flight{}, err
			}
			zap.L().Debug("widening nearest-flight search",
				zap.String("provider", string(tag)),
				zap.Float64("radius_km", radius),
				zap.Int("candidates", len(states)),
			)
		}
	}

	states, err := f.source.FetchLiveStates(ctx, nil)
	if err != nil {
		return adsb.Flight{}, eris.Wrap(err, "nearest: fetch global snapshot")
	}
	return adsb.ResolveNearest(point, states, tag)
}
