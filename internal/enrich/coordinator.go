// Package enrich decorates a resolved flight with its registration, a photo and its
// recent track. Every sub-lookup is independent: a failing one is recorded in its
// Outcome and never hides the flight or the other lookups.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/internal/cache"
	"github.com/unklstewy/whatdatplane/internal/metrics"
	"github.com/unklstewy/whatdatplane/pkg/adsb"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
	"github.com/unklstewy/whatdatplane/pkg/photos"
)

// TTLs are the cache lifetimes per data kind.
type TTLs struct {
	Registration  time.Duration
	Photo         time.Duration
	PhotoNegative time.Duration
	Track         time.Duration
}

// DefaultTTLs returns the standard cache policy.
func DefaultTTLs() TTLs {
	return TTLs{
		Registration:  24 * time.Hour,
		Photo:         7 * 24 * time.Hour,
		PhotoNegative: time.Hour,
		Track:         2 * time.Minute,
	}
}

// Deps are the collaborators of a Coordinator. Any provider may be nil, in which case
// its lookups report unavailable.
type Deps struct {
	Registrations adsb.RegistrationResolver
	Photos        photos.Provider
	Tracks        adsb.TrackProvider

	RegistrationCache *cache.Cache[adsb.AircraftMetadata]
	PhotoCache        *cache.Cache[photos.Result]
	TrackCache        *cache.Cache[adsb.TrackRecord]

	TTLs TTLs
}

// Coordinator runs enrichment lookups through their caches.
type Coordinator struct {
	registrations adsb.RegistrationResolver
	photos        photos.Provider
	tracks        adsb.TrackProvider

	regCache   *cache.Cache[adsb.AircraftMetadata]
	photoCache *cache.Cache[photos.Result]
	trackCache *cache.Cache[adsb.TrackRecord]
	ttl        TTLs
}

// New creates a Coordinator. Nil caches are replaced with private ones.
func New(d Deps) *Coordinator {
	c := &Coordinator{
		registrations: d.Registrations,
		photos:        d.Photos,
		tracks:        d.Tracks,
		regCache:      d.RegistrationCache,
		photoCache:    d.PhotoCache,
		trackCache:    d.TrackCache,
		ttl:           d.TTLs,
	}
	if c.regCache == nil {
		c.regCache = cache.New[adsb.AircraftMetadata]("registration")
	}
	if c.photoCache == nil {
		c.photoCache = cache.New[photos.Result]("photo")
	}
	if c.trackCache == nil {
		c.trackCache = cache.New[adsb.TrackRecord]("track")
	}
	if c.ttl == (TTLs{}) {
		c.ttl = DefaultTTLs()
	}
	return c
}

// Details is a flight with its enrichment outcomes.
type Details struct {
	Flight       adsb.Flight               `json:"flight"`
	Registration Outcome[string]           `json:"registration"`
	Photo        Outcome[photos.Result]    `json:"photo"`
	Track        Outcome[adsb.TrackRecord] `json:"track"`
	Altitude     []adsb.AltitudeSample     `json:"altitude_profile,omitempty"`
	Bounds       *coordinates.BoundingBox  `json:"track_bounds,omitempty"`
}

// Enrich runs the registration-then-photo chain and the track lookup concurrently.
// It always returns the flight; registration and type are filled in when found.
func (c *Coordinator) Enrich(ctx context.Context, flight adsb.Flight) Details {
	d := Details{
		Flight: flight,
		Photo:  Unavailable[photos.Result]("photo lookup did not run"),
	}

	var g errgroup.Group
	g.Go(func() error {
		isolate("registration", &d.Registration, func() {
			var meta *adsb.AircraftMetadata
			d.Registration, meta = c.registrationOutcome(ctx, flight)

			reg, typeCode := "", ""
			if d.Registration.Value != nil {
				reg = *d.Registration.Value
			}
			if flight.AircraftType != nil {
				typeCode = *flight.AircraftType
			} else if meta != nil {
				typeCode = meta.TypeCode
			}
			if meta != nil {
				d.Flight.Registration = stringPtr(meta.Registration)
				if d.Flight.AircraftType == nil && meta.TypeCode != "" {
					d.Flight.AircraftType = stringPtr(meta.TypeCode)
				}
			}

			isolate("photo", &d.Photo, func() {
				d.Photo, _ = c.photoOutcome(ctx, photoKey(flight.ICAO24, reg), reg, typeCode)
			})
		})
		return nil
	})
	g.Go(func() error {
		isolate("track", &d.Track, func() {
			d.Track = c.trackOutcome(ctx, flight.ICAO24)
		})
		return nil
	})
	_ = g.Wait()

	if d.Track.Value != nil {
		d.Altitude = d.Track.Value.AltitudeProfile()
		if box, ok := d.Track.Value.Bounds(); ok {
			d.Bounds = &box
		}
	}

	record("registration", d.Registration.Status)
	record("photo", d.Photo.Status)
	record("track", d.Track.Status)
	return d
}

// LookupPhoto finds a photo for an aircraft identified by transponder address,
// registration or both. A missing registration is resolved from icao24 first.
// Failures are absorbed into the outcome. hit reports a cache hit.
func (c *Coordinator) LookupPhoto(ctx context.Context, icao24, registration string) (out Outcome[photos.Result], hit bool) {
	icao24 = strings.ToLower(strings.TrimSpace(icao24))
	reg := strings.TrimSpace(registration)
	key := photoKey(icao24, reg)

	if cached, ok := c.photoCache.Get(key); ok {
		return OK(cached), true
	}

	typeCode := ""
	if reg == "" && icao24 != "" {
		flight := adsb.Flight{ICAO24: icao24}
		regOut, meta := c.registrationOutcome(ctx, flight)
		if regOut.Value != nil {
			reg = *regOut.Value
		}
		if meta != nil {
			typeCode = meta.TypeCode
		}
	}
	return c.photoOutcome(ctx, key, reg, typeCode)
}

// Track returns the cached or freshly fetched track. Errors keep their apperr kind.
func (c *Coordinator) Track(ctx context.Context, icao24 string) (track adsb.TrackRecord, hit bool, err error) {
	icao24 = strings.ToLower(strings.TrimSpace(icao24))
	if icao24 == "" {
		return adsb.TrackRecord{}, false, apperr.Validation("icao24 is required")
	}
	if c.tracks == nil {
		return adsb.TrackRecord{}, false, apperr.Unavailable("track lookup is not configured")
	}

	key := "track:" + icao24
	if cached, ok := c.trackCache.Get(key); ok {
		return cached, true, nil
	}

	t, err := c.tracks.FetchTrack(ctx, icao24)
	if err != nil {
		return adsb.TrackRecord{}, false, err
	}
	c.trackCache.Set(key, *t, c.ttl.Track)
	return *t, false, nil
}

// registrationOutcome resolves the flight's registration. The metadata is returned
// alongside when a lookup produced it.
func (c *Coordinator) registrationOutcome(ctx context.Context, flight adsb.Flight) (Outcome[string], *adsb.AircraftMetadata) {
	if flight.Registration != nil && *flight.Registration != "" {
		return OK(*flight.Registration), nil
	}
	if flight.ICAO24 == "" {
		return Absent[string]("no transponder address"), nil
	}
	if c.registrations == nil {
		return Unavailable[string]("registration lookup is not configured"), nil
	}

	key := "registration:" + flight.ICAO24
	if meta, ok := c.regCache.Get(key); ok {
		if meta.Registration == "" {
			return Absent[string]("no registration on record"), nil
		}
		return OK(meta.Registration), &meta
	}

	meta, err := c.registrations.ResolveRegistration(ctx, flight.ICAO24)
	if err != nil {
		zap.L().Debug("registration lookup degraded", zap.String("icao24", flight.ICAO24), zap.Error(err))
		return Unavailable[string](reason(err)), nil
	}
	if meta == nil {
		c.regCache.Set(key, adsb.AircraftMetadata{ICAO24: flight.ICAO24}, c.ttl.PhotoNegative)
		return Absent[string]("no registration on record"), nil
	}
	c.regCache.Set(key, *meta, c.ttl.Registration)
	return OK(meta.Registration), meta
}

// photoOutcome looks up by registration, then by type. Finding nothing is a valid
// all-null result and is cached for the negative TTL; failures are never cached.
func (c *Coordinator) photoOutcome(ctx context.Context, key, reg, typeCode string) (Outcome[photos.Result], bool) {
	if reg == "" {
		return OK(photos.Result{}), false
	}
	if cached, ok := c.photoCache.Get(key); ok {
		return OK(cached), true
	}
	if c.photos == nil {
		return Unavailable[photos.Result]("photo lookup is not configured"), false
	}

	res, err := c.photos.FetchByRegistration(ctx, reg)
	if err != nil {
		zap.L().Debug("photo lookup degraded", zap.String("registration", reg), zap.Error(err))
		// A type photo still beats no photo, but it is not cached so the exact
		// airframe is tried again once the provider recovers.
		generic, typeErr := c.typePhoto(ctx, reg, typeCode)
		if typeErr != nil || !generic.HasPhoto() {
			return Unavailable[photos.Result](reason(err)), false
		}
		return OK(*generic), false
	}
	if !res.HasPhoto() && typeCode != "" {
		res, err = c.typePhoto(ctx, reg, typeCode)
		if err != nil {
			zap.L().Debug("type photo lookup degraded", zap.String("type", typeCode), zap.Error(err))
			return Unavailable[photos.Result](reason(err)), false
		}
	}

	if !res.HasPhoto() {
		c.photoCache.Set(key, photos.Result{}, c.ttl.PhotoNegative)
		return OK(photos.Result{}), false
	}
	c.photoCache.Set(key, *res, c.ttl.Photo)
	return OK(*res), false
}

func (c *Coordinator) typePhoto(ctx context.Context, reg, typeCode string) (*photos.Result, error) {
	if typeCode == "" {
		return nil, nil
	}
	res, err := c.photos.FetchByType(ctx, typeCode)
	if err != nil || !res.HasPhoto() {
		return nil, err
	}
	res.IsGeneric = true
	res.Registration = stringPtr(reg)
	return res, nil
}

func (c *Coordinator) trackOutcome(ctx context.Context, icao24 string) Outcome[adsb.TrackRecord] {
	if icao24 == "" {
		return Absent[adsb.TrackRecord]("no transponder address")
	}
	track, _, err := c.Track(ctx, icao24)
	switch {
	case err == nil:
		return OK(track)
	case apperr.Is(err, apperr.KindNotFound):
		return Absent[adsb.TrackRecord]("no track available")
	case apperr.Is(err, apperr.KindUnavailable):
		return Unavailable[adsb.TrackRecord](reason(err))
	default:
		zap.L().Warn("track lookup failed", zap.String("icao24", icao24), zap.Error(err))
		return Failed[adsb.TrackRecord](reason(err))
	}
}

// isolate runs fn and converts a panic into an unavailable outcome for that lookup.
func isolate[T any](lookup string, out *Outcome[T], fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrichment lookup panicked", zap.String("lookup", lookup), zap.Any("panic", r))
			*out = Unavailable[T](fmt.Sprintf("%s lookup crashed", lookup))
		}
	}()
	fn()
}

func photoKey(icao24, reg string) string {
	if icao24 != "" {
		return "photo:" + icao24
	}
	return "photo:" + strings.ToUpper(reg)
}

// reason renders a caller-facing cause without internal wrapping noise.
func reason(err error) string {
	if e, ok := apperr.As(err); ok {
		return e.Error()
	}
	return err.Error()
}

func record(lookup string, status Status) {
	metrics.EnrichmentOutcomes.WithLabelValues(lookup, string(status)).Inc()
}

func stringPtr(s string) *string {
	return &s
}
