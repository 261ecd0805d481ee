package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/unklstewy/whatdatplane/internal/api"
	"github.com/unklstewy/whatdatplane/internal/cache"
	"github.com/unklstewy/whatdatplane/internal/enrich"
	"github.com/unklstewy/whatdatplane/internal/nearest"
	"github.com/unklstewy/whatdatplane/internal/ratelimit"
	"github.com/unklstewy/whatdatplane/internal/upstream"
	"github.com/unklstewy/whatdatplane/pkg/adsb"
	"github.com/unklstewy/whatdatplane/pkg/config"
	"github.com/unklstewy/whatdatplane/pkg/geocode"
	"github.com/unklstewy/whatdatplane/pkg/photos"
)

// services is every long-lived component, built once per process.
type services struct {
	finder   *nearest.Finder
	geocoder *geocode.Nominatim
	enricher *enrich.Coordinator
	limiters api.Limiters

	geoCache *cache.Cache[geocode.Result]

	// sweepables are cleaned by the periodic sweeper
	sweepables []cache.Sweepable
}

func newUpstream(c *config.Config, name string, ep config.EndpointConfig, userAgent string) *upstream.Client {
	return upstream.New(upstream.Options{
		Name:              name,
		RequestsPerSecond: ep.RequestsPerSecond,
		Timeout:           c.Upstream.Timeout,
		UserAgent:         userAgent,
		Breaker: upstream.BreakerSettings{
			MinRequests:  c.Breaker.MinRequests,
			FailureRatio: c.Breaker.FailureRatio,
			OpenTimeout:  c.Breaker.OpenTimeout,
		},
	})
}

func buildServices(c *config.Config) (*services, error) {
	// OpenSky also serves registration metadata and tracks for every live provider.
	openskyHTTP := newUpstream(c, "opensky", c.OpenSky.EndpointConfig, "")
	var openskyOpts []adsb.OpenSkyOption
	if c.OpenSky.Username != "" {
		openskyOpts = append(openskyOpts, adsb.WithOpenSkyCredentials(c.OpenSky.Username, c.OpenSky.Password))
	}
	opensky := adsb.NewOpenSkyClient(c.OpenSky.BaseURL, openskyHTTP, openskyOpts...)

	var live adsb.LiveSource
	switch c.Live.Provider {
	case config.ProviderOpenSky:
		live = opensky
	case config.ProviderAirLabs:
		live = adsb.NewAirLabsClient(c.AirLabs.BaseURL, c.AirLabs.APIKey,
			newUpstream(c, "airlabs", c.AirLabs.EndpointConfig, ""))
	case config.ProviderAviationstack:
		live = adsb.NewAviationstackClient(c.Aviationstack.BaseURL, c.Aviationstack.APIKey, c.Aviationstack.MaxPages,
			newUpstream(c, "aviationstack", c.Aviationstack.EndpointConfig, ""))
	default:
		return nil, eris.Errorf("unknown live provider %q", c.Live.Provider)
	}

	nearestCache := cache.New[adsb.Flight]("nearest")
	finder := nearest.NewFinder(live, nearestCache, nearest.Options{
		TTL:              c.Cache.TTL.Nearest,
		PrefilterRadiiKm: c.Live.PrefilterRadiiKm,
	})

	geocoder := geocode.NewNominatim(c.Nominatim.BaseURL,
		newUpstream(c, "nominatim", c.Nominatim.EndpointConfig, c.Nominatim.UserAgent))

	catalog := photos.NewCatalog(c.Photos.TypeCatalog)
	photoChain := photos.Chain{
		Registration: photos.NewPlanespotters(c.Planespotters.BaseURL,
			newUpstream(c, "planespotters", c.Planespotters, "")),
		Types: catalog,
	}

	regCache := cache.New[adsb.AircraftMetadata]("registration")
	photoCache := cache.New[photos.Result]("photo")
	trackCache := cache.New[adsb.TrackRecord]("track")
	enricher := enrich.New(enrich.Deps{
		Registrations:     opensky,
		Photos:            photoChain,
		Tracks:            opensky,
		RegistrationCache: regCache,
		PhotoCache:        photoCache,
		TrackCache:        trackCache,
		TTLs: enrich.TTLs{
			Registration:  c.Cache.TTL.Registration,
			Photo:         c.Cache.TTL.Photo,
			PhotoNegative: c.Cache.TTL.PhotoNegative,
			Track:         c.Cache.TTL.Track,
		},
	})

	rl := c.RateLimit
	limiters := api.Limiters{
		Flight:  ratelimit.New("flight", rl.Flight, rl.Window),
		Geocode: ratelimit.New("geocode", rl.Geocode, rl.Window),
		Track:   ratelimit.New("track", rl.Track, rl.Window),
		Photo:   ratelimit.New("photo", rl.Photo, rl.Window),
	}

	geoCache := cache.New[geocode.Result]("geocode")

	zap.L().Info("services ready",
		zap.String("live_provider", string(live.Provider())),
		zap.Bool("bounding_box", live.SupportsBoundingBox()),
		zap.Float64s("prefilter_radii_km", c.Live.PrefilterRadiiKm),
		zap.Int("type_catalog", catalog.Len()),
	)

	return &services{
		finder:   finder,
		geocoder: geocoder,
		enricher: enricher,
		limiters: limiters,
		geoCache: geoCache,
		sweepables: []cache.Sweepable{
			nearestCache, regCache, photoCache, trackCache, geoCache,
			limiters.Flight, limiters.Geocode, limiters.Track, limiters.Photo,
		},
	}, nil
}
