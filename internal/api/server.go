// Package api serves the HTTP surface: nearest-flight lookup, geocoding, photos,
// tracks and combined flight details.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unklstewy/whatdatplane/internal/cache"
	"github.com/unklstewy/whatdatplane/internal/enrich"
	"github.com/unklstewy/whatdatplane/internal/metrics"
	"github.com/unklstewy/whatdatplane/internal/nearest"
	"github.com/unklstewy/whatdatplane/internal/ratelimit"
	"github.com/unklstewy/whatdatplane/pkg/adsb"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
	"github.com/unklstewy/whatdatplane/pkg/geocode"
	"github.com/unklstewy/whatdatplane/pkg/photos"
)

// DefaultGeocodeTTL is how long a resolved address is reused.
const DefaultGeocodeTTL = 24 * time.Hour

// NearestFinder resolves the nearest flight to a point.
type NearestFinder interface {
	Find(ctx context.Context, point coordinates.GeoPoint) (nearest.Result, error)
}

// Enricher decorates flights and serves the per-aircraft lookups.
type Enricher interface {
	Enrich(ctx context.Context, flight adsb.Flight) enrich.Details
	LookupPhoto(ctx context.Context, icao24, registration string) (enrich.Outcome[photos.Result], bool)
	Track(ctx context.Context, icao24 string) (adsb.TrackRecord, bool, error)
}

// Limiters are the per-endpoint-group request limiters.
type Limiters struct {
	Flight  *ratelimit.Limiter
	Geocode *ratelimit.Limiter
	Track   *ratelimit.Limiter
	Photo   *ratelimit.Limiter
}

// DefaultLimiters returns the standard per-minute budgets.
func DefaultLimiters() Limiters {
	return Limiters{
		Flight:  ratelimit.New("flight", 20, time.Minute),
		Geocode: ratelimit.New("geocode", 30, time.Minute),
		Track:   ratelimit.New("track", 10, time.Minute),
		Photo:   ratelimit.New("photo", 30, time.Minute),
	}
}

// Deps are the services behind the API. Finder and Geocoder may be nil when not
// configured; their endpoints then answer 503.
type Deps struct {
	Finder       NearestFinder
	Geocoder     geocode.Geocoder
	GeocodeCache *cache.Cache[geocode.Result]
	GeocodeTTL   time.Duration
	Enricher     Enricher
	Limiters     Limiters

	AllowedOrigins []string
}

// Server holds the router and its dependencies.
type Server struct {
	router     *chi.Mux
	finder     NearestFinder
	geocoder   geocode.Geocoder
	geoCache   *cache.Cache[geocode.Result]
	geocodeTTL time.Duration
	enricher   Enricher
	limits     Limiters
	origins    []string
}

// NewServer creates a Server with its routes registered.
func NewServer(d Deps) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		finder:     d.Finder,
		geocoder:   d.Geocoder,
		geoCache:   d.GeocodeCache,
		geocodeTTL: d.GeocodeTTL,
		enricher:   d.Enricher,
		limits:     d.Limiters,
		origins:    d.AllowedOrigins,
	}
	if s.geoCache == nil {
		s.geoCache = cache.New[geocode.Result]("geocode")
	}
	if s.geocodeTTL <= 0 {
		s.geocodeTTL = DefaultGeocodeTTL
	}
	if len(s.origins) == 0 {
		s.origins = []string{"*"}
	}

	defaults := DefaultLimiters()
	if s.limits.Flight == nil {
		s.limits.Flight = defaults.Flight
	}
	if s.limits.Geocode == nil {
		s.limits.Geocode = defaults.Geocode
	}
	if s.limits.Track == nil {
		s.limits.Track = defaults.Track
	}
	if s.limits.Photo == nil {
		s.limits.Photo = defaults.Photo
	}

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Sweepables returns the server-owned state the periodic sweeper should clean.
func (s *Server) Sweepables() []cache.Sweepable {
	return []cache.Sweepable{
		s.geoCache,
		s.limits.Flight,
		s.limits.Geocode,
		s.limits.Track,
		s.limits.Photo,
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"X-Requested-With", "Content-Type", "Accept"},
		ExposedHeaders: []string{"X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(ratelimit.Middleware(s.limits.Flight, respondError)).Get("/nearest-flight", s.handleNearestFlight)
		r.With(ratelimit.Middleware(s.limits.Geocode, respondError)).Get("/geocode", s.handleGeocode)
		r.With(ratelimit.Middleware(s.limits.Photo, respondError)).Get("/aircraft-photo", s.handleAircraftPhoto)

		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.limits.Track, respondError))
			r.Get("/flight-track", s.handleFlightTrack)
			r.Get("/flight-details", s.handleFlightDetails)
		})
	})
}

// requestLogger logs each request with zap and records HTTP metrics by route pattern.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("client", ratelimit.ClientID(r)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
