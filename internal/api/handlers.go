package api

import (
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/adsb"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
	"github.com/unklstewy/whatdatplane/pkg/photos"
)

type geocodeResponse struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

type trackResponse struct {
	adsb.TrackRecord
	AltitudeProfile []adsb.AltitudeSample   `json:"altitude_profile"`
	Bounds          *coordinates.BoundingBox `json:"bounds,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"live_source":    s.finder != nil,
		"geocoder":       s.geocoder != nil,
		"geocache_items": s.geoCache.Len(),
	})
}

func (s *Server) handleNearestFlight(w http.ResponseWriter, r *http.Request) {
	req, err := parsePointQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	flight, hit, err := s.findNearest(r, req.point())
	if err != nil {
		respondError(w, r, err)
		return
	}

	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, flight)
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	req, err := parseGeocodeQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if s.geocoder == nil {
		respondError(w, r, apperr.Unavailable("geocoding is not configured"))
		return
	}

	key := "geocode:" + strings.ToLower(req.Address)
	res, hit := s.geoCache.Get(key)
	if !hit {
		found, err := s.geocoder.Geocode(r.Context(), req.Address)
		if err != nil {
			respondError(w, r, eris.Wrap(err, "geocode"))
			return
		}
		res = *found
		s.geoCache.Set(key, res, s.geocodeTTL)
	}

	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, geocodeResponse{
		Lat:         res.Point.Latitude,
		Lon:         res.Point.Longitude,
		DisplayName: res.DisplayName,
	})
}

// handleAircraftPhoto always answers 200 once the query is valid: a failed or empty
// lookup yields an all-null photo.
func (s *Server) handleAircraftPhoto(w http.ResponseWriter, r *http.Request) {
	req, err := parsePhotoQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if s.enricher == nil {
		respondError(w, r, apperr.Unavailable("photo lookup is not configured"))
		return
	}

	out, hit := s.enricher.LookupPhoto(r.Context(), req.ICAO24, req.Registration)
	result := photos.Result{}
	if out.Value != nil {
		result = *out.Value
	}

	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFlightTrack(w http.ResponseWriter, r *http.Request) {
	req, err := parseTrackQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if s.enricher == nil {
		respondError(w, r, apperr.Unavailable("track lookup is not configured"))
		return
	}

	track, hit, err := s.enricher.Track(r.Context(), req.ICAO24)
	if err != nil {
		respondError(w, r, eris.Wrap(err, "flight track"))
		return
	}

	profile := track.AltitudeProfile()
	if profile == nil {
		profile = []adsb.AltitudeSample{}
	}
	resp := trackResponse{TrackRecord: track, AltitudeProfile: profile}
	if box, ok := track.Bounds(); ok {
		resp.Bounds = &box
	}
	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, resp)
}

// handleFlightDetails resolves the nearest flight and decorates it. Only the flight
// lookup can fail the request; enrichment problems are reported per lookup.
func (s *Server) handleFlightDetails(w http.ResponseWriter, r *http.Request) {
	req, err := parsePointQuery(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	flight, hit, err := s.findNearest(r, req.point())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if s.enricher == nil {
		respondError(w, r, apperr.Unavailable("enrichment is not configured"))
		return
	}

	details := s.enricher.Enrich(r.Context(), flight)
	setCacheHeader(w, hit)
	respondJSON(w, http.StatusOK, details)
}

func (s *Server) findNearest(r *http.Request, point coordinates.GeoPoint) (adsb.Flight, bool, error) {
	if s.finder == nil {
		return adsb.Flight{}, false, apperr.Unavailable("no live flight source is configured")
	}
	res, err := s.finder.Find(r.Context(), point)
	if err != nil {
		return adsb.Flight{}, false, eris.Wrap(err, "nearest flight")
	}
	res.Flight.DistanceKm = coordinates.Round2(res.Flight.DistanceKm)
	return res.Flight, res.CacheHit, nil
}
