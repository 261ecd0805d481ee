package adsb

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

// OpenSkyClient talks to the OpenSky Network REST API.
// API Documentation: https://openskynetwork.github.io/opensky-api/rest.html
//
// It serves live state vectors, aircraft metadata (registration) and tracks.
// Anonymous access works with tighter daily quotas; credentials raise them.
type OpenSkyClient struct {
	// baseURL is the API base URL (default: https://opensky-network.org/api)
	baseURL string

	http JSONGetter

	// authHeader is the precomputed Basic credentials, empty for anonymous access
	authHeader string
}

// OpenSkyOption configures an OpenSkyClient.
type OpenSkyOption func(*OpenSkyClient)

// WithOpenSkyCredentials enables authenticated access.
func WithOpenSkyCredentials(username, password string) OpenSkyOption {
	return func(c *OpenSkyClient) {
		if username == "" {
			return
		}
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		c.authHeader = "Basic " + token
	}
}

// NewOpenSkyClient creates a new OpenSky client.
func NewOpenSkyClient(baseURL string, getter JSONGetter, opts ...OpenSkyOption) *OpenSkyClient {
	c := &OpenSkyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    getter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider implements LiveSource.
func (c *OpenSkyClient) Provider() ProviderTag { return ProviderOpenSky }

// SupportsBoundingBox implements LiveSource. /states/all accepts lamin/lomin/lamax/lomax.
func (c *OpenSkyClient) SupportsBoundingBox() bool { return true }

// openSkyStatesResponse is the body of /states/all. States is null when nothing matches.
type openSkyStatesResponse struct {
	Time   int64          `json:"time"`
	States []OpenSkyState `json:"states"`
}

// FetchLiveStates returns the current state vectors, optionally limited to box.
func (c *OpenSkyClient) FetchLiveStates(ctx context.Context, box *coordinates.BoundingBox) ([]RawState, error) {
	endpoint := c.baseURL + "/states/all"
	if box != nil {
		q := url.Values{}
		q.Set("lamin", fmt.Sprintf("%.4f", box.MinLatitude))
		q.Set("lomin", fmt.Sprintf("%.4f", box.MinLongitude))
		q.Set("lamax", fmt.Sprintf("%.4f", box.MaxLatitude))
		q.Set("lomax", fmt.Sprintf("%.4f", box.MaxLongitude))
		endpoint += "?" + q.Encode()
	}

	var resp openSkyStatesResponse
	if err := c.http.GetJSON(ctx, endpoint, c.header(), &resp); err != nil {
		return nil, liveFetchError(ProviderOpenSky, err, "opensky: fetch states")
	}

	states := make([]RawState, 0, len(resp.States))
	for _, s := range resp.States {
		states = append(states, s)
	}
	return states, nil
}

// openSkyMetadata is the body of /metadata/aircraft/icao/{icao24}.
type openSkyMetadata struct {
	ICAO24       string `json:"icao24"`
	Registration string `json:"registration"`
	TypeCode     string `json:"typecode"`
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturerName"`
	Operator     string `json:"operator"`
}

// ResolveRegistration looks up the airframe behind a transponder address.
// Returns nil if OpenSky has no record or no registration for it.
func (c *OpenSkyClient) ResolveRegistration(ctx context.Context, icao24 string) (*AircraftMetadata, error) {
	endpoint := fmt.Sprintf("%s/metadata/aircraft/icao/%s", c.baseURL, url.PathEscape(strings.ToLower(icao24)))

	var meta openSkyMetadata
	if err := c.http.GetJSON(ctx, endpoint, c.header(), &meta); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "opensky: fetch aircraft metadata")
	}

	reg := strings.TrimSpace(meta.Registration)
	if reg == "" {
		return nil, nil
	}
	return &AircraftMetadata{
		ICAO24:       strings.ToLower(icao24),
		Registration: reg,
		TypeCode:     strings.TrimSpace(meta.TypeCode),
		Model:        meta.Model,
		Manufacturer: meta.Manufacturer,
		Operator:     meta.Operator,
	}, nil
}

// openSkyTrackResponse is the body of /tracks/all. Path rows are
// [time, latitude, longitude, baro_altitude, true_track, on_ground].
type openSkyTrackResponse struct {
	ICAO24    string  `json:"icao24"`
	Callsign  string  `json:"callsign"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
	Path      [][]any `json:"path"`
}

// FetchTrack returns the current (time=0) track of an aircraft.
func (c *OpenSkyClient) FetchTrack(ctx context.Context, icao24 string) (*TrackRecord, error) {
	q := url.Values{}
	q.Set("icao24", strings.ToLower(icao24))
	q.Set("time", "0")
	endpoint := c.baseURL + "/tracks/all?" + q.Encode()

	var resp openSkyTrackResponse
	if err := c.http.GetJSON(ctx, endpoint, c.header(), &resp); err != nil {
		return nil, eris.Wrap(err, "opensky: fetch track")
	}

	track := &TrackRecord{
		ICAO24:    strings.ToLower(resp.ICAO24),
		Callsign:  strings.TrimSpace(resp.Callsign),
		StartTime: int64(resp.StartTime),
		EndTime:   int64(resp.EndTime),
		Path:      make([]TrackPoint, 0, len(resp.Path)),
	}
	if track.ICAO24 == "" {
		track.ICAO24 = strings.ToLower(icao24)
	}
	for _, row := range resp.Path {
		if p, ok := parseTrackRow(row); ok {
			track.Path = append(track.Path, p)
		}
	}
	return track, nil
}

// parseTrackRow converts one positional path row. Rows without a timestamp are dropped.
func parseTrackRow(row []any) (TrackPoint, bool) {
	if len(row) < 6 {
		return TrackPoint{}, false
	}
	s := OpenSkyState(row)
	t := s.floatAt(0)
	if t == nil {
		return TrackPoint{}, false
	}
	return TrackPoint{
		Time:         int64(*t),
		Latitude:     s.floatAt(1),
		Longitude:    s.floatAt(2),
		BaroAltitude: s.floatAt(3),
		TrueTrack:    s.floatAt(4),
		OnGround:     s.boolAt(5),
	}, true
}

func (c *OpenSkyClient) header() http.Header {
	if c.authHeader == "" {
		return nil
	}
	return http.Header{"Authorization": {c.authHeader}}
}
