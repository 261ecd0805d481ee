// Package geocode turns free-text addresses into coordinates.
package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

// Result is a geocoded address.
type Result struct {
	Point       coordinates.GeoPoint `json:"point"`
	DisplayName string               `json:"display_name"`
}

// Geocoder resolves an address to a point. Zero matches is apperr.KindNotFound;
// provider failures are apperr.KindUpstream.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// JSONGetter performs a GET and decodes the JSON body.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, header http.Header, out any) error
}

// Nominatim geocodes with the OpenStreetMap Nominatim search API. The usage policy
// requires an identifying User-Agent and at most one request per second; both are
// the responsibility of the JSONGetter.
type Nominatim struct {
	baseURL string
	http    JSONGetter
}

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(baseURL string, getter JSONGetter) *Nominatim {
	return &Nominatim{baseURL: strings.TrimRight(baseURL, "/"), http: getter}
}

// nominatimPlace is one search hit. Coordinates arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode returns the best match for address.
func (n *Nominatim) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, apperr.Validation("address is required")
	}

	params := url.Values{
		"format": {"json"},
		"limit":  {"1"},
		"q":      {address},
	}

	var places []nominatimPlace
	if err := n.http.GetJSON(ctx, n.baseURL+"/search?"+params.Encode(), nil, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim search")
	}
	if len(places) == 0 {
		return nil, apperr.NotFound("address not found")
	}

	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return nil, apperr.Upstream("nominatim", http.StatusOK, eris.Errorf("unparseable coordinates %q,%q", places[0].Lat, places[0].Lon))
	}
	point, err := coordinates.NewGeoPoint(lat, lon)
	if err != nil {
		return nil, apperr.Upstream("nominatim", http.StatusOK, eris.Wrap(err, "coordinates out of range"))
	}

	return &Result{Point: point, DisplayName: places[0].DisplayName}, nil
}
