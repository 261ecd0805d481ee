package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/internal/upstream"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) *Nominatim {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	getter := upstream.New(upstream.Options{Name: "nominatim-" + t.Name(), UserAgent: "WhatDatPlane/1.0"})
	return NewNominatim(server.URL+"/", getter)
}

func TestNominatimGeocode(t *testing.T) {
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Times Square, New York", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "WhatDatPlane/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"lat":"40.7579","lon":"-73.9855","display_name":"Times Square, Manhattan, New York"}]`))
	})

	res, err := n.Geocode(context.Background(), "  Times Square, New York ")
	require.NoError(t, err)
	assert.InDelta(t, 40.7579, res.Point.Latitude, 1e-9)
	assert.InDelta(t, -73.9855, res.Point.Longitude, 1e-9)
	assert.Equal(t, "Times Square, Manhattan, New York", res.DisplayName)
}

func TestNominatimGeocodeFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apperr.Kind
	}{
		{"no match", http.StatusOK, `[]`, apperr.KindNotFound},
		{"server error", http.StatusBadGateway, `oops`, apperr.KindUpstream},
		{"blocked", http.StatusForbidden, ``, apperr.KindUpstream},
		{"bad coordinates", http.StatusOK, `[{"lat":"north","lon":"1"}]`, apperr.KindUpstream},
		{"out of range", http.StatusOK, `[{"lat":"95","lon":"1"}]`, apperr.KindUpstream},
		{"malformed body", http.StatusOK, `{"lat":`, apperr.KindUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := n.Geocode(context.Background(), "somewhere")
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestNominatimGeocodeEmptyAddress(t *testing.T) {
	called := false
	n := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := n.Geocode(context.Background(), "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.False(t, called)
}
