package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unklstewy/whatdatplane/internal/enrich"
	"github.com/unklstewy/whatdatplane/pkg/adsb"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
	"github.com/unklstewy/whatdatplane/pkg/photos"
)

func f64(v float64) *float64 { return &v }

func str(s string) *string { return &s }

func TestUnitFormatting(t *testing.T) {
	assert.Equal(t, "10000 ft", formatAltitude(f64(3048)))
	assert.Equal(t, "n/a", formatAltitude(nil))
	assert.Equal(t, "250 kt", formatSpeed(f64(128.61)))
	assert.Equal(t, "+1000 ft/min", formatVerticalRate(f64(5.08)))
	assert.Equal(t, "-500 ft/min", formatVerticalRate(f64(-2.54)))
	assert.Equal(t, "90° E", formatHeading(f64(90)))
}

func TestRenderCard(t *testing.T) {
	origin := coordinates.GeoPoint{Latitude: 40.7128, Longitude: -74.006}
	d := enrich.Details{
		Flight: adsb.Flight{
			ICAO24:       "abc123",
			Callsign:     "AAL100",
			Latitude:     40.72,
			Longitude:    -74.01,
			BaroAltitude: f64(3048),
			Velocity:     f64(128.61),
			Registration: str("N123AB"),
			DistanceKm:   0.8712,
		},
		Registration: enrich.OK("N123AB"),
		Photo:        enrich.OK(photos.Result{PhotoURL: str("https://img/1.jpg"), IsGeneric: true}),
		Track:        enrich.Failed[adsb.TrackRecord]("opensky returned HTTP 500"),
	}

	out := renderCard(origin, d)
	for _, want := range []string{"AAL100", "N123AB", "0.87 km", "10000 ft", "250 kt", "https://img/1.jpg", "Photo (type)", "track failed"} {
		assert.True(t, strings.Contains(out, want), "card missing %q", want)
	}
}
