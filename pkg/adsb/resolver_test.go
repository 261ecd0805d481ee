package adsb

import (
	"testing"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

var manhattan = coordinates.GeoPoint{Latitude: 40.7128, Longitude: -74.0060}

// TestResolveNearest tests nearest-airborne selection
func TestResolveNearest(t *testing.T) {
	t.Run("Closer airborne flight wins", func(t *testing.T) {
		states := []RawState{
			openSkyRow("aaaaaa", "FAR1", 40.0000, -74.0000, false),
			openSkyRow("bbbbbb", "NEAR1", 40.7200, -74.0100, false),
		}
		f, err := ResolveNearest(manhattan, states, ProviderOpenSky)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if f.ICAO24 != "bbbbbb" {
			t.Errorf("Expected bbbbbb, got %s", f.ICAO24)
		}
		if f.DistanceKm < 0.8 || f.DistanceKm > 0.95 {
			t.Errorf("Expected distance near 0.87 km, got %v", f.DistanceKm)
		}
	})

	t.Run("Empty input is not found", func(t *testing.T) {
		_, err := ResolveNearest(manhattan, nil, ProviderOpenSky)
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})

	t.Run("Grounded flight is skipped even when closest", func(t *testing.T) {
		grounded := destinationRow("gggggg", manhattan, 1, true)
		airborne := destinationRow("aaaaaa", manhattan, 100, false)
		f, err := ResolveNearest(manhattan, []RawState{grounded, airborne}, ProviderOpenSky)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if f.ICAO24 != "aaaaaa" {
			t.Errorf("Expected the airborne flight, got %s", f.ICAO24)
		}
	})

	t.Run("All grounded is not found", func(t *testing.T) {
		states := []RawState{openSkyRow("gggggg", "G1", 40.71, -74.0, true)}
		if _, err := ResolveNearest(manhattan, states, ProviderOpenSky); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})

	t.Run("Records without position are skipped", func(t *testing.T) {
		states := []RawState{
			openSkyRow("nolat0", "X", nil, -74.0, false),
			openSkyRow("nolon0", "X", 40.7, nil, false),
			openSkyRow("okokok", "X", 45.0, -70.0, false),
		}
		f, err := ResolveNearest(manhattan, states, ProviderOpenSky)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if f.ICAO24 != "okokok" {
			t.Errorf("Expected okokok, got %s", f.ICAO24)
		}

		if _, err := ResolveNearest(manhattan, states[:2], ProviderOpenSky); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found when no record has a position, got %v", err)
		}
	})

	t.Run("Equidistant records keep the first seen", func(t *testing.T) {
		// Mirror images across the prime meridian are exactly equidistant.
		east := openSkyRow("east01", "E", 41.0, 0.5, false)
		west := openSkyRow("west01", "W", 41.0, -0.5, false)
		center := coordinates.GeoPoint{Latitude: 41.0, Longitude: 0}

		f, _ := ResolveNearest(center, []RawState{east, west}, ProviderOpenSky)
		if f.ICAO24 != "east01" {
			t.Errorf("Expected first-seen east01, got %s", f.ICAO24)
		}
		f, _ = ResolveNearest(center, []RawState{west, east}, ProviderOpenSky)
		if f.ICAO24 != "west01" {
			t.Errorf("Expected first-seen west01, got %s", f.ICAO24)
		}
	})

	t.Run("Records from another provider are ignored", func(t *testing.T) {
		states := []RawState{AirLabsFlight{Hex: "abc", Lat: floatPtr(40.71), Lng: floatPtr(-74.0), Status: "en-route"}}
		if _, err := ResolveNearest(manhattan, states, ProviderOpenSky); !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("Expected not found, got %v", err)
		}
	})
}

// destinationRow places a state vector distanceKm due north of p.
func destinationRow(icao string, p coordinates.GeoPoint, distanceKm float64, onGround bool) OpenSkyState {
	lat := p.Latitude + distanceKm/coordinates.EarthRadiusKm*coordinates.RadiansToDegrees
	return openSkyRow(icao, "T", lat, p.Longitude, onGround)
}
