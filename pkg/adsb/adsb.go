// Package adsb normalizes live aircraft state from several upstream providers into a
// single Flight type and picks the airborne flight nearest to a point.
package adsb

import (
	"context"

	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

// ProviderTag identifies the upstream schema a raw record came from.
type ProviderTag string

const (
	// ProviderOpenSky is the OpenSky Network state-vector array schema.
	ProviderOpenSky ProviderTag = "opensky"

	// ProviderAviationstack is the flight object with a nested "live" position.
	ProviderAviationstack ProviderTag = "aviationstack"

	// ProviderAirLabs is the flat AirLabs flight object.
	ProviderAirLabs ProviderTag = "airlabs"
)

// Flight is an aircraft position normalized across providers.
// Kinematic values keep the provider's native units (meters, m/s, degrees);
// conversion to feet or knots happens only when rendering.
type Flight struct {
	// ICAO24 is the lower-case 24-bit transponder address (e.g. "a12345"); empty when unknown
	ICAO24 string `json:"icao24,omitempty"`

	// Callsign is the trimmed flight identifier, or "Unknown"
	Callsign string `json:"callsign"`

	// OriginCountry is the country of registration reported by the provider
	OriginCountry string `json:"origin_country,omitempty"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude"`

	// BaroAltitude is barometric altitude in meters
	BaroAltitude *float64 `json:"baro_altitude"`

	// GeoAltitude is geometric (GNSS) altitude in meters
	GeoAltitude *float64 `json:"geo_altitude"`

	// Velocity is ground speed in m/s
	Velocity *float64 `json:"velocity"`

	// TrueTrack is the ground track in degrees clockwise from north
	TrueTrack *float64 `json:"true_track"`

	// VerticalRate in m/s (positive = climbing)
	VerticalRate *float64 `json:"vertical_rate"`

	// OnGround is the provider's surface-position flag
	OnGround bool `json:"on_ground"`

	Registration *string `json:"registration"`
	Airline      *string `json:"airline"`
	Departure    *string `json:"departure"`
	Arrival      *string `json:"arrival"`
	AircraftType *string `json:"aircraft_type"`

	// LastContact is the unix time of the last position update
	LastContact int64 `json:"last_contact"`

	// DistanceKm is the great-circle distance from the query point, unrounded
	DistanceKm float64 `json:"distance_km"`

	// Provider is the schema the flight was normalized from
	Provider ProviderTag `json:"provider"`
}

// Position returns the flight's location.
func (f Flight) Position() coordinates.GeoPoint {
	return coordinates.GeoPoint{Latitude: f.Latitude, Longitude: f.Longitude}
}

// LiveSource is implemented by every provider of live aircraft state.
type LiveSource interface {
	// Provider returns the schema tag of the records this source yields.
	Provider() ProviderTag

	// SupportsBoundingBox reports whether FetchLiveStates honors a non-nil box.
	SupportsBoundingBox() bool

	// FetchLiveStates returns the current snapshot, limited to box when it is non-nil
	// and supported. Failures are apperr.KindUpstream; an empty snapshot is not an error.
	FetchLiveStates(ctx context.Context, box *coordinates.BoundingBox) ([]RawState, error)
}

// RegistrationResolver maps a transponder address to aircraft metadata.
type RegistrationResolver interface {
	// ResolveRegistration returns nil, nil when the aircraft is unknown.
	ResolveRegistration(ctx context.Context, icao24 string) (*AircraftMetadata, error)
}

// TrackProvider returns the recent flight path of an aircraft.
type TrackProvider interface {
	// FetchTrack fails with apperr.KindNotFound when no track exists and
	// apperr.KindUpstream when the provider fails.
	FetchTrack(ctx context.Context, icao24 string) (*TrackRecord, error)
}

// AircraftMetadata is the static airframe data a registration lookup yields.
type AircraftMetadata struct {
	ICAO24       string `json:"icao24"`
	Registration string `json:"registration"`

	// TypeCode is the ICAO aircraft type designator (e.g. "A320"); may be empty
	TypeCode     string `json:"typecode,omitempty"`
	Model        string `json:"model,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Operator     string `json:"operator,omitempty"`
}
