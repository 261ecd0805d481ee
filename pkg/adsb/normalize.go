package adsb

import (
	"strings"
	"time"
)

// kmhToMetersPerSecond scales km/h speeds reported by some providers to m/s.
const kmhToMetersPerSecond = 1 / 3.6

// openSkyStateFields is the number of positional fields in an OpenSky state vector.
// Newer responses append an 18th (category); it is ignored.
const openSkyStateFields = 17

// RawState is a provider record that has not been normalized yet. Each
// implementation maps exactly one upstream schema; add a provider by adding a type.
type RawState interface {
	// Provider returns the schema this record belongs to.
	Provider() ProviderTag

	normalize() (Flight, bool)
}

// Normalize maps a raw record to a Flight. It returns false when the record has no
// position, does not match the declared provider, or is structurally malformed.
// Distance is left at zero for the caller to fill in.
func Normalize(raw RawState, provider ProviderTag) (Flight, bool) {
	if raw == nil || raw.Provider() != provider {
		return Flight{}, false
	}
	f, ok := raw.normalize()
	if !ok {
		return Flight{}, false
	}
	f.Provider = provider
	return f, true
}

// OpenSkyState is one OpenSky state vector: a JSON array with fixed positions
// (0 icao24, 1 callsign, 2 origin_country, 3 time_position, 4 last_contact,
// 5 longitude, 6 latitude, 7 baro_altitude, 8 on_ground, 9 velocity, 10 true_track,
// 11 vertical_rate, 12 sensors, 13 geo_altitude, 14 squawk, 15 spi, 16 position_source).
type OpenSkyState []any

// Provider implements RawState.
func (s OpenSkyState) Provider() ProviderTag { return ProviderOpenSky }

func (s OpenSkyState) normalize() (Flight, bool) {
	if len(s) < openSkyStateFields {
		return Flight{}, false
	}
	lat, lon := s.floatAt(6), s.floatAt(5)
	if lat == nil || lon == nil {
		return Flight{}, false
	}

	callsign := strings.TrimSpace(s.strAt(1))
	f := Flight{
		ICAO24:        strings.ToLower(strings.TrimSpace(s.strAt(0))),
		Callsign:      orUnknown(callsign),
		OriginCountry: s.strAt(2),
		Latitude:      *lat,
		Longitude:     *lon,
		BaroAltitude:  s.floatAt(7),
		OnGround:      s.boolAt(8),
		Velocity:      s.floatAt(9),
		TrueTrack:     s.floatAt(10),
		VerticalRate:  s.floatAt(11),
		GeoAltitude:   s.floatAt(13),
	}
	if lc := s.floatAt(4); lc != nil {
		f.LastContact = int64(*lc)
	}
	if op := operatorFromCallsign(callsign); op != "" {
		f.Airline = stringPtr(AirlineName(op))
	}
	return f, true
}

func (s OpenSkyState) strAt(i int) string {
	v, _ := s[i].(string)
	return v
}

func (s OpenSkyState) boolAt(i int) bool {
	v, _ := s[i].(bool)
	return v
}

func (s OpenSkyState) floatAt(i int) *float64 {
	switch v := s[i].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

// AviationstackFlight is a flight object whose position lives in a nested "live" block.
type AviationstackFlight struct {
	FlightDate   string                `json:"flight_date"`
	FlightStatus string                `json:"flight_status"`
	Departure    AviationstackAirport  `json:"departure"`
	Arrival      AviationstackAirport  `json:"arrival"`
	Airline      AviationstackAirline  `json:"airline"`
	Flight       AviationstackNumber   `json:"flight"`
	Aircraft     *AviationstackAirtype `json:"aircraft"`
	Live         *AviationstackLive    `json:"live"`

	// FetchedAt stands in for a missing live.updated (unix seconds)
	FetchedAt int64 `json:"-"`
}

// AviationstackAirport is a departure or arrival block.
type AviationstackAirport struct {
	Airport string `json:"airport"`
	IATA    string `json:"iata"`
	ICAO    string `json:"icao"`
}

// AviationstackAirline is the operating carrier.
type AviationstackAirline struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
	ICAO string `json:"icao"`
}

// AviationstackNumber is the marketed flight number.
type AviationstackNumber struct {
	Number string `json:"number"`
	IATA   string `json:"iata"`
	ICAO   string `json:"icao"`
}

// AviationstackAirtype identifies the airframe.
type AviationstackAirtype struct {
	Registration string `json:"registration"`
	IATA         string `json:"iata"`
	ICAO         string `json:"icao"`
	ICAO24       string `json:"icao24"`
}

// AviationstackLive is the live position block. Altitude is meters, speeds km/h.
type AviationstackLive struct {
	Updated         string   `json:"updated"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Altitude        *float64 `json:"altitude"`
	Direction       *float64 `json:"direction"`
	SpeedHorizontal *float64 `json:"speed_horizontal"`
	SpeedVertical   *float64 `json:"speed_vertical"`
	IsGround        bool     `json:"is_ground"`
}

// Provider implements RawState.
func (a AviationstackFlight) Provider() ProviderTag { return ProviderAviationstack }

func (a AviationstackFlight) normalize() (Flight, bool) {
	live := a.Live
	if live == nil || live.Latitude == nil || live.Longitude == nil {
		return Flight{}, false
	}

	f := Flight{
		Callsign:     orUnknown(firstNonEmpty(a.Flight.ICAO, a.Flight.IATA)),
		Latitude:     *live.Latitude,
		Longitude:    *live.Longitude,
		BaroAltitude: live.Altitude,
		Velocity:     scale(live.SpeedHorizontal, kmhToMetersPerSecond),
		TrueTrack:    live.Direction,
		VerticalRate: scale(live.SpeedVertical, kmhToMetersPerSecond),
		OnGround:     live.IsGround,
		Departure:    optional(firstNonEmpty(a.Departure.IATA, a.Departure.ICAO)),
		Arrival:      optional(firstNonEmpty(a.Arrival.IATA, a.Arrival.ICAO)),
		LastContact:  a.FetchedAt,
	}
	if updated, err := time.Parse(time.RFC3339, live.Updated); err == nil {
		f.LastContact = updated.Unix()
	}
	if a.Aircraft != nil {
		f.ICAO24 = strings.ToLower(strings.TrimSpace(a.Aircraft.ICAO24))
		f.Registration = optional(a.Aircraft.Registration)
		f.AircraftType = optional(a.Aircraft.ICAO)
	}
	if code := firstNonEmpty(a.Airline.ICAO, a.Airline.IATA); code != "" {
		name := AirlineName(code)
		if name == code && a.Airline.Name != "" {
			name = a.Airline.Name
		}
		f.Airline = &name
	} else {
		f.Airline = optional(a.Airline.Name)
	}
	return f, true
}

// AirLabsFlight is a flat AirLabs flight object. Altitude is meters, speeds km/h.
type AirLabsFlight struct {
	Hex          string   `json:"hex"`
	RegNumber    string   `json:"reg_number"`
	Flag         string   `json:"flag"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Alt          *float64 `json:"alt"`
	Dir          *float64 `json:"dir"`
	Speed        *float64 `json:"speed"`
	VSpeed       *float64 `json:"v_speed"`
	Squawk       string   `json:"squawk"`
	FlightNumber string   `json:"flight_number"`
	FlightICAO   string   `json:"flight_icao"`
	FlightIATA   string   `json:"flight_iata"`
	DepICAO      string   `json:"dep_icao"`
	DepIATA      string   `json:"dep_iata"`
	ArrICAO      string   `json:"arr_icao"`
	ArrIATA      string   `json:"arr_iata"`
	AirlineICAO  string   `json:"airline_icao"`
	AirlineIATA  string   `json:"airline_iata"`
	AircraftICAO string   `json:"aircraft_icao"`
	Updated      *int64   `json:"updated"`
	Status       string   `json:"status"`

	// FetchedAt stands in for a missing updated timestamp (unix seconds)
	FetchedAt int64 `json:"-"`
}

// Provider implements RawState.
func (a AirLabsFlight) Provider() ProviderTag { return ProviderAirLabs }

func (a AirLabsFlight) normalize() (Flight, bool) {
	if a.Lat == nil || a.Lng == nil {
		return Flight{}, false
	}

	f := Flight{
		ICAO24:        strings.ToLower(strings.TrimSpace(a.Hex)),
		Callsign:      orUnknown(firstNonEmpty(a.FlightICAO, a.FlightIATA)),
		OriginCountry: a.Flag,
		Latitude:      *a.Lat,
		Longitude:     *a.Lng,
		BaroAltitude:  a.Alt,
		GeoAltitude:   a.Alt,
		Velocity:      scale(a.Speed, kmhToMetersPerSecond),
		TrueTrack:     a.Dir,
		VerticalRate:  scale(a.VSpeed, kmhToMetersPerSecond),
		// AirLabs has no surface flag; anything not en route is treated as on the ground.
		OnGround:     a.Status != "en-route",
		Registration: optional(a.RegNumber),
		Departure:    optional(firstNonEmpty(a.DepIATA, a.DepICAO)),
		Arrival:      optional(firstNonEmpty(a.ArrIATA, a.ArrICAO)),
		AircraftType: optional(a.AircraftICAO),
		LastContact:  a.FetchedAt,
	}
	if a.Updated != nil {
		f.LastContact = *a.Updated
	}
	if code := firstNonEmpty(a.AirlineICAO, a.AirlineIATA); code != "" {
		f.Airline = stringPtr(AirlineName(code))
	}
	return f, true
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func stringPtr(s string) *string {
	return &s
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor
	return &scaled
}
