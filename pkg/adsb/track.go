package adsb

import "github.com/unklstewy/whatdatplane/pkg/coordinates"

// TrackPoint is one sample of a flight path.
type TrackPoint struct {
	// Time is the unix time of the sample
	Time int64 `json:"time"`

	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// BaroAltitude in meters
	BaroAltitude *float64 `json:"baro_altitude"`

	// TrueTrack in degrees clockwise from north
	TrueTrack *float64 `json:"true_track"`

	OnGround bool `json:"on_ground"`
}

// TrackRecord is a flight path, oldest sample first as delivered by the provider.
type TrackRecord struct {
	ICAO24    string       `json:"icao24"`
	Callsign  string       `json:"callsign,omitempty"`
	StartTime int64        `json:"start_time"`
	EndTime   int64        `json:"end_time"`
	Path      []TrackPoint `json:"path"`
}

// AltitudeSample is a barometric altitude reading at a point in time.
type AltitudeSample struct {
	Time         int64   `json:"time"`
	BaroAltitude float64 `json:"baro_altitude"`
}

// AltitudeProfile returns the path's altitude over time, skipping samples without
// an altitude.
func (t *TrackRecord) AltitudeProfile() []AltitudeSample {
	profile := make([]AltitudeSample, 0, len(t.Path))
	for _, p := range t.Path {
		if p.BaroAltitude == nil {
			continue
		}
		profile = append(profile, AltitudeSample{Time: p.Time, BaroAltitude: *p.BaroAltitude})
	}
	return profile
}

// Bounds returns the smallest box containing every positioned sample.
// ok is false when no sample has a position.
func (t *TrackRecord) Bounds() (box coordinates.BoundingBox, ok bool) {
	for _, p := range t.Path {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		lat, lon := *p.Latitude, *p.Longitude
		if !ok {
			box = coordinates.BoundingBox{MinLatitude: lat, MaxLatitude: lat, MinLongitude: lon, MaxLongitude: lon}
			ok = true
			continue
		}
		box.MinLatitude = min(box.MinLatitude, lat)
		box.MaxLatitude = max(box.MaxLatitude, lat)
		box.MinLongitude = min(box.MinLongitude, lon)
		box.MaxLongitude = max(box.MaxLongitude, lon)
	}
	return box, ok
}
