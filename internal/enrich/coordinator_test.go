package enrich

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/adsb"
	"github.com/unklstewy/whatdatplane/pkg/photos"
)

type fakeRegistrations struct {
	meta  map[string]adsb.AircraftMetadata
	err   error
	calls atomic.Int32
}

func (f *fakeRegistrations) ResolveRegistration(_ context.Context, icao24 string) (*adsb.AircraftMetadata, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.meta[icao24]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

type fakePhotos struct {
	byReg   map[string]photos.Result
	byType  map[string]photos.Result
	regErr  error
	typeErr error
	calls   atomic.Int32
	panics  bool
}

func (f *fakePhotos) FetchByRegistration(_ context.Context, reg string) (*photos.Result, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	if f.regErr != nil {
		return nil, f.regErr
	}
	r, ok := f.byReg[reg]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *fakePhotos) FetchByType(_ context.Context, typeCode string) (*photos.Result, error) {
	if f.typeErr != nil {
		return nil, f.typeErr
	}
	r, ok := f.byType[typeCode]
	if !ok {
		return nil, nil
	}
	r.IsGeneric = true
	return &r, nil
}

type fakeTracks struct {
	track *adsb.TrackRecord
	err   error
	calls atomic.Int32
}

func (f *fakeTracks) FetchTrack(_ context.Context, _ string) (*adsb.TrackRecord, error) {
	f.calls.Add(1)
	return f.track, f.err
}

func str(s string) *string { return &s }

func f64(v float64) *float64 { return &v }

func sampleTrack() *adsb.TrackRecord {
	return &adsb.TrackRecord{
		ICAO24: "abc123",
		Path: []adsb.TrackPoint{
			{Time: 100, Latitude: f64(40.6), Longitude: f64(-73.9), BaroAltitude: f64(300)},
			{Time: 160, Latitude: f64(40.7), Longitude: f64(-73.8), BaroAltitude: f64(900)},
		},
	}
}

func TestEnrichFullChain(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {ICAO24: "abc123", Registration: "N123AB", TypeCode: "B738"},
	}}
	ph := &fakePhotos{byReg: map[string]photos.Result{
		"N123AB": {Registration: str("N123AB"), PhotoURL: str("https://img/1.jpg")},
	}}
	tr := &fakeTracks{track: sampleTrack()}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: tr})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123", Callsign: "AAL100"})

	require.Equal(t, StatusOK, d.Registration.Status)
	assert.Equal(t, "N123AB", *d.Registration.Value)
	require.NotNil(t, d.Flight.Registration)
	assert.Equal(t, "N123AB", *d.Flight.Registration)
	require.NotNil(t, d.Flight.AircraftType)
	assert.Equal(t, "B738", *d.Flight.AircraftType)

	require.Equal(t, StatusOK, d.Photo.Status)
	assert.Equal(t, "https://img/1.jpg", *d.Photo.Value.PhotoURL)
	assert.False(t, d.Photo.Value.IsGeneric)

	require.Equal(t, StatusOK, d.Track.Status)
	assert.Len(t, d.Track.Value.Path, 2)
	assert.Len(t, d.Altitude, 2)
	require.NotNil(t, d.Bounds)
	assert.Equal(t, 40.6, d.Bounds.MinLatitude)
	assert.Equal(t, 40.7, d.Bounds.MaxLatitude)
	assert.Equal(t, -73.9, d.Bounds.MinLongitude)
	assert.Equal(t, -73.8, d.Bounds.MaxLongitude)
}

func TestEnrichUsesFlightRegistration(t *testing.T) {
	regs := &fakeRegistrations{}
	ph := &fakePhotos{byReg: map[string]photos.Result{
		"G-EUPT": {PhotoURL: str("https://img/g.jpg")},
	}}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "400abc", Registration: str("G-EUPT")})

	assert.Equal(t, StatusOK, d.Registration.Status)
	assert.Zero(t, regs.calls.Load())
	assert.Equal(t, "https://img/g.jpg", *d.Photo.Value.PhotoURL)
}

func TestEnrichTypeFallback(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {Registration: "N123AB", TypeCode: "A320"},
	}}
	ph := &fakePhotos{byType: map[string]photos.Result{
		"A320": {PhotoURL: str("https://img/a320.jpg")},
	}}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})

	require.Equal(t, StatusOK, d.Photo.Status)
	assert.True(t, d.Photo.Value.IsGeneric)
	assert.Equal(t, "N123AB", *d.Photo.Value.Registration)
}

func TestEnrichTypeFallbackAfterRegistrationFailure(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {Registration: "N123AB", TypeCode: "A320"},
	}}
	ph := &fakePhotos{
		regErr: apperr.Upstream("planespotters", http.StatusServiceUnavailable, errors.New("down")),
		byType: map[string]photos.Result{"A320": {PhotoURL: str("https://img/a320.jpg")}},
	}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})

	require.Equal(t, StatusOK, d.Photo.Status)
	assert.True(t, d.Photo.Value.IsGeneric)
	assert.Equal(t, "https://img/a320.jpg", *d.Photo.Value.PhotoURL)
	assert.Equal(t, "N123AB", *d.Photo.Value.Registration)

	// the generic stand-in is not cached; the airframe photo is retried
	c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})
	assert.Equal(t, int32(2), ph.calls.Load())
}

func TestEnrichBothPhotoLookupsFail(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {Registration: "N123AB", TypeCode: "A320"},
	}}
	ph := &fakePhotos{
		regErr:  apperr.Upstream("planespotters", http.StatusBadGateway, errors.New("down")),
		typeErr: apperr.Upstream("planespotters", http.StatusBadGateway, errors.New("down")),
	}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})

	assert.Equal(t, StatusUnavailable, d.Photo.Status)
	assert.Nil(t, d.Photo.Value)
}

func TestEnrichNoPhotoIsAllNull(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {Registration: "N123AB"},
	}}
	ph := &fakePhotos{}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})
	require.Equal(t, StatusOK, d.Photo.Status)
	assert.False(t, d.Photo.Value.HasPhoto())
	assert.Nil(t, d.Photo.Value.Registration)

	// negative results are cached
	c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})
	assert.Equal(t, int32(1), ph.calls.Load())
}

func TestEnrichPhotoFailureIsolated(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {Registration: "N123AB"},
	}}
	ph := &fakePhotos{regErr: apperr.Upstream("planespotters", http.StatusServiceUnavailable, errors.New("down"))}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123", Callsign: "AAL100"})

	assert.Equal(t, "AAL100", d.Flight.Callsign)
	assert.Equal(t, StatusOK, d.Registration.Status)
	assert.Equal(t, StatusUnavailable, d.Photo.Status)
	assert.Nil(t, d.Photo.Value)
	assert.Equal(t, StatusOK, d.Track.Status)

	// failures are not cached
	c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})
	assert.Equal(t, int32(2), ph.calls.Load())
}

func TestEnrichPhotoPanicIsolated(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {Registration: "N123AB"},
	}}
	c := New(Deps{Registrations: regs, Photos: &fakePhotos{panics: true}, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})

	assert.Equal(t, StatusOK, d.Registration.Status)
	assert.Equal(t, StatusUnavailable, d.Photo.Status)
	assert.Equal(t, StatusOK, d.Track.Status)
}

func TestEnrichRegistrationFailure(t *testing.T) {
	regs := &fakeRegistrations{err: apperr.Upstream("opensky", http.StatusBadGateway, errors.New("bad gateway"))}
	ph := &fakePhotos{}
	c := New(Deps{Registrations: regs, Photos: ph, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123"})

	assert.Equal(t, StatusUnavailable, d.Registration.Status)
	assert.NotEmpty(t, d.Registration.Reason)
	// without a registration the photo result is empty, not an error
	assert.Equal(t, StatusOK, d.Photo.Status)
	assert.False(t, d.Photo.Value.HasPhoto())
	assert.Zero(t, ph.calls.Load())
	assert.Equal(t, StatusOK, d.Track.Status)
}

func TestEnrichTrackOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"not found", apperr.NotFound("no track"), StatusAbsent},
		{"upstream", apperr.Upstream("opensky", http.StatusInternalServerError, errors.New("boom")), StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Deps{Tracks: &fakeTracks{err: tt.err}})
			d := c.Enrich(context.Background(), adsb.Flight{ICAO24: "abc123", Registration: str("N1")})
			assert.Equal(t, tt.want, d.Track.Status)
			assert.Nil(t, d.Track.Value)
			assert.Empty(t, d.Altitude)
		})
	}
}

func TestEnrichWithoutTransponder(t *testing.T) {
	c := New(Deps{Registrations: &fakeRegistrations{}, Photos: &fakePhotos{}, Tracks: &fakeTracks{track: sampleTrack()}})

	d := c.Enrich(context.Background(), adsb.Flight{Callsign: "UAL1"})

	assert.Equal(t, StatusAbsent, d.Registration.Status)
	assert.Equal(t, StatusAbsent, d.Track.Status)
	assert.Equal(t, StatusOK, d.Photo.Status)
}

func TestTrackCached(t *testing.T) {
	tr := &fakeTracks{track: sampleTrack()}
	c := New(Deps{Tracks: tr})

	_, hit, err := c.Track(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = c.Track(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestTrackValidation(t *testing.T) {
	c := New(Deps{Tracks: &fakeTracks{}})
	_, _, err := c.Track(context.Background(), "  ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	c = New(Deps{})
	_, _, err = c.Track(context.Background(), "abc123")
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
}

func TestLookupPhotoResolvesRegistration(t *testing.T) {
	regs := &fakeRegistrations{meta: map[string]adsb.AircraftMetadata{
		"abc123": {Registration: "N123AB", TypeCode: "B738"},
	}}
	ph := &fakePhotos{byType: map[string]photos.Result{"B738": {PhotoURL: str("https://img/b738.jpg")}}}
	c := New(Deps{Registrations: regs, Photos: ph})

	out, hit := c.LookupPhoto(context.Background(), "ABC123", "")
	require.Equal(t, StatusOK, out.Status)
	assert.False(t, hit)
	assert.True(t, out.Value.IsGeneric)

	out, hit = c.LookupPhoto(context.Background(), "abc123", "")
	assert.True(t, hit)
	assert.Equal(t, "https://img/b738.jpg", *out.Value.PhotoURL)
}

func TestLookupPhotoByRegistrationOnly(t *testing.T) {
	ph := &fakePhotos{byReg: map[string]photos.Result{"D-AIBL": {ThumbnailURL: str("https://img/t.jpg")}}}
	c := New(Deps{Photos: ph})

	out, _ := c.LookupPhoto(context.Background(), "", "D-AIBL")
	require.Equal(t, StatusOK, out.Status)
	assert.Equal(t, "https://img/t.jpg", *out.Value.ThumbnailURL)
}
