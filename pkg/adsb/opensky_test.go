package adsb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/internal/upstream"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

func newGetter(name string) *upstream.Client {
	return upstream.New(upstream.Options{Name: name})
}

// TestOpenSkyFetchLiveStates tests state-vector retrieval
func TestOpenSkyFetchLiveStates(t *testing.T) {
	t.Run("Bounding box query", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/states/all" {
				t.Errorf("Expected path /states/all, got %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("lamin") != "40.0000" || q.Get("lomax") != "-73.0000" {
				t.Errorf("Unexpected bounding box query: %s", r.URL.RawQuery)
			}
			user, pass, ok := r.BasicAuth()
			if !ok || user != "alice" || pass != "secret" {
				t.Errorf("Expected basic auth alice/secret, got %q/%q", user, pass)
			}
			w.Write([]byte(`{"time":1700000000,"states":[
				["a1b2c3","UAL123  ","United States",1700000000,1700000001,-73.5,40.5,10000.5,false,220.1,90.0,0.0,null,10100.2,"2000",false,0],
				["ffffff","","Canada",null,1700000001,null,null,null,true,null,null,null,null,null,null,false,0]
			]}`))
		}))
		defer server.Close()

		client := NewOpenSkyClient(server.URL, newGetter("opensky-test-box"), WithOpenSkyCredentials("alice", "secret"))
		box := &coordinates.BoundingBox{MinLatitude: 40, MinLongitude: -74, MaxLatitude: 41, MaxLongitude: -73}
		states, err := client.FetchLiveStates(context.Background(), box)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(states) != 2 {
			t.Fatalf("Expected 2 raw states, got %d", len(states))
		}

		f, ok := Normalize(states[0], ProviderOpenSky)
		if !ok {
			t.Fatal("Expected first state to normalize")
		}
		if f.Callsign != "UAL123" || f.Latitude != 40.5 || f.Longitude != -73.5 {
			t.Errorf("Unexpected flight: %+v", f)
		}
		if _, ok := Normalize(states[1], ProviderOpenSky); ok {
			t.Error("Expected position-less state to be discarded")
		}
	})

	t.Run("Null states is an empty snapshot", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "" {
				t.Errorf("Expected global query, got %s", r.URL.RawQuery)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("Expected anonymous request")
			}
			w.Write([]byte(`{"time":1700000000,"states":null}`))
		}))
		defer server.Close()

		states, err := NewOpenSkyClient(server.URL, newGetter("opensky-test-null")).FetchLiveStates(context.Background(), nil)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(states) != 0 {
			t.Errorf("Expected no states, got %d", len(states))
		}
	})

	t.Run("Server error is an upstream failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewOpenSkyClient(server.URL, newGetter("opensky-test-503")).FetchLiveStates(context.Background(), nil)
		if !apperr.Is(err, apperr.KindUpstream) {
			t.Errorf("Expected upstream error, got %v", err)
		}
	})

	t.Run("Missing endpoint is an upstream failure, not an empty result", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		_, err := NewOpenSkyClient(server.URL, newGetter("opensky-test-404")).FetchLiveStates(context.Background(), nil)
		if !apperr.Is(err, apperr.KindUpstream) {
			t.Errorf("Expected upstream error, got %v", err)
		}
	})
}

// TestOpenSkyResolveRegistration tests aircraft metadata lookups
func TestOpenSkyResolveRegistration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata/aircraft/icao/4ca1fa":
			w.Write([]byte(`{"icao24":"4ca1fa","registration":"EI-DCL","typecode":"B738","model":"737-8AS","manufacturerName":"Boeing","operator":"Ryanair"}`))
		case "/metadata/aircraft/icao/000001":
			w.Write([]byte(`{"icao24":"000001","registration":""}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	client := NewOpenSkyClient(server.URL, newGetter("opensky-test-meta"))

	meta, err := client.ResolveRegistration(context.Background(), "4CA1FA")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if meta == nil || meta.Registration != "EI-DCL" || meta.TypeCode != "B738" {
		t.Errorf("Unexpected metadata: %+v", meta)
	}

	for _, icao := range []string{"000001", "abcdef"} {
		meta, err := client.ResolveRegistration(context.Background(), icao)
		if err != nil {
			t.Errorf("Expected no error for %s, got: %v", icao, err)
		}
		if meta != nil {
			t.Errorf("Expected no registration for %s, got %+v", icao, meta)
		}
	}
}

// TestOpenSkyFetchTrack tests track retrieval and row parsing
func TestOpenSkyFetchTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("icao24") != "a1b2c3" || r.URL.Query().Get("time") != "0" {
			t.Errorf("Unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"icao24":"a1b2c3","callsign":"UAL123 ","startTime":1700000000,"endTime":1700000600,"path":[
			[1700000000,40.1,-74.1,null,90.0,true],
			[1700000300,40.2,-74.0,3000.0,91.0,false],
			[1700000600,null,null,6000.0,92.0,false],
			[1700000900,40.3]
		]}`))
	}))
	defer server.Close()

	track, err := NewOpenSkyClient(server.URL, newGetter("opensky-test-track")).FetchTrack(context.Background(), "A1B2C3")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if track.Callsign != "UAL123" || track.StartTime != 1700000000 || track.EndTime != 1700000600 {
		t.Errorf("Unexpected track header: %+v", track)
	}
	if len(track.Path) != 3 {
		t.Fatalf("Expected 3 well-formed samples, got %d", len(track.Path))
	}
	if !track.Path[0].OnGround || track.Path[0].BaroAltitude != nil {
		t.Errorf("Unexpected first sample: %+v", track.Path[0])
	}

	profile := track.AltitudeProfile()
	if len(profile) != 2 || profile[0].BaroAltitude != 3000 || profile[1].Time != 1700000600 {
		t.Errorf("Unexpected altitude profile: %+v", profile)
	}

	box, ok := track.Bounds()
	if !ok {
		t.Fatal("Expected bounds")
	}
	if box.MinLatitude != 40.1 || box.MaxLatitude != 40.2 || box.MinLongitude != -74.1 || box.MaxLongitude != -74.0 {
		t.Errorf("Unexpected bounds: %+v", box)
	}
}

func TestOpenSkyFetchTrackNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewOpenSkyClient(server.URL, newGetter("opensky-test-track-404")).FetchTrack(context.Background(), "a1b2c3")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}
