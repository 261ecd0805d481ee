package adsb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

// AirLabsClient implements LiveSource for the AirLabs real-time flights API.
// API Documentation: https://airlabs.co/docs/flights
// Requires an API key.
type AirLabsClient struct {
	// baseURL is the API base URL (default: https://airlabs.co/api/v9)
	baseURL string
	apiKey  string
	http    JSONGetter
	now     func() time.Time
}

// NewAirLabsClient creates a new AirLabs client.
func NewAirLabsClient(baseURL, apiKey string, getter JSONGetter) *AirLabsClient {
	return &AirLabsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    getter,
		now:     time.Now,
	}
}

// Provider implements LiveSource.
func (c *AirLabsClient) Provider() ProviderTag { return ProviderAirLabs }

// SupportsBoundingBox implements LiveSource via the bbox parameter.
func (c *AirLabsClient) SupportsBoundingBox() bool { return true }

// apiErrorBody is the error envelope AirLabs and Aviationstack return with HTTP 200.
type apiErrorBody struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

type airLabsResponse struct {
	Response []AirLabsFlight `json:"response"`
	Error    *apiErrorBody   `json:"error"`
}

// FetchLiveStates returns the current flights, optionally limited to box.
func (c *AirLabsClient) FetchLiveStates(ctx context.Context, box *coordinates.BoundingBox) ([]RawState, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	if box != nil {
		q.Set("bbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f",
			box.MinLatitude, box.MinLongitude, box.MaxLatitude, box.MaxLongitude))
	}

	var resp airLabsResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/flights?"+q.Encode(), nil, &resp); err != nil {
		return nil, liveFetchError(ProviderAirLabs, err, "airlabs: fetch flights")
	}
	if resp.Error != nil {
		return nil, apperr.Upstream(string(ProviderAirLabs), http.StatusOK, eris.Errorf("api error: %s", resp.Error.Message))
	}

	fetchedAt := c.now().Unix()
	states := make([]RawState, 0, len(resp.Response))
	for _, f := range resp.Response {
		f.FetchedAt = fetchedAt
		states = append(states, f)
	}
	return states, nil
}
