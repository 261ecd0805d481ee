package adsb

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/pkg/coordinates"
)

const (
	// aviationstackPageSize is the largest page the flights endpoint serves.
	aviationstackPageSize = 100
	// DefaultAviationstackMaxPages bounds how much of the global feed one search reads.
	DefaultAviationstackMaxPages = 5
)

// AviationstackClient implements LiveSource for the aviationstack flights API.
// API Documentation: https://aviationstack.com/documentation
// Requires an access key. The API has no geographic filter, so every call is global.
type AviationstackClient struct {
	// baseURL is the API base URL (default: http://api.aviationstack.com/v1)
	baseURL   string
	accessKey string
	maxPages  int
	http      JSONGetter
	now       func() time.Time
}

// NewAviationstackClient creates a new aviationstack client that reads up to
// maxPages pages per fetch; maxPages <= 0 uses DefaultAviationstackMaxPages.
func NewAviationstackClient(baseURL, accessKey string, maxPages int, getter JSONGetter) *AviationstackClient {
	if maxPages <= 0 {
		maxPages = DefaultAviationstackMaxPages
	}
	return &AviationstackClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		maxPages:  maxPages,
		http:      getter,
		now:       time.Now,
	}
}

// Provider implements LiveSource.
func (c *AviationstackClient) Provider() ProviderTag { return ProviderAviationstack }

// SupportsBoundingBox implements LiveSource.
func (c *AviationstackClient) SupportsBoundingBox() bool { return false }

type aviationstackPagination struct {
	Offset int `json:"offset"`
	Count  int `json:"count"`
	Total  int `json:"total"`
}

type aviationstackResponse struct {
	Pagination *aviationstackPagination `json:"pagination"`
	Data       []AviationstackFlight    `json:"data"`
	Error      *apiErrorBody            `json:"error"`
}

// FetchLiveStates returns active flights, following offset pagination until the
// feed is exhausted or maxPages pages have been read. box is ignored.
func (c *AviationstackClient) FetchLiveStates(ctx context.Context, _ *coordinates.BoundingBox) ([]RawState, error) {
	q := url.Values{}
	q.Set("access_key", c.accessKey)
	q.Set("flight_status", "active")
	q.Set("limit", strconv.Itoa(aviationstackPageSize))

	fetchedAt := c.now().Unix()
	var states []RawState
	for page := 0; page < c.maxPages; page++ {
		offset := page * aviationstackPageSize
		q.Set("offset", strconv.Itoa(offset))

		var resp aviationstackResponse
		if err := c.http.GetJSON(ctx, c.baseURL+"/flights?"+q.Encode(), nil, &resp); err != nil {
			return nil, liveFetchError(ProviderAviationstack, err, "aviationstack: fetch flights")
		}
		if resp.Error != nil {
			return nil, apperr.Upstream(string(ProviderAviationstack), http.StatusOK, eris.Errorf("api error: %s", resp.Error.Message))
		}

		for _, f := range resp.Data {
			f.FetchedAt = fetchedAt
			states = append(states, f)
		}

		if len(resp.Data) < aviationstackPageSize {
			break
		}
		if p := resp.Pagination; p != nil && p.Total > 0 && offset+len(resp.Data) >= p.Total {
			break
		}
	}
	if states == nil {
		states = []RawState{}
	}
	return states, nil
}
