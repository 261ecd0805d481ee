package photos

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/unklstewy/whatdatplane/internal/apperr"
)

// Planespotters fetches airframe photos from the Planespotters.net public API.
// API Documentation: https://www.planespotters.net/photo/api
type Planespotters struct {
	// baseURL is the API base URL (default: https://api.planespotters.net/pub)
	baseURL string
	http    JSONGetter
}

// NewPlanespotters creates a Planespotters client.
func NewPlanespotters(baseURL string, getter JSONGetter) *Planespotters {
	return &Planespotters{baseURL: strings.TrimRight(baseURL, "/"), http: getter}
}

type planespottersImage struct {
	Src string `json:"src"`
}

type planespottersPhoto struct {
	ID             string             `json:"id"`
	Image          planespottersImage `json:"image"`
	Thumbnail      planespottersImage `json:"thumbnail"`
	ThumbnailLarge planespottersImage `json:"thumbnail_large"`
	Link           string             `json:"link"`
	Photographer   string             `json:"photographer"`
}

type planespottersResponse struct {
	Photos []planespottersPhoto `json:"photos"`
}

// FetchByRegistration returns the first photo of the airframe, or nil.
func (p *Planespotters) FetchByRegistration(ctx context.Context, registration string) (*Result, error) {
	reg := strings.ToUpper(strings.TrimSpace(registration))
	if reg == "" {
		return nil, nil
	}

	var resp planespottersResponse
	if err := p.http.GetJSON(ctx, p.baseURL+"/photos/reg/"+url.PathEscape(reg), nil, &resp); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "photos: planespotters lookup")
	}
	if len(resp.Photos) == 0 {
		return nil, nil
	}

	photo := resp.Photos[0]
	full := photo.Image.Src
	if full == "" {
		full = photo.ThumbnailLarge.Src
	}
	return &Result{
		Registration: optional(reg),
		PhotoURL:     optional(full),
		ThumbnailURL: optional(photo.Thumbnail.Src),
		Photographer: optional(photo.Photographer),
		SourceLink:   optional(photo.Link),
	}, nil
}
