// Package photos finds aircraft photos, first for the exact airframe and otherwise
// for its aircraft type.
package photos

import (
	"context"
	"net/http"
)

// Result describes one photo. Every field is nil when no photo was found.
type Result struct {
	Registration *string `json:"registration"`
	PhotoURL     *string `json:"photo_url"`
	ThumbnailURL *string `json:"thumbnail_url"`
	Photographer *string `json:"photographer"`
	SourceLink   *string `json:"source_link"`

	// IsGeneric is true when the photo shows the aircraft type, not this airframe
	IsGeneric bool `json:"is_generic"`
}

// HasPhoto reports whether the result carries an image.
func (r *Result) HasPhoto() bool {
	return r != nil && (r.PhotoURL != nil || r.ThumbnailURL != nil)
}

// Provider looks up photos. Both methods return nil, nil when nothing matches.
type Provider interface {
	FetchByRegistration(ctx context.Context, registration string) (*Result, error)
	FetchByType(ctx context.Context, typeCode string) (*Result, error)
}

// RegistrationSource finds photos of a specific airframe.
type RegistrationSource interface {
	FetchByRegistration(ctx context.Context, registration string) (*Result, error)
}

// TypeSource finds representative photos of an aircraft type.
type TypeSource interface {
	FetchByType(ctx context.Context, typeCode string) (*Result, error)
}

// Chain combines an airframe source with a type source into a Provider.
// Either may be nil, in which case its lookups find nothing.
type Chain struct {
	Registration RegistrationSource
	Types        TypeSource
}

// FetchByRegistration implements Provider.
func (c Chain) FetchByRegistration(ctx context.Context, registration string) (*Result, error) {
	if c.Registration == nil {
		return nil, nil
	}
	return c.Registration.FetchByRegistration(ctx, registration)
}

// FetchByType implements Provider.
func (c Chain) FetchByType(ctx context.Context, typeCode string) (*Result, error) {
	if c.Types == nil {
		return nil, nil
	}
	return c.Types.FetchByType(ctx, typeCode)
}

// JSONGetter performs a GET and decodes the JSON body.
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, header http.Header, out any) error
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
