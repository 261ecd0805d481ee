package photos

import (
	"context"
	"strings"
)

// CatalogEntry is a representative photo for one aircraft type.
type CatalogEntry struct {
	PhotoURL     string `json:"photo_url" mapstructure:"photo_url"`
	ThumbnailURL string `json:"thumbnail_url" mapstructure:"thumbnail_url"`
	Photographer string `json:"photographer" mapstructure:"photographer"`
	SourceLink   string `json:"source_link" mapstructure:"source_link"`
}

// Catalog is a static TypeSource keyed by ICAO type designator (e.g. "A320").
type Catalog struct {
	entries map[string]CatalogEntry
}

// NewCatalog builds a catalog; keys are matched case-insensitively.
func NewCatalog(entries map[string]CatalogEntry) *Catalog {
	c := &Catalog{entries: make(map[string]CatalogEntry, len(entries))}
	for code, e := range entries {
		if e.PhotoURL == "" && e.ThumbnailURL == "" {
			continue
		}
		c.entries[strings.ToUpper(strings.TrimSpace(code))] = e
	}
	return c
}

// Len returns the number of usable entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// FetchByType implements TypeSource. It never fails.
func (c *Catalog) FetchByType(_ context.Context, typeCode string) (*Result, error) {
	e, ok := c.entries[strings.ToUpper(strings.TrimSpace(typeCode))]
	if !ok {
		return nil, nil
	}
	return &Result{
		PhotoURL:     optional(e.PhotoURL),
		ThumbnailURL: optional(e.ThumbnailURL),
		Photographer: optional(e.Photographer),
		SourceLink:   optional(e.SourceLink),
		IsGeneric:    true,
	}, nil
}
