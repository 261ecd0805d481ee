package adsb

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/unklstewy/whatdatplane/internal/apperr"
)

// JSONGetter performs a GET and decodes the JSON body. Implementations classify
// failures with apperr kinds (see internal/upstream).
type JSONGetter interface {
	GetJSON(ctx context.Context, url string, header http.Header, out any) error
}

// liveFetchError wraps a live-state failure. Live endpoints always exist, so a 404
// there is a provider fault and must not read as "no aircraft".
func liveFetchError(provider ProviderTag, err error, msg string) error {
	if apperr.Is(err, apperr.KindNotFound) {
		err = apperr.Upstream(string(provider), http.StatusNotFound, err)
	}
	return eris.Wrap(err, msg)
}
