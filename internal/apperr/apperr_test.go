package apperr

import (
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := eris.Wrap(Upstream("opensky", 0, cause), "fetch live states")

	assert.Equal(t, KindUpstream, KindOf(err))
	assert.True(t, Is(err, KindUpstream))
	assert.False(t, Is(err, KindNotFound))
	assert.ErrorIs(t, err, cause)

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "opensky", e.Provider)
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, Is(nil, KindInternal))
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"validation", Validation("lat is required"), "lat is required"},
		{"not found", NotFound("no airborne aircraft"), "no airborne aircraft"},
		{"upstream status", Upstream("nominatim", 503, nil), "nominatim: upstream returned status 503"},
		{"upstream transport", Upstream("airlabs", 0, errors.New("eof")), "airlabs: upstream request failed: eof"},
		{"rate limited", RateLimited(3 * time.Second), "too many requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
