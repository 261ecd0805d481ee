package upstream

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitHeaders is the quota a provider advertised on its response.
// Fields are -1 / zero when the provider sent nothing.
type RateLimitHeaders struct {
	Limit     int       // X-RateLimit-Limit: Maximum requests allowed
	Remaining int       // X-RateLimit-Remaining: Requests remaining in current window
	Reset     time.Time // X-RateLimit-Reset: When the window resets
}

// parseRetryAfter extracts the Retry-After header value.
// Returns the duration to wait, or 0 if the header is absent or already past.
// Supports both delay-seconds and HTTP-date formats:
//
//	Retry-After: 30                            -> 30 seconds
//	Retry-After: Wed, 21 Oct 2015 07:28:00 GMT -> duration until that time
func parseRetryAfter(headers http.Header, now time.Time) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if d := retryTime.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// extractRateLimitHeaders reads both the X-Rate-Limit-* and X-RateLimit-* spellings.
func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{Limit: -1, Remaining: -1}

	if v, ok := firstInt(headers, "X-Rate-Limit-Limit", "X-RateLimit-Limit"); ok {
		rlh.Limit = int(v)
	}
	if v, ok := firstInt(headers, "X-Rate-Limit-Remaining", "X-RateLimit-Remaining"); ok {
		rlh.Remaining = int(v)
	}
	if v, ok := firstInt(headers, "X-Rate-Limit-Reset", "X-RateLimit-Reset"); ok {
		rlh.Reset = time.Unix(v, 0)
	}
	return rlh
}

func firstInt(headers http.Header, names ...string) (int64, bool) {
	for _, name := range names {
		if raw := headers.Get(name); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			return v, err == nil
		}
	}
	return 0, false
}
