package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unklstewy/whatdatplane/internal/apperr"
)

// ClientID derives the identifier requests are counted under: the first
// X-Forwarded-For hop, then X-Real-IP, then the connection's remote host, then
// the literal "unknown".
func ClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}

// RejectFunc answers a request the limiter turned away. err is always a
// KindRateLimited *apperr.Error carrying the wait.
type RejectFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware enforces l on every request. Admitted responses carry
// X-RateLimit-Limit and X-RateLimit-Remaining; rejected ones never reach next and
// are handed to reject.
func Middleware(l *Limiter, reject RejectFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ClientID(r)
			d := l.Check(id)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			zap.L().Info("rate limit exceeded",
				zap.String("limiter", l.Name()),
				zap.String("client", id),
				zap.String("path", r.URL.Path),
				zap.Int("retry_after", RetryAfterSeconds(d.RetryAfter)),
			)
			reject(w, r, apperr.RateLimited(d.RetryAfter))
		})
	}
}

// RetryAfterSeconds rounds a wait up to whole seconds, never less than one.
func RetryAfterSeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
