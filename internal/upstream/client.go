// Package upstream is the single outbound HTTP path for every third-party provider.
//
// Each provider gets its own Client, which paces requests with a token bucket, trips a
// circuit breaker when the provider keeps failing, maps HTTP status codes onto apperr
// kinds and records Prometheus metrics. It never retries.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/internal/metrics"
)

// maxBodyBytes bounds a single response. A global OpenSky snapshot is a few MB.
const maxBodyBytes = 32 << 20

// BreakerSettings configures the per-provider circuit breaker.
type BreakerSettings struct {
	// MinRequests is the number of requests in a window before the ratio is considered.
	MinRequests uint32

	// FailureRatio opens the circuit once failures/requests reaches it.
	FailureRatio float64

	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration
}

// DefaultBreakerSettings opens after 60% failures over at least 10 requests.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MinRequests: 10, FailureRatio: 0.6, OpenTimeout: time.Minute}
}

// Options configures a Client.
type Options struct {
	// Name identifies the provider in errors, logs and metrics (e.g. "opensky").
	Name string

	// RequestsPerSecond paces outbound calls; 0 disables pacing.
	RequestsPerSecond float64

	// Timeout bounds each request; 0 leaves only the transport defaults.
	Timeout time.Duration

	// UserAgent is sent on every request when set.
	UserAgent string

	Breaker BreakerSettings

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// Client performs paced, breaker-protected GET requests against one provider.
type Client struct {
	name      string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	userAgent string
	now       func() time.Time
}

// New creates a Client for one provider.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	bs := opts.Breaker
	if bs.MinRequests == 0 {
		bs = DefaultBreakerSettings()
	}

	c := &Client{
		name:      opts.Name,
		http:      httpClient,
		limiter:   limiter,
		userAgent: opts.UserAgent,
		now:       time.Now,
	}

	metrics.CircuitBreakerState.WithLabelValues(opts.Name).Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bs.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bs.FailureRatio
		},
		// A 404 means the provider answered; it says nothing about its health.
		// Neither does a caller that gave up mid-request.
		IsSuccessful: func(err error) bool {
			return err == nil || apperr.Is(err, apperr.KindNotFound) || isCallerGone(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			zap.L().Info("circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return c
}

// Name returns the provider name this client reports under.
func (c *Client) Name() string {
	return c.name
}

// Get fetches url and returns the response body. Non-2xx statuses become apperr
// errors: 404 is KindNotFound, everything else KindUpstream. When ctx ends first the
// context error is returned as is and the breaker does not count it.
func (c *Client) Get(ctx context.Context, url string, header http.Header) ([]byte, error) {
	// Pacing happens outside the breaker so a caller deadline spent waiting for a
	// token never counts against the provider.
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.UpstreamRequests.WithLabelValues(c.name, "canceled").Inc()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, eris.Wrap(context.DeadlineExceeded, err.Error())
		}
	}
	if err := ctx.Err(); err != nil {
		metrics.UpstreamRequests.WithLabelValues(c.name, "canceled").Inc()
		return nil, err
	}

	start := c.now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, url, header)
	})
	metrics.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.UpstreamRequests.WithLabelValues(c.name, "success").Inc()
		return body, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamRequests.WithLabelValues(c.name, "rejected").Inc()
		return nil, apperr.Upstream(c.name, 0, eris.Wrap(err, "circuit breaker rejected request"))
	case isCallerGone(err):
		metrics.UpstreamRequests.WithLabelValues(c.name, "canceled").Inc()
		return nil, err
	case apperr.Is(err, apperr.KindNotFound):
		metrics.UpstreamRequests.WithLabelValues(c.name, "not_found").Inc()
		return nil, err
	default:
		metrics.UpstreamRequests.WithLabelValues(c.name, "error").Inc()
		zap.L().Warn("upstream request failed", zap.String("provider", c.name), zap.Error(err))
		return nil, err
	}
}

// GetJSON fetches url and decodes the body into out. A body that does not decode is
// an upstream failure, never an empty result.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	body, err := c.Get(ctx, url, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Upstream(c.name, http.StatusOK, eris.Wrap(err, "decode response"))
	}
	return nil
}

// isCallerGone reports whether err is the caller's own context ending rather than
// a provider failure. Provider timeouts arrive wrapped in an apperr and never match.
func isCallerGone(err error) bool {
	if _, ok := apperr.As(err); ok {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) do(ctx context.Context, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Upstream(c.name, 0, eris.Wrap(err, "build request"))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// *url.Error repeats the URL, which can carry an API key.
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, apperr.Upstream(c.name, 0, eris.Wrap(err, "send request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperr.Upstream(c.name, resp.StatusCode, eris.Wrap(err, "read response"))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		e := apperr.NotFound("%s has no matching resource", c.name)
		e.Provider = c.name
		return nil, e
	case resp.StatusCode == http.StatusTooManyRequests:
		rl := extractRateLimitHeaders(resp.Header)
		e := apperr.Upstream(c.name, resp.StatusCode, eris.Errorf("rate limited by provider (limit %d, remaining %d)", rl.Limit, rl.Remaining))
		e.RetryAfter = parseRetryAfter(resp.Header, c.now())
		return nil, e
	default:
		return nil, apperr.Upstream(c.name, resp.StatusCode, eris.New(snippet(body)))
	}
}

// snippet keeps error messages readable when a provider returns an HTML error page.
func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return fmt.Sprintf("%s...", body[:max])
	}
	if len(body) == 0 {
		return "empty response body"
	}
	return string(body)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
