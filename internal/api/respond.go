package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/unklstewy/whatdatplane/internal/apperr"
	"github.com/unklstewy/whatdatplane/internal/ratelimit"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Message    string `json:"message,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error","code":"INTERNAL_ERROR"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondError maps err's kind to a status code and a caller-safe message. Internal
// and upstream details are logged, not returned.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	e, _ := apperr.As(err)
	kind := apperr.KindOf(err)

	body := errorBody{}
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status, body.Code, body.Error = http.StatusBadRequest, "VALIDATION_FAILED", e.Message
	case apperr.KindNotFound:
		status, body.Code, body.Error = http.StatusNotFound, "NOT_FOUND", e.Message
	case apperr.KindUpstream:
		status, body.Code, body.Error = http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Upstream data provider is unavailable"
	case apperr.KindRateLimited:
		status, body.Code, body.Error = http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests"
		body.RetryAfter = ratelimit.RetryAfterSeconds(e.RetryAfter)
		body.Message = fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", body.RetryAfter)
		w.Header().Set("Retry-After", strconv.Itoa(body.RetryAfter))
	case apperr.KindUnavailable:
		status, body.Code, body.Error = http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", e.Message
	default:
		body.Code, body.Error = "INTERNAL_ERROR", "Internal server error"
	}

	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		zap.L().Warn("request failed", fields...)
	} else {
		zap.L().Debug("request rejected", fields...)
	}

	respondJSON(w, status, body)
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
		return
	}
	w.Header().Set("X-Cache", "MISS")
}
