package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Middleware rejects requests beyond limit per client address with
// 429 Too Many Requests and reports the window in RateLimit-* headers
func Middleware(store Store, limitType string, limit Limit, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := logger.With().Str("requestId", middleware.GetReqID(r.Context())).Logger()

			key := LimitKey{Type: limitType, RemoteIP: realIP(r)}
			count, reset, err := store.Increment(r.Context(), key, limit)
			if err != nil {
				reqLogger.Error().Err(err).
					Str("type", limitType).
					Str("path", r.URL.Path).
					Msg("rate limit check failed")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			remaining := limit.Rate - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("RateLimit-Limit", strconv.Itoa(limit.Rate))
			w.Header().Set("RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if count > limit.Rate {
				handleLimitExceeded(w, r, reset, reqLogger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// handleLimitExceeded sends a 429 with a Retry-After header
func handleLimitExceeded(w http.ResponseWriter, r *http.Request, reset time.Time, logger zerolog.Logger) {
	retryAfter := int(time.Until(reset).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	logger.Warn().
		Str("path", r.URL.Path).
		Str("method", r.Method).
		Str("remoteIP", realIP(r)).
		Int("retryAfter", retryAfter).
		Msg("rate limit exceeded")

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	fmt.Fprintf(w, `{"error":"rate_limit_exceeded","message":"Too many requests, please retry after %d seconds"}`, retryAfter)
}

// realIP extracts the client address, preferring proxy headers
func realIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// leftmost X-Forwarded-For entry
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if parts := strings.Split(xff, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	return host
}
