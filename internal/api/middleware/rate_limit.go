package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/opaquedelicia/restaurant-platform/internal/errors"
	"github.com/opaquedelicia/restaurant-platform/internal/utils/response"
)

// RateLimiter reports whether key may make another request, how many remain in the
// current window and, when denied, how many seconds to wait.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string) (bool, int, int, error)
}

// RateLimit rejects clients that exceed limiter with 429. Limiter failures let the
// request through.
func RateLimit(limiter RateLimiter, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())
		key := r.Pattern + ":" + ClientIP(r)

		allowed, remaining, retryAfter, err := limiter.CheckRateLimit(r.Context(), key)
		if err != nil {
			logger.Warn("Rate limit check failed, allowing request", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			logger.Warn("Rate limit exceeded", slog.Int("retry_after", retryAfter))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			response.Error(w, errors.TooManyRequestsError("Too many requests. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	}
}

// ClientIP prefers the first X-Forwarded-For hop over the connection address.
func ClientIP(r *http.Request) string {

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
