package middleware_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
	appErrors "github.com/opaquedelicia/restaurant-platform/internal/errors"
	repoMocks "github.com/opaquedelicia/restaurant-platform/internal/repositories/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRateLimit(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	newRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/payments/status/REF1", nil)
		req.RemoteAddr = "10.0.0.7:52311"
		return req.WithContext(middleware.WithLogger(req.Context(), slog.New(slog.NewTextHandler(io.Discard, nil))))
	}

	t.Run("Success - Under Limit", func(t *testing.T) {
		// Arrange
		limiter := repoMocks.NewMockRateLimitRepository(t)
		limiter.On("CheckRateLimit", mock.Anything, ":10.0.0.7").Return(true, 59, 0, nil).Once()
		rr := httptest.NewRecorder()

		// Act
		middleware.RateLimit(limiter, okHandler).ServeHTTP(rr, newRequest())

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "59", rr.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("Failure - Over Limit", func(t *testing.T) {
		// Arrange
		limiter := repoMocks.NewMockRateLimitRepository(t)
		limiter.On("CheckRateLimit", mock.Anything, ":10.0.0.7").Return(false, 0, 42, nil).Once()
		rr := httptest.NewRecorder()

		// Act
		middleware.RateLimit(limiter, okHandler).ServeHTTP(rr, newRequest())

		// Assert
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
		assert.Equal(t, "42", rr.Header().Get("Retry-After"))
		assert.Contains(t, rr.Body.String(), appErrors.ErrCodeTooManyRequests)
	})

	t.Run("Success - Limiter Error Lets Request Through", func(t *testing.T) {
		limiter := repoMocks.NewMockRateLimitRepository(t)
		limiter.On("CheckRateLimit", mock.Anything, mock.Anything).Return(false, 0, 0, errors.New("redis down")).Once()
		rr := httptest.NewRecorder()

		middleware.RateLimit(limiter, okHandler).ServeHTTP(rr, newRequest())

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:52311"
	assert.Equal(t, "10.0.0.7", middleware.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", middleware.ClientIP(req))
}
