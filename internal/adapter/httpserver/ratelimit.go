package httpserver

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/nine420421/bilibili-sentiment-analysis/internal/platform/errors"
	"golang.org/x/time/rate"
)

const (
	rateLimiterExpiry     = 5 * time.Minute
	maxRetryAfterSeconds  = 60
	rateLimitExceededText = "too many uploads or deletions, try again later"
)

// newRateLimiter limits uploads and deletions per client IP. Rejections
// become structured errors so the dashboard can show them like any other.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(ratePerSecond),
		Burst:     burst,
		ExpiresIn: rateLimiterExpiry,
	})
	wait := retryAfterSeconds(ratePerSecond)

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(wait))
			return apperrors.RateLimitError(rateLimitExceededText).
				WithContext("retry_after_seconds", wait).
				WithContext("client", identifier)
		},
	})
}

// retryAfterSeconds is the time until one token is refilled, capped at a
// minute.
func retryAfterSeconds(ratePerSecond float64) int {
	if ratePerSecond <= 0 {
		return maxRetryAfterSeconds
	}
	return min(maxRetryAfterSeconds, max(1, int(math.Ceil(1/ratePerSecond))))
}
