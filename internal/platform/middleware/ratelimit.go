package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	// Methods limits which methods are counted; empty means all.
	Methods []string
	// ExpiresIn drops a client's limiter after this much inactivity.
	ExpiresIn time.Duration
}

// DefaultRateLimitConfig caps state-changing requests (manual refreshes) per
// client so repeated clicks cannot hammer the screenings backend.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 1,
		BurstSize:         5,
		Methods:           []string{http.MethodPost},
		ExpiresIn:         3 * time.Minute,
	}
}

func (cfg RateLimitConfig) applies(method string) bool {
	if len(cfg.Methods) == 0 {
		return true
	}
	for _, m := range cfg.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// retryAfter is the whole number of seconds until one token refills.
func (cfg RateLimitConfig) retryAfter() int {
	if cfg.RequestsPerSecond <= 0 {
		return 1
	}
	return int(math.Ceil(1 / cfg.RequestsPerSecond))
}

// RateLimit limits requests per client IP with echo's in-memory limiter.
// Denied requests get 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     cfg.BurstSize,
		ExpiresIn: cfg.ExpiresIn,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return !cfg.applies(c.Request().Method)
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			c.Response().Header().Set("X-RateLimit-Limit", limit)
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(cfg.retryAfter()))
			c.Response().Header().Set("X-RateLimit-Remaining", "0")
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}
