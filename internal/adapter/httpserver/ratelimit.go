package httpserver

import (
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	apperrors "github.com/pscheid92/signcast/internal/platform/errors"
)

const (
	publishLimitIdleExpiry = 5 * time.Minute
	publishLimitMessage    = "Too many publishes, slow down"
)

// newPublishLimiter gives every producer IP its own token bucket. The same
// store backs all publish routes, so the alias paths share one budget.
func newPublishLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: publishLimitIdleExpiry,
	})
	retryAfter := strconv.Itoa(int(math.Ceil(1 / perSecond)))

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, producer string, _ error) error {
			c.Response().Header().Set("Retry-After", retryAfter)
			return HandleError(c, apperrors.RateLimitedError(publishLimitMessage).WithField("producer_ip", producer))
		},
	})
}
