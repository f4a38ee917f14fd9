// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"csint-server/ratelimit"
	"fmt"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware gates requests at the transport edge, keyed by client
// network origin, before any session or quota work happens. When the limiter
// backend itself fails the request is admitted and the failure logged; the
// throttle is best-effort by design.
func RateLimitMiddleware(limiter ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result, err := limiter.Admit(c.Request().Context(), c.RealIP())
			if err != nil {
				c.Logger().Errorf("Rate limiter unavailable, admitting request: %v", err)
				return next(c)
			}
			if !result.Allowed {
				retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				return &echo.HTTPError{
					Code:    http.StatusTooManyRequests,
					Message: fmt.Sprintf("Too many requests, retry in %d seconds", retryAfter),
				}
			}
			return next(c)
		}
	}
}
