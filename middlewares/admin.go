// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"csint-server/models"
	"csint-server/sessions"
	"net/http"

	"github.com/labstack/echo/v4"
)

// VerifyAdminSessionMiddleware authenticates requests through an admin
// bearer session.
func VerifyAdminSessionMiddleware(lifecycle *sessions.Lifecycle) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := c.Logger()

			token, ok := BearerToken(c)
			if !ok {
				logger.Error("Authorization header missing or token invalid.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Admin authentication required",
				}
			}

			session, err := lifecycle.ValidateAdmin(c.Request().Context(), token)
			if err != nil {
				logger.Errorf("Failed to validate admin session: %v", err)
				return echo.ErrInternalServerError
			}
			if session == nil {
				logger.Error("Admin session not found or expired.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Admin authentication required",
				}
			}

			c.Set("admin_session", *session)
			return next(c)
		}
	}
}

// GetAdminSession returns the session stored by VerifyAdminSessionMiddleware.
func GetAdminSession(c echo.Context) (models.AdminSession, bool) {
	session, ok := c.Get("admin_session").(models.AdminSession)
	return session, ok
}
