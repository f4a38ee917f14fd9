// SPDX-License-Identifier: GPL-3.0-only

package middlewares

import (
	"csint-server/commons"
	"csint-server/models"
	"csint-server/sessions"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// BearerToken extracts the opaque session token from the Authorization
// header. The raw database token rides inside a signed JWT as the jti
// claim, so a tampered envelope fails before any lookup.
func BearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return "", false
	}
	return jti, true
}

// VerifyUserSessionMiddleware authenticates requests through a user bearer
// session and stores it on the request context.
func VerifyUserSessionMiddleware(lifecycle *sessions.Lifecycle) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := c.Logger()

			token, ok := BearerToken(c)
			if !ok {
				logger.Error("Authorization header missing or token invalid.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Invalid or expired session token, please login again",
				}
			}

			session, err := lifecycle.ValidateUser(c.Request().Context(), token)
			if err != nil {
				logger.Errorf("Failed to validate user session: %v", err)
				return echo.ErrInternalServerError
			}
			if session == nil {
				logger.Error("User session not found or expired.")
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "Invalid or expired session token, please login again",
				}
			}

			c.Set("user_session", *session)
			return next(c)
		}
	}
}

// GetUserSession returns the session stored by VerifyUserSessionMiddleware.
func GetUserSession(c echo.Context) (models.UserSession, bool) {
	session, ok := c.Get("user_session").(models.UserSession)
	return session, ok
}
