// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"csint-server/apikeys"
	"csint-server/db"
	"csint-server/middlewares"
	"csint-server/sessions"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// LoginHandler godoc
// @Summary      Exchange an access key for a session
// @Description  Validates the key-email pair, binding the key to the email on first use, and returns a 30-day bearer session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body  LoginRequest  true  "Login payload"
// @Success      200 {object} LoginResponse  "Login successful"
// @Failure      400 {object} echo.HTTPError "Bad request"
// @Failure      401 {object} echo.HTTPError "Invalid key or wrong email"
// @Failure      500 {object} echo.HTTPError "Internal server error"
// @Router       /v1/auth/login [post]
func LoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid login payload:", err)
		return echo.ErrBadRequest
	}

	req.Key = strings.TrimSpace(req.Key)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Key == "" {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "Key is required"}
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return &echo.HTTPError{Code: http.StatusBadRequest, Message: "A valid email is required"}
	}

	keys := apikeys.NewLifecycle(db.Conn)
	key, err := keys.RedeemOrValidate(c.Request().Context(), req.Key, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, apikeys.ErrInvalidArgument):
			return &echo.HTTPError{Code: http.StatusBadRequest, Message: err.Error()}
		case errors.Is(err, apikeys.ErrInvalidKey):
			return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "Invalid or revoked key"}
		case errors.Is(err, apikeys.ErrIdentityMismatch):
			return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "Key is registered to a different email"}
		case errors.Is(err, apikeys.ErrKeyExpired):
			return &echo.HTTPError{Code: http.StatusUnauthorized, Message: "Key has expired"}
		default:
			logger.Errorf("Failed to redeem access key: %v", err)
			return echo.ErrInternalServerError
		}
	}

	sessionLifecycle := sessions.NewLifecycle(db.Conn)
	session, err := sessionLifecycle.CreateUser(c.Request().Context(), req.Email, key.ID)
	if err != nil {
		logger.Errorf("Failed to create user session: %v", err)
		return echo.ErrInternalServerError
	}

	signed, err := signSessionJWT(req.Email, session.Token, session.ID, *session.ExpiresAt)
	if err != nil {
		logger.Errorf("Failed to sign session token: %v", err)
		return echo.ErrInternalServerError
	}

	logger.Infof("User logged in: %s (%s)", req.Email, key.PlanTier)
	return c.JSON(http.StatusOK, LoginResponse{
		SessionToken: signed,
		ExpiresAt:    session.ExpiresAt.Format(time.RFC3339),
		PlanTier:     string(key.PlanTier),
		Message:      "Login successful",
	})
}

// RefreshSessionHandler godoc
// @Summary      Refresh a user session
// @Description  Rotates the session token and extends the expiry window. The previous token stops working immediately.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} RefreshResponse "Session refreshed"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/refresh [post]
func RefreshSessionHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := middlewares.GetUserSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	sessionLifecycle := sessions.NewLifecycle(db.Conn)
	refreshed, err := sessionLifecycle.RefreshUser(c.Request().Context(), session.Token)
	if err != nil {
		if errors.Is(err, sessions.ErrNoSession) {
			return echo.ErrUnauthorized
		}
		logger.Errorf("Failed to refresh session: %v", err)
		return echo.ErrInternalServerError
	}

	signed, err := signSessionJWT(refreshed.Email, refreshed.Token, refreshed.ID, *refreshed.ExpiresAt)
	if err != nil {
		logger.Errorf("Failed to sign session token: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, RefreshResponse{
		SessionToken: signed,
		ExpiresAt:    refreshed.ExpiresAt.Format(time.RFC3339),
		Message:      "Session refreshed",
	})
}

// LogoutHandler godoc
// @Summary      End a user session
// @Description  Revokes the bearer session. The token stops working immediately.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} GenericResponse "Logged out"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/auth/logout [post]
func LogoutHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := middlewares.GetUserSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	sessionLifecycle := sessions.NewLifecycle(db.Conn)
	if err := sessionLifecycle.RevokeUser(c.Request().Context(), session.Token); err != nil {
		logger.Errorf("Failed to revoke session: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, GenericResponse{Message: "Logged out"})
}

// CheckHandler godoc
// @Summary      Check session and key standing
// @Description  Re-validates the key behind the current session and returns the bound identity and plan.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} CheckResponse  "Session is valid"
// @Failure      401 {object} echo.HTTPError "Unauthorized"
// @Failure      403 {object} echo.HTTPError "Key revoked, expired, or rebound"
// @Failure      500 {object} echo.HTTPError "Internal server error"
// @Router       /v1/auth/check [get]
func CheckHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := middlewares.GetUserSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	keys := apikeys.NewLifecycle(db.Conn)
	key, err := keys.ValidateBinding(c.Request().Context(), session.AccessKeyID, session.Email)
	if err != nil {
		switch {
		case errors.Is(err, apikeys.ErrInvalidKey):
			return &echo.HTTPError{Code: http.StatusForbidden, Message: "Key is no longer valid"}
		case errors.Is(err, apikeys.ErrIdentityMismatch):
			return &echo.HTTPError{Code: http.StatusForbidden, Message: "Key is registered to a different email"}
		case errors.Is(err, apikeys.ErrKeyExpired):
			return &echo.HTTPError{Code: http.StatusForbidden, Message: "Key has expired"}
		default:
			logger.Errorf("Failed to validate key binding: %v", err)
			return echo.ErrInternalServerError
		}
	}

	return c.JSON(http.StatusOK, CheckResponse{
		Email:        session.Email,
		PlanTier:     string(key.PlanTier),
		KeyExpiresAt: key.ExpiresAt.Format(time.RFC3339),
		Message:      "Session is valid",
	})
}
