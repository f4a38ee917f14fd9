// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"crypto/subtle"
	"csint-server/commons"
	"csint-server/crypto"
	"csint-server/db"
	"csint-server/middlewares"
	"csint-server/sessions"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// signSessionJWT wraps a raw session token in a signed envelope. The jti
// claim is the opaque database token; everything else is transport dressing.
func signSessionJWT(subject, rawToken string, sessionID uint, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "https://csint.network",
		"aud": "https://api.csint.network",
		"iat": time.Now().Unix(),
		"sub": subject,
		"jti": rawToken,
		"sid": sessionID,
		"exp": expiresAt.Unix(),
	})
	return token.SignedString([]byte(commons.GetEnv("JWT_SECRET", "default_very_secret_key")))
}

// AdminLoginHandler godoc
// @Summary      Login as administrator
// @Description  Authenticates the administrator and returns a session token.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        adminLoginRequest  body  AdminLoginRequest  true  "Admin login payload"
// @Success      200 {object} AdminLoginResponse "Login successful"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing required fields"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/admin/login [post]
func AdminLoginHandler(c echo.Context) error {
	logger := c.Logger()

	var req AdminLoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid admin login request payload:", err)
		return echo.ErrBadRequest
	}
	if req.Username == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "username field is required",
		}
	}
	if req.Password == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}

	if !verifyAdminCredentials(req.Username, req.Password) {
		logger.Error("Admin credential verification failed.")
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Credentials are incorrect",
		}
	}

	lifecycle := sessions.NewLifecycle(db.Conn)
	session, err := lifecycle.CreateAdmin(c.Request().Context(), req.Username)
	if err != nil {
		logger.Errorf("Failed to create admin session: %v", err)
		return echo.ErrInternalServerError
	}

	signed, err := signSessionJWT(req.Username, session.Token, session.ID, *session.ExpiresAt)
	if err != nil {
		logger.Errorf("Failed to sign admin session token: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, AdminLoginResponse{
		SessionToken: signed,
		Message:      "Login successful",
	})
}

// verifyAdminCredentials checks the configured admin credential. When
// ADMIN_PASSWORD_HASH is set it is an argon2id hash; otherwise the plain
// ADMIN_PASSWORD is compared in constant time.
func verifyAdminCredentials(username, password string) bool {
	wantUser := commons.GetEnv("ADMIN_USERNAME", "admin")
	if subtle.ConstantTimeCompare([]byte(username), []byte(wantUser)) != 1 {
		return false
	}

	if hash := commons.GetEnv("ADMIN_PASSWORD_HASH"); hash != "" {
		return crypto.NewCrypto().VerifyPassword(password, hash) == nil
	}
	wantPassword := commons.GetEnv("ADMIN_PASSWORD", "password")
	return subtle.ConstantTimeCompare([]byte(password), []byte(wantPassword)) == 1
}

// AdminLogoutHandler godoc
// @Summary      Logout administrator
// @Description  Revokes the current admin session immediately.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} GenericResponse "Logout successful"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/admin/logout [post]
func AdminLogoutHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := middlewares.GetAdminSession(c)
	if !ok {
		return &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Admin authentication required",
		}
	}

	lifecycle := sessions.NewLifecycle(db.Conn)
	if err := lifecycle.RevokeAdmin(c.Request().Context(), session.Token); err != nil {
		logger.Errorf("Failed to revoke admin session: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, GenericResponse{Message: "Logout successful"})
}
