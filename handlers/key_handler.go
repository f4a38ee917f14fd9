// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"csint-server/apikeys"
	"csint-server/db"
	"csint-server/models"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// GenerateKeyHandler godoc
// @Summary      Issue an access key
// @Description  Creates a new unredeemed access key for the given plan tier. The key expires duration_days after its first use, not after issuance.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        generateKeyRequest  body  GenerateKeyRequest  true  "Key issuance payload"
// @Success      200 {object} GenerateKeyResponse "Key issued successfully"
// @Failure      400 {object} echo.HTTPError      "Bad request"
// @Failure      401 {object} echo.HTTPError      "Unauthorized"
// @Failure      500 {object} echo.HTTPError      "Internal server error"
// @Router       /v1/admin/keys [post]
func GenerateKeyHandler(c echo.Context) error {
	logger := c.Logger()

	var req GenerateKeyRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid key issuance payload:", err)
		return echo.ErrBadRequest
	}

	tier, err := models.ParsePlanTier(req.PlanTier)
	if err != nil {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}
	if req.DurationDays == 0 {
		req.DurationDays = 30
	}

	lifecycle := apikeys.NewLifecycle(db.Conn)
	key, err := lifecycle.Issue(c.Request().Context(), tier, req.DurationDays)
	if err != nil {
		if errors.Is(err, apikeys.ErrInvalidArgument) {
			return &echo.HTTPError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		logger.Errorf("Failed to issue access key: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, GenerateKeyResponse{
		Key:          key.Secret,
		KeyID:        key.KeyID,
		PlanTier:     string(key.PlanTier),
		DurationDays: key.DurationDays,
		Message:      "Key issued successfully",
	})
}

// GenerateKeyBatchHandler godoc
// @Summary      Issue a batch of access keys
// @Description  Creates up to 100 access keys in one request.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        generateKeyBatchRequest  body  GenerateKeyBatchRequest  true  "Batch issuance payload"
// @Success      200 {object} GenerateKeyBatchResponse "Keys issued successfully"
// @Failure      400 {object} echo.HTTPError           "Bad request"
// @Failure      401 {object} echo.HTTPError           "Unauthorized"
// @Failure      500 {object} echo.HTTPError           "Internal server error"
// @Router       /v1/admin/keys/batch [post]
func GenerateKeyBatchHandler(c echo.Context) error {
	logger := c.Logger()

	var req GenerateKeyBatchRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid batch issuance payload:", err)
		return echo.ErrBadRequest
	}

	tier, err := models.ParsePlanTier(req.PlanTier)
	if err != nil {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}
	if req.DurationDays == 0 {
		req.DurationDays = 30
	}

	lifecycle := apikeys.NewLifecycle(db.Conn)
	keys, err := lifecycle.IssueBatch(c.Request().Context(), tier, req.DurationDays, req.Count)
	if err != nil {
		if errors.Is(err, apikeys.ErrInvalidArgument) {
			return &echo.HTTPError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		logger.Errorf("Failed to issue access key batch: %v", err)
		return echo.ErrInternalServerError
	}

	secrets := make([]string, 0, len(keys))
	for _, key := range keys {
		secrets = append(secrets, key.Secret)
	}
	return c.JSON(http.StatusOK, GenerateKeyBatchResponse{
		Keys:    secrets,
		Count:   len(secrets),
		Message: "Keys issued successfully",
	})
}

// ListKeysHandler godoc
// @Summary      List access keys
// @Description  Returns all issued keys, newest first, for the admin panel.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} ListKeysResponse "Keys retrieved successfully"
// @Failure      401 {object} echo.HTTPError   "Unauthorized"
// @Failure      500 {object} echo.HTTPError   "Internal server error"
// @Router       /v1/admin/keys [get]
func ListKeysHandler(c echo.Context) error {
	logger := c.Logger()

	lifecycle := apikeys.NewLifecycle(db.Conn)
	keys, err := lifecycle.List(c.Request().Context())
	if err != nil {
		logger.Errorf("Failed to list access keys: %v", err)
		return echo.ErrInternalServerError
	}

	details := make([]KeyDetails, 0, len(keys))
	for _, key := range keys {
		detail := KeyDetails{
			KeyID:        key.KeyID,
			Key:          key.Secret,
			PlanTier:     string(key.PlanTier),
			OwnerEmail:   key.OwnerEmail,
			IsActive:     key.IsActive,
			DurationDays: key.DurationDays,
			ExpiresAt:    key.ExpiresAt.Format(time.RFC3339),
			CreatedAt:    key.CreatedAt.Format(time.RFC3339),
		}
		if key.RedeemedAt != nil {
			redeemed := key.RedeemedAt.Format(time.RFC3339)
			detail.RedeemedAt = &redeemed
		}
		if key.LastUsedAt != nil {
			lastUsed := key.LastUsedAt.Format(time.RFC3339)
			detail.LastUsedAt = &lastUsed
		}
		details = append(details, detail)
	}

	return c.JSON(http.StatusOK, ListKeysResponse{
		Keys:    details,
		Message: "Keys retrieved successfully",
	})
}

// GetKeyHandler godoc
// @Summary      Get an access key
// @Description  Returns a single key by its public ID.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        key_id  path  string  true  "Public key ID"
// @Success      200 {object} KeyDetails     "Key retrieved successfully"
// @Failure      401 {object} echo.HTTPError "Unauthorized"
// @Failure      404 {object} echo.HTTPError "Key not found"
// @Failure      500 {object} echo.HTTPError "Internal server error"
// @Router       /v1/admin/keys/{key_id} [get]
func GetKeyHandler(c echo.Context) error {
	logger := c.Logger()

	keyID := c.Param("key_id")
	if keyID == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Key ID is required",
		}
	}

	lifecycle := apikeys.NewLifecycle(db.Conn)
	key, err := lifecycle.Get(c.Request().Context(), keyID)
	if err != nil {
		if errors.Is(err, apikeys.ErrInvalidKey) {
			return &echo.HTTPError{Code: http.StatusNotFound, Message: "Key not found"}
		}
		logger.Errorf("Failed to get access key: %v", err)
		return echo.ErrInternalServerError
	}

	detail := KeyDetails{
		KeyID:        key.KeyID,
		Key:          key.Secret,
		PlanTier:     string(key.PlanTier),
		OwnerEmail:   key.OwnerEmail,
		IsActive:     key.IsActive,
		DurationDays: key.DurationDays,
		ExpiresAt:    key.ExpiresAt.Format(time.RFC3339),
		CreatedAt:    key.CreatedAt.Format(time.RFC3339),
	}
	if key.RedeemedAt != nil {
		redeemed := key.RedeemedAt.Format(time.RFC3339)
		detail.RedeemedAt = &redeemed
	}
	if key.LastUsedAt != nil {
		lastUsed := key.LastUsedAt.Format(time.RFC3339)
		detail.LastUsedAt = &lastUsed
	}
	return c.JSON(http.StatusOK, detail)
}

// RevokeKeyHandler godoc
// @Summary      Revoke an access key
// @Description  Permanently deactivates a key. Revocation cannot be undone.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        key_id  path  string  true  "Public key ID"
// @Success      200 {object} GenericResponse "Key revoked successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      404 {object} echo.HTTPError  "Key not found"
// @Failure      409 {object} echo.HTTPError  "Key already revoked"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/admin/keys/{key_id} [delete]
func RevokeKeyHandler(c echo.Context) error {
	logger := c.Logger()

	keyID := c.Param("key_id")
	if keyID == "" {
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Key ID is required",
		}
	}

	lifecycle := apikeys.NewLifecycle(db.Conn)
	err := lifecycle.Revoke(c.Request().Context(), keyID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, GenericResponse{Message: "Key revoked successfully"})
	case errors.Is(err, apikeys.ErrInvalidKey):
		return &echo.HTTPError{Code: http.StatusNotFound, Message: "Key not found"}
	case errors.Is(err, apikeys.ErrAlreadyRevoked):
		return &echo.HTTPError{Code: http.StatusConflict, Message: "Key is already revoked"}
	default:
		// A failed revocation write must surface as a failure.
		logger.Errorf("Failed to revoke access key: %v", err)
		return echo.ErrInternalServerError
	}
}
