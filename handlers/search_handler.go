// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"csint-server/apikeys"
	"csint-server/db"
	"csint-server/middlewares"
	"csint-server/models"
	"csint-server/osint"
	"csint-server/usage"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// SearchHandler godoc
// @Summary      Run an OSINT search
// @Description  Validates the query, charges one search against the caller's daily quota, and proxies the lookup to the provider.
// @Tags         search
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        searchRequest  body  SearchRequest  true  "Search payload"
// @Success      200 {object} SearchResponse "Search results"
// @Failure      400 {object} echo.HTTPError "Unsupported type or malformed query"
// @Failure      401 {object} echo.HTTPError "Unauthorized"
// @Failure      403 {object} echo.HTTPError "Key revoked, expired, or rebound"
// @Failure      429 {object} echo.HTTPError "Daily quota exhausted"
// @Failure      502 {object} echo.HTTPError "Provider failure"
// @Router       /v1/search [post]
func SearchHandler(client *osint.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := c.Logger()

		session, ok := middlewares.GetUserSession(c)
		if !ok {
			return echo.ErrUnauthorized
		}

		var req SearchRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Invalid search payload:", err)
			return echo.ErrBadRequest
		}

		query, err := osint.ValidateQuery(req.Type, req.Query)
		if err != nil {
			return &echo.HTTPError{
				Code:    http.StatusBadRequest,
				Message: err.Error(),
			}
		}

		enforcer := usage.NewEnforcer(apikeys.NewLifecycle(db.Conn), usage.NewLedger(db.Conn))
		key, _, err := enforcer.Admit(c.Request().Context(), &session)
		if err != nil {
			var quotaErr *usage.QuotaExceededError
			switch {
			case errors.As(err, &quotaErr):
				return &echo.HTTPError{
					Code:    http.StatusTooManyRequests,
					Message: fmt.Sprintf("Daily %s limit of %d reached", quotaErr.Kind, quotaErr.Limit),
				}
			case errors.Is(err, apikeys.ErrInvalidKey):
				return &echo.HTTPError{Code: http.StatusForbidden, Message: "Key is no longer valid"}
			case errors.Is(err, apikeys.ErrIdentityMismatch):
				return &echo.HTTPError{Code: http.StatusForbidden, Message: "Key is registered to a different email"}
			case errors.Is(err, apikeys.ErrKeyExpired):
				return &echo.HTTPError{Code: http.StatusForbidden, Message: "Key has expired"}
			default:
				logger.Errorf("Failed to admit search: %v", err)
				return echo.ErrInternalServerError
			}
		}

		data, err := client.Search(c.Request().Context(), req.Type, query)
		if err != nil {
			var upstreamErr *osint.UpstreamError
			if errors.As(err, &upstreamErr) {
				logger.Errorf("Provider returned %s for %s search", upstreamErr.Status, req.Type)
				return &echo.HTTPError{Code: http.StatusBadGateway, Message: "Search provider is unavailable"}
			}
			logger.Errorf("Provider call failed: %v", err)
			return &echo.HTTPError{Code: http.StatusBadGateway, Message: "Search provider is unavailable"}
		}

		// The quota charge already went through, so a failed audit write
		// must not fail the search.
		entry := models.SearchLog{
			Email:      session.Email,
			SearchType: req.Type,
			Query:      query,
		}
		if err := db.Conn.WithContext(c.Request().Context()).Create(&entry).Error; err != nil {
			logger.Errorf("Failed to record search log: %v", err)
		}

		logger.Debugf("Search completed: %s %s (%s)", req.Type, session.Email, key.PlanTier)
		return c.JSON(http.StatusOK, SearchResponse{
			Credits:   "CSINT Network",
			ScanType:  req.Type,
			Query:     query,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			CSINT:     data,
		})
	}
}
