// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"csint-server/apikeys"
	"csint-server/db"
	"csint-server/middlewares"
	"csint-server/models"
	"csint-server/usage"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DailyStatsHandler godoc
// @Summary      Today's quota standing
// @Description  Returns the caller's usage counters and limits for the current UTC day.
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} DailyStatsResponse "Daily stats"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      403 {object} echo.HTTPError     "Key revoked, expired, or rebound"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/plans/daily-stats [get]
func DailyStatsHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := middlewares.GetUserSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	keys := apikeys.NewLifecycle(db.Conn)
	key, err := keys.ValidateBinding(c.Request().Context(), session.AccessKeyID, session.Email)
	if err != nil {
		switch {
		case errors.Is(err, apikeys.ErrInvalidKey),
			errors.Is(err, apikeys.ErrIdentityMismatch),
			errors.Is(err, apikeys.ErrKeyExpired):
			return &echo.HTTPError{Code: http.StatusForbidden, Message: "Key is no longer valid"}
		default:
			logger.Errorf("Failed to validate key binding: %v", err)
			return echo.ErrInternalServerError
		}
	}

	ledger := usage.NewLedger(db.Conn)
	record, err := ledger.GetOrCreateToday(c.Request().Context(), session.Email, key.PlanTier)
	if err != nil {
		logger.Errorf("Failed to load usage record: %v", err)
		return echo.ErrInternalServerError
	}

	limits := key.PlanTier.Limits()
	return c.JSON(http.StatusOK, DailyStatsResponse{
		PlanTier:     string(key.PlanTier),
		SearchCount:  record.SearchCount,
		APICallCount: record.APICallCount,
		SearchLimit:  limits.SearchesPerDay,
		APICallLimit: limits.APICallsPerDay,
		Date:         record.Day,
	})
}

// UsageStatsHandler godoc
// @Summary      Search history
// @Description  Returns the caller's lifetime search count and their 20 most recent searches.
// @Tags         usage
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UsageStatsResponse "Usage stats"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/usage/stats [get]
func UsageStatsHandler(c echo.Context) error {
	logger := c.Logger()

	session, ok := middlewares.GetUserSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}

	ctx := c.Request().Context()
	var total int64
	if err := db.Conn.WithContext(ctx).Model(&models.SearchLog{}).
		Where("email = ?", session.Email).Count(&total).Error; err != nil {
		logger.Errorf("Failed to count search logs: %v", err)
		return echo.ErrInternalServerError
	}

	var logs []models.SearchLog
	if err := db.Conn.WithContext(ctx).
		Where("email = ?", session.Email).
		Order("created_at DESC").Limit(20).
		Find(&logs).Error; err != nil {
		logger.Errorf("Failed to load search logs: %v", err)
		return echo.ErrInternalServerError
	}

	recent := make([]SearchLogDetails, 0, len(logs))
	for _, entry := range logs {
		recent = append(recent, SearchLogDetails{
			SearchType: entry.SearchType,
			Query:      entry.Query,
			CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, UsageStatsResponse{
		TotalSearches: total,
		Recent:        recent,
		Message:       "Usage stats retrieved successfully",
	})
}
