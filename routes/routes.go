// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"csint-server/commons"
	"csint-server/db"
	"csint-server/handlers"
	"csint-server/middlewares"
	"csint-server/osint"
	"csint-server/ratelimit"
	"csint-server/sessions"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	commons.Logger.Debug("Registering v1 routes")

	sessionLifecycle := sessions.NewLifecycle(db.Conn)
	limiter := ratelimit.NewFromEnv()
	client := osint.NewClient()

	userAuth := middlewares.VerifyUserSessionMiddleware(sessionLifecycle)
	adminAuth := middlewares.VerifyAdminSessionMiddleware(sessionLifecycle)
	throttle := middlewares.RateLimitMiddleware(limiter)

	api_v1 := e.Group("/v1")
	api_v1.POST("/admin/login", handlers.AdminLoginHandler, throttle)
	api_v1.POST("/admin/logout", handlers.AdminLogoutHandler, adminAuth)
	api_v1.POST("/admin/keys", handlers.GenerateKeyHandler, adminAuth)
	api_v1.POST("/admin/keys/batch", handlers.GenerateKeyBatchHandler, adminAuth)
	api_v1.GET("/admin/keys", handlers.ListKeysHandler, adminAuth)
	api_v1.GET("/admin/keys/:key_id", handlers.GetKeyHandler, adminAuth)
	api_v1.DELETE("/admin/keys/:key_id", handlers.RevokeKeyHandler, adminAuth)
	api_v1.POST("/auth/login", handlers.LoginHandler, throttle)
	api_v1.GET("/auth/check", handlers.CheckHandler, userAuth)
	api_v1.POST("/auth/refresh", handlers.RefreshSessionHandler, userAuth)
	api_v1.POST("/auth/logout", handlers.LogoutHandler, userAuth)
	api_v1.POST("/search", handlers.SearchHandler(client), throttle, userAuth)
	api_v1.GET("/plans/daily-stats", handlers.DailyStatsHandler, userAuth)
	api_v1.GET("/usage/stats", handlers.UsageStatsHandler, userAuth)

	commons.Logger.Info("v1 routes registered successfully")
}
