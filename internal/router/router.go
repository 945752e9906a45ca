// Package router wires handlers to routes. Unauthenticated surface is
// the health check, login/refresh/logout, and the visitor-facing device
// token registration; everything else sits behind JWT + role checks.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/handler"
	"github.com/iliyamo/visitor-management/internal/middleware"
	"github.com/iliyamo/visitor-management/internal/model"
)

// Handlers collects every handler the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Visits        *handler.VisitHandler
	CheckIns      *handler.CheckInHandler
	Visitors      *handler.VisitorHandler
	Notifications *handler.NotificationHandler
	Dashboard     *handler.DashboardHandler
	Reports       *handler.ReportHandler
}

// Register mounts all routes. cache may be a no-op middleware when Redis
// is unavailable.
func Register(e *echo.Echo, h Handlers, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	// Session endpoints; no JWT required.
	auth := e.Group("/v1/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// Visitors register or clear their own device token from the mobile
	// app, authenticated by possession of the visitor id from enrollment.
	e.PUT("/v1/visitors/:id/push-token", h.Visitors.UpdatePushToken)

	// Everything below requires an admin access token.
	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin))

	v1.GET("/me", h.Auth.Me)
	v1.POST("/admins", h.Auth.CreateAdmin, middleware.RequireRole(model.RoleSuperAdmin))

	v1.POST("/visits", h.Visits.Create)
	v1.GET("/visits", h.Visits.List)
	v1.GET("/visits/pending", h.Visits.ListPending)
	v1.GET("/visits/today", h.Visits.ListToday)
	v1.GET("/visits/search", h.Visits.Search)
	v1.GET("/visits/:id", h.Visits.Get)
	v1.POST("/visits/:id/approve", h.Visits.Approve)
	v1.POST("/visits/:id/deny", h.Visits.Deny)
	v1.POST("/visits/bulk-approve", h.Visits.BulkApprove)

	v1.POST("/checkins/validate", h.CheckIns.Validate)
	v1.POST("/checkins/verify", h.CheckIns.Verify)
	v1.POST("/checkins/checkout", h.CheckIns.CheckOut)
	v1.GET("/checkins/today", h.CheckIns.ListToday)
	v1.GET("/checkins/recent", h.CheckIns.ListRecent)

	v1.POST("/visitors", h.Visitors.Create)
	v1.GET("/visitors", h.Visitors.List)
	v1.GET("/visitors/search", h.Visitors.Search)
	v1.GET("/visitors/:id", h.Visitors.Get)

	v1.GET("/notifications", h.Notifications.List)
	v1.POST("/notifications/:id/read", h.Notifications.MarkRead)
	v1.PUT("/me/push-token", h.Notifications.UpdatePushToken)

	v1.GET("/dashboard", h.Dashboard.Get, cache)

	v1.GET("/reports/visits.csv", h.Reports.ExportCSV)
	v1.GET("/reports/stats", h.Reports.Stats)
}
