package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/repository"
)

// NotificationHandler lets the authenticated admin read their own
// notification log and register a device token.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
	Admins        *repository.AdminRepo
}

func NewNotificationHandler(n *repository.NotificationRepo, a *repository.AdminRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: n, Admins: a}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Notifications.ListByUser(ctx, adminID(c), 50)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": items, "count": len(items)})
}

// MarkRead marks one of the caller's notifications as read. The user
// scoping in the query keeps admins from flipping each other's rows.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, c.Param("id"), adminID(c)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdatePushToken stores or clears the caller's own device token.
func (h *NotificationHandler) UpdatePushToken(c echo.Context) error {
	var req pushTokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Admins.UpdatePushToken(ctx, adminID(c), strings.TrimSpace(req.Token)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
