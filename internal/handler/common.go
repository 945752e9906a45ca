package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/service"
)

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// reqCtx derives a bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// adminID returns the authenticated admin's id injected by the JWT
// middleware, or "" when the route is unprotected.
func adminID(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok {
		return v
	}
	return ""
}

// fail maps domain errors onto HTTP statuses. Anything unrecognized is
// reported as a 500 without leaking the underlying error text.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already decided"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrSignatureMismatch):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid qr code"})
	case errors.Is(err, service.ErrVisitNotApproved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "visit is not approved"})
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		return c.JSON(http.StatusConflict, echo.Map{"error": "visitor is already checked in"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// parseDateRange reads start/end query params in 2006-01-02 form. end is
// returned exclusive (start of the following day) so callers can use
// half-open range queries. Defaults cover the last 30 days.
func parseDateRange(c echo.Context) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30)
	end := now.AddDate(0, 0, 1).Truncate(24 * time.Hour)

	if s := c.QueryParam("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	}
	if s := c.QueryParam("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t.AddDate(0, 0, 1)
	}
	return start, end, nil
}
