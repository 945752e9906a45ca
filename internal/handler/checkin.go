package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/service"
)

// CheckInHandler exposes the gate endpoints: QR validation, QR
// pre-verification, and check-out.
type CheckInHandler struct {
	QR       *service.QRService
	CheckIns *repository.CheckInRepo
}

func NewCheckInHandler(qr *service.QRService, checkIns *repository.CheckInRepo) *CheckInHandler {
	return &CheckInHandler{QR: qr, CheckIns: checkIns}
}

type validateReq struct {
	QRCode   string `json:"qr_code" validate:"required"`
	Location string `json:"location"`
}

type checkOutReq struct {
	VisitID  string `json:"visit_id" validate:"required"`
	Location string `json:"location"`
}

// Validate authenticates a scanned QR payload and records the check-in.
func (h *CheckInHandler) Validate(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_code required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	checkIn, err := h.QR.Validate(ctx, req.QRCode, req.Location, adminID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, checkIn)
}

// Verify checks a QR payload without recording anything, so reception
// can pre-screen a code before the visitor reaches the gate.
func (h *CheckInHandler) Verify(c echo.Context) error {
	var req validateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_code required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	visit, inside, err := h.QR.Verify(ctx, req.QRCode)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visit": visit, "checked_in": inside})
}

// CheckOut closes the open check-in for a visit.
func (h *CheckInHandler) CheckOut(c echo.Context) error {
	var req checkOutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "visit_id required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	checkIn, err := h.QR.CheckOut(ctx, req.VisitID, req.Location)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, checkIn)
}

// ListToday returns check-ins recorded during the current UTC day.
func (h *CheckInHandler) ListToday(c echo.Context) error {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ctx, cancel := reqCtx(c)
	defer cancel()

	checkIns, err := h.CheckIns.ListInRange(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"check_ins": checkIns, "count": len(checkIns)})
}

// ListRecent returns the latest check-ins, capped by the limit query
// param (default 20, max 100).
func (h *CheckInHandler) ListRecent(c echo.Context) error {
	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be 1-100"})
		}
		limit = n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	checkIns, err := h.CheckIns.ListRecent(ctx, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"check_ins": checkIns, "count": len(checkIns)})
}
