package handler

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/service"
)

// VisitHandler exposes the visit lifecycle endpoints. Creation and
// decisions go through the lifecycle service; visitor and admin lookups
// use the repositories directly.
type VisitHandler struct {
	Service  *service.VisitService
	Visitors *repository.VisitorRepo
	Admins   *repository.AdminRepo
	Notify   *service.Dispatcher
}

func NewVisitHandler(svc *service.VisitService,
	visitors *repository.VisitorRepo, admins *repository.AdminRepo, d *service.Dispatcher) *VisitHandler {
	return &VisitHandler{Service: svc, Visitors: visitors, Admins: admins, Notify: d}
}

// ----- DTOs -----

type createVisitReq struct {
	VisitorID             string    `json:"visitor_id" validate:"required"`
	Purpose               string    `json:"purpose" validate:"required"`
	HostName              string    `json:"host_name" validate:"required"`
	HostDepartment        string    `json:"host_department"`
	VisitDate             string    `json:"visit_date" validate:"required"` // 2006-01-02
	ExpectedArrivalTime   time.Time `json:"expected_arrival_time" validate:"required"`
	ExpectedDepartureTime time.Time `json:"expected_departure_time" validate:"required"`
	Notes                 string    `json:"notes"`
}

type denyReq struct {
	Reason string `json:"reason" validate:"required"`
}

type bulkApproveReq struct {
	VisitIDs []string `json:"visit_ids" validate:"required,min=1,max=50"`
}

// Create registers a visit request on behalf of a visitor. The visitor's
// profile fields are denormalized onto the visit, and every active admin
// is notified that a request awaits review.
func (h *VisitHandler) Create(c echo.Context) error {
	var req createVisitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	visitDate, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "visit_date must be YYYY-MM-DD"})
	}
	if !req.ExpectedDepartureTime.After(req.ExpectedArrivalTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure must be after arrival"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	visitor, err := h.Visitors.GetByID(ctx, req.VisitorID)
	if err != nil {
		return fail(c, err)
	}

	v := &model.Visit{
		VisitorID:             visitor.ID,
		VisitorName:           visitor.FullName,
		VisitorEmail:          visitor.Email,
		VisitorPhone:          visitor.Phone,
		VisitorCompany:        visitor.Company,
		Purpose:               strings.TrimSpace(req.Purpose),
		HostName:              strings.TrimSpace(req.HostName),
		HostDepartment:        strings.TrimSpace(req.HostDepartment),
		VisitDate:             visitDate,
		ExpectedArrivalTime:   req.ExpectedArrivalTime.UTC(),
		ExpectedDepartureTime: req.ExpectedDepartureTime.UTC(),
		Notes:                 req.Notes,
	}
	if _, err := h.Service.Create(ctx, v, adminID(c)); err != nil {
		return fail(c, err)
	}

	h.notifyAdmins(c, v)
	return c.JSON(http.StatusCreated, v)
}

// notifyAdmins fans a new-request notification out to every active
// admin. Failures are logged; the request was already persisted.
func (h *VisitHandler) notifyAdmins(c echo.Context, v *model.Visit) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	admins, err := h.Admins.ListActive(ctx)
	if err != nil {
		log.Printf("visit create: list admins failed: %v", err)
		return
	}
	body := fmt.Sprintf("%s requested a visit to %s on %s.",
		v.VisitorName, v.HostName, v.VisitDate.Format("Jan 02, 2006"))
	for _, a := range admins {
		if _, err := h.Notify.Notify(ctx, a.ID, "New Visit Request", body,
			model.NotificationNewVisit, v.ID); err != nil {
			log.Printf("visit create: notify admin %s failed: %v", a.ID, err)
		}
	}
}

// List returns recent visits, newest first.
func (h *VisitHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	visits, err := h.Service.ListAll(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": visits, "count": len(visits)})
}

// ListPending returns undecided visits ordered by visit date.
func (h *VisitHandler) ListPending(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	visits, err := h.Service.ListPending(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": visits, "count": len(visits)})
}

// ListToday returns visits scheduled for the current UTC day.
func (h *VisitHandler) ListToday(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	visits, err := h.Service.ListToday(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": visits, "count": len(visits)})
}

// Get returns one visit by id.
func (h *VisitHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Service.GetByID(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Search matches visits by visitor name, email, company or host.
func (h *VisitHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	visits, err := h.Service.Search(ctx, term)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visits": visits, "count": len(visits)})
}

// Approve decides a pending visit in the caller's name and returns the
// updated record with its QR payload.
func (h *VisitHandler) Approve(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Service.Approve(ctx, c.Param("id"), adminID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Deny decides a pending visit with a mandatory reason.
func (h *VisitHandler) Deny(c echo.Context) error {
	var req denyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Service.Deny(ctx, c.Param("id"), adminID(c), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// BulkApprove approves up to 50 visits and reports a per-id outcome.
func (h *VisitHandler) BulkApprove(c echo.Context) error {
	var req bulkApproveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "visit_ids must contain 1-50 ids"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	results, err := h.Service.BulkApprove(ctx, req.VisitIDs, adminID(c))
	if err != nil {
		return fail(c, err)
	}
	approved := 0
	for _, r := range results {
		if r.Success {
			approved++
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results, "approved": approved})
}
