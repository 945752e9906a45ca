package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/model"
	"github.com/iliyamo/visitor-management/internal/repository"
)

// VisitorHandler exposes visitor profile endpoints.
type VisitorHandler struct {
	Visitors *repository.VisitorRepo
	CheckIns *repository.CheckInRepo
}

func NewVisitorHandler(visitors *repository.VisitorRepo, checkIns *repository.CheckInRepo) *VisitorHandler {
	return &VisitorHandler{Visitors: visitors, CheckIns: checkIns}
}

type createVisitorReq struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	PhotoURL string `json:"photo_url"`
}

type pushTokenReq struct {
	Token string `json:"token"`
}

// Create registers a visitor profile.
func (h *VisitorHandler) Create(c echo.Context) error {
	var req createVisitorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	v := &model.Visitor{
		Email:    req.Email,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    req.Phone,
		Company:  req.Company,
	}
	if req.PhotoURL != "" {
		u := req.PhotoURL
		v.PhotoURL = &u
	}
	if err := h.Visitors.Create(ctx, v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// List returns visitor profiles, newest first.
func (h *VisitorHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	visitors, err := h.Visitors.List(ctx, 100)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visitors": visitors, "count": len(visitors)})
}

// Get returns one visitor together with their check-in history.
func (h *VisitorHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	v, err := h.Visitors.GetByID(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	checkIns, err := h.CheckIns.ListByVisitor(ctx, v.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visitor": v, "check_ins": checkIns})
}

// Search matches visitors by name, email or company.
func (h *VisitorHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	visitors, err := h.Visitors.Search(ctx, term, 50)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"visitors": visitors, "count": len(visitors)})
}

// UpdatePushToken stores or clears a visitor's device token. An empty
// token unregisters the device.
func (h *VisitorHandler) UpdatePushToken(c echo.Context) error {
	var req pushTokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Visitors.UpdatePushToken(ctx, c.Param("id"), strings.TrimSpace(req.Token)); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
