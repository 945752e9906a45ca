package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/repository"
	"github.com/iliyamo/visitor-management/internal/service"
)

// DashboardHandler aggregates the numbers the admin landing screen
// shows. The route is wrapped in the Redis response cache, so the
// queries run at most once per cache window.
type DashboardHandler struct {
	Visits   *service.VisitService
	CheckIns *repository.CheckInRepo
}

func NewDashboardHandler(visits *service.VisitService, checkIns *repository.CheckInRepo) *DashboardHandler {
	return &DashboardHandler{Visits: visits, CheckIns: checkIns}
}

// Get returns today's headline numbers plus the latest check-ins.
func (h *DashboardHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Visits.Stats(ctx)
	if err != nil {
		return fail(c, err)
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	inside, err := h.CheckIns.CountOpenInRange(ctx, dayStart, dayEnd)
	if err != nil {
		return fail(c, err)
	}
	todayCheckIns, err := h.CheckIns.CountInRange(ctx, dayStart, dayEnd)
	if err != nil {
		return fail(c, err)
	}
	recent, err := h.CheckIns.ListRecent(ctx, 10)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"today_total":      stats.TodayTotal,
		"pending_count":    stats.PendingCount,
		"approved_today":   stats.ApprovedToday,
		"checked_in_count": inside,
		"today_check_ins":  todayCheckIns,
		"recent_check_ins": recent,
	})
}
