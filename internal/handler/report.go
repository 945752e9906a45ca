package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/visitor-management/internal/service"
)

// ReportHandler serves the CSV export and range statistics.
type ReportHandler struct {
	Reports *service.ReportService
}

func NewReportHandler(r *service.ReportService) *ReportHandler {
	return &ReportHandler{Reports: r}
}

// ExportCSV streams visits in the requested date range as a CSV
// download.
func (h *ReportHandler) ExportCSV(c echo.Context) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start/end must be YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	filename := fmt.Sprintf("visits_%s_%s.csv", start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().WriteHeader(http.StatusOK)

	if _, err := h.Reports.WriteVisitsCSV(ctx, c.Response(), start, end); err != nil {
		// Headers are already out; all we can do is log through Echo.
		c.Logger().Errorf("csv export: %v", err)
		return err
	}
	return nil
}

// Stats returns aggregate counts for the requested date range.
func (h *ReportHandler) Stats(c echo.Context) error {
	start, end, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start/end must be YYYY-MM-DD"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	stats, err := h.Reports.Stats(ctx, start, end, c.QueryParam("visitor_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
