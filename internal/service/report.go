package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/iliyamo/visitor-management/internal/model"
)

// CheckInCounter is the read-only slice of the check-in repository the
// report service needs.
type CheckInCounter interface {
	CountInRange(ctx context.Context, start, end time.Time) (int, error)
	CountOpenInRange(ctx context.Context, start, end time.Time) (int, error)
	CountByVisitorInRange(ctx context.Context, visitorID string, start, end time.Time) (int, error)
}

// RangeStats summarizes visit activity between two dates.
type RangeStats struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	TotalVisits       int       `json:"total_visits"`
	Approved          int       `json:"approved"`
	Denied            int       `json:"denied"`
	Pending           int       `json:"pending"`
	CheckIns          int       `json:"check_ins"`
	CurrentlyInside   int       `json:"currently_inside"`
	DistinctCompanies int       `json:"distinct_companies"`
	DistinctHosts     int       `json:"distinct_hosts"`
}

// ReportService produces CSV exports and aggregate statistics for a
// date range.
type ReportService struct {
	visits   VisitStore
	checkIns CheckInCounter
}

func NewReportService(visits VisitStore, checkIns CheckInCounter) *ReportService {
	if visits == nil || checkIns == nil {
		panic("nil dependency passed to NewReportService")
	}
	return &ReportService{visits: visits, checkIns: checkIns}
}

// csvHeader is the fixed column order of the visit export. Downstream
// spreadsheets depend on it; do not reorder.
var csvHeader = []string{
	"Visit Date", "Visitor Name", "Email", "Company", "Phone",
	"Host Name", "Department", "Purpose", "Status", "Approved By", "Approval Date",
}

// WriteVisitsCSV streams every visit in [start, end] to w as CSV, one
// row per visit plus the header row. It returns the number of data rows
// written.
func (s *ReportService) WriteVisitsCSV(ctx context.Context, w io.Writer, start, end time.Time) (int, error) {
	visits, err := s.visits.ListInDateRange(ctx, start, end)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for i, v := range visits {
		approvedBy := ""
		if v.ApprovedBy != nil {
			approvedBy = *v.ApprovedBy
		}
		approvedAt := ""
		if v.ApprovedAt != nil {
			approvedAt = v.ApprovedAt.Format("2006-01-02 15:04")
		}
		row := []string{
			v.VisitDate.Format("2006-01-02"),
			v.VisitorName,
			v.VisitorEmail,
			v.VisitorCompany,
			v.VisitorPhone,
			v.HostName,
			v.HostDepartment,
			v.Purpose,
			v.Status,
			approvedBy,
			approvedAt,
		}
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(visits), err
	}
	return len(visits), nil
}

// Stats computes aggregate counts for [start, end]. A non-empty
// visitorID narrows the visit and check-in counts to that visitor;
// CurrentlyInside always reflects the whole site.
func (s *ReportService) Stats(ctx context.Context, start, end time.Time, visitorID string) (*RangeStats, error) {
	visits, err := s.visits.ListInDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	st := &RangeStats{Start: start, End: end}
	companies := make(map[string]struct{})
	hosts := make(map[string]struct{})
	for _, v := range visits {
		if visitorID != "" && v.VisitorID != visitorID {
			continue
		}
		st.TotalVisits++
		switch v.Status {
		case model.VisitStatusApproved:
			st.Approved++
		case model.VisitStatusDenied:
			st.Denied++
		case model.VisitStatusPending:
			st.Pending++
		}
		if v.VisitorCompany != "" {
			companies[v.VisitorCompany] = struct{}{}
		}
		if v.HostName != "" {
			hosts[v.HostName] = struct{}{}
		}
	}
	st.DistinctCompanies = len(companies)
	st.DistinctHosts = len(hosts)

	if visitorID != "" {
		st.CheckIns, err = s.checkIns.CountByVisitorInRange(ctx, visitorID, start, end)
	} else {
		st.CheckIns, err = s.checkIns.CountInRange(ctx, start, end)
	}
	if err != nil {
		return nil, err
	}
	if st.CurrentlyInside, err = s.checkIns.CountOpenInRange(ctx, start, end); err != nil {
		return nil, err
	}
	return st, nil
}
