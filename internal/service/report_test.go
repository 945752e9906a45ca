package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/visitor-management/internal/model"
)

type fakeCheckInCounter struct{ inRange, open, byVisitor int }

func (f fakeCheckInCounter) CountInRange(context.Context, time.Time, time.Time) (int, error) {
	return f.inRange, nil
}
func (f fakeCheckInCounter) CountOpenInRange(context.Context, time.Time, time.Time) (int, error) {
	return f.open, nil
}
func (f fakeCheckInCounter) CountByVisitorInRange(context.Context, string, time.Time, time.Time) (int, error) {
	return f.byVisitor, nil
}

func TestWriteVisitsCSVRoundTrip(t *testing.T) {
	approvedBy := "admin-1"
	approvedAt := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	visit := &model.Visit{
		ID:             "v1",
		VisitorID:      "visitor-1",
		VisitorName:    "Ada Lovelace",
		VisitorEmail:   "ada@example.com",
		VisitorCompany: "Analytical Engines Ltd",
		VisitorPhone:   "+44 20 1234",
		HostName:       "Grace Hopper",
		HostDepartment: "Engineering",
		Purpose:        "Design review",
		VisitDate:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:         model.VisitStatusApproved,
		ApprovedBy:     &approvedBy,
		ApprovedAt:     &approvedAt,
	}
	svc := NewReportService(newFakeVisitStore(visit), fakeCheckInCounter{})

	var buf bytes.Buffer
	n, err := svc.WriteVisitsCSV(context.Background(), &buf,
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, []string{
		"Visit Date", "Visitor Name", "Email", "Company", "Phone",
		"Host Name", "Department", "Purpose", "Status", "Approved By", "Approval Date",
	}, rows[0])
	assert.Equal(t, []string{
		"2024-06-01", "Ada Lovelace", "ada@example.com", "Analytical Engines Ltd", "+44 20 1234",
		"Grace Hopper", "Engineering", "Design review", "approved", "admin-1", "2024-06-01 09:30",
	}, rows[1])
}

func TestWriteVisitsCSVEmptyRange(t *testing.T) {
	svc := NewReportService(newFakeVisitStore(), fakeCheckInCounter{})

	var buf bytes.Buffer
	n, err := svc.WriteVisitsCSV(context.Background(), &buf, time.Now(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestRangeStats(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := pendingVisit("v1")
	a.VisitDate = day
	a.Status = model.VisitStatusApproved
	a.VisitorCompany = "Acme"
	b := pendingVisit("v2")
	b.VisitDate = day
	b.Status = model.VisitStatusDenied
	b.VisitorCompany = "Acme"
	b.HostName = "Katherine Johnson"
	c := pendingVisit("v3")
	c.VisitDate = day

	b.VisitorID = "visitor-2"

	svc := NewReportService(newFakeVisitStore(a, b, c), fakeCheckInCounter{inRange: 7, open: 2, byVisitor: 3})

	stats, err := svc.Stats(context.Background(), day, day.AddDate(0, 0, 1), "")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalVisits)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Denied)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 7, stats.CheckIns)
	assert.Equal(t, 2, stats.CurrentlyInside)
	assert.Equal(t, 1, stats.DistinctCompanies, "both visits share one company")
	assert.Equal(t, 2, stats.DistinctHosts)
}

func TestRangeStatsVisitorFilter(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := pendingVisit("v1")
	a.VisitDate = day
	a.Status = model.VisitStatusApproved
	b := pendingVisit("v2")
	b.VisitDate = day
	b.VisitorID = "visitor-2"

	svc := NewReportService(newFakeVisitStore(a, b), fakeCheckInCounter{inRange: 7, byVisitor: 3})

	stats, err := svc.Stats(context.Background(), day, day.AddDate(0, 0, 1), "visitor-1")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalVisits)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 3, stats.CheckIns, "per visitor count used when filtered")
}
