package dashboard

import (
	"testing"
	"time"

	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/enrollment"
	"github.com/healthreach/platform/internal/program"
	"github.com/healthreach/platform/internal/shared/types"
)

func TestCountByStatus(t *testing.T) {
	clients := []client.Client{
		{Status: client.StatusActive},
		{Status: client.StatusActive},
		{Status: client.StatusHighRisk},
		{Status: client.Status("Archived")},
		{Status: client.Status("")},
	}

	counts := CountByStatus(clients)

	expected := map[string]int{
		"Active":    2,
		"Inactive":  0,
		"High Risk": 1,
		"Other":     2,
	}

	if len(counts) != len(expected) {
		t.Fatalf("Expected %d buckets, got %d", len(expected), len(counts))
	}

	for _, sc := range counts {
		want, ok := expected[sc.Status]
		if !ok {
			t.Errorf("Unexpected bucket %q", sc.Status)
			continue
		}
		if sc.Count != want {
			t.Errorf("Bucket %s: expected %d, got %d", sc.Status, want, sc.Count)
		}
	}
}

func TestCountByStatusKeepsZeroBuckets(t *testing.T) {
	counts := CountByStatus(nil)
	if len(counts) != 4 {
		t.Fatalf("Expected 4 buckets for empty input, got %d", len(counts))
	}
	for _, sc := range counts {
		if sc.Count != 0 {
			t.Errorf("Bucket %s: expected 0, got %d", sc.Status, sc.Count)
		}
	}
}

func TestEnrollmentsByProgramIncludesZeroCounts(t *testing.T) {
	busy := program.Program{ID: types.NewID(), Name: "Malaria Control"}
	empty := program.Program{ID: types.NewID(), Name: "TB Screening"}

	enrollments := []enrollment.Enrollment{
		{ProgramID: busy.ID},
		{ProgramID: busy.ID},
		{ProgramID: types.NewID()}, // deleted program, must not appear
	}

	counts := EnrollmentsByProgram(enrollments, []program.Program{busy, empty})

	if len(counts) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(counts))
	}
	if counts[0].ProgramName != "Malaria Control" || counts[0].Count != 2 {
		t.Errorf("Expected Malaria Control with 2, got %s with %d", counts[0].ProgramName, counts[0].Count)
	}
	if counts[1].ProgramName != "TB Screening" || counts[1].Count != 0 {
		t.Errorf("Expected TB Screening with 0, got %s with %d", counts[1].ProgramName, counts[1].Count)
	}
}

func TestMonthlyEnrollmentTrend(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	enrollments := []enrollment.Enrollment{
		{EnrollmentDate: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
		{EnrollmentDate: time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)},
		{EnrollmentDate: time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)},
		{EnrollmentDate: time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)},
		{EnrollmentDate: time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)}, // outside window
	}

	trend := MonthlyEnrollmentTrend(enrollments, 6, now)

	expected := []MonthCount{
		{Month: "Oct", Count: 0},
		{Month: "Nov", Count: 0},
		{Month: "Dec", Count: 1},
		{Month: "Jan", Count: 1},
		{Month: "Feb", Count: 0},
		{Month: "Mar", Count: 2},
	}

	if len(trend) != len(expected) {
		t.Fatalf("Expected %d months, got %d", len(expected), len(trend))
	}

	for i, want := range expected {
		if trend[i] != want {
			t.Errorf("Month %d: expected %+v, got %+v", i, want, trend[i])
		}
	}
}

func TestMonthlyEnrollmentTrendExcludesSameMonthLastYear(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	// March 2025 must not inflate the March 2026 bucket
	enrollments := []enrollment.Enrollment{
		{EnrollmentDate: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)},
	}

	trend := MonthlyEnrollmentTrend(enrollments, 6, now)
	for _, mc := range trend {
		if mc.Count != 0 {
			t.Errorf("Month %s: expected 0, got %d", mc.Month, mc.Count)
		}
	}
}

func TestRecentActivityFeed(t *testing.T) {
	c := client.Client{ID: types.NewID(), Name: client.Name{First: "Jane", Last: "Doe"}}
	p := program.Program{ID: types.NewID(), Name: "Malaria Control"}

	enrollments := []enrollment.Enrollment{
		{ID: types.NewID(), ClientID: c.ID, ProgramID: p.ID, EnrollmentDate: time.Now()},
		{ID: types.NewID(), ClientID: types.NewID(), ProgramID: p.ID, EnrollmentDate: time.Now()},
		{ID: types.NewID(), ClientID: c.ID, ProgramID: types.NewID(), EnrollmentDate: time.Now()},
		{ID: types.NewID(), ClientID: c.ID, ProgramID: p.ID, EnrollmentDate: time.Now()},
		{ID: types.NewID(), ClientID: c.ID, ProgramID: p.ID, EnrollmentDate: time.Now()},
	}

	feed := RecentActivityFeed(enrollments, []client.Client{c}, []program.Program{p}, 4)

	if len(feed) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(feed))
	}

	// Upstream order is preserved
	for i, entry := range feed {
		if entry.EnrollmentID != enrollments[i].ID {
			t.Errorf("Entry %d out of order", i)
		}
	}

	if feed[0].Message != "Jane Doe was enrolled in Malaria Control" {
		t.Errorf("Unexpected message: %q", feed[0].Message)
	}

	// Dangling references degrade to generic wording
	if feed[1].Message != "A client was enrolled in Malaria Control" {
		t.Errorf("Unexpected message for unknown client: %q", feed[1].Message)
	}
	if feed[2].Message != "Jane Doe was enrolled in a program" {
		t.Errorf("Unexpected message for unknown program: %q", feed[2].Message)
	}
}

func TestRecentActivityFeedShortInput(t *testing.T) {
	feed := RecentActivityFeed([]enrollment.Enrollment{{ID: types.NewID()}}, nil, nil, 4)
	if len(feed) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(feed))
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	clients := []client.Client{
		{Status: client.StatusActive},
		{Status: client.StatusHighRisk},
		{Status: client.StatusHighRisk},
	}
	programs := []program.Program{
		{Status: program.StatusActive},
		{Status: program.StatusDraft},
		{Status: program.StatusActive},
	}
	enrollments := []enrollment.Enrollment{
		{EnrollmentDate: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)},
		{EnrollmentDate: time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{EnrollmentDate: time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)},
	}

	s := Summarize(clients, programs, enrollments, now)

	if s.TotalClients != 3 {
		t.Errorf("TotalClients: expected 3, got %d", s.TotalClients)
	}
	if s.ActivePrograms != 2 {
		t.Errorf("ActivePrograms: expected 2, got %d", s.ActivePrograms)
	}
	if s.EnrollmentsThisMonth != 1 {
		t.Errorf("EnrollmentsThisMonth: expected 1, got %d", s.EnrollmentsThisMonth)
	}
	if s.PendingFollowUps != 2 {
		t.Errorf("PendingFollowUps: expected 2, got %d", s.PendingFollowUps)
	}
}
