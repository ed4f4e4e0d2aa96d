package internal

import (
	"context"
	"testing"
	"time"

	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/dashboard"
	"github.com/healthreach/platform/internal/enrollment"
	"github.com/healthreach/platform/internal/program"
)

// memoryStore accumulates enrollment batches in memory
type memoryStore struct {
	enrollments []enrollment.Enrollment
}

func (s *memoryStore) CreateBatch(ctx context.Context, batch []enrollment.Enrollment) error {
	s.enrollments = append(s.enrollments, batch...)
	return nil
}

// TestFullEnrollmentWorkflow tests the complete path from registering
// clients through program enrollment to the dashboard aggregates.
func TestFullEnrollmentWorkflow(t *testing.T) {
	// 1. Register clients
	clientReqs := []client.CreateClientRequest{
		{
			Name:        client.Name{First: "Jane", Last: "Doe"},
			DateOfBirth: "1988-04-12",
			Contact:     client.Contact{Phone: "+232-76-000001"},
		},
		{
			Name:        client.Name{First: "Samuel", Last: "Koroma"},
			DateOfBirth: "1975-11-02",
			Contact:     client.Contact{Phone: "+232-76-000002"},
		},
	}

	var clients []client.Client
	for _, req := range clientReqs {
		c, err := client.NewClient(req)
		if err != nil {
			t.Fatalf("Failed to register client: %v", err)
		}
		clients = append(clients, *c)
	}

	if clients[0].Status != client.StatusActive {
		t.Errorf("New client should default to Active, got %s", clients[0].Status)
	}

	// Flag one client for follow-up
	clients[1].Status = client.StatusHighRisk

	// 2. Create programs
	programReqs := []program.CreateProgramRequest{
		{Name: "Malaria Control", Category: program.CategoryInfectiousDiseases, Status: program.StatusActive},
		{Name: "Maternal Care", Category: program.CategoryMaternalHealth},
	}

	var programs []program.Program
	for _, req := range programReqs {
		p, err := program.NewProgram(req)
		if err != nil {
			t.Fatalf("Failed to create program: %v", err)
		}
		programs = append(programs, *p)
	}

	// 3. Enroll both clients into both programs
	wf := enrollment.NewWorkflow()
	if err := wf.Start(); err != nil {
		t.Fatalf("Failed to start workflow: %v", err)
	}

	for _, c := range enrollment.FilterClients(clients, "") {
		if err := wf.ToggleClient(c.ID); err != nil {
			t.Fatalf("Failed to select client: %v", err)
		}
	}
	if err := wf.ConfirmClients(); err != nil {
		t.Fatalf("Failed to confirm clients: %v", err)
	}

	for _, p := range enrollment.FilterPrograms(programs, "") {
		if err := wf.ToggleProgram(p.ID); err != nil {
			t.Fatalf("Failed to select program: %v", err)
		}
	}

	store := &memoryStore{}
	created, err := wf.Submit(context.Background(), store)
	if err != nil {
		t.Fatalf("Failed to submit enrollments: %v", err)
	}

	if len(created) != 4 {
		t.Fatalf("Expected 4 enrollments (2 clients x 2 programs), got %d", len(created))
	}

	// 4. Dashboard aggregates over the resulting collections
	summary := dashboard.Summarize(clients, programs, store.enrollments, time.Now())

	if summary.TotalClients != 2 {
		t.Errorf("TotalClients: expected 2, got %d", summary.TotalClients)
	}
	if summary.ActivePrograms != 1 {
		t.Errorf("ActivePrograms: expected 1, got %d", summary.ActivePrograms)
	}
	if summary.EnrollmentsThisMonth != 4 {
		t.Errorf("EnrollmentsThisMonth: expected 4, got %d", summary.EnrollmentsThisMonth)
	}
	if summary.PendingFollowUps != 1 {
		t.Errorf("PendingFollowUps: expected 1, got %d", summary.PendingFollowUps)
	}

	counts := dashboard.EnrollmentsByProgram(store.enrollments, programs)
	for _, pc := range counts {
		if pc.Count != 2 {
			t.Errorf("Program %s: expected 2 enrollments, got %d", pc.ProgramName, pc.Count)
		}
	}

	feed := dashboard.RecentActivityFeed(store.enrollments, clients, programs, 4)
	if len(feed) != 4 {
		t.Errorf("Expected 4 activity entries, got %d", len(feed))
	}
	for _, entry := range feed {
		if entry.Message == "" {
			t.Error("Activity entry should have a message")
		}
	}
}
