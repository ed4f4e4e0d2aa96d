package enrollment

import (
	"context"
	"fmt"
	"testing"

	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/program"
	"github.com/healthreach/platform/internal/shared/types"
)

// fakeStore collects batches and optionally fails
type fakeStore struct {
	batches [][]Enrollment
	fail    bool
}

func (s *fakeStore) CreateBatch(ctx context.Context, enrollments []Enrollment) error {
	if s.fail {
		return fmt.Errorf("constraint violation")
	}
	s.batches = append(s.batches, enrollments)
	return nil
}

func TestWorkflowInitialState(t *testing.T) {
	wf := NewWorkflow()
	if wf.State() != StateIdle {
		t.Errorf("Expected state %s, got %s", StateIdle, wf.State())
	}
}

func TestToggleIsIdempotentPair(t *testing.T) {
	wf := NewWorkflow()
	if err := wf.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	id := types.NewID()

	// Toggling twice returns the selection to its original state
	if err := wf.ToggleClient(id); err != nil {
		t.Fatalf("ToggleClient failed: %v", err)
	}
	if len(wf.SelectedClients()) != 1 {
		t.Errorf("Expected 1 selected client, got %d", len(wf.SelectedClients()))
	}

	if err := wf.ToggleClient(id); err != nil {
		t.Fatalf("ToggleClient failed: %v", err)
	}
	if len(wf.SelectedClients()) != 0 {
		t.Errorf("Expected empty selection after double toggle, got %d", len(wf.SelectedClients()))
	}
}

func TestConfirmClientsRequiresSelection(t *testing.T) {
	wf := NewWorkflow()
	wf.Start()

	if err := wf.ConfirmClients(); err == nil {
		t.Error("Expected error confirming empty client selection")
	}
	if wf.State() != StateSelectingClients {
		t.Errorf("Expected state unchanged, got %s", wf.State())
	}

	wf.ToggleClient(types.NewID())
	if err := wf.ConfirmClients(); err != nil {
		t.Errorf("Expected confirm to succeed, got %v", err)
	}
	if wf.State() != StateSelectingPrograms {
		t.Errorf("Expected state %s, got %s", StateSelectingPrograms, wf.State())
	}
}

func TestStateGuards(t *testing.T) {
	wf := NewWorkflow()

	// Idle: client and program selection both rejected
	if err := wf.ToggleClient(types.NewID()); err == nil {
		t.Error("Expected error toggling client while idle")
	}
	if err := wf.ToggleProgram(types.NewID()); err == nil {
		t.Error("Expected error toggling program while idle")
	}
	if _, err := wf.Submit(context.Background(), &fakeStore{}); err == nil {
		t.Error("Expected error submitting while idle")
	}

	// SelectingClients: program selection rejected
	wf.Start()
	if err := wf.ToggleProgram(types.NewID()); err == nil {
		t.Error("Expected error toggling program while selecting clients")
	}

	// Double start rejected
	if err := wf.Start(); err == nil {
		t.Error("Expected error starting an already started workflow")
	}
}

func TestSubmitCrossProduct(t *testing.T) {
	clientIDs := []types.ID{types.NewID(), types.NewID(), types.NewID()}
	programIDs := []types.ID{types.NewID(), types.NewID()}

	wf := NewWorkflow()
	wf.Start()
	for _, id := range clientIDs {
		wf.ToggleClient(id)
	}
	wf.ConfirmClients()
	for _, id := range programIDs {
		wf.ToggleProgram(id)
	}

	store := &fakeStore{}
	created, err := wf.Submit(context.Background(), store)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// N clients x M programs = N*M records
	if len(created) != len(clientIDs)*len(programIDs) {
		t.Fatalf("Expected %d enrollments, got %d", len(clientIDs)*len(programIDs), len(created))
	}

	// One record per distinct pair, all active, all dated at submission
	seen := make(map[string]bool)
	for _, e := range created {
		if e.Status != StatusActive {
			t.Errorf("Expected status active, got %s", e.Status)
		}
		if e.EnrollmentDate.IsZero() {
			t.Error("Expected enrollment date to be set")
		}
		if e.ID.IsZero() {
			t.Error("Expected enrollment ID to be set")
		}
		key := e.ClientID.String() + "/" + e.ProgramID.String()
		if seen[key] {
			t.Errorf("Duplicate pair %s", key)
		}
		seen[key] = true
	}

	// Success clears selections and returns to idle
	if wf.State() != StateIdle {
		t.Errorf("Expected state %s after success, got %s", StateIdle, wf.State())
	}
	if len(wf.SelectedClients()) != 0 || len(wf.SelectedPrograms()) != 0 {
		t.Error("Expected selections cleared after success")
	}

	// Exactly one batch write
	if len(store.batches) != 1 {
		t.Errorf("Expected a single batch write, got %d", len(store.batches))
	}
}

func TestSubmitFailureKeepsSelections(t *testing.T) {
	wf := NewWorkflow()
	wf.Start()
	wf.ToggleClient(types.NewID())
	wf.ConfirmClients()
	wf.ToggleProgram(types.NewID())

	store := &fakeStore{fail: true}
	if _, err := wf.Submit(context.Background(), store); err == nil {
		t.Fatal("Expected submit error")
	}

	// Failure returns to program selection with selections intact
	if wf.State() != StateSelectingPrograms {
		t.Errorf("Expected state %s after failure, got %s", StateSelectingPrograms, wf.State())
	}
	if len(wf.SelectedClients()) != 1 || len(wf.SelectedPrograms()) != 1 {
		t.Error("Expected selections kept after failure")
	}

	// Retry against a working store succeeds
	ok := &fakeStore{}
	created, err := wf.Submit(context.Background(), ok)
	if err != nil {
		t.Fatalf("Retry failed: %v", err)
	}
	if len(created) != 1 {
		t.Errorf("Expected 1 enrollment on retry, got %d", len(created))
	}
}

func TestSubmitRejectsEmptyPrograms(t *testing.T) {
	wf := NewWorkflow()
	wf.Start()
	wf.ToggleClient(types.NewID())
	wf.ConfirmClients()

	if _, err := wf.Submit(context.Background(), &fakeStore{}); err == nil {
		t.Error("Expected error submitting with no programs selected")
	}
}

func TestCancelClearsEverything(t *testing.T) {
	wf := NewWorkflow()
	wf.Start()
	wf.ToggleClient(types.NewID())
	wf.ConfirmClients()
	wf.ToggleProgram(types.NewID())

	wf.Cancel()

	if wf.State() != StateIdle {
		t.Errorf("Expected state %s after cancel, got %s", StateIdle, wf.State())
	}
	if len(wf.SelectedClients()) != 0 || len(wf.SelectedPrograms()) != 0 {
		t.Error("Expected selections cleared after cancel")
	}
}

func TestFilterClientsByName(t *testing.T) {
	clients := []client.Client{
		{Name: client.Name{First: "John", Last: "Doe"}},
		{Name: client.Name{First: "Jane", Last: "Smith"}},
		{Name: client.Name{First: "Robert", Last: "Johnson"}},
	}

	tests := []struct {
		query    string
		expected int
	}{
		{"", 3},
		{"john", 2}, // John Doe and Robert Johnson
		{"JANE", 1},
		{"smith", 1},
		{"e sm", 1}, // substring across first/last boundary
		{"zzz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterClients(clients, tt.query)
			if len(got) != tt.expected {
				t.Errorf("FilterClients(%q): expected %d, got %d", tt.query, tt.expected, len(got))
			}
		})
	}
}

func TestFilterProgramsByName(t *testing.T) {
	programs := []program.Program{
		{Name: "Malaria Control"},
		{Name: "TB Screening"},
		{Name: "Maternal Care"},
	}

	tests := []struct {
		query    string
		expected int
	}{
		{"", 3},
		{"ma", 2}, // Malaria Control and Maternal Care
		{"tb", 1},
		{"CONTROL", 1},
		{"none", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := FilterPrograms(programs, tt.query)
			if len(got) != tt.expected {
				t.Errorf("FilterPrograms(%q): expected %d, got %d", tt.query, tt.expected, len(got))
			}
		})
	}
}
