package enrollment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/program"
	"github.com/healthreach/platform/internal/shared/types"
)

// WorkflowState is the explicit state of the enrollment workflow
type WorkflowState string

const (
	StateIdle              WorkflowState = "idle"
	StateSelectingClients  WorkflowState = "selecting_clients"
	StateSelectingPrograms WorkflowState = "selecting_programs"
	StateSubmitting        WorkflowState = "submitting"
)

// BatchInserter persists a batch of enrollments atomically
type BatchInserter interface {
	CreateBatch(ctx context.Context, enrollments []Enrollment) error
}

// Workflow drives the two-step enrollment process: select clients,
// select programs, submit the cross product as one batch. Selections
// are sets toggled by ID; the workflow never submits while either
// set is empty, and a failed submission keeps selections intact.
//
// A Workflow is not safe for concurrent use; each operator session
// holds its own.
type Workflow struct {
	state            WorkflowState
	selectedClients  map[types.ID]struct{}
	selectedPrograms map[types.ID]struct{}
}

// NewWorkflow creates a workflow in the idle state
func NewWorkflow() *Workflow {
	return &Workflow{
		state:            StateIdle,
		selectedClients:  make(map[types.ID]struct{}),
		selectedPrograms: make(map[types.ID]struct{}),
	}
}

// State returns the current workflow state
func (w *Workflow) State() WorkflowState {
	return w.state
}

// Start moves an idle workflow into client selection
func (w *Workflow) Start() error {
	if w.state != StateIdle {
		return fmt.Errorf("cannot start enrollment from state %s", w.state)
	}
	w.state = StateSelectingClients
	return nil
}

// ToggleClient adds the client to the selection if absent, removes it
// if present
func (w *Workflow) ToggleClient(id types.ID) error {
	if w.state != StateSelectingClients {
		return fmt.Errorf("cannot select clients in state %s", w.state)
	}
	toggle(w.selectedClients, id)
	return nil
}

// ToggleProgram adds the program to the selection if absent, removes
// it if present
func (w *Workflow) ToggleProgram(id types.ID) error {
	if w.state != StateSelectingPrograms {
		return fmt.Errorf("cannot select programs in state %s", w.state)
	}
	toggle(w.selectedPrograms, id)
	return nil
}

// ConfirmClients carries the selected clients forward into program
// selection; requires at least one selected client
func (w *Workflow) ConfirmClients() error {
	if w.state != StateSelectingClients {
		return fmt.Errorf("cannot confirm clients in state %s", w.state)
	}
	if len(w.selectedClients) == 0 {
		return fmt.Errorf("no clients selected")
	}
	w.state = StateSelectingPrograms
	return nil
}

// SelectedClients returns the selected client IDs in stable order
func (w *Workflow) SelectedClients() []types.ID {
	return sortedIDs(w.selectedClients)
}

// SelectedPrograms returns the selected program IDs in stable order
func (w *Workflow) SelectedPrograms() []types.ID {
	return sortedIDs(w.selectedPrograms)
}

// Submit builds one enrollment per (client, program) pair and writes
// the batch atomically. Success clears both selections and returns to
// idle; failure aborts the whole batch and returns to program
// selection with selections intact.
func (w *Workflow) Submit(ctx context.Context, store BatchInserter) ([]Enrollment, error) {
	if w.state != StateSelectingPrograms {
		return nil, fmt.Errorf("cannot submit in state %s", w.state)
	}
	if len(w.selectedClients) == 0 || len(w.selectedPrograms) == 0 {
		return nil, fmt.Errorf("cannot submit with empty selection")
	}

	w.state = StateSubmitting

	now := time.Now()
	batch := make([]Enrollment, 0, len(w.selectedClients)*len(w.selectedPrograms))
	for _, clientID := range sortedIDs(w.selectedClients) {
		for _, programID := range sortedIDs(w.selectedPrograms) {
			batch = append(batch, Enrollment{
				ID:             types.NewID(),
				ClientID:       clientID,
				ProgramID:      programID,
				EnrollmentDate: now,
				Status:         StatusActive,
			})
		}
	}

	if err := store.CreateBatch(ctx, batch); err != nil {
		w.state = StateSelectingPrograms
		return nil, err
	}

	w.selectedClients = make(map[types.ID]struct{})
	w.selectedPrograms = make(map[types.ID]struct{})
	w.state = StateIdle

	return batch, nil
}

// Cancel discards all selections and returns to idle
func (w *Workflow) Cancel() {
	w.selectedClients = make(map[types.ID]struct{})
	w.selectedPrograms = make(map[types.ID]struct{})
	w.state = StateIdle
}

func toggle(set map[types.ID]struct{}, id types.ID) {
	if _, ok := set[id]; ok {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
}

func sortedIDs(set map[types.ID]struct{}) []types.ID {
	ids := make([]types.ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FilterClients returns the clients whose full name contains the
// query, case-insensitive. An empty query matches everything.
func FilterClients(clients []client.Client, query string) []client.Client {
	if query == "" {
		return clients
	}
	q := strings.ToLower(query)

	var matched []client.Client
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.Name.Full()), q) {
			matched = append(matched, c)
		}
	}
	return matched
}

// FilterPrograms returns the programs whose name contains the query,
// case-insensitive. An empty query matches everything.
func FilterPrograms(programs []program.Program, query string) []program.Program {
	if query == "" {
		return programs
	}
	q := strings.ToLower(query)

	var matched []program.Program
	for _, p := range programs {
		if strings.Contains(strings.ToLower(p.Name), q) {
			matched = append(matched, p)
		}
	}
	return matched
}
