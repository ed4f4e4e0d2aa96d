package enrollment

import (
	"time"

	"github.com/healthreach/platform/internal/shared/types"
)

// Status defines the status of an enrollment
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusInactive  Status = "inactive"
)

// Enrollment binds one client to one program. At most one active
// enrollment may exist per (client, program) pair; the database
// enforces this with a partial unique index.
type Enrollment struct {
	ID             types.ID   `json:"id"`
	ClientID       types.ID   `json:"client_id"`
	ProgramID      types.ID   `json:"program_id"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	Status         Status     `json:"status"`
	LastVisit      *time.Time `json:"last_visit,omitempty"`
}

// ClientRef is the client summary embedded in joined views
type ClientRef struct {
	ID        types.ID `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
}

// FullName returns the referenced client's full name
func (c ClientRef) FullName() string {
	return c.FirstName + " " + c.LastName
}

// ProgramRef is the program summary embedded in joined views
type ProgramRef struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

// View is an enrollment joined with its client and program,
// the shape the enrollments listing renders.
type View struct {
	ID             types.ID   `json:"id"`
	EnrollmentDate time.Time  `json:"enrollment_date"`
	Status         Status     `json:"status"`
	Client         ClientRef  `json:"client"`
	Program        ProgramRef `json:"program"`
}

// ListFilter defines filters for listing enrollment views
type ListFilter struct {
	// Search matches client full name or program name, case-insensitive
	Search    string    `json:"search,omitempty"`
	Status    *Status   `json:"status,omitempty"`
	ProgramID *types.ID `json:"program_id,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}
