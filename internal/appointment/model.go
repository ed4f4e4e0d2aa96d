package appointment

import (
	"time"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
)

// Appointment statuses
const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
	StatusNoShow    = "No Show"
)

// Appointment represents a scheduled visit for a client
type Appointment struct {
	ID          types.ID  `json:"id"`
	ClientID    types.ID  `json:"client_id"`
	ProgramID   *types.ID `json:"program_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	ExternalRef string    `json:"external_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateAppointmentRequest is the payload for scheduling an appointment
type CreateAppointmentRequest struct {
	ClientID    types.ID  `json:"client_id"`
	ProgramID   *types.ID `json:"program_id,omitempty"`
	ScheduledAt string    `json:"scheduled_at"`
	Notes       string    `json:"notes,omitempty"`
	ExternalRef string    `json:"external_ref,omitempty"`
}

// ListFilter holds optional appointment list filters
type ListFilter struct {
	ClientID *types.ID
	Status   *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// NewAppointment builds an appointment from a create request
func NewAppointment(req CreateAppointmentRequest) (*Appointment, *errors.AppError) {
	if req.ClientID.IsZero() {
		return nil, errors.Validation("client_id is required", nil)
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, errors.Validation("scheduled_at must be an RFC 3339 timestamp", map[string]string{
			"scheduled_at": "expected format 2006-01-02T15:04:05Z07:00",
		})
	}

	now := time.Now()
	return &Appointment{
		ID:          types.NewID(),
		ClientID:    req.ClientID,
		ProgramID:   req.ProgramID,
		ScheduledAt: scheduledAt,
		Status:      StatusScheduled,
		Notes:       req.Notes,
		ExternalRef: req.ExternalRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
