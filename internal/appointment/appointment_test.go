package appointment

import (
	"testing"

	"github.com/healthreach/platform/internal/shared/types"
)

func TestNewAppointmentDefaults(t *testing.T) {
	req := CreateAppointmentRequest{
		ClientID:    types.NewID(),
		ScheduledAt: "2026-09-15T10:30:00Z",
	}

	a, err := NewAppointment(req)
	if err != nil {
		t.Fatalf("NewAppointment failed: %v", err)
	}

	if a.Status != StatusScheduled {
		t.Errorf("Expected status %s, got %s", StatusScheduled, a.Status)
	}
	if a.ID.IsZero() {
		t.Error("Expected ID to be generated")
	}
	if a.ScheduledAt.Hour() != 10 || a.ScheduledAt.Minute() != 30 {
		t.Errorf("Expected 10:30, got %s", a.ScheduledAt)
	}
}

func TestNewAppointmentValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateAppointmentRequest
	}{
		{
			name: "missing client",
			req:  CreateAppointmentRequest{ScheduledAt: "2026-09-15T10:30:00Z"},
		},
		{
			name: "malformed timestamp",
			req:  CreateAppointmentRequest{ClientID: types.NewID(), ScheduledAt: "2026-09-15"},
		},
		{
			name: "empty timestamp",
			req:  CreateAppointmentRequest{ClientID: types.NewID()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAppointment(tt.req); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
