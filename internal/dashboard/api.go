package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/healthreach/platform/internal/appointment"
	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/enrollment"
	"github.com/healthreach/platform/internal/program"
	"github.com/healthreach/platform/internal/shared/errors"
)

const (
	trendWindowMonths    = 6
	activityFeedEntries  = 4
	upcomingAppointments = 5
)

// ClientSource provides the client collection
type ClientSource interface {
	ListAll(ctx context.Context) ([]client.Client, error)
}

// ProgramSource provides the program collection
type ProgramSource interface {
	ListAll(ctx context.Context) ([]program.Program, error)
}

// EnrollmentSource provides the enrollment collection, newest first
type EnrollmentSource interface {
	ListAll(ctx context.Context) ([]enrollment.Enrollment, error)
}

// AppointmentSource provides upcoming appointments
type AppointmentSource interface {
	ListUpcoming(ctx context.Context, limit int) ([]appointment.Appointment, error)
}

// Handler assembles the dashboard payload from the entity repositories
type Handler struct {
	clients      ClientSource
	programs     ProgramSource
	enrollments  EnrollmentSource
	appointments AppointmentSource
}

// NewHandler creates a new dashboard handler
func NewHandler(clients ClientSource, programs ProgramSource, enrollments EnrollmentSource, appointments AppointmentSource) *Handler {
	return &Handler{
		clients:      clients,
		programs:     programs,
		enrollments:  enrollments,
		appointments: appointments,
	}
}

// Routes registers the dashboard routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Get)
	return r
}

// Get returns the full dashboard: headline cards, status breakdown,
// per-program enrollment counts, the monthly trend, the activity feed,
// and the next upcoming appointments.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clients, err := h.clients.ListAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	programs, err := h.programs.ListAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	enrollments, err := h.enrollments.ListAll(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	upcoming, err := h.appointments.ListUpcoming(ctx, upcomingAppointments)
	if err != nil {
		writeError(w, err)
		return
	}
	if upcoming == nil {
		upcoming = []appointment.Appointment{}
	}

	now := time.Now()

	writeJSON(w, http.StatusOK, map[string]any{
		"summary":                Summarize(clients, programs, enrollments, now),
		"clients_by_status":      CountByStatus(clients),
		"enrollments_by_program": EnrollmentsByProgram(enrollments, programs),
		"monthly_trend":          MonthlyEnrollmentTrend(enrollments, trendWindowMonths, now),
		"recent_activity":        RecentActivityFeed(enrollments, clients, programs, activityFeedEntries),
		"upcoming_appointments":  upcoming,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
