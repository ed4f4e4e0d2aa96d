package appointment

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/events"
	"github.com/healthreach/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the appointment module
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new appointment handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the appointment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/upcoming", h.ListUpcoming)

	r.Route("/{appointmentID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Patch("/status", h.UpdateStatus)
		r.Delete("/", h.Delete)
	})

	return r
}

// List lists appointments with optional filters
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter

	if s := r.URL.Query().Get("client_id"); s != "" {
		id, err := types.ParseID(s)
		if err != nil {
			writeError(w, errors.BadRequest("invalid client ID"))
			return
		}
		filter.ClientID = &id
	}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = &s
	}

	if s := r.URL.Query().Get("from"); s != "" {
		from, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, errors.BadRequest("invalid from timestamp"))
			return
		}
		filter.From = &from
	}

	if s := r.URL.Query().Get("to"); s != "" {
		to, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, errors.BadRequest("invalid to timestamp"))
			return
		}
		filter.To = &to
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			writeError(w, errors.BadRequest("invalid limit"))
			return
		}
		filter.Limit = n
	}

	if s := r.URL.Query().Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, errors.BadRequest("invalid offset"))
			return
		}
		filter.Offset = n
	}

	appointments, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  appointments,
		"total": total,
	})
}

// ListUpcoming returns the next scheduled appointments
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, errors.BadRequest("invalid limit"))
			return
		}
		limit = n
	}

	appointments, err := h.repo.ListUpcoming(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": appointments})
}

// Get gets an appointment by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid appointment ID"))
		return
	}

	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// Create schedules a new appointment
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	a, verr := NewAppointment(req)
	if verr != nil {
		writeError(w, verr)
		return
	}

	if err := h.repo.Create(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}

	if h.bus != nil {
		event := events.NewEvent("appointment.scheduled", "appointment", map[string]any{
			"appointment_id": a.ID,
			"client_id":      a.ClientID,
			"scheduled_at":   a.ScheduledAt,
		})
		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, a)
}

// UpdateStatus changes an appointment's status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid appointment ID"))
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	switch req.Status {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
	default:
		writeError(w, errors.Validation("invalid appointment status", map[string]string{
			"status": "must be one of Scheduled, Completed, Cancelled, No Show",
		}))
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// Delete removes an appointment
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "appointmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid appointment ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

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
