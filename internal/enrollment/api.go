package enrollment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/healthreach/platform/internal/shared/auth"
	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/events"
	"github.com/healthreach/platform/internal/shared/metrics"
	"github.com/healthreach/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the enrollment module
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new enrollment handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the enrollment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{enrollmentID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
	})

	return r
}

// RosterRoutes registers the program roster routes; mounted under
// /programs/{programID}/enrollees
func (h *Handler) RosterRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListEnrollees)
	r.Delete("/{clientID}", h.RemoveEnrollee)

	return r
}

// CreateEnrollmentsRequest carries the selections for a batch
// enrollment submission
type CreateEnrollmentsRequest struct {
	ClientIDs  []types.ID `json:"client_ids"`
	ProgramIDs []types.ID `json:"program_ids"`
}

// List lists enrollments joined with client and program
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		filter.Status = &status
	}

	if p := r.URL.Query().Get("program_id"); p != "" {
		id, err := types.ParseID(p)
		if err != nil {
			writeError(w, errors.BadRequest("invalid program ID"))
			return
		}
		filter.ProgramID = &id
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

	views, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  views,
		"total": total,
	})
}

// Get gets an enrollment by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "enrollmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid enrollment ID"))
		return
	}

	e, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, e)
}

// Create submits a batch enrollment: one record per (client, program)
// pair. The whole batch aborts on any constraint violation.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEnrollmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if len(req.ClientIDs) == 0 || len(req.ProgramIDs) == 0 {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"client_ids":  "at least one client is required",
			"program_ids": "at least one program is required",
		}))
		return
	}

	// Drive the selections through the workflow so the same guards
	// apply to API submissions and interactive sessions
	wf := NewWorkflow()
	if err := wf.Start(); err != nil {
		writeError(w, errors.Internal(err))
		return
	}
	for _, id := range req.ClientIDs {
		if err := wf.ToggleClient(id); err != nil {
			writeError(w, errors.Internal(err))
			return
		}
	}
	if err := wf.ConfirmClients(); err != nil {
		writeError(w, errors.BadRequest(err.Error()))
		return
	}
	for _, id := range req.ProgramIDs {
		if err := wf.ToggleProgram(id); err != nil {
			writeError(w, errors.Internal(err))
			return
		}
	}

	created, err := wf.Submit(r.Context(), h.repo)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordEnrollmentsCreated(len(created))

	// Publish event
	if h.bus != nil {
		actorID := types.ID("")
		if user := auth.GetUser(r.Context()); user != nil {
			actorID = user.ID
		}

		event := events.NewEvent("enrollment.created", "enrollment", map[string]any{
			"count":       len(created),
			"client_ids":  req.ClientIDs,
			"program_ids": req.ProgramIDs,
		}).WithActor(actorID)

		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"data":  created,
		"total": len(created),
	})
}

// Delete removes an enrollment by ID
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "enrollmentID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid enrollment ID"))
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordEnrollmentRemoved()

	w.WriteHeader(http.StatusNoContent)
}

// ListEnrollees returns one page of a program's roster
func (h *Handler) ListEnrollees(w http.ResponseWriter, r *http.Request) {
	programID, err := types.ParseID(chi.URLParam(r, "programID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid program ID"))
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}

	pageSize := DefaultPageSize
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	enrollees, total, err := h.repo.ListEnrollees(r.Context(), programID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":      enrollees,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// RemoveEnrollee removes a client from a program's roster. Removing
// an already-absent enrollment succeeds.
func (h *Handler) RemoveEnrollee(w http.ResponseWriter, r *http.Request) {
	programID, err := types.ParseID(chi.URLParam(r, "programID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid program ID"))
		return
	}

	clientID, err := types.ParseID(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid client ID"))
		return
	}

	if err := h.repo.RemoveByPair(r.Context(), programID, clientID); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordEnrollmentRemoved()

	// Publish event
	if h.bus != nil {
		actorID := types.ID("")
		if user := auth.GetUser(r.Context()); user != nil {
			actorID = user.ID
		}

		event := events.NewEvent("enrollment.removed", "enrollment", map[string]any{
			"program_id": programID,
			"client_id":  clientID,
		}).WithActor(actorID)

		h.bus.Publish(r.Context(), event)
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
