package program

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

// Handler provides HTTP handlers for the program module
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new program handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the program routes. The roster router, when
// provided, is mounted under /{programID}/enrollees so its handlers
// can read the programID URL parameter.
func (h *Handler) Routes(roster chi.Router) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{programID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)

		if roster != nil {
			r.Mount("/enrollees", roster)
		}
	})

	return r
}

// List lists programs with optional filters
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListProgramsFilter{
		Search: r.URL.Query().Get("search"),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		filter.Status = &status
	}

	if c := r.URL.Query().Get("category"); c != "" {
		category := Category(c)
		filter.Category = &category
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

	programs, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  programs,
		"total": total,
	})
}

// Get gets a program by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "programID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid program ID"))
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Create creates a new program
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	p, verr := NewProgram(req)
	if verr != nil {
		writeError(w, verr)
		return
	}

	if err := h.repo.Create(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordProgramCreated(string(p.Category))

	// Publish event
	if h.bus != nil {
		actorID := types.ID("")
		if user := auth.GetUser(r.Context()); user != nil {
			actorID = user.ID
		}

		event := events.NewEvent("program.created", "program", map[string]any{
			"program_id":   p.ID,
			"program_code": p.Code,
			"program_name": p.Name,
		}).WithActor(actorID)

		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, p)
}

// Update replaces a program's mutable fields
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "programID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid program ID"))
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if verr := p.Apply(req); verr != nil {
		writeError(w, verr)
		return
	}

	if err := h.repo.Update(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Delete removes a program
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "programID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid program ID"))
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
