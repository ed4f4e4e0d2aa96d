package client

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

// Handler provides HTTP handlers for the client module
type Handler struct {
	repo *Repository
	bus  *events.Bus
}

// NewHandler creates a new client handler
func NewHandler(repo *Repository, bus *events.Bus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the client routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{clientID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})

	return r
}

// List lists clients with optional search and status filters
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListClientsFilter{
		Search: r.URL.Query().Get("search"),
	}

	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		filter.Status = &status
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

	clients, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  clients,
		"total": total,
	})
}

// Get gets a client by ID
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid client ID"))
		return
	}

	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Create registers a new client
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, verr := NewClient(req)
	if verr != nil {
		writeError(w, verr)
		return
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordClientRegistered()

	// Publish event
	if h.bus != nil {
		actorID := types.ID("")
		if user := auth.GetUser(r.Context()); user != nil {
			actorID = user.ID
		}

		event := events.NewEvent("client.registered", "client", map[string]any{
			"client_id":   c.ID,
			"client_name": c.Name.Full(),
		}).WithActor(actorID)

		h.bus.Publish(r.Context(), event)
	}

	writeJSON(w, http.StatusCreated, c)
}

// Update replaces a client's mutable fields
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid client ID"))
		return
	}

	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if verr := c.Apply(req); verr != nil {
		writeError(w, verr)
		return
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Delete removes a client
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid client ID"))
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
