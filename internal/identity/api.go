package identity

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/healthreach/platform/internal/shared/auth"
	"github.com/healthreach/platform/internal/shared/config"
	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/metrics"
)

// Handler provides HTTP handlers for authentication
type Handler struct {
	repo *Repository
	cfg  config.AuthConfig
}

// NewHandler creates a new identity handler
func NewHandler(repo *Repository, cfg config.AuthConfig) *Handler {
	return &Handler{repo: repo, cfg: cfg}
}

// Routes registers the authentication routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	return r
}

// Login exchanges operator credentials for an access token. Lookup
// failures and bad passwords return the same 401 so the endpoint does
// not reveal which emails have accounts.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, errors.BadRequest("email and password are required"))
		return
	}

	operator, err := h.repo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			metrics.RecordLoginAttempt(false)
			writeError(w, errors.Unauthorized("invalid email or password"))
			return
		}
		writeError(w, err)
		return
	}

	if !operator.CheckPassword(req.Password) {
		metrics.RecordLoginAttempt(false)
		writeError(w, errors.Unauthorized("invalid email or password"))
		return
	}

	token, err := auth.IssueToken(h.cfg, operator.ID, operator.Email, operator.FullName)
	if err != nil {
		writeError(w, errors.Wrap(err, "failed to issue token"))
		return
	}

	metrics.RecordLoginAttempt(true)

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"operator": map[string]any{
			"id":        operator.ID,
			"email":     operator.Email,
			"full_name": operator.FullName,
		},
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
