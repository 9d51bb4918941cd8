package trial

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/events"
	"github.com/police-portal/platform/internal/shared/types"
)

// Handler provides HTTP handlers for trial verdicts
type Handler struct {
	repo *Repository
	bus  events.EventBus
}

// NewHandler creates a new trial handler. bus may be nil.
func NewHandler(repo *Repository, bus events.EventBus) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the trial routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/case/{caseID}", h.GetByCase)

	return r
}

func (h *Handler) publish(ctx context.Context, event events.Event) {
	if h.bus == nil {
		return
	}
	_ = h.bus.Publish(ctx, event)
}

type createRequest struct {
	CaseID                types.ID `json:"case_id"`
	Verdict               Verdict  `json:"verdict"`
	PunishmentTitle       string   `json:"punishment_title,omitempty"`
	PunishmentDescription string   `json:"punishment_description,omitempty"`
}

// Create records a judge's verdict on a solved case
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleJudge) {
		writeError(w, errors.Forbidden("judge role required"))
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	t, err := NewTrial(req.CaseID, user.ID, req.Verdict, req.PunishmentTitle, req.PunishmentDescription)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("trial.recorded", "trials", map[string]any{
		"trial_id": t.ID, "verdict": t.Verdict,
	}).WithActor(user.ID, rbac.RoleJudge).WithCase(t.CaseID))

	writeJSON(w, http.StatusCreated, t)
}

// GetByCase returns the verdict recorded on a case
func (h *Handler) GetByCase(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleJudge) && !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("judicial or policing role required"))
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}

	t, err := h.repo.GetByCase(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
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
			"error": map[string]any{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			},
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    "internal_error",
			"message": "internal server error",
		},
	})
}
