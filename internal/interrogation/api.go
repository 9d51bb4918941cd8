package interrogation

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/events"
	"github.com/police-portal/platform/internal/shared/metrics"
	"github.com/police-portal/platform/internal/shared/types"
)

// CaseDirectory is the slice of the case store this module needs
type CaseDirectory interface {
	GetCase(ctx context.Context, id types.ID) (*casedomain.Case, error)
	ComplaintCreator(ctx context.Context, c *casedomain.Case) (types.ID, error)
	IsAssigned(ctx context.Context, caseID, userID types.ID, roles ...casedomain.AssignmentRole) (bool, error)
}

// PersonDirectory resolves suspect records
type PersonDirectory interface {
	PersonExists(ctx context.Context, id types.ID) (bool, error)
}

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, userID types.ID, caseID *types.ID, notifType string, payload map[string]any)
}

// Handler provides HTTP handlers for interrogations
type Handler struct {
	repo     *Repository
	cases    CaseDirectory
	persons  PersonDirectory
	bus      events.EventBus
	notifier Notifier
}

// NewHandler creates a new interrogation handler. bus and notifier may
// be nil.
func NewHandler(repo *Repository, cases CaseDirectory, persons PersonDirectory, bus events.EventBus, notifier Notifier) *Handler {
	return &Handler{repo: repo, cases: cases, persons: persons, bus: bus, notifier: notifier}
}

// Routes registers the interrogation routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListByCase)

	r.Route("/{interrogationID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/score", h.SetDetectiveScore)
		r.Put("/sergeant-score", h.SetSergeantScore)
		r.Post("/captain-decision", h.CaptainDecision)
		r.Post("/chief-decision", h.ChiefDecision)
	})

	return r
}

func (h *Handler) publish(ctx context.Context, event events.Event) {
	if h.bus == nil {
		return
	}
	_ = h.bus.Publish(ctx, event)
}

func (h *Handler) notify(ctx context.Context, userID types.ID, caseID types.ID, notifType string, payload map[string]any) {
	if h.notifier == nil {
		return
	}
	id := caseID
	h.notifier.Notify(ctx, userID, &id, notifType, payload)
}

// canAccessCase is the record-level gate shared by the decision
// endpoints: administrators, the case creator, the originating
// complaint's creator, and assigned users pass.
func (h *Handler) canAccessCase(ctx context.Context, user *auth.User, c *casedomain.Case) (bool, error) {
	if user.IsAdmin() || c.CreatedBy == user.ID {
		return true, nil
	}
	creator, err := h.cases.ComplaintCreator(ctx, c)
	if err != nil {
		return false, err
	}
	if !creator.IsZero() && creator == user.ID {
		return true, nil
	}
	return h.cases.IsAssigned(ctx, c.ID, user.ID)
}

type createRequest struct {
	CaseID         types.ID `json:"case_id"`
	SuspectID      types.ID `json:"suspect_id"`
	DetectiveScore *int     `json:"detective_score,omitempty"`
}

// Create opens an interrogation into the sergeant's queue. Only a
// detective assigned to the case may interrogate; their own score may
// come now or later.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if _, err := h.cases.GetCase(r.Context(), req.CaseID); err != nil {
		writeError(w, err)
		return
	}

	assigned, err := h.cases.IsAssigned(r.Context(), req.CaseID, user.ID, casedomain.AssignmentDetective)
	if err != nil {
		writeError(w, err)
		return
	}
	if !assigned {
		writeError(w, errors.Forbidden("only a detective assigned to the case may interrogate"))
		return
	}

	exists, err := h.persons.PersonExists(r.Context(), req.SuspectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, errors.Validation("suspect_id does not reference a known person", nil))
		return
	}

	i, err := New(req.CaseID, req.SuspectID, user.ID, req.DetectiveScore)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Create(r.Context(), i); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("interrogation.opened", "interrogations", map[string]any{
		"interrogation_id": i.ID, "suspect_id": i.SuspectID,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(i.CaseID))

	writeJSON(w, http.StatusCreated, i)
}

// ListByCase returns the interrogations on a case
func (h *Handler) ListByCase(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("policing rank required"))
		return
	}

	caseID, err := types.ParseID(r.URL.Query().Get("case_id"))
	if err != nil {
		writeError(w, errors.Validation("case_id query parameter is required", nil))
		return
	}

	interrogations, err := h.repo.ListByCase(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"interrogations": interrogations, "count": len(interrogations)})
}

// Get returns a single interrogation
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "interrogationID"))
	if err != nil {
		writeError(w, errors.Validation("invalid interrogation ID", nil))
		return
	}

	i, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if !user.IsAdmin() && i.CreatedBy != user.ID && !rbac.HasAnyRole(user.Roles, rbac.ManagerialRoles...) {
		writeError(w, errors.Forbidden("you do not have access to this interrogation"))
		return
	}

	writeJSON(w, http.StatusOK, i)
}

type detectiveScoreRequest struct {
	DetectiveScore int `json:"detective_score"`
}

// SetDetectiveScore records the assigned detective's score. The score
// stays editable until the sergeant has scored.
func (h *Handler) SetDetectiveScore(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "interrogationID"))
	if err != nil {
		writeError(w, errors.Validation("invalid interrogation ID", nil))
		return
	}

	var req detectiveScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	current, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.IsAdmin() {
		assigned, err := h.cases.IsAssigned(r.Context(), current.CaseID, user.ID, casedomain.AssignmentDetective)
		if err != nil {
			writeError(w, err)
			return
		}
		if !assigned {
			writeError(w, errors.Forbidden("only a detective assigned to the case may score"))
			return
		}
	}

	i, err := h.repo.UpdateTx(r.Context(), id, func(i *Interrogation) error {
		return i.SetDetectiveScore(req.DetectiveScore)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("interrogation.scored", "interrogations", map[string]any{
		"interrogation_id": i.ID, "stage": "detective", "status": i.Status,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(i.CaseID))

	writeJSON(w, http.StatusOK, i)
}

type sergeantScoreRequest struct {
	SergeantScore int `json:"sergeant_score"`
}

// SetSergeantScore records the assigned sergeant's score and forwards
// the interrogation to the captain
func (h *Handler) SetSergeantScore(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleSergeant) {
		writeError(w, errors.Forbidden("sergeant role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "interrogationID"))
	if err != nil {
		writeError(w, errors.Validation("invalid interrogation ID", nil))
		return
	}

	var req sergeantScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	current, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.IsAdmin() {
		assigned, err := h.cases.IsAssigned(r.Context(), current.CaseID, user.ID, casedomain.AssignmentSergeant)
		if err != nil {
			writeError(w, err)
			return
		}
		if !assigned {
			writeError(w, errors.Forbidden("only a sergeant assigned to the case may score"))
			return
		}
	}

	i, err := h.repo.UpdateTx(r.Context(), id, func(i *Interrogation) error {
		return i.SetSergeantScore(req.SergeantScore)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("interrogation.scored", "interrogations", map[string]any{
		"interrogation_id": i.ID, "stage": "sergeant", "status": i.Status,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(i.CaseID))

	writeJSON(w, http.StatusOK, i)
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}

// CaptainDecision records the captain's decision and notes. Critical
// cases escalate to the chief regardless of the outcome.
func (h *Handler) CaptainDecision(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleCaptain) {
		writeError(w, errors.Forbidden("captain role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "interrogationID"))
	if err != nil {
		writeError(w, errors.Validation("invalid interrogation ID", nil))
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	current, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.cases.GetCase(r.Context(), current.CaseID)
	if err != nil {
		writeError(w, err)
		return
	}
	allowed, err := h.canAccessCase(r.Context(), user, c)
	if err != nil {
		writeError(w, err)
		return
	}
	if !allowed {
		writeError(w, errors.Forbidden("you do not have access to this case"))
		return
	}
	critical := c.CrimeLevel == casedomain.CrimeLevelCritical

	i, err := h.repo.DecideTx(r.Context(), id, func(i *Interrogation, hasApprovedOffender bool) error {
		return i.CaptainDecide(user.ID, req.Approve, req.Notes, critical, hasApprovedOffender)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordDecision(r.Context(), user, i, "captain", req.Approve)
	writeJSON(w, http.StatusOK, i)
}

// ChiefDecision resolves a critical-case interrogation. A rejection
// loops it back to the captain who reviewed it, with the chief's notes
// attached.
func (h *Handler) ChiefDecision(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RolePoliceChief) {
		writeError(w, errors.Forbidden("police chief role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "interrogationID"))
	if err != nil {
		writeError(w, errors.Validation("invalid interrogation ID", nil))
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	current, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.cases.GetCase(r.Context(), current.CaseID)
	if err != nil {
		writeError(w, err)
		return
	}
	allowed, err := h.canAccessCase(r.Context(), user, c)
	if err != nil {
		writeError(w, err)
		return
	}
	if !allowed {
		writeError(w, errors.Forbidden("you do not have access to this case"))
		return
	}

	i, err := h.repo.DecideTx(r.Context(), id, func(i *Interrogation, hasApprovedOffender bool) error {
		return i.ChiefDecide(req.Approve, req.Notes, hasApprovedOffender)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordDecision(r.Context(), user, i, "chief", req.Approve)

	if !req.Approve && i.CaptainReviewedBy != nil {
		h.notify(r.Context(), *i.CaptainReviewedBy, i.CaseID, "interrogation_returned_by_chief", map[string]any{
			"interrogation_id": i.ID,
			"chief_notes":      i.ChiefNotes,
		})
	}

	writeJSON(w, http.StatusOK, i)
}

func (h *Handler) recordDecision(ctx context.Context, user *auth.User, i *Interrogation, stage string, approve bool) {
	decision := "rejected"
	if approve {
		decision = "approved"
	}
	metrics.RecordInterrogationDecision(stage, decision)

	h.publish(ctx, events.NewEvent("interrogation.decided", "interrogations", map[string]any{
		"interrogation_id": i.ID, "stage": stage, "decision": decision, "status": i.Status,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(i.CaseID))

	if i.Status == StatusApproved || i.Status == StatusRejected {
		h.notify(ctx, i.CreatedBy, i.CaseID, "interrogation_resolved", map[string]any{
			"interrogation_id": i.ID,
			"status":           i.Status,
		})
	}
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
