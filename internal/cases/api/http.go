package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/identity"
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/events"
	"github.com/police-portal/platform/internal/shared/metrics"
	"github.com/police-portal/platform/internal/shared/types"
)

// Notifier delivers in-app notifications. Delivery failures never fail
// the originating request.
type Notifier interface {
	Notify(ctx context.Context, userID types.ID, caseID *types.ID, notifType string, payload map[string]any)
}

// Handler provides HTTP handlers for cases
type Handler struct {
	repo     domain.Repository
	roles    *rbac.Repository
	verifier *identity.Verifier
	bus      events.EventBus
	notifier Notifier
}

// NewHandler creates a new case handler. bus and notifier may be nil.
func NewHandler(repo domain.Repository, roles *rbac.Repository, verifier *identity.Verifier, bus events.EventBus, notifier Notifier) *Handler {
	return &Handler{repo: repo, roles: roles, verifier: verifier, bus: bus, notifier: notifier}
}

// Routes registers the case routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/pending-crime-scenes", h.ListPendingCrimeScenes)
	r.Post("/crime-scenes", h.CreateCrimeScene)
	r.Post("/reports/{reportID}/decision", h.DecideReport)

	r.Route("/{caseID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/transition", h.Transition)
		r.Get("/assignments", h.ListAssignments)
		r.Post("/assignments", h.CreateAssignment)
		r.Delete("/assignments/{userID}/{role}", h.DeleteAssignment)
		r.Get("/complainants", h.ListComplainants)
		r.Post("/complainants", h.AddComplainant)
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

func (h *Handler) actor(r *http.Request) (*auth.User, domain.Actor, error) {
	user := auth.GetUser(r.Context())
	if user == nil {
		return nil, domain.Actor{}, errors.Unauthorized("authentication required")
	}
	return user, domain.Actor{ID: user.ID, Roles: user.Roles, Admin: user.IsAdmin()}, nil
}

// List returns the cases visible to the caller
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	q := domain.VisibleQuery{
		Status:     domain.CaseStatus(r.URL.Query().Get("status")),
		SourceType: domain.SourceType(r.URL.Query().Get("source_type")),
	}
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	cases, err := h.repo.ListVisible(r.Context(), actor, q)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"cases": cases, "count": len(cases)})
}

// ListPendingCrimeScenes returns pending crime-scene cases the caller
// outranks the creator of
func (h *Handler) ListPendingCrimeScenes(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.IsAdmin() && !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("policing rank required"))
		return
	}

	pending, err := h.repo.ListPendingCrimeScene(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	visible := make([]*domain.Case, 0, len(pending))
	for _, p := range pending {
		if user.IsAdmin() || domain.PendingVisibleToSuperior(user.Roles, p.CreatorRoles, p.Case) {
			visible = append(visible, p.Case)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"cases": visible, "count": len(visible)})
}

// Get returns a case with its crime scene report and assignments
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}

	c, report, err := h.repo.GetCaseWithReport(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	allowed, err := h.canView(r.Context(), user, actor, c)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordAuthorizationDecision("case", "read", allowed)
	if !allowed {
		writeError(w, errors.Forbidden("you do not have access to this case"))
		return
	}

	assignments, err := h.repo.ListAssignments(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"case":               c,
		"crime_scene_report": report,
		"assignments":        assignments,
	})
}

// canView combines record-level access with workflow and superior
// visibility
func (h *Handler) canView(ctx context.Context, user *auth.User, actor domain.Actor, c *domain.Case) (bool, error) {
	complaintCreator, err := h.repo.ComplaintCreator(ctx, c)
	if err != nil {
		return false, err
	}
	assigned, err := h.repo.IsAssigned(ctx, c.ID, actor.ID)
	if err != nil {
		return false, err
	}

	if domain.CanAccess(actor, c, complaintCreator, assigned) {
		return true, nil
	}
	if domain.WorkflowVisible(actor.Roles, c) {
		return true, nil
	}
	if c.Status == domain.CaseStatusPendingSuperior {
		creatorRoles, err := h.roles.GetUserRoleSlugs(ctx, c.CreatedBy)
		if err != nil {
			return false, err
		}
		return domain.PendingVisibleToSuperior(user.Roles, creatorRoles, c), nil
	}
	return false, nil
}

type witnessRequest struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
}

type complainantRequest struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
}

type createCrimeSceneRequest struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	CrimeLevel   domain.CrimeLevel    `json:"crime_level"`
	Location     string               `json:"location"`
	IncidentAt   *time.Time           `json:"incident_datetime"`
	SceneAt      time.Time            `json:"scene_datetime"`
	Witnesses    []witnessRequest     `json:"witnesses"`
	Complainants []complainantRequest `json:"complainants"`
}

// CreateCrimeScene opens a case from a field report. Ranks with a
// superior in the approval chain get a pending case; the chief's
// reports activate immediately.
func (h *Handler) CreateCrimeScene(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("policing rank required to report a crime scene"))
		return
	}

	var req createCrimeSceneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}
	if req.SceneAt.IsZero() {
		writeError(w, errors.Validation("scene_datetime is required", nil))
		return
	}

	c, err := domain.NewCase(req.Title, req.Description, req.CrimeLevel, req.Location, req.IncidentAt, domain.SourceCrimeScene, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	report := &domain.CrimeSceneReport{
		ID:         types.NewID(),
		CaseID:     c.ID,
		ReportedBy: user.ID,
		SceneAt:    req.SceneAt,
		CreatedAt:  time.Now().UTC(),
	}

	requiredRole := rbac.RequiredApproverRole(user.Roles)
	if requiredRole == "" {
		c.Status = domain.CaseStatusActive
		report.Status = domain.ReportApproved
	} else {
		c.Status = domain.CaseStatusPendingSuperior
		report.Status = domain.ReportPendingApproval
		report.RequiredApproverRole = requiredRole
	}

	for _, wr := range req.Witnesses {
		resolvedName, _, err := h.verifier.VerifyWitness(r.Context(), wr.FullName, wr.Phone, wr.NationalID)
		if err != nil {
			writeError(w, err)
			return
		}
		report.Witnesses = append(report.Witnesses, domain.Witness{
			ID:         types.NewID(),
			ReportID:   report.ID,
			FullName:   resolvedName,
			Phone:      wr.Phone,
			NationalID: wr.NationalID,
		})
	}

	var complainants []*domain.Complainant
	for _, cr := range req.Complainants {
		cp, err := domain.NewComplainant(domain.CaseOwner(c.ID), cr.FullName, cr.Phone, cr.NationalID)
		if err != nil {
			writeError(w, err)
			return
		}
		complainants = append(complainants, cp)
	}

	if err := h.repo.CreateCaseWithReport(r.Context(), c, report, complainants); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseCreated(string(domain.SourceCrimeScene))
	h.publish(r.Context(), events.NewEvent("case.created", "cases", map[string]any{
		"case_id": c.ID, "status": c.Status, "source_type": c.SourceType,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(c.ID))

	writeJSON(w, http.StatusCreated, map[string]any{
		"case":               c,
		"crime_scene_report": report,
		"complainants":       complainants,
	})
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Message string `json:"message,omitempty"`
}

// DecideReport records a superior's decision on a pending crime scene
// report and moves the case accordingly
func (h *Handler) DecideReport(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	reportID, err := types.ParseID(chi.URLParam(r, "reportID"))
	if err != nil {
		writeError(w, errors.Validation("invalid report ID", nil))
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	report, c, err := h.repo.DecideReport(r.Context(), reportID, func(report *domain.CrimeSceneReport, c *domain.Case) error {
		if err := report.Decide(req.Approve, user.ID, user.Roles); err != nil {
			return err
		}
		if req.Approve {
			return c.TransitionTo(domain.CaseStatusActive)
		}
		return c.TransitionTo(domain.CaseStatusVoided)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseStatusChange(string(domain.CaseStatusPendingSuperior), string(c.Status))
	h.publish(r.Context(), events.NewEvent("crime_scene.decided", "cases", map[string]any{
		"report_id": report.ID, "approved": req.Approve, "case_status": c.Status,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(c.ID))

	decision := "approved"
	if !req.Approve {
		decision = "rejected"
	}
	h.notify(r.Context(), report.ReportedBy, c.ID, "crime_scene_decided", map[string]any{
		"report_id": report.ID,
		"decision":  decision,
		"message":   req.Message,
	})

	writeJSON(w, http.StatusOK, map[string]any{"crime_scene_report": report, "case": c})
}

type transitionRequest struct {
	Status domain.CaseStatus `json:"status"`
}

// Transition closes or voids a case. The caller needs a policing rank
// plus record-level access; the table in the domain rejects illegal
// moves.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	user, actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if !user.IsAdmin() && !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("policing rank required to transition a case"))
		return
	}

	c, err := h.repo.GetCase(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	complaintCreator, err := h.repo.ComplaintCreator(r.Context(), c)
	if err != nil {
		writeError(w, err)
		return
	}
	assigned, err := h.repo.IsAssigned(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	allowed := domain.CanAccess(actor, c, complaintCreator, assigned)
	metrics.RecordAuthorizationDecision("case", "transition", allowed)
	if !allowed {
		writeError(w, errors.Forbidden("you do not have access to this case"))
		return
	}

	var from domain.CaseStatus
	c, err = h.repo.TransitionCase(r.Context(), id, func(c *domain.Case) error {
		from = c.Status
		return c.TransitionTo(req.Status)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordCaseStatusChange(string(from), string(c.Status))
	h.publish(r.Context(), events.NewEvent("case.status_changed", "cases", map[string]any{
		"case_id": c.ID, "from": from, "to": c.Status,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(c.ID))

	writeJSON(w, http.StatusOK, c)
}

type createAssignmentRequest struct {
	UserID     types.ID              `json:"user_id"`
	RoleInCase domain.AssignmentRole `json:"role_in_case"`
}

// CreateAssignment puts a user on a case in a given capacity.
// Idempotent: repeating an identical assignment returns the existing
// record.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.IsAdmin() && !rbac.HasAnyRole(user.Roles, rbac.ManagerialRoles...) {
		writeError(w, errors.Forbidden("managerial rank required to assign users"))
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}

	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}
	if !req.RoleInCase.IsValid() {
		writeError(w, errors.Validation("unknown assignment role", map[string]string{
			"role_in_case": "must be detective, officer or sergeant",
		}))
		return
	}

	if _, err := h.repo.GetCase(r.Context(), caseID); err != nil {
		writeError(w, err)
		return
	}

	holds, err := h.roles.UserHasRole(r.Context(), req.UserID, domain.RequiredSystemRoles[req.RoleInCase]...)
	if err != nil {
		writeError(w, err)
		return
	}
	if !holds {
		writeError(w, errors.Validation("user does not hold a role eligible for this assignment", nil))
		return
	}

	assignment := &domain.CaseAssignment{
		ID:         types.NewID(),
		CaseID:     caseID,
		UserID:     req.UserID,
		RoleInCase: req.RoleInCase,
		AssignedAt: time.Now().UTC(),
	}

	saved, created, err := h.repo.UpsertAssignment(r.Context(), assignment)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.publish(r.Context(), events.NewEvent("assignment.created", "cases", map[string]any{
			"case_id": caseID, "user_id": req.UserID, "role_in_case": req.RoleInCase,
		}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(caseID))
		h.notify(r.Context(), req.UserID, caseID, "case_assigned", map[string]any{
			"role_in_case": req.RoleInCase,
		})
	}

	writeJSON(w, status, saved)
}

// DeleteAssignment takes a user off a case
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.IsAdmin() && !rbac.HasAnyRole(user.Roles, rbac.ManagerialRoles...) {
		writeError(w, errors.Forbidden("managerial rank required to remove assignments"))
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}
	userID, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.Validation("invalid user ID", nil))
		return
	}
	role := domain.AssignmentRole(chi.URLParam(r, "role"))
	if !role.IsValid() {
		writeError(w, errors.Validation("unknown assignment role", nil))
		return
	}

	if err := h.repo.DeleteAssignment(r.Context(), caseID, userID, role); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAssignments returns the assignment registry for a case
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	user, actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}

	c, err := h.repo.GetCase(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}
	allowed, err := h.canView(r.Context(), user, actor, c)
	if err != nil {
		writeError(w, err)
		return
	}
	if !allowed {
		writeError(w, errors.Forbidden("you do not have access to this case"))
		return
	}

	assignments, err := h.repo.ListAssignments(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments, "count": len(assignments)})
}

// AddComplainant attaches a complainant directly to a case. Case-owned
// complainants skip cadet review.
func (h *Handler) AddComplainant(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.IsAdmin() && !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("policing rank required"))
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}

	var req complainantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if _, err := h.repo.GetCase(r.Context(), caseID); err != nil {
		writeError(w, err)
		return
	}

	cp, err := domain.NewComplainant(domain.CaseOwner(caseID), req.FullName, req.Phone, req.NationalID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.AddComplainant(r.Context(), cp); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cp)
}

// ListComplainants returns a case's complainants
func (h *Handler) ListComplainants(w http.ResponseWriter, r *http.Request) {
	user, actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}

	caseID, err := types.ParseID(chi.URLParam(r, "caseID"))
	if err != nil {
		writeError(w, errors.Validation("invalid case ID", nil))
		return
	}

	c, err := h.repo.GetCase(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}
	allowed, err := h.canView(r.Context(), user, actor, c)
	if err != nil {
		writeError(w, err)
		return
	}
	if !allowed {
		writeError(w, errors.Forbidden("you do not have access to this case"))
		return
	}

	complainants, err := h.repo.ListComplainants(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complainants": complainants, "count": len(complainants)})
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
