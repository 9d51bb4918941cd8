package complaint

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/events"
	"github.com/police-portal/platform/internal/shared/metrics"
	"github.com/police-portal/platform/internal/shared/types"
)

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, userID types.ID, caseID *types.ID, notifType string, payload map[string]any)
}

// Handler provides HTTP handlers for the complaint pipeline
type Handler struct {
	repo     *Repository
	roles    *rbac.Repository
	bus      events.EventBus
	notifier Notifier
}

// NewHandler creates a new complaint handler. bus and notifier may be
// nil.
func NewHandler(repo *Repository, roles *rbac.Repository, bus events.EventBus, notifier Notifier) *Handler {
	return &Handler{repo: repo, roles: roles, bus: bus, notifier: notifier}
}

// Routes registers the complaint routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/complainants/{complainantID}/review", h.ReviewComplainant)

	r.Route("/{complaintID}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/cadet-review", h.CadetReview)
		r.Post("/resubmit", h.Resubmit)
		r.Post("/officer-review", h.OfficerReview)
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

func (h *Handler) notify(ctx context.Context, userID types.ID, caseID *types.ID, notifType string, payload map[string]any) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(ctx, userID, caseID, notifType, payload)
}

type complainantRequest struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
}

type createComplaintRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	CrimeLevel   casedomain.CrimeLevel `json:"crime_level"`
	Location     string                `json:"location"`
	IncidentAt   *time.Time            `json:"incident_datetime"`
	Complainants []complainantRequest  `json:"complainants"`
}

// Create files a new complaint into the cadet queue
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req createComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	c, err := NewComplaint(req.Title, req.Description, req.CrimeLevel, req.Location, req.IncidentAt, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	var complainants []*casedomain.Complainant
	for _, cr := range req.Complainants {
		cp, err := casedomain.NewComplainant(casedomain.ComplaintOwner(c.ID), cr.FullName, cr.Phone, cr.NationalID)
		if err != nil {
			writeError(w, err)
			return
		}
		complainants = append(complainants, cp)
	}

	if err := h.repo.Create(r.Context(), c, complainants); err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordComplaintSubmitted()
	h.publish(r.Context(), events.NewEvent("complaint.submitted", "complaints", map[string]any{
		"complaint_id": c.ID,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)))

	writeJSON(w, http.StatusCreated, map[string]any{
		"complaint":    c,
		"complainants": complainants,
	})
}

// List returns complaints scoped to the caller's role: cadets get
// their review queue, officers their assigned reviews, citizens their
// own filings.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	filter := ListFilter{}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Statuses = []Status{Status(s)}
	}

	switch {
	case user.IsAdmin():
		// no scoping
	case user.HasRole(rbac.RoleCadet):
		if len(filter.Statuses) == 0 {
			filter.Statuses = []Status{StatusPendingCadet, StatusReturnedToCadet}
		}
	case rbac.IsPoliceRank(user.Roles):
		filter.AssignedOfficer = &user.ID
	default:
		filter.CreatedBy = &user.ID
	}

	complaints, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complaints": complaints, "count": len(complaints)})
}

// Get returns a single complaint
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.Validation("invalid complaint ID", nil))
		return
	}

	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if !h.canView(user, c) {
		writeError(w, errors.Forbidden("you do not have access to this complaint"))
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) canView(user *auth.User, c *Complaint) bool {
	if user.IsAdmin() || c.CreatedBy == user.ID {
		return true
	}
	return user.HasRole(rbac.RoleCadet) || rbac.IsPoliceRank(user.Roles)
}

type cadetReviewRequest struct {
	Approve   bool      `json:"approve"`
	Message   string    `json:"message,omitempty"`
	OfficerID *types.ID `json:"officer_id,omitempty"`
}

// CadetReview records the first-stage decision. Approval forwards the
// complaint to a chosen officer; a return sends it back to the creator
// and the third return voids it.
func (h *Handler) CadetReview(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleCadet) {
		writeError(w, errors.Forbidden("cadet role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.Validation("invalid complaint ID", nil))
		return
	}

	var req cadetReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if req.Approve {
		if req.OfficerID == nil {
			writeError(w, errors.Validation("officer_id is required on approval", nil))
			return
		}
		holds, err := h.roles.UserHasRole(r.Context(), *req.OfficerID, rbac.RolePoliceOfficer, rbac.RolePatrolOfficer)
		if err != nil {
			writeError(w, err)
			return
		}
		if !holds {
			writeError(w, errors.Validation("officer_id must reference an officer", nil))
			return
		}
	}

	c, err := h.repo.UpdateTx(r.Context(), id, func(c *Complaint) error {
		if req.Approve {
			return c.CadetApprove(user.ID, *req.OfficerID)
		}
		return c.CadetReturn(user.ID, req.Message)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	action := "returned"
	if req.Approve {
		action = "approved"
	} else if c.Status == StatusVoided {
		action = "voided"
	}
	metrics.RecordComplaintReview("cadet", action)
	h.publish(r.Context(), events.NewEvent("complaint.cadet_reviewed", "complaints", map[string]any{
		"complaint_id": c.ID, "action": action, "strike_count": c.StrikeCount,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)))

	if req.Approve {
		h.notify(r.Context(), *req.OfficerID, nil, "complaint_forwarded", map[string]any{
			"complaint_id": c.ID,
		})
	} else {
		h.notify(r.Context(), c.CreatedBy, nil, "complaint_"+action, map[string]any{
			"complaint_id": c.ID,
			"message":      req.Message,
			"strike_count": c.StrikeCount,
		})
	}

	writeJSON(w, http.StatusOK, c)
}

// Resubmit lets the creator correct and refile a returned complaint
func (h *Handler) Resubmit(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.Validation("invalid complaint ID", nil))
		return
	}

	var update ComplaintUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	c, err := h.repo.UpdateTx(r.Context(), id, func(c *Complaint) error {
		return c.Resubmit(user.ID, update)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("complaint.resubmitted", "complaints", map[string]any{
		"complaint_id": c.ID,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)))

	writeJSON(w, http.StatusOK, c)
}

type officerReviewRequest struct {
	Approve bool   `json:"approve"`
	Message string `json:"message,omitempty"`
}

// OfficerReview records the second-stage decision. Approval opens a
// case from the complaint in the same transaction; a return sends it
// back to the cadet queue.
func (h *Handler) OfficerReview(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !rbac.HasAnyRole(user.Roles, rbac.RolePoliceOfficer, rbac.RolePatrolOfficer) {
		writeError(w, errors.Forbidden("officer role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.Validation("invalid complaint ID", nil))
		return
	}

	var req officerReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if !req.Approve {
		c, err := h.repo.UpdateTx(r.Context(), id, func(c *Complaint) error {
			return c.OfficerReturn(user.ID, req.Message)
		})
		if err != nil {
			writeError(w, err)
			return
		}

		metrics.RecordComplaintReview("officer", "returned")
		h.publish(r.Context(), events.NewEvent("complaint.officer_reviewed", "complaints", map[string]any{
			"complaint_id": c.ID, "action": "returned",
		}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)))

		if c.AssignedCadet != nil {
			h.notify(r.Context(), *c.AssignedCadet, nil, "complaint_returned_to_cadet", map[string]any{
				"complaint_id": c.ID,
				"message":      req.Message,
			})
		}

		writeJSON(w, http.StatusOK, c)
		return
	}

	c, newCase, err := h.repo.ApproveIntoCase(r.Context(), id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecordComplaintReview("officer", "approved")
	metrics.RecordCaseCreated(string(casedomain.SourceComplaint))
	h.publish(r.Context(), events.NewEvent("complaint.approved", "complaints", map[string]any{
		"complaint_id": c.ID, "case_id": newCase.ID,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(newCase.ID))

	h.notify(r.Context(), c.CreatedBy, &newCase.ID, "complaint_approved", map[string]any{
		"complaint_id": c.ID,
		"case_id":      newCase.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{"complaint": c, "case": newCase})
}

// AddComplainant attaches another complainant to a pending complaint
func (h *Handler) AddComplainant(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.Validation("invalid complaint ID", nil))
		return
	}

	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if c.CreatedBy != user.ID && !user.IsAdmin() {
		writeError(w, errors.Forbidden("only the complaint creator may add complainants"))
		return
	}
	if c.IsTerminal() {
		writeError(w, errors.InvalidState("complaint is closed"))
		return
	}

	var req complainantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	cp, err := casedomain.NewComplainant(casedomain.ComplaintOwner(id), req.FullName, req.Phone, req.NationalID)
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

// ListComplainants returns a complaint's complainants
func (h *Handler) ListComplainants(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.Validation("invalid complaint ID", nil))
		return
	}

	c, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.canView(user, c) {
		writeError(w, errors.Forbidden("you do not have access to this complaint"))
		return
	}

	complainants, err := h.repo.ListComplainants(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"complainants": complainants, "count": len(complainants)})
}

type complainantReviewRequest struct {
	Approve bool   `json:"approve"`
	Message string `json:"message,omitempty"`
}

// ReviewComplainant records a cadet's verification decision on a
// complaint-owned complainant
func (h *Handler) ReviewComplainant(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleCadet) {
		writeError(w, errors.Forbidden("cadet role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "complainantID"))
	if err != nil {
		writeError(w, errors.Validation("invalid complainant ID", nil))
		return
	}

	var req complainantReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	cp, err := h.repo.ReviewComplainantTx(r.Context(), id, func(cp *casedomain.Complainant) error {
		return cp.Review(req.Approve, req.Message)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cp)
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
