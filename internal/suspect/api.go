package suspect

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
	"github.com/police-portal/platform/internal/shared/types"
)

// CaseDirectory is the slice of the case store this module needs
type CaseDirectory interface {
	GetCase(ctx context.Context, id types.ID) (*casedomain.Case, error)
	ComplaintCreator(ctx context.Context, c *casedomain.Case) (types.ID, error)
	IsAssigned(ctx context.Context, caseID, userID types.ID, roles ...casedomain.AssignmentRole) (bool, error)
}

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, userID types.ID, caseID *types.ID, notifType string, payload map[string]any)
}

// Handler provides HTTP handlers for persons, suspect candidates and
// the wanted register
type Handler struct {
	repo     *Repository
	cases    CaseDirectory
	bus      events.EventBus
	notifier Notifier
}

// NewHandler creates a new suspect handler. bus and notifier may be
// nil.
func NewHandler(repo *Repository, cases CaseDirectory, bus events.EventBus, notifier Notifier) *Handler {
	return &Handler{repo: repo, cases: cases, bus: bus, notifier: notifier}
}

// Routes registers the authenticated suspect routes. MostWanted is
// mounted separately on the public router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/persons", h.CreatePerson)
	r.Get("/persons", h.ListPersons)
	r.Get("/persons/{personID}", h.GetPerson)

	r.Post("/candidates", h.ProposeCandidate)
	r.Get("/candidates", h.ListCandidates)
	r.Post("/candidates/{candidateID}/decision", h.DecideCandidate)

	r.Put("/wanted/{recordID}/status", h.UpdateWantedStatus)

	return r
}

func (h *Handler) publish(ctx context.Context, event events.Event) {
	if h.bus == nil {
		return
	}
	_ = h.bus.Publish(ctx, event)
}

func (h *Handler) canAccessCase(ctx context.Context, user *auth.User, c *casedomain.Case) (bool, error) {
	if user.IsAdmin() || c.CreatedBy == user.ID {
		return true, nil
	}
	complaintCreator, err := h.cases.ComplaintCreator(ctx, c)
	if err != nil {
		return false, err
	}
	if !complaintCreator.IsZero() && complaintCreator == user.ID {
		return true, nil
	}
	return h.cases.IsAssigned(ctx, c.ID, user.ID)
}

func (h *Handler) requirePolice(r *http.Request) (*auth.User, error) {
	user := auth.GetUser(r.Context())
	if user == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	if !user.IsAdmin() && !rbac.IsPoliceRank(user.Roles) {
		return nil, errors.Forbidden("policing rank required")
	}
	return user, nil
}

type createPersonRequest struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	NationalID  string     `json:"national_id,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Description string     `json:"description,omitempty"`
}

// CreatePerson adds a person to the register
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	user, err := h.requirePolice(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	p, err := NewPerson(req.FirstName, req.LastName, req.NationalID, req.DateOfBirth, req.Description, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.CreatePerson(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// ListPersons searches the persons register
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requirePolice(r); err != nil {
		writeError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	persons, err := h.repo.ListPersons(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"persons": persons, "count": len(persons)})
}

// GetPerson returns a person record
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requirePolice(r); err != nil {
		writeError(w, err)
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.Validation("invalid person ID", nil))
		return
	}

	p, err := h.repo.GetPerson(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

type proposedSuspect struct {
	PersonID    *types.ID  `json:"person_id,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	NationalID  string     `json:"national_id,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Description string     `json:"description,omitempty"`
}

type proposeCandidateRequest struct {
	CaseID    types.ID          `json:"case_id"`
	Rationale string            `json:"rationale,omitempty"`
	Suspects  []proposedSuspect `json:"suspects"`
}

// ProposeCandidate files a suspect proposal naming one or more
// persons. Each suspect is either an existing person referenced by ID
// or a new person described inline; everything lands in one
// transaction. Only a detective assigned to the case may propose.
func (h *Handler) ProposeCandidate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	var req proposeCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}
	if len(req.Suspects) == 0 {
		writeError(w, errors.Validation("at least one suspect is required", nil))
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
	if !user.IsAdmin() && !assigned {
		writeError(w, errors.Forbidden("only a detective assigned to the case may propose suspects"))
		return
	}

	var newPersons []*Person
	var candidates []*Candidate
	for _, s := range req.Suspects {
		var personID types.ID
		if s.PersonID != nil {
			exists, err := h.repo.PersonExists(r.Context(), *s.PersonID)
			if err != nil {
				writeError(w, err)
				return
			}
			if !exists {
				writeError(w, errors.Validation("person_id does not reference a known person", nil))
				return
			}
			personID = *s.PersonID
		} else {
			p, err := NewPerson(s.FirstName, s.LastName, s.NationalID, s.DateOfBirth, s.Description, user.ID)
			if err != nil {
				writeError(w, err)
				return
			}
			newPersons = append(newPersons, p)
			personID = p.ID
		}
		candidates = append(candidates, NewCandidate(req.CaseID, personID, user.ID, req.Rationale))
	}

	if err := h.repo.ProposeCandidates(r.Context(), newPersons, candidates); err != nil {
		writeError(w, err)
		return
	}

	for _, candidate := range candidates {
		h.publish(r.Context(), events.NewEvent("suspect.proposed", "suspects", map[string]any{
			"candidate_id": candidate.ID, "person_id": candidate.PersonID,
		}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(candidate.CaseID))
	}

	writeJSON(w, http.StatusCreated, map[string]any{"candidates": candidates, "count": len(candidates)})
}

// ListCandidates returns a case's suspect proposals
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requirePolice(r); err != nil {
		writeError(w, err)
		return
	}

	caseID, err := types.ParseID(r.URL.Query().Get("case_id"))
	if err != nil {
		writeError(w, errors.Validation("case_id query parameter is required", nil))
		return
	}

	candidates, err := h.repo.ListCandidates(r.Context(), caseID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates, "count": len(candidates)})
}

type decisionRequest struct {
	Approve bool   `json:"approve"`
	Message string `json:"message,omitempty"`
}

// DecideCandidate records a sergeant's decision on a suspect proposal.
// An approval opens a wanted record in the same transaction;
// re-approving a person already wanted on the case keeps their
// original record and timer. Rejections carry a message back to the
// proposing detective.
func (h *Handler) DecideCandidate(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleSergeant) {
		writeError(w, errors.Forbidden("sergeant role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "candidateID"))
	if err != nil {
		writeError(w, errors.Validation("invalid candidate ID", nil))
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	pending, err := h.repo.GetCandidate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.cases.GetCase(r.Context(), pending.CaseID)
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

	candidate, record, err := h.repo.DecideCandidateTx(r.Context(), id, func(c *Candidate) error {
		return c.Decide(req.Approve, user.ID, req.Message)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("suspect.decided", "suspects", map[string]any{
		"candidate_id": candidate.ID, "status": candidate.Status,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(candidate.CaseID))

	if h.notifier != nil {
		caseID := candidate.CaseID
		h.notifier.Notify(r.Context(), candidate.ProposedBy, &caseID, "suspect_candidate_decided", map[string]any{
			"candidate_id": candidate.ID,
			"status":       candidate.Status,
			"message":      candidate.SergeantMessage,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"candidate": candidate, "wanted_record": record})
}

type wantedStatusRequest struct {
	Status WantedStatus `json:"status"`
}

// UpdateWantedStatus moves a wanted record through its lifecycle
func (h *Handler) UpdateWantedStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.requirePolice(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "recordID"))
	if err != nil {
		writeError(w, errors.Validation("invalid record ID", nil))
		return
	}

	var req wantedStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	record, err := h.repo.UpdateWantedTx(r.Context(), id, func(rec *WantedRecord) error {
		return rec.SetStatus(req.Status)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("wanted.status_changed", "suspects", map[string]any{
		"record_id": record.ID, "status": record.Status,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)).WithCase(record.CaseID))

	writeJSON(w, http.StatusOK, record)
}

// MostWanted serves the public ranking
func (h *Handler) MostWanted(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListRankingRecords(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	entries := ComputeMostWanted(records, time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{"most_wanted": entries, "count": len(entries)})
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
