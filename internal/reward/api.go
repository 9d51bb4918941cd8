package reward

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
	"github.com/police-portal/platform/internal/suspect"
)

// RankingSource provides the wanted records the reward amount is
// computed from
type RankingSource interface {
	ListRankingRecords(ctx context.Context) ([]suspect.RankingRecord, error)
	PersonExists(ctx context.Context, id types.ID) (bool, error)
}

// CaseDirectory is the slice of the case store this module needs
type CaseDirectory interface {
	GetCase(ctx context.Context, id types.ID) (*casedomain.Case, error)
	IsAssigned(ctx context.Context, caseID, userID types.ID, roles ...casedomain.AssignmentRole) (bool, error)
}

// Handler provides HTTP handlers for tips and reward codes
type Handler struct {
	repo    *Repository
	ranking RankingSource
	cases   CaseDirectory
	bus     events.EventBus
}

// NewHandler creates a new reward handler. bus may be nil.
func NewHandler(repo *Repository, ranking RankingSource, cases CaseDirectory, bus events.EventBus) *Handler {
	return &Handler{repo: repo, ranking: ranking, cases: cases, bus: bus}
}

// Routes registers the authenticated tip review routes. SubmitTip and
// Lookup are mounted separately on the public router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/tips", h.ListTips)
	r.Get("/tips/{tipID}", h.GetTip)
	r.Post("/tips/{tipID}/officer-review", h.OfficerReview)
	r.Post("/tips/{tipID}/detective-review", h.DetectiveReview)
	r.Post("/codes/{codeID}/redeem", h.Redeem)

	return r
}

func (h *Handler) publish(ctx context.Context, event events.Event) {
	if h.bus == nil {
		return
	}
	_ = h.bus.Publish(ctx, event)
}

type submitTipRequest struct {
	PersonID   *types.ID `json:"person_id,omitempty"`
	CaseID     *types.ID `json:"case_id,omitempty"`
	Content    string    `json:"content"`
	NationalID string    `json:"national_id"`
	FullName   string    `json:"full_name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
}

// SubmitTip files a public tip. Naming a person or a case is optional;
// no account is needed and the national ID is the claim handle for any
// reward.
func (h *Handler) SubmitTip(w http.ResponseWriter, r *http.Request) {
	var req submitTipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if _, err := types.ParseNationalID(req.NationalID); err != nil {
		writeError(w, err)
		return
	}

	if req.PersonID != nil {
		exists, err := h.ranking.PersonExists(r.Context(), *req.PersonID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !exists {
			writeError(w, errors.Validation("person_id does not reference a known person", nil))
			return
		}
	}
	if req.CaseID != nil {
		if _, err := h.cases.GetCase(r.Context(), *req.CaseID); err != nil {
			if appErr, ok := err.(*errors.AppError); ok && appErr.Code == "not_found" {
				writeError(w, errors.Validation("case_id does not reference a known case", nil))
				return
			}
			writeError(w, err)
			return
		}
	}

	t, err := NewTip(req.PersonID, req.CaseID, req.Content, req.NationalID, req.FullName, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.CreateTip(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("tip.submitted", "rewards", map[string]any{
		"tip_id": t.ID, "person_id": t.PersonID,
	}))

	writeJSON(w, http.StatusCreated, t)
}

// ListTips returns the review queue scoped to the caller's rank
func (h *Handler) ListTips(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("policing rank required"))
		return
	}

	var statuses []TipStatus
	if s := r.URL.Query().Get("status"); s != "" {
		statuses = []TipStatus{TipStatus(s)}
	} else if !user.IsAdmin() {
		switch {
		case user.HasRole(rbac.RoleDetective):
			statuses = []TipStatus{TipPendingDetective}
		case rbac.HasAnyRole(user.Roles, rbac.RolePoliceOfficer, rbac.RolePatrolOfficer):
			statuses = []TipStatus{TipPendingOfficer}
		}
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	tips, err := h.repo.ListTips(r.Context(), statuses, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tips": tips, "count": len(tips)})
}

// GetTip returns a single tip
func (h *Handler) GetTip(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !rbac.IsPoliceRank(user.Roles) {
		writeError(w, errors.Forbidden("policing rank required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "tipID"))
	if err != nil {
		writeError(w, errors.Validation("invalid tip ID", nil))
		return
	}

	t, err := h.repo.GetTip(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

// OfficerReview screens a tip before it reaches a detective
func (h *Handler) OfficerReview(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !rbac.HasAnyRole(user.Roles, rbac.RolePoliceOfficer, rbac.RolePatrolOfficer) {
		writeError(w, errors.Forbidden("officer role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "tipID"))
	if err != nil {
		writeError(w, errors.Validation("invalid tip ID", nil))
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	t, err := h.repo.ReviewTipTx(r.Context(), id, func(t *Tip) error {
		return t.OfficerReview(req.Approve, user.ID)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordReview(r.Context(), t, "officer", req.Approve)
	writeJSON(w, http.StatusOK, t)
}

// DetectiveReview confirms a screened tip. Acceptance mints a reward
// code worth the person's current most-wanted reward; re-running the
// acceptance returns the already-issued code.
func (h *Handler) DetectiveReview(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !user.HasRole(rbac.RoleDetective) {
		writeError(w, errors.Forbidden("detective role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "tipID"))
	if err != nil {
		writeError(w, errors.Validation("invalid tip ID", nil))
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	current, err := h.repo.GetTip(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if current.CaseID != nil && !user.IsAdmin() {
		assigned, err := h.cases.IsAssigned(r.Context(), *current.CaseID, user.ID, casedomain.AssignmentDetective)
		if err != nil {
			writeError(w, err)
			return
		}
		if !assigned {
			writeError(w, errors.Forbidden("only a detective assigned to the case may review this tip"))
			return
		}
	}

	var amount int64
	if req.Approve {
		records, err := h.ranking.ListRankingRecords(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		amount = rewardAmount(records, current.PersonID, time.Now().UTC())
	}

	t, err := h.repo.ReviewTipTx(r.Context(), id, func(t *Tip) error {
		return t.DetectiveReview(req.Approve, user.ID)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.recordReview(r.Context(), t, "detective", req.Approve)

	var code *Code
	if req.Approve {
		var created bool
		code, created, err = h.repo.IssueCode(r.Context(), NewCode(t.ID, t.TipsterNationalID, amount))
		if err != nil {
			writeError(w, err)
			return
		}
		if created {
			metrics.RecordRewardCodeIssued()
			h.publish(r.Context(), events.NewEvent("reward.issued", "rewards", map[string]any{
				"tip_id": t.ID, "amount": code.Amount,
			}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)))
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"tip": t, "reward_code": code})
}

// rewardAmount resolves the tip's reward from the current most-wanted
// ranking. Tips with no linked person, or naming a person not on the
// list, are worth 0; the code is still minted.
func rewardAmount(records []suspect.RankingRecord, personID *types.ID, now time.Time) int64 {
	if personID == nil {
		return 0
	}
	for _, entry := range suspect.ComputeMostWanted(records, now) {
		if entry.PersonID == *personID {
			return entry.RewardAmount
		}
	}
	return 0
}

func (h *Handler) recordReview(ctx context.Context, t *Tip, stage string, approve bool) {
	decision := "rejected"
	if approve {
		decision = "approved"
	}
	metrics.RecordTipReview(stage, decision)

	h.publish(ctx, events.NewEvent("tip.reviewed", "rewards", map[string]any{
		"tip_id": t.ID, "stage": stage, "decision": decision, "status": t.Status,
	}))
}

// Lookup serves the public reward claim check by national ID and code
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	nationalID := r.URL.Query().Get("national_id")
	code := r.URL.Query().Get("code")
	if nationalID == "" || code == "" {
		writeError(w, errors.Validation("national_id and code query parameters are required", nil))
		return
	}

	c, err := h.repo.Lookup(r.Context(), nationalID, code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// Redeem marks a reward code as paid out
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !user.IsAdmin() && !rbac.HasAnyRole(user.Roles, rbac.RolePoliceOfficer, rbac.RolePatrolOfficer) {
		writeError(w, errors.Forbidden("officer role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "codeID"))
	if err != nil {
		writeError(w, errors.Validation("invalid code ID", nil))
		return
	}

	c, err := h.repo.RedeemTx(r.Context(), id, func(c *Code) error {
		return c.Redeem()
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r.Context(), events.NewEvent("reward.redeemed", "rewards", map[string]any{
		"code_id": c.ID, "amount": c.Amount,
	}).WithActor(user.ID, rbac.PrimaryRole(user.Roles)))

	writeJSON(w, http.StatusOK, c)
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
