package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
	"github.com/police-portal/platform/internal/suspect"
)

// WantedSource resolves a person's wanted records for eligibility
// checks
type WantedSource interface {
	ListWantedByPerson(ctx context.Context, personID types.ID) ([]*suspect.WantedRecord, error)
	PersonExists(ctx context.Context, id types.ID) (bool, error)
}

// Handler provides HTTP handlers for payments
type Handler struct {
	repo    *Repository
	wanted  WantedSource
	gateway Gateway
}

// NewHandler creates a new payment handler. gateway may be nil when
// no provider is configured; payments then stay pending.
func NewHandler(repo *Repository, wanted WantedSource, gateway Gateway) *Handler {
	return &Handler{repo: repo, wanted: wanted, gateway: gateway}
}

// Routes registers the payment routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.ListOwn)
	r.Get("/{paymentID}", h.Get)

	return r
}

type createRequest struct {
	PersonID types.ID `json:"person_id"`
	Kind     Kind     `json:"kind"`
}

// Create validates eligibility and lodges a bail or fine payment with
// the gateway
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

	exists, err := h.wanted.PersonExists(r.Context(), req.PersonID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeError(w, errors.Validation("person_id does not reference a known person", nil))
		return
	}

	records, err := h.wanted.ListWantedByPerson(r.Context(), req.PersonID)
	if err != nil {
		writeError(w, err)
		return
	}

	rec, amount, err := Eligible(records, req.Kind)
	if err != nil {
		writeError(w, err)
		return
	}

	p := NewPayment(req.PersonID, rec, req.Kind, amount, user.ID)
	if err := h.repo.Create(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	if h.gateway != nil {
		ref, err := h.gateway.Charge(r.Context(), ChargeRequest{
			PaymentID: p.ID,
			Kind:      p.Kind,
			Amount:    p.Amount,
		})
		if err != nil {
			p.MarkFailed()
		} else {
			p.MarkConfirmed(ref)
		}
		if err := h.repo.Update(r.Context(), p); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, p)
}

// ListOwn returns the caller's payments
func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	payments, err := h.repo.ListByCreator(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"payments": payments, "count": len(payments)})
}

// Get returns one payment; only the creator or an administrator may
// read it
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "paymentID"))
	if err != nil {
		writeError(w, errors.Validation("invalid payment ID", nil))
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if p.CreatedBy != user.ID && !user.IsAdmin() {
		writeError(w, errors.Forbidden("you do not have access to this payment"))
		return
	}

	writeJSON(w, http.StatusOK, p)
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
