package identity

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the identity module
type Handler struct {
	repo     *Repository
	roles    *rbac.Repository
	verifier *Verifier
}

// NewHandler creates a new identity handler
func NewHandler(repo *Repository, roles *rbac.Repository, verifier *Verifier) *Handler {
	return &Handler{repo: repo, roles: roles, verifier: verifier}
}

// Routes registers the identity routes. Register is mounted separately
// on the public router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me", h.Me)
	r.Get("/users/{userID}", h.GetUser)

	return r
}

// Register creates a new account and grants the base-user role
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	details := map[string]string{}
	if req.Username == "" {
		details["username"] = "username is required"
	}
	if req.Email == "" {
		details["email"] = "email is required"
	}
	if req.Phone == "" {
		details["phone"] = "phone is required"
	}
	if req.NationalID == "" {
		details["national_id"] = "national_id is required"
	}
	if len(details) > 0 {
		writeError(w, errors.Validation("validation failed", details))
		return
	}

	if err := h.verifier.VerifyRegistration(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	user := &User{
		ID:         types.NewID(),
		Username:   req.Username,
		Email:      req.Email,
		Phone:      req.Phone,
		NationalID: req.NationalID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		IsActive:   true,
	}

	if err := h.repo.Create(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	if _, _, err := h.roles.AssignRole(r.Context(), user.ID, rbac.RoleBaseUser, user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Me returns the calling user's profile and role slugs
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUser(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	user, err := h.repo.Get(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	slugs, err := h.roles.GetUserRoleSlugs(r.Context(), actor.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user,
		"roles": slugs,
	})
}

// GetUser returns a user profile (staff only)
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.GetUser(r.Context())
	if actor == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}
	if !actor.IsAdmin() && !rbac.IsPoliceRank(actor.Roles) && !actor.HasRole(rbac.RoleCadet) {
		writeError(w, errors.Forbidden("staff role required"))
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.Validation("invalid user ID", nil))
		return
	}

	user, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
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
