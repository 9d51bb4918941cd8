package rbac

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/police-portal/platform/internal/shared/auth"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Handler provides HTTP handlers for role administration
type Handler struct {
	repo *Repository
}

// NewHandler creates a new rbac handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Routes registers the role administration routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.ListRoles)
		r.Post("/", h.CreateRole)

		r.Route("/{roleID}", func(r chi.Router) {
			r.Get("/", h.GetRole)
			r.Put("/", h.UpdateRole)
			r.Delete("/", h.DeleteRole)
		})
	})

	r.Route("/user-roles", func(r chi.Router) {
		r.Post("/", h.AssignRole)
		r.Delete("/", h.RemoveRole)
	})

	r.Get("/users/{userID}/roles", h.ListUserRoles)

	return r
}

func requireAdmin(r *http.Request) (*auth.User, error) {
	user := auth.GetUser(r.Context())
	if user == nil {
		return nil, errors.Unauthorized("authentication required")
	}
	if !user.IsAdmin() {
		return nil, errors.Forbidden("administrator role required")
	}
	return user, nil
}

// ListRoles lists all roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}

	roles, err := h.repo.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": roles})
}

// GetRole gets a role by ID
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, errors.Validation("invalid role ID", nil))
		return
	}

	role, err := h.repo.GetRole(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// CreateRole creates a custom role
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}

	var req CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if req.Name == "" || req.Slug == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"name": "name is required",
			"slug": "slug is required",
		}))
		return
	}

	if IsSystemRole(req.Slug) {
		writeError(w, errors.Validation("slug is reserved for a system role", map[string]string{
			"slug": req.Slug,
		}))
		return
	}

	role := &Role{
		ID:          types.NewID(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		IsSystem:    false,
	}

	if err := h.repo.CreateRole(r.Context(), role); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, role)
}

// UpdateRole updates a custom role
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, errors.Validation("invalid role ID", nil))
		return
	}

	role, err := h.repo.GetRole(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if role.IsSystem {
		writeError(w, errors.InvalidState("system roles cannot be modified"))
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if req.Name != nil {
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}

	if err := h.repo.UpdateRole(r.Context(), role); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// DeleteRole deletes a custom role
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}

	id, err := types.ParseID(chi.URLParam(r, "roleID"))
	if err != nil {
		writeError(w, errors.Validation("invalid role ID", nil))
		return
	}

	role, err := h.repo.GetRole(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if role.IsSystem {
		writeError(w, errors.InvalidState("system roles cannot be deleted"))
		return
	}

	if err := h.repo.DeleteRole(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignRole grants a role to a user
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	admin, err := requireAdmin(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if req.UserID.IsZero() || req.RoleSlug == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"user_id":   "user_id is required",
			"role_slug": "role_slug is required",
		}))
		return
	}

	ur, created, err := h.repo.AssignRole(r.Context(), req.UserID, req.RoleSlug, admin.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, ur)
}

// RemoveRole revokes a role from a user
func (h *Handler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}

	var req AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Validation("invalid request body", nil))
		return
	}

	if err := h.repo.RemoveRole(r.Context(), req.UserID, req.RoleSlug); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListUserRoles lists the role slugs held by a user
func (h *Handler) ListUserRoles(w http.ResponseWriter, r *http.Request) {
	if _, err := requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}

	userID, err := types.ParseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, errors.Validation("invalid user ID", nil))
		return
	}

	slugs, err := h.repo.GetUserRoleSlugs(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": slugs})
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
