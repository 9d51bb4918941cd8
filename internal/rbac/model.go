package rbac

import (
	"time"

	"github.com/police-portal/platform/internal/shared/types"
)

// Role slugs seeded at migration time. System roles are immutable:
// they cannot be renamed or deleted through the API.
const (
	RoleSystemAdmin   = "system-administrator"
	RolePoliceChief   = "police-chief"
	RoleCaptain       = "captain"
	RoleSergeant      = "sergeant"
	RoleDetective     = "detective"
	RolePoliceOfficer = "police-officer"
	RolePatrolOfficer = "patrol-officer"
	RoleCadet         = "cadet"
	RoleComplainant   = "complainant"
	RoleWitness       = "witness"
	RoleSuspect       = "suspect"
	RoleCriminal      = "criminal"
	RoleJudge         = "judge"
	RoleCoroner       = "coroner"
	RoleBaseUser      = "base-user"
)

// systemRoles is the fixed set of seeded role slugs
var systemRoles = map[string]bool{
	RoleSystemAdmin:   true,
	RolePoliceChief:   true,
	RoleCaptain:       true,
	RoleSergeant:      true,
	RoleDetective:     true,
	RolePoliceOfficer: true,
	RolePatrolOfficer: true,
	RoleCadet:         true,
	RoleComplainant:   true,
	RoleWitness:       true,
	RoleSuspect:       true,
	RoleCriminal:      true,
	RoleJudge:         true,
	RoleCoroner:       true,
	RoleBaseUser:      true,
}

// IsSystemRole reports whether the slug belongs to the seeded system set
func IsSystemRole(slug string) bool {
	return systemRoles[slug]
}

// Role represents a named capability tag
type Role struct {
	ID          types.ID  `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRole links a user to a role
type UserRole struct {
	ID         types.ID  `json:"id"`
	UserID     types.ID  `json:"user_id"`
	RoleID     types.ID  `json:"role_id"`
	RoleSlug   string    `json:"role_slug"`
	AssignedBy *types.ID `json:"assigned_by,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// CreateRoleRequest is the request to create a custom role
type CreateRoleRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// UpdateRoleRequest is the request to update a custom role
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AssignRoleRequest is the request to grant a role to a user
type AssignRoleRequest struct {
	UserID   types.ID `json:"user_id"`
	RoleSlug string   `json:"role_slug"`
}
