package rbac

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository provides database operations for roles and user roles
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new rbac repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateRole creates a new custom role
func (r *Repository) CreateRole(ctx context.Context, role *Role) error {
	query := `
		INSERT INTO roles (id, name, slug, description, is_system)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		role.ID, role.Name, role.Slug, role.Description, role.IsSystem,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Validation("role with this name or slug already exists", nil)
		}
		return errors.Wrap(err, "failed to create role")
	}

	return nil
}

// GetRole retrieves a role by ID
func (r *Repository) GetRole(ctx context.Context, id types.ID) (*Role, error) {
	query := `
		SELECT id, name, slug, description, is_system, created_at, updated_at
		FROM roles WHERE id = $1`

	role := &Role{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsSystem,
		&role.CreatedAt, &role.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("role", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get role")
	}

	return role, nil
}

// GetRoleBySlug retrieves a role by slug
func (r *Repository) GetRoleBySlug(ctx context.Context, slug string) (*Role, error) {
	query := `
		SELECT id, name, slug, description, is_system, created_at, updated_at
		FROM roles WHERE slug = $1`

	role := &Role{}
	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsSystem,
		&role.CreatedAt, &role.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("role", slug)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get role by slug")
	}

	return role, nil
}

// UpdateRole updates a custom role's name and description
func (r *Repository) UpdateRole(ctx context.Context, role *Role) error {
	query := `
		UPDATE roles SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, role.ID, role.Name, role.Description)
	if err != nil {
		return errors.Wrap(err, "failed to update role")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("role", role.ID.String())
	}

	return nil
}

// DeleteRole deletes a custom role
func (r *Repository) DeleteRole(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete role")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("role", id.String())
	}

	return nil
}

// ListRoles lists all roles
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	query := `
		SELECT id, name, slug, description, is_system, created_at, updated_at
		FROM roles ORDER BY slug`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list roles")
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(
			&role.ID, &role.Name, &role.Slug, &role.Description, &role.IsSystem,
			&role.CreatedAt, &role.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan role")
		}
		roles = append(roles, role)
	}

	return roles, nil
}

// AssignRole grants a role to a user. The upsert is idempotent: a
// repeated grant returns the existing record with created=false.
func (r *Repository) AssignRole(ctx context.Context, userID types.ID, roleSlug string, assignedBy types.ID) (*UserRole, bool, error) {
	role, err := r.GetRoleBySlug(ctx, roleSlug)
	if err != nil {
		return nil, false, err
	}

	ur := &UserRole{}
	created := true
	err = r.pool.QueryRow(ctx, `
		INSERT INTO user_roles (id, user_id, role_id, assigned_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, role_id) DO NOTHING
		RETURNING id, user_id, role_id, assigned_by, assigned_at`,
		types.NewID(), userID, role.ID, assignedBy,
	).Scan(&ur.ID, &ur.UserID, &ur.RoleID, &ur.AssignedBy, &ur.AssignedAt)

	if err == pgx.ErrNoRows {
		// Conflict path: the grant already exists
		created = false
		err = r.pool.QueryRow(ctx, `
			SELECT id, user_id, role_id, assigned_by, assigned_at
			FROM user_roles WHERE user_id = $1 AND role_id = $2`,
			userID, role.ID,
		).Scan(&ur.ID, &ur.UserID, &ur.RoleID, &ur.AssignedBy, &ur.AssignedAt)
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to assign role")
	}

	ur.RoleSlug = role.Slug
	return ur, created, nil
}

// RemoveRole revokes a role from a user
func (r *Repository) RemoveRole(ctx context.Context, userID types.ID, roleSlug string) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM user_roles ur
		USING roles ro
		WHERE ur.role_id = ro.id AND ur.user_id = $1 AND ro.slug = $2`,
		userID, roleSlug,
	)
	if err != nil {
		return errors.Wrap(err, "failed to remove role")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("user role", roleSlug)
	}

	return nil
}

// GetUserRoleSlugs returns the role slugs held by a user
func (r *Repository) GetUserRoleSlugs(ctx context.Context, userID types.ID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ro.slug
		FROM user_roles ur
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ro.slug`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user roles")
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, errors.Wrap(err, "failed to scan role slug")
		}
		slugs = append(slugs, slug)
	}

	return slugs, nil
}

// UserHasRole reports whether the user holds any of the given slugs
func (r *Repository) UserHasRole(ctx context.Context, userID types.ID, slugs ...string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_roles ur
			JOIN roles ro ON ro.id = ur.role_id
			WHERE ur.user_id = $1 AND ro.slug = ANY($2)
		)`,
		userID, slugs,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check user role")
	}
	return exists, nil
}
