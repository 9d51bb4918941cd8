package identity

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository provides database operations for users
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new identity repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, username, email, phone, national_id, first_name, last_name,
	is_active, is_superuser, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.Phone, &user.NationalID,
		&user.FirstName, &user.LastName, &user.IsActive, &user.Superuser,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user
func (r *Repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, email, phone, national_id, first_name, last_name, is_active, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.Phone, user.NationalID,
		user.FirstName, user.LastName, user.IsActive, user.Superuser,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Validation("user with this username, email, phone or national ID already exists", nil)
		}
		return errors.Wrap(err, "failed to create user")
	}

	return nil
}

// Get retrieves a user by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	return user, nil
}

// GetByNationalID retrieves a user by national ID
func (r *Repository) GetByNationalID(ctx context.Context, nationalID string) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE national_id = $1`, nationalID))

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", nationalID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by national ID")
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", username)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by username")
	}

	return user, nil
}
