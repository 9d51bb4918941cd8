package complaint

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository persists complaints and their complainants
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new complaint repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const complaintColumns = `id, title, description, crime_level, location, incident_at,
	status, strike_count, last_message, assigned_cadet, assigned_officer,
	created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*Complaint, error) {
	c := &Complaint{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.CrimeLevel, &c.Location, &c.IncidentAt,
		&c.Status, &c.StrikeCount, &c.LastMessage, &c.AssignedCadet, &c.AssignedOfficer,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create persists a complaint and its initial complainants in one
// transaction
func (r *Repository) Create(ctx context.Context, c *Complaint, complainants []*casedomain.Complainant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO complaints (
			id, title, description, crime_level, location, incident_at,
			status, strike_count, last_message, assigned_cadet, assigned_officer,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Title, c.Description, c.CrimeLevel, c.Location, c.IncidentAt,
		c.Status, c.StrikeCount, c.LastMessage, c.AssignedCadet, c.AssignedOfficer,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save complaint")
	}

	for _, cp := range complainants {
		_, err = tx.Exec(ctx, `
			INSERT INTO complainants (
				id, owner_kind, owner_id, full_name, phone, national_id,
				is_verified, verification_status, review_message, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			cp.ID, cp.Owner.Kind, cp.Owner.ID, cp.FullName, cp.Phone, cp.NationalID,
			cp.IsVerified, cp.Verification, cp.ReviewMessage, cp.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to save complainant")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Get fetches a complaint by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1`, complaintColumns)

	c, err := scanComplaint(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complaint", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find complaint")
	}
	return c, nil
}

// ListFilter narrows complaint listings
type ListFilter struct {
	Statuses        []Status
	CreatedBy       *types.ID
	AssignedOfficer *types.ID
	Limit           int
	Offset          int
}

// List lists complaints matching the filter, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]*Complaint, error) {
	var conditions []string
	var args []any
	argNum := 1

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argNum))
		args = append(args, statuses)
		argNum++
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", argNum))
		args = append(args, *filter.CreatedBy)
		argNum++
	}
	if filter.AssignedOfficer != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_officer = $%d", argNum))
		args = append(args, *filter.AssignedOfficer)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s FROM complaints
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, complaintColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list complaints")
	}
	defer rows.Close()

	var complaints []*Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan complaint")
		}
		complaints = append(complaints, c)
	}
	return complaints, nil
}

// UpdateTx locks the complaint row, applies fn, and persists the result
func (r *Repository) UpdateTx(ctx context.Context, id types.ID, fn func(*Complaint) error) (*Complaint, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	c, err := lockComplaint(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	if err := updateComplaint(ctx, tx, c); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return c, nil
}

func lockComplaint(ctx context.Context, tx pgx.Tx, id types.ID) (*Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id = $1 FOR UPDATE`, complaintColumns)

	c, err := scanComplaint(tx.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complaint", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock complaint")
	}
	return c, nil
}

func updateComplaint(ctx context.Context, tx pgx.Tx, c *Complaint) error {
	_, err := tx.Exec(ctx, `
		UPDATE complaints SET
			title = $2, description = $3, crime_level = $4, location = $5, incident_at = $6,
			status = $7, strike_count = $8, last_message = $9,
			assigned_cadet = $10, assigned_officer = $11, updated_at = $12
		WHERE id = $1`,
		c.ID, c.Title, c.Description, c.CrimeLevel, c.Location, c.IncidentAt,
		c.Status, c.StrikeCount, c.LastMessage,
		c.AssignedCadet, c.AssignedOfficer, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update complaint")
	}
	return nil
}

// ApproveIntoCase runs the officer approval as one transaction: the
// complaint is approved, a case opens from it, verified complainants
// carry over, and the officer is assigned to the new case.
func (r *Repository) ApproveIntoCase(ctx context.Context, id, officerID types.ID) (*Complaint, *casedomain.Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	c, err := lockComplaint(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT verification_status FROM complainants
		WHERE owner_kind = 'complaint' AND owner_id = $1
		ORDER BY created_at`, id)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load complainant statuses")
	}
	var statuses []casedomain.VerificationStatus
	for rows.Next() {
		var s casedomain.VerificationStatus
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return nil, nil, errors.Wrap(err, "failed to scan complainant status")
		}
		statuses = append(statuses, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to load complainant statuses")
	}

	if err := CheckComplainants(statuses); err != nil {
		return nil, nil, err
	}

	if err := c.OfficerApprove(officerID); err != nil {
		return nil, nil, err
	}

	newCase, err := casedomain.NewCase(c.Title, c.Description, c.CrimeLevel, c.Location, c.IncidentAt, casedomain.SourceComplaint, officerID)
	if err != nil {
		return nil, nil, err
	}
	newCase.ComplaintID = &c.ID

	_, err = tx.Exec(ctx, `
		INSERT INTO cases (
			id, title, description, crime_level, location, incident_at,
			status, source_type, complaint_id, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		newCase.ID, newCase.Title, newCase.Description, newCase.CrimeLevel, newCase.Location, newCase.IncidentAt,
		newCase.Status, newCase.SourceType, newCase.ComplaintID, newCase.CreatedBy, newCase.CreatedAt, newCase.UpdatedAt,
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to save case")
	}

	// Approved complainants carry over as auto-approved case parties
	_, err = tx.Exec(ctx, `
		INSERT INTO complainants (
			id, owner_kind, owner_id, full_name, phone, national_id,
			is_verified, verification_status, review_message, created_at
		)
		SELECT gen_random_uuid(), 'case', $2, full_name, phone, national_id,
			TRUE, 'approved', '', $3
		FROM complainants
		WHERE owner_kind = 'complaint' AND owner_id = $1 AND verification_status = 'approved'`,
		c.ID, newCase.ID, time.Now().UTC(),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to carry over complainants")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO case_assignments (id, case_id, user_id, role_in_case, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (case_id, user_id, role_in_case) DO NOTHING`,
		types.NewID(), newCase.ID, officerID, casedomain.AssignmentOfficer, time.Now().UTC(),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to assign officer")
	}

	if err := updateComplaint(ctx, tx, c); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "failed to commit transaction")
	}
	return c, newCase, nil
}

// AddComplainant attaches a complainant to a complaint
func (r *Repository) AddComplainant(ctx context.Context, c *casedomain.Complainant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO complainants (
			id, owner_kind, owner_id, full_name, phone, national_id,
			is_verified, verification_status, review_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Owner.Kind, c.Owner.ID, c.FullName, c.Phone, c.NationalID,
		c.IsVerified, c.Verification, c.ReviewMessage, c.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save complainant")
	}
	return nil
}

// ListComplainants returns the complainants owned by a complaint
func (r *Repository) ListComplainants(ctx context.Context, complaintID types.ID) ([]*casedomain.Complainant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_kind, owner_id, full_name, phone, national_id,
			is_verified, verification_status, review_message, created_at
		FROM complainants
		WHERE owner_kind = 'complaint' AND owner_id = $1
		ORDER BY created_at`, complaintID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list complainants")
	}
	defer rows.Close()

	var complainants []*casedomain.Complainant
	for rows.Next() {
		c := &casedomain.Complainant{}
		err := rows.Scan(
			&c.ID, &c.Owner.Kind, &c.Owner.ID, &c.FullName, &c.Phone, &c.NationalID,
			&c.IsVerified, &c.Verification, &c.ReviewMessage, &c.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan complainant")
		}
		complainants = append(complainants, c)
	}
	return complainants, nil
}

// ReviewComplainantTx locks a complainant row, applies fn, and persists
// the verification outcome
func (r *Repository) ReviewComplainantTx(ctx context.Context, id types.ID, fn func(*casedomain.Complainant) error) (*casedomain.Complainant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	c := &casedomain.Complainant{}
	err = tx.QueryRow(ctx, `
		SELECT id, owner_kind, owner_id, full_name, phone, national_id,
			is_verified, verification_status, review_message, created_at
		FROM complainants
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&c.ID, &c.Owner.Kind, &c.Owner.ID, &c.FullName, &c.Phone, &c.NationalID,
		&c.IsVerified, &c.Verification, &c.ReviewMessage, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("complainant", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock complainant")
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE complainants
		SET is_verified = $2, verification_status = $3, review_message = $4
		WHERE id = $1`,
		c.ID, c.IsVerified, c.Verification, c.ReviewMessage,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update complainant")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return c, nil
}
