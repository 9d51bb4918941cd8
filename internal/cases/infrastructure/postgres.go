package infrastructure

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// PostgresRepository implements domain.Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const caseColumns = `id, title, description, crime_level, location, incident_at,
	status, source_type, complaint_id, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*domain.Case, error) {
	c := &domain.Case{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.CrimeLevel, &c.Location, &c.IncidentAt,
		&c.Status, &c.SourceType, &c.ComplaintID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCase fetches a case by ID
func (r *PostgresRepository) GetCase(ctx context.Context, id types.ID) (*domain.Case, error) {
	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1`, caseColumns)

	c, err := scanCase(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find case")
	}
	return c, nil
}

// GetCaseWithReport fetches a case together with its crime scene report
func (r *PostgresRepository) GetCaseWithReport(ctx context.Context, id types.ID) (*domain.Case, *domain.CrimeSceneReport, error) {
	c, err := r.GetCase(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	report := &domain.CrimeSceneReport{}
	err = r.pool.QueryRow(ctx, `
		SELECT id, case_id, reported_by, scene_at, status,
			required_approver_role, approved_by, approved_at, created_at
		FROM crime_scene_reports
		WHERE case_id = $1`, id).Scan(
		&report.ID, &report.CaseID, &report.ReportedBy, &report.SceneAt, &report.Status,
		&report.RequiredApproverRole, &report.ApprovedBy, &report.ApprovedAt, &report.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return c, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to find crime scene report")
	}

	witnesses, err := r.getWitnesses(ctx, report.ID)
	if err != nil {
		return nil, nil, err
	}
	report.Witnesses = witnesses

	return c, report, nil
}

func (r *PostgresRepository) getWitnesses(ctx context.Context, reportID types.ID) ([]domain.Witness, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, report_id, full_name, phone, national_id
		FROM crime_scene_witnesses
		WHERE report_id = $1
		ORDER BY full_name`, reportID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get witnesses")
	}
	defer rows.Close()

	var witnesses []domain.Witness
	for rows.Next() {
		var w domain.Witness
		if err := rows.Scan(&w.ID, &w.ReportID, &w.FullName, &w.Phone, &w.NationalID); err != nil {
			return nil, errors.Wrap(err, "failed to scan witness")
		}
		witnesses = append(witnesses, w)
	}
	return witnesses, nil
}

// CreateCaseWithReport persists a case, its crime scene report and
// witnesses, and any initial complainants in one transaction
func (r *PostgresRepository) CreateCaseWithReport(ctx context.Context, c *domain.Case, report *domain.CrimeSceneReport, complainants []*domain.Complainant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO cases (
			id, title, description, crime_level, location, incident_at,
			status, source_type, complaint_id, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Title, c.Description, c.CrimeLevel, c.Location, c.IncidentAt,
		c.Status, c.SourceType, c.ComplaintID, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save case")
	}

	if report != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO crime_scene_reports (
				id, case_id, reported_by, scene_at, status,
				required_approver_role, approved_by, approved_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			report.ID, report.CaseID, report.ReportedBy, report.SceneAt, report.Status,
			report.RequiredApproverRole, report.ApprovedBy, report.ApprovedAt, report.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to save crime scene report")
		}

		for _, w := range report.Witnesses {
			_, err = tx.Exec(ctx, `
				INSERT INTO crime_scene_witnesses (id, report_id, full_name, phone, national_id)
				VALUES ($1, $2, $3, $4, $5)`,
				w.ID, w.ReportID, w.FullName, w.Phone, w.NationalID,
			)
			if err != nil {
				return errors.Wrap(err, "failed to save witness")
			}
		}
	}

	for _, cp := range complainants {
		if err := insertComplainant(ctx, tx, cp); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func insertComplainant(ctx context.Context, tx pgx.Tx, c *domain.Complainant) error {
	_, err := tx.Exec(ctx, `
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

// TransitionCase locks the case row, applies fn, and persists the
// resulting status
func (r *PostgresRepository) TransitionCase(ctx context.Context, id types.ID, fn func(*domain.Case) error) (*domain.Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1 FOR UPDATE`, caseColumns)
	c, err := scanCase(tx.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("case", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock case")
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE cases SET status = $2, updated_at = $3 WHERE id = $1`,
		c.ID, c.Status, c.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update case")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return c, nil
}

// DecideReport locks the report and its case in one transaction,
// applies fn to both, and persists the outcome
func (r *PostgresRepository) DecideReport(ctx context.Context, reportID types.ID, fn func(*domain.CrimeSceneReport, *domain.Case) error) (*domain.CrimeSceneReport, *domain.Case, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	report := &domain.CrimeSceneReport{}
	err = tx.QueryRow(ctx, `
		SELECT id, case_id, reported_by, scene_at, status,
			required_approver_role, approved_by, approved_at, created_at
		FROM crime_scene_reports
		WHERE id = $1
		FOR UPDATE`, reportID).Scan(
		&report.ID, &report.CaseID, &report.ReportedBy, &report.SceneAt, &report.Status,
		&report.RequiredApproverRole, &report.ApprovedBy, &report.ApprovedAt, &report.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil, errors.NotFound("crime scene report", reportID.String())
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to lock crime scene report")
	}

	query := fmt.Sprintf(`SELECT %s FROM cases WHERE id = $1 FOR UPDATE`, caseColumns)
	c, err := scanCase(tx.QueryRow(ctx, query, report.CaseID))
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to lock case")
	}

	if err := fn(report, c); err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE crime_scene_reports
		SET status = $2, approved_by = $3, approved_at = $4
		WHERE id = $1`,
		report.ID, report.Status, report.ApprovedBy, report.ApprovedAt,
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to update crime scene report")
	}

	_, err = tx.Exec(ctx,
		`UPDATE cases SET status = $2, updated_at = $3 WHERE id = $1`,
		c.ID, c.Status, c.UpdatedAt,
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to update case")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, errors.Wrap(err, "failed to commit transaction")
	}
	return report, c, nil
}

// ComplaintCreator returns the creator of the case's originating
// complaint, or the zero ID when the case has none
func (r *PostgresRepository) ComplaintCreator(ctx context.Context, c *domain.Case) (types.ID, error) {
	if c.ComplaintID == nil {
		return types.ID(""), nil
	}

	var creator types.ID
	err := r.pool.QueryRow(ctx,
		`SELECT created_by FROM complaints WHERE id = $1`, *c.ComplaintID).Scan(&creator)
	if err == pgx.ErrNoRows {
		return types.ID(""), nil
	}
	if err != nil {
		return types.ID(""), errors.Wrap(err, "failed to find complaint creator")
	}
	return creator, nil
}

// UpsertAssignment records an assignment. Repeating an identical
// assignment returns the existing row unchanged.
func (r *PostgresRepository) UpsertAssignment(ctx context.Context, a *domain.CaseAssignment) (*domain.CaseAssignment, bool, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO case_assignments (id, case_id, user_id, role_in_case, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (case_id, user_id, role_in_case) DO NOTHING
		RETURNING id, assigned_at`,
		a.ID, a.CaseID, a.UserID, a.RoleInCase, a.AssignedAt,
	).Scan(&a.ID, &a.AssignedAt)

	if err == nil {
		return a, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, errors.Wrap(err, "failed to save assignment")
	}

	existing := &domain.CaseAssignment{}
	err = r.pool.QueryRow(ctx, `
		SELECT id, case_id, user_id, role_in_case, assigned_at
		FROM case_assignments
		WHERE case_id = $1 AND user_id = $2 AND role_in_case = $3`,
		a.CaseID, a.UserID, a.RoleInCase,
	).Scan(&existing.ID, &existing.CaseID, &existing.UserID, &existing.RoleInCase, &existing.AssignedAt)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to load existing assignment")
	}
	return existing, false, nil
}

// DeleteAssignment removes an assignment
func (r *PostgresRepository) DeleteAssignment(ctx context.Context, caseID, userID types.ID, role domain.AssignmentRole) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM case_assignments
		WHERE case_id = $1 AND user_id = $2 AND role_in_case = $3`,
		caseID, userID, role,
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete assignment")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("assignment", fmt.Sprintf("%s/%s/%s", caseID, userID, role))
	}
	return nil
}

// ListAssignments returns all assignments for a case
func (r *PostgresRepository) ListAssignments(ctx context.Context, caseID types.ID) ([]*domain.CaseAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, case_id, user_id, role_in_case, assigned_at
		FROM case_assignments
		WHERE case_id = $1
		ORDER BY assigned_at`, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assignments")
	}
	defer rows.Close()

	var assignments []*domain.CaseAssignment
	for rows.Next() {
		a := &domain.CaseAssignment{}
		if err := rows.Scan(&a.ID, &a.CaseID, &a.UserID, &a.RoleInCase, &a.AssignedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan assignment")
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// IsAssigned reports whether the user holds any assignment on the case
func (r *PostgresRepository) IsAssigned(ctx context.Context, caseID, userID types.ID, roles ...domain.AssignmentRole) (bool, error) {
	query := `SELECT COUNT(*) FROM case_assignments WHERE case_id = $1 AND user_id = $2`
	args := []any{caseID, userID}

	if len(roles) > 0 {
		slugs := make([]string, len(roles))
		for i, role := range roles {
			slugs[i] = string(role)
		}
		query += ` AND role_in_case = ANY($3)`
		args = append(args, slugs)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, errors.Wrap(err, "failed to check assignment")
	}
	return count > 0, nil
}

// ListVisible returns the cases an actor can see. Ownership and
// assignment grant access regardless of status; the workflow arm only
// yields statuses visible to the actor's rank.
func (r *PostgresRepository) ListVisible(ctx context.Context, actor domain.Actor, q domain.VisibleQuery) ([]*domain.Case, error) {
	var conditions []string
	var args []any
	argNum := 1

	if !actor.Admin {
		visibility := []string{
			fmt.Sprintf("c.created_by = $%d", argNum),
			fmt.Sprintf("EXISTS (SELECT 1 FROM case_assignments a WHERE a.case_id = c.id AND a.user_id = $%d)", argNum),
			fmt.Sprintf("EXISTS (SELECT 1 FROM complaints cp WHERE cp.id = c.complaint_id AND cp.created_by = $%d)", argNum),
		}
		args = append(args, actor.ID)
		argNum++

		statuses := make([]string, len(domain.WorkflowVisibleStatuses))
		for i, s := range domain.WorkflowVisibleStatuses {
			statuses[i] = string(s)
		}

		switch {
		case rbac.IsPoliceRank(actor.Roles):
			visibility = append(visibility, fmt.Sprintf("c.status = ANY($%d)", argNum))
			args = append(args, statuses)
			argNum++

			// Pending crime scenes surface only to ranks strictly
			// senior to the creator's primary rank.
			if junior := rbac.JuniorRanks(actor.Roles); len(junior) > 0 {
				visibility = append(visibility, fmt.Sprintf(`(c.status = $%d AND c.source_type = $%d
					AND EXISTS (SELECT 1 FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
						WHERE ur.user_id = c.created_by AND ro.slug = ANY($%d))
					AND NOT EXISTS (SELECT 1 FROM user_roles ur JOIN roles ro ON ro.id = ur.role_id
						WHERE ur.user_id = c.created_by AND ro.slug = ANY($%d)))`,
					argNum, argNum+1, argNum+2, argNum+3))
				args = append(args, string(domain.CaseStatusPendingSuperior), string(domain.SourceCrimeScene),
					junior, rbac.SeniorOrEqualRanks(actor.Roles))
				argNum += 4
			}
		case rbac.HasAnyRole(actor.Roles, rbac.RoleCadet):
			visibility = append(visibility,
				fmt.Sprintf("(c.status = ANY($%d) AND c.source_type = 'complaint')", argNum))
			args = append(args, statuses)
			argNum++
		}

		conditions = append(conditions, "("+strings.Join(visibility, " OR ")+")")
	}

	if q.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", argNum))
		args = append(args, q.Status)
		argNum++
	}
	if q.SourceType != "" {
		conditions = append(conditions, fmt.Sprintf("c.source_type = $%d", argNum))
		args = append(args, q.SourceType)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := 50
	if q.Limit > 0 && q.Limit <= 100 {
		limit = q.Limit
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.title, c.description, c.crime_level, c.location, c.incident_at,
			c.status, c.source_type, c.complaint_id, c.created_by, c.created_at, c.updated_at
		FROM cases c
		%s
		ORDER BY c.created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)
	args = append(args, limit, q.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cases")
	}
	defer rows.Close()

	var cases []*domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan case")
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// ListPendingCrimeScene returns crime-scene cases awaiting superior
// approval, each with its creator's role slugs
func (r *PostgresRepository) ListPendingCrimeScene(ctx context.Context) ([]*domain.PendingCase, error) {
	query := `
		SELECT c.id, c.title, c.description, c.crime_level, c.location, c.incident_at,
			c.status, c.source_type, c.complaint_id, c.created_by, c.created_at, c.updated_at,
			COALESCE(array_agg(ro.slug) FILTER (WHERE ro.slug IS NOT NULL), '{}')
		FROM cases c
		LEFT JOIN user_roles ur ON ur.user_id = c.created_by
		LEFT JOIN roles ro ON ro.id = ur.role_id
		WHERE c.status = $1 AND c.source_type = $2
		GROUP BY c.id
		ORDER BY c.created_at`

	rows, err := r.pool.Query(ctx, query, domain.CaseStatusPendingSuperior, domain.SourceCrimeScene)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending cases")
	}
	defer rows.Close()

	var pending []*domain.PendingCase
	for rows.Next() {
		c := &domain.Case{}
		var roles []string
		err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.CrimeLevel, &c.Location, &c.IncidentAt,
			&c.Status, &c.SourceType, &c.ComplaintID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
			&roles,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan pending case")
		}
		pending = append(pending, &domain.PendingCase{Case: c, CreatorRoles: roles})
	}
	return pending, nil
}

// AddComplainant attaches a complainant to a case
func (r *PostgresRepository) AddComplainant(ctx context.Context, c *domain.Complainant) error {
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

// ListComplainants returns the complainants owned by a case
func (r *PostgresRepository) ListComplainants(ctx context.Context, caseID types.ID) ([]*domain.Complainant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_kind, owner_id, full_name, phone, national_id,
			is_verified, verification_status, review_message, created_at
		FROM complainants
		WHERE owner_kind = 'case' AND owner_id = $1
		ORDER BY created_at`, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list complainants")
	}
	defer rows.Close()

	var complainants []*domain.Complainant
	for rows.Next() {
		c := &domain.Complainant{}
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

// Ensure PostgresRepository implements domain.Repository
var _ domain.Repository = (*PostgresRepository)(nil)
