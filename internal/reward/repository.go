package reward

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository persists tips and reward codes
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new reward repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tipColumns = `id, person_id, case_id, content, tipster_national_id, tipster_name, tipster_phone,
	status, officer_reviewed_by, detective_reviewed_by, created_at, updated_at`

func scanTip(row interface{ Scan(...any) error }) (*Tip, error) {
	t := &Tip{}
	err := row.Scan(
		&t.ID, &t.PersonID, &t.CaseID, &t.Content, &t.TipsterNationalID, &t.TipsterName, &t.TipsterPhone,
		&t.Status, &t.OfficerReviewedBy, &t.DetectiveReviewedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTip persists a new tip
func (r *Repository) CreateTip(ctx context.Context, t *Tip) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tips (
			id, person_id, case_id, content, tipster_national_id, tipster_name, tipster_phone,
			status, officer_reviewed_by, detective_reviewed_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.PersonID, t.CaseID, t.Content, t.TipsterNationalID, t.TipsterName, t.TipsterPhone,
		t.Status, t.OfficerReviewedBy, t.DetectiveReviewedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save tip")
	}
	return nil
}

// GetTip fetches a tip by ID
func (r *Repository) GetTip(ctx context.Context, id types.ID) (*Tip, error) {
	query := fmt.Sprintf(`SELECT %s FROM tips WHERE id = $1`, tipColumns)

	t, err := scanTip(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("tip", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find tip")
	}
	return t, nil
}

// ListTips lists tips, optionally filtered by status, newest first
func (r *Repository) ListTips(ctx context.Context, statuses []TipStatus, limit, offset int) ([]*Tip, error) {
	var conditions []string
	var args []any
	argNum := 1

	if len(statuses) > 0 {
		strs := make([]string, len(statuses))
		for i, s := range statuses {
			strs[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argNum))
		args = append(args, strs)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM tips
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, tipColumns, whereClause, argNum, argNum+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tips")
	}
	defer rows.Close()

	var tips []*Tip
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan tip")
		}
		tips = append(tips, t)
	}
	return tips, nil
}

// ReviewTipTx locks the tip row, applies fn, and persists the outcome
func (r *Repository) ReviewTipTx(ctx context.Context, id types.ID, fn func(*Tip) error) (*Tip, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`SELECT %s FROM tips WHERE id = $1 FOR UPDATE`, tipColumns)
	t, err := scanTip(tx.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("tip", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock tip")
	}

	if err := fn(t); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE tips SET
			status = $2, officer_reviewed_by = $3, detective_reviewed_by = $4, updated_at = $5
		WHERE id = $1`,
		t.ID, t.Status, t.OfficerReviewedBy, t.DetectiveReviewedBy, t.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update tip")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return t, nil
}

// IssueCode mints a reward code for a tip. A tip that already has a
// code keeps it, so acceptance can be retried safely.
func (r *Repository) IssueCode(ctx context.Context, c *Code) (*Code, bool, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reward_codes (id, tip_id, code, national_id, amount, issued_at, redeemed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tip_id) DO NOTHING
		RETURNING id`,
		c.ID, c.TipID, c.Code, c.NationalID, c.Amount, c.IssuedAt, c.RedeemedAt,
	).Scan(&c.ID)

	if err == nil {
		return c, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, errors.Wrap(err, "failed to save reward code")
	}

	existing, err := r.getCodeByTip(ctx, c.TipID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *Repository) getCodeByTip(ctx context.Context, tipID types.ID) (*Code, error) {
	c := &Code{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, tip_id, code, national_id, amount, issued_at, redeemed_at
		FROM reward_codes WHERE tip_id = $1`, tipID).Scan(
		&c.ID, &c.TipID, &c.Code, &c.NationalID, &c.Amount, &c.IssuedAt, &c.RedeemedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("reward code", tipID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find reward code")
	}
	return c, nil
}

// Lookup finds a reward code by the claim pair
func (r *Repository) Lookup(ctx context.Context, nationalID, code string) (*Code, error) {
	c := &Code{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, tip_id, code, national_id, amount, issued_at, redeemed_at
		FROM reward_codes
		WHERE national_id = $1 AND code = $2`, nationalID, code).Scan(
		&c.ID, &c.TipID, &c.Code, &c.NationalID, &c.Amount, &c.IssuedAt, &c.RedeemedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("reward code", code)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find reward code")
	}
	return c, nil
}

// RedeemTx locks a reward code, applies fn, and persists the result
func (r *Repository) RedeemTx(ctx context.Context, id types.ID, fn func(*Code) error) (*Code, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	c := &Code{}
	err = tx.QueryRow(ctx, `
		SELECT id, tip_id, code, national_id, amount, issued_at, redeemed_at
		FROM reward_codes WHERE id = $1 FOR UPDATE`, id).Scan(
		&c.ID, &c.TipID, &c.Code, &c.NationalID, &c.Amount, &c.IssuedAt, &c.RedeemedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("reward code", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock reward code")
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE reward_codes SET redeemed_at = $2 WHERE id = $1`, c.ID, c.RedeemedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update reward code")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return c, nil
}
