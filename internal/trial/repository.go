package trial

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository persists trial verdicts
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new trial repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create records a verdict. The case row is locked so a concurrent
// transition cannot reopen the window, and the unique case constraint
// keeps verdicts one per case.
func (r *Repository) Create(ctx context.Context, t *Trial) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var status casedomain.CaseStatus
	err = tx.QueryRow(ctx, `SELECT status FROM cases WHERE id = $1 FOR UPDATE`, t.CaseID).Scan(&status)
	if err == pgx.ErrNoRows {
		return errors.NotFound("case", t.CaseID.String())
	}
	if err != nil {
		return errors.Wrap(err, "failed to lock case")
	}
	if status != casedomain.CaseStatusClosedSolved {
		return errors.InvalidState("verdicts can only be recorded on solved cases")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO trials (id, case_id, judge_id, verdict, punishment_title, punishment_description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.CaseID, t.JudgeID, t.Verdict, t.PunishmentTitle, t.PunishmentDescription, t.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.InvalidState("the case already has a verdict")
		}
		return errors.Wrap(err, "failed to save trial")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// GetByCase fetches the verdict recorded for a case
func (r *Repository) GetByCase(ctx context.Context, caseID types.ID) (*Trial, error) {
	t := &Trial{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, case_id, judge_id, verdict, punishment_title, punishment_description, created_at
		FROM trials WHERE case_id = $1`, caseID).Scan(
		&t.ID, &t.CaseID, &t.JudgeID, &t.Verdict, &t.PunishmentTitle, &t.PunishmentDescription, &t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("trial", caseID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find trial")
	}
	return t, nil
}
