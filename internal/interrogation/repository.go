package interrogation

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository persists interrogations
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new interrogation repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `id, case_id, suspect_id, created_by, detective_score, sergeant_score,
	status, captain_decision, captain_notes, captain_reviewed_by,
	chief_decision, chief_notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*Interrogation, error) {
	i := &Interrogation{}
	err := row.Scan(
		&i.ID, &i.CaseID, &i.SuspectID, &i.CreatedBy, &i.DetectiveScore, &i.SergeantScore,
		&i.Status, &i.CaptainDecision, &i.CaptainNotes, &i.CaptainReviewedBy,
		&i.ChiefDecision, &i.ChiefNotes, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return i, nil
}

// Create persists a new interrogation
func (r *Repository) Create(ctx context.Context, i *Interrogation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interrogations (
			id, case_id, suspect_id, created_by, detective_score, sergeant_score,
			status, captain_decision, captain_notes, captain_reviewed_by,
			chief_decision, chief_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		i.ID, i.CaseID, i.SuspectID, i.CreatedBy, i.DetectiveScore, i.SergeantScore,
		i.Status, i.CaptainDecision, i.CaptainNotes, i.CaptainReviewedBy,
		i.ChiefDecision, i.ChiefNotes, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save interrogation")
	}
	return nil
}

// Get fetches an interrogation by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Interrogation, error) {
	query := fmt.Sprintf(`SELECT %s FROM interrogations WHERE id = $1`, columns)

	i, err := scan(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("interrogation", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find interrogation")
	}
	return i, nil
}

// ListByCase returns a case's interrogations, oldest first
func (r *Repository) ListByCase(ctx context.Context, caseID types.ID) ([]*Interrogation, error) {
	query := fmt.Sprintf(`SELECT %s FROM interrogations WHERE case_id = $1 ORDER BY created_at`, columns)

	rows, err := r.pool.Query(ctx, query, caseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list interrogations")
	}
	defer rows.Close()

	var interrogations []*Interrogation
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan interrogation")
		}
		interrogations = append(interrogations, i)
	}
	return interrogations, nil
}

// UpdateTx locks the interrogation row, applies fn, and persists it
func (r *Repository) UpdateTx(ctx context.Context, id types.ID, fn func(*Interrogation) error) (*Interrogation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	i, err := lockInterrogation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(i); err != nil {
		return nil, err
	}

	if err := update(ctx, tx, i); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return i, nil
}

// DecideTx runs a captain or chief decision. The case row is locked
// first so the single-approved-offender check cannot race with a
// concurrent decision on a sibling interrogation.
func (r *Repository) DecideTx(ctx context.Context, id types.ID, fn func(i *Interrogation, hasApprovedOffender bool) error) (*Interrogation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	i, err := lockInterrogation(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	var caseID types.ID
	err = tx.QueryRow(ctx, `SELECT id FROM cases WHERE id = $1 FOR UPDATE`, i.CaseID).Scan(&caseID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock case")
	}

	var approved int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM interrogations
		WHERE case_id = $1 AND status = $2 AND id <> $3`,
		i.CaseID, StatusApproved, i.ID).Scan(&approved)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count approved interrogations")
	}

	if err := fn(i, approved > 0); err != nil {
		return nil, err
	}

	if err := update(ctx, tx, i); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return i, nil
}

func lockInterrogation(ctx context.Context, tx pgx.Tx, id types.ID) (*Interrogation, error) {
	query := fmt.Sprintf(`SELECT %s FROM interrogations WHERE id = $1 FOR UPDATE`, columns)

	i, err := scan(tx.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("interrogation", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock interrogation")
	}
	return i, nil
}

func update(ctx context.Context, tx pgx.Tx, i *Interrogation) error {
	_, err := tx.Exec(ctx, `
		UPDATE interrogations SET
			detective_score = $2, sergeant_score = $3, status = $4,
			captain_decision = $5, captain_notes = $6, captain_reviewed_by = $7,
			chief_decision = $8, chief_notes = $9, updated_at = $10
		WHERE id = $1`,
		i.ID, i.DetectiveScore, i.SergeantScore, i.Status,
		i.CaptainDecision, i.CaptainNotes, i.CaptainReviewedBy,
		i.ChiefDecision, i.ChiefNotes, i.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update interrogation")
	}
	return nil
}
