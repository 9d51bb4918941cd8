package payment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository persists payments
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new payment repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create persists a payment
func (r *Repository) Create(ctx context.Context, p *Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (
			id, person_id, wanted_record_id, kind, amount, status,
			gateway_ref, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.PersonID, p.WantedRecordID, p.Kind, p.Amount, p.Status,
		p.GatewayRef, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save payment")
	}
	return nil
}

// Update persists gateway outcome fields
func (r *Repository) Update(ctx context.Context, p *Payment) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = $2, gateway_ref = $3, updated_at = $4 WHERE id = $1`,
		p.ID, p.Status, p.GatewayRef, p.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update payment")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("payment", p.ID.String())
	}
	return nil
}

// Get fetches a payment by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Payment, error) {
	p := &Payment{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, person_id, wanted_record_id, kind, amount, status,
			gateway_ref, created_by, created_at, updated_at
		FROM payments WHERE id = $1`, id).Scan(
		&p.ID, &p.PersonID, &p.WantedRecordID, &p.Kind, &p.Amount, &p.Status,
		&p.GatewayRef, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("payment", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find payment")
	}
	return p, nil
}

// ListByCreator returns the payments a user has lodged, newest first
func (r *Repository) ListByCreator(ctx context.Context, userID types.ID) ([]*Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, person_id, wanted_record_id, kind, amount, status,
			gateway_ref, created_by, created_at, updated_at
		FROM payments
		WHERE created_by = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list payments")
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p := &Payment{}
		err := rows.Scan(
			&p.ID, &p.PersonID, &p.WantedRecordID, &p.Kind, &p.Amount, &p.Status,
			&p.GatewayRef, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan payment")
		}
		payments = append(payments, p)
	}
	return payments, nil
}
