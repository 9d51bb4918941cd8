package notification

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Repository persists notifications
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new notification repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create saves a notification
func (r *Repository) Create(ctx context.Context, n *Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, case_id, type, payload, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.CaseID, n.Type, n.Payload, n.Read, n.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save notification")
	}
	return nil
}

// ListByUser returns a user's notifications, newest first
func (r *Repository) ListByUser(ctx context.Context, userID types.ID, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, user_id, case_id, type, payload, read, created_at, read_at
		FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.CaseID, &n.Type, &n.Payload, &n.Read, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns how many notifications the user has not read yet
func (r *Repository) CountUnread(ctx context.Context, userID types.ID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false`, userID,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count notifications")
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read
func (r *Repository) MarkRead(ctx context.Context, id, userID types.ID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = true, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read = false`, id, userID)
	if err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("notification", id.String())
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read
func (r *Repository) MarkAllRead(ctx context.Context, userID types.ID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET read = true, read_at = NOW()
		WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications read")
	}
	return int(tag.RowsAffected()), nil
}
