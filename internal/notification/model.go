package notification

import (
	"time"

	"github.com/police-portal/platform/internal/shared/types"
)

// Notification is an in-app message delivered to a single user, tied
// to a case when one is relevant.
type Notification struct {
	ID        types.ID       `json:"id"`
	UserID    types.ID       `json:"user_id"`
	CaseID    *types.ID      `json:"case_id,omitempty"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}

// New builds an unread notification
func New(userID types.ID, caseID *types.ID, notifType string, payload map[string]any) *Notification {
	return &Notification{
		ID:        types.NewID(),
		UserID:    userID,
		CaseID:    caseID,
		Type:      notifType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// MarkRead stamps the notification as read
func (n *Notification) MarkRead() {
	if n.Read {
		return
	}
	now := time.Now().UTC()
	n.Read = true
	n.ReadAt = &now
}
