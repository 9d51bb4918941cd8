package notification

import (
	"testing"

	"github.com/police-portal/platform/internal/shared/types"
)

func TestNew(t *testing.T) {
	userID := types.NewID()
	caseID := types.NewID()

	n := New(userID, &caseID, "case_status_changed", map[string]any{"to": "active"})

	if n.UserID != userID {
		t.Errorf("user = %s, want %s", n.UserID, userID)
	}
	if n.CaseID == nil || *n.CaseID != caseID {
		t.Error("case reference lost")
	}
	if n.Read {
		t.Error("new notification must start unread")
	}
	if n.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}
}

func TestMarkRead(t *testing.T) {
	n := New(types.NewID(), nil, "tip_reviewed", nil)

	n.MarkRead()
	if !n.Read || n.ReadAt == nil {
		t.Fatal("notification not marked read")
	}

	first := *n.ReadAt
	n.MarkRead()
	if *n.ReadAt != first {
		t.Error("second MarkRead must not move the read timestamp")
	}
}
