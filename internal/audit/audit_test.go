package audit

import (
	"testing"
	"time"

	"github.com/police-portal/platform/internal/shared/events"
	"github.com/police-portal/platform/internal/shared/types"
)

func TestEntryHash(t *testing.T) {
	actorID := types.NewID()
	caseID := types.NewID()

	entry := NewAuditEntry(actorID, "detective", "case.status_changed", "case", nil, &caseID,
		map[string]any{"from": "active", "to": "closed_solved"}, "prev-hash")

	if entry.Hash == "" {
		t.Fatal("hash not computed")
	}
	if !entry.VerifyHash() {
		t.Fatal("fresh entry must verify")
	}

	t.Run("tampered content fails verification", func(t *testing.T) {
		tampered := *entry
		tampered.Action = "case.created"
		if tampered.VerifyHash() {
			t.Error("tampered entry verified")
		}
	})

	t.Run("tampered changes fail verification", func(t *testing.T) {
		tampered := *entry
		tampered.Changes = map[string]any{"from": "active", "to": "voided"}
		if tampered.VerifyHash() {
			t.Error("tampered changes verified")
		}
	})

	t.Run("prev hash is covered", func(t *testing.T) {
		relinked := *entry
		relinked.PrevHash = "different"
		if relinked.VerifyHash() {
			t.Error("relinked entry verified")
		}
	})
}

func TestCanonicalJSONDeterministic(t *testing.T) {
	// Same logical content must hash identically regardless of map order
	a, err := canonicalJSON(map[string]any{"b": 2, "a": 1, "nested": map[string]any{"y": "v", "x": "u"}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a":1,"b":2,"nested":{"x":"u","y":"v"}}`
	if string(a) != want {
		t.Errorf("canonical form = %s, want %s", a, want)
	}
}

func TestEventToAuditEntry(t *testing.T) {
	s := &Subscriber{}
	actorID := types.NewID()
	caseID := types.NewID()
	tipID := types.NewID()

	tests := []struct {
		name             string
		event            events.Event
		wantNil          bool
		wantResourceType string
		wantResourceID   *types.ID
		wantCase         bool
	}{
		{
			name: "case event with case reference",
			event: events.NewEvent("case.status_changed", "cases", map[string]any{
				"from": "active", "to": "closed_solved",
			}).WithActor(actorID, "sergeant").WithCase(caseID),
			wantResourceType: "case",
			wantCase:         true,
		},
		{
			name: "resource id extracted from typed field",
			event: events.NewEvent("tip.reviewed", "rewards", map[string]any{
				"tip_id": tipID.String(), "action": "approve",
			}).WithActor(actorID, "detective"),
			wantResourceType: "tip",
			wantResourceID:   &tipID,
		},
		{
			name:    "unstructured type is skipped",
			event:   events.NewEvent("heartbeat", "system", nil),
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := s.eventToAuditEntry(tt.event)

			if tt.wantNil {
				if entry != nil {
					t.Fatal("expected no entry")
				}
				return
			}
			if entry == nil {
				t.Fatal("expected entry")
			}
			if entry.ResourceType != tt.wantResourceType {
				t.Errorf("resource_type = %s, want %s", entry.ResourceType, tt.wantResourceType)
			}
			if entry.Action != tt.event.Type {
				t.Errorf("action = %s, want %s", entry.Action, tt.event.Type)
			}
			if entry.ActorID != actorID {
				t.Error("actor lost")
			}
			if tt.wantResourceID != nil {
				if entry.ResourceID == nil || *entry.ResourceID != *tt.wantResourceID {
					t.Error("resource id not extracted")
				}
			}
			if tt.wantCase {
				if entry.CaseID == nil || *entry.CaseID != caseID {
					t.Error("case reference lost")
				}
			}
			if entry.Timestamp.Location() != time.UTC {
				t.Error("timestamp must be UTC")
			}
		})
	}
}
