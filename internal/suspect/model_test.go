package suspect

import (
	"testing"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

func TestCandidateDecide(t *testing.T) {
	sergeant := types.NewID()

	t.Run("approve", func(t *testing.T) {
		c := NewCandidate(types.NewID(), types.NewID(), types.NewID(), "matches witness description")
		if err := c.Decide(true, sergeant, ""); err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if c.Status != CandidateApproved {
			t.Errorf("status = %s, want %s", c.Status, CandidateApproved)
		}
		if c.ReviewedBy == nil || *c.ReviewedBy != sergeant {
			t.Error("reviewer not recorded")
		}
		if c.DecidedAt == nil {
			t.Error("decision time not recorded")
		}
	})

	t.Run("reject requires message", func(t *testing.T) {
		c := NewCandidate(types.NewID(), types.NewID(), types.NewID(), "")
		err := c.Decide(false, sergeant, "")
		if err == nil {
			t.Fatal("expected error rejecting without a message")
		}
		appErr, ok := err.(*errors.AppError)
		if !ok || appErr.Code != "validation_error" {
			t.Errorf("expected validation_error, got %v", err)
		}
		if c.Status != CandidatePending {
			t.Errorf("a failed rejection must not move the candidate, status = %s", c.Status)
		}

		if err := c.Decide(false, sergeant, "alibi checks out"); err != nil {
			t.Fatalf("Decide(reject): %v", err)
		}
		if c.Status != CandidateRejected || c.SergeantMessage != "alibi checks out" {
			t.Errorf("status=%s message=%q", c.Status, c.SergeantMessage)
		}
	})

	t.Run("double decision fails", func(t *testing.T) {
		c := NewCandidate(types.NewID(), types.NewID(), types.NewID(), "")
		if err := c.Decide(true, sergeant, ""); err != nil {
			t.Fatalf("first decision: %v", err)
		}
		err := c.Decide(false, sergeant, "changed my mind")
		if err == nil {
			t.Fatal("expected error on second decision")
		}
		appErr, ok := err.(*errors.AppError)
		if !ok || appErr.Code != "invalid_state" {
			t.Errorf("expected invalid_state, got %v", err)
		}
	})
}

func TestWantedRecordSetStatus(t *testing.T) {
	t.Run("arrested can escape back to wanted", func(t *testing.T) {
		w := &WantedRecord{Status: WantedStatusWanted}
		if err := w.SetStatus(WantedStatusArrested); err != nil {
			t.Fatalf("SetStatus(arrested): %v", err)
		}
		if err := w.SetStatus(WantedStatusWanted); err != nil {
			t.Fatalf("SetStatus(wanted): %v", err)
		}
	})

	t.Run("cleared is terminal", func(t *testing.T) {
		w := &WantedRecord{Status: WantedStatusCleared}
		if err := w.SetStatus(WantedStatusWanted); err == nil {
			t.Fatal("expected error reopening a cleared record")
		}
	})
}
