package interrogation

import (
	"testing"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

func intPtr(v int) *int { return &v }

func newTestInterrogation(t *testing.T, detectiveScore *int) *Interrogation {
	t.Helper()
	i, err := New(types.NewID(), types.NewID(), types.NewID(), detectiveScore)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return i
}

func atCaptain(t *testing.T) *Interrogation {
	t.Helper()
	i := newTestInterrogation(t, intPtr(8))
	if err := i.SetSergeantScore(7); err != nil {
		t.Fatalf("SetSergeantScore: %v", err)
	}
	return i
}

func atChief(t *testing.T, captainID types.ID) *Interrogation {
	t.Helper()
	i := atCaptain(t)
	if err := i.CaptainDecide(captainID, true, "needs the chief's sign-off", true, false); err != nil {
		t.Fatalf("CaptainDecide: %v", err)
	}
	return i
}

func TestNewAwaitsSergeant(t *testing.T) {
	t.Run("without detective score", func(t *testing.T) {
		i := newTestInterrogation(t, nil)
		if i.Status != StatusPendingSergeant {
			t.Errorf("status = %s, want %s", i.Status, StatusPendingSergeant)
		}
		if i.DetectiveScore != nil {
			t.Error("detective score should be unset")
		}
	})

	t.Run("with detective score", func(t *testing.T) {
		i := newTestInterrogation(t, intPtr(9))
		if i.Status != StatusPendingSergeant {
			t.Errorf("status = %s, want %s", i.Status, StatusPendingSergeant)
		}
		if i.DetectiveScore == nil || *i.DetectiveScore != 9 {
			t.Error("detective score not recorded")
		}
	})

	t.Run("score out of range", func(t *testing.T) {
		if _, err := New(types.NewID(), types.NewID(), types.NewID(), intPtr(0)); err == nil {
			t.Error("expected error for score 0")
		}
		if _, err := New(types.NewID(), types.NewID(), types.NewID(), intPtr(11)); err == nil {
			t.Error("expected error for score 11")
		}
	})
}

func TestDetectiveScoreWindow(t *testing.T) {
	t.Run("editable while awaiting sergeant", func(t *testing.T) {
		i := newTestInterrogation(t, nil)
		if err := i.SetDetectiveScore(6); err != nil {
			t.Fatalf("SetDetectiveScore: %v", err)
		}
		if i.Status != StatusPendingSergeant {
			t.Errorf("status = %s, want %s", i.Status, StatusPendingSergeant)
		}
		if err := i.SetDetectiveScore(8); err != nil {
			t.Fatalf("revising the score before the sergeant acted: %v", err)
		}
		if *i.DetectiveScore != 8 {
			t.Errorf("detective score = %d, want 8", *i.DetectiveScore)
		}
	})

	t.Run("advances from the detective queue", func(t *testing.T) {
		i := newTestInterrogation(t, nil)
		i.Status = StatusPendingDetective
		if err := i.SetDetectiveScore(5); err != nil {
			t.Fatalf("SetDetectiveScore: %v", err)
		}
		if i.Status != StatusPendingSergeant {
			t.Errorf("status = %s, want %s", i.Status, StatusPendingSergeant)
		}
	})

	t.Run("locked after the sergeant scores", func(t *testing.T) {
		i := atCaptain(t)
		err := i.SetDetectiveScore(3)
		if err == nil {
			t.Fatal("expected error scoring after the sergeant")
		}
		appErr, ok := err.(*errors.AppError)
		if !ok || appErr.Code != "invalid_state" {
			t.Errorf("expected invalid_state, got %v", err)
		}
	})
}

func TestSergeantScoreAlwaysAdvances(t *testing.T) {
	for _, score := range []int{1, 10} {
		i := newTestInterrogation(t, intPtr(8))
		if err := i.SetSergeantScore(score); err != nil {
			t.Fatalf("SetSergeantScore(%d): %v", score, err)
		}
		if i.Status != StatusPendingCaptain {
			t.Errorf("after sergeant score %d status = %s, want %s", score, i.Status, StatusPendingCaptain)
		}
		if i.SergeantScore == nil || *i.SergeantScore != score {
			t.Errorf("sergeant score not recorded for %d", score)
		}
	}

	t.Run("only from the sergeant queue", func(t *testing.T) {
		i := atCaptain(t)
		if err := i.SetSergeantScore(5); err == nil {
			t.Error("expected error re-scoring at the captain stage")
		}
	})

	t.Run("score out of range", func(t *testing.T) {
		i := newTestInterrogation(t, nil)
		if err := i.SetSergeantScore(11); err == nil {
			t.Error("expected error for score 11")
		}
		if i.Status != StatusPendingSergeant {
			t.Errorf("a rejected score must not advance, status = %s", i.Status)
		}
	})
}

func TestCaptainDecide(t *testing.T) {
	captainID := types.NewID()

	t.Run("approval resolves a non-critical case", func(t *testing.T) {
		i := atCaptain(t)
		if err := i.CaptainDecide(captainID, true, "solid assessment", false, false); err != nil {
			t.Fatalf("CaptainDecide: %v", err)
		}
		if i.Status != StatusApproved {
			t.Errorf("status = %s, want %s", i.Status, StatusApproved)
		}
		if i.CaptainReviewedBy == nil || *i.CaptainReviewedBy != captainID {
			t.Error("captain not recorded")
		}
		if i.CaptainDecision != DecisionApprove || i.CaptainNotes != "solid assessment" {
			t.Errorf("decision=%q notes=%q", i.CaptainDecision, i.CaptainNotes)
		}
	})

	t.Run("rejection ends a non-critical case", func(t *testing.T) {
		i := atCaptain(t)
		if err := i.CaptainDecide(captainID, false, "insufficient evidence", false, false); err != nil {
			t.Fatalf("CaptainDecide: %v", err)
		}
		if i.Status != StatusRejected {
			t.Errorf("status = %s, want %s", i.Status, StatusRejected)
		}
		if i.CaptainDecision != DecisionReject {
			t.Errorf("decision = %q", i.CaptainDecision)
		}
	})

	t.Run("critical cases escalate regardless of decision", func(t *testing.T) {
		for _, approve := range []bool{true, false} {
			i := atCaptain(t)
			if err := i.CaptainDecide(captainID, approve, "", true, false); err != nil {
				t.Fatalf("CaptainDecide(approve=%v): %v", approve, err)
			}
			if i.Status != StatusPendingChief {
				t.Errorf("approve=%v status = %s, want %s", approve, i.Status, StatusPendingChief)
			}
		}
	})

	t.Run("second offender blocked even on critical cases", func(t *testing.T) {
		for _, critical := range []bool{false, true} {
			i := atCaptain(t)
			err := i.CaptainDecide(captainID, true, "", critical, true)
			if err == nil {
				t.Fatalf("critical=%v: expected error approving a second offender", critical)
			}
			appErr, ok := err.(*errors.AppError)
			if !ok || appErr.Code != "invalid_state" {
				t.Errorf("expected invalid_state, got %v", err)
			}
		}
	})

	t.Run("rejection of a sibling still allowed", func(t *testing.T) {
		i := atCaptain(t)
		if err := i.CaptainDecide(captainID, false, "", false, true); err != nil {
			t.Fatalf("rejecting with an existing offender: %v", err)
		}
	})
}

func TestChiefDecide(t *testing.T) {
	captainID := types.NewID()

	t.Run("approval is terminal", func(t *testing.T) {
		i := atChief(t, captainID)
		if err := i.ChiefDecide(true, "", false); err != nil {
			t.Fatalf("ChiefDecide: %v", err)
		}
		if i.Status != StatusApproved {
			t.Errorf("status = %s, want %s", i.Status, StatusApproved)
		}
		if i.ChiefDecision != DecisionApprove {
			t.Errorf("decision = %q", i.ChiefDecision)
		}
	})

	t.Run("rejection loops back to the captain", func(t *testing.T) {
		i := atChief(t, captainID)
		if err := i.ChiefDecide(false, "re-examine the alibi", false); err != nil {
			t.Fatalf("ChiefDecide: %v", err)
		}
		if i.Status != StatusPendingCaptain {
			t.Errorf("status = %s, want %s", i.Status, StatusPendingCaptain)
		}
		if i.ChiefNotes != "re-examine the alibi" {
			t.Errorf("chief notes = %q", i.ChiefNotes)
		}
		if i.CaptainReviewedBy == nil || *i.CaptainReviewedBy != captainID {
			t.Error("recorded captain lost on loop-back")
		}

		// the captain may decide again after the loop-back
		if err := i.CaptainDecide(captainID, false, "dropping per the chief's notes", true, false); err != nil {
			t.Fatalf("captain re-decision: %v", err)
		}
		if i.Status != StatusPendingChief {
			t.Errorf("status after re-decision = %s, want %s", i.Status, StatusPendingChief)
		}
	})

	t.Run("second offender blocked", func(t *testing.T) {
		i := atChief(t, captainID)
		if err := i.ChiefDecide(true, "", true); err == nil {
			t.Error("expected error approving a second offender")
		}
	})

	t.Run("only from the chief queue", func(t *testing.T) {
		i := atCaptain(t)
		if err := i.ChiefDecide(true, "", false); err == nil {
			t.Error("expected error deciding out of turn")
		}
	})
}
