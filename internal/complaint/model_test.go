package complaint

import (
	"testing"

	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

func newTestComplaint(t *testing.T) *Complaint {
	t.Helper()
	c, err := NewComplaint("Stolen bicycle", "Bicycle taken from the courtyard overnight", casedomain.CrimeLevelThree, "Main Street 12", nil, types.NewID())
	if err != nil {
		t.Fatalf("NewComplaint: %v", err)
	}
	return c
}

func TestThreeStrikesVoid(t *testing.T) {
	c := newTestComplaint(t)
	cadet := types.NewID()

	for strike := 1; strike <= MaxStrikes; strike++ {
		if err := c.CadetReturn(cadet, "details are insufficient"); err != nil {
			t.Fatalf("strike %d: %v", strike, err)
		}
		if c.StrikeCount != strike {
			t.Fatalf("strike count = %d, want %d", c.StrikeCount, strike)
		}

		if strike < MaxStrikes {
			if c.Status != StatusReturnedToComplainant {
				t.Fatalf("after strike %d status = %s, want %s", strike, c.Status, StatusReturnedToComplainant)
			}
			if err := c.Resubmit(c.CreatedBy, ComplaintUpdate{}); err != nil {
				t.Fatalf("resubmit after strike %d: %v", strike, err)
			}
		}
	}

	if c.Status != StatusVoided {
		t.Errorf("after %d strikes status = %s, want %s", MaxStrikes, c.Status, StatusVoided)
	}
	if err := c.Resubmit(c.CreatedBy, ComplaintUpdate{}); err == nil {
		t.Error("expected error resubmitting a voided complaint")
	}
}

func TestCadetReturnRequiresMessage(t *testing.T) {
	c := newTestComplaint(t)
	if err := c.CadetReturn(types.NewID(), ""); err == nil {
		t.Fatal("expected error returning without a message")
	}
	if c.StrikeCount != 0 {
		t.Errorf("strike count = %d, want 0", c.StrikeCount)
	}
}

func TestCadetApproveAssignsOfficer(t *testing.T) {
	c := newTestComplaint(t)
	cadet := types.NewID()
	officer := types.NewID()

	if err := c.CadetApprove(cadet, officer); err != nil {
		t.Fatalf("CadetApprove: %v", err)
	}
	if c.Status != StatusPendingOfficer {
		t.Errorf("status = %s, want %s", c.Status, StatusPendingOfficer)
	}
	if c.AssignedCadet == nil || *c.AssignedCadet != cadet {
		t.Error("assigned cadet not recorded")
	}
	if c.AssignedOfficer == nil || *c.AssignedOfficer != officer {
		t.Error("assigned officer not recorded")
	}

	if err := c.CadetApprove(cadet, officer); err == nil {
		t.Error("expected error approving a forwarded complaint again")
	}
}

func TestResubmitOnlyCreator(t *testing.T) {
	c := newTestComplaint(t)
	if err := c.CadetReturn(types.NewID(), "needs a location"); err != nil {
		t.Fatalf("CadetReturn: %v", err)
	}

	err := c.Resubmit(types.NewID(), ComplaintUpdate{})
	if err == nil {
		t.Fatal("expected error for non-creator resubmission")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != "forbidden" {
		t.Errorf("expected forbidden, got %v", err)
	}

	newTitle := "Stolen bicycle, serial 4411"
	if err := c.Resubmit(c.CreatedBy, ComplaintUpdate{Title: &newTitle}); err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if c.Title != newTitle || c.Status != StatusPendingCadet {
		t.Errorf("after resubmit: title=%q status=%s", c.Title, c.Status)
	}
}

func TestOfficerReviewGuards(t *testing.T) {
	cadet := types.NewID()
	officer := types.NewID()

	t.Run("only assigned officer", func(t *testing.T) {
		c := newTestComplaint(t)
		if err := c.CadetApprove(cadet, officer); err != nil {
			t.Fatalf("CadetApprove: %v", err)
		}
		if err := c.OfficerReturn(types.NewID(), "not my review"); err == nil {
			t.Fatal("expected error for a different officer")
		}
		if err := c.OfficerApprove(types.NewID()); err == nil {
			t.Fatal("expected error for a different officer")
		}
	})

	t.Run("return goes to cadet queue", func(t *testing.T) {
		c := newTestComplaint(t)
		c.CadetApprove(cadet, officer)
		if err := c.OfficerReturn(officer, "complainant details missing"); err != nil {
			t.Fatalf("OfficerReturn: %v", err)
		}
		if c.Status != StatusReturnedToCadet {
			t.Errorf("status = %s, want %s", c.Status, StatusReturnedToCadet)
		}
		// cadet may re-approve from the returned state
		if err := c.CadetApprove(cadet, officer); err != nil {
			t.Errorf("re-approve from returned_to_cadet: %v", err)
		}
	})

	t.Run("approve", func(t *testing.T) {
		c := newTestComplaint(t)
		c.CadetApprove(cadet, officer)

		if err := c.OfficerApprove(officer); err != nil {
			t.Fatalf("OfficerApprove: %v", err)
		}
		if c.Status != StatusApproved {
			t.Errorf("status = %s, want %s", c.Status, StatusApproved)
		}
	})
}

func TestCheckComplainants(t *testing.T) {
	approved := casedomain.VerificationApproved
	pending := casedomain.VerificationPending
	rejected := casedomain.VerificationRejected

	tests := []struct {
		name     string
		statuses []casedomain.VerificationStatus
		wantErr  bool
	}{
		{"no complainants", nil, true},
		{"primary pending", []casedomain.VerificationStatus{pending}, true},
		{"primary rejected", []casedomain.VerificationStatus{rejected, approved}, true},
		{"primary pending despite approved secondary", []casedomain.VerificationStatus{pending, approved}, true},
		{"secondary still pending", []casedomain.VerificationStatus{approved, pending}, true},
		{"primary approved alone", []casedomain.VerificationStatus{approved}, false},
		{"secondary rejected is fine", []casedomain.VerificationStatus{approved, rejected}, false},
		{"all approved", []casedomain.VerificationStatus{approved, approved, approved}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckComplainants(tt.statuses)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				appErr, ok := err.(*errors.AppError)
				if !ok || appErr.Code != "invalid_state" {
					t.Errorf("expected invalid_state, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckComplainants: %v", err)
			}
		})
	}
}

func TestCadetGateAndReturnClearsOfficer(t *testing.T) {
	cadet := types.NewID()
	officer := types.NewID()

	t.Run("other cadet blocked after assignment", func(t *testing.T) {
		c := newTestComplaint(t)
		if err := c.CadetApprove(cadet, officer); err != nil {
			t.Fatalf("CadetApprove: %v", err)
		}
		if err := c.OfficerReturn(officer, "rework the narrative"); err != nil {
			t.Fatalf("OfficerReturn: %v", err)
		}

		err := c.CadetReturn(types.NewID(), "taking over")
		if err == nil {
			t.Fatal("expected error for an unassigned cadet")
		}
		appErr, ok := err.(*errors.AppError)
		if !ok || appErr.Code != "forbidden" {
			t.Errorf("expected forbidden, got %v", err)
		}
		if err := c.CadetApprove(types.NewID(), officer); err == nil {
			t.Error("expected error for an unassigned cadet approving")
		}
	})

	t.Run("return clears the assigned officer", func(t *testing.T) {
		c := newTestComplaint(t)
		c.CadetApprove(cadet, officer)
		c.OfficerReturn(officer, "rework the narrative")

		if err := c.CadetReturn(cadet, "please add witnesses"); err != nil {
			t.Fatalf("CadetReturn: %v", err)
		}
		if c.AssignedOfficer != nil {
			t.Error("assigned officer should be cleared on cadet return")
		}
	})
}

func TestResubmitClearsLastMessage(t *testing.T) {
	c := newTestComplaint(t)
	if err := c.CadetReturn(types.NewID(), "needs a location"); err != nil {
		t.Fatalf("CadetReturn: %v", err)
	}
	if c.LastMessage == "" {
		t.Fatal("return should record the message")
	}

	if err := c.Resubmit(c.CreatedBy, ComplaintUpdate{}); err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if c.LastMessage != "" {
		t.Errorf("last message = %q, want empty after resubmit", c.LastMessage)
	}
}
