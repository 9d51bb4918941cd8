package domain

import (
	"testing"

	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from CaseStatus
		to   CaseStatus
		want bool
	}{
		{"pending to active", CaseStatusPendingSuperior, CaseStatusActive, true},
		{"pending to voided", CaseStatusPendingSuperior, CaseStatusVoided, true},
		{"pending to solved", CaseStatusPendingSuperior, CaseStatusClosedSolved, false},
		{"active to solved", CaseStatusActive, CaseStatusClosedSolved, true},
		{"active to unsolved", CaseStatusActive, CaseStatusClosedUnsolved, true},
		{"active to voided", CaseStatusActive, CaseStatusVoided, true},
		{"active to pending", CaseStatusActive, CaseStatusPendingSuperior, false},
		{"solved is terminal", CaseStatusClosedSolved, CaseStatusActive, false},
		{"unsolved is terminal", CaseStatusClosedUnsolved, CaseStatusVoided, false},
		{"voided is terminal", CaseStatusVoided, CaseStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestCaseTransitionTo(t *testing.T) {
	c, err := NewCase("Warehouse burglary", "Break-in at dockside warehouse", CrimeLevelTwo, "Dock 7", nil, SourceComplaint, types.NewID())
	if err != nil {
		t.Fatalf("NewCase: %v", err)
	}
	if c.Status != CaseStatusActive {
		t.Fatalf("new case status = %s, want %s", c.Status, CaseStatusActive)
	}

	if err := c.TransitionTo(CaseStatusClosedSolved); err != nil {
		t.Fatalf("TransitionTo(closed_solved): %v", err)
	}

	err = c.TransitionTo(CaseStatusActive)
	if err == nil {
		t.Fatal("expected error reopening a solved case")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok || appErr.Code != "invalid_state" {
		t.Errorf("expected invalid_state error, got %v", err)
	}
}

func TestNewCaseValidation(t *testing.T) {
	tests := []struct {
		name  string
		title string
		desc  string
		level CrimeLevel
		loc   string
	}{
		{"missing title", "", "desc", CrimeLevelOne, "loc"},
		{"missing description", "title", "", CrimeLevelOne, "loc"},
		{"missing location", "title", "desc", CrimeLevelOne, ""},
		{"invalid level", "title", "desc", CrimeLevel(9), "loc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCase(tt.title, tt.desc, tt.level, tt.loc, nil, SourceComplaint, types.NewID())
			if err == nil {
				t.Fatal("expected validation error")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok || appErr.Code != "validation_error" {
				t.Errorf("expected validation_error, got %v", err)
			}
		})
	}
}

func TestCrimeLevelDegree(t *testing.T) {
	tests := []struct {
		level CrimeLevel
		want  int
	}{
		{CrimeLevelThree, 1},
		{CrimeLevelTwo, 2},
		{CrimeLevelOne, 3},
		{CrimeLevelCritical, 4},
	}
	for _, tt := range tests {
		if got := tt.level.Degree(); got != tt.want {
			t.Errorf("Degree(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestComplainantReview(t *testing.T) {
	t.Run("approve clears message", func(t *testing.T) {
		c, err := NewComplainant(ComplaintOwner(types.NewID()), "Ana Petrov", "+381601234567", "1234567890")
		if err != nil {
			t.Fatalf("NewComplainant: %v", err)
		}
		if c.IsVerified {
			t.Fatal("complaint-owned complainant should start unverified")
		}
		if err := c.Review(true, ""); err != nil {
			t.Fatalf("Review(approve): %v", err)
		}
		if !c.IsVerified || c.Verification != VerificationApproved {
			t.Errorf("after approval: verified=%v status=%s", c.IsVerified, c.Verification)
		}
	})

	t.Run("reject requires message", func(t *testing.T) {
		c, _ := NewComplainant(ComplaintOwner(types.NewID()), "Ana Petrov", "+381601234567", "1234567890")
		if err := c.Review(false, ""); err == nil {
			t.Fatal("expected error rejecting without a message")
		}
		if err := c.Review(false, "identity could not be confirmed"); err != nil {
			t.Fatalf("Review(reject): %v", err)
		}
		if c.Verification != VerificationRejected || c.ReviewMessage == "" {
			t.Errorf("after rejection: status=%s message=%q", c.Verification, c.ReviewMessage)
		}
	})

	t.Run("double review fails", func(t *testing.T) {
		c, _ := NewComplainant(ComplaintOwner(types.NewID()), "Ana Petrov", "+381601234567", "1234567890")
		if err := c.Review(true, ""); err != nil {
			t.Fatalf("first review: %v", err)
		}
		if err := c.Review(false, "changed my mind"); err == nil {
			t.Fatal("expected error reviewing an already approved complainant")
		}
	})

	t.Run("case-owned auto-approved", func(t *testing.T) {
		c, err := NewComplainant(CaseOwner(types.NewID()), "Ana Petrov", "+381601234567", "1234567890")
		if err != nil {
			t.Fatalf("NewComplainant: %v", err)
		}
		if !c.IsVerified || c.Verification != VerificationApproved {
			t.Errorf("case-owned complainant: verified=%v status=%s", c.IsVerified, c.Verification)
		}
		if err := c.Review(true, ""); err == nil {
			t.Fatal("expected error reviewing a case-owned complainant")
		}
	})
}

func TestCrimeSceneReportDecide(t *testing.T) {
	reporter := types.NewID()
	approver := types.NewID()

	newReport := func(requiredRole string) *CrimeSceneReport {
		return &CrimeSceneReport{
			ID:                   types.NewID(),
			CaseID:               types.NewID(),
			ReportedBy:           reporter,
			Status:               ReportPendingApproval,
			RequiredApproverRole: requiredRole,
		}
	}

	t.Run("self approval forbidden", func(t *testing.T) {
		r := newReport(rbac.RoleSergeant)
		err := r.Decide(true, reporter, []string{rbac.RoleSergeant})
		if err == nil {
			t.Fatal("expected error for self approval")
		}
		appErr, ok := err.(*errors.AppError)
		if !ok || appErr.Code != "forbidden" {
			t.Errorf("expected forbidden, got %v", err)
		}
	})

	t.Run("wrong rank forbidden", func(t *testing.T) {
		r := newReport(rbac.RoleCaptain)
		err := r.Decide(true, approver, []string{rbac.RoleSergeant})
		if err == nil {
			t.Fatal("expected error for wrong rank")
		}
	})

	t.Run("approve stamps reviewer", func(t *testing.T) {
		r := newReport(rbac.RoleSergeant)
		if err := r.Decide(true, approver, []string{rbac.RoleSergeant}); err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if r.Status != ReportApproved {
			t.Errorf("status = %s, want %s", r.Status, ReportApproved)
		}
		if r.ApprovedBy == nil || *r.ApprovedBy != approver || r.ApprovedAt == nil {
			t.Error("approval stamp missing")
		}
	})

	t.Run("reject stamps reviewer too", func(t *testing.T) {
		r := newReport(rbac.RoleSergeant)
		if err := r.Decide(false, approver, []string{rbac.RoleSergeant}); err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if r.Status != ReportRejected || r.ApprovedBy == nil {
			t.Errorf("status = %s, stamp = %v", r.Status, r.ApprovedBy)
		}
	})

	t.Run("double decision fails", func(t *testing.T) {
		r := newReport("")
		if err := r.Decide(true, approver, nil); err != nil {
			t.Fatalf("first decision: %v", err)
		}
		if err := r.Decide(false, approver, nil); err == nil {
			t.Fatal("expected error on second decision")
		}
	})
}

func TestCanAccess(t *testing.T) {
	creator := types.NewID()
	complainer := types.NewID()
	stranger := types.NewID()

	c := &Case{ID: types.NewID(), Status: CaseStatusActive, CreatedBy: creator}

	tests := []struct {
		name             string
		actor            Actor
		complaintCreator types.ID
		assigned         bool
		want             bool
	}{
		{"admin", Actor{ID: stranger, Admin: true}, types.ID(""), false, true},
		{"case creator", Actor{ID: creator}, types.ID(""), false, true},
		{"complaint creator", Actor{ID: complainer}, complainer, false, true},
		{"assigned user", Actor{ID: stranger}, types.ID(""), true, true},
		{"stranger", Actor{ID: stranger}, types.ID(""), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.actor, c, tt.complaintCreator, tt.assigned); got != tt.want {
				t.Errorf("CanAccess = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorkflowVisible(t *testing.T) {
	tests := []struct {
		name   string
		roles  []string
		status CaseStatus
		source SourceType
		want   bool
	}{
		{"officer sees active complaint case", []string{rbac.RolePoliceOfficer}, CaseStatusActive, SourceComplaint, true},
		{"officer sees active crime scene case", []string{rbac.RolePoliceOfficer}, CaseStatusActive, SourceCrimeScene, true},
		{"cadet sees complaint case", []string{rbac.RoleCadet}, CaseStatusActive, SourceComplaint, true},
		{"cadet blind to crime scene case", []string{rbac.RoleCadet}, CaseStatusActive, SourceCrimeScene, false},
		{"pending hidden from everyone", []string{rbac.RolePoliceChief}, CaseStatusPendingSuperior, SourceCrimeScene, false},
		{"civilian sees nothing", []string{rbac.RoleBaseUser}, CaseStatusActive, SourceComplaint, false},
		{"closed still visible", []string{rbac.RoleDetective}, CaseStatusClosedSolved, SourceCrimeScene, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Case{Status: tt.status, SourceType: tt.source}
			if got := WorkflowVisible(tt.roles, c); got != tt.want {
				t.Errorf("WorkflowVisible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPendingVisibleToSuperior(t *testing.T) {
	pending := &Case{Status: CaseStatusPendingSuperior, SourceType: SourceCrimeScene}
	active := &Case{Status: CaseStatusActive, SourceType: SourceCrimeScene}

	tests := []struct {
		name    string
		viewer  []string
		creator []string
		c       *Case
		want    bool
	}{
		{"sergeant over officer", []string{rbac.RoleSergeant}, []string{rbac.RolePoliceOfficer}, pending, true},
		{"chief over coroner", []string{rbac.RolePoliceChief}, []string{rbac.RoleCoroner}, pending, true},
		{"peer not superior", []string{rbac.RoleSergeant}, []string{rbac.RoleSergeant}, pending, false},
		{"junior not superior", []string{rbac.RolePatrolOfficer}, []string{rbac.RoleCaptain}, pending, false},
		{"only pending cases", []string{rbac.RolePoliceChief}, []string{rbac.RoleCadet}, active, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PendingVisibleToSuperior(tt.viewer, tt.creator, tt.c); got != tt.want {
				t.Errorf("PendingVisibleToSuperior = %v, want %v", got, tt.want)
			}
		})
	}
}
