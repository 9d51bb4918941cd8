package domain

import (
	"fmt"
	"time"

	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// OwnerKind discriminates complainant ownership
type OwnerKind string

const (
	OwnerComplaint OwnerKind = "complaint"
	OwnerCase      OwnerKind = "case"
)

// Owner identifies the single record a complainant belongs to
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   types.ID  `json:"id"`
}

// ComplaintOwner builds a complaint owner reference
func ComplaintOwner(id types.ID) Owner {
	return Owner{Kind: OwnerComplaint, ID: id}
}

// CaseOwner builds a case owner reference
func CaseOwner(id types.ID) Owner {
	return Owner{Kind: OwnerCase, ID: id}
}

// VerificationStatus is a complainant's review state
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Complainant is a named party to a complaint or case. A complainant
// attached to a complaint requires cadet review; one attached directly
// to a case is auto-approved at creation.
type Complainant struct {
	ID            types.ID           `json:"id"`
	Owner         Owner              `json:"owner"`
	FullName      string             `json:"full_name"`
	Phone         string             `json:"phone"`
	NationalID    string             `json:"national_id"`
	IsVerified    bool               `json:"is_verified"`
	Verification  VerificationStatus `json:"verification_status"`
	ReviewMessage string             `json:"review_message,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// NewComplainant creates a complainant for the given owner. Case-owned
// complainants skip review.
func NewComplainant(owner Owner, fullName, phone, nationalID string) (*Complainant, error) {
	details := map[string]string{}
	if fullName == "" {
		details["full_name"] = "full_name is required"
	}
	if phone == "" {
		details["phone"] = "phone is required"
	}
	if nationalID == "" {
		details["national_id"] = "national_id is required"
	}
	if len(details) > 0 {
		return nil, errors.Validation("validation failed", details)
	}

	c := &Complainant{
		ID:           types.NewID(),
		Owner:        owner,
		FullName:     fullName,
		Phone:        phone,
		NationalID:   nationalID,
		Verification: VerificationPending,
		CreatedAt:    time.Now().UTC(),
	}

	if owner.Kind == OwnerCase {
		c.IsVerified = true
		c.Verification = VerificationApproved
	}

	return c, nil
}

// Review records a cadet's verification decision. Case-owned
// complainants are auto-approved and cannot be reviewed.
func (c *Complainant) Review(approve bool, message string) error {
	if c.Owner.Kind != OwnerComplaint {
		return errors.InvalidState("complainants attached to a case are auto-approved and cannot be reviewed")
	}
	if c.Verification != VerificationPending {
		return errors.InvalidState(fmt.Sprintf("complainant is already %s", c.Verification))
	}

	if approve {
		c.Verification = VerificationApproved
		c.IsVerified = true
		c.ReviewMessage = ""
		return nil
	}

	if message == "" {
		return errors.Validation("message is required when rejecting a complainant", nil)
	}
	c.Verification = VerificationRejected
	c.IsVerified = false
	c.ReviewMessage = message
	return nil
}

// ReportStatus is a crime scene report's review state
type ReportStatus string

const (
	ReportPendingApproval ReportStatus = "pending_approval"
	ReportApproved        ReportStatus = "approved"
	ReportRejected        ReportStatus = "rejected"
)

// Witness is a person named on a crime scene report. Witnesses must
// correspond to registered users; the cross-check happens at report
// creation.
type Witness struct {
	ID         types.ID `json:"id"`
	ReportID   types.ID `json:"report_id"`
	FullName   string   `json:"full_name"`
	Phone      string   `json:"phone"`
	NationalID string   `json:"national_id"`
}

// CrimeSceneReport accompanies a case created from a field report
type CrimeSceneReport struct {
	ID                   types.ID     `json:"id"`
	CaseID               types.ID     `json:"case_id"`
	ReportedBy           types.ID     `json:"reported_by"`
	SceneAt              time.Time    `json:"scene_datetime"`
	Status               ReportStatus `json:"status"`
	RequiredApproverRole string       `json:"required_approver_role,omitempty"`
	ApprovedBy           *types.ID    `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time   `json:"approved_at,omitempty"`
	Witnesses            []Witness    `json:"witnesses,omitempty"`
	CreatedAt            time.Time    `json:"created_at"`
}

// Decide records an approval or rejection of the report. The reporter
// may never decide their own report; when a required role was recorded
// the approver must hold that exact role.
func (r *CrimeSceneReport) Decide(approve bool, approverID types.ID, approverRoles []string) error {
	if r.Status != ReportPendingApproval {
		return errors.InvalidState(fmt.Sprintf("report is already %s", r.Status))
	}
	if approverID == r.ReportedBy {
		return errors.Forbidden("the reporter cannot approve their own crime scene report")
	}
	if r.RequiredApproverRole != "" && !rbac.HasAnyRole(approverRoles, r.RequiredApproverRole) {
		return errors.Forbidden(fmt.Sprintf("approval requires the %s role", r.RequiredApproverRole))
	}

	now := time.Now().UTC()
	if approve {
		r.Status = ReportApproved
	} else {
		r.Status = ReportRejected
	}
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	return nil
}

// AssignmentRole is the capacity a user works a case in
type AssignmentRole string

const (
	AssignmentDetective AssignmentRole = "detective"
	AssignmentOfficer   AssignmentRole = "officer"
	AssignmentSergeant  AssignmentRole = "sergeant"
)

// RequiredSystemRoles maps a case role to the system role slugs an
// assignee must hold
var RequiredSystemRoles = map[AssignmentRole][]string{
	AssignmentDetective: {rbac.RoleDetective},
	AssignmentOfficer:   {rbac.RolePoliceOfficer, rbac.RolePatrolOfficer},
	AssignmentSergeant:  {rbac.RoleSergeant},
}

// IsValid reports whether the assignment role is known
func (a AssignmentRole) IsValid() bool {
	_, ok := RequiredSystemRoles[a]
	return ok
}

// CaseAssignment records who is actively working a case in what
// capacity. Unique per (case, user, role_in_case).
type CaseAssignment struct {
	ID         types.ID       `json:"id"`
	CaseID     types.ID       `json:"case_id"`
	UserID     types.ID       `json:"user_id"`
	RoleInCase AssignmentRole `json:"role_in_case"`
	AssignedAt time.Time      `json:"assigned_at"`
}
