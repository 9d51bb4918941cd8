package domain

import (
	"github.com/police-portal/platform/internal/rbac"
	"github.com/police-portal/platform/internal/shared/types"
)

// Actor is the calling user as seen by access policy
type Actor struct {
	ID    types.ID
	Roles []string
	Admin bool
}

// CanAccess is the record-level gate for a case: administrators, the
// case creator, the originating complaint's creator, and assigned
// users pass. complaintCreator is zero when the case has no complaint.
func CanAccess(actor Actor, c *Case, complaintCreator types.ID, assigned bool) bool {
	if actor.Admin {
		return true
	}
	if c.CreatedBy == actor.ID {
		return true
	}
	if !complaintCreator.IsZero() && complaintCreator == actor.ID {
		return true
	}
	return assigned
}

// WorkflowVisible reports whether an actor's rank grants visibility of
// a case through the organizational workflow, independent of ownership
// or assignment. Cadets see complaint-sourced cases only; policing
// ranks see both sources.
func WorkflowVisible(actorRoles []string, c *Case) bool {
	if !c.IsWorkflowVisible() {
		return false
	}

	police := rbac.IsPoliceRank(actorRoles)
	cadet := rbac.HasAnyRole(actorRoles, rbac.RoleCadet)

	switch c.SourceType {
	case SourceComplaint:
		return police || cadet
	case SourceCrimeScene:
		return police
	}
	return false
}

// PendingVisibleToSuperior reports whether a viewer sees a case still
// awaiting superior approval: only ranks strictly senior to the case
// creator's primary rank qualify.
func PendingVisibleToSuperior(viewerRoles, creatorRoles []string, c *Case) bool {
	if c.Status != CaseStatusPendingSuperior {
		return false
	}
	return rbac.IsSuperiorRank(rbac.PrimaryRole(viewerRoles), rbac.PrimaryRole(creatorRoles))
}
