package domain

import (
	"context"

	"github.com/police-portal/platform/internal/shared/types"
)

// VisibleQuery narrows the case list endpoint
type VisibleQuery struct {
	Status     CaseStatus
	SourceType SourceType
	Limit      int
	Offset     int
}

// PendingCase pairs a pending case with its creator's role slugs so
// the superior-rank filter can run without extra round trips
type PendingCase struct {
	Case         *Case
	CreatorRoles []string
}

// Repository is the persistence boundary for cases, crime scene
// reports, complainants and assignments
type Repository interface {
	// GetCase fetches a case by ID
	GetCase(ctx context.Context, id types.ID) (*Case, error)

	// GetCaseWithReport fetches a case together with its crime scene
	// report, if any
	GetCaseWithReport(ctx context.Context, id types.ID) (*Case, *CrimeSceneReport, error)

	// CreateCaseWithReport persists a case, its crime scene report and
	// witnesses, and any initial complainants in one transaction
	CreateCaseWithReport(ctx context.Context, c *Case, report *CrimeSceneReport, complainants []*Complainant) error

	// TransitionCase locks the case row, applies fn, and persists the
	// resulting status
	TransitionCase(ctx context.Context, id types.ID, fn func(*Case) error) (*Case, error)

	// DecideReport locks the report and its case in one transaction,
	// applies fn to both, and persists the outcome
	DecideReport(ctx context.Context, reportID types.ID, fn func(*CrimeSceneReport, *Case) error) (*CrimeSceneReport, *Case, error)

	// ComplaintCreator returns the creator of the case's originating
	// complaint, or the zero ID when the case has none
	ComplaintCreator(ctx context.Context, c *Case) (types.ID, error)

	// UpsertAssignment records an assignment, returning the existing
	// row unchanged when the (case, user, role) triple already exists
	UpsertAssignment(ctx context.Context, a *CaseAssignment) (*CaseAssignment, bool, error)

	// DeleteAssignment removes an assignment
	DeleteAssignment(ctx context.Context, caseID, userID types.ID, role AssignmentRole) error

	// ListAssignments returns all assignments for a case
	ListAssignments(ctx context.Context, caseID types.ID) ([]*CaseAssignment, error)

	// IsAssigned reports whether the user holds any assignment on the
	// case, optionally restricted to specific roles
	IsAssigned(ctx context.Context, caseID, userID types.ID, roles ...AssignmentRole) (bool, error)

	// ListVisible returns the cases an actor can see through ownership,
	// assignment or workflow visibility. The workflow arm never yields
	// pending cases; ListPendingCrimeScene covers those for superiors.
	ListVisible(ctx context.Context, actor Actor, q VisibleQuery) ([]*Case, error)

	// ListPendingCrimeScene returns crime-scene cases awaiting superior
	// approval together with each creator's role slugs
	ListPendingCrimeScene(ctx context.Context) ([]*PendingCase, error)

	// AddComplainant attaches a complainant to a case
	AddComplainant(ctx context.Context, c *Complainant) error

	// ListComplainants returns the complainants owned by a case
	ListComplainants(ctx context.Context, caseID types.ID) ([]*Complainant, error)
}
