package domain

import (
	"fmt"
	"time"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// CrimeLevel is the ordinal severity of a crime. Level 3 is the
// lightest, critical the gravest.
type CrimeLevel int

const (
	CrimeLevelThree    CrimeLevel = 1
	CrimeLevelTwo      CrimeLevel = 2
	CrimeLevelOne      CrimeLevel = 3
	CrimeLevelCritical CrimeLevel = 4
)

// DegreeByLevel maps a crime level to the degree used in ranking
// arithmetic. Kept explicit so the two scales can diverge.
var DegreeByLevel = map[CrimeLevel]int{
	CrimeLevelThree:    1,
	CrimeLevelTwo:      2,
	CrimeLevelOne:      3,
	CrimeLevelCritical: 4,
}

// IsValid reports whether the level is a known severity
func (l CrimeLevel) IsValid() bool {
	_, ok := DegreeByLevel[l]
	return ok
}

// Degree returns the ranking degree for the level
func (l CrimeLevel) Degree() int {
	return DegreeByLevel[l]
}

// CaseStatus defines the status of a case
type CaseStatus string

const (
	CaseStatusPendingSuperior CaseStatus = "pending_superior"
	CaseStatusActive          CaseStatus = "active"
	CaseStatusClosedSolved    CaseStatus = "closed_solved"
	CaseStatusClosedUnsolved  CaseStatus = "closed_unsolved"
	CaseStatusVoided          CaseStatus = "voided"
)

// WorkflowVisibleStatuses are the statuses stable enough for general
// policing-rank visibility. The transient pending status is excluded.
var WorkflowVisibleStatuses = []CaseStatus{
	CaseStatusActive,
	CaseStatusClosedSolved,
	CaseStatusClosedUnsolved,
	CaseStatusVoided,
}

// ActiveWorkflowStatuses are the statuses under which a wanted record
// counts toward the most-wanted ranking
var ActiveWorkflowStatuses = []CaseStatus{
	CaseStatusActive,
	CaseStatusPendingSuperior,
}

// allowedTransitions is the case status transition table
var allowedTransitions = map[CaseStatus][]CaseStatus{
	CaseStatusPendingSuperior: {CaseStatusActive, CaseStatusVoided},
	CaseStatusActive:          {CaseStatusClosedSolved, CaseStatusClosedUnsolved, CaseStatusVoided},
}

// CanTransition reports whether a case may move between two statuses
func CanTransition(from, to CaseStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SourceType defines how a case was created
type SourceType string

const (
	SourceComplaint  SourceType = "complaint"
	SourceCrimeScene SourceType = "crime_scene"
)

// Case is the central investigative record
type Case struct {
	ID          types.ID   `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CrimeLevel  CrimeLevel `json:"crime_level"`
	Location    string     `json:"location"`
	IncidentAt  *time.Time `json:"incident_datetime,omitempty"`
	Status      CaseStatus `json:"status"`
	SourceType  SourceType `json:"source_type"`
	ComplaintID *types.ID  `json:"complaint_id,omitempty"`
	CreatedBy   types.ID   `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewCase creates a case with validation
func NewCase(title, description string, level CrimeLevel, location string, incidentAt *time.Time, source SourceType, createdBy types.ID) (*Case, error) {
	details := map[string]string{}
	if title == "" {
		details["title"] = "title is required"
	}
	if description == "" {
		details["description"] = "description is required"
	}
	if location == "" {
		details["location"] = "location is required"
	}
	if !level.IsValid() {
		details["crime_level"] = fmt.Sprintf("unknown crime level %d", level)
	}
	if len(details) > 0 {
		return nil, errors.Validation("validation failed", details)
	}

	now := time.Now().UTC()
	return &Case{
		ID:          types.NewID(),
		Title:       title,
		Description: description,
		CrimeLevel:  level,
		Location:    location,
		IncidentAt:  incidentAt,
		Status:      CaseStatusActive,
		SourceType:  source,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TransitionTo moves the case to a new status per the transition table
func (c *Case) TransitionTo(status CaseStatus) error {
	if !CanTransition(c.Status, status) {
		return errors.InvalidState(fmt.Sprintf("cannot transition case from %s to %s", c.Status, status))
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsWorkflowVisible reports whether the case status is visible to
// general policing ranks
func (c *Case) IsWorkflowVisible() bool {
	for _, s := range WorkflowVisibleStatuses {
		if c.Status == s {
			return true
		}
	}
	return false
}

// IsActiveWorkflow reports whether wanted records on this case count
// toward the most-wanted ranking
func (c *Case) IsActiveWorkflow() bool {
	for _, s := range ActiveWorkflowStatuses {
		if c.Status == s {
			return true
		}
	}
	return false
}
