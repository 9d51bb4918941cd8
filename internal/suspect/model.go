package suspect

import (
	"fmt"
	"time"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Person is an individual in the persons register. Suspects, offenders
// and wanted individuals all reference a person record.
type Person struct {
	ID          types.ID   `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	NationalID  string     `json:"national_id,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedBy   types.ID   `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FullName joins the person's names
func (p *Person) FullName() string {
	return p.FirstName + " " + p.LastName
}

// NewPerson creates a person record
func NewPerson(firstName, lastName, nationalID string, dateOfBirth *time.Time, description string, createdBy types.ID) (*Person, error) {
	details := map[string]string{}
	if firstName == "" {
		details["first_name"] = "first_name is required"
	}
	if lastName == "" {
		details["last_name"] = "last_name is required"
	}
	if len(details) > 0 {
		return nil, errors.Validation("validation failed", details)
	}

	return &Person{
		ID:          types.NewID(),
		FirstName:   firstName,
		LastName:    lastName,
		NationalID:  nationalID,
		DateOfBirth: dateOfBirth,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// CandidateStatus is a suspect proposal's review state
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

// Candidate is a detective's proposal to mark a person wanted on a
// case. A sergeant confirms or rejects it.
type Candidate struct {
	ID              types.ID        `json:"id"`
	CaseID          types.ID        `json:"case_id"`
	PersonID        types.ID        `json:"person_id"`
	ProposedBy      types.ID        `json:"proposed_by"`
	Rationale       string          `json:"rationale,omitempty"`
	Status          CandidateStatus `json:"status"`
	SergeantMessage string          `json:"sergeant_message,omitempty"`
	ReviewedBy      *types.ID       `json:"reviewed_by,omitempty"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewCandidate creates a pending suspect proposal
func NewCandidate(caseID, personID, proposedBy types.ID, rationale string) *Candidate {
	now := time.Now().UTC()
	return &Candidate{
		ID:         types.NewID(),
		CaseID:     caseID,
		PersonID:   personID,
		ProposedBy: proposedBy,
		Rationale:  rationale,
		Status:     CandidatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Decide records the sergeant's confirmation or rejection. A rejection
// must carry a message for the proposing detective.
func (c *Candidate) Decide(approve bool, reviewerID types.ID, message string) error {
	if c.Status != CandidatePending {
		return errors.InvalidState(fmt.Sprintf("candidate is already %s", c.Status))
	}
	if !approve && message == "" {
		return errors.Validation("message is required when rejecting a candidate", nil)
	}

	if approve {
		c.Status = CandidateApproved
	} else {
		c.Status = CandidateRejected
	}
	now := time.Now().UTC()
	c.ReviewedBy = &reviewerID
	c.SergeantMessage = message
	c.DecidedAt = &now
	c.UpdatedAt = now
	return nil
}

// WantedStatus is the state of a wanted record
type WantedStatus string

const (
	WantedStatusWanted   WantedStatus = "wanted"
	WantedStatusArrested WantedStatus = "arrested"
	WantedStatusCleared  WantedStatus = "cleared"
)

// wantedTransitions is the wanted record status transition table.
// Arrested persons can return to wanted after an escape.
var wantedTransitions = map[WantedStatus][]WantedStatus{
	WantedStatusWanted:   {WantedStatusArrested, WantedStatusCleared},
	WantedStatusArrested: {WantedStatusWanted, WantedStatusCleared},
}

// WantedRecord links a person to a case they are sought for. The
// degree snapshots the case severity at creation so later case edits
// never change historical scoring.
type WantedRecord struct {
	ID              types.ID     `json:"id"`
	PersonID        types.ID     `json:"person_id"`
	CaseID          types.ID     `json:"case_id"`
	Degree          int          `json:"degree"`
	Status          WantedStatus `json:"status"`
	WantedSince     time.Time    `json:"wanted_since"`
	StatusChangedAt time.Time    `json:"status_changed_at"`
}

// SetStatus moves the record through the wanted lifecycle
func (w *WantedRecord) SetStatus(status WantedStatus) error {
	for _, allowed := range wantedTransitions[w.Status] {
		if allowed == status {
			w.Status = status
			w.StatusChangedAt = time.Now().UTC()
			return nil
		}
	}
	return errors.InvalidState(fmt.Sprintf("cannot move wanted record from %s to %s", w.Status, status))
}
