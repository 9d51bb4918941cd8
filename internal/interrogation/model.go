package interrogation

import (
	"fmt"
	"time"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Status tracks an interrogation through the chain of command
type Status string

const (
	StatusPendingDetective Status = "pending_detective"
	StatusPendingSergeant  Status = "pending_sergeant"
	StatusPendingCaptain   Status = "pending_captain"
	StatusPendingChief     Status = "pending_chief"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
)

// Decision values recorded at the captain and chief stages
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Interrogation is a suspect assessment climbing the chain of command.
// The detective and the sergeant each score guilt from 1 to 10. An
// approved interrogation marks the suspect as the case's offender, and
// a case may only ever have one.
type Interrogation struct {
	ID                types.ID  `json:"id"`
	CaseID            types.ID  `json:"case_id"`
	SuspectID         types.ID  `json:"suspect_id"`
	CreatedBy         types.ID  `json:"created_by"`
	DetectiveScore    *int      `json:"detective_score,omitempty"`
	SergeantScore     *int      `json:"sergeant_score,omitempty"`
	Status            Status    `json:"status"`
	CaptainDecision   string    `json:"captain_decision,omitempty"`
	CaptainNotes      string    `json:"captain_notes,omitempty"`
	CaptainReviewedBy *types.ID `json:"captain_reviewed_by,omitempty"`
	ChiefDecision     string    `json:"chief_decision,omitempty"`
	ChiefNotes        string    `json:"chief_notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func validScore(score int) error {
	if score < 1 || score > 10 {
		return errors.Validation("score must be between 1 and 10", nil)
	}
	return nil
}

// New opens an interrogation awaiting the sergeant's score. The
// detective's own score is optional at creation and may follow later.
func New(caseID, suspectID, createdBy types.ID, detectiveScore *int) (*Interrogation, error) {
	if detectiveScore != nil {
		if err := validScore(*detectiveScore); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	return &Interrogation{
		ID:             types.NewID(),
		CaseID:         caseID,
		SuspectID:      suspectID,
		CreatedBy:      createdBy,
		DetectiveScore: detectiveScore,
		Status:         StatusPendingSergeant,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// SetDetectiveScore records or revises the detective's score. The
// window stays open until the sergeant has scored.
func (i *Interrogation) SetDetectiveScore(score int) error {
	if i.Status != StatusPendingDetective && i.Status != StatusPendingSergeant {
		return errors.InvalidState(fmt.Sprintf("interrogation is %s, the detective score is locked", i.Status))
	}
	if err := validScore(score); err != nil {
		return err
	}

	i.DetectiveScore = &score
	if i.Status == StatusPendingDetective {
		i.Status = StatusPendingSergeant
	}
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// SetSergeantScore records the sergeant's score and hands the
// interrogation to the captain
func (i *Interrogation) SetSergeantScore(score int) error {
	if i.Status != StatusPendingSergeant {
		return errors.InvalidState(fmt.Sprintf("interrogation is %s, not awaiting the sergeant's score", i.Status))
	}
	if err := validScore(score); err != nil {
		return err
	}

	i.SergeantScore = &score
	i.Status = StatusPendingCaptain
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// CaptainDecide records the captain's decision and notes. On critical
// cases the decision is recorded but the interrogation always
// escalates to the chief; otherwise it resolves here. An approval
// fails while the case already has an approved offender.
func (i *Interrogation) CaptainDecide(captainID types.ID, approve bool, notes string, critical, hasApprovedOffender bool) error {
	if i.Status != StatusPendingCaptain {
		return errors.InvalidState(fmt.Sprintf("interrogation is %s, not awaiting captain review", i.Status))
	}
	if approve && hasApprovedOffender {
		return errors.InvalidState("the case already has an approved offender")
	}

	i.CaptainReviewedBy = &captainID
	i.CaptainDecision = decisionOf(approve)
	i.CaptainNotes = notes

	switch {
	case critical:
		i.Status = StatusPendingChief
	case approve:
		i.Status = StatusApproved
	default:
		i.Status = StatusRejected
	}
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// ChiefDecide resolves a critical-case interrogation. A rejection
// sends it back to the recorded captain rather than ending it.
func (i *Interrogation) ChiefDecide(approve bool, notes string, hasApprovedOffender bool) error {
	if i.Status != StatusPendingChief {
		return errors.InvalidState(fmt.Sprintf("interrogation is %s, not awaiting chief review", i.Status))
	}
	if approve && hasApprovedOffender {
		return errors.InvalidState("the case already has an approved offender")
	}

	i.ChiefDecision = decisionOf(approve)
	i.ChiefNotes = notes
	if approve {
		i.Status = StatusApproved
	} else {
		i.Status = StatusPendingCaptain
	}
	i.UpdatedAt = time.Now().UTC()
	return nil
}

func decisionOf(approve bool) string {
	if approve {
		return DecisionApprove
	}
	return DecisionReject
}
