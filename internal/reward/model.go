package reward

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// TipStatus is a tip's position in the two-stage review
type TipStatus string

const (
	TipPendingOfficer   TipStatus = "pending_officer"
	TipPendingDetective TipStatus = "pending_detective"
	TipAccepted         TipStatus = "accepted"
	TipRejected         TipStatus = "rejected"
)

// Tip is a citizen's information for the police. It may name a wanted
// person, point at a case, both, or neither. An officer screens it, a
// detective confirms it, and an accepted tip earns the tipster a
// reward code.
type Tip struct {
	ID                  types.ID  `json:"id"`
	PersonID            *types.ID `json:"person_id,omitempty"`
	CaseID              *types.ID `json:"case_id,omitempty"`
	Content             string    `json:"content"`
	TipsterNationalID   string    `json:"tipster_national_id"`
	TipsterName         string    `json:"tipster_name,omitempty"`
	TipsterPhone        string    `json:"tipster_phone,omitempty"`
	Status              TipStatus `json:"status"`
	OfficerReviewedBy   *types.ID `json:"officer_reviewed_by,omitempty"`
	DetectiveReviewedBy *types.ID `json:"detective_reviewed_by,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewTip files a tip into the officer queue. personID and caseID are
// both optional.
func NewTip(personID, caseID *types.ID, content, tipsterNationalID, tipsterName, tipsterPhone string) (*Tip, error) {
	details := map[string]string{}
	if content == "" {
		details["content"] = "content is required"
	}
	if tipsterNationalID == "" {
		details["national_id"] = "national_id is required to claim a reward"
	}
	if len(details) > 0 {
		return nil, errors.Validation("validation failed", details)
	}

	now := time.Now().UTC()
	return &Tip{
		ID:                types.NewID(),
		PersonID:          personID,
		CaseID:            caseID,
		Content:           content,
		TipsterNationalID: tipsterNationalID,
		TipsterName:       tipsterName,
		TipsterPhone:      tipsterPhone,
		Status:            TipPendingOfficer,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// OfficerReview screens the tip. Approval forwards it to a detective.
func (t *Tip) OfficerReview(approve bool, reviewerID types.ID) error {
	if t.Status != TipPendingOfficer {
		return errors.InvalidState(fmt.Sprintf("tip is %s, not awaiting officer review", t.Status))
	}

	t.OfficerReviewedBy = &reviewerID
	if approve {
		t.Status = TipPendingDetective
	} else {
		t.Status = TipRejected
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// DetectiveReview confirms or rejects a screened tip
func (t *Tip) DetectiveReview(approve bool, reviewerID types.ID) error {
	if t.Status != TipPendingDetective {
		return errors.InvalidState(fmt.Sprintf("tip is %s, not awaiting detective review", t.Status))
	}

	t.DetectiveReviewedBy = &reviewerID
	if approve {
		t.Status = TipAccepted
	} else {
		t.Status = TipRejected
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// Code is a claimable reward. The amount is snapshotted at issuance so
// ranking drift never changes what a tipster was promised.
type Code struct {
	ID         types.ID   `json:"id"`
	TipID      types.ID   `json:"tip_id"`
	Code       string     `json:"code"`
	NationalID string     `json:"national_id"`
	Amount     int64      `json:"amount"`
	IssuedAt   time.Time  `json:"issued_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
}

// NewCode mints a reward code for an accepted tip
func NewCode(tipID types.ID, nationalID string, amount int64) *Code {
	return &Code{
		ID:         types.NewID(),
		TipID:      tipID,
		Code:       generateCode(),
		NationalID: nationalID,
		Amount:     amount,
		IssuedAt:   time.Now().UTC(),
	}
}

// generateCode yields 12 hex characters
func generateCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Redeem marks the code as paid out
func (c *Code) Redeem() error {
	if c.RedeemedAt != nil {
		return errors.InvalidState("reward code has already been redeemed")
	}
	now := time.Now().UTC()
	c.RedeemedAt = &now
	return nil
}
