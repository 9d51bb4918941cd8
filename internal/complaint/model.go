package complaint

import (
	"fmt"
	"time"

	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Status is a complaint's position in the review pipeline
type Status string

const (
	StatusPendingCadet          Status = "pending_cadet"
	StatusReturnedToComplainant Status = "returned_to_complainant"
	StatusPendingOfficer        Status = "pending_officer"
	StatusReturnedToCadet       Status = "returned_to_cadet"
	StatusApproved              Status = "approved"
	StatusVoided                Status = "voided"
)

// MaxStrikes is the number of cadet returns that voids a complaint
const MaxStrikes = 3

// Complaint is a citizen-filed report that may become a case after
// two-stage review
type Complaint struct {
	ID              types.ID              `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	CrimeLevel      casedomain.CrimeLevel `json:"crime_level"`
	Location        string                `json:"location"`
	IncidentAt      *time.Time            `json:"incident_datetime,omitempty"`
	Status          Status                `json:"status"`
	StrikeCount     int                   `json:"strike_count"`
	LastMessage     string                `json:"last_message,omitempty"`
	AssignedCadet   *types.ID             `json:"assigned_cadet,omitempty"`
	AssignedOfficer *types.ID             `json:"assigned_officer,omitempty"`
	CreatedBy       types.ID              `json:"created_by"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// NewComplaint creates a complaint in the cadet queue
func NewComplaint(title, description string, level casedomain.CrimeLevel, location string, incidentAt *time.Time, createdBy types.ID) (*Complaint, error) {
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
	return &Complaint{
		ID:          types.NewID(),
		Title:       title,
		Description: description,
		CrimeLevel:  level,
		Location:    location,
		IncidentAt:  incidentAt,
		Status:      StatusPendingCadet,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsTerminal reports whether the complaint can no longer move
func (c *Complaint) IsTerminal() bool {
	return c.Status == StatusApproved || c.Status == StatusVoided
}

func (c *Complaint) inCadetQueue() bool {
	return c.Status == StatusPendingCadet || c.Status == StatusReturnedToCadet
}

// CadetReturn sends the complaint back to its creator for correction.
// The third return voids the complaint permanently.
func (c *Complaint) CadetReturn(cadetID types.ID, message string) error {
	if !c.inCadetQueue() {
		return errors.InvalidState(fmt.Sprintf("complaint is %s, not awaiting cadet review", c.Status))
	}
	if c.AssignedCadet != nil && *c.AssignedCadet != cadetID {
		return errors.Forbidden("only the assigned cadet may review this complaint")
	}
	if message == "" {
		return errors.Validation("message is required when returning a complaint", nil)
	}

	c.AssignedCadet = &cadetID
	c.AssignedOfficer = nil
	c.StrikeCount++
	c.LastMessage = message
	if c.StrikeCount >= MaxStrikes {
		c.Status = StatusVoided
	} else {
		c.Status = StatusReturnedToComplainant
	}
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// CadetApprove forwards the complaint to a chosen officer
func (c *Complaint) CadetApprove(cadetID, officerID types.ID) error {
	if !c.inCadetQueue() {
		return errors.InvalidState(fmt.Sprintf("complaint is %s, not awaiting cadet review", c.Status))
	}
	if c.AssignedCadet != nil && *c.AssignedCadet != cadetID {
		return errors.Forbidden("only the assigned cadet may review this complaint")
	}

	c.AssignedCadet = &cadetID
	c.AssignedOfficer = &officerID
	c.Status = StatusPendingOfficer
	c.LastMessage = ""
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// ComplaintUpdate carries the fields a citizen may change on
// resubmission. Nil pointers leave the field untouched.
type ComplaintUpdate struct {
	Title       *string                `json:"title,omitempty"`
	Description *string                `json:"description,omitempty"`
	CrimeLevel  *casedomain.CrimeLevel `json:"crime_level,omitempty"`
	Location    *string                `json:"location,omitempty"`
	IncidentAt  *time.Time             `json:"incident_datetime,omitempty"`
}

// Resubmit applies the creator's corrections and returns the complaint
// to the cadet queue. Only the creator may resubmit, and only from the
// returned state.
func (c *Complaint) Resubmit(actorID types.ID, update ComplaintUpdate) error {
	if actorID != c.CreatedBy {
		return errors.Forbidden("only the complaint creator may resubmit")
	}
	if c.Status != StatusReturnedToComplainant {
		return errors.InvalidState(fmt.Sprintf("complaint is %s, not returned for correction", c.Status))
	}

	if update.Title != nil {
		c.Title = *update.Title
	}
	if update.Description != nil {
		c.Description = *update.Description
	}
	if update.CrimeLevel != nil {
		if !update.CrimeLevel.IsValid() {
			return errors.Validation("unknown crime level", nil)
		}
		c.CrimeLevel = *update.CrimeLevel
	}
	if update.Location != nil {
		c.Location = *update.Location
	}
	if update.IncidentAt != nil {
		c.IncidentAt = update.IncidentAt
	}

	c.Status = StatusPendingCadet
	c.LastMessage = ""
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// OfficerReturn sends the complaint back to the cadet queue for rework
func (c *Complaint) OfficerReturn(officerID types.ID, message string) error {
	if c.Status != StatusPendingOfficer {
		return errors.InvalidState(fmt.Sprintf("complaint is %s, not awaiting officer review", c.Status))
	}
	if c.AssignedOfficer == nil || *c.AssignedOfficer != officerID {
		return errors.Forbidden("only the assigned officer may review this complaint")
	}
	if message == "" {
		return errors.Validation("message is required when returning a complaint", nil)
	}

	c.Status = StatusReturnedToCadet
	c.LastMessage = message
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// OfficerApprove accepts the complaint
func (c *Complaint) OfficerApprove(officerID types.ID) error {
	if c.Status != StatusPendingOfficer {
		return errors.InvalidState(fmt.Sprintf("complaint is %s, not awaiting officer review", c.Status))
	}
	if c.AssignedOfficer == nil || *c.AssignedOfficer != officerID {
		return errors.Forbidden("only the assigned officer may review this complaint")
	}

	c.Status = StatusApproved
	c.LastMessage = ""
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// CheckComplainants gates officer approval on the complaint's
// complainants, ordered oldest first. The first complainant filed is
// the primary one and must be approved; any complainant still pending
// review blocks the approval.
func CheckComplainants(statuses []casedomain.VerificationStatus) error {
	if len(statuses) == 0 {
		return errors.InvalidState("a complaint needs a complainant before it can be approved")
	}
	if statuses[0] != casedomain.VerificationApproved {
		return errors.InvalidState("the primary complainant must be approved before the complaint can be")
	}
	for _, s := range statuses {
		if s == casedomain.VerificationPending {
			return errors.InvalidState("every complainant must be reviewed before the complaint can be approved")
		}
	}
	return nil
}
