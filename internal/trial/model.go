package trial

import (
	"time"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Verdict is the court's finding
type Verdict string

const (
	VerdictGuilty    Verdict = "guilty"
	VerdictNotGuilty Verdict = "not_guilty"
)

// Trial records the judicial outcome of a solved case. A case gets at
// most one.
type Trial struct {
	ID                    types.ID  `json:"id"`
	CaseID                types.ID  `json:"case_id"`
	JudgeID               types.ID  `json:"judge_id"`
	Verdict               Verdict   `json:"verdict"`
	PunishmentTitle       string    `json:"punishment_title,omitempty"`
	PunishmentDescription string    `json:"punishment_description,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewTrial builds a verdict record. A guilty verdict must name its
// punishment.
func NewTrial(caseID, judgeID types.ID, verdict Verdict, punishmentTitle, punishmentDescription string) (*Trial, error) {
	if verdict != VerdictGuilty && verdict != VerdictNotGuilty {
		return nil, errors.Validation("verdict must be guilty or not_guilty", nil)
	}
	if verdict == VerdictGuilty && punishmentTitle == "" {
		return nil, errors.Validation("a guilty verdict requires a punishment_title", nil)
	}

	return &Trial{
		ID:                    types.NewID(),
		CaseID:                caseID,
		JudgeID:               judgeID,
		Verdict:               verdict,
		PunishmentTitle:       punishmentTitle,
		PunishmentDescription: punishmentDescription,
		CreatedAt:             time.Now().UTC(),
	}, nil
}
