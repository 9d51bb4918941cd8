package internal

import (
	"testing"
	"time"

	casedomain "github.com/police-portal/platform/internal/cases/domain"
	"github.com/police-portal/platform/internal/complaint"
	"github.com/police-portal/platform/internal/interrogation"
	"github.com/police-portal/platform/internal/reward"
	"github.com/police-portal/platform/internal/shared/types"
	"github.com/police-portal/platform/internal/suspect"
	"github.com/police-portal/platform/internal/trial"
)

// TestComplaintToVerdictWorkflow walks a case from citizen complaint to
// trial verdict across the domain models.
func TestComplaintToVerdictWorkflow(t *testing.T) {
	citizenID := types.NewID()
	cadetID := types.NewID()
	officerID := types.NewID()
	detectiveID := types.NewID()
	sergeantID := types.NewID()
	captainID := types.NewID()
	judgeID := types.NewID()

	// 1. Citizen files a complaint
	incident := time.Now().Add(-48 * time.Hour)
	cp, err := complaint.NewComplaint(
		"Warehouse burglary",
		"Broken lock and missing inventory at the riverside warehouse",
		casedomain.CrimeLevelTwo,
		"Riverside district",
		&incident,
		citizenID,
	)
	if err != nil {
		t.Fatalf("file complaint: %v", err)
	}
	if cp.Status != complaint.StatusPendingCadet {
		t.Fatalf("new complaint status = %s", cp.Status)
	}

	// 2. Cadet returns it once, citizen corrects and resubmits
	if err := cp.CadetReturn(cadetID, "location is too vague"); err != nil {
		t.Fatalf("cadet return: %v", err)
	}
	loc := "Riverside district, warehouse 12"
	if err := cp.Resubmit(citizenID, complaint.ComplaintUpdate{Location: &loc}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	// 3. Cadet approves, officer approves into a case
	if err := cp.CadetApprove(cadetID, officerID); err != nil {
		t.Fatalf("cadet approve: %v", err)
	}
	if err := complaint.CheckComplainants([]casedomain.VerificationStatus{casedomain.VerificationApproved}); err != nil {
		t.Fatalf("complainant gate: %v", err)
	}
	if err := cp.OfficerApprove(officerID); err != nil {
		t.Fatalf("officer approve: %v", err)
	}
	if cp.Status != complaint.StatusApproved {
		t.Fatalf("complaint status = %s", cp.Status)
	}

	c, err := casedomain.NewCase(cp.Title, cp.Description, cp.CrimeLevel, cp.Location,
		cp.IncidentAt, casedomain.SourceComplaint, cp.CreatedBy)
	if err != nil {
		t.Fatalf("open case: %v", err)
	}
	if err := c.TransitionTo(casedomain.CaseStatusActive); err != nil {
		t.Fatalf("activate case: %v", err)
	}

	// 4. Detective proposes a suspect; sergeant approves, the person
	// becomes wanted at the case's degree
	person, err := suspect.NewPerson("Mirko", "Lazic", "", nil, "seen near warehouse 12", detectiveID)
	if err != nil {
		t.Fatalf("register person: %v", err)
	}

	candidate := suspect.NewCandidate(c.ID, person.ID, detectiveID, "matches witness description")
	if err := candidate.Decide(true, sergeantID, ""); err != nil {
		t.Fatalf("approve candidate: %v", err)
	}

	wanted := &suspect.WantedRecord{
		ID:              types.NewID(),
		PersonID:        person.ID,
		CaseID:          c.ID,
		Degree:          c.CrimeLevel.Degree(),
		Status:          suspect.WantedStatusWanted,
		WantedSince:     time.Now().Add(-40 * 24 * time.Hour),
		StatusChangedAt: time.Now(),
	}

	// 5. The person qualifies for the most-wanted list and a tip on
	// them carries that reward
	entries := suspect.ComputeMostWanted([]suspect.RankingRecord{{
		PersonID:    person.ID,
		PersonName:  person.FullName(),
		Degree:      wanted.Degree,
		Status:      wanted.Status,
		WantedSince: wanted.WantedSince,
		CaseLive:    true,
	}}, time.Now())
	if len(entries) != 1 {
		t.Fatalf("most wanted entries = %d", len(entries))
	}
	if entries[0].RewardAmount <= 0 {
		t.Fatal("expected a positive reward")
	}

	tip, err := reward.NewTip(&person.ID, &c.ID, "he sleeps at the old mill", "0101990710006", "", "")
	if err != nil {
		t.Fatalf("submit tip: %v", err)
	}
	if err := tip.OfficerReview(true, officerID); err != nil {
		t.Fatalf("officer tip review: %v", err)
	}
	if err := tip.DetectiveReview(true, detectiveID); err != nil {
		t.Fatalf("detective tip review: %v", err)
	}

	code := reward.NewCode(tip.ID, tip.TipsterNationalID, entries[0].RewardAmount)
	if err := code.Redeem(); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	// 6. Arrest and interrogation up the chain of command
	if err := wanted.SetStatus(suspect.WantedStatusArrested); err != nil {
		t.Fatalf("arrest: %v", err)
	}

	detectiveScore := 8
	i, err := interrogation.New(c.ID, person.ID, detectiveID, &detectiveScore)
	if err != nil {
		t.Fatalf("open interrogation: %v", err)
	}
	if err := i.SetSergeantScore(7); err != nil {
		t.Fatalf("sergeant score: %v", err)
	}
	if err := i.CaptainDecide(captainID, true, "evidence holds up", false, false); err != nil {
		t.Fatalf("captain decision: %v", err)
	}
	if i.Status != interrogation.StatusApproved {
		t.Fatalf("interrogation status = %s", i.Status)
	}

	// 7. Case closes solved, judge records the verdict
	if err := c.TransitionTo(casedomain.CaseStatusClosedSolved); err != nil {
		t.Fatalf("close case: %v", err)
	}

	verdict, err := trial.NewTrial(c.ID, judgeID, trial.VerdictGuilty, "imprisonment", "4 years")
	if err != nil {
		t.Fatalf("record verdict: %v", err)
	}
	if verdict.CaseID != c.ID {
		t.Fatal("verdict bound to wrong case")
	}

	// A closed case no longer counts toward the ranking
	entries = suspect.ComputeMostWanted([]suspect.RankingRecord{{
		PersonID:    person.ID,
		PersonName:  person.FullName(),
		Degree:      wanted.Degree,
		Status:      suspect.WantedStatusWanted,
		WantedSince: wanted.WantedSince,
		CaseLive:    false,
	}}, time.Now())
	if len(entries) != 0 {
		t.Fatal("closed case must drop off the most-wanted list")
	}
}
