package reward

import (
	"testing"
	"time"

	"github.com/police-portal/platform/internal/shared/types"
	"github.com/police-portal/platform/internal/suspect"
)

func TestTipReviewChain(t *testing.T) {
	officer := types.NewID()
	detective := types.NewID()
	person := types.NewID()

	t.Run("full approval chain", func(t *testing.T) {
		tip, err := NewTip(&person, nil, "seen at the central station", "1234567890", "Ana Petrov", "")
		if err != nil {
			t.Fatalf("NewTip: %v", err)
		}
		if tip.Status != TipPendingOfficer {
			t.Fatalf("new tip status = %s", tip.Status)
		}

		if err := tip.OfficerReview(true, officer); err != nil {
			t.Fatalf("OfficerReview: %v", err)
		}
		if tip.Status != TipPendingDetective {
			t.Errorf("status = %s, want %s", tip.Status, TipPendingDetective)
		}

		if err := tip.DetectiveReview(true, detective); err != nil {
			t.Fatalf("DetectiveReview: %v", err)
		}
		if tip.Status != TipAccepted {
			t.Errorf("status = %s, want %s", tip.Status, TipAccepted)
		}
		if tip.OfficerReviewedBy == nil || tip.DetectiveReviewedBy == nil {
			t.Error("reviewers not recorded")
		}
	})

	t.Run("officer rejection is terminal", func(t *testing.T) {
		tip, _ := NewTip(&person, nil, "vague rumor", "1234567890", "", "")
		if err := tip.OfficerReview(false, officer); err != nil {
			t.Fatalf("OfficerReview: %v", err)
		}
		if tip.Status != TipRejected {
			t.Errorf("status = %s, want %s", tip.Status, TipRejected)
		}
		if err := tip.DetectiveReview(true, detective); err == nil {
			t.Error("expected error reviewing a rejected tip")
		}
	})

	t.Run("tip needs no person or case", func(t *testing.T) {
		tip, err := NewTip(nil, nil, "unsigned letter about the docks", "1234567890", "", "")
		if err != nil {
			t.Fatalf("NewTip: %v", err)
		}
		if tip.PersonID != nil || tip.CaseID != nil {
			t.Error("person and case should stay unset")
		}
	})

	t.Run("detective cannot review unscreened tip", func(t *testing.T) {
		tip, _ := NewTip(&person, nil, "credible sighting", "1234567890", "", "")
		if err := tip.DetectiveReview(true, detective); err == nil {
			t.Error("expected error skipping officer review")
		}
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		if _, err := NewTip(&person, nil, "", "1234567890", "", ""); err == nil {
			t.Error("expected error without content")
		}
		if _, err := NewTip(&person, nil, "content", "", "", ""); err == nil {
			t.Error("expected error without national ID")
		}
	})
}

func TestRewardAmount(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ranked := types.NewID()
	records := []suspect.RankingRecord{
		{PersonID: ranked, PersonName: "Luka Novak", Degree: 4, Status: suspect.WantedStatusWanted,
			WantedSince: now.AddDate(0, 0, -40), CaseLive: true},
	}

	t.Run("ranked person earns the listed reward", func(t *testing.T) {
		if got := rewardAmount(records, &ranked, now); got != 3_200_000_000 {
			t.Errorf("rewardAmount = %d, want 3200000000", got)
		}
	})

	t.Run("no linked person is worth zero", func(t *testing.T) {
		if got := rewardAmount(records, nil, now); got != 0 {
			t.Errorf("rewardAmount = %d, want 0", got)
		}
	})

	t.Run("unranked person is worth zero", func(t *testing.T) {
		unranked := types.NewID()
		if got := rewardAmount(records, &unranked, now); got != 0 {
			t.Errorf("rewardAmount = %d, want 0", got)
		}
	})
}

func TestCode(t *testing.T) {
	c := NewCode(types.NewID(), "1234567890", 3_200_000_000)

	if len(c.Code) != 12 {
		t.Errorf("code length = %d, want 12", len(c.Code))
	}
	for _, ch := range c.Code {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			t.Errorf("code %q contains non-hex character %q", c.Code, ch)
		}
	}
	if c.Amount != 3_200_000_000 {
		t.Errorf("amount = %d", c.Amount)
	}

	if err := c.Redeem(); err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if c.RedeemedAt == nil {
		t.Error("redeemed timestamp missing")
	}
	if err := c.Redeem(); err == nil {
		t.Error("expected error redeeming twice")
	}
}
