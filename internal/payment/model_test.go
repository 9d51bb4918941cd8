package payment

import (
	"testing"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/suspect"
)

func TestEligible(t *testing.T) {
	rec := func(degree int, status suspect.WantedStatus) *suspect.WantedRecord {
		return &suspect.WantedRecord{Degree: degree, Status: status}
	}

	tests := []struct {
		name       string
		records    []*suspect.WantedRecord
		kind       Kind
		wantDegree int
		wantAmount int64
		wantErr    bool
	}{
		{"bail for wanted degree 2", []*suspect.WantedRecord{rec(2, suspect.WantedStatusWanted)}, KindBail, 2, 50_000_000, false},
		{"bail for arrested degree 3", []*suspect.WantedRecord{rec(3, suspect.WantedStatusArrested)}, KindBail, 3, 150_000_000, false},
		{"bail picks gravest eligible", []*suspect.WantedRecord{rec(2, suspect.WantedStatusWanted), rec(3, suspect.WantedStatusWanted)}, KindBail, 3, 150_000_000, false},
		{"no bail for minor degree", []*suspect.WantedRecord{rec(1, suspect.WantedStatusWanted)}, KindBail, 0, 0, true},
		{"no bail for critical", []*suspect.WantedRecord{rec(4, suspect.WantedStatusArrested)}, KindBail, 0, 0, true},
		{"no bail on cleared record", []*suspect.WantedRecord{rec(3, suspect.WantedStatusCleared)}, KindBail, 0, 0, true},
		{"fine for arrested degree 3", []*suspect.WantedRecord{rec(3, suspect.WantedStatusArrested)}, KindFine, 3, 30_000_000, false},
		{"no fine while still wanted", []*suspect.WantedRecord{rec(3, suspect.WantedStatusWanted)}, KindFine, 0, 0, true},
		{"no fine for degree 2", []*suspect.WantedRecord{rec(2, suspect.WantedStatusArrested)}, KindFine, 0, 0, true},
		{"no records", nil, KindBail, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, amount, err := Eligible(tt.records, tt.kind)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				appErr, ok := err.(*errors.AppError)
				if !ok || appErr.Code != "invalid_state" {
					t.Errorf("expected invalid_state, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Eligible: %v", err)
			}
			if got.Degree != tt.wantDegree {
				t.Errorf("degree = %d, want %d", got.Degree, tt.wantDegree)
			}
			if amount != tt.wantAmount {
				t.Errorf("amount = %d, want %d", amount, tt.wantAmount)
			}
		})
	}
}

func TestEligibleUnknownKind(t *testing.T) {
	_, _, err := Eligible([]*suspect.WantedRecord{{Degree: 3, Status: suspect.WantedStatusArrested}}, Kind("ransom"))
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
