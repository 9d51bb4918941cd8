package suspect

import (
	"testing"
	"time"

	"github.com/police-portal/platform/internal/shared/types"
)

func TestComputeMostWanted(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	t.Run("forty days critical", func(t *testing.T) {
		person := types.NewID()
		entries := ComputeMostWanted([]RankingRecord{
			{PersonID: person, PersonName: "Luka Novak", Degree: 4, Status: WantedStatusWanted, WantedSince: daysAgo(40), CaseLive: true},
		}, now)

		if len(entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries))
		}
		e := entries[0]
		if e.DaysWanted != 40 || e.Degree != 4 {
			t.Errorf("days=%d degree=%d, want 40 and 4", e.DaysWanted, e.Degree)
		}
		if e.Score != 160 {
			t.Errorf("score = %d, want 160", e.Score)
		}
		if e.RewardAmount != 3_200_000_000 {
			t.Errorf("reward = %d, want 3200000000", e.RewardAmount)
		}
	})

	t.Run("under thirty days excluded", func(t *testing.T) {
		entries := ComputeMostWanted([]RankingRecord{
			{PersonID: types.NewID(), PersonName: "Ivan Horvat", Degree: 4, Status: WantedStatusWanted, WantedSince: daysAgo(20), CaseLive: true},
		}, now)
		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
	})

	t.Run("closed case does not qualify", func(t *testing.T) {
		entries := ComputeMostWanted([]RankingRecord{
			{PersonID: types.NewID(), PersonName: "Ivan Horvat", Degree: 3, Status: WantedStatusWanted, WantedSince: daysAgo(90), CaseLive: false},
		}, now)
		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
	})

	t.Run("arrested record does not qualify", func(t *testing.T) {
		entries := ComputeMostWanted([]RankingRecord{
			{PersonID: types.NewID(), PersonName: "Ivan Horvat", Degree: 3, Status: WantedStatusArrested, WantedSince: daysAgo(90), CaseLive: true},
		}, now)
		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
	})

	t.Run("degree drawn from all records", func(t *testing.T) {
		person := types.NewID()
		entries := ComputeMostWanted([]RankingRecord{
			// qualifying record on a minor case
			{PersonID: person, PersonName: "Luka Novak", Degree: 1, Status: WantedStatusWanted, WantedSince: daysAgo(50), CaseLive: true},
			// short but grave record lifts the degree
			{PersonID: person, PersonName: "Luka Novak", Degree: 4, Status: WantedStatusWanted, WantedSince: daysAgo(5), CaseLive: true},
		}, now)

		if len(entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries))
		}
		e := entries[0]
		if e.DaysWanted != 50 || e.Degree != 4 || e.Score != 200 {
			t.Errorf("days=%d degree=%d score=%d, want 50, 4, 200", e.DaysWanted, e.Degree, e.Score)
		}
	})

	t.Run("sorted by score descending", func(t *testing.T) {
		entries := ComputeMostWanted([]RankingRecord{
			{PersonID: types.NewID(), PersonName: "Low", Degree: 1, Status: WantedStatusWanted, WantedSince: daysAgo(35), CaseLive: true},
			{PersonID: types.NewID(), PersonName: "High", Degree: 4, Status: WantedStatusWanted, WantedSince: daysAgo(60), CaseLive: true},
			{PersonID: types.NewID(), PersonName: "Mid", Degree: 2, Status: WantedStatusWanted, WantedSince: daysAgo(45), CaseLive: true},
		}, now)

		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}
		for i := 1; i < len(entries); i++ {
			if entries[i].Score > entries[i-1].Score {
				t.Errorf("entries not sorted: %d before %d", entries[i-1].Score, entries[i].Score)
			}
		}
		if entries[0].FullName != "High" {
			t.Errorf("top entry = %s, want High", entries[0].FullName)
		}
	})
}
