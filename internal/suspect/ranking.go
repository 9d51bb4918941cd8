package suspect

import (
	"sort"
	"time"

	"github.com/police-portal/platform/internal/shared/types"
)

// QualifyingDays is the minimum whole days a person must be wanted on
// a live case to enter the most-wanted list
const QualifyingDays = 30

// RewardPerPoint converts a ranking score into a reward amount
const RewardPerPoint int64 = 20_000_000

// RankingRecord is one wanted record flattened for scoring
type RankingRecord struct {
	PersonID    types.ID
	PersonName  string
	Degree      int
	Status      WantedStatus
	WantedSince time.Time
	CaseLive    bool
}

// MostWantedEntry is one row of the public most-wanted list
type MostWantedEntry struct {
	PersonID     types.ID `json:"person_id"`
	FullName     string   `json:"full_name"`
	DaysWanted   int      `json:"days_wanted"`
	Degree       int      `json:"degree"`
	Score        int      `json:"score"`
	RewardAmount int64    `json:"reward_amount"`
}

// ComputeMostWanted builds the ranking. A person qualifies when they
// have been wanted for at least QualifyingDays whole days on a case
// that is still live. The degree is the person's worst across all
// their records, qualifying or not, so a long-running minor warrant
// still carries the weight of a graver one elsewhere.
func ComputeMostWanted(records []RankingRecord, now time.Time) []MostWantedEntry {
	type personAgg struct {
		name      string
		maxDays   int
		maxDegree int
	}

	byPerson := make(map[types.ID]*personAgg)
	for _, rec := range records {
		agg, ok := byPerson[rec.PersonID]
		if !ok {
			agg = &personAgg{name: rec.PersonName}
			byPerson[rec.PersonID] = agg
		}

		if rec.Degree > agg.maxDegree {
			agg.maxDegree = rec.Degree
		}

		if rec.Status == WantedStatusWanted && rec.CaseLive {
			days := int(now.Sub(rec.WantedSince).Hours() / 24)
			if days > agg.maxDays {
				agg.maxDays = days
			}
		}
	}

	var entries []MostWantedEntry
	for personID, agg := range byPerson {
		if agg.maxDays < QualifyingDays {
			continue
		}
		score := agg.maxDays * agg.maxDegree
		entries = append(entries, MostWantedEntry{
			PersonID:     personID,
			FullName:     agg.name,
			DaysWanted:   agg.maxDays,
			Degree:       agg.maxDegree,
			Score:        score,
			RewardAmount: int64(score) * RewardPerPoint,
		})
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Score != entries[b].Score {
			return entries[a].Score > entries[b].Score
		}
		return entries[a].FullName < entries[b].FullName
	})
	return entries
}
