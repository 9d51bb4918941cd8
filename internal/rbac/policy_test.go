package rbac

import (
	"testing"
)

func TestPrimaryRole(t *testing.T) {
	tests := []struct {
		name     string
		slugs    []string
		expected string
	}{
		{"single rank", []string{RoleSergeant}, RoleSergeant},
		{"most senior wins", []string{RolePatrolOfficer, RoleCaptain, RoleDetective}, RoleCaptain},
		{"chief outranks all", []string{RoleCoroner, RolePoliceChief}, RolePoliceChief},
		{"coroner is the most junior rank", []string{RoleCoroner, RolePatrolOfficer}, RolePatrolOfficer},
		{"unranked roles ignored", []string{RoleCadet, RoleComplainant, RoleDetective}, RoleDetective},
		{"no rank", []string{RoleCadet, RoleBaseUser}, ""},
		{"empty set", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrimaryRole(tt.slugs); got != tt.expected {
				t.Errorf("PrimaryRole(%v) = %q, want %q", tt.slugs, got, tt.expected)
			}
		})
	}
}

func TestRequiredApproverRole(t *testing.T) {
	tests := []struct {
		name     string
		slugs    []string
		expected string
	}{
		{"patrol officer needs police officer", []string{RolePatrolOfficer}, RolePoliceOfficer},
		{"police officer needs sergeant", []string{RolePoliceOfficer}, RoleSergeant},
		{"detective needs sergeant", []string{RoleDetective}, RoleSergeant},
		{"sergeant needs captain", []string{RoleSergeant}, RoleCaptain},
		{"captain needs chief", []string{RoleCaptain}, RolePoliceChief},
		{"coroner needs captain", []string{RoleCoroner}, RoleCaptain},
		{"chief needs nobody", []string{RolePoliceChief}, ""},
		{"primary rank drives the lookup", []string{RolePatrolOfficer, RoleSergeant}, RoleCaptain},
		{"unranked user", []string{RoleCadet}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequiredApproverRole(tt.slugs); got != tt.expected {
				t.Errorf("RequiredApproverRole(%v) = %q, want %q", tt.slugs, got, tt.expected)
			}
		})
	}
}

func TestIsSuperiorRank(t *testing.T) {
	tests := []struct {
		name     string
		viewer   string
		creator  string
		expected bool
	}{
		{"chief over captain", RolePoliceChief, RoleCaptain, true},
		{"captain over patrol officer", RoleCaptain, RolePatrolOfficer, true},
		{"sergeant not over captain", RoleSergeant, RoleCaptain, false},
		{"peer is not superior", RoleSergeant, RoleSergeant, false},
		{"unranked viewer", RoleCadet, RolePatrolOfficer, false},
		{"unranked creator", RoleCaptain, RoleCadet, false},
		{"both unranked", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSuperiorRank(tt.viewer, tt.creator); got != tt.expected {
				t.Errorf("IsSuperiorRank(%q, %q) = %v, want %v", tt.viewer, tt.creator, got, tt.expected)
			}
		})
	}
}

func TestRankNeighbourhoods(t *testing.T) {
	t.Run("sergeant", func(t *testing.T) {
		junior := JuniorRanks([]string{RoleCadet, RoleSergeant})
		wantJunior := []string{RoleDetective, RolePoliceOfficer, RolePatrolOfficer, RoleCoroner}
		if len(junior) != len(wantJunior) {
			t.Fatalf("JuniorRanks = %v, want %v", junior, wantJunior)
		}
		for i := range junior {
			if junior[i] != wantJunior[i] {
				t.Errorf("JuniorRanks[%d] = %q, want %q", i, junior[i], wantJunior[i])
			}
		}

		senior := SeniorOrEqualRanks([]string{RoleSergeant})
		wantSenior := []string{RolePoliceChief, RoleCaptain, RoleSergeant}
		if len(senior) != len(wantSenior) {
			t.Fatalf("SeniorOrEqualRanks = %v, want %v", senior, wantSenior)
		}
		for i := range senior {
			if senior[i] != wantSenior[i] {
				t.Errorf("SeniorOrEqualRanks[%d] = %q, want %q", i, senior[i], wantSenior[i])
			}
		}
	})

	t.Run("coroner has no juniors", func(t *testing.T) {
		if junior := JuniorRanks([]string{RoleCoroner}); len(junior) != 0 {
			t.Errorf("JuniorRanks = %v, want empty", junior)
		}
	})

	t.Run("unranked user", func(t *testing.T) {
		if JuniorRanks([]string{RoleCadet}) != nil {
			t.Error("JuniorRanks should be nil for an unranked user")
		}
		if SeniorOrEqualRanks(nil) != nil {
			t.Error("SeniorOrEqualRanks should be nil for an unranked user")
		}
	})
}

func TestIsSystemRole(t *testing.T) {
	for _, slug := range []string{
		RoleSystemAdmin, RolePoliceChief, RoleCaptain, RoleSergeant,
		RoleDetective, RolePoliceOfficer, RolePatrolOfficer, RoleCadet,
		RoleComplainant, RoleWitness, RoleSuspect, RoleCriminal,
		RoleJudge, RoleCoroner, RoleBaseUser,
	} {
		if !IsSystemRole(slug) {
			t.Errorf("IsSystemRole(%q) = false, want true", slug)
		}
	}

	if IsSystemRole("traffic-warden") {
		t.Error("IsSystemRole should be false for custom slugs")
	}
}

func TestHasAnyRole(t *testing.T) {
	slugs := []string{RoleCadet, RoleDetective}

	if !HasAnyRole(slugs, RoleDetective) {
		t.Error("expected detective to match")
	}
	if !HasAnyRole(slugs, RoleSergeant, RoleCadet) {
		t.Error("expected cadet to match one of the required slugs")
	}
	if HasAnyRole(slugs, RoleSergeant, RoleCaptain) {
		t.Error("expected no match")
	}
}

func TestIsPoliceRank(t *testing.T) {
	if !IsPoliceRank([]string{RoleCadet, RoleCoroner}) {
		t.Error("coroner is a policing rank")
	}
	if IsPoliceRank([]string{RoleCadet, RoleJudge}) {
		t.Error("cadet and judge are not policing ranks")
	}
}
