package rbac

// RolePriority orders policing ranks from most senior to most junior.
// Index position drives rank comparison, so insertions must keep the
// seniority order intact.
var RolePriority = []string{
	RolePoliceChief,
	RoleCaptain,
	RoleSergeant,
	RoleDetective,
	RolePoliceOfficer,
	RolePatrolOfficer,
	RoleCoroner,
}

// ApprovalMap gives the rank whose sign-off a self-reported crime scene
// needs, keyed by the reporter's primary rank. Ranks absent from the
// map (the chief) need no superior approval.
var ApprovalMap = map[string]string{
	RolePatrolOfficer: RolePoliceOfficer,
	RolePoliceOfficer: RoleSergeant,
	RoleDetective:     RoleSergeant,
	RoleSergeant:      RoleCaptain,
	RoleCaptain:       RolePoliceChief,
	RoleCoroner:       RoleCaptain,
}

// PoliceRoles is the set of policing ranks
var PoliceRoles = func() map[string]bool {
	set := make(map[string]bool, len(RolePriority))
	for _, slug := range RolePriority {
		set[slug] = true
	}
	return set
}()

// ManagerialRoles may create and remove case assignments
var ManagerialRoles = []string{RoleSergeant, RoleCaptain, RolePoliceChief}

// rolePosition maps each ranked slug to its seniority index
var rolePosition = func() map[string]int {
	pos := make(map[string]int, len(RolePriority))
	for i, slug := range RolePriority {
		pos[slug] = i
	}
	return pos
}()

// PrimaryRole returns the most senior policing rank present in the
// slug set, or "" if the user holds no ranked role.
func PrimaryRole(slugs []string) string {
	held := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		held[s] = true
	}
	for _, rank := range RolePriority {
		if held[rank] {
			return rank
		}
	}
	return ""
}

// RequiredApproverRole returns the rank that must approve a crime scene
// reported by a user with the given roles, or "" if none is required.
func RequiredApproverRole(slugs []string) string {
	primary := PrimaryRole(slugs)
	if primary == "" {
		return ""
	}
	return ApprovalMap[primary]
}

// IsSuperiorRank reports whether the viewer's rank is strictly senior
// to the creator's. Unranked slugs on either side yield false.
func IsSuperiorRank(viewerRole, creatorRole string) bool {
	viewerPos, ok := rolePosition[viewerRole]
	if !ok {
		return false
	}
	creatorPos, ok := rolePosition[creatorRole]
	if !ok {
		return false
	}
	return viewerPos < creatorPos
}

// JuniorRanks returns the ranks strictly junior to the most senior
// rank in the slug set, or nil for an unranked user.
func JuniorRanks(slugs []string) []string {
	primary := PrimaryRole(slugs)
	if primary == "" {
		return nil
	}
	return RolePriority[rolePosition[primary]+1:]
}

// SeniorOrEqualRanks returns the ranks at or above the most senior
// rank in the slug set, or nil for an unranked user.
func SeniorOrEqualRanks(slugs []string) []string {
	primary := PrimaryRole(slugs)
	if primary == "" {
		return nil
	}
	return RolePriority[:rolePosition[primary]+1]
}

// HasAnyRole reports whether any required slug is present in the set
func HasAnyRole(slugs []string, required ...string) bool {
	for _, req := range required {
		for _, s := range slugs {
			if s == req {
				return true
			}
		}
	}
	return false
}

// IsPoliceRank reports whether the slug set contains any policing rank
func IsPoliceRank(slugs []string) bool {
	for _, s := range slugs {
		if PoliceRoles[s] {
			return true
		}
	}
	return false
}
