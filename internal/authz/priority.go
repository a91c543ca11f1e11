package authz

// rolePriority orders role types by privilege; lower wins. Kept as a data
// table so adding a role type is a one-line change, not a new branch.
var rolePriority = map[RoleType]int{
	RolePlatformAdmin: 1,
	RoleAgencyAdmin:   2,
	RoleAgencyUser:    3,
	RoleClientAdmin:   4,
	RoleClientUser:    5,
	RoleBuyer:         6,
}

const unknownRoleRank = 7

// PriorityRank returns the fallback rank for a role type. Unknown types sort
// after every known one.
func PriorityRank(rt RoleType) int {
	if rank, ok := rolePriority[rt]; ok {
		return rank
	}
	return unknownRoleRank
}

// KnownRoleType reports whether rt is one of the closed role enum values.
func KnownRoleType(rt RoleType) bool {
	_, ok := rolePriority[rt]
	return ok
}

// KnownOrgType reports whether ot is a recognized organization scope.
func KnownOrgType(ot OrgType) bool {
	switch ot {
	case OrgPlatform, OrgAgency, OrgClient, OrgBuyer:
		return true
	}
	return false
}
