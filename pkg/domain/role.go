package domain

import dErrors "civic/pkg/domain-errors"

// Role is the portal role of a user. Roles are ordered: each role may do
// everything the roles below it may do, with the exception of citizen-owned
// actions (paying a bill, voting) which are checked against ownership.
type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleStaff      Role = "staff"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

var roleRank = map[Role]int{
	RoleCitizen:    1,
	RoleStaff:      2,
	RoleSupervisor: 3,
	RoleAdmin:      4,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: must be citizen, staff, supervisor or admin")
	}
	return r, nil
}

func (r Role) IsValid() bool {
	_, ok := roleRank[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// AtLeast reports whether r ranks at or above min. Unknown roles rank below
// every known role.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min] && roleRank[r] > 0
}

// IsStaffSide reports whether r works complaints rather than files them.
func (r Role) IsStaffSide() bool {
	return r.AtLeast(RoleStaff)
}
