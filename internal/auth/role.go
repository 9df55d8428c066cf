package auth

type Role string

const (
	RoleSystemAdmin Role = "system_admin"
	RoleGymOwner    Role = "gym_owner"
	RoleStaff       Role = "staff"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleGymOwner, RoleStaff:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
