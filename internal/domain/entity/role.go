package entity

// Role represents the type of role a profile has in the system.
type Role string

const (
	// RolePartner is granted to the responsible contact of an approved business.
	RolePartner Role = "partner"
	// RoleAdmin is held by directory administrators.
	RoleAdmin Role = "admin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RolePartner, RoleAdmin:
		return true
	default:
		return false
	}
}
