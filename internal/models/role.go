package models

// Role is an account role. Every account is exactly one of the two
// variants for its whole lifetime.
type Role string

const (
	RoleRescuer Role = "rescuer"
	RoleAdopter Role = "adopter"
)

// Valid reports whether the role is one of the two known variants.
func (r Role) Valid() bool {
	return r == RoleRescuer || r == RoleAdopter
}

// Profile is an identity-service record. Profiles are referenced by
// requests and conversations but never stored locally.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	City     string `json:"city"`
	Phone    string `json:"phone,omitempty"`
	Role     Role   `json:"role"`
}
