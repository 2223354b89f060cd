package model

// Role is an access level. Admin is the elevated role, Supervisor the
// field-level manager, Maintainer and Driver are operators.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleSupervisor Role = "Supervisor"
	RoleMaintainer Role = "Maintainer"
	RoleDriver     Role = "Driver"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleMaintainer, RoleDriver:
		return true
	}
	return false
}

// User is an account able to log in.
type User struct {
	Base
	FirstName     string `gorm:"size:100;not null" json:"first_name"`
	LastName      string `gorm:"size:100" json:"last_name,omitempty"`
	Designation   string `gorm:"size:100" json:"designation,omitempty"`
	Email         string `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash  string `gorm:"size:255;not null" json:"-"`
	Role          Role   `gorm:"size:20;not null;index" json:"role"`
	DivisionID    *uint  `gorm:"index" json:"division_id,omitempty"`
	SubdivisionID *uint  `gorm:"index" json:"subdivision_id,omitempty"`
	IsMaintainer  bool   `gorm:"not null;default:false" json:"is_maintainer"`
}

// Maintainer is a technician who performs maintenance, optionally linked to a
// login account.
type Maintainer struct {
	Base
	Name          string       `gorm:"size:100;not null" json:"name"`
	Contact       string       `gorm:"size:50" json:"contact,omitempty"`
	SubdivisionID uint         `gorm:"not null;index" json:"subdivision_id"`
	UserID        *uint        `gorm:"uniqueIndex" json:"user_id,omitempty"`
	Subdivision   *Subdivision `json:"subdivision,omitempty"`
}
