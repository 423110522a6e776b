package teacher

import (
	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/user"
)

type Teacher struct {
	ID              string     `json:"_id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	PhoneNumber     string     `json:"phoneNumber,omitempty"`
	Role            string     `json:"role,omitempty"`
	IsActive        *bool      `json:"isActive,omitempty"`
	AssignedClasses []core.Ref `json:"assignedClasses,omitempty"`
	AssignedGroups  []core.Ref `json:"assignedGroups,omitempty"`
}

func (t Teacher) FullName() string { return core.FullName(t.FirstName, t.LastName) }
func (t Teacher) Initials() string { return core.Initials(t.FirstName, t.LastName) }
func (t Teacher) Active() bool     { return t.IsActive == nil || *t.IsActive }
func (t Teacher) Ref() core.Ref {
	return core.Ref{ID: t.ID, FirstName: t.FirstName, LastName: t.LastName, Email: t.Email}
}

// Parent is a parent account, as listed to staff registering a child.
type Parent = user.User

// NewTeacher contains information needed to create a teacher account.
type NewTeacher struct {
	FirstName       string `json:"firstName" form:"firstName" validate:"required"`
	LastName        string `json:"lastName" form:"lastName" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	PhoneNumber     string `json:"phoneNumber,omitempty" form:"phoneNumber"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"-" form:"confirmPassword" validate:"required,eqfield=Password"`
}

func (nt *NewTeacher) Validate() error {
	nt.FirstName = core.CleanString(nt.FirstName)
	nt.LastName = core.CleanString(nt.LastName)
	nt.Email = core.CleanString(nt.Email, true /* lower */)
	nt.PhoneNumber = core.CleanString(nt.PhoneNumber)
	return core.ValidateStruct(nt)
}

// UpdateTeacher defines what an admin may change on a teacher account.
type UpdateTeacher struct {
	FirstName   string `json:"firstName" form:"firstName" validate:"required"`
	LastName    string `json:"lastName" form:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber"`
	IsActive    *bool  `json:"isActive,omitempty" form:"isActive"`
}

func (ut *UpdateTeacher) Validate() error {
	ut.FirstName = core.CleanString(ut.FirstName)
	ut.LastName = core.CleanString(ut.LastName)
	ut.PhoneNumber = core.CleanString(ut.PhoneNumber)
	return core.ValidateStruct(ut)
}
