package user

import (
	"github.com/trezcool/fellowship/core"
)

// Roles
const (
	RoleParent  = "parent"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var (
	AllRoles = []string{RoleParent, RoleTeacher, RoleAdmin}

	// StaffRoles may manage children, rosters and attendance.
	StaffRoles = []string{RoleTeacher, RoleAdmin}

	// SelfServiceRoles may be picked when registering an account.
	SelfServiceRoles = []Role{
		{Name: "Parent", Value: RoleParent},
		{Name: "Teacher", Value: RoleTeacher},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID          string     `json:"_id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	Role        string     `json:"role"`
	IsActive    *bool      `json:"isActive,omitempty"`
	Children    []core.Ref `json:"children,omitempty"`
}

func (u User) FullName() string { return core.FullName(u.FirstName, u.LastName) }
func (u User) Initials() string { return core.Initials(u.FirstName, u.LastName) }

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsParent() bool  { return u.Role == RoleParent }

// HasRole reports if the user's role is one of roles. No roles means any role.
func (u User) HasRole(roles ...string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Credentials are submitted by the login form.
type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return core.ValidateStruct(c)
}

// NewUser contains information needed to register a new account.
type NewUser struct {
	FirstName       string `json:"firstName" form:"firstName" validate:"required"`
	LastName        string `json:"lastName" form:"lastName" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	PhoneNumber     string `json:"phoneNumber,omitempty" form:"phoneNumber"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"-" form:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" form:"role" validate:"required,oneof=parent teacher"`
}

func (nu *NewUser) Validate() error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.PhoneNumber = core.CleanString(nu.PhoneNumber)
	if nu.Role == "" {
		nu.Role = RoleParent
	}
	return core.ValidateStruct(nu)
}

// UpdateProfile defines what a user may change on their own account.
type UpdateProfile struct {
	FirstName   string `json:"firstName" form:"firstName" validate:"required"`
	LastName    string `json:"lastName" form:"lastName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber"`
}

func (up *UpdateProfile) Validate() error {
	up.FirstName = core.CleanString(up.FirstName)
	up.LastName = core.CleanString(up.LastName)
	up.PhoneNumber = core.CleanString(up.PhoneNumber)
	return core.ValidateStruct(up)
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" form:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" form:"newPassword" validate:"required"`
	PasswordConfirm string `json:"-" form:"confirmPassword" validate:"required,eqfield=NewPassword"`

	usr User // checked for similarity
}

func (cp *ChangePassword) Validate(usr User) error {
	cp.usr = usr
	return core.ValidateStruct(cp)
}

type ForgotPassword struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

func (fp *ForgotPassword) Validate() error {
	fp.Email = core.CleanString(fp.Email, true /* lower */)
	return core.ValidateStruct(fp)
}

type ResetPassword struct {
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"-" form:"confirmPassword" validate:"required,eqfield=Password"`
}

func (rp ResetPassword) Validate() error { return core.ValidateStruct(rp) }
