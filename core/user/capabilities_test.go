package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesFor(t *testing.T) {
	tests := []struct {
		role    string
		granted []Capability
		denied  []Capability
	}{
		{
			role:    RoleParent,
			granted: []Capability{CanViewDashboard, CanRegisterChild, CanViewOwnChildren, CanViewNotifications},
			denied:  []Capability{CanListChildren, CanTakeAttendance, CanViewReports, CanViewRosters, CanManageTeachers, CanChooseParent},
		},
		{
			role:    RoleTeacher,
			granted: []Capability{CanViewDashboard, CanListChildren, CanManageChildren, CanTakeAttendance, CanViewReports, CanSendNotifications},
			denied:  []Capability{CanManageTeachers, CanDeleteChildren, CanManageRosters},
		},
		{
			role:    RoleAdmin,
			granted: []Capability{CanViewDashboard, CanListChildren, CanTakeAttendance, CanManageTeachers, CanDeleteChildren, CanManageRosters},
		},
		{
			role:   "lol",
			denied: []Capability{CanViewDashboard, CanListChildren, CanManageTeachers},
		},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			caps := CapabilitiesFor(tt.role)
			for _, c := range tt.granted {
				assert.True(t, caps.Has(c), "%s should have %s", tt.role, c)
			}
			for _, c := range tt.denied {
				assert.False(t, caps.Has(c), "%s should not have %s", tt.role, c)
			}
		})
	}
}

func TestRolesWith(t *testing.T) {
	assert.Equal(t, []string{RoleTeacher, RoleAdmin}, RolesWith(CanTakeAttendance))
	assert.Equal(t, []string{RoleAdmin}, RolesWith(CanManageTeachers))
	assert.Equal(t, AllRoles, RolesWith(CanViewNotifications))
}

func TestUser_HasRole(t *testing.T) {
	usr := User{Role: RoleTeacher}
	assert.True(t, usr.HasRole())
	assert.True(t, usr.HasRole(StaffRoles...))
	assert.False(t, usr.HasRole(RoleAdmin))
	assert.True(t, usr.IsTeacher())
	assert.False(t, usr.IsParent())
}
