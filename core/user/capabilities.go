package user

// Capability is a permission granted by a role.
type Capability string

const (
	CanViewDashboard      Capability = "view-dashboard"
	CanRegisterChild      Capability = "register-child"
	CanViewOwnChildren    Capability = "view-own-children"
	CanViewNotifications  Capability = "view-notifications"
	CanListChildren       Capability = "list-children"
	CanManageChildren     Capability = "manage-children" // edit, photo, transfer, groups
	CanDeleteChildren     Capability = "delete-children"
	CanChooseParent       Capability = "choose-parent"
	CanViewRosters        Capability = "view-rosters"
	CanManageRosters      Capability = "manage-rosters" // create, init, assign teachers
	CanManageGroupMembers Capability = "manage-group-members"
	CanTakeAttendance     Capability = "take-attendance"
	CanViewReports        Capability = "view-reports"
	CanShareReports       Capability = "share-reports"
	CanSendNotifications  Capability = "send-notifications"
	CanManageTeachers     Capability = "manage-teachers"
)

// Capabilities is the permission set of a role.
type Capabilities map[Capability]bool

func (caps Capabilities) Has(c Capability) bool { return caps[c] }

var (
	authenticatedCaps = []Capability{CanViewDashboard, CanRegisterChild, CanViewOwnChildren, CanViewNotifications}

	staffCaps = []Capability{
		CanListChildren, CanManageChildren, CanChooseParent, CanViewRosters, CanManageGroupMembers,
		CanTakeAttendance, CanViewReports, CanShareReports, CanSendNotifications,
	}

	adminCaps = []Capability{CanDeleteChildren, CanManageRosters, CanManageTeachers}
)

// CapabilitiesFor resolves the permission set of a role.
// Route guards and templates both decide through it. Unknown roles get nothing.
func CapabilitiesFor(role string) Capabilities {
	caps := make(Capabilities)
	grant := func(cs []Capability) {
		for _, c := range cs {
			caps[c] = true
		}
	}

	switch role {
	case RoleAdmin:
		grant(adminCaps)
		fallthrough
	case RoleTeacher:
		grant(staffCaps)
		fallthrough
	case RoleParent:
		grant(authenticatedCaps)
	}
	return caps
}

// RolesWith lists the roles granted cap, in AllRoles order.
func RolesWith(c Capability) []string {
	roles := make([]string, 0, len(AllRoles))
	for _, r := range AllRoles {
		if CapabilitiesFor(r).Has(c) {
			roles = append(roles, r)
		}
	}
	return roles
}
