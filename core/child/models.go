package child

import (
	"io"
	"strconv"
	"time"

	"github.com/trezcool/fellowship/core"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	DefaultLimit = 20
	MaxLimit     = 100
)

type EmergencyContact struct {
	Name         string `json:"name,omitempty" form:"emergencyName"`
	Phone        string `json:"phone,omitempty" form:"emergencyPhone"`
	Relationship string `json:"relationship,omitempty" form:"emergencyRelationship"`
}

func (ec EmergencyContact) IsZero() bool { return ec == EmergencyContact{} }

type Child struct {
	ID               string           `json:"_id"`
	UniqueID         string           `json:"uniqueId,omitempty"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	DateOfBirth      string           `json:"dateOfBirth,omitempty"`
	Gender           string           `json:"gender,omitempty"`
	Class            core.Ref         `json:"class"`
	Groups           []core.Ref       `json:"groups,omitempty"`
	Parent           core.Ref         `json:"parent"`
	Allergies        string           `json:"allergies,omitempty"`
	MedicalNotes     string           `json:"medicalNotes,omitempty"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	Photo            string           `json:"photo,omitempty"`
	CreatedAt        string           `json:"createdAt,omitempty"`
}

func (c Child) FullName() string { return core.FullName(c.FirstName, c.LastName) }
func (c Child) Initials() string { return core.Initials(c.FirstName, c.LastName) }
func (c Child) Ref() core.Ref {
	return core.Ref{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName}
}

// Age is the child's age in whole years on `on`, -1 when the birth date is unknown.
// OwnedBy reports if the child is registered to the parent of id.
func (c Child) OwnedBy(parentID string) bool { return parentID != "" && c.Parent.ID == parentID }

func (c Child) Age(on time.Time) int { return core.Age(c.DateOfBirth, on) }

// InGroup reports if the child is a member of the group of id.
func (c Child) InGroup(id string) bool {
	for _, g := range c.Groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// GroupIDs lists the ids of the child's groups.
func (c Child) GroupIDs() []string {
	ids := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// NewChild contains information needed to register a child.
type NewChild struct {
	FirstName        string           `json:"firstName" form:"firstName" validate:"required"`
	LastName         string           `json:"lastName" form:"lastName" validate:"required"`
	DateOfBirth      string           `json:"dateOfBirth" form:"dateOfBirth" validate:"required,isodate"`
	Gender           string           `json:"gender" form:"gender" validate:"required,oneof=male female"`
	ClassID          string           `json:"class" form:"class" validate:"required"`
	GroupIDs         []string         `json:"groups" form:"groups"`
	ParentID         string           `json:"parent,omitempty" form:"parent"`
	Allergies        string           `json:"allergies,omitempty" form:"allergies"`
	MedicalNotes     string           `json:"medicalNotes,omitempty" form:"medicalNotes"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
}

func (nc *NewChild) clean() {
	nc.FirstName = core.CleanString(nc.FirstName)
	nc.LastName = core.CleanString(nc.LastName)
	nc.DateOfBirth = core.CleanString(nc.DateOfBirth)
	nc.Gender = core.CleanString(nc.Gender, true /* lower */)
	nc.ClassID = core.CleanString(nc.ClassID)
	nc.ParentID = core.CleanString(nc.ParentID)
	nc.Allergies = core.CleanString(nc.Allergies)
	nc.MedicalNotes = core.CleanString(nc.MedicalNotes)
	nc.EmergencyContact.Name = core.CleanString(nc.EmergencyContact.Name)
	nc.EmergencyContact.Phone = core.CleanString(nc.EmergencyContact.Phone)
	nc.EmergencyContact.Relationship = core.CleanString(nc.EmergencyContact.Relationship)
	groups := nc.GroupIDs[:0]
	for _, g := range nc.GroupIDs {
		if g = core.CleanString(g); g != "" {
			groups = append(groups, g)
		}
	}
	nc.GroupIDs = groups
}

func (nc *NewChild) Validate() error {
	nc.clean()
	if nc.GroupIDs == nil {
		nc.GroupIDs = []string{}
	}
	return core.ValidateStruct(nc)
}

// UpdateChild defines what may be changed on a registered child.
// Photo, class and groups have their own operations.
type UpdateChild struct {
	FirstName        string           `json:"firstName" form:"firstName" validate:"required"`
	LastName         string           `json:"lastName" form:"lastName" validate:"required"`
	DateOfBirth      string           `json:"dateOfBirth" form:"dateOfBirth" validate:"required,isodate"`
	Gender           string           `json:"gender" form:"gender" validate:"required,oneof=male female"`
	Allergies        string           `json:"allergies" form:"allergies"`
	MedicalNotes     string           `json:"medicalNotes" form:"medicalNotes"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
}

func (uc *UpdateChild) Validate() error {
	nc := NewChild{
		FirstName: uc.FirstName, LastName: uc.LastName, DateOfBirth: uc.DateOfBirth, Gender: uc.Gender,
		Allergies: uc.Allergies, MedicalNotes: uc.MedicalNotes, EmergencyContact: uc.EmergencyContact,
	}
	nc.clean()
	uc.FirstName, uc.LastName, uc.DateOfBirth, uc.Gender = nc.FirstName, nc.LastName, nc.DateOfBirth, nc.Gender
	uc.Allergies, uc.MedicalNotes, uc.EmergencyContact = nc.Allergies, nc.MedicalNotes, nc.EmergencyContact
	return core.ValidateStruct(uc)
}

// FormOf prefills an edit form with the child's current values.
func FormOf(c Child) UpdateChild {
	dob := c.DateOfBirth
	if t, ok := core.ParseDate(dob); ok {
		dob = core.ISODay(t)
	}
	return UpdateChild{
		FirstName: c.FirstName, LastName: c.LastName, DateOfBirth: dob, Gender: c.Gender,
		Allergies: c.Allergies, MedicalNotes: c.MedicalNotes, EmergencyContact: c.EmergencyContact,
	}
}

// Transfer moves a child to another class; the previous membership is replaced.
type Transfer struct {
	ClassID string `json:"class" form:"class" validate:"required"`
}

// Photo is an uploaded picture of a child.
type Photo struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// ListFilter narrows and paginates the children list.
type ListFilter struct {
	Page    int    `query:"page"`
	Limit   int    `query:"limit"`
	Search  string `query:"search"`
	ClassID string `query:"classId"`
}

func (f *ListFilter) Normalize() {
	f.Search = core.CleanString(f.Search)
	f.ClassID = core.CleanString(f.ClassID)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	} else if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
}

// Query renders the filter as API query parameters.
func (f ListFilter) Query() map[string]string {
	q := map[string]string{
		"page":  strconv.Itoa(f.Page),
		"limit": strconv.Itoa(f.Limit),
	}
	if f.Search != "" {
		q["search"] = f.Search
	}
	if f.ClassID != "" {
		q["classId"] = f.ClassID
	}
	return q
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.Pages }

// Page is one page of the children list.
type Page struct {
	Children   []Child    `json:"children"`
	Pagination Pagination `json:"pagination"`
}
