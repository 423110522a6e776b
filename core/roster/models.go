package roster

import (
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
)

// Kind says which roster a selection or a session targets.
type Kind string

const (
	KindClass Kind = "class"
	KindGroup Kind = "group"
)

var ErrInvalidKind = errors.New("roster kind must be class or group")

func ParseKind(s string) (Kind, error) {
	switch k := Kind(core.CleanString(s, true /* lower */)); k {
	case KindClass, KindGroup:
		return k, nil
	}
	return "", ErrInvalidKind
}

func (k Kind) String() string { return string(k) }

// Plural is the REST collection of the kind.
func (k Kind) Plural() string {
	if k == KindClass {
		return "classes"
	}
	return "groups"
}

// Title is the display name of the kind.
func (k Kind) Title() string {
	if k == KindGroup {
		return "Group"
	}
	return "Class"
}

func (k Kind) PluralTitle() string {
	if k == KindGroup {
		return "Groups"
	}
	return "Classes"
}

// Roster is a class or a group. A child belongs to exactly one class and to any number of groups.
type Roster struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	AgeRange     string     `json:"ageRange,omitempty"`
	Teachers     []core.Ref `json:"teachers,omitempty"`
	MembersCount int        `json:"membersCount,omitempty"`
}

func (r Roster) Ref() core.Ref { return core.Ref{ID: r.ID, Name: r.Name} }

// HasTeacher reports if the teacher of id is assigned to the roster.
func (r Roster) HasTeacher(id string) bool {
	for _, t := range r.Teachers {
		if t.ID == id {
			return true
		}
	}
	return false
}

// NewRoster contains information needed to create a class or a group.
type NewRoster struct {
	Name        string `json:"name" form:"name" validate:"required"`
	Description string `json:"description,omitempty" form:"description"`
	AgeRange    string `json:"ageRange,omitempty" form:"ageRange"`
}

func (nr *NewRoster) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	nr.Description = core.CleanString(nr.Description)
	nr.AgeRange = core.CleanString(nr.AgeRange)
	return core.ValidateStruct(nr)
}

// TeacherAssignment assigns or removes a teacher of a roster.
type TeacherAssignment struct {
	TeacherID string `json:"teacherId" form:"teacherId" validate:"required"`
}

// Membership adds or removes a child of a group.
type Membership struct {
	ChildID string `json:"childId" form:"childId" validate:"required"`
}
