package api

import (
	"context"

	"github.com/trezcool/fellowship/core/roster"
)

// RosterAPI serves /classes or /groups; group-only operations fail on classes.
type RosterAPI struct {
	c    *Client
	kind roster.Kind
	base string
}

func newRosterAPI(c *Client, kind roster.Kind) *RosterAPI {
	return &RosterAPI{c: c, kind: kind, base: "/" + kind.Plural()}
}

func (a *RosterAPI) Kind() roster.Kind { return a.kind }

func (a *RosterAPI) op(name string) string { return a.kind.Plural() + "." + name }

func (a *RosterAPI) List(ctx context.Context) ([]roster.Roster, error) {
	var rosters []roster.Roster
	err := a.c.get(ctx, a.op("list"), a.base, nil, &rosters)
	return rosters, err
}

func (a *RosterAPI) Get(ctx context.Context, id string) (roster.Roster, error) {
	var r roster.Roster
	err := a.c.get(ctx, a.op("get"), a.base+"/"+pathEscape(id), nil, &r)
	return r, err
}

func (a *RosterAPI) Create(ctx context.Context, nr roster.NewRoster) (roster.Roster, error) {
	var r roster.Roster
	err := a.c.post(ctx, a.op("create"), a.base, nr, &r)
	return r, err
}

func (a *RosterAPI) Update(ctx context.Context, id string, nr roster.NewRoster) (roster.Roster, error) {
	var r roster.Roster
	err := a.c.put(ctx, a.op("update"), a.base+"/"+pathEscape(id), nr, &r)
	return r, err
}

func (a *RosterAPI) AssignTeacher(ctx context.Context, id, teacherID string) error {
	return a.c.post(ctx, a.op("assignTeacher"), a.base+"/"+pathEscape(id)+"/assign-teacher", roster.TeacherAssignment{TeacherID: teacherID}, nil)
}

func (a *RosterAPI) RemoveTeacher(ctx context.Context, id, teacherID string) error {
	return a.c.post(ctx, a.op("removeTeacher"), a.base+"/"+pathEscape(id)+"/remove-teacher", roster.TeacherAssignment{TeacherID: teacherID}, nil)
}

// Initialize creates the default rosters of the fellowship.
func (a *RosterAPI) Initialize(ctx context.Context) error {
	return a.c.post(ctx, a.op("init"), a.base+"/init", struct{}{}, nil)
}

func (a *RosterAPI) AddChild(ctx context.Context, id, childID string) error {
	if a.kind != roster.KindGroup {
		return roster.ErrInvalidKind
	}
	return a.c.post(ctx, a.op("addChild"), a.base+"/"+pathEscape(id)+"/add-child", roster.Membership{ChildID: childID}, nil)
}

func (a *RosterAPI) RemoveChild(ctx context.Context, id, childID string) error {
	if a.kind != roster.KindGroup {
		return roster.ErrInvalidKind
	}
	return a.c.post(ctx, a.op("removeChild"), a.base+"/"+pathEscape(id)+"/remove-child", roster.Membership{ChildID: childID}, nil)
}
