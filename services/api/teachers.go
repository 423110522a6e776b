package api

import (
	"context"

	"github.com/trezcool/fellowship/core/teacher"
)

type TeachersAPI struct{ c *Client }

func (a *TeachersAPI) List(ctx context.Context) ([]teacher.Teacher, error) {
	var teachers []teacher.Teacher
	err := a.c.get(ctx, "teachers.list", "/teachers", nil, &teachers)
	return teachers, err
}

func (a *TeachersAPI) Get(ctx context.Context, id string) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := a.c.get(ctx, "teachers.get", "/teachers/"+pathEscape(id), nil, &t)
	return t, err
}

func (a *TeachersAPI) Create(ctx context.Context, nt teacher.NewTeacher) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := a.c.post(ctx, "teachers.create", "/teachers", nt, &t)
	return t, err
}

func (a *TeachersAPI) Update(ctx context.Context, id string, ut teacher.UpdateTeacher) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := a.c.put(ctx, "teachers.update", "/teachers/"+pathEscape(id), ut, &t)
	return t, err
}

// Delete deactivates a teacher account.
func (a *TeachersAPI) Delete(ctx context.Context, id string) error {
	return a.c.delete(ctx, "teachers.delete", "/teachers/"+pathEscape(id))
}

// Parents lists the parent accounts children may be registered for.
func (a *TeachersAPI) Parents(ctx context.Context) ([]teacher.Parent, error) {
	var parents []teacher.Parent
	err := a.c.get(ctx, "teachers.parents", "/teachers/parents", nil, &parents)
	return parents, err
}
