package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/teacher"
	"github.com/trezcool/fellowship/core/user"
)

type teacherViews struct {
	s *Server
}

func registerTeacherViews(g *echo.Group, s *Server) {
	v := teacherViews{s: s}

	tg := g.Group("/teachers", s.can(user.CanManageTeachers))
	tg.GET("", v.list)
	tg.GET("/new", v.createForm)
	tg.POST("", v.create)
	tg.POST("/:id/activate", v.activate)
	tg.DELETE("/:id", v.deactivate)
}

func (v teacherViews) list(ctx echo.Context) error {
	teachers, err := v.s.deps.API.Teachers.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return v.s.page(ctx, http.StatusOK, "teachers/list", "Teachers", teachers)
}

func (v teacherViews) createForm(ctx echo.Context) error {
	return v.s.formPage(ctx, http.StatusOK, "teachers/new", "Add a teacher", teacher.NewTeacher{}, nil, nil)
}

func (v teacherViews) create(ctx echo.Context) error {
	var form teacher.NewTeacher
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	err := form.Validate()
	var created teacher.Teacher
	if err == nil {
		created, err = v.s.deps.API.Teachers.Create(ctx.Request().Context(), form)
	}
	if err != nil {
		form.Password, form.PasswordConfirm = "", ""
		return v.s.formPage(ctx, http.StatusOK, "teachers/new", "Add a teacher", form, err, nil)
	}
	getSession(ctx).Notify(session.NoticeSuccess, created.FullName()+" was added.")
	return ctx.Redirect(http.StatusSeeOther, "/teachers")
}

func (v teacherViews) activate(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	t, err := v.s.deps.API.Teachers.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}
	active := true
	_, err = v.s.deps.API.Teachers.Update(reqCtx, t.ID, teacher.UpdateTeacher{
		FirstName:   t.FirstName,
		LastName:    t.LastName,
		PhoneNumber: t.PhoneNumber,
		IsActive:    &active,
	})
	if err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, t.FullName()+" was reactivated.")
	return ctx.Redirect(http.StatusSeeOther, "/teachers")
}

func (v teacherViews) deactivate(ctx echo.Context) error {
	if err := v.s.deps.API.Teachers.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The teacher was deactivated.")
	return ctx.Redirect(http.StatusSeeOther, "/teachers")
}
