package echoweb

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/teacher"
	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/services/api"
)

// rosterViews serve the classes or the groups; both share their pages.
type rosterViews struct {
	s    *Server
	kind roster.Kind
	api  *api.RosterAPI
}

func registerRosterViews(g *echo.Group, s *Server) {
	for _, kind := range []roster.Kind{roster.KindClass, roster.KindGroup} {
		v := rosterViews{s: s, kind: kind, api: s.deps.API.Rosters(kind)}
		base := "/" + kind.Plural()

		g.GET(base, v.list, s.can(user.CanViewRosters))
		g.GET(base+"/new", v.createForm, s.can(user.CanManageRosters))
		g.POST(base, v.create, s.can(user.CanManageRosters))
		g.POST(base+"/init", v.initialize, s.can(user.CanManageRosters))

		rg := g.Group(base + "/:id")
		rg.GET("", v.details, s.can(user.CanViewRosters))
		rg.POST("/teachers", v.assignTeacher, s.can(user.CanManageRosters))
		rg.DELETE("/teachers/:teacherId", v.removeTeacher, s.can(user.CanManageRosters))
		if kind == roster.KindGroup {
			rg.POST("/children", v.addChild, s.can(user.CanManageGroupMembers))
			rg.DELETE("/children/:childId", v.removeChild, s.can(user.CanManageGroupMembers))
		}
	}
}

func (v rosterViews) path(id string) string { return "/" + v.kind.Plural() + "/" + url.PathEscape(id) }

type rosterListData struct {
	Kind    roster.Kind
	Rosters []roster.Roster
}

func (v rosterViews) list(ctx echo.Context) error {
	rosters, err := v.api.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return v.s.page(ctx, http.StatusOK, "rosters/list", v.kind.PluralTitle(), rosterListData{v.kind, rosters})
}

type rosterFormData struct {
	Kind roster.Kind
}

func (v rosterViews) createForm(ctx echo.Context) error {
	return v.s.formPage(ctx, http.StatusOK, "rosters/new", "New "+v.kind.String(), roster.NewRoster{}, nil, rosterFormData{v.kind})
}

func (v rosterViews) create(ctx echo.Context) error {
	var form roster.NewRoster
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewRoster")
	}
	err := form.Validate()
	var created roster.Roster
	if err == nil {
		created, err = v.api.Create(ctx.Request().Context(), form)
	}
	if err != nil {
		return v.s.formPage(ctx, http.StatusOK, "rosters/new", "New "+v.kind.String(), form, err, rosterFormData{v.kind})
	}
	getSession(ctx).Notify(session.NoticeSuccess, created.Name+" was created.")
	return ctx.Redirect(http.StatusSeeOther, v.path(created.ID))
}

func (v rosterViews) initialize(ctx echo.Context) error {
	if err := v.api.Initialize(ctx.Request().Context()); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The default "+v.kind.Plural()+" were created.")
	return ctx.Redirect(http.StatusSeeOther, "/"+v.kind.Plural())
}

type rosterDetailsData struct {
	Kind     roster.Kind
	Roster   roster.Roster
	Members  []child.Child
	Teachers []teacher.Teacher // assignable
	Search   string
	Results  []child.Child // children who may join the group
	Sessions []attendance.Session
}

const rosterRecentSessions = 5

func (v rosterViews) details(ctx echo.Context) error {
	id := ctx.Param("id")
	data := rosterDetailsData{Kind: v.kind, Search: core.CleanString(ctx.QueryParam("search"))}

	sess := getSession(ctx)
	clnt := v.s.deps.API
	fetches := []func(context.Context) error{
		func(c context.Context) (err error) {
			data.Roster, err = v.api.Get(c, id)
			return err
		},
		func(c context.Context) (err error) {
			data.Members, err = clnt.Children.ByRoster(c, v.kind, id)
			return err
		},
	}
	if sess.Can(user.CanManageRosters) {
		fetches = append(fetches, func(c context.Context) error {
			teachers, err := clnt.Teachers.List(c)
			for _, t := range teachers {
				if t.Active() {
					data.Teachers = append(data.Teachers, t)
				}
			}
			return err
		})
	}
	if sess.Can(user.CanViewReports) {
		fetches = append(fetches, func(c context.Context) (err error) {
			data.Sessions, err = clnt.Attendance.History(c, v.kind, id)
			if len(data.Sessions) > rosterRecentSessions {
				data.Sessions = data.Sessions[:rosterRecentSessions]
			}
			return err
		})
	}
	if v.kind == roster.KindGroup && data.Search != "" && sess.Can(user.CanManageGroupMembers) {
		fetches = append(fetches, func(c context.Context) (err error) {
			data.Results, err = clnt.Children.Search(c, data.Search)
			return err
		})
	}
	if err := fetchAll(ctx, fetches...); err != nil {
		return err
	}

	// assigned teachers and members are not offered again
	assignable := data.Teachers[:0]
	for _, t := range data.Teachers {
		if !data.Roster.HasTeacher(t.ID) {
			assignable = append(assignable, t)
		}
	}
	data.Teachers = assignable
	candidates := data.Results[:0]
	for _, c := range data.Results {
		if !c.InGroup(id) {
			candidates = append(candidates, c)
		}
	}
	data.Results = candidates

	return v.s.page(ctx, http.StatusOK, "rosters/show", data.Roster.Name, data)
}

func (v rosterViews) assignTeacher(ctx echo.Context) error {
	id := ctx.Param("id")
	var form roster.TeacherAssignment
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to TeacherAssignment")
	}
	if form.TeacherID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Choose a teacher.")
	}
	if err := v.api.AssignTeacher(ctx.Request().Context(), id, form.TeacherID); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The teacher was assigned.")
	return ctx.Redirect(http.StatusSeeOther, v.path(id))
}

func (v rosterViews) removeTeacher(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := v.api.RemoveTeacher(ctx.Request().Context(), id, ctx.Param("teacherId")); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The teacher was removed.")
	return ctx.Redirect(http.StatusSeeOther, v.path(id))
}

func (v rosterViews) addChild(ctx echo.Context) error {
	id := ctx.Param("id")
	var form roster.Membership
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to Membership")
	}
	if form.ChildID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Choose a child.")
	}
	if err := v.api.AddChild(ctx.Request().Context(), id, form.ChildID); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The child was added to the group.")
	return ctx.Redirect(http.StatusSeeOther, v.path(id))
}

func (v rosterViews) removeChild(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := v.api.RemoveChild(ctx.Request().Context(), id, ctx.Param("childId")); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The child was removed from the group.")
	return ctx.Redirect(http.StatusSeeOther, v.path(id))
}
