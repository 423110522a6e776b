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
	"github.com/trezcool/fellowship/core/user"
)

const actionMarkAllPresent = "mark_all_present"

type attendanceViews struct {
	s *Server
}

func registerAttendanceViews(g *echo.Group, s *Server) {
	v := attendanceViews{s: s}
	g.GET("/attendance", v.takeForm, s.can(user.CanTakeAttendance))
	g.POST("/attendance", v.take, s.can(user.CanTakeAttendance))
	g.GET("/attendance/:id", v.details, s.can(user.CanViewReports))
	g.PUT("/attendance/:id", v.update, s.can(user.CanTakeAttendance))
}

type takeData struct {
	W       *attendance.Workflow
	Classes []roster.Roster
	Groups  []roster.Roster
	Marks   []attendance.Mark
	Tally   attendance.Tally
}

// Target is the selected class or group.
func (d takeData) Target() roster.Roster {
	rosters := d.Classes
	if d.W.Kind() == roster.KindGroup {
		rosters = d.Groups
	}
	for _, r := range rosters {
		if r.ID == d.W.TargetID() {
			return r
		}
	}
	return roster.Roster{}
}

// workflow rebuilds the attendance workflow from the request: scope, date, then the roster of the target.
// Anything but the roster is left for the caller to apply.
func (v attendanceViews) workflow(ctx echo.Context, params func(string) string) (*takeData, error) {
	wf := attendance.NewWorkflow("")
	data := &takeData{W: wf}

	kind, err := roster.ParseKind(params("type"))
	if err != nil {
		kind = roster.KindClass
	}
	wf.SetKind(kind)
	if kind == roster.KindGroup {
		wf.Select(params("groupId"))
	} else {
		wf.Select(params("classId"))
	}
	dateErr := wf.SetDate(params("date"))

	clnt := v.s.deps.API
	fetches := []func(context.Context) error{
		func(c context.Context) (err error) {
			data.Classes, err = clnt.Classes.List(c)
			return err
		},
		func(c context.Context) (err error) {
			data.Groups, err = clnt.Groups.List(c)
			return err
		},
	}
	var members []child.Child
	if wf.NeedsRoster() {
		fetches = append(fetches, func(c context.Context) (err error) {
			members, err = clnt.Children.ByRoster(c, wf.Kind(), wf.TargetID())
			return err
		})
	}
	if err := fetchAll(ctx, fetches...); err != nil {
		return nil, err
	}

	if wf.NeedsRoster() {
		if err := wf.LoadRoster(members); err != nil {
			return nil, err
		}
	}
	return data, dateErr
}

func (d *takeData) refresh() {
	d.Marks = d.W.Marks()
	d.Tally = d.W.Tally()
}

func (v attendanceViews) takeForm(ctx echo.Context) error {
	data, err := v.workflow(ctx, ctx.QueryParam)
	if data == nil {
		return err
	}
	data.refresh()
	return v.s.formPage(ctx, http.StatusOK, "attendance/take", "Take attendance", nil, err, data)
}

func (v attendanceViews) take(ctx echo.Context) error {
	data, err := v.workflow(ctx, ctx.FormValue)
	if data == nil {
		return err
	}
	if err != nil {
		data.refresh()
		return v.s.formPage(ctx, http.StatusOK, "attendance/take", "Take attendance", nil, err, data)
	}

	wf := data.W
	wf.SetNotes(ctx.FormValue("notes"))
	for _, m := range wf.Marks() {
		if val := ctx.FormValue("status[" + m.Child.ID + "]"); val != "" {
			st, err := attendance.ParseStatus(val)
			if err == nil {
				err = wf.SetStatus(m.Child.ID, st)
			}
			if err != nil {
				data.refresh()
				return v.s.formPage(ctx, http.StatusOK, "attendance/take", "Take attendance", nil, err, data)
			}
		}
		if note := ctx.FormValue("note[" + m.Child.ID + "]"); note != "" {
			if err := wf.SetNote(m.Child.ID, note); err != nil {
				return err
			}
		}
	}

	if ctx.FormValue("action") == actionMarkAllPresent {
		err := wf.MarkAllPresent()
		data.refresh()
		return v.s.formPage(ctx, http.StatusOK, "attendance/take", "Take attendance", nil, err, data)
	}

	ns, err := wf.Begin()
	if err == nil {
		_, err = v.s.deps.API.Attendance.Take(ctx.Request().Context(), ns)
		if core.IsUnauthorized(err) {
			return err
		}
		if err != nil {
			wf.Fail(err)
		}
	}
	if err != nil {
		data.refresh()
		return v.s.formPage(ctx, http.StatusOK, "attendance/take", "Take attendance", nil, err, data)
	}
	wf.Succeed()

	getSession(ctx).Notify(session.NoticeSuccess, "Attendance was saved.")
	q := url.Values{"type": {wf.Kind().String()}}
	if wf.Kind() == roster.KindGroup {
		q.Set("groupId", wf.TargetID())
	} else {
		q.Set("classId", wf.TargetID())
	}
	return ctx.Redirect(http.StatusSeeOther, "/attendance/reports?"+q.Encode())
}

type sessionData struct {
	Session attendance.Session
	Tally   attendance.Tally
}

func (v attendanceViews) details(ctx echo.Context) error {
	sess, err := v.s.deps.API.Attendance.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	_, target := sess.Target()
	return v.s.page(ctx, http.StatusOK, "attendance/session", target.Label()+", "+core.FormatDate(sess.Date), sessionData{sess, sess.Tally()})
}

// update applies corrections to a recorded session. Fields left out of the form keep their value.
func (v attendanceViews) update(ctx echo.Context) error {
	id := ctx.Param("id")
	form, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing attendance form")
	}
	reqCtx := ctx.Request().Context()
	sess, err := v.s.deps.API.Attendance.Get(reqCtx, id)
	if err != nil {
		return err
	}

	ns := sess.Revision()
	if _, ok := form["notes"]; ok {
		ns.Notes = core.CleanString(form.Get("notes"))
	}
	for i, rec := range ns.Records {
		if val := form.Get("status[" + rec.ChildID + "]"); val != "" {
			st, err := attendance.ParseStatus(val)
			if err != nil {
				return err
			}
			ns.Records[i].Status = st
		}
		if _, ok := form["note["+rec.ChildID+"]"]; ok {
			ns.Records[i].Notes = core.CleanString(form.Get("note[" + rec.ChildID + "]"))
		}
	}
	if err = ns.Validate(); err != nil {
		return err
	}
	if _, err = v.s.deps.API.Attendance.Update(reqCtx, id, ns); err != nil {
		return err
	}

	getSession(ctx).Notify(session.NoticeSuccess, "The attendance record was updated.")
	return ctx.Redirect(http.StatusSeeOther, "/attendance/"+url.PathEscape(id))
}
