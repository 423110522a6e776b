package echoweb

import (
	"bytes"
	"context"
	"net/http"
	"net/mail"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core"
	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/user"
	"github.com/trezcool/fellowship/services/export"
)

const recentSessions = 10

type reportViews struct {
	s *Server
}

func registerReportViews(g *echo.Group, s *Server) {
	v := reportViews{s: s}
	rg := g.Group("/attendance/reports")
	rg.GET("", v.report, s.can(user.CanViewReports))
	rg.GET("/export", v.export, s.can(user.CanViewReports))
	rg.POST("/email", v.email, s.can(user.CanShareReports))
}

type reportData struct {
	Filter  attendance.ReportFilter
	Classes []roster.Roster
	Groups  []roster.Roster
	Report  *attendance.Report
	Recent  []attendance.Session
	Share   attendance.ReportShare
}

// Scope is the display name of what the report covers.
func (d reportData) Scope() string {
	rosters := d.Classes
	if d.Filter.Type == roster.KindGroup {
		rosters = d.Groups
	}
	id := d.Filter.TargetID()
	for _, r := range rosters {
		if r.ID == id {
			return r.Name
		}
	}
	if d.Filter.Type == roster.KindGroup {
		return "All groups"
	}
	return "All classes"
}

func (d reportData) query() string {
	q := url.Values{}
	for k, val := range d.Filter.Query() {
		q.Set(k, val)
	}
	return q.Encode()
}

func (d reportData) ExportURL() string { return "/attendance/reports/export?" + d.query() }

func (d reportData) meta() export.ReportMeta {
	return export.ReportMeta{ScopeName: d.Scope(), StartDate: d.Filter.StartDate, EndDate: d.Filter.EndDate}
}

// load resolves the filter of the request and fetches the rosters it picks from.
// The report itself is only fetched when generate is set and the filter is valid.
func (v reportViews) load(ctx echo.Context, params url.Values, generate bool) (*reportData, error) {
	f := attendance.ReportFilter{
		Type:      roster.Kind(params.Get("type")),
		ClassID:   params.Get("classId"),
		GroupID:   params.Get("groupId"),
		StartDate: params.Get("startDate"),
		EndDate:   params.Get("endDate"),
	}
	f.Normalize(core.NowFunc())
	data := &reportData{Filter: f}

	clnt := v.s.deps.API
	err := fetchAll(ctx,
		func(c context.Context) (err error) {
			data.Classes, err = clnt.Classes.List(c)
			return err
		},
		func(c context.Context) (err error) {
			data.Groups, err = clnt.Groups.List(c)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	// the first class is preselected on the very first visit
	if len(params) == 0 && len(data.Classes) > 0 {
		data.Filter.Select(data.Classes[0].ID)
	}
	if !generate {
		return data, nil
	}
	if err := data.Filter.Validate(); err != nil {
		return data, err
	}
	rep, err := clnt.Attendance.Report(ctx.Request().Context(), data.Filter)
	if err != nil {
		return nil, err
	}
	data.Report = &rep
	data.Recent = rep.RecentSessions(recentSessions)
	return data, nil
}

func (v reportViews) report(ctx echo.Context) error {
	params := ctx.QueryParams()
	data, err := v.load(ctx, params, len(params) > 0)
	if data == nil {
		return err
	}
	return v.s.formPage(ctx, http.StatusOK, "attendance/reports", "Attendance reports", data.Filter, err, data)
}

func (v reportViews) export(ctx echo.Context) error {
	data, err := v.load(ctx, ctx.QueryParams(), true)
	if err != nil {
		return err
	}
	meta := data.meta()

	var buf bytes.Buffer
	if err := export.WriteReportXLSX(&buf, meta, *data.Report); err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.ReportFilename(meta)+`"`)
	return ctx.Blob(http.StatusOK, export.XLSXContentType, buf.Bytes())
}

type shareData struct {
	SenderName string
	ScopeName  string
	StartDate  string
	EndDate    string
	Note       string
	Report     attendance.Report
}

func (v reportViews) email(ctx echo.Context) error {
	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing report form")
	}
	var form attendance.ReportShare
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to ReportShare")
	}

	data, err := v.load(ctx, params, true)
	if data == nil {
		return err
	}
	if err == nil {
		err = form.Validate()
	}
	if err != nil {
		data.Share = form
		return v.s.formPage(ctx, http.StatusOK, "attendance/reports", "Attendance reports", data.Filter, err, data)
	}

	meta := data.meta()
	var buf bytes.Buffer
	if err := export.WriteReportXLSX(&buf, meta, *data.Report); err != nil {
		return err
	}
	sender := getSessionUser(ctx)
	share := func(to mail.Address) (*core.EmailMessage, error) {
		msg := &core.EmailMessage{
			To:           []mail.Address{to},
			Subject:      "Attendance report: " + meta.ScopeName,
			TemplateName: "report_share",
			TemplateData: shareData{
				SenderName: sender.FullName(),
				ScopeName:  meta.ScopeName,
				StartDate:  core.FormatDate(meta.StartDate),
				EndDate:    core.FormatDate(meta.EndDate),
				Note:       form.Note,
				Report:     *data.Report,
			},
		}
		err := msg.Attach(bytes.NewReader(buf.Bytes()), export.ReportFilename(meta), export.XLSXContentType)
		return msg, err
	}

	msg, err := share(mail.Address{Address: form.Email})
	if err != nil {
		return err
	}
	if err := v.s.deps.Email.Send(msg); err != nil {
		return errors.Wrap(err, "sending report")
	}
	// the copy is best effort
	if form.CopyMe && sender.Email != "" && !strings.EqualFold(sender.Email, form.Email) {
		cp, err := share(mail.Address{Name: sender.FullName(), Address: sender.Email})
		if err != nil {
			return err
		}
		v.s.deps.Email.SendMessages(cp)
	}

	getSession(ctx).Notify(session.NoticeSuccess, "The report was sent to "+form.Email+".")
	return ctx.Redirect(http.StatusSeeOther, "/attendance/reports?"+data.query())
}
