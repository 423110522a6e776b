package api

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/roster"
)

type AttendanceAPI struct{ c *Client }

func (a *AttendanceAPI) TakeClass(ctx context.Context, ns attendance.NewSession) (attendance.Session, error) {
	if ns.ClassID == "" || ns.GroupID != "" {
		return attendance.Session{}, errors.New("attendance.takeClass: payload must carry only a class")
	}
	var s attendance.Session
	err := a.c.post(ctx, "attendance.takeClass", "/attendance/class", ns, &s)
	return s, err
}

func (a *AttendanceAPI) TakeGroup(ctx context.Context, ns attendance.NewSession) (attendance.Session, error) {
	if ns.GroupID == "" || ns.ClassID != "" {
		return attendance.Session{}, errors.New("attendance.takeGroup: payload must carry only a group")
	}
	var s attendance.Session
	err := a.c.post(ctx, "attendance.takeGroup", "/attendance/group", ns, &s)
	return s, err
}

// Take posts ns to the endpoint of its scope.
func (a *AttendanceAPI) Take(ctx context.Context, ns attendance.NewSession) (attendance.Session, error) {
	if ns.Kind() == roster.KindGroup {
		return a.TakeGroup(ctx, ns)
	}
	return a.TakeClass(ctx, ns)
}

func (a *AttendanceAPI) Get(ctx context.Context, id string) (attendance.Session, error) {
	var s attendance.Session
	err := a.c.get(ctx, "attendance.get", "/attendance/"+pathEscape(id), nil, &s)
	return s, err
}

func (a *AttendanceAPI) Update(ctx context.Context, id string, ns attendance.NewSession) (attendance.Session, error) {
	var s attendance.Session
	err := a.c.put(ctx, "attendance.update", "/attendance/"+pathEscape(id), ns, &s)
	return s, err
}

// History lists the sessions of a class or a group, most recent first.
func (a *AttendanceAPI) History(ctx context.Context, kind roster.Kind, id string) ([]attendance.Session, error) {
	var sessions []attendance.Session
	err := a.c.get(ctx, "attendance."+kind.String()+"History", "/attendance/"+kind.String()+"/"+pathEscape(id), nil, &sessions)
	return sessions, err
}

// ChildHistory lists the attendance of one child, most recent first.
func (a *AttendanceAPI) ChildHistory(ctx context.Context, childID string) ([]attendance.HistoryEntry, error) {
	var entries []attendance.HistoryEntry
	err := a.c.get(ctx, "attendance.childHistory", "/attendance/child/"+pathEscape(childID), nil, &entries)
	return entries, err
}

func (a *AttendanceAPI) Report(ctx context.Context, f attendance.ReportFilter) (attendance.Report, error) {
	var rep attendance.Report
	err := a.c.get(ctx, "attendance.report", "/attendance/report", f.Query(), &rep)
	return rep, err
}
