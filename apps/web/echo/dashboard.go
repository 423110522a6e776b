package echoweb

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/fellowship/core/attendance"
	"github.com/trezcool/fellowship/core/child"
	"github.com/trezcool/fellowship/core/notification"
	"github.com/trezcool/fellowship/core/roster"
	"github.com/trezcool/fellowship/core/user"
)

const (
	dashboardNotifications = 5
	dashboardHistoryPerKid = 3
	dashboardHistory       = 5
)

type dashboardViews struct {
	s *Server
}

func registerDashboardViews(g *echo.Group, s *Server) {
	v := dashboardViews{s: s}
	g.GET("/", v.dashboard, s.can(user.CanViewDashboard))
}

func (v dashboardViews) dashboard(ctx echo.Context) error {
	if getSession(ctx).Can(user.CanViewRosters) {
		return v.staff(ctx)
	}
	return v.parent(ctx)
}

type staffDashboard struct {
	Classes       []roster.Roster
	Groups        []roster.Roster
	ChildrenTotal int
}

func (v dashboardViews) staff(ctx echo.Context) error {
	var data staffDashboard
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
		func(c context.Context) error {
			page, err := clnt.Children.List(c, child.ListFilter{Page: 1, Limit: 1})
			data.ChildrenTotal = page.Pagination.Total
			return err
		},
	)
	if err != nil {
		return err
	}
	return v.s.page(ctx, http.StatusOK, "dashboard/staff", "Dashboard", data)
}

// recentEntry is a history entry of one of the parent's children.
type recentEntry struct {
	Child child.Child
	attendance.HistoryEntry
}

type parentDashboard struct {
	Children      []child.Child
	Notifications []notification.Notification
	UnreadCount   int
	Recent        []recentEntry
}

func (v dashboardViews) parent(ctx echo.Context) error {
	var data parentDashboard
	clnt := v.s.deps.API
	err := fetchAll(ctx,
		func(c context.Context) error {
			page, err := clnt.Children.List(c, child.ListFilter{Page: 1, Limit: child.MaxLimit})
			data.Children = page.Children
			return err
		},
		func(c context.Context) error {
			list, err := clnt.Notifications.List(c, notification.ListFilter{Limit: dashboardNotifications, UnreadOnly: true})
			data.Notifications, data.UnreadCount = list.Notifications, list.UnreadCount
			return err
		},
	)
	if err != nil {
		return err
	}

	if data.Recent, err = v.recentAttendance(ctx, data.Children); err != nil {
		return err
	}
	return v.s.page(ctx, http.StatusOK, "dashboard/parent", "Dashboard", data)
}

// recentAttendance merges the latest entries of each child's history, most recent first.
func (v dashboardViews) recentAttendance(ctx echo.Context, children []child.Child) ([]recentEntry, error) {
	var (
		mu     sync.Mutex
		recent []recentEntry
	)
	fetches := make([]func(context.Context) error, 0, len(children))
	for _, c := range children {
		c := c
		fetches = append(fetches, func(rc context.Context) error {
			entries, err := v.s.deps.API.Attendance.ChildHistory(rc, c.ID)
			if err != nil {
				return err
			}
			if len(entries) > dashboardHistoryPerKid {
				entries = entries[:dashboardHistoryPerKid]
			}
			mu.Lock()
			defer mu.Unlock()
			for _, e := range entries {
				recent = append(recent, recentEntry{Child: c, HistoryEntry: e})
			}
			return nil
		})
	}
	if err := fetchAll(ctx, fetches...); err != nil {
		return nil, err
	}

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date > recent[j].Date })
	if len(recent) > dashboardHistory {
		recent = recent[:dashboardHistory]
	}
	return recent, nil
}
