package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fellowship/core/notification"
	"github.com/trezcool/fellowship/core/session"
	"github.com/trezcool/fellowship/core/teacher"
	"github.com/trezcool/fellowship/core/user"
)

// allParents is the recipient value broadcasting to every parent.
const allParents = "*"

type notificationViews struct {
	s *Server
}

func registerNotificationViews(g *echo.Group, s *Server) {
	v := notificationViews{s: s}

	ng := g.Group("/notifications")
	ng.GET("", v.list, s.can(user.CanViewNotifications))
	ng.POST("/read-all", v.readAll, s.can(user.CanViewNotifications))
	ng.POST("/:id/read", v.read, s.can(user.CanViewNotifications))
	ng.DELETE("/:id", v.delete, s.can(user.CanViewNotifications))
	ng.GET("/new", v.sendForm, s.can(user.CanSendNotifications))
	ng.POST("", v.send, s.can(user.CanSendNotifications))
}

func (v notificationViews) list(ctx echo.Context) error {
	list, err := v.s.deps.API.Notifications.List(ctx.Request().Context(), notification.ListFilter{Limit: notification.DefaultLimit})
	if err != nil {
		return err
	}
	return v.s.page(ctx, http.StatusOK, "notifications/list", "Notifications", list)
}

func (v notificationViews) read(ctx echo.Context) error {
	if err := v.s.deps.API.Notifications.MarkRead(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusSeeOther, backPath(ctx.Request()))
}

func (v notificationViews) readAll(ctx echo.Context) error {
	if err := v.s.deps.API.Notifications.MarkAllRead(ctx.Request().Context()); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "All notifications were marked as read.")
	return ctx.Redirect(http.StatusSeeOther, "/notifications")
}

func (v notificationViews) delete(ctx echo.Context) error {
	if err := v.s.deps.API.Notifications.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	getSession(ctx).Notify(session.NoticeSuccess, "The notification was deleted.")
	return ctx.Redirect(http.StatusSeeOther, "/notifications")
}

type sendData struct {
	Parents    []teacher.Parent
	Types      []string
	AllParents string
}

func (v notificationViews) sendData(ctx echo.Context) (sendData, error) {
	parents, err := v.s.deps.API.Teachers.Parents(ctx.Request().Context())
	return sendData{Parents: parents, Types: notification.Types, AllParents: allParents}, err
}

func (v notificationViews) sendForm(ctx echo.Context) error {
	data, err := v.sendData(ctx)
	if err != nil {
		return err
	}
	form := notification.NewNotification{
		RecipientID:    ctx.QueryParam("recipient"),
		RelatedChildID: ctx.QueryParam("child"),
		Type:           notification.TypeGeneral,
	}
	return v.s.formPage(ctx, http.StatusOK, "notifications/new", "Send a notification", form, nil, data)
}

func (v notificationViews) send(ctx echo.Context) error {
	var form notification.NewNotification
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	data, err := v.sendData(ctx)
	if err != nil {
		return err
	}

	var sent int
	if form.RecipientID == allParents {
		bulk := notification.BulkNotification{Title: form.Title, Message: form.Message, Type: form.Type}
		for _, p := range data.Parents {
			bulk.RecipientIDs = append(bulk.RecipientIDs, p.ID)
		}
		if err = bulk.Validate(); err == nil {
			err = v.s.deps.API.Notifications.SendBulk(ctx.Request().Context(), bulk)
		}
		sent = len(bulk.RecipientIDs)
	} else {
		if err = form.Validate(); err == nil {
			_, err = v.s.deps.API.Notifications.Send(ctx.Request().Context(), form)
		}
		sent = 1
	}
	if err != nil {
		return v.s.formPage(ctx, http.StatusOK, "notifications/new", "Send a notification", form, err, data)
	}

	msg := "The notification was sent."
	if sent > 1 {
		msg = fmt.Sprintf("The notification was sent to %d parents.", sent)
	}
	getSession(ctx).Notify(session.NoticeSuccess, msg)
	return ctx.Redirect(http.StatusSeeOther, "/notifications")
}
