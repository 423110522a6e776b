package api

import (
	"context"

	"github.com/trezcool/fellowship/core/notification"
)

type NotificationsAPI struct{ c *Client }

func (a *NotificationsAPI) List(ctx context.Context, f notification.ListFilter) (notification.List, error) {
	var list notification.List
	err := a.c.get(ctx, "notifications.list", "/notifications", f.Query(), &list)
	return list, err
}

func (a *NotificationsAPI) MarkRead(ctx context.Context, id string) error {
	return a.c.put(ctx, "notifications.read", "/notifications/"+pathEscape(id)+"/read", nil, nil)
}

func (a *NotificationsAPI) MarkAllRead(ctx context.Context) error {
	return a.c.put(ctx, "notifications.readAll", "/notifications/read-all", nil, nil)
}

func (a *NotificationsAPI) Delete(ctx context.Context, id string) error {
	return a.c.delete(ctx, "notifications.delete", "/notifications/"+pathEscape(id))
}

func (a *NotificationsAPI) Send(ctx context.Context, nn notification.NewNotification) (notification.Notification, error) {
	var n notification.Notification
	err := a.c.post(ctx, "notifications.send", "/notifications", nn, &n)
	return n, err
}

func (a *NotificationsAPI) SendBulk(ctx context.Context, bn notification.BulkNotification) error {
	return a.c.post(ctx, "notifications.bulk", "/notifications/bulk", bn, nil)
}
