package notification

import (
	"strconv"

	"github.com/trezcool/fellowship/core"
)

// Types
const (
	TypeGeneral      = "general"
	TypeAttendance   = "attendance"
	TypeAnnouncement = "announcement"
	TypeReminder     = "reminder"

	DefaultLimit = 50
)

var Types = []string{TypeGeneral, TypeAttendance, TypeAnnouncement, TypeReminder}

type Notification struct {
	ID           string   `json:"_id"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Type         string   `json:"type"`
	IsRead       bool     `json:"isRead"`
	RelatedChild core.Ref `json:"relatedChild"`
	Sender       core.Ref `json:"sender"`
	CreatedAt    string   `json:"createdAt"`
}

// ListFilter narrows the notifications list.
type ListFilter struct {
	Limit      int  `query:"limit"`
	UnreadOnly bool `query:"unreadOnly"`
}

func (f ListFilter) Query() map[string]string {
	limit := f.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	q := map[string]string{"limit": strconv.Itoa(limit)}
	if f.UnreadOnly {
		q["unreadOnly"] = "true"
	}
	return q
}

// List is a page of notifications with the recipient's unread count.
type List struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// NewNotification is sent by staff to one user.
type NewNotification struct {
	RecipientID    string `json:"recipient" form:"recipient" validate:"required"`
	Title          string `json:"title" form:"title" validate:"required,max=120"`
	Message        string `json:"message" form:"message" validate:"required"`
	Type           string `json:"type" form:"type" validate:"required,oneof=general attendance announcement reminder"`
	RelatedChildID string `json:"relatedChild,omitempty" form:"relatedChild"`
}

func (nn *NewNotification) Validate() error {
	nn.RecipientID = core.CleanString(nn.RecipientID)
	nn.Title = core.CleanString(nn.Title)
	nn.Message = core.CleanString(nn.Message)
	nn.Type = core.CleanString(nn.Type, true /* lower */)
	if nn.Type == "" {
		nn.Type = TypeGeneral
	}
	nn.RelatedChildID = core.CleanString(nn.RelatedChildID)
	return core.ValidateStruct(nn)
}

// BulkNotification is sent by staff to many users at once.
type BulkNotification struct {
	RecipientIDs []string `json:"recipients" form:"recipients" validate:"required,min=1,dive,required"`
	Title        string   `json:"title" form:"title" validate:"required,max=120"`
	Message      string   `json:"message" form:"message" validate:"required"`
	Type         string   `json:"type" form:"type" validate:"required,oneof=general attendance announcement reminder"`
}

func (bn *BulkNotification) Validate() error {
	bn.Title = core.CleanString(bn.Title)
	bn.Message = core.CleanString(bn.Message)
	bn.Type = core.CleanString(bn.Type, true /* lower */)
	if bn.Type == "" {
		bn.Type = TypeGeneral
	}
	return core.ValidateStruct(bn)
}
