package dto

import (
	"net/url"
	"strconv"
	"tahaworld/internal/domains/notification/model"
	gDto "tahaworld/shared/dto"
	"time"
)

type NotificationResponse struct {
	ID        string     `json:"id"`
	BookingID string     `json:"booking_id"`
	Type      string     `json:"type"`
	Language  string     `json:"language"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r *NotificationResponse) FromModel(notification model.Notification) {
	r.ID = notification.ID
	r.BookingID = notification.BookingID
	r.Type = notification.Type
	r.Language = notification.Language
	r.Title = notification.Title
	r.Message = notification.Message
	r.IsRead = notification.IsRead
	r.ReadAt = notification.ReadAt
	r.CreatedAt = notification.CreatedAt
}

func NewNotificationResponse(notification model.Notification) NotificationResponse {
	var res NotificationResponse
	res.FromModel(notification)

	return res
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// FilterFromQuery understands ?is_read=true|false and ?type=<event type>.
func FilterFromQuery(query url.Values) gDto.FilterGroup {
	var filter gDto.FilterGroup

	if raw := query.Get(model.FieldIsRead); raw != "" {
		if isRead, err := strconv.ParseBool(raw); err == nil {
			filter.Add(gDto.Filter{Field: model.FieldIsRead, Value: isRead, Operator: gDto.FilterOperatorEq, Table: model.TableName})
		}
	}

	if eventType := query.Get(model.FieldType); eventType != "" {
		filter.AddEq(model.FieldType, eventType, model.TableName)
	}

	return filter
}
