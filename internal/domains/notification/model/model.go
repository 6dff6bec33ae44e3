package model

import (
	"tahaworld/shared/model"
	"time"
)

const (
	TableName  = "booking_notifications"
	EntityName = "notification"

	FieldID        = "id"
	FieldUserID    = "user_id"
	FieldBookingID = "booking_id"
	FieldEventID   = "event_id"
	FieldType      = "type"
	FieldLanguage  = "language"
	FieldTitle     = "title"
	FieldMessage   = "message"
	FieldIsRead    = "is_read"
	FieldReadAt    = "read_at"

	CacheGetAll = "notification:gets"
	CacheUnread = "notification:unread"
)

type Notification struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	BookingID string     `db:"booking_id"`
	EventID   string     `db:"event_id"`
	Type      string     `db:"type"`
	Language  string     `db:"language"`
	Title     string     `db:"title"`
	Message   string     `db:"message"`
	IsRead    bool       `db:"is_read"`
	ReadAt    *time.Time `db:"read_at"`
	model.Metadata
}
