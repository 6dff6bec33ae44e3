package model

import "tahaworld/shared/model"

const (
	TableName  = "consultation_feedback"
	EntityName = "feedback"

	FieldID             = "id"
	FieldBookingID      = "booking_id"
	FieldUserID         = "user_id"
	FieldConsultationID = "consultation_id"
	FieldRating         = "rating"
	FieldComment        = "comment"

	CacheGetAll  = "feedback:gets"
	CacheSummary = "feedback:summary"
)

type Feedback struct {
	ID             string `db:"id"`
	BookingID      string `db:"booking_id"`
	UserID         string `db:"user_id"`
	ConsultationID string `db:"consultation_id"`
	Rating         int    `db:"rating"`
	Comment        string `db:"comment"`
	AuthorName     string `column:"full_name" db:"author_name" table:"users"`
	model.Metadata
}

func (Feedback) GetJoinQuery() string {
	return "JOIN users ON users.id = consultation_feedback.user_id"
}

type Summary struct {
	Average float64 `db:"average"`
	Count   int     `db:"count"`
}
