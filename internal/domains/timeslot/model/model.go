package model

import (
	"errors"
	"tahaworld/shared/model"
	"time"
)

const (
	TableName  = "time_slots"
	EntityName = "time slot"

	FieldID             = "id"
	FieldConsultationID = "consultation_id"
	FieldStartTime      = "start_time"
	FieldEndTime        = "end_time"
	FieldIsAvailable    = "is_available"

	// CacheAvailable prefixes the cached availability listings. Anything that flips is_available clears it.
	CacheAvailable = "timeslot:available"
)

var ErrInvalidWindow = errors.New("invalid generation window")

type TimeSlot struct {
	ID             string    `db:"id"`
	ConsultationID string    `db:"consultation_id"`
	StartTime      time.Time `db:"start_time"`
	EndTime        time.Time `db:"end_time"`
	IsAvailable    bool      `db:"is_available"`
	model.Metadata
}

// Overlaps uses half open intervals, so back to back slots do not overlap.
func (t TimeSlot) Overlaps(start, end time.Time) bool {
	return t.StartTime.Before(end) && t.EndTime.After(start)
}
