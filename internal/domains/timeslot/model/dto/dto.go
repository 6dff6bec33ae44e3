package dto

import (
	"net/url"
	"strconv"
	"tahaworld/internal/domains/timeslot/model"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/timezone"
	"time"

	"github.com/google/uuid"
)

type CreateTimeSlotRequest struct {
	ConsultationID string    `json:"consultation_id" validate:"required,uuid"`
	StartTime      time.Time `json:"start_time"      validate:"required"`
}

type GenerateTimeSlotsRequest struct {
	ConsultationID string `json:"consultation_id" validate:"required,uuid"`
	FromDate       string `json:"from_date"       validate:"required,datetime=2006-01-02"`
	ToDate         string `json:"to_date"         validate:"required,datetime=2006-01-02"`
	Weekdays       []int  `json:"weekdays"        validate:"omitempty,unique,dive,min=0,max=6"`
	DayStart       string `json:"day_start"       validate:"required,datetime=15:04"`
	DayEnd         string `json:"day_end"         validate:"required,datetime=15:04"`
	GapMinutes     int    `json:"gap_minutes"     validate:"min=0,max=240"`
}

// ToWindow resolves the calendar fields in the application timezone.
func (g *GenerateTimeSlotsRequest) ToWindow() (model.Window, error) {
	from, err := timezone.Parse(timezone.DateLayout, g.FromDate)
	if err != nil {
		return model.Window{}, err //nolint:wrapcheck
	}

	to, err := timezone.Parse(timezone.DateLayout, g.ToDate)
	if err != nil {
		return model.Window{}, err //nolint:wrapcheck
	}

	weekdays := make([]time.Weekday, len(g.Weekdays))
	for i, day := range g.Weekdays {
		weekdays[i] = time.Weekday(day)
	}

	return model.Window{
		From:     from,
		To:       to,
		Weekdays: weekdays,
		DayStart: g.DayStart,
		DayEnd:   g.DayEnd,
		Gap:      time.Duration(g.GapMinutes) * time.Minute,
	}, nil
}

type GenerateTimeSlotsResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type UpdateTimeSlotRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
}

type TimeSlotResponse struct {
	ID             string `json:"id"`
	ConsultationID string `json:"consultation_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	IsAvailable    bool   `json:"is_available"`
}

func (r *TimeSlotResponse) FromModel(slot model.TimeSlot) {
	r.ID = slot.ID
	r.ConsultationID = slot.ConsultationID
	r.StartTime = timezone.Format(slot.StartTime, constant.DateFormat)
	r.EndTime = timezone.Format(slot.EndTime, constant.DateFormat)
	r.IsAvailable = slot.IsAvailable
}

func NewTimeSlotResponse(slot model.TimeSlot) TimeSlotResponse {
	var res TimeSlotResponse
	res.FromModel(slot)

	return res
}

func NewTimeSlot(consultationID string, interval model.Interval, user string) model.TimeSlot {
	return model.TimeSlot{
		ID:             uuid.NewString(),
		ConsultationID: consultationID,
		StartTime:      interval.Start,
		EndTime:        interval.End,
		IsAvailable:    true,
		Metadata:       gModel.NewMetadata(timezone.Now(), user),
	}
}

const (
	QueryFrom = "from"
	QueryTo   = "to"

	DefaultAvailabilityDays = 30
	MaxAvailabilityDays     = 92
)

func FilterFromQuery(query url.Values) gDto.FilterGroup {
	var filter gDto.FilterGroup

	filter.AddEq(model.FieldConsultationID, query.Get(model.FieldConsultationID), model.TableName)

	if available, err := strconv.ParseBool(query.Get(model.FieldIsAvailable)); err == nil {
		filter.Add(gDto.Filter{Field: model.FieldIsAvailable, Value: available, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	return filter
}

// AvailabilityWindow reads the from and to dates of an availability query. Both are calendar days in the
// application timezone and to is inclusive. Without from the window starts now, without to it spans
// DefaultAvailabilityDays.
func AvailabilityWindow(query url.Values, now time.Time) (from, to time.Time, err error) {
	from = now

	if value := query.Get(QueryFrom); value != constant.Empty {
		if from, err = timezone.Parse(timezone.DateLayout, value); err != nil {
			return from, to, failure.BadRequestFromString("from must be a date formatted as YYYY-MM-DD") // nolint:wrapcheck
		}
	}

	to = timezone.StartOfDay(from).AddDate(0, 0, DefaultAvailabilityDays)

	if value := query.Get(QueryTo); value != constant.Empty {
		day, err := timezone.Parse(timezone.DateLayout, value)
		if err != nil {
			return from, to, failure.BadRequestFromString("to must be a date formatted as YYYY-MM-DD") // nolint:wrapcheck
		}

		to = day.AddDate(0, 0, 1)
	}

	if !to.After(from) {
		return from, to, failure.BadRequestFromString("to must not be before from") // nolint:wrapcheck
	}

	if to.Sub(timezone.StartOfDay(from)) > MaxAvailabilityDays*24*time.Hour {
		return from, to, failure.BadRequestFromString("the availability window is limited to " + strconv.Itoa(MaxAvailabilityDays) + " days") // nolint:wrapcheck
	}

	return from, to, nil
}
