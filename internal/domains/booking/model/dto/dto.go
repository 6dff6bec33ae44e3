package dto

import (
	"net/url"
	"tahaworld/internal/domains/booking/model"
	"tahaworld/shared/constant"
	"tahaworld/shared/event"
	gDto "tahaworld/shared/dto"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/money"
	"tahaworld/shared/timezone"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ConsultationID string `json:"consultation_id" validate:"required,uuid"`
	TimeSlotID     string `json:"time_slot_id"    validate:"required,uuid"`
	PaymentMethod  string `json:"payment_method"  validate:"required,oneof=stripe paypal bank_transfer"`
	Notes          string `json:"notes"           validate:"omitempty,max=1000"`
}

// ToModel starts a pending hold priced from the consultation.
func (c *CreateBookingRequest) ToModel(user string, amount int64, currency string) model.Booking {
	return model.Booking{
		ID:             uuid.NewString(),
		UserID:         user,
		ConsultationID: c.ConsultationID,
		TimeSlotID:     c.TimeSlotID,
		Status:         model.StatusPending,
		PaymentStatus:  model.PaymentPending,
		PaymentMethod:  c.PaymentMethod,
		Amount:         amount,
		Currency:       currency,
		Notes:          c.Notes,
		Metadata:       gModel.NewMetadata(timezone.Now(), user),
	}
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type ConfirmBookingRequest struct {
	MeetingLink string `json:"meeting_link" validate:"omitempty,url,max=500"`
}

type RescheduleBookingRequest struct {
	TimeSlotID string `json:"time_slot_id" validate:"required,uuid"`
}

type BookingResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	ConsultationID string `json:"consultation_id"`
	TitleAr        string `json:"title_ar"`
	TitleEn        string `json:"title_en"`
	TimeSlotID     string `json:"time_slot_id"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Status         string `json:"status"`
	PaymentStatus  string `json:"payment_status"`
	PaymentMethod  string `json:"payment_method"`
	Amount         int64  `json:"amount"`
	Price          string `json:"price"`
	Currency       string `json:"currency"`
	ReceiptURL     string `json:"receipt_url,omitempty"`
	PaymentNote    string `json:"payment_note,omitempty"`
	MeetingLink    string `json:"meeting_link,omitempty"`
	Notes          string `json:"notes,omitempty"`
	CancelReason   string `json:"cancel_reason,omitempty"`
	ConfirmedAt    string `json:"confirmed_at,omitempty"`
	CancelledAt    string `json:"cancelled_at,omitempty"`
	CompletedAt    string `json:"completed_at,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(booking model.Booking) {
	r.ID = booking.ID
	r.UserID = booking.UserID
	r.ConsultationID = booking.ConsultationID
	r.TitleAr = booking.TitleAr
	r.TitleEn = booking.TitleEn
	r.TimeSlotID = booking.TimeSlotID
	r.StartTime = timezone.Format(booking.SlotStart, constant.DateFormat)
	r.EndTime = timezone.Format(booking.SlotEnd, constant.DateFormat)
	r.Status = booking.Status
	r.PaymentStatus = booking.PaymentStatus
	r.PaymentMethod = booking.PaymentMethod
	r.Amount = booking.Amount
	r.Price = money.FormatMinor(booking.Amount, booking.Currency)
	r.Currency = booking.Currency
	r.ReceiptURL = booking.ReceiptURL
	r.PaymentNote = booking.PaymentNote
	r.MeetingLink = booking.MeetingLink
	r.Notes = booking.Notes
	r.CancelReason = booking.CancelReason
	r.ConfirmedAt = formatOptional(booking.ConfirmedAt)
	r.CancelledAt = formatOptional(booking.CancelledAt)
	r.CompletedAt = formatOptional(booking.CompletedAt)
	r.Metadata.FromModel(booking.Metadata)
}

func NewBookingResponse(booking model.Booking) BookingResponse {
	var res BookingResponse
	res.FromModel(booking)

	return res
}

type StatsResponse struct {
	ByStatus        map[string]int    `json:"by_status"`
	ByPaymentStatus map[string]int    `json:"by_payment_status"`
	Revenue         map[string]string `json:"revenue"`
}

func (r *StatsResponse) FromModel(stats model.Stats) {
	r.ByStatus = stats.ByStatus
	r.ByPaymentStatus = stats.ByPaymentStatus

	r.Revenue = make(map[string]string, len(stats.Revenue))
	for currency, amount := range stats.Revenue {
		r.Revenue[currency] = money.FormatMinor(amount, currency)
	}
}

// FilterFromQuery reads the list filters supported on bookings.
func FilterFromQuery(query url.Values) gDto.FilterGroup {
	filter := gDto.FilterGroup{}

	for _, field := range []string{model.FieldStatus, model.FieldPaymentStatus, model.FieldPaymentMethod, model.FieldConsultationID} {
		filter.AddEq(field, query.Get(field), model.TableName)
	}

	return filter
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}

	return timezone.Format(*t, constant.DateFormat)
}

// NewEvent describes booking as a topic event of eventType.
func NewEvent(eventType string, booking model.Booking, reason string) event.BookingEvent {
	evt := event.New(eventType, timezone.Now())
	evt.BookingID = booking.ID
	evt.UserID = booking.UserID
	evt.ConsultationID = booking.ConsultationID
	evt.Status = booking.Status
	evt.PaymentStatus = booking.PaymentStatus
	evt.PaymentMethod = booking.PaymentMethod
	evt.Amount = booking.Amount
	evt.Currency = booking.Currency
	evt.StartTime = booking.SlotStart
	evt.Reason = reason

	return evt
}
