package model

import (
	"errors"
	"tahaworld/shared/model"
	"time"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID               = "id"
	FieldUserID           = "user_id"
	FieldConsultationID   = "consultation_id"
	FieldTimeSlotID       = "time_slot_id"
	FieldStatus           = "status"
	FieldPaymentStatus    = "payment_status"
	FieldPaymentMethod    = "payment_method"
	FieldAmount           = "amount"
	FieldCurrency         = "currency"
	FieldPaymentReference = "payment_reference"
	FieldCaptureID        = "capture_id"
	FieldCheckoutAttempt  = "checkout_attempt"
	FieldReceiptURL       = "receipt_url"
	FieldPaymentNote      = "payment_note"
	FieldMeetingLink      = "meeting_link"
	FieldNotes            = "notes"
	FieldCancelReason     = "cancel_reason"
	FieldConfirmedAt      = "confirmed_at"
	FieldCancelledAt      = "cancelled_at"
	FieldCompletedAt      = "completed_at"
	FieldSlotStart        = "slot_start"

	CacheGet    = "booking:get"
	CacheGetAll = "booking:gets"
	CacheStats  = "booking:stats"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

const (
	MethodStripe       = "stripe"
	MethodPayPal       = "paypal"
	MethodBankTransfer = "bank_transfer"
)

var (
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrStaleBooking    = errors.New("booking changed concurrently")
	ErrDuplicateEvent  = errors.New("payment event already applied")
	ErrInvalidState    = errors.New("invalid booking state")
)

type Booking struct {
	ID               string     `db:"id"`
	UserID           string     `db:"user_id"`
	ConsultationID   string     `db:"consultation_id"`
	TimeSlotID       string     `db:"time_slot_id"`
	Status           string     `db:"status"`
	PaymentStatus    string     `db:"payment_status"`
	PaymentMethod    string     `db:"payment_method"`
	Amount           int64      `db:"amount"`
	Currency         string     `db:"currency"`
	PaymentReference string     `db:"payment_reference"`
	CaptureID        string     `db:"capture_id"`
	CheckoutAttempt  int        `db:"checkout_attempt"`
	ReceiptURL       string     `db:"receipt_url"`
	PaymentNote      string     `db:"payment_note"`
	MeetingLink      string     `db:"meeting_link"`
	Notes            string     `db:"notes"`
	CancelReason     string     `db:"cancel_reason"`
	ConfirmedAt      *time.Time `db:"confirmed_at"`
	CancelledAt      *time.Time `db:"cancelled_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	SlotStart        time.Time  `column:"start_time" db:"slot_start"   table:"time_slots"`
	SlotEnd          time.Time  `column:"end_time"   db:"slot_end"     table:"time_slots"`
	TitleAr          string     `column:"title_ar"   db:"title_ar"     table:"consultations"`
	TitleEn          string     `column:"title_en"   db:"title_en"     table:"consultations"`
	model.Metadata
}

func (Booking) GetJoinQuery() string {
	return "JOIN time_slots ON time_slots.id = bookings.time_slot_id JOIN consultations ON consultations.id = bookings.consultation_id"
}

// Active reports whether the booking still holds its slot.
func (b Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

func (b Booking) Terminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}

func (b Booking) Unpaid() bool {
	return b.PaymentStatus == PaymentPending || b.PaymentStatus == PaymentFailed
}

func (b Booking) HasReceipt() bool {
	return b.ReceiptURL != ""
}

// Stats aggregates bookings for the admin overview.
type Stats struct {
	ByStatus        map[string]int
	ByPaymentStatus map[string]int
	Revenue         map[string]int64
}

type Count struct {
	Key   string `db:"key"`
	Total int64  `db:"total"`
}
