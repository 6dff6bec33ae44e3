package model

import (
	"fmt"
	"maps"
	"slices"
	"tahaworld/shared/constant"
	"time"
)

var statusFlow = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

var paymentFlow = map[string][]string{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentFailed:    {PaymentPending, PaymentCompleted},
	PaymentCompleted: {PaymentRefunded},
}

func CanMoveStatus(from, to string) bool {
	return from == to || slices.Contains(statusFlow[from], to)
}

func CanMovePayment(from, to string) bool {
	return from == to || slices.Contains(paymentFlow[from], to)
}

// Validate checks that status and payment status agree with each other.
func (b Booking) Validate() error {
	switch b.Status {
	case StatusPending:
		if b.PaymentStatus == PaymentCompleted || b.PaymentStatus == PaymentRefunded {
			return fmt.Errorf("%w: pending booking with %s payment", ErrInvalidState, b.PaymentStatus)
		}
	case StatusConfirmed:
		if b.PaymentStatus == PaymentCompleted {
			return nil
		}

		if b.PaymentMethod == MethodBankTransfer && b.PaymentStatus == PaymentPending && b.HasReceipt() {
			return nil
		}

		return fmt.Errorf("%w: %s booking with %s payment", ErrInvalidState, b.Status, b.PaymentStatus)
	case StatusCompleted:
		// A transfer must be verified before the session is closed, otherwise a rejected receipt
		// could no longer be applied.
		if b.PaymentStatus == PaymentCompleted || b.PaymentStatus == PaymentRefunded {
			return nil
		}

		return fmt.Errorf("%w: %s booking with %s payment", ErrInvalidState, b.Status, b.PaymentStatus)
	case StatusCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, b.Status)
	}

	return nil
}

type PaymentEvent struct {
	Provider  string    `db:"provider"`
	EventID   string    `db:"event_id"`
	BookingID string    `db:"booking_id"`
	Outcome   string    `db:"outcome"`
	CreatedAt time.Time `db:"created_at"`
}

// Transition is a compare and swap write on a booking: it only applies while the stored
// (status, payment_status) still equals the one in Current.
type Transition struct {
	Current       Booking
	Status        string
	PaymentStatus string
	Fields        map[string]any
	ReleaseSlot   bool
	Event         *PaymentEvent
}

// Next returns the booking as it will be once t is applied.
func (t Transition) Next() (Booking, error) {
	next := t.Current

	if t.Status != "" {
		if !CanMoveStatus(next.Status, t.Status) {
			return next, fmt.Errorf("%w: status %s -> %s", ErrInvalidState, next.Status, t.Status)
		}

		next.Status = t.Status
	}

	if t.PaymentStatus != "" {
		if !CanMovePayment(next.PaymentStatus, t.PaymentStatus) {
			return next, fmt.Errorf("%w: payment %s -> %s", ErrInvalidState, next.PaymentStatus, t.PaymentStatus)
		}

		next.PaymentStatus = t.PaymentStatus
	}

	if receipt, ok := t.Fields[FieldReceiptURL].(string); ok {
		next.ReceiptURL = receipt
	}

	return next, next.Validate()
}

// Changes builds the column map written by the transition.
func (t Transition) Changes(now time.Time, user string) map[string]any {
	changes := make(map[string]any, len(t.Fields)+5)
	maps.Copy(changes, t.Fields)

	if t.Status != "" && t.Status != t.Current.Status {
		changes[FieldStatus] = t.Status

		switch t.Status {
		case StatusConfirmed:
			changes[FieldConfirmedAt] = now
		case StatusCancelled:
			changes[FieldCancelledAt] = now
		case StatusCompleted:
			changes[FieldCompletedAt] = now
		}
	}

	if t.PaymentStatus != "" && t.PaymentStatus != t.Current.PaymentStatus {
		changes[FieldPaymentStatus] = t.PaymentStatus
	}

	changes[constant.FieldModifiedAt] = now
	changes[constant.FieldModifiedBy] = user

	return changes
}
