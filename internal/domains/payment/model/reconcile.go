package model

import (
	"fmt"
	bookingModel "tahaworld/internal/domains/booking/model"
	"time"
)

// Plan maps a payment outcome onto the booking state machine. The returned transition always
// records the event, even when the booking is already in the reported state.
func Plan(booking bookingModel.Booking, evt Event, now time.Time) (bookingModel.Transition, error) {
	transition := bookingModel.Transition{
		Current: booking,
		Fields:  map[string]any{},
		Event: &bookingModel.PaymentEvent{
			Provider:  evt.Provider,
			EventID:   evt.EventID,
			BookingID: booking.ID,
			Outcome:   evt.Outcome,
			CreatedAt: now,
		},
	}

	if evt.CaptureID != "" {
		transition.Fields[bookingModel.FieldCaptureID] = evt.CaptureID
	}

	if evt.Note != "" {
		transition.Fields[bookingModel.FieldPaymentNote] = evt.Note
	}

	switch evt.Outcome {
	case OutcomeCompleted:
		if booking.PaymentStatus == bookingModel.PaymentCompleted || booking.PaymentStatus == bookingModel.PaymentRefunded {
			return transition, nil
		}

		transition.PaymentStatus = bookingModel.PaymentCompleted

		if booking.Status == bookingModel.StatusPending {
			transition.Status = bookingModel.StatusConfirmed
		}
	case OutcomeFailed:
		if !booking.Unpaid() {
			return transition, nil
		}

		transition.PaymentStatus = bookingModel.PaymentFailed

		if evt.Provider == ProviderBankTransfer {
			transition.Fields[bookingModel.FieldReceiptURL] = ""
		}

		if booking.Status == bookingModel.StatusConfirmed {
			transition.Status = bookingModel.StatusCancelled
			transition.ReleaseSlot = true
		}
	case OutcomeRefunded:
		if booking.PaymentStatus != bookingModel.PaymentCompleted {
			return transition, nil
		}

		transition.PaymentStatus = bookingModel.PaymentRefunded

		if booking.Active() {
			transition.Status = bookingModel.StatusCancelled
			transition.ReleaseSlot = true
		}
	default:
		return transition, fmt.Errorf("unknown payment outcome %q", evt.Outcome)
	}

	return transition, nil
}

// NeedsRefund reports a payment that succeeded after its booking was cancelled.
func NeedsRefund(booking bookingModel.Booking, evt Event) bool {
	return evt.Outcome == OutcomeCompleted && booking.Status == bookingModel.StatusCancelled &&
		booking.PaymentStatus != bookingModel.PaymentCompleted && booking.PaymentStatus != bookingModel.PaymentRefunded
}
