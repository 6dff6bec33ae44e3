package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingModel "tahaworld/internal/domains/booking/model"
	"tahaworld/internal/domains/payment/model"
)

func TestPlan(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		status        string
		payment       string
		method        string
		outcome       string
		wantStatus    string
		wantPayment   string
		wantRelease   bool
		wantRefundLog bool
	}{
		{"completed confirms a pending hold", bookingModel.StatusPending, bookingModel.PaymentPending, bookingModel.MethodStripe, model.OutcomeCompleted, bookingModel.StatusConfirmed, bookingModel.PaymentCompleted, false, false},
		{"completed after a failure", bookingModel.StatusPending, bookingModel.PaymentFailed, bookingModel.MethodPayPal, model.OutcomeCompleted, bookingModel.StatusConfirmed, bookingModel.PaymentCompleted, false, false},
		{"completed on a cancelled booking", bookingModel.StatusCancelled, bookingModel.PaymentPending, bookingModel.MethodStripe, model.OutcomeCompleted, "", bookingModel.PaymentCompleted, false, true},
		{"completed twice records only", bookingModel.StatusConfirmed, bookingModel.PaymentCompleted, bookingModel.MethodStripe, model.OutcomeCompleted, "", "", false, false},
		{"completed after refund records only", bookingModel.StatusCancelled, bookingModel.PaymentRefunded, bookingModel.MethodStripe, model.OutcomeCompleted, "", "", false, false},
		{"failed keeps the hold", bookingModel.StatusPending, bookingModel.PaymentPending, bookingModel.MethodStripe, model.OutcomeFailed, "", bookingModel.PaymentFailed, false, false},
		{"failed cancels a confirmed transfer", bookingModel.StatusConfirmed, bookingModel.PaymentPending, bookingModel.MethodBankTransfer, model.OutcomeFailed, bookingModel.StatusCancelled, bookingModel.PaymentFailed, true, false},
		{"late failure after success records only", bookingModel.StatusConfirmed, bookingModel.PaymentCompleted, bookingModel.MethodStripe, model.OutcomeFailed, "", "", false, false},
		{"refund cancels an upcoming session", bookingModel.StatusConfirmed, bookingModel.PaymentCompleted, bookingModel.MethodStripe, model.OutcomeRefunded, bookingModel.StatusCancelled, bookingModel.PaymentRefunded, true, false},
		{"refund of a finished session", bookingModel.StatusCompleted, bookingModel.PaymentCompleted, bookingModel.MethodPayPal, model.OutcomeRefunded, "", bookingModel.PaymentRefunded, false, false},
		{"refund without payment records only", bookingModel.StatusPending, bookingModel.PaymentPending, bookingModel.MethodStripe, model.OutcomeRefunded, "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := bookingModel.Booking{ID: "b-1", Status: tt.status, PaymentStatus: tt.payment, PaymentMethod: tt.method, ReceiptURL: "https://cdn.test/r.pdf"}
			evt := model.Event{Provider: tt.method, EventID: "evt-1", Outcome: tt.outcome}

			transition, err := model.Plan(booking, evt, now)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, transition.Status)
			assert.Equal(t, tt.wantPayment, transition.PaymentStatus)
			assert.Equal(t, tt.wantRelease, transition.ReleaseSlot)
			assert.Equal(t, tt.wantRefundLog, model.NeedsRefund(booking, evt))
			require.NotNil(t, transition.Event)
			assert.Equal(t, "evt-1", transition.Event.EventID)
			assert.Equal(t, "b-1", transition.Event.BookingID)

			_, err = transition.Next()
			assert.NoError(t, err)
		})
	}
}

func TestPlan_UnknownOutcome(t *testing.T) {
	_, err := model.Plan(bookingModel.Booking{Status: bookingModel.StatusPending}, model.Event{Outcome: "chargeback"}, time.Now())
	assert.Error(t, err)
}
