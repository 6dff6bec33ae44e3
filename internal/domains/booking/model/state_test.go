package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahaworld/internal/domains/booking/model"
)

func TestBooking_Validate(t *testing.T) {
	tests := []struct {
		name    string
		booking model.Booking
		wantErr bool
	}{
		{name: "pending unpaid", booking: model.Booking{Status: model.StatusPending, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodStripe}},
		{name: "pending failed", booking: model.Booking{Status: model.StatusPending, PaymentStatus: model.PaymentFailed, PaymentMethod: model.MethodPayPal}},
		{name: "pending paid", booking: model.Booking{Status: model.StatusPending, PaymentStatus: model.PaymentCompleted}, wantErr: true},
		{name: "confirmed paid card", booking: model.Booking{Status: model.StatusConfirmed, PaymentStatus: model.PaymentCompleted, PaymentMethod: model.MethodStripe}},
		{name: "confirmed unpaid card", booking: model.Booking{Status: model.StatusConfirmed, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodStripe}, wantErr: true},
		{name: "confirmed unpaid paypal", booking: model.Booking{Status: model.StatusConfirmed, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodPayPal}, wantErr: true},
		{
			name:    "confirmed transfer with receipt",
			booking: model.Booking{Status: model.StatusConfirmed, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodBankTransfer, ReceiptURL: "https://cdn/receipt.png"},
		},
		{name: "confirmed transfer without receipt", booking: model.Booking{Status: model.StatusConfirmed, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodBankTransfer}, wantErr: true},
		{name: "confirmed refunded", booking: model.Booking{Status: model.StatusConfirmed, PaymentStatus: model.PaymentRefunded, PaymentMethod: model.MethodStripe}, wantErr: true},
		{
			name:    "completed transfer awaiting verification",
			booking: model.Booking{Status: model.StatusCompleted, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodBankTransfer, ReceiptURL: "https://cdn/receipt.png"},
			wantErr: true,
		},
		{name: "completed paid", booking: model.Booking{Status: model.StatusCompleted, PaymentStatus: model.PaymentCompleted, PaymentMethod: model.MethodBankTransfer}},
		{name: "completed refunded", booking: model.Booking{Status: model.StatusCompleted, PaymentStatus: model.PaymentRefunded, PaymentMethod: model.MethodStripe}},
		{name: "cancelled paid", booking: model.Booking{Status: model.StatusCancelled, PaymentStatus: model.PaymentCompleted}},
		{name: "cancelled refunded", booking: model.Booking{Status: model.StatusCancelled, PaymentStatus: model.PaymentRefunded}},
		{name: "unknown status", booking: model.Booking{Status: "archived"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.booking.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidState)

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestStateMachine(t *testing.T) {
	assert.True(t, model.CanMoveStatus(model.StatusPending, model.StatusConfirmed))
	assert.True(t, model.CanMoveStatus(model.StatusConfirmed, model.StatusCompleted))
	assert.False(t, model.CanMoveStatus(model.StatusPending, model.StatusCompleted))
	assert.False(t, model.CanMoveStatus(model.StatusCancelled, model.StatusPending))
	assert.False(t, model.CanMoveStatus(model.StatusCompleted, model.StatusCancelled))

	assert.True(t, model.CanMovePayment(model.PaymentFailed, model.PaymentPending))
	assert.True(t, model.CanMovePayment(model.PaymentCompleted, model.PaymentRefunded))
	assert.False(t, model.CanMovePayment(model.PaymentRefunded, model.PaymentCompleted))
	assert.False(t, model.CanMovePayment(model.PaymentPending, model.PaymentRefunded))
}

func TestTransition(t *testing.T) {
	pending := model.Booking{ID: "b-1", Status: model.StatusPending, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodStripe}

	t.Run("payment completion confirms", func(t *testing.T) {
		transition := model.Transition{Current: pending, Status: model.StatusConfirmed, PaymentStatus: model.PaymentCompleted}

		next, err := transition.Next()
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, next.Status)

		changes := transition.Changes(next.CreatedAt, "system")
		assert.Equal(t, model.StatusConfirmed, changes[model.FieldStatus])
		assert.Equal(t, model.PaymentCompleted, changes[model.FieldPaymentStatus])
		assert.Contains(t, changes, model.FieldConfirmedAt)
		assert.Equal(t, "system", changes["modified_by"])
	})

	t.Run("confirming without payment is rejected", func(t *testing.T) {
		_, err := model.Transition{Current: pending, Status: model.StatusConfirmed}.Next()
		assert.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("receipt upload allows confirming a transfer", func(t *testing.T) {
		transfer := pending
		transfer.PaymentMethod = model.MethodBankTransfer

		_, err := model.Transition{Current: transfer, Status: model.StatusConfirmed}.Next()
		require.ErrorIs(t, err, model.ErrInvalidState)

		transfer.ReceiptURL = "https://cdn/r.pdf"

		_, err = model.Transition{Current: transfer, Status: model.StatusConfirmed}.Next()
		assert.NoError(t, err)
	})

	t.Run("unverified transfer cannot be completed", func(t *testing.T) {
		transfer := model.Booking{
			ID:            "b-1",
			Status:        model.StatusConfirmed,
			PaymentStatus: model.PaymentPending,
			PaymentMethod: model.MethodBankTransfer,
			ReceiptURL:    "https://cdn/r.pdf",
		}

		_, err := model.Transition{Current: transfer, Status: model.StatusCompleted}.Next()
		require.ErrorIs(t, err, model.ErrInvalidState)

		transfer.PaymentStatus = model.PaymentCompleted

		_, err = model.Transition{Current: transfer, Status: model.StatusCompleted}.Next()
		assert.NoError(t, err)
	})

	t.Run("unchanged fields are not written", func(t *testing.T) {
		changes := model.Transition{Current: pending, Status: model.StatusPending, Fields: map[string]any{model.FieldNotes: "x"}}.Changes(pending.CreatedAt, "u-1")
		assert.NotContains(t, changes, model.FieldStatus)
		assert.Equal(t, "x", changes[model.FieldNotes])
	})
}
