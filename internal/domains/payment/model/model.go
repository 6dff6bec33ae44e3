package model

import "errors"

const (
	EntityName = "payment"

	ProviderStripe       = "stripe"
	ProviderPayPal       = "paypal"
	ProviderBankTransfer = "bank_transfer"
	ProviderAdmin        = "admin"

	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRefunded  = "refunded"

	ReceiptDirectory = "receipts"

	// MaxReconcileAttempts bounds the retries after losing a compare and swap race.
	MaxReconcileAttempts = 3
)

var ErrUnknownBooking = errors.New("payment does not match any booking")

// Event is a payment outcome reported by a provider webhook, a capture or an admin review.
type Event struct {
	Provider  string
	EventID   string
	BookingID string
	Reference string
	Outcome   string
	CaptureID string
	Note      string
}
