package dto

import (
	"mime/multipart"
	bookingModel "tahaworld/internal/domains/booking/model"
	"tahaworld/shared/money"
)

type BankInstructions struct {
	AccountHolder string `json:"account_holder"`
	IBAN          string `json:"iban"`
	BankName      string `json:"bank_name"`
	SwiftCode     string `json:"swift_code,omitempty"`
	Reference     string `json:"reference"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

type CheckoutResponse struct {
	BookingID       string            `json:"booking_id"`
	PaymentMethod   string            `json:"payment_method"`
	PaymentIntentID string            `json:"payment_intent_id,omitempty"`
	ClientSecret    string            `json:"client_secret,omitempty"`
	OrderID         string            `json:"order_id,omitempty"`
	ApproveURL      string            `json:"approve_url,omitempty"`
	BankTransfer    *BankInstructions `json:"bank_transfer,omitempty"`
}

type UploadReceiptRequest struct {
	Receipt *multipart.FileHeader `json:"receipt" swaggerignore:"true" validate:"required,mimetypes=image/jpeg image/png application/pdf,maxfilesize=5"`
	File    multipart.File        `json:"-"`
}

type VerifyReceiptRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Note    string `json:"note"    validate:"omitempty,max=500"`
}

type PaymentStatusResponse struct {
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	PaymentMethod string `json:"payment_method"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ReceiptURL    string `json:"receipt_url,omitempty"`
	PaymentNote   string `json:"payment_note,omitempty"`
}

func (r *PaymentStatusResponse) FromModel(booking bookingModel.Booking) {
	r.BookingID = booking.ID
	r.Status = booking.Status
	r.PaymentStatus = booking.PaymentStatus
	r.PaymentMethod = booking.PaymentMethod
	r.Amount = money.FormatMinor(booking.Amount, booking.Currency)
	r.Currency = booking.Currency
	r.ReceiptURL = booking.ReceiptURL
	r.PaymentNote = booking.PaymentNote
}

func NewPaymentStatusResponse(booking bookingModel.Booking) PaymentStatusResponse {
	var res PaymentStatusResponse
	res.FromModel(booking)

	return res
}
