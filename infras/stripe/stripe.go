package stripe

//go:generate go run go.uber.org/mock/mockgen -source=./stripe.go -destination=./mocks/stripe_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/shared/constant"
	"tahaworld/shared/money"

	"github.com/rs/zerolog/log"
	stripeGo "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	MetadataBookingID = "booking_id"

	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventChargeRefunded   = "charge.refunded"

	StatusSucceeded = "succeeded"
	StatusCanceled  = "canceled"
)

var (
	ErrInvalidSignature = errors.New("invalid stripe webhook signature")
	ErrNotConfigured    = errors.New("stripe is not configured")
	ErrUnchargeable     = errors.New("amount is not chargeable in this currency")
)

type CreateIntentRequest struct {
	BookingID      string
	Amount         int64
	Currency       string
	Description    string
	ReceiptEmail   string
	IdempotencyKey string
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	BookingID    string
	Refunded     bool
}

// WebhookEvent is the subset of a stripe event that payments reconcile on.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	BookingID       string
	FullyRefunded   bool
}

type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (PaymentIntent, error)
	Refund(ctx context.Context, paymentIntentID, idempotencyKey string) (refundID string, err error)
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
}

type gatewayImpl struct {
	api           *client.API
	webhookSecret string
	otel          otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Gateway {
	var api *client.API

	if cfg.Payment.Stripe.SecretKey != "" {
		api = &client.API{}
		api.Init(cfg.Payment.Stripe.SecretKey, nil)
	} else {
		log.Warn().Msg("Stripe secret key is empty, card payments are disabled")
	}

	return &gatewayImpl{
		api:           api,
		webhookSecret: cfg.Payment.Stripe.WebhookSecret,
		otel:          otl,
	}
}

func (g *gatewayImpl) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (res PaymentIntent, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelStripeScopeName, constant.OtelStripeScopeName+".CreatePaymentIntent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !money.Chargeable(req.Amount, req.Currency) {
		return res, fmt.Errorf("%w: %d %s must be a multiple of %d", ErrUnchargeable, req.Amount, req.Currency, money.ChargeStep(req.Currency))
	}

	if g.api == nil {
		return res, ErrNotConfigured
	}

	params := &stripeGo.PaymentIntentParams{
		Amount:      stripeGo.Int64(req.Amount),
		Currency:    stripeGo.String(strings.ToLower(req.Currency)),
		Description: stripeGo.String(req.Description),
		AutomaticPaymentMethods: &stripeGo.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripeGo.Bool(true),
		},
	}

	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripeGo.String(req.ReceiptEmail)
	}

	params.Context = ctx
	params.AddMetadata(MetadataBookingID, req.BookingID)
	params.SetIdempotencyKey(req.IdempotencyKey)

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		log.Error().Err(err).Str("booking_id", req.BookingID).Msg("failed to create stripe payment intent")

		return res, fmt.Errorf("failed to create stripe payment intent: %w", err)
	}

	return fromPaymentIntent(intent), nil
}

func (g *gatewayImpl) GetPaymentIntent(ctx context.Context, id string) (res PaymentIntent, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelStripeScopeName, constant.OtelStripeScopeName+".GetPaymentIntent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.api == nil {
		return res, ErrNotConfigured
	}

	params := &stripeGo.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	intent, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return res, fmt.Errorf("failed to get stripe payment intent: %w", err)
	}

	return fromPaymentIntent(intent), nil
}

func (g *gatewayImpl) Refund(ctx context.Context, paymentIntentID, idempotencyKey string) (refundID string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelStripeScopeName, constant.OtelStripeScopeName+".Refund")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.api == nil {
		return constant.Empty, ErrNotConfigured
	}

	params := &stripeGo.RefundParams{
		PaymentIntent: stripeGo.String(paymentIntentID),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		log.Error().Err(err).Str("payment_intent", paymentIntentID).Msg("failed to refund stripe payment intent")

		return constant.Empty, fmt.Errorf("failed to refund stripe payment intent: %w", err)
	}

	return refund.ID, nil
}

func (g *gatewayImpl) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("stripe webhook signature rejected")

		return WebhookEvent{}, ErrInvalidSignature
	}

	res := WebhookEvent{
		ID:   evt.ID,
		Type: string(evt.Type),
	}

	switch res.Type {
	case EventPaymentSucceeded, EventPaymentFailed:
		var intent stripeGo.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &intent); err != nil {
			return res, fmt.Errorf("failed to decode stripe payment intent: %w", err)
		}

		res.PaymentIntentID = intent.ID
		res.BookingID = intent.Metadata[MetadataBookingID]
	case EventChargeRefunded:
		var charge stripeGo.Charge
		if err := json.Unmarshal(evt.Data.Raw, &charge); err != nil {
			return res, fmt.Errorf("failed to decode stripe charge: %w", err)
		}

		if charge.PaymentIntent != nil {
			res.PaymentIntentID = charge.PaymentIntent.ID
		}

		res.BookingID = charge.Metadata[MetadataBookingID]
		res.FullyRefunded = charge.Refunded
	}

	return res, nil
}

func fromPaymentIntent(intent *stripeGo.PaymentIntent) PaymentIntent {
	res := PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Amount:       intent.Amount,
		Currency:     strings.ToUpper(string(intent.Currency)),
		BookingID:    intent.Metadata[MetadataBookingID],
	}

	if intent.LatestCharge != nil {
		res.Refunded = intent.LatestCharge.Refunded
	}

	return res
}
