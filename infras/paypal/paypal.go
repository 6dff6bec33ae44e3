package paypal

//go:generate go run go.uber.org/mock/mockgen -source=./paypal.go -destination=./mocks/paypal_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/shared/constant"

	paypalGo "github.com/plutov/paypal/v4"
	"github.com/rs/zerolog/log"
)

const (
	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	EventCaptureDeclined  = "PAYMENT.CAPTURE.DECLINED"
	EventCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"

	StatusCompleted = "COMPLETED"
	StatusApproved  = "APPROVED"
	StatusVoided    = "VOIDED"

	linkApprove          = "approve"
	linkPayerAction      = "payer-action"
	linkUp               = "up"
	verificationSuccess  = "SUCCESS"
	capturePathSeparator = "/captures/"
)

var (
	ErrInvalidSignature = errors.New("invalid paypal webhook signature")
	ErrNotConfigured    = errors.New("paypal is not configured")
)

type CreateOrderRequest struct {
	BookingID   string
	Amount      string
	Currency    string
	Description string
}

type Order struct {
	ID         string
	Status     string
	ApproveURL string
	CaptureID  string
	BookingID  string
}

// WebhookEvent is the subset of a paypal notification that payments reconcile on.
type WebhookEvent struct {
	ID        string
	Type      string
	OrderID   string
	CaptureID string
	BookingID string
}

type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	CaptureOrder(ctx context.Context, orderID string) (Order, error)
	RefundCapture(ctx context.Context, captureID string) (refundID string, err error)
	ParseWebhook(ctx context.Context, request *http.Request) (WebhookEvent, error)
}

type gatewayImpl struct {
	client *paypalGo.Client
	cfg    *config.Config
	otel   otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) Gateway {
	gateway := &gatewayImpl{
		cfg:  cfg,
		otel: otl,
	}

	if cfg.Payment.PayPal.ClientID == "" {
		log.Warn().Msg("PayPal client id is empty, paypal payments are disabled")

		return gateway
	}

	base := paypalGo.APIBaseLive
	if cfg.Payment.PayPal.Sandbox {
		base = paypalGo.APIBaseSandBox
	}

	client, err := paypalGo.NewClient(cfg.Payment.PayPal.ClientID, cfg.Payment.PayPal.ClientSecret, base)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create PayPal client")

		return gateway
	}

	gateway.client = client

	return gateway
}

func (g *gatewayImpl) CreateOrder(ctx context.Context, req CreateOrderRequest) (res Order, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPayPalScopeName, constant.OtelPayPalScopeName+".CreateOrder")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.client == nil {
		return res, ErrNotConfigured
	}

	units := []paypalGo.PurchaseUnitRequest{
		{
			ReferenceID: req.BookingID,
			CustomID:    req.BookingID,
			Description: req.Description,
			Amount: &paypalGo.PurchaseUnitAmount{
				Currency: req.Currency,
				Value:    req.Amount,
			},
		},
	}

	appContext := &paypalGo.ApplicationContext{
		ReturnURL: g.cfg.Payment.PayPal.ReturnURL,
		CancelURL: g.cfg.Payment.PayPal.CancelURL,
	}

	order, err := g.client.CreateOrder(ctx, paypalGo.OrderIntentCapture, units, nil, appContext)
	if err != nil {
		log.Error().Err(err).Str("booking_id", req.BookingID).Msg("failed to create paypal order")

		return res, fmt.Errorf("failed to create paypal order: %w", err)
	}

	return fromOrder(order), nil
}

func (g *gatewayImpl) GetOrder(ctx context.Context, orderID string) (res Order, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPayPalScopeName, constant.OtelPayPalScopeName+".GetOrder")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.client == nil {
		return res, ErrNotConfigured
	}

	order, err := g.client.GetOrder(ctx, orderID)
	if err != nil {
		return res, fmt.Errorf("failed to get paypal order: %w", err)
	}

	return fromOrder(order), nil
}

func (g *gatewayImpl) CaptureOrder(ctx context.Context, orderID string) (res Order, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPayPalScopeName, constant.OtelPayPalScopeName+".CaptureOrder")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.client == nil {
		return res, ErrNotConfigured
	}

	captured, err := g.client.CaptureOrder(ctx, orderID, paypalGo.CaptureOrderRequest{})
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("failed to capture paypal order")

		return res, fmt.Errorf("failed to capture paypal order: %w", err)
	}

	res = Order{
		ID:     captured.ID,
		Status: captured.Status,
	}

	for _, unit := range captured.PurchaseUnits {
		if res.BookingID == "" {
			res.BookingID = unit.ReferenceID
		}

		if unit.Payments == nil {
			continue
		}

		for _, capture := range unit.Payments.Captures {
			if capture.ID != "" {
				res.CaptureID = capture.ID
			}
		}
	}

	return res, nil
}

func (g *gatewayImpl) RefundCapture(ctx context.Context, captureID string) (refundID string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPayPalScopeName, constant.OtelPayPalScopeName+".RefundCapture")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.client == nil {
		return constant.Empty, ErrNotConfigured
	}

	refund, err := g.client.RefundCapture(ctx, captureID, paypalGo.RefundCaptureRequest{})
	if err != nil {
		log.Error().Err(err).Str("capture_id", captureID).Msg("failed to refund paypal capture")

		return constant.Empty, fmt.Errorf("failed to refund paypal capture: %w", err)
	}

	return refund.ID, nil
}

type webhookLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type webhookPayload struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string        `json:"id"`
		CustomID          string        `json:"custom_id"`
		Links             []webhookLink `json:"links"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// ParseWebhook verifies the notification with paypal before decoding it.
func (g *gatewayImpl) ParseWebhook(ctx context.Context, request *http.Request) (res WebhookEvent, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelPayPalScopeName, constant.OtelPayPalScopeName+".ParseWebhook")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if g.client == nil {
		return res, ErrNotConfigured
	}

	body, err := io.ReadAll(request.Body)
	if err != nil {
		return res, fmt.Errorf("failed to read paypal webhook body: %w", err)
	}

	request.Body = io.NopCloser(bytes.NewReader(body))

	verification, err := g.client.VerifyWebhookSignature(ctx, request, g.cfg.Payment.PayPal.WebhookID)
	if err != nil {
		return res, fmt.Errorf("failed to verify paypal webhook: %w", err)
	}

	if verification.VerificationStatus != verificationSuccess {
		log.Warn().Str("status", verification.VerificationStatus).Msg("paypal webhook signature rejected")

		return res, ErrInvalidSignature
	}

	return DecodeWebhook(body)
}

// DecodeWebhook extracts the reconciliation fields from a verified notification body.
func DecodeWebhook(body []byte) (WebhookEvent, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("failed to decode paypal webhook: %w", err)
	}

	res := WebhookEvent{
		ID:        payload.ID,
		Type:      payload.EventType,
		OrderID:   payload.Resource.SupplementaryData.RelatedIDs.OrderID,
		BookingID: payload.Resource.CustomID,
	}

	switch payload.EventType {
	case EventCaptureRefunded:
		for _, link := range payload.Resource.Links {
			if link.Rel != linkUp {
				continue
			}

			if _, captureID, found := strings.Cut(link.Href, capturePathSeparator); found {
				res.CaptureID = captureID
			}
		}
	default:
		res.CaptureID = payload.Resource.ID
	}

	return res, nil
}

func fromOrder(order *paypalGo.Order) Order {
	res := Order{
		ID:     order.ID,
		Status: order.Status,
	}

	for _, link := range order.Links {
		if link.Rel == linkApprove || link.Rel == linkPayerAction {
			res.ApproveURL = link.Href
		}
	}

	for _, unit := range order.PurchaseUnits {
		if res.BookingID == "" {
			res.BookingID = unit.ReferenceID
		}

		if unit.Payments == nil {
			continue
		}

		for _, capture := range unit.Payments.Captures {
			if capture.ID != "" {
				res.CaptureID = capture.ID
			}
		}
	}

	return res
}
