package payment

import (
	"fmt"
	"io"
	"net/http"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/payment/model/dto"
	"tahaworld/internal/domains/payment/service"
	"tahaworld/shared/constant"
	"tahaworld/shared/failure"
	"tahaworld/shared/validator"
	"tahaworld/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const (
	maxWebhookBytes  = 64 << 10
	formFieldReceipt = "receipt"
)

type Handler struct {
	service service.Payment
	otel    otel.Otel
}

func New(service service.Payment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/payments", func(routerGroup chi.Router) {
		routerGroup.Post("/webhooks/stripe", handler.StripeWebhook)
		routerGroup.Post("/webhooks/paypal", handler.PayPalWebhook)

		routerGroup.Post("/{id}/checkout", handler.Checkout)
		routerGroup.Post("/{id}/paypal/capture", handler.CapturePayPal)
		routerGroup.Post("/{id}/receipt", handler.UploadReceipt)
		routerGroup.Post("/{id}/receipt/verify", handler.VerifyReceipt)
		routerGroup.Post("/{id}/refund", handler.Refund)
		routerGroup.Post("/{id}/sync", handler.Sync)
	})
}

// Checkout starts the payment of a pending booking with the method chosen at booking time.
// @Summary Start payment
// @Description Stripe returns a client secret, PayPal an approval link, bank transfer the account details and reference.
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.CheckoutResponse]
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error "Payment provider not configured"
// @Router /v1/payments/{id}/checkout [post]
// @Security BearerAuth
func (handler *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Checkout")
	defer scope.End()

	res, err := handler.service.Checkout(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to start checkout")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// CapturePayPal captures an approved PayPal order.
// @Summary Capture PayPal order
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.PaymentStatusResponse]
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/payments/{id}/paypal/capture [post]
// @Security BearerAuth
func (handler *Handler) CapturePayPal(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CapturePayPal")
	defer scope.End()

	res, err := handler.service.CapturePayPal(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to capture paypal order")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// UploadReceipt attaches a bank transfer receipt to a pending booking.
// @Summary Upload transfer receipt
// @Tags Payment
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Booking ID"
// @Param receipt formData file true "Receipt (jpeg, png or pdf, max 5 MB)"
// @Success 200 {object} response.Data[dto.PaymentStatusResponse]
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/payments/{id}/receipt [post]
// @Security BearerAuth
func (handler *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadReceipt")
	defer scope.End()

	if err := r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to parse multipart form")
		response.WithError(w, failure.BadRequest(err))

		return
	}

	req := dto.UploadReceiptRequest{}

	file, fileHeader, err := r.FormFile(formFieldReceipt)
	if err == nil {
		req.Receipt = fileHeader
		req.File = file

		defer file.Close()
	}

	if err := validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.UploadReceipt(ctx, chi.URLParam(r, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload receipt")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Receipt uploaded")

	response.WithJSON(w, http.StatusOK, res)
}

// VerifyReceipt approves or rejects an uploaded bank transfer receipt.
// @Summary Review transfer receipt
// @Tags Payment
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.VerifyReceiptRequest true "Decision"
// @Success 200 {object} response.Data[dto.PaymentStatusResponse]
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/payments/{id}/receipt/verify [post]
// @Security BearerAuth
func (handler *Handler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".VerifyReceipt")
	defer scope.End()

	req := dto.VerifyReceiptRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	res, err := handler.service.VerifyReceipt(ctx, chi.URLParam(r, constant.RequestParamID), req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to verify receipt")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// Refund returns a completed payment through its provider.
// @Summary Refund payment
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.PaymentStatusResponse]
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/payments/{id}/refund [post]
// @Security BearerAuth
func (handler *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Refund")
	defer scope.End()

	res, err := handler.service.Refund(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to refund payment")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// Sync asks the provider for the current payment state, for when a webhook never arrived.
// @Summary Sync payment status
// @Tags Payment
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.PaymentStatusResponse]
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/payments/{id}/sync [post]
// @Security BearerAuth
func (handler *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SyncPayment")
	defer scope.End()

	res, err := handler.service.Sync(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to sync payment")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, res)
}

// StripeWebhook receives Stripe events. The raw body is needed to check the signature.
// @Summary Stripe webhook
// @Tags Payment
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error "Invalid signature"
// @Router /v1/payments/webhooks/stripe [post]
func (handler *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".StripeWebhook")
	defer scope.End()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read stripe webhook body")

		response.WithError(w, failure.BadRequest(fmt.Errorf("failed to read webhook body: %w", err)))

		return
	}

	if err := handler.service.StripeWebhook(ctx, payload, r.Header.Get(constant.RequestHeaderStripeSignature)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to handle stripe webhook")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}

// PayPalWebhook receives PayPal events. The signature is verified against PayPal before anything is applied.
// @Summary PayPal webhook
// @Tags Payment
// @Accept json
// @Produce json
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error "Invalid signature"
// @Router /v1/payments/webhooks/paypal [post]
func (handler *Handler) PayPalWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PayPalWebhook")
	defer scope.End()

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)

	if err := handler.service.PayPalWebhook(ctx, r); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to handle paypal webhook")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}
