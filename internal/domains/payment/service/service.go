package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/infras/paypal"
	"tahaworld/infras/s3"
	"tahaworld/infras/stripe"
	bookingModel "tahaworld/internal/domains/booking/model"
	bookingDto "tahaworld/internal/domains/booking/model/dto"
	bookingRepo "tahaworld/internal/domains/booking/repository"
	"tahaworld/internal/domains/payment/model"
	"tahaworld/internal/domains/payment/model/dto"
	timeslotModel "tahaworld/internal/domains/timeslot/model"
	userModel "tahaworld/internal/domains/user/model"
	userRepo "tahaworld/internal/domains/user/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/event"
	"tahaworld/shared/failure"
	"tahaworld/shared/money"
	"tahaworld/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	errNotAwaitingPayment = "booking is not awaiting payment"
	errReconcileConflict  = "booking kept changing while applying the payment, retry later"

	idempotencyPrefix = "booking"
	refundPrefix      = "refund"
	capturePrefix     = "capture"
	syncPrefix        = "sync"
)

var outcomeEvents = map[string]string{
	model.OutcomeCompleted: event.TypePaymentCompleted,
	model.OutcomeFailed:    event.TypePaymentFailed,
	model.OutcomeRefunded:  event.TypePaymentRefunded,
}

type Payment interface {
	Checkout(ctx context.Context, bookingID string) (dto.CheckoutResponse, error)
	CapturePayPal(ctx context.Context, bookingID string) (dto.PaymentStatusResponse, error)
	UploadReceipt(ctx context.Context, bookingID string, req dto.UploadReceiptRequest) (dto.PaymentStatusResponse, error)
	VerifyReceipt(ctx context.Context, bookingID string, req dto.VerifyReceiptRequest) (dto.PaymentStatusResponse, error)
	Refund(ctx context.Context, bookingID string) (dto.PaymentStatusResponse, error)
	Sync(ctx context.Context, bookingID string) (dto.PaymentStatusResponse, error)
	StripeWebhook(ctx context.Context, payload []byte, signature string) error
	PayPalWebhook(ctx context.Context, request *http.Request) error
	Reconcile(ctx context.Context, evt model.Event) error
}

type serviceImpl struct {
	bookingRepo bookingRepo.Booking
	userRepo    userRepo.User
	stripe      stripe.Gateway
	paypal      paypal.Gateway
	storage     s3.S3
	publisher   event.Publisher
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	bookingRepo bookingRepo.Booking,
	userRepo userRepo.User,
	stripeGateway stripe.Gateway,
	paypalGateway paypal.Gateway,
	storage s3.S3,
	publisher event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Payment {
	return &serviceImpl{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		stripe:      stripeGateway,
		paypal:      paypalGateway,
		storage:     storage,
		publisher:   publisher,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

// Checkout starts a payment for a pending booking. Card and paypal checkouts remember the provider
// reference on the booking; a retry after a failure opens a fresh attempt with its own idempotency key.
func (s *serviceImpl) Checkout(ctx context.Context, bookingID string) (res dto.CheckoutResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.Checkout")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.owned(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if booking.Status != bookingModel.StatusPending || !booking.Unpaid() {
		return res, failure.Conflict(errNotAwaitingPayment) // nolint:wrapcheck
	}

	res.BookingID = booking.ID
	res.PaymentMethod = booking.PaymentMethod
	attempt := booking.CheckoutAttempt + 1

	var reference string

	switch booking.PaymentMethod {
	case bookingModel.MethodStripe:
		intent, err := s.stripe.CreatePaymentIntent(ctx, stripe.CreateIntentRequest{
			BookingID:      booking.ID,
			Amount:         booking.Amount,
			Currency:       booking.Currency,
			Description:    booking.TitleEn,
			ReceiptEmail:   s.emailOf(ctx, booking.UserID),
			IdempotencyKey: shared.BuildCacheKey(idempotencyPrefix, booking.ID, strconv.Itoa(attempt)),
		})
		if err != nil {
			if errors.Is(err, stripe.ErrUnchargeable) {
				return res, failure.UnprocessableEntity(err.Error()) // nolint:wrapcheck
			}

			return res, s.gatewayError(err, stripe.ErrNotConfigured, "failed to create payment intent")
		}

		reference = intent.ID
		res.PaymentIntentID = intent.ID
		res.ClientSecret = intent.ClientSecret
	case bookingModel.MethodPayPal:
		order, err := s.paypal.CreateOrder(ctx, paypal.CreateOrderRequest{
			BookingID:   booking.ID,
			Amount:      money.FormatMinor(booking.Amount, booking.Currency),
			Currency:    booking.Currency,
			Description: booking.TitleEn,
		})
		if err != nil {
			return res, s.gatewayError(err, paypal.ErrNotConfigured, "failed to create paypal order")
		}

		reference = order.ID
		res.OrderID = order.ID
		res.ApproveURL = order.ApproveURL
	case bookingModel.MethodBankTransfer:
		bank := s.cfg.Payment.BankTransfer
		res.BankTransfer = &dto.BankInstructions{
			AccountHolder: bank.AccountHolder,
			IBAN:          bank.IBAN,
			BankName:      bank.BankName,
			SwiftCode:     bank.SwiftCode,
			Reference:     booking.ID,
			Amount:        money.FormatMinor(booking.Amount, booking.Currency),
			Currency:      booking.Currency,
		}

		return res, nil
	default:
		return res, failure.BadRequestFromString("unsupported payment method " + booking.PaymentMethod) // nolint:wrapcheck
	}

	_, err = s.apply(ctx, bookingModel.Transition{
		Current:       booking,
		PaymentStatus: bookingModel.PaymentPending,
		Fields: map[string]any{
			bookingModel.FieldPaymentReference: reference,
			bookingModel.FieldCheckoutAttempt:  attempt,
		},
	})
	if err != nil {
		return dto.CheckoutResponse{}, err
	}

	log.Info().Str("booking_id", booking.ID).Str("method", booking.PaymentMethod).Int("attempt", attempt).Msg("checkout started")

	return res, nil
}

// CapturePayPal captures an order the payer approved and applies the result right away,
// without waiting for the webhook.
func (s *serviceImpl) CapturePayPal(ctx context.Context, bookingID string) (res dto.PaymentStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.CapturePayPal")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.owned(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if booking.PaymentMethod != bookingModel.MethodPayPal || booking.PaymentReference == constant.Empty {
		return res, failure.Conflict("booking has no paypal order to capture") // nolint:wrapcheck
	}

	if !booking.Unpaid() {
		return dto.NewPaymentStatusResponse(booking), nil
	}

	order, err := s.paypal.CaptureOrder(ctx, booking.PaymentReference)
	if err != nil {
		return res, s.gatewayError(err, paypal.ErrNotConfigured, "failed to capture paypal order")
	}

	if order.Status != paypal.StatusCompleted {
		return res, failure.Conflict("paypal order is " + order.Status) // nolint:wrapcheck
	}

	next, err := s.reconcile(ctx, model.Event{
		Provider:  model.ProviderPayPal,
		EventID:   shared.BuildCacheKey(capturePrefix, order.CaptureID),
		BookingID: booking.ID,
		Reference: order.ID,
		Outcome:   model.OutcomeCompleted,
		CaptureID: order.CaptureID,
	})
	if err != nil {
		return res, err
	}

	return dto.NewPaymentStatusResponse(next), nil
}

// UploadReceipt stores a bank transfer receipt and puts the payment back under review.
func (s *serviceImpl) UploadReceipt(ctx context.Context, bookingID string, req dto.UploadReceiptRequest) (res dto.PaymentStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.UploadReceipt")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.owned(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if booking.PaymentMethod != bookingModel.MethodBankTransfer {
		return res, failure.BadRequestFromString("receipts are only accepted for bank transfers") // nolint:wrapcheck
	}

	if booking.Status != bookingModel.StatusPending || !booking.Unpaid() {
		return res, failure.Conflict(errNotAwaitingPayment) // nolint:wrapcheck
	}

	fileName := uuid.NewString() + filepath.Ext(req.Receipt.Filename)

	url, err := s.storage.UploadFile(ctx, path.Join(model.ReceiptDirectory, booking.ID), fileName, req.File, req.Receipt)
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to upload receipt")

		return res, fmt.Errorf("failed to upload receipt: %w", err)
	}

	next, err := s.apply(ctx, bookingModel.Transition{
		Current:       booking,
		PaymentStatus: bookingModel.PaymentPending,
		Fields:        map[string]any{bookingModel.FieldReceiptURL: url},
	})
	if err != nil {
		s.deleteObject(ctx, url)

		return res, err
	}

	if booking.HasReceipt() {
		s.deleteObject(ctx, booking.ReceiptURL)
	}

	s.publish(ctx, bookingDto.NewEvent(event.TypePaymentReceiptUploaded, next, constant.Empty))

	return dto.NewPaymentStatusResponse(next), nil
}

// VerifyReceipt records an admin review of a bank transfer receipt. A rejection removes the
// receipt so the client can upload a new one.
func (s *serviceImpl) VerifyReceipt(ctx context.Context, bookingID string, req dto.VerifyReceiptRequest) (res dto.PaymentStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.VerifyReceipt")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return res, err
	}

	if booking.PaymentMethod != bookingModel.MethodBankTransfer || !booking.HasReceipt() || !booking.Unpaid() {
		return res, failure.Conflict("booking has no receipt awaiting review") // nolint:wrapcheck
	}

	evt := model.Event{
		Provider:  model.ProviderBankTransfer,
		EventID:   uuid.NewString(),
		BookingID: booking.ID,
		Outcome:   model.OutcomeCompleted,
		Note:      req.Note,
	}

	if !*req.Approve {
		evt.Outcome = model.OutcomeFailed
	}

	next, err := s.reconcile(ctx, evt)
	if err != nil {
		return res, err
	}

	if evt.Outcome == model.OutcomeFailed {
		s.deleteObject(ctx, booking.ReceiptURL)
	}

	return dto.NewPaymentStatusResponse(next), nil
}

// Refund returns the money of a completed payment. Bank transfers are refunded by hand and only
// recorded here.
func (s *serviceImpl) Refund(ctx context.Context, bookingID string) (res dto.PaymentStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.Refund")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return res, err
	}

	if booking.PaymentStatus != bookingModel.PaymentCompleted {
		return res, failure.Conflict("only completed payments can be refunded") // nolint:wrapcheck
	}

	evt := model.Event{
		Provider:  booking.PaymentMethod,
		BookingID: booking.ID,
		Outcome:   model.OutcomeRefunded,
	}

	var refundID string

	switch booking.PaymentMethod {
	case bookingModel.MethodStripe:
		refundID, err = s.stripe.Refund(ctx, booking.PaymentReference, shared.BuildCacheKey(refundPrefix, booking.ID))
		if err != nil {
			return res, s.gatewayError(err, stripe.ErrNotConfigured, "failed to refund payment intent")
		}
	case bookingModel.MethodPayPal:
		if booking.CaptureID == constant.Empty {
			return res, failure.Conflict("paypal payment has no capture to refund") // nolint:wrapcheck
		}

		refundID, err = s.paypal.RefundCapture(ctx, booking.CaptureID)
		if err != nil {
			return res, s.gatewayError(err, paypal.ErrNotConfigured, "failed to refund paypal capture")
		}
	default:
		refundID = uuid.NewString()
		evt.Provider = model.ProviderAdmin
	}

	evt.EventID = shared.BuildCacheKey(refundPrefix, refundID)

	next, err := s.reconcile(ctx, evt)
	if err != nil {
		return res, err
	}

	log.Info().Str("booking_id", booking.ID).Str("refund_id", refundID).Msg("payment refunded")

	return dto.NewPaymentStatusResponse(next), nil
}

// Sync asks the provider for the current state of a payment and applies it. It recovers bookings
// whose webhook never arrived.
func (s *serviceImpl) Sync(ctx context.Context, bookingID string) (res dto.PaymentStatusResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.Sync")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.owned(ctx, bookingID)
	if err != nil {
		return res, err
	}

	if booking.PaymentReference == constant.Empty {
		return res, failure.BadRequestFromString("booking has no provider payment to sync") // nolint:wrapcheck
	}

	evt := model.Event{
		Provider:  booking.PaymentMethod,
		BookingID: booking.ID,
		Reference: booking.PaymentReference,
	}

	switch booking.PaymentMethod {
	case bookingModel.MethodStripe:
		intent, err := s.stripe.GetPaymentIntent(ctx, booking.PaymentReference)
		if err != nil {
			return res, s.gatewayError(err, stripe.ErrNotConfigured, "failed to get payment intent")
		}

		switch {
		case intent.Status == stripe.StatusSucceeded && intent.Refunded:
			evt.Outcome = model.OutcomeRefunded
		case intent.Status == stripe.StatusSucceeded:
			evt.Outcome = model.OutcomeCompleted
		case intent.Status == stripe.StatusCanceled:
			evt.Outcome = model.OutcomeFailed
		}
	case bookingModel.MethodPayPal:
		order, err := s.paypal.GetOrder(ctx, booking.PaymentReference)
		if err != nil {
			return res, s.gatewayError(err, paypal.ErrNotConfigured, "failed to get paypal order")
		}

		switch order.Status {
		case paypal.StatusCompleted:
			evt.Outcome = model.OutcomeCompleted
			evt.CaptureID = order.CaptureID
		case paypal.StatusVoided:
			evt.Outcome = model.OutcomeFailed
		}
	default:
		return res, failure.BadRequestFromString("bank transfers are reviewed through their receipt") // nolint:wrapcheck
	}

	if evt.Outcome == constant.Empty {
		return dto.NewPaymentStatusResponse(booking), nil
	}

	evt.EventID = shared.BuildCacheKey(syncPrefix, booking.PaymentReference, evt.Outcome)

	next, err := s.reconcile(ctx, evt)
	if err != nil {
		return res, err
	}

	return dto.NewPaymentStatusResponse(next), nil
}

func (s *serviceImpl) StripeWebhook(ctx context.Context, payload []byte, signature string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.StripeWebhook")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	notification, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			return failure.BadRequest(err) // nolint:wrapcheck
		}

		return fmt.Errorf("failed to parse stripe webhook: %w", err)
	}

	evt := model.Event{
		Provider:  model.ProviderStripe,
		EventID:   notification.ID,
		BookingID: notification.BookingID,
		Reference: notification.PaymentIntentID,
	}

	switch notification.Type {
	case stripe.EventPaymentSucceeded:
		evt.Outcome = model.OutcomeCompleted
	case stripe.EventPaymentFailed:
		evt.Outcome = model.OutcomeFailed
	case stripe.EventChargeRefunded:
		if !notification.FullyRefunded {
			log.Info().Str("event_id", notification.ID).Msg("ignoring partial stripe refund")

			return nil
		}

		evt.Outcome = model.OutcomeRefunded
	default:
		log.Debug().Str("type", notification.Type).Msg("ignoring stripe event")

		return nil
	}

	return s.Reconcile(ctx, evt)
}

func (s *serviceImpl) PayPalWebhook(ctx context.Context, request *http.Request) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.PayPalWebhook")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	notification, err := s.paypal.ParseWebhook(ctx, request)
	if err != nil {
		switch {
		case errors.Is(err, paypal.ErrInvalidSignature):
			return failure.BadRequest(err) // nolint:wrapcheck
		case errors.Is(err, paypal.ErrNotConfigured):
			return failure.UnprocessableEntity(err.Error()) // nolint:wrapcheck
		}

		return fmt.Errorf("failed to parse paypal webhook: %w", err)
	}

	evt := model.Event{
		Provider:  model.ProviderPayPal,
		EventID:   notification.ID,
		BookingID: notification.BookingID,
		Reference: notification.OrderID,
		CaptureID: notification.CaptureID,
	}

	switch notification.Type {
	case paypal.EventCaptureCompleted:
		evt.Outcome = model.OutcomeCompleted
	case paypal.EventCaptureDenied, paypal.EventCaptureDeclined:
		evt.Outcome = model.OutcomeFailed
	case paypal.EventCaptureRefunded:
		evt.Outcome = model.OutcomeRefunded
	default:
		log.Debug().Str("type", notification.Type).Msg("ignoring paypal event")

		return nil
	}

	return s.Reconcile(ctx, evt)
}

// Reconcile applies a provider outcome to its booking at most once per event id. Events for
// bookings this service does not know are logged and dropped so the provider stops retrying.
func (s *serviceImpl) Reconcile(ctx context.Context, evt model.Event) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.Reconcile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	_, err = s.reconcile(ctx, evt)
	if errors.Is(err, model.ErrUnknownBooking) {
		log.Warn().Str("provider", evt.Provider).Str("event_id", evt.EventID).Str("reference", evt.Reference).Msg("payment event for unknown booking")

		return nil
	}

	return err
}

func (s *serviceImpl) reconcile(ctx context.Context, evt model.Event) (bookingModel.Booking, error) {
	for attempt := 1; attempt <= model.MaxReconcileAttempts; attempt++ {
		booking, err := s.find(ctx, evt)
		if err != nil {
			return booking, err
		}

		transition, err := model.Plan(booking, evt, timezone.Now())
		if err != nil {
			return booking, failure.BadRequest(err) // nolint:wrapcheck
		}

		next, err := transition.Next()
		if err != nil {
			log.Error().Err(err).Str("booking_id", booking.ID).Str("outcome", evt.Outcome).Msg("payment outcome does not fit booking")

			return booking, failure.Conflict(err.Error()) // nolint:wrapcheck
		}

		err = s.bookingRepo.ApplyTransition(ctx, transition, timezone.Now(), s.actor(ctx))

		switch {
		case err == nil:
			if model.NeedsRefund(booking, evt) {
				log.Warn().Str("booking_id", booking.ID).Str("provider", evt.Provider).Msg("payment completed on a cancelled booking, refund required")
			}

			s.announce(ctx, booking, next, transition, evt)

			return next, nil
		case errors.Is(err, bookingModel.ErrDuplicateEvent):
			log.Info().Str("provider", evt.Provider).Str("event_id", evt.EventID).Msg("payment event already applied")

			return booking, nil
		case errors.Is(err, bookingModel.ErrStaleBooking):
			log.Warn().Str("booking_id", booking.ID).Int("attempt", attempt).Msg("booking changed while reconciling, retrying")
		default:
			log.Error().Err(err).Str("booking_id", booking.ID).Msg("failed to apply payment event")

			return booking, fmt.Errorf("failed to apply payment event: %w", err)
		}
	}

	return bookingModel.Booking{}, failure.Conflict(errReconcileConflict) // nolint:wrapcheck
}

func (s *serviceImpl) find(ctx context.Context, evt model.Event) (bookingModel.Booking, error) {
	var filter gDto.FilterGroup

	switch {
	case evt.BookingID != constant.Empty:
		filter = shared.FilterByID(evt.BookingID, bookingModel.FieldID, bookingModel.TableName)
	case evt.Reference != constant.Empty:
		filter = shared.FilterBy(bookingModel.FieldPaymentReference, evt.Reference, bookingModel.TableName)
	case evt.CaptureID != constant.Empty:
		filter = shared.FilterBy(bookingModel.FieldCaptureID, evt.CaptureID, bookingModel.TableName)
	default:
		return bookingModel.Booking{}, model.ErrUnknownBooking
	}

	booking, err := s.bookingRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, model.ErrUnknownBooking
	}

	return booking, nil
}

func (s *serviceImpl) load(ctx context.Context, filter gDto.FilterGroup) (bookingModel.Booking, error) {
	booking, err := s.bookingRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound(bookingModel.EntityName + " not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) owned(ctx context.Context, bookingID string) (bookingModel.Booking, error) {
	booking, err := s.load(ctx, shared.FilterByID(bookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		return booking, err
	}

	if booking.UserID != shared.UserID(ctx) && !shared.IsAdmin(ctx) {
		return bookingModel.Booking{}, failure.NotFound(bookingModel.EntityName + " not found") // nolint:wrapcheck
	}

	return booking, nil
}

// apply writes a transition that carries no provider event.
func (s *serviceImpl) apply(ctx context.Context, transition bookingModel.Transition) (bookingModel.Booking, error) {
	next, err := transition.Next()
	if err != nil {
		return next, failure.Conflict(err.Error()) // nolint:wrapcheck
	}

	if err = s.bookingRepo.ApplyTransition(ctx, transition, timezone.Now(), s.actor(ctx)); err != nil {
		if errors.Is(err, bookingModel.ErrStaleBooking) {
			return next, failure.Conflict("booking was modified concurrently, reload and retry") // nolint:wrapcheck
		}

		log.Error().Err(err).Str("booking_id", next.ID).Msg("failed to update booking")

		return next, fmt.Errorf("failed to update booking: %w", err)
	}

	s.invalidate(ctx, next.ID, transition.ReleaseSlot)

	return next, nil
}

// announce publishes what a reconciled event changed.
func (s *serviceImpl) announce(ctx context.Context, before, after bookingModel.Booking, transition bookingModel.Transition, evt model.Event) {
	s.invalidate(ctx, after.ID, transition.ReleaseSlot)

	if before.PaymentStatus == after.PaymentStatus && before.Status == after.Status {
		return
	}

	events := []event.BookingEvent{bookingDto.NewEvent(outcomeEvents[evt.Outcome], after, evt.Note)}

	if before.Status != after.Status {
		switch after.Status {
		case bookingModel.StatusConfirmed:
			events = append(events, bookingDto.NewEvent(event.TypeBookingConfirmed, after, constant.Empty))
		case bookingModel.StatusCancelled:
			events = append(events, bookingDto.NewEvent(event.TypeBookingCancelled, after, "payment "+evt.Outcome))
		}
	}

	s.publish(ctx, events...)
}

func (s *serviceImpl) emailOf(ctx context.Context, userID string) string {
	user, err := s.userRepo.Get(ctx, shared.FilterByID(userID, userModel.FieldID, userModel.TableName), userModel.FieldEmail)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to get receipt email")

		return constant.Empty
	}

	return user.Email
}

func (s *serviceImpl) gatewayError(err, notConfigured error, msg string) error {
	if errors.Is(err, notConfigured) {
		return failure.UnprocessableEntity(err.Error()) // nolint:wrapcheck
	}

	log.Error().Err(err).Msg(msg)

	return fmt.Errorf("%s: %w", msg, err)
}

func (s *serviceImpl) deleteObject(ctx context.Context, url string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.storage.DeleteObject(c, s.storage.ObjectKeyFromURL(url)); err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to delete receipt")
		}
	}()
}

func (s *serviceImpl) actor(ctx context.Context) string {
	if user := shared.UserID(ctx); user != constant.Empty {
		return user
	}

	return constant.ContextSystem
}

func (s *serviceImpl) publish(ctx context.Context, events ...event.BookingEvent) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.publisher.Publish(c, events...); err != nil {
			log.Error().Err(err).Int("count", len(events)).Msg("failed to publish payment events")
		}
	}()
}

func (s *serviceImpl) invalidate(ctx context.Context, bookingID string, slotsChanged bool) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(bookingModel.CacheGet, bookingID)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		if err := s.cache.Delete(c, bookingModel.CacheStats); err != nil {
			log.Error().Err(err).Msg("failed to delete booking stats from cache")
		}

		shared.InvalidateCaches(c, s.cache, bookingModel.CacheGetAll)

		if slotsChanged {
			shared.InvalidateCaches(c, s.cache, timeslotModel.CacheAvailable)
		}
	}()
}
