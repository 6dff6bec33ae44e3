package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/booking/model"
	"tahaworld/internal/domains/booking/model/dto"
	"tahaworld/internal/domains/booking/repository"
	consultationModel "tahaworld/internal/domains/consultation/model"
	consultationRepo "tahaworld/internal/domains/consultation/repository"
	timeslotModel "tahaworld/internal/domains/timeslot/model"
	timeslotRepo "tahaworld/internal/domains/timeslot/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/event"
	"tahaworld/shared/failure"
	"tahaworld/shared/lock"
	"tahaworld/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	slotLockPrefix = "slot"

	errSlotUnavailable = "slot unavailable"
	errSlotBusy        = "slot is being booked"
	errStaleBooking    = "booking was modified concurrently, reload and retry"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.BookingResponse], error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) error
	Confirm(ctx context.Context, id string, req dto.ConfirmBookingRequest) error
	Complete(ctx context.Context, id string) error
	Reschedule(ctx context.Context, id string, req dto.RescheduleBookingRequest) error
	Stats(ctx context.Context) (dto.StatsResponse, error)
	ExpirePending(ctx context.Context) (int, error)
}

type serviceImpl struct {
	repo             repository.Booking
	consultationRepo consultationRepo.Consultation
	timeslotRepo     timeslotRepo.TimeSlot
	locker           lock.Locker
	publisher        event.Publisher
	cfg              *config.Config
	cache            cache.RedisCache
	otel             otel.Otel
}

func New(
	repo repository.Booking,
	consultationRepo consultationRepo.Consultation,
	timeslotRepo timeslotRepo.TimeSlot,
	locker lock.Locker,
	publisher event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:             repo,
		consultationRepo: consultationRepo,
		timeslotRepo:     timeslotRepo,
		locker:           locker,
		publisher:        publisher,
		cfg:              cfg,
		cache:            cache,
		otel:             otel,
	}
}

// Create places a pending hold on a slot. The slot is taken under a short redis lock and
// reserved in the same transaction that inserts the booking.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	consultation, err := s.consultationRepo.Get(ctx, shared.FilterByID(req.ConsultationID, consultationModel.FieldID, consultationModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get consultation")

		return res, fmt.Errorf("failed to get consultation: %w", err)
	}

	if consultation.ID == constant.Empty || !consultation.Active {
		return res, failure.BadRequestFromString("consultation is not available") // nolint:wrapcheck
	}

	slot, err := s.slotOf(ctx, req.TimeSlotID, consultation.ID)
	if err != nil {
		return res, err
	}

	release, err := s.lockSlot(ctx, slot.ID)
	if err != nil {
		return res, err
	}
	defer release()

	booking := req.ToModel(shared.UserID(ctx), consultation.PriceAmount, consultation.Currency)

	if err = s.repo.CreateReserved(ctx, booking, s.earliestStart()); err != nil {
		if errors.Is(err, model.ErrSlotUnavailable) {
			return res, failure.Conflict(errSlotUnavailable) // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	booking.SlotStart = slot.StartTime
	booking.SlotEnd = slot.EndTime
	booking.TitleAr = consultation.TitleAr
	booking.TitleEn = consultation.TitleEn

	log.Info().Str("booking_id", booking.ID).Str("time_slot_id", slot.ID).Msg("slot reserved")

	s.invalidate(ctx, constant.Empty, true)
	s.publish(ctx, dto.NewEvent(event.TypeBookingCreated, booking, constant.Empty))

	return dto.NewBookingResponse(booking), nil
}

// GetAll lists bookings. Callers that are not admins only see their own.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.BookingResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !shared.IsAdmin(ctx) {
		filter = gDto.FilterGroup{
			Filters: []any{
				filter,
				gDto.Filter{Field: model.FieldUserID, ArgName: "owner_id", Value: shared.UserID(ctx), Operator: gDto.FilterOperatorEq, Table: model.TableName},
			},
		}
	}

	cacheKey := shared.BuildCacheKeyWithQuery(model.CacheGetAll, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res = gDto.NewPage(models, total, req, dto.NewBookingResponse)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(model.CacheGet, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		booking, err := s.load(ctx, id)
		if err != nil {
			return res, err
		}

		res.FromModel(booking)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save booking to cache")
			}
		}()
	}

	if res.UserID != shared.UserID(ctx) && !shared.IsAdmin(ctx) {
		return dto.BookingResponse{}, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return res, nil
}

// Cancel frees the slot. Owners may cancel a pending booking, or a confirmed one before it starts.
// The payment status is left alone so a paid booking stays completed until it is refunded.
func (s *serviceImpl) Cancel(ctx context.Context, id string, req dto.CancelBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	if booking.Terminal() {
		return failure.Conflict("booking is already " + booking.Status) // nolint:wrapcheck
	}

	if !shared.IsAdmin(ctx) && booking.Status == model.StatusConfirmed && !booking.SlotStart.After(timezone.Now()) {
		return failure.Conflict("a confirmed booking can only be cancelled before it starts") // nolint:wrapcheck
	}

	next, err := s.apply(ctx, model.Transition{
		Current:     booking,
		Status:      model.StatusCancelled,
		Fields:      map[string]any{model.FieldCancelReason: req.Reason},
		ReleaseSlot: true,
	})
	if err != nil {
		return err
	}

	s.publish(ctx, dto.NewEvent(event.TypeBookingCancelled, next, req.Reason))

	return nil
}

// Confirm accepts a paid booking, or a bank transfer whose receipt is awaiting review.
func (s *serviceImpl) Confirm(ctx context.Context, id string, req dto.ConfirmBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Confirm")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	fields := map[string]any{}
	if req.MeetingLink != constant.Empty {
		fields[model.FieldMeetingLink] = req.MeetingLink
	}

	next, err := s.apply(ctx, model.Transition{Current: booking, Status: model.StatusConfirmed, Fields: fields})
	if err != nil {
		return err
	}

	s.publish(ctx, dto.NewEvent(event.TypeBookingConfirmed, next, constant.Empty))

	return nil
}

func (s *serviceImpl) Complete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Complete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if booking.Status != model.StatusConfirmed {
		return failure.Conflict("only confirmed bookings can be completed") // nolint:wrapcheck
	}

	if booking.PaymentStatus != model.PaymentCompleted {
		return failure.Conflict("payment must be verified before the booking is completed") // nolint:wrapcheck
	}

	next, err := s.apply(ctx, model.Transition{Current: booking, Status: model.StatusCompleted})
	if err != nil {
		return err
	}

	s.publish(ctx, dto.NewEvent(event.TypeBookingCompleted, next, constant.Empty))

	return nil
}

// Reschedule moves an active booking to another slot of the same consultation.
func (s *serviceImpl) Reschedule(ctx context.Context, id string, req dto.RescheduleBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Reschedule")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.owned(ctx, id)
	if err != nil {
		return err
	}

	if !booking.Active() {
		return failure.Conflict("only pending or confirmed bookings can be rescheduled") // nolint:wrapcheck
	}

	if booking.TimeSlotID == req.TimeSlotID {
		return failure.BadRequestFromString("booking already uses this slot") // nolint:wrapcheck
	}

	slot, err := s.slotOf(ctx, req.TimeSlotID, booking.ConsultationID)
	if err != nil {
		return err
	}

	release, err := s.lockSlot(ctx, slot.ID)
	if err != nil {
		return err
	}
	defer release()

	if err = s.repo.Reschedule(ctx, booking, slot.ID, s.earliestStart(), s.actor(ctx)); err != nil {
		switch {
		case errors.Is(err, model.ErrSlotUnavailable):
			return failure.Conflict(errSlotUnavailable) // nolint:wrapcheck
		case errors.Is(err, model.ErrStaleBooking):
			return failure.Conflict(errStaleBooking) // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to reschedule booking")

		return fmt.Errorf("failed to reschedule booking: %w", err)
	}

	booking.TimeSlotID = slot.ID
	booking.SlotStart = slot.StartTime
	booking.SlotEnd = slot.EndTime

	s.invalidate(ctx, booking.ID, true)
	s.publish(ctx, dto.NewEvent(event.TypeBookingRescheduled, booking, constant.Empty))

	return nil
}

func (s *serviceImpl) Stats(ctx context.Context) (res dto.StatsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Stats")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = s.cache.Get(ctx, model.CacheStats, &res); err == nil {
		log.Info().Str("cacheKey", model.CacheStats).Msg("cache hit for booking stats")

		return res, nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking stats")

		return res, fmt.Errorf("failed to get booking stats: %w", err)
	}

	res.FromModel(stats)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, model.CacheStats, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking stats to cache")
		}
	}()

	return res, nil
}

// ExpirePending cancels unpaid holds older than the hold window and returns how many it released.
func (s *serviceImpl) ExpirePending(ctx context.Context) (count int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ExpirePending")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cutoff := timezone.Now().Add(-time.Duration(s.cfg.Booking.HoldMinutes) * time.Minute)

	expired, err := s.repo.ExpirePending(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to expire pending bookings")

		return 0, fmt.Errorf("failed to expire pending bookings: %w", err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	events := make([]event.BookingEvent, len(expired))
	for i, booking := range expired {
		events[i] = dto.NewEvent(event.TypeBookingCancelled, booking, "hold expired")

		s.invalidate(ctx, booking.ID, false)
	}

	s.invalidate(ctx, constant.Empty, true)
	s.publish(ctx, events...)

	log.Info().Int("count", len(expired)).Time("cutoff", cutoff).Msg("expired pending bookings")

	return len(expired), nil
}

func (s *serviceImpl) apply(ctx context.Context, transition model.Transition) (model.Booking, error) {
	next, err := transition.Next()
	if err != nil {
		return next, failure.Conflict(err.Error()) // nolint:wrapcheck
	}

	if err = s.repo.ApplyTransition(ctx, transition, timezone.Now(), s.actor(ctx)); err != nil {
		if errors.Is(err, model.ErrStaleBooking) {
			return next, failure.Conflict(errStaleBooking) // nolint:wrapcheck
		}

		log.Error().Err(err).Str("booking_id", next.ID).Msg("failed to update booking")

		return next, fmt.Errorf("failed to update booking: %w", err)
	}

	s.invalidate(ctx, next.ID, transition.ReleaseSlot)

	return next, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return booking, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return booking, nil
}

// owned loads a booking the caller may act on. Other users' bookings look missing.
func (s *serviceImpl) owned(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return booking, err
	}

	if booking.UserID != shared.UserID(ctx) && !shared.IsAdmin(ctx) {
		return model.Booking{}, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return booking, nil
}

func (s *serviceImpl) slotOf(ctx context.Context, slotID, consultationID string) (timeslotModel.TimeSlot, error) {
	slot, err := s.timeslotRepo.Get(ctx, shared.FilterByID(slotID, timeslotModel.FieldID, timeslotModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get time slot")

		return slot, fmt.Errorf("failed to get time slot: %w", err)
	}

	if slot.ID == constant.Empty || slot.ConsultationID != consultationID {
		return slot, failure.BadRequestFromString("time slot does not belong to the consultation") // nolint:wrapcheck
	}

	if !slot.IsAvailable || !slot.StartTime.After(s.earliestStart()) {
		return slot, failure.Conflict(errSlotUnavailable) // nolint:wrapcheck
	}

	return slot, nil
}

// lockSlot serialises bookers of one slot. The returned func releases the lock.
func (s *serviceImpl) lockSlot(ctx context.Context, slotID string) (func(), error) {
	key := shared.BuildCacheKey(slotLockPrefix, slotID)

	token, acquired, err := s.locker.Acquire(ctx, key, time.Duration(s.cfg.Booking.LockTTLSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to lock slot: %w", err)
	}

	if !acquired {
		return nil, failure.Conflict(errSlotBusy) // nolint:wrapcheck
	}

	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release slot lock")
		}
	}, nil
}

func (s *serviceImpl) earliestStart() time.Time {
	return timezone.Now().Add(time.Duration(s.cfg.Booking.MinLeadMinutes) * time.Minute)
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
			log.Error().Err(err).Int("count", len(events)).Msg("failed to publish booking events")
		}
	}()
}

func (s *serviceImpl) invalidate(ctx context.Context, id string, slotsChanged bool) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(model.CacheGet, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete booking from cache")
			}
		}

		if err := s.cache.Delete(c, model.CacheStats); err != nil {
			log.Error().Err(err).Msg("failed to delete booking stats from cache")
		}

		shared.InvalidateCaches(c, s.cache, model.CacheGetAll)

		if slotsChanged {
			shared.InvalidateCaches(c, s.cache, timeslotModel.CacheAvailable)
		}
	}()
}
