package service

import (
	"context"
	"fmt"
	"tahaworld/config"
	"tahaworld/infras/otel"
	consultationModel "tahaworld/internal/domains/consultation/model"
	consultationRepo "tahaworld/internal/domains/consultation/repository"
	"tahaworld/internal/domains/timeslot/model"
	"tahaworld/internal/domains/timeslot/model/dto"
	"tahaworld/internal/domains/timeslot/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/timezone"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetAllTimeSlot = "timeslot:gets"
	cacheCountTimeSlot  = "timeslot:count"

	availableCacheTTL = 30
)

type TimeSlot interface {
	Create(ctx context.Context, req dto.CreateTimeSlotRequest) (dto.TimeSlotResponse, error)
	Generate(ctx context.Context, req dto.GenerateTimeSlotsRequest) (dto.GenerateTimeSlotsResponse, error)
	Get(ctx context.Context, id string) (dto.TimeSlotResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.TimeSlotResponse], error)
	GetAvailable(ctx context.Context, req gDto.QueryParams, consultationID string, from, to time.Time) (gDto.Page[dto.TimeSlotResponse], error)
	Update(ctx context.Context, req dto.UpdateTimeSlotRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo             repository.TimeSlot
	consultationRepo consultationRepo.Consultation
	cfg              *config.Config
	cache            cache.RedisCache
	otel             otel.Otel
}

func New(repo repository.TimeSlot, consultationRepo consultationRepo.Consultation, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) TimeSlot {
	return &serviceImpl{
		repo:             repo,
		consultationRepo: consultationRepo,
		cfg:              cfg,
		cache:            cache,
		otel:             otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateTimeSlotRequest) (res dto.TimeSlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".timeslot.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !req.StartTime.After(timezone.Now()) {
		return res, failure.BadRequestFromString("start_time must be in the future") // nolint:wrapcheck
	}

	consultation, err := s.consultation(ctx, req.ConsultationID)
	if err != nil {
		return res, err
	}

	interval := model.Interval{
		Start: req.StartTime,
		End:   req.StartTime.Add(time.Duration(consultation.DurationMinutes) * time.Minute),
	}

	if err = s.ensureFree(ctx, consultation.ID, interval, constant.Empty); err != nil {
		return res, err
	}

	slot := dto.NewTimeSlot(consultation.ID, interval, shared.UserID(ctx))

	if err = s.repo.Insert(ctx, slot); err != nil {
		if shared.IsUniqueViolation(err) {
			return res, failure.Conflict("a slot already starts at this time") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create time slot")

		return res, fmt.Errorf("failed to create time slot: %w", err)
	}

	s.invalidate(ctx)

	return dto.NewTimeSlotResponse(slot), nil
}

// Generate creates every slot of the window that does not collide with an existing one.
func (s *serviceImpl) Generate(ctx context.Context, req dto.GenerateTimeSlotsRequest) (res dto.GenerateTimeSlotsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".timeslot.Generate")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	window, err := req.ToWindow()
	if err != nil {
		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	consultation, err := s.consultation(ctx, req.ConsultationID)
	if err != nil {
		return res, err
	}

	duration := time.Duration(consultation.DurationMinutes) * time.Minute

	planned, err := model.Plan(window, duration, timezone.Now())
	if err != nil {
		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	if len(planned) == 0 {
		return res, nil
	}

	existing, err := s.repo.GetAll(ctx, gDto.QueryParams{}, repository.WindowFilter(consultation.ID, planned[0].Start.Add(-duration), planned[len(planned)-1].End))
	if err != nil {
		log.Error().Err(err).Msg("failed to load existing time slots")

		return res, fmt.Errorf("failed to load existing time slots: %w", err)
	}

	user := shared.UserID(ctx)
	slots := make([]model.TimeSlot, 0, len(planned))

	for _, interval := range planned {
		if collides(existing, interval) {
			res.Skipped++

			continue
		}

		slots = append(slots, dto.NewTimeSlot(consultation.ID, interval, user))
	}

	if len(slots) == 0 {
		return res, nil
	}

	if err = s.repo.InsertBulk(ctx, slots); err != nil {
		if shared.IsUniqueViolation(err) {
			return res, failure.Conflict("slots changed while generating, try again") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to generate time slots")

		return res, fmt.Errorf("failed to generate time slots: %w", err)
	}

	res.Created = len(slots)

	log.Info().Str("consultation_id", consultation.ID).Int("created", res.Created).Int("skipped", res.Skipped).Msg("time slots generated")

	s.invalidate(ctx)

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.TimeSlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".timeslot.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	slot, err := s.get(ctx, id)
	if err != nil {
		return res, err
	}

	return dto.NewTimeSlotResponse(slot), nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.TimeSlotResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".timeslot.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.list(ctx, cacheGetAllTimeSlot, s.cfg.Cache.TTL, req, filter)
}

// GetAvailable lists open slots that still respect the minimum booking lead time.
func (s *serviceImpl) GetAvailable(ctx context.Context, req gDto.QueryParams, consultationID string, from, to time.Time) (res gDto.Page[dto.TimeSlotResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".timeslot.GetAvailable")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	earliest := timezone.Now().Add(time.Duration(s.cfg.Booking.MinLeadMinutes) * time.Minute).Truncate(time.Minute)
	if from.Before(earliest) {
		from = earliest
	}

	filter := repository.WindowFilter(consultationID, from, to)
	filter.Add(gDto.Filter{Field: model.FieldIsAvailable, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName})

	if req.SortBy == constant.DefaultValueSortBy {
		req.SortBy = model.FieldStartTime
		req.SortDir = gDto.SortDirAsc
	}

	return s.list(ctx, model.CacheAvailable, availableCacheTTL, req, filter)
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateTimeSlotRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".timeslot.Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !req.StartTime.After(timezone.Now()) {
		return failure.BadRequestFromString("start_time must be in the future") // nolint:wrapcheck
	}

	slot, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if !slot.IsAvailable {
		return failure.Conflict("a booked slot cannot be moved") // nolint:wrapcheck
	}

	interval := model.Interval{Start: req.StartTime, End: req.StartTime.Add(slot.EndTime.Sub(slot.StartTime))}

	if err = s.ensureFree(ctx, slot.ConsultationID, interval, slot.ID); err != nil {
		return err
	}

	fields := shared.TransformFields(struct{}{}, shared.UserID(ctx))
	fields[model.FieldStartTime] = interval.Start
	fields[model.FieldEndTime] = interval.End

	filter := shared.FilterByID(id, model.FieldID, model.TableName)
	filter.Add(gDto.Filter{Field: model.FieldIsAvailable, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName})

	affected, err := s.repo.UpdateCount(ctx, fields, filter)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return failure.Conflict("a slot already starts at this time") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to update time slot")

		return fmt.Errorf("failed to update time slot: %w", err)
	}

	if affected == 0 {
		return failure.Conflict("the slot was booked meanwhile") // nolint:wrapcheck
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".timeslot.Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	slot, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if !slot.IsAvailable {
		return failure.Conflict("a booked slot cannot be deleted") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)
	filter.Add(gDto.Filter{Field: model.FieldIsAvailable, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName})

	if err = s.repo.Delete(ctx, filter); err != nil {
		if shared.IsForeignKeyViolation(err) {
			return failure.Conflict("the slot has booking history and cannot be deleted") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to delete time slot")

		return fmt.Errorf("failed to delete time slot: %w", err)
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) list(ctx context.Context, prefix string, ttl int, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.TimeSlotResponse], err error) {
	cacheKey := shared.BuildCacheKeyWithQuery(prefix, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for time slots")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count time slots")

		return res, fmt.Errorf("failed to count time slots: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get time slots")

		return res, fmt.Errorf("failed to get time slots: %w", err)
	}

	res = gDto.NewPage(models, total, req, dto.NewTimeSlotResponse)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, ttl); err != nil {
			log.Error().Err(err).Msg("failed to save time slots to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) get(ctx context.Context, id string) (model.TimeSlot, error) {
	slot, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get time slot")

		return slot, fmt.Errorf("failed to get time slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return slot, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return slot, nil
}

func (s *serviceImpl) consultation(ctx context.Context, id string) (consultationModel.Consultation, error) {
	consultation, err := s.consultationRepo.Get(ctx, shared.FilterByID(id, consultationModel.FieldID, consultationModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get consultation")

		return consultation, fmt.Errorf("failed to get consultation: %w", err)
	}

	if consultation.ID == constant.Empty {
		return consultation, failure.NotFound(consultationModel.EntityName + " not found") // nolint:wrapcheck
	}

	return consultation, nil
}

func (s *serviceImpl) ensureFree(ctx context.Context, consultationID string, interval model.Interval, excludeID string) error {
	overlaps, err := s.repo.Exist(ctx, repository.OverlapFilter(consultationID, interval.Start, interval.End, excludeID))
	if err != nil {
		log.Error().Err(err).Msg("failed to check overlapping time slots")

		return fmt.Errorf("failed to check overlapping time slots: %w", err)
	}

	if overlaps {
		return failure.Conflict("the slot overlaps an existing slot") // nolint:wrapcheck
	}

	return nil
}

func (s *serviceImpl) invalidate(ctx context.Context) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, model.CacheAvailable)
		shared.InvalidateCaches(c, s.cache, cacheGetAllTimeSlot)
		shared.InvalidateCaches(c, s.cache, cacheCountTimeSlot)
	}()
}

func collides(existing []model.TimeSlot, interval model.Interval) bool {
	for _, slot := range existing {
		if slot.Overlaps(interval.Start, interval.End) {
			return true
		}
	}

	return false
}
