package service

import (
	"context"
	"fmt"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/consultation/model"
	"tahaworld/internal/domains/consultation/model/dto"
	"tahaworld/internal/domains/consultation/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/money"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetConsultation    = "consultation:get"
	cacheGetAllConsultation = "consultation:gets"
	cacheCountConsultation  = "consultation:count"
)

type Consultation interface {
	Create(ctx context.Context, req dto.CreateConsultationRequest) (dto.ConsultationResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.ConsultationResponse], error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.ConsultationResponse, error)
	Update(ctx context.Context, req dto.UpdateConsultationRequest, id string) error
	Delete(ctx context.Context, id string) (softDeleted bool, err error)
}

type serviceImpl struct {
	repo  repository.Consultation
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Consultation, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Consultation {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateConsultationRequest) (res dto.ConsultationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".consultation.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = chargeable(req.PriceAmount, req.Currency); err != nil {
		return res, err
	}

	consultation := req.ToModel(shared.UserID(ctx))

	if err = s.repo.Insert(ctx, consultation); err != nil {
		log.Error().Err(err).Msg("failed to create consultation")

		return res, fmt.Errorf("failed to create consultation: %w", err)
	}

	s.invalidate(ctx, constant.Empty)

	return dto.NewConsultationResponse(consultation), nil
}

// GetAll lists consultations. Callers that are not admins only ever see active ones.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.ConsultationResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".consultation.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter = s.visibleTo(ctx, filter)
	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllConsultation, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for consultations")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		return res, err
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get consultations")

		return res, fmt.Errorf("failed to get consultations: %w", err)
	}

	res = gDto.NewPage(models, total, req, dto.NewConsultationResponse)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save consultations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".consultation.Count")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountConsultation, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count consultations")

		return res, fmt.Errorf("failed to count consultations: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save consultation count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ConsultationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".consultation.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetConsultation, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		consultation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get consultation")

			return res, fmt.Errorf("failed to get consultation: %w", err)
		}

		if consultation.ID == constant.Empty {
			return res, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
		}

		res.FromModel(consultation)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save consultation to cache")
			}
		}()
	}

	if !res.Active && !shared.IsAdmin(ctx) {
		return dto.ConsultationResponse{}, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateConsultationRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".consultation.Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req == (dto.UpdateConsultationRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	if err = s.checkUpdate(ctx, req, filter); err != nil {
		return err
	}

	if err = s.repo.Update(ctx, shared.TransformFields(req, shared.UserID(ctx)), filter); err != nil {
		log.Error().Err(err).Msg("failed to update consultation")

		return fmt.Errorf("failed to update consultation: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// Delete removes a consultation that was never booked. A consultation referenced by bookings is
// deactivated instead so the booking history keeps its offering.
func (s *serviceImpl) Delete(ctx context.Context, id string) (softDeleted bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".consultation.Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if consultation exists")

		return false, fmt.Errorf("failed to check if consultation exists: %w", err)
	}

	if !exist {
		return false, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	err = s.repo.Delete(ctx, filter)

	switch {
	case err == nil:
	case shared.IsForeignKeyViolation(err):
		inactive := false
		deactivate := dto.UpdateConsultationRequest{Active: &inactive}

		if err = s.repo.Update(ctx, shared.TransformFields(deactivate, shared.UserID(ctx)), filter); err != nil {
			log.Error().Err(err).Msg("failed to deactivate consultation")

			return false, fmt.Errorf("failed to deactivate consultation: %w", err)
		}

		softDeleted = true
	default:
		log.Error().Err(err).Msg("failed to delete consultation")

		return false, fmt.Errorf("failed to delete consultation: %w", err)
	}

	s.invalidate(ctx, id)

	return softDeleted, nil
}

// checkUpdate confirms the consultation exists. A price or currency change is checked against the
// stored counterpart so the resulting pair stays chargeable.
func (s *serviceImpl) checkUpdate(ctx context.Context, req dto.UpdateConsultationRequest, filter gDto.FilterGroup) error {
	if req.PriceAmount == nil && req.Currency == nil {
		exist, err := s.repo.Exist(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("failed to check if consultation exists")

			return fmt.Errorf("failed to check if consultation exists: %w", err)
		}

		if !exist {
			return failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
		}

		return nil
	}

	stored, err := s.repo.Get(ctx, filter, model.FieldID, model.FieldPriceAmount, model.FieldCurrency)
	if err != nil {
		log.Error().Err(err).Msg("failed to get consultation")

		return fmt.Errorf("failed to get consultation: %w", err)
	}

	if stored.ID == constant.Empty {
		return failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	amount, currency := stored.PriceAmount, stored.Currency

	if req.PriceAmount != nil {
		amount = *req.PriceAmount
	}

	if req.Currency != nil {
		currency = *req.Currency
	}

	return chargeable(amount, currency)
}

func chargeable(amount int64, currency string) error {
	if money.Chargeable(amount, currency) {
		return nil
	}

	return failure.BadRequestFromString(fmt.Sprintf("price_amount must be a multiple of %d for %s", money.ChargeStep(currency), currency)) // nolint:wrapcheck
}

func (s *serviceImpl) visibleTo(ctx context.Context, filter gDto.FilterGroup) gDto.FilterGroup {
	if shared.IsAdmin(ctx) {
		return filter
	}

	return gDto.FilterGroup{
		Filters: []any{
			filter,
			gDto.Filter{Field: model.FieldActive, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetConsultation, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete consultation from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllConsultation)
		shared.InvalidateCaches(c, s.cache, cacheCountConsultation)
	}()
}
