package service

import (
	"context"
	"fmt"
	"tahaworld/config"
	"tahaworld/infras/otel"
	bookingModel "tahaworld/internal/domains/booking/model"
	bookingRepo "tahaworld/internal/domains/booking/repository"
	"tahaworld/internal/domains/feedback/model"
	"tahaworld/internal/domains/feedback/model/dto"
	"tahaworld/internal/domains/feedback/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"

	"github.com/rs/zerolog/log"
)

const errDuplicateFeedback = "feedback already submitted for this booking"

type Feedback interface {
	Create(ctx context.Context, req dto.CreateFeedbackRequest) (dto.FeedbackResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.FeedbackResponse], error)
	Summary(ctx context.Context, consultationID string) (dto.SummaryResponse, error)
	Update(ctx context.Context, req dto.UpdateFeedbackRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo        repository.Feedback
	bookingRepo bookingRepo.Booking
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(repo repository.Feedback, bookingRepo bookingRepo.Booking, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Feedback {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

// Create accepts one review per completed booking, from the client who attended it.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateFeedbackRequest) (res dto.FeedbackResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".feedback.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user := shared.UserID(ctx)

	booking, err := s.bookingRepo.Get(ctx, shared.FilterByID(req.BookingID, bookingModel.FieldID, bookingModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty || booking.UserID != user {
		return res, failure.NotFound(bookingModel.EntityName + " not found") // nolint:wrapcheck
	}

	if booking.Status != bookingModel.StatusCompleted {
		return res, failure.Conflict("feedback is only accepted for completed bookings") // nolint:wrapcheck
	}

	exist, err := s.repo.Exist(ctx, shared.FilterBy(model.FieldBookingID, booking.ID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check existing feedback")

		return res, fmt.Errorf("failed to check existing feedback: %w", err)
	}

	if exist {
		return res, failure.Conflict(errDuplicateFeedback) // nolint:wrapcheck
	}

	feedback := req.ToModel(user, booking.ConsultationID)

	if err = s.repo.Insert(ctx, feedback); err != nil {
		if shared.IsUniqueViolation(err) {
			return res, failure.Conflict(errDuplicateFeedback) // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create feedback")

		return res, fmt.Errorf("failed to create feedback: %w", err)
	}

	s.invalidate(ctx, feedback.ConsultationID)

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.FeedbackResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".feedback.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(model.CacheGetAll, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for feedback")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count feedback")

		return res, fmt.Errorf("failed to count feedback: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get feedback")

		return res, fmt.Errorf("failed to get feedback: %w", err)
	}

	res = gDto.NewPage(models, total, req, dto.NewFeedbackResponse)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save feedback to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Summary(ctx context.Context, consultationID string) (res dto.SummaryResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".feedback.Summary")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(model.CacheSummary, consultationID)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	summary, err := s.repo.Summary(ctx, consultationID)
	if err != nil {
		log.Error().Err(err).Msg("failed to summarise feedback")

		return res, fmt.Errorf("failed to summarise feedback: %w", err)
	}

	res.FromModel(consultationID, summary)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save feedback summary to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateFeedbackRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".feedback.Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req == (dto.UpdateFeedbackRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	user := shared.UserID(ctx)
	if feedback.UserID != user {
		return failure.Forbidden("only the author can edit feedback") // nolint:wrapcheck
	}

	if err = s.repo.Update(ctx, shared.TransformFields(req, user), shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update feedback")

		return fmt.Errorf("failed to update feedback: %w", err)
	}

	s.invalidate(ctx, feedback.ConsultationID)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".feedback.Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	feedback, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if feedback.UserID != shared.UserID(ctx) && !shared.IsAdmin(ctx) {
		return failure.Forbidden("only the author or an admin can delete feedback") // nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete feedback")

		return fmt.Errorf("failed to delete feedback: %w", err)
	}

	s.invalidate(ctx, feedback.ConsultationID)

	return nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Feedback, error) {
	feedback, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get feedback")

		return feedback, fmt.Errorf("failed to get feedback: %w", err)
	}

	if feedback.ID == constant.Empty {
		return feedback, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return feedback, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, consultationID string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(model.CacheSummary, consultationID)); err != nil {
			log.Error().Err(err).Msg("failed to delete feedback summary from cache")
		}

		shared.InvalidateCaches(c, s.cache, model.CacheGetAll)
	}()
}
