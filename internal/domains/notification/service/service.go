package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tahaworld/config"
	"tahaworld/infras/otel"
	consultationModel "tahaworld/internal/domains/consultation/model"
	consultationRepo "tahaworld/internal/domains/consultation/repository"
	"tahaworld/internal/domains/notification/model"
	"tahaworld/internal/domains/notification/model/dto"
	"tahaworld/internal/domains/notification/repository"
	userModel "tahaworld/internal/domains/user/model"
	userRepo "tahaworld/internal/domains/user/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/event"
	"tahaworld/shared/failure"
	gModel "tahaworld/shared/model"
	"tahaworld/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Notification interface {
	HandleEvent(ctx context.Context, evt event.BookingEvent) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.NotificationResponse], error)
	UnreadCount(ctx context.Context) (dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (dto.MarkAllReadResponse, error)
}

type serviceImpl struct {
	repo             repository.Notification
	userRepo         userRepo.User
	consultationRepo consultationRepo.Consultation
	cfg              *config.Config
	cache            cache.RedisCache
	otel             otel.Otel
}

func New(
	repo repository.Notification,
	userRepo userRepo.User,
	consultationRepo consultationRepo.Consultation,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Notification {
	return &serviceImpl{
		repo:             repo,
		userRepo:         userRepo,
		consultationRepo: consultationRepo,
		cfg:              cfg,
		cache:            cache,
		otel:             otel,
	}
}

// HandleEvent turns a booking event into notifications for the booking owner, in the owner's
// preferred language. Uploaded receipts also notify every admin. Redelivered events are ignored.
func (s *serviceImpl) HandleEvent(ctx context.Context, evt event.BookingEvent) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".notification.HandleEvent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if !model.Supports(evt.Type) {
		log.Debug().Str("type", evt.Type).Msg("no notification for event type")

		return nil
	}

	recipients, err := s.recipients(ctx, evt)
	if err != nil {
		return err
	}

	if len(recipients) == 0 {
		log.Warn().Str("eventID", evt.ID).Str("userID", evt.UserID).Msg("event has no known recipient")

		return nil
	}

	consultation, err := s.consultationRepo.Get(ctx, shared.FilterByID(evt.ConsultationID, consultationModel.FieldID, consultationModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get consultation for notification")

		return fmt.Errorf("failed to get consultation for notification: %w", err)
	}

	for _, recipient := range recipients {
		lang := recipient.PreferredLanguage
		if lang != constant.LanguageEnglish {
			lang = constant.LanguageArabic
		}

		title, message := model.Render(evt, lang, consultation.Title(lang), timezone.GetLocation())

		inserted, err := s.repo.InsertIdempotent(ctx, model.Notification{
			ID:        uuid.NewString(),
			UserID:    recipient.ID,
			BookingID: evt.BookingID,
			EventID:   evt.ID,
			Type:      evt.Type,
			Language:  lang,
			Title:     title,
			Message:   message,
			Metadata:  gModel.NewMetadata(timezone.Now(), constant.ContextSystem),
		})
		if err != nil {
			log.Error().Err(err).Str("eventID", evt.ID).Msg("failed to store notification")

			return fmt.Errorf("failed to store notification: %w", err)
		}

		if !inserted {
			log.Info().Str("eventID", evt.ID).Str("userID", recipient.ID).Msg("notification already delivered")

			continue
		}

		s.invalidate(ctx, recipient.ID)
	}

	return nil
}

func (s *serviceImpl) recipients(ctx context.Context, evt event.BookingEvent) ([]userModel.User, error) {
	var recipients []userModel.User

	owner, err := s.userRepo.Get(ctx, shared.FilterByID(evt.UserID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get notification recipient")

		return nil, fmt.Errorf("failed to get notification recipient: %w", err)
	}

	if owner.ID != constant.Empty {
		recipients = append(recipients, owner)
	}

	if evt.Type != event.TypePaymentReceiptUploaded {
		return recipients, nil
	}

	var filter gDto.FilterGroup
	filter.Add(gDto.Filter{
		Field:    userModel.FieldLevel,
		Value:    []string{constant.RoleAdmin, constant.RoleSuperAdmin},
		Operator: gDto.FilterOperatorIn,
		Table:    userModel.TableName,
	})

	admins, err := s.userRepo.GetAll(ctx, gDto.QueryParams{}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get admins to notify")

		return nil, fmt.Errorf("failed to get admins to notify: %w", err)
	}

	for _, admin := range admins {
		if admin.ID != owner.ID {
			recipients = append(recipients, admin)
		}
	}

	return recipients, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.NotificationResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".notification.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter.AddEq(model.FieldUserID, shared.UserID(ctx), model.TableName)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count notifications")

		return res, fmt.Errorf("failed to count notifications: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get notifications")

		return res, fmt.Errorf("failed to get notifications: %w", err)
	}

	return gDto.NewPage(models, total, req, dto.NewNotificationResponse), nil
}

func (s *serviceImpl) UnreadCount(ctx context.Context) (res dto.UnreadCountResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".notification.UnreadCount")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user := shared.UserID(ctx)
	cacheKey := shared.BuildCacheKey(model.CacheUnread, user)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	filter := shared.FilterBy(model.FieldUserID, user, model.TableName)
	filter.Add(gDto.Filter{Field: model.FieldIsRead, Value: false, Operator: gDto.FilterOperatorEq, Table: model.TableName})

	res.Unread, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count unread notifications")

		return res, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save unread count to cache")
		}
	}()

	return res, nil
}

// MarkRead flags one of the caller's notifications as read. Notifications of other users look missing.
func (s *serviceImpl) MarkRead(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".notification.MarkRead")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user := shared.UserID(ctx)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)
	filter.AddEq(model.FieldUserID, user, model.TableName)

	notification, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get notification")

		return fmt.Errorf("failed to get notification: %w", err)
	}

	if notification.ID == constant.Empty {
		return failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	if notification.IsRead {
		return nil
	}

	if _, err = s.repo.UpdateCount(ctx, readFields(user), filter); err != nil {
		log.Error().Err(err).Msg("failed to mark notification as read")

		return fmt.Errorf("failed to mark notification as read: %w", err)
	}

	s.invalidate(ctx, user)

	return nil
}

func (s *serviceImpl) MarkAllRead(ctx context.Context) (res dto.MarkAllReadResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".notification.MarkAllRead")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	user := shared.UserID(ctx)

	filter := shared.FilterBy(model.FieldUserID, user, model.TableName)
	filter.Add(gDto.Filter{Field: model.FieldIsRead, Value: false, Operator: gDto.FilterOperatorEq, Table: model.TableName})

	res.Updated, err = s.repo.UpdateCount(ctx, readFields(user), filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to mark notifications as read")

		return res, fmt.Errorf("failed to mark notifications as read: %w", err)
	}

	if res.Updated > 0 {
		s.invalidate(ctx, user)
	}

	return res, nil
}

func readFields(user string) map[string]any {
	now := timezone.Now()

	return map[string]any{
		model.FieldIsRead:        true,
		model.FieldReadAt:        now,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: user,
	}
}

func (s *serviceImpl) invalidate(ctx context.Context, user string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(model.CacheUnread, user)); err != nil {
			log.Error().Err(err).Msg("failed to delete unread count from cache")
		}
	}()
}
