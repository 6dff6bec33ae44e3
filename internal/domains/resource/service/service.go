package service

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/infras/s3"
	bookingModel "tahaworld/internal/domains/booking/model"
	bookingRepo "tahaworld/internal/domains/booking/repository"
	consultationModel "tahaworld/internal/domains/consultation/model"
	consultationRepo "tahaworld/internal/domains/consultation/repository"
	"tahaworld/internal/domains/resource/model"
	"tahaworld/internal/domains/resource/model/dto"
	"tahaworld/internal/domains/resource/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	visibilityAll    = "all"
	visibilityPublic = "public"
)

type Resource interface {
	Create(ctx context.Context, req dto.CreateResourceRequest) (dto.ResourceResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, consultationID string) (gDto.Page[dto.ResourceResponse], error)
	Get(ctx context.Context, id string) (dto.ResourceResponse, error)
	Update(ctx context.Context, req dto.UpdateResourceRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo             repository.Resource
	consultationRepo consultationRepo.Consultation
	bookingRepo      bookingRepo.Booking
	storage          s3.S3
	cfg              *config.Config
	cache            cache.RedisCache
	otel             otel.Otel
}

func New(
	repo repository.Resource,
	consultationRepo consultationRepo.Consultation,
	bookingRepo bookingRepo.Booking,
	storage s3.S3,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Resource {
	return &serviceImpl{
		repo:             repo,
		consultationRepo: consultationRepo,
		bookingRepo:      bookingRepo,
		storage:          storage,
		cfg:              cfg,
		cache:            cache,
		otel:             otel,
	}
}

// Create attaches a resource to a consultation. Files are uploaded first and removed again when
// the row cannot be written.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateResourceRequest) (res dto.ResourceResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".resource.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	switch {
	case req.Type == model.TypeFile && req.File == nil:
		return res, failure.BadRequestFromString("file is required for file resources") // nolint:wrapcheck
	case req.Type != model.TypeFile && req.URL == constant.Empty:
		return res, failure.BadRequestFromString("url is required for link and video resources") // nolint:wrapcheck
	}

	exist, err := s.consultationRepo.Exist(ctx, shared.FilterByID(req.ConsultationID, consultationModel.FieldID, consultationModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if consultation exists")

		return res, fmt.Errorf("failed to check if consultation exists: %w", err)
	}

	if !exist {
		return res, failure.NotFound(consultationModel.EntityName + " not found") // nolint:wrapcheck
	}

	url := req.URL

	if req.Type == model.TypeFile {
		fileName := uuid.NewString() + filepath.Ext(req.File.Filename)

		url, err = s.storage.UploadFile(ctx, path.Join(model.Directory, req.ConsultationID), fileName, req.FileData, req.File)
		if err != nil {
			log.Error().Err(err).Msg("failed to upload resource file")

			return res, fmt.Errorf("failed to upload resource file: %w", err)
		}
	}

	resource := req.ToModel(shared.UserID(ctx), url)

	if err = s.repo.Insert(ctx, resource); err != nil {
		if resource.Stored() {
			s.deleteObject(ctx, url)
		}

		log.Error().Err(err).Msg("failed to create resource")

		return res, fmt.Errorf("failed to create resource: %w", err)
	}

	s.invalidate(ctx, constant.Empty)

	return dto.NewResourceResponse(resource), nil
}

// GetAll lists the resources of a consultation. Private ones are only listed for admins and for
// clients holding a confirmed or completed booking of that consultation.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, consultationID string) (res gDto.Page[dto.ResourceResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".resource.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	entitled, err := s.entitled(ctx, consultationID)
	if err != nil {
		return res, err
	}

	filter := shared.FilterBy(model.FieldConsultationID, consultationID, model.TableName)
	visibility := visibilityAll

	if !entitled {
		visibility = visibilityPublic
		filter.Add(gDto.Filter{Field: model.FieldIsPublic, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	cacheKey := shared.BuildCacheKeyWithQuery(shared.BuildCacheKey(model.CacheGetAll, visibility), req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for resources")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count resources")

		return res, fmt.Errorf("failed to count resources: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get resources")

		return res, fmt.Errorf("failed to get resources: %w", err)
	}

	res = gDto.NewPage(models, total, req, dto.NewResourceResponse)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save resources to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ResourceResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".resource.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(model.CacheGet, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		resource, err := s.load(ctx, id)
		if err != nil {
			return res, err
		}

		res.FromModel(resource)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save resource to cache")
			}
		}()
	}

	if res.IsPublic {
		return res, nil
	}

	entitled, err := s.entitled(ctx, res.ConsultationID)
	if err != nil {
		return dto.ResourceResponse{}, err
	}

	if !entitled {
		return dto.ResourceResponse{}, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateResourceRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".resource.Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req == (dto.UpdateResourceRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	resource, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if req.URL != nil && resource.Stored() {
		return failure.BadRequestFromString("the url of an uploaded file cannot be changed") // nolint:wrapcheck
	}

	if err = s.repo.Update(ctx, shared.TransformFields(req, shared.UserID(ctx)), shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update resource")

		return fmt.Errorf("failed to update resource: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

// Delete removes the row and, for uploaded files, the stored object.
func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".resource.Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	resource, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete resource")

		return fmt.Errorf("failed to delete resource: %w", err)
	}

	if resource.Stored() {
		s.deleteObject(ctx, resource.URL)
	}

	s.invalidate(ctx, id)

	return nil
}

// entitled reports whether the caller may see private resources of consultationID.
func (s *serviceImpl) entitled(ctx context.Context, consultationID string) (bool, error) {
	if shared.IsAdmin(ctx) {
		return true, nil
	}

	user := shared.UserID(ctx)
	if user == constant.Empty {
		return false, nil
	}

	filter := shared.FilterBy(bookingModel.FieldUserID, user, bookingModel.TableName)
	filter.Add(
		gDto.Filter{Field: bookingModel.FieldConsultationID, Value: consultationID, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName},
		gDto.Filter{
			Field:    bookingModel.FieldStatus,
			Value:    []string{bookingModel.StatusConfirmed, bookingModel.StatusCompleted},
			Operator: gDto.FilterOperatorIn,
			Table:    bookingModel.TableName,
		},
	)

	exist, err := s.bookingRepo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check consultation bookings")

		return false, fmt.Errorf("failed to check consultation bookings: %w", err)
	}

	return exist, nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Resource, error) {
	resource, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get resource")

		return resource, fmt.Errorf("failed to get resource: %w", err)
	}

	if resource.ID == constant.Empty {
		return resource, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return resource, nil
}

func (s *serviceImpl) deleteObject(ctx context.Context, url string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.storage.DeleteObject(c, s.storage.ObjectKeyFromURL(url)); err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to delete resource file")
		}
	}()
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(model.CacheGet, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete resource from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, model.CacheGetAll)
	}()
}
