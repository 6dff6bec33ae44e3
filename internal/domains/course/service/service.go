package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/infras/s3"
	"tahaworld/internal/domains/course/model"
	"tahaworld/internal/domains/course/model/dto"
	"tahaworld/internal/domains/course/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	visibilityAll       = "all"
	visibilityPublished = "published"
)

type Course interface {
	Create(ctx context.Context, req dto.CreateCourseRequest) (dto.CourseResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.CourseResponse], error)
	Get(ctx context.Context, id string) (dto.CourseResponse, error)
	Update(ctx context.Context, req dto.UpdateCourseRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.Course
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	s3    s3.S3
}

func New(repo repository.Course, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Course {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		s3:    s3,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateCourseRequest) (res dto.CourseResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".course.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	thumbnailURL, err := s.uploadThumbnail(ctx, req.ThumbnailFile, req.Thumbnail)
	if err != nil {
		return res, err
	}

	course := req.ToModel(shared.UserID(ctx), thumbnailURL)

	if err = s.repo.Insert(ctx, course); err != nil {
		log.Error().Err(err).Msg("failed to create course")

		s.deleteThumbnail(ctx, thumbnailURL)

		return res, fmt.Errorf("failed to create course: %w", err)
	}

	s.invalidate(ctx, constant.Empty)

	return dto.NewCourseResponse(course), nil
}

// GetAll lists the catalog. Drafts are only listed for admins.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.CourseResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".course.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	visibility := visibilityAll

	if !shared.IsAdmin(ctx) {
		visibility = visibilityPublished
		filter.Add(gDto.Filter{Field: model.FieldPublished, Value: true, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	cacheKey := shared.BuildCacheKeyWithQuery(shared.BuildCacheKey(model.CacheGetAll, visibility), req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for courses")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count courses")

		return res, fmt.Errorf("failed to count courses: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get courses")

		return res, fmt.Errorf("failed to get courses: %w", err)
	}

	res = gDto.NewPage(models, total, req, dto.NewCourseResponse)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save courses to cache")
		}
	}()

	return res, nil
}

// Get returns one course. Unpublished courses look missing to everyone but admins.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.CourseResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".course.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(model.CacheGet, id)

	if err = s.cache.Get(ctx, cacheKey, &res); err != nil {
		course, err := s.load(ctx, id)
		if err != nil {
			return res, err
		}

		res.FromModel(course)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save course to cache")
			}
		}()
	}

	if !res.Published && !shared.IsAdmin(ctx) {
		return dto.CourseResponse{}, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return res, nil
}

// Update replaces the thumbnail when a new one is sent. The new object is removed again when the
// row cannot be written, the old one once it has been.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateCourseRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".course.Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.Empty() {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	thumbnailURL, err := s.uploadThumbnail(ctx, req.ThumbnailFile, req.Thumbnail)
	if err != nil {
		return err
	}

	fields := shared.TransformFields(req, shared.UserID(ctx))
	if thumbnailURL != constant.Empty {
		fields[model.FieldThumbnail] = thumbnailURL
	}

	if err = s.repo.Update(ctx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update course")

		s.deleteThumbnail(ctx, thumbnailURL)

		return fmt.Errorf("failed to update course: %w", err)
	}

	if thumbnailURL != constant.Empty {
		s.deleteThumbnail(ctx, current.Thumbnail)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".course.Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		if shared.IsForeignKeyViolation(err) {
			return failure.Conflict("course has issued certificates") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to delete course")

		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.deleteThumbnail(ctx, current.Thumbnail)
	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Course, error) {
	course, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get course")

		return course, fmt.Errorf("failed to get course: %w", err)
	}

	if course.ID == constant.Empty {
		return course, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	return course, nil
}

func (s *serviceImpl) uploadThumbnail(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	if header == nil {
		return constant.Empty, nil
	}

	url, err := s.s3.UploadFile(ctx, model.Directory, uuid.NewString()+filepath.Ext(header.Filename), file, header)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload course thumbnail")

		return constant.Empty, fmt.Errorf("failed to upload course thumbnail: %w", err)
	}

	return url, nil
}

func (s *serviceImpl) deleteThumbnail(ctx context.Context, url string) {
	if url == constant.Empty {
		return
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.s3.DeleteObject(c, s.s3.ObjectKeyFromURL(url)); err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to delete course thumbnail")
		}
	}()
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if id != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(model.CacheGet, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete course from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, model.CacheGetAll)
	}()
}
