package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"tahaworld/config"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/certificate/model"
	"tahaworld/internal/domains/certificate/model/dto"
	"tahaworld/internal/domains/certificate/repository"
	courseModel "tahaworld/internal/domains/course/model"
	courseRepo "tahaworld/internal/domains/course/repository"
	userModel "tahaworld/internal/domains/user/model"
	userRepo "tahaworld/internal/domains/user/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/timezone"
	"tahaworld/shared/validator"

	"github.com/rs/zerolog/log"
)

// MaxCodeAttempts bounds how often Issue redraws a verification code that is already taken.
const MaxCodeAttempts = 5

var errCodeExhausted = errors.New("could not allocate a unique verification code")

type Certificate interface {
	Issue(ctx context.Context, req dto.IssueCertificateRequest) (dto.CertificateResponse, error)
	Verify(ctx context.Context, code string) (dto.VerificationResponse, error)
	Revoke(ctx context.Context, req dto.RevokeCertificateRequest, id string) error
	GetMine(ctx context.Context, req gDto.QueryParams) (gDto.Page[dto.CertificateResponse], error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.CertificateResponse], error)
}

type serviceImpl struct {
	repo       repository.Certificate
	userRepo   userRepo.User
	courseRepo courseRepo.Course
	newCode    func() (string, error)
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
}

type Option func(*serviceImpl)

// WithCodeGenerator swaps the verification code source.
func WithCodeGenerator(fn func() (string, error)) Option {
	return func(s *serviceImpl) {
		s.newCode = fn
	}
}

func New(
	repo repository.Certificate,
	userRepo userRepo.User,
	courseRepo courseRepo.Course,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
	opts ...Option,
) Certificate {
	s := &serviceImpl{
		repo:       repo,
		userRepo:   userRepo,
		courseRepo: courseRepo,
		newCode:    model.NewVerificationCode,
		cfg:        cfg,
		cache:      cache,
		otel:       otel,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue grants a certificate for a course. A user holds at most one certificate per course.
func (s *serviceImpl) Issue(ctx context.Context, req dto.IssueCertificateRequest) (res dto.CertificateResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".certificate.Issue")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	holder, err := s.userRepo.Get(ctx, shared.FilterByID(req.UserID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get certificate holder")

		return res, fmt.Errorf("failed to get certificate holder: %w", err)
	}

	if holder.ID == constant.Empty {
		return res, failure.NotFound(userModel.EntityName + " not found") // nolint:wrapcheck
	}

	course, err := s.courseRepo.Get(ctx, shared.FilterByID(req.CourseID, courseModel.FieldID, courseModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get course")

		return res, fmt.Errorf("failed to get course: %w", err)
	}

	if course.ID == constant.Empty {
		return res, failure.NotFound(courseModel.EntityName + " not found") // nolint:wrapcheck
	}

	filter := shared.FilterBy(model.FieldUserID, req.UserID, model.TableName)
	filter.AddEq(model.FieldCourseID, req.CourseID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check existing certificate")

		return res, fmt.Errorf("failed to check existing certificate: %w", err)
	}

	if exist {
		return res, failure.Conflict("certificate already issued for this course") // nolint:wrapcheck
	}

	certificate, err := s.insertWithFreshCode(ctx, req)
	if err != nil {
		return res, err
	}

	certificate.HolderName = holder.FullName
	certificate.CourseTitleAr = course.TitleAr
	certificate.CourseTitleEn = course.TitleEn

	log.Info().Str("certificateID", certificate.ID).Str("userID", req.UserID).Str("courseID", req.CourseID).Msg("certificate issued")

	s.invalidate(ctx, constant.Empty)

	return dto.NewCertificateResponse(certificate), nil
}

func (s *serviceImpl) insertWithFreshCode(ctx context.Context, req dto.IssueCertificateRequest) (model.Certificate, error) {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			log.Error().Err(err).Msg("failed to generate verification code")

			return model.Certificate{}, fmt.Errorf("failed to generate verification code: %w", err)
		}

		certificate := req.ToModel(shared.UserID(ctx), code, timezone.Now())

		err = s.repo.Insert(ctx, certificate)

		switch {
		case err == nil:
			return certificate, nil
		case shared.IsUniqueViolation(err, model.ConstraintVerificationCode):
			log.Warn().Int("attempt", attempt).Msg("verification code collision, drawing another")
		case shared.IsUniqueViolation(err, model.ConstraintUserCourse):
			return model.Certificate{}, failure.Conflict("certificate already issued for this course") // nolint:wrapcheck
		default:
			log.Error().Err(err).Msg("failed to issue certificate")

			return model.Certificate{}, fmt.Errorf("failed to issue certificate: %w", err)
		}
	}

	log.Error().Err(errCodeExhausted).Int("attempts", MaxCodeAttempts).Msg("failed to issue certificate")

	return model.Certificate{}, failure.InternalError(errCodeExhausted) // nolint:wrapcheck
}

// Verify looks a certificate up by its public code. Codes are matched case-insensitively.
func (s *serviceImpl) Verify(ctx context.Context, code string) (res dto.VerificationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".certificate.Verify")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	code = strings.ToUpper(strings.TrimSpace(code))

	if err = validator.ValidateVar(code, model.CodeTag); err != nil {
		return res, err //nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(model.CacheVerify, code)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		return res, nil
	}

	certificate, err := s.repo.Get(ctx, shared.FilterBy(model.FieldVerificationCode, code, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get certificate")

		return res, fmt.Errorf("failed to get certificate: %w", err)
	}

	if certificate.ID == constant.Empty {
		return res, failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	if certificate.Revoked() {
		return res, failure.Gone("certificate has been revoked") // nolint:wrapcheck
	}

	res.FromModel(certificate)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save certificate verification to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Revoke(ctx context.Context, req dto.RevokeCertificateRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".certificate.Revoke")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	certificate, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get certificate")

		return fmt.Errorf("failed to get certificate: %w", err)
	}

	if certificate.ID == constant.Empty {
		return failure.NotFound(model.EntityName + " not found") // nolint:wrapcheck
	}

	filter.Add(gDto.Filter{Field: model.FieldRevokedAt, Operator: gDto.FilterIsNull, Table: model.TableName})

	now := timezone.Now()

	affected, err := s.repo.UpdateCount(ctx, map[string]any{
		model.FieldRevokedAt:     now,
		model.FieldRevokeReason:  req.Reason,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: shared.UserID(ctx),
	}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to revoke certificate")

		return fmt.Errorf("failed to revoke certificate: %w", err)
	}

	if affected == 0 {
		return failure.Conflict("certificate is already revoked") // nolint:wrapcheck
	}

	log.Info().Str("certificateID", id).Str("reason", req.Reason).Msg("certificate revoked")

	s.invalidate(ctx, certificate.VerificationCode)

	return nil
}

func (s *serviceImpl) GetMine(ctx context.Context, req gDto.QueryParams) (res gDto.Page[dto.CertificateResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".certificate.GetMine")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.page(ctx, req, shared.FilterBy(model.FieldUserID, shared.UserID(ctx), model.TableName))
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res gDto.Page[dto.CertificateResponse], err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".certificate.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKeyWithQuery(model.CacheGetAll, req, filter)

	if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for certificates")

		return res, nil
	}

	res, err = s.page(ctx, req, filter)
	if err != nil {
		return res, err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save certificates to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) page(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (gDto.Page[dto.CertificateResponse], error) {
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count certificates")

		return gDto.Page[dto.CertificateResponse]{}, fmt.Errorf("failed to count certificates: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get certificates")

		return gDto.Page[dto.CertificateResponse]{}, fmt.Errorf("failed to get certificates: %w", err)
	}

	return gDto.NewPage(models, total, req, dto.NewCertificateResponse), nil
}

func (s *serviceImpl) invalidate(ctx context.Context, code string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if code != constant.Empty {
			if err := s.cache.Delete(c, shared.BuildCacheKey(model.CacheVerify, code)); err != nil {
				log.Error().Err(err).Msg("failed to delete certificate verification from cache")
			}
		}

		shared.InvalidateCaches(c, s.cache, model.CacheGetAll)
	}()
}
