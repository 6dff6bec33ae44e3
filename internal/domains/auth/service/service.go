package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"tahaworld/config"
	"tahaworld/infras/jwt"
	"tahaworld/infras/otel"
	"tahaworld/internal/domains/auth/model/dto"
	userModel "tahaworld/internal/domains/user/model"
	userRepo "tahaworld/internal/domains/user/repository"
	"tahaworld/shared"
	"tahaworld/shared/cache"
	"tahaworld/shared/constant"
	"tahaworld/shared/failure"
	"tahaworld/shared/password"
	"tahaworld/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	errInvalidCredentials = "invalid email or password"
	errInvalidRefresh     = "invalid refresh token"
	revokedMarker         = "1"
)

type Auth interface {
	Register(ctx context.Context, req dto.RegisterRequest) error
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (dto.RefreshTokenResponse, error)
	Logout(ctx context.Context, accessToken string, req dto.RefreshTokenRequest) error
	ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) error
}

type serviceImpl struct {
	userRepo   userRepo.User
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
	cache      cache.RedisCache
}

func New(userRepo userRepo.User, cfg *config.Config, otel otel.Otel, jwt jwt.JWT, cache cache.RedisCache) Auth {
	return &serviceImpl{
		userRepo:   userRepo,
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
		cache:      cache,
	}
}

func (s *serviceImpl) Register(ctx context.Context, req dto.RegisterRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".auth.Register")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	exists, err := s.userRepo.Exist(ctx, shared.FilterBy(userModel.FieldEmail, req.Email, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if exists {
		return failure.Conflict("email already registered") // nolint:wrapcheck
	}

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err = s.userRepo.Insert(ctx, req.ToUserModel(hashedPassword)); err != nil {
		if shared.IsUniqueViolation(err) {
			return failure.Conflict("email already registered") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create user")

		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".auth.Login")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	emailFilter := shared.FilterBy(userModel.FieldEmail, req.Email, userModel.TableName)

	user, err := s.userRepo.Get(ctx, emailFilter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == "" {
		log.Warn().Str("email", req.Email).Msg("login attempt with unknown email")

		return res, failure.Unauthorized(errInvalidCredentials) // nolint:wrapcheck
	}

	if err = password.Verify(req.Password, user.Password); err != nil {
		log.Warn().Str("user_id", user.ID).Msg("login attempt with wrong password")

		return res, failure.Unauthorized(errInvalidCredentials) // nolint:wrapcheck
	}

	if !user.Active {
		return res, failure.Forbidden("user account is deactivated") // nolint:wrapcheck
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(ctx, user.ID, user.Email, user.Level)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate tokens")

		return res, fmt.Errorf("failed to generate tokens: %w", err)
	}

	lastLogin := dto.UpdateLastLoginRequest{LastLogin: timezone.Now()}
	if err := s.userRepo.Update(ctx, shared.TransformFields(lastLogin, user.ID), shared.FilterByID(user.ID, userModel.FieldID, userModel.TableName)); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to update last login")
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}

// RefreshToken rotates the pair. The presented refresh token is revoked so it cannot be replayed.
func (s *serviceImpl) RefreshToken(ctx context.Context, req dto.RefreshTokenRequest) (res dto.RefreshTokenResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".auth.RefreshToken")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	claims, err := s.jwtService.ValidateToken(ctx, req.RefreshToken, jwt.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("invalid refresh token")

		return res, failure.Unauthorized(errInvalidRefresh) // nolint:wrapcheck
	}

	revoked, err := s.isRevoked(ctx, claims.TokenID)
	if err != nil {
		return res, err
	}

	if revoked {
		return res, failure.Unauthorized(errInvalidRefresh) // nolint:wrapcheck
	}

	user, err := s.userRepo.Get(ctx, shared.FilterByID(claims.UserID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == "" || !user.Active {
		return res, failure.Unauthorized(errInvalidRefresh) // nolint:wrapcheck
	}

	tokenPair, err := s.jwtService.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh tokens")

		return res, failure.Unauthorized(errInvalidRefresh) // nolint:wrapcheck
	}

	if err = s.revoke(ctx, claims); err != nil {
		return res, err
	}

	res.FromTokenPair(tokenPair)

	return res, nil
}

// Logout revokes the access token and, when given, the refresh token until they expire.
func (s *serviceImpl) Logout(ctx context.Context, accessToken string, req dto.RefreshTokenRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".auth.Logout")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	claims, err := s.jwtService.ValidateToken(ctx, accessToken, jwt.AccessToken)
	if err != nil {
		return failure.Unauthorized("invalid access token") // nolint:wrapcheck
	}

	if err = s.revoke(ctx, claims); err != nil {
		return err
	}

	if req.RefreshToken == "" {
		return nil
	}

	refreshClaims, err := s.jwtService.ValidateToken(ctx, req.RefreshToken, jwt.RefreshToken)
	if err != nil || refreshClaims.UserID != claims.UserID {
		log.Warn().Str("user_id", claims.UserID).Msg("logout with an unusable refresh token")

		return nil
	}

	return s.revoke(ctx, refreshClaims)
}

func (s *serviceImpl) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".auth.ChangePassword")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID := shared.UserID(ctx)
	filter := shared.FilterByID(userID, userModel.FieldID, userModel.TableName)

	user, err := s.userRepo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == "" {
		return failure.NotFound(userModel.EntityName + " not found") // nolint:wrapcheck
	}

	if err = password.Verify(req.CurrentPassword, user.Password); err != nil {
		return failure.Unauthorized("current password is incorrect") // nolint:wrapcheck
	}

	hashedPassword, err := password.Hash(req.NewPassword)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash new password")

		return fmt.Errorf("failed to hash new password: %w", err)
	}

	updatePassword := dto.UpdatePasswordRequest{Password: hashedPassword}
	if err = s.userRepo.Update(ctx, shared.TransformFields(updatePassword, userID), filter); err != nil {
		log.Error().Err(err).Msg("failed to update password")

		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (s *serviceImpl) revoke(ctx context.Context, claims *jwt.Claims) error {
	ttl := claims.RemainingTTL(timezone.Now())
	if ttl <= 0 {
		return nil
	}

	seconds := int(math.Ceil(ttl.Seconds()))
	if err := s.cache.Save(ctx, shared.RevokedTokenKey(claims.TokenID), revokedMarker, seconds); err != nil {
		log.Error().Err(err).Str("token_id", claims.TokenID).Msg("failed to revoke token")

		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

func (s *serviceImpl) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	var marker string

	err := s.cache.Get(ctx, shared.RevokedTokenKey(tokenID), &marker)
	if errors.Is(err, cache.Nil) {
		return false, nil
	}

	if err != nil {
		log.Error().Err(err).Str("token_id", tokenID).Msg("failed to check token revocation")

		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return true, nil
}
