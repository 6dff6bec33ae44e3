package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtLib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	"tahaworld/infras/jwt"
	jwtMocks "tahaworld/infras/jwt/mocks"
	otelMocks "tahaworld/infras/otel/mocks"
	"tahaworld/internal/domains/auth/model/dto"
	"tahaworld/internal/domains/auth/service"
	userMocks "tahaworld/internal/domains/user/mocks"
	userModel "tahaworld/internal/domains/user/model"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	"tahaworld/shared/failure"
	"tahaworld/shared/password"
)

type fixture struct {
	repo  *userMocks.MockUser
	jwt   *jwtMocks.MockJWT
	cache *cacheMocks.MockRedisCache
	svc   service.Auth
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:  userMocks.NewMockUser(ctrl),
		jwt:   jwtMocks.NewMockJWT(ctrl),
		cache: cacheMocks.NewMockRedisCache(ctrl),
	}

	f.svc = service.New(f.repo, &config.Config{}, otelMocks.NewOtel(), f.jwt, f.cache)

	return f
}

func hashed(t *testing.T, plain string) string {
	t.Helper()

	h, err := password.Hash(plain)
	require.NoError(t, err)

	return h
}

func claims(userID, tokenID string, tokenType jwt.TokenType, ttl time.Duration) *jwt.Claims {
	return &jwt.Claims{
		UserID:  userID,
		TokenID: tokenID,
		Type:    tokenType,
		RegisteredClaims: jwtLib.RegisteredClaims{
			ExpiresAt: jwtLib.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestAuthService_Register(t *testing.T) {
	req := dto.RegisterRequest{Email: "client@example.com", Password: "password123", FullName: "Client"}

	t.Run("creates a plain user with the default language", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, user userModel.User) error {
			assert.Equal(t, constant.RoleUser, user.Level)
			assert.Equal(t, constant.LanguageArabic, user.PreferredLanguage)
			assert.NotEqual(t, req.Password, user.Password)

			return nil
		})

		assert.NoError(t, f.svc.Register(context.Background(), req))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		err := f.svc.Register(context.Background(), req)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("repository error", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, errors.New("db down"))

		err := f.svc.Register(context.Background(), req)
		assert.Equal(t, 500, failure.GetCode(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	active := userModel.User{
		ID:       "user-1",
		Email:    "client@example.com",
		Password: hashed(t, "password123"),
		Level:    constant.RoleUser,
		Active:   true,
	}

	tests := []struct {
		name     string
		req      dto.LoginRequest
		setup    func(f fixture)
		wantCode int
	}{
		{
			name: "success",
			req:  dto.LoginRequest{Email: active.Email, Password: "password123"},
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(active, nil)
				f.jwt.EXPECT().GenerateTokenPair(gomock.Any(), active.ID, active.Email, active.Level).
					Return(&jwt.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", ExpiresIn: 900}, nil)
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "last login failure does not block login",
			req:  dto.LoginRequest{Email: active.Email, Password: "password123"},
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(active, nil)
				f.jwt.EXPECT().GenerateTokenPair(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(&jwt.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil)
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
		},
		{
			name: "unknown email",
			req:  dto.LoginRequest{Email: "nobody@example.com", Password: "password123"},
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)
			},
			wantCode: 401,
		},
		{
			name: "wrong password",
			req:  dto.LoginRequest{Email: active.Email, Password: "wrong-password"},
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(active, nil)
			},
			wantCode: 401,
		},
		{
			name: "deactivated account",
			req:  dto.LoginRequest{Email: active.Email, Password: "password123"},
			setup: func(f fixture) {
				inactive := active
				inactive.Active = false
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inactive, nil)
			},
			wantCode: 403,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			res, err := f.svc.Login(context.Background(), tt.req)
			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Equal(t, "a", res.AccessToken)
				assert.Equal(t, "r", res.RefreshToken)

				return
			}

			assert.Equal(t, tt.wantCode, failure.GetCode(err))
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	req := dto.RefreshTokenRequest{RefreshToken: "refresh"}

	t.Run("rotates and revokes the old token", func(t *testing.T) {
		f := newFixture(t)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), "refresh", jwt.RefreshToken).
			Return(claims("user-1", "rt-1", jwt.RefreshToken, time.Hour), nil)
		f.cache.EXPECT().Get(gomock.Any(), "auth:revoked:rt-1", gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{ID: "user-1", Active: true}, nil)
		f.jwt.EXPECT().RefreshTokens(gomock.Any(), "refresh").Return(&jwt.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil)
		f.cache.EXPECT().Save(gomock.Any(), "auth:revoked:rt-1", gomock.Any(), gomock.Any()).Return(nil)

		res, err := f.svc.RefreshToken(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "a2", res.AccessToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		f := newFixture(t)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), gomock.Any(), jwt.RefreshToken).
			Return(claims("user-1", "rt-1", jwt.RefreshToken, time.Hour), nil)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := f.svc.RefreshToken(context.Background(), req)
		assert.Equal(t, 401, failure.GetCode(err))
	})

	t.Run("invalid token", func(t *testing.T) {
		f := newFixture(t)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), gomock.Any(), jwt.RefreshToken).Return(nil, jwt.ErrExpiredToken)

		_, err := f.svc.RefreshToken(context.Background(), req)
		assert.Equal(t, 401, failure.GetCode(err))
	})

	t.Run("deactivated user", func(t *testing.T) {
		f := newFixture(t)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), gomock.Any(), jwt.RefreshToken).
			Return(claims("user-1", "rt-1", jwt.RefreshToken, time.Hour), nil)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{ID: "user-1"}, nil)

		_, err := f.svc.RefreshToken(context.Background(), req)
		assert.Equal(t, 401, failure.GetCode(err))
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Run("revokes access and refresh tokens", func(t *testing.T) {
		f := newFixture(t)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), "access", jwt.AccessToken).
			Return(claims("user-1", "at-1", jwt.AccessToken, 10*time.Minute), nil)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), "refresh", jwt.RefreshToken).
			Return(claims("user-1", "rt-1", jwt.RefreshToken, time.Hour), nil)
		f.cache.EXPECT().Save(gomock.Any(), "auth:revoked:at-1", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ any, seconds int) error {
				assert.InDelta(t, 600, seconds, 2)

				return nil
			})
		f.cache.EXPECT().Save(gomock.Any(), "auth:revoked:rt-1", gomock.Any(), gomock.Any()).Return(nil)

		err := f.svc.Logout(context.Background(), "access", dto.RefreshTokenRequest{RefreshToken: "refresh"})
		assert.NoError(t, err)
	})

	t.Run("ignores a refresh token of another user", func(t *testing.T) {
		f := newFixture(t)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), "access", jwt.AccessToken).
			Return(claims("user-1", "at-1", jwt.AccessToken, time.Minute), nil)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), "refresh", jwt.RefreshToken).
			Return(claims("user-2", "rt-2", jwt.RefreshToken, time.Hour), nil)
		f.cache.EXPECT().Save(gomock.Any(), "auth:revoked:at-1", gomock.Any(), gomock.Any()).Return(nil)

		err := f.svc.Logout(context.Background(), "access", dto.RefreshTokenRequest{RefreshToken: "refresh"})
		assert.NoError(t, err)
	})

	t.Run("invalid access token", func(t *testing.T) {
		f := newFixture(t)
		f.jwt.EXPECT().ValidateToken(gomock.Any(), gomock.Any(), jwt.AccessToken).Return(nil, jwt.ErrInvalidToken)

		err := f.svc.Logout(context.Background(), "bad", dto.RefreshTokenRequest{})
		assert.Equal(t, 401, failure.GetCode(err))
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")
	user := userModel.User{ID: "user-1", Password: hashed(t, "password123"), Active: true}

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
			stored, _ := fields[userModel.FieldPassword].(string)
			assert.NoError(t, password.Verify("new-password", stored))
			assert.Equal(t, "user-1", fields[constant.FieldModifiedBy])

			return nil
		})

		err := f.svc.ChangePassword(ctx, dto.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "new-password"})
		assert.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(user, nil)

		err := f.svc.ChangePassword(ctx, dto.ChangePasswordRequest{CurrentPassword: "nope-nope", NewPassword: "new-password"})
		assert.Equal(t, 401, failure.GetCode(err))
	})

	t.Run("user gone", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(userModel.User{}, nil)

		err := f.svc.ChangePassword(ctx, dto.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "new-password"})
		assert.Equal(t, 404, failure.GetCode(err))
	})
}
