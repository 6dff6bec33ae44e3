package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	"tahaworld/infras/jwt"
	jwtMocks "tahaworld/infras/jwt/mocks"
	otelMocks "tahaworld/infras/otel/mocks"
	"tahaworld/permissions"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	"tahaworld/transport/http/middleware"
)

const headerCaller = "X-Caller"

func newRouter(t *testing.T) (*jwtMocks.MockJWT, *cacheMocks.MockRedisCache, http.Handler) {
	t.Helper()

	ctrl := gomock.NewController(t)
	jwtService := jwtMocks.NewMockJWT(ctrl)
	redis := cacheMocks.NewMockRedisCache(ctrl)

	auth := middleware.NewAuthRoleMiddleware(jwtService, otelMocks.NewOtel(), permissions.Get(), &config.Config{}, redis)

	echo := func(w http.ResponseWriter, r *http.Request) {
		user, _ := r.Context().Value(constant.ContextKeyUserID).(string)
		w.Header().Set(headerCaller, user)
		w.WriteHeader(http.StatusOK)
	}

	r := chi.NewRouter()
	r.Use(auth.Auth)
	r.Use(auth.RBAC)
	r.Route("/v1/courses", func(rg chi.Router) {
		rg.Get("/", echo)
		rg.Delete("/{id}", echo)
	})

	return jwtService, redis, r
}

func serve(handler http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(constant.RequestHeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func claims(role string) *jwt.Claims {
	return &jwt.Claims{UserID: "u-1", Email: "u@test.io", Role: role, TokenID: "t-1", Type: jwt.AccessToken}
}

func TestAuth_PublicRoute(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		_, _, router := newRouter(t)

		rec := serve(router, http.MethodGet, "/v1/courses", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(headerCaller))
	})

	t.Run("valid token identifies the caller", func(t *testing.T) {
		jwtService, redis, router := newRouter(t)
		jwtService.EXPECT().ValidateToken(gomock.Any(), "good", jwt.AccessToken).Return(claims(constant.RoleUser), nil)
		redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)

		rec := serve(router, http.MethodGet, "/v1/courses", "good")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-1", rec.Header().Get(headerCaller))
	})

	t.Run("bad token falls back to anonymous", func(t *testing.T) {
		jwtService, _, router := newRouter(t)
		jwtService.EXPECT().ValidateToken(gomock.Any(), "bad", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)

		rec := serve(router, http.MethodGet, "/v1/courses", "bad")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(headerCaller))
	})
}

func TestAuth_ProtectedRoute(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		setup    func(jwtService *jwtMocks.MockJWT, redis *cacheMocks.MockRedisCache)
		wantCode int
	}{
		{
			name:     "missing header",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:  "expired token",
			token: "old",
			setup: func(jwtService *jwtMocks.MockJWT, _ *cacheMocks.MockRedisCache) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "old", jwt.AccessToken).Return(nil, jwt.ErrExpiredToken)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:  "revoked token",
			token: "revoked",
			setup: func(jwtService *jwtMocks.MockJWT, redis *cacheMocks.MockRedisCache) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "revoked", jwt.AccessToken).Return(claims(constant.RoleAdmin), nil)
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:  "client is forbidden",
			token: "client",
			setup: func(jwtService *jwtMocks.MockJWT, redis *cacheMocks.MockRedisCache) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "client", jwt.AccessToken).Return(claims(constant.RoleUser), nil)
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:  "admin passes",
			token: "admin",
			setup: func(jwtService *jwtMocks.MockJWT, redis *cacheMocks.MockRedisCache) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "admin", jwt.AccessToken).Return(claims(constant.RoleAdmin), nil)
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
			},
			wantCode: http.StatusOK,
		},
		{
			name:  "cache outage fails open",
			token: "admin",
			setup: func(jwtService *jwtMocks.MockJWT, redis *cacheMocks.MockRedisCache) {
				jwtService.EXPECT().ValidateToken(gomock.Any(), "admin", jwt.AccessToken).Return(claims(constant.RoleAdmin), nil)
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jwtService, redis, router := newRouter(t)
			if tt.setup != nil {
				tt.setup(jwtService, redis)
			}

			rec := serve(router, http.MethodDelete, "/v1/courses/c-1", tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
