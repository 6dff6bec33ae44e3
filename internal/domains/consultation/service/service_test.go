package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	otelMocks "tahaworld/infras/otel/mocks"
	consultationMocks "tahaworld/internal/domains/consultation/mocks"
	"tahaworld/internal/domains/consultation/model"
	"tahaworld/internal/domains/consultation/model/dto"
	"tahaworld/internal/domains/consultation/service"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
)

type fixture struct {
	repo  *consultationMocks.MockConsultation
	cache *cacheMocks.MockRedisCache
	svc   service.Consultation
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:  consultationMocks.NewMockConsultation(ctrl),
		cache: cacheMocks.NewMockRedisCache(ctrl),
	}

	f.svc = service.New(f.repo, &config.Config{}, f.cache, otelMocks.NewOtel())

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func asRole(role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "user-1")

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func TestConsultationService_Create(t *testing.T) {
	f := newFixture(t)
	req := dto.CreateConsultationRequest{
		TitleAr:         "استشارة",
		TitleEn:         "Consultation",
		DurationMinutes: 60,
		PriceAmount:     15000,
		Currency:        "USD",
		Type:            model.TypeVideo,
	}

	f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c model.Consultation) error {
		assert.True(t, c.Active)
		assert.Equal(t, "admin-1", c.CreatedBy)

		return nil
	})

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")

	res, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "150.00", res.Price)
	assert.NotEmpty(t, res.ID)
}

func TestConsultationService_CreateRejectsUnchargeablePrice(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(asRole(constant.RoleAdmin), dto.CreateConsultationRequest{
		TitleAr:         "استشارة",
		TitleEn:         "Consultation",
		DurationMinutes: 60,
		PriceAmount:     12345,
		Currency:        "KWD",
		Type:            model.TypeVideo,
	})
	assert.Equal(t, 400, failure.GetCode(err))
}

func TestConsultationService_Update(t *testing.T) {
	t.Run("title only checks existence", func(t *testing.T) {
		f := newFixture(t)
		title := "New title"

		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, f.svc.Update(asRole(constant.RoleAdmin), dto.UpdateConsultationRequest{TitleEn: &title}, "c-1"))
	})

	t.Run("price checked against stored currency", func(t *testing.T) {
		f := newFixture(t)
		price := int64(5005)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), model.FieldID, model.FieldPriceAmount, model.FieldCurrency).
			Return(model.Consultation{ID: "c-1", PriceAmount: 5000, Currency: "OMR"}, nil)

		err := f.svc.Update(asRole(constant.RoleAdmin), dto.UpdateConsultationRequest{PriceAmount: &price}, "c-1")
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("currency change with a chargeable stored price", func(t *testing.T) {
		f := newFixture(t)
		currency := "BHD"

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), model.FieldID, model.FieldPriceAmount, model.FieldCurrency).
			Return(model.Consultation{ID: "c-1", PriceAmount: 25000, Currency: "SAR"}, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, f.svc.Update(asRole(constant.RoleAdmin), dto.UpdateConsultationRequest{Currency: &currency}, "c-1"))
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		price := int64(100)

		f.repo.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Consultation{}, nil)

		err := f.svc.Update(asRole(constant.RoleAdmin), dto.UpdateConsultationRequest{PriceAmount: &price}, "c-9")
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestConsultationService_GetAll(t *testing.T) {
	t.Run("public callers only see active consultations", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).Times(2)
		f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
			where, args := filter.GetWhereClause()
			assert.Contains(t, where, "consultations.active = :active")
			assert.Equal(t, true, args[model.FieldActive])

			return 1, nil
		})
		f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Consultation{{ID: "c-1", Active: true, Currency: "KWD", PriceAmount: 12500}}, nil)

		page, err := f.svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "12.500", page.Data[0].Price)
		assert.Equal(t, 1, page.Metadata.TotalData)
	})

	t.Run("admins see everything", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil).Times(2)
		f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
			where, _ := filter.GetWhereClause()
			assert.Empty(t, where)

			return 0, nil
		})
		f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

		page, err := f.svc.GetAll(asRole(constant.RoleAdmin), gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})
		require.NoError(t, err)
		assert.Empty(t, page.Data)
	})
}

func TestConsultationService_Get(t *testing.T) {
	inactive := model.Consultation{ID: "c-1", Currency: "USD"}

	t.Run("inactive is hidden from the public", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), "consultation:get:c-1", gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inactive, nil)

		_, err := f.svc.Get(context.Background(), "c-1")
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("inactive is visible to admins", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inactive, nil)

		res, err := f.svc.Get(asRole(constant.RoleSuperAdmin), "c-1")
		require.NoError(t, err)
		assert.Equal(t, "c-1", res.ID)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Consultation{}, nil)

		_, err := f.svc.Get(asRole(constant.RoleAdmin), "c-404")
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestConsultationService_Delete(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f fixture)
		wantSoft bool
		wantCode int
	}{
		{
			name: "never booked is removed",
			setup: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "booked is deactivated",
			setup: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeFkViolation})
				f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
					assert.Equal(t, false, fields[model.FieldActive])

					return nil
				})
			},
			wantSoft: true,
		},
		{
			name: "missing",
			setup: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantCode: 404,
		},
		{
			name: "database error",
			setup: func(f fixture) {
				f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
				f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(errors.New("db down"))
			},
			wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			soft, err := f.svc.Delete(asRole(constant.RoleAdmin), "c-1")
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSoft, soft)
		})
	}
}
