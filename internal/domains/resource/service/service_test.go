package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	otelMocks "tahaworld/infras/otel/mocks"
	s3Mocks "tahaworld/infras/s3/mocks"
	bookingMocks "tahaworld/internal/domains/booking/mocks"
	consultationMocks "tahaworld/internal/domains/consultation/mocks"
	resourceMocks "tahaworld/internal/domains/resource/mocks"
	"tahaworld/internal/domains/resource/model"
	"tahaworld/internal/domains/resource/model/dto"
	"tahaworld/internal/domains/resource/service"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
)

type fixture struct {
	repo          *resourceMocks.MockResource
	consultations *consultationMocks.MockConsultation
	bookings      *bookingMocks.MockBooking
	storage       *s3Mocks.MockS3
	cache         *cacheMocks.MockRedisCache
	svc           service.Resource
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:          resourceMocks.NewMockResource(ctrl),
		consultations: consultationMocks.NewMockConsultation(ctrl),
		bookings:      bookingMocks.NewMockBooking(ctrl),
		storage:       s3Mocks.NewMockS3(ctrl),
		cache:         cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	f.svc = service.New(f.repo, f.consultations, f.bookings, f.storage, cfg, f.cache, otelMocks.NewOtel())

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.storage.EXPECT().ObjectKeyFromURL(gomock.Any()).Return("resources/key").AnyTimes()
	f.storage.EXPECT().DeleteObject(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func as(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func TestResourceService_Create(t *testing.T) {
	admin := as("admin-1", constant.RoleAdmin)

	t.Run("uploads a file", func(t *testing.T) {
		f := newFixture(t)
		header := &multipart.FileHeader{Filename: "workbook.pdf"}

		f.consultations.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.storage.EXPECT().UploadFile(gomock.Any(), "resources/c-1", gomock.Any(), gomock.Any(), header).Return("https://cdn.test/resources/c-1/w.pdf", nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r model.Resource) error {
			assert.Equal(t, "https://cdn.test/resources/c-1/w.pdf", r.URL)
			assert.Equal(t, "admin-1", r.CreatedBy)

			return nil
		})

		res, err := f.svc.Create(admin, dto.CreateResourceRequest{ConsultationID: "c-1", Title: "Workbook", Type: model.TypeFile, File: header})
		require.NoError(t, err)
		assert.Equal(t, model.TypeFile, res.Type)
	})

	t.Run("link keeps its url", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		res, err := f.svc.Create(admin, dto.CreateResourceRequest{ConsultationID: "c-1", Title: "Talk", Type: model.TypeVideo, URL: "https://youtu.be/x"})
		require.NoError(t, err)
		assert.Equal(t, "https://youtu.be/x", res.URL)
	})

	t.Run("file type without a file", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(admin, dto.CreateResourceRequest{ConsultationID: "c-1", Title: "Workbook", Type: model.TypeFile})
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("link without a url", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(admin, dto.CreateResourceRequest{ConsultationID: "c-1", Title: "Talk", Type: model.TypeLink})
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("unknown consultation", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.Create(admin, dto.CreateResourceRequest{ConsultationID: "c-9", Title: "Talk", Type: model.TypeLink, URL: "https://a.test"})
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("insert failure", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.storage.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("https://cdn.test/x.pdf", nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))

		_, err := f.svc.Create(admin, dto.CreateResourceRequest{ConsultationID: "c-1", Title: "W", Type: model.TypeFile, File: &multipart.FileHeader{Filename: "x.pdf"}})
		assert.Error(t, err)
	})
}

func TestResourceService_GetAll(t *testing.T) {
	params := gDto.QueryParams{Page: 1, Limit: 10}
	yes, no := true, false

	tests := []struct {
		name       string
		ctx        context.Context
		hasBooking *bool
		publicOnly bool
	}{
		{name: "guest sees public only", ctx: context.Background(), publicOnly: true},
		{name: "client without booking", ctx: as("u-1", constant.RoleUser), hasBooking: &no, publicOnly: true},
		{name: "client with a confirmed booking", ctx: as("u-1", constant.RoleUser), hasBooking: &yes},
		{name: "admin", ctx: as("admin-1", constant.RoleAdmin)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			if tt.hasBooking != nil {
				f.bookings.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(*tt.hasBooking, nil)
			}

			f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
			f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
				where, args := filter.GetWhereClause()
				assert.Equal(t, tt.publicOnly, args[model.FieldIsPublic] == true, where)

				return 1, nil
			})
			f.repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return([]model.Resource{{ID: "r-1"}}, nil)

			res, err := f.svc.GetAll(tt.ctx, params, "c-1")
			require.NoError(t, err)
			assert.Len(t, res.Data, 1)
		})
	}
}

func TestResourceService_Get(t *testing.T) {
	t.Run("private resource hidden from strangers", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Resource{ID: "r-1", ConsultationID: "c-1"}, nil)
		f.bookings.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.Get(as("u-2", constant.RoleUser), "r-1")
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("public resource for anyone", func(t *testing.T) {
		f := newFixture(t)
		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Resource{ID: "r-1", ConsultationID: "c-1", IsPublic: true}, nil)

		res, err := f.svc.Get(context.Background(), "r-1")
		require.NoError(t, err)
		assert.Equal(t, "r-1", res.ID)
	})
}

func TestResourceService_Update(t *testing.T) {
	url := "https://a.test/new"

	t.Run("uploaded file url is fixed", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Resource{ID: "r-1", Type: model.TypeFile}, nil)

		err := f.svc.Update(as("admin-1", constant.RoleAdmin), dto.UpdateResourceRequest{URL: &url}, "r-1")
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("link url changes", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Resource{ID: "r-1", Type: model.TypeLink}, nil)
		f.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, f.svc.Update(as("admin-1", constant.RoleAdmin), dto.UpdateResourceRequest{URL: &url}, "r-1"))
	})
}

func TestResourceService_Delete(t *testing.T) {
	t.Run("removes row", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Resource{ID: "r-1", Type: model.TypeFile, URL: "https://cdn.test/x.pdf"}, nil)
		f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, f.svc.Delete(as("admin-1", constant.RoleAdmin), "r-1"))
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Resource{}, nil)

		err := f.svc.Delete(as("admin-1", constant.RoleAdmin), "r-9")
		assert.Equal(t, 404, failure.GetCode(err))
	})
}
