package service_test

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	otelMocks "tahaworld/infras/otel/mocks"
	s3Mocks "tahaworld/infras/s3/mocks"
	courseMocks "tahaworld/internal/domains/course/mocks"
	"tahaworld/internal/domains/course/model"
	"tahaworld/internal/domains/course/model/dto"
	"tahaworld/internal/domains/course/service"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
)

func setup(t *testing.T) (*courseMocks.MockCourse, *s3Mocks.MockS3, *cacheMocks.MockRedisCache, service.Course) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := courseMocks.NewMockCourse(ctrl)
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockS3.EXPECT().ObjectKeyFromURL(gomock.Any()).Return("courses/key").AnyTimes()

	return mockRepo, mockS3, mockCache, service.New(mockRepo, cfg, mockCache, otelMocks.NewOtel(), mockS3)
}

func admin() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAdmin)
}

func TestCourseService_Create(t *testing.T) {
	req := dto.CreateCourseRequest{
		TitleAr:  "أساسيات القيادة",
		TitleEn:  "Leadership basics",
		Level:    model.LevelBeginner,
		Price:    49900,
		Currency: "SAR",
	}

	t.Run("without thumbnail", func(t *testing.T) {
		repo, _, _, svc := setup(t)

		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c model.Course) error {
			assert.False(t, c.Published)
			assert.Equal(t, "admin-1", c.CreatedBy)

			return nil
		})

		res, err := svc.Create(admin(), req)
		require.NoError(t, err)
		assert.Equal(t, "499.00", res.Price)
	})

	t.Run("with thumbnail", func(t *testing.T) {
		repo, storage, _, svc := setup(t)
		withThumb := req
		withThumb.Thumbnail = &multipart.FileHeader{Filename: "cover.png"}

		storage.EXPECT().UploadFile(gomock.Any(), model.Directory, gomock.Any(), gomock.Any(), withThumb.Thumbnail).Return("https://cdn.test/courses/a.png", nil)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		res, err := svc.Create(admin(), withThumb)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/courses/a.png", res.Thumbnail)
	})

	t.Run("insert failure removes the upload", func(t *testing.T) {
		repo, storage, _, svc := setup(t)
		withThumb := req
		withThumb.Thumbnail = &multipart.FileHeader{Filename: "cover.png"}
		deleted := make(chan string, 1)

		storage.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("https://cdn.test/courses/a.png", nil)
		storage.EXPECT().DeleteObject(gomock.Any(), "courses/key").DoAndReturn(func(_ context.Context, key string) error {
			deleted <- key

			return nil
		})
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("database error"))

		_, err := svc.Create(admin(), withThumb)
		require.Error(t, err)
		assert.Equal(t, "courses/key", <-deleted)
	})
}

func TestCourseService_GetAll(t *testing.T) {
	params := gDto.QueryParams{Page: 1, Limit: 10}

	tests := []struct {
		name          string
		ctx           context.Context
		publishedOnly bool
	}{
		{name: "guest", ctx: context.Background(), publishedOnly: true},
		{name: "admin sees drafts", ctx: admin()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, mockCache, svc := setup(t)

			mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
			repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
				_, args := filter.GetWhereClause()
				assert.Equal(t, tt.publishedOnly, args[model.FieldPublished] == true)

				return 1, nil
			})
			repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return([]model.Course{{ID: "c-1", Currency: "USD", Price: 1000}}, nil)

			res, err := svc.GetAll(tt.ctx, params, gDto.FilterGroup{})
			require.NoError(t, err)
			assert.Equal(t, "10.00", res.Data[0].Price)
		})
	}
}

func TestCourseService_Get(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		stored   model.Course
		wantCode int
	}{
		{name: "published", ctx: context.Background(), stored: model.Course{ID: "c-1", Published: true}},
		{name: "draft hidden from guests", ctx: context.Background(), stored: model.Course{ID: "c-1"}, wantCode: 404},
		{name: "draft visible to admins", ctx: admin(), stored: model.Course{ID: "c-1"}},
		{name: "missing", ctx: admin(), stored: model.Course{}, wantCode: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, mockCache, svc := setup(t)

			mockCache.EXPECT().Get(gomock.Any(), "course:get:c-1", gomock.Any()).Return(cache.Nil)
			repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.stored, nil)

			res, err := svc.Get(tt.ctx, "c-1")

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "c-1", res.ID)
		})
	}
}

func TestCourseService_Update(t *testing.T) {
	published := true

	t.Run("publishes", func(t *testing.T) {
		repo, _, _, svc := setup(t)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Course{ID: "c-1"}, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
			assert.Equal(t, true, fields[model.FieldPublished])
			assert.NotContains(t, fields, model.FieldThumbnail)

			return nil
		})

		assert.NoError(t, svc.Update(admin(), dto.UpdateCourseRequest{Published: &published}, "c-1"))
	})

	t.Run("new thumbnail replaces the old one", func(t *testing.T) {
		repo, storage, _, svc := setup(t)
		req := dto.UpdateCourseRequest{Thumbnail: &multipart.FileHeader{Filename: "new.jpg"}}
		deleted := make(chan string, 1)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Course{ID: "c-1", Thumbnail: "https://cdn.test/courses/old.jpg"}, nil)
		storage.EXPECT().UploadFile(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("https://cdn.test/courses/new.jpg", nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
			assert.Equal(t, "https://cdn.test/courses/new.jpg", fields[model.FieldThumbnail])

			return nil
		})
		storage.EXPECT().DeleteObject(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, key string) error {
			deleted <- key

			return nil
		})

		require.NoError(t, svc.Update(admin(), req, "c-1"))
		assert.Equal(t, "courses/key", <-deleted)
	})

	t.Run("empty request", func(t *testing.T) {
		_, _, _, svc := setup(t)

		err := svc.Update(admin(), dto.UpdateCourseRequest{}, "c-1")
		assert.Equal(t, 400, failure.GetCode(err))
	})
}

func TestCourseService_Delete(t *testing.T) {
	t.Run("course with certificates", func(t *testing.T) {
		repo, _, _, svc := setup(t)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Course{ID: "c-1"}, nil)
		repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeFkViolation})

		err := svc.Delete(admin(), "c-1")
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("removes row", func(t *testing.T) {
		repo, _, _, svc := setup(t)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Course{ID: "c-1"}, nil)
		repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, svc.Delete(admin(), "c-1"))
	})
}
