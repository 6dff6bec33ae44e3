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
	"tahaworld/infras/otel/mocks"
	bookingMocks "tahaworld/internal/domains/booking/mocks"
	bookingModel "tahaworld/internal/domains/booking/model"
	feedbackMocks "tahaworld/internal/domains/feedback/mocks"
	"tahaworld/internal/domains/feedback/model"
	"tahaworld/internal/domains/feedback/model/dto"
	"tahaworld/internal/domains/feedback/service"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
)

func setup(t *testing.T) (*feedbackMocks.MockFeedback, *bookingMocks.MockBooking, *cacheMocks.MockRedisCache, service.Feedback) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := feedbackMocks.NewMockFeedback(ctrl)
	mockBookings := bookingMocks.NewMockBooking(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return mockRepo, mockBookings, mockCache, service.New(mockRepo, mockBookings, cfg, mockCache, mocks.NewOtel())
}

func as(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func TestFeedbackService_Create(t *testing.T) {
	req := dto.CreateFeedbackRequest{BookingID: "b-1", Rating: 5, Comment: "ممتاز"}
	completed := bookingModel.Booking{ID: "b-1", UserID: "u-1", ConsultationID: "c-1", Status: bookingModel.StatusCompleted}

	tests := []struct {
		name      string
		ctx       context.Context
		setupMock func(repo *feedbackMocks.MockFeedback, bookings *bookingMocks.MockBooking)
		wantCode  int
	}{
		{
			name: "completed booking",
			ctx:  as("u-1", constant.RoleUser),
			setupMock: func(repo *feedbackMocks.MockFeedback, bookings *bookingMocks.MockBooking) {
				bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(completed, nil)
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, f model.Feedback) error {
					assert.Equal(t, "c-1", f.ConsultationID)
					assert.Equal(t, 5, f.Rating)

					return nil
				})
			},
		},
		{
			name: "booking not finished",
			ctx:  as("u-1", constant.RoleUser),
			setupMock: func(_ *feedbackMocks.MockFeedback, bookings *bookingMocks.MockBooking) {
				b := completed
				b.Status = bookingModel.StatusConfirmed
				bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(b, nil)
			},
			wantCode: 409,
		},
		{
			name: "someone else's booking",
			ctx:  as("u-2", constant.RoleUser),
			setupMock: func(_ *feedbackMocks.MockFeedback, bookings *bookingMocks.MockBooking) {
				bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(completed, nil)
			},
			wantCode: 404,
		},
		{
			name: "already reviewed",
			ctx:  as("u-1", constant.RoleUser),
			setupMock: func(repo *feedbackMocks.MockFeedback, bookings *bookingMocks.MockBooking) {
				bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(completed, nil)
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantCode: 409,
		},
		{
			name: "lost the race on the unique index",
			ctx:  as("u-1", constant.RoleUser),
			setupMock: func(repo *feedbackMocks.MockFeedback, bookings *bookingMocks.MockBooking) {
				bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(completed, nil)
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeUniqueViolation})
			},
			wantCode: 409,
		},
		{
			name: "database error",
			ctx:  as("u-1", constant.RoleUser),
			setupMock: func(_ *feedbackMocks.MockFeedback, bookings *bookingMocks.MockBooking) {
				bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(bookingModel.Booking{}, errors.New("database error"))
			},
			wantCode: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, bookings, _, svc := setup(t)
			tt.setupMock(repo, bookings)

			res, err := svc.Create(tt.ctx, req)

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "b-1", res.BookingID)
		})
	}
}

func TestFeedbackService_GetAll(t *testing.T) {
	repo, _, mockCache, svc := setup(t)
	params := gDto.QueryParams{Page: 1, Limit: 10}

	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
	repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return([]model.Feedback{
		{ID: "f-1", Rating: 5, AuthorName: "سارة"},
		{ID: "f-2", Rating: 3},
	}, nil)

	res, err := svc.GetAll(context.Background(), params, gDto.FilterGroup{})
	require.NoError(t, err)
	assert.Len(t, res.Data, 2)
	assert.Equal(t, "سارة", res.Data[0].AuthorName)
	assert.Equal(t, 2, res.Metadata.TotalData)
}

func TestFeedbackService_Summary(t *testing.T) {
	repo, _, mockCache, svc := setup(t)

	mockCache.EXPECT().Get(gomock.Any(), "feedback:summary:c-1", gomock.Any()).Return(cache.Nil)
	repo.EXPECT().Summary(gomock.Any(), "c-1").Return(model.Summary{Average: 4.3333333, Count: 3}, nil)

	res, err := svc.Summary(context.Background(), "c-1")
	require.NoError(t, err)
	assert.InDelta(t, 4.33, res.Average, 0.0001)
	assert.Equal(t, 3, res.Count)
}

func TestFeedbackService_Update(t *testing.T) {
	rating := 4
	req := dto.UpdateFeedbackRequest{Rating: &rating}
	stored := model.Feedback{ID: "f-1", UserID: "u-1", ConsultationID: "c-1"}

	t.Run("author edits", func(t *testing.T) {
		repo, _, _, svc := setup(t)
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
			assert.Equal(t, 4, fields[model.FieldRating])

			return nil
		})

		assert.NoError(t, svc.Update(as("u-1", constant.RoleUser), req, "f-1"))
	})

	t.Run("admin cannot rewrite a review", func(t *testing.T) {
		repo, _, _, svc := setup(t)
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)

		err := svc.Update(as("admin-1", constant.RoleAdmin), req, "f-1")
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("empty request", func(t *testing.T) {
		_, _, _, svc := setup(t)

		err := svc.Update(as("u-1", constant.RoleUser), dto.UpdateFeedbackRequest{}, "f-1")
		assert.Equal(t, 400, failure.GetCode(err))
	})
}

func TestFeedbackService_Delete(t *testing.T) {
	stored := model.Feedback{ID: "f-1", UserID: "u-1", ConsultationID: "c-1"}

	tests := []struct {
		name     string
		ctx      context.Context
		deletes  bool
		wantCode int
	}{
		{name: "author", ctx: as("u-1", constant.RoleUser), deletes: true},
		{name: "admin", ctx: as("admin-1", constant.RoleAdmin), deletes: true},
		{name: "other user", ctx: as("u-2", constant.RoleUser), wantCode: 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, _, _, svc := setup(t)
			repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)

			if tt.deletes {
				repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
			}

			err := svc.Delete(tt.ctx, "f-1")

			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}
