package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	otelMocks "tahaworld/infras/otel/mocks"
	consultationMocks "tahaworld/internal/domains/consultation/mocks"
	consultationModel "tahaworld/internal/domains/consultation/model"
	timeslotMocks "tahaworld/internal/domains/timeslot/mocks"
	"tahaworld/internal/domains/timeslot/model"
	"tahaworld/internal/domains/timeslot/model/dto"
	"tahaworld/internal/domains/timeslot/service"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/timezone"
)

type fixture struct {
	repo          *timeslotMocks.MockTimeSlot
	consultations *consultationMocks.MockConsultation
	cache         *cacheMocks.MockRedisCache
	svc           service.TimeSlot
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:          timeslotMocks.NewMockTimeSlot(ctrl),
		consultations: consultationMocks.NewMockConsultation(ctrl),
		cache:         cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Booking.MinLeadMinutes = 60

	f.svc = service.New(f.repo, f.consultations, cfg, f.cache, otelMocks.NewOtel())

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func admin() context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAdmin)
}

var hourLong = consultationModel.Consultation{ID: "c-1", DurationMinutes: 60, Active: true}

func TestTimeSlotService_Create(t *testing.T) {
	start := timezone.Now().Add(48 * time.Hour).Truncate(time.Minute)

	t.Run("end time follows the consultation duration", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hourLong, nil)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, slot model.TimeSlot) error {
			assert.Equal(t, start.Add(time.Hour), slot.EndTime)
			assert.True(t, slot.IsAvailable)

			return nil
		})

		res, err := f.svc.Create(admin(), dto.CreateTimeSlotRequest{ConsultationID: "c-1", StartTime: start})
		require.NoError(t, err)
		assert.True(t, res.IsAvailable)
	})

	t.Run("overlap is a conflict", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hourLong, nil)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (bool, error) {
			where, args := filter.GetWhereClause()
			assert.Contains(t, where, "time_slots.start_time < :overlap_end")
			assert.Contains(t, where, "time_slots.end_time > :overlap_start")
			assert.Equal(t, start, args["overlap_start"])

			return true, nil
		})

		_, err := f.svc.Create(admin(), dto.CreateTimeSlotRequest{ConsultationID: "c-1", StartTime: start})
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hourLong, nil)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeUniqueViolation})

		_, err := f.svc.Create(admin(), dto.CreateTimeSlotRequest{ConsultationID: "c-1", StartTime: start})
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("past start is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Create(admin(), dto.CreateTimeSlotRequest{ConsultationID: "c-1", StartTime: timezone.Now().Add(-time.Hour)})
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("unknown consultation", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(consultationModel.Consultation{}, nil)

		_, err := f.svc.Create(admin(), dto.CreateTimeSlotRequest{ConsultationID: "c-404", StartTime: start})
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestTimeSlotService_Generate(t *testing.T) {
	from := timezone.Now().AddDate(0, 0, 7)
	req := dto.GenerateTimeSlotsRequest{
		ConsultationID: "c-1",
		FromDate:       timezone.Format(from, timezone.DateLayout),
		ToDate:         timezone.Format(from, timezone.DateLayout),
		DayStart:       "09:00",
		DayEnd:         "12:00",
	}

	f := newFixture(t)
	f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hourLong, nil)

	taken, err := timezone.At(from, "10:30")
	require.NoError(t, err)

	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.TimeSlot{{ID: "s-0", StartTime: taken, EndTime: taken.Add(time.Hour)}}, nil)
	f.repo.EXPECT().InsertBulk(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, slots []model.TimeSlot) error {
		require.Len(t, slots, 1)
		assert.Equal(t, "09:00", timezone.Format(slots[0].StartTime, timezone.ClockLayout))

		return nil
	})

	res, err := f.svc.Generate(admin(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Skipped)
}

func TestTimeSlotService_Generate_InvalidWindow(t *testing.T) {
	f := newFixture(t)
	f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(hourLong, nil)

	_, err := f.svc.Generate(admin(), dto.GenerateTimeSlotsRequest{
		ConsultationID: "c-1",
		FromDate:       "2030-01-07",
		ToDate:         "2030-01-07",
		DayStart:       "12:00",
		DayEnd:         "09:00",
	})
	assert.Equal(t, 400, failure.GetCode(err))
}

func TestTimeSlotService_GetAvailable(t *testing.T) {
	f := newFixture(t)
	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
		where, args := filter.GetWhereClause()
		assert.Contains(t, where, "time_slots.is_available = :is_available")

		from, ok := args["window_from"].(time.Time)
		require.True(t, ok)
		assert.True(t, from.After(timezone.Now().Add(59*time.Minute)))

		return 1, nil
	})
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.TimeSlot, error) {
			assert.Equal(t, model.FieldStartTime, params.SortBy)
			assert.Equal(t, gDto.SortDirAsc, params.SortDir)

			return []model.TimeSlot{{ID: "s-1", IsAvailable: true}}, nil
		})

	params := gDto.QueryParams{Page: 1, Limit: 10, SortBy: constant.DefaultValueSortBy}

	page, err := f.svc.GetAvailable(context.Background(), params, "c-1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
}

func TestTimeSlotService_Update(t *testing.T) {
	start := timezone.Now().Add(72 * time.Hour).Truncate(time.Minute)
	current := model.TimeSlot{ID: "s-1", ConsultationID: "c-1", StartTime: start, EndTime: start.Add(time.Hour), IsAvailable: true}

	t.Run("moves an open slot", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(current, nil)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (bool, error) {
			_, args := filter.GetWhereClause()
			assert.Equal(t, "s-1", args["exclude_id"])

			return false, nil
		})
		f.repo.EXPECT().UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
			assert.Equal(t, start.Add(3*time.Hour), fields[model.FieldEndTime])

			return 1, nil
		})

		require.NoError(t, f.svc.Update(admin(), dto.UpdateTimeSlotRequest{StartTime: start.Add(2 * time.Hour)}, "s-1"))
	})

	t.Run("booked slot cannot move", func(t *testing.T) {
		f := newFixture(t)
		booked := current
		booked.IsAvailable = false
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booked, nil)

		err := f.svc.Update(admin(), dto.UpdateTimeSlotRequest{StartTime: start.Add(2 * time.Hour)}, "s-1")
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("booked between read and write", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(current, nil)
		f.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		f.repo.EXPECT().UpdateCount(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)

		err := f.svc.Update(admin(), dto.UpdateTimeSlotRequest{StartTime: start.Add(2 * time.Hour)}, "s-1")
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

func TestTimeSlotService_Delete(t *testing.T) {
	slot := model.TimeSlot{ID: "s-1", IsAvailable: true}

	tests := []struct {
		name     string
		setup    func(f fixture)
		wantCode int
	}{
		{
			name: "open slot",
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(slot, nil)
				f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "booked slot",
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.TimeSlot{ID: "s-1"}, nil)
			},
			wantCode: 409,
		},
		{
			name: "history references the slot",
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(slot, nil)
				f.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeFkViolation})
			},
			wantCode: 409,
		},
		{
			name: "missing",
			setup: func(f fixture) {
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.TimeSlot{}, nil)
			},
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)

			err := f.svc.Delete(admin(), "s-1")
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
		})
	}
}
