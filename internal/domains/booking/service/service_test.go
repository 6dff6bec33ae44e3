package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	otelMocks "tahaworld/infras/otel/mocks"
	bookingMocks "tahaworld/internal/domains/booking/mocks"
	"tahaworld/internal/domains/booking/model"
	"tahaworld/internal/domains/booking/model/dto"
	"tahaworld/internal/domains/booking/service"
	consultationMocks "tahaworld/internal/domains/consultation/mocks"
	consultationModel "tahaworld/internal/domains/consultation/model"
	timeslotMocks "tahaworld/internal/domains/timeslot/mocks"
	timeslotModel "tahaworld/internal/domains/timeslot/model"
	"tahaworld/shared/cache"
	cacheMocks "tahaworld/shared/cache/mocks"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	eventMocks "tahaworld/shared/event/mocks"
	"tahaworld/shared/failure"
	lockMocks "tahaworld/shared/lock/mocks"
	"tahaworld/shared/timezone"
)

type fixture struct {
	repo          *bookingMocks.MockBooking
	consultations *consultationMocks.MockConsultation
	slots         *timeslotMocks.MockTimeSlot
	locker        *lockMocks.MockLocker
	publisher     *eventMocks.MockPublisher
	cache         *cacheMocks.MockRedisCache
	svc           service.Booking
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		repo:          bookingMocks.NewMockBooking(ctrl),
		consultations: consultationMocks.NewMockConsultation(ctrl),
		slots:         timeslotMocks.NewMockTimeSlot(ctrl),
		locker:        lockMocks.NewMockLocker(ctrl),
		publisher:     eventMocks.NewMockPublisher(ctrl),
		cache:         cacheMocks.NewMockRedisCache(ctrl),
	}

	cfg := &config.Config{}
	cfg.Booking.HoldMinutes = 30
	cfg.Booking.LockTTLSeconds = 10
	cfg.Booking.MinLeadMinutes = 60

	f.svc = service.New(f.repo, f.consultations, f.slots, f.locker, f.publisher, cfg, f.cache, otelMocks.NewOtel())

	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return f
}

func (f fixture) lockGranted() {
	f.locker.EXPECT().Acquire(gomock.Any(), "slot:s-1", 10*time.Second).Return("token", true, nil)
	f.locker.EXPECT().Release(gomock.Any(), "slot:s-1", "token").Return(nil)
}

func as(userID, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

var (
	consultation = consultationModel.Consultation{ID: "c-1", Active: true, PriceAmount: 25000, Currency: "SAR", DurationMinutes: 60}
	createReq    = dto.CreateBookingRequest{ConsultationID: "c-1", TimeSlotID: "s-1", PaymentMethod: model.MethodStripe}
)

func openSlot() timeslotModel.TimeSlot {
	start := timezone.Now().Add(48 * time.Hour)

	return timeslotModel.TimeSlot{ID: "s-1", ConsultationID: "c-1", StartTime: start, EndTime: start.Add(time.Hour), IsAvailable: true}
}

func TestBookingService_Create(t *testing.T) {
	t.Run("reserves the slot as a pending hold", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(consultation, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(openSlot(), nil)
		f.lockGranted()
		f.repo.EXPECT().CreateReserved(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b model.Booking, _ time.Time) error {
			assert.Equal(t, model.StatusPending, b.Status)
			assert.Equal(t, model.PaymentPending, b.PaymentStatus)
			assert.Equal(t, int64(25000), b.Amount)
			assert.Equal(t, "SAR", b.Currency)
			assert.Equal(t, "u-1", b.UserID)

			return nil
		})

		res, err := f.svc.Create(as("u-1", constant.RoleUser), createReq)
		require.NoError(t, err)
		assert.Equal(t, "250.00", res.Price)
		assert.Equal(t, model.StatusPending, res.Status)
	})

	t.Run("lock held by another booker", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(consultation, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(openSlot(), nil)
		f.locker.EXPECT().Acquire(gomock.Any(), "slot:s-1", gomock.Any()).Return("", false, nil)

		_, err := f.svc.Create(as("u-1", constant.RoleUser), createReq)
		assert.Equal(t, 409, failure.GetCode(err))
		assert.EqualError(t, err, "slot is being booked")
	})

	t.Run("slot lost inside the transaction", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(consultation, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(openSlot(), nil)
		f.lockGranted()
		f.repo.EXPECT().CreateReserved(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.ErrSlotUnavailable)

		_, err := f.svc.Create(as("u-1", constant.RoleUser), createReq)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("slot already booked", func(t *testing.T) {
		f := newFixture(t)
		taken := openSlot()
		taken.IsAvailable = false
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(consultation, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(taken, nil)

		_, err := f.svc.Create(as("u-1", constant.RoleUser), createReq)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("slot of another consultation", func(t *testing.T) {
		f := newFixture(t)
		other := openSlot()
		other.ConsultationID = "c-2"
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(consultation, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(other, nil)

		_, err := f.svc.Create(as("u-1", constant.RoleUser), createReq)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("inactive consultation", func(t *testing.T) {
		f := newFixture(t)
		f.consultations.EXPECT().Get(gomock.Any(), gomock.Any()).Return(consultationModel.Consultation{ID: "c-1"}, nil)

		_, err := f.svc.Create(as("u-1", constant.RoleUser), createReq)
		assert.Equal(t, 400, failure.GetCode(err))
	})
}

func TestBookingService_GetAll_ScopesUsers(t *testing.T) {
	f := newFixture(t)
	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(cache.Nil)
	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
		where, args := filter.GetWhereClause()
		assert.Contains(t, where, "bookings.user_id = :owner_id")
		assert.Equal(t, "u-1", args["owner_id"])

		return 0, nil
	})
	f.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := f.svc.GetAll(as("u-1", constant.RoleUser), gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})
	require.NoError(t, err)
}

func TestBookingService_Get_HidesOtherUsers(t *testing.T) {
	f := newFixture(t)
	f.cache.EXPECT().Get(gomock.Any(), "booking:get:b-1", gomock.Any()).Return(cache.Nil)
	f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{ID: "b-1", UserID: "u-2", Currency: "USD"}, nil)

	_, err := f.svc.Get(as("u-1", constant.RoleUser), "b-1")
	assert.Equal(t, 404, failure.GetCode(err))
}

func TestBookingService_Cancel(t *testing.T) {
	future := timezone.Now().Add(24 * time.Hour)
	past := timezone.Now().Add(-time.Hour)

	tests := []struct {
		name     string
		ctx      context.Context
		booking  model.Booking
		repoErr  error
		wantCode int
	}{
		{
			name:    "owner cancels a pending hold",
			ctx:     as("u-1", constant.RoleUser),
			booking: model.Booking{ID: "b-1", UserID: "u-1", TimeSlotID: "s-1", Status: model.StatusPending, PaymentStatus: model.PaymentPending, SlotStart: future},
		},
		{
			name:    "owner cancels a paid booking before it starts",
			ctx:     as("u-1", constant.RoleUser),
			booking: model.Booking{ID: "b-1", UserID: "u-1", Status: model.StatusConfirmed, PaymentStatus: model.PaymentCompleted, SlotStart: future},
		},
		{
			name:     "owner is too late",
			ctx:      as("u-1", constant.RoleUser),
			booking:  model.Booking{ID: "b-1", UserID: "u-1", Status: model.StatusConfirmed, PaymentStatus: model.PaymentCompleted, SlotStart: past},
			wantCode: 409,
		},
		{
			name:    "admin may cancel after the start",
			ctx:     as("a-1", constant.RoleAdmin),
			booking: model.Booking{ID: "b-1", UserID: "u-1", Status: model.StatusConfirmed, PaymentStatus: model.PaymentCompleted, SlotStart: past},
		},
		{
			name:     "terminal booking",
			ctx:      as("u-1", constant.RoleUser),
			booking:  model.Booking{ID: "b-1", UserID: "u-1", Status: model.StatusCompleted, PaymentStatus: model.PaymentCompleted},
			wantCode: 409,
		},
		{
			name:     "someone else's booking",
			ctx:      as("u-9", constant.RoleUser),
			booking:  model.Booking{ID: "b-1", UserID: "u-1", Status: model.StatusPending, PaymentStatus: model.PaymentPending},
			wantCode: 404,
		},
		{
			name:     "lost race",
			ctx:      as("u-1", constant.RoleUser),
			booking:  model.Booking{ID: "b-1", UserID: "u-1", Status: model.StatusPending, PaymentStatus: model.PaymentPending, SlotStart: future},
			repoErr:  model.ErrStaleBooking,
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(tt.booking, nil)
			f.repo.EXPECT().ApplyTransition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, transition model.Transition, _ time.Time, _ string) error {
					assert.Equal(t, model.StatusCancelled, transition.Status)
					assert.Empty(t, transition.PaymentStatus)
					assert.True(t, transition.ReleaseSlot)
					assert.Equal(t, "changed plans", transition.Fields[model.FieldCancelReason])

					return tt.repoErr
				}).MaxTimes(1)

			err := f.svc.Cancel(tt.ctx, "b-1", dto.CancelBookingRequest{Reason: "changed plans"})
			if tt.wantCode != 0 {
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestBookingService_Confirm(t *testing.T) {
	admin := as("a-1", constant.RoleAdmin)

	t.Run("unpaid card booking is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(model.Booking{ID: "b-1", Status: model.StatusPending, PaymentStatus: model.PaymentFailed, PaymentMethod: model.MethodStripe}, nil)

		err := f.svc.Confirm(admin, "b-1", dto.ConfirmBookingRequest{})
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("transfer with an uploaded receipt", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{
			ID: "b-1", Status: model.StatusPending, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodBankTransfer, ReceiptURL: "https://cdn/r.png",
		}, nil)
		f.repo.EXPECT().ApplyTransition(gomock.Any(), gomock.Any(), gomock.Any(), "a-1").
			DoAndReturn(func(_ context.Context, transition model.Transition, _ time.Time, _ string) error {
				assert.Equal(t, "https://meet.example.com/x", transition.Fields[model.FieldMeetingLink])

				return nil
			})

		require.NoError(t, f.svc.Confirm(admin, "b-1", dto.ConfirmBookingRequest{MeetingLink: "https://meet.example.com/x"}))
	})
}

func TestBookingService_Complete(t *testing.T) {
	t.Run("pending booking", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{ID: "b-1", Status: model.StatusPending, PaymentStatus: model.PaymentPending}, nil)

		err := f.svc.Complete(as("a-1", constant.RoleAdmin), "b-1")
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("transfer receipt not yet verified", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{
			ID: "b-1", Status: model.StatusConfirmed, PaymentStatus: model.PaymentPending, PaymentMethod: model.MethodBankTransfer, ReceiptURL: "https://cdn/r.png",
		}, nil)

		err := f.svc.Complete(as("a-1", constant.RoleAdmin), "b-1")
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

func TestBookingService_Reschedule(t *testing.T) {
	current := model.Booking{ID: "b-1", UserID: "u-1", ConsultationID: "c-1", TimeSlotID: "s-0", Status: model.StatusConfirmed, PaymentStatus: model.PaymentCompleted}

	t.Run("moves to a free slot", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(current, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(openSlot(), nil)
		f.lockGranted()
		f.repo.EXPECT().Reschedule(gomock.Any(), current, "s-1", gomock.Any(), "u-1").Return(nil)

		require.NoError(t, f.svc.Reschedule(as("u-1", constant.RoleUser), "b-1", dto.RescheduleBookingRequest{TimeSlotID: "s-1"}))
	})

	t.Run("other consultation", func(t *testing.T) {
		f := newFixture(t)
		other := openSlot()
		other.ConsultationID = "c-2"
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(current, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(other, nil)

		err := f.svc.Reschedule(as("u-1", constant.RoleUser), "b-1", dto.RescheduleBookingRequest{TimeSlotID: "s-1"})
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("cancelled booking", func(t *testing.T) {
		f := newFixture(t)
		cancelled := current
		cancelled.Status = model.StatusCancelled
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cancelled, nil)

		err := f.svc.Reschedule(as("u-1", constant.RoleUser), "b-1", dto.RescheduleBookingRequest{TimeSlotID: "s-1"})
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("new slot taken meanwhile", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(current, nil)
		f.slots.EXPECT().Get(gomock.Any(), gomock.Any()).Return(openSlot(), nil)
		f.lockGranted()
		f.repo.EXPECT().Reschedule(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(model.ErrSlotUnavailable)

		err := f.svc.Reschedule(as("u-1", constant.RoleUser), "b-1", dto.RescheduleBookingRequest{TimeSlotID: "s-1"})
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

func TestBookingService_Stats(t *testing.T) {
	f := newFixture(t)
	f.cache.EXPECT().Get(gomock.Any(), model.CacheStats, gomock.Any()).Return(cache.Nil)
	f.repo.EXPECT().Stats(gomock.Any()).Return(model.Stats{
		ByStatus:        map[string]int{model.StatusConfirmed: 3},
		ByPaymentStatus: map[string]int{model.PaymentCompleted: 3},
		Revenue:         map[string]int64{"KWD": 45500, "USD": 12000},
	}, nil)

	res, err := f.svc.Stats(as("a-1", constant.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, 3, res.ByStatus[model.StatusConfirmed])
	assert.Equal(t, "45.500", res.Revenue["KWD"])
	assert.Equal(t, "120.00", res.Revenue["USD"])
}

func TestBookingService_ExpirePending(t *testing.T) {
	t.Run("releases expired holds", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().ExpirePending(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cutoff time.Time) ([]model.Booking, error) {
			assert.WithinDuration(t, timezone.Now().Add(-30*time.Minute), cutoff, time.Minute)

			return []model.Booking{{ID: "b-1"}, {ID: "b-2"}}, nil
		})

		count, err := f.svc.ExpirePending(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("database error", func(t *testing.T) {
		f := newFixture(t)
		f.repo.EXPECT().ExpirePending(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := f.svc.ExpirePending(context.Background())
		assert.Error(t, err)
	})
}
