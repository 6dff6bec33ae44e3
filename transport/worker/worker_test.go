package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tahaworld/config"
	"tahaworld/infras/kafka"
	kafkaMocks "tahaworld/infras/kafka/mocks"
	otelMocks "tahaworld/infras/otel/mocks"
	bookingMocks "tahaworld/internal/domains/booking/service/mocks"
	notificationMocks "tahaworld/internal/domains/notification/service/mocks"
	"tahaworld/shared/event"
	"tahaworld/transport/worker"
)

type fixture struct {
	kafka        *kafkaMocks.MockClient
	booking      *bookingMocks.MockBooking
	notification *notificationMocks.MockNotification
	worker       *worker.Worker
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	cfg := &config.Config{}
	cfg.External.Kafka.BookingTopic = "booking-events"
	cfg.Booking.SweepIntervalSeconds = 3600

	f := fixture{
		kafka:        kafkaMocks.NewMockClient(ctrl),
		booking:      bookingMocks.NewMockBooking(ctrl),
		notification: notificationMocks.NewMockNotification(ctrl),
	}
	f.worker = worker.New(cfg, f.kafka, f.booking, f.notification, otelMocks.NewOtel())

	return f
}

func encode(t *testing.T, evt event.BookingEvent) kafkaGo.Message {
	t.Helper()

	message := kafka.Message{Key: evt.BookingID, Value: evt}

	msg, err := message.ToKafkaMessage()
	require.NoError(t, err)

	return msg
}

func TestWorker_HandleMessage(t *testing.T) {
	evt := event.New(event.TypeBookingConfirmed, time.Now())
	evt.BookingID = "b-1"

	t.Run("forwards the event", func(t *testing.T) {
		f := newFixture(t)
		f.notification.EXPECT().HandleEvent(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, got event.BookingEvent) error {
			assert.Equal(t, evt.ID, got.ID)
			assert.Equal(t, "b-1", got.BookingID)

			return nil
		})

		assert.NoError(t, f.worker.HandleMessage(context.Background(), encode(t, evt)))
	})

	t.Run("drops undecodable payloads", func(t *testing.T) {
		f := newFixture(t)

		assert.NoError(t, f.worker.HandleMessage(context.Background(), kafkaGo.Message{Value: []byte("{not json")}))
	})

	t.Run("handler failure keeps the offset", func(t *testing.T) {
		f := newFixture(t)
		f.notification.EXPECT().HandleEvent(gomock.Any(), gomock.Any()).Return(errors.New("database error"))

		assert.Error(t, f.worker.HandleMessage(context.Background(), encode(t, evt)))
	})
}

func TestWorker_Sweep(t *testing.T) {
	t.Run("releases holds", func(t *testing.T) {
		f := newFixture(t)
		f.booking.EXPECT().ExpirePending(gomock.Any()).Return(2, nil)

		f.worker.Sweep(context.Background())
	})

	t.Run("errors are logged", func(t *testing.T) {
		f := newFixture(t)
		f.booking.EXPECT().ExpirePending(gomock.Any()).Return(0, errors.New("database error"))

		f.worker.Sweep(context.Background())
	})
}

func TestWorker_Run(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())

	f.booking.EXPECT().ExpirePending(gomock.Any()).Return(0, nil).MinTimes(1)
	f.kafka.EXPECT().Consume(gomock.Any(), "tahaworld-notifications", "booking-events", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, _ kafka.Handler) error {
			cancel()
			<-ctx.Done()

			return nil
		})

	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
