package worker

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"tahaworld/config"
	"tahaworld/infras/kafka"
	"tahaworld/infras/otel"
	bookingService "tahaworld/internal/domains/booking/service"
	notificationService "tahaworld/internal/domains/notification/service"
	"tahaworld/shared/constant"
	"tahaworld/shared/event"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

const defaultConsumerGroup = "tahaworld-notifications"

// Worker runs the background side of the platform: it releases expired booking holds and turns booking
// events into in-app notifications.
type Worker struct {
	config       *config.Config
	kafka        kafka.Client
	booking      bookingService.Booking
	notification notificationService.Notification
	otel         otel.Otel
}

func New(
	cfg *config.Config,
	kafka kafka.Client,
	booking bookingService.Booking,
	notification notificationService.Notification,
	otel otel.Otel,
) *Worker {
	return &Worker{
		config:       cfg,
		kafka:        kafka,
		booking:      booking,
		notification: notification,
		otel:         otel,
	}
}

// Serve blocks until SIGINT or SIGTERM.
func (w *Worker) Serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("Starting up worker.")

	if err := w.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Worker stopped with an error")
	}

	if err := w.kafka.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close kafka client")
	}

	log.Info().Msg("Worker shut down.")
}

// Run starts the sweeper and the consumer and returns once both have stopped.
func (w *Worker) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		w.sweep(ctx)

		return nil
	})

	group.Go(func() error {
		kafkaCfg := w.config.External.Kafka

		consumerGroup := kafkaCfg.ConsumerGroup
		if consumerGroup == constant.Empty {
			consumerGroup = defaultConsumerGroup
		}

		if err := w.kafka.Consume(ctx, consumerGroup, kafkaCfg.BookingTopic, w.HandleMessage); err != nil {
			return fmt.Errorf("booking event consumer stopped: %w", err)
		}

		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err //nolint:wrapcheck
	}

	return nil
}

// HandleMessage decodes one booking event and records its notifications. Undecodable messages are
// dropped so they do not block the partition.
func (w *Worker) HandleMessage(ctx context.Context, msg kafkaGo.Message) (err error) {
	ctx, scope := w.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".HandleMessage")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	evt, err := event.Decode(msg)
	if err != nil {
		log.Error().Err(err).Int64("offset", msg.Offset).Msg("dropping undecodable booking event")

		return nil
	}

	scope.SetAttributes(map[string]any{
		"event.id":   evt.ID,
		"event.type": evt.Type,
		"booking.id": evt.BookingID,
	})

	if err = w.notification.HandleEvent(ctx, evt); err != nil {
		return fmt.Errorf("failed to handle %s event %s: %w", evt.Type, evt.ID, err)
	}

	return nil
}

// Sweep releases expired holds once.
func (w *Worker) Sweep(ctx context.Context) {
	ctx, scope := w.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".Sweep")
	defer scope.End()

	count, err := w.booking.ExpirePending(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to expire pending bookings")

		return
	}

	if count > 0 {
		log.Info().Int("count", count).Msg("released expired booking holds")
	}
}

func (w *Worker) sweep(ctx context.Context) {
	interval := time.Duration(w.config.Booking.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}
