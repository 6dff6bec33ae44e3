package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=./mocks/event_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tahaworld/config"
	"tahaworld/infras/kafka"
	"tahaworld/infras/otel"
	"tahaworld/shared/constant"
	"time"

	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
)

const (
	TypeBookingCreated     = "booking.created"
	TypeBookingConfirmed   = "booking.confirmed"
	TypeBookingCancelled   = "booking.cancelled"
	TypeBookingCompleted   = "booking.completed"
	TypeBookingRescheduled = "booking.rescheduled"

	TypePaymentCompleted       = "payment.completed"
	TypePaymentFailed          = "payment.failed"
	TypePaymentRefunded        = "payment.refunded"
	TypePaymentReceiptUploaded = "payment.receipt_uploaded"
)

// BookingEvent is the payload carried on the booking topic.
type BookingEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	UserID         string    `json:"user_id"`
	ConsultationID string    `json:"consultation_id"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	PaymentMethod  string    `json:"payment_method"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	StartTime      time.Time `json:"start_time"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func New(eventType string, occurredAt time.Time) BookingEvent {
	return BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: occurredAt,
	}
}

type Publisher interface {
	Publish(ctx context.Context, events ...BookingEvent) error
}

type kafkaPublisher struct {
	client kafka.Client
	topic  string
	otel   otel.Otel
}

func NewPublisher(client kafka.Client, cfg *config.Config, otl otel.Otel) Publisher {
	return &kafkaPublisher{
		client: client,
		topic:  cfg.External.Kafka.BookingTopic,
		otel:   otl,
	}
}

// Publish keys every message by booking id so one booking's events stay ordered within a partition.
func (p *kafkaPublisher) Publish(ctx context.Context, events ...BookingEvent) (err error) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".Publish")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, len(events))
	for i, evt := range events {
		messages[i] = kafka.Message{Key: evt.BookingID, Value: evt}
	}

	scope.SetAttribute("event.type", events[0].Type)

	if err = p.client.SendMessages(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("failed to publish booking events: %w", err)
	}

	return nil
}

// Decode turns a raw kafka message back into a BookingEvent.
func Decode(msg kafkaGo.Message) (BookingEvent, error) {
	decoded, err := kafka.DecodeKafkaMessage[BookingEvent](msg)
	if err != nil {
		return BookingEvent{}, fmt.Errorf("failed to decode booking event: %w", err)
	}

	evt, ok := decoded.Value.(BookingEvent)
	if !ok {
		return BookingEvent{}, fmt.Errorf("unexpected booking event payload %T", decoded.Value)
	}

	return evt, nil
}
