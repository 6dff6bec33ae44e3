package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tahaworld/infras/otel"
	"tahaworld/infras/postgres"
	"tahaworld/internal/domains/booking/model"
	"tahaworld/shared"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	gRepo "tahaworld/shared/repository"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Booking interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	CreateReserved(ctx context.Context, booking model.Booking, earliest time.Time) error
	ApplyTransition(ctx context.Context, transition model.Transition, now time.Time, user string) error
	Reschedule(ctx context.Context, current model.Booking, newSlotID string, earliest time.Time, user string) error
	ExpirePending(ctx context.Context, cutoff time.Time) ([]model.Booking, error)
	Stats(ctx context.Context) (model.Stats, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

const (
	reserveSlotQuery = `
UPDATE time_slots SET is_available = FALSE, modified_at = now()
WHERE id = $1 AND consultation_id = $2 AND is_available AND start_time > $3`

	releaseSlotQuery = `UPDATE time_slots SET is_available = TRUE, modified_at = now() WHERE id = ANY($1)`

	insertEventQuery = `
INSERT INTO payment_events (provider, event_id, booking_id, outcome, created_at)
VALUES (:provider, :event_id, :booking_id, :outcome, :created_at)
ON CONFLICT (provider, event_id) DO NOTHING`

	expirePendingQuery = `
UPDATE bookings
SET status = 'cancelled', cancel_reason = $2, cancelled_at = now(), modified_at = now(), modified_by = $3
WHERE status = 'pending' AND payment_status IN ('pending', 'failed') AND receipt_url = '' AND created_at < $1
RETURNING id, user_id, consultation_id, time_slot_id, status, payment_status, payment_method, amount, currency`

	statusCountQuery  = `SELECT status AS key, COUNT(*) AS total FROM bookings GROUP BY status`
	paymentCountQuery = `SELECT payment_status AS key, COUNT(*) AS total FROM bookings GROUP BY payment_status`
	revenueQuery      = `SELECT currency AS key, COALESCE(SUM(amount), 0) AS total FROM bookings WHERE payment_status = 'completed' GROUP BY currency`

	expiredReason = "hold expired"
)

// CreateReserved flips the slot to unavailable and inserts the booking in one transaction.
// ErrSlotUnavailable is returned when the slot is taken, started or belongs to another consultation.
func (r *repositoryImpl) CreateReserved(ctx context.Context, booking model.Booking, earliest time.Time) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.CreateReserved")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := reserve(ctx, tx, booking.TimeSlotID, booking.ConsultationID, earliest); err != nil {
			return err
		}

		if err := r.InsertTx(ctx, tx, booking); err != nil {
			if shared.IsUniqueViolation(err) {
				return model.ErrSlotUnavailable
			}

			return err //nolint:wrapcheck
		}

		return nil
	})
}

// ApplyTransition writes transition with compare and swap on (status, payment_status). A payment
// event, when present, is recorded in the same transaction so it is applied at most once.
func (r *repositoryImpl) ApplyTransition(ctx context.Context, transition model.Transition, now time.Time, user string) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.ApplyTransition")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	current := transition.Current

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if transition.Event != nil {
			res, err := tx.NamedExecContext(ctx, insertEventQuery, transition.Event)
			if err != nil {
				return fmt.Errorf("failed to record payment event: %w", err)
			}

			if affected, _ := res.RowsAffected(); affected == 0 {
				return model.ErrDuplicateEvent
			}
		}

		affected, err := r.UpdateCountTx(ctx, tx, transition.Changes(now, user), casFilter(current))
		if err != nil {
			return err //nolint:wrapcheck
		}

		if affected == 0 {
			return model.ErrStaleBooking
		}

		if transition.ReleaseSlot {
			if _, err := tx.ExecContext(ctx, releaseSlotQuery, pq.Array([]string{current.TimeSlotID})); err != nil {
				return fmt.Errorf("failed to release slot: %w", err)
			}
		}

		return nil
	})
}

// Reschedule reserves newSlotID, points the booking at it and releases the old slot atomically.
func (r *repositoryImpl) Reschedule(ctx context.Context, current model.Booking, newSlotID string, earliest time.Time, user string) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Reschedule")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := reserve(ctx, tx, newSlotID, current.ConsultationID, earliest); err != nil {
			return err
		}

		filter := casFilter(current)
		filter.Add(gDto.Filter{Field: model.FieldTimeSlotID, ArgName: "expected_slot", Value: current.TimeSlotID, Operator: gDto.FilterOperatorEq, Table: model.TableName})

		changes := shared.TransformFields(struct{}{}, user)
		changes[model.FieldTimeSlotID] = newSlotID

		affected, err := r.UpdateCountTx(ctx, tx, changes, filter)
		if err != nil {
			if shared.IsUniqueViolation(err) {
				return model.ErrSlotUnavailable
			}

			return err //nolint:wrapcheck
		}

		if affected == 0 {
			return model.ErrStaleBooking
		}

		if _, err := tx.ExecContext(ctx, releaseSlotQuery, pq.Array([]string{current.TimeSlotID})); err != nil {
			return fmt.Errorf("failed to release slot: %w", err)
		}

		return nil
	})
}

// ExpirePending cancels unpaid holds created before cutoff and frees their slots.
func (r *repositoryImpl) ExpirePending(ctx context.Context, cutoff time.Time) (expired []model.Booking, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.ExpirePending")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	err = r.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &expired, expirePendingQuery, cutoff, expiredReason, constant.ContextSystem); err != nil {
			return fmt.Errorf("failed to expire pending bookings: %w", err)
		}

		if len(expired) == 0 {
			return nil
		}

		slots := make([]string, len(expired))
		for i, booking := range expired {
			slots[i] = booking.TimeSlotID
		}

		if _, err := tx.ExecContext(ctx, releaseSlotQuery, pq.Array(slots)); err != nil {
			return fmt.Errorf("failed to release expired slots: %w", err)
		}

		return nil
	})

	return expired, err
}

func (r *repositoryImpl) Stats(ctx context.Context) (res model.Stats, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Stats")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	var byStatus, byPayment, revenue []model.Count

	if err = r.db.Read.SelectContext(ctx, &byStatus, statusCountQuery); err != nil {
		return res, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	if err = r.db.Read.SelectContext(ctx, &byPayment, paymentCountQuery); err != nil {
		return res, fmt.Errorf("failed to count bookings by payment status: %w", err)
	}

	if err = r.db.Read.SelectContext(ctx, &revenue, revenueQuery); err != nil {
		return res, fmt.Errorf("failed to sum revenue: %w", err)
	}

	res.ByStatus = make(map[string]int, len(byStatus))
	for _, count := range byStatus {
		res.ByStatus[count.Key] = int(count.Total)
	}

	res.ByPaymentStatus = make(map[string]int, len(byPayment))
	for _, count := range byPayment {
		res.ByPaymentStatus[count.Key] = int(count.Total)
	}

	res.Revenue = make(map[string]int64, len(revenue))
	for _, sum := range revenue {
		res.Revenue[sum.Key] = sum.Total
	}

	return res, nil
}

func reserve(ctx context.Context, tx *sqlx.Tx, slotID, consultationID string, earliest time.Time) error {
	res, err := tx.ExecContext(ctx, reserveSlotQuery, slotID, consultationID, earliest)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserved rows: %w", err)
	}

	if affected == 0 {
		return model.ErrSlotUnavailable
	}

	return nil
}

func casFilter(current model.Booking) gDto.FilterGroup {
	filter := shared.FilterByID(current.ID, model.FieldID, model.TableName)
	filter.Add(
		gDto.Filter{Field: model.FieldStatus, ArgName: "expected_status", Value: current.Status, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		gDto.Filter{Field: model.FieldPaymentStatus, ArgName: "expected_payment_status", Value: current.PaymentStatus, Operator: gDto.FilterOperatorEq, Table: model.TableName},
	)

	return filter
}
