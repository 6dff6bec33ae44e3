package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tahaworld/infras/otel"
	"tahaworld/infras/postgres"
	"tahaworld/internal/domains/user/model"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	gRepo "tahaworld/shared/repository"
	"time"
)

type User interface {
	Insert(ctx context.Context, model model.User) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.User, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.User, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	Dashboard(ctx context.Context, userID string, now time.Time) (model.Dashboard, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.User]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) User {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.User](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

const dashboardQuery = `
SELECT
	(SELECT COUNT(*) FROM bookings b JOIN time_slots s ON s.id = b.time_slot_id
		WHERE b.user_id = :user_id AND b.status = 'confirmed' AND s.start_time > :now) AS upcoming_bookings,
	(SELECT COUNT(*) FROM bookings
		WHERE user_id = :user_id AND status = 'pending' AND payment_status IN ('pending', 'failed')) AS pending_payment_bookings,
	(SELECT COUNT(*) FROM bookings
		WHERE user_id = :user_id AND status = 'completed') AS completed_bookings,
	(SELECT COUNT(*) FROM booking_notifications
		WHERE user_id = :user_id AND is_read = FALSE) AS unread_notifications,
	(SELECT COUNT(*) FROM certificates
		WHERE user_id = :user_id AND revoked_at IS NULL) AS certificates`

func (r *repositoryImpl) Dashboard(ctx context.Context, userID string, now time.Time) (res model.Dashboard, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".user.Dashboard")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(constant.OtelQueryAttributeKey, dashboardQuery)

	stmt, err := r.db.Read.PrepareNamedContext(ctx, dashboardQuery)
	if err != nil {
		return res, fmt.Errorf("failed to prepare dashboard query: %w", err)
	}
	defer stmt.Close()

	if err = stmt.GetContext(ctx, &res, map[string]any{"user_id": userID, "now": now}); err != nil {
		return res, fmt.Errorf("failed to load dashboard: %w", err)
	}

	return res, nil
}
