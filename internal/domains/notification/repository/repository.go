package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"strings"
	"tahaworld/infras/otel"
	"tahaworld/infras/postgres"
	"tahaworld/internal/domains/notification/model"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	gRepo "tahaworld/shared/repository"
)

type Notification interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Notification, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Notification, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpdateCount(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	InsertIdempotent(ctx context.Context, notification model.Notification) (bool, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Notification]
	db          *postgres.Connection
	otel        otel.Otel
	insertQuery string
}

func New(db *postgres.Connection, otel otel.Otel) Notification {
	repo := gRepo.NewRepository[model.Notification](model.EntityName, model.TableName, model.FieldID, db, otel)

	placeholders := make([]string, 0, len(repo.InsertColumns))
	for _, col := range repo.InsertColumns {
		placeholders = append(placeholders, ":"+col)
	}

	insertQuery := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s, %s) DO NOTHING",
		model.TableName, strings.Join(repo.InsertColumns, ", "), strings.Join(placeholders, ", "),
		model.FieldEventID, model.FieldUserID,
	)

	return &repositoryImpl{
		Repository:  repo,
		db:          db,
		otel:        otel,
		insertQuery: insertQuery,
	}
}

// InsertIdempotent stores the notification unless the recipient already got one for the same event.
func (r *repositoryImpl) InsertIdempotent(ctx context.Context, notification model.Notification) (inserted bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".notification.InsertIdempotent")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	res, err := r.db.Write.NamedExecContext(ctx, r.insertQuery, notification)
	if err != nil {
		return false, fmt.Errorf("failed to insert notification: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read inserted notifications: %w", err)
	}

	return affected > 0, nil
}
