package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"tahaworld/infras/otel"
	"tahaworld/infras/postgres"
	"tahaworld/internal/domains/feedback/model"
	"tahaworld/shared/constant"
	gDto "tahaworld/shared/dto"
	gRepo "tahaworld/shared/repository"
)

const summaryQuery = `
SELECT COALESCE(AVG(rating), 0)::float8 AS average, COUNT(*) AS count
FROM consultation_feedback WHERE consultation_id = $1`

type Feedback interface {
	Insert(ctx context.Context, model model.Feedback) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Feedback, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Feedback, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	Summary(ctx context.Context, consultationID string) (model.Summary, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Feedback]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Feedback {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Feedback](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// Summary averages the ratings of one consultation.
func (r *repositoryImpl) Summary(ctx context.Context, consultationID string) (res model.Summary, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".feedback.Summary")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = r.db.Read.GetContext(ctx, &res, summaryQuery, consultationID); err != nil {
		return res, fmt.Errorf("failed to summarise feedback: %w", err)
	}

	return res, nil
}
