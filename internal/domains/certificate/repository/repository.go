package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tahaworld/infras/otel"
	"tahaworld/infras/postgres"
	"tahaworld/internal/domains/certificate/model"
	gDto "tahaworld/shared/dto"
	gRepo "tahaworld/shared/repository"
)

type Certificate interface {
	Insert(ctx context.Context, model model.Certificate) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Certificate, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Certificate, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpdateCount(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Certificate]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Certificate {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Certificate](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}
