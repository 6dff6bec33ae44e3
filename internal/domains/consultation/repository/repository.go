package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tahaworld/infras/otel"
	"tahaworld/infras/postgres"
	"tahaworld/internal/domains/consultation/model"
	gDto "tahaworld/shared/dto"
	gRepo "tahaworld/shared/repository"
)

type Consultation interface {
	Insert(ctx context.Context, model model.Consultation) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Consultation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Consultation, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Consultation]
}

func New(db *postgres.Connection, otel otel.Otel) Consultation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Consultation](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
