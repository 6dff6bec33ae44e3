package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"tahaworld/infras/otel"
	"tahaworld/infras/postgres"
	"tahaworld/internal/domains/timeslot/model"
	gDto "tahaworld/shared/dto"
	gRepo "tahaworld/shared/repository"
	"time"
)

type TimeSlot interface {
	Insert(ctx context.Context, model model.TimeSlot) error
	InsertBulk(ctx context.Context, models []model.TimeSlot) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.TimeSlot, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.TimeSlot, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpdateCount(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.TimeSlot]
}

func New(db *postgres.Connection, otel otel.Otel) TimeSlot {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.TimeSlot](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

// OverlapFilter matches slots of consultationID intersecting [start, end), other than excludeID.
func OverlapFilter(consultationID string, start, end time.Time, excludeID string) gDto.FilterGroup {
	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldConsultationID, Value: consultationID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStartTime, ArgName: "overlap_end", Value: end, Operator: gDto.FilterOperatorLess, Table: model.TableName},
			gDto.Filter{Field: model.FieldEndTime, ArgName: "overlap_start", Value: start, Operator: gDto.FilterOperatorGreater, Table: model.TableName},
		},
	}

	if excludeID != "" {
		filter.Add(gDto.Filter{Field: model.FieldID, ArgName: "exclude_id", Value: excludeID, Operator: gDto.FilterOperatorNotEq, Table: model.TableName})
	}

	return filter
}

// WindowFilter matches slots of consultationID starting within [from, to].
func WindowFilter(consultationID string, from, to time.Time) gDto.FilterGroup {
	filter := gDto.FilterGroup{}
	filter.AddEq(model.FieldConsultationID, consultationID, model.TableName)

	if !from.IsZero() {
		filter.Add(gDto.Filter{Field: model.FieldStartTime, ArgName: "window_from", Value: from, Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName})
	}

	if !to.IsZero() {
		filter.Add(gDto.Filter{Field: model.FieldStartTime, ArgName: "window_to", Value: to, Operator: gDto.FilterOperatorLessEq, Table: model.TableName})
	}

	return filter
}
