package dto

import "math"

type Pagination struct {
	TotalData int `json:"total_data"`
	TotalPage int `json:"total_page"`
	Page      int `json:"page"`
	Limit     int `json:"limit"`
}

// Page is the envelope every list endpoint answers with.
type Page[T any] struct {
	Data     []T        `json:"data"`
	Metadata Pagination `json:"metadata"`
}

func NewPagination(totalData int, params QueryParams) Pagination {
	totalPage := 1
	if totalData > 0 && params.Limit > 0 {
		totalPage = int(math.Ceil(float64(totalData) / float64(params.Limit)))
	}

	return Pagination{
		TotalData: totalData,
		TotalPage: totalPage,
		Page:      params.Page,
		Limit:     params.Limit,
	}
}

// NewPage maps models through convert and attaches the pagination metadata.
func NewPage[M, T any](models []M, totalData int, params QueryParams, convert func(M) T) Page[T] {
	data := make([]T, len(models))
	for i, mod := range models {
		data[i] = convert(mod)
	}

	return Page[T]{
		Data:     data,
		Metadata: NewPagination(totalData, params),
	}
}
