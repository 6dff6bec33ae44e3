package dto_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahaworld/shared/constant"
	"tahaworld/shared/dto"
	"tahaworld/shared/model"
	"tahaworld/shared/timezone"
)

func TestMetadata_FromModel(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	modifiedAt := createdAt.Add(time.Hour)

	metadata := dto.Metadata{}
	metadata.FromModel(model.Metadata{CreatedAt: createdAt, ModifiedAt: modifiedAt, CreatedBy: "admin-1", ModifiedBy: "admin-2"})

	assert.Equal(t, timezone.Format(createdAt, constant.DateFormat), metadata.CreatedAt)
	assert.Equal(t, timezone.Format(modifiedAt, constant.DateFormat), metadata.ModifiedAt)
	assert.Equal(t, "admin-1", metadata.CreatedBy)
	assert.Equal(t, "admin-2", metadata.ModifiedBy)
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		defaults bool
		expected dto.QueryParams
	}{
		{
			name:     "explicit values",
			query:    "page=2&limit=20&sort_by=start_time&sort_dir=asc",
			expected: dto.QueryParams{Page: 2, Limit: 20, SortBy: "start_time", SortDir: dto.SortDirAsc},
		},
		{
			name:     "defaults applied",
			defaults: true,
			expected: dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "nothing without defaults",
			expected: dto.QueryParams{},
		},
		{
			name:     "invalid numbers fall back",
			query:    "page=-1&limit=abc",
			defaults: true,
			expected: dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name:     "limit is capped",
			query:    "limit=5000",
			defaults: true,
			expected: dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.MaxValueLimit},
		},
		{
			name:     "unknown sort direction is dropped",
			query:    "sort_dir=sideways",
			expected: dto.QueryParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/bookings?"+tt.query, nil)

			params := dto.QueryParams{}
			params.FromRequest(req, tt.defaults)

			assert.Equal(t, tt.expected, params)
		})
	}
}

func TestNewPage(t *testing.T) {
	page := dto.NewPage([]int{1, 2, 3}, 23, dto.QueryParams{Page: 2, Limit: 10}, func(v int) string {
		return string(rune('a' + v - 1))
	})

	assert.Equal(t, []string{"a", "b", "c"}, page.Data)
	assert.Equal(t, dto.Pagination{TotalData: 23, TotalPage: 3, Page: 2, Limit: 10}, page.Metadata)

	empty := dto.NewPage([]int{}, 0, dto.QueryParams{Page: 1, Limit: 10}, func(v int) int { return v })

	assert.NotNil(t, empty.Data)
	assert.Equal(t, 1, empty.Metadata.TotalPage)
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	t.Run("empty group", func(t *testing.T) {
		group := dto.FilterGroup{}
		group.AddEq("status", "", "bookings")

		where, args := group.GetWhereClause()
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("nested or group", func(t *testing.T) {
		title := dto.FilterGroup{Operator: dto.FilterGroupOperatorOr}
		title.Add(
			dto.Filter{Field: "title_ar", ArgName: "title_ar", Value: "قيادة", Operator: dto.FilterOperatorLike, Table: "courses"},
			dto.Filter{Field: "title_en", ArgName: "title_en", Value: "قيادة", Operator: dto.FilterOperatorLike, Table: "courses"},
		)

		group := dto.FilterGroup{}
		group.AddEq("published", "true", "courses")
		group.Add(title)

		where, args := group.GetWhereClause()

		assert.Equal(t, "(courses.published = :published AND (LOWER(courses.title_ar) LIKE LOWER(:title_ar)  OR LOWER(courses.title_en) LIKE LOWER(:title_en) ))", where)
		assert.Equal(t, "%قيادة%", args["title_ar"])
		assert.Equal(t, "true", args["published"])
	})

	t.Run("in and arg names", func(t *testing.T) {
		group := dto.FilterGroup{}
		group.Add(
			dto.Filter{Field: "status", Value: []string{"pending", "confirmed"}, Operator: dto.FilterOperatorIn, Table: "bookings"},
			dto.Filter{Field: "created_at", ArgName: "cutoff", Value: 5, Operator: dto.FilterOperatorLess, Table: "bookings"},
		)

		where, args := group.GetWhereClause()

		assert.Contains(t, where, "bookings.status IN (:status_0, :status_1)")
		assert.Contains(t, where, "bookings.created_at < :cutoff")
		require.Len(t, args, 3)
		assert.Equal(t, "confirmed", args["status_1"])
		assert.Equal(t, 5, args["cutoff"])
	})
}
