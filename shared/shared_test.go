package shared_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahaworld/shared"
	"tahaworld/shared/constant"
	"tahaworld/shared/dto"
)

func TestConvertStringToBool(t *testing.T) {
	tests := []struct {
		input    string
		expected *bool
	}{
		{input: "", expected: nil},
		{input: "true", expected: ptr(true)},
		{input: "0", expected: ptr(false)},
		{input: "F", expected: ptr(false)},
		{input: "نعم", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, shared.ConvertStringToBool(tt.input))
		})
	}
}

func TestConvertStringToInt64(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *int64
	}{
		{name: "empty", input: "", expected: nil},
		{name: "minor units", input: "15000", expected: ptr(int64(15000))},
		{name: "zero is kept", input: "0", expected: ptr(int64(0))},
		{name: "decimal is rejected", input: "150.00", expected: nil},
		{name: "garbage", input: "abc", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shared.ConvertStringToInt64(tt.input))
		})
	}
}

func TestTransformFields(t *testing.T) {
	type update struct {
		Title    *string `db:"title_ar"`
		Price    *int64  `db:"price_amount"`
		Active   *bool   `db:"active"`
		Notes    string  `db:"notes"`
		Internal string
	}

	title := "جلسة تعريفية"
	price := int64(0)
	inactive := false

	fields := shared.TransformFields(update{Title: &title, Price: &price, Active: &inactive, Internal: "x"}, "admin-1")

	assert.Equal(t, title, fields["title_ar"])
	assert.Equal(t, int64(0), fields["price_amount"], "pointer to a zero value is still an update")
	assert.Equal(t, false, fields["active"])
	assert.NotContains(t, fields, "notes")
	assert.NotContains(t, fields, "Internal")
	assert.Equal(t, "admin-1", fields[constant.FieldModifiedBy])
	assert.IsType(t, time.Time{}, fields[constant.FieldModifiedAt])
	assert.Len(t, fields, 5)
}

func TestFilterBy(t *testing.T) {
	filter := shared.FilterByID("b-1", "id", "bookings")

	require.Len(t, filter.Filters, 1)
	assert.Equal(t, dto.Filter{Field: "id", Value: "b-1", Operator: dto.FilterOperatorEq, Table: "bookings"}, filter.Filters[0])

	where, args := filter.GetWhereClause()
	assert.Contains(t, where, "bookings.id = :id")
	assert.Equal(t, "b-1", args["id"])
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "booking:get", shared.BuildCacheKey("booking:get"))
	assert.Equal(t, "booking:get:b-1", shared.BuildCacheKey("booking:get", "b-1"))
	assert.Equal(t, "auth:revoked:jti-1", shared.RevokedTokenKey("jti-1"))
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}

	first := dto.FilterGroup{}
	first.AddEq("status", "pending", "bookings")
	first.AddEq("user_id", "u-1", "bookings")

	same := dto.FilterGroup{}
	same.AddEq("status", "pending", "bookings")
	same.AddEq("user_id", "u-1", "bookings")

	other := dto.FilterGroup{}
	other.AddEq("status", "pending", "bookings")
	other.AddEq("user_id", "u-2", "bookings")

	key := shared.BuildCacheKeyWithQuery("booking:all", params, first)

	assert.Regexp(t, `^booking:all:[0-9a-f]{40}$`, key)
	assert.Equal(t, key, shared.BuildCacheKeyWithQuery("booking:all", params, same))
	assert.NotEqual(t, key, shared.BuildCacheKeyWithQuery("booking:all", params, other))
	assert.NotEqual(t, key, shared.BuildCacheKeyWithQuery("booking:all", dto.QueryParams{Page: 2, Limit: 10}, first))
}

func TestCallerFromContext(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		isAdmin bool
	}{
		{name: "superadmin", role: constant.RoleSuperAdmin, isAdmin: true},
		{name: "admin", role: constant.RoleAdmin, isAdmin: true},
		{name: "client", role: constant.RoleUser},
		{name: "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.role != constant.Empty {
				ctx = context.WithValue(ctx, constant.ContextKeyUserID, "u-1")
				ctx = context.WithValue(ctx, constant.ContextKeyUserRole, tt.role)
			}

			assert.Equal(t, tt.isAdmin, shared.IsAdmin(ctx))
			assert.Equal(t, tt.role, shared.UserRole(ctx))

			if tt.role == constant.Empty {
				assert.Empty(t, shared.UserID(ctx))
			} else {
				assert.Equal(t, "u-1", shared.UserID(ctx))
			}
		})
	}
}

func TestPostgresViolations(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: constant.PqErrorCodeUniqueViolation, Constraint: "certificates_user_id_course_id_key"})
	foreign := &pq.Error{Code: constant.PqErrorCodeFkViolation}

	assert.True(t, shared.IsUniqueViolation(unique))
	assert.True(t, shared.IsUniqueViolation(unique, "certificates_user_id_course_id_key"))
	assert.False(t, shared.IsUniqueViolation(unique, "certificates_verification_code_key"))
	assert.False(t, shared.IsUniqueViolation(foreign))
	assert.False(t, shared.IsUniqueViolation(errors.New("boom")))

	assert.True(t, shared.IsForeignKeyViolation(foreign))
	assert.False(t, shared.IsForeignKeyViolation(unique))
}

func ptr[T any](v T) *T {
	return &v
}
