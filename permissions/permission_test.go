package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahaworld/permissions"
)

func TestGet(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)
	assert.NotEmpty(t, data.Endpoints)
}

func TestFindPermissions(t *testing.T) {
	data := permissions.Get()
	require.NotNil(t, data)

	tests := []struct {
		name     string
		path     string
		method   string
		skip     bool
		contains string
		excludes string
	}{
		{name: "sub-router root with trailing slash", path: "/v1/courses/", method: "GET", skip: true},
		{name: "admin route", path: "/v1/courses/{id}", method: "DELETE", contains: "admin"},
		{name: "webhook is public", path: "/v1/payments/webhooks/stripe", method: "POST", skip: true},
		{name: "verification is public", path: "/v1/certificates/verify/{code}", method: "GET", skip: true},
		{name: "clients may book", path: "/v1/bookings", method: "POST", contains: "user"},
		{name: "lower case method", path: "/v1/bookings/stats", method: "get", contains: "admin"},
		{name: "payment sync is admin only", path: "/v1/payments/{id}/sync", method: "POST", contains: "admin", excludes: "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			permission := data.FindPermissions(tt.path, tt.method)
			assert.Equal(t, tt.skip, permission.Skip)

			if tt.contains != "" {
				assert.Contains(t, permission.Permissions, tt.contains)
			}

			if tt.excludes != "" {
				assert.NotContains(t, permission.Permissions, tt.excludes)
			}
		})
	}

	t.Run("unknown route", func(t *testing.T) {
		assert.Equal(t, permissions.Permission{}, data.FindPermissions("/v1/nope", "GET"))
	})
}
