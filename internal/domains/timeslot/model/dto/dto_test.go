package dto_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahaworld/internal/domains/timeslot/model/dto"
	"tahaworld/shared/failure"
	"tahaworld/shared/timezone"
)

func TestAvailabilityWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, timezone.GetLocation())

	t.Run("defaults to thirty days from now", func(t *testing.T) {
		from, to, err := dto.AvailabilityWindow(url.Values{}, now)
		require.NoError(t, err)
		assert.Equal(t, now, from)
		assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, timezone.GetLocation()), to)
	})

	t.Run("to is inclusive", func(t *testing.T) {
		from, to, err := dto.AvailabilityWindow(url.Values{"from": {"2025-03-12"}, "to": {"2025-03-12"}}, now)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, to.Sub(from))
	})

	tests := []struct {
		name  string
		query url.Values
	}{
		{name: "bad from", query: url.Values{"from": {"12/03/2025"}}},
		{name: "bad to", query: url.Values{"to": {"tomorrow"}}},
		{name: "to before from", query: url.Values{"from": {"2025-03-12"}, "to": {"2025-03-11"}}},
		{name: "window too wide", query: url.Values{"from": {"2025-03-12"}, "to": {"2025-12-31"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := dto.AvailabilityWindow(tt.query, now)
			assert.Equal(t, 400, failure.GetCode(err))
		})
	}
}

func TestFilterFromQuery(t *testing.T) {
	filter := dto.FilterFromQuery(url.Values{"consultation_id": {"c-1"}, "is_available": {"false"}})

	where, args := filter.GetWhereClause()
	assert.Contains(t, where, "time_slots.consultation_id")
	assert.Equal(t, "c-1", args["consultation_id"])
	assert.Equal(t, false, args["is_available"])
}
