package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahaworld/internal/domains/timeslot/model"
	"tahaworld/shared/timezone"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := timezone.Parse(timezone.DateLayout, value)
	require.NoError(t, err)

	return parsed
}

func TestPlan(t *testing.T) {
	past := day(t, "2020-01-01")

	t.Run("fills each matching day back to back with gaps", func(t *testing.T) {
		// 2030-01-07 is a Monday.
		window := model.Window{
			From:     day(t, "2030-01-07"),
			To:       day(t, "2030-01-13"),
			Weekdays: []time.Weekday{time.Monday, time.Wednesday},
			DayStart: "09:00",
			DayEnd:   "11:00",
			Gap:      15 * time.Minute,
		}

		planned, err := model.Plan(window, 45*time.Minute, past)
		require.NoError(t, err)
		require.Len(t, planned, 4)

		assert.Equal(t, "2030-01-07 09:00", timezone.Format(planned[0].Start, "2006-01-02 15:04"))
		assert.Equal(t, "2030-01-07 09:45", timezone.Format(planned[0].End, "2006-01-02 15:04"))
		assert.Equal(t, "2030-01-07 10:00", timezone.Format(planned[1].Start, "2006-01-02 15:04"))
		assert.Equal(t, "2030-01-09 09:00", timezone.Format(planned[2].Start, "2006-01-02 15:04"))
	})

	t.Run("no weekdays means every day", func(t *testing.T) {
		window := model.Window{From: day(t, "2030-01-07"), To: day(t, "2030-01-09"), DayStart: "10:00", DayEnd: "11:00"}

		planned, err := model.Plan(window, time.Hour, past)
		require.NoError(t, err)
		assert.Len(t, planned, 3)
	})

	t.Run("skips slots that already started", func(t *testing.T) {
		window := model.Window{From: day(t, "2030-01-07"), To: day(t, "2030-01-07"), DayStart: "09:00", DayEnd: "12:00"}
		now, err := timezone.At(day(t, "2030-01-07"), "10:00")
		require.NoError(t, err)

		planned, err := model.Plan(window, time.Hour, now)
		require.NoError(t, err)
		require.Len(t, planned, 1)
		assert.Equal(t, "11:00", timezone.Format(planned[0].Start, timezone.ClockLayout))
	})

	invalid := []struct {
		name     string
		window   model.Window
		duration time.Duration
	}{
		{name: "reversed dates", window: model.Window{From: day(t, "2030-01-09"), To: day(t, "2030-01-07"), DayStart: "09:00", DayEnd: "10:00"}, duration: time.Hour},
		{name: "reversed clock", window: model.Window{From: day(t, "2030-01-07"), To: day(t, "2030-01-07"), DayStart: "10:00", DayEnd: "09:00"}, duration: time.Hour},
		{name: "window too long", window: model.Window{From: day(t, "2030-01-01"), To: day(t, "2030-06-01"), DayStart: "09:00", DayEnd: "10:00"}, duration: time.Hour},
		{name: "zero duration", window: model.Window{From: day(t, "2030-01-07"), To: day(t, "2030-01-07"), DayStart: "09:00", DayEnd: "10:00"}},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Plan(tt.window, tt.duration, past)
			assert.ErrorIs(t, err, model.ErrInvalidWindow)
		})
	}
}

func TestTimeSlot_Overlaps(t *testing.T) {
	start := day(t, "2030-01-07").Add(9 * time.Hour)
	slot := model.TimeSlot{StartTime: start, EndTime: start.Add(time.Hour)}

	assert.True(t, slot.Overlaps(start.Add(30*time.Minute), start.Add(90*time.Minute)))
	assert.False(t, slot.Overlaps(start.Add(time.Hour), start.Add(2*time.Hour)))
	assert.False(t, slot.Overlaps(start.Add(-time.Hour), start))
}
