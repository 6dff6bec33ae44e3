package model

import (
	"fmt"
	"slices"
	"tahaworld/shared/timezone"
	"time"
)

const (
	maxWindowDays = 92
	maxPlanned    = 2000
)

// Window describes a recurring weekly availability in the application timezone.
type Window struct {
	From     time.Time
	To       time.Time
	Weekdays []time.Weekday
	DayStart string
	DayEnd   string
	Gap      time.Duration
}

type Interval struct {
	Start time.Time
	End   time.Time
}

// Plan lays slots of duration back to back (plus gap) inside every matching day of the window.
// Slots starting at or before now are skipped.
func Plan(window Window, duration time.Duration, now time.Time) ([]Interval, error) {
	if duration <= 0 || window.Gap < 0 {
		return nil, fmt.Errorf("%w: duration and gap must be positive", ErrInvalidWindow)
	}

	from := timezone.StartOfDay(window.From)
	to := timezone.StartOfDay(window.To)

	if to.Before(from) {
		return nil, fmt.Errorf("%w: to_date is before from_date", ErrInvalidWindow)
	}

	if to.Sub(from) > maxWindowDays*24*time.Hour {
		return nil, fmt.Errorf("%w: window is longer than %d days", ErrInvalidWindow, maxWindowDays)
	}

	var planned []Interval

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if len(window.Weekdays) > 0 && !slices.Contains(window.Weekdays, day.Weekday()) {
			continue
		}

		dayStart, err := timezone.At(day, window.DayStart)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWindow, err)
		}

		dayEnd, err := timezone.At(day, window.DayEnd)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWindow, err)
		}

		if !dayEnd.After(dayStart) {
			return nil, fmt.Errorf("%w: day_end must be after day_start", ErrInvalidWindow)
		}

		for cur := dayStart; !cur.Add(duration).After(dayEnd); cur = cur.Add(duration + window.Gap) {
			if !cur.After(now) {
				continue
			}

			planned = append(planned, Interval{Start: cur, End: cur.Add(duration)})

			if len(planned) > maxPlanned {
				return nil, fmt.Errorf("%w: more than %d slots requested", ErrInvalidWindow, maxPlanned)
			}
		}
	}

	return planned, nil
}
