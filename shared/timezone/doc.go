// Package timezone keeps every wall clock computation in the configured APP_TIMEZONE.
//
//	now := timezone.Now()
//	day, _ := timezone.Parse(timezone.DateLayout, "2025-03-01")
//	start, _ := timezone.At(day, "09:30")
//
// Values are stored as timestamptz, so the location only matters when a date or a clock
// has to be interpreted, as with slot generation windows.
package timezone
