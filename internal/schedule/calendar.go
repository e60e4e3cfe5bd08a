// Package schedule answers whether a court is theoretically open for a
// window on a date, from the facility's weekly operating hours, the
// court's per-weekday overrides, and its maintenance blocks.
package schedule

import (
	"time"

	"quickcourt/internal/models"
	"quickcourt/internal/timeslot"
)

// IsOpenOn reports only the open/closed flag for the weekday of date.
// Containment of a requested window inside open hours is the availability
// resolver's job, not this one's.
func IsOpenOn(facility *models.Facility, court *models.Court, date time.Time) bool {
	day := date.Weekday()
	if !facility.HoursFor(day).IsOpen {
		return false
	}
	return court.AvailableOn(day)
}

// OpenWindow returns the facility's open interval for the weekday of date.
// The second return is false when the facility is closed that day or its
// configured hours do not parse.
func OpenWindow(facility *models.Facility, date time.Time) (timeslot.Interval, bool) {
	w := facility.HoursFor(date.Weekday())
	if !w.IsOpen {
		return timeslot.Interval{}, false
	}
	iv, err := timeslot.NewInterval(w.OpenTime, w.CloseTime)
	if err != nil {
		return timeslot.Interval{}, false
	}
	return iv, true
}

// MaintenanceConflict reports whether any maintenance block on that exact
// calendar date overlaps the interval. Completed blocks no longer subtract
// availability. Blocks are single-day; one spanning midnight must be
// entered as two blocks.
func MaintenanceConflict(court *models.Court, date time.Time, interval timeslot.Interval) bool {
	for _, block := range court.Maintenance {
		if block.Completed || !block.OnDate(date) {
			continue
		}
		blocked, err := timeslot.NewInterval(block.StartTime, block.EndTime)
		if err != nil {
			continue
		}
		if interval.Overlaps(blocked) {
			return true
		}
	}
	return false
}
