package models

import (
	"strings"
	"time"
)

// MaintenanceBlock subtracts availability on a single calendar date
// regardless of operating hours. Blocks spanning midnight are not
// supported; a block must start and end on the same day.
type MaintenanceBlock struct {
	Date        time.Time `yaml:"date" json:"date"`
	StartTime   string    `yaml:"start_time" json:"start_time"`
	EndTime     string    `yaml:"end_time" json:"end_time"`
	Description string    `yaml:"description" json:"description"`
	Completed   bool      `yaml:"completed" json:"completed"`
}

// OnDate reports whether the block applies to the given calendar date.
func (m MaintenanceBlock) OnDate(date time.Time) bool {
	return m.Date.Year() == date.Year() && m.Date.YearDay() == date.YearDay()
}

type Court struct {
	ID         int64  `yaml:"id" json:"id"`
	FacilityID int64  `yaml:"facility_id" json:"facility_id"`
	Name       string `yaml:"name" json:"name"`
	Sport      string `yaml:"sport" json:"sport"`

	HourlyRate       float64 `yaml:"hourly_rate" json:"hourly_rate"`
	MinDurationHours float64 `yaml:"min_duration_hours" json:"min_duration_hours"`

	// DaysClosed lists lowercase weekday names on which this court is
	// unavailable even when the facility is open.
	DaysClosed  []string           `yaml:"days_closed" json:"days_closed,omitempty"`
	Maintenance []MaintenanceBlock `yaml:"maintenance" json:"maintenance,omitempty"`

	IsActive      bool  `yaml:"is_active" json:"is_active"`
	TotalBookings int64 `yaml:"-" json:"total_bookings"`
}

// AvailableOn reports whether the court takes bookings on the weekday.
func (c *Court) AvailableOn(day time.Weekday) bool {
	name := strings.ToLower(day.String())
	for _, d := range c.DaysClosed {
		if strings.ToLower(strings.TrimSpace(d)) == name {
			return false
		}
	}
	return true
}

// MinDuration returns the court's minimum booking duration in hours,
// never below the global floor.
func (c *Court) MinDuration() float64 {
	if c.MinDurationHours < MinDurationHours {
		return MinDurationHours
	}
	return c.MinDurationHours
}
