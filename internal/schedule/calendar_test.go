package schedule

import (
	"testing"
	"time"

	"quickcourt/internal/models"
	"quickcourt/internal/timeslot"

	"github.com/stretchr/testify/assert"
)

func testFacility() *models.Facility {
	return &models.Facility{
		ID:   1,
		Name: "Arena One",
		Hours: map[string]models.OperatingWindow{
			"monday":  {IsOpen: true, OpenTime: "06:00", CloseTime: "22:00"},
			"tuesday": {IsOpen: false},
		},
	}
}

// 2025-09-01 is a Monday.
var monday = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
var tuesday = monday.AddDate(0, 0, 1)
var wednesday = monday.AddDate(0, 0, 2)

func TestIsOpenOn(t *testing.T) {
	fac := testFacility()
	court := &models.Court{ID: 1, FacilityID: 1, IsActive: true}

	assert.True(t, IsOpenOn(fac, court, monday))
	assert.False(t, IsOpenOn(fac, court, tuesday))

	// Missing weekday entry falls back to the open default.
	assert.True(t, IsOpenOn(fac, court, wednesday))

	// A court day-off overrides an open facility.
	court.DaysClosed = []string{"monday"}
	assert.False(t, IsOpenOn(fac, court, monday))
	assert.True(t, IsOpenOn(fac, court, wednesday))
}

func TestOpenWindow(t *testing.T) {
	fac := testFacility()

	iv, ok := OpenWindow(fac, monday)
	assert.True(t, ok)
	assert.Equal(t, "06:00-22:00", iv.String())

	_, ok = OpenWindow(fac, tuesday)
	assert.False(t, ok)
}

func TestMaintenanceConflict(t *testing.T) {
	court := &models.Court{
		ID: 1,
		Maintenance: []models.MaintenanceBlock{
			{Date: monday, StartTime: "09:00", EndTime: "11:00", Description: "resurfacing"},
		},
	}

	window := func(start, end string) timeslot.Interval {
		iv, err := timeslot.NewInterval(start, end)
		assert.NoError(t, err)
		return iv
	}

	assert.True(t, MaintenanceConflict(court, monday, window("10:00", "12:00")))
	assert.True(t, MaintenanceConflict(court, monday, window("08:00", "09:30")))

	// Abutting the block is fine.
	assert.False(t, MaintenanceConflict(court, monday, window("11:00", "12:00")))
	assert.False(t, MaintenanceConflict(court, monday, window("07:00", "09:00")))

	// Same window on another date is unaffected.
	assert.False(t, MaintenanceConflict(court, tuesday, window("10:00", "12:00")))

	// Completed blocks stop subtracting availability.
	court.Maintenance[0].Completed = true
	assert.False(t, MaintenanceConflict(court, monday, window("10:00", "12:00")))
}
