// Package availability enumerates bookable slots for a court and date and
// validates a specific requested window against the operating calendar,
// maintenance blocks, and existing bookings. All conflict checks go
// through the half-open overlap in timeslot.
package availability

import (
	"errors"
	"fmt"
	"time"

	"quickcourt/internal/models"
	"quickcourt/internal/pricing"
	"quickcourt/internal/schedule"
	"quickcourt/internal/timeslot"
)

var (
	ErrCourtInactive         = errors.New("court is not accepting bookings")
	ErrFacilityClosed        = errors.New("facility is closed on this day")
	ErrOutsideOperatingHours = errors.New("requested time is outside operating hours")
	ErrMaintenanceConflict   = errors.New("court is under maintenance at the requested time")
	ErrBookingConflict       = errors.New("time slot overlaps an existing booking")
)

// Slot is a candidate bookable window with its computed price.
type Slot struct {
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	DurationHours float64 `json:"duration_hours"`
	Price         float64 `json:"price"`
	Peak          bool    `json:"peak"`
}

// ListSlots walks the facility's open window in one-hour steps and returns
// every slot that is open, maintenance-free, and clear of the given
// bookings. A closed day yields an empty list, not an error. Only pending
// and confirmed bookings occupy slots; the caller may pass an unfiltered
// list.
func ListSlots(court *models.Court, facility *models.Facility, date time.Time, bookings []*models.Booking) []Slot {
	if !court.IsActive {
		return nil
	}
	if !schedule.IsOpenOn(facility, court, date) {
		return nil
	}
	open, ok := schedule.OpenWindow(facility, date)
	if !ok {
		return nil
	}

	busy := activeIntervals(bookings)

	var slots []Slot
	for start := open.Start; start+models.SlotStepMinutes <= open.End; start += models.SlotStepMinutes {
		candidate, err := timeslot.FromMinutes(start, start+models.SlotStepMinutes)
		if err != nil {
			break
		}
		if schedule.MaintenanceConflict(court, date, candidate) {
			continue
		}
		if overlapsAny(candidate, busy) {
			continue
		}

		quote := pricing.ForInterval(court, facility, candidate)
		slots = append(slots, Slot{
			StartTime:     candidate.StartClock(),
			EndTime:       candidate.EndClock(),
			DurationHours: candidate.Hours(),
			Price:         quote.Total,
			Peak:          quote.Peak,
		})
	}
	return slots
}

// ValidateSlot re-checks a specific requested interval at booking-creation
// time. The first failing condition is returned; a booking conflict names
// the colliding booking id so the caller can offer alternatives.
func ValidateSlot(court *models.Court, facility *models.Facility, date time.Time, interval timeslot.Interval, bookings []*models.Booking) error {
	if !court.IsActive {
		return ErrCourtInactive
	}
	if !schedule.IsOpenOn(facility, court, date) {
		return ErrFacilityClosed
	}
	open, ok := schedule.OpenWindow(facility, date)
	if !ok {
		return ErrFacilityClosed
	}
	if !open.Contains(interval) {
		return fmt.Errorf("%w: open %s", ErrOutsideOperatingHours, open)
	}
	if schedule.MaintenanceConflict(court, date, interval) {
		return ErrMaintenanceConflict
	}

	for _, b := range bookings {
		if b.Status != models.StatusPending && b.Status != models.StatusConfirmed {
			continue
		}
		existing, err := b.Slot.Interval()
		if err != nil {
			continue
		}
		if interval.Overlaps(existing) {
			return fmt.Errorf("%w: booking %s at %s", ErrBookingConflict, b.ID, existing)
		}
	}
	return nil
}

func activeIntervals(bookings []*models.Booking) []timeslot.Interval {
	intervals := make([]timeslot.Interval, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != models.StatusPending && b.Status != models.StatusConfirmed {
			continue
		}
		iv, err := b.Slot.Interval()
		if err != nil {
			continue
		}
		intervals = append(intervals, iv)
	}
	return intervals
}

func overlapsAny(candidate timeslot.Interval, busy []timeslot.Interval) bool {
	for _, iv := range busy {
		if candidate.Overlaps(iv) {
			return true
		}
	}
	return false
}
