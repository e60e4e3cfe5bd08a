package models

import (
	"math"
	"time"

	"quickcourt/internal/timeslot"
)

// TimeSlot carries the booked window. Start and end are canonical HH:MM
// strings; DurationHours is derived from them and never set independently.
type TimeSlot struct {
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	DurationHours float64 `json:"duration_hours"`
}

// Interval converts the slot back to minute offsets.
func (s TimeSlot) Interval() (timeslot.Interval, error) {
	return timeslot.NewInterval(s.StartTime, s.EndTime)
}

// Pricing is frozen at creation time. Later changes to court rates never
// touch an existing booking.
type Pricing struct {
	BasePrice      float64 `json:"base_price"`
	PeakMultiplier float64 `json:"peak_multiplier"`
	TotalAmount    float64 `json:"total_amount"`
	Currency       string  `json:"currency"`
}

type Payment struct {
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	OrderID       string     `json:"order_id,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	PaidAmount    float64    `json:"paid_amount"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	RefundAmount  float64    `json:"refund_amount"`
	RefundedAt    *time.Time `json:"refunded_at,omitempty"`
}

// Cancellation is populated only when the booking status becomes cancelled.
type Cancellation struct {
	CancelledAt  time.Time `json:"cancelled_at"`
	CancelledBy  int64     `json:"cancelled_by"`
	Reason       string    `json:"reason"`
	RefundAmount float64   `json:"refund_amount"`
}

type Booking struct {
	ID           string        `json:"id"`
	UserID       int64         `json:"user_id"`
	FacilityID   int64         `json:"facility_id"`
	CourtID      int64         `json:"court_id"`
	Date         time.Time     `json:"date"`
	Slot         TimeSlot      `json:"time_slot"`
	Pricing      Pricing       `json:"pricing"`
	Payment      Payment       `json:"payment"`
	Status       string        `json:"status"`
	Cancellation *Cancellation `json:"cancellation,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Version      int64         `json:"version"`
}

// StartInstant is the absolute moment the booking begins.
func (b *Booking) StartInstant() time.Time {
	minutes, err := timeslot.ParseClock(b.Slot.StartTime)
	if err != nil {
		return b.Date
	}
	return b.Date.Add(time.Duration(minutes) * time.Minute)
}

// EndInstant is the absolute moment the booking ends.
func (b *Booking) EndInstant() time.Time {
	minutes, err := timeslot.ParseClock(b.Slot.EndTime)
	if err != nil {
		return b.Date
	}
	return b.Date.Add(time.Duration(minutes) * time.Minute)
}

// CanCancel reports whether the booking may still be cancelled at now:
// status must be pending or confirmed and now must be more than
// CancelCutoffHours before the start instant.
func (b *Booking) CanCancel(now time.Time) bool {
	if b.Status != StatusPending && b.Status != StatusConfirmed {
		return false
	}
	deadline := b.StartInstant().Add(-CancelCutoffHours * time.Hour)
	return now.Before(deadline)
}

// RefundPercentage returns the tiered refund percentage for a cancellation
// happening at now. Zero means the cancellation window is closed.
func (b *Booking) RefundPercentage(now time.Time) int {
	hoursUntil := b.StartInstant().Sub(now).Hours()
	switch {
	case hoursUntil >= 24:
		return 100
	case hoursUntil >= 12:
		return 75
	case hoursUntil >= 6:
		return 50
	case hoursUntil >= CancelCutoffHours:
		return 25
	default:
		return 0
	}
}

// RefundAmount computes the refundable amount at now, rounded to the
// currency minor unit.
func (b *Booking) RefundAmount(now time.Time) float64 {
	pct := b.RefundPercentage(now)
	return RoundMoney(b.Pricing.TotalAmount * float64(pct) / 100)
}

// RoundMoney rounds to two decimal places, the minor unit of every
// supported currency.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
