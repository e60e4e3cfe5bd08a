// Package pricing computes the charge for a booking interval from the
// court's hourly rate and the facility's peak window. It is pure: no
// clocks, no stores, the same inputs always produce the same quote.
package pricing

import (
	"quickcourt/internal/models"
	"quickcourt/internal/timeslot"
)

// Quote is the frozen price for one interval. BasePrice is the court's
// hourly rate; Total already accounts for duration and peak minutes.
type Quote struct {
	BasePrice      float64 `json:"base_price"`
	PeakMultiplier float64 `json:"peak_multiplier"`
	Total          float64 `json:"total"`
	Peak           bool    `json:"peak"`
	Currency       string  `json:"currency"`
}

// ForInterval prices an interval against the facility peak window. An
// interval straddling a peak boundary is split at the boundary and each
// side billed at its own rate, so 17:30-18:30 against an 18:00 peak start
// pays half off-peak and half peak.
func ForInterval(court *models.Court, facility *models.Facility, interval timeslot.Interval) Quote {
	rate := court.HourlyRate
	multiplier := facility.PeakMultiplier()

	quote := Quote{
		BasePrice:      rate,
		PeakMultiplier: 1,
		Currency:       facility.CurrencyOrDefault(),
	}

	peakMinutes := 0
	if peak, err := timeslot.NewInterval(facility.Peak.Start, facility.Peak.End); err == nil {
		peakMinutes = interval.Intersect(peak)
	}
	offMinutes := interval.Minutes() - peakMinutes

	total := rate * float64(offMinutes) / 60
	if peakMinutes > 0 {
		total += rate * multiplier * float64(peakMinutes) / 60
		quote.PeakMultiplier = multiplier
		quote.Peak = true
	}

	quote.Total = models.RoundMoney(total)
	return quote
}

// Pricing converts a quote into the snapshot frozen onto a booking.
func (q Quote) Pricing() models.Pricing {
	return models.Pricing{
		BasePrice:      q.BasePrice,
		PeakMultiplier: q.PeakMultiplier,
		TotalAmount:    q.Total,
		Currency:       q.Currency,
	}
}
