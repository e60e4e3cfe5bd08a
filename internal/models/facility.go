package models

import (
	"strings"
	"time"
)

// OperatingWindow is the open/close schedule for one weekday.
type OperatingWindow struct {
	IsOpen    bool   `yaml:"is_open" json:"is_open"`
	OpenTime  string `yaml:"open_time" json:"open_time"`
	CloseTime string `yaml:"close_time" json:"close_time"`
}

// PeakPricing is facility-wide: the window and multiplier apply to every
// court of the facility, while the hourly rate stays per court.
type PeakPricing struct {
	Start      string  `yaml:"start" json:"start"`
	End        string  `yaml:"end" json:"end"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

type Facility struct {
	ID       int64  `yaml:"id" json:"id"`
	OwnerID  int64  `yaml:"owner_id" json:"owner_id"`
	Name     string `yaml:"name" json:"name"`
	Currency string `yaml:"currency" json:"currency"`

	// Hours is keyed by lowercase weekday name; missing entries fall back
	// to the 06:00-22:00 default.
	Hours map[string]OperatingWindow `yaml:"hours" json:"hours"`
	Peak  PeakPricing                `yaml:"peak" json:"peak"`

	// OwnerChatID receives booking notifications for this facility.
	OwnerChatID   int64 `yaml:"owner_chat_id" json:"-"`
	TotalBookings int64 `yaml:"-" json:"total_bookings"`
}

var defaultWindow = OperatingWindow{IsOpen: true, OpenTime: "06:00", CloseTime: "22:00"}

// HoursFor returns the operating window for a weekday, defaulting to
// 06:00-22:00 open when the facility configures nothing for that day.
func (f *Facility) HoursFor(day time.Weekday) OperatingWindow {
	if f.Hours == nil {
		return defaultWindow
	}
	w, ok := f.Hours[strings.ToLower(day.String())]
	if !ok {
		return defaultWindow
	}
	return w
}

// CurrencyOrDefault falls back to the platform default currency.
func (f *Facility) CurrencyOrDefault() string {
	if f.Currency == "" {
		return DefaultCurrency
	}
	return f.Currency
}

// PeakMultiplier returns the configured multiplier, floored at 1.
func (f *Facility) PeakMultiplier() float64 {
	if f.Peak.Multiplier < 1 {
		return 1
	}
	return f.Peak.Multiplier
}
