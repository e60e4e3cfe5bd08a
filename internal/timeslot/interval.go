package timeslot

import (
	"errors"
	"fmt"
	"regexp"
)

// MinutesPerDay bounds every interval to a single calendar day.
const MinutesPerDay = 24 * 60

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

var (
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")
	ErrInvalidRange      = errors.New("end time must be after start time")
)

// Interval is a half-open [Start, End) range of minutes since midnight.
// Touching endpoints do not overlap, so 10:00-11:00 and 11:00-12:00 are
// compatible slots.
type Interval struct {
	Start int
	End   int
}

// ParseClock converts a HH:MM string to minutes since midnight.
func ParseClock(s string) (int, error) {
	if !clockPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(s, "%d:%d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as canonical zero-padded HH:MM.
// This is the wire format for all persisted and transported times.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NewInterval builds an interval from two HH:MM strings.
func NewInterval(start, end string) (Interval, error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return Interval{}, err
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return Interval{}, err
	}
	return FromMinutes(startMin, endMin)
}

// FromMinutes builds an interval from minute offsets.
func FromMinutes(start, end int) (Interval, error) {
	if start < 0 || end > MinutesPerDay || end <= start {
		return Interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidRange, FormatClock(start), FormatClock(end))
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}

// Contains reports whether other lies entirely inside i.
func (i Interval) Contains(other Interval) bool {
	return other.Start >= i.Start && other.End <= i.End
}

// Intersect returns the shared minutes of two intervals, zero when disjoint.
func (i Interval) Intersect(other Interval) int {
	start := i.Start
	if other.Start > start {
		start = other.Start
	}
	end := i.End
	if other.End < end {
		end = other.End
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Minutes returns the interval length in minutes.
func (i Interval) Minutes() int {
	return i.End - i.Start
}

// Hours returns the interval length in fractional hours.
func (i Interval) Hours() float64 {
	return float64(i.Minutes()) / 60
}

// StartClock returns the start as HH:MM.
func (i Interval) StartClock() string {
	return FormatClock(i.Start)
}

// EndClock returns the end as HH:MM.
func (i Interval) EndClock() string {
	return FormatClock(i.End)
}

func (i Interval) String() string {
	return i.StartClock() + "-" + i.EndClock()
}
