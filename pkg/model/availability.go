package model

import (
	"fmt"
	"strconv"
	"strings"
)

const minutesPerDay = 24 * 60

// AvailabilityWindow is one recurring weekly range in which a doctor accepts bookings.
// Times are wall-clock "HH:MM" in the clinic time zone and never cross midnight.
type AvailabilityWindow struct {
	Day       Weekday `json:"day" bson:"day" validate:"required,weekday"`
	StartTime string  `json:"startTime" bson:"start_time" validate:"required,hhmm"`
	EndTime   string  `json:"endTime" bson:"end_time" validate:"required,hhmm"`
}

// Minutes returns the window bounds as minutes after midnight.
func (w AvailabilityWindow) Minutes() (start, end int, err error) {
	if start, err = ParseClock(w.StartTime); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(w.EndTime); err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("window %s %s-%s: start must be before end", w.Day, w.StartTime, w.EndTime)
	}
	return start, end, nil
}

// ParseClock parses a strict "HH:MM" wall-clock time into minutes after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

func FormatClock(minutes int) string {
	minutes = ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func IsWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// ValidateAvailability checks every window of a replacement set. The set is
// accepted or rejected as a whole.
func ValidateAvailability(windows []AvailabilityWindow) error {
	for i, w := range windows {
		if !IsWeekday(w.Day) {
			return fmt.Errorf("availability[%d]: unknown day %q", i, w.Day)
		}
		if _, _, err := w.Minutes(); err != nil {
			return fmt.Errorf("availability[%d]: %w", i, err)
		}
	}
	return nil
}
