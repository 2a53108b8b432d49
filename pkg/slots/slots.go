// Package slots expands weekly availability templates into concrete bookable
// slots and marks them against the appointment ledger.
//
// Everything here is a pure function of its arguments and safe for
// concurrent use.
package slots

import (
	"sort"
	"time"

	"medibuddy/pkg/model"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultIntervalMinutes = 30
)

type Options struct {
	// IntervalMinutes is the step between slot starts inside a window.
	IntervalMinutes int
	// Location is the clinic wall clock. Nil means UTC.
	Location *time.Location
	// StrictOverlap marks a slot Booked when it starts anywhere inside a
	// booked appointment's duration instead of only on an exact
	// hour:minute match.
	StrictOverlap bool
	// DefaultDurationMinutes is assumed for booked entries without a duration.
	DefaultDurationMinutes int
	// NotBefore drops candidates starting earlier than it. Zero keeps every
	// slot of the horizon.
	NotBefore time.Time
}

func (o Options) normalize() Options {
	if o.IntervalMinutes <= 0 {
		o.IntervalMinutes = DefaultIntervalMinutes
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DefaultDurationMinutes <= 0 {
		o.DefaultDurationMinutes = model.DefaultDurationMin
	}
	return o
}

type candidate struct {
	day    int
	minute int
	order  int
	at     time.Time
}

// Generate returns the slots for every calendar day in
// [horizonStart, horizonStart+horizonDays], both ends inclusive, in
// chronological order. Each window matching a day is expanded on its own, so
// overlapping windows yield repeated slots. Windows that fail validation are
// skipped; they are rejected before they can be stored. Candidates before
// opts.NotBefore are omitted.
func Generate(availability []model.AvailabilityWindow, booked []model.BookedSlot, horizonStart time.Time, horizonDays int, opts Options) []model.Slot {
	opts = opts.normalize()
	if len(availability) == 0 || horizonDays < 0 {
		return []model.Slot{}
	}

	byDay := make(map[model.Weekday][]model.AvailabilityWindow, len(availability))
	for _, w := range availability {
		byDay[w.Day] = append(byDay[w.Day], w)
	}

	start := horizonStart.In(opts.Location)
	y, m, d := start.Date()

	var candidates []candidate
	order := 0
	for i := 0; i <= horizonDays; i++ {
		midnight := time.Date(y, m, d+i, 0, 0, 0, 0, opts.Location)
		for _, w := range byDay[model.WeekdayOf(midnight)] {
			from, to, err := w.Minutes()
			if err != nil {
				continue
			}
			for minute := from; minute < to; minute += opts.IntervalMinutes {
				at := time.Date(y, m, d+i, 0, minute, 0, 0, opts.Location)
				if at.Before(opts.NotBefore) {
					continue
				}
				candidates = append(candidates, candidate{
					day:    i,
					minute: minute,
					order:  order,
					at:     at,
				})
				order++
			}
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].day != candidates[b].day {
			return candidates[a].day < candidates[b].day
		}
		return candidates[a].minute < candidates[b].minute
	})

	isBooked := exactMatcher(booked, opts.Location)
	if opts.StrictOverlap {
		isBooked = overlapMatcher(booked, opts)
	}

	result := make([]model.Slot, 0, len(candidates))
	for _, c := range candidates {
		status := model.SlotFree
		if isBooked(c.at) {
			status = model.SlotBooked
		}
		result = append(result, model.Slot{
			Date:   c.at.Format(DateLayout),
			Time:   c.at.Format(TimeLayout),
			Status: status,
		})
	}
	return result
}

func wallKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout + " " + TimeLayout)
}

// exactMatcher compares calendar date and hour:minute only.
func exactMatcher(booked []model.BookedSlot, loc *time.Location) func(time.Time) bool {
	keys := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		keys[wallKey(b.DateTime, loc)] = struct{}{}
	}
	return func(t time.Time) bool {
		_, ok := keys[wallKey(t, loc)]
		return ok
	}
}

func overlapMatcher(booked []model.BookedSlot, opts Options) func(time.Time) bool {
	exact := exactMatcher(booked, opts.Location)
	return func(t time.Time) bool {
		if exact(t) {
			return true
		}
		for _, b := range booked {
			duration := b.DurationMinutes
			if duration <= 0 {
				duration = opts.DefaultDurationMinutes
			}
			end := b.DateTime.Add(time.Duration(duration) * time.Minute)
			if !t.Before(b.DateTime) && t.Before(end) {
				return true
			}
		}
		return false
	}
}

// Offers reports whether at is a slot start of one of the windows for its
// weekday, using the same grid Generate produces.
func Offers(availability []model.AvailabilityWindow, at time.Time, opts Options) bool {
	opts = opts.normalize()
	local := at.In(opts.Location)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return false
	}

	day := model.WeekdayOf(local)
	minute := local.Hour()*60 + local.Minute()
	for _, w := range availability {
		if w.Day != day {
			continue
		}
		from, to, err := w.Minutes()
		if err != nil {
			continue
		}
		if minute >= from && minute < to && (minute-from)%opts.IntervalMinutes == 0 {
			return true
		}
	}
	return false
}

// Horizon returns the half-open range [from, to) of calendar days Generate
// expands for the same arguments: local midnight of horizonStart up to local
// midnight after the last day.
func Horizon(horizonStart time.Time, horizonDays int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := horizonStart.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := time.Date(y, m, d+horizonDays+1, 0, 0, 0, 0, loc)
	return from, to
}
