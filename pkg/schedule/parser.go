// Package schedule parses compact weekly schedule expressions such as
// "Mon-Fri 9-5, Sat 10:00-14:00" into availability windows.
//
// Grammar:
//
//	expression := segment { ("," | ";") segment }
//	segment    := days time "-" time
//	days       := day [ "-" day ] { "/" day [ "-" day ] }
//	time       := H | HH | H:MM | HH:MM, optionally followed by "am" or "pm"
//
// Day ranges run Monday-first and must ascend. A bare end hour (no minutes,
// no leading zero, no am/pm) that is not after the start and lies before
// noon is read as afternoon, so "9-5" is 09:00-17:00. Explicit HH:MM times
// are literal, and a window that would cross midnight is an error.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"medibuddy/pkg/model"
)

var ErrEmpty = errors.New("schedule expression is empty")

type SyntaxError struct {
	Segment string
	Reason  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid schedule segment %q: %s", e.Segment, e.Reason)
}

var dayNames = map[string]int{
	"mon": 0, "monday": 0,
	"tue": 1, "tues": 1, "tuesday": 1,
	"wed": 2, "weds": 2, "wednesday": 2,
	"thu": 3, "thur": 3, "thurs": 3, "thursday": 3,
	"fri": 4, "friday": 4,
	"sat": 5, "saturday": 5,
	"sun": 6, "sunday": 6,
}

// Parser resolves empty expressions to a fixed default template.
type Parser struct {
	fallback []model.AvailabilityWindow
}

func NewParser(defaultExpr string) (*Parser, error) {
	fallback, err := Parse(defaultExpr)
	if err != nil {
		return nil, fmt.Errorf("default schedule: %w", err)
	}
	return &Parser{fallback: fallback}, nil
}

// Parse returns the windows for expr, or a copy of the default template when
// expr is blank.
func (p *Parser) Parse(expr string) ([]model.AvailabilityWindow, error) {
	if strings.TrimSpace(expr) == "" {
		return p.Default(), nil
	}
	return Parse(expr)
}

func (p *Parser) Default() []model.AvailabilityWindow {
	out := make([]model.AvailabilityWindow, len(p.fallback))
	copy(out, p.fallback)
	return out
}

// Parse converts a full expression. Any malformed segment fails the whole
// expression.
func Parse(expr string) ([]model.AvailabilityWindow, error) {
	segments := strings.FieldsFunc(expr, func(r rune) bool { return r == ',' || r == ';' })

	var windows []model.AvailabilityWindow
	for _, raw := range segments {
		segment := strings.TrimSpace(raw)
		if segment == "" {
			continue
		}
		parsed, err := parseSegment(segment)
		if err != nil {
			return nil, err
		}
		windows = append(windows, parsed...)
	}

	if len(windows) == 0 {
		return nil, ErrEmpty
	}
	return windows, nil
}

func parseSegment(segment string) ([]model.AvailabilityWindow, error) {
	dayPart, timePart, ok := strings.Cut(segment, " ")
	if !ok || strings.TrimSpace(timePart) == "" {
		return nil, &SyntaxError{Segment: segment, Reason: "expected days followed by a time range"}
	}

	days, err := parseDays(dayPart)
	if err != nil {
		return nil, &SyntaxError{Segment: segment, Reason: err.Error()}
	}

	start, end, err := parseRange(timePart)
	if err != nil {
		return nil, &SyntaxError{Segment: segment, Reason: err.Error()}
	}

	windows := make([]model.AvailabilityWindow, 0, len(days))
	for _, day := range days {
		windows = append(windows, model.AvailabilityWindow{
			Day:       day,
			StartTime: model.FormatClock(start),
			EndTime:   model.FormatClock(end),
		})
	}
	return windows, nil
}

func parseDays(s string) ([]model.Weekday, error) {
	var days []model.Weekday
	for _, item := range strings.Split(s, "/") {
		from, to, isRange := strings.Cut(item, "-")
		first, err := lookupDay(from)
		if err != nil {
			return nil, err
		}
		last := first
		if isRange {
			if last, err = lookupDay(to); err != nil {
				return nil, err
			}
			if last < first {
				return nil, fmt.Errorf("day range %s must run Monday to Sunday", item)
			}
		}
		for i := first; i <= last; i++ {
			days = append(days, model.Weekdays[i])
		}
	}
	return days, nil
}

func lookupDay(s string) (int, error) {
	idx, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown day %q", s)
	}
	return idx, nil
}

type clockTime struct {
	minutes int
	// bare is a single- or double-digit hour with no minutes, no leading
	// zero and no meridiem, the only form the afternoon rule applies to.
	bare bool
}

func parseRange(s string) (int, int, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("time range %q must have exactly one '-'", strings.TrimSpace(s))
	}

	start, err := parseTime(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTime(parts[1])
	if err != nil {
		return 0, 0, err
	}

	if end.bare && end.minutes <= start.minutes && end.minutes < 12*60 {
		end.minutes += 12 * 60
	}
	if end.minutes <= start.minutes {
		return 0, 0, fmt.Errorf("end %s must be after start %s on the same day",
			model.FormatClock(end.minutes), model.FormatClock(start.minutes))
	}
	return start.minutes, end.minutes, nil
}

func parseTime(s string) (clockTime, error) {
	raw := strings.TrimSpace(s)
	text := strings.ToLower(strings.ReplaceAll(raw, ".", ""))

	meridiem := ""
	if strings.HasSuffix(text, "am") || strings.HasSuffix(text, "pm") {
		meridiem = text[len(text)-2:]
		text = strings.TrimSpace(text[:len(text)-2])
	}

	hourStr, minStr, hasMinutes := strings.Cut(text, ":")
	if !isDigits(hourStr) || len(hourStr) > 2 {
		return clockTime{}, fmt.Errorf("invalid time %q", raw)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return clockTime{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}

	minute := 0
	if hasMinutes {
		if !isDigits(minStr) || len(minStr) != 2 {
			return clockTime{}, fmt.Errorf("invalid minutes in %q", raw)
		}
		if minute, err = strconv.Atoi(minStr); err != nil || minute > 59 {
			return clockTime{}, fmt.Errorf("invalid minutes in %q", raw)
		}
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return clockTime{}, fmt.Errorf("invalid hour in %q", raw)
		}
	default:
		if hour < 1 || hour > 12 {
			return clockTime{}, fmt.Errorf("hour in %q must be 1-12 with am/pm", raw)
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	}

	bare := meridiem == "" && !hasMinutes && !strings.HasPrefix(hourStr, "0")
	return clockTime{minutes: hour*60 + minute, bare: bare}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
