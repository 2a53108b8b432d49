package schedule

import (
	"errors"
	"testing"

	"medibuddy/pkg/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []model.AvailabilityWindow
	}{
		{
			name: "single day",
			expr: "Mon 09:00-10:00",
			want: []model.AvailabilityWindow{{Day: model.Monday, StartTime: "09:00", EndTime: "10:00"}},
		},
		{
			name: "day range",
			expr: "Mon-Wed 09:00-17:00",
			want: []model.AvailabilityWindow{
				{Day: model.Monday, StartTime: "09:00", EndTime: "17:00"},
				{Day: model.Tuesday, StartTime: "09:00", EndTime: "17:00"},
				{Day: model.Wednesday, StartTime: "09:00", EndTime: "17:00"},
			},
		},
		{
			name: "short hours read as afternoon end",
			expr: "Fri 9-5",
			want: []model.AvailabilityWindow{{Day: model.Friday, StartTime: "09:00", EndTime: "17:00"}},
		},
		{
			name: "meridiem with spaces",
			expr: "Sat 10 AM-2 PM",
			want: []model.AvailabilityWindow{{Day: model.Saturday, StartTime: "10:00", EndTime: "14:00"}},
		},
		{
			name: "full names and minutes",
			expr: "sunday 8:30-12:15",
			want: []model.AvailabilityWindow{{Day: model.Sunday, StartTime: "08:30", EndTime: "12:15"}},
		},
		{
			name: "noon and midnight meridiem",
			expr: "Tue 12am-12pm",
			want: []model.AvailabilityWindow{{Day: model.Tuesday, StartTime: "00:00", EndTime: "12:00"}},
		},
		{
			name: "multiple segments keep duplicates",
			expr: "Mon 9-12, Mon 14:00-18:00; Thu 10-14",
			want: []model.AvailabilityWindow{
				{Day: model.Monday, StartTime: "09:00", EndTime: "12:00"},
				{Day: model.Monday, StartTime: "14:00", EndTime: "18:00"},
				{Day: model.Thursday, StartTime: "10:00", EndTime: "14:00"},
			},
		},
		{
			name: "bare end hour after explicit start",
			expr: "Wed 9:30-5",
			want: []model.AvailabilityWindow{{Day: model.Wednesday, StartTime: "09:30", EndTime: "17:00"}},
		},
		{
			name: "day list",
			expr: "Mon/Wed-Thu 1pm-5",
			want: []model.AvailabilityWindow{
				{Day: model.Monday, StartTime: "13:00", EndTime: "17:00"},
				{Day: model.Wednesday, StartTime: "13:00", EndTime: "17:00"},
				{Day: model.Thursday, StartTime: "13:00", EndTime: "17:00"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.expr, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.expr, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("window %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			if err := model.ValidateAvailability(got); err != nil {
				t.Errorf("parsed windows do not validate: %v", err)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"unknown day", "Funday 9-5"},
		{"descending day range", "Fri-Mon 9-5"},
		{"missing time range", "Mon"},
		{"bad hour", "Mon 25:00-26:00"},
		{"bad minutes", "Mon 9:7-10"},
		{"crosses midnight", "Mon 10pm-2am"},
		{"end not after start", "Mon 14-2"},
		{"equal bounds", "Mon 09:00-09:00"},
		{"explicit times crossing midnight", "Mon 20:00-09:00"},
		{"explicit end before start", "Mon 09:00-05:00"},
		{"leading zero end is literal", "Mon 09-05"},
		{"non-ascii digits", "Mon ٩-٥"},
		{"fullwidth digits", "Mon ９-１７"},
		{"meridiem hour out of range", "Mon 13pm-2pm"},
		{"too many dashes", "Mon 9-10-11"},
		{"one bad segment fails all", "Mon-Fri 9-5, Sat ten-two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			if err == nil {
				t.Fatalf("Parse(%q) = %+v, expected error", tt.expr, got)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, expr := range []string{"", "   ", ", ;"} {
		if _, err := Parse(expr); !errors.Is(err, ErrEmpty) {
			t.Errorf("Parse(%q) error = %v, want ErrEmpty", expr, err)
		}
	}
}

func TestParser_DefaultForBlank(t *testing.T) {
	p, err := NewParser("Mon-Fri 09:00-17:00")
	if err != nil {
		t.Fatalf("NewParser() error = %v", err)
	}

	got, err := p.Parse("  ")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("default template has %d windows, want 5", len(got))
	}
	if got[0].Day != model.Monday || got[4].Day != model.Friday {
		t.Errorf("unexpected default days %s..%s", got[0].Day, got[4].Day)
	}

	got[0].StartTime = "00:00"
	if again := p.Default(); again[0].StartTime != "09:00" {
		t.Errorf("Default() must return a fresh copy")
	}

	if _, err := p.Parse("Mon nonsense"); err == nil {
		t.Errorf("non-blank invalid expression must not fall back to the default")
	}
}

func TestNewParser_InvalidDefault(t *testing.T) {
	if _, err := NewParser("whenever"); err == nil {
		t.Errorf("NewParser() should reject an invalid default")
	}
}
