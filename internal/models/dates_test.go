package models

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestWeekdayAndWeekStart(t *testing.T) {
	tests := []struct {
		date      civil.Date
		weekday   int
		weekStart civil.Date
	}{
		{civil.Date{Year: 2024, Month: 6, Day: 2}, 0, civil.Date{Year: 2024, Month: 6, Day: 2}},
		{civil.Date{Year: 2024, Month: 6, Day: 3}, 1, civil.Date{Year: 2024, Month: 6, Day: 2}},
		{civil.Date{Year: 2024, Month: 6, Day: 8}, 6, civil.Date{Year: 2024, Month: 6, Day: 2}},
		{civil.Date{Year: 2024, Month: 3, Day: 1}, 5, civil.Date{Year: 2024, Month: 2, Day: 25}},
	}

	for _, tc := range tests {
		if got := Weekday(tc.date); got != tc.weekday {
			t.Errorf("Weekday(%s) = %d, expected %d", tc.date, got, tc.weekday)
		}
		if got := WeekStart(tc.date); got != tc.weekStart {
			t.Errorf("WeekStart(%s) = %s, expected %s", tc.date, got, tc.weekStart)
		}
	}
}

func TestDaysIn(t *testing.T) {
	start := civil.Date{Year: 2024, Month: 2, Day: 28}
	days := DaysIn(start, civil.Date{Year: 2024, Month: 3, Day: 1})
	if len(days) != 3 {
		t.Fatalf("expected 3 days across leap day, got %d", len(days))
	}
	if days[1] != (civil.Date{Year: 2024, Month: 2, Day: 29}) {
		t.Errorf("expected leap day, got %s", days[1])
	}
	if DaysIn(start, start.AddDays(-1)) != nil {
		t.Error("expected nil for reversed range")
	}
}

func TestToday(t *testing.T) {
	// 02:00 UTC is still the previous day in New York
	now := time.Date(2024, 6, 4, 2, 0, 0, 0, time.UTC)
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	if got := Today(now, ny); got != (civil.Date{Year: 2024, Month: 6, Day: 3}) {
		t.Errorf("expected 2024-06-03, got %s", got)
	}
	if got := Today(now, time.UTC); got != (civil.Date{Year: 2024, Month: 6, Day: 4}) {
		t.Errorf("expected 2024-06-04, got %s", got)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		minutes int
		norm    string
		wantErr bool
	}{
		{"07:00", 420, "07:00", false},
		{"7:05", 425, "07:05", false},
		{"23:59:30", 1439, "23:59", false},
		{" 12:00 ", 720, "12:00", false},
		{"24:00", 0, "", true},
		{"12:60", 0, "", true},
		{"noon", 0, "", true},
		{"", 0, "", true},
	}

	for _, tc := range tests {
		got, err := ParseClock(tc.input)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			continue
		}
		if tc.wantErr {
			continue
		}
		if got != tc.minutes {
			t.Errorf("ParseClock(%q) = %d, expected %d", tc.input, got, tc.minutes)
		}
		if norm, _ := NormalizeClock(tc.input); norm != tc.norm {
			t.Errorf("NormalizeClock(%q) = %q, expected %q", tc.input, norm, tc.norm)
		}
	}
}

func TestWeekdaySet(t *testing.T) {
	s := NewWeekdaySet([]int{1, 3, 9, -1})
	for d := 0; d < 7; d++ {
		want := d == 1 || d == 3
		if s.Has(d) != want {
			t.Errorf("Has(%d) = %v, expected %v", d, s.Has(d), want)
		}
	}
	if s.Has(9) {
		t.Error("out of range weekday must not be held")
	}
	if !NewWeekdaySet(nil).Empty() {
		t.Error("expected empty set")
	}
	if EveryDay != NewWeekdaySet([]int{0, 1, 2, 3, 4, 5, 6}) {
		t.Error("EveryDay must hold all seven days")
	}
}

func TestCapabilities(t *testing.T) {
	c := NewCapabilities("Hitting", " pitching ", "")
	if !c.Has("hitting") || !c.Has("PITCHING") {
		t.Error("expected case-insensitive membership")
	}
	if c.Has("throwing") {
		t.Error("unexpected throwing capability")
	}
	if !c.Has("") {
		t.Error("empty gate must always be held")
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 capabilities, got %d", c.Len())
	}
	if got := c.List(); len(got) != 2 || got[0] != "hitting" || got[1] != "pitching" {
		t.Errorf("unexpected list %v", got)
	}

	var zero Capabilities
	if zero.Has("hitting") || !zero.Has("") {
		t.Error("zero value holds only the empty gate")
	}
}
