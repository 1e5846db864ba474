package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Weekday returns the day of week of d, 0 = Sunday.
func Weekday(d civil.Date) int {
	return int(d.In(time.UTC).Weekday())
}

// WeekStart returns the Sunday on or before d. Week overrides are keyed by it.
func WeekStart(d civil.Date) civil.Date {
	return d.AddDays(-Weekday(d))
}

// DaysIn returns every date in [start, end]. It is empty when end is before start.
func DaysIn(start, end civil.Date) []civil.Date {
	if end.Before(start) {
		return nil
	}
	days := make([]civil.Date, 0, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(now.In(loc))
}

// ParseClock parses an HH:MM (or HH:MM:SS) time of day into minutes after
// midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// NormalizeClock returns s as HH:MM, or an error when it is not a time of day.
func NormalizeClock(s string) (string, error) {
	mins, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60), nil
}

// ValidWeekday reports whether d is in 0..6.
func ValidWeekday(d int) bool {
	return d >= 0 && d <= 6
}

// WeekdaySet is a set of weekdays (0 = Sunday).
type WeekdaySet uint8

// NewWeekdaySet builds a set from weekday numbers, ignoring values outside 0..6.
func NewWeekdaySet(days []int) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if ValidWeekday(d) {
			s |= 1 << uint(d)
		}
	}
	return s
}

// Has reports whether weekday d is in the set.
func (s WeekdaySet) Has(d int) bool {
	return ValidWeekday(d) && s&(1<<uint(d)) != 0
}

// Empty reports whether the set has no days.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// EveryDay is the set of all seven weekdays.
const EveryDay WeekdaySet = 0x7f
