package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is a YAML document holding every source record of one user. It is
// used to seed a store.
type Fixture struct {
	UserID        string              `yaml:"user_id"`
	Capabilities  []string            `yaml:"capabilities,omitempty"`
	Templates     []ActivityTemplate  `yaml:"templates,omitempty"`
	Logs          []ActivityLog       `yaml:"logs,omitempty"`
	Events        []Event             `yaml:"events,omitempty"`
	Schedules     []TaskSchedule      `yaml:"schedules,omitempty"`
	Completions   []TaskCompletion    `yaml:"completions,omitempty"`
	Skips         []Skip              `yaml:"skips,omitempty"`
	Programs      []ProgramEnrollment `yaml:"programs,omitempty"`
	Meals         []Meal              `yaml:"meals,omitempty"`
	DateLocks     []DateLock          `yaml:"date_locks,omitempty"`
	WeeklyLocks   []WeeklyLock        `yaml:"weekly_locks,omitempty"`
	WeekOverrides []WeekOverride      `yaml:"week_overrides,omitempty"`
}

// LoadFixture reads a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a fixture and stamps its user id on every record.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if f.UserID == "" {
		return nil, fmt.Errorf("fixture user_id is required")
	}
	f.stampUser()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) stampUser() {
	for i := range f.Templates {
		f.Templates[i].UserID = f.UserID
	}
	for i := range f.Logs {
		f.Logs[i].UserID = f.UserID
	}
	for i := range f.Events {
		f.Events[i].UserID = f.UserID
		if f.Events[i].Kind == "" {
			f.Events[i].Kind = EventManual
		}
	}
	for i := range f.Schedules {
		f.Schedules[i].UserID = f.UserID
	}
	for i := range f.Completions {
		f.Completions[i].UserID = f.UserID
	}
	for i := range f.Skips {
		f.Skips[i].UserID = f.UserID
	}
	for i := range f.Programs {
		f.Programs[i].UserID = f.UserID
	}
	for i := range f.Meals {
		f.Meals[i].UserID = f.UserID
	}
	for i := range f.DateLocks {
		f.DateLocks[i].UserID = f.UserID
	}
	for i := range f.WeeklyLocks {
		f.WeeklyLocks[i].UserID = f.UserID
	}
	for i := range f.WeekOverrides {
		f.WeekOverrides[i].UserID = f.UserID
	}
}

// Validate checks ids, weekdays and event kinds.
func (f *Fixture) Validate() error {
	for _, t := range f.Templates {
		if t.ID == "" {
			return fmt.Errorf("template without id")
		}
	}
	for _, l := range f.Logs {
		if l.ID == "" {
			return fmt.Errorf("log without id")
		}
	}
	for _, e := range f.Events {
		if e.ID == "" {
			return fmt.Errorf("event without id")
		}
		if !IsValidEventKind(string(e.Kind)) {
			return fmt.Errorf("event %s: invalid kind %q", e.ID, e.Kind)
		}
	}
	for _, m := range f.Meals {
		if m.ID == "" {
			return fmt.Errorf("meal without id")
		}
	}
	for _, p := range f.Programs {
		if p.ID == "" || p.TaskID == "" {
			return fmt.Errorf("program requires id and task_id")
		}
	}
	for _, w := range f.WeeklyLocks {
		if !ValidWeekday(w.DayOfWeek) {
			return fmt.Errorf("weekly lock: invalid day_of_week %d", w.DayOfWeek)
		}
	}
	for _, w := range f.WeekOverrides {
		if !ValidWeekday(w.DayOfWeek) {
			return fmt.Errorf("week override: invalid day_of_week %d", w.DayOfWeek)
		}
	}
	return nil
}
