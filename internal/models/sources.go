package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// Tables holding the source records. Change notifications name them.
const (
	TableActivityTemplates = "custom_activity_templates"
	TableActivityLogs      = "custom_activity_logs"
	TableEvents            = "calendar_events"
	TableTaskSchedules     = "game_plan_task_schedule"
	TableTaskCompletions   = "game_plan_completions"
	TableSkips             = "game_plan_skipped_tasks"
	TablePrograms          = "program_enrollments"
	TableMeals             = "meal_plans"
	TableDateLocks         = "game_plan_day_orders"
	TableWeeklyLocks       = "game_plan_locked_days"
	TableWeekOverrides     = "game_plan_week_overrides"
	TableCapabilities      = "user_modules"
)

// SourceTables lists every table a day plan is derived from.
var SourceTables = []string{
	TableActivityTemplates,
	TableActivityLogs,
	TableEvents,
	TableTaskSchedules,
	TableTaskCompletions,
	TableSkips,
	TablePrograms,
	TableMeals,
	TableDateLocks,
	TableWeeklyLocks,
	TableWeekOverrides,
	TableCapabilities,
}

// ActivityTemplate is a user-defined recurring custom activity.
// RecurringDays takes precedence when non-empty; otherwise DisplayDays is used.
// Both empty means the template has no schedule.
type ActivityTemplate struct {
	ID            string    `json:"id" yaml:"id"`
	UserID        string    `json:"user_id" yaml:"-"`
	Title         string    `json:"title" yaml:"title"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	ActivityType  string    `json:"activity_type,omitempty" yaml:"activity_type,omitempty"`
	StartTime     string    `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	RecurringDays []int     `json:"recurring_days,omitempty" yaml:"recurring_days,omitempty"`
	DisplayDays   []int     `json:"display_days,omitempty" yaml:"display_days,omitempty"`
	Archived      bool      `json:"archived,omitempty" yaml:"archived,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

// ScheduleDays returns the effective weekdays of the template.
func (t ActivityTemplate) ScheduleDays() WeekdaySet {
	if len(t.RecurringDays) > 0 {
		return NewWeekdaySet(t.RecurringDays)
	}
	return NewWeekdaySet(t.DisplayDays)
}

// ActivityLog records that an activity actually happened on a day.
type ActivityLog struct {
	ID         string     `json:"id" yaml:"id"`
	UserID     string     `json:"user_id" yaml:"-"`
	TemplateID string     `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	Date       civil.Date `json:"date" yaml:"date"`
	Title      string     `json:"title,omitempty" yaml:"title,omitempty"`
	Notes      string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	StartTime  string     `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	Completed  bool       `json:"completed" yaml:"completed"`
	CreatedAt  time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time  `json:"updated_at" yaml:"-"`
}

// LogPatch holds the mutable fields of an activity log.
type LogPatch struct {
	Notes     *string
	StartTime *string
	Completed *bool
}

// EventKind distinguishes user-created events from athlete schedule events.
type EventKind string

const (
	EventManual  EventKind = "manual"
	EventAthlete EventKind = "athlete"
)

// IsValidEventKind checks if a string is a valid EventKind
func IsValidEventKind(s string) bool {
	return s == string(EventManual) || s == string(EventAthlete)
}

// Category returns the plan item category of the event.
func (k EventKind) Category() Category {
	if k == EventAthlete {
		return CategoryAthleteEvent
	}
	return CategoryManualEvent
}

// Event is a one-off calendar entry.
type Event struct {
	ID          string     `json:"id" yaml:"id"`
	UserID      string     `json:"user_id" yaml:"-"`
	Kind        EventKind  `json:"kind" yaml:"kind"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Date        civil.Date `json:"date" yaml:"date"`
	StartTime   string     `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime     string     `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	CreatedAt   time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time  `json:"updated_at" yaml:"-"`
}

// EventPatch holds the mutable fields of an event.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *civil.Date
	StartTime   *string
	EndTime     *string
}

// Apply returns ev with the set fields of p.
func (p EventPatch) Apply(ev Event) Event {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Description != nil {
		ev.Description = *p.Description
	}
	if p.Date != nil {
		ev.Date = *p.Date
	}
	if p.StartTime != nil {
		ev.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		ev.EndTime = *p.EndTime
	}
	return ev
}

// TaskSchedule is a user's explicit weekly display days for a system task.
// Its presence overrides the catalog default for that task.
type TaskSchedule struct {
	UserID      string `json:"user_id" yaml:"-"`
	TaskID      string `json:"task_id" yaml:"task_id"`
	DisplayDays []int  `json:"display_days" yaml:"display_days"`
}

// TaskCompletion marks a system task done on a day.
type TaskCompletion struct {
	UserID string     `json:"user_id" yaml:"-"`
	TaskID string     `json:"task_id" yaml:"task_id"`
	Date   civil.Date `json:"date" yaml:"date"`
}

// Skip hides an item on the given weekdays unless it was logged that day.
type Skip struct {
	UserID   string `json:"user_id" yaml:"-"`
	ItemKey  string `json:"item_key" yaml:"item_key"`
	SkipDays []int  `json:"skip_days" yaml:"skip_days"`
}

// ProgramEnrollment is a structured multi-week program shown under a system
// task slot on its weekly days.
type ProgramEnrollment struct {
	ID           string     `json:"id" yaml:"id"`
	UserID       string     `json:"user_id" yaml:"-"`
	TaskID       string     `json:"task_id" yaml:"task_id"`
	Title        string     `json:"title" yaml:"title"`
	Module       string     `json:"module,omitempty" yaml:"module,omitempty"`
	WeeklyDays   []int      `json:"weekly_days" yaml:"weekly_days"`
	StartDate    civil.Date `json:"start_date" yaml:"start_date"`
	Weeks        int        `json:"weeks,omitempty" yaml:"weeks,omitempty"`
	SessionNames []string   `json:"session_names,omitempty" yaml:"session_names,omitempty"`
	StartTime    string     `json:"start_time,omitempty" yaml:"start_time,omitempty"`
}

// Meal is one planned meal row.
type Meal struct {
	ID        string     `json:"id" yaml:"id"`
	UserID    string     `json:"user_id" yaml:"-"`
	Date      civil.Date `json:"date" yaml:"date"`
	MealType  string     `json:"meal_type" yaml:"meal_type"`
	Title     string     `json:"title" yaml:"title"`
	Time      string     `json:"time,omitempty" yaml:"time,omitempty"`
	Completed bool       `json:"completed" yaml:"completed"`
}

// DateLock fixes the order of one calendar date.
type DateLock struct {
	UserID    string     `json:"user_id" yaml:"-"`
	Date      civil.Date `json:"date" yaml:"date"`
	Locked    bool       `json:"locked" yaml:"locked"`
	OrderKeys []string   `json:"order_keys" yaml:"order_keys"`
	UpdatedAt time.Time  `json:"updated_at" yaml:"-"`
}

// ScheduleEntry is one slot of a weekly lock schedule. Kind is optional; when
// empty the category is inferred from TaskID.
type ScheduleEntry struct {
	TaskID      string   `json:"task_id" yaml:"task_id"`
	Kind        Category `json:"kind,omitempty" yaml:"kind,omitempty"`
	Order       int      `json:"order" yaml:"order"`
	DisplayTime string   `json:"display_time,omitempty" yaml:"display_time,omitempty"`
}

// WeeklyLock fixes the order of every occurrence of a weekday.
type WeeklyLock struct {
	UserID    string          `json:"user_id" yaml:"-"`
	DayOfWeek int             `json:"day_of_week" yaml:"day_of_week"`
	Schedule  []ScheduleEntry `json:"schedule" yaml:"schedule"`
}

// WeekOverride replaces a weekly lock for the week starting at WeekStart.
type WeekOverride struct {
	UserID    string          `json:"user_id" yaml:"-"`
	DayOfWeek int             `json:"day_of_week" yaml:"day_of_week"`
	WeekStart civil.Date      `json:"week_start" yaml:"week_start"`
	Schedule  []ScheduleEntry `json:"schedule" yaml:"schedule"`
}
