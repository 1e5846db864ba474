package models

import "strings"

// Category identifies the source a plan item was derived from.
type Category string

const (
	CategoryRecurringActivity Category = "recurring-activity"
	CategoryActivityLog       Category = "activity-log"
	CategoryManualEvent       Category = "manual-event"
	CategorySystemTask        Category = "system-scheduled-task"
	CategoryDefaultTask       Category = "default-daily-task"
	CategoryGatedTask         Category = "module-gated-task"
	CategoryProgramSession    Category = "program-session"
	CategoryMeal              Category = "meal"
	CategoryAthleteEvent      Category = "athlete-event"
)

// ValidCategories contains all valid category values
var ValidCategories = []Category{
	CategoryRecurringActivity,
	CategoryActivityLog,
	CategoryManualEvent,
	CategorySystemTask,
	CategoryDefaultTask,
	CategoryGatedTask,
	CategoryProgramSession,
	CategoryMeal,
	CategoryAthleteEvent,
}

// IsValidCategory checks if a string is a valid Category
func IsValidCategory(s string) bool {
	for _, c := range ValidCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Order key prefixes. OrderKey is the only place that attaches them.
const (
	PrefixCustomActivity = "ca:"
	PrefixLog            = "log:"
	PrefixGamePlan       = "gp:"
	PrefixMeal           = "meal:"
	PrefixEvent          = "event:"
	PrefixAthleteEvent   = "athlete:"
)

var knownPrefixes = []string{
	PrefixCustomActivity,
	PrefixLog,
	PrefixGamePlan,
	PrefixMeal,
	PrefixEvent,
	PrefixAthleteEvent,
}

// OrderKey builds the canonical identity of a plan slot from its category and
// the id of its source record. Template projections and logs of the same
// template share a key, as do all renderings of a system task.
// An empty sourceID yields an empty key.
func OrderKey(c Category, sourceID string) string {
	if sourceID == "" {
		return ""
	}
	switch c {
	case CategoryRecurringActivity, CategoryActivityLog:
		return PrefixCustomActivity + sourceID
	case CategorySystemTask, CategoryDefaultTask, CategoryGatedTask, CategoryProgramSession:
		return PrefixGamePlan + sourceID
	case CategoryMeal:
		return PrefixMeal + sourceID
	case CategoryManualEvent:
		return PrefixEvent + sourceID
	case CategoryAthleteEvent:
		return PrefixAthleteEvent + sourceID
	default:
		return ""
	}
}

// LogOrderKey returns the key of an activity log. Logs of a template share the
// template's key; orphan logs are keyed by their own id.
func LogOrderKey(l ActivityLog) string {
	if l.TemplateID != "" {
		return OrderKey(CategoryActivityLog, l.TemplateID)
	}
	if l.ID == "" {
		return ""
	}
	return PrefixLog + l.ID
}

// HasKnownPrefix reports whether s is already in order key form.
func HasKnownPrefix(s string) bool {
	for _, p := range knownPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ScheduleOrderKey translates a weekly schedule entry into order key form.
func ScheduleOrderKey(e ScheduleEntry) string {
	id := strings.TrimSpace(e.TaskID)
	if id == "" {
		return ""
	}
	if e.Kind != "" {
		return OrderKey(e.Kind, id)
	}
	if HasKnownPrefix(id) {
		return id
	}
	switch {
	case strings.HasPrefix(id, "custom-"):
		return OrderKey(CategoryRecurringActivity, strings.TrimPrefix(id, "custom-"))
	case strings.HasPrefix(id, "custom:"):
		return OrderKey(CategoryRecurringActivity, strings.TrimPrefix(id, "custom:"))
	case strings.HasPrefix(id, "meal-"):
		return OrderKey(CategoryMeal, strings.TrimPrefix(id, "meal-"))
	default:
		return OrderKey(CategorySystemTask, id)
	}
}
