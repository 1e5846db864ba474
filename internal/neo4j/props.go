package neo4j

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
)

// Node labels, one per source table.
const (
	LabelUser           = "User"
	LabelTemplate       = "ActivityTemplate"
	LabelLog            = "ActivityLog"
	LabelEvent          = "CalendarEvent"
	LabelTaskSchedule   = "TaskSchedule"
	LabelTaskCompletion = "TaskCompletion"
	LabelSkip           = "SkippedTask"
	LabelProgram        = "ProgramEnrollment"
	LabelMeal           = "MealPlan"
	LabelDayOrder       = "DayOrder"
	LabelLockedDay      = "LockedDay"
	LabelWeekOverride   = "WeekOverride"
)

func getString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func getBool(props map[string]any, key string) bool {
	v, _ := props[key].(bool)
	return v
}

func getInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func getInts(props map[string]any, key string) []int {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, x := range raw {
		switch v := x.(type) {
		case int64:
			out = append(out, int(v))
		case int:
			out = append(out, v)
		}
	}
	return out
}

func getStrings(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// getDate reads a YYYY-MM-DD property; dates are stored as strings so that
// range filters compare lexically.
func getDate(props map[string]any, key string) civil.Date {
	d, err := civil.ParseDate(getString(props, key))
	if err != nil {
		return civil.Date{}
	}
	return d
}

func getTime(props map[string]any, key string) time.Time {
	if t, ok := props[key].(time.Time); ok {
		return t
	}
	return time.Time{}
}

func dateParam(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.String()
}

func timeParam(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

func intsParam(days []int) []int64 {
	out := make([]int64, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
}

func stringsParam(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// scheduleToJSON stores a lock schedule as one JSON property; Neo4j has no
// nested maps on nodes.
func scheduleToJSON(entries []models.ScheduleEntry) string {
	if len(entries) == 0 {
		return "[]"
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func jsonToSchedule(s string) []models.ScheduleEntry {
	if s == "" {
		return nil
	}
	var out []models.ScheduleEntry
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}

func propsToTemplate(p map[string]any) models.ActivityTemplate {
	return models.ActivityTemplate{
		ID:            getString(p, "id"),
		UserID:        getString(p, "user_id"),
		Title:         getString(p, "title"),
		Description:   getString(p, "description"),
		ActivityType:  getString(p, "activity_type"),
		StartTime:     getString(p, "start_time"),
		RecurringDays: getInts(p, "recurring_days"),
		DisplayDays:   getInts(p, "display_days"),
		Archived:      getBool(p, "archived"),
		CreatedAt:     getTime(p, "created_at"),
		UpdatedAt:     getTime(p, "updated_at"),
	}
}

func templateParams(t models.ActivityTemplate) map[string]any {
	return map[string]any{
		"id":             t.ID,
		"user_id":        t.UserID,
		"title":          t.Title,
		"description":    t.Description,
		"activity_type":  t.ActivityType,
		"start_time":     t.StartTime,
		"recurring_days": intsParam(t.RecurringDays),
		"display_days":   intsParam(t.DisplayDays),
		"archived":       t.Archived,
		"created_at":     timeParam(t.CreatedAt),
		"updated_at":     timeParam(t.UpdatedAt),
	}
}

func propsToLog(p map[string]any) models.ActivityLog {
	return models.ActivityLog{
		ID:         getString(p, "id"),
		UserID:     getString(p, "user_id"),
		TemplateID: getString(p, "template_id"),
		Date:       getDate(p, "date"),
		Title:      getString(p, "title"),
		Notes:      getString(p, "notes"),
		StartTime:  getString(p, "start_time"),
		Completed:  getBool(p, "completed"),
		CreatedAt:  getTime(p, "created_at"),
		UpdatedAt:  getTime(p, "updated_at"),
	}
}

func logParams(l models.ActivityLog) map[string]any {
	return map[string]any{
		"id":          l.ID,
		"user_id":     l.UserID,
		"template_id": l.TemplateID,
		"date":        dateParam(l.Date),
		"title":       l.Title,
		"notes":       l.Notes,
		"start_time":  l.StartTime,
		"completed":   l.Completed,
		"created_at":  timeParam(l.CreatedAt),
		"updated_at":  timeParam(l.UpdatedAt),
	}
}

func propsToEvent(p map[string]any) models.Event {
	kind := models.EventKind(getString(p, "kind"))
	if kind == "" {
		kind = models.EventManual
	}
	return models.Event{
		ID:          getString(p, "id"),
		UserID:      getString(p, "user_id"),
		Kind:        kind,
		Title:       getString(p, "title"),
		Description: getString(p, "description"),
		Date:        getDate(p, "date"),
		StartTime:   getString(p, "start_time"),
		EndTime:     getString(p, "end_time"),
		CreatedAt:   getTime(p, "created_at"),
		UpdatedAt:   getTime(p, "updated_at"),
	}
}

func eventParams(e models.Event) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"user_id":     e.UserID,
		"kind":        string(e.Kind),
		"title":       e.Title,
		"description": e.Description,
		"date":        dateParam(e.Date),
		"start_time":  e.StartTime,
		"end_time":    e.EndTime,
		"created_at":  timeParam(e.CreatedAt),
		"updated_at":  timeParam(e.UpdatedAt),
	}
}

func propsToProgram(p map[string]any) models.ProgramEnrollment {
	return models.ProgramEnrollment{
		ID:           getString(p, "id"),
		UserID:       getString(p, "user_id"),
		TaskID:       getString(p, "task_id"),
		Title:        getString(p, "title"),
		Module:       getString(p, "module"),
		WeeklyDays:   getInts(p, "weekly_days"),
		StartDate:    getDate(p, "start_date"),
		Weeks:        getInt(p, "weeks"),
		SessionNames: getStrings(p, "session_names"),
		StartTime:    getString(p, "start_time"),
	}
}

func programParams(pe models.ProgramEnrollment) map[string]any {
	return map[string]any{
		"id":            pe.ID,
		"user_id":       pe.UserID,
		"task_id":       pe.TaskID,
		"title":         pe.Title,
		"module":        pe.Module,
		"weekly_days":   intsParam(pe.WeeklyDays),
		"start_date":    dateParam(pe.StartDate),
		"weeks":         int64(pe.Weeks),
		"session_names": stringsParam(pe.SessionNames),
		"start_time":    pe.StartTime,
	}
}

func propsToMeal(p map[string]any) models.Meal {
	return models.Meal{
		ID:        getString(p, "id"),
		UserID:    getString(p, "user_id"),
		Date:      getDate(p, "date"),
		MealType:  getString(p, "meal_type"),
		Title:     getString(p, "title"),
		Time:      getString(p, "time"),
		Completed: getBool(p, "completed"),
	}
}

func mealParams(m models.Meal) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"user_id":   m.UserID,
		"date":      dateParam(m.Date),
		"meal_type": m.MealType,
		"title":     m.Title,
		"time":      m.Time,
		"completed": m.Completed,
	}
}

func propsToDateLock(p map[string]any) models.DateLock {
	return models.DateLock{
		UserID:    getString(p, "user_id"),
		Date:      getDate(p, "date"),
		Locked:    getBool(p, "locked"),
		OrderKeys: getStrings(p, "order_keys"),
		UpdatedAt: getTime(p, "updated_at"),
	}
}

func propsToWeeklyLock(p map[string]any) models.WeeklyLock {
	return models.WeeklyLock{
		UserID:    getString(p, "user_id"),
		DayOfWeek: getInt(p, "day_of_week"),
		Schedule:  jsonToSchedule(getString(p, "schedule")),
	}
}

func propsToWeekOverride(p map[string]any) models.WeekOverride {
	return models.WeekOverride{
		UserID:    getString(p, "user_id"),
		DayOfWeek: getInt(p, "day_of_week"),
		WeekStart: getDate(p, "week_start"),
		Schedule:  jsonToSchedule(getString(p, "schedule")),
	}
}
