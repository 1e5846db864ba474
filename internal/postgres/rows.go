package postgres

import (
	"encoding/json"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
)

// Row types mirror the table columns so pgx.RowToStructByName can scan
// them; each converts to its model.

type templateRow struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	ActivityType  string    `db:"activity_type"`
	StartTime     string    `db:"start_time"`
	RecurringDays []int32   `db:"recurring_days"`
	DisplayDays   []int32   `db:"display_days"`
	Archived      bool      `db:"archived"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r templateRow) model() models.ActivityTemplate {
	return models.ActivityTemplate{
		ID:            r.ID,
		UserID:        r.UserID,
		Title:         r.Title,
		Description:   r.Description,
		ActivityType:  r.ActivityType,
		StartTime:     r.StartTime,
		RecurringDays: fromInt32s(r.RecurringDays),
		DisplayDays:   fromInt32s(r.DisplayDays),
		Archived:      r.Archived,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type logRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	TemplateID string    `db:"template_id"`
	Date       time.Time `db:"date"`
	Title      string    `db:"title"`
	Notes      string    `db:"notes"`
	StartTime  string    `db:"start_time"`
	Completed  bool      `db:"completed"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r logRow) model() models.ActivityLog {
	return models.ActivityLog{
		ID:         r.ID,
		UserID:     r.UserID,
		TemplateID: r.TemplateID,
		Date:       civil.DateOf(r.Date),
		Title:      r.Title,
		Notes:      r.Notes,
		StartTime:  r.StartTime,
		Completed:  r.Completed,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type eventRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Kind        string    `db:"kind"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Date        time.Time `db:"date"`
	StartTime   string    `db:"start_time"`
	EndTime     string    `db:"end_time"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r eventRow) model() models.Event {
	kind := models.EventKind(r.Kind)
	if !models.IsValidEventKind(r.Kind) {
		kind = models.EventManual
	}
	return models.Event{
		ID:          r.ID,
		UserID:      r.UserID,
		Kind:        kind,
		Title:       r.Title,
		Description: r.Description,
		Date:        civil.DateOf(r.Date),
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type programRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	TaskID       string    `db:"task_id"`
	Title        string    `db:"title"`
	Module       string    `db:"module"`
	WeeklyDays   []int32   `db:"weekly_days"`
	StartDate    time.Time `db:"start_date"`
	Weeks        int32     `db:"weeks"`
	SessionNames []string  `db:"session_names"`
	StartTime    string    `db:"start_time"`
}

func (r programRow) model() models.ProgramEnrollment {
	return models.ProgramEnrollment{
		ID:           r.ID,
		UserID:       r.UserID,
		TaskID:       r.TaskID,
		Title:        r.Title,
		Module:       r.Module,
		WeeklyDays:   fromInt32s(r.WeeklyDays),
		StartDate:    civil.DateOf(r.StartDate),
		Weeks:        int(r.Weeks),
		SessionNames: r.SessionNames,
		StartTime:    r.StartTime,
	}
}

type mealRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Date      time.Time `db:"date"`
	MealType  string    `db:"meal_type"`
	Title     string    `db:"title"`
	Time      string    `db:"time"`
	Completed bool      `db:"completed"`
}

func (r mealRow) model() models.Meal {
	return models.Meal{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      civil.DateOf(r.Date),
		MealType:  r.MealType,
		Title:     r.Title,
		Time:      r.Time,
		Completed: r.Completed,
	}
}

type dayOrderRow struct {
	UserID    string    `db:"user_id"`
	Date      time.Time `db:"date"`
	Locked    bool      `db:"locked"`
	OrderKeys []string  `db:"order_keys"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r dayOrderRow) model() models.DateLock {
	return models.DateLock{
		UserID:    r.UserID,
		Date:      civil.DateOf(r.Date),
		Locked:    r.Locked,
		OrderKeys: r.OrderKeys,
		UpdatedAt: r.UpdatedAt,
	}
}

type lockedDayRow struct {
	UserID    string `db:"user_id"`
	DayOfWeek int32  `db:"day_of_week"`
	Schedule  []byte `db:"schedule"`
}

func (r lockedDayRow) model() models.WeeklyLock {
	return models.WeeklyLock{
		UserID:    r.UserID,
		DayOfWeek: int(r.DayOfWeek),
		Schedule:  decodeSchedule(r.Schedule),
	}
}

type weekOverrideRow struct {
	UserID    string    `db:"user_id"`
	DayOfWeek int32     `db:"day_of_week"`
	WeekStart time.Time `db:"week_start"`
	Schedule  []byte    `db:"schedule"`
}

func (r weekOverrideRow) model() models.WeekOverride {
	return models.WeekOverride{
		UserID:    r.UserID,
		DayOfWeek: int(r.DayOfWeek),
		WeekStart: civil.DateOf(r.WeekStart),
		Schedule:  decodeSchedule(r.Schedule),
	}
}

func fromInt32s(in []int32) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

func toInt32s(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// dateArg encodes a calendar date as midnight UTC, which pgx writes to a
// DATE column unchanged.
func dateArg(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func encodeSchedule(entries []models.ScheduleEntry) []byte {
	if len(entries) == 0 {
		return []byte("[]")
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return []byte("[]")
	}
	return b
}

func decodeSchedule(b []byte) []models.ScheduleEntry {
	if len(b) == 0 {
		return nil
	}
	var out []models.ScheduleEntry
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}
