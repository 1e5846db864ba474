package postgres

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/jackc/pgx/v5"
)

var _ plan.Store = (*Store)(nil)

// Store implements plan.Store on PostgreSQL.
type Store struct {
	client *Client
}

// NewStore creates a store on an open client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Close closes the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// query scans every returned row into R by column name and converts it.
func query[R any, T any](ctx context.Context, s *Store, conv func(R) T, sql string, args ...any) ([]T, error) {
	rows, err := s.client.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByName[R])
	if err != nil {
		return nil, err
	}
	out := make([]T, len(scanned))
	for i, r := range scanned {
		out[i] = conv(r)
	}
	return out, nil
}

func (s *Store) ActivityTemplates(ctx context.Context, userID string) ([]models.ActivityTemplate, error) {
	out, err := query(ctx, s, templateRow.model, `
SELECT id, user_id, title, description, activity_type, start_time,
       recurring_days, display_days, archived, created_at, updated_at
FROM custom_activity_templates
WHERE user_id = $1
ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	return out, nil
}

func (s *Store) ActivityLogs(ctx context.Context, userID string, start, end civil.Date) ([]models.ActivityLog, error) {
	out, err := query(ctx, s, logRow.model, `
SELECT id, user_id, template_id, date, title, notes, start_time, completed, created_at, updated_at
FROM custom_activity_logs
WHERE user_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date, created_at, id`, userID, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return out, nil
}

func (s *Store) Events(ctx context.Context, userID string, start, end civil.Date) ([]models.Event, error) {
	out, err := query(ctx, s, eventRow.model, `
SELECT id, user_id, kind, title, description, date, start_time, end_time, created_at, updated_at
FROM calendar_events
WHERE user_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date, created_at, id`, userID, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return out, nil
}

type scheduleRow struct {
	UserID      string  `db:"user_id"`
	TaskID      string  `db:"task_id"`
	DisplayDays []int32 `db:"display_days"`
}

func (s *Store) TaskSchedules(ctx context.Context, userID string) ([]models.TaskSchedule, error) {
	out, err := query(ctx, s, func(r scheduleRow) models.TaskSchedule {
		return models.TaskSchedule{UserID: r.UserID, TaskID: r.TaskID, DisplayDays: fromInt32s(r.DisplayDays)}
	}, `
SELECT user_id, task_id, display_days
FROM game_plan_task_schedule
WHERE user_id = $1
ORDER BY task_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read task schedules: %w", err)
	}
	return out, nil
}

type completionRow struct {
	UserID string    `db:"user_id"`
	TaskID string    `db:"task_id"`
	Date   time.Time `db:"date"`
}

func (s *Store) TaskCompletions(ctx context.Context, userID string, start, end civil.Date) ([]models.TaskCompletion, error) {
	out, err := query(ctx, s, func(r completionRow) models.TaskCompletion {
		return models.TaskCompletion{UserID: r.UserID, TaskID: r.TaskID, Date: civil.DateOf(r.Date)}
	}, `
SELECT user_id, task_id, date
FROM game_plan_completions
WHERE user_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date, task_id`, userID, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to read completions: %w", err)
	}
	return out, nil
}

type skipRow struct {
	UserID   string  `db:"user_id"`
	ItemKey  string  `db:"item_key"`
	SkipDays []int32 `db:"skip_days"`
}

func (s *Store) Skips(ctx context.Context, userID string) ([]models.Skip, error) {
	out, err := query(ctx, s, func(r skipRow) models.Skip {
		return models.Skip{UserID: r.UserID, ItemKey: r.ItemKey, SkipDays: fromInt32s(r.SkipDays)}
	}, `
SELECT user_id, item_key, skip_days
FROM game_plan_skipped_tasks
WHERE user_id = $1
ORDER BY item_key`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read skips: %w", err)
	}
	return out, nil
}

func (s *Store) Programs(ctx context.Context, userID string) ([]models.ProgramEnrollment, error) {
	out, err := query(ctx, s, programRow.model, `
SELECT id, user_id, task_id, title, module, weekly_days, start_date, weeks, session_names, start_time
FROM program_enrollments
WHERE user_id = $1
ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read programs: %w", err)
	}
	return out, nil
}

func (s *Store) Meals(ctx context.Context, userID string, start, end civil.Date) ([]models.Meal, error) {
	out, err := query(ctx, s, mealRow.model, `
SELECT id, user_id, date, meal_type, title, time, completed
FROM meal_plans
WHERE user_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date, id`, userID, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to read meals: %w", err)
	}
	return out, nil
}

func (s *Store) DateLocks(ctx context.Context, userID string, start, end civil.Date) ([]models.DateLock, error) {
	out, err := query(ctx, s, dayOrderRow.model, `
SELECT user_id, date, locked, order_keys, updated_at
FROM game_plan_day_orders
WHERE user_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date`, userID, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to read date locks: %w", err)
	}
	return out, nil
}

func (s *Store) WeeklyLocks(ctx context.Context, userID string) ([]models.WeeklyLock, error) {
	out, err := query(ctx, s, lockedDayRow.model, `
SELECT user_id, day_of_week, schedule
FROM game_plan_locked_days
WHERE user_id = $1
ORDER BY day_of_week`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read weekly locks: %w", err)
	}
	return out, nil
}

// WeekOverrides returns the overrides whose week overlaps [start, end].
func (s *Store) WeekOverrides(ctx context.Context, userID string, start, end civil.Date) ([]models.WeekOverride, error) {
	out, err := query(ctx, s, weekOverrideRow.model, `
SELECT user_id, day_of_week, week_start, schedule
FROM game_plan_week_overrides
WHERE user_id = $1 AND week_start BETWEEN $2 AND $3
ORDER BY week_start, day_of_week`, userID, dateArg(models.WeekStart(start)), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to read week overrides: %w", err)
	}
	return out, nil
}

func (s *Store) Capabilities(ctx context.Context, userID string) (models.Capabilities, error) {
	rows, err := s.client.pool.Query(ctx, `SELECT module FROM user_modules WHERE user_id = $1`, userID)
	if err != nil {
		return models.Capabilities{}, fmt.Errorf("failed to read capabilities: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return models.Capabilities{}, fmt.Errorf("failed to read capabilities: %w", err)
	}
	return models.NewCapabilities(names...), nil
}
