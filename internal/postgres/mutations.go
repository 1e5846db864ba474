package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	eventColumns = "id, user_id, kind, title, description, date, start_time, end_time, created_at, updated_at"
	logColumns   = "id, user_id, template_id, date, title, notes, start_time, completed, created_at, updated_at"
)

const uniqueViolation = "23505"

// mapError turns driver errors into the plan sentinels.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return plan.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", plan.ErrInvalidInput, pgErr.Detail)
	}
	return err
}

// querier is satisfied by the pool and by a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func returningOne[R any](ctx context.Context, q querier, sql string, args ...any) (R, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		var zero R
		return zero, mapError(err)
	}
	r, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[R])
	return r, mapError(err)
}

// setter accumulates "col = $n" assignments for a partial update. Arguments
// $1 and $2 are reserved for user_id and id.
type setter struct {
	clauses []string
	args    []any
}

func newSetter(userID, id string) *setter {
	return &setter{args: []any{userID, id}}
}

func (s *setter) set(column string, value any) {
	s.args = append(s.args, value)
	s.clauses = append(s.clauses, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setter) sql(table, columns string) string {
	s.set("updated_at", time.Now().UTC())
	return fmt.Sprintf("UPDATE %s SET %s WHERE user_id = $1 AND id = $2 RETURNING %s",
		table, strings.Join(s.clauses, ", "), columns)
}

func (s *Store) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	row, err := returningOne[eventRow](ctx, s.client.pool, `
INSERT INTO calendar_events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING `+eventColumns,
		ev.ID, ev.UserID, string(ev.Kind), ev.Title, ev.Description, dateArg(ev.Date),
		ev.StartTime, ev.EndTime, stamp(ev.CreatedAt), stamp(ev.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	created := row.model()
	return &created, nil
}

func (s *Store) UpdateEvent(ctx context.Context, userID, id string, patch models.EventPatch) (*models.Event, error) {
	st := newSetter(userID, id)
	if patch.Title != nil {
		st.set("title", *patch.Title)
	}
	if patch.Description != nil {
		st.set("description", *patch.Description)
	}
	if patch.Date != nil {
		st.set("date", dateArg(*patch.Date))
	}
	if patch.StartTime != nil {
		st.set("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		st.set("end_time", *patch.EndTime)
	}

	var ev models.Event
	err := pgx.BeginFunc(ctx, s.client.pool, func(tx pgx.Tx) error {
		row, err := returningOne[eventRow](ctx, tx, st.sql("calendar_events", eventColumns), st.args...)
		if err != nil {
			return err
		}
		ev = row.model()
		return plan.CheckEventWindow(ev.StartTime, ev.EndTime)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &ev, nil
}

func (s *Store) deleteRow(ctx context.Context, table, userID, id string) error {
	tag, err := s.client.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE user_id = $1 AND id = $2", table), userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return plan.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, userID, id string) error {
	if err := s.deleteRow(ctx, "calendar_events", userID, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (s *Store) CreateLog(ctx context.Context, l models.ActivityLog) (*models.ActivityLog, error) {
	row, err := returningOne[logRow](ctx, s.client.pool, `
INSERT INTO custom_activity_logs (`+logColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING `+logColumns,
		l.ID, l.UserID, l.TemplateID, dateArg(l.Date), l.Title, l.Notes,
		l.StartTime, l.Completed, stamp(l.CreatedAt), stamp(l.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create log: %w", err)
	}
	created := row.model()
	return &created, nil
}

func (s *Store) UpdateLog(ctx context.Context, userID, id string, patch models.LogPatch) (*models.ActivityLog, error) {
	st := newSetter(userID, id)
	if patch.Notes != nil {
		st.set("notes", *patch.Notes)
	}
	if patch.StartTime != nil {
		st.set("start_time", *patch.StartTime)
	}
	if patch.Completed != nil {
		st.set("completed", *patch.Completed)
	}

	row, err := returningOne[logRow](ctx, s.client.pool, st.sql("custom_activity_logs", logColumns), st.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update log: %w", err)
	}
	l := row.model()
	return &l, nil
}

func (s *Store) DeleteLog(ctx context.Context, userID, id string) error {
	if err := s.deleteRow(ctx, "custom_activity_logs", userID, id); err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	return nil
}

const (
	upsertDayOrder = `
INSERT INTO game_plan_day_orders (user_id, date, locked, order_keys, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, date) DO UPDATE
SET locked = EXCLUDED.locked, order_keys = EXCLUDED.order_keys, updated_at = EXCLUDED.updated_at`

	upsertLockedDay = `
INSERT INTO game_plan_locked_days (user_id, day_of_week, schedule)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, day_of_week) DO UPDATE SET schedule = EXCLUDED.schedule`

	upsertWeekOverride = `
INSERT INTO game_plan_week_overrides (user_id, day_of_week, week_start, schedule)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, week_start, day_of_week) DO UPDATE SET schedule = EXCLUDED.schedule`
)

// SaveDateLock replaces the lock of one date.
func (s *Store) SaveDateLock(ctx context.Context, l models.DateLock) error {
	_, err := s.client.pool.Exec(ctx, upsertDayOrder,
		l.UserID, dateArg(l.Date), l.Locked, textArray(l.OrderKeys), stamp(l.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save date lock: %w", err)
	}
	return nil
}

// SaveWeeklyLock replaces the lock of one weekday.
func (s *Store) SaveWeeklyLock(ctx context.Context, l models.WeeklyLock) error {
	if !models.ValidWeekday(l.DayOfWeek) {
		return fmt.Errorf("%w: day_of_week %d", plan.ErrInvalidInput, l.DayOfWeek)
	}
	_, err := s.client.pool.Exec(ctx, upsertLockedDay, l.UserID, int32(l.DayOfWeek), encodeSchedule(l.Schedule))
	if err != nil {
		return fmt.Errorf("failed to save weekly lock: %w", err)
	}
	return nil
}

// SaveWeekOverride replaces the override of one weekday in one week.
func (s *Store) SaveWeekOverride(ctx context.Context, o models.WeekOverride) error {
	if !models.ValidWeekday(o.DayOfWeek) {
		return fmt.Errorf("%w: day_of_week %d", plan.ErrInvalidInput, o.DayOfWeek)
	}
	_, err := s.client.pool.Exec(ctx, upsertWeekOverride,
		o.UserID, int32(o.DayOfWeek), dateArg(o.WeekStart), encodeSchedule(o.Schedule))
	if err != nil {
		return fmt.Errorf("failed to save week override: %w", err)
	}
	return nil
}

// SetCapabilities replaces the modules held by a user.
func (s *Store) SetCapabilities(ctx context.Context, userID string, caps []string) error {
	return pgx.BeginFunc(ctx, s.client.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		queueCapabilities(b, userID, caps)
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("failed to set capabilities: %w", err)
		}
		return nil
	})
}

func queueCapabilities(b *pgx.Batch, userID string, caps []string) {
	b.Queue(`DELETE FROM user_modules WHERE user_id = $1`, userID)
	for _, c := range models.NewCapabilities(caps...).List() {
		b.Queue(`INSERT INTO user_modules (user_id, module) VALUES ($1, $2)`, userID, c)
	}
}

// Import upserts every record of the fixture in one transaction.
func (s *Store) Import(ctx context.Context, f *models.Fixture) error {
	if f == nil {
		return nil
	}
	if f.UserID == "" {
		return fmt.Errorf("fixture user_id is required")
	}

	err := pgx.BeginFunc(ctx, s.client.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, importBatch(f)).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to import fixture: %w", mapError(err))
	}
	return nil
}

func importBatch(f *models.Fixture) *pgx.Batch {
	b := &pgx.Batch{}

	if len(f.Capabilities) > 0 {
		queueCapabilities(b, f.UserID, f.Capabilities)
	}
	for _, t := range f.Templates {
		b.Queue(`
INSERT INTO custom_activity_templates (id, user_id, title, description, activity_type, start_time,
    recurring_days, display_days, archived, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title, description = EXCLUDED.description,
    activity_type = EXCLUDED.activity_type, start_time = EXCLUDED.start_time,
    recurring_days = EXCLUDED.recurring_days, display_days = EXCLUDED.display_days,
    archived = EXCLUDED.archived, updated_at = EXCLUDED.updated_at`,
			t.ID, t.UserID, t.Title, t.Description, t.ActivityType, t.StartTime,
			toInt32s(t.RecurringDays), toInt32s(t.DisplayDays), t.Archived, stamp(t.CreatedAt), stamp(t.UpdatedAt))
	}
	for _, l := range f.Logs {
		b.Queue(`
INSERT INTO custom_activity_logs (`+logColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    template_id = EXCLUDED.template_id, date = EXCLUDED.date, title = EXCLUDED.title,
    notes = EXCLUDED.notes, start_time = EXCLUDED.start_time,
    completed = EXCLUDED.completed, updated_at = EXCLUDED.updated_at`,
			l.ID, l.UserID, l.TemplateID, dateArg(l.Date), l.Title, l.Notes,
			l.StartTime, l.Completed, stamp(l.CreatedAt), stamp(l.UpdatedAt))
	}
	for _, e := range f.Events {
		b.Queue(`
INSERT INTO calendar_events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    kind = EXCLUDED.kind, title = EXCLUDED.title, description = EXCLUDED.description,
    date = EXCLUDED.date, start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
    updated_at = EXCLUDED.updated_at`,
			e.ID, e.UserID, string(e.Kind), e.Title, e.Description, dateArg(e.Date),
			e.StartTime, e.EndTime, stamp(e.CreatedAt), stamp(e.UpdatedAt))
	}
	for _, sc := range f.Schedules {
		b.Queue(`
INSERT INTO game_plan_task_schedule (user_id, task_id, display_days) VALUES ($1, $2, $3)
ON CONFLICT (user_id, task_id) DO UPDATE SET display_days = EXCLUDED.display_days`,
			sc.UserID, sc.TaskID, toInt32s(sc.DisplayDays))
	}
	for _, c := range f.Completions {
		b.Queue(`
INSERT INTO game_plan_completions (user_id, task_id, date) VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING`,
			c.UserID, c.TaskID, dateArg(c.Date))
	}
	for _, sk := range f.Skips {
		b.Queue(`
INSERT INTO game_plan_skipped_tasks (user_id, item_key, skip_days) VALUES ($1, $2, $3)
ON CONFLICT (user_id, item_key) DO UPDATE SET skip_days = EXCLUDED.skip_days`,
			sk.UserID, sk.ItemKey, toInt32s(sk.SkipDays))
	}
	for _, p := range f.Programs {
		b.Queue(`
INSERT INTO program_enrollments (id, user_id, task_id, title, module, weekly_days,
    start_date, weeks, session_names, start_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
    task_id = EXCLUDED.task_id, title = EXCLUDED.title, module = EXCLUDED.module,
    weekly_days = EXCLUDED.weekly_days, start_date = EXCLUDED.start_date,
    weeks = EXCLUDED.weeks, session_names = EXCLUDED.session_names,
    start_time = EXCLUDED.start_time`,
			p.ID, p.UserID, p.TaskID, p.Title, p.Module, toInt32s(p.WeeklyDays),
			dateArg(p.StartDate), int32(p.Weeks), textArray(p.SessionNames), p.StartTime)
	}
	for _, m := range f.Meals {
		b.Queue(`
INSERT INTO meal_plans (id, user_id, date, meal_type, title, time, completed)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    date = EXCLUDED.date, meal_type = EXCLUDED.meal_type, title = EXCLUDED.title,
    time = EXCLUDED.time, completed = EXCLUDED.completed`,
			m.ID, m.UserID, dateArg(m.Date), m.MealType, m.Title, m.Time, m.Completed)
	}
	for _, l := range f.DateLocks {
		b.Queue(upsertDayOrder, l.UserID, dateArg(l.Date), l.Locked, textArray(l.OrderKeys), stamp(l.UpdatedAt))
	}
	for _, l := range f.WeeklyLocks {
		b.Queue(upsertLockedDay, l.UserID, int32(l.DayOfWeek), encodeSchedule(l.Schedule))
	}
	for _, o := range f.WeekOverrides {
		b.Queue(upsertWeekOverride, o.UserID, int32(o.DayOfWeek), dateArg(o.WeekStart), encodeSchedule(o.Schedule))
	}

	return b
}
