package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// createNode creates a node with the given label from params and returns its
// properties.
func (s *Store) createNode(ctx context.Context, label string, params map[string]any) (map[string]any, error) {
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
CREATE (n:%s)
SET n = $props,
    n.created_at = datetime($props.created_at),
    n.updated_at = datetime($props.updated_at)
RETURN n
`, label)

	result, err := session.Run(ctx, cypher, map[string]any{"props": params})
	if err != nil {
		return nil, err
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("result iteration error: %w", err)
		}
		return nil, fmt.Errorf("no result returned from create")
	}
	node, _ := result.Record().Get("n")
	return node.(neo4j.Node).Props, nil
}

// updateNode applies the SET clauses to the user's node with the given id in
// one write transaction. A non-nil check sees the updated properties; its
// error rolls the update back. It returns plan.ErrNotFound when no such node
// exists.
func (s *Store) updateNode(ctx context.Context, label, userID, id string, setClauses []string, params map[string]any, check func(map[string]any) error) (map[string]any, error) {
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	setClauses = append(setClauses, "n.updated_at = datetime($updated_at)")
	params["user_id"] = userID
	params["id"] = id
	params["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	cypher := fmt.Sprintf(`
MATCH (n:%s {user_id: $user_id, id: $id})
SET %s
RETURN n
`, label, strings.Join(setClauses, ", "))

	res, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, plan.ErrNotFound
		}
		node, _ := result.Record().Get("n")
		props := node.(neo4j.Node).Props
		if check != nil {
			if err := check(props); err != nil {
				return nil, err
			}
		}
		return props, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(map[string]any), nil
}

func (s *Store) deleteNode(ctx context.Context, label, userID, id string) error {
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
MATCH (n:%s {user_id: $user_id, id: $id})
WITH n, n.id AS deleted
DETACH DELETE n
RETURN deleted
`, label)

	result, err := session.Run(ctx, cypher, map[string]any{"user_id": userID, "id": id})
	if err != nil {
		return err
	}
	if !result.Next(ctx) {
		if err := result.Err(); err != nil {
			return err
		}
		return plan.ErrNotFound
	}
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	props, err := s.createNode(ctx, LabelEvent, eventParams(ev))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	created := propsToEvent(props)
	return &created, nil
}

func (s *Store) UpdateEvent(ctx context.Context, userID, id string, patch models.EventPatch) (*models.Event, error) {
	var set []string
	params := map[string]any{}
	if patch.Title != nil {
		set = append(set, "n.title = $title")
		params["title"] = *patch.Title
	}
	if patch.Description != nil {
		set = append(set, "n.description = $description")
		params["description"] = *patch.Description
	}
	if patch.Date != nil {
		set = append(set, "n.date = $date")
		params["date"] = dateParam(*patch.Date)
	}
	if patch.StartTime != nil {
		set = append(set, "n.start_time = $start_time")
		params["start_time"] = *patch.StartTime
	}
	if patch.EndTime != nil {
		set = append(set, "n.end_time = $end_time")
		params["end_time"] = *patch.EndTime
	}

	props, err := s.updateNode(ctx, LabelEvent, userID, id, set, params, func(p map[string]any) error {
		ev := propsToEvent(p)
		return plan.CheckEventWindow(ev.StartTime, ev.EndTime)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	ev := propsToEvent(props)
	return &ev, nil
}

func (s *Store) DeleteEvent(ctx context.Context, userID, id string) error {
	if err := s.deleteNode(ctx, LabelEvent, userID, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (s *Store) CreateLog(ctx context.Context, l models.ActivityLog) (*models.ActivityLog, error) {
	props, err := s.createNode(ctx, LabelLog, logParams(l))
	if err != nil {
		return nil, fmt.Errorf("failed to create log: %w", err)
	}
	created := propsToLog(props)
	return &created, nil
}

func (s *Store) UpdateLog(ctx context.Context, userID, id string, patch models.LogPatch) (*models.ActivityLog, error) {
	var set []string
	params := map[string]any{}
	if patch.Notes != nil {
		set = append(set, "n.notes = $notes")
		params["notes"] = *patch.Notes
	}
	if patch.StartTime != nil {
		set = append(set, "n.start_time = $start_time")
		params["start_time"] = *patch.StartTime
	}
	if patch.Completed != nil {
		set = append(set, "n.completed = $completed")
		params["completed"] = *patch.Completed
	}

	props, err := s.updateNode(ctx, LabelLog, userID, id, set, params, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update log: %w", err)
	}
	l := propsToLog(props)
	return &l, nil
}

func (s *Store) DeleteLog(ctx context.Context, userID, id string) error {
	if err := s.deleteNode(ctx, LabelLog, userID, id); err != nil {
		return fmt.Errorf("failed to delete log: %w", err)
	}
	return nil
}

func (s *Store) run(ctx context.Context, cypher string, params map[string]any) error {
	session := s.client.Session(ctx)
	defer session.Close(ctx)
	_, err := session.Run(ctx, cypher, params)
	return err
}

// SaveDateLock replaces the lock of one date.
func (s *Store) SaveDateLock(ctx context.Context, l models.DateLock) error {
	err := s.run(ctx, `
MERGE (n:DayOrder {user_id: $user_id, date: $date})
SET n.locked = $locked,
    n.order_keys = $order_keys,
    n.updated_at = datetime($updated_at)
`, map[string]any{
		"user_id":    l.UserID,
		"date":       dateParam(l.Date),
		"locked":     l.Locked,
		"order_keys": stringsParam(l.OrderKeys),
		"updated_at": timeParam(l.UpdatedAt),
	})
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
	err := s.run(ctx, `
MERGE (n:LockedDay {user_id: $user_id, day_of_week: $day_of_week})
SET n.schedule = $schedule
`, map[string]any{
		"user_id":     l.UserID,
		"day_of_week": int64(l.DayOfWeek),
		"schedule":    scheduleToJSON(l.Schedule),
	})
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
	err := s.run(ctx, `
MERGE (n:WeekOverride {user_id: $user_id, day_of_week: $day_of_week, week_start: $week_start})
SET n.schedule = $schedule
`, map[string]any{
		"user_id":     o.UserID,
		"day_of_week": int64(o.DayOfWeek),
		"week_start":  dateParam(o.WeekStart),
		"schedule":    scheduleToJSON(o.Schedule),
	})
	if err != nil {
		return fmt.Errorf("failed to save week override: %w", err)
	}
	return nil
}

// importStep upserts one record kind from a list of parameter rows.
type importStep struct {
	name   string
	cypher string
	rows   []map[string]any
}

// Import upserts every record of the fixture in one write transaction.
func (s *Store) Import(ctx context.Context, f *models.Fixture) error {
	if f == nil {
		return nil
	}
	if f.UserID == "" {
		return fmt.Errorf("fixture user_id is required")
	}

	steps := importSteps(f)

	session := s.client.Session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
MERGE (u:User {id: $user_id})
SET u.capabilities = CASE WHEN size($caps) > 0 THEN $caps ELSE coalesce(u.capabilities, []) END
`, map[string]any{"user_id": f.UserID, "caps": stringsParam(f.Capabilities)}); err != nil {
			return nil, fmt.Errorf("user: %w", err)
		}
		for _, st := range steps {
			if len(st.rows) == 0 {
				continue
			}
			if _, err := tx.Run(ctx, st.cypher, map[string]any{"rows": st.rows}); err != nil {
				return nil, fmt.Errorf("%s: %w", st.name, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to import fixture: %w", err)
	}
	return nil
}

// SetCapabilities replaces the modules held by a user.
func (s *Store) SetCapabilities(ctx context.Context, userID string, caps []string) error {
	err := s.run(ctx, `
MERGE (u:User {id: $user_id})
SET u.capabilities = $caps
`, map[string]any{"user_id": userID, "caps": stringsParam(caps)})
	if err != nil {
		return fmt.Errorf("failed to set capabilities: %w", err)
	}
	return nil
}

const upsertTimestamped = `
UNWIND $rows AS row
MERGE (n:%s {user_id: row.user_id, id: row.id})
SET n += row,
    n.created_at = datetime(row.created_at),
    n.updated_at = datetime(row.updated_at)
`

func importSteps(f *models.Fixture) []importStep {
	var templates, logs, events, schedules, completions, skips, programs, meals, dayOrders, lockedDays, overrides []map[string]any

	for _, t := range f.Templates {
		templates = append(templates, templateParams(t))
	}
	for _, l := range f.Logs {
		logs = append(logs, logParams(l))
	}
	for _, e := range f.Events {
		events = append(events, eventParams(e))
	}
	for _, sc := range f.Schedules {
		schedules = append(schedules, map[string]any{
			"user_id": sc.UserID, "task_id": sc.TaskID, "display_days": intsParam(sc.DisplayDays),
		})
	}
	for _, c := range f.Completions {
		completions = append(completions, map[string]any{
			"user_id": c.UserID, "task_id": c.TaskID, "date": dateParam(c.Date),
		})
	}
	for _, sk := range f.Skips {
		skips = append(skips, map[string]any{
			"user_id": sk.UserID, "item_key": sk.ItemKey, "skip_days": intsParam(sk.SkipDays),
		})
	}
	for _, p := range f.Programs {
		programs = append(programs, programParams(p))
	}
	for _, m := range f.Meals {
		meals = append(meals, mealParams(m))
	}
	for _, l := range f.DateLocks {
		dayOrders = append(dayOrders, map[string]any{
			"user_id": l.UserID, "date": dateParam(l.Date), "locked": l.Locked,
			"order_keys": stringsParam(l.OrderKeys), "updated_at": timeParam(l.UpdatedAt),
		})
	}
	for _, w := range f.WeeklyLocks {
		lockedDays = append(lockedDays, map[string]any{
			"user_id": w.UserID, "day_of_week": int64(w.DayOfWeek), "schedule": scheduleToJSON(w.Schedule),
		})
	}
	for _, o := range f.WeekOverrides {
		overrides = append(overrides, map[string]any{
			"user_id": o.UserID, "day_of_week": int64(o.DayOfWeek),
			"week_start": dateParam(o.WeekStart), "schedule": scheduleToJSON(o.Schedule),
		})
	}

	return []importStep{
		{"templates", fmt.Sprintf(upsertTimestamped, LabelTemplate), templates},
		{"logs", fmt.Sprintf(upsertTimestamped, LabelLog), logs},
		{"events", fmt.Sprintf(upsertTimestamped, LabelEvent), events},
		{"schedules", `
UNWIND $rows AS row
MERGE (n:TaskSchedule {user_id: row.user_id, task_id: row.task_id})
SET n.display_days = row.display_days
`, schedules},
		{"completions", `
UNWIND $rows AS row
MERGE (n:TaskCompletion {user_id: row.user_id, task_id: row.task_id, date: row.date})
`, completions},
		{"skips", `
UNWIND $rows AS row
MERGE (n:SkippedTask {user_id: row.user_id, item_key: row.item_key})
SET n.skip_days = row.skip_days
`, skips},
		{"programs", `
UNWIND $rows AS row
MERGE (n:ProgramEnrollment {user_id: row.user_id, id: row.id})
SET n += row
`, programs},
		{"meals", `
UNWIND $rows AS row
MERGE (n:MealPlan {user_id: row.user_id, id: row.id})
SET n += row
`, meals},
		{"date_locks", `
UNWIND $rows AS row
MERGE (n:DayOrder {user_id: row.user_id, date: row.date})
SET n.locked = row.locked, n.order_keys = row.order_keys, n.updated_at = datetime(row.updated_at)
`, dayOrders},
		{"weekly_locks", `
UNWIND $rows AS row
MERGE (n:LockedDay {user_id: row.user_id, day_of_week: row.day_of_week})
SET n.schedule = row.schedule
`, lockedDays},
		{"week_overrides", `
UNWIND $rows AS row
MERGE (n:WeekOverride {user_id: row.user_id, day_of_week: row.day_of_week, week_start: row.week_start})
SET n.schedule = row.schedule
`, overrides},
	}
}
