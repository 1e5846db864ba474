package neo4j

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var _ plan.Store = (*Store)(nil)

// Store keeps every source record as a node labelled by its table, scoped
// by a user_id property.
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

// collect runs a read query returning nodes bound to n.
func collect[T any](ctx context.Context, c *Client, cypher string, params map[string]any, conv func(map[string]any) T) ([]T, error) {
	session := c.Session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}

	var out []T
	for result.Next(ctx) {
		raw, _ := result.Record().Get("n")
		node, ok := raw.(neo4j.Node)
		if !ok {
			continue
		}
		out = append(out, conv(node.Props))
	}
	return out, result.Err()
}

func userParams(userID string) map[string]any {
	return map[string]any{"user_id": userID}
}

func rangeParams(userID string, start, end civil.Date) map[string]any {
	return map[string]any{
		"user_id": userID,
		"start":   dateParam(start),
		"end":     dateParam(end),
	}
}

func (s *Store) ActivityTemplates(ctx context.Context, userID string) ([]models.ActivityTemplate, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:ActivityTemplate {user_id: $user_id})
RETURN n ORDER BY n.created_at, n.id
`, userParams(userID), propsToTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	return out, nil
}

func (s *Store) ActivityLogs(ctx context.Context, userID string, start, end civil.Date) ([]models.ActivityLog, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:ActivityLog {user_id: $user_id})
WHERE n.date >= $start AND n.date <= $end
RETURN n ORDER BY n.date, n.created_at, n.id
`, rangeParams(userID, start, end), propsToLog)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}
	return out, nil
}

func (s *Store) Events(ctx context.Context, userID string, start, end civil.Date) ([]models.Event, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:CalendarEvent {user_id: $user_id})
WHERE n.date >= $start AND n.date <= $end
RETURN n ORDER BY n.date, n.created_at, n.id
`, rangeParams(userID, start, end), propsToEvent)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return out, nil
}

func (s *Store) TaskSchedules(ctx context.Context, userID string) ([]models.TaskSchedule, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:TaskSchedule {user_id: $user_id})
RETURN n ORDER BY n.task_id
`, userParams(userID), func(p map[string]any) models.TaskSchedule {
		return models.TaskSchedule{
			UserID:      getString(p, "user_id"),
			TaskID:      getString(p, "task_id"),
			DisplayDays: getInts(p, "display_days"),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read task schedules: %w", err)
	}
	return out, nil
}

func (s *Store) TaskCompletions(ctx context.Context, userID string, start, end civil.Date) ([]models.TaskCompletion, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:TaskCompletion {user_id: $user_id})
WHERE n.date >= $start AND n.date <= $end
RETURN n ORDER BY n.date, n.task_id
`, rangeParams(userID, start, end), func(p map[string]any) models.TaskCompletion {
		return models.TaskCompletion{
			UserID: getString(p, "user_id"),
			TaskID: getString(p, "task_id"),
			Date:   getDate(p, "date"),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read completions: %w", err)
	}
	return out, nil
}

func (s *Store) Skips(ctx context.Context, userID string) ([]models.Skip, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:SkippedTask {user_id: $user_id})
RETURN n ORDER BY n.item_key
`, userParams(userID), func(p map[string]any) models.Skip {
		return models.Skip{
			UserID:   getString(p, "user_id"),
			ItemKey:  getString(p, "item_key"),
			SkipDays: getInts(p, "skip_days"),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read skips: %w", err)
	}
	return out, nil
}

func (s *Store) Programs(ctx context.Context, userID string) ([]models.ProgramEnrollment, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:ProgramEnrollment {user_id: $user_id})
RETURN n ORDER BY n.start_date, n.id
`, userParams(userID), propsToProgram)
	if err != nil {
		return nil, fmt.Errorf("failed to read programs: %w", err)
	}
	return out, nil
}

func (s *Store) Meals(ctx context.Context, userID string, start, end civil.Date) ([]models.Meal, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:MealPlan {user_id: $user_id})
WHERE n.date >= $start AND n.date <= $end
RETURN n ORDER BY n.date, n.id
`, rangeParams(userID, start, end), propsToMeal)
	if err != nil {
		return nil, fmt.Errorf("failed to read meals: %w", err)
	}
	return out, nil
}

func (s *Store) DateLocks(ctx context.Context, userID string, start, end civil.Date) ([]models.DateLock, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:DayOrder {user_id: $user_id})
WHERE n.date >= $start AND n.date <= $end
RETURN n ORDER BY n.date
`, rangeParams(userID, start, end), propsToDateLock)
	if err != nil {
		return nil, fmt.Errorf("failed to read date locks: %w", err)
	}
	return out, nil
}

func (s *Store) WeeklyLocks(ctx context.Context, userID string) ([]models.WeeklyLock, error) {
	out, err := collect(ctx, s.client, `
MATCH (n:LockedDay {user_id: $user_id})
RETURN n ORDER BY n.day_of_week
`, userParams(userID), propsToWeeklyLock)
	if err != nil {
		return nil, fmt.Errorf("failed to read weekly locks: %w", err)
	}
	return out, nil
}

// WeekOverrides returns the overrides whose week overlaps [start, end].
func (s *Store) WeekOverrides(ctx context.Context, userID string, start, end civil.Date) ([]models.WeekOverride, error) {
	params := rangeParams(userID, start, end)
	params["first_week"] = dateParam(models.WeekStart(start))
	out, err := collect(ctx, s.client, `
MATCH (n:WeekOverride {user_id: $user_id})
WHERE n.week_start >= $first_week AND n.week_start <= $end
RETURN n ORDER BY n.week_start, n.day_of_week
`, params, propsToWeekOverride)
	if err != nil {
		return nil, fmt.Errorf("failed to read week overrides: %w", err)
	}
	return out, nil
}

func (s *Store) Capabilities(ctx context.Context, userID string) (models.Capabilities, error) {
	session := s.client.Session(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
MATCH (u:User {id: $user_id})
RETURN coalesce(u.capabilities, []) AS caps
`, userParams(userID))
	if err != nil {
		return models.Capabilities{}, fmt.Errorf("failed to read capabilities: %w", err)
	}
	if !result.Next(ctx) {
		// unknown user holds nothing
		return models.NewCapabilities(), result.Err()
	}
	raw, _ := result.Record().Get("caps")
	return models.NewCapabilities(getStrings(map[string]any{"caps": raw}, "caps")...), nil
}
