package plan

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/notify"
)

// Lock authoring. Aggregation only ever reads locks; these methods let a
// user save an order and then refresh like any other mutation.

func (s *Session) lockWriter() (LockWriter, error) {
	if s.svc.locks == nil {
		return nil, ErrReadOnly
	}
	return s.svc.locks, nil
}

// SaveDateLock fixes the order of one date. Blank keys are dropped and
// duplicates keep their first position.
func (s *Session) SaveDateLock(ctx context.Context, date civil.Date, locked bool, keys []string) error {
	w, err := s.lockWriter()
	if err != nil {
		return err
	}
	if !date.IsValid() {
		return invalid("date is required")
	}

	seen := make(map[string]bool, len(keys))
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		if !models.HasKnownPrefix(k) {
			return invalid("order key %q has no known prefix", k)
		}
		seen[k] = true
		cleaned = append(cleaned, k)
	}

	err = w.SaveDateLock(ctx, models.DateLock{
		UserID:    s.userID,
		Date:      date,
		Locked:    locked,
		OrderKeys: cleaned,
		UpdatedAt: s.svc.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save date lock %s: %w", date, err)
	}
	s.afterMutation(ctx, models.TableDateLocks, notify.OpUpdate, date.String())
	return nil
}

// cleanSchedule validates and normalizes a weekly schedule. Entries for a task
// slot unknown to the catalog are kept and logged.
func (s *Session) cleanSchedule(entries []models.ScheduleEntry) ([]models.ScheduleEntry, error) {
	out := make([]models.ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		e.TaskID = strings.TrimSpace(e.TaskID)
		if e.TaskID == "" {
			return nil, invalid("schedule entry without task_id")
		}
		if e.Kind != "" && !models.IsValidCategory(string(e.Kind)) {
			return nil, invalid("unknown kind %q", e.Kind)
		}
		dt, err := normalizeOptionalClock("display_time", e.DisplayTime)
		if err != nil {
			return nil, err
		}
		e.DisplayTime = dt
		if key := models.ScheduleOrderKey(e); strings.HasPrefix(key, models.PrefixGamePlan) {
			id := strings.TrimPrefix(key, models.PrefixGamePlan)
			if _, ok := s.svc.Catalog().Lookup(id); !ok {
				s.svc.logger.Warn("schedule entry for unknown task", "user_id", s.userID, "task_id", id)
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// SaveWeeklyLock fixes the order of every occurrence of a weekday.
func (s *Session) SaveWeeklyLock(ctx context.Context, dayOfWeek int, entries []models.ScheduleEntry) error {
	w, err := s.lockWriter()
	if err != nil {
		return err
	}
	if !models.ValidWeekday(dayOfWeek) {
		return invalid("day_of_week %d out of range", dayOfWeek)
	}
	schedule, err := s.cleanSchedule(entries)
	if err != nil {
		return err
	}

	err = w.SaveWeeklyLock(ctx, models.WeeklyLock{UserID: s.userID, DayOfWeek: dayOfWeek, Schedule: schedule})
	if err != nil {
		return fmt.Errorf("save weekly lock %d: %w", dayOfWeek, err)
	}
	s.afterMutation(ctx, models.TableWeeklyLocks, notify.OpUpdate, fmt.Sprint(dayOfWeek))
	return nil
}

// SaveWeekOverride replaces the weekly lock of dayOfWeek for the week
// containing week. Any date of the week may be given.
func (s *Session) SaveWeekOverride(ctx context.Context, week civil.Date, dayOfWeek int, entries []models.ScheduleEntry) error {
	w, err := s.lockWriter()
	if err != nil {
		return err
	}
	if !week.IsValid() {
		return invalid("week_start is required")
	}
	if !models.ValidWeekday(dayOfWeek) {
		return invalid("day_of_week %d out of range", dayOfWeek)
	}
	schedule, err := s.cleanSchedule(entries)
	if err != nil {
		return err
	}

	start := models.WeekStart(week)
	err = w.SaveWeekOverride(ctx, models.WeekOverride{
		UserID:    s.userID,
		DayOfWeek: dayOfWeek,
		WeekStart: start,
		Schedule:  schedule,
	})
	if err != nil {
		return fmt.Errorf("save week override %s/%d: %w", start, dayOfWeek, err)
	}
	s.afterMutation(ctx, models.TableWeekOverrides, notify.OpUpdate, fmt.Sprintf("%s/%d", start, dayOfWeek))
	return nil
}
