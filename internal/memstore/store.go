// Package memstore provides an in-memory plan.Store used for tests, fixture
// previews and ephemeral environments.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
)

var _ plan.Store = (*Store)(nil)

type userState struct {
	caps          []string
	templates     map[string]models.ActivityTemplate
	logs          map[string]models.ActivityLog
	events        map[string]models.Event
	schedules     map[string]models.TaskSchedule
	completions   []models.TaskCompletion
	skips         map[string]models.Skip
	programs      map[string]models.ProgramEnrollment
	meals         map[string]models.Meal
	dateLocks     map[civil.Date]models.DateLock
	weeklyLocks   map[int]models.WeeklyLock
	weekOverrides map[string]models.WeekOverride
}

func newUserState() *userState {
	return &userState{
		templates:     make(map[string]models.ActivityTemplate),
		logs:          make(map[string]models.ActivityLog),
		events:        make(map[string]models.Event),
		schedules:     make(map[string]models.TaskSchedule),
		skips:         make(map[string]models.Skip),
		programs:      make(map[string]models.ProgramEnrollment),
		meals:         make(map[string]models.Meal),
		dateLocks:     make(map[civil.Date]models.DateLock),
		weeklyLocks:   make(map[int]models.WeeklyLock),
		weekOverrides: make(map[string]models.WeekOverride),
	}
}

// Store keeps every record in maps guarded by one mutex.
type Store struct {
	mu    sync.RWMutex
	users map[string]*userState
	now   func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{users: make(map[string]*userState), now: time.Now}
}

// FromFixtures returns a store seeded with the given fixtures.
func FromFixtures(fixtures ...*models.Fixture) (*Store, error) {
	s := New()
	for _, f := range fixtures {
		if err := s.Import(context.Background(), f); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) user(id string) *userState {
	u, ok := s.users[id]
	if !ok {
		u = newUserState()
		s.users[id] = u
	}
	return u
}

// view runs fn under the read lock with the user's state, or an empty one.
func (s *Store) view(userID string, fn func(u *userState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		u = newUserState()
	}
	fn(u)
}

func inRange(d, start, end civil.Date) bool {
	return !d.Before(start) && !d.After(end)
}

// values returns the map's values sorted by key so reads are deterministic.
func values[K string | int, V any](m map[K]V) []V {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (s *Store) ActivityTemplates(ctx context.Context, userID string) ([]models.ActivityTemplate, error) {
	var out []models.ActivityTemplate
	s.view(userID, func(u *userState) { out = values(u.templates) })
	return out, nil
}

func (s *Store) ActivityLogs(ctx context.Context, userID string, start, end civil.Date) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	s.view(userID, func(u *userState) {
		for _, l := range values(u.logs) {
			if inRange(l.Date, start, end) {
				out = append(out, l)
			}
		}
	})
	return out, nil
}

func (s *Store) Events(ctx context.Context, userID string, start, end civil.Date) ([]models.Event, error) {
	var out []models.Event
	s.view(userID, func(u *userState) {
		for _, e := range values(u.events) {
			if inRange(e.Date, start, end) {
				out = append(out, e)
			}
		}
	})
	return out, nil
}

func (s *Store) TaskSchedules(ctx context.Context, userID string) ([]models.TaskSchedule, error) {
	var out []models.TaskSchedule
	s.view(userID, func(u *userState) { out = values(u.schedules) })
	return out, nil
}

func (s *Store) TaskCompletions(ctx context.Context, userID string, start, end civil.Date) ([]models.TaskCompletion, error) {
	var out []models.TaskCompletion
	s.view(userID, func(u *userState) {
		for _, c := range u.completions {
			if inRange(c.Date, start, end) {
				out = append(out, c)
			}
		}
	})
	return out, nil
}

func (s *Store) Skips(ctx context.Context, userID string) ([]models.Skip, error) {
	var out []models.Skip
	s.view(userID, func(u *userState) { out = values(u.skips) })
	return out, nil
}

func (s *Store) Programs(ctx context.Context, userID string) ([]models.ProgramEnrollment, error) {
	var out []models.ProgramEnrollment
	s.view(userID, func(u *userState) { out = values(u.programs) })
	return out, nil
}

func (s *Store) Meals(ctx context.Context, userID string, start, end civil.Date) ([]models.Meal, error) {
	var out []models.Meal
	s.view(userID, func(u *userState) {
		for _, m := range values(u.meals) {
			if inRange(m.Date, start, end) {
				out = append(out, m)
			}
		}
	})
	return out, nil
}

func (s *Store) DateLocks(ctx context.Context, userID string, start, end civil.Date) ([]models.DateLock, error) {
	var out []models.DateLock
	s.view(userID, func(u *userState) {
		for _, l := range u.dateLocks {
			if inRange(l.Date, start, end) {
				out = append(out, l)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) WeeklyLocks(ctx context.Context, userID string) ([]models.WeeklyLock, error) {
	var out []models.WeeklyLock
	s.view(userID, func(u *userState) { out = values(u.weeklyLocks) })
	return out, nil
}

func (s *Store) WeekOverrides(ctx context.Context, userID string, start, end civil.Date) ([]models.WeekOverride, error) {
	var out []models.WeekOverride
	s.view(userID, func(u *userState) {
		for _, o := range values(u.weekOverrides) {
			// an override week overlaps the range when its Sunday is at most
			// six days before start
			if !o.WeekStart.After(end) && !o.WeekStart.AddDays(6).Before(start) {
				out = append(out, o)
			}
		}
	})
	return out, nil
}

func (s *Store) Capabilities(ctx context.Context, userID string) (models.Capabilities, error) {
	var caps models.Capabilities
	s.view(userID, func(u *userState) { caps = models.NewCapabilities(u.caps...) })
	return caps, nil
}

// SetCapabilities replaces the modules held by a user.
func (s *Store) SetCapabilities(ctx context.Context, userID string, caps []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).caps = append([]string(nil), caps...)
	return nil
}

func (s *Store) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(ev.UserID)
	if _, exists := u.events[ev.ID]; exists {
		return nil, fmt.Errorf("event %s already exists", ev.ID)
	}
	u.events[ev.ID] = ev
	return &ev, nil
}

func (s *Store) UpdateEvent(ctx context.Context, userID, id string, patch models.EventPatch) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	ev, ok := u.events[id]
	if !ok {
		return nil, plan.ErrNotFound
	}
	ev = patch.Apply(ev)
	if err := plan.CheckEventWindow(ev.StartTime, ev.EndTime); err != nil {
		return nil, err
	}
	ev.UpdatedAt = s.now().UTC()
	u.events[id] = ev
	return &ev, nil
}

func (s *Store) DeleteEvent(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if _, ok := u.events[id]; !ok {
		return plan.ErrNotFound
	}
	delete(u.events, id)
	return nil
}

func (s *Store) CreateLog(ctx context.Context, l models.ActivityLog) (*models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(l.UserID)
	if _, exists := u.logs[l.ID]; exists {
		return nil, fmt.Errorf("log %s already exists", l.ID)
	}
	u.logs[l.ID] = l
	return &l, nil
}

func (s *Store) UpdateLog(ctx context.Context, userID, id string, patch models.LogPatch) (*models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	l, ok := u.logs[id]
	if !ok {
		return nil, plan.ErrNotFound
	}
	if patch.Notes != nil {
		l.Notes = *patch.Notes
	}
	if patch.StartTime != nil {
		l.StartTime = *patch.StartTime
	}
	if patch.Completed != nil {
		l.Completed = *patch.Completed
	}
	l.UpdatedAt = s.now().UTC()
	u.logs[id] = l
	return &l, nil
}

func (s *Store) DeleteLog(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	if _, ok := u.logs[id]; !ok {
		return plan.ErrNotFound
	}
	delete(u.logs, id)
	return nil
}

func (s *Store) SaveDateLock(ctx context.Context, l models.DateLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.OrderKeys = append([]string(nil), l.OrderKeys...)
	s.user(l.UserID).dateLocks[l.Date] = l
	return nil
}

func (s *Store) SaveWeeklyLock(ctx context.Context, l models.WeeklyLock) error {
	if !models.ValidWeekday(l.DayOfWeek) {
		return fmt.Errorf("%w: day_of_week %d", plan.ErrInvalidInput, l.DayOfWeek)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.Schedule = append([]models.ScheduleEntry(nil), l.Schedule...)
	s.user(l.UserID).weeklyLocks[l.DayOfWeek] = l
	return nil
}

func (s *Store) SaveWeekOverride(ctx context.Context, o models.WeekOverride) error {
	if !models.ValidWeekday(o.DayOfWeek) {
		return fmt.Errorf("%w: day_of_week %d", plan.ErrInvalidInput, o.DayOfWeek)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Schedule = append([]models.ScheduleEntry(nil), o.Schedule...)
	s.user(o.UserID).weekOverrides[overrideID(o)] = o
	return nil
}

func overrideID(o models.WeekOverride) string {
	return fmt.Sprintf("%s/%d", o.WeekStart, o.DayOfWeek)
}

// Import upserts every record of the fixture.
func (s *Store) Import(ctx context.Context, f *models.Fixture) error {
	if f == nil {
		return nil
	}
	if f.UserID == "" {
		return fmt.Errorf("fixture user_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(f.UserID)
	if len(f.Capabilities) > 0 {
		u.caps = append([]string(nil), f.Capabilities...)
	}
	for _, t := range f.Templates {
		u.templates[t.ID] = t
	}
	for _, l := range f.Logs {
		u.logs[l.ID] = l
	}
	for _, e := range f.Events {
		u.events[e.ID] = e
	}
	for _, sc := range f.Schedules {
		u.schedules[sc.TaskID] = sc
	}
	u.completions = append(u.completions, f.Completions...)
	for _, sk := range f.Skips {
		u.skips[sk.ItemKey] = sk
	}
	for _, p := range f.Programs {
		u.programs[p.ID] = p
	}
	for _, m := range f.Meals {
		u.meals[m.ID] = m
	}
	for _, l := range f.DateLocks {
		u.dateLocks[l.Date] = l
	}
	for _, w := range f.WeeklyLocks {
		u.weeklyLocks[w.DayOfWeek] = w
	}
	for _, o := range f.WeekOverrides {
		u.weekOverrides[overrideID(o)] = o
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close(ctx context.Context) error {
	return nil
}
