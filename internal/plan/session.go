package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/notify"
	"github.com/google/uuid"
)

// ErrReadOnly is returned when mutating an item owned by another feature, or
// when the service has no Mutator.
var ErrReadOnly = errors.New("item is read-only")

// Session is the aggregation state of one user: the last requested range and
// the latest applied plan. Passes are numbered; a pass that finishes after a
// newer one was applied is discarded.
type Session struct {
	svc    *Service
	userID string

	mu      sync.Mutex
	start   civil.Date
	end     civil.Date
	loaded  bool
	nextGen uint64
	applied uint64
	current *Plan
	subs    map[uint64]chan *Plan
	nextSub uint64
}

func newSession(svc *Service, userID string) *Session {
	return &Session{
		svc:    svc,
		userID: userID,
		subs:   make(map[uint64]chan *Plan),
	}
}

// UserID returns the session's user.
func (s *Session) UserID() string {
	return s.userID
}

// Range returns the last requested range.
func (s *Session) Range() (start, end civil.Date, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start, s.end, s.loaded
}

// Current returns the latest applied plan, or nil before the first pass.
func (s *Session) Current() *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Load makes [start, end] the session's range and aggregates it. It returns
// the plan current after the pass, which is a newer one when this pass lost
// the race.
func (s *Session) Load(ctx context.Context, start, end civil.Date) (*Plan, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.start, s.end, s.loaded = start, end, true
	gen := s.claimLocked()
	s.mu.Unlock()
	return s.run(ctx, gen, start, end)
}

// Refresh re-aggregates the last requested range.
func (s *Session) Refresh(ctx context.Context) (*Plan, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	start, end := s.start, s.end
	gen := s.claimLocked()
	s.mu.Unlock()
	return s.run(ctx, gen, start, end)
}

// claimLocked numbers a new pass. Claiming under the same lock that reads or
// stores the range keeps generations in range order: the newest generation
// always belongs to the current range.
func (s *Session) claimLocked() uint64 {
	s.nextGen++
	return s.nextGen
}

func (s *Session) run(ctx context.Context, gen uint64, start, end civil.Date) (*Plan, error) {
	p, err := s.svc.agg.Aggregate(ctx, s.userID, start, end, s.svc.Today())
	if err != nil {
		return nil, err
	}
	p.Generation = gen
	return s.apply(p), nil
}

// apply installs p unless a newer pass was applied already, and notifies
// subscribers. It returns the plan that is current afterwards.
func (s *Session) apply(p *Plan) *Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Generation <= s.applied {
		s.svc.logger.Debug("stale pass discarded", "user_id", s.userID,
			"generation", p.Generation, "applied", s.applied)
		return s.current
	}
	s.applied = p.Generation
	s.current = p
	for _, ch := range s.subs {
		deliver(ch, p)
	}
	return p
}

// deliver replaces any undelivered plan in ch with p.
func deliver(ch chan *Plan, p *Plan) {
	select {
	case ch <- p:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- p:
	default:
	}
}

// Subscribe returns a channel receiving every applied plan. A slow reader
// only sees the latest one. The cancel func closes the channel and must be
// called.
func (s *Session) Subscribe() (<-chan *Plan, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan *Plan, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close ends every subscription of the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// Watch refreshes the session on every change to the user's source tables
// until ctx is done or the bus closes the subscription. Changes that arrive
// during a refresh are coalesced into the next one.
func (s *Session) Watch(ctx context.Context, bus notify.Bus) error {
	changes, cancel, err := bus.Subscribe(ctx, notify.Filter{
		Tables: models.SourceTables,
		UserID: s.userID,
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer cancel()

	logger := s.svc.logger.With("user_id", s.userID)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			logger.Debug("source changed", "table", c.Table, "op", c.Op)
		drain:
			for {
				select {
				case _, ok := <-changes:
					if !ok {
						break drain
					}
				default:
					break drain
				}
			}
			if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrNotLoaded) {
				logger.Warn("refresh after change failed", "error", err)
			}
		}
	}
}

// afterMutation publishes the change and re-aggregates the loaded range. A
// failed refresh does not undo the mutation.
func (s *Session) afterMutation(ctx context.Context, table string, op notify.Op, id string) {
	s.svc.publish(ctx, notify.Change{
		Table:    table,
		UserID:   s.userID,
		Op:       op,
		RecordID: id,
		At:       s.svc.now().UTC(),
	})
	if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrNotLoaded) {
		s.svc.logger.Warn("refresh after mutation failed", "user_id", s.userID, "error", err)
	}
}

func (s *Session) mutator() (Mutator, error) {
	if s.svc.mut == nil {
		return nil, ErrReadOnly
	}
	return s.svc.mut, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func normalizeOptionalClock(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	c, err := models.NormalizeClock(v)
	if err != nil {
		return "", invalid("%s: %v", field, err)
	}
	return c, nil
}

func validateEvent(ev *models.Event) error {
	ev.Title = strings.TrimSpace(ev.Title)
	if ev.Title == "" {
		return invalid("title is required")
	}
	if !ev.Date.IsValid() {
		return invalid("date is required")
	}
	if ev.Kind == "" {
		ev.Kind = models.EventManual
	}
	if !models.IsValidEventKind(string(ev.Kind)) {
		return invalid("unknown event kind %q", ev.Kind)
	}
	var err error
	if ev.StartTime, err = normalizeOptionalClock("start_time", ev.StartTime); err != nil {
		return err
	}
	if ev.EndTime, err = normalizeOptionalClock("end_time", ev.EndTime); err != nil {
		return err
	}
	return CheckEventWindow(ev.StartTime, ev.EndTime)
}

// CheckEventWindow rejects an end time before the start time. Either bound
// may be empty. Mutators call it on the patched event so that a patch
// carrying one bound is checked against the stored other one.
func CheckEventWindow(start, end string) error {
	if start != "" && end != "" && end < start {
		return invalid("end_time %s before start_time %s", end, start)
	}
	return nil
}

// CreateEvent adds a manual or athlete event.
func (s *Session) CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error) {
	mut, err := s.mutator()
	if err != nil {
		return nil, err
	}
	if err := validateEvent(&ev); err != nil {
		return nil, err
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev.UserID = s.userID
	now := s.svc.now().UTC()
	ev.CreatedAt, ev.UpdatedAt = now, now

	created, err := mut.CreateEvent(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.afterMutation(ctx, models.TableEvents, notify.OpInsert, created.ID)
	return created, nil
}

// UpdateEvent applies patch to one of the user's events.
func (s *Session) UpdateEvent(ctx context.Context, id string, patch models.EventPatch) (*models.Event, error) {
	mut, err := s.mutator()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalid("id is required")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalid("title cannot be empty")
	}
	if patch.Date != nil && !patch.Date.IsValid() {
		return nil, invalid("invalid date")
	}
	for _, f := range []struct {
		name string
		v    *string
	}{{"start_time", patch.StartTime}, {"end_time", patch.EndTime}} {
		if f.v == nil {
			continue
		}
		c, err := normalizeOptionalClock(f.name, *f.v)
		if err != nil {
			return nil, err
		}
		*f.v = c
	}
	if patch.StartTime != nil && patch.EndTime != nil {
		if err := CheckEventWindow(*patch.StartTime, *patch.EndTime); err != nil {
			return nil, err
		}
	}

	updated, err := mut.UpdateEvent(ctx, s.userID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update event %s: %w", id, err)
	}
	s.afterMutation(ctx, models.TableEvents, notify.OpUpdate, id)
	return updated, nil
}

// DeleteEvent removes one of the user's events.
func (s *Session) DeleteEvent(ctx context.Context, id string) error {
	mut, err := s.mutator()
	if err != nil {
		return err
	}
	if id == "" {
		return invalid("id is required")
	}
	if err := mut.DeleteEvent(ctx, s.userID, id); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	s.afterMutation(ctx, models.TableEvents, notify.OpDelete, id)
	return nil
}

// LogActivity records that an activity happened. A log of a template
// replaces the template's projection on that day.
func (s *Session) LogActivity(ctx context.Context, l models.ActivityLog) (*models.ActivityLog, error) {
	mut, err := s.mutator()
	if err != nil {
		return nil, err
	}
	l.TemplateID = strings.TrimSpace(l.TemplateID)
	l.Title = strings.TrimSpace(l.Title)
	if l.TemplateID == "" && l.Title == "" {
		return nil, invalid("template_id or title is required")
	}
	if !l.Date.IsValid() {
		return nil, invalid("date is required")
	}
	if l.StartTime, err = normalizeOptionalClock("start_time", l.StartTime); err != nil {
		return nil, err
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.UserID = s.userID
	now := s.svc.now().UTC()
	l.CreatedAt, l.UpdatedAt = now, now

	created, err := mut.CreateLog(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("create log: %w", err)
	}
	s.afterMutation(ctx, models.TableActivityLogs, notify.OpInsert, created.ID)
	return created, nil
}

// UpdateLog applies patch to one of the user's logs.
func (s *Session) UpdateLog(ctx context.Context, id string, patch models.LogPatch) (*models.ActivityLog, error) {
	mut, err := s.mutator()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, invalid("id is required")
	}
	if patch.StartTime != nil {
		c, err := normalizeOptionalClock("start_time", *patch.StartTime)
		if err != nil {
			return nil, err
		}
		*patch.StartTime = c
	}
	updated, err := mut.UpdateLog(ctx, s.userID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update log %s: %w", id, err)
	}
	s.afterMutation(ctx, models.TableActivityLogs, notify.OpUpdate, id)
	return updated, nil
}

// DeleteLog removes one of the user's logs. The template projection, if
// any, reappears on the next pass.
func (s *Session) DeleteLog(ctx context.Context, id string) error {
	mut, err := s.mutator()
	if err != nil {
		return err
	}
	if id == "" {
		return invalid("id is required")
	}
	if err := mut.DeleteLog(ctx, s.userID, id); err != nil {
		return fmt.Errorf("delete log %s: %w", id, err)
	}
	s.afterMutation(ctx, models.TableActivityLogs, notify.OpDelete, id)
	return nil
}

// DeleteItem deletes the record behind a plan item of the current plan.
// Items that are not deletable fail with ErrReadOnly.
func (s *Session) DeleteItem(ctx context.Context, date civil.Date, itemID string) error {
	cur := s.Current()
	if cur == nil {
		return ErrNotLoaded
	}
	day, ok := cur.Day(date)
	if !ok {
		return fmt.Errorf("%w: %s outside loaded range", ErrNotFound, date)
	}
	for _, it := range day.Items {
		if it.ID != itemID {
			continue
		}
		if !it.Deletable {
			return fmt.Errorf("%w: %s is a %s", ErrReadOnly, itemID, it.Category)
		}
		switch it.Category {
		case models.CategoryActivityLog:
			return s.DeleteLog(ctx, it.ID)
		case models.CategoryManualEvent, models.CategoryAthleteEvent:
			return s.DeleteEvent(ctx, it.ID)
		default:
			return fmt.Errorf("%w: %s", ErrReadOnly, it.Category)
		}
	}
	return fmt.Errorf("%w: item %s on %s", ErrNotFound, itemID, date)
}
