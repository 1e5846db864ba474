package plan

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/catalog"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/notify"
)

// Service is the entry point of the engine. It aggregates on demand and keeps
// one Session per user.
type Service struct {
	agg    *Aggregator
	mut    Mutator
	locks  LockWriter
	bus    notify.Bus
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog sets the system task catalog. The embedded default is used otherwise.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.agg.Catalog = c
		}
	}
}

// WithLockWriter enables the lock authoring methods of sessions.
func WithLockWriter(w LockWriter) Option {
	return func(s *Service) {
		s.locks = w
	}
}

// WithBus publishes a change after every successful mutation.
func WithBus(b notify.Bus) Option {
	return func(s *Service) { s.bus = b }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone that decides which calendar day is today.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService creates a service reading from src. mut may be nil, in which
// case every mutation fails with ErrReadOnly.
func NewService(src Source, mut Mutator, opts ...Option) *Service {
	s := &Service{
		agg:      &Aggregator{Source: src, Catalog: catalog.Default()},
		mut:      mut,
		now:      time.Now,
		loc:      time.Local,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.agg.Logger = s.logger
	return s
}

// Today returns the current calendar date in the service's location.
func (s *Service) Today() civil.Date {
	return models.Today(s.now(), s.loc)
}

// Catalog returns the system task catalog in use.
func (s *Service) Catalog() *catalog.Catalog {
	return s.agg.Catalog
}

// Bus returns the configured change bus, or nil.
func (s *Service) Bus() notify.Bus {
	return s.bus
}

// Aggregate runs a single stateless pass.
func (s *Service) Aggregate(ctx context.Context, userID string, start, end civil.Date) (*Plan, error) {
	return s.agg.Aggregate(ctx, userID, start, end, s.Today())
}

// Session returns the session of userID, creating it on first use.
func (s *Service) Session(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := newSession(s, userID)
	s.sessions[userID] = sess
	return sess
}

// Close ends every session's subscriptions.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

func (s *Service) publish(ctx context.Context, c notify.Change) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, c); err != nil {
		s.logger.Warn("publish change failed", "table", c.Table, "user_id", c.UserID, "error", err)
	}
}
