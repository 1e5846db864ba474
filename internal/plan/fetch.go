package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"golang.org/x/sync/errgroup"
)

// Reader names, used in degraded-category reports and logs.
const (
	ReaderTemplates     = "templates"
	ReaderLogs          = "logs"
	ReaderEvents        = "events"
	ReaderSchedules     = "schedules"
	ReaderCompletions   = "completions"
	ReaderSkips         = "skips"
	ReaderPrograms      = "programs"
	ReaderMeals         = "meals"
	ReaderDateLocks     = "date_locks"
	ReaderWeeklyLocks   = "weekly_locks"
	ReaderWeekOverrides = "week_overrides"
	ReaderCapabilities  = "capabilities"
)

// snapshot is the raw input of one aggregation pass.
type snapshot struct {
	templates     []models.ActivityTemplate
	logs          []models.ActivityLog
	events        []models.Event
	schedules     []models.TaskSchedule
	completions   []models.TaskCompletion
	skips         []models.Skip
	programs      []models.ProgramEnrollment
	meals         []models.Meal
	dateLocks     []models.DateLock
	weeklyLocks   []models.WeeklyLock
	weekOverrides []models.WeekOverride
	caps          models.Capabilities
}

// ReadError reports the readers that failed during one pass.
type ReadError struct {
	Failed map[string]error
}

func (e *ReadError) Error() string {
	names := e.Categories()
	return fmt.Sprintf("%d source reader(s) failed: %v", len(names), names)
}

// Unwrap exposes the individual reader errors to errors.Is/As.
func (e *ReadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, name := range e.Categories() {
		errs = append(errs, e.Failed[name])
	}
	return errs
}

// Categories returns the failed reader names, sorted.
func (e *ReadError) Categories() []string {
	names := make([]string, 0, len(e.Failed))
	for n := range e.Failed {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type readReport struct {
	mu     sync.Mutex
	failed map[string]error
}

func (r *readReport) fail(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed == nil {
		r.failed = make(map[string]error)
	}
	r.failed[name] = err
}

func (r *readReport) err() error {
	if len(r.failed) == 0 {
		return nil
	}
	return &ReadError{Failed: r.failed}
}

// read runs one reader on g. A failure leaves dst empty and is recorded; it
// never cancels the sibling readers.
func read[T any](g *errgroup.Group, rep *readReport, logger *slog.Logger, name string, dst *T, fn func() (T, error)) {
	g.Go(func() error {
		v, err := fn()
		if err != nil {
			logger.Warn("source read failed", "reader", name, "error", err)
			rep.fail(name, err)
			return nil
		}
		*dst = v
		return nil
	})
}

// fetch issues every reader concurrently and waits for all of them. The
// returned error is a *ReadError when some readers failed; the snapshot is
// always usable.
func fetch(ctx context.Context, src Source, logger *slog.Logger, userID string, start, end civil.Date) (*snapshot, error) {
	var (
		g   errgroup.Group
		rep readReport
		s   snapshot
	)

	read(&g, &rep, logger, ReaderTemplates, &s.templates, func() ([]models.ActivityTemplate, error) {
		return src.ActivityTemplates(ctx, userID)
	})
	read(&g, &rep, logger, ReaderLogs, &s.logs, func() ([]models.ActivityLog, error) {
		return src.ActivityLogs(ctx, userID, start, end)
	})
	read(&g, &rep, logger, ReaderEvents, &s.events, func() ([]models.Event, error) {
		return src.Events(ctx, userID, start, end)
	})
	read(&g, &rep, logger, ReaderSchedules, &s.schedules, func() ([]models.TaskSchedule, error) {
		return src.TaskSchedules(ctx, userID)
	})
	read(&g, &rep, logger, ReaderCompletions, &s.completions, func() ([]models.TaskCompletion, error) {
		return src.TaskCompletions(ctx, userID, start, end)
	})
	read(&g, &rep, logger, ReaderSkips, &s.skips, func() ([]models.Skip, error) {
		return src.Skips(ctx, userID)
	})
	read(&g, &rep, logger, ReaderPrograms, &s.programs, func() ([]models.ProgramEnrollment, error) {
		return src.Programs(ctx, userID)
	})
	read(&g, &rep, logger, ReaderMeals, &s.meals, func() ([]models.Meal, error) {
		return src.Meals(ctx, userID, start, end)
	})
	read(&g, &rep, logger, ReaderDateLocks, &s.dateLocks, func() ([]models.DateLock, error) {
		return src.DateLocks(ctx, userID, start, end)
	})
	read(&g, &rep, logger, ReaderWeeklyLocks, &s.weeklyLocks, func() ([]models.WeeklyLock, error) {
		return src.WeeklyLocks(ctx, userID)
	})
	read(&g, &rep, logger, ReaderWeekOverrides, &s.weekOverrides, func() ([]models.WeekOverride, error) {
		return src.WeekOverrides(ctx, userID, start, end)
	})
	read(&g, &rep, logger, ReaderCapabilities, &s.caps, func() (models.Capabilities, error) {
		return src.Capabilities(ctx, userID)
	})

	_ = g.Wait()
	return &s, rep.err()
}

// Degraded returns the failed reader names of err, or nil.
func Degraded(err error) []string {
	var re *ReadError
	if errors.As(err, &re) {
		return re.Categories()
	}
	return nil
}
