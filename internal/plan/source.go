// Package plan builds a user's per-day Game Plan: it reads every source of
// schedulable things, normalizes them into plan items with stable order keys,
// buckets them per calendar day and orders each day by its locks.
package plan

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
)

var (
	// ErrInvalidRange is returned for an empty, reversed or oversized range.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrNotFound is returned by mutators when the record does not exist for the user.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput is returned when a mutation payload fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotLoaded is returned by Refresh before any range was loaded.
	ErrNotLoaded = errors.New("no range loaded")
)

// Source reads the raw records of one user. Range-scoped readers receive the
// inclusive [start, end] window; the others return every row of the user.
// Implementations must treat "no rows" as an empty result, not an error.
type Source interface {
	ActivityTemplates(ctx context.Context, userID string) ([]models.ActivityTemplate, error)
	ActivityLogs(ctx context.Context, userID string, start, end civil.Date) ([]models.ActivityLog, error)
	Events(ctx context.Context, userID string, start, end civil.Date) ([]models.Event, error)
	TaskSchedules(ctx context.Context, userID string) ([]models.TaskSchedule, error)
	TaskCompletions(ctx context.Context, userID string, start, end civil.Date) ([]models.TaskCompletion, error)
	Skips(ctx context.Context, userID string) ([]models.Skip, error)
	Programs(ctx context.Context, userID string) ([]models.ProgramEnrollment, error)
	Meals(ctx context.Context, userID string, start, end civil.Date) ([]models.Meal, error)
	DateLocks(ctx context.Context, userID string, start, end civil.Date) ([]models.DateLock, error)
	WeeklyLocks(ctx context.Context, userID string) ([]models.WeeklyLock, error)
	WeekOverrides(ctx context.Context, userID string, start, end civil.Date) ([]models.WeekOverride, error)
	Capabilities(ctx context.Context, userID string) (models.Capabilities, error)
}

// Mutator writes the user-editable records: events and activity logs.
// Update and Delete return ErrNotFound when the id does not belong to the user.
// UpdateEvent rejects, without writing, a patch that leaves the event ending
// before it starts (see CheckEventWindow).
type Mutator interface {
	CreateEvent(ctx context.Context, ev models.Event) (*models.Event, error)
	UpdateEvent(ctx context.Context, userID, id string, patch models.EventPatch) (*models.Event, error)
	DeleteEvent(ctx context.Context, userID, id string) error
	CreateLog(ctx context.Context, l models.ActivityLog) (*models.ActivityLog, error)
	UpdateLog(ctx context.Context, userID, id string, patch models.LogPatch) (*models.ActivityLog, error)
	DeleteLog(ctx context.Context, userID, id string) error
}

// LockWriter authors ordering locks. The aggregation engine never calls it;
// it exists for the features that let a user save an order.
type LockWriter interface {
	SaveDateLock(ctx context.Context, l models.DateLock) error
	SaveWeeklyLock(ctx context.Context, l models.WeeklyLock) error
	SaveWeekOverride(ctx context.Context, o models.WeekOverride) error
}

// Store is a backend that can do everything.
type Store interface {
	Source
	Mutator
	LockWriter
	Import(ctx context.Context, f *models.Fixture) error
	Close(ctx context.Context) error
}
