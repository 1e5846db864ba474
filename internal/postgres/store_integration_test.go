//go:build integration
// +build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/google/uuid"
)

// Run with: DATABASE_URL=... go test -tags=integration -v ./internal/postgres
func getTestStore(t *testing.T) (*Store, context.Context, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	client, err := NewClient(ctx, ConfigFromEnv())
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	store := NewStore(client)

	userID := "it-" + uuid.NewString()
	t.Cleanup(func() {
		bg := context.Background()
		for _, table := range models.SourceTables {
			_, _ = client.Pool().Exec(bg, "DELETE FROM "+table+" WHERE user_id = $1", userID)
		}
		client.Close(bg)
	})
	return store, ctx, userID
}

var itMonday = civil.Date{Year: 2024, Month: time.June, Day: 3}

func TestStore_ImportAndRead(t *testing.T) {
	store, ctx, userID := getTestStore(t)

	f := &models.Fixture{
		UserID:       userID,
		Capabilities: []string{"pitching"},
		Templates:    []models.ActivityTemplate{{ID: uuid.NewString(), UserID: userID, Title: "Yoga", RecurringDays: []int{1}}},
		Meals:        []models.Meal{{ID: uuid.NewString(), UserID: userID, Date: itMonday, MealType: "breakfast"}},
		WeekOverrides: []models.WeekOverride{{
			UserID: userID, DayOfWeek: 1, WeekStart: models.WeekStart(itMonday),
			Schedule: []models.ScheduleEntry{{TaskID: "nutrition", Order: 1}},
		}},
	}
	if err := store.Import(ctx, f); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	// importing twice is an upsert
	if err := store.Import(ctx, f); err != nil {
		t.Fatalf("second Import failed: %v", err)
	}

	templates, err := store.ActivityTemplates(ctx, userID)
	if err != nil || len(templates) != 1 {
		t.Fatalf("ActivityTemplates() = %+v, %v", templates, err)
	}
	if len(templates[0].RecurringDays) != 1 || templates[0].RecurringDays[0] != 1 {
		t.Errorf("RecurringDays = %v, expected [1]", templates[0].RecurringDays)
	}

	meals, err := store.Meals(ctx, userID, itMonday, itMonday)
	if err != nil || len(meals) != 1 || meals[0].Date != itMonday {
		t.Fatalf("Meals() = %+v, %v", meals, err)
	}

	overrides, err := store.WeekOverrides(ctx, userID, itMonday, itMonday)
	if err != nil || len(overrides) != 1 || len(overrides[0].Schedule) != 1 {
		t.Fatalf("WeekOverrides() = %+v, %v", overrides, err)
	}

	caps, err := store.Capabilities(ctx, userID)
	if err != nil || !caps.Has("pitching") {
		t.Fatalf("Capabilities() = %v, %v", caps.List(), err)
	}
}

func TestStore_UpdateEventWindowRollsBack(t *testing.T) {
	store, ctx, userID := getTestStore(t)

	created, err := store.CreateEvent(ctx, models.Event{
		ID: uuid.NewString(), UserID: userID, Kind: models.EventManual, Title: "Lift",
		Date: itMonday, StartTime: "09:00", EndTime: "10:00",
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	early := "08:00"
	if _, err := store.UpdateEvent(ctx, userID, created.ID, models.EventPatch{EndTime: &early}); !errors.Is(err, plan.ErrInvalidInput) {
		t.Errorf("UpdateEvent(end before start) error = %v, expected ErrInvalidInput", err)
	}

	events, err := store.Events(ctx, userID, itMonday, itMonday)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 1 || events[0].EndTime != "10:00" {
		t.Errorf("expected the rejected update to roll back, got %+v", events)
	}
}

func TestStore_LogCRUD(t *testing.T) {
	store, ctx, userID := getTestStore(t)

	created, err := store.CreateLog(ctx, models.ActivityLog{
		ID: uuid.NewString(), UserID: userID, Title: "Run", Date: itMonday,
	})
	if err != nil {
		t.Fatalf("CreateLog failed: %v", err)
	}
	if _, err := store.CreateLog(ctx, *created); !errors.Is(err, plan.ErrInvalidInput) {
		t.Errorf("duplicate CreateLog error = %v, expected ErrInvalidInput", err)
	}

	done := true
	updated, err := store.UpdateLog(ctx, userID, created.ID, models.LogPatch{Completed: &done})
	if err != nil {
		t.Fatalf("UpdateLog failed: %v", err)
	}
	if !updated.Completed {
		t.Error("Completed = false, expected true")
	}

	if err := store.DeleteLog(ctx, userID, created.ID); err != nil {
		t.Fatalf("DeleteLog failed: %v", err)
	}
	if err := store.DeleteLog(ctx, userID, created.ID); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("second DeleteLog error = %v, expected ErrNotFound", err)
	}
	if _, err := store.UpdateLog(ctx, userID, created.ID, models.LogPatch{Completed: &done}); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("UpdateLog(deleted) error = %v, expected ErrNotFound", err)
	}
}
