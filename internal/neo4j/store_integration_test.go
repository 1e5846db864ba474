//go:build integration
// +build integration

package neo4j

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

// Run with: go test -tags=integration -v ./internal/neo4j
func getTestStore(t *testing.T) (*Store, context.Context, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	client, err := NewClient(ctx, ConfigFromEnv())
	if err != nil {
		t.Skipf("Neo4j not available: %v", err)
	}
	store := NewStore(client)

	userID := "it-" + uuid.NewString()
	t.Cleanup(func() {
		session := client.Session(context.Background())
		defer session.Close(context.Background())
		_, _ = session.Run(context.Background(),
			`MATCH (n {user_id: $user_id}) DETACH DELETE n`, map[string]any{"user_id": userID})
		_, _ = session.Run(context.Background(),
			`MATCH (u:User {id: $user_id}) DETACH DELETE u`, map[string]any{"user_id": userID})
		client.Close(context.Background())
	})
	return store, ctx, userID
}

var (
	itMonday  = civil.Date{Year: 2024, Month: time.June, Day: 3}
	itTuesday = itMonday.AddDays(1)
)

func TestStore_ImportAndRead(t *testing.T) {
	store, ctx, userID := getTestStore(t)

	f := &models.Fixture{
		UserID:       userID,
		Capabilities: []string{"pitching"},
		Templates: []models.ActivityTemplate{
			{ID: "t1", UserID: userID, Title: "Yoga", RecurringDays: []int{1}},
		},
		Logs: []models.ActivityLog{
			{ID: "l1", UserID: userID, TemplateID: "t1", Date: itMonday, Completed: true},
		},
		Events: []models.Event{
			{ID: "e1", UserID: userID, Kind: models.EventAthlete, Title: "Game", Date: itTuesday},
		},
		WeeklyLocks: []models.WeeklyLock{
			{UserID: userID, DayOfWeek: 1, Schedule: []models.ScheduleEntry{{TaskID: "t1", Order: 1}}},
		},
	}
	if err := store.Import(ctx, f); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	templates, err := store.ActivityTemplates(ctx, userID)
	if err != nil || len(templates) != 1 || templates[0].Title != "Yoga" {
		t.Fatalf("ActivityTemplates() = %+v, %v", templates, err)
	}

	logs, err := store.ActivityLogs(ctx, userID, itMonday, itMonday)
	if err != nil || len(logs) != 1 || !logs[0].Completed {
		t.Fatalf("ActivityLogs() = %+v, %v", logs, err)
	}

	events, err := store.Events(ctx, userID, itMonday, itMonday)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Events(monday) returned %d, expected 0", len(events))
	}

	weekly, err := store.WeeklyLocks(ctx, userID)
	if err != nil || len(weekly) != 1 || len(weekly[0].Schedule) != 1 {
		t.Fatalf("WeeklyLocks() = %+v, %v", weekly, err)
	}

	caps, err := store.Capabilities(ctx, userID)
	if err != nil {
		t.Fatalf("Capabilities failed: %v", err)
	}
	if !caps.Has("pitching") {
		t.Errorf("Capabilities() = %v, expected pitching", caps.List())
	}
}

func TestStore_EventCRUD(t *testing.T) {
	store, ctx, userID := getTestStore(t)

	created, err := store.CreateEvent(ctx, models.Event{
		ID: uuid.NewString(), UserID: userID, Kind: models.EventManual, Title: "Lift", Date: itMonday,
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	title := "Heavy lift"
	updated, err := store.UpdateEvent(ctx, userID, created.ID, models.EventPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	if updated.Title != title {
		t.Errorf("Title = %q, expected %q", updated.Title, title)
	}

	if _, err := store.UpdateEvent(ctx, "someone-else", created.ID, models.EventPatch{Title: &title}); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("UpdateEvent(other user) error = %v, expected ErrNotFound", err)
	}

	if err := store.DeleteEvent(ctx, userID, created.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if err := store.DeleteEvent(ctx, userID, created.ID); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("second DeleteEvent error = %v, expected ErrNotFound", err)
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

func TestStore_DateLockUpsert(t *testing.T) {
	store, ctx, userID := getTestStore(t)

	for _, keys := range [][]string{{"a", "b"}, {"b", "a"}} {
		err := store.SaveDateLock(ctx, models.DateLock{UserID: userID, Date: itMonday, Locked: true, OrderKeys: keys})
		if err != nil {
			t.Fatalf("SaveDateLock failed: %v", err)
		}
	}

	locks, err := store.DateLocks(ctx, userID, itMonday, itMonday)
	if err != nil {
		t.Fatalf("DateLocks failed: %v", err)
	}
	if len(locks) != 1 {
		t.Fatalf("DateLocks() returned %d, expected 1", len(locks))
	}
	if locks[0].OrderKeys[0] != "b" {
		t.Errorf("OrderKeys = %v, expected last save to win", locks[0].OrderKeys)
	}

	if err := store.SaveWeeklyLock(ctx, models.WeeklyLock{UserID: userID, DayOfWeek: 9}); !errors.Is(err, plan.ErrInvalidInput) {
		t.Errorf("SaveWeeklyLock(9) error = %v, expected ErrInvalidInput", err)
	}
}
