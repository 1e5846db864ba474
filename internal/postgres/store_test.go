package postgres

import (
	"errors"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "fields",
			cfg:  Config{Host: "db", Port: "5433", Username: "u", Password: "p", Database: "gp"},
			want: "host=db port=5433 user=u password=p dbname=gp sslmode=disable",
		},
		{
			name: "url wins",
			cfg:  Config{URL: "postgres://u:p@db/gp", Host: "ignored"},
			want: "postgres://u:p@db/gp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.DSN(); got != tt.want {
				t.Errorf("DSN() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_HOST", "")
	t.Setenv("POSTGRES_DB", "plans")

	cfg := ConfigFromEnv()
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, expected localhost", cfg.Host)
	}
	if cfg.Database != "plans" {
		t.Errorf("Database = %q, expected plans", cfg.Database)
	}
	if cfg.URL != "" {
		t.Errorf("URL = %q, expected empty", cfg.URL)
	}
}

func TestSchemaCoversSourceTables(t *testing.T) {
	for _, table := range models.SourceTables {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Errorf("schema.sql has no table %s", table)
		}
	}
}

func TestSetter(t *testing.T) {
	st := newSetter("u1", "e1")
	st.set("title", "Lift")
	st.set("end_time", "10:00")

	sql := st.sql("calendar_events", "id")

	want := "UPDATE calendar_events SET title = $3, end_time = $4, updated_at = $5 WHERE user_id = $1 AND id = $2 RETURNING id"
	if sql != want {
		t.Errorf("sql() = %q, expected %q", sql, want)
	}
	if len(st.args) != 5 {
		t.Fatalf("args = %d, expected 5", len(st.args))
	}
	if st.args[0] != "u1" || st.args[1] != "e1" || st.args[2] != "Lift" {
		t.Errorf("args = %v", st.args[:3])
	}
}

func TestMapError(t *testing.T) {
	if err := mapError(pgx.ErrNoRows); !errors.Is(err, plan.ErrNotFound) {
		t.Errorf("mapError(ErrNoRows) = %v, expected ErrNotFound", err)
	}
	dup := &pgconn.PgError{Code: "23505", Detail: "Key (id)=(e1) already exists."}
	if err := mapError(dup); !errors.Is(err, plan.ErrInvalidInput) {
		t.Errorf("mapError(unique violation) = %v, expected ErrInvalidInput", err)
	}
	other := errors.New("boom")
	if err := mapError(other); err != other {
		t.Errorf("mapError(other) = %v, expected passthrough", err)
	}
}

func TestDateArg(t *testing.T) {
	d := civil.Date{Year: 2024, Month: time.June, Day: 3}
	got := dateArg(d)
	if got.Location() != time.UTC || got.Hour() != 0 {
		t.Errorf("dateArg() = %v, expected midnight UTC", got)
	}
	if civil.DateOf(got) != d {
		t.Errorf("civil.DateOf(dateArg(d)) = %v, expected %v", civil.DateOf(got), d)
	}
}

func TestInt32Conversions(t *testing.T) {
	if got := fromInt32s(nil); got != nil {
		t.Errorf("fromInt32s(nil) = %v, expected nil", got)
	}
	if diff := cmp.Diff([]int{0, 6}, fromInt32s(toInt32s([]int{0, 6}))); diff != "" {
		t.Errorf("conversion mismatch (-want +got):\n%s", diff)
	}
	if got := toInt32s(nil); got == nil || len(got) != 0 {
		t.Errorf("toInt32s(nil) = %#v, expected empty non-nil", got)
	}
}

func TestScheduleEncoding(t *testing.T) {
	entries := []models.ScheduleEntry{{TaskID: "nutrition", Order: 1, DisplayTime: "08:00"}}
	if diff := cmp.Diff(entries, decodeSchedule(encodeSchedule(entries))); diff != "" {
		t.Errorf("schedule mismatch (-want +got):\n%s", diff)
	}
	if got := string(encodeSchedule(nil)); got != "[]" {
		t.Errorf("encodeSchedule(nil) = %q, expected []", got)
	}
}

func TestEventRow_UnknownKindIsManual(t *testing.T) {
	ev := eventRow{ID: "e1", Kind: "webhook", Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)}.model()
	if ev.Kind != models.EventManual {
		t.Errorf("Kind = %q, expected manual", ev.Kind)
	}
}

func TestImportBatch_QueuesEveryRecord(t *testing.T) {
	f := &models.Fixture{
		UserID:       "u1",
		Capabilities: []string{"pitching", "hitting"},
		Templates:    []models.ActivityTemplate{{ID: "t1", UserID: "u1"}},
		Logs:         []models.ActivityLog{{ID: "l1", UserID: "u1"}, {ID: "l2", UserID: "u1"}},
		Meals:        []models.Meal{{ID: "m1", UserID: "u1"}},
		WeeklyLocks:  []models.WeeklyLock{{UserID: "u1", DayOfWeek: 1}},
	}

	// one delete plus one insert per capability
	want := 3 + 1 + 2 + 1 + 1
	if got := importBatch(f).Len(); got != want {
		t.Errorf("importBatch().Len() = %d, expected %d", got, want)
	}
}
