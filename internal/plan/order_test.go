package plan

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/google/go-cmp/cmp"
)

var (
	monday     = civil.Date{Year: 2024, Month: 6, Day: 3}
	nextMonday = civil.Date{Year: 2024, Month: 6, Day: 10}
	tuesday    = civil.Date{Year: 2024, Month: 6, Day: 4}
)

func item(key, start string) models.PlanItem {
	return models.PlanItem{ID: key, OrderKey: key, StartTime: start}
}

func ids(items []models.PlanItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestOrderDay_TimeFallback(t *testing.T) {
	tests := []struct {
		name  string
		items []models.PlanItem
		want  []string
	}{
		{
			name:  "timed before untimed, untimed keep input order",
			items: []models.PlanItem{item("1", ""), item("2", "09:00"), item("3", "")},
			want:  []string{"2", "1", "3"},
		},
		{
			name:  "timed ascending",
			items: []models.PlanItem{item("a", "18:30"), item("b", "06:15"), item("c", "12:00")},
			want:  []string{"b", "c", "a"},
		},
		{
			name:  "equal times are stable",
			items: []models.PlanItem{item("x", "08:00"), item("y", "08:00"), item("z", "07:00")},
			want:  []string{"z", "x", "y"},
		},
		{
			name:  "unparseable time counts as untimed",
			items: []models.PlanItem{item("bad", "soon"), item("ok", "10:00")},
			want:  []string{"ok", "bad"},
		},
		{
			name:  "empty day",
			items: []models.PlanItem{},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orderDay(tt.items, nil)
			if diff := cmp.Diff(tt.want, ids(tt.items)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderDay_MappedFirst(t *testing.T) {
	items := []models.PlanItem{
		item("gp:c", "06:00"),
		item("gp:b", ""),
		item("gp:u2", ""),
		item("gp:a", "20:00"),
		item("gp:u1", "07:00"),
	}
	pos := position{"gp:a": 0, "gp:b": 1, "gp:c": 2, "gp:deleted": 3}

	orderDay(items, pos)

	want := []string{"gp:a", "gp:b", "gp:c", "gp:u1", "gp:u2"}
	if diff := cmp.Diff(want, ids(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderDay_EmptyKeyNeverMapped(t *testing.T) {
	items := []models.PlanItem{
		{ID: "nokey", StartTime: "05:00"},
		item("gp:a", ""),
	}
	orderDay(items, position{"": 0, "gp:a": 1})

	if diff := cmp.Diff([]string{"gp:a", "nokey"}, ids(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestLockIndex_Precedence(t *testing.T) {
	weekly := []models.WeeklyLock{{
		DayOfWeek: 1,
		Schedule: []models.ScheduleEntry{
			{TaskID: "b", Order: 1},
			{TaskID: "a", Order: 0},
		},
	}}
	dateLock := []models.DateLock{{Date: monday, Locked: true, OrderKeys: []string{"gp:b", "gp:a"}}}

	tests := []struct {
		name       string
		dates      []models.DateLock
		overrides  []models.WeekOverride
		day        civil.Date
		wantPolicy models.OrderingPolicy
		want       []string
	}{
		{
			name:       "date lock beats weekly lock",
			dates:      dateLock,
			day:        monday,
			wantPolicy: models.PolicyDateLock,
			want:       []string{"gp:b", "gp:a", "gp:z"},
		},
		{
			name:       "weekly lock alone",
			day:        monday,
			wantPolicy: models.PolicyWeeklyLock,
			want:       []string{"gp:a", "gp:b", "gp:z"},
		},
		{
			name:       "date lock only governs its own date",
			dates:      dateLock,
			day:        nextMonday,
			wantPolicy: models.PolicyWeeklyLock,
			want:       []string{"gp:a", "gp:b", "gp:z"},
		},
		{
			name:       "unlocked date lock is ignored",
			dates:      []models.DateLock{{Date: monday, Locked: false, OrderKeys: []string{"gp:b", "gp:a"}}},
			day:        monday,
			wantPolicy: models.PolicyWeeklyLock,
			want:       []string{"gp:a", "gp:b", "gp:z"},
		},
		{
			name:       "empty date lock is ignored",
			dates:      []models.DateLock{{Date: monday, Locked: true}},
			day:        monday,
			wantPolicy: models.PolicyWeeklyLock,
			want:       []string{"gp:a", "gp:b", "gp:z"},
		},
		{
			name: "week override beats weekly lock for its week",
			overrides: []models.WeekOverride{{
				DayOfWeek: 1,
				WeekStart: models.WeekStart(monday),
				Schedule:  []models.ScheduleEntry{{TaskID: "z", Order: 0}, {TaskID: "b", Order: 1}},
			}},
			day:        monday,
			wantPolicy: models.PolicyWeekOverride,
			want:       []string{"gp:z", "gp:b", "gp:a"},
		},
		{
			name: "week override does not leak into the next week",
			overrides: []models.WeekOverride{{
				DayOfWeek: 1,
				WeekStart: models.WeekStart(monday),
				Schedule:  []models.ScheduleEntry{{TaskID: "z", Order: 0}},
			}},
			day:        nextMonday,
			wantPolicy: models.PolicyWeeklyLock,
			want:       []string{"gp:a", "gp:b", "gp:z"},
		},
		{
			name:       "other weekday falls back to time",
			day:        tuesday,
			wantPolicy: models.PolicyTime,
			want:       []string{"gp:z", "gp:b", "gp:a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := newLockIndex(tt.dates, weekly, tt.overrides)
			items := []models.PlanItem{
				item("gp:a", "21:00"),
				item("gp:b", "12:00"),
				item("gp:z", "06:00"),
			}
			policy := idx.Order(tt.day, items)
			if policy != tt.wantPolicy {
				t.Errorf("expected policy %s, got %s", tt.wantPolicy, policy)
			}
			if diff := cmp.Diff(tt.want, ids(items)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchedulePositions(t *testing.T) {
	entries := []models.ScheduleEntry{
		{TaskID: "meal-42", Order: 3},
		{TaskID: "custom-abc", Order: 1, DisplayTime: "16:00"},
		{TaskID: "nutrition", Order: 0},
		{TaskID: "gp:nutrition", Order: 2},
		{TaskID: "", Order: 4},
		{TaskID: "evt1", Kind: models.CategoryManualEvent, Order: 5},
	}

	pos, times := schedulePositions(entries)

	wantPos := position{"gp:nutrition": 0, "ca:abc": 1, "meal:42": 2, "event:evt1": 3}
	if diff := cmp.Diff(wantPos, pos); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if times["ca:abc"] != "16:00" {
		t.Errorf("expected display time 16:00 for ca:abc, got %q", times["ca:abc"])
	}
}

func TestLockIndex_CopiesDisplayTime(t *testing.T) {
	idx := newLockIndex(nil, []models.WeeklyLock{{
		DayOfWeek: 1,
		Schedule:  []models.ScheduleEntry{{TaskID: "checkin", Order: 0, DisplayTime: "06:45"}},
	}}, nil)
	items := []models.PlanItem{item("gp:checkin", "07:00"), item("gp:journal", "")}

	idx.Order(monday, items)

	if items[0].DisplayTime != "06:45" {
		t.Errorf("expected display time 06:45, got %q", items[0].DisplayTime)
	}
	if items[0].StartTime != "07:00" {
		t.Errorf("start time must not change, got %q", items[0].StartTime)
	}
	if items[1].DisplayTime != "" {
		t.Errorf("unmapped item got display time %q", items[1].DisplayTime)
	}
}
