package models

import "testing"

func TestIsValidCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"recurring-activity", true},
		{"activity-log", true},
		{"manual-event", true},
		{"system-scheduled-task", true},
		{"default-daily-task", true},
		{"module-gated-task", true},
		{"program-session", true},
		{"meal", true},
		{"athlete-event", true},
		{"MEAL", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsValidCategory(tc.input); got != tc.expected {
			t.Errorf("IsValidCategory(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}
}

func TestOrderKey(t *testing.T) {
	tests := []struct {
		category Category
		sourceID string
		expected string
	}{
		{CategoryRecurringActivity, "abc", "ca:abc"},
		{CategoryActivityLog, "abc", "ca:abc"},
		{CategorySystemTask, "nutrition", "gp:nutrition"},
		{CategoryDefaultTask, "nutrition", "gp:nutrition"},
		{CategoryGatedTask, "texvision", "gp:texvision"},
		{CategoryProgramSession, "workout-hitting", "gp:workout-hitting"},
		{CategoryMeal, "42", "meal:42"},
		{CategoryManualEvent, "e1", "event:e1"},
		{CategoryAthleteEvent, "e2", "athlete:e2"},
		{CategoryMeal, "", ""},
		{Category("unknown"), "x", ""},
	}

	for _, tc := range tests {
		if got := OrderKey(tc.category, tc.sourceID); got != tc.expected {
			t.Errorf("OrderKey(%s, %q) = %q, expected %q", tc.category, tc.sourceID, got, tc.expected)
		}
	}
}

func TestLogOrderKey(t *testing.T) {
	if got := LogOrderKey(ActivityLog{ID: "l1", TemplateID: "t1"}); got != "ca:t1" {
		t.Errorf("expected ca:t1, got %s", got)
	}
	if got := LogOrderKey(ActivityLog{ID: "l1"}); got != "log:l1" {
		t.Errorf("expected log:l1, got %s", got)
	}
	if got := LogOrderKey(ActivityLog{}); got != "" {
		t.Errorf("expected empty key, got %s", got)
	}
}

func TestScheduleOrderKey(t *testing.T) {
	tests := []struct {
		name     string
		entry    ScheduleEntry
		expected string
	}{
		{"bare task id", ScheduleEntry{TaskID: "nutrition"}, "gp:nutrition"},
		{"already prefixed", ScheduleEntry{TaskID: "ca:uuid-1"}, "ca:uuid-1"},
		{"custom dash", ScheduleEntry{TaskID: "custom-uuid-1"}, "ca:uuid-1"},
		{"custom colon", ScheduleEntry{TaskID: "custom:uuid-1"}, "ca:uuid-1"},
		{"meal dash", ScheduleEntry{TaskID: "meal-7"}, "meal:7"},
		{"explicit kind", ScheduleEntry{TaskID: "e1", Kind: CategoryAthleteEvent}, "athlete:e1"},
		{"whitespace", ScheduleEntry{TaskID: "  journal "}, "gp:journal"},
		{"empty", ScheduleEntry{TaskID: " "}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScheduleOrderKey(tt.entry); got != tt.expected {
				t.Errorf("ScheduleOrderKey(%+v) = %q, expected %q", tt.entry, got, tt.expected)
			}
		})
	}
}
