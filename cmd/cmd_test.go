package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/config"
	"github.com/fitz/gameplan/internal/models"
	"github.com/google/go-cmp/cmp"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"0", 0, false},
		{"6", 6, false},
		{"7", 0, true},
		{"-1", 0, true},
		{"mon", 1, false},
		{"Saturday", 6, false},
		{" thu ", 4, false},
		{"someday", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseWeekday(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseWeekday(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("parseWeekday(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseEntries(t *testing.T) {
	got := parseEntries([]string{"checkin@6:45", "ca:mobility", "journal"})
	expected := []models.ScheduleEntry{
		{TaskID: "checkin", Order: 0, DisplayTime: "6:45"},
		{TaskID: "ca:mobility", Order: 1},
		{TaskID: "journal", Order: 2},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("parseEntries() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRange(t *testing.T) {
	today := civil.Date{Year: 2024, Month: 6, Day: 3}

	tests := []struct {
		name      string
		args      []string
		wantStart civil.Date
		wantEnd   civil.Date
		wantErr   bool
	}{
		{"defaults to today", nil, today, today, false},
		{"start only", []string{"2024-06-10"}, civil.Date{Year: 2024, Month: 6, Day: 10}, civil.Date{Year: 2024, Month: 6, Day: 10}, false},
		{"start and end", []string{"2024-06-01", "2024-06-07"}, civil.Date{Year: 2024, Month: 6, Day: 1}, civil.Date{Year: 2024, Month: 6, Day: 7}, false},
		{"bad start", []string{"tomorrow"}, civil.Date{}, civil.Date{}, true},
		{"bad end", []string{"2024-06-01", "06/07"}, civil.Date{}, civil.Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parseRange(tt.args, today)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("parseRange() = %s..%s, expected %s..%s", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestMaskPassword(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "(not set)"},
		{"abc", "****"},
		{"supersecret", "su****et"},
	}
	for _, tt := range tests {
		if got := maskPassword(tt.input); got != tt.expected {
			t.Errorf("maskPassword(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestIsSecret(t *testing.T) {
	for key, expected := range map[string]bool{
		"NEO4J_PASSWORD":    true,
		"POSTGRES_PASSWORD": true,
		"DATABASE_URL":      true,
		"NEO4J_URI":         false,
		"GAMEPLAN_BACKEND":  false,
	} {
		if got := isSecret(key); got != expected {
			t.Errorf("isSecret(%s) = %v, expected %v", key, got, expected)
		}
	}
}

func TestContainerFor(t *testing.T) {
	cfg := &config.Config{
		Backend:               config.BackendPostgres,
		PostgresPassword:      "pw",
		PostgresImage:         "postgres:16-alpine",
		PostgresContainerName: "gp-pg",
	}
	c := containerFor(cfg)
	if c == nil || c.Name != "gp-pg" || c.Env["POSTGRES_PASSWORD"] != "pw" {
		t.Errorf("containerFor(postgres) = %+v", c)
	}

	cfg.Backend = config.BackendMemory
	if c := containerFor(cfg); c != nil {
		t.Errorf("containerFor(memory) = %+v, expected nil", c)
	}
}

func TestIsConfigCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"config set", []string{"config", "set"}, true},
		{"config list", []string{"config", "list"}, true},
		{"plan", []string{"plan"}, false},
		{"lock week", []string{"lock", "week"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, err := rootCmd.Find(tt.args)
			if err != nil {
				t.Fatalf("Find(%v) error = %v", tt.args, err)
			}
			if got := isConfigCommand(c); got != tt.expected {
				t.Errorf("isConfigCommand(%s) = %v, expected %v", c.CommandPath(), got, tt.expected)
			}
		})
	}
}

const fixtureYAML = `
user_id: athlete-1
templates:
  - id: mobility
    title: Mobility
    start_time: "06:30"
    recurring_days: [0, 1, 2, 3, 4, 5, 6]
meals:
  - id: m1
    date: 2024-06-03
    meal_type: breakfast
    title: Oats
    time: "07:30"
`

func TestOpenApp_MemoryBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Backend:     config.BackendMemory,
		FixturePath: path,
		Timezone:    "UTC",
	}
	ctx := context.Background()

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("openApp() error = %v", err)
	}
	defer a.Close(ctx)

	day := civil.Date{Year: 2024, Month: 6, Day: 3}
	p, err := a.plans.Aggregate(ctx, "athlete-1", day, day)
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	var out bytes.Buffer
	printPlan(&out, p)
	text := out.String()
	for _, want := range []string{"2024-06-03 Mon", "06:30  Mobility", "07:30  Oats", "<meal:m1>"} {
		if !strings.Contains(text, want) {
			t.Errorf("printPlan() output missing %q:\n%s", want, text)
		}
	}

	if err := a.store.SetCapabilities(ctx, "athlete-1", []string{"hitting"}); err != nil {
		t.Fatalf("SetCapabilities() error = %v", err)
	}
	caps, _ := a.store.Capabilities(ctx, "athlete-1")
	if !caps.Has("hitting") {
		t.Error("capabilities not stored")
	}
}

func TestOpenApp_UnknownBackend(t *testing.T) {
	_, err := openApp(context.Background(), &config.Config{Backend: "sqlite"}, logger)
	if err == nil {
		t.Error("openApp() with an unknown backend should fail")
	}
}
