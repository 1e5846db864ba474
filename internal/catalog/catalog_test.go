package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()

	if len(c.Daily()) == 0 {
		t.Fatal("expected daily tasks in the default catalog")
	}
	if len(c.Gated()) == 0 {
		t.Fatal("expected gated tasks in the default catalog")
	}
	for _, task := range c.Gated() {
		if task.Module == "" {
			t.Errorf("gated task %s has no module", task.ID)
		}
	}
	if len(c.Tasks()) != len(c.Daily())+len(c.Gated()) {
		t.Errorf("every task must be daily or gated")
	}

	task, ok := c.Lookup("nutrition")
	if !ok {
		t.Fatal("expected nutrition task")
	}
	if task.Kind != KindDaily {
		t.Errorf("expected nutrition to be daily, got %s", task.Kind)
	}
	if _, ok := c.Lookup("does-not-exist"); ok {
		t.Error("unexpected task")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", "tasks:\n  - id: a\n    kind: weekly"},
		{"gated without module", "tasks:\n  - id: a\n    kind: gated"},
		{"missing id", "tasks:\n  - kind: daily"},
		{"duplicate id", "tasks:\n  - id: a\n    kind: daily\n  - id: a\n    kind: daily"},
		{"bad weekday", "tasks:\n  - id: a\n    kind: gated\n    module: hitting\n    recommended_days: [7]"},
		{"bad start time", "tasks:\n  - id: a\n    kind: daily\n    start_time: \"7pm\""},
		{"not yaml", "tasks: ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestParse_NormalizesStartTime(t *testing.T) {
	c, err := Parse([]byte("tasks:\n  - id: a\n    kind: daily\n    start_time: \"7:5\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	task, _ := c.Lookup("a")
	if task.StartTime != "07:05" {
		t.Errorf("expected 07:05, got %s", task.StartTime)
	}
}

func TestRecommended(t *testing.T) {
	all := Task{Kind: KindGated, Module: "speed"}
	for d := 0; d < 7; d++ {
		if !all.Recommended().Has(d) {
			t.Errorf("no recommendation must mean every day, missing %d", d)
		}
	}
	some := Task{RecommendedDays: []int{2}}
	if some.Recommended().Has(1) || !some.Recommended().Has(2) {
		t.Error("unexpected recommended days")
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || len(c.Tasks()) != len(Default().Tasks()) {
		t.Fatalf("expected embedded catalog for empty path, err=%v", err)
	}

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("tasks:\n  - id: only\n    kind: daily\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Tasks()) != 1 {
		t.Errorf("expected 1 task, got %d", len(c.Tasks()))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSelect(t *testing.T) {
	c := Default()

	tests := []struct {
		kind    string
		want    int
		wantErr bool
	}{
		{"", len(c.Tasks()), false},
		{"daily", len(c.Daily()), false},
		{" gated ", len(c.Gated()), false},
		{"weekly", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := c.Select(tt.kind)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Select(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Select(%q) returned %d tasks, want %d", tt.kind, len(got), tt.want)
			}
		})
	}
}
