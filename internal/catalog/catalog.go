// Package catalog describes the built-in Game Plan tasks: the default daily
// set and the module-gated set.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fitz/gameplan/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrInvalid is returned when a catalog document fails validation.
var ErrInvalid = errors.New("invalid catalog")

// Kind separates always-shown tasks from module-gated ones.
type Kind string

const (
	KindDaily Kind = "daily"
	KindGated Kind = "gated"
)

// Task is one built-in Game Plan task.
type Task struct {
	ID              string `yaml:"id" json:"id"`
	Kind            Kind   `yaml:"kind" json:"kind"`
	Module          string `yaml:"module,omitempty" json:"module,omitempty"`
	Title           string `yaml:"title" json:"title"`
	Description     string `yaml:"description,omitempty" json:"description,omitempty"`
	RecommendedDays []int  `yaml:"recommended_days,omitempty" json:"recommended_days,omitempty"`
	StartTime       string `yaml:"start_time,omitempty" json:"start_time,omitempty"`
}

// Recommended returns the days a gated task shows on without an explicit
// schedule. No recommendation means every day.
func (t Task) Recommended() models.WeekdaySet {
	if len(t.RecommendedDays) == 0 {
		return models.EveryDay
	}
	return models.NewWeekdaySet(t.RecommendedDays)
}

// Catalog is an ordered, validated list of tasks.
type Catalog struct {
	tasks []Task
	byID  map[string]int
}

type document struct {
	Tasks []Task `yaml:"tasks"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path returns the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	c := &Catalog{byID: make(map[string]int, len(doc.Tasks))}
	for _, t := range doc.Tasks {
		if err := validate(t); err != nil {
			return nil, err
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate task id %q", ErrInvalid, t.ID)
		}
		if t.StartTime != "" {
			norm, err := models.NormalizeClock(t.StartTime)
			if err != nil {
				return nil, fmt.Errorf("%w: task %q: %v", ErrInvalid, t.ID, err)
			}
			t.StartTime = norm
		}
		c.byID[t.ID] = len(c.tasks)
		c.tasks = append(c.tasks, t)
	}
	return c, nil
}

func validate(t Task) error {
	if t.ID == "" {
		return fmt.Errorf("%w: task without id", ErrInvalid)
	}
	switch t.Kind {
	case KindDaily:
	case KindGated:
		if t.Module == "" {
			return fmt.Errorf("%w: gated task %q has no module", ErrInvalid, t.ID)
		}
	default:
		return fmt.Errorf("%w: task %q has unknown kind %q", ErrInvalid, t.ID, t.Kind)
	}
	for _, d := range t.RecommendedDays {
		if !models.ValidWeekday(d) {
			return fmt.Errorf("%w: task %q has invalid weekday %d", ErrInvalid, t.ID, d)
		}
	}
	return nil
}

// Tasks returns all tasks in catalog order.
func (c *Catalog) Tasks() []Task {
	return append([]Task(nil), c.tasks...)
}

// Lookup returns the task with the given id.
func (c *Catalog) Lookup(id string) (Task, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Task{}, false
	}
	return c.tasks[i], true
}

// Daily returns the always-shown tasks.
func (c *Catalog) Daily() []Task {
	return c.filter(KindDaily)
}

// Gated returns the module-gated tasks.
func (c *Catalog) Gated() []Task {
	return c.filter(KindGated)
}

// Select returns the tasks of the named kind; an empty name selects all.
func (c *Catalog) Select(kind string) ([]Task, error) {
	switch Kind(strings.TrimSpace(kind)) {
	case "":
		return c.Tasks(), nil
	case KindDaily:
		return c.Daily(), nil
	case KindGated:
		return c.Gated(), nil
	default:
		return nil, fmt.Errorf("%w: kind must be %s or %s, got %q", ErrInvalid, KindDaily, KindGated, kind)
	}
}

func (c *Catalog) filter(k Kind) []Task {
	var out []Task
	for _, t := range c.tasks {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}
