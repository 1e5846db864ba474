package plan

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/catalog"
	"github.com/fitz/gameplan/internal/models"
)

// MaxRangeDays bounds the length of one aggregation range.
const MaxRangeDays = 366

// Plan is the result of one aggregation pass.
type Plan struct {
	UserID     string           `json:"user_id"`
	Start      civil.Date       `json:"start"`
	End        civil.Date       `json:"end"`
	Days       []models.DayPlan `json:"days"`
	Degraded   []string         `json:"degraded,omitempty"`
	Generation uint64           `json:"generation"`
}

// Day returns the bucket of d, if d is inside the plan's range.
func (p *Plan) Day(d civil.Date) (models.DayPlan, bool) {
	if p == nil || d.Before(p.Start) || d.After(p.End) {
		return models.DayPlan{}, false
	}
	return p.Days[d.DaysSince(p.Start)], true
}

// ValidateRange checks an inclusive range.
func ValidateRange(start, end civil.Date) error {
	if !start.IsValid() || !end.IsValid() {
		return fmt.Errorf("%w: invalid date", ErrInvalidRange)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange, end, start)
	}
	if n := end.DaysSince(start) + 1; n > MaxRangeDays {
		return fmt.Errorf("%w: %d days exceeds %d", ErrInvalidRange, n, MaxRangeDays)
	}
	return nil
}

// Aggregator runs aggregation passes against a Source.
type Aggregator struct {
	Source  Source
	Catalog *catalog.Catalog
	Logger  *slog.Logger
}

// Aggregate reads every source for userID and builds the ordered day plans of
// [start, end]. Reader failures degrade the affected categories only; their
// names are listed in Plan.Degraded.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, start, end, today civil.Date) (*Plan, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap, err := fetch(ctx, a.Source, logger, userID, start, end)
	if err != nil {
		logger.Warn("aggregation degraded", "user_id", userID, "error", err)
	}

	p := build(snap, a.catalogOrDefault(), start, end, today)
	p.UserID = userID
	p.Degraded = Degraded(err)
	return p, nil
}

func (a *Aggregator) catalogOrDefault() *catalog.Catalog {
	if a.Catalog == nil {
		return catalog.Default()
	}
	return a.Catalog
}

// build is the pure part of a pass: normalize, bucket, gate and order.
func build(snap *snapshot, cat *catalog.Catalog, start, end, today civil.Date) *Plan {
	days := models.DaysIn(start, end)
	p := &Plan{
		Start: start,
		End:   end,
		Days:  make([]models.DayPlan, len(days)),
	}
	for i, d := range days {
		p.Days[i] = models.DayPlan{Date: d, Items: []models.PlanItem{}}
	}

	n := newNormalizer(snap, cat, start, end, today)
	for _, it := range n.all() {
		if !snap.caps.Has(it.ModuleGate) {
			continue
		}
		if !it.Date.IsValid() || it.Date.Before(start) || it.Date.After(end) {
			continue
		}
		i := it.Date.DaysSince(start)
		p.Days[i].Items = append(p.Days[i].Items, it)
	}

	locks := newLockIndex(snap.dateLocks, snap.weeklyLocks, snap.weekOverrides)
	for i := range p.Days {
		day := &p.Days[i]
		day.Policy = locks.Order(day.Date, day.Items)
		day.Total = len(day.Items)
		for _, it := range day.Items {
			if it.Completed {
				day.Completed++
			}
		}
	}
	return p
}
