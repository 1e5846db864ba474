package plan

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
)

type overrideKey struct {
	weekday   int
	weekStart civil.Date
}

// lockIndex holds the ordering locks of one pass, indexed for per-day lookup.
type lockIndex struct {
	dates     map[civil.Date]models.DateLock
	overrides map[overrideKey]models.WeekOverride
	weekly    map[int]models.WeeklyLock
}

func newLockIndex(dates []models.DateLock, weekly []models.WeeklyLock, overrides []models.WeekOverride) *lockIndex {
	idx := &lockIndex{
		dates:     make(map[civil.Date]models.DateLock, len(dates)),
		overrides: make(map[overrideKey]models.WeekOverride, len(overrides)),
		weekly:    make(map[int]models.WeeklyLock, len(weekly)),
	}
	for _, l := range dates {
		idx.dates[l.Date] = l
	}
	for _, o := range overrides {
		idx.overrides[overrideKey{o.DayOfWeek, o.WeekStart}] = o
	}
	for _, w := range weekly {
		idx.weekly[w.DayOfWeek] = w
	}
	return idx
}

// position maps an order key to its rank within a lock.
type position map[string]int

// resolve picks the ordering that governs d.
func (idx *lockIndex) resolve(d civil.Date) (models.OrderingPolicy, position, map[string]string) {
	if l, ok := idx.dates[d]; ok && l.Locked && len(l.OrderKeys) > 0 {
		pos := make(position, len(l.OrderKeys))
		for i, k := range l.OrderKeys {
			if _, dup := pos[k]; k == "" || dup {
				continue
			}
			pos[k] = i
		}
		return models.PolicyDateLock, pos, nil
	}

	wd := models.Weekday(d)
	if o, ok := idx.overrides[overrideKey{wd, models.WeekStart(d)}]; ok && len(o.Schedule) > 0 {
		pos, times := schedulePositions(o.Schedule)
		return models.PolicyWeekOverride, pos, times
	}
	if w, ok := idx.weekly[wd]; ok && len(w.Schedule) > 0 {
		pos, times := schedulePositions(w.Schedule)
		return models.PolicyWeeklyLock, pos, times
	}
	return models.PolicyTime, nil, nil
}

// schedulePositions ranks a weekly schedule by its own order field. When two
// entries translate to the same key the first one wins.
func schedulePositions(entries []models.ScheduleEntry) (position, map[string]string) {
	sorted := make([]models.ScheduleEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})

	pos := make(position, len(sorted))
	times := make(map[string]string)
	for _, e := range sorted {
		key := models.ScheduleOrderKey(e)
		if key == "" {
			continue
		}
		if _, dup := pos[key]; dup {
			continue
		}
		pos[key] = len(pos)
		if e.DisplayTime != "" {
			times[key] = e.DisplayTime
		}
	}
	return pos, times
}

// orderDay sorts items in place. Items present in pos come first by rank; the
// rest follow by start time, untimed last, keeping input order among equals.
func orderDay(items []models.PlanItem, pos position) {
	type sortKey struct {
		mapped bool
		rank   int
		timed  bool
		clock  int
	}
	keys := make([]sortKey, len(items))
	for i, it := range items {
		k := sortKey{}
		if r, ok := pos[it.OrderKey]; ok && it.OrderKey != "" {
			k.mapped, k.rank = true, r
		}
		if m, err := models.ParseClock(it.StartTime); err == nil {
			k.timed, k.clock = true, m
		}
		keys[i] = k
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.mapped != kb.mapped {
			return ka.mapped
		}
		if ka.mapped {
			return ka.rank < kb.rank
		}
		if ka.timed != kb.timed {
			return ka.timed
		}
		return ka.timed && ka.clock < kb.clock
	})

	sorted := make([]models.PlanItem, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}

// Order resolves the policy of d and orders items accordingly. It returns the
// policy that applied.
func (idx *lockIndex) Order(d civil.Date, items []models.PlanItem) models.OrderingPolicy {
	policy, pos, times := idx.resolve(d)
	for i := range items {
		if t, ok := times[items[i].OrderKey]; ok {
			items[i].DisplayTime = t
		}
	}
	orderDay(items, pos)
	return policy
}
