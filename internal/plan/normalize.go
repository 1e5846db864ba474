package plan

import (
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/catalog"
	"github.com/fitz/gameplan/internal/models"
)

// Labels used for program sessions on days other than today.
const ProgramUpcomingDetail = "gamePlan.program.upcomingSession"

type slot struct {
	key  string
	date civil.Date
}

// normalizer turns one snapshot into plan items for the days of a range.
type normalizer struct {
	days    []civil.Date
	start   civil.Date
	end     civil.Date
	today   civil.Date
	catalog *catalog.Catalog
	snap    *snapshot

	templates map[string]models.ActivityTemplate
	schedules map[string]models.TaskSchedule
	programs  map[string]bool
	skips     map[string]models.WeekdaySet
	logged    map[slot]bool
	completed map[slot]bool
}

func newNormalizer(snap *snapshot, cat *catalog.Catalog, start, end, today civil.Date) *normalizer {
	n := &normalizer{
		days:      models.DaysIn(start, end),
		start:     start,
		end:       end,
		today:     today,
		catalog:   cat,
		snap:      snap,
		templates: make(map[string]models.ActivityTemplate, len(snap.templates)),
		schedules: make(map[string]models.TaskSchedule, len(snap.schedules)),
		programs:  make(map[string]bool, len(snap.programs)),
		skips:     make(map[string]models.WeekdaySet, len(snap.skips)),
		logged:    make(map[slot]bool),
		completed: make(map[slot]bool),
	}
	for _, t := range snap.templates {
		n.templates[t.ID] = t
	}
	for _, s := range snap.schedules {
		n.schedules[s.TaskID] = s
	}
	for _, p := range snap.programs {
		n.programs[p.TaskID] = true
	}
	for _, s := range snap.skips {
		n.skips[s.ItemKey] |= models.NewWeekdaySet(s.SkipDays)
	}
	for _, l := range snap.logs {
		key := models.LogOrderKey(l)
		if key == "" {
			continue
		}
		n.logged[slot{key, l.Date}] = true
	}
	for _, c := range snap.completions {
		s := slot{models.OrderKey(models.CategorySystemTask, c.TaskID), c.Date}
		n.logged[s] = true
		n.completed[s] = true
	}
	return n
}

func (n *normalizer) inRange(d civil.Date) bool {
	return !d.Before(n.start) && !d.After(n.end)
}

// skipped reports whether key is skipped on d's weekday.
func (n *normalizer) skipped(key string, d civil.Date) bool {
	return n.skips[key].Has(models.Weekday(d))
}

// admit applies the skip registry: a skipped slot is kept only when it was
// logged that day.
func (n *normalizer) admit(it *models.PlanItem) bool {
	if !n.skipped(it.OrderKey, it.Date) {
		return true
	}
	if n.logged[slot{it.OrderKey, it.Date}] {
		it.Skipped = true
		return true
	}
	return false
}

// templateItems projects every active template onto its scheduled days. A
// projection is suppressed when a log of the template exists that day.
func (n *normalizer) templateItems() []models.PlanItem {
	var out []models.PlanItem
	for _, t := range n.snap.templates {
		if t.Archived {
			continue
		}
		days := t.ScheduleDays()
		if days.Empty() {
			continue
		}
		key := models.OrderKey(models.CategoryRecurringActivity, t.ID)
		for _, d := range n.days {
			if !days.Has(models.Weekday(d)) {
				continue
			}
			if n.logged[slot{key, d}] {
				continue
			}
			it := models.PlanItem{
				ID:          fmt.Sprintf("template-%s-%s", t.ID, d),
				Date:        d,
				Title:       t.Title,
				Description: t.Description,
				StartTime:   t.StartTime,
				Category:    models.CategoryRecurringActivity,
				SourceID:    t.ID,
				OrderKey:    key,
			}
			if n.admit(&it) {
				out = append(out, it)
			}
		}
	}
	return out
}

// logItems turns logs into items. Several logs of one slot collapse into one:
// a completed log wins, then the most recently updated.
func (n *normalizer) logItems() []models.PlanItem {
	best := make(map[slot]models.ActivityLog)
	var order []slot
	for _, l := range n.snap.logs {
		if !n.inRange(l.Date) {
			continue
		}
		key := models.LogOrderKey(l)
		if key == "" {
			continue
		}
		s := slot{key, l.Date}
		cur, seen := best[s]
		if !seen {
			order = append(order, s)
			best[s] = l
			continue
		}
		if preferLog(l, cur) {
			best[s] = l
		}
	}

	out := make([]models.PlanItem, 0, len(order))
	for _, s := range order {
		l := best[s]
		it := models.PlanItem{
			ID:        l.ID,
			Date:      l.Date,
			Title:     l.Title,
			StartTime: l.StartTime,
			Category:  models.CategoryActivityLog,
			SourceID:  l.TemplateID,
			OrderKey:  s.key,
			Completed: l.Completed,
			HasLog:    true,
			Editable:  true,
			Deletable: true,
		}
		if it.SourceID == "" {
			it.SourceID = l.ID
		}
		if t, ok := n.templates[l.TemplateID]; ok {
			if it.Title == "" {
				it.Title = t.Title
			}
			it.Description = t.Description
			if it.StartTime == "" {
				it.StartTime = t.StartTime
			}
		}
		if l.Notes != "" {
			it.Description = l.Notes
		}
		it.Skipped = n.skipped(it.OrderKey, it.Date)
		out = append(out, it)
	}
	return out
}

func preferLog(a, b models.ActivityLog) bool {
	if a.Completed != b.Completed {
		return a.Completed
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

// taskItems expands the catalog tasks. An explicit schedule row decides the
// days of a task; without one daily tasks show every day and gated tasks on
// their recommended days. Tasks owned by a program are rendered as program
// sessions instead.
func (n *normalizer) taskItems() []models.PlanItem {
	var out []models.PlanItem
	for _, t := range n.catalog.Tasks() {
		if n.programs[t.ID] {
			continue
		}
		category := models.CategoryDefaultTask
		days := models.EveryDay
		if t.Kind == catalog.KindGated {
			category = models.CategoryGatedTask
			days = t.Recommended()
		}
		if row, ok := n.schedules[t.ID]; ok {
			category = models.CategorySystemTask
			days = models.NewWeekdaySet(row.DisplayDays)
		}
		if days.Empty() {
			continue
		}
		key := models.OrderKey(category, t.ID)
		for _, d := range n.days {
			if !days.Has(models.Weekday(d)) {
				continue
			}
			s := slot{key, d}
			it := models.PlanItem{
				ID:          fmt.Sprintf("task-%s-%s", t.ID, d),
				Date:        d,
				Title:       t.Title,
				Description: t.Description,
				StartTime:   t.StartTime,
				Category:    category,
				SourceID:    t.ID,
				OrderKey:    key,
				Completed:   n.completed[s],
				HasLog:      n.logged[s],
				ModuleGate:  t.Module,
			}
			if n.admit(&it) {
				out = append(out, it)
			}
		}
	}
	return out
}

// programDays returns the weekdays an enrollment runs on: the owning task's
// explicit schedule when there is one, its own weekly days otherwise.
func (n *normalizer) programDays(p models.ProgramEnrollment) models.WeekdaySet {
	if row, ok := n.schedules[p.TaskID]; ok {
		return models.NewWeekdaySet(row.DisplayDays)
	}
	return models.NewWeekdaySet(p.WeeklyDays)
}

// preferProgram reports whether a should own a task slot over b: the later
// start wins, then the smaller id.
func preferProgram(a, b models.ProgramEnrollment) bool {
	if a.StartDate != b.StartDate {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID < b.ID
}

// programItems expands program enrollments onto their weekly days (or the
// owning task's explicit schedule). Today's session carries a detailed label;
// other days a generic one. The order key is the owning task's either way, so
// when enrollments for one task overlap only one of them fills each day.
func (n *normalizer) programItems() []models.PlanItem {
	owner := make(map[slot]int)
	for i, p := range n.snap.programs {
		key := models.OrderKey(models.CategoryProgramSession, p.TaskID)
		days := n.programDays(p)
		for _, d := range n.days {
			if !programActive(p, d) || !days.Has(models.Weekday(d)) {
				continue
			}
			s := slot{key, d}
			if j, ok := owner[s]; !ok || preferProgram(p, n.snap.programs[j]) {
				owner[s] = i
			}
		}
	}

	var out []models.PlanItem
	for i, p := range n.snap.programs {
		days := n.programDays(p)
		if days.Empty() {
			continue
		}
		key := models.OrderKey(models.CategoryProgramSession, p.TaskID)
		for _, d := range n.days {
			s := slot{key, d}
			if j, ok := owner[s]; !ok || j != i {
				continue
			}
			it := models.PlanItem{
				ID:         fmt.Sprintf("program-%s-%s", p.ID, d),
				Date:       d,
				Title:      p.Title,
				StartTime:  p.StartTime,
				Category:   models.CategoryProgramSession,
				SourceID:   p.TaskID,
				OrderKey:   key,
				Completed:  n.completed[s],
				HasLog:     n.logged[s],
				ModuleGate: p.Module,
				Detail:     ProgramUpcomingDetail,
			}
			if d == n.today {
				it.Detail = programDetail(p, days, d)
			}
			if n.admit(&it) {
				out = append(out, it)
			}
		}
	}
	return out
}

func programActive(p models.ProgramEnrollment, d civil.Date) bool {
	if !p.StartDate.IsValid() {
		return true
	}
	if d.Before(p.StartDate) {
		return false
	}
	if p.Weeks > 0 && d.DaysSince(p.StartDate) >= 7*p.Weeks {
		return false
	}
	return true
}

// programDetail labels the session on d as "Week N · Day M", followed by the
// session name when the program names its sessions.
func programDetail(p models.ProgramEnrollment, days models.WeekdaySet, d civil.Date) string {
	perWeek := 0
	for wd := 0; wd < 7; wd++ {
		if days.Has(wd) {
			perWeek++
		}
	}
	first := p.StartDate
	if !first.IsValid() {
		first = d
	}
	session := 0
	for cur := first; !cur.After(d); cur = cur.AddDays(1) {
		if days.Has(models.Weekday(cur)) {
			session++
		}
	}
	if session == 0 || perWeek == 0 {
		return ProgramUpcomingDetail
	}
	label := fmt.Sprintf("Week %d · Day %d", (session-1)/perWeek+1, (session-1)%perWeek+1)
	if len(p.SessionNames) > 0 {
		label += ": " + p.SessionNames[(session-1)%len(p.SessionNames)]
	}
	return label
}

// mealItems keys each meal by its own row id so several meals of one type
// stay distinct.
func (n *normalizer) mealItems() []models.PlanItem {
	out := make([]models.PlanItem, 0, len(n.snap.meals))
	for _, m := range n.snap.meals {
		if !n.inRange(m.Date) {
			continue
		}
		title := m.Title
		if title == "" {
			title = m.MealType
		}
		out = append(out, models.PlanItem{
			ID:          "meal-" + m.ID,
			Date:        m.Date,
			Title:       title,
			Description: m.MealType,
			StartTime:   m.Time,
			Category:    models.CategoryMeal,
			SourceID:    m.ID,
			OrderKey:    models.OrderKey(models.CategoryMeal, m.ID),
			Completed:   m.Completed,
		})
	}
	return out
}

// eventItems includes every event in range; events are always editable.
func (n *normalizer) eventItems() []models.PlanItem {
	out := make([]models.PlanItem, 0, len(n.snap.events))
	for _, e := range n.snap.events {
		if !n.inRange(e.Date) {
			continue
		}
		category := e.Kind.Category()
		out = append(out, models.PlanItem{
			ID:          e.ID,
			Date:        e.Date,
			Title:       e.Title,
			Description: e.Description,
			StartTime:   e.StartTime,
			Category:    category,
			SourceID:    e.ID,
			OrderKey:    models.OrderKey(category, e.ID),
			Editable:    true,
			Deletable:   true,
		})
	}
	return out
}

// all returns every normalized item, grouped by category in a fixed order so
// that untimed items keep a deterministic relative order.
func (n *normalizer) all() []models.PlanItem {
	var out []models.PlanItem
	out = append(out, n.taskItems()...)
	out = append(out, n.programItems()...)
	out = append(out, n.templateItems()...)
	out = append(out, n.logItems()...)
	out = append(out, n.mealItems()...)
	out = append(out, n.eventItems()...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
