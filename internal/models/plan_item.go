package models

import "cloud.google.com/go/civil"

// PlanItem is one schedulable thing occurring on one day. Items are rebuilt
// on every aggregation pass; only OrderKey is stable across passes.
type PlanItem struct {
	ID          string     `json:"id"`
	Date        civil.Date `json:"date"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   string     `json:"start_time,omitempty"`   // HH:MM, sort fallback only
	DisplayTime string     `json:"display_time,omitempty"` // from a weekly lock entry
	Detail      string     `json:"detail,omitempty"`
	Category    Category   `json:"category"`
	SourceID    string     `json:"source_id"`
	OrderKey    string     `json:"order_key"`
	Completed   bool       `json:"completed"`
	HasLog      bool       `json:"has_log,omitempty"`
	Skipped     bool       `json:"skipped,omitempty"`
	Editable    bool       `json:"editable"`
	Deletable   bool       `json:"deletable"`
	ModuleGate  string     `json:"module_gate,omitempty"`
}

// OrderingPolicy names the rule that ordered a day.
type OrderingPolicy string

const (
	PolicyDateLock     OrderingPolicy = "date-lock"
	PolicyWeekOverride OrderingPolicy = "week-override"
	PolicyWeeklyLock   OrderingPolicy = "weekly-lock"
	PolicyTime         OrderingPolicy = "time"
)

// DayPlan is the ordered bucket of items for one calendar day.
type DayPlan struct {
	Date      civil.Date     `json:"date"`
	Items     []PlanItem     `json:"items"`
	Policy    OrderingPolicy `json:"policy"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
}

// Keys returns the order keys of the day's items in order.
func (d DayPlan) Keys() []string {
	keys := make([]string, len(d.Items))
	for i, it := range d.Items {
		keys[i] = it.OrderKey
	}
	return keys
}
