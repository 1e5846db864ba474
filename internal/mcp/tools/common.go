package tools

import (
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/fitz/gameplan/internal/plan"
)

// Handler provides the dependencies needed by tool handlers.
type Handler struct {
	Plans *plan.Service
	// DefaultUserID is used when a call does not name a user.
	DefaultUserID string
	Logger        *slog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(plans *plan.Service, defaultUserID string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Plans:         plans,
		DefaultUserID: defaultUserID,
		Logger:        logger,
	}
}

// session returns the session of userID, or of the default user.
func (h *Handler) session(userID string) (*plan.Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = h.DefaultUserID
	}
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return h.Plans.Session(userID), nil
}

// parseDate parses a YYYY-MM-DD argument. An empty value yields fallback.
func parseDate(field, s string, fallback civil.Date) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// ItemOutput is one plan item as returned to clients.
type ItemOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	OrderKey    string `json:"order_key"`
	SourceID    string `json:"source_id"`
	Time        string `json:"time,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Completed   bool   `json:"completed"`
	Skipped     bool   `json:"skipped,omitempty"`
	Editable    bool   `json:"editable"`
	Deletable   bool   `json:"deletable"`
}

// DayOutput is one ordered day.
type DayOutput struct {
	Date      string       `json:"date"`
	Weekday   int          `json:"weekday"`
	Policy    string       `json:"policy"`
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
	Items     []ItemOutput `json:"items"`
}

func toItemOutput(it models.PlanItem) ItemOutput {
	t := it.DisplayTime
	if t == "" {
		t = it.StartTime
	}
	return ItemOutput{
		ID:          it.ID,
		Title:       it.Title,
		Description: it.Description,
		Category:    string(it.Category),
		OrderKey:    it.OrderKey,
		SourceID:    it.SourceID,
		Time:        t,
		Detail:      it.Detail,
		Completed:   it.Completed,
		Skipped:     it.Skipped,
		Editable:    it.Editable,
		Deletable:   it.Deletable,
	}
}

func toDayOutput(d models.DayPlan) DayOutput {
	items := make([]ItemOutput, len(d.Items))
	for i, it := range d.Items {
		items[i] = toItemOutput(it)
	}
	return DayOutput{
		Date:      d.Date.String(),
		Weekday:   models.Weekday(d.Date),
		Policy:    string(d.Policy),
		Total:     d.Total,
		Completed: d.Completed,
		Items:     items,
	}
}

// MutationOutput is returned by every tool that changes data.
type MutationOutput struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	// Day is the refreshed day the change landed on, when that day is loaded.
	Day *DayOutput `json:"day,omitempty"`
}

// mutationResult reports the outcome of a session mutation on date.
func (h *Handler) mutationResult(tool string, sess *plan.Session, date civil.Date, id string, err error) MutationOutput {
	if err != nil {
		h.Logger.Error(tool+" failed", "user_id", sess.UserID(), "id", id, "error", err)
		return MutationOutput{Success: false, ID: id, Error: err.Error()}
	}
	out := MutationOutput{Success: true, ID: id}
	if day, ok := sess.Current().Day(date); ok {
		d := toDayOutput(day)
		out.Day = &d
	}
	h.Logger.Info(tool+" complete", "user_id", sess.UserID(), "id", id)
	return out
}
