package tools

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SetDayOrderInput defines the input for the set_day_order tool.
type SetDayOrderInput struct {
	UserID    string   `json:"user_id,omitempty" jsonschema:"User who owns the plan. Defaults to the server's user."`
	Date      string   `json:"date" jsonschema:"required,Day to order (YYYY-MM-DD)"`
	OrderKeys []string `json:"order_keys" jsonschema:"required,Order keys in the wanted order, e.g. gp:hydrate or ca:<template id>"`
	Locked    *bool    `json:"locked,omitempty" jsonschema:"Whether the day stays locked to this order. Defaults to true."`
}

// SetDayOrderTool returns the tool definition for set_day_order.
func SetDayOrderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_day_order",
		Description: "Fix the order of items on one date. Items not listed keep their time order after the listed ones.",
	}
}

// HandleSetDayOrder handles the set_day_order tool call.
func (h *Handler) HandleSetDayOrder(ctx context.Context, req *mcp.CallToolRequest, input SetDayOrderInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("set_day_order", "user_id", input.UserID, "date", input.Date, "keys", len(input.OrderKeys))

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	date, err := parseDate("date", input.Date, civil.Date{})
	if err != nil {
		return nil, h.mutationResult("set_day_order", sess, date, "", err), nil
	}

	locked := true
	if input.Locked != nil {
		locked = *input.Locked
	}

	err = sess.SaveDateLock(ctx, date, locked, input.OrderKeys)
	return nil, h.mutationResult("set_day_order", sess, date, date.String(), err), nil
}

// ScheduleEntryInput is one slot of a weekday order.
type ScheduleEntryInput struct {
	TaskID      string `json:"task_id" jsonschema:"required,Source id of the item (catalog task id, template id, meal id or event id)"`
	Kind        string `json:"kind,omitempty" jsonschema:"Category of the item. Defaults to a Game Plan task."`
	Order       int    `json:"order" jsonschema:"required,Position within the day, lowest first"`
	DisplayTime string `json:"display_time,omitempty" jsonschema:"Time to show instead of the item's own (HH:MM)"`
}

// SetWeekOrderInput defines the input for the set_week_order tool.
type SetWeekOrderInput struct {
	UserID    string               `json:"user_id,omitempty" jsonschema:"User who owns the plan. Defaults to the server's user."`
	DayOfWeek int                  `json:"day_of_week" jsonschema:"required,Weekday to order, 0 = Sunday through 6 = Saturday"`
	WeekStart string               `json:"week_start,omitempty" jsonschema:"Any date of a single week (YYYY-MM-DD). When set, only that week is changed."`
	Entries   []ScheduleEntryInput `json:"entries" jsonschema:"required,Ordered slots of the weekday"`
}

// SetWeekOrderTool returns the tool definition for set_week_order.
func SetWeekOrderTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_week_order",
		Description: "Fix the order of a weekday, either every week or for a single week when week_start is given.",
	}
}

// HandleSetWeekOrder handles the set_week_order tool call.
func (h *Handler) HandleSetWeekOrder(ctx context.Context, req *mcp.CallToolRequest, input SetWeekOrderInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("set_week_order", "user_id", input.UserID, "day_of_week", input.DayOfWeek, "week_start", input.WeekStart)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}

	entries := make([]models.ScheduleEntry, len(input.Entries))
	for i, e := range input.Entries {
		entries[i] = models.ScheduleEntry{
			TaskID:      e.TaskID,
			Kind:        models.Category(e.Kind),
			Order:       e.Order,
			DisplayTime: e.DisplayTime,
		}
	}

	if input.WeekStart == "" {
		err = sess.SaveWeeklyLock(ctx, input.DayOfWeek, entries)
		return nil, h.mutationResult("set_week_order", sess, civil.Date{}, "", err), nil
	}

	week, err := parseDate("week_start", input.WeekStart, civil.Date{})
	if err != nil {
		return nil, h.mutationResult("set_week_order", sess, week, "", err), nil
	}
	err = sess.SaveWeekOverride(ctx, week, input.DayOfWeek, entries)
	// report the overridden day itself
	day := models.WeekStart(week).AddDays(input.DayOfWeek)
	return nil, h.mutationResult("set_week_order", sess, day, "", err), nil
}
