package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetDayInput defines the input for the get_day tool.
type GetDayInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User whose day to build. Defaults to the server's user."`
	Date   string `json:"date,omitempty" jsonschema:"Date (YYYY-MM-DD). Defaults to today."`
}

// GetDayOutput defines the output for the get_day tool.
type GetDayOutput struct {
	Day      DayOutput `json:"day"`
	Degraded []string  `json:"degraded,omitempty"`
}

// GetDayTool returns the tool definition for get_day.
func GetDayTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_day",
		Description: "Get the ordered Game Plan of a single day, today by default.",
	}
}

// HandleGetDay handles the get_day tool call.
func (h *Handler) HandleGetDay(ctx context.Context, req *mcp.CallToolRequest, input GetDayInput) (*mcp.CallToolResult, GetDayOutput, error) {
	h.Logger.Info("get_day", "user_id", input.UserID, "date", input.Date)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, GetDayOutput{}, err
	}
	date, err := parseDate("date", input.Date, h.Plans.Today())
	if err != nil {
		return nil, GetDayOutput{}, err
	}

	p, err := sess.Load(ctx, date, date)
	if err != nil {
		h.Logger.Error("get_day failed", "error", err)
		return nil, GetDayOutput{}, fmt.Errorf("failed to build day: %w", err)
	}
	day, _ := p.Day(date)

	h.Logger.Info("get_day complete", "date", date, "items", len(day.Items))
	return nil, GetDayOutput{Day: toDayOutput(day), Degraded: p.Degraded}, nil
}
