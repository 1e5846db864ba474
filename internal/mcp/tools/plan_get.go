package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetDayPlanInput defines the input for the get_day_plan tool.
type GetDayPlanInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User whose plan to build. Defaults to the server's user."`
	Start  string `json:"start,omitempty" jsonschema:"First date (YYYY-MM-DD). Defaults to today."`
	End    string `json:"end,omitempty" jsonschema:"Last date, inclusive (YYYY-MM-DD). Defaults to start."`
}

// GetDayPlanOutput defines the output for the get_day_plan tool.
type GetDayPlanOutput struct {
	UserID     string      `json:"user_id"`
	Start      string      `json:"start"`
	End        string      `json:"end"`
	Generation uint64      `json:"generation"`
	Degraded   []string    `json:"degraded,omitempty"`
	Days       []DayOutput `json:"days"`
}

// GetDayPlanTool returns the tool definition for get_day_plan.
func GetDayPlanTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_day_plan",
		Description: "Build the Game Plan for a date range: every recurring activity, activity log, system task, program session, meal and event of each day, ordered by the user's locks or by time. Degraded lists sources that could not be read.",
	}
}

// HandleGetDayPlan handles the get_day_plan tool call.
func (h *Handler) HandleGetDayPlan(ctx context.Context, req *mcp.CallToolRequest, input GetDayPlanInput) (*mcp.CallToolResult, GetDayPlanOutput, error) {
	h.Logger.Info("get_day_plan", "user_id", input.UserID, "start", input.Start, "end", input.End)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, GetDayPlanOutput{}, err
	}
	start, err := parseDate("start", input.Start, h.Plans.Today())
	if err != nil {
		return nil, GetDayPlanOutput{}, err
	}
	end, err := parseDate("end", input.End, start)
	if err != nil {
		return nil, GetDayPlanOutput{}, err
	}

	p, err := sess.Load(ctx, start, end)
	if err != nil {
		h.Logger.Error("get_day_plan failed", "error", err)
		return nil, GetDayPlanOutput{}, fmt.Errorf("failed to build plan: %w", err)
	}

	days := make([]DayOutput, len(p.Days))
	for i, d := range p.Days {
		days[i] = toDayOutput(d)
	}

	h.Logger.Info("get_day_plan complete", "user_id", p.UserID, "days", len(days), "generation", p.Generation)
	return nil, GetDayPlanOutput{
		UserID:     p.UserID,
		Start:      p.Start.String(),
		End:        p.End.String(),
		Generation: p.Generation,
		Degraded:   p.Degraded,
		Days:       days,
	}, nil
}
