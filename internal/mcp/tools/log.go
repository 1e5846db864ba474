package tools

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LogActivityInput defines the input for the log_activity tool.
type LogActivityInput struct {
	UserID     string `json:"user_id,omitempty" jsonschema:"User who did the activity. Defaults to the server's user."`
	TemplateID string `json:"template_id,omitempty" jsonschema:"Recurring activity this log belongs to. Required unless title is set."`
	Date       string `json:"date,omitempty" jsonschema:"Day of the activity (YYYY-MM-DD). Defaults to today."`
	Title      string `json:"title,omitempty" jsonschema:"Title for a one-off activity"`
	Notes      string `json:"notes,omitempty" jsonschema:"Free text notes"`
	StartTime  string `json:"start_time,omitempty" jsonschema:"Time the activity started (HH:MM)"`
	Completed  *bool  `json:"completed,omitempty" jsonschema:"Whether the activity was completed. Defaults to true."`
}

// LogActivityTool returns the tool definition for log_activity.
func LogActivityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "log_activity",
		Description: "Record that an activity happened on a day. A log of a recurring activity takes that activity's place in the day.",
	}
}

// HandleLogActivity handles the log_activity tool call.
func (h *Handler) HandleLogActivity(ctx context.Context, req *mcp.CallToolRequest, input LogActivityInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("log_activity", "user_id", input.UserID, "template_id", input.TemplateID, "date", input.Date)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	date, err := parseDate("date", input.Date, h.Plans.Today())
	if err != nil {
		return nil, h.mutationResult("log_activity", sess, date, "", err), nil
	}

	completed := true
	if input.Completed != nil {
		completed = *input.Completed
	}

	l, err := sess.LogActivity(ctx, models.ActivityLog{
		TemplateID: input.TemplateID,
		Date:       date,
		Title:      input.Title,
		Notes:      input.Notes,
		StartTime:  input.StartTime,
		Completed:  completed,
	})
	if err != nil {
		return nil, h.mutationResult("log_activity", sess, date, "", err), nil
	}
	return nil, h.mutationResult("log_activity", sess, l.Date, l.ID, nil), nil
}

// UpdateLogInput defines the input for the update_log tool.
type UpdateLogInput struct {
	UserID    string  `json:"user_id,omitempty" jsonschema:"User who owns the log. Defaults to the server's user."`
	ID        string  `json:"id" jsonschema:"required,Log ID"`
	Notes     *string `json:"notes,omitempty" jsonschema:"New notes"`
	StartTime *string `json:"start_time,omitempty" jsonschema:"New start time (HH:MM). Empty clears it."`
	Completed *bool   `json:"completed,omitempty" jsonschema:"New completion state"`
}

// UpdateLogTool returns the tool definition for update_log.
func UpdateLogTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_log",
		Description: "Change the notes, start time or completion of an activity log.",
	}
}

// HandleUpdateLog handles the update_log tool call.
func (h *Handler) HandleUpdateLog(ctx context.Context, req *mcp.CallToolRequest, input UpdateLogInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("update_log", "user_id", input.UserID, "id", input.ID)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}

	l, err := sess.UpdateLog(ctx, input.ID, models.LogPatch{
		Notes:     input.Notes,
		StartTime: input.StartTime,
		Completed: input.Completed,
	})
	if err != nil {
		return nil, h.mutationResult("update_log", sess, civil.Date{}, input.ID, err), nil
	}
	return nil, h.mutationResult("update_log", sess, l.Date, l.ID, nil), nil
}

// DeleteLogInput defines the input for the delete_log tool.
type DeleteLogInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User who owns the log. Defaults to the server's user."`
	ID     string `json:"id" jsonschema:"required,Log ID"`
}

// DeleteLogTool returns the tool definition for delete_log.
func DeleteLogTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_log",
		Description: "Delete an activity log. The recurring activity it replaced shows again on that day.",
	}
}

// HandleDeleteLog handles the delete_log tool call.
func (h *Handler) HandleDeleteLog(ctx context.Context, req *mcp.CallToolRequest, input DeleteLogInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("delete_log", "user_id", input.UserID, "id", input.ID)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	err = sess.DeleteLog(ctx, input.ID)
	return nil, h.mutationResult("delete_log", sess, civil.Date{}, input.ID, err), nil
}
