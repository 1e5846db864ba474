package tools

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/fitz/gameplan/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CreateEventInput defines the input for the create_event tool.
type CreateEventInput struct {
	UserID      string `json:"user_id,omitempty" jsonschema:"User who owns the event. Defaults to the server's user."`
	Title       string `json:"title" jsonschema:"required,Event title"`
	Date        string `json:"date" jsonschema:"required,Event date (YYYY-MM-DD)"`
	StartTime   string `json:"start_time,omitempty" jsonschema:"Start time (HH:MM, 24h)"`
	EndTime     string `json:"end_time,omitempty" jsonschema:"End time (HH:MM, 24h)"`
	Description string `json:"description,omitempty" jsonschema:"Free text shown under the title"`
	Kind        string `json:"kind,omitempty" jsonschema:"manual (default) or athlete"`
}

// CreateEventTool returns the tool definition for create_event.
func CreateEventTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_event",
		Description: "Add a one-off calendar event to a day. Manual events can later be edited and deleted.",
	}
}

// HandleCreateEvent handles the create_event tool call.
func (h *Handler) HandleCreateEvent(ctx context.Context, req *mcp.CallToolRequest, input CreateEventInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("create_event", "user_id", input.UserID, "date", input.Date, "title", input.Title)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	date, err := parseDate("date", input.Date, civil.Date{})
	if err != nil {
		return nil, h.mutationResult("create_event", sess, date, "", err), nil
	}

	ev, err := sess.CreateEvent(ctx, models.Event{
		Kind:        models.EventKind(input.Kind),
		Title:       input.Title,
		Description: input.Description,
		Date:        date,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
	})
	if err != nil {
		return nil, h.mutationResult("create_event", sess, date, "", err), nil
	}
	return nil, h.mutationResult("create_event", sess, ev.Date, ev.ID, nil), nil
}

// UpdateEventInput defines the input for the update_event tool.
type UpdateEventInput struct {
	UserID      string  `json:"user_id,omitempty" jsonschema:"User who owns the event. Defaults to the server's user."`
	ID          string  `json:"id" jsonschema:"required,Event ID"`
	Title       *string `json:"title,omitempty" jsonschema:"New title"`
	Date        *string `json:"date,omitempty" jsonschema:"New date (YYYY-MM-DD)"`
	StartTime   *string `json:"start_time,omitempty" jsonschema:"New start time (HH:MM). Empty clears it."`
	EndTime     *string `json:"end_time,omitempty" jsonschema:"New end time (HH:MM). Empty clears it."`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
}

// UpdateEventTool returns the tool definition for update_event.
func UpdateEventTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_event",
		Description: "Change fields of an existing event. Omitted fields are left unchanged.",
	}
}

// HandleUpdateEvent handles the update_event tool call.
func (h *Handler) HandleUpdateEvent(ctx context.Context, req *mcp.CallToolRequest, input UpdateEventInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("update_event", "user_id", input.UserID, "id", input.ID)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}

	patch := models.EventPatch{
		Title:       input.Title,
		Description: input.Description,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
	}
	if input.Date != nil {
		d, err := parseDate("date", *input.Date, civil.Date{})
		if err != nil {
			return nil, h.mutationResult("update_event", sess, d, input.ID, err), nil
		}
		patch.Date = &d
	}

	ev, err := sess.UpdateEvent(ctx, input.ID, patch)
	if err != nil {
		return nil, h.mutationResult("update_event", sess, civil.Date{}, input.ID, err), nil
	}
	return nil, h.mutationResult("update_event", sess, ev.Date, ev.ID, nil), nil
}

// DeleteEventInput defines the input for the delete_event tool.
type DeleteEventInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User who owns the event. Defaults to the server's user."`
	ID     string `json:"id" jsonschema:"required,Event ID"`
}

// DeleteEventTool returns the tool definition for delete_event.
func DeleteEventTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_event",
		Description: "Delete a calendar event by ID.",
	}
}

// HandleDeleteEvent handles the delete_event tool call.
func (h *Handler) HandleDeleteEvent(ctx context.Context, req *mcp.CallToolRequest, input DeleteEventInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("delete_event", "user_id", input.UserID, "id", input.ID)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	err = sess.DeleteEvent(ctx, input.ID)
	return nil, h.mutationResult("delete_event", sess, civil.Date{}, input.ID, err), nil
}
