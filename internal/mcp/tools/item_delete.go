package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DeleteItemInput defines the input for the delete_item tool.
type DeleteItemInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"User who owns the plan. Defaults to the server's user."`
	Date   string `json:"date,omitempty" jsonschema:"Day the item is on (YYYY-MM-DD). Defaults to today."`
	ItemID string `json:"item_id" jsonschema:"required,ID of the plan item as returned by get_day or get_day_plan"`
}

// DeleteItemTool returns the tool definition for delete_item.
func DeleteItemTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "delete_item",
		Description: "Delete the record behind a plan item. Only activity logs and events are deletable; other items report an error.",
	}
}

// HandleDeleteItem handles the delete_item tool call. The day is loaded
// first when the user's plan does not cover it.
func (h *Handler) HandleDeleteItem(ctx context.Context, req *mcp.CallToolRequest, input DeleteItemInput) (*mcp.CallToolResult, MutationOutput, error) {
	h.Logger.Info("delete_item", "user_id", input.UserID, "date", input.Date, "item_id", input.ItemID)

	sess, err := h.session(input.UserID)
	if err != nil {
		return nil, MutationOutput{}, err
	}
	date, err := parseDate("date", input.Date, h.Plans.Today())
	if err != nil {
		return nil, h.mutationResult("delete_item", sess, date, input.ItemID, err), nil
	}

	if _, ok := sess.Current().Day(date); !ok {
		if _, err := sess.Load(ctx, date, date); err != nil {
			return nil, h.mutationResult("delete_item", sess, date, input.ItemID, err), nil
		}
	}

	err = sess.DeleteItem(ctx, date, input.ItemID)
	return nil, h.mutationResult("delete_item", sess, date, input.ItemID, err), nil
}
