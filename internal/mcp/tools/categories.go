package tools

import (
	"context"

	"github.com/fitz/gameplan/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListCategoriesInput defines the input for the list_categories tool.
type ListCategoriesInput struct {
	Kind *string `json:"kind,omitempty" jsonschema:"Only list built-in tasks of this kind: daily or gated"`
}

// CategoryOutput describes one item category.
type CategoryOutput struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// TaskOutput describes one built-in task.
type TaskOutput struct {
	ID              string `json:"id"`
	Kind            string `json:"kind"`
	Module          string `json:"module,omitempty"`
	Title           string `json:"title"`
	RecommendedDays []int  `json:"recommended_days,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
}

// ListCategoriesOutput defines the output for the list_categories tool.
type ListCategoriesOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Tasks      []TaskOutput     `json:"tasks"`
}

// ListCategoriesTool returns the tool definition for list_categories.
func ListCategoriesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_categories",
		Description: "List the plan item categories with their order key prefixes, and the built-in Game Plan tasks.",
	}
}

// HandleListCategories handles the list_categories tool call.
func (h *Handler) HandleListCategories(ctx context.Context, req *mcp.CallToolRequest, input ListCategoriesInput) (*mcp.CallToolResult, ListCategoriesOutput, error) {
	out := ListCategoriesOutput{
		Categories: make([]CategoryOutput, len(models.ValidCategories)),
	}
	for i, c := range models.ValidCategories {
		// any non-empty id reveals the prefix
		key := models.OrderKey(c, "x")
		out.Categories[i] = CategoryOutput{Name: string(c), Prefix: key[:len(key)-1]}
	}

	var kind string
	if input.Kind != nil {
		kind = *input.Kind
	}
	tasks, err := h.Plans.Catalog().Select(kind)
	if err != nil {
		h.Logger.Error("list_categories failed", "error", err)
		return nil, ListCategoriesOutput{}, err
	}
	out.Tasks = make([]TaskOutput, len(tasks))
	for i, t := range tasks {
		out.Tasks[i] = TaskOutput{
			ID:              t.ID,
			Kind:            string(t.Kind),
			Module:          t.Module,
			Title:           t.Title,
			RecommendedDays: t.RecommendedDays,
			StartTime:       t.StartTime,
		}
	}

	h.Logger.Info("list_categories complete", "tasks", len(tasks))
	return nil, out, nil
}

