package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fitz/gameplan/internal/mcp/tools"
	"github.com/fitz/gameplan/internal/plan"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "gameplan"
	ServerVersion = "v1.0.0"
)

// Server wraps the MCP server with Game Plan tools
type Server struct {
	mcpServer *mcp.Server
	plans     *plan.Service
	logger    *slog.Logger
	handler   *tools.Handler
}

// NewServer creates a new Game Plan MCP server. defaultUserID serves calls
// that do not name a user.
func NewServer(plans *plan.Service, defaultUserID string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		plans:     plans,
		logger:    logger,
		handler:   tools.NewHandler(plans, defaultUserID, logger),
	}

	s.registerTools()
	return s
}

// registerTools adds all MCP tools to the server
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, tools.GetDayPlanTool(), s.handler.HandleGetDayPlan)
	mcp.AddTool(s.mcpServer, tools.GetDayTool(), s.handler.HandleGetDay)
	mcp.AddTool(s.mcpServer, tools.CreateEventTool(), s.handler.HandleCreateEvent)
	mcp.AddTool(s.mcpServer, tools.UpdateEventTool(), s.handler.HandleUpdateEvent)
	mcp.AddTool(s.mcpServer, tools.DeleteEventTool(), s.handler.HandleDeleteEvent)
	mcp.AddTool(s.mcpServer, tools.LogActivityTool(), s.handler.HandleLogActivity)
	mcp.AddTool(s.mcpServer, tools.UpdateLogTool(), s.handler.HandleUpdateLog)
	mcp.AddTool(s.mcpServer, tools.DeleteLogTool(), s.handler.HandleDeleteLog)
	mcp.AddTool(s.mcpServer, tools.DeleteItemTool(), s.handler.HandleDeleteItem)
	mcp.AddTool(s.mcpServer, tools.SetDayOrderTool(), s.handler.HandleSetDayOrder)
	mcp.AddTool(s.mcpServer, tools.SetWeekOrderTool(), s.handler.HandleSetWeekOrder)
	mcp.AddTool(s.mcpServer, tools.ListCategoriesTool(), s.handler.HandleListCategories)
}

// HTTPHandler returns an http.Handler for the MCP server
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Logger: s.logger,
		},
	)
}

// Run starts the MCP server over stdio (for CLI usage)
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
