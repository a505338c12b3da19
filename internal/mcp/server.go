// Package mcp exposes the sync engine and its settings as MCP tools so an
// agent can trigger syncs and manage metric preferences over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"vitalsync/internal/control"
)

// New creates an MCP server with all tools registered.
func New(svc *control.Service, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("VitalSync", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("VitalSync health data sync agent. Trigger sync passes, inspect sync history, and manage which metrics are synced and over what time window."),
	)

	h := &handlers{svc: svc, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolSyncNow, Handler: h.syncNow},
		server.ServerTool{Tool: toolGetSyncStatus, Handler: h.getSyncStatus},
		server.ServerTool{Tool: toolGetSyncLog, Handler: h.getSyncLog},
		server.ServerTool{Tool: toolListMetrics, Handler: h.listMetrics},
		server.ServerTool{Tool: toolSetMetricEnabled, Handler: h.setMetricEnabled},
		server.ServerTool{Tool: toolSetSyncDuration, Handler: h.setSyncDuration},
	)

	return s
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	svc *control.Service
	log *slog.Logger
}
