// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/livemeasure/core/live"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the livemeasure MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, computer *live.Computer) *server.MCPServer {
	s := server.NewMCPServer(
		"Live Measure Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg:  baseCfg,
		mgr:      mgr,
		computer: computer,
	}

	// --- 1. Tool: refresh_measures ---
	s.AddTool(mcp.NewTool("refresh_measures",
		mcp.WithDescription("Recompute the live measures and the quality gate of the selected components and their ancestors."),
		mcp.WithString("project", mcp.Description("Project key to restrict the refresh to (defaults to every project).")),
		mcp.WithString("components", mcp.Description("Comma separated glob patterns over component keys (e.g. 'proj:src/**').")),
	), h.handleRefreshMeasures)

	// --- 2. Tool: get_measures ---
	s.AddTool(mcp.NewTool("get_measures",
		mcp.WithDescription("Read the stored live measures of a component."),
		mcp.WithString("component", mcp.Description("Component key."), mcp.Required()),
		mcp.WithString("metrics", mcp.Description("Comma separated metric keys to keep (defaults to all).")),
	), h.handleGetMeasures)

	// --- 3. Tool: get_quality_gate ---
	s.AddTool(mcp.NewTool("get_quality_gate",
		mcp.WithDescription("Read the stored quality gate status and condition details of a project."),
		mcp.WithString("project", mcp.Description("Project key."), mcp.Required()),
	), h.handleGetQualityGate)

	return s
}

// StartMCPServer starts the livemeasure MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, computer *live.Computer) error {
	s := NewMCPServer(baseCfg, mgr, computer)
	return server.ServeStdio(s)
}
