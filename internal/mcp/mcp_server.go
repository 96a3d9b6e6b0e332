// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/cdc542559455/lmcache-leaderboard/core"
	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the leaderboard MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	return newServer(baseCfg, mgr, core.ExecuteAnalyze)
}

func newServer(baseCfg *contract.Config, mgr contract.CacheManager, analyze core.ExecutorFunc) *server.MCPServer {
	s := server.NewMCPServer(
		"Contributor Leaderboard Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		analyze: analyze,
	}

	// --- 1. Tool: get_leaderboard ---
	s.AddTool(mcp.NewTool("get_leaderboard",
		mcp.WithDescription("Show the ranked contributors of one leaderboard period."),
		mcp.WithString("period_type", mcp.Description("Period granularity. Defaults to the configured type."), mcp.Enum("weekly", "monthly", "quarterly")),
		mcp.WithString("period", mcp.Description("Period key such as 2025-W11, 2025-03 or 2025-Q1. Defaults to the latest period.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of contributors returned.")),
		mcp.WithBoolean("refresh", mcp.Description("Run an incremental analysis before reading the leaderboard.")),
	), h.handleGetLeaderboard)

	// --- 2. Tool: get_contributor ---
	s.AddTool(mcp.NewTool("get_contributor",
		mcp.WithDescription("Show one contributor's records across the periods of a leaderboard."),
		mcp.WithString("name", mcp.Description("Contributor name (case-insensitive)."), mcp.Required()),
		mcp.WithString("period_type", mcp.Description("Period granularity."), mcp.Enum("weekly", "monthly", "quarterly")),
	), h.handleGetContributor)

	// --- 3. Tool: list_periods ---
	s.AddTool(mcp.NewTool("list_periods",
		mcp.WithDescription("List the periods of a leaderboard with their leader and totals."),
		mcp.WithString("period_type", mcp.Description("Period granularity."), mcp.Enum("weekly", "monthly", "quarterly")),
	), h.handleListPeriods)

	return s
}

// StartMCPServer starts the leaderboard MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
